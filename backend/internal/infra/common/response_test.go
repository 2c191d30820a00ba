package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestFailWithRemaining(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	FailWithRemaining(c, http.StatusUnauthorized, "Invalid credentials. 0 attempts remaining.", 0)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != false {
		t.Fatalf("expected success=false, got %v", body["success"])
	}
	if remaining, ok := body["remaining"].(float64); !ok || remaining != 0 {
		t.Fatalf("remaining=0 must still be serialised, got %v", body["remaining"])
	}
}

func TestFailOmitsRemaining(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Fail(c, http.StatusBadRequest, "Missing credentials")

	body := decode(t, rec)
	if _, ok := body["remaining"]; ok {
		t.Fatalf("remaining must be omitted: %v", body)
	}
	if body["message"] != "Missing credentials" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Internal(c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if body := decode(t, rec); body["error"] != MessageInternal {
		t.Fatalf("unexpected body %v", body)
	}
}
