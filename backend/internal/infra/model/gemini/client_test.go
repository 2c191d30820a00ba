package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type contentPayload struct {
	Role  string `json:"role"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-2.0-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		if r.URL.Query().Get("key") != "" {
			t.Errorf("api key must not be sent in the query string")
		}
		var req struct {
			SystemInstruction *contentPayload  `json:"systemInstruction"`
			Contents          []contentPayload `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.SystemInstruction == nil || len(req.SystemInstruction.Parts) == 0 || req.SystemInstruction.Parts[0].Text != "persona" {
			t.Errorf("expected system instruction, got %+v", req.SystemInstruction)
		}
		if len(req.Contents) != 3 || req.Contents[1].Role != "model" || req.Contents[2].Role != "user" {
			t.Errorf("unexpected contents %+v", req.Contents)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello "},{"text":"there "}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := NewClient(ctx, "key", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	got, err := client.Generate(ctx, "persona", []Turn{
		{Role: "user", Text: "hi"},
		{Role: "model", Text: "hello"},
		{Role: "user", Text: "services?"},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "Hello there" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := NewClient(ctx, "bad", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Generate(ctx, "", []Turn{{Role: "user", Text: "hi"}})
	if err == nil || !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(context.Background(), "  "); err == nil {
		t.Fatalf("expected error without api key")
	}
	client, err := NewClient(context.Background(), "key", WithModel(""))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.Model() != DefaultModel {
		t.Fatalf("expected default model, got %q", client.Model())
	}
	if _, err := client.Generate(context.Background(), "persona", nil); err == nil {
		t.Fatalf("expected error without turns")
	}
}
