package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"portfolio-backend/backend/internal/handler"
	"portfolio-backend/backend/internal/infra/client"
	"portfolio-backend/backend/internal/infra/ratelimit"
	"portfolio-backend/backend/internal/infra/session"
	"portfolio-backend/backend/internal/middleware"
	"portfolio-backend/backend/internal/repository"
	"portfolio-backend/backend/internal/service/analytics"
	"portfolio-backend/backend/internal/service/auth"
	"portfolio-backend/backend/internal/service/chat"
	"portfolio-backend/backend/internal/service/contact"
	"portfolio-backend/backend/internal/service/dashboard"

	"github.com/gin-gonic/gin"
)

type testServer struct {
	engine *gin.Engine
	store  repository.Store
}

func newTestServer(t *testing.T, chatLimit int) *testServer {
	t.Helper()
	dir := t.TempDir()

	db, err := client.OpenSQLite(filepath.Join(dir, "db", "portfolio.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store := repository.NewSQLiteStore(db)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := store.SeedAdmin(ctx); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	templates := filepath.Join(dir, "templates")
	if err := os.MkdirAll(templates, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"index.html", "login.html", "dashboard.html"} {
		if err := os.WriteFile(filepath.Join(templates, name), []byte("<html>"+name+"</html>"), 0o644); err != nil {
			t.Fatalf("write template: %v", err)
		}
	}

	authSvc := auth.NewService(store, ratelimit.NewMemoryAttemptWindow(0, 0, nil), session.NewMemoryStore(time.Hour), nil)
	engine, err := NewRouter(RouterOptions{
		AuthHandler:      handler.NewAuthHandler(authSvc, middleware.CookieOptions{}, nil),
		ContactHandler:   handler.NewContactHandler(contact.NewService(store, nil, nil)),
		AnalyticsHandler: handler.NewAnalyticsHandler(analytics.NewService(store)),
		ChatHandler:      handler.NewChatHandler(chat.NewService(chat.NewGenerator(nil, 0, nil), store, nil)),
		DashboardHandler: handler.NewDashboardHandler(dashboard.NewService(store)),
		PageHandler:      handler.NewPageHandler(templates),
		SessionLoader:    middleware.NewSessionLoader(authSvc, nil),
		AdminGuard:       middleware.NewAdminGuard(),
		ChatLimiter:      middleware.NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(chatLimit, time.Minute, nil), "chat", nil),
		AllowedOrigins:   []string{"*"},
		StaticFS:         NewStaticFS(dir),
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return &testServer{engine: engine, store: store}
}

func (s *testServer) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:4321"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, password string) (*httptest.ResponseRecorder, *http.Cookie) {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/admin/login", map[string]string{"username": "admin", "password": password})
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return rec, c
		}
	}
	return rec, nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, 0)
	rec := srv.do(http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "ok" {
		t.Fatalf("unexpected status %v", body["status"])
	}
	ts, _ := body["time"].(string)
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t.Fatalf("time not RFC3339: %q", ts)
	}
	if _, offset := parsed.Zone(); offset != 0 {
		t.Fatalf("expected UTC time, got %q", ts)
	}
}

func TestAdminDataRequiresSession(t *testing.T) {
	srv := newTestServer(t, 0)

	rec := srv.do(http.MethodGet, "/api/admin/stats", nil)
	if rec.Code != http.StatusUnauthorized || decode(t, rec)["error"] != "Unauthorized" {
		t.Fatalf("expected 401 before login, got %d %s", rec.Code, rec.Body.String())
	}

	rec, cookie := srv.login(t, "admin123")
	if rec.Code != http.StatusOK || cookie == nil {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	if body := decode(t, rec); body["success"] != true || body["message"] != "Login successful" {
		t.Fatalf("unexpected login body %v", body)
	}
	if !cookie.HttpOnly || cookie.MaxAge != 0 {
		t.Fatalf("cookie must be HttpOnly session cookie: %+v", cookie)
	}

	for _, path := range []string{"/api/admin/messages", "/api/admin/chats", "/api/admin/analytics", "/api/admin/stats"} {
		if rec := srv.do(http.MethodGet, path, nil, cookie); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}

	if body := decode(t, srv.do(http.MethodGet, "/api/admin/check", nil, cookie)); body["authenticated"] != true {
		t.Fatalf("expected authenticated, got %v", body)
	}

	if rec := srv.do(http.MethodPost, "/api/admin/logout", nil, cookie); rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}
	if rec := srv.do(http.MethodGet, "/api/admin/stats", nil, cookie); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
	if body := decode(t, srv.do(http.MethodGet, "/api/admin/check", nil)); body["authenticated"] != false {
		t.Fatalf("expected unauthenticated, got %v", body)
	}
}

func TestLogin_SuccessClearsFailures(t *testing.T) {
	srv := newTestServer(t, 0)

	for i := 0; i < 4; i++ {
		if rec, _ := srv.login(t, "wrong"); rec.Code != http.StatusUnauthorized {
			t.Fatalf("failure %d: expected 401, got %d", i, rec.Code)
		}
	}
	if rec, _ := srv.login(t, "admin123"); rec.Code != http.StatusOK {
		t.Fatalf("expected success, got %d", rec.Code)
	}
	rec, _ := srv.login(t, "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after cleared history, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != false || body["remaining"] != float64(4) {
		t.Fatalf("unexpected body %v", body)
	}
	if body["message"] != "Invalid credentials. 4 attempts remaining." {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestLogin_LocksOutAfterFiveFailures(t *testing.T) {
	srv := newTestServer(t, 0)

	for i := 0; i < 5; i++ {
		srv.login(t, "wrong")
	}
	rec, cookie := srv.login(t, "admin123")
	if rec.Code != http.StatusTooManyRequests || cookie != nil {
		t.Fatalf("expected 429 without session, got %d", rec.Code)
	}
	if body := decode(t, rec); body["success"] != false {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestLogin_MissingCredentials(t *testing.T) {
	srv := newTestServer(t, 0)
	rec := srv.do(http.MethodPost, "/api/admin/login", map[string]string{"username": "admin"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestContactAndStats(t *testing.T) {
	srv := newTestServer(t, 0)

	rec := srv.do(http.MethodPost, "/api/contact", map[string]string{"name": "Ann", "email": "ann@example.com", "subject": "Hi"})
	if rec.Code != http.StatusBadRequest || decode(t, rec)["error"] != "Missing message" {
		t.Fatalf("expected missing message error, got %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(http.MethodPost, "/api/contact", map[string]string{
		"name": "Ann", "email": "ann@example.com", "subject": "Hi", "message": "Hello there",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("contact failed: %d %s", rec.Code, rec.Body.String())
	}
	if body := decode(t, rec); len(body) != 1 || body["message"] != "Message sent successfully" {
		t.Fatalf("unexpected contact body %v", body)
	}

	rec = srv.do(http.MethodPost, "/api/analytics", map[string]any{"event": "page_view", "data": map[string]string{"page": "/"}})
	if rec.Code != http.StatusOK || decode(t, rec)["success"] != true {
		t.Fatalf("analytics failed: %d %s", rec.Code, rec.Body.String())
	}

	counts, err := srv.store.Counts(context.Background())
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Messages != 1 || counts.Events != 2 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestChat_FallbackAndRateLimit(t *testing.T) {
	srv := newTestServer(t, 2)

	rec := srv.do(http.MethodPost, "/api/ai-chat", map[string]string{"message": "   "})
	if rec.Code != http.StatusBadRequest || decode(t, rec)["error"] != "Message required" {
		t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(http.MethodPost, "/api/ai-chat", map[string]any{"message": "hello", "history": []map[string]string{{"user": "hi", "ai": "hey"}}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if reply, _ := decode(t, rec)["reply"].(string); reply != chat.FallbackReply("hello") {
		t.Fatalf("unexpected reply %q", reply)
	}

	rec = srv.do(http.MethodPost, "/api/ai-chat", map[string]string{"message": "hello"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestChat_MalformedHistoryIsIgnored(t *testing.T) {
	srv := newTestServer(t, 10)

	bodies := []any{
		map[string]any{"message": "hello", "history": []string{"x"}},
		map[string]any{"message": "hello", "history": "not-a-list"},
		map[string]any{"message": "hello", "history": []any{7, map[string]string{"user": "hi", "ai": "hey"}, nil}},
	}
	for _, body := range bodies {
		rec := srv.do(http.MethodPost, "/api/ai-chat", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for %v, got %d %s", body, rec.Code, rec.Body.String())
		}
		if reply, _ := decode(t, rec)["reply"].(string); reply != chat.FallbackReply("hello") {
			t.Fatalf("unexpected reply %q", reply)
		}
	}
}

func TestPages_RedirectBySession(t *testing.T) {
	srv := newTestServer(t, 0)

	rec := srv.do(http.MethodGet, "/admin/dashboard.html", nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/login.html" {
		t.Fatalf("expected redirect to login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if rec := srv.do(http.MethodGet, "/admin/login.html", nil); rec.Code != http.StatusOK {
		t.Fatalf("login page: %d", rec.Code)
	}

	_, cookie := srv.login(t, "admin123")
	rec = srv.do(http.MethodGet, "/admin/login.html", nil, cookie)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/dashboard.html" {
		t.Fatalf("expected redirect to dashboard, got %d", rec.Code)
	}
	rec = srv.do(http.MethodGet, "/admin/dashboard.html", nil, cookie)
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("dashboard.html")) {
		t.Fatalf("dashboard page: %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("index.html")) {
		t.Fatalf("index page: %d", rec.Code)
	}
}

func TestStaticFS_HidesDotfiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SECRET=1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("ok"), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := NewStaticFS(dir)
	if _, err := fs.Open("/.env"); err == nil {
		t.Fatalf("dotfile must not be served")
	}
	f, err := fs.Open("/app.js")
	if err != nil {
		t.Fatalf("open app.js: %v", err)
	}
	_ = f.Close()
}
