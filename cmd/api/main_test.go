package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/idgate/internal/auth"
	"github.com/yourusername/idgate/internal/config"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		CORSAllowedOrigins: "http://localhost:5173, http://example.com",
		SessionStore:       config.StoreFile,
		SessionFile:        filepath.Join(t.TempDir(), "sessions.json"),
		SessionTTLHours:    24,
	}
	store, closeStore, err := setupStore(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("setupStore returned error: %v", err)
	}
	t.Cleanup(closeStore)
	return newRouter(cfg, zap.NewNop(), auth.NewManager(cfg, store, zap.NewNop()))
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestLoginSessionLogoutFlow(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"user":"a@b.co"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected session cookie")
	}

	check := func() map[string]any {
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		var payload map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		return payload
	}

	if payload := check(); payload["authenticated"] != true || payload["type"] != "email" {
		t.Fatalf("unexpected session payload: %v", payload)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout failed: %d", rec.Code)
	}

	if payload := check(); payload["authenticated"] != false {
		t.Fatalf("unexpected session payload after logout: %v", payload)
	}
}

func TestCORSAllowsCredentials(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("unexpected allow-origin: %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("expected credentials to be allowed")
	}
}

func TestSetupStoreUnknown(t *testing.T) {
	_, _, err := setupStore(&config.Config{SessionStore: "memcached"}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for unknown store")
	}
}
