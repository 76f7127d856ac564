package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sha1n/docscan/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(t *testing.T, settings config.AuthSettings, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	middleware, err := NewMiddleware(settings, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	rec := httptest.NewRecorder()
	middleware(okHandler()).ServeHTTP(rec, req)
	return rec
}

var basicSettings = config.AuthSettings{
	Type: config.AuthTypeBasic,
	Basic: config.BasicAuthSettings{
		Username: "admin",
		Password: "secret",
	},
}

var apiKeySettings = config.AuthSettings{
	Type:    config.AuthTypeAPIKey,
	APIKeys: []string{"key1", "key2"},
}

func TestNewMiddleware_NoAuth(t *testing.T) {
	for _, authType := range []string{config.AuthTypeNone, ""} {
		rec := serve(t, config.AuthSettings{Type: authType}, httptest.NewRequest("GET", "/sse", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("auth type %q: expected status 200, got %d", authType, rec.Code)
		}
	}
}

func TestNewMiddleware_BasicAuth(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		pass     string
		setAuth  bool
		wantCode int
	}{
		{name: "valid", user: "admin", pass: "secret", setAuth: true, wantCode: http.StatusOK},
		{name: "wrong password", user: "admin", pass: "nope", setAuth: true, wantCode: http.StatusUnauthorized},
		{name: "wrong user", user: "root", pass: "secret", setAuth: true, wantCode: http.StatusUnauthorized},
		{name: "no credentials", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/sse", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := serve(t, basicSettings, req)

			if rec.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantCode == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("Expected WWW-Authenticate challenge")
			}
		})
	}
}

func TestNewMiddleware_APIKey(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		value    string
		wantCode int
	}{
		{name: "header", header: APIKeyHeader, value: "key2", wantCode: http.StatusOK},
		{name: "bearer", header: "Authorization", value: "Bearer key1", wantCode: http.StatusOK},
		{name: "invalid key", header: APIKeyHeader, value: "other", wantCode: http.StatusUnauthorized},
		{name: "invalid bearer", header: "Authorization", value: "Bearer other", wantCode: http.StatusUnauthorized},
		{name: "basic scheme is not a key", header: "Authorization", value: "Basic a2V5MQ==", wantCode: http.StatusUnauthorized},
		{name: "missing", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/message", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := serve(t, apiKeySettings, req)

			if rec.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestNewMiddleware_InvalidSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings config.AuthSettings
	}{
		{name: "basic without password", settings: config.AuthSettings{Type: config.AuthTypeBasic, Basic: config.BasicAuthSettings{Username: "admin"}}},
		{name: "basic without username", settings: config.AuthSettings{Type: config.AuthTypeBasic, Basic: config.BasicAuthSettings{Password: "secret"}}},
		{name: "apikey without keys", settings: config.AuthSettings{Type: config.AuthTypeAPIKey}},
		{name: "unknown type", settings: config.AuthSettings{Type: "oauth"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMiddleware(tt.settings, nil); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestExcludedPath_Health(t *testing.T) {
	for _, settings := range []config.AuthSettings{basicSettings, apiKeySettings} {
		rec := serve(t, settings, httptest.NewRequest("GET", "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected status 200 for /health, got %d", settings.Type, rec.Code)
		}
	}
}

func TestIsExcludedPath(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/health", true},
		{"/sse", false},
		{"/api/health", false},
		{"/", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := isExcludedPath(tt.path); got != tt.expected {
				t.Errorf("isExcludedPath(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}
