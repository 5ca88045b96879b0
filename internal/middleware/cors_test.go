package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS_AllowedOrigins(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"http://localhost:5173", "chrome-extension://*"}
	handler := CORS(config)(okHandler())

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:5173", true},
		{"chrome-extension://abcdefghijklmnop", true},
		{"http://localhost:3000", false},
		{"https://evil.example", false},
		{"", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/sites", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		got := w.Header().Get("Access-Control-Allow-Origin")
		if tt.allowed && got != tt.origin {
			t.Errorf("origin %q: expected to be echoed, got %q", tt.origin, got)
		}
		if !tt.allowed && got != "" {
			t.Errorf("origin %q: expected no CORS headers, got %q", tt.origin, got)
		}
	}
}

func TestCORS_Preflight(t *testing.T) {
	config := DefaultCORSConfig()
	config.AllowedOrigins = []string{"http://localhost:5173"}
	called := false
	handler := CORS(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/sites", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for preflight, got %d", w.Code)
	}
	if called {
		t.Error("preflight must not reach the handler")
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "3600" {
		t.Errorf("expected max age 3600, got %q", got)
	}
}
