package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haskel/readalloc/internal/config"
)

func TestAuth(t *testing.T) {
	enabled := config.AuthConfig{Enabled: true, User: "admin", Password: "secret"}

	tests := []struct {
		name     string
		cfg      config.AuthConfig
		path     string
		user     string
		password string
		useAuth  bool
		expected int
	}{
		{"disabled", config.AuthConfig{}, "/v1/optimize", "", "", false, http.StatusOK},
		{"valid credentials", enabled, "/v1/optimize", "admin", "secret", true, http.StatusOK},
		{"wrong password", enabled, "/v1/optimize", "admin", "wrong", true, http.StatusUnauthorized},
		{"wrong user", enabled, "/v1/optimize", "root", "secret", true, http.StatusUnauthorized},
		{"no credentials", enabled, "/v1/optimize", "", "", false, http.StatusUnauthorized},
		{"excluded exact path", enabled, "/health", "", "", false, http.StatusOK},
		{"excluded prefix", enabled, "/public/doc", "", "", false, http.StatusOK},
		{"prefix matches longer path", enabled, "/publicity", "", "", false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Auth(NewAuthConfig(tt.cfg), "/health", "/public*")(okHandler())

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.useAuth {
				req.SetBasicAuth(tt.user, tt.password)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, w.Code)
			}
			if w.Code == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") != `Basic realm="readalloc"` {
				t.Errorf("unexpected WWW-Authenticate header: %q", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestAuth_Update(t *testing.T) {
	cfg := NewAuthConfig(config.AuthConfig{})
	handler := Auth(cfg)(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 before update, got %d", w.Code)
	}

	cfg.Update(config.AuthConfig{Enabled: true, User: "admin", Password: "secret"})

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 after update, got %d", w.Code)
	}
}
