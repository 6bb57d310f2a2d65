package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"github.com/haskel/readalloc/internal/config"
)

const realm = "readalloc"

// AuthConfig holds Basic Auth credentials. Safe for concurrent reads and
// updates.
type AuthConfig struct {
	mu       sync.RWMutex
	enabled  bool
	user     string
	password string
}

func NewAuthConfig(cfg config.AuthConfig) *AuthConfig {
	a := &AuthConfig{}
	a.Update(cfg)
	return a
}

func (c *AuthConfig) Update(cfg config.AuthConfig) {
	c.mu.Lock()
	c.enabled = cfg.Enabled
	c.user = cfg.User
	c.password = cfg.Password
	c.mu.Unlock()
}

func (c *AuthConfig) get() (enabled bool, user, password string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled, c.user, c.password
}

// Auth requires Basic Auth on every path except excludePaths. A path ending
// with "*" excludes its prefix.
func Auth(cfg *AuthConfig, excludePaths ...string) Middleware {
	exact := make(map[string]bool)
	var prefixes []string
	for _, path := range excludePaths {
		if strings.HasSuffix(path, "*") {
			prefixes = append(prefixes, strings.TrimSuffix(path, "*"))
		} else {
			exact[path] = true
		}
	}

	excluded := func(path string) bool {
		if exact[path] {
			return true
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			enabled, wantUser, wantPass := cfg.get()
			if !enabled || excluded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok {
				unauthorized(w, r)
				return
			}

			userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser)) == 1
			passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass)) == 1
			if !userMatch || !passMatch {
				unauthorized(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
	WriteError(w, r, http.StatusUnauthorized, "unauthorized")
}
