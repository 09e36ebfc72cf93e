package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

// AdminAuth guards admin endpoints with a bearer API key.
type AdminAuth struct {
	adminAPIKey string
	logger      *slog.Logger
}

func NewAdminAuth(logger *slog.Logger) *AdminAuth {
	apiKey := os.Getenv("ADMIN_API_KEY")
	if apiKey == "" {
		logger.Warn("ADMIN_API_KEY not set - admin endpoints will be unprotected!")
	}

	return &AdminAuth{
		adminAPIKey: apiKey,
		logger:      logger,
	}
}

// Middleware rejects requests whose Authorization header does not carry the
// configured key. With no key configured all requests pass (development mode).
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.adminAPIKey == "" {
			a.logger.Debug("Admin auth bypassed - no API key configured")
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			a.logger.Warn("Admin request rejected - missing bearer token",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			http.Error(w, "Unauthorized - missing Authorization header", http.StatusUnauthorized)
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(a.adminAPIKey)) != 1 {
			a.logger.Warn("Admin request rejected - invalid API key",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			http.Error(w, "Unauthorized - invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
