package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdminAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		wantStatus int
	}{
		{
			name:       "no key configured passes everything",
			configured: "",
			header:     "",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header rejected",
			configured: "secret-key",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong key rejected",
			configured: "secret-key",
			header:     "Bearer wrong-key",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "key without bearer scheme rejected",
			configured: "secret-key",
			header:     "secret-key",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "correct key passes",
			configured: "secret-key",
			header:     "Bearer secret-key",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ADMIN_API_KEY", tt.configured)

			auth := NewAdminAuth(slog.New(slog.NewTextHandler(io.Discard, nil)))
			handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
