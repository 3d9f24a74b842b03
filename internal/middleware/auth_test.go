package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hackcrew/service_layer/internal/app/auth"
	"github.com/hackcrew/service_layer/internal/logging"
)

func newTestAuth(t *testing.T, required bool, skipPaths ...string) (*AuthMiddleware, *auth.Manager) {
	t.Helper()
	tokens := auth.NewManager("test-secret", time.Minute, time.Hour)
	return NewAuthMiddleware(tokens, logging.Discard(), skipPaths, required), tokens
}

func okHandler(captured *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = GetUserID(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewAuthMiddleware(t *testing.T) {
	middleware, _ := newTestAuth(t, true, "/health", "/metrics")

	if len(middleware.skipPaths) != 2 {
		t.Errorf("skipPaths length = %d, want 2", len(middleware.skipPaths))
	}
	if !middleware.skipPaths["/health"] {
		t.Error("skipPaths does not contain /health")
	}
	if !middleware.required {
		t.Error("required not set")
	}
}

func TestAuthMiddleware_Handler_SkipPaths(t *testing.T) {
	middleware, _ := newTestAuth(t, true, "/health")
	handler := middleware.Handler(okHandler(nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_Handler_MissingAuthHeader(t *testing.T) {
	required, _ := newTestAuth(t, true)
	rec := httptest.NewRecorder()
	required.Handler(okHandler(nil)).ServeHTTP(rec, httptest.NewRequest("GET", "/user-projects", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("required: Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	optional, _ := newTestAuth(t, false)
	rec = httptest.NewRecorder()
	optional.Handler(okHandler(nil)).ServeHTTP(rec, httptest.NewRequest("GET", "/user-projects", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("optional: Status code = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_Handler_InvalidAuthHeaderFormat(t *testing.T) {
	middleware, _ := newTestAuth(t, false)
	handler := middleware.Handler(okHandler(nil))

	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "token123"},
		{"wrong prefix", "Basic token123"},
		{"empty token", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/test", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddleware_Handler_ValidToken(t *testing.T) {
	middleware, tokens := newTestAuth(t, true)

	var capturedUserID string
	handler := middleware.Handler(okHandler(&capturedUserID))

	pair, err := tokens.Issue("user-123", "test@example.com", "student")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	req := httptest.NewRequest("GET", "/api/test", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}
	if capturedUserID != "user-123" {
		t.Errorf("User ID = %v, want user-123", capturedUserID)
	}
}

func TestAuthMiddleware_Handler_RefreshTokenRejected(t *testing.T) {
	middleware, tokens := newTestAuth(t, true)
	pair, err := tokens.Issue("user-123", "", "")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	req := httptest.NewRequest("GET", "/api/test", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	rec := httptest.NewRecorder()
	middleware.Handler(okHandler(nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_Handler_WrongSigningKey(t *testing.T) {
	middleware, _ := newTestAuth(t, true)
	foreign := auth.NewManager("another-secret", time.Minute, time.Hour)
	pair, err := foreign.Issue("user-123", "", "")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	req := httptest.NewRequest("GET", "/api/test", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	middleware.Handler(okHandler(nil)).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireUserID(t *testing.T) {
	handler := RequireUserID(okHandler(nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(logging.WithUserID(req.Context(), "u1"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}
}
