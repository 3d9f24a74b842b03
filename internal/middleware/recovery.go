package middleware

import (
	"fmt"
	"net/http"

	"github.com/hackcrew/service_layer/internal/errors"
	internalhttputil "github.com/hackcrew/service_layer/internal/httputil"
	"github.com/hackcrew/service_layer/internal/logging"
)

// RecoveryMiddleware turns handler panics into a 500 with the standard error
// body. The trace ID set by LoggingMiddleware ties the log line to the client.
type RecoveryMiddleware struct {
	logger *logging.Logger
}

// NewRecoveryMiddleware creates a new recovery middleware.
func NewRecoveryMiddleware(logger *logging.Logger) *RecoveryMiddleware {
	return &RecoveryMiddleware{logger: logger}
}

// Handler returns the recovery middleware handler.
func (m *RecoveryMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				m.logger.WithContext(r.Context()).WithField("panic", rec).Error("handler panicked")
				internalhttputil.WriteServiceError(w, r, errors.Internal("Internal server error", fmt.Errorf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
