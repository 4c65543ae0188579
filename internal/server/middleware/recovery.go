package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/renderlens/renderlens/internal/metrics"
	"go.uber.org/zap"
)

// Recovery converts handler panics into JSON 500 responses, logging the
// panic value and stack with the request ID.
func Recovery(logger *zap.Logger, registry *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if registry != nil {
						registry.RecordPanic()
					}
					if logger != nil {
						logger.Error("handler panic",
							zap.Any("panic", rec),
							zap.String("method", r.Method),
							zap.String("path", r.URL.Path),
							zap.String("requestID", GetRequestID(r.Context())),
							zap.String("stack", string(debug.Stack())),
						)
					}

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error":      "Internal server error",
						"messageKey": "error_internal",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
