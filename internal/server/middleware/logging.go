package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/renderlens/renderlens/internal/metrics"
	"go.uber.org/zap"
)

// responseWriter wraps http.ResponseWriter to capture status code and
// response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// endpointPattern extracts the chi route pattern to keep metric label
// cardinality bounded.
func endpointPattern(r *http.Request) string {
	if pattern := chi.RouteContext(r.Context()).RoutePattern(); pattern != "" {
		return pattern
	}

	switch path := r.URL.Path; path {
	case "/", "/health", "/ready", "/metrics", "/version":
		return path
	default:
		return "/unknown"
	}
}

// Instrument returns a middleware that records each completed request in
// the registry and logs it with its request ID.
func Instrument(logger *zap.Logger, registry *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			requestSize := int64(0)
			if contentLength := r.Header.Get("Content-Length"); contentLength != "" {
				if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
					requestSize = size
				}
			}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			endpoint := endpointPattern(r)

			if registry != nil {
				registry.ObserveRequest(r.Method, endpoint, wrapped.statusCode, duration)
			}

			if logger != nil {
				logger.Info("HTTP request completed",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("endpoint", endpoint),
					zap.Int("status", wrapped.statusCode),
					zap.Duration("duration", duration),
					zap.Int64("request_size", requestSize),
					zap.Int64("response_size", wrapped.bytesWritten),
					zap.String("requestID", GetRequestID(r.Context())),
				)
			}
		})
	}
}
