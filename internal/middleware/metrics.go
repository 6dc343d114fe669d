package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"jirapulse/internal/logging"
	"jirapulse/internal/metrics"
)

// MetricsMiddleware records request counts and latency per chi route pattern
// and emits one structured log line per request.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}
		duration := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, routePattern, strconv.Itoa(wrapped.statusCode),
		).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, routePattern).Observe(duration.Seconds())

		logging.Info("HTTP request completed",
			"request_id", RequestIDFrom(r.Context()),
			"method", r.Method,
			"endpoint", routePattern,
			"status_code", wrapped.statusCode,
			"duration_ms", duration.Milliseconds(),
		)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.statusCode = code
		r.written = true
		r.ResponseWriter.WriteHeader(code)
	}
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.statusCode = http.StatusOK
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}
