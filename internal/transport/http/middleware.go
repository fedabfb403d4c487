package httptransport

import (
	"net/http"
	"strconv"
	"time"

	"onboarding-orchestrator/internal/common/logger"
	"onboarding-orchestrator/internal/common/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger logs each request once it completes and records its latency
// under the matched route pattern.
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())

			fields := map[string]interface{}{
				"method":    r.Method,
				"route":     route,
				"status":    status,
				"duration":  elapsed.String(),
				"requestId": middleware.GetReqID(r.Context()),
			}
			if status >= 500 {
				log.Error("request failed", fields)
				return
			}
			log.Debug("request handled", fields)
		})
	}
}
