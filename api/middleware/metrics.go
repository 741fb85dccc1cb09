package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/wholesaledesk/ordering-backend/pkg/metrics"
)

// Metrics counts requests and observes latency per chi route pattern.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			m.InFlight.Inc()
			start := time.Now()
			defer func() {
				rec := recover()
				m.InFlight.Dec()
				status := ww.Status()
				switch {
				case rec != nil:
					status = http.StatusInternalServerError
				case status == 0:
					status = http.StatusOK
				}
				route := routeLabel(r)
				m.ReqTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
				m.ReqDur.WithLabelValues(r.Method, route).Observe(metrics.DurationMillis(time.Since(start)))
				if rec != nil {
					panic(rec)
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// routeLabel is the matched chi pattern, which keeps label cardinality
// bounded; unmatched requests share one label.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
