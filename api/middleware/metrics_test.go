package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/wholesaledesk/ordering-backend/pkg/metrics"
)

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	m := metrics.NewHTTPMetrics(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/api/v1/orders/{orderId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/orders/42", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReqTotal.WithLabelValues(http.MethodGet, "/api/v1/orders/{orderId}", "204")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ReqDur))
}

func TestMetricsCountsPanicsAsServerErrors(t *testing.T) {
	m := metrics.NewHTTPMetrics(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(Recoverer(nil), Metrics(m))
	r.Post("/api/v1/orders", func(http.ResponseWriter, *http.Request) {
		panic("conversion blew up")
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReqTotal.WithLabelValues(http.MethodPost, "/api/v1/orders", "500")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
}

func TestMetricsUnmatchedRoute(t *testing.T) {
	m := metrics.NewHTTPMetrics(prometheus.NewRegistry())
	handler := Metrics(m)(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReqTotal.WithLabelValues(http.MethodGet, "unmatched", "200")))
}
