package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
)

const namespace = "orderdesk"

// EngineMetrics records cart, conversion and outbox activity.
type EngineMetrics struct {
	cartMutations      *prometheus.CounterVec
	conversions        *prometheus.CounterVec
	numberCollisions   prometheus.Counter
	conversionDuration prometheus.Histogram
	outboxPublished    *prometheus.CounterVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
// A nil registerer yields a recorder that drops everything.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Cart mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
	conversions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_conversions_total",
		Help:      "Cart to order conversions by outcome.",
	}, []string{"outcome"})
	numberCollisions := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_number_collisions_total",
		Help:      "Order numbers rejected by the unique index and retried.",
	})
	conversionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_conversion_duration_seconds",
		Help:      "Duration of cart to order conversions in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
	outboxPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_events_total",
		Help:      "Outbox events handled by the publisher by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(cartMutations, conversions, numberCollisions, conversionDuration, outboxPublished)
	return &EngineMetrics{
		cartMutations:      cartMutations,
		conversions:        conversions,
		numberCollisions:   numberCollisions,
		conversionDuration: conversionDuration,
		outboxPublished:    outboxPublished,
	}
}

// CartMutation counts one cart operation.
func (m *EngineMetrics) CartMutation(operation string, err error) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(operation), Outcome(err)).Inc()
}

// ConversionFinished counts a conversion attempt and records how long it took.
func (m *EngineMetrics) ConversionFinished(err error, duration time.Duration) {
	if m == nil || m.conversions == nil {
		return
	}
	m.conversions.WithLabelValues(Outcome(err)).Inc()
	m.conversionDuration.Observe(duration.Seconds())
}

func (m *EngineMetrics) OrderNumberCollision() {
	if m == nil || m.numberCollisions == nil {
		return
	}
	m.numberCollisions.Inc()
}

// OutboxHandled adds n events to the given publisher outcome.
func (m *EngineMetrics) OutboxHandled(outcome string, n int) {
	if m == nil || m.outboxPublished == nil || n <= 0 {
		return
	}
	m.outboxPublished.WithLabelValues(normalizeLabel(outcome)).Add(float64(n))
}

// Outcome maps an error to a low-cardinality label: "ok" or the lower-cased error code.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "error"
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
