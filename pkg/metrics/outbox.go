package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxBacklog counts outbox rows by state.
type OutboxBacklog interface {
	CountPending() (int64, error)
	CountParked() (int64, error)
}

// RegisterOutboxBacklog exports pending and parked row counts, queried on
// every scrape. A failed count reports -1.
func RegisterOutboxBacklog(reg prometheus.Registerer, backlog OutboxBacklog) {
	if reg == nil || backlog == nil {
		return
	}
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_pending_events",
			Help:      "Outbox rows not yet published or parked.",
		}, countOrNegative(backlog.CountPending)),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_parked_events",
			Help:      "Outbox rows the publisher gave up on.",
		}, countOrNegative(backlog.CountParked)),
	)
}

func countOrNegative(count func() (int64, error)) func() float64 {
	return func() float64 {
		n, err := count()
		if err != nil {
			return -1
		}
		return float64(n)
	}
}
