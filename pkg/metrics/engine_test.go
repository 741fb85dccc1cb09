package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/wholesaledesk/ordering-backend/pkg/errors"
)

func TestEngineMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewEngineMetrics(reg)

	metrics.CartMutation("add_item", nil)
	metrics.CartMutation("add_item", nil)
	metrics.CartMutation("add_item", pkgerrors.New(pkgerrors.CodeValidation, "bad quantity"))
	metrics.ConversionFinished(nil, 250*time.Millisecond)
	metrics.ConversionFinished(pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty"), time.Millisecond)
	metrics.OrderNumberCollision()
	metrics.OutboxHandled("published", 3)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "orderdesk_cart_mutations_total", map[string]string{"operation": "add_item", "outcome": "ok"})
	require.NoError(t, err)
	assert.Equal(t, float64(2), got)

	got, err = fetchCounterValue(mfs, "orderdesk_cart_mutations_total", map[string]string{"operation": "add_item", "outcome": "validation_error"})
	require.NoError(t, err)
	assert.Equal(t, float64(1), got)

	got, err = fetchCounterValue(mfs, "orderdesk_order_conversions_total", map[string]string{"outcome": "empty_cart"})
	require.NoError(t, err)
	assert.Equal(t, float64(1), got)

	got, err = fetchCounterValue(mfs, "orderdesk_order_number_collisions_total", nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1), got)

	got, err = fetchCounterValue(mfs, "orderdesk_outbox_events_total", map[string]string{"outcome": "published"})
	require.NoError(t, err)
	assert.Equal(t, float64(3), got)

	mf := findMetricFamily(mfs, "orderdesk_order_conversion_duration_seconds")
	require.NotNil(t, mf)
	hist := mf.GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(2), hist.GetSampleCount())
	assert.Greater(t, hist.GetSampleSum(), 0.25)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var metrics *EngineMetrics
	metrics.CartMutation("clear", nil)
	metrics.ConversionFinished(nil, time.Second)
	metrics.OrderNumberCollision()
	metrics.OutboxHandled("failed", 1)

	unregistered := NewEngineMetrics(nil)
	unregistered.CartMutation("clear", nil)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
	assert.Equal(t, "sequence_exhausted", Outcome(fmt.Errorf("wrapped: %w", pkgerrors.New(pkgerrors.CodeSequenceExhausted, "x"))))
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
