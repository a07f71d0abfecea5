package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestOrderMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetricsWithRegisterer(reg)

	m.RecordOrderCreated(20 * time.Millisecond)
	m.RecordOrderCreated(30 * time.Millisecond)
	m.RecordCreateRejected(RejectInsufficientStock)
	m.RecordTransition("PENDING", "CONFIRMED")
	m.RecordOutOfStock()

	require.Equal(t, 2.0, testutil.ToFloat64(m.created))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues(RejectInsufficientStock)))
	require.Equal(t, 0.0, testutil.ToFloat64(m.rejected.WithLabelValues(RejectValidation)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("PENDING", "CONFIRMED")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.outOfStock))

	var metric dto.Metric
	require.NoError(t, m.createDuration.Write(&metric))
	require.Equal(t, uint64(2), metric.GetHistogram().GetSampleCount())
}

func TestOrderMetrics_ReRegistrationReturnsExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewOrderMetricsWithRegisterer(reg)
	second := NewOrderMetricsWithRegisterer(reg)

	first.RecordOrderCreated(time.Millisecond)
	require.Equal(t, 1.0, testutil.ToFloat64(second.created))
}

func TestOrderMetrics_NilSafe(t *testing.T) {
	var m *OrderMetrics
	require.NotPanics(t, func() {
		m.RecordOrderCreated(time.Second)
		m.RecordCreateRejected(RejectInternal)
		m.RecordTransition("A", "B")
		m.RecordOutOfStock()
	})
}

func TestRegister_TypeMismatchPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	registerCounter(reg, prometheus.CounterOpts{Name: "fulfillment_test_metric", Help: "test"})

	require.Panics(t, func() {
		registerGauge(reg, prometheus.GaugeOpts{Name: "fulfillment_test_metric", Help: "test"})
	})
}

func TestOutboxMetrics_SetBacklog(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetricsWithRegisterer(reg)
	now := time.Now()

	m.SetBacklog(3, now.Add(-10*time.Second), now)
	require.Equal(t, 3.0, testutil.ToFloat64(m.pendingRecords))
	require.InDelta(t, 10.0, testutil.ToFloat64(m.oldestPendingAge), 0.001)

	m.SetBacklog(0, time.Time{}, now)
	require.Equal(t, 0.0, testutil.ToFloat64(m.pendingRecords))
	require.Equal(t, 0.0, testutil.ToFloat64(m.oldestPendingAge))

	m.RecordPublish("sent")
	require.Equal(t, 1.0, testutil.ToFloat64(m.publishAttempts.WithLabelValues("sent")))
}
