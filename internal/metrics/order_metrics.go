package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Причины отказа в создании заказа (label reason).
const (
	RejectValidation        = "validation"
	RejectNotFound          = "not_found"
	RejectInsufficientStock = "insufficient_stock"
	RejectInternal          = "internal"
)

// OrderMetrics содержит метрики оформления и жизненного цикла заказов.
type OrderMetrics struct {
	created        prometheus.Counter
	rejected       *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	createDuration prometheus.Histogram
	outOfStock     prometheus.Counter
}

// NewOrderMetrics регистрирует метрики в DefaultRegisterer.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer регистрирует метрики в переданном реестре.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	return &OrderMetrics{
		created: registerCounter(registerer, prometheus.CounterOpts{
			Name: "fulfillment_orders_created_total",
			Help: "Total number of orders created from carts",
		}),
		rejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "fulfillment_order_create_rejected_total",
			Help: "Total number of rejected order creations grouped by reason",
		}, []string{"reason"}),
		transitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "fulfillment_order_transitions_total",
			Help: "Total number of applied order status transitions",
		}, []string{"from", "to"}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "fulfillment_order_create_duration_seconds",
			Help:    "Duration of order creation in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
		outOfStock: registerCounter(registerer, prometheus.CounterOpts{
			Name: "fulfillment_products_out_of_stock_total",
			Help: "Total number of products that ran out of stock on order creation",
		}),
	}
}

// RecordOrderCreated учитывает созданный заказ и длительность оформления.
func (m *OrderMetrics) RecordOrderCreated(duration time.Duration) {
	if m == nil {
		return
	}
	m.created.Inc()
	m.createDuration.Observe(duration.Seconds())
}

func (m *OrderMetrics) RecordCreateRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

// RecordTransition учитывает применённый переход статуса.
func (m *OrderMetrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *OrderMetrics) RecordOutOfStock() {
	if m == nil {
		return
	}
	m.outOfStock.Inc()
}
