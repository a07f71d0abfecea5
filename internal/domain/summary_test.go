package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

func TestOrderSummary_ScenarioFromOperators(t *testing.T) {
	orders := []domain.Order{
		{Status: domain.OrderStatusPending, PaymentStatus: domain.PaymentStatusPending, Total: decimal.NewFromInt(10)},
		{Status: domain.OrderStatusPending, PaymentStatus: domain.PaymentStatusPending, Total: decimal.NewFromInt(20)},
		{Status: domain.OrderStatusPending, PaymentStatus: domain.PaymentStatusPending, Total: decimal.NewFromInt(30)},
		{Status: domain.OrderStatusDelivered, PaymentStatus: domain.PaymentStatusPaid, Total: decimal.NewFromInt(50)},
		{Status: domain.OrderStatusCancelled, PaymentStatus: domain.PaymentStatusPending, Total: decimal.NewFromInt(70)},
	}

	var s domain.OrderSummary
	for _, o := range orders {
		s.Add(o)
	}

	require.Equal(t, int64(5), s.TotalOrders)
	require.Equal(t, int64(3), s.PendingOrders)
	require.Equal(t, int64(0), s.ShippingOrders)
	require.Equal(t, int64(1), s.CompletedOrders)
	require.Equal(t, int64(1), s.CancelledOrders)
	require.True(t, s.TotalRevenue.Equal(decimal.NewFromInt(50)), "revenue %s", s.TotalRevenue)
}

func TestOrderSummary_RevenueIsUnion(t *testing.T) {
	var s domain.OrderSummary
	s.Add(domain.Order{Status: domain.OrderStatusDelivered, PaymentStatus: domain.PaymentStatusPending, Total: decimal.NewFromInt(5)})
	s.Add(domain.Order{Status: domain.OrderStatusProcessing, PaymentStatus: domain.PaymentStatusPaid, Total: decimal.NewFromInt(7)})
	s.Add(domain.Order{Status: domain.OrderStatusShipped, PaymentStatus: domain.PaymentStatusFailed, Total: decimal.NewFromInt(100)})

	require.True(t, s.TotalRevenue.Equal(decimal.NewFromInt(12)))
	require.Equal(t, int64(2), s.ShippingOrders)
}

func TestBuckets_PartitionAllStatuses(t *testing.T) {
	seen := map[domain.OrderStatus]int{}
	for _, b := range []domain.SummaryBucket{
		domain.BucketPending, domain.BucketShipping, domain.BucketCompleted, domain.BucketCancelled,
	} {
		for _, s := range domain.StatusesIn(b) {
			seen[s]++
		}
	}
	for _, s := range domain.OrderStatuses {
		require.Equal(t, 1, seen[s], "status %s must belong to exactly one bucket", s)
	}

	_, ok := domain.BucketOf(domain.OrderStatus("LOST"))
	require.False(t, ok)
}
