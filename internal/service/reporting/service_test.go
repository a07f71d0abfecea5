package reporting_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/reporting"
	"github.com/vladislavdragonenkov/fulfillment/internal/storage/memory"
)

var now = time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

func putOrder(store *memory.Store, id string, status domain.OrderStatus, payment domain.PaymentStatus, total string, created time.Time) {
	store.PutOrder(domain.Order{
		ID:            id,
		CustomerID:    "customer-1",
		OrderNumber:   "ORD-" + id,
		Total:         decimal.RequireFromString(total),
		Status:        status,
		PaymentStatus: payment,
		CreatedAt:     created,
		UpdatedAt:     created,
	})
}

func newService(store *memory.Store, options ...reporting.Option) *reporting.Service {
	options = append([]reporting.Option{reporting.WithClock(func() time.Time { return now })}, options...)
	return reporting.NewService(
		memory.NewOrderRepository(store),
		memory.NewCustomerDirectory(store),
		memory.NewCatalogStats(store),
		memory.NewMarketingDirectory(store),
		options...,
	)
}

func TestSummarize_BucketsAndRevenue(t *testing.T) {
	store := memory.NewStore()
	putOrder(store, "p1", domain.OrderStatusPending, domain.PaymentStatusPending, "10.00", now)
	putOrder(store, "p2", domain.OrderStatusPending, domain.PaymentStatusPending, "10.00", now)
	putOrder(store, "p3", domain.OrderStatusPending, domain.PaymentStatusPending, "10.00", now)
	putOrder(store, "d1", domain.OrderStatusDelivered, domain.PaymentStatusPaid, "50.00", now)
	putOrder(store, "c1", domain.OrderStatusCancelled, domain.PaymentStatusPending, "20.00", now)

	summary, err := newService(store).Summarize(context.Background(), domain.OrderFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(5), summary.TotalOrders)
	assert.Equal(t, int64(3), summary.PendingOrders)
	assert.Equal(t, int64(0), summary.ShippingOrders)
	assert.Equal(t, int64(1), summary.CompletedOrders)
	assert.Equal(t, int64(1), summary.CancelledOrders)
	assert.True(t, summary.TotalRevenue.Equal(decimal.RequireFromString("50")), summary.TotalRevenue.String())
}

func TestOverview(t *testing.T) {
	store := memory.NewStore()
	store.AddCustomer(domain.Customer{ID: "customer-1", Username: "anna", FirstName: "Anna", LastName: "Petrova", CreatedAt: now.AddDate(0, 0, -60)})
	store.AddCustomer(domain.Customer{ID: "customer-2", Username: "boris", CreatedAt: now.AddDate(0, 0, -2)})
	store.AddProduct(domain.Product{ID: "p-low", Name: "Low", Price: decimal.NewFromInt(1), StockQuantity: 5})
	store.AddProduct(domain.Product{ID: "p-ok", Name: "Ok", Price: decimal.NewFromInt(1), StockQuantity: 6})
	store.AddBanner("b-1", true)
	store.AddBanner("b-2", false)
	store.AddCoupon("c-1", true)

	putOrder(store, "today", domain.OrderStatusPending, domain.PaymentStatusPaid, "30.00", now.Add(-time.Hour))
	putOrder(store, "yesterday", domain.OrderStatusDelivered, domain.PaymentStatusPaid, "20.00", now.AddDate(0, 0, -1))
	putOrder(store, "unpaid", domain.OrderStatusDelivered, domain.PaymentStatusPending, "99.00", now.AddDate(0, 0, -3))
	putOrder(store, "old", domain.OrderStatusDelivered, domain.PaymentStatusPaid, "100.00", now.AddDate(0, 0, -40))
	for i := 0; i < 4; i++ {
		putOrder(store, "extra-"+string(rune('a'+i)), domain.OrderStatusCancelled, domain.PaymentStatusFailed, "1.00", now.AddDate(0, 0, -10-i))
	}

	overview, err := newService(store).Overview(context.Background())
	require.NoError(t, err)

	s := overview.Summary
	assert.True(t, s.TotalRevenue.Equal(decimal.RequireFromString("150.00")), s.TotalRevenue.String())
	assert.True(t, s.Revenue30Days.Equal(decimal.RequireFromString("50.00")), s.Revenue30Days.String())
	assert.Equal(t, int64(8), s.TotalOrders)
	assert.Equal(t, int64(1), s.PendingOrders)
	assert.Equal(t, int64(3), s.DeliveredOrders)
	assert.Equal(t, int64(2), s.TotalCustomers)
	assert.Equal(t, int64(1), s.NewCustomers)
	assert.Equal(t, int64(2), s.TotalProducts)
	assert.Equal(t, int64(1), s.LowStockProducts)
	assert.Equal(t, int64(1), s.ActiveBanners)
	assert.Equal(t, int64(1), s.ActiveCoupons)

	require.Len(t, overview.RevenueTrend, reporting.TrendDays)
	first := overview.RevenueTrend[0]
	last := overview.RevenueTrend[reporting.TrendDays-1]
	assert.Equal(t, time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), last.Date)
	assert.True(t, last.Revenue.Equal(decimal.RequireFromString("30.00")))
	assert.Equal(t, int64(1), last.Orders)
	assert.True(t, overview.RevenueTrend[5].Revenue.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, overview.RevenueTrend[2].Revenue.IsZero())
	assert.Equal(t, int64(0), overview.RevenueTrend[2].Orders)

	require.Len(t, overview.RecentOrders, reporting.RecentOrdersLimit)
	assert.Equal(t, "today", overview.RecentOrders[0].ID)
	assert.Equal(t, "Anna Petrova", overview.RecentOrders[0].CustomerName)
}

func TestOverview_EmptyStoreStillHasFullTrend(t *testing.T) {
	overview, err := newService(memory.NewStore()).Overview(context.Background())
	require.NoError(t, err)
	require.Len(t, overview.RevenueTrend, reporting.TrendDays)
	for i, p := range overview.RevenueTrend {
		assert.True(t, p.Revenue.IsZero())
		assert.Equal(t, now.AddDate(0, 0, i-6).Truncate(24*time.Hour), p.Date)
	}
	assert.Empty(t, overview.RecentOrders)
	assert.NotNil(t, overview.RecentOrders)
}

func TestOverview_LowStockThresholdOption(t *testing.T) {
	store := memory.NewStore()
	store.AddProduct(domain.Product{ID: "p-1", Name: "A", Price: decimal.NewFromInt(1), StockQuantity: 8})

	overview, err := newService(store, reporting.WithLowStockThreshold(10)).Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), overview.Summary.LowStockProducts)
}

func TestRevenueTrend_UsesLocationDays(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	start := time.Date(2024, 6, 4, 0, 0, 0, 0, loc)
	paid := []domain.PaidAmount{
		// 20:00 UTC 9 июня в UTC+5 уже 10 июня.
		{CreatedAt: time.Date(2024, 6, 9, 20, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(7)},
		{CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(100)},
	}

	trend := reporting.RevenueTrend(start, paid, loc)
	require.Len(t, trend, reporting.TrendDays)
	assert.True(t, trend[6].Revenue.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, int64(1), trend[6].Orders)
	total := decimal.Zero
	for _, p := range trend {
		total = total.Add(p.Revenue)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(7)))
}

type failingCatalog struct{}

func (failingCatalog) CountProducts(context.Context) (int64, error) { return 0, errors.New("db down") }
func (failingCatalog) CountLowStock(context.Context, int) (int64, error) {
	return 0, nil
}

func TestOverview_PropagatesCollaboratorError(t *testing.T) {
	store := memory.NewStore()
	svc := reporting.NewService(
		memory.NewOrderRepository(store),
		memory.NewCustomerDirectory(store),
		failingCatalog{},
		memory.NewMarketingDirectory(store),
	)
	_, err := svc.Overview(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboard products")
}
