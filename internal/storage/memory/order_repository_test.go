package memory_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/storage/memory"
)

func newOrder(id, number string, createdAt time.Time) domain.Order {
	productID := "product-1"
	return domain.Order{
		ID:            id,
		CustomerID:    "customer-1",
		OrderNumber:   number,
		Total:         decimal.RequireFromString("100.00"),
		ShippingName:  "Anna",
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		Items: []domain.OrderItem{
			{
				ID:          id + "-item",
				OrderID:     id,
				ProductID:   &productID,
				ProductName: "Chair",
				UnitPrice:   decimal.RequireFromString("100.00"),
				Quantity:    1,
				Subtotal:    decimal.RequireFromString("100.00"),
				CreatedAt:   createdAt,
			},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestOrderRepository_CreateGet(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewOrderRepository(store)
	ctx := context.Background()
	order := newOrder("order-1", "ORD-1", time.Now().UTC())

	require.NoError(t, store.Do(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Orders().Create(ctx, order)
	}))

	stored, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, stored.ID)
	require.Len(t, stored.Items, 1)

	byNumber, err := repo.GetByNumber(ctx, "ORD-1")
	require.NoError(t, err)
	require.Equal(t, order.ID, byNumber.ID)

	_, err = repo.GetByNumber(ctx, "ORD-404")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_CreateDuplicateNumber(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Do(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Orders().Create(ctx, newOrder("order-1", "ORD-1", now))
	}))
	err := store.Do(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Orders().Create(ctx, newOrder("order-2", "ORD-1", now))
	})
	require.ErrorIs(t, err, domain.ErrOrderNumberConflict)
}

func TestOrderRepository_UpdateVersioning(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	store.PutOrder(newOrder("order-1", "ORD-1", time.Now().UTC()))

	var updated domain.Order
	require.NoError(t, store.Do(ctx, func(ctx context.Context, tx domain.Tx) error {
		order, err := tx.Orders().GetForUpdate(ctx, "order-1")
		if err != nil {
			return err
		}
		order.Status = domain.OrderStatusConfirmed
		order.Items = nil
		updated, err = tx.Orders().Update(ctx, order)
		return err
	}))
	require.Equal(t, int64(1), updated.Version)
	require.Len(t, updated.Items, 1, "items must survive update")

	stale := updated
	stale.Version = 0
	err := store.Do(ctx, func(ctx context.Context, tx domain.Tx) error {
		_, err := tx.Orders().Update(ctx, stale)
		return err
	})
	require.True(t, domain.IsVersionConflict(err))
}

func TestOrderRepository_ListByCustomer(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewOrderRepository(store)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store.PutOrder(newOrder("order-1", "ORD-1", base))
	store.PutOrder(newOrder("order-2", "ORD-2", base.Add(time.Hour)))
	other := newOrder("order-3", "ORD-3", base)
	other.CustomerID = "customer-2"
	store.PutOrder(other)

	orders, err := repo.ListByCustomer(context.Background(), "customer-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, "order-2", orders[0].ID)
}

func TestOrderRepository_SearchPagingAndSort(t *testing.T) {
	store := memory.NewStore()
	store.AddCustomer(domain.Customer{ID: "customer-1", Username: "anna", Email: "anna@example.com"})
	repo := memory.NewOrderRepository(store)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		o := newOrder(
			"order-"+string(rune('a'+i)),
			"ORD-"+string(rune('A'+i)),
			base.Add(time.Duration(i)*time.Hour),
		)
		o.Total = decimal.NewFromInt(int64(10 * (5 - i)))
		store.PutOrder(o)
	}

	page, err := repo.Search(context.Background(), domain.OrderFilter{}, domain.PageRequest{Page: 0, Size: 2})
	require.NoError(t, err)
	require.Equal(t, int64(5), page.TotalItems)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, []string{"order-e", "order-d"}, ids(page.Items))

	page, err = repo.Search(context.Background(), domain.OrderFilter{}, domain.PageRequest{
		Page: 2, Size: 2, Sort: domain.SortByTotal, Direction: domain.SortAsc,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"order-a"}, ids(page.Items))

	page, err = repo.Search(context.Background(), domain.OrderFilter{}.WithKeyword("EXAMPLE"), domain.PageRequest{Page: 9})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Equal(t, int64(5), page.TotalItems)

	page, err = repo.Search(context.Background(), domain.OrderFilter{}, domain.PageRequest{Page: math.MaxInt / 50, Size: 100})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Equal(t, int64(5), page.TotalItems)
}

func TestOrderRepository_SummarizeAndStats(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewOrderRepository(store)
	ctx := context.Background()
	now := time.Now().UTC()

	statuses := []domain.OrderStatus{
		domain.OrderStatusPending, domain.OrderStatusPending, domain.OrderStatusPending,
		domain.OrderStatusDelivered, domain.OrderStatusCancelled,
	}
	for i, status := range statuses {
		o := newOrder("order-"+string(rune('a'+i)), "ORD-"+string(rune('A'+i)), now.Add(-time.Duration(i)*time.Minute))
		o.Status = status
		if status == domain.OrderStatusDelivered {
			o.PaymentStatus = domain.PaymentStatusPaid
			o.Total = decimal.NewFromInt(50)
		}
		store.PutOrder(o)
	}

	summary, err := repo.Summarize(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(5), summary.TotalOrders)
	require.Equal(t, int64(3), summary.PendingOrders)
	require.Equal(t, int64(1), summary.CompletedOrders)
	require.Equal(t, int64(1), summary.CancelledOrders)
	require.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(50)))

	stats, err := repo.Stats(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Equal(t, int64(5), stats.TotalOrders)
	require.Equal(t, int64(3), stats.PendingOrders)
	require.Equal(t, int64(1), stats.DeliveredOrders)
	require.True(t, stats.PaidRevenue.Equal(decimal.NewFromInt(50)))
	require.True(t, stats.PaidRevenueSince.Equal(decimal.NewFromInt(50)))

	paid, err := repo.PaidSince(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, paid, 1)

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "order-a", recent[0].ID)
}

func ids(orders []domain.Order) []string {
	result := make([]string, 0, len(orders))
	for _, o := range orders {
		result = append(result, o.ID)
	}
	return result
}
