package ordering_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/ordering"
)

func TestBuildFilter_DateBoundsAreInclusive(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	filter, err := ordering.BuildFilter(ordering.SearchParams{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-01",
	}, loc)
	require.NoError(t, err)

	criteria := filter.Criteria()
	require.Len(t, criteria, 2)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), criteria[0].At)
	assert.Equal(t, time.Date(2024, 3, 1, 23, 59, 59, 999999999, loc), criteria[1].At)

	order := domain.Order{CreatedAt: time.Date(2024, 3, 1, 23, 59, 59, 0, loc)}
	assert.True(t, filter.Matches(order, domain.Customer{}))
	order.CreatedAt = time.Date(2024, 3, 2, 0, 0, 0, 0, loc)
	assert.False(t, filter.Matches(order, domain.Customer{}))
}

func TestBuildFilter_ParsesTokensAndSkipsBlanks(t *testing.T) {
	filter, err := ordering.BuildFilter(ordering.SearchParams{
		Keyword:       "  ",
		CustomerID:    "",
		Status:        "shipped",
		PaymentStatus: " Paid ",
	}, nil)
	require.NoError(t, err)

	criteria := filter.Criteria()
	require.Len(t, criteria, 2)
	assert.Equal(t, domain.OrderStatusShipped, criteria[0].Status)
	assert.Equal(t, domain.PaymentStatusPaid, criteria[1].PaymentStatus)

	empty, err := ordering.BuildFilter(ordering.SearchParams{}, nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestBuildFilter_Rejections(t *testing.T) {
	cases := map[string]ordering.SearchParams{
		"unknown status":   {Status: "LOST"},
		"unknown payment":  {PaymentStatus: "MAYBE"},
		"malformed start":  {StartDate: "01/03/2024"},
		"malformed end":    {EndDate: "2024-13-01"},
		"end before start": {StartDate: "2024-03-02", EndDate: "2024-03-01"},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ordering.BuildFilter(params, time.UTC)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
		})
	}
}

func (s *OrderingTestSuite) seedOrders() {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	specs := []struct {
		id, customer string
		status       domain.OrderStatus
	}{
		{"o-1", "customer-1", domain.OrderStatusPending},
		{"o-2", "customer-1", domain.OrderStatusShipped},
		{"o-3", "customer-2", domain.OrderStatusShipped},
	}
	for i, spec := range specs {
		created := base.Add(time.Duration(i) * time.Hour)
		s.store.PutOrder(domain.Order{
			ID:            spec.id,
			CustomerID:    spec.customer,
			OrderNumber:   "ORD-" + spec.id,
			Total:         decimal.RequireFromString("10.00"),
			ShippingName:  "Receiver " + spec.id,
			Status:        spec.status,
			PaymentStatus: domain.PaymentStatusPending,
			CreatedAt:     created,
			UpdatedAt:     created,
		})
	}
}

func (s *OrderingTestSuite) TestQueries() {
	s.seedOrders()
	ctx := context.Background()

	order, err := s.service.GetOrder(ctx, "o-2")
	s.Require().NoError(err)
	s.Equal("ORD-o-2", order.OrderNumber)

	byNumber, err := s.service.GetOrderByNumber(ctx, " ORD-o-3 ")
	s.Require().NoError(err)
	s.Equal("o-3", byNumber.ID)

	_, err = s.service.GetOrder(ctx, "missing")
	s.ErrorIs(err, domain.ErrOrderNotFound)

	all, err := s.service.ListOrdersForCustomer(ctx, "customer-1")
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("o-2", all[0].ID)

	page, err := s.service.ListOrdersForCustomerPage(ctx, "customer-1", domain.PageRequest{Size: 1})
	s.Require().NoError(err)
	s.Equal(int64(2), page.TotalItems)
	s.Equal(2, page.TotalPages)
	s.Equal("o-2", page.Items[0].ID)

	shipped, err := s.service.ListOrdersByStatus(ctx, domain.OrderStatusShipped, domain.PageRequest{Sort: domain.SortByCreatedAt, Direction: domain.SortAsc})
	s.Require().NoError(err)
	s.Equal(int64(2), shipped.TotalItems)
	s.Equal(domain.DefaultPageSize, shipped.Size)
	s.Equal("o-2", shipped.Items[0].ID)

	filter, err := ordering.BuildFilter(ordering.SearchParams{Keyword: "BORIS", Status: "shipped"}, s.service.Location())
	s.Require().NoError(err)
	found, err := s.service.SearchOrders(ctx, filter, domain.PageRequest{Size: 1000})
	s.Require().NoError(err)
	s.Equal(domain.MaxPageSize, found.Size)
	s.Require().Len(found.Items, 1)
	s.Equal("o-3", found.Items[0].ID)
}
