package ordering_test

import (
	"context"
	"errors"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/ordering"
)

func (s *OrderingTestSuite) createOrder() domain.Order {
	s.store.AddCartItem(domain.CartItem{ID: "cart-l", CustomerID: "customer-1", ProductID: "product-1", Quantity: 1})
	order, err := s.service.CreateOrder(context.Background(), s.request("cart-l"))
	s.Require().NoError(err)
	return order
}

func (s *OrderingTestSuite) moveTo(orderID string, path ...domain.OrderStatus) domain.Order {
	var (
		order domain.Order
		err   error
	)
	for _, status := range path {
		order, err = s.service.UpdateOrderStatus(context.Background(), orderID, status)
		s.Require().NoError(err)
	}
	return order
}

func (s *OrderingTestSuite) TestUpdateOrderStatus_DeliveredCannotBeCancelled() {
	order := s.createOrder()
	delivered := s.moveTo(order.ID, domain.OrderStatusShipped, domain.OrderStatusDelivered)
	s.Equal(domain.OrderStatusDelivered, delivered.Status)

	_, err := s.service.UpdateOrderStatus(context.Background(), order.ID, domain.OrderStatusCancelled)
	s.Require().ErrorIs(err, domain.ErrInvalidTransition)
	var transitionErr *domain.InvalidTransitionError
	s.Require().True(errors.As(err, &transitionErr))
	s.Equal(domain.OrderStatusDelivered, transitionErr.From)
	s.Equal(domain.OrderStatusCancelled, transitionErr.To)

	stored, err := s.orders.Get(context.Background(), order.ID)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusDelivered, stored.Status)

	refunded, err := s.service.UpdateOrderStatus(context.Background(), order.ID, domain.OrderStatusRefunded)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusRefunded, refunded.Status)
}

func (s *OrderingTestSuite) TestUpdateOrderStatus_SameStateIsNoop() {
	order := s.createOrder()

	same, err := s.service.UpdateOrderStatus(context.Background(), order.ID, domain.OrderStatusPending)
	s.Require().NoError(err)
	s.Equal(order.Version, same.Version)
	s.Equal(order.UpdatedAt, same.UpdatedAt)

	events, err := s.service.GetOrderTimeline(context.Background(), order.ID)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *OrderingTestSuite) TestUpdateOrderStatus_TerminalStatesAreFinal() {
	order := s.createOrder()
	s.moveTo(order.ID, domain.OrderStatusCancelled)

	for _, target := range domain.OrderStatuses {
		if target == domain.OrderStatusCancelled {
			continue
		}
		_, err := s.service.UpdateOrderStatus(context.Background(), order.ID, target)
		s.ErrorIs(err, domain.ErrInvalidTransition, "target %s", target)
	}
}

func (s *OrderingTestSuite) TestUpdateOrder_AppliesAllFieldsAndRecordsHistory() {
	order := s.createOrder()
	status := domain.OrderStatusConfirmed
	payment := domain.PaymentStatusPaid
	notes := "  call before delivery  "

	updated, err := s.service.UpdateOrder(context.Background(), order.ID, updateRequest(&status, &payment, &notes))
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusConfirmed, updated.Status)
	s.Equal(domain.PaymentStatusPaid, updated.PaymentStatus)
	s.Require().NotNil(updated.AdminNotes)
	s.Equal("call before delivery", *updated.AdminNotes)
	s.Equal(order.Version+1, updated.Version)
	s.Equal(fixedNow, updated.UpdatedAt)

	events, err := s.service.GetOrderTimeline(context.Background(), order.ID)
	s.Require().NoError(err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	s.ElementsMatch([]string{
		domain.TimelineOrderCreated,
		domain.TimelineStatusChanged,
		domain.TimelinePaymentStatusChanged,
		domain.TimelineAdminNotesUpdated,
	}, types)

	pending, err := s.outbox.PullPending(context.Background(), 10)
	s.Require().NoError(err)
	eventTypes := make([]string, 0, len(pending))
	for _, m := range pending {
		eventTypes = append(eventTypes, m.EventType)
	}
	s.Equal([]string{
		domain.EventOrderCreated,
		domain.EventOrderStatusChanged,
		domain.EventOrderPaymentStatusChanged,
	}, eventTypes)
}

func (s *OrderingTestSuite) TestUpdateOrder_BlankNotesClearAndNoChangeIsReadThrough() {
	order := s.createOrder()
	notes := "fragile"
	withNotes, err := s.service.UpdateOrder(context.Background(), order.ID, updateRequest(nil, nil, &notes))
	s.Require().NoError(err)
	s.Require().NotNil(withNotes.AdminNotes)

	again, err := s.service.UpdateOrder(context.Background(), order.ID, updateRequest(nil, nil, &notes))
	s.Require().NoError(err)
	s.Equal(withNotes.Version, again.Version)

	blank := "   "
	cleared, err := s.service.UpdateOrder(context.Background(), order.ID, updateRequest(nil, nil, &blank))
	s.Require().NoError(err)
	s.Nil(cleared.AdminNotes)
	s.Equal(withNotes.Version+1, cleared.Version)
}

func (s *OrderingTestSuite) TestUpdatePaymentStatus_IndependentOfTransitions() {
	order := s.createOrder()
	s.moveTo(order.ID, domain.OrderStatusCancelled)

	updated, err := s.service.UpdatePaymentStatus(context.Background(), order.ID, domain.PaymentStatusRefunded)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusRefunded, updated.PaymentStatus)
	s.Equal(domain.OrderStatusCancelled, updated.Status)
}

func (s *OrderingTestSuite) TestUpdateOrder_InvalidTransitionKeepsPaymentUnchanged() {
	order := s.createOrder()
	status := domain.OrderStatusDelivered
	payment := domain.PaymentStatusPaid

	_, err := s.service.UpdateOrder(context.Background(), order.ID, updateRequest(&status, &payment, nil))
	s.Require().ErrorIs(err, domain.ErrInvalidTransition)

	stored, err := s.orders.Get(context.Background(), order.ID)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusPending, stored.PaymentStatus)
}

func (s *OrderingTestSuite) TestUpdateOrder_UnknownOrderAndStatus() {
	_, err := s.service.UpdateOrderStatus(context.Background(), "missing", domain.OrderStatusConfirmed)
	s.ErrorIs(err, domain.ErrOrderNotFound)

	order := s.createOrder()
	_, err = s.service.UpdateOrderStatus(context.Background(), order.ID, domain.OrderStatus("LOST"))
	s.True(domain.IsValidation(err))

	_, err = s.service.GetOrderTimeline(context.Background(), "missing")
	s.ErrorIs(err, domain.ErrOrderNotFound)
}

func updateRequest(status *domain.OrderStatus, payment *domain.PaymentStatus, notes *string) ordering.UpdateOrderRequest {
	return ordering.UpdateOrderRequest{Status: status, PaymentStatus: payment, AdminNotes: notes}
}
