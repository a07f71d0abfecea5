package ordering

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// UpdateOrderRequest — частичное изменение заказа. nil означает "не менять".
type UpdateOrderRequest struct {
	Status        *domain.OrderStatus
	PaymentStatus *domain.PaymentStatus
	AdminNotes    *string
}

// Validate отклоняет значения вне перечислений.
func (r UpdateOrderRequest) Validate() error {
	if r.Status != nil {
		if _, err := domain.ParseOrderStatus(string(*r.Status)); err != nil {
			return err
		}
	}
	if r.PaymentStatus != nil {
		if _, err := domain.ParsePaymentStatus(string(*r.PaymentStatus)); err != nil {
			return err
		}
	}
	return nil
}

type statusChange struct {
	from, to string
}

// UpdateOrder применяет изменения статуса, статуса оплаты и заметок администратора.
// Переход проверяется по заблокированной строке, поэтому параллельные изменения
// одного заказа сериализуются. Если ничего не изменилось, заказ возвращается как есть.
func (s *Service) UpdateOrder(ctx context.Context, orderID string, req UpdateOrderRequest) (domain.Order, error) {
	logger := s.logger.WithFields(log.Fields{
		"operation": "update_order",
		"order_id":  orderID,
	})

	if err := req.Validate(); err != nil {
		logger.WithError(err).Warn("update order request rejected")
		return domain.Order{}, err
	}

	var (
		result     domain.Order
		transition *statusChange
	)
	err := s.uow.Do(ctx, func(ctx context.Context, tx domain.Tx) error {
		transition = nil

		order, err := tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		var (
			events  []domain.TimelineEvent
			pending []func(domain.Order) (domain.OutboxMessage, error)
		)

		if req.Status != nil && *req.Status != order.Status {
			from, to := order.Status, *req.Status
			if err := domain.ValidateTransition(from, to); err != nil {
				return err
			}
			order.Status = to
			transition = &statusChange{from: string(from), to: string(to)}
			events = append(events, domain.TimelineEvent{
				Type:   domain.TimelineStatusChanged,
				Reason: transitionReason(string(from), string(to)),
			})
			pending = append(pending, func(o domain.Order) (domain.OutboxMessage, error) {
				return statusChangedMessage(o, domain.EventOrderStatusChanged, string(from), string(to))
			})
		}

		if req.PaymentStatus != nil && *req.PaymentStatus != order.PaymentStatus {
			from, to := order.PaymentStatus, *req.PaymentStatus
			order.PaymentStatus = to
			events = append(events, domain.TimelineEvent{
				Type:   domain.TimelinePaymentStatusChanged,
				Reason: transitionReason(string(from), string(to)),
			})
			pending = append(pending, func(o domain.Order) (domain.OutboxMessage, error) {
				return statusChangedMessage(o, domain.EventOrderPaymentStatusChanged, string(from), string(to))
			})
		}

		if req.AdminNotes != nil {
			notes := normalizeNotes(*req.AdminNotes)
			if !sameNotes(order.AdminNotes, notes) {
				order.AdminNotes = notes
				events = append(events, domain.TimelineEvent{Type: domain.TimelineAdminNotesUpdated})
			}
		}

		if len(events) == 0 {
			result = order
			return nil
		}

		now := s.now().UTC()
		order.UpdatedAt = now
		updated, err := tx.Orders().Update(ctx, order)
		if err != nil {
			return err
		}

		for _, event := range events {
			event.OrderID = updated.ID
			event.Occurred = now
			if err := tx.Timeline().Append(ctx, event); err != nil {
				return err
			}
		}
		for _, build := range pending {
			msg, err := build(updated)
			if err != nil {
				return err
			}
			if _, err := tx.Outbox().Enqueue(ctx, msg); err != nil {
				return err
			}
		}

		result = updated
		return nil
	})
	if err != nil {
		s.logRejection(logger, err, "update order failed")
		return domain.Order{}, err
	}

	if transition != nil {
		s.metrics.RecordTransition(transition.from, transition.to)
		logger.WithFields(log.Fields{
			"from": transition.from,
			"to":   transition.to,
		}).Info("order status changed")
	}
	return result, nil
}

// UpdateOrderStatus меняет только статус заказа.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	return s.UpdateOrder(ctx, orderID, UpdateOrderRequest{Status: &status})
}

// UpdatePaymentStatus меняет только статус оплаты, без проверки переходов.
func (s *Service) UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) (domain.Order, error) {
	return s.UpdateOrder(ctx, orderID, UpdateOrderRequest{PaymentStatus: &status})
}

// GetOrderTimeline возвращает историю заказа в хронологическом порядке.
func (s *Service) GetOrderTimeline(ctx context.Context, orderID string) ([]domain.TimelineEvent, error) {
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return nil, err
	}
	return s.timeline.List(ctx, orderID)
}

func normalizeNotes(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sameNotes(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
