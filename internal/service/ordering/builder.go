package ordering

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// CreateOrderRequest — данные для оформления заказа из корзины.
type CreateOrderRequest struct {
	CustomerID      string
	ShippingAddress string
	ShippingPhone   string
	ShippingName    string
	PaymentMethod   string
	Notes           string
	CartItemIDs     []string
}

// Validate проверяет запрос до любых обращений к хранилищу.
func (r CreateOrderRequest) Validate() error {
	if strings.TrimSpace(r.CustomerID) == "" {
		return domain.Validationf("customer id is required")
	}
	if strings.TrimSpace(r.ShippingAddress) == "" {
		return domain.Validationf("shipping address is required")
	}
	if strings.TrimSpace(r.ShippingPhone) == "" {
		return domain.Validationf("shipping phone is required")
	}
	if strings.TrimSpace(r.ShippingName) == "" {
		return domain.Validationf("shipping name is required")
	}
	if len(r.CartItemIDs) == 0 {
		return domain.Validationf("cart item ids are required")
	}
	seen := make(map[string]struct{}, len(r.CartItemIDs))
	for _, id := range r.CartItemIDs {
		if strings.TrimSpace(id) == "" {
			return domain.Validationf("cart item id must not be blank")
		}
		if _, dup := seen[id]; dup {
			return domain.Validationf("duplicate cart item id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// CreateOrder превращает позиции корзины в заказ одной единицей работы:
// списание остатков, заказ с позициями, удаление корзины, outbox и timeline
// фиксируются вместе или не фиксируются вовсе.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (domain.Order, error) {
	start := s.now()
	logger := s.logger.WithFields(log.Fields{
		"operation":   "create_order",
		"customer_id": req.CustomerID,
	})

	if err := req.Validate(); err != nil {
		s.metrics.RecordCreateRejected(rejectReason(err))
		logger.WithError(err).Warn("create order request rejected")
		return domain.Order{}, err
	}

	var (
		created    domain.Order
		outOfStock int
	)
	err := s.uow.Do(ctx, func(ctx context.Context, tx domain.Tx) error {
		outOfStock = 0

		if _, err := tx.Customers().GetCustomer(ctx, req.CustomerID); err != nil {
			return err
		}

		inCart, err := tx.Carts().CountForCustomer(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		if inCart == 0 {
			return domain.ErrCartEmpty
		}

		cartItems := make([]domain.CartItem, 0, len(req.CartItemIDs))
		for _, id := range req.CartItemIDs {
			item, err := tx.Carts().Get(ctx, id)
			if err != nil {
				return err
			}
			if item.CustomerID != req.CustomerID {
				return domain.ErrCartItemForeign
			}
			cartItems = append(cartItems, item)
		}

		now := s.now().UTC()
		number, err := s.numbers.Next(now)
		if err != nil {
			return err
		}

		order := domain.Order{
			ID:              uuid.NewString(),
			CustomerID:      req.CustomerID,
			OrderNumber:     number,
			ShippingAddress: strings.TrimSpace(req.ShippingAddress),
			ShippingPhone:   strings.TrimSpace(req.ShippingPhone),
			ShippingName:    strings.TrimSpace(req.ShippingName),
			Status:          domain.OrderStatusPending,
			PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
			PaymentStatus:   domain.PaymentStatusPending,
			Notes:           strings.TrimSpace(req.Notes),
			Items:           make([]domain.OrderItem, 0, len(cartItems)),
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		total := decimal.Zero
		for _, item := range cartItems {
			product, err := tx.Inventory().DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if product.StockQuantity == 0 {
				outOfStock++
			}

			price := product.EffectivePrice()
			subtotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			productID := product.ID
			order.Items = append(order.Items, domain.OrderItem{
				ID:          uuid.NewString(),
				OrderID:     order.ID,
				ProductID:   &productID,
				ProductName: product.Name,
				UnitPrice:   price,
				Quantity:    item.Quantity,
				Subtotal:    subtotal,
				CreatedAt:   now,
			})
			total = total.Add(subtotal)
		}
		order.Total = total

		if errs := order.ValidateInvariants(); len(errs) > 0 {
			return errors.Join(errs...)
		}

		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		for _, item := range cartItems {
			if err := tx.Carts().Delete(ctx, item.ID); err != nil {
				return err
			}
		}

		msg, err := orderCreatedMessage(order)
		if err != nil {
			return err
		}
		if _, err := tx.Outbox().Enqueue(ctx, msg); err != nil {
			return err
		}
		if err := tx.Timeline().Append(ctx, domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     domain.TimelineOrderCreated,
			Reason:   order.OrderNumber,
			Occurred: now,
		}); err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		s.metrics.RecordCreateRejected(rejectReason(err))
		s.logRejection(logger, err, "create order failed")
		return domain.Order{}, err
	}

	s.metrics.RecordOrderCreated(s.now().Sub(start))
	for i := 0; i < outOfStock; i++ {
		s.metrics.RecordOutOfStock()
	}
	logger.WithFields(log.Fields{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"total":        created.Total.StringFixed(2),
		"items":        len(created.Items),
	}).Info("order created")

	return created, nil
}
