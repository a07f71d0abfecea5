package ordering

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

type orderItemPayload struct {
	ProductID   *string `json:"productId"`
	ProductName string  `json:"productName"`
	UnitPrice   string  `json:"unitPrice"`
	Quantity    int     `json:"quantity"`
	Subtotal    string  `json:"subtotal"`
}

type orderCreatedPayload struct {
	OrderID     string             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	CustomerID  string             `json:"customerId"`
	Total       string             `json:"total"`
	Items       []orderItemPayload `json:"items"`
	CreatedAt   time.Time          `json:"createdAt"`
}

type statusChangedPayload struct {
	OrderID   string    `json:"orderId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Version   int64     `json:"version"`
	ChangedAt time.Time `json:"changedAt"`
}

func orderCreatedMessage(order domain.Order) (domain.OutboxMessage, error) {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal.StringFixed(2),
		})
	}
	return outboxMessage(order.ID, domain.EventOrderCreated, orderCreatedPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Total:       order.Total.StringFixed(2),
		Items:       items,
		CreatedAt:   order.CreatedAt,
	})
}

func statusChangedMessage(order domain.Order, eventType, from, to string) (domain.OutboxMessage, error) {
	return outboxMessage(order.ID, eventType, statusChangedPayload{
		OrderID:   order.ID,
		From:      from,
		To:        to,
		Version:   order.Version,
		ChangedAt: order.UpdatedAt,
	})
}

func outboxMessage(orderID, eventType string, payload any) (domain.OutboxMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   orderID,
		EventType:     eventType,
		Payload:       body,
	}, nil
}

func transitionReason(from, to string) string {
	return from + "->" + to
}
