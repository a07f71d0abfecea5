package domain

import "time"

// Типы событий аудита заказа.
const (
	TimelineOrderCreated         = "OrderCreated"
	TimelineStatusChanged        = "OrderStatusChanged"
	TimelinePaymentStatusChanged = "PaymentStatusChanged"
	TimelineAdminNotesUpdated    = "AdminNotesUpdated"
)

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}
