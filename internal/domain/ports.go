package domain

import (
	"context"
	"encoding/json"
	"time"
)

// CustomerDirectory читает клиентов из identity-подсистемы.
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id string) (Customer, error)
	CountCustomers(ctx context.Context) (int64, error)
	// CountCustomersSince считает клиентов, зарегистрированных не раньше since.
	CountCustomersSince(ctx context.Context, since time.Time) (int64, error)
}

// CartStore — доступ к корзине в рамках единицы работы.
type CartStore interface {
	// CountForCustomer возвращает число позиций в корзине клиента.
	CountForCustomer(ctx context.Context, customerID string) (int, error)
	// Get возвращает позицию или ErrCartItemNotFound.
	Get(ctx context.Context, id string) (CartItem, error)
	Delete(ctx context.Context, id string) error
}

// InventoryLedger — складской учёт каталога.
type InventoryLedger interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	// DecrementStock атомарно списывает qty, только если остаток >= qty.
	// При нехватке возвращает *InsufficientStockError и ничего не меняет.
	// Товар с нулевым остатком переводится в OUT_OF_STOCK.
	DecrementStock(ctx context.Context, id string, qty int) (Product, error)
}

// CatalogStats — счётчики каталога для дашборда.
type CatalogStats interface {
	CountProducts(ctx context.Context) (int64, error)
	// CountLowStock считает товары с остатком <= threshold.
	CountLowStock(ctx context.Context, threshold int) (int64, error)
}

// MarketingDirectory — счётчики маркетинговой подсистемы.
type MarketingDirectory interface {
	CountActiveBanners(ctx context.Context) (int64, error)
	CountActiveCoupons(ctx context.Context) (int64, error)
}

// OrderRepository описывает чтение заказов вне транзакции.
type OrderRepository interface {
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(ctx context.Context, id string) (Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (Order, error)
	// ListByCustomer возвращает все заказы клиента, сначала новые.
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	Search(ctx context.Context, filter OrderFilter, page PageRequest) (Page[Order], error)
	Summarize(ctx context.Context, filter OrderFilter) (OrderSummary, error)
	// Recent возвращает limit последних заказов с именем клиента.
	Recent(ctx context.Context, limit int) ([]RecentOrder, error)
	// Stats считает счётчики дашборда; since ограничивает окно PaidRevenueSince.
	Stats(ctx context.Context, since time.Time) (OrderStats, error)
	// PaidSince возвращает оплаченные заказы, созданные не раньше since.
	PaidSince(ctx context.Context, since time.Time) ([]PaidAmount, error)
}

// OrderWriter — изменение заказов внутри единицы работы.
type OrderWriter interface {
	// Create сохраняет заказ вместе с позициями.
	Create(ctx context.Context, order Order) error
	// GetForUpdate читает заказ и блокирует его до конца транзакции.
	GetForUpdate(ctx context.Context, id string) (Order, error)
	// Update сохраняет изменяемые поля заказа с проверкой версии
	// и возвращает заказ с увеличенной версией.
	Update(ctx context.Context, order Order) (Order, error)
}

// OutboxWriter кладёт события в transactional outbox.
type OutboxWriter interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
}

// TimelineWriter добавляет события аудита.
type TimelineWriter interface {
	Append(ctx context.Context, event TimelineEvent) error
}

// Tx — набор хранилищ, работающих в одной транзакции.
type Tx interface {
	Customers() CustomerDirectory
	Carts() CartStore
	Inventory() InventoryLedger
	Orders() OrderWriter
	Outbox() OutboxWriter
	Timeline() TimelineWriter
}

// UnitOfWork выполняет fn атомарно: при ошибке не остаётся ни одного изменения.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет воркеру забирать и помечать события.
type OutboxRepository interface {
	OutboxWriter
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	TimelineWriter
	List(ctx context.Context, orderID string) ([]TimelineEvent, error)
}

// Типы событий outbox.
const (
	AggregateOrder = "order"

	EventOrderCreated              = "order.created"
	EventOrderStatusChanged        = "order.status_changed"
	EventOrderPaymentStatusChanged = "order.payment_status_changed"
)

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// DeadLetter — тело сообщения в DLQ: исходное событие и причина, по которой его не удалось опубликовать.
type DeadLetter struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishError  string          `json:"publish_error"`
	FailedAt      time.Time       `json:"dlq_published_at"`
}

// NewDeadLetter фиксирует неудачную публикацию сообщения.
func NewDeadLetter(msg OutboxMessage, publishErr error, at time.Time) DeadLetter {
	dl := DeadLetter{
		OutboxID:      msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       json.RawMessage(msg.Payload),
		FailedAt:      at.UTC(),
	}
	if publishErr != nil {
		dl.PublishError = publishErr.Error()
	}
	return dl
}

// Message восстанавливает исходное outbox-сообщение для повторной публикации.
func (d DeadLetter) Message() OutboxMessage {
	return OutboxMessage{
		ID:            d.OutboxID,
		AggregateType: d.AggregateType,
		AggregateID:   d.AggregateID,
		EventType:     d.EventType,
		Payload:       []byte(d.Payload),
	}
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
