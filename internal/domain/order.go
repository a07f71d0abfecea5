package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан и ждёт обработки.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusConfirmed — заказ подтверждён оператором.
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	// OrderStatusProcessing — заказ собирается на складе.
	OrderStatusProcessing OrderStatus = "PROCESSING"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusDelivered — заказ получен клиентом.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusCancelled — заказ отменён (терминальное состояние).
	OrderStatusCancelled OrderStatus = "CANCELLED"
	// OrderStatusRefunded — деньги за заказ возвращены (терминальное состояние).
	OrderStatusRefunded OrderStatus = "REFUNDED"
)

// OrderStatuses перечисляет все статусы в порядке жизненного цикла.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// PaymentStatus — статус оплаты, независимая от статуса заказа ось.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// PaymentStatuses перечисляет все статусы оплаты.
var PaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

// ParseOrderStatus разбирает токен статуса без учёта регистра.
// Неизвестные значения отклоняются ошибкой валидации.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	token := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range OrderStatuses {
		if s == token {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrValidation, raw)
}

// ParsePaymentStatus разбирает токен статуса оплаты без учёта регистра.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	token := PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range PaymentStatuses {
		if s == token {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown payment status %q", ErrValidation, raw)
}

// IsTerminal сообщает, что из статуса нет ни одного перехода.
func (s OrderStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// OrderItem — неизменяемый снимок товара на момент оформления заказа.
type OrderItem struct {
	ID      string
	OrderID string
	// ProductID может быть nil, если товар позже удалили из каталога.
	ProductID   *string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
	CreatedAt   time.Time
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	ID              string
	CustomerID      string
	OrderNumber     string
	Total           decimal.Decimal
	ShippingAddress string
	ShippingPhone   string
	ShippingName    string
	Status          OrderStatus
	PaymentMethod   string
	PaymentStatus   PaymentStatus
	Notes           string
	AdminNotes      *string
	Items           []OrderItem
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ItemsTotal считает сумму подытогов позиций.
func (o *Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.Subtotal)
	}
	return sum
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if o.OrderNumber == "" {
		errs = append(errs, ErrOrderNumberRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.Total.IsNegative() {
		errs = append(errs, ErrAmountNegative)
	}

	for _, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if !item.Subtotal.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
			errs = append(errs, ErrSubtotalMismatch)
		}
	}
	if !o.Total.Equal(o.ItemsTotal()) {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}

// Clone возвращает глубокую копию заказа, чтобы хранилища не делили срезы с вызывающим кодом.
func (o Order) Clone() Order {
	cp := o
	if o.AdminNotes != nil {
		notes := *o.AdminNotes
		cp.AdminNotes = &notes
	}
	if o.Items != nil {
		cp.Items = make([]OrderItem, len(o.Items))
		for i, item := range o.Items {
			if item.ProductID != nil {
				id := *item.ProductID
				item.ProductID = &id
			}
			cp.Items[i] = item
		}
	}
	return cp
}
