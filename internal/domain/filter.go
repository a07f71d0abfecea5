package domain

import (
	"slices"
	"strings"
	"time"
)

// CriterionKind — тег условия фильтра.
type CriterionKind int

const (
	CriterionKeyword CriterionKind = iota + 1
	CriterionCustomer
	CriterionStatus
	CriterionPaymentStatus
	CriterionCreatedFrom
	CriterionCreatedTo
)

// Criterion — одно условие поиска. Заполнено только поле, соответствующее Kind.
type Criterion struct {
	Kind          CriterionKind
	Text          string
	Status        OrderStatus
	PaymentStatus PaymentStatus
	At            time.Time
}

// OrderFilter — конъюнкция условий. Пустой фильтр пропускает все заказы.
// Методы With* не меняют исходный фильтр.
type OrderFilter struct {
	criteria []Criterion
}

func (f OrderFilter) with(c Criterion) OrderFilter {
	return OrderFilter{criteria: append(slices.Clone(f.criteria), c)}
}

// WithKeyword добавляет поиск подстроки без учёта регистра.
// Пустое ключевое слово условием не считается.
func (f OrderFilter) WithKeyword(keyword string) OrderFilter {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return f
	}
	return f.with(Criterion{Kind: CriterionKeyword, Text: strings.ToLower(keyword)})
}

func (f OrderFilter) WithCustomer(customerID string) OrderFilter {
	if customerID == "" {
		return f
	}
	return f.with(Criterion{Kind: CriterionCustomer, Text: customerID})
}

func (f OrderFilter) WithStatus(status OrderStatus) OrderFilter {
	return f.with(Criterion{Kind: CriterionStatus, Status: status})
}

func (f OrderFilter) WithPaymentStatus(status PaymentStatus) OrderFilter {
	return f.with(Criterion{Kind: CriterionPaymentStatus, PaymentStatus: status})
}

// WithCreatedFrom задаёт включительную нижнюю границу времени создания.
func (f OrderFilter) WithCreatedFrom(at time.Time) OrderFilter {
	return f.with(Criterion{Kind: CriterionCreatedFrom, At: at})
}

// WithCreatedTo задаёт включительную верхнюю границу времени создания.
func (f OrderFilter) WithCreatedTo(at time.Time) OrderFilter {
	return f.with(Criterion{Kind: CriterionCreatedTo, At: at})
}

// Criteria возвращает копию условий для трансляции в запрос хранилища.
func (f OrderFilter) Criteria() []Criterion {
	return slices.Clone(f.criteria)
}

// IsEmpty сообщает, что фильтр не содержит условий.
func (f OrderFilter) IsEmpty() bool {
	return len(f.criteria) == 0
}

// Matches проверяет заказ и его владельца против всех условий.
func (f OrderFilter) Matches(order Order, customer Customer) bool {
	for _, c := range f.criteria {
		if !c.matches(order, customer) {
			return false
		}
	}
	return true
}

func (c Criterion) matches(order Order, customer Customer) bool {
	switch c.Kind {
	case CriterionKeyword:
		for _, field := range []string{
			order.OrderNumber,
			order.ShippingName,
			order.ShippingPhone,
			customer.Username,
			customer.Email,
		} {
			if strings.Contains(strings.ToLower(field), c.Text) {
				return true
			}
		}
		return false
	case CriterionCustomer:
		return order.CustomerID == c.Text
	case CriterionStatus:
		return order.Status == c.Status
	case CriterionPaymentStatus:
		return order.PaymentStatus == c.PaymentStatus
	case CriterionCreatedFrom:
		return !order.CreatedAt.Before(c.At)
	case CriterionCreatedTo:
		return !order.CreatedAt.After(c.At)
	default:
		return false
	}
}
