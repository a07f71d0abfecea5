package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SummaryBucket — одна из четырёх непересекающихся групп статусов в отчётах.
type SummaryBucket string

const (
	BucketPending   SummaryBucket = "pending"
	BucketShipping  SummaryBucket = "shipping"
	BucketCompleted SummaryBucket = "completed"
	BucketCancelled SummaryBucket = "cancelled"
)

var buckets = map[OrderStatus]SummaryBucket{
	OrderStatusPending:    BucketPending,
	OrderStatusConfirmed:  BucketPending,
	OrderStatusProcessing: BucketShipping,
	OrderStatusShipped:    BucketShipping,
	OrderStatusDelivered:  BucketCompleted,
	OrderStatusCancelled:  BucketCancelled,
	OrderStatusRefunded:   BucketCancelled,
}

// BucketOf возвращает группу статуса и false для статусов вне таблицы.
func BucketOf(status OrderStatus) (SummaryBucket, bool) {
	b, ok := buckets[status]
	return b, ok
}

// StatusesIn возвращает статусы группы в порядке жизненного цикла.
func StatusesIn(bucket SummaryBucket) []OrderStatus {
	var result []OrderStatus
	for _, s := range OrderStatuses {
		if buckets[s] == bucket {
			result = append(result, s)
		}
	}
	return result
}

// CountsAsRevenue — заказ доставлен или оплачен. Условия объединяются, заказ учитывается один раз.
func CountsAsRevenue(status OrderStatus, payment PaymentStatus) bool {
	return status == OrderStatusDelivered || payment == PaymentStatusPaid
}

// OrderSummary — агрегаты по отфильтрованному множеству заказов.
type OrderSummary struct {
	TotalOrders     int64
	PendingOrders   int64
	ShippingOrders  int64
	CompletedOrders int64
	CancelledOrders int64
	TotalRevenue    decimal.Decimal
}

// Add учитывает заказ в сводке.
func (s *OrderSummary) Add(order Order) {
	s.TotalOrders++
	if b, ok := BucketOf(order.Status); ok {
		switch b {
		case BucketPending:
			s.PendingOrders++
		case BucketShipping:
			s.ShippingOrders++
		case BucketCompleted:
			s.CompletedOrders++
		case BucketCancelled:
			s.CancelledOrders++
		}
	}
	if CountsAsRevenue(order.Status, order.PaymentStatus) {
		s.TotalRevenue = s.TotalRevenue.Add(order.Total)
	}
}

// OrderStats — счётчики заказов для дашборда.
type OrderStats struct {
	TotalOrders     int64
	PendingOrders   int64
	DeliveredOrders int64
	// PaidRevenue — сумма оплаченных заказов за всё время.
	PaidRevenue decimal.Decimal
	// PaidRevenueSince — сумма оплаченных заказов, созданных не раньше заданного момента.
	PaidRevenueSince decimal.Decimal
}

// PaidAmount — время создания и сумма оплаченного заказа для построения тренда.
type PaidAmount struct {
	CreatedAt time.Time
	Total     decimal.Decimal
}

// DashboardSummary — верхняя плашка административной панели.
type DashboardSummary struct {
	TotalRevenue     decimal.Decimal
	Revenue30Days    decimal.Decimal
	TotalOrders      int64
	PendingOrders    int64
	DeliveredOrders  int64
	TotalCustomers   int64
	NewCustomers     int64
	TotalProducts    int64
	LowStockProducts int64
	ActiveBanners    int64
	ActiveCoupons    int64
}

// RevenuePoint — один календарный день тренда выручки.
type RevenuePoint struct {
	Date    time.Time
	Revenue decimal.Decimal
	Orders  int64
}

// RecentOrder — урезанное представление заказа для ленты последних.
type RecentOrder struct {
	ID            string
	OrderNumber   string
	CustomerName  string
	Total         decimal.Decimal
	Status        OrderStatus
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
}

// DashboardOverview — ответ административной панели целиком.
type DashboardOverview struct {
	Summary      DashboardSummary
	RevenueTrend []RevenuePoint
	RecentOrders []RecentOrder
}
