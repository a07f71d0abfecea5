package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// orderRepositoryInMemory читает заказы из Store.
type orderRepositoryInMemory struct {
	s *Store
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepositoryInMemory{s: store}
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(_ context.Context, id string) (domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	order, ok := r.s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order.Clone(), nil
}

func (r *orderRepositoryInMemory) GetByNumber(_ context.Context, orderNumber string) (domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.numbers[orderNumber]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return r.s.orders[id].Clone(), nil
}

// ListByCustomer возвращает заказы клиента, сначала новые.
func (r *orderRepositoryInMemory) ListByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Order, 0)
	for _, order := range r.s.orders {
		if order.CustomerID == customerID {
			result = append(result, order.Clone())
		}
	}
	sortOrders(result, domain.SortByCreatedAt, domain.SortDesc)
	return result, nil
}

func (r *orderRepositoryInMemory) Search(_ context.Context, filter domain.OrderFilter, page domain.PageRequest) (domain.Page[domain.Order], error) {
	page = page.Normalize()

	r.s.mu.RLock()
	matched := r.s.filterOrders(filter)
	r.s.mu.RUnlock()

	sortOrders(matched, page.Sort, page.Direction)

	total := int64(len(matched))
	start := page.Offset()
	if start < 0 || start > len(matched) {
		start = len(matched)
	}
	end := start + page.Size
	if end > len(matched) {
		end = len(matched)
	}

	return domain.NewPage(matched[start:end], page, total), nil
}

func (r *orderRepositoryInMemory) Summarize(_ context.Context, filter domain.OrderFilter) (domain.OrderSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	summary := domain.OrderSummary{TotalRevenue: decimal.Zero}
	for _, order := range r.s.orders {
		if filter.Matches(order, r.s.customers[order.CustomerID]) {
			summary.Add(order)
		}
	}
	return summary, nil
}

func (r *orderRepositoryInMemory) Recent(_ context.Context, limit int) ([]domain.RecentOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]domain.Order, 0, len(r.s.orders))
	for _, order := range r.s.orders {
		all = append(all, order)
	}
	sortOrders(all, domain.SortByCreatedAt, domain.SortDesc)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	result := make([]domain.RecentOrder, 0, len(all))
	for _, order := range all {
		result = append(result, domain.RecentOrder{
			ID:            order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerName:  r.s.customers[order.CustomerID].DisplayName(),
			Total:         order.Total,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			CreatedAt:     order.CreatedAt,
		})
	}
	return result, nil
}

func (r *orderRepositoryInMemory) Stats(_ context.Context, since time.Time) (domain.OrderStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := domain.OrderStats{PaidRevenue: decimal.Zero, PaidRevenueSince: decimal.Zero}
	for _, order := range r.s.orders {
		stats.TotalOrders++
		switch order.Status {
		case domain.OrderStatusPending:
			stats.PendingOrders++
		case domain.OrderStatusDelivered:
			stats.DeliveredOrders++
		}
		if order.PaymentStatus != domain.PaymentStatusPaid {
			continue
		}
		stats.PaidRevenue = stats.PaidRevenue.Add(order.Total)
		if !order.CreatedAt.Before(since) {
			stats.PaidRevenueSince = stats.PaidRevenueSince.Add(order.Total)
		}
	}
	return stats, nil
}

func (r *orderRepositoryInMemory) PaidSince(_ context.Context, since time.Time) ([]domain.PaidAmount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.PaidAmount, 0)
	for _, order := range r.s.orders {
		if order.PaymentStatus == domain.PaymentStatusPaid && !order.CreatedAt.Before(since) {
			result = append(result, domain.PaidAmount{CreatedAt: order.CreatedAt, Total: order.Total})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) filterOrders(filter domain.OrderFilter) []domain.Order {
	result := make([]domain.Order, 0)
	for _, order := range s.orders {
		if filter.Matches(order, s.customers[order.CustomerID]) {
			result = append(result, order.Clone())
		}
	}
	return result
}

// sortOrders упорядочивает заказы по полю из белого списка, при равенстве по ID.
func sortOrders(orders []domain.Order, field domain.SortField, dir domain.SortDirection) {
	sort.SliceStable(orders, func(i, j int) bool {
		c := compareOrders(orders[i], orders[j], field)
		if c == 0 {
			c = strings.Compare(orders[i].ID, orders[j].ID)
		}
		if dir == domain.SortAsc {
			return c < 0
		}
		return c > 0
	})
}

func compareOrders(a, b domain.Order, field domain.SortField) int {
	switch field {
	case domain.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case domain.SortByTotal:
		return a.Total.Cmp(b.Total)
	case domain.SortByOrderNumber:
		return strings.Compare(a.OrderNumber, b.OrderNumber)
	case domain.SortByStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

// txOrders пишет заказы внутри единицы работы.
type txOrders struct{ tx *memTx }

// Create сохраняет новый заказ, если ID и номер ещё не заняты.
func (o txOrders) Create(_ context.Context, order domain.Order) error {
	s := o.tx.s
	if _, exists := s.orders[order.ID]; exists {
		return domain.ErrOrderVersionConflict
	}
	if _, exists := s.numbers[order.OrderNumber]; exists {
		return domain.ErrOrderNumberConflict
	}
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	s.orders[order.ID] = order.Clone()
	s.numbers[order.OrderNumber] = order.ID
	o.tx.onRollback(func() {
		delete(s.orders, order.ID)
		delete(s.numbers, order.OrderNumber)
	})
	return nil
}

// GetForUpdate читает заказ; блокировка уже удерживается единицей работы.
func (o txOrders) GetForUpdate(_ context.Context, id string) (domain.Order, error) {
	order, ok := o.tx.s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order.Clone(), nil
}

// Update перезаписывает заказ, проверяя версию (optimistic locking).
func (o txOrders) Update(_ context.Context, order domain.Order) (domain.Order, error) {
	s := o.tx.s
	current, ok := s.orders[order.ID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.Order{}, domain.ErrOrderVersionConflict
	}
	// Позиции неизменяемы: берём их из сохранённой версии.
	order.Items = current.Items
	order.Version++
	s.orders[order.ID] = order.Clone()
	o.tx.onRollback(func() { s.orders[order.ID] = current })
	return order.Clone(), nil
}

var (
	_ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
	_ domain.OrderWriter     = txOrders{}
)
