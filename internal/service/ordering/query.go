package ordering

import (
	"context"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// DateLayout — формат дат в параметрах поиска.
const DateLayout = "2006-01-02"

// SearchParams — сырые параметры поиска, как они приходят с транспорта.
type SearchParams struct {
	Keyword       string
	CustomerID    string
	Status        string
	PaymentStatus string
	StartDate     string
	EndDate       string
}

// BuildFilter разбирает параметры в фильтр. Пустые параметры условиями не становятся.
// startDate задаёт полночь дня, endDate — последний момент дня в часовом поясе loc.
func BuildFilter(params SearchParams, loc *time.Location) (domain.OrderFilter, error) {
	if loc == nil {
		loc = time.UTC
	}
	filter := domain.OrderFilter{}.
		WithKeyword(params.Keyword).
		WithCustomer(strings.TrimSpace(params.CustomerID))

	if strings.TrimSpace(params.Status) != "" {
		status, err := domain.ParseOrderStatus(params.Status)
		if err != nil {
			return domain.OrderFilter{}, err
		}
		filter = filter.WithStatus(status)
	}
	if strings.TrimSpace(params.PaymentStatus) != "" {
		status, err := domain.ParsePaymentStatus(params.PaymentStatus)
		if err != nil {
			return domain.OrderFilter{}, err
		}
		filter = filter.WithPaymentStatus(status)
	}

	var from, to time.Time
	if strings.TrimSpace(params.StartDate) != "" {
		day, err := ParseDate(params.StartDate, loc)
		if err != nil {
			return domain.OrderFilter{}, err
		}
		from = day
		filter = filter.WithCreatedFrom(from)
	}
	if strings.TrimSpace(params.EndDate) != "" {
		day, err := ParseDate(params.EndDate, loc)
		if err != nil {
			return domain.OrderFilter{}, err
		}
		if !from.IsZero() && day.Before(from) {
			return domain.OrderFilter{}, domain.Validationf("endDate %s is before startDate %s", params.EndDate, params.StartDate)
		}
		to = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter = filter.WithCreatedTo(to)
	}

	return filter, nil
}

// ParseDate разбирает дату YYYY-MM-DD как полночь в loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, domain.Validationf("malformed date %q, expected YYYY-MM-DD", raw)
	}
	return day, nil
}

// Location возвращает часовой пояс, в котором сервис трактует даты.
func (s *Service) Location() *time.Location {
	return s.location
}

// GetOrder возвращает заказ с позициями по ID.
func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return s.orders.Get(ctx, id)
}

// GetOrderByNumber ищет заказ по его номеру.
func (s *Service) GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	return s.orders.GetByNumber(ctx, strings.TrimSpace(orderNumber))
}

// ListOrdersForCustomer возвращает все заказы клиента, сначала новые.
func (s *Service) ListOrdersForCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// ListOrdersForCustomerPage — постраничный вариант ListOrdersForCustomer.
func (s *Service) ListOrdersForCustomerPage(ctx context.Context, customerID string, page domain.PageRequest) (domain.Page[domain.Order], error) {
	if strings.TrimSpace(customerID) == "" {
		return domain.Page[domain.Order]{}, domain.Validationf("customer id is required")
	}
	return s.orders.Search(ctx, domain.OrderFilter{}.WithCustomer(customerID), page.Normalize())
}

// SearchOrders ищет заказы по конъюнкции условий фильтра.
func (s *Service) SearchOrders(ctx context.Context, filter domain.OrderFilter, page domain.PageRequest) (domain.Page[domain.Order], error) {
	return s.orders.Search(ctx, filter, page.Normalize())
}

// ListOrdersByStatus — поиск с единственным условием по статусу.
func (s *Service) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus, page domain.PageRequest) (domain.Page[domain.Order], error) {
	return s.orders.Search(ctx, domain.OrderFilter{}.WithStatus(status), page.Normalize())
}
