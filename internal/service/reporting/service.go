// Package reporting строит сводки по заказам и данные административной панели.
package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

const (
	// TrendDays — длина окна тренда выручки, включая сегодня.
	TrendDays = 7
	// RecentOrdersLimit — размер ленты последних заказов.
	RecentOrdersLimit = 5
	revenueWindowDays = 30
)

// Service агрегирует данные заказов и внешних подсистем.
type Service struct {
	orders    domain.OrderRepository
	customers domain.CustomerDirectory
	catalog   domain.CatalogStats
	marketing domain.MarketingDirectory

	logger            *log.Entry
	now               func() time.Time
	location          *time.Location
	lowStockThreshold int
}

// Option настраивает Service.
type Option func(*Service)

func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation задаёт часовой пояс календарных дней тренда.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.location = loc
	}
}

// WithLowStockThreshold задаёт порог "заканчивающегося" товара (остаток <= порога).
func WithLowStockThreshold(threshold int) Option {
	return func(s *Service) {
		s.lowStockThreshold = threshold
	}
}

// NewService собирает сервис отчётов.
func NewService(
	orders domain.OrderRepository,
	customers domain.CustomerDirectory,
	catalog domain.CatalogStats,
	marketing domain.MarketingDirectory,
	options ...Option,
) *Service {
	s := &Service{
		orders:            orders,
		customers:         customers,
		catalog:           catalog,
		marketing:         marketing,
		now:               time.Now,
		location:          time.UTC,
		lowStockThreshold: domain.DefaultLowStockThreshold,
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "reporting")
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.lowStockThreshold < 0 {
		s.lowStockThreshold = domain.DefaultLowStockThreshold
	}
	return s
}

// Summarize считает сводку по отфильтрованным заказам.
func (s *Service) Summarize(ctx context.Context, filter domain.OrderFilter) (domain.OrderSummary, error) {
	summary, err := s.orders.Summarize(ctx, filter)
	if err != nil {
		s.logger.WithError(err).WithField("operation", "summarize").Error("order summary failed")
		return domain.OrderSummary{}, err
	}
	return summary, nil
}

// Overview собирает данные административной панели. Независимые счётчики
// читаются параллельно; первая ошибка отменяет остальные запросы.
func (s *Service) Overview(ctx context.Context) (domain.DashboardOverview, error) {
	now := s.now().In(s.location)
	today := startOfDay(now)
	revenueSince := now.AddDate(0, 0, -revenueWindowDays)
	trendStart := today.AddDate(0, 0, -(TrendDays - 1))

	var (
		overview domain.DashboardOverview
		stats    domain.OrderStats
		paid     []domain.PaidAmount
	)
	summary := &overview.Summary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = s.orders.Stats(gctx, revenueSince)
		return wrap("order stats", err)
	})
	g.Go(func() (err error) {
		paid, err = s.orders.PaidSince(gctx, trendStart)
		return wrap("paid orders", err)
	})
	g.Go(func() (err error) {
		overview.RecentOrders, err = s.orders.Recent(gctx, RecentOrdersLimit)
		return wrap("recent orders", err)
	})
	g.Go(func() (err error) {
		summary.TotalCustomers, err = s.customers.CountCustomers(gctx)
		return wrap("customers", err)
	})
	g.Go(func() (err error) {
		summary.NewCustomers, err = s.customers.CountCustomersSince(gctx, revenueSince)
		return wrap("new customers", err)
	})
	g.Go(func() (err error) {
		summary.TotalProducts, err = s.catalog.CountProducts(gctx)
		return wrap("products", err)
	})
	g.Go(func() (err error) {
		summary.LowStockProducts, err = s.catalog.CountLowStock(gctx, s.lowStockThreshold)
		return wrap("low stock products", err)
	})
	g.Go(func() (err error) {
		summary.ActiveBanners, err = s.marketing.CountActiveBanners(gctx)
		return wrap("banners", err)
	})
	g.Go(func() (err error) {
		summary.ActiveCoupons, err = s.marketing.CountActiveCoupons(gctx)
		return wrap("coupons", err)
	})
	if err := g.Wait(); err != nil {
		s.logger.WithError(err).WithField("operation", "dashboard_overview").Error("dashboard overview failed")
		return domain.DashboardOverview{}, err
	}

	summary.TotalRevenue = stats.PaidRevenue
	summary.Revenue30Days = stats.PaidRevenueSince
	summary.TotalOrders = stats.TotalOrders
	summary.PendingOrders = stats.PendingOrders
	summary.DeliveredOrders = stats.DeliveredOrders

	overview.RevenueTrend = RevenueTrend(trendStart, paid, s.location)
	if overview.RecentOrders == nil {
		overview.RecentOrders = []domain.RecentOrder{}
	}
	return overview, nil
}

// RevenueTrend раскладывает оплаченные заказы по TrendDays календарным дням,
// начиная с start. Дни без заказов остаются с нулями.
func RevenueTrend(start time.Time, paid []domain.PaidAmount, loc *time.Location) []domain.RevenuePoint {
	if loc == nil {
		loc = time.UTC
	}
	start = startOfDay(start.In(loc))

	points := make([]domain.RevenuePoint, TrendDays)
	index := make(map[string]int, TrendDays)
	for i := range points {
		day := start.AddDate(0, 0, i)
		points[i] = domain.RevenuePoint{Date: day, Revenue: decimal.Zero}
		index[dayKey(day)] = i
	}

	for _, p := range paid {
		i, ok := index[dayKey(p.CreatedAt.In(loc))]
		if !ok {
			continue
		}
		points[i].Revenue = points[i].Revenue.Add(p.Total)
		points[i].Orders++
	}
	return points
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("dashboard %s: %w", what, err)
	}
	return nil
}
