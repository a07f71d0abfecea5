package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/ordering"
)

const (
	apiPrefix      = "/api/v1"
	defaultTimeout = 30 * time.Second
)

// OrderService — операции над заказами, которые публикует API.
type OrderService interface {
	CreateOrder(ctx context.Context, req ordering.CreateOrderRequest) (domain.Order, error)
	UpdateOrder(ctx context.Context, orderID string, req ordering.UpdateOrderRequest) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) (domain.Order, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	GetOrderTimeline(ctx context.Context, orderID string) ([]domain.TimelineEvent, error)
	ListOrdersForCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	ListOrdersForCustomerPage(ctx context.Context, customerID string, page domain.PageRequest) (domain.Page[domain.Order], error)
	SearchOrders(ctx context.Context, filter domain.OrderFilter, page domain.PageRequest) (domain.Page[domain.Order], error)
	ListOrdersByStatus(ctx context.Context, status domain.OrderStatus, page domain.PageRequest) (domain.Page[domain.Order], error)
	Location() *time.Location
}

// ReportService — сводки и дашборд.
type ReportService interface {
	Summarize(ctx context.Context, filter domain.OrderFilter) (domain.OrderSummary, error)
	Overview(ctx context.Context) (domain.DashboardOverview, error)
}

type routerConfig struct {
	logger      *log.Entry
	timeout     time.Duration
	middlewares []func(http.Handler) http.Handler
}

// Option настраивает роутер.
type Option func(*routerConfig)

// WithLogger задаёт логгер запросов и обработчиков.
func WithLogger(logger *log.Entry) Option {
	return func(cfg *routerConfig) {
		cfg.logger = logger
	}
}

// WithTimeout ограничивает время обработки одного запроса.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *routerConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithMiddlewares добавляет middleware после стандартных.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// NewRouter собирает chi-роутер API заказов.
func NewRouter(orders OrderService, reports ReportService, opts ...Option) chi.Router {
	cfg := routerConfig{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.WithField("component", "http-api")
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(cfg.logger),
		middleware.Recoverer,
		middleware.Timeout(cfg.timeout),
	)
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(routeNotFound)
	r.MethodNotAllowed(methodNotAllowed)

	orderHandlers := &OrderHandlers{orders: orders, reports: reports, logger: cfg.logger}
	dashboardHandlers := &DashboardHandlers{reports: reports, logger: cfg.logger}

	r.Route(apiPrefix, func(api chi.Router) {
		// Вложенные роутеры наследуют обработчики только от уже смонтированного родителя.
		api.NotFound(routeNotFound)
		api.MethodNotAllowed(methodNotAllowed)
		api.Route("/customers/{customerID}/orders", orderHandlers.CustomerRoutes)
		api.Route("/orders", orderHandlers.Routes)
		api.Route("/admin/dashboard", dashboardHandlers.Routes)
	})
	return r
}

func routeNotFound(w http.ResponseWriter, req *http.Request) {
	writeAPIError(req.Context(), w, newAPIError(codeRouteNotFound, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
}

func methodNotAllowed(w http.ResponseWriter, req *http.Request) {
	writeAPIError(req.Context(), w, newAPIError(codeMethodNotAllowed, fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
}

// requestLogger пишет итог каждого запроса; уровень зависит от кода ответа.
func requestLogger(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				entry := logger.WithFields(log.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"method":     r.Method,
					"route":      route,
					"status":     status,
					"latency":    time.Since(start).String(),
					"bytes":      ww.BytesWritten(),
				})
				switch {
				case status >= http.StatusInternalServerError:
					entry.Error("request completed")
				case status >= http.StatusBadRequest:
					entry.Warn("request completed")
				default:
					entry.Debug("request completed")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
