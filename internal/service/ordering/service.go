// Package ordering оформляет заказы из корзины, ведёт их жизненный цикл
// и отвечает на запросы чтения.
package ordering

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/metrics"
)

// Service — прикладной сервис заказов.
type Service struct {
	uow      domain.UnitOfWork
	orders   domain.OrderRepository
	timeline domain.TimelineRepository
	numbers  NumberGenerator
	metrics  *metrics.OrderMetrics
	logger   *log.Entry
	now      func() time.Time
	location *time.Location
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics включает запись метрик оформления и переходов.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithNumberGenerator подменяет генератор номеров заказов.
func WithNumberGenerator(g NumberGenerator) Option {
	return func(s *Service) {
		s.numbers = g
	}
}

// WithLocation задаёт часовой пояс, в котором трактуются даты фильтров.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.location = loc
	}
}

// NewService собирает сервис заказов.
func NewService(uow domain.UnitOfWork, orders domain.OrderRepository, timeline domain.TimelineRepository, options ...Option) *Service {
	s := &Service{
		uow:      uow,
		orders:   orders,
		timeline: timeline,
		now:      time.Now,
		location: time.UTC,
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "ordering")
	}
	if s.numbers == nil {
		s.numbers = NewULIDNumberGenerator()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.location == nil {
		s.location = time.UTC
	}
	return s
}

// logRejection пишет бизнес-отказы в Warn, остальное в Error.
func (s *Service) logRejection(entry *log.Entry, err error, msg string) {
	if isBusinessError(err) {
		entry.WithError(err).Warn(msg)
		return
	}
	entry.WithError(err).Error(msg)
}

func isBusinessError(err error) bool {
	return domain.IsValidation(err) ||
		domain.IsNotFound(err) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrInvalidTransition)
}

func rejectReason(err error) string {
	switch {
	case domain.IsValidation(err):
		return metrics.RejectValidation
	case domain.IsNotFound(err):
		return metrics.RejectNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return metrics.RejectInsufficientStock
	default:
		return metrics.RejectInternal
	}
}
