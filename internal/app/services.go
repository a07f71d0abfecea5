package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/fulfillment/internal/metrics"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/ordering"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/outbox"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/reporting"
)

type services struct {
	ordering  *ordering.Service
	reporting *reporting.Service
}

// createServices собирает сервисы заказов и отчётов поверх выбранного хранилища.
func createServices(deps *runtimeDependencies, cfg Config, loc *time.Location, orderMetrics *metrics.OrderMetrics, logger *log.Entry) services {
	return services{
		ordering: ordering.NewService(deps.uow, deps.orders, deps.timeline,
			ordering.WithLogger(logger.WithField("layer", "ordering")),
			ordering.WithMetrics(orderMetrics),
			ordering.WithLocation(loc),
		),
		reporting: reporting.NewService(deps.orders, deps.customers, deps.catalog, deps.marketing,
			reporting.WithLogger(logger.WithField("layer", "reporting")),
			reporting.WithLocation(loc),
			reporting.WithLowStockThreshold(cfg.LowStockThreshold),
		),
	}
}

// createOutboxWorker связывает outbox хранилища с Kafka. Без producer воркер не нужен.
func createOutboxWorker(deps *runtimeDependencies, producer *kafka.Producer, cfg Config, outboxMetrics *metrics.OutboxMetrics, logger *log.Entry) *outbox.Worker {
	if producer == nil {
		return nil
	}
	return outbox.NewWorker(deps.outbox, kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
		outbox.WithDLQPublisher(kafka.NewOutboxPublisher(producer, cfg.KafkaDLQTopic)),
		outbox.WithLogger(logger.WithField("layer", "outbox")),
		outbox.WithMetrics(outboxMetrics),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	)
}

// startOutboxWorker запускает воркер в фоне и возвращает функцию остановки.
func startOutboxWorker(ctx context.Context, worker *outbox.Worker) (stop func(), done <-chan struct{}) {
	if worker == nil {
		return nil, nil
	}
	workerCtx, cancel := context.WithCancel(ctx)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		worker.Run(workerCtx)
	}()
	return cancel, finished
}

// shutdownOutboxWorker останавливает воркер и ждёт завершения текущего цикла.
func shutdownOutboxWorker(stop func(), done <-chan struct{}, timeout time.Duration, logger *log.Entry) {
	if stop == nil {
		return
	}
	stop()
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info("outbox worker stopped")
	case <-time.After(timeout):
		logger.Warn("outbox worker did not stop in time")
	}
}
