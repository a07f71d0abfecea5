package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/fulfillment/internal/health"
	"github.com/vladislavdragonenkov/fulfillment/internal/storage/memory"
	"github.com/vladislavdragonenkov/fulfillment/internal/storage/postgres"
)

// runtimeDependencies — порты хранилища, выбранного конфигурацией.
type runtimeDependencies struct {
	uow            domain.UnitOfWork
	orders         domain.OrderRepository
	timeline       domain.TimelineRepository
	outbox         domain.OutboxRepository
	customers      domain.CustomerDirectory
	catalog        domain.CatalogStats
	marketing      domain.MarketingDirectory
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

// initRuntimeDependencies открывает хранилище и собирает поверх него репозитории.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		store := memory.NewStore()
		if cfg.SeedDemoData {
			seedDemoData(store, time.Now().UTC())
			logger.Info("in-memory storage seeded with demo catalog")
		}
		return &runtimeDependencies{
			uow:            store,
			orders:         memory.NewOrderRepository(store),
			timeline:       memory.NewTimelineRepository(store),
			outbox:         memory.NewOutboxRepository(store),
			customers:      memory.NewCustomerDirectory(store),
			catalog:        memory.NewCatalogStats(store),
			marketing:      memory.NewMarketingDirectory(store),
			storageChecker: healthcheck.NewPingChecker("storage", store),
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage requires FULFILLMENT_POSTGRES_DSN")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("postgres schema is up to date")
		}
		return &runtimeDependencies{
			uow:            store,
			orders:         postgres.NewOrderRepository(store),
			timeline:       postgres.NewTimelineRepository(store),
			outbox:         postgres.NewOutboxRepository(store),
			customers:      postgres.NewCustomerDirectory(store),
			catalog:        postgres.NewCatalogStats(store),
			marketing:      postgres.NewMarketingDirectory(store),
			storageChecker: healthcheck.NewPingChecker("storage", store),
			closeFn:        store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// seedDemoData наполняет in-memory хранилище каталогом и корзиной для ручной проверки API.
func seedDemoData(store *memory.Store, now time.Time) {
	discount := decimal.RequireFromString("89.90")

	store.AddCustomer(domain.Customer{ID: "demo-customer", Username: "demo", Email: "demo@example.com", FirstName: "Demo", LastName: "Customer", CreatedAt: now})
	store.AddProduct(domain.Product{ID: "demo-chair", Name: "Office chair", Price: decimal.RequireFromString("120.00"), StockQuantity: 25, CreatedAt: now})
	store.AddProduct(domain.Product{ID: "demo-lamp", Name: "Desk lamp", Price: decimal.RequireFromString("99.90"), DiscountPrice: &discount, StockQuantity: 4, CreatedAt: now})
	store.AddProduct(domain.Product{ID: "demo-mat", Name: "Cutting mat", Price: decimal.RequireFromString("15.00"), StockQuantity: 0, Status: domain.ProductStatusOutOfStock, CreatedAt: now})
	store.AddCartItem(domain.CartItem{ID: "demo-cart-chair", CustomerID: "demo-customer", ProductID: "demo-chair", Quantity: 2, CreatedAt: now})
	store.AddCartItem(domain.CartItem{ID: "demo-cart-lamp", CustomerID: "demo-customer", ProductID: "demo-lamp", Quantity: 1, CreatedAt: now})
	store.AddBanner("demo-banner", true)
	store.AddCoupon("demo-coupon", true)
}
