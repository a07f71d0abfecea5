package app

import (
	"context"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/fulfillment/internal/health"
	"github.com/vladislavdragonenkov/fulfillment/internal/storage/memory"
)

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	return log.NewEntry(logger)
}

func TestInitRuntimeDependencies_Memory(t *testing.T) {
	cfg := DefaultConfig()

	deps, err := initRuntimeDependencies(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer deps.close(testLogger())

	assert.NotNil(t, deps.uow)
	assert.NotNil(t, deps.orders)
	assert.NotNil(t, deps.timeline)
	assert.NotNil(t, deps.outbox)
	assert.NotNil(t, deps.customers)
	assert.NotNil(t, deps.catalog)
	assert.NotNil(t, deps.marketing)
	assert.Nil(t, deps.closeFn)

	check := deps.storageChecker.Check(context.Background())
	assert.Equal(t, healthcheck.StatusHealthy, check.Status)

	store, ok := deps.uow.(*memory.Store)
	require.True(t, ok)
	_, ok = store.Product("demo-chair")
	assert.True(t, ok, "demo catalog is seeded")
}

func TestInitRuntimeDependencies_MemoryWithoutSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SeedDemoData = false

	deps, err := initRuntimeDependencies(context.Background(), cfg, testLogger())
	require.NoError(t, err)

	store, ok := deps.uow.(*memory.Store)
	require.True(t, ok)
	_, ok = store.Product("demo-chair")
	assert.False(t, ok)

	total, err := deps.customers.CountCustomers(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestInitRuntimeDependencies_PostgresRequiresDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = StorageDriverPostgres

	deps, err := initRuntimeDependencies(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Nil(t, deps)
	assert.Contains(t, err.Error(), "FULFILLMENT_POSTGRES_DSN")
}

func TestInitRuntimeDependencies_UnsupportedDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = "sqlite"

	_, err := initRuntimeDependencies(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported storage driver "sqlite"`)
}

func TestSeedDemoData(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	seedDemoData(store, now)

	lamp, ok := store.Product("demo-lamp")
	require.True(t, ok)
	require.NotNil(t, lamp.DiscountPrice)
	assert.Equal(t, "89.90", lamp.DiscountPrice.StringFixed(2))

	mat, ok := store.Product("demo-mat")
	require.True(t, ok)
	assert.Equal(t, domain.ProductStatusOutOfStock, mat.Status)

	item, ok := store.CartItem("demo-cart-chair")
	require.True(t, ok)
	assert.Equal(t, "demo-customer", item.CustomerID)
	assert.Equal(t, 2, item.Quantity)
}

func TestRuntimeDependencies_CloseIsNilSafe(t *testing.T) {
	var deps *runtimeDependencies
	assert.NotPanics(t, func() { deps.close(testLogger()) })

	closed := false
	deps = &runtimeDependencies{closeFn: func() error { closed = true; return nil }}
	deps.close(testLogger())
	assert.True(t, closed)
}
