package memory

import (
	"context"
	"time"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// Коллабораторы каталога, корзины и identity в памяти.
// Неэкспортируемые методы Store ожидают, что вызывающий уже держит s.mu.

func (s *Store) customer(id string) (domain.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return c, nil
}

func (s *Store) countCustomersSince(since time.Time) int64 {
	var n int64
	for _, c := range s.customers {
		if !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n
}

type txCustomers struct{ tx *memTx }

func (c txCustomers) GetCustomer(_ context.Context, id string) (domain.Customer, error) {
	return c.tx.s.customer(id)
}

func (c txCustomers) CountCustomers(context.Context) (int64, error) {
	return int64(len(c.tx.s.customers)), nil
}

func (c txCustomers) CountCustomersSince(_ context.Context, since time.Time) (int64, error) {
	return c.tx.s.countCustomersSince(since), nil
}

type txCarts struct{ tx *memTx }

func (c txCarts) CountForCustomer(_ context.Context, customerID string) (int, error) {
	n := 0
	for _, item := range c.tx.s.carts {
		if item.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (c txCarts) Get(_ context.Context, id string) (domain.CartItem, error) {
	item, ok := c.tx.s.carts[id]
	if !ok {
		return domain.CartItem{}, domain.ErrCartItemNotFound
	}
	return item, nil
}

func (c txCarts) Delete(_ context.Context, id string) error {
	s := c.tx.s
	item, ok := s.carts[id]
	if !ok {
		return domain.ErrCartItemNotFound
	}
	delete(s.carts, id)
	c.tx.onRollback(func() { s.carts[id] = item })
	return nil
}

type txInventory struct{ tx *memTx }

func (i txInventory) GetProduct(_ context.Context, id string) (domain.Product, error) {
	p, ok := i.tx.s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

// DecrementStock проверяет и списывает остаток в одном критическом участке.
func (i txInventory) DecrementStock(_ context.Context, id string, qty int) (domain.Product, error) {
	if qty <= 0 {
		return domain.Product{}, domain.Validationf("quantity for product %q must be positive, got %d", id, qty)
	}
	s := i.tx.s
	before, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if before.StockQuantity < qty {
		return domain.Product{}, &domain.InsufficientStockError{
			ProductID:   before.ID,
			ProductName: before.Name,
			Requested:   qty,
			Available:   before.StockQuantity,
		}
	}

	after := before
	after.StockQuantity -= qty
	if after.StockQuantity == 0 {
		after.Status = domain.ProductStatusOutOfStock
	}
	s.products[id] = after
	i.tx.onRollback(func() { s.products[id] = before })
	return after, nil
}

// CustomerDirectory — чтение клиентов вне единицы работы.
type CustomerDirectory struct{ s *Store }

// NewCustomerDirectory создаёт in-memory реализацию CustomerDirectory.
func NewCustomerDirectory(store *Store) *CustomerDirectory {
	return &CustomerDirectory{s: store}
}

func (d *CustomerDirectory) GetCustomer(_ context.Context, id string) (domain.Customer, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	return d.s.customer(id)
}

func (d *CustomerDirectory) CountCustomers(context.Context) (int64, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	return int64(len(d.s.customers)), nil
}

func (d *CustomerDirectory) CountCustomersSince(_ context.Context, since time.Time) (int64, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	return d.s.countCustomersSince(since), nil
}

// CatalogStats считает товары каталога.
type CatalogStats struct{ s *Store }

// NewCatalogStats создаёт in-memory реализацию CatalogStats.
func NewCatalogStats(store *Store) *CatalogStats {
	return &CatalogStats{s: store}
}

func (c *CatalogStats) CountProducts(context.Context) (int64, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return int64(len(c.s.products)), nil
}

func (c *CatalogStats) CountLowStock(_ context.Context, threshold int) (int64, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	var n int64
	for _, p := range c.s.products {
		if p.StockQuantity <= threshold {
			n++
		}
	}
	return n, nil
}

// MarketingDirectory считает активные баннеры и купоны.
type MarketingDirectory struct{ s *Store }

// NewMarketingDirectory создаёт in-memory реализацию MarketingDirectory.
func NewMarketingDirectory(store *Store) *MarketingDirectory {
	return &MarketingDirectory{s: store}
}

func (m *MarketingDirectory) CountActiveBanners(context.Context) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return countActive(m.s.banners), nil
}

func (m *MarketingDirectory) CountActiveCoupons(context.Context) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return countActive(m.s.coupons), nil
}

func countActive(entries map[string]bool) int64 {
	var n int64
	for _, active := range entries {
		if active {
			n++
		}
	}
	return n
}

var (
	_ domain.CustomerDirectory  = (*CustomerDirectory)(nil)
	_ domain.CustomerDirectory  = txCustomers{}
	_ domain.CartStore          = txCarts{}
	_ domain.InventoryLedger    = txInventory{}
	_ domain.CatalogStats       = (*CatalogStats)(nil)
	_ domain.MarketingDirectory = (*MarketingDirectory)(nil)
)
