package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

type customerDirectory struct {
	q queryer
}

// NewCustomerDirectory создаёт PostgreSQL-реализацию CustomerDirectory.
func NewCustomerDirectory(store *Store) domain.CustomerDirectory {
	return customerDirectory{q: store.DB()}
}

func (d customerDirectory) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var c domain.Customer
	err := d.q.QueryRowContext(ctx, `
		SELECT id, username, email, first_name, last_name, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Username, &c.Email, &c.FirstName, &c.LastName, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("select customer: %w", err)
	}
	return c, nil
}

func (d customerDirectory) CountCustomers(ctx context.Context) (int64, error) {
	return count(ctx, d.q, "count customers", `SELECT COUNT(*) FROM customers`)
}

func (d customerDirectory) CountCustomersSince(ctx context.Context, since time.Time) (int64, error) {
	return count(ctx, d.q, "count new customers", `SELECT COUNT(*) FROM customers WHERE created_at >= $1`, since)
}

type cartStore struct {
	q queryer
}

func (c cartStore) CountForCustomer(ctx context.Context, customerID string) (int, error) {
	n, err := count(ctx, c.q, "count cart items", `SELECT COUNT(*) FROM cart_items WHERE customer_id = $1`, customerID)
	return int(n), err
}

// Get блокирует строку корзины, чтобы параллельное оформление не списало её дважды.
func (c cartStore) Get(ctx context.Context, id string) (domain.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var item domain.CartItem
	err := c.q.QueryRowContext(ctx, `
		SELECT id, customer_id, product_id, quantity, created_at
		FROM cart_items
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&item.ID, &item.CustomerID, &item.ProductID, &item.Quantity, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CartItem{}, domain.ErrCartItemNotFound
		}
		return domain.CartItem{}, fmt.Errorf("select cart item: %w", err)
	}
	return item, nil
}

func (c cartStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := c.q.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for cart item delete: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

type inventoryLedger struct {
	q queryer
}

const productColumns = `id, name, price, discount_price, stock_quantity, status, created_at`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var (
		p        domain.Product
		discount decimal.NullDecimal
		status   string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &discount, &p.StockQuantity, &status, &p.CreatedAt); err != nil {
		return domain.Product{}, err
	}
	if discount.Valid {
		d := discount.Decimal
		p.DiscountPrice = &d
	}
	p.Status = domain.ProductStatus(status)
	return p, nil
}

func (l inventoryLedger) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	p, err := scanProduct(l.q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

// DecrementStock — условное списание одним UPDATE: строка меняется, только если остатка хватает.
func (l inventoryLedger) DecrementStock(ctx context.Context, id string, qty int) (domain.Product, error) {
	if qty <= 0 {
		return domain.Product{}, domain.Validationf("quantity for product %q must be positive, got %d", id, qty)
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	p, err := scanProduct(l.q.QueryRowContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2,
		    status = CASE WHEN stock_quantity - $2 = 0 THEN $3 ELSE status END
		WHERE id = $1
		  AND stock_quantity >= $2
		RETURNING `+productColumns,
		id, qty, string(domain.ProductStatusOutOfStock),
	))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("decrement stock: %w", err)
	}

	current, err := l.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{}, &domain.InsufficientStockError{
		ProductID:   current.ID,
		ProductName: current.Name,
		Requested:   qty,
		Available:   current.StockQuantity,
	}
}

type catalogStats struct {
	q queryer
}

// NewCatalogStats создаёт PostgreSQL-реализацию CatalogStats.
func NewCatalogStats(store *Store) domain.CatalogStats {
	return catalogStats{q: store.DB()}
}

func (c catalogStats) CountProducts(ctx context.Context) (int64, error) {
	return count(ctx, c.q, "count products", `SELECT COUNT(*) FROM products`)
}

func (c catalogStats) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	return count(ctx, c.q, "count low stock products", `SELECT COUNT(*) FROM products WHERE stock_quantity <= $1`, threshold)
}

type marketingDirectory struct {
	q queryer
}

// NewMarketingDirectory создаёт PostgreSQL-реализацию MarketingDirectory.
func NewMarketingDirectory(store *Store) domain.MarketingDirectory {
	return marketingDirectory{q: store.DB()}
}

func (m marketingDirectory) CountActiveBanners(ctx context.Context) (int64, error) {
	return count(ctx, m.q, "count active banners", `SELECT COUNT(*) FROM banners WHERE active`)
}

func (m marketingDirectory) CountActiveCoupons(ctx context.Context) (int64, error) {
	return count(ctx, m.q, "count active coupons", `SELECT COUNT(*) FROM coupons WHERE active`)
}

func count(ctx context.Context, q queryer, op, query string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var n int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

var (
	_ domain.CustomerDirectory  = customerDirectory{}
	_ domain.CartStore          = cartStore{}
	_ domain.InventoryLedger    = inventoryLedger{}
	_ domain.CatalogStats       = catalogStats{}
	_ domain.MarketingDirectory = marketingDirectory{}
)
