package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

const (
	orderColumns = `o.id, o.customer_id, o.order_number, o.total_amount, o.shipping_address, o.shipping_phone,
		o.shipping_name, o.status, o.payment_method, o.payment_status, o.notes, o.admin_notes,
		o.version, o.created_at, o.updated_at`
	ordersFrom = ` FROM orders o LEFT JOIN customers c ON c.id = o.customer_id`

	orderNumberConstraint = "orders_order_number_key"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func scanOrder(row interface{ Scan(...any) error }) (domain.Order, error) {
	var (
		order         domain.Order
		status        string
		paymentStatus string
		adminNotes    sql.NullString
	)
	if err := row.Scan(
		&order.ID, &order.CustomerID, &order.OrderNumber, &order.Total,
		&order.ShippingAddress, &order.ShippingPhone, &order.ShippingName,
		&status, &order.PaymentMethod, &paymentStatus, &order.Notes, &adminNotes,
		&order.Version, &order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatus(status)
	order.PaymentStatus = domain.PaymentStatus(paymentStatus)
	if adminNotes.Valid {
		notes := adminNotes.String
		order.AdminNotes = &notes
	}
	return order, nil
}

func getOrder(ctx context.Context, q queryer, where string, arg any) (domain.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx, `SELECT `+orderColumns+ordersFrom+` WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	orders := []domain.Order{order}
	if err := attachItems(ctx, q, orders); err != nil {
		return domain.Order{}, err
	}
	return orders[0], nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return getOrder(ctx, r.db, "o.id = $1", id)
}

func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return getOrder(ctx, r.db, "o.order_number = $1", orderNumber)
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return r.queryOrders(ctx, `SELECT `+orderColumns+ordersFrom+`
		WHERE o.customer_id = $1
		ORDER BY o.created_at DESC, o.id DESC`, customerID)
}

func (r *orderRepository) Search(ctx context.Context, filter domain.OrderFilter, page domain.PageRequest) (domain.Page[domain.Order], error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	page = page.Normalize()
	args := &sqlArgs{}
	where := whereClause(filter, args)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+ordersFrom+where, args.values...).Scan(&total); err != nil {
		return domain.Page[domain.Order]{}, fmt.Errorf("count orders: %w", err)
	}
	if total == 0 || int64(page.Offset()) >= total {
		return domain.NewPage[domain.Order](nil, page, total), nil
	}

	limit := args.add(page.Size)
	offset := args.add(page.Offset())
	orders, err := r.queryOrders(ctx,
		`SELECT `+orderColumns+ordersFrom+where+orderByClause(page)+` LIMIT `+limit+` OFFSET `+offset,
		args.values...)
	if err != nil {
		return domain.Page[domain.Order]{}, err
	}
	return domain.NewPage(orders, page, total), nil
}

// Summarize считает корзины статусов и выручку одним агрегирующим запросом.
func (r *orderRepository) Summarize(ctx context.Context, filter domain.OrderFilter) (domain.OrderSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	args := &sqlArgs{}
	where := whereClause(filter, args)
	pending := args.add(statusStrings(domain.StatusesIn(domain.BucketPending)))
	shipping := args.add(statusStrings(domain.StatusesIn(domain.BucketShipping)))
	completed := args.add(statusStrings(domain.StatusesIn(domain.BucketCompleted)))
	cancelled := args.add(statusStrings(domain.StatusesIn(domain.BucketCancelled)))
	delivered := args.add(string(domain.OrderStatusDelivered))
	paid := args.add(string(domain.PaymentStatusPaid))

	query := fmt.Sprintf(`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE o.status = ANY(%s)),
			COUNT(*) FILTER (WHERE o.status = ANY(%s)),
			COUNT(*) FILTER (WHERE o.status = ANY(%s)),
			COUNT(*) FILTER (WHERE o.status = ANY(%s)),
			COALESCE(SUM(o.total_amount) FILTER (WHERE o.status = %s OR o.payment_status = %s), 0)`,
		pending, shipping, completed, cancelled, delivered, paid) + ordersFrom + where

	var s domain.OrderSummary
	if err := r.db.QueryRowContext(ctx, query, args.values...).Scan(
		&s.TotalOrders, &s.PendingOrders, &s.ShippingOrders, &s.CompletedOrders, &s.CancelledOrders, &s.TotalRevenue,
	); err != nil {
		return domain.OrderSummary{}, fmt.Errorf("summarize orders: %w", err)
	}
	return s, nil
}

func (r *orderRepository) Recent(ctx context.Context, limit int) ([]domain.RecentOrder, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.order_number, COALESCE(c.username, ''), COALESCE(c.first_name, ''), COALESCE(c.last_name, ''),
		       o.total_amount, o.status, o.payment_status, o.created_at
		`+ordersFrom+`
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent orders: %w", err)
	}
	defer rows.Close()

	result := make([]domain.RecentOrder, 0, limit)
	for rows.Next() {
		var (
			ro            domain.RecentOrder
			customer      domain.Customer
			status        string
			paymentStatus string
		)
		if err := rows.Scan(
			&ro.ID, &ro.OrderNumber, &customer.Username, &customer.FirstName, &customer.LastName,
			&ro.Total, &status, &paymentStatus, &ro.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan recent order: %w", err)
		}
		ro.CustomerName = customer.DisplayName()
		ro.Status = domain.OrderStatus(status)
		ro.PaymentStatus = domain.PaymentStatus(paymentStatus)
		result = append(result, ro)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent orders: %w", err)
	}
	return result, nil
}

func (r *orderRepository) Stats(ctx context.Context, since time.Time) (domain.OrderStats, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var stats domain.OrderStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = $2),
			COALESCE(SUM(total_amount) FILTER (WHERE payment_status = $3), 0),
			COALESCE(SUM(total_amount) FILTER (WHERE payment_status = $3 AND created_at >= $4), 0)
		FROM orders
	`,
		string(domain.OrderStatusPending), string(domain.OrderStatusDelivered),
		string(domain.PaymentStatusPaid), since,
	).Scan(&stats.TotalOrders, &stats.PendingOrders, &stats.DeliveredOrders, &stats.PaidRevenue, &stats.PaidRevenueSince)
	if err != nil {
		return domain.OrderStats{}, fmt.Errorf("order stats: %w", err)
	}
	return stats, nil
}

func (r *orderRepository) PaidSince(ctx context.Context, since time.Time) ([]domain.PaidAmount, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT created_at, total_amount
		FROM orders
		WHERE payment_status = $1 AND created_at >= $2
		ORDER BY created_at
	`, string(domain.PaymentStatusPaid), since)
	if err != nil {
		return nil, fmt.Errorf("list paid orders: %w", err)
	}
	defer rows.Close()

	result := make([]domain.PaidAmount, 0)
	for rows.Next() {
		var p domain.PaidAmount
		if err := rows.Scan(&p.CreatedAt, &p.Total); err != nil {
			return nil, fmt.Errorf("scan paid order: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paid orders: %w", err)
	}
	return result, nil
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	rows.Close()

	if err := attachItems(ctx, r.db, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems загружает позиции всех заказов одним запросом.
func attachItems(ctx context.Context, q queryer, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		index[o.ID] = i
		orders[i].Items = make([]domain.OrderItem, 0)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, subtotal, created_at
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at ASC, id ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item      domain.OrderItem
			productID sql.NullString
		)
		if err := rows.Scan(
			&item.ID, &item.OrderID, &productID, &item.ProductName,
			&item.UnitPrice, &item.Quantity, &item.Subtotal, &item.CreatedAt,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if productID.Valid {
			id := productID.String
			item.ProductID = &id
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order items: %w", err)
	}
	return nil
}

// orderWriter пишет заказы внутри транзакции единицы работы.
type orderWriter struct {
	q queryer
}

func (w orderWriter) Create(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := w.q.ExecContext(ctx, `
		INSERT INTO orders (
			id, customer_id, order_number, total_amount, shipping_address, shipping_phone, shipping_name,
			status, payment_method, payment_status, notes, admin_notes, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		order.ID, order.CustomerID, order.OrderNumber, order.Total,
		order.ShippingAddress, order.ShippingPhone, order.ShippingName,
		string(order.Status), order.PaymentMethod, string(order.PaymentStatus),
		order.Notes, nullString(order.AdminNotes), order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if pgErr, ok := uniqueViolation(err); ok {
			if pgErr.ConstraintName == orderNumberConstraint {
				return domain.ErrOrderNumberConflict
			}
			return domain.ErrOrderVersionConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		if _, err := w.q.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, product_name, unit_price, quantity, subtotal, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			item.ID, order.ID, nullString(item.ProductID), item.ProductName,
			item.UnitPrice, item.Quantity, item.Subtotal, item.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return nil
}

// GetForUpdate берёт блокировку строки, чтобы переход проверялся по актуальному статусу.
func (w orderWriter) GetForUpdate(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	order, err := scanOrder(w.q.QueryRowContext(ctx, `SELECT `+orderColumns+`
		FROM orders o
		WHERE o.id = $1
		FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order for update: %w", err)
	}
	orders := []domain.Order{order}
	if err := attachItems(ctx, w.q, orders); err != nil {
		return domain.Order{}, err
	}
	return orders[0], nil
}

func (w orderWriter) Update(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := w.q.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    payment_status = $2,
		    admin_notes = $3,
		    version = version + 1,
		    updated_at = $4
		WHERE id = $5
		  AND version = $6
	`,
		string(order.Status),
		string(order.PaymentStatus),
		nullString(order.AdminNotes),
		order.UpdatedAt,
		order.ID,
		order.Version,
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Order{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := orderExists(ctx, w.q, order.ID)
		if err != nil {
			return domain.Order{}, err
		}
		if !exists {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, domain.ErrOrderVersionConflict
	}

	order.Version++
	return order, nil
}

func orderExists(ctx context.Context, q queryer, orderID string) (bool, error) {
	var id string
	err := q.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

func uniqueViolation(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr, true
	}
	return nil, false
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var (
	_ domain.OrderRepository = (*orderRepository)(nil)
	_ domain.OrderWriter     = orderWriter{}
)
