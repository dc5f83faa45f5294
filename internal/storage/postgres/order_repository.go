package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yash-patil1/Cdac-Project/internal/domain"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const orderColumns = `id, po_number, buyer, buyer_email, sender_email, currency, total_amount, status, raw_json, created_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &o.PONumber, &o.Buyer, &o.BuyerEmail, &o.SenderEmail,
		&o.Currency, &o.TotalAmount, &status, &o.RawJSON, &o.CreatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}

// GetOrderForUpdate locks the order row for the surrounding
// transaction, serializing evaluate/resume for the same order across
// worker processes.
func (r *OrderRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE id = $1 FOR UPDATE`

	o, err := scanOrder(r.queryRow(ctx, query, orderID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) GetOrderByNumber(ctx context.Context, poNumber string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM purchase_orders WHERE po_number = $1`

	o, err := scanOrder(r.queryRow(ctx, query, poNumber))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order by number: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) FindOrderIDByNumber(ctx context.Context, poNumber string) (string, error) {
	const query = `SELECT id FROM purchase_orders WHERE po_number = $1`

	var id string
	if err := r.queryRow(ctx, query, poNumber).Scan(&id); err != nil {
		if err == pgx.ErrNoRows {
			return "", domain.ErrOrderNotFound
		}
		return "", fmt.Errorf("find order by number: %w", err)
	}
	return id, nil
}

func (r *OrderRepository) ListOrders(ctx context.Context, status domain.OrderStatus, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + orderColumns + ` FROM purchase_orders`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OrderRepository) ListItems(ctx context.Context, orderID string) ([]domain.LineItem, error) {
	const query = `
SELECT id, po_id, product_id, product_name, quantity, unit_price
FROM purchase_order_items
WHERE po_id = $1
ORDER BY product_id`

	rows, err := r.query(ctx, query, orderID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []domain.LineItem
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// UpdateStatus transitions the order only from the expected status;
// a zero-row update means another worker moved the order first.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus) error {
	const stmt = `UPDATE purchase_orders SET status = $3 WHERE id = $1 AND status = $2`

	tag, err := r.exec(ctx, stmt, orderID, string(from), string(to))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStatusConflict
	}
	return nil
}

// CreateOrder inserts the order and its line items as the ingestion
// hand-off does, leaving it in status NEW.
func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order, items []domain.LineItem) error {
	const stmt = `
INSERT INTO purchase_orders (id, po_number, buyer, buyer_email, sender_email, currency, total_amount, status, raw_json, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	return withTx(ctx, r.pool, func(txCtx context.Context) error {
		_, err := r.exec(txCtx, stmt,
			order.ID, order.PONumber, order.Buyer, order.BuyerEmail, order.SenderEmail,
			order.Currency, order.TotalAmount, string(order.Status), order.RawJSON, order.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("order %s already exists: %w", order.PONumber, err)
			}
			return fmt.Errorf("create order: %w", err)
		}

		const itemStmt = `
INSERT INTO purchase_order_items (id, po_id, product_id, product_name, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5, $6)`
		for _, item := range items {
			if _, err := r.exec(txCtx, itemStmt,
				item.ID, order.ID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice,
			); err != nil {
				return fmt.Errorf("create line item: %w", err)
			}
		}
		return nil
	})
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
