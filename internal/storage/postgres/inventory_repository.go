package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yash-patil1/Cdac-Project/internal/clock"
	"github.com/yash-patil1/Cdac-Project/internal/domain"
)

// InventoryRepository is the authoritative stock ledger. It also keeps
// the sales history rows that feed demand forecasting, written in the
// same transaction as the deduction they describe.
type InventoryRepository struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

func NewInventoryRepository(pool *pgxpool.Pool, clk clock.Clock) *InventoryRepository {
	return &InventoryRepository{pool: pool, clock: clk}
}

func (r *InventoryRepository) Snapshot(ctx context.Context, productIDs []string) (map[string]int, error) {
	const query = `SELECT product_id, stock_available FROM inventory WHERE product_id = ANY($1)`

	rows, err := r.query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("snapshot inventory: %w", err)
	}
	defer rows.Close()

	snapshot := make(map[string]int, len(productIDs))
	for rows.Next() {
		var id string
		var stock int
		if err := rows.Scan(&id, &stock); err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		snapshot[id] = stock
	}
	return snapshot, rows.Err()
}

// Commit deducts every allocation atomically. Rows are locked in
// product_id order to avoid deadlocks between concurrent commits, then
// verified before any update so a conflict returns cleanly with the
// transaction still usable. A caller retrying inside the same
// transaction holds the row locks, so the retry cannot conflict again.
func (r *InventoryRepository) Commit(ctx context.Context, allocations map[string]int) error {
	if len(allocations) == 0 {
		return nil
	}

	ids := make([]string, 0, len(allocations))
	for id := range allocations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	const lockQuery = `
SELECT product_id, stock_available
FROM inventory
WHERE product_id = ANY($1)
ORDER BY product_id
FOR UPDATE`

	rows, err := r.query(ctx, lockQuery, ids)
	if err != nil {
		return fmt.Errorf("lock inventory rows: %w", err)
	}
	current := make(map[string]int, len(ids))
	for rows.Next() {
		var id string
		var stock int
		if err := rows.Scan(&id, &stock); err != nil {
			rows.Close()
			return fmt.Errorf("scan locked inventory row: %w", err)
		}
		current[id] = stock
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("lock inventory rows: %w", err)
	}

	for _, id := range ids {
		stock, ok := current[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		if stock < allocations[id] {
			return domain.ErrStockConflict
		}
	}

	const updateStmt = `UPDATE inventory SET stock_available = stock_available - $2 WHERE product_id = $1`
	const salesStmt = `INSERT INTO sales_history (product_id, units, recorded_at) VALUES ($1, $2, $3)`

	now := r.clock.Now()
	for _, id := range ids {
		if _, err := r.exec(ctx, updateStmt, id, allocations[id]); err != nil {
			if isCheckViolation(err) {
				return domain.ErrStockConflict
			}
			return fmt.Errorf("deduct stock for %s: %w", id, err)
		}
		if _, err := r.exec(ctx, salesStmt, id, allocations[id], now); err != nil {
			return fmt.Errorf("record sale for %s: %w", id, err)
		}
	}
	return nil
}

// UpsertProduct seeds or refreshes a catalog row.
func (r *InventoryRepository) UpsertProduct(ctx context.Context, p domain.Product) error {
	const stmt = `
INSERT INTO inventory (product_id, product_name, price, stock_available)
VALUES ($1, $2, $3, $4)
ON CONFLICT (product_id) DO UPDATE
SET product_name = EXCLUDED.product_name,
    price = EXCLUDED.price,
    stock_available = EXCLUDED.stock_available`

	if _, err := r.exec(ctx, stmt, p.ProductID, p.ProductName, p.Price, p.StockAvailable); err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ProductID, err)
	}
	return nil
}

func (r *InventoryRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const query = `SELECT product_id, product_name, price, stock_available FROM inventory ORDER BY product_id`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Price, &p.StockAvailable); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *InventoryRepository) SalesTotalsSince(ctx context.Context, since time.Time) (map[string]int, error) {
	const query = `
SELECT product_id, COALESCE(SUM(units), 0)
FROM sales_history
WHERE recorded_at >= $1
GROUP BY product_id`

	rows, err := r.query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("load sales totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var id string
		var units int
		if err := rows.Scan(&id, &units); err != nil {
			return nil, fmt.Errorf("scan sales total: %w", err)
		}
		totals[id] = units
	}
	return totals, rows.Err()
}

func (r *InventoryRepository) UpsertForecast(ctx context.Context, productID string, dailyDemand float64, computedAt time.Time) error {
	const stmt = `
INSERT INTO demand_forecasts (product_id, daily_demand, computed_at)
VALUES ($1, $2, $3)
ON CONFLICT (product_id) DO UPDATE
SET daily_demand = EXCLUDED.daily_demand,
    computed_at = EXCLUDED.computed_at`

	if _, err := r.exec(ctx, stmt, productID, dailyDemand, computedAt); err != nil {
		return fmt.Errorf("upsert forecast for %s: %w", productID, err)
	}
	return nil
}

func (r *InventoryRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *InventoryRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
