package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yash-patil1/Cdac-Project/internal/domain"
)

type InvoiceRepository struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

func (r *InvoiceRepository) CreateInvoice(ctx context.Context, inv domain.Invoice) error {
	const stmt = `
INSERT INTO invoices (id, po_id, invoice_number, kind, total, artifact_path, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt, inv.ID, inv.OrderID, inv.InvoiceNumber, string(inv.Kind),
		inv.Total, inv.ArtifactPath, inv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice for order %s already exists: %w", inv.OrderID, err)
		}
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) ListInvoicesForOrder(ctx context.Context, orderID string) ([]domain.Invoice, error) {
	const query = `
SELECT id, po_id, invoice_number, kind, total, artifact_path, created_at
FROM invoices
WHERE po_id = $1
ORDER BY created_at`

	rows, err := r.query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		var kind string
		if err := rows.Scan(&inv.ID, &inv.OrderID, &inv.InvoiceNumber, &kind,
			&inv.Total, &inv.ArtifactPath, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv.Kind = domain.InvoiceKind(kind)
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *InvoiceRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *InvoiceRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
