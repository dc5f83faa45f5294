package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yash-patil1/Cdac-Project/internal/clock"
	"github.com/yash-patil1/Cdac-Project/internal/domain"
)

// QueueRepository is the durable evaluation queue. Orders are enqueued
// at ingestion and claimed by evaluation workers; a row survives process
// crashes so no order is ever silently dropped.
type QueueRepository struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

const staleQueueClaimAfter = 5 * time.Minute

func NewQueueRepository(pool *pgxpool.Pool, clk clock.Clock) *QueueRepository {
	return &QueueRepository{pool: pool, clock: clk}
}

func (r *QueueRepository) Enqueue(ctx context.Context, orderID string) error {
	const stmt = `
INSERT INTO evaluation_queue (po_id, enqueued_at)
VALUES ($1, $2)
ON CONFLICT (po_id) DO NOTHING`

	if _, err := r.exec(ctx, stmt, orderID, r.clock.Now()); err != nil {
		return fmt.Errorf("enqueue order: %w", err)
	}
	return nil
}

// ClaimNext hands out one queued order, skipping rows other workers
// hold. Returns domain.ErrOrderNotFound when the queue is empty.
func (r *QueueRepository) ClaimNext(ctx context.Context) (string, error) {
	const stmt = `
UPDATE evaluation_queue
SET claimed_at = $1
WHERE po_id = (
    SELECT po_id FROM evaluation_queue
    WHERE claimed_at IS NULL OR claimed_at < $2
    ORDER BY enqueued_at
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING po_id`

	now := r.clock.Now()
	var orderID string
	err := r.queryRow(ctx, stmt, now, now.Add(-staleQueueClaimAfter)).Scan(&orderID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", domain.ErrOrderNotFound
		}
		return "", fmt.Errorf("claim next queued order: %w", err)
	}
	return orderID, nil
}

// Complete removes a handled order from the queue.
func (r *QueueRepository) Complete(ctx context.Context, orderID string) error {
	if _, err := r.exec(ctx, `DELETE FROM evaluation_queue WHERE po_id = $1`, orderID); err != nil {
		return fmt.Errorf("complete queued order: %w", err)
	}
	return nil
}

// Release returns a claimed order to the queue after a transient
// failure so a later cycle retries it.
func (r *QueueRepository) Release(ctx context.Context, orderID string) error {
	if _, err := r.exec(ctx, `UPDATE evaluation_queue SET claimed_at = NULL WHERE po_id = $1`, orderID); err != nil {
		return fmt.Errorf("release queued order: %w", err)
	}
	return nil
}

func (r *QueueRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *QueueRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
