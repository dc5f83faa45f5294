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

// MessageRepository stores inbound buyer replies and the outbound
// correspondence outbox.
type MessageRepository struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

// staleClaimAfter is how long a claimed inbound message may sit before
// another consumer reclaims it, covering crashed workers.
const staleClaimAfter = 5 * time.Minute

func NewMessageRepository(pool *pgxpool.Pool, clk clock.Clock) *MessageRepository {
	return &MessageRepository{pool: pool, clock: clk}
}

func (r *MessageRepository) InsertInbound(ctx context.Context, msg domain.InboundMessage) error {
	const stmt = `
INSERT INTO inbound_messages (id, from_address, subject, body, received_at, state)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt, msg.ID, msg.FromAddress, msg.Subject, msg.Body, msg.ReceivedAt, string(domain.MessagePending))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("message %s already recorded: %w", msg.ID, err)
		}
		return fmt.Errorf("insert inbound message: %w", err)
	}
	return nil
}

// ClaimPending hands out up to limit pending replies, marking them
// claimed so concurrent consumers never pick the same message. SKIP
// LOCKED keeps consumers from queuing behind each other; claims older
// than staleClaimAfter are treated as abandoned and handed out again.
func (r *MessageRepository) ClaimPending(ctx context.Context, limit int) ([]domain.InboundMessage, error) {
	const stmt = `
UPDATE inbound_messages
SET claimed_at = $2
WHERE id IN (
    SELECT id FROM inbound_messages
    WHERE state = 'pending' AND (claimed_at IS NULL OR claimed_at < $3)
    ORDER BY received_at
    LIMIT $1
    FOR UPDATE SKIP LOCKED
)
RETURNING id, from_address, subject, body, received_at, state`

	now := r.clock.Now()
	rows, err := r.query(ctx, stmt, limit, now, now.Add(-staleClaimAfter))
	if err != nil {
		return nil, fmt.Errorf("claim pending messages: %w", err)
	}
	defer rows.Close()

	var out []domain.InboundMessage
	for rows.Next() {
		var m domain.InboundMessage
		var state string
		if err := rows.Scan(&m.ID, &m.FromAddress, &m.Subject, &m.Body, &m.ReceivedAt, &state); err != nil {
			return nil, fmt.Errorf("scan claimed message: %w", err)
		}
		m.State = domain.MessageState(state)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MessageRepository) SetMessageState(ctx context.Context, messageID string, state domain.MessageState, note string) error {
	const stmt = `UPDATE inbound_messages SET state = $2, note = $3, claimed_at = NULL WHERE id = $1`

	tag, err := r.exec(ctx, stmt, messageID, string(state), note)
	if err != nil {
		return fmt.Errorf("set message state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

// RecordOutbound writes one outbox row per dispatch attempt. Rows with
// a send_error and no sent_at are the manual-resend surface.
func (r *MessageRepository) RecordOutbound(ctx context.Context, msg domain.OutboundMessage) error {
	const stmt = `
INSERT INTO outbound_messages (id, po_id, kind, recipient, subject, body, attachment, sent_at, send_error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt, msg.ID, msg.OrderID, string(msg.Kind), msg.Recipient,
		msg.Subject, msg.Body, msg.Attachment, msg.SentAt, msg.SendError)
	if err != nil {
		return fmt.Errorf("record outbound message: %w", err)
	}
	return nil
}

func (r *MessageRepository) ListOutbound(ctx context.Context, failedOnly bool, limit int) ([]domain.OutboundMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
SELECT id, po_id, kind, recipient, subject, body, attachment, sent_at, send_error
FROM outbound_messages`
	if failedOnly {
		query += ` WHERE sent_at IS NULL AND send_error <> ''`
	}
	query += fmt.Sprintf(` ORDER BY id LIMIT %d`, limit)

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list outbound messages: %w", err)
	}
	defer rows.Close()

	var out []domain.OutboundMessage
	for rows.Next() {
		var m domain.OutboundMessage
		var kind string
		if err := rows.Scan(&m.ID, &m.OrderID, &kind, &m.Recipient, &m.Subject,
			&m.Body, &m.Attachment, &m.SentAt, &m.SendError); err != nil {
			return nil, fmt.Errorf("scan outbound message: %w", err)
		}
		m.Kind = domain.MessageKind(kind)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MessageRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *MessageRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
