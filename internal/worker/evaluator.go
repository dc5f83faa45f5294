package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/yash-patil1/Cdac-Project/internal/domain"
)

// EvaluationQueue is the durable hand-off between ingestion and the
// evaluation loop. ClaimNext returns domain.ErrOrderNotFound when the
// queue is empty.
type EvaluationQueue interface {
	ClaimNext(ctx context.Context) (string, error)
	Complete(ctx context.Context, orderID string) error
	Release(ctx context.Context, orderID string) error
}

// Evaluator runs initial order evaluation on
// each tick until the queue drains.
type Evaluator struct {
	queue    EvaluationQueue
	orders   OrderEvaluator
	interval time.Duration
	logger   *log.Logger
}

type OrderEvaluator interface {
	Evaluate(ctx context.Context, orderID string) error
}

func NewEvaluator(queue EvaluationQueue, orders OrderEvaluator, interval time.Duration, logger *log.Logger) *Evaluator {
	if logger == nil {
		logger = log.Default()
	}
	return &Evaluator{queue: queue, orders: orders, interval: interval, logger: logger}
}

// Run processes queued orders until ctx is cancelled.
func (w *Evaluator) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.drain(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drain claims and evaluates queued orders one at a time. A failed
// evaluation releases the claim so a later cycle retries; terminal
// domain failures complete the entry instead, because retrying them
// can never succeed.
func (w *Evaluator) drain(ctx context.Context) {
	for {
		orderID, err := w.queue.ClaimNext(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrOrderNotFound) {
				w.logger.Printf("WARN: claim queued order: %v", err)
			}
			return
		}

		if err := w.orders.Evaluate(ctx, orderID); err != nil {
			if isPermanent(err) {
				w.logger.Printf("WARN: order=%s evaluation failed permanently: %v", orderID, err)
				w.complete(ctx, orderID)
				continue
			}
			w.logger.Printf("WARN: order=%s evaluation failed, releasing for retry: %v", orderID, err)
			if relErr := w.queue.Release(ctx, orderID); relErr != nil {
				w.logger.Printf("WARN: release order=%s: %v", orderID, relErr)
			}
			continue
		}
		w.complete(ctx, orderID)
	}
}

func (w *Evaluator) complete(ctx context.Context, orderID string) {
	if err := w.queue.Complete(ctx, orderID); err != nil {
		w.logger.Printf("WARN: complete order=%s: %v", orderID, err)
	}
}

func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrOrderNotFound) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrStatusConflict)
}
