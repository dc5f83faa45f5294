package worker

import (
	"context"
	"log"
	"time"
)

// ReplyProcessor drains the pending inbound replies once.
type ReplyProcessor interface {
	ProcessPending(ctx context.Context) error
}

// ReplyConsumer polls for buyer replies and correlates them back to
// waiting orders.
type ReplyConsumer struct {
	replies  ReplyProcessor
	interval time.Duration
	logger   *log.Logger
}

func NewReplyConsumer(replies ReplyProcessor, interval time.Duration, logger *log.Logger) *ReplyConsumer {
	if logger == nil {
		logger = log.Default()
	}
	return &ReplyConsumer{replies: replies, interval: interval, logger: logger}
}

func (w *ReplyConsumer) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.replies.ProcessPending(ctx); err != nil {
			w.logger.Printf("WARN: process replies: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
