package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"

	"github.com/yash-patil1/Cdac-Project/internal/domain"
	"github.com/yash-patil1/Cdac-Project/internal/nl"
)

// ReplyRepository hands out pending inbound messages and records their
// terminal state. ClaimPending must hand each message to exactly one
// worker.
type ReplyRepository interface {
	ClaimPending(ctx context.Context, limit int) ([]domain.InboundMessage, error)
	SetMessageState(ctx context.Context, messageID string, state domain.MessageState, note string) error
	FindOrderIDByNumber(ctx context.Context, poNumber string) (string, error)
}

// Resumer re-enters the order state machine with a classified intent.
type Resumer interface {
	Resume(ctx context.Context, orderID string, intent domain.ReplyIntent) error
}

// ReplyService correlates free-text buyer replies to pending orders:
// it extracts the order-number token, classifies the intent and feeds
// the result to the state machine. A message that cannot be resolved
// is parked for manual review, never retried automatically.
type ReplyService struct {
	repo       ReplyRepository
	classifier nl.IntentClassifier
	orders     Resumer
	logger     *log.Logger
}

func NewReplyService(repo ReplyRepository, classifier nl.IntentClassifier, orders Resumer, logger *log.Logger) *ReplyService {
	if logger == nil {
		logger = log.Default()
	}
	return &ReplyService{
		repo:       repo,
		classifier: classifier,
		orders:     orders,
		logger:     logger,
	}
}

const claimBatchSize = 10

// ProcessPending consumes a batch of pending inbound messages. One
// message failing never blocks the rest of the batch.
func (s *ReplyService) ProcessPending(ctx context.Context) error {
	messages, err := s.repo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("claim pending replies: %w", err)
	}

	for _, msg := range messages {
		if err := s.process(ctx, msg); err != nil {
			s.logger.Printf("WARN: reply %s not processed: %v", msg.ID, err)
		}
	}
	return nil
}

func (s *ReplyService) process(ctx context.Context, msg domain.InboundMessage) error {
	token := ExtractOrderToken(msg.Subject, msg.Body)
	if token == "" {
		s.logger.Printf("reply %s has no order token, parking for manual review (subject=%q)", msg.ID, msg.Subject)
		return s.repo.SetMessageState(ctx, msg.ID, domain.MessageUnmatched, "no order number found in subject or body")
	}

	orderID, err := s.repo.FindOrderIDByNumber(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			s.logger.Printf("reply %s references unknown order %q, parking for manual review", msg.ID, token)
			return s.repo.SetMessageState(ctx, msg.ID, domain.MessageUnmatched, fmt.Sprintf("order %s not found", token))
		}
		return err
	}

	intent := s.classify(ctx, msg.Body)
	s.logger.Printf("reply %s correlated order=%s token=%s intent=%s", msg.ID, orderID, token, intent)

	if intent == domain.IntentUnclear {
		return s.repo.SetMessageState(ctx, msg.ID, domain.MessageUnclear, "intent unclear, manual review needed")
	}

	if err := s.orders.Resume(ctx, orderID, intent); err != nil {
		return fmt.Errorf("resume order %s: %w", orderID, err)
	}
	return s.repo.SetMessageState(ctx, msg.ID, domain.MessageProcessed, string(intent))
}

// classify never lets a capability failure escape; any error, timeout
// or garbage output degrades to UNCLEAR.
func (s *ReplyService) classify(ctx context.Context, body string) domain.ReplyIntent {
	intent, err := s.classifier.ClassifyIntent(ctx, body)
	if err != nil {
		s.logger.Printf("WARN: intent classification failed, defaulting to UNCLEAR: %v", err)
		return domain.IntentUnclear
	}
	switch intent {
	case domain.IntentApprove, domain.IntentReject:
		return intent
	default:
		return domain.IntentUnclear
	}
}

// Order numbers look like PO-1042; a bare digit run of four or more is
// accepted as a fallback for buyers who strip the prefix.
var orderTokenRe = regexp.MustCompile(`(?i)(PO-\w+|[0-9]{4,})`)

// ExtractOrderToken pulls the order-number token from a reply. The
// subject line is authoritative; the body is the fallback.
func ExtractOrderToken(subject, body string) string {
	if m := orderTokenRe.FindString(subject); m != "" {
		return m
	}
	return orderTokenRe.FindString(body)
}
