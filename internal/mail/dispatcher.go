// Package mail composes and sends buyer correspondence. The body text
// comes from the NL generation capability; a static template takes over
// when that capability is unavailable. Every attempt, including
// failures, is recorded so a dispatch failure after a committed
// inventory deduction can be resent manually.
package mail

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yash-patil1/Cdac-Project/internal/config"
	"github.com/yash-patil1/Cdac-Project/internal/domain"
	"github.com/yash-patil1/Cdac-Project/internal/nl"
)

// Message is one unit of outgoing correspondence. Facts carry the
// structured inputs for body generation; nothing else from the
// extracted document reaches the message text.
type Message struct {
	OrderID    string
	Kind       domain.MessageKind
	Recipient  string
	Subject    string
	Facts      nl.Facts
	Attachment string
}

// Sender is the raw transport. Implementations must bound their own
// connection time.
type Sender interface {
	Send(ctx context.Context, to, subject, body, attachmentPath string) error
}

// Outbox persists dispatch attempts.
type Outbox interface {
	RecordOutbound(ctx context.Context, msg domain.OutboundMessage) error
}

type Dispatcher struct {
	gen     nl.BodyGenerator
	sender  Sender
	outbox  Outbox
	company config.Company
	logger  *log.Logger
}

// NewDispatcher wires the dispatcher. gen may be nil, in which case
// every body comes from the static fallback templates.
func NewDispatcher(gen nl.BodyGenerator, sender Sender, outbox Outbox, company config.Company, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		gen:     gen,
		sender:  sender,
		outbox:  outbox,
		company: company,
		logger:  logger,
	}
}

// Dispatch composes and sends one message. A send failure is recorded
// and returned as a transient error; callers must not roll back state
// transitions or inventory commits because of it.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	rec := domain.OutboundMessage{
		ID:         uuid.NewString(),
		OrderID:    msg.OrderID,
		Kind:       msg.Kind,
		Recipient:  msg.Recipient,
		Subject:    msg.Subject,
		Attachment: msg.Attachment,
	}

	if msg.Recipient == "" {
		rec.SendError = domain.ErrNoRecipient.Error()
		d.record(ctx, rec)
		return domain.ErrNoRecipient
	}

	body := d.composeBody(ctx, msg)
	rec.Body = body

	if err := d.sender.Send(ctx, msg.Recipient, msg.Subject, body, msg.Attachment); err != nil {
		rec.SendError = err.Error()
		d.record(ctx, rec)
		d.logger.Printf("WARN: dispatch failed order=%s kind=%s recipient=%s: %v", msg.OrderID, msg.Kind, msg.Recipient, err)
		return fmt.Errorf("%w: send %s: %v", domain.ErrExternalUnavailable, msg.Kind, err)
	}

	now := time.Now().UTC()
	rec.SentAt = &now
	d.record(ctx, rec)
	d.logger.Printf("dispatched order=%s kind=%s recipient=%s subject=%q", msg.OrderID, msg.Kind, msg.Recipient, msg.Subject)
	return nil
}

func (d *Dispatcher) composeBody(ctx context.Context, msg Message) string {
	facts := msg.Facts
	if facts.Supplier == "" {
		facts.Supplier = d.company.Name
	}

	body := ""
	if d.gen != nil {
		generated, err := d.gen.GenerateBody(ctx, facts)
		if err != nil {
			d.logger.Printf("WARN: body generation failed for order=%s kind=%s, using fallback: %v", msg.OrderID, msg.Kind, err)
		} else {
			body = generated
		}
	}
	if body == "" {
		body = nl.FallbackBody(facts)
	}
	if d.company.Signature != "" {
		body = body + "\n\n" + d.company.Signature
	}
	return body
}

func (d *Dispatcher) record(ctx context.Context, rec domain.OutboundMessage) {
	if d.outbox == nil {
		return
	}
	if err := d.outbox.RecordOutbound(ctx, rec); err != nil {
		d.logger.Printf("WARN: failed to record outbound message order=%s: %v", rec.OrderID, err)
	}
}
