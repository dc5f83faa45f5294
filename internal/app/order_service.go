package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yash-patil1/Cdac-Project/internal/alloc"
	"github.com/yash-patil1/Cdac-Project/internal/domain"
	"github.com/yash-patil1/Cdac-Project/internal/mail"
	"github.com/yash-patil1/Cdac-Project/internal/nl"
)

// OrderRepository is the persistence surface the state machine needs.
// GetOrderForUpdate must lock the order row for the duration of the
// surrounding transaction so two workers never evaluate the same order
// concurrently.
type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	ListItems(ctx context.Context, orderID string) ([]domain.LineItem, error)
	// UpdateStatus transitions only when the current status equals
	// from; otherwise it returns domain.ErrStatusConflict.
	UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus) error
}

// InventoryLedger is the authoritative stock counter. Commit must be
// atomic: either every listed product is decremented or none is, and
// no product ever drops below zero.
type InventoryLedger interface {
	Snapshot(ctx context.Context, productIDs []string) (map[string]int, error)
	Commit(ctx context.Context, allocations map[string]int) error
}

// InvoiceGenerator produces the invoice artifact for a committed
// allocation.
type InvoiceGenerator interface {
	Generate(ctx context.Context, order domain.Order, decisions []domain.AllocationDecision, kind domain.InvoiceKind) (domain.Invoice, error)
}

// Dispatcher sends buyer correspondence. Failures after a committed
// deduction are recorded for manual resend, never rolled back.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg mail.Message) error
}

// OrderService owns the order lifecycle: it snapshots inventory,
// classifies the order, commits deductions at most once and drives
// correspondence. Status and inventory move together inside a single
// transaction; invoice generation and dispatch happen after commit.
type OrderService struct {
	repo     OrderRepository
	ledger   InventoryLedger
	invoices InvoiceGenerator
	mailer   Dispatcher
	logger   *log.Logger
}

func NewOrderService(repo OrderRepository, ledger InventoryLedger, invoices InvoiceGenerator, mailer Dispatcher, logger *log.Logger) *OrderService {
	if logger == nil {
		logger = log.Default()
	}
	return &OrderService{
		repo:     repo,
		ledger:   ledger,
		invoices: invoices,
		mailer:   mailer,
		logger:   logger,
	}
}

// followUp captures the side effects owed after the transaction
// commits: which message to send and whether to invoice first.
type followUp struct {
	order     domain.Order
	decisions []domain.AllocationDecision
	status    domain.OrderStatus
}

// Evaluate runs the initial decision for an order in status NEW. Any
// other status is a no-op; late or duplicate evaluations must never
// re-deduct stock or re-send mail.
func (s *OrderService) Evaluate(ctx context.Context, orderID string) error {
	var after *followUp

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.StatusNew {
			s.logger.Printf("evaluate skipped order=%s status=%s", orderID, order.Status)
			return nil
		}

		items, err := s.repo.ListItems(txCtx, orderID)
		if err != nil {
			return err
		}
		if err := validateItems(items); err != nil {
			s.logger.Printf("WARN: order=%s po=%s invalid, failing without touching inventory: %v", orderID, order.PONumber, err)
			return s.repo.UpdateStatus(txCtx, orderID, domain.StatusNew, domain.StatusFailedInvalid)
		}

		snapshot, err := s.ledger.Snapshot(txCtx, productIDs(items))
		if err != nil {
			return err
		}
		decisions := alloc.Decide(items, snapshot)

		if alloc.Classify(decisions) == domain.AllFull {
			committed, refreshed, err := s.commitFull(txCtx, items, decisions)
			if err != nil {
				return err
			}
			decisions = refreshed
			if committed {
				if err := s.repo.UpdateStatus(txCtx, orderID, domain.StatusNew, domain.StatusCompleted); err != nil {
					return err
				}
				after = &followUp{order: order, decisions: decisions, status: domain.StatusCompleted}
				return nil
			}
			// Stock moved between snapshot and commit and the refreshed
			// decision set is no longer fully coverable; fall through.
		}

		switch alloc.Classify(decisions) {
		case domain.AllNone:
			if err := s.repo.UpdateStatus(txCtx, orderID, domain.StatusNew, domain.StatusFailedNoStock); err != nil {
				return err
			}
			after = &followUp{order: order, decisions: decisions, status: domain.StatusFailedNoStock}
		default:
			available := alloc.Allocatable(decisions)
			if len(available) == 0 {
				if err := s.repo.UpdateStatus(txCtx, orderID, domain.StatusNew, domain.StatusFailedNoStock); err != nil {
					return err
				}
				after = &followUp{order: order, decisions: decisions, status: domain.StatusFailedNoStock}
				return nil
			}
			// Proposal only: no inventory committed, no invoice yet.
			if err := s.repo.UpdateStatus(txCtx, orderID, domain.StatusNew, domain.StatusWaitingForReply); err != nil {
				return err
			}
			after = &followUp{order: order, decisions: available, status: domain.StatusWaitingForReply}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.dispatchFollowUp(ctx, after)
	return nil
}

// Resume applies a classified buyer reply to an order waiting on the
// partial-fulfillment proposal. Replaying an event after the order has
// left WAITING_FOR_REPLY is a no-op: no second deduction, no second
// mail.
func (s *OrderService) Resume(ctx context.Context, orderID string, intent domain.ReplyIntent) error {
	if intent == domain.IntentUnclear {
		s.logger.Printf("resume order=%s intent unclear, leaving state unchanged for manual review", orderID)
		return nil
	}

	var after *followUp

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.StatusWaitingForReply {
			s.logger.Printf("resume skipped order=%s status=%s intent=%s", orderID, order.Status, intent)
			return nil
		}

		if intent == domain.IntentReject {
			return s.repo.UpdateStatus(txCtx, orderID, domain.StatusWaitingForReply, domain.StatusCancelledByCustomer)
		}

		items, err := s.repo.ListItems(txCtx, orderID)
		if err != nil {
			return err
		}

		// Stock may have changed since the proposal went out; the
		// approval applies to whatever is allocatable now.
		snapshot, err := s.ledger.Snapshot(txCtx, productIDs(items))
		if err != nil {
			return err
		}
		decisions := alloc.Decide(items, snapshot)
		available := alloc.Allocatable(decisions)
		if len(available) == 0 {
			s.logger.Printf("order=%s po=%s stock ran out while waiting for reply", orderID, order.PONumber)
			return s.repo.UpdateStatus(txCtx, orderID, domain.StatusWaitingForReply, domain.StatusFailedNoStock)
		}

		if err := s.ledger.Commit(txCtx, alloc.Allocations(decisions)); err != nil {
			if !errors.Is(err, domain.ErrStockConflict) {
				return err
			}
			snapshot, err = s.ledger.Snapshot(txCtx, productIDs(items))
			if err != nil {
				return err
			}
			decisions = alloc.Decide(items, snapshot)
			available = alloc.Allocatable(decisions)
			if len(available) == 0 {
				return s.repo.UpdateStatus(txCtx, orderID, domain.StatusWaitingForReply, domain.StatusFailedNoStock)
			}
			if err := s.ledger.Commit(txCtx, alloc.Allocations(decisions)); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateStatus(txCtx, orderID, domain.StatusWaitingForReply, domain.StatusPartialCompleted); err != nil {
			return err
		}
		after = &followUp{order: order, decisions: available, status: domain.StatusPartialCompleted}
		return nil
	})
	if err != nil {
		return err
	}
	s.dispatchFollowUp(ctx, after)
	return nil
}

// commitFull attempts the all-full commit, retrying once with a fresh
// snapshot if stock moved. Returns whether the commit happened and the
// decision set that is current afterwards.
func (s *OrderService) commitFull(ctx context.Context, items []domain.LineItem, decisions []domain.AllocationDecision) (bool, []domain.AllocationDecision, error) {
	err := s.ledger.Commit(ctx, alloc.Allocations(decisions))
	if err == nil {
		return true, decisions, nil
	}
	if !errors.Is(err, domain.ErrStockConflict) {
		return false, decisions, err
	}

	snapshot, err := s.ledger.Snapshot(ctx, productIDs(items))
	if err != nil {
		return false, decisions, err
	}
	decisions = alloc.Decide(items, snapshot)
	if alloc.Classify(decisions) != domain.AllFull {
		return false, decisions, nil
	}
	if err := s.ledger.Commit(ctx, alloc.Allocations(decisions)); err != nil {
		return false, decisions, err
	}
	return true, decisions, nil
}

// dispatchFollowUp performs the post-transaction side effects. Invoice
// or dispatch failures here are logged and surfaced through the outbox,
// never by reversing the already-committed transition.
func (s *OrderService) dispatchFollowUp(ctx context.Context, after *followUp) {
	if after == nil {
		return
	}
	order := after.order

	var (
		kind        domain.MessageKind
		subject     string
		invoiceKind domain.InvoiceKind
		wantInvoice bool
	)
	switch after.status {
	case domain.StatusCompleted:
		kind = domain.KindFulfilled
		subject = fmt.Sprintf("Invoice Submission - %s", order.PONumber)
		invoiceKind = domain.InvoiceFull
		wantInvoice = true
	case domain.StatusPartialCompleted:
		kind = domain.KindPartialConfirmed
		subject = fmt.Sprintf("Confirmed: Partial Shipment for %s", order.PONumber)
		invoiceKind = domain.InvoicePartial
		wantInvoice = true
	case domain.StatusFailedNoStock:
		kind = domain.KindOutOfStock
		subject = fmt.Sprintf("Update on %s", order.PONumber)
	case domain.StatusWaitingForReply:
		kind = domain.KindProposal
		subject = fmt.Sprintf("Update: Partial Stock for %s", order.PONumber)
	default:
		return
	}

	attachment := ""
	if wantInvoice {
		inv, err := s.invoices.Generate(ctx, order, after.decisions, invoiceKind)
		if err != nil {
			s.logger.Printf("WARN: invoice generation failed order=%s po=%s: %v", order.ID, order.PONumber, err)
		} else {
			attachment = inv.ArtifactPath
			s.logger.Printf("invoice generated order=%s number=%s path=%s", order.ID, inv.InvoiceNumber, inv.ArtifactPath)
		}
	}

	items := make([]nl.ItemFact, 0, len(after.decisions))
	for _, d := range after.decisions {
		if d.Allocated > 0 {
			items = append(items, nl.ItemFact{Name: d.ProductName, Quantity: d.Allocated})
		}
	}

	err := s.mailer.Dispatch(ctx, mail.Message{
		OrderID:   order.ID,
		Kind:      kind,
		Recipient: order.ContactAddress(),
		Subject:   subject,
		Facts: nl.Facts{
			Kind:     kind,
			Buyer:    order.Buyer,
			PONumber: order.PONumber,
			Items:    items,
		},
		Attachment: attachment,
	})
	if err != nil {
		// Documented reconciliation gap: the transition stands, the
		// failed dispatch waits in the outbox for manual resend.
		s.logger.Printf("WARN: dispatch failed after transition order=%s status=%s: %v", order.ID, after.status, err)
	}
}

func validateItems(items []domain.LineItem) error {
	if len(items) == 0 {
		return domain.ErrNoLineItems
	}
	for _, item := range items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: line item without product id", domain.ErrProductNotFound)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: product %s requests %d", domain.ErrInvalidQuantity, item.ProductID, item.Quantity)
		}
	}
	return nil
}

func productIDs(items []domain.LineItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}
