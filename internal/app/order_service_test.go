package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yash-patil1/Cdac-Project/internal/domain"
	"github.com/yash-patil1/Cdac-Project/internal/mail"
)

func quietLogger() *log.Logger {
	return log.New(&strings.Builder{}, "", 0)
}

type fakeOrderRepo struct {
	orders map[string]domain.Order
	items  map[string][]domain.LineItem
}

func newFakeOrderRepo(order domain.Order, items ...domain.LineItem) *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: map[string]domain.Order{order.ID: order},
		items:  map[string][]domain.LineItem{order.ID: items},
	}
}

func (f *fakeOrderRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeOrderRepo) GetOrderForUpdate(_ context.Context, orderID string) (domain.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) ListItems(_ context.Context, orderID string) ([]domain.LineItem, error) {
	return f.items[orderID], nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, orderID string, from, to domain.OrderStatus) error {
	order, ok := f.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if order.Status != from {
		return domain.ErrStatusConflict
	}
	order.Status = to
	f.orders[orderID] = order
	return nil
}

type fakeLedger struct {
	stock        map[string]int
	commits      []map[string]int
	conflictOnce bool
}

func (f *fakeLedger) Snapshot(_ context.Context, productIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(productIDs))
	for _, id := range productIDs {
		out[id] = f.stock[id]
	}
	return out, nil
}

func (f *fakeLedger) Commit(_ context.Context, allocations map[string]int) error {
	if f.conflictOnce {
		f.conflictOnce = false
		return domain.ErrStockConflict
	}
	for id, qty := range allocations {
		if f.stock[id] < qty {
			return domain.ErrStockConflict
		}
	}
	for id, qty := range allocations {
		f.stock[id] -= qty
	}
	f.commits = append(f.commits, allocations)
	return nil
}

type fakeInvoices struct {
	generated []domain.InvoiceKind
	err       error
}

func (f *fakeInvoices) Generate(_ context.Context, order domain.Order, _ []domain.AllocationDecision, kind domain.InvoiceKind) (domain.Invoice, error) {
	if f.err != nil {
		return domain.Invoice{}, f.err
	}
	f.generated = append(f.generated, kind)
	return domain.Invoice{
		OrderID:       order.ID,
		InvoiceNumber: fmt.Sprintf("%s_%s", order.PONumber, kind),
		Kind:          kind,
		ArtifactPath:  "/tmp/" + order.PONumber + ".txt",
	}, nil
}

type fakeMailer struct {
	messages []mail.Message
	err      error
}

func (f *fakeMailer) Dispatch(_ context.Context, msg mail.Message) error {
	f.messages = append(f.messages, msg)
	return f.err
}

func testOrder(status domain.OrderStatus) domain.Order {
	return domain.Order{
		ID:          "order-1",
		PONumber:    "PO-1001",
		Buyer:       "ACME Corp",
		SenderEmail: "buyer@acme.example",
		BuyerEmail:  "stale@acme.example",
		Currency:    "INR",
		Status:      status,
	}
}

func lineItem(productID string, qty int) domain.LineItem {
	return domain.LineItem{
		OrderID:     "order-1",
		ProductID:   productID,
		ProductName: "Product " + productID,
		Quantity:    qty,
		UnitPrice:   decimal.NewFromInt(10),
	}
}

func newService(repo *fakeOrderRepo, ledger InventoryLedger) (*OrderService, *fakeInvoices, *fakeMailer) {
	invoices := &fakeInvoices{}
	mailer := &fakeMailer{}
	svc := NewOrderService(repo, ledger, invoices, mailer, quietLogger())
	return svc, invoices, mailer
}

func TestOrderService_Evaluate(t *testing.T) {
	t.Parallel()

	t.Run("full stock completes order and deducts once", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder(domain.StatusNew), lineItem("P1", 10))
		ledger := &fakeLedger{stock: map[string]int{"P1": 20}}
		svc, invoices, mailer := newService(repo, ledger)

		if err := svc.Evaluate(context.Background(), "order-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := repo.orders["order-1"].Status; got != domain.StatusCompleted {
			t.Fatalf("expected COMPLETED, got %s", got)
		}
		if ledger.stock["P1"] != 10 {
			t.Fatalf("expected stock 10, got %d", ledger.stock["P1"])
		}
		if len(ledger.commits) != 1 {
			t.Fatalf("expected 1 commit, got %d", len(ledger.commits))
		}
		if len(invoices.generated) != 1 || invoices.generated[0] != domain.InvoiceFull {
			t.Fatalf("expected one FULL invoice, got %v", invoices.generated)
		}
		if len(mailer.messages) != 1 {
			t.Fatalf("expected 1 message, got %d", len(mailer.messages))
		}
		msg := mailer.messages[0]
		if msg.Kind != domain.KindFulfilled {
			t.Fatalf("expected fulfilled message, got %s", msg.Kind)
		}
		if msg.Recipient != "buyer@acme.example" {
			t.Fatalf("expected ingestion sender address, got %s", msg.Recipient)
		}
		if msg.Attachment == "" {
			t.Fatalf("expected invoice attachment")
		}
	})

	t.Run("no stock fails order without touching inventory", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder(domain.StatusNew), lineItem("P1", 10))
		ledger := &fakeLedger{stock: map[string]int{"P1": 0}}
		svc, invoices, mailer := newService(repo, ledger)

		if err := svc.Evaluate(context.Background(), "order-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := repo.orders["order-1"].Status; got != domain.StatusFailedNoStock {
			t.Fatalf("expected FAILED_NO_STOCK, got %s", got)
		}
		if len(ledger.commits) != 0 {
			t.Fatalf("expected no commits, got %d", len(ledger.commits))
		}
		if ledger.stock["P1"] != 0 {
			t.Fatalf("expected stock unchanged at 0, got %d", ledger.stock["P1"])
		}
		if len(invoices.generated) != 0 {
			t.Fatalf("expected no invoice, got %v", invoices.generated)
		}
		if len(mailer.messages) != 1 || mailer.messages[0].Kind != domain.KindOutOfStock {
			t.Fatalf("expected one out-of-stock message, got %+v", mailer.messages)
		}
	})

	t.Run("partial stock proposes without committing", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder(domain.StatusNew), lineItem("P1", 5))
		ledger := &fakeLedger{stock: map[string]int{"P1": 2}}
		svc, invoices, mailer := newService(repo, ledger)

		if err := svc.Evaluate(context.Background(), "order-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := repo.orders["order-1"].Status; got != domain.StatusWaitingForReply {
			t.Fatalf("expected WAITING_FOR_REPLY, got %s", got)
		}
		if len(ledger.commits) != 0 {
			t.Fatalf("expected no commits yet, got %d", len(ledger.commits))
		}
		if ledger.stock["P1"] != 2 {
			t.Fatalf("expected stock unchanged at 2, got %d", ledger.stock["P1"])
		}
		if len(invoices.generated) != 0 {
			t.Fatalf("expected no invoice before approval")
		}
		if len(mailer.messages) != 1 || mailer.messages[0].Kind != domain.KindProposal {
			t.Fatalf("expected one proposal message, got %+v", mailer.messages)
		}
	})

	t.Run("mixed full and none lines proposes only allocatable items", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder(domain.StatusNew), lineItem("P1", 3), lineItem("P2", 4))
		ledger := &fakeLedger{stock: map[string]int{"P1": 3, "P2": 0}}
		svc, _, mailer := newService(repo, ledger)

		if err := svc.Evaluate(context.Background(), "order-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := repo.orders["order-1"].Status; got != domain.StatusWaitingForReply {
			t.Fatalf("expected WAITING_FOR_REPLY, got %s", got)
		}
		facts := mailer.messages[0].Facts
		if len(facts.Items) != 1 || facts.Items[0].Name != "Product P1" || facts.Items[0].Quantity != 3 {
			t.Fatalf("expected proposal to list only P1 x3, got %+v", facts.Items)
		}
	})

	t.Run("commit conflict retries once and completes when stock still covers", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder(domain.StatusNew), lineItem("P1", 10))
		ledger := &fakeLedger{stock: map[string]int{"P1": 20}, conflictOnce: true}
		svc, _, _ := newService(repo, ledger)

		if err := svc.Evaluate(context.Background(), "order-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := repo.orders["order-1"].Status; got != domain.StatusCompleted {
			t.Fatalf("expected COMPLETED after retry, got %s", got)
		}
		if len(ledger.commits) != 1 {
			t.Fatalf("expected exactly 1 applied commit, got %d", len(ledger.commits))
		}
	})

	t.Run("commit conflict with reduced stock falls through to proposal", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder(domain.StatusNew), lineItem("P1", 10))
		// Snapshot claims 20 but a concurrent order drained most of it.
		ledger := &conflictingLedger{snapshotStock: 20, realStock: 4}
		svc, _, mailer := newService(repo, ledger)

		if err := svc.Evaluate(context.Background(), "order-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := repo.orders["order-1"].Status; got != domain.StatusWaitingForReply {
			t.Fatalf("expected WAITING_FOR_REPLY, got %s", got)
		}
		if ledger.committed {
			t.Fatalf("expected no committed deduction")
		}
		if len(mailer.messages) != 1 || mailer.messages[0].Kind != domain.KindProposal {
			t.Fatalf("expected proposal message, got %+v", mailer.messages)
		}
	})

	t.Run("order without line items fails invalid, inventory untouched", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder(domain.StatusNew))
		ledger := &fakeLedger{stock: map[string]int{"P1": 5}}
		svc, _, mailer := newService(repo, ledger)

		if err := svc.Evaluate(context.Background(), "order-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := repo.orders["order-1"].Status; got != domain.StatusFailedInvalid {
			t.Fatalf("expected FAILED_INVALID, got %s", got)
		}
		if len(ledger.commits) != 0 || len(mailer.messages) != 0 {
			t.Fatalf("expected no side effects for invalid order")
		}
	})

	t.Run("non-NEW order is a no-op", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder(domain.StatusCompleted), lineItem("P1", 10))
		ledger := &fakeLedger{stock: map[string]int{"P1": 20}}
		svc, _, mailer := newService(repo, ledger)

		if err := svc.Evaluate(context.Background(), "order-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(ledger.commits) != 0 || len(mailer.messages) != 0 {
			t.Fatalf("expected no side effects")
		}
	})

	t.Run("dispatch failure does not roll back transition or deduction", func(t *testing.T) {
		repo := newFakeOrderRepo(testOrder(domain.StatusNew), lineItem("P1", 10))
		ledger := &fakeLedger{stock: map[string]int{"P1": 20}}
		invoices := &fakeInvoices{}
		mailer := &fakeMailer{err: errors.New("smtp down")}
		svc := NewOrderService(repo, ledger, invoices, mailer, quietLogger())

		if err := svc.Evaluate(context.Background(), "order-1"); err != nil {
			t.Fatalf("expected evaluate to contain dispatch failure, got %v", err)
		}
		if got := repo.orders["order-1"].Status; got != domain.StatusCompleted {
			t.Fatalf("expected COMPLETED despite dispatch failure, got %s", got)
		}
		if ledger.stock["P1"] != 10 {
			t.Fatalf("expected deduction to stand, stock=%d", ledger.stock["P1"])
		}
	})
}

func TestOrderService_Resume(t *testing.T) {
	t.Parallel()

	waiting := func(stock int) (*fakeOrderRepo, *fakeLedger) {
		repo := newFakeOrderRepo(testOrder(domain.StatusWaitingForReply), lineItem("P1", 5))
		ledger := &fakeLedger{stock: map[string]int{"P1": stock}}
		return repo, ledger
	}

	t.Run("approve commits current allocation and completes partially", func(t *testing.T) {
		repo, ledger := waiting(2)
		svc, invoices, mailer := newService(repo, ledger)

		if err := svc.Resume(context.Background(), "order-1", domain.IntentApprove); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := repo.orders["order-1"].Status; got != domain.StatusPartialCompleted {
			t.Fatalf("expected PARTIAL_COMPLETED, got %s", got)
		}
		if ledger.stock["P1"] != 0 {
			t.Fatalf("expected stock 0 after allocation of 2, got %d", ledger.stock["P1"])
		}
		if len(invoices.generated) != 1 || invoices.generated[0] != domain.InvoicePartial {
			t.Fatalf("expected one PARTIAL invoice, got %v", invoices.generated)
		}
		if len(mailer.messages) != 1 || mailer.messages[0].Kind != domain.KindPartialConfirmed {
			t.Fatalf("expected confirmation message, got %+v", mailer.messages)
		}
	})

	t.Run("approve after stock ran out fails without deduction", func(t *testing.T) {
		repo, ledger := waiting(0)
		svc, invoices, mailer := newService(repo, ledger)

		if err := svc.Resume(context.Background(), "order-1", domain.IntentApprove); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := repo.orders["order-1"].Status; got != domain.StatusFailedNoStock {
			t.Fatalf("expected FAILED_NO_STOCK, got %s", got)
		}
		if len(ledger.commits) != 0 || len(invoices.generated) != 0 || len(mailer.messages) != 0 {
			t.Fatalf("expected no deduction, invoice or dispatch")
		}
	})

	t.Run("reject cancels without inventory effect", func(t *testing.T) {
		repo, ledger := waiting(2)
		svc, _, mailer := newService(repo, ledger)

		if err := svc.Resume(context.Background(), "order-1", domain.IntentReject); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := repo.orders["order-1"].Status; got != domain.StatusCancelledByCustomer {
			t.Fatalf("expected CANCELLED_BY_CUSTOMER, got %s", got)
		}
		if ledger.stock["P1"] != 2 {
			t.Fatalf("expected stock unchanged, got %d", ledger.stock["P1"])
		}
		if len(mailer.messages) != 0 {
			t.Fatalf("expected no messages on reject")
		}
	})

	t.Run("unclear leaves order waiting", func(t *testing.T) {
		repo, ledger := waiting(2)
		svc, _, _ := newService(repo, ledger)

		if err := svc.Resume(context.Background(), "order-1", domain.IntentUnclear); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := repo.orders["order-1"].Status; got != domain.StatusWaitingForReply {
			t.Fatalf("expected WAITING_FOR_REPLY, got %s", got)
		}
	})

	t.Run("replayed approve after settlement is a no-op", func(t *testing.T) {
		repo, ledger := waiting(2)
		svc, invoices, mailer := newService(repo, ledger)

		if err := svc.Resume(context.Background(), "order-1", domain.IntentApprove); err != nil {
			t.Fatalf("first resume: %v", err)
		}
		if err := svc.Resume(context.Background(), "order-1", domain.IntentApprove); err != nil {
			t.Fatalf("second resume: %v", err)
		}
		if len(ledger.commits) != 1 {
			t.Fatalf("expected exactly one deduction, got %d", len(ledger.commits))
		}
		if len(invoices.generated) != 1 {
			t.Fatalf("expected exactly one invoice, got %d", len(invoices.generated))
		}
		if len(mailer.messages) != 1 {
			t.Fatalf("expected exactly one dispatch, got %d", len(mailer.messages))
		}
	})

	t.Run("resume on unknown order returns not found", func(t *testing.T) {
		repo, ledger := waiting(2)
		svc, _, _ := newService(repo, ledger)

		err := svc.Resume(context.Background(), "missing", domain.IntentApprove)
		if !errors.Is(err, domain.ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})
}

// conflictingLedger reports generous stock on the first snapshot, then
// conflicts on commit and reveals the real, lower stock, simulating a
// concurrent order draining the product between snapshot and commit.
type conflictingLedger struct {
	snapshotStock int
	realStock     int
	snapshots     int
	committed     bool
}

func (c *conflictingLedger) Snapshot(_ context.Context, productIDs []string) (map[string]int, error) {
	c.snapshots++
	stock := c.snapshotStock
	if c.snapshots > 1 {
		stock = c.realStock
	}
	out := make(map[string]int, len(productIDs))
	for _, id := range productIDs {
		out[id] = stock
	}
	return out, nil
}

func (c *conflictingLedger) Commit(_ context.Context, allocations map[string]int) error {
	for _, qty := range allocations {
		if qty > c.realStock {
			return domain.ErrStockConflict
		}
	}
	c.committed = true
	return nil
}
