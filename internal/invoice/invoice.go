// Package invoice assigns invoice numbers, computes totals for the
// committed allocation and produces the invoice artifact used as a
// correspondence attachment. PDF rendering proper is an external
// collaborator; the built-in renderer writes a plain-text artifact
// behind the same interface.
package invoice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yash-patil1/Cdac-Project/internal/clock"
	"github.com/yash-patil1/Cdac-Project/internal/config"
	"github.com/yash-patil1/Cdac-Project/internal/domain"
)

type Repository interface {
	CreateInvoice(ctx context.Context, inv domain.Invoice) error
}

// Renderer produces the artifact file and returns its path.
type Renderer interface {
	Render(ctx context.Context, company config.Company, order domain.Order, decisions []domain.AllocationDecision, inv domain.Invoice) (string, error)
}

type Service struct {
	repo     Repository
	renderer Renderer
	company  config.Company
	clock    clock.Clock
}

func NewService(repo Repository, renderer Renderer, company config.Company, clk clock.Clock) *Service {
	return &Service{repo: repo, renderer: renderer, company: company, clock: clk}
}

// Generate creates the invoice record and artifact for the given
// allocation. Only items with a positive allocation are billed.
func (s *Service) Generate(ctx context.Context, order domain.Order, decisions []domain.AllocationDecision, kind domain.InvoiceKind) (domain.Invoice, error) {
	now := s.clock.Now()

	billable := make([]domain.AllocationDecision, 0, len(decisions))
	total := decimal.Zero
	for _, d := range decisions {
		if d.Allocated <= 0 {
			continue
		}
		billable = append(billable, d)
		total = total.Add(d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Allocated))))
	}
	if len(billable) == 0 {
		return domain.Invoice{}, domain.ErrNoLineItems
	}

	inv := domain.Invoice{
		ID:            uuid.NewString(),
		OrderID:       order.ID,
		InvoiceNumber: fmt.Sprintf("%s_%s_%s", order.PONumber, kind, now.Format("20060102150405")),
		Kind:          kind,
		Total:         total,
		CreatedAt:     now,
	}

	path, err := s.renderer.Render(ctx, s.company, order, billable, inv)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("render invoice: %w", err)
	}
	inv.ArtifactPath = path

	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		return domain.Invoice{}, fmt.Errorf("record invoice: %w", err)
	}
	return inv, nil
}
