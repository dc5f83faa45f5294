package invoice

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-patil1/Cdac-Project/internal/clock"
	"github.com/yash-patil1/Cdac-Project/internal/config"
	"github.com/yash-patil1/Cdac-Project/internal/domain"
)

type fakeInvoiceRepo struct {
	created []domain.Invoice
}

func (f *fakeInvoiceRepo) CreateInvoice(_ context.Context, inv domain.Invoice) error {
	f.created = append(f.created, inv)
	return nil
}

func TestServiceGenerate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC)
	order := domain.Order{
		ID:       "order-1",
		PONumber: "PO-1001",
		Buyer:    "ACME Corp",
		Currency: "INR",
	}
	decisions := []domain.AllocationDecision{
		{ProductID: "P1", ProductName: "Widget", Allocated: 3, UnitPrice: decimal.NewFromFloat(10.50)},
		{ProductID: "P2", ProductName: "Bolt", Allocated: 0, UnitPrice: decimal.NewFromInt(99)},
		{ProductID: "P3", ProductName: "Gear", Allocated: 2, UnitPrice: decimal.NewFromInt(4)},
	}

	t.Run("creates record and artifact, bills allocated only", func(t *testing.T) {
		repo := &fakeInvoiceRepo{}
		svc := NewService(repo, NewTextRenderer(t.TempDir()), config.DefaultCompany, clock.NewFixed(now))

		inv, err := svc.Generate(context.Background(), order, decisions, domain.InvoicePartial)
		require.NoError(t, err)

		// 3*10.50 + 2*4 = 39.50; P2 has no allocation and is not billed.
		assert.Equal(t, "39.5", inv.Total.String())
		assert.Equal(t, domain.InvoicePartial, inv.Kind)
		assert.Equal(t, "PO-1001_PARTIAL_20250304093000", inv.InvoiceNumber)

		require.Len(t, repo.created, 1)
		assert.Equal(t, inv.ID, repo.created[0].ID)

		data, err := os.ReadFile(inv.ArtifactPath)
		require.NoError(t, err)
		content := string(data)
		assert.Contains(t, content, "PO-1001")
		assert.Contains(t, content, "Widget")
		assert.Contains(t, content, "39.50")
		assert.NotContains(t, content, "Bolt")
	})

	t.Run("nothing allocated is an error", func(t *testing.T) {
		svc := NewService(&fakeInvoiceRepo{}, NewTextRenderer(t.TempDir()), config.DefaultCompany, clock.NewFixed(now))
		_, err := svc.Generate(context.Background(), order, []domain.AllocationDecision{{ProductID: "P1"}}, domain.InvoiceFull)
		assert.ErrorIs(t, err, domain.ErrNoLineItems)
	})
}
