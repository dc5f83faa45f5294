package invoice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yash-patil1/Cdac-Project/internal/config"
	"github.com/yash-patil1/Cdac-Project/internal/domain"
)

// TextRenderer writes a plain-text invoice artifact into a directory.
type TextRenderer struct {
	dir string
}

func NewTextRenderer(dir string) *TextRenderer {
	if dir == "" {
		dir = "invoices"
	}
	return &TextRenderer{dir: dir}
}

func (r *TextRenderer) Render(_ context.Context, company config.Company, order domain.Order, decisions []domain.AllocationDecision, inv domain.Invoice) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create invoice dir: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\nPhone: %s  Email: %s\n\n", company.Name, company.Address, company.Phone, company.Email)
	fmt.Fprintf(&b, "INVOICE %s (%s)\n", inv.InvoiceNumber, inv.Kind)
	fmt.Fprintf(&b, "Purchase Order: %s\n", order.PONumber)
	fmt.Fprintf(&b, "Billed To: %s\n", order.Buyer)
	fmt.Fprintf(&b, "Date: %s\n\n", inv.CreatedAt.Format("2006-01-02"))

	fmt.Fprintf(&b, "%-12s %-30s %8s %12s %14s\n", "PRODUCT", "DESCRIPTION", "QTY", "UNIT PRICE", "LINE TOTAL")
	for _, d := range decisions {
		lineTotal := d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Allocated)))
		fmt.Fprintf(&b, "%-12s %-30s %8d %12s %14s\n",
			d.ProductID, truncate(d.ProductName, 30), d.Allocated,
			d.UnitPrice.StringFixed(2), lineTotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTOTAL (%s): %s\n", order.Currency, inv.Total.StringFixed(2))

	path := filepath.Join(r.dir, inv.InvoiceNumber+".txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write invoice artifact: %w", err)
	}
	return path, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
