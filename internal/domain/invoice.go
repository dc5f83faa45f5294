package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceKind string

const (
	InvoiceFull    InvoiceKind = "FULL"
	InvoicePartial InvoiceKind = "PARTIAL"
)

// Invoice references a generated artifact for a committed allocation.
// At most one invoice exists per order.
type Invoice struct {
	ID            string
	OrderID       string
	InvoiceNumber string
	Kind          InvoiceKind
	Total         decimal.Decimal
	ArtifactPath  string
	CreatedAt     time.Time
}
