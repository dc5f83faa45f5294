package domain

import "github.com/shopspring/decimal"

// ItemClass classifies how much of a single line item can be supplied.
type ItemClass string

const (
	ItemFull    ItemClass = "FULL"
	ItemPartial ItemClass = "PARTIAL"
	ItemNone    ItemClass = "NONE"
)

// Classification aggregates the per-item classes of one decision set.
type Classification string

const (
	AllFull Classification = "ALL_FULL"
	AllNone Classification = "ALL_NONE"
	Mixed   Classification = "MIXED"
)

// AllocationDecision is the per-item outcome of one allocation pass.
// It is derived from a stock snapshot and never persisted; every
// evaluation recomputes the set from scratch.
type AllocationDecision struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
	Allocated   int
	Class       ItemClass
	UnitPrice   decimal.Decimal
}
