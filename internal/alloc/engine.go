// Package alloc holds the pure allocation decision logic: requested
// quantities plus a stock snapshot in, per-item decisions and an
// aggregate classification out. No side effects, no I/O.
package alloc

import "github.com/yash-patil1/Cdac-Project/internal/domain"

// Decide computes one allocation decision per line item against the
// given stock snapshot. Products missing from the snapshot count as
// zero stock. Deterministic: same inputs, same output.
func Decide(items []domain.LineItem, snapshot map[string]int) []domain.AllocationDecision {
	decisions := make([]domain.AllocationDecision, 0, len(items))
	for _, item := range items {
		available := snapshot[item.ProductID]

		d := domain.AllocationDecision{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Requested:   item.Quantity,
			Available:   available,
			UnitPrice:   item.UnitPrice,
		}
		switch {
		case available >= item.Quantity:
			d.Allocated = item.Quantity
			d.Class = domain.ItemFull
		case available > 0:
			d.Allocated = available
			d.Class = domain.ItemPartial
		default:
			d.Allocated = 0
			d.Class = domain.ItemNone
		}
		decisions = append(decisions, d)
	}
	return decisions
}

// Classify aggregates a decision set. An empty set classifies as
// AllNone; the caller treats empty orders as a data error before
// decisions are ever computed.
func Classify(decisions []domain.AllocationDecision) domain.Classification {
	if len(decisions) == 0 {
		return domain.AllNone
	}
	allFull := true
	allNone := true
	for _, d := range decisions {
		if d.Class != domain.ItemFull {
			allFull = false
		}
		if d.Class != domain.ItemNone {
			allNone = false
		}
	}
	switch {
	case allFull:
		return domain.AllFull
	case allNone:
		return domain.AllNone
	default:
		return domain.Mixed
	}
}

// Allocatable filters a decision set down to items with a positive
// allocation, preserving order.
func Allocatable(decisions []domain.AllocationDecision) []domain.AllocationDecision {
	out := make([]domain.AllocationDecision, 0, len(decisions))
	for _, d := range decisions {
		if d.Allocated > 0 {
			out = append(out, d)
		}
	}
	return out
}

// Allocations flattens a decision set into the product→quantity map the
// inventory ledger commits. Zero allocations are omitted.
func Allocations(decisions []domain.AllocationDecision) map[string]int {
	out := make(map[string]int, len(decisions))
	for _, d := range decisions {
		if d.Allocated > 0 {
			out[d.ProductID] = d.Allocated
		}
	}
	return out
}
