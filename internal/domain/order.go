package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusNew                 OrderStatus = "NEW"
	StatusCompleted           OrderStatus = "COMPLETED"
	StatusFailedNoStock       OrderStatus = "FAILED_NO_STOCK"
	StatusWaitingForReply     OrderStatus = "WAITING_FOR_REPLY"
	StatusPartialCompleted    OrderStatus = "PARTIAL_COMPLETED"
	StatusCancelledByCustomer OrderStatus = "CANCELLED_BY_CUSTOMER"
	StatusFailedInvalid       OrderStatus = "FAILED_INVALID"
)

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailedNoStock, StatusPartialCompleted,
		StatusCancelledByCustomer, StatusFailedInvalid:
		return true
	}
	return false
}

// Order is a purchase order produced by the ingestion pipeline.
// Created once at ingestion; mutated only by the order service.
type Order struct {
	ID       string
	PONumber string
	Buyer    string
	// BuyerEmail is the address found inside the extracted document.
	BuyerEmail string
	// SenderEmail is the reply-to address captured at ingestion time.
	SenderEmail string
	Currency    string
	TotalAmount decimal.Decimal
	Status      OrderStatus
	// RawJSON holds the original extracted document for audit and replay.
	RawJSON   []byte
	CreatedAt time.Time
}

// ContactAddress resolves where correspondence for this order goes.
// The ingestion-captured sender wins over any address embedded in the
// extracted document, which may be stale or attacker-controlled text.
func (o Order) ContactAddress() string {
	if o.SenderEmail != "" {
		return o.SenderEmail
	}
	return o.BuyerEmail
}

// LineItem belongs to exactly one order and is immutable after creation.
type LineItem struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}
