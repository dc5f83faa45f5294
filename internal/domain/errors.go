package domain

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrNoLineItems         = errors.New("order has no line items")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidID           = errors.New("invalid id")
	ErrStockConflict       = errors.New("stock moved since snapshot")
	ErrStatusConflict      = errors.New("order status changed concurrently")
	ErrExternalUnavailable = errors.New("external capability unavailable")
	ErrNoRecipient         = errors.New("no recipient address resolved")
	ErrMessageNotFound     = errors.New("message not found")
)
