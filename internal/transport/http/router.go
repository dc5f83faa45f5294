package http

import (
	"log"
	"net/http"

	"github.com/yash-patil1/Cdac-Project/internal/clock"
)

// Stores bundles the read/write surfaces the operator API needs.
type Stores struct {
	Orders   OrderReader
	Invoices InvoiceReader
	Outbound OutboundReader
	Inbound  InboundWriter
}

// NewMux assembles the operator API routes.
func NewMux(stores Stores, clk clock.Clock, logger *log.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.Handle("/orders", ListOrdersHandler(stores.Orders, logger))
	mux.Handle("/orders/", GetOrderHandler(stores.Orders, stores.Invoices, logger))
	mux.Handle("/messages/outbound", ListOutboundHandler(stores.Outbound, logger))
	mux.Handle("/replies", SubmitReplyHandler(stores.Inbound, clk, logger))
	mux.Handle("/", NotFoundHandler())
	return mux
}
