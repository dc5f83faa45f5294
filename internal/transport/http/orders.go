package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yash-patil1/Cdac-Project/internal/domain"
)

// OrderReader is the read surface backing the operator endpoints.
type OrderReader interface {
	ListOrders(ctx context.Context, status domain.OrderStatus, limit int) ([]domain.Order, error)
	GetOrderByNumber(ctx context.Context, poNumber string) (domain.Order, error)
	ListItems(ctx context.Context, orderID string) ([]domain.LineItem, error)
}

type InvoiceReader interface {
	ListInvoicesForOrder(ctx context.Context, orderID string) ([]domain.Invoice, error)
}

type orderResponse struct {
	ID          string          `json:"id"`
	PONumber    string          `json:"po_number"`
	Buyer       string          `json:"buyer"`
	Contact     string          `json:"contact"`
	Currency    string          `json:"currency"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

type lineItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type invoiceResponse struct {
	InvoiceNumber string          `json:"invoice_number"`
	Kind          string          `json:"kind"`
	Total         decimal.Decimal `json:"total"`
	ArtifactPath  string          `json:"artifact_path"`
	CreatedAt     time.Time       `json:"created_at"`
}

type orderDetailResponse struct {
	orderResponse
	Items    []lineItemResponse `json:"items"`
	Invoices []invoiceResponse  `json:"invoices"`
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:          o.ID,
		PONumber:    o.PONumber,
		Buyer:       o.Buyer,
		Contact:     o.ContactAddress(),
		Currency:    o.Currency,
		TotalAmount: o.TotalAmount,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
	}
}

var knownStatuses = map[domain.OrderStatus]bool{
	domain.StatusNew:                 true,
	domain.StatusCompleted:           true,
	domain.StatusFailedNoStock:       true,
	domain.StatusWaitingForReply:     true,
	domain.StatusPartialCompleted:    true,
	domain.StatusCancelledByCustomer: true,
	domain.StatusFailedInvalid:       true,
}

// ListOrdersHandler serves GET /orders with optional ?status= and
// ?limit= filters.
func ListOrdersHandler(orders OrderReader, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		status := domain.OrderStatus(r.URL.Query().Get("status"))
		if status != "" && !knownStatuses[status] {
			writeError(w, http.StatusBadRequest, codeInvalidStatus, "unknown status filter")
			return
		}
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "limit must be a positive integer")
				return
			}
			limit = n
		}

		list, err := orders.ListOrders(r.Context(), status, limit)
		if err != nil {
			logger.Printf("WARN: list orders: %v", err)
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		out := make([]orderResponse, 0, len(list))
		for _, o := range list {
			out = append(out, toOrderResponse(o))
		}
		writeJSON(w, http.StatusOK, out)
	})
}

// GetOrderHandler serves GET /orders/{po_number} with line items and
// any generated invoices.
func GetOrderHandler(orders OrderReader, invoices InvoiceReader, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		poNumber := strings.TrimPrefix(r.URL.Path, "/orders/")
		if poNumber == "" || strings.Contains(poNumber, "/") {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		order, err := orders.GetOrderByNumber(r.Context(), poNumber)
		if err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) {
				writeError(w, http.StatusNotFound, codeOrderNotFound, "order not found")
				return
			}
			logger.Printf("WARN: get order %s: %v", poNumber, err)
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		items, err := orders.ListItems(r.Context(), order.ID)
		if err != nil {
			logger.Printf("WARN: list items for %s: %v", poNumber, err)
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}
		invs, err := invoices.ListInvoicesForOrder(r.Context(), order.ID)
		if err != nil {
			logger.Printf("WARN: list invoices for %s: %v", poNumber, err)
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		detail := orderDetailResponse{
			orderResponse: toOrderResponse(order),
			Items:         make([]lineItemResponse, 0, len(items)),
			Invoices:      make([]invoiceResponse, 0, len(invs)),
		}
		for _, item := range items {
			detail.Items = append(detail.Items, lineItemResponse{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
			})
		}
		for _, inv := range invs {
			detail.Invoices = append(detail.Invoices, invoiceResponse{
				InvoiceNumber: inv.InvoiceNumber,
				Kind:          string(inv.Kind),
				Total:         inv.Total,
				ArtifactPath:  inv.ArtifactPath,
				CreatedAt:     inv.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, detail)
	})
}
