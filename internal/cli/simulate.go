package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/yash-patil1/Cdac-Project/internal/clock"
	"github.com/yash-patil1/Cdac-Project/internal/config"
	"github.com/yash-patil1/Cdac-Project/internal/domain"
	"github.com/yash-patil1/Cdac-Project/internal/storage/postgres"
)

// newSimulatePOCmd injects a purchase order straight into the store and
// the evaluation queue, standing in for the document-extraction
// pipeline during development.
func newSimulatePOCmd() *cobra.Command {
	var (
		poNumber string
		buyer    string
		email    string
		items    []string
	)

	cmd := &cobra.Command{
		Use:   "simulate-po",
		Short: "Insert a purchase order and queue it for evaluation",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg := config.Load(logger)

			if poNumber == "" {
				poNumber = fmt.Sprintf("PO-%d", time.Now().Unix()%100000)
			}
			if len(items) == 0 {
				return fmt.Errorf("at least one --item product_id:quantity is required")
			}

			pool, err := openPool(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			ctx := cmd.Context()
			clk := clock.NewSystem()
			inventoryRepo := postgres.NewInventoryRepository(pool, clk)
			orderRepo := postgres.NewOrderRepository(pool)
			queueRepo := postgres.NewQueueRepository(pool, clk)

			products, err := inventoryRepo.ListProducts(ctx)
			if err != nil {
				return err
			}
			catalog := make(map[string]domain.Product, len(products))
			for _, p := range products {
				catalog[p.ProductID] = p
			}

			orderID := uuid.NewString()
			total := decimal.Zero
			lineItems := make([]domain.LineItem, 0, len(items))
			for _, raw := range items {
				productID, qtyRaw, ok := strings.Cut(raw, ":")
				if !ok {
					return fmt.Errorf("malformed --item %q, want product_id:quantity", raw)
				}
				qty, err := strconv.Atoi(qtyRaw)
				if err != nil {
					return fmt.Errorf("malformed quantity in --item %q", raw)
				}
				item := domain.LineItem{
					ID:        uuid.NewString(),
					OrderID:   orderID,
					ProductID: productID,
					Quantity:  qty,
				}
				if p, ok := catalog[productID]; ok {
					item.ProductName = p.ProductName
					item.UnitPrice = p.Price
					total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
				}
				lineItems = append(lineItems, item)
			}

			raw, err := json.Marshal(map[string]any{
				"po_number": poNumber,
				"buyer":     buyer,
				"email":     email,
				"items":     items,
				"simulated": true,
			})
			if err != nil {
				return err
			}

			order := domain.Order{
				ID:          orderID,
				PONumber:    poNumber,
				Buyer:       buyer,
				SenderEmail: email,
				Currency:    "USD",
				TotalAmount: total,
				Status:      domain.StatusNew,
				RawJSON:     raw,
				CreatedAt:   clk.Now(),
			}
			if err := orderRepo.CreateOrder(ctx, order, lineItems); err != nil {
				return err
			}
			if err := queueRepo.Enqueue(ctx, orderID); err != nil {
				return err
			}
			logger.Printf("queued order id=%s po=%s items=%d", orderID, poNumber, len(lineItems))
			return nil
		},
	}
	cmd.Flags().StringVar(&poNumber, "po", "", "purchase order number (generated if empty)")
	cmd.Flags().StringVar(&buyer, "buyer", "Acme Retail", "buyer company name")
	cmd.Flags().StringVar(&email, "email", "buyer@example.com", "buyer reply-to address")
	cmd.Flags().StringArrayVar(&items, "item", nil, "line item as product_id:quantity (repeatable)")
	return cmd
}
