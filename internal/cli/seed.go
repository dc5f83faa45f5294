package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/yash-patil1/Cdac-Project/internal/clock"
	"github.com/yash-patil1/Cdac-Project/internal/config"
	"github.com/yash-patil1/Cdac-Project/internal/domain"
	"github.com/yash-patil1/Cdac-Project/internal/storage/postgres"
	"github.com/yash-patil1/Cdac-Project/migrations"
)

type seedProduct struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock_available"`
}

var demoCatalog = []seedProduct{
	{ProductID: "P-1001", ProductName: "A4 Copier Paper (500 sheets)", Price: decimal.NewFromInt(6), Stock: 200},
	{ProductID: "P-1002", ProductName: "Ballpoint Pen (blue, box of 50)", Price: decimal.NewFromInt(12), Stock: 80},
	{ProductID: "P-1003", ProductName: "Stapler, heavy duty", Price: decimal.NewFromFloat(18.5), Stock: 25},
	{ProductID: "P-1004", ProductName: "Whiteboard Marker Set", Price: decimal.NewFromFloat(9.75), Stock: 0},
	{ProductID: "P-1005", ProductName: "Lever Arch File", Price: decimal.NewFromFloat(4.2), Stock: 150},
}

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the inventory catalog (demo data or a JSON file)",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg := config.Load(logger)

			catalog := demoCatalog
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read catalog: %w", err)
				}
				catalog = nil
				if err := json.Unmarshal(data, &catalog); err != nil {
					return fmt.Errorf("parse catalog: %w", err)
				}
			}

			pool, err := openPool(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := migrations.Apply(cmd.Context(), pool); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}

			repo := postgres.NewInventoryRepository(pool, clock.NewSystem())
			for _, p := range catalog {
				err := repo.UpsertProduct(cmd.Context(), domain.Product{
					ProductID:      p.ProductID,
					ProductName:    p.ProductName,
					Price:          p.Price,
					StockAvailable: p.Stock,
				})
				if err != nil {
					return err
				}
			}
			logger.Printf("seeded %d products", len(catalog))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON catalog file (defaults to built-in demo data)")
	return cmd
}
