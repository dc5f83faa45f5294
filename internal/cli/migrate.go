package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yash-patil1/Cdac-Project/internal/config"
	"github.com/yash-patil1/Cdac-Project/migrations"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg := config.Load(logger)

			pool, err := openPool(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := migrations.Apply(cmd.Context(), pool); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			logger.Printf("migrations applied")
			return nil
		},
	}
}
