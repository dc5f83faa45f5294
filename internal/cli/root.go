// Package cli assembles the agent's commands: the long-running service
// plus the operational helpers used in development and support work.
package cli

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func newLogger() *log.Logger {
	return log.New(os.Stdout, "", log.LstdFlags)
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agent",
		Short:         "Supplier purchase-order fulfillment agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
		newSimulatePOCmd(),
		newReplyCmd(),
	)
	return root
}
