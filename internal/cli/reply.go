package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yash-patil1/Cdac-Project/internal/clock"
	"github.com/yash-patil1/Cdac-Project/internal/config"
	"github.com/yash-patil1/Cdac-Project/internal/domain"
	"github.com/yash-patil1/Cdac-Project/internal/storage/postgres"
)

// newReplyCmd drops a buyer reply into the inbound queue, standing in
// for the mailbox poller. The running service picks it up on its next
// reply cycle.
func newReplyCmd() *cobra.Command {
	var (
		from    string
		subject string
		body    string
	)

	cmd := &cobra.Command{
		Use:   "reply",
		Short: "Inject a buyer reply into the inbound message queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg := config.Load(logger)

			if subject == "" && body == "" {
				return fmt.Errorf("--subject or --body is required")
			}

			pool, err := openPool(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			clk := clock.NewSystem()
			repo := postgres.NewMessageRepository(pool, clk)
			msg := domain.InboundMessage{
				ID:          uuid.NewString(),
				FromAddress: from,
				Subject:     subject,
				Body:        body,
				ReceivedAt:  clk.Now(),
				State:       domain.MessagePending,
			}
			if err := repo.InsertInbound(cmd.Context(), msg); err != nil {
				return err
			}
			logger.Printf("queued reply id=%s subject=%q", msg.ID, subject)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "buyer@example.com", "sender address")
	cmd.Flags().StringVar(&subject, "subject", "", "reply subject")
	cmd.Flags().StringVar(&body, "body", "", "reply body")
	return cmd
}
