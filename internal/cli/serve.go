package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yash-patil1/Cdac-Project/internal/app"
	"github.com/yash-patil1/Cdac-Project/internal/clock"
	"github.com/yash-patil1/Cdac-Project/internal/config"
	"github.com/yash-patil1/Cdac-Project/internal/invoice"
	"github.com/yash-patil1/Cdac-Project/internal/mail"
	"github.com/yash-patil1/Cdac-Project/internal/nl"
	"github.com/yash-patil1/Cdac-Project/internal/storage/postgres"
	transport "github.com/yash-patil1/Cdac-Project/internal/transport/http"
	"github.com/yash-patil1/Cdac-Project/internal/worker"
	"github.com/yash-patil1/Cdac-Project/migrations"
)

// replyStore joins the message store with the order lookup the reply
// correlator needs.
type replyStore struct {
	*postgres.MessageRepository
	*postgres.OrderRepository
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the fulfillment agent: workers plus the operator API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	logger := newLogger()
	cfg := config.Load(logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := openPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	company, err := config.LoadCompany(cfg.CompanyProfile)
	if err != nil {
		return err
	}

	clk := clock.NewSystem()
	orderRepo := postgres.NewOrderRepository(pool)
	inventoryRepo := postgres.NewInventoryRepository(pool, clk)
	messageRepo := postgres.NewMessageRepository(pool, clk)
	queueRepo := postgres.NewQueueRepository(pool, clk)
	invoiceRepo := postgres.NewInvoiceRepository(pool)

	var (
		classifier nl.IntentClassifier = nl.NewKeywordClassifier()
		generator  nl.BodyGenerator
	)
	if cfg.LLMURL != "" {
		model := nl.NewModelClient(cfg.LLMURL, cfg.LLMModel, cfg.LLMTimeout)
		classifier = model
		generator = model
	}

	var sender mail.Sender = mail.NewLogSender(logger)
	if cfg.SMTPHost != "" {
		sender = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, 30*time.Second)
	} else {
		logger.Printf("WARN: SMTP_HOST not set, outgoing mail is logged only")
	}

	dispatcher := mail.NewDispatcher(generator, sender, messageRepo, company, logger)
	invoiceSvc := invoice.NewService(invoiceRepo, invoice.NewTextRenderer(cfg.InvoiceDir), company, clk)
	orderSvc := app.NewOrderService(orderRepo, inventoryRepo, invoiceSvc, dispatcher, logger)
	replySvc := app.NewReplyService(replyStore{messageRepo, orderRepo}, classifier, orderSvc, logger)
	forecastSvc := app.NewForecastService(inventoryRepo, clk, logger)

	mux := transport.NewMux(transport.Stores{
		Orders:   orderRepo,
		Invoices: invoiceRepo,
		Outbound: messageRepo,
		Inbound:  messageRepo,
	}, clk, logger)
	handler := transport.RequestLogger(transport.CORS(cfg.CORSOrigins, mux), logger)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Printf("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return ignoreCancel(worker.NewEvaluator(queueRepo, orderSvc, cfg.EvaluateInterval, logger).Run(gCtx))
	})
	g.Go(func() error {
		return ignoreCancel(worker.NewReplyConsumer(replySvc, cfg.ReplyInterval, logger).Run(gCtx))
	})
	g.Go(func() error {
		return ignoreCancel(worker.NewForecaster(forecastSvc, cfg.ForecastInterval, logger).Run(gCtx))
	})

	err = g.Wait()
	logger.Printf("shutdown complete")
	return err
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(poolCtx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(poolCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
