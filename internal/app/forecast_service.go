package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/yash-patil1/Cdac-Project/internal/clock"
)

// ForecastRepository reads committed sales and stores demand figures.
type ForecastRepository interface {
	SalesTotalsSince(ctx context.Context, since time.Time) (map[string]int, error)
	UpsertForecast(ctx context.Context, productID string, dailyDemand float64, computedAt time.Time) error
}

// ForecastService rolls recent committed allocations into a per-product
// moving-average demand figure. The heavier seasonal models run in an
// external pipeline; this keeps the dashboard's demand column fresh
// between those runs.
type ForecastService struct {
	repo   ForecastRepository
	clock  clock.Clock
	window time.Duration
	logger *log.Logger
}

const defaultForecastWindow = 30 * 24 * time.Hour

func NewForecastService(repo ForecastRepository, clk clock.Clock, logger *log.Logger) *ForecastService {
	if logger == nil {
		logger = log.Default()
	}
	return &ForecastService{
		repo:   repo,
		clock:  clk,
		window: defaultForecastWindow,
		logger: logger,
	}
}

func (s *ForecastService) Run(ctx context.Context) error {
	now := s.clock.Now()
	since := now.Add(-s.window)

	totals, err := s.repo.SalesTotalsSince(ctx, since)
	if err != nil {
		return fmt.Errorf("load sales totals: %w", err)
	}

	days := s.window.Hours() / 24
	for productID, units := range totals {
		daily := float64(units) / days
		if err := s.repo.UpsertForecast(ctx, productID, daily, now); err != nil {
			return fmt.Errorf("store forecast for %s: %w", productID, err)
		}
	}
	s.logger.Printf("demand forecast updated products=%d window_days=%.0f", len(totals), days)
	return nil
}
