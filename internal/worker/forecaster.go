package worker

import (
	"context"
	"log"
	"time"
)

// ForecastRunner recomputes the demand figures once.
type ForecastRunner interface {
	Run(ctx context.Context) error
}

// Forecaster refreshes demand forecasts on a slow cadence.
type Forecaster struct {
	forecasts ForecastRunner
	interval  time.Duration
	logger    *log.Logger
}

func NewForecaster(forecasts ForecastRunner, interval time.Duration, logger *log.Logger) *Forecaster {
	if logger == nil {
		logger = log.Default()
	}
	return &Forecaster{forecasts: forecasts, interval: interval, logger: logger}
}

func (w *Forecaster) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.forecasts.Run(ctx); err != nil {
			w.logger.Printf("WARN: refresh forecasts: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
