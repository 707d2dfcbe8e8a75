package worker

// stock_sweep.go
// Background goroutine that periodically announces every balance at or below
// its threshold, so kitchens that connected after the triggering order still
// learn about it. Skips ticks while the real-time circuit breaker is open.

import (
	"context"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/infra"
	"github.com/maurobense/ShingekiNoAPP/internal/realtime"

	"github.com/rs/zerolog/log"
)

// StockSweepConfig holds all dependencies for the sweep goroutine.
type StockSweepConfig struct {
	Stock    StockBajoSource
	Notifier realtime.Notificador
	CB       *infra.CircuitBreaker
	Interval time.Duration
}

// StartStockSweep launches the sweep. It respects ctx for graceful shutdown.
func StartStockSweep(ctx context.Context, cfg StockSweepConfig) {
	if cfg.Interval <= 0 {
		log.Info().Msg("stock_sweep: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("stock_sweep: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stock_sweep: shutting down")
				return
			case <-ticker.C:
				sweepStockBajo(ctx, cfg)
			}
		}
	}()
}

// sweepStockBajo runs one tick and returns how many alerts it published.
func sweepStockBajo(ctx context.Context, cfg StockSweepConfig) int {
	// If CB is open, skip entirely, the broker is down
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("stock_sweep: circuit breaker is open, skipping tick")
		return 0
	}

	bajos, err := cfg.Stock.ListBajoMinimo(ctx, 0)
	if err != nil {
		log.Error().Err(err).Msg("stock_sweep: failed to query low balances")
		return 0
	}
	for _, b := range bajos {
		cfg.Notifier.StockBajo(ctx, stockBajoEvento(b))
	}
	if len(bajos) > 0 {
		log.Info().Int("count", len(bajos)).Msg("stock_sweep: low balances announced")
	}
	return len(bajos)
}
