package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/config"
	"github.com/maurobense/ShingekiNoAPP/internal/infra"
	"github.com/maurobense/ShingekiNoAPP/internal/realtime"
	"github.com/maurobense/ShingekiNoAPP/internal/repository"
	"github.com/maurobense/ShingekiNoAPP/internal/router"
	"github.com/maurobense/ShingekiNoAPP/internal/service"
	"github.com/maurobense/ShingekiNoAPP/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Real time ────────────────────────────────────────────────────────────
	hub := realtime.NewHub(64)
	broker, closeBroker := newBroker(ctx, cfg, rdb, hub)
	defer closeBroker()
	realtimeCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("realtime"))
	notifier := realtime.NewNotifier(broker, realtimeCB)

	// ── Background jobs ──────────────────────────────────────────────────────
	// Worker handlers are wired here (composition root) so the pool has access
	// to every infrastructure dependency.
	dispatcher := worker.NewDispatcher(rdb)
	stockRepo := repository.NewStockRepository(db)
	cajaSvc := service.NewCajaService(repository.NewCajaRepository(db), repository.NewPedidoRepository(db), dispatcher, service.CajaOptions{
		ReportEmail:    cfg.CajaReportEmail,
		PDFStoragePath: cfg.PDFStoragePath,
		NombreLocal:    cfg.NombreLocal,
	})

	handlers := worker.Handlers{
		worker.QueueAlertaStock: worker.NewAlertaStockWorker(stockRepo, notifier).Process,
	}
	if mailer := infra.NewMailer(cfg); mailer.Configurado() {
		handlers[worker.QueueReporteCaja] = worker.NewReporteCajaWorker(cajaSvc, mailer, cfg.PDFStoragePath, cfg.NombreLocal).Process
	} else if cfg.CajaReportEmail != "" {
		log.Warn().Msg("CAJA_REPORT_EMAIL is set but SMTP_HOST is empty; close reports will stay queued")
	}
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, handlers)
	worker.StartStockSweep(ctx, worker.StockSweepConfig{
		Stock:    stockRepo,
		Notifier: notifier,
		CB:       realtimeCB,
		Interval: time.Duration(cfg.StockSweepMinutes) * time.Minute,
	})

	r := router.New(cfg, db, rdb, hub, notifier, realtimeCB, dispatcher)

	// WriteTimeout stays 0 so SSE streams are not cut; handlers bound their own work.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("broker", cfg.RealtimeBroker).Msgf("ShingekiNoAPP backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	// Cancelling ctx ends open SSE streams and stops workers before Shutdown waits.
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

// newBroker selects the real-time transport. A failing NATS connection falls
// back to in-process delivery so the API still starts.
func newBroker(ctx context.Context, cfg *config.Config, rdb *redis.Client, hub *realtime.Hub) (realtime.Broker, func()) {
	switch cfg.RealtimeBroker {
	case "redis":
		b := realtime.NewRedisBroker(rdb, hub)
		go b.Run(ctx)
		return b, func() {}
	case "nats":
		b, err := realtime.NewNATSBroker(cfg.NATSURL, hub)
		if err == nil {
			err = b.Start(ctx)
		}
		if err != nil {
			log.Error().Err(err).Msg("realtime: nats unavailable, using local hub")
			return hub, func() {}
		}
		return b, func() { _ = b.Close() }
	default:
		return hub, func() {}
	}
}
