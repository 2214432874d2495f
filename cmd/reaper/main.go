package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/ErlanBelekov/storefront/config"
	"github.com/ErlanBelekov/storefront/internal/health"
	"github.com/ErlanBelekov/storefront/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/storefront/internal/log"
	"github.com/ErlanBelekov/storefront/internal/metrics"
	"github.com/ErlanBelekov/storefront/internal/reaper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	logger.Info("db connected")

	metrics.Register()
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer, health.Dependency{Name: "postgres", Pinger: pool})

	r := reaper.New(postgres.NewOrderRepository(pool), cfg.PendingOrderTTL, logger)

	c := cron.New(cron.WithLogger(reaper.CronLogger(logger)))
	if _, err := r.Schedule(ctx, c, cfg.ReaperSchedule); err != nil {
		stop()
		log.Fatalf("reaper: %v", err)
	}

	// Catch up on whatever went stale while the process was down.
	if _, err := r.Run(ctx); err != nil {
		logger.Error("initial reaper cycle", "error", err)
	}
	c.Start()
	logger.Info("reaper started", "schedule", cfg.ReaperSchedule, "pending_ttl", cfg.PendingOrderTTL)

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	// Wait for a running cycle before closing the pool.
	<-c.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("reaper shut down")
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
