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

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ErlanBelekov/storefront/config"
	"github.com/ErlanBelekov/storefront/internal/health"
	"github.com/ErlanBelekov/storefront/internal/infrastructure/cache"
	"github.com/ErlanBelekov/storefront/internal/infrastructure/payment"
	"github.com/ErlanBelekov/storefront/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/storefront/internal/log"
	"github.com/ErlanBelekov/storefront/internal/metrics"
	"github.com/ErlanBelekov/storefront/internal/notify"
	"github.com/ErlanBelekov/storefront/internal/token"
	httptransport "github.com/ErlanBelekov/storefront/internal/transport/http"
	"github.com/ErlanBelekov/storefront/internal/transport/http/handler"
	"github.com/ErlanBelekov/storefront/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	throttle, err := cache.NewThrottle(ctx, cfg.RedisURL, logger)
	if err != nil {
		stop()
		log.Fatalf("throttle: %v", err)
	}
	defer func() { _ = throttle.Close() }()

	gateway, err := payment.NewGateway(payment.RazorpayConfig{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
		Timeout:   cfg.GatewayTimeout,
	}, logger)
	if err != nil {
		stop()
		log.Fatalf("payment gateway: %v", err)
	}

	tokens := token.NewIssuer([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	notifier := notify.NewNotifier(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	// Accounts
	userRepo := postgres.NewUserRepository(pool)
	verification := usecase.NewVerificationUsecase(
		postgres.NewVerificationCodeRepository(pool),
		notifier,
		throttle,
		usecase.VerificationConfig{
			TTL:            cfg.OTPTTL,
			ResendCooldown: cfg.OTPResendCooldown,
			DebugEcho:      cfg.OTPDebugEcho,
		},
		logger,
	)
	accountHandler := handler.NewAccountHandler(usecase.NewAuthUsecase(userRepo, verification, tokens, logger), logger)

	// Catalog and cart
	cartUsecase := usecase.NewCartUsecase(postgres.NewCatalogRepository(pool), postgres.NewCartRepository(pool))
	cartHandler := handler.NewCartHandler(cartUsecase, logger)

	// Orders
	orderUsecase := usecase.NewOrderUsecase(postgres.NewOrderRepository(pool), gateway, usecase.OrderConfig{
		Currency:           cfg.Currency,
		GatewayTimeout:     cfg.GatewayTimeout,
		AcceptStubPayments: cfg.AcceptStubPayments,
	}, logger)
	orderHandler := handler.NewOrderHandler(orderUsecase, logger)

	metrics.Register()
	deps := []health.Dependency{{Name: "postgres", Pinger: pool}}
	if cfg.RedisURL != "" {
		deps = append(deps, health.Dependency{Name: "redis", Pinger: throttle})
	}
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer, deps...)

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, httptransport.Handlers{
			Accounts: accountHandler,
			Cart:     cartHandler,
			Orders:   orderHandler,
		}, tokens, userRepo),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "stub_gateway", gateway.Stub())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
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
