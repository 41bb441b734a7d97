package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/efreitasn/pairbook/internal/config"
	"github.com/efreitasn/pairbook/internal/domain"
	"github.com/efreitasn/pairbook/internal/handler"
	"github.com/efreitasn/pairbook/internal/ledger"
	"github.com/efreitasn/pairbook/internal/service"
	"github.com/efreitasn/pairbook/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load .env if present, then configuration from the environment.
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Persistence.
	snapshots, err := store.Open(cfg.SnapshotDir)
	if err != nil {
		logger.Error("failed to open snapshot store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer snapshots.Close()

	// Domain.
	registry := domain.NewMarketRegistry()
	for _, m := range cfg.Markets {
		if err := registry.Register(m); err != nil && !errors.Is(err, domain.ErrMarketAlreadyExists) {
			logger.Error("failed to register market", slog.String("market", m.Key), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Ledger and services.
	accounts := ledger.NewAccounts()
	webhookStore := store.NewWebhookStore()
	webhookSvc := service.NewWebhookService(webhookStore, cfg.WebhookTimeout)
	marketData := service.NewMarketData(registry)
	exchange := service.NewExchange(registry, accounts, snapshots, marketData, webhookSvc, logger)

	// Rebuild state from the last persisted snapshots.
	if err := exchange.Restore(); err != nil {
		logger.Error("failed to restore state", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Router.
	router := handler.NewRouter(exchange, webhookSvc, logger)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
