package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/barcodelens/backend/config"
	httpDelivery "github.com/barcodelens/backend/internal/delivery/http"
	"github.com/barcodelens/backend/internal/domain"
	"github.com/barcodelens/backend/internal/infrastructure/cache"
	"github.com/barcodelens/backend/internal/infrastructure/metrics"
	"github.com/barcodelens/backend/internal/infrastructure/openfoodfacts"
	"github.com/barcodelens/backend/internal/infrastructure/provider"
	"github.com/barcodelens/backend/internal/infrastructure/upcdatabase"
	"github.com/barcodelens/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Server.Environment)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(environment string) *slog.Logger {
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Starting BarcodeLens Backend",
		"version", "1.0.0",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"cache", cfg.Cache.Type,
	)

	// Initialize infrastructure dependencies
	productCache, err := cache.New(ctx, cfg.Cache, logger)
	if err != nil {
		return fmt.Errorf("init product cache: %w", err)
	}
	if productCache != nil {
		defer productCache.Close()
	} else {
		logger.Warn("Product cache disabled, every lookup goes to the providers")
	}

	publisher, err := metrics.NewPublisher(cfg.Metrics, logger)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer publisher.Close()

	providers := buildProviders(cfg, logger)
	if len(providers) == 0 {
		logger.Warn("No product providers configured, only cached barcodes can be resolved")
	}

	// Initialize usecase layer
	barcodeService := usecase.NewBarcodeService(productCache, providers, usecase.BarcodeServiceConfig{
		Metrics: publisher,
		Logger:  logger,
	})

	handler := httpDelivery.NewHandler(barcodeService, logger)
	router := httpDelivery.SetupRouter(cfg, handler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildProviders returns the enabled providers in lookup order
func buildProviders(cfg *config.Config, logger *slog.Logger) []domain.ProductProvider {
	opts := provider.Options{
		Timeout:         cfg.HTTP.Timeout,
		UserAgent:       cfg.HTTP.UserAgent,
		RequestsPerHour: cfg.RateLimit.Providers,
		Logger:          logger,
	}

	var providers []domain.ProductProvider
	if cfg.OpenFoodFacts.Enabled() {
		providers = append(providers, openfoodfacts.NewClient(cfg.OpenFoodFacts.BaseURL, opts))
		logger.Info("Provider enabled", "provider", domain.SourceOpenFoodFacts, "base_url", cfg.OpenFoodFacts.BaseURL)
	}
	if cfg.UPCDatabase.Enabled() {
		providers = append(providers, upcdatabase.NewClient(cfg.UPCDatabase.BaseURL, cfg.UPCDatabase.APIKey, opts))
		logger.Info("Provider enabled", "provider", domain.SourceUPCDatabase, "base_url", cfg.UPCDatabase.BaseURL)
	} else {
		logger.Info("Provider disabled, base URL or API key not configured", "provider", domain.SourceUPCDatabase)
	}
	return providers
}
