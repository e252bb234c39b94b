package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/barcodelens/backend/internal/domain"
	"github.com/barcodelens/backend/internal/infrastructure/metrics"
)

// Metric names
const (
	metricResolve   = "barcode.resolve"
	metricLookup    = "barcode.source.lookup"
	metricWriteBack = "barcode.cache.writeback"
	metricCacheAdd  = "barcode.cache.add"
	metricClear     = "barcode.cache.clear"
)

// BarcodeServiceConfig holds optional collaborators for the barcode service
type BarcodeServiceConfig struct {
	Metrics domain.MetricsPublisher
	Logger  *slog.Logger
}

// BarcodeService resolves barcodes through the cache and then each provider in order.
// It holds no per-request state and is safe for concurrent use.
type BarcodeService struct {
	cache     domain.ProductCache
	providers []domain.ProductProvider
	sources   []domain.ProductProvider
	metrics   domain.MetricsPublisher
	logger    *slog.Logger
}

// NewBarcodeService creates a new barcode service.
// cache may be nil when caching is disabled; providers are tried in the given order.
func NewBarcodeService(
	cache domain.ProductCache,
	providers []domain.ProductProvider,
	config BarcodeServiceConfig,
) *BarcodeService {
	publisher := config.Metrics
	if publisher == nil {
		publisher = metrics.NoopPublisher{}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sources := make([]domain.ProductProvider, 0, len(providers)+1)
	if cache != nil {
		sources = append(sources, cacheSource{cache: cache})
	}
	sources = append(sources, providers...)

	return &BarcodeService{
		cache:     cache,
		providers: providers,
		sources:   sources,
		metrics:   publisher,
		logger:    logger.With("component", "barcode-service"),
	}
}

// Resolve looks up a barcode.
// Flow: cache -> provider 1 -> ... -> provider n -> unknown.
// NotFound moves to the next source, the first Found wins and an Error stops the chain.
// Products found by a provider are written back to the cache before returning.
func (s *BarcodeService) Resolve(ctx context.Context, rawBarcode string) *domain.Resolution {
	barcode, err := NormalizeBarcode(rawBarcode)
	if err != nil {
		return s.finish(domain.ResolutionError(strings.TrimSpace(rawBarcode), "", err))
	}

	for _, source := range s.sources {
		start := time.Now()
		outcome := source.Lookup(ctx, barcode)
		s.metrics.Timing(metricLookup, time.Since(start),
			metrics.Tag("source", source.Name()),
			metrics.Tag("outcome", outcome.Status.String()),
		)

		switch {
		case outcome.IsFound():
			product := *outcome.Product
			product.Barcode = barcode
			product.Source = source.Name()
			s.logger.Info("Barcode identified",
				"barcode", barcode, "source", source.Name(), "brand", product.Brand, "title", product.Title)

			if source.Name() != domain.SourceCache {
				s.writeBack(ctx, product)
			}
			return s.finish(domain.ResolvedFrom(&product))

		case outcome.IsError():
			err := outcome.Err
			if err == nil {
				err = fmt.Errorf("%s lookup failed", source.Name())
			}
			s.logger.Error("Barcode lookup failed", "barcode", barcode, "source", source.Name(), "error", err)
			return s.finish(domain.ResolutionError(barcode, source.Name(), err))

		default:
			s.logger.Info("Barcode not found", "barcode", barcode, "source", source.Name())
		}
	}

	return s.finish(domain.Unresolved(barcode))
}

// writeBack stores a provider result in the cache.
// A failed write is logged and does not change the resolution.
func (s *BarcodeService) writeBack(ctx context.Context, product domain.ProductRecord) {
	if s.cache == nil {
		s.logger.Debug("Cache not configured, skipping write-back", "barcode", product.Barcode)
		return
	}

	err := s.cache.Init(ctx)
	if err == nil {
		err = s.cache.Upsert(ctx, product)
	}
	if err != nil {
		s.metrics.Incr(metricWriteBack, metrics.Tag("ok", "false"))
		s.logger.Warn("Failed to add product to cache", "barcode", product.Barcode, "error", err)
		return
	}

	s.metrics.Incr(metricWriteBack, metrics.Tag("ok", "true"))
	s.logger.Info("Product added to cache", "barcode", product.Barcode, "source", product.Source)
}

func (s *BarcodeService) finish(res *domain.Resolution) *domain.Resolution {
	source := res.Source
	if source == "" {
		source = "none"
	}
	s.metrics.Incr(metricResolve, metrics.Tag("result", res.Result), metrics.Tag("source", source))
	return res
}

// AddToCache stores a manually entered product, bypassing providers
func (s *BarcodeService) AddToCache(ctx context.Context, request *domain.AddProductRequest) *domain.CacheResult {
	result := s.addToCache(ctx, request)
	s.metrics.Incr(metricCacheAdd, metrics.Tag("result", result.Result))
	return result
}

func (s *BarcodeService) addToCache(ctx context.Context, request *domain.AddProductRequest) *domain.CacheResult {
	if s.cache == nil {
		return failedResult(domain.ErrCacheDisabled)
	}
	if request == nil {
		return failedResult(domain.ErrInvalidRequest)
	}

	barcode, err := NormalizeBarcode(request.Barcode)
	if err != nil {
		return failedResult(err)
	}

	title := strings.TrimSpace(request.Title)
	if title == "" {
		return failedResult(fmt.Errorf("%w: title is required", domain.ErrInvalidRequest))
	}

	category := strings.TrimSpace(request.Category)
	if category == "" {
		category = domain.DefaultCategory
	}

	product := domain.ProductRecord{
		Barcode:  barcode,
		Brand:    strings.TrimSpace(request.Brand),
		Title:    title,
		Category: category,
		Quantity: strings.TrimSpace(request.Quantity),
		Source:   domain.SourceManual,
	}

	if err := s.cache.Init(ctx); err != nil {
		s.logger.Error("Failed to initialize cache", "error", err)
		return failedResult(err)
	}
	if err := s.cache.Upsert(ctx, product); err != nil {
		s.logger.Error("Failed to add product to cache", "barcode", barcode, "error", err)
		return failedResult(err)
	}

	s.logger.Info("Product manually added to cache", "barcode", barcode, "brand", product.Brand, "title", product.Title)
	return &domain.CacheResult{Result: domain.ResultSuccess}
}

// ClearCache deletes every cached product. It cannot be undone.
func (s *BarcodeService) ClearCache(ctx context.Context) *domain.CacheResult {
	result := s.clearCache(ctx)
	s.metrics.Incr(metricClear, metrics.Tag("result", result.Result))
	return result
}

func (s *BarcodeService) clearCache(ctx context.Context) *domain.CacheResult {
	if s.cache == nil {
		return &domain.CacheResult{Result: domain.ResultError, Error: domain.ErrCacheDisabled.Error(), Cause: domain.ErrCacheDisabled}
	}

	err := s.cache.Init(ctx)
	if err == nil {
		err = s.cache.Clear(ctx)
	}
	if err != nil {
		s.logger.Error("Failed to clear cache", "error", err)
		return &domain.CacheResult{Result: domain.ResultError, Error: err.Error(), Cause: err}
	}

	s.logger.Warn("Product cache cleared")
	return &domain.CacheResult{Result: domain.ResultSuccess}
}

// CacheName returns the configured cache backend, or "none"
func (s *BarcodeService) CacheName() string {
	if s.cache == nil {
		return "none"
	}
	return s.cache.Name()
}

// ProviderNames returns the enabled providers in lookup order
func (s *BarcodeService) ProviderNames() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

func failedResult(err error) *domain.CacheResult {
	return &domain.CacheResult{Result: domain.ResultFailed, Error: err.Error(), Cause: err}
}

// cacheSource adapts the product cache to the provider chain
type cacheSource struct {
	cache domain.ProductCache
}

func (c cacheSource) Name() string {
	return domain.SourceCache
}

// Lookup recreates the schema if needed before reading, so a dropped table
// reads as a miss instead of an error.
func (c cacheSource) Lookup(ctx context.Context, barcode string) domain.Outcome {
	if err := c.cache.Init(ctx); err != nil {
		return domain.Failed(err)
	}
	return c.cache.Get(ctx, barcode)
}
