package usecase

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/barcodelens/backend/internal/domain"
	"github.com/barcodelens/backend/internal/infrastructure/cache"
)

// MockProductCache is a mock implementation of domain.ProductCache
type MockProductCache struct {
	data        map[string]domain.ProductRecord
	getError    error
	upsertError error
	clearError  error
	initError   error
	getCalls    int
	upsertCalls int
	initCalls   int
}

func NewMockProductCache() *MockProductCache {
	return &MockProductCache{
		data: make(map[string]domain.ProductRecord),
	}
}

func (m *MockProductCache) Name() string { return "mock" }

func (m *MockProductCache) Init(ctx context.Context) error {
	m.initCalls++
	return m.initError
}

func (m *MockProductCache) Get(ctx context.Context, barcode string) domain.Outcome {
	m.getCalls++
	if m.getError != nil {
		return domain.Failed(m.getError)
	}
	if product, ok := m.data[barcode]; ok {
		return domain.Found(product)
	}
	return domain.NotFound()
}

func (m *MockProductCache) Upsert(ctx context.Context, product domain.ProductRecord) error {
	m.upsertCalls++
	if m.upsertError != nil {
		return m.upsertError
	}
	m.data[product.Barcode] = product
	return nil
}

func (m *MockProductCache) Clear(ctx context.Context) error {
	if m.clearError != nil {
		return m.clearError
	}
	m.data = make(map[string]domain.ProductRecord)
	return nil
}

func (m *MockProductCache) Close() error { return nil }

// MockProvider is a mock implementation of domain.ProductProvider
type MockProvider struct {
	name    string
	outcome domain.Outcome
	calls   map[string]int
}

func NewMockProvider(name string, outcome domain.Outcome) *MockProvider {
	return &MockProvider{name: name, outcome: outcome, calls: make(map[string]int)}
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) Lookup(ctx context.Context, barcode string) domain.Outcome {
	m.calls[barcode]++
	if m.outcome.IsFound() {
		product := *m.outcome.Product
		product.Barcode = barcode
		return domain.Found(product)
	}
	return m.outcome
}

func (m *MockProvider) totalCalls() int {
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// RecordingPublisher captures metric names for assertions
type RecordingPublisher struct {
	mu     sync.Mutex
	counts map[string][]string
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{counts: make(map[string][]string)}
}

func (p *RecordingPublisher) Incr(name string, tags ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[name] = append(p.counts[name], strings.Join(tags, ","))
}

func (p *RecordingPublisher) Timing(name string, value time.Duration, tags ...string) {}

func (p *RecordingPublisher) Close() error { return nil }

func squash() domain.ProductRecord {
	return domain.ProductRecord{
		Brand:    "Robinsons",
		Title:    "Summer Fruits Squash",
		Category: "food",
		Quantity: "1l",
	}
}

func TestNewBarcodeService(t *testing.T) {
	t.Run("cache comes first in the chain", func(t *testing.T) {
		svc := NewBarcodeService(NewMockProductCache(), []domain.ProductProvider{
			NewMockProvider(domain.SourceOpenFoodFacts, domain.NotFound()),
		}, BarcodeServiceConfig{})

		if len(svc.sources) != 2 {
			t.Fatalf("sources = %d, want 2", len(svc.sources))
		}
		if svc.sources[0].Name() != domain.SourceCache {
			t.Errorf("first source = %s, want Cache", svc.sources[0].Name())
		}
		if svc.CacheName() != "mock" {
			t.Errorf("CacheName() = %s, want mock", svc.CacheName())
		}
	})

	t.Run("nil cache is skipped", func(t *testing.T) {
		svc := NewBarcodeService(nil, []domain.ProductProvider{
			NewMockProvider(domain.SourceOpenFoodFacts, domain.NotFound()),
			NewMockProvider(domain.SourceUPCDatabase, domain.NotFound()),
		}, BarcodeServiceConfig{})

		if len(svc.sources) != 2 {
			t.Fatalf("sources = %d, want 2", len(svc.sources))
		}
		if svc.CacheName() != "none" {
			t.Errorf("CacheName() = %s, want none", svc.CacheName())
		}
		names := svc.ProviderNames()
		if len(names) != 2 || names[0] != domain.SourceOpenFoodFacts || names[1] != domain.SourceUPCDatabase {
			t.Errorf("ProviderNames() = %v", names)
		}
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns cached record without calling providers", func(t *testing.T) {
		mockCache := NewMockProductCache()
		cached := squash()
		cached.Barcode = "5000147030156"
		mockCache.data[cached.Barcode] = cached
		off := NewMockProvider(domain.SourceOpenFoodFacts, domain.Found(squash()))
		upc := NewMockProvider(domain.SourceUPCDatabase, domain.Found(squash()))

		svc := NewBarcodeService(mockCache, []domain.ProductProvider{off, upc}, BarcodeServiceConfig{})
		res := svc.Resolve(ctx, "5000147030156")

		if res.Result != domain.ResultSuccess {
			t.Fatalf("result = %s, want success", res.Result)
		}
		if res.Source != domain.SourceCache {
			t.Errorf("source = %s, want Cache", res.Source)
		}
		if res.Title != "Summer Fruits Squash" || res.Brand != "Robinsons" {
			t.Errorf("unexpected resolution %+v", res)
		}
		if off.totalCalls() != 0 || upc.totalCalls() != 0 {
			t.Errorf("providers called %d/%d times, want 0", off.totalCalls(), upc.totalCalls())
		}
		if mockCache.upsertCalls != 0 {
			t.Errorf("cache hit must not be written back, upserts = %d", mockCache.upsertCalls)
		}
	})

	t.Run("provider success is written back to cache", func(t *testing.T) {
		mockCache := NewMockProductCache()
		off := NewMockProvider(domain.SourceOpenFoodFacts, domain.Found(squash()))

		svc := NewBarcodeService(mockCache, []domain.ProductProvider{off}, BarcodeServiceConfig{})
		res := svc.Resolve(ctx, "5000147030156")

		if res.Result != domain.ResultSuccess || res.Source != domain.SourceOpenFoodFacts {
			t.Fatalf("resolution = %+v, want success from OpenFoodFacts", res)
		}
		stored, ok := mockCache.data["5000147030156"]
		if !ok {
			t.Fatal("expected product to be written back to cache")
		}
		if stored.Title != "Summer Fruits Squash" {
			t.Errorf("stored title = %s", stored.Title)
		}
	})

	t.Run("falls through to second provider on not found", func(t *testing.T) {
		mockCache := NewMockProductCache()
		off := NewMockProvider(domain.SourceOpenFoodFacts, domain.NotFound())
		covonia := domain.ProductRecord{Brand: "Covonia", Title: "Original", Category: "medicine", Quantity: "150ml"}
		upc := NewMockProvider(domain.SourceUPCDatabase, domain.Found(covonia))

		svc := NewBarcodeService(mockCache, []domain.ProductProvider{off, upc}, BarcodeServiceConfig{})
		res := svc.Resolve(ctx, "5011309015416")

		if res.Result != domain.ResultSuccess {
			t.Fatalf("result = %s, want success", res.Result)
		}
		if res.Source != domain.SourceUPCDatabase {
			t.Errorf("source = %s, want UPCDatabase", res.Source)
		}
		if off.calls["5011309015416"] != 1 {
			t.Errorf("OpenFoodFacts called %d times, want 1", off.calls["5011309015416"])
		}
		if _, ok := mockCache.data["5011309015416"]; !ok {
			t.Error("expected UPCDatabase result to be written back")
		}
	})

	t.Run("provider error stops the chain", func(t *testing.T) {
		mockCache := NewMockProductCache()
		providerErr := &domain.ProviderError{Provider: domain.SourceOpenFoodFacts, StatusCode: 503, Body: "down"}
		off := NewMockProvider(domain.SourceOpenFoodFacts, domain.Failed(providerErr))
		upc := NewMockProvider(domain.SourceUPCDatabase, domain.Found(squash()))

		svc := NewBarcodeService(mockCache, []domain.ProductProvider{off, upc}, BarcodeServiceConfig{})
		res := svc.Resolve(ctx, "5000147030156")

		if res.Result != domain.ResultError {
			t.Fatalf("result = %s, want error", res.Result)
		}
		if res.Source != domain.SourceOpenFoodFacts {
			t.Errorf("source = %s, want OpenFoodFacts", res.Source)
		}
		if !errors.Is(res.Cause, domain.ErrProviderFailure) {
			t.Errorf("cause = %v, want ErrProviderFailure", res.Cause)
		}
		if !strings.Contains(res.Error, "status 503") {
			t.Errorf("error = %q, want status context", res.Error)
		}
		if upc.totalCalls() != 0 {
			t.Errorf("UPCDatabase called %d times after an error, want 0", upc.totalCalls())
		}
		if mockCache.upsertCalls != 0 {
			t.Errorf("errors must not be cached, upserts = %d", mockCache.upsertCalls)
		}
	})

	t.Run("cache error stops the chain", func(t *testing.T) {
		mockCache := NewMockProductCache()
		mockCache.getError = domain.NewStorageError("mock", "get", errors.New("disk I/O error"))
		off := NewMockProvider(domain.SourceOpenFoodFacts, domain.Found(squash()))

		svc := NewBarcodeService(mockCache, []domain.ProductProvider{off}, BarcodeServiceConfig{})
		res := svc.Resolve(ctx, "5000147030156")

		if res.Result != domain.ResultError || res.Source != domain.SourceCache {
			t.Fatalf("resolution = %+v, want error from Cache", res)
		}
		if !errors.Is(res.Cause, domain.ErrStorage) {
			t.Errorf("cause = %v, want ErrStorage", res.Cause)
		}
		if off.totalCalls() != 0 {
			t.Error("providers must not be called after a cache error")
		}
	})

	t.Run("cache init failure stops the chain", func(t *testing.T) {
		mockCache := NewMockProductCache()
		mockCache.initError = domain.NewStorageError("mock", "init", errors.New("unable to open database file"))
		off := NewMockProvider(domain.SourceOpenFoodFacts, domain.Found(squash()))

		svc := NewBarcodeService(mockCache, []domain.ProductProvider{off}, BarcodeServiceConfig{})
		res := svc.Resolve(ctx, "5000147030156")

		if res.Result != domain.ResultError || res.Source != domain.SourceCache {
			t.Fatalf("resolution = %+v, want error from Cache", res)
		}
		if mockCache.getCalls != 0 || off.totalCalls() != 0 {
			t.Error("nothing should be read after a failed init")
		}
	})

	t.Run("unknown when every source misses", func(t *testing.T) {
		mockCache := NewMockProductCache()
		off := NewMockProvider(domain.SourceOpenFoodFacts, domain.NotFound())
		upc := NewMockProvider(domain.SourceUPCDatabase, domain.NotFound())

		svc := NewBarcodeService(mockCache, []domain.ProductProvider{off, upc}, BarcodeServiceConfig{})
		res := svc.Resolve(ctx, "8710364042845")

		want := domain.Resolution{Result: domain.ResultUnknown, Barcode: "8710364042845", Cause: domain.ErrProductNotFound}
		if *res != want {
			t.Errorf("resolution = %+v, want %+v", *res, want)
		}
		if off.totalCalls() != 1 || upc.totalCalls() != 1 {
			t.Errorf("provider calls = %d/%d, want 1/1", off.totalCalls(), upc.totalCalls())
		}
	})

	t.Run("unknown with no sources configured", func(t *testing.T) {
		svc := NewBarcodeService(nil, nil, BarcodeServiceConfig{})
		res := svc.Resolve(ctx, "8710364042845")

		if res.Result != domain.ResultUnknown {
			t.Errorf("result = %s, want unknown", res.Result)
		}
		if !errors.Is(res.Cause, domain.ErrProductNotFound) {
			t.Errorf("cause = %v, want ErrProductNotFound", res.Cause)
		}
		if res.Error != "" {
			t.Errorf("error = %q, want empty for unknown", res.Error)
		}
	})

	t.Run("failed write-back still returns the product", func(t *testing.T) {
		mockCache := NewMockProductCache()
		mockCache.upsertError = errors.New("read-only database")
		off := NewMockProvider(domain.SourceOpenFoodFacts, domain.Found(squash()))
		pub := NewRecordingPublisher()

		svc := NewBarcodeService(mockCache, []domain.ProductProvider{off}, BarcodeServiceConfig{Metrics: pub})
		res := svc.Resolve(ctx, "5000147030156")

		if res.Result != domain.ResultSuccess {
			t.Fatalf("result = %s, want success", res.Result)
		}
		if got := pub.counts[metricWriteBack]; len(got) != 1 || got[0] != "ok:false" {
			t.Errorf("writeback metric = %v, want [ok:false]", got)
		}
	})

	t.Run("provider success without cache skips write-back", func(t *testing.T) {
		off := NewMockProvider(domain.SourceOpenFoodFacts, domain.Found(squash()))

		svc := NewBarcodeService(nil, []domain.ProductProvider{off}, BarcodeServiceConfig{})
		res := svc.Resolve(ctx, "5000147030156")

		if res.Result != domain.ResultSuccess || res.Source != domain.SourceOpenFoodFacts {
			t.Errorf("resolution = %+v", res)
		}
	})

	t.Run("invalid barcode is an error without lookups", func(t *testing.T) {
		mockCache := NewMockProductCache()
		off := NewMockProvider(domain.SourceOpenFoodFacts, domain.Found(squash()))

		svc := NewBarcodeService(mockCache, []domain.ProductProvider{off}, BarcodeServiceConfig{})
		res := svc.Resolve(ctx, "  ")

		if res.Result != domain.ResultError {
			t.Fatalf("result = %s, want error", res.Result)
		}
		if !errors.Is(res.Cause, domain.ErrInvalidBarcode) {
			t.Errorf("cause = %v, want ErrInvalidBarcode", res.Cause)
		}
		if mockCache.getCalls != 0 || off.totalCalls() != 0 {
			t.Error("no source should be consulted for an invalid barcode")
		}
	})

	t.Run("publishes resolve metric", func(t *testing.T) {
		pub := NewRecordingPublisher()
		svc := NewBarcodeService(nil, nil, BarcodeServiceConfig{Metrics: pub})

		svc.Resolve(ctx, "8710364042845")

		if got := pub.counts[metricResolve]; len(got) != 1 || got[0] != "result:unknown,source:none" {
			t.Errorf("resolve metric = %v", got)
		}
	})
}

func TestResolve_WithMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	off := NewMockProvider(domain.SourceOpenFoodFacts, domain.NotFound())
	upc := NewMockProvider(domain.SourceUPCDatabase, domain.Found(squash()))

	svc := NewBarcodeService(store, []domain.ProductProvider{off, upc}, BarcodeServiceConfig{})

	first := svc.Resolve(ctx, "5000147030156")
	if first.Result != domain.ResultSuccess || first.Source != domain.SourceUPCDatabase {
		t.Fatalf("first resolution = %+v, want success from UPCDatabase", first)
	}

	second := svc.Resolve(ctx, "5000147030156")
	if second.Result != domain.ResultSuccess || second.Source != domain.SourceCache {
		t.Fatalf("second resolution = %+v, want success from Cache", second)
	}
	if second.Title != first.Title || second.Brand != first.Brand || second.Quantity != first.Quantity {
		t.Errorf("cached record %+v differs from provider record %+v", second, first)
	}
	if off.totalCalls() != 1 || upc.totalCalls() != 1 {
		t.Errorf("provider calls = %d/%d, want 1/1", off.totalCalls(), upc.totalCalls())
	}

	if res := svc.ClearCache(ctx); res.Result != domain.ResultSuccess {
		t.Fatalf("ClearCache() = %+v", res)
	}

	third := svc.Resolve(ctx, "5000147030156")
	if third.Source != domain.SourceUPCDatabase {
		t.Errorf("after clear source = %s, want fresh provider lookup", third.Source)
	}
	if upc.totalCalls() != 2 {
		t.Errorf("UPCDatabase calls = %d, want 2", upc.totalCalls())
	}
}

func TestResolve_RecreatesDroppedSQLiteTable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "barcodes.db")

	store, err := cache.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer store.Close()

	other, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	if _, err := other.ExecContext(ctx, `DROP TABLE products`); err != nil {
		t.Fatalf("DROP TABLE error = %v", err)
	}
	if err := other.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	upc := NewMockProvider(domain.SourceUPCDatabase, domain.Found(squash()))
	svc := NewBarcodeService(store, []domain.ProductProvider{upc}, BarcodeServiceConfig{})

	first := svc.Resolve(ctx, "5000147030156")
	if first.Result != domain.ResultSuccess || first.Source != domain.SourceUPCDatabase {
		t.Fatalf("first resolution = %+v, want success from UPCDatabase", first)
	}

	second := svc.Resolve(ctx, "5000147030156")
	if second.Result != domain.ResultSuccess || second.Source != domain.SourceCache {
		t.Errorf("second resolution = %+v, want success from Cache", second)
	}
}

func TestAddToCache(t *testing.T) {
	ctx := context.Background()

	t.Run("stores product with default category", func(t *testing.T) {
		mockCache := NewMockProductCache()
		svc := NewBarcodeService(mockCache, nil, BarcodeServiceConfig{})

		res := svc.AddToCache(ctx, &domain.AddProductRequest{
			Barcode:  " 5000147030156 ",
			Title:    "Summer Fruits Squash",
			Brand:    "Robinsons",
			Quantity: "1.5l",
		})

		if res.Result != domain.ResultSuccess {
			t.Fatalf("result = %+v, want success", res)
		}
		if mockCache.initCalls != 1 {
			t.Errorf("Init calls = %d, want 1", mockCache.initCalls)
		}
		stored := mockCache.data["5000147030156"]
		if stored.Category != domain.DefaultCategory {
			t.Errorf("category = %q, want %q", stored.Category, domain.DefaultCategory)
		}
		if stored.Quantity != "1.5l" || stored.Brand != "Robinsons" {
			t.Errorf("stored = %+v", stored)
		}
	})

	t.Run("manual entry is served from cache", func(t *testing.T) {
		store := cache.NewMemoryStore()
		off := NewMockProvider(domain.SourceOpenFoodFacts, domain.NotFound())
		svc := NewBarcodeService(store, []domain.ProductProvider{off}, BarcodeServiceConfig{})

		svc.AddToCache(ctx, &domain.AddProductRequest{Barcode: "8710364042845", Title: "EZ SpeedClic Discs", Category: "other"})
		res := svc.Resolve(ctx, "8710364042845")

		if res.Result != domain.ResultSuccess || res.Source != domain.SourceCache {
			t.Errorf("resolution = %+v, want success from Cache", res)
		}
		if off.totalCalls() != 0 {
			t.Error("provider should not be called for a manually cached barcode")
		}
	})

	t.Run("fails without title", func(t *testing.T) {
		mockCache := NewMockProductCache()
		svc := NewBarcodeService(mockCache, nil, BarcodeServiceConfig{})

		res := svc.AddToCache(ctx, &domain.AddProductRequest{Barcode: "5000147030156", Title: "  "})
		if res.Result != domain.ResultFailed {
			t.Errorf("result = %s, want failed", res.Result)
		}
		if mockCache.upsertCalls != 0 {
			t.Error("nothing should be stored")
		}
	})

	t.Run("fails for invalid barcode", func(t *testing.T) {
		svc := NewBarcodeService(NewMockProductCache(), nil, BarcodeServiceConfig{})

		res := svc.AddToCache(ctx, &domain.AddProductRequest{Barcode: "a/b", Title: "x"})
		if res.Result != domain.ResultFailed {
			t.Errorf("result = %s, want failed", res.Result)
		}
	})

	t.Run("fails for nil request", func(t *testing.T) {
		svc := NewBarcodeService(NewMockProductCache(), nil, BarcodeServiceConfig{})

		if res := svc.AddToCache(ctx, nil); res.Result != domain.ResultFailed {
			t.Errorf("result = %s, want failed", res.Result)
		}
	})

	t.Run("fails when storage fails", func(t *testing.T) {
		mockCache := NewMockProductCache()
		mockCache.upsertError = domain.NewStorageError("mock", "upsert", errors.New("disk full"))
		svc := NewBarcodeService(mockCache, nil, BarcodeServiceConfig{})

		res := svc.AddToCache(ctx, &domain.AddProductRequest{Barcode: "5000147030156", Title: "Squash"})
		if res.Result != domain.ResultFailed || !strings.Contains(res.Error, "disk full") {
			t.Errorf("result = %+v, want failed with cause", res)
		}
	})

	t.Run("fails when init fails", func(t *testing.T) {
		mockCache := NewMockProductCache()
		mockCache.initError = errors.New("cannot create table")
		svc := NewBarcodeService(mockCache, nil, BarcodeServiceConfig{})

		res := svc.AddToCache(ctx, &domain.AddProductRequest{Barcode: "5000147030156", Title: "Squash"})
		if res.Result != domain.ResultFailed {
			t.Errorf("result = %s, want failed", res.Result)
		}
		if mockCache.upsertCalls != 0 {
			t.Error("upsert should not run after init failure")
		}
	})

	t.Run("fails when cache disabled", func(t *testing.T) {
		svc := NewBarcodeService(nil, nil, BarcodeServiceConfig{})

		res := svc.AddToCache(ctx, &domain.AddProductRequest{Barcode: "5000147030156", Title: "Squash"})
		if res.Result != domain.ResultFailed {
			t.Errorf("result = %s, want failed", res.Result)
		}
	})
}

func TestClearCache(t *testing.T) {
	ctx := context.Background()

	t.Run("clears every record", func(t *testing.T) {
		mockCache := NewMockProductCache()
		mockCache.data["1"] = domain.ProductRecord{Barcode: "1", Title: "One"}
		svc := NewBarcodeService(mockCache, nil, BarcodeServiceConfig{})

		res := svc.ClearCache(ctx)
		if res.Result != domain.ResultSuccess || res.Error != "" {
			t.Errorf("result = %+v, want success", res)
		}
		if len(mockCache.data) != 0 {
			t.Errorf("cache size = %d, want 0", len(mockCache.data))
		}
	})

	t.Run("reports storage error", func(t *testing.T) {
		mockCache := NewMockProductCache()
		mockCache.clearError = domain.NewStorageError("mock", "clear", errors.New("database is locked"))
		svc := NewBarcodeService(mockCache, nil, BarcodeServiceConfig{})

		res := svc.ClearCache(ctx)
		if res.Result != domain.ResultError {
			t.Fatalf("result = %s, want error", res.Result)
		}
		if !strings.Contains(res.Error, "database is locked") {
			t.Errorf("error = %q", res.Error)
		}
	})

	t.Run("reports error when cache disabled", func(t *testing.T) {
		svc := NewBarcodeService(nil, nil, BarcodeServiceConfig{})

		res := svc.ClearCache(ctx)
		if res.Result != domain.ResultError || res.Error != domain.ErrCacheDisabled.Error() {
			t.Errorf("result = %+v", res)
		}
	})
}
