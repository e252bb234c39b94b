package cache

import (
	"context"
	"sync"

	"github.com/barcodelens/backend/internal/domain"
)

// MemoryStore is a thread-safe in-process product cache.
// Records live until Clear or process exit.
type MemoryStore struct {
	data  map[string]domain.ProductRecord
	mutex sync.RWMutex
}

// NewMemoryStore creates a new in-memory product cache
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]domain.ProductRecord),
	}
}

// Name returns the backend name
func (c *MemoryStore) Name() string {
	return "memory"
}

// Init is a no-op; the map is ready on construction
func (c *MemoryStore) Init(ctx context.Context) error {
	return ctx.Err()
}

// Get retrieves a product by exact barcode
func (c *MemoryStore) Get(ctx context.Context, barcode string) domain.Outcome {
	if err := ctx.Err(); err != nil {
		return domain.Failed(domain.NewStorageError(c.Name(), "get", err))
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	product, exists := c.data[barcode]
	if !exists {
		return domain.NotFound()
	}

	product.Source = domain.SourceCache
	return domain.Found(product)
}

// Upsert stores the product, replacing any previous record for the barcode
func (c *MemoryStore) Upsert(ctx context.Context, product domain.ProductRecord) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError(c.Name(), "upsert", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	product.Source = ""
	c.data[product.Barcode] = product
	return nil
}

// Clear removes all products from the cache
func (c *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError(c.Name(), "clear", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]domain.ProductRecord)
	return nil
}

// Close is a no-op
func (c *MemoryStore) Close() error {
	return nil
}
