package domain

import (
	"context"
	"time"
)

// ProductCache persists resolved products keyed by barcode
type ProductCache interface {
	// Init ensures the backing schema exists. Safe to call before every operation.
	Init(ctx context.Context) error
	// Get returns Found, NotFound or a Failed outcome carrying a *StorageError.
	Get(ctx context.Context, barcode string) Outcome
	// Upsert inserts or replaces the record keyed by its barcode.
	Upsert(ctx context.Context, product ProductRecord) error
	// Clear deletes every record.
	Clear(ctx context.Context) error
	Name() string
	Close() error
}

// ProductProvider looks up a barcode in one external source
type ProductProvider interface {
	Name() string
	Lookup(ctx context.Context, barcode string) Outcome
}

// MetricsPublisher receives operational metrics
type MetricsPublisher interface {
	Incr(name string, tags ...string)
	Timing(name string, value time.Duration, tags ...string)
	Close() error
}
