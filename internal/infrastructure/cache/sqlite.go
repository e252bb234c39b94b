package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/barcodelens/backend/internal/domain"
	_ "modernc.org/sqlite"
)

const createProductsTable = `
CREATE TABLE IF NOT EXISTS products (
    barcode TEXT PRIMARY KEY,
    brand TEXT,
    product TEXT,
    type TEXT,
    qty TEXT
)`

// SQLiteStore persists products in a single SQLite table keyed by barcode.
// The pool is capped at one connection so writes are serialized.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures the schema exists
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite cache path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{sqlDB: sqlDB}
	if err := store.Init(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

// Name returns the backend name
func (s *SQLiteStore) Name() string {
	return "sqlite"
}

// Init creates the products table if it does not exist
func (s *SQLiteStore) Init(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, createProductsTable); err != nil {
		return domain.NewStorageError(s.Name(), "init", err)
	}
	return nil
}

// Get looks up a product by exact barcode
func (s *SQLiteStore) Get(ctx context.Context, barcode string) domain.Outcome {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT barcode, COALESCE(brand, ''), COALESCE(product, ''), COALESCE(type, ''), COALESCE(qty, '')
		 FROM products WHERE barcode = ?`,
		barcode,
	)

	var product domain.ProductRecord
	err := row.Scan(&product.Barcode, &product.Brand, &product.Title, &product.Category, &product.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound()
	}
	if err != nil {
		return domain.Failed(domain.NewStorageError(s.Name(), "get", err))
	}

	product.Source = domain.SourceCache
	return domain.Found(product)
}

// Upsert inserts or replaces the product row
func (s *SQLiteStore) Upsert(ctx context.Context, product domain.ProductRecord) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR REPLACE INTO products (barcode, brand, product, type, qty) VALUES (?, ?, ?, ?, ?)`,
		product.Barcode,
		product.Brand,
		product.Title,
		product.Category,
		product.Quantity,
	)
	return domain.NewStorageError(s.Name(), "upsert", err)
}

// Clear deletes every product row
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.sqlDB.ExecContext(ctx, `DELETE FROM products`)
	return domain.NewStorageError(s.Name(), "clear", err)
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
