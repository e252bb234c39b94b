package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/barcodelens/backend/internal/domain"
)

const clearBatchSize = 500

// Hash fields, named after the SQLite columns
const (
	fieldBrand    = "brand"
	fieldProduct  = "product"
	fieldType     = "type"
	fieldQuantity = "qty"
)

// RedisStore keeps one hash per barcode under a key prefix
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	logger    *slog.Logger
}

// NewRedisStore connects to the Redis server at redisURL and verifies it responds
func NewRedisStore(ctx context.Context, redisURL, keyPrefix string, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if strings.TrimSpace(keyPrefix) == "" || strings.ContainsAny(keyPrefix, `*?[]\`) {
		return nil, fmt.Errorf("redis key prefix %q would make clear match foreign keys", keyPrefix)
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("Redis product cache connected", "address", opts.Addr, "db", opts.DB, "prefix", keyPrefix)

	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger.With("component", "redis-cache"),
	}, nil
}

// Name returns the backend name
func (s *RedisStore) Name() string {
	return "redis"
}

func (s *RedisStore) key(barcode string) string {
	return s.keyPrefix + barcode
}

// Init checks connectivity; Redis hashes need no schema
func (s *RedisStore) Init(ctx context.Context) error {
	return domain.NewStorageError(s.Name(), "init", s.client.Ping(ctx).Err())
}

// Get reads the product hash for the barcode
func (s *RedisStore) Get(ctx context.Context, barcode string) domain.Outcome {
	fields, err := s.client.HGetAll(ctx, s.key(barcode)).Result()
	if err != nil {
		return domain.Failed(domain.NewStorageError(s.Name(), "get", err))
	}
	if len(fields) == 0 {
		return domain.NotFound()
	}

	return domain.Found(domain.ProductRecord{
		Barcode:  barcode,
		Brand:    fields[fieldBrand],
		Title:    fields[fieldProduct],
		Category: fields[fieldType],
		Quantity: fields[fieldQuantity],
		Source:   domain.SourceCache,
	})
}

// Upsert replaces the product hash atomically
func (s *RedisStore) Upsert(ctx context.Context, product domain.ProductRecord) error {
	key := s.key(product.Barcode)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldBrand, product.Brand,
			fieldProduct, product.Title,
			fieldType, product.Category,
			fieldQuantity, product.Quantity,
		)
		return nil
	})
	return domain.NewStorageError(s.Name(), "upsert", err)
}

// Clear deletes every key under the store prefix
func (s *RedisStore) Clear(ctx context.Context) error {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.keyPrefix+"*", clearBatchSize).Result()
		if err != nil {
			return domain.NewStorageError(s.Name(), "clear", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return domain.NewStorageError(s.Name(), "clear", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	s.logger.Info("Product cache cleared", "deleted", deleted)
	return nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
