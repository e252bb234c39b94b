package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barcodelens/backend/internal/domain"
)

// runStoreContract checks the behaviour every ProductCache backend shares
func runStoreContract(t *testing.T, newStore func(t *testing.T) domain.ProductCache) {
	t.Helper()

	t.Run("init is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Init(ctx))
		require.NoError(t, store.Init(ctx))
	})

	t.Run("miss on empty store", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Init(ctx))

		got := store.Get(ctx, "5000147030156")
		assert.Equal(t, domain.OutcomeNotFound, got.Status)
		assert.Nil(t, got.Product)
	})

	t.Run("upsert then get returns cached record", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Init(ctx))

		product := domain.ProductRecord{
			Barcode:  "5000147030156",
			Brand:    "Robinsons",
			Title:    "Summer Fruits Squash",
			Category: "food",
			Quantity: "1l",
			Source:   domain.SourceOpenFoodFacts,
		}
		require.NoError(t, store.Upsert(ctx, product))

		got := store.Get(ctx, product.Barcode)
		require.True(t, got.IsFound())
		assert.Equal(t, "Robinsons", got.Product.Brand)
		assert.Equal(t, "Summer Fruits Squash", got.Product.Title)
		assert.Equal(t, "food", got.Product.Category)
		assert.Equal(t, "1l", got.Product.Quantity)
		assert.Equal(t, domain.SourceCache, got.Product.Source)
	})

	t.Run("upsert is last write wins without merge", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Init(ctx))

		require.NoError(t, store.Upsert(ctx, domain.ProductRecord{
			Barcode:  "5011309015416",
			Brand:    "Covonia",
			Title:    "Cough Medicine",
			Quantity: "150ml",
		}))
		require.NoError(t, store.Upsert(ctx, domain.ProductRecord{
			Barcode: "5011309015416",
			Title:   "Covonia Original",
		}))

		got := store.Get(ctx, "5011309015416")
		require.True(t, got.IsFound())
		assert.Equal(t, "Covonia Original", got.Product.Title)
		assert.Empty(t, got.Product.Brand)
		assert.Empty(t, got.Product.Quantity)
	})

	t.Run("keys are exact strings", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Init(ctx))

		require.NoError(t, store.Upsert(ctx, domain.ProductRecord{Barcode: "0012345", Title: "Padded"}))

		assert.True(t, store.Get(ctx, "0012345").IsFound())
		assert.Equal(t, domain.OutcomeNotFound, store.Get(ctx, "12345").Status)
	})

	t.Run("clear removes every record", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Init(ctx))

		for _, barcode := range []string{"1", "2", "3"} {
			require.NoError(t, store.Upsert(ctx, domain.ProductRecord{Barcode: barcode, Title: "Item " + barcode}))
		}

		require.NoError(t, store.Clear(ctx))

		for _, barcode := range []string{"1", "2", "3"} {
			assert.Equal(t, domain.OutcomeNotFound, store.Get(ctx, barcode).Status, barcode)
		}

		// Store stays usable after a clear
		require.NoError(t, store.Upsert(ctx, domain.ProductRecord{Barcode: "4", Title: "After"}))
		assert.True(t, store.Get(ctx, "4").IsFound())
	})
}
