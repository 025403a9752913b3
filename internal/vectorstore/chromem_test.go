package vectorstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestIndex(t *testing.T) *ChromemIndex {
	t.Helper()
	idx, err := NewChromemIndex(ChromemConfig{Path: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	return idx
}

// storeRecords builds store-context records the way the ingest pipeline
// does: deterministic key per chunk index, shared store_id metadata.
func storeRecords(shop string, n int) []Record {
	records := make([]Record, n)
	for i := range records {
		vec := make([]float32, 8)
		vec[i%8] = 1
		records[i] = Record{
			ID:     fmt.Sprintf("store_context_%s_chunk_%d", shop, i),
			Vector: vec,
			Metadata: map[string]any{
				"type":        "store_context",
				"store_id":    shop,
				"chunk_index": i,
				"shop_name":   "Test Shop",
			},
		}
	}
	return records
}

func TestChromemIndexUpsertAndQuery(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, storeRecords("shop-a.myshopify.com", 3)))

	matches, err := idx.Query(ctx, Query{
		Vector:       []float32{1, 0, 0, 0, 0, 0, 0, 0},
		TopK:         10,
		Filter:       map[string]any{"type": "store_context", "store_id": "shop-a.myshopify.com"},
		WithMetadata: true,
	})
	require.NoError(t, err)
	assert.Len(t, matches, 3)
	for _, m := range matches {
		assert.Equal(t, "store_context", m.Metadata["type"])
		assert.Equal(t, "shop-a.myshopify.com", m.Metadata["store_id"])
	}
}

func TestChromemIndexFilterIsolatesTenants(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, storeRecords("shop-a.myshopify.com", 2)))
	require.NoError(t, idx.Upsert(ctx, storeRecords("shop-b.myshopify.com", 4)))

	matches, err := idx.Query(ctx, Query{
		Vector: make([]float32, 8), // zero vector: presence query
		TopK:   100,
		Filter: map[string]any{"store_id": "shop-b.myshopify.com"},
	})
	require.NoError(t, err)
	assert.Len(t, matches, 4)
}

func TestChromemIndexUpsertOverwrites(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	// Re-ingesting the same keys must not duplicate records.
	require.NoError(t, idx.Upsert(ctx, storeRecords("shop-a.myshopify.com", 5)))
	require.NoError(t, idx.Upsert(ctx, storeRecords("shop-a.myshopify.com", 5)))

	matches, err := idx.Query(ctx, Query{
		Vector: make([]float32, 8),
		TopK:   100,
		Filter: map[string]any{"store_id": "shop-a.myshopify.com"},
	})
	require.NoError(t, err)
	assert.Len(t, matches, 5)
}

func TestChromemIndexDeleteMany(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	records := storeRecords("shop-a.myshopify.com", 3)
	require.NoError(t, idx.Upsert(ctx, records))

	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	require.NoError(t, idx.DeleteMany(ctx, ids))

	matches, err := idx.Query(ctx, Query{
		Vector: make([]float32, 8),
		TopK:   100,
		Filter: map[string]any{"store_id": "shop-a.myshopify.com"},
	})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestChromemIndexQueryEmptyCollection(t *testing.T) {
	idx := newTestIndex(t)

	matches, err := idx.Query(context.Background(), Query{
		Vector: make([]float32, 8),
		TopK:   10,
	})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestChromemIndexRejectsInvalidArguments(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.Upsert(ctx, nil)
	assert.Error(t, err)

	_, err = idx.Query(ctx, Query{TopK: 0})
	assert.Error(t, err)

	assert.NoError(t, idx.DeleteMany(ctx, nil))
}

func TestFactory(t *testing.T) {
	t.Run("defaults to chromem", func(t *testing.T) {
		idx, err := New(Config{Chromem: ChromemConfig{Path: t.TempDir()}}, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &ChromemIndex{}, idx)
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		_, err := New(Config{Provider: "pinecone"}, zap.NewNop())
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})
}

func TestQdrantConfigValidate(t *testing.T) {
	cfg := QdrantConfig{}
	cfg.ApplyDefaults()
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig) // collection + size missing

	cfg.CollectionName = "shoplynk_store_context"
	cfg.VectorSize = 1536
	assert.NoError(t, cfg.Validate())
}

func TestPresenceVector(t *testing.T) {
	assert.Equal(t, []float32{0.2, 0.1}, presenceVector([]float32{0.2, 0.1}))
	assert.Equal(t, []float32{1, 0, 0}, presenceVector([]float32{0, 0, 0}))
	assert.Empty(t, presenceVector(nil))
}
