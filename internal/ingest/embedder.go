// Package ingest turns a knowledge bundle into store-context vectors in the
// similarity index.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/indran-jediteck/shop-lynk-ai/internal/chunker"
	"github.com/indran-jediteck/shop-lynk-ai/internal/embeddings"
	"github.com/indran-jediteck/shop-lynk-ai/internal/knowledge"
	"github.com/indran-jediteck/shop-lynk-ai/internal/vectorstore"
)

var tracer = otel.Tracer("shop-lynk-ai.ingest")

// ErrEmbedAborted indicates the embed operation stopped before all chunks
// were written. Retry policy belongs to the caller.
var ErrEmbedAborted = errors.New("store context embedding aborted")

// ContextKey is the deterministic vector key for one chunk of a store's
// context.
func ContextKey(shop string, index int) string {
	return fmt.Sprintf("store_context_%s_chunk_%d", shop, index)
}

// TenantFilter is the metadata filter matching every store-context vector of
// one store. All of a store's vectors share store_id, which is what makes an
// exact-match purge possible.
func TenantFilter(shop string) map[string]any {
	return map[string]any{
		"type":     "store_context",
		"store_id": shop,
	}
}

// ContextEmbedder serializes knowledge bundles, chunks them and writes one
// vector per chunk to the index.
type ContextEmbedder struct {
	embedder embeddings.Embedder
	index    vectorstore.Index
	logger   *zap.Logger

	maxSize int
	overlap int
}

// NewContextEmbedder creates a ContextEmbedder with default chunking
// parameters.
func NewContextEmbedder(embedder embeddings.Embedder, index vectorstore.Index, logger *zap.Logger) *ContextEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextEmbedder{
		embedder: embedder,
		index:    index,
		logger:   logger,
		maxSize:  chunker.DefaultMaxSize,
		overlap:  chunker.DefaultOverlap,
	}
}

// Embed serializes the bundle, chunks the canonical text and writes one
// vector per chunk under store_context_{shop}_chunk_{i}. Chunks are embedded
// and upserted strictly in order, one round trip at a time; the first
// failure aborts the whole operation.
//
// Re-running with an unchanged bundle overwrites the same keys. If a new
// bundle produces fewer chunks than a previous larger one, stale high-index
// keys are left behind; a delete must run first for a clean re-embed.
//
// Returns the number of chunks written.
func (e *ContextEmbedder) Embed(ctx context.Context, shop string, bundle *knowledge.Bundle) (int, error) {
	ctx, span := tracer.Start(ctx, "ContextEmbedder.Embed")
	defer span.End()
	span.SetAttributes(attribute.String("shop", shop))

	chunks, err := chunker.Chunk(bundle.CanonicalText(), e.maxSize, e.overlap)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("%w: chunking: %v", ErrEmbedAborted, err)
	}
	span.SetAttributes(attribute.Int("chunk_count", len(chunks)))

	for i, chunk := range chunks {
		vector, err := e.embedder.EmbedQuery(ctx, chunk)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return i, fmt.Errorf("%w: embedding chunk %d: %v", ErrEmbedAborted, i, err)
		}

		record := vectorstore.Record{
			ID:     ContextKey(shop, i),
			Vector: vector,
			Metadata: map[string]any{
				"type":        "store_context",
				"store_id":    shop,
				"chunk_index": i,
				"shop_name":   bundle.Shop.Name,
			},
		}
		if err := e.index.Upsert(ctx, []vectorstore.Record{record}); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return i, fmt.Errorf("%w: upserting chunk %d: %v", ErrEmbedAborted, i, err)
		}
	}

	e.logger.Info("embedded store context",
		zap.String("shop", shop),
		zap.Int("chunks", len(chunks)),
	)
	span.SetStatus(codes.Ok, "success")
	return len(chunks), nil
}
