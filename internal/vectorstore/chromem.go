package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// chromemTracer for OpenTelemetry instrumentation.
var chromemTracer = otel.Tracer("shop-lynk-ai.vectorstore.chromem")

// ChromemConfig holds configuration for the embedded chromem-go index.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	// Default: "~/.config/shoplynk/vectorstore"
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// CollectionName is the collection holding store-context vectors.
	// Default: "shoplynk_store_context"
	CollectionName string
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "~/.config/shoplynk/vectorstore"
	}
	if c.CollectionName == "" {
		c.CollectionName = "shoplynk_store_context"
	}
}

// ChromemIndex implements Index on chromem-go, an embeddable pure-Go vector
// database. It needs no external service, which makes it the development and
// test default; production deployments use Qdrant.
//
// Records arrive with precomputed embeddings, so the collection is created
// without an embedding function and every operation goes through the
// embedding-based entry points.
type ChromemIndex struct {
	db     *chromem.DB
	config ChromemConfig
	logger *zap.Logger

	mu         sync.Mutex
	collection *chromem.Collection
}

// NewChromemIndex creates a persistent chromem-backed index.
func NewChromemIndex(config ChromemConfig, logger *zap.Logger) (*ChromemIndex, error) {
	config.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	path, err := expandHome(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", path, err)
	}

	db, err := chromem.NewPersistentDB(path, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	return &ChromemIndex{db: db, config: config, logger: logger}, nil
}

// Close is a no-op; chromem persists on every write.
func (s *ChromemIndex) Close() error {
	return nil
}

func (s *ChromemIndex) getCollection() (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection != nil {
		return s.collection, nil
	}

	collection, err := s.db.GetOrCreateCollection(s.config.CollectionName, nil, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("getting collection %s: %w", s.config.CollectionName, err)
	}
	s.collection = collection
	return collection, nil
}

// noEmbedding rejects text-based operations; all records carry vectors.
func noEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("embedding function not available: records must carry precomputed vectors")
}

// Upsert inserts or overwrites records by ID.
func (s *ChromemIndex) Upsert(ctx context.Context, records []Record) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemIndex.Upsert")
	defer span.End()
	span.SetAttributes(attribute.Int("record_count", len(records)))

	if len(records) == 0 {
		return fmt.Errorf("records cannot be empty")
	}

	collection, err := s.getCollection()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	docs := make([]chromem.Document, len(records))
	for i, rec := range records {
		metadata := make(map[string]string, len(rec.Metadata))
		for k, v := range rec.Metadata {
			metadata[k] = fmt.Sprint(v)
		}
		docs[i] = chromem.Document{
			ID:        rec.ID,
			Metadata:  metadata,
			Embedding: rec.Vector,
			// chromem requires non-empty content; the record key is enough
			// since retrieval works through metadata.
			Content: rec.ID,
		}
	}

	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding documents: %w", err)
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// Query returns up to TopK matches ordered by similarity.
func (s *ChromemIndex) Query(ctx context.Context, q Query) ([]Match, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemIndex.Query")
	defer span.End()
	span.SetAttributes(attribute.Int("top_k", q.TopK))

	if q.TopK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", q.TopK)
	}

	collection, err := s.getCollection()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// chromem rejects nResults larger than the collection size.
	k := q.TopK
	if count := collection.Count(); k > count {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	where := make(map[string]string, len(q.Filter))
	for key, value := range q.Filter {
		where[key] = fmt.Sprint(value)
	}

	results, err := collection.QueryEmbedding(ctx, presenceVector(q.Vector), k, where, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, res := range results {
		match := Match{ID: res.ID, Score: res.Similarity}
		if q.WithMetadata {
			match.Metadata = fromChromemMetadata(res.Metadata)
		}
		matches = append(matches, match)
	}

	span.SetAttributes(attribute.Int("match_count", len(matches)))
	span.SetStatus(codes.Ok, "success")
	return matches, nil
}

// DeleteMany removes records by ID. Unknown IDs are ignored.
func (s *ChromemIndex) DeleteMany(ctx context.Context, ids []string) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemIndex.DeleteMany")
	defer span.End()
	span.SetAttributes(attribute.Int("id_count", len(ids)))

	if len(ids) == 0 {
		return nil
	}

	collection, err := s.getCollection()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := collection.Delete(ctx, nil, nil, ids...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting documents: %w", err)
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// fromChromemMetadata widens chromem's string metadata back to the Index
// metadata shape, recovering integers where they parse.
func fromChromemMetadata(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[k] = n
			continue
		}
		out[k] = v
	}
	return out
}

// expandHome expands a leading ~/ to the user's home directory.
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
