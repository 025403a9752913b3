package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Tracer for OpenTelemetry instrumentation.
var tracer = otel.Tracer("shop-lynk-ai.vectorstore.qdrant")

// pointNamespace is the UUIDv5 namespace for deriving Qdrant point IDs from
// record keys. Qdrant only accepts UUID or integer point IDs, so string keys
// are mapped through a deterministic UUID: the same key always produces the
// same point, which preserves upsert-overwrite semantics. The original key
// is kept in the payload under "id" for query results and deletion.
var pointNamespace = uuid.MustParse("8f9d2a64-1c3e-4b70-9a52-6e8c4d0f17ab")

// QdrantConfig holds configuration for the Qdrant gRPC client.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	// Default: "localhost"
	Host string

	// Port is the Qdrant gRPC port (6334), not the HTTP REST port.
	Port int

	// CollectionName is the collection holding store-context vectors.
	CollectionName string

	// VectorSize is the embedding dimensionality. Must match the embedding
	// model (1536 for text-embedding-3-small).
	VectorSize uint64

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// MaxRetries is the retry budget for transient failures.
	// Default: 3
	MaxRetries int

	// RetryBackoff is the initial backoff, doubled per retry.
	// Default: 1s
	RetryBackoff time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = time.Second
	}
}

// Validate validates the configuration.
func (c QdrantConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Port)
	}
	if c.CollectionName == "" {
		return fmt.Errorf("%w: collection name required", ErrInvalidConfig)
	}
	if c.VectorSize == 0 {
		return fmt.Errorf("%w: vector size required", ErrInvalidConfig)
	}
	return nil
}

// QdrantIndex implements Index against Qdrant's native gRPC client.
type QdrantIndex struct {
	client *qdrant.Client
	config QdrantConfig

	// ensured guards one-time collection creation.
	ensured sync.Once
	ensErr  error
}

// NewQdrantIndex connects to Qdrant and verifies the connection.
func NewQdrantIndex(config QdrantConfig) (*QdrantIndex, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		UseTLS: config.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(50 * 1024 * 1024),
				grpc.MaxCallSendMsgSize(50 * 1024 * 1024),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	idx := &QdrantIndex{client: client, config: config}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: health check: %v", ErrConnectionFailed, err)
	}

	return idx, nil
}

// Close closes the gRPC connection.
func (s *QdrantIndex) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// isTransient reports whether a gRPC error is worth retrying.
func isTransient(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case grpccodes.Unavailable, grpccodes.DeadlineExceeded, grpccodes.Aborted, grpccodes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// retry runs operation with exponential backoff on transient failures.
func (s *QdrantIndex) retry(ctx context.Context, name string, operation func() error) error {
	backoff := s.config.RetryBackoff
	for attempt := 0; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return fmt.Errorf("%s failed (permanent): %w", name, err)
		}
		if attempt == s.config.MaxRetries {
			return fmt.Errorf("%s failed after %d retries: %w", name, s.config.MaxRetries, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s canceled: %w", name, ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// ensureCollection creates the collection on first use.
func (s *QdrantIndex) ensureCollection(ctx context.Context) error {
	s.ensured.Do(func() {
		exists, err := s.client.CollectionExists(ctx, s.config.CollectionName)
		if err != nil {
			s.ensErr = fmt.Errorf("checking collection %s: %w", s.config.CollectionName, err)
			return
		}
		if exists {
			return
		}
		s.ensErr = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.config.CollectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.config.VectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		})
	})
	return s.ensErr
}

// Upsert inserts or overwrites records by ID.
func (s *QdrantIndex) Upsert(ctx context.Context, records []Record) error {
	ctx, span := tracer.Start(ctx, "QdrantIndex.Upsert")
	defer span.End()
	span.SetAttributes(
		attribute.Int("record_count", len(records)),
		attribute.String("collection", s.config.CollectionName),
	)

	if len(records) == 0 {
		return fmt.Errorf("records cannot be empty")
	}
	if err := s.ensureCollection(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, rec := range records {
		payload := make(map[string]*qdrant.Value, len(rec.Metadata)+1)
		payload["id"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: rec.ID}}
		for k, v := range rec.Metadata {
			switch val := v.(type) {
			case string:
				payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}
			case int:
				payload[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
			case int64:
				payload[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
			case float64:
				payload[k] = &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
			case bool:
				payload[k] = &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
			}
		}

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.NewSHA1(pointNamespace, []byte(rec.ID)).String()),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: payload,
		}
	}

	err := s.retry(ctx, "upsert", func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.config.CollectionName,
			Points:         points,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upserting points: %w", err)
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// Query returns up to TopK matches ordered by similarity.
func (s *QdrantIndex) Query(ctx context.Context, q Query) ([]Match, error) {
	ctx, span := tracer.Start(ctx, "QdrantIndex.Query")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", s.config.CollectionName),
		attribute.Int("top_k", q.TopK),
	)

	if q.TopK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", q.TopK)
	}
	if err := s.ensureCollection(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var filter *qdrant.Filter
	if len(q.Filter) > 0 {
		conditions := make([]*qdrant.Condition, 0, len(q.Filter))
		for key, value := range q.Filter {
			switch v := value.(type) {
			case string:
				conditions = append(conditions, qdrant.NewMatch(key, v))
			case bool:
				conditions = append(conditions, qdrant.NewMatchBool(key, v))
			case int:
				conditions = append(conditions, qdrant.NewMatchInt(key, int64(v)))
			case int64:
				conditions = append(conditions, qdrant.NewMatchInt(key, v))
			}
		}
		if len(conditions) > 0 {
			filter = &qdrant.Filter{Must: conditions}
		}
	}

	var results []*qdrant.ScoredPoint
	err := s.retry(ctx, "query", func() error {
		res, err := s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: s.config.CollectionName,
			Query:          qdrant.NewQuery(presenceVector(q.Vector)...),
			Limit:          qdrant.PtrOf(uint64(q.TopK)),
			WithPayload:    qdrant.NewWithPayload(true),
			Filter:         filter,
		})
		if err != nil {
			return err
		}
		results = res
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, point := range results {
		match := Match{Score: point.Score}
		if point.Payload != nil {
			metadata := make(map[string]any, len(point.Payload))
			for k, v := range point.Payload {
				switch val := v.Kind.(type) {
				case *qdrant.Value_StringValue:
					metadata[k] = val.StringValue
					if k == "id" {
						match.ID = val.StringValue
					}
				case *qdrant.Value_IntegerValue:
					metadata[k] = val.IntegerValue
				case *qdrant.Value_DoubleValue:
					metadata[k] = val.DoubleValue
				case *qdrant.Value_BoolValue:
					metadata[k] = val.BoolValue
				}
			}
			if q.WithMetadata {
				match.Metadata = metadata
			}
		}
		matches = append(matches, match)
	}

	span.SetAttributes(attribute.Int("match_count", len(matches)))
	span.SetStatus(codes.Ok, "success")
	return matches, nil
}

// DeleteMany removes records by their original keys, matching on the "id"
// payload field since point IDs are derived UUIDs.
func (s *QdrantIndex) DeleteMany(ctx context.Context, ids []string) error {
	ctx, span := tracer.Start(ctx, "QdrantIndex.DeleteMany")
	defer span.End()
	span.SetAttributes(
		attribute.Int("id_count", len(ids)),
		attribute.String("collection", s.config.CollectionName),
	)

	if len(ids) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err := s.retry(ctx, "delete", func() error {
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: s.config.CollectionName,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
					Filter: &qdrant.Filter{
						Must: []*qdrant.Condition{
							qdrant.NewMatchKeywords("id", ids...),
						},
					},
				},
			},
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting points: %w", err)
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}
