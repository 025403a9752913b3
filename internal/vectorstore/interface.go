// Package vectorstore defines the similarity-index interface and its
// implementations.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector index operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the index backend is unreachable.
	ErrConnectionFailed = errors.New("failed to connect to vector index")

	// ErrUnknownProvider indicates an unrecognized provider name.
	ErrUnknownProvider = errors.New("unknown vector store provider")
)

// Record is one vector with its identity and filterable metadata.
//
// Store-context records use deterministic IDs of the form
// store_context_{shop}_chunk_{i}; upserting the same ID overwrites the
// previous vector, which is what makes re-ingestion idempotent per key.
type Record struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
}

// Query is a similarity query against the index.
type Query struct {
	// Vector is the query embedding. A zero vector is allowed for
	// presence/purge queries where the match score is irrelevant.
	Vector []float32

	// TopK is the maximum number of matches to return.
	TopK int

	// Filter restricts matches to records whose metadata equals every
	// entry (exact match on all keys).
	Filter map[string]any

	// WithMetadata includes record metadata in the matches.
	WithMetadata bool
}

// Match is one query result.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// Index is the interface to the external similarity index.
//
// Implementations are connect-once clients, constructed at process start and
// shared; all methods are safe for concurrent use.
type Index interface {
	// Upsert inserts or overwrites records by ID.
	Upsert(ctx context.Context, records []Record) error

	// Query returns up to TopK matches ordered by similarity.
	Query(ctx context.Context, q Query) ([]Match, error)

	// DeleteMany removes the records with the given IDs. Unknown IDs are
	// ignored.
	DeleteMany(ctx context.Context, ids []string) error

	// Close releases the backend connection.
	Close() error
}
