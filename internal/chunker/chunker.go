// Package chunker splits long text into bounded, overlapping segments for embedding.
package chunker

import (
	"errors"
	"fmt"
)

// Default parameters, matching the ingestion pipeline's splitter settings.
const (
	DefaultMaxSize = 800
	DefaultOverlap = 100
)

var (
	// ErrInvalidParams indicates invalid chunking parameters.
	ErrInvalidParams = errors.New("invalid chunking parameters")
)

// Chunk splits text into ordered segments of at most maxSize bytes where
// consecutive segments share a trailing/leading overlap of overlap bytes.
//
// The split is deterministic: the same input and parameters always produce
// the same segments, which keeps re-ingestion idempotent at the vector-key
// level. No content is dropped or reordered; concatenating the first segment
// with the non-overlapping suffix of each following segment reconstructs the
// input exactly.
func Chunk(text string, maxSize, overlap int) ([]string, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: maxSize must be positive, got %d", ErrInvalidParams, maxSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must be non-negative, got %d", ErrInvalidParams, overlap)
	}
	if overlap >= maxSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than maxSize %d", ErrInvalidParams, overlap, maxSize)
	}

	if text == "" {
		return nil, nil
	}

	step := maxSize - overlap
	var segments []string
	for start := 0; ; start += step {
		end := start + maxSize
		if end >= len(text) {
			segments = append(segments, text[start:])
			return segments, nil
		}
		segments = append(segments, text[start:end])
	}
}

// ChunkDefault splits text using the default maxSize and overlap.
func ChunkDefault(text string) ([]string, error) {
	return Chunk(text, DefaultMaxSize, DefaultOverlap)
}
