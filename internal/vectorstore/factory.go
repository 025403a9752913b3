package vectorstore

import (
	"fmt"

	"go.uber.org/zap"
)

// Provider names accepted by New.
const (
	ProviderChromem = "chromem"
	ProviderQdrant  = "qdrant"
)

// Config selects and configures an Index implementation.
type Config struct {
	// Provider is "chromem" (embedded, default) or "qdrant".
	Provider string

	Chromem ChromemConfig
	Qdrant  QdrantConfig
}

// New creates the configured Index implementation.
func New(config Config, logger *zap.Logger) (Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch config.Provider {
	case "", ProviderChromem:
		logger.Info("using embedded chromem vector index", zap.String("path", config.Chromem.Path))
		return NewChromemIndex(config.Chromem, logger)
	case ProviderQdrant:
		logger.Info("using qdrant vector index",
			zap.String("host", config.Qdrant.Host),
			zap.Int("port", config.Qdrant.Port),
		)
		return NewQdrantIndex(config.Qdrant)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, config.Provider)
	}
}
