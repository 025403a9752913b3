// Package config provides configuration loading for shoplynkd.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/indran-jediteck/shop-lynk-ai/internal/logging"
	"github.com/indran-jediteck/shop-lynk-ai/internal/telemetry"
	"github.com/indran-jediteck/shop-lynk-ai/internal/vectorstore"
)

// ErrInvalidConfig indicates invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full daemon configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Shopify     ShopifyConfig     `koanf:"shopify"`
	OpenAI      OpenAIConfig      `koanf:"openai"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Mongo       MongoConfig       `koanf:"mongo"`
	Logging     logging.Config    `koanf:"logging"`
	Telemetry   telemetry.Config  `koanf:"telemetry"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Host to bind. Default: "0.0.0.0"
	Host string `koanf:"host"`

	// Port to bind. Default: 8090
	Port int `koanf:"port"`

	// ShutdownTimeout bounds graceful shutdown. Default: 10s
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ShopifyConfig configures the Admin API client.
type ShopifyConfig struct {
	// APIVersion is the Admin API version. Default: "2023-10"
	APIVersion string `koanf:"api_version"`

	// RequestsPerSecond caps the per-process Admin API request rate.
	// Default: 2
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// OpenAIConfig configures the embedding and assistant clients.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key.
	APIKey string `koanf:"api_key"`

	// EmbeddingModel is the embedding model name.
	// Default: "text-embedding-3-small"
	EmbeddingModel string `koanf:"embedding_model"`

	// AssistantModel is the conversational model for provisioned assistants.
	// Default: "gpt-4o-mini"
	AssistantModel string `koanf:"assistant_model"`
}

// VectorStoreConfig selects and configures the vector index backend.
type VectorStoreConfig struct {
	// Provider selects the backend: "chromem" or "qdrant".
	// Default: "chromem"
	Provider string `koanf:"provider"`

	// Path is the chromem persistence directory.
	Path string `koanf:"path"`

	// Collection is the collection name shared by all tenants.
	Collection string `koanf:"collection"`

	// QdrantHost and QdrantPort locate the qdrant gRPC endpoint.
	QdrantHost string `koanf:"qdrant_host"`
	QdrantPort int    `koanf:"qdrant_port"`
	QdrantTLS  bool   `koanf:"qdrant_tls"`
}

// MongoConfig configures tenant state persistence.
type MongoConfig struct {
	// URI is the MongoDB connection string.
	URI string `koanf:"uri"`

	// Database is the database name. Default: "lynk_db"
	Database string `koanf:"database"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8090
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Shopify.APIVersion == "" {
		c.Shopify.APIVersion = "2023-10"
	}
	if c.Shopify.RequestsPerSecond == 0 {
		c.Shopify.RequestsPerSecond = 2
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.OpenAI.AssistantModel == "" {
		c.OpenAI.AssistantModel = "gpt-4o-mini"
	}
	if c.VectorStore.Provider == "" {
		c.VectorStore.Provider = vectorstore.ProviderChromem
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "lynk_db"
	}
	c.Logging.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Shopify.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: shopify requests_per_second must be positive", ErrInvalidConfig)
	}
	switch c.VectorStore.Provider {
	case vectorstore.ProviderChromem, vectorstore.ProviderQdrant:
	default:
		return fmt.Errorf("%w: unknown vectorstore provider %q", ErrInvalidConfig, c.VectorStore.Provider)
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("%w: openai api_key is required", ErrInvalidConfig)
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("%w: mongo uri is required", ErrInvalidConfig)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
