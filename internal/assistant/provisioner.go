// Package assistant provisions tenant-scoped conversational assistants with
// the OpenAI Assistants API.
package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrProvisionFailed indicates assistant creation failed.
	ErrProvisionFailed = errors.New("assistant provisioning failed")
)

// Config holds configuration for the provisioner.
type Config struct {
	// APIKey is the OpenAI API key.
	APIKey string

	// Model is the conversational model backing the assistant.
	// Default: "gpt-4o-mini"
	Model string

	// BaseURL overrides the OpenAI API base URL. Used by tests.
	BaseURL string
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = string(openai.ChatModelGPT4oMini)
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.APIKey == "" && c.BaseURL == "" {
		return fmt.Errorf("%w: API key required", ErrInvalidConfig)
	}
	return nil
}

// Provisioner creates and deletes per-store assistants. Each assistant
// carries a single vectorSearch function tool; the surrounding application
// resolves tool calls against the store's vector-index partition.
type Provisioner struct {
	config Config
	client openai.Client
	logger *zap.Logger
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(config Config, logger *zap.Logger) (*Provisioner, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Provisioner{
		config: config,
		client: openai.NewClient(opts...),
		logger: logger,
	}, nil
}

// Provision creates one assistant named "Sales Assistant - {shopName}" and
// returns the provider-issued handle.
func (p *Provisioner) Provision(ctx context.Context, shopName string) (string, error) {
	if shopName == "" {
		return "", fmt.Errorf("%w: shop name required", ErrProvisionFailed)
	}

	vectorSearchTool := openai.AssistantToolUnionParam{
		OfFunction: &openai.FunctionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        "vectorSearch",
				Description: openai.String("Searches store data using semantic vector similarity."),
				Parameters: shared.FunctionParameters{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "User's search query, like 'What is the return policy?' or 'Do you sell red sarees?'",
						},
					},
					"required": []string{"query"},
				},
			},
		},
	}

	created, err := p.client.Beta.Assistants.New(ctx, openai.BetaAssistantNewParams{
		Model: shared.ChatModel(p.config.Model),
		Name:  openai.String("Sales Assistant - " + shopName),
		Instructions: openai.String(fmt.Sprintf(
			"You are a helpful sales and support assistant for the store %q. "+
				"Use the vectorSearch tool when a customer asks about store policies, products, or anything specific.",
			shopName)),
		Tools: []openai.AssistantToolUnionParam{vectorSearchTool},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvisionFailed, err)
	}

	p.logger.Info("provisioned assistant",
		zap.String("shop_name", shopName),
		zap.String("assistant_id", created.ID),
	)
	return created.ID, nil
}

// Deprovision deletes the assistant with the given handle.
func (p *Provisioner) Deprovision(ctx context.Context, handle string) error {
	if handle == "" {
		return fmt.Errorf("assistant handle required")
	}
	if _, err := p.client.Beta.Assistants.Delete(ctx, handle); err != nil {
		return fmt.Errorf("deleting assistant %s: %w", handle, err)
	}

	p.logger.Info("deprovisioned assistant", zap.String("assistant_id", handle))
	return nil
}
