package store

import (
	"context"
	"errors"

	"github.com/indran-jediteck/shop-lynk-ai/internal/shopify"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the database is unreachable.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrTenantNotFound indicates no tenant document exists for the domain.
	ErrTenantNotFound = errors.New("tenant not found")
)

// Repository is the persistence surface for tenant lifecycle state.
type Repository interface {
	// FindTenant returns the tenant document for the given myshopify domain,
	// or ErrTenantNotFound.
	FindTenant(ctx context.Context, domain string) (*TenantRecord, error)

	// SeedTenant upserts the tenant document at install time. For a new
	// domain it writes the full one-time document; for an existing one it
	// refreshes only the volatile fields and leaves agent state untouched.
	SeedTenant(ctx context.Context, shop shopify.ShopMeta, accessToken string) error

	// RecordAgentCreated appends a new active agents entry and enables the
	// tenant's assistant in the same update.
	RecordAgentCreated(ctx context.Context, domain, assistantID string) error

	// MarkAgentPaused sets the matching agents entry to paused and disables
	// the tenant's assistant.
	MarkAgentPaused(ctx context.Context, domain, assistantID string) error

	// MarkAgentDeleted sets the matching agents entry to deleted and marks
	// the tenant deleted.
	MarkAgentDeleted(ctx context.Context, domain, assistantID string) error

	// DeleteProductsForTenant removes the tenant's cached catalog documents
	// and returns how many were deleted.
	DeleteProductsForTenant(ctx context.Context, domain string) (int64, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
