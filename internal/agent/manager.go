// Package agent orchestrates the tenant assistant lifecycle: creation runs
// the knowledge pipeline end to end, pause and delete act on the latest
// active agents entry.
package agent

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/indran-jediteck/shop-lynk-ai/internal/embeddings"
	"github.com/indran-jediteck/shop-lynk-ai/internal/ingest"
	"github.com/indran-jediteck/shop-lynk-ai/internal/knowledge"
	"github.com/indran-jediteck/shop-lynk-ai/internal/shopify"
	"github.com/indran-jediteck/shop-lynk-ai/internal/store"
	"github.com/indran-jediteck/shop-lynk-ai/internal/vectorstore"
)

var tracer = otel.Tracer("shop-lynk-ai.agent")

// purgeTopK bounds how many vector IDs a single teardown collects. Matches
// the partition size ceiling of the ingest pipeline in practice.
const purgeTopK = 1000

// Extractor pulls a tenant's knowledge bundle from the source store.
type Extractor interface {
	Extract(ctx context.Context, sess shopify.Session) (*knowledge.Bundle, error)
}

// Embedder writes a bundle's chunked embeddings into the vector index.
type Embedder interface {
	Embed(ctx context.Context, shop string, bundle *knowledge.Bundle) (int, error)
}

// Provisioner creates and deletes assistants with the AI provider.
type Provisioner interface {
	Provision(ctx context.Context, shopName string) (string, error)
	Deprovision(ctx context.Context, handle string) error
}

// Manager drives agent lifecycle transitions for tenants.
type Manager struct {
	extractor   Extractor
	embedder    Embedder
	provisioner Provisioner
	repo        store.Repository
	index       vectorstore.Index
	logger      *zap.Logger
}

// NewManager creates a Manager.
func NewManager(
	extractor Extractor,
	embedder Embedder,
	provisioner Provisioner,
	repo store.Repository,
	index vectorstore.Index,
	logger *zap.Logger,
) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		extractor:   extractor,
		embedder:    embedder,
		provisioner: provisioner,
		repo:        repo,
		index:       index,
		logger:      logger,
	}
}

// Create provisions a new agent for the tenant: extract the knowledge
// bundle, seed the tenant document with the store details, embed the
// bundle into the tenant's vector partition, create the assistant, then
// record the new active agents entry. Any stage failure aborts before the
// agents entry is written, so a failed create never leaves a
// half-registered agent.
func (m *Manager) Create(ctx context.Context, sess shopify.Session) (string, error) {
	ctx, span := tracer.Start(ctx, "agent.create")
	defer span.End()
	span.SetAttributes(attribute.String("shop", sess.Shop))

	bundle, err := m.extractor.Extract(ctx, sess)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return "", fmt.Errorf("extracting store knowledge: %w", err)
	}

	// Upsert the tenant document before any agent state is written, so a
	// store seen for the first time has a document for RecordAgentCreated
	// to match.
	if err := m.repo.SeedTenant(ctx, bundle.Shop, sess.AccessToken); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seeding failed")
		return "", fmt.Errorf("seeding tenant record: %w", err)
	}

	written, err := m.embedder.Embed(ctx, sess.Shop, bundle)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return "", fmt.Errorf("embedding store context: %w", err)
	}
	m.logger.Info("embedded store context",
		zap.String("shop", sess.Shop),
		zap.Int("chunks", written),
	)

	assistantID, err := m.provisioner.Provision(ctx, bundle.Shop.Name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provisioning failed")
		return "", fmt.Errorf("provisioning assistant: %w", err)
	}

	if err := m.repo.RecordAgentCreated(ctx, sess.Shop, assistantID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recording failed")
		return "", fmt.Errorf("recording agent: %w", err)
	}

	m.logger.Info("created agent",
		zap.String("shop", sess.Shop),
		zap.String("assistant_id", assistantID),
	)
	span.SetStatus(codes.Ok, "")
	return assistantID, nil
}

// Pause marks the tenant's latest active agent paused and disables the
// assistant. A tenant with no active agent is a benign no-op.
func (m *Manager) Pause(ctx context.Context, sess shopify.Session) error {
	ctx, span := tracer.Start(ctx, "agent.pause")
	defer span.End()
	span.SetAttributes(attribute.String("shop", sess.Shop))

	record, err := m.repo.FindTenant(ctx, sess.Shop)
	if err != nil {
		if errors.Is(err, store.ErrTenantNotFound) {
			m.logger.Warn("pause requested for unknown tenant", zap.String("shop", sess.Shop))
			span.SetStatus(codes.Ok, "")
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return fmt.Errorf("loading tenant: %w", err)
	}

	active := store.SelectLatestByStatus(record.Agents, store.StatusActive)
	if active == nil {
		m.logger.Info("no active agent to pause", zap.String("shop", sess.Shop))
		span.SetStatus(codes.Ok, "")
		return nil
	}

	if err := m.repo.MarkAgentPaused(ctx, sess.Shop, active.AssistantID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pause failed")
		return fmt.Errorf("pausing agent: %w", err)
	}

	m.logger.Info("paused agent",
		zap.String("shop", sess.Shop),
		zap.String("assistant_id", active.AssistantID),
	)
	span.SetStatus(codes.Ok, "")
	return nil
}

// Delete tears down the tenant's latest active agent. A tenant with no
// active agent is a benign no-op, same as Pause. After the target is
// resolved, every teardown step runs best-effort: a failed step is logged
// and the remaining steps still execute, so one unavailable backend cannot
// wedge the whole teardown.
func (m *Manager) Delete(ctx context.Context, sess shopify.Session) error {
	ctx, span := tracer.Start(ctx, "agent.delete")
	defer span.End()
	span.SetAttributes(attribute.String("shop", sess.Shop))

	record, err := m.repo.FindTenant(ctx, sess.Shop)
	if err != nil {
		if errors.Is(err, store.ErrTenantNotFound) {
			m.logger.Warn("delete requested for unknown tenant", zap.String("shop", sess.Shop))
			span.SetStatus(codes.Ok, "")
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return fmt.Errorf("loading tenant: %w", err)
	}

	active := store.SelectLatestByStatus(record.Agents, store.StatusActive)
	if active == nil {
		m.logger.Info("no active agent to delete", zap.String("shop", sess.Shop))
		span.SetStatus(codes.Ok, "")
		return nil
	}
	assistantID := active.AssistantID
	m.logger.Info("deleting agent",
		zap.String("shop", sess.Shop),
		zap.String("assistant_id", assistantID),
	)

	m.purgeVectors(ctx, sess.Shop)

	if deleted, err := m.repo.DeleteProductsForTenant(ctx, sess.Shop); err != nil {
		m.logger.Error("failed to delete cached products", zap.String("shop", sess.Shop), zap.Error(err))
	} else {
		m.logger.Info("deleted cached products",
			zap.String("shop", sess.Shop),
			zap.Int64("count", deleted),
		)
	}

	if err := m.repo.MarkAgentDeleted(ctx, sess.Shop, assistantID); err != nil {
		m.logger.Error("failed to mark agent deleted", zap.String("shop", sess.Shop), zap.Error(err))
	}

	if err := m.provisioner.Deprovision(ctx, assistantID); err != nil {
		m.logger.Error("failed to delete assistant",
			zap.String("assistant_id", assistantID),
			zap.Error(err),
		)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// purgeVectors removes every vector in the tenant's partition. A probe
// query first reports whether the partition holds anything, then a wide
// query collects the IDs for deletion.
func (m *Manager) purgeVectors(ctx context.Context, shop string) {
	filter := ingest.TenantFilter(shop)
	probe := make([]float32, embeddings.VectorSize)

	matches, err := m.index.Query(ctx, vectorstore.Query{
		Vector: probe,
		TopK:   1,
		Filter: filter,
	})
	if err != nil {
		m.logger.Error("vector presence probe failed", zap.String("shop", shop), zap.Error(err))
	} else if len(matches) == 0 {
		m.logger.Info("no vectors found for store", zap.String("shop", shop))
		return
	}

	matches, err = m.index.Query(ctx, vectorstore.Query{
		Vector: probe,
		TopK:   purgeTopK,
		Filter: filter,
	})
	if err != nil {
		m.logger.Error("vector purge query failed", zap.String("shop", shop), zap.Error(err))
		return
	}
	if len(matches) == 0 {
		return
	}

	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, match.ID)
	}
	if err := m.index.DeleteMany(ctx, ids); err != nil {
		m.logger.Error("vector purge failed", zap.String("shop", shop), zap.Error(err))
		return
	}
	m.logger.Info("purged vectors", zap.String("shop", shop), zap.Int("count", len(ids)))
}
