package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/indran-jediteck/shop-lynk-ai/internal/shopify"
)

const (
	tenantsCollection  = "ShopifyStore"
	productsCollection = "Shopify_Products"
)

// Config holds MongoDB connection configuration.
type Config struct {
	// URI is the MongoDB connection string.
	URI string

	// Database is the database name.
	// Default: "lynk_db"
	Database string

	// ConnectTimeout bounds the initial connection attempt.
	// Default: 10s
	ConnectTimeout time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Database == "" {
		c.Database = "lynk_db"
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("%w: URI is required", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.URI, "mongodb") {
		return fmt.Errorf("%w: URI must start with mongodb", ErrInvalidConfig)
	}
	return nil
}

// MongoRepository implements Repository on MongoDB.
type MongoRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoRepository connects to MongoDB and verifies the connection.
func NewMongoRepository(ctx context.Context, config Config, logger *zap.Logger) (*MongoRepository, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	connectCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %v", ErrConnectionFailed, err)
	}

	logger.Info("connected to mongodb", zap.String("database", config.Database))

	return &MongoRepository{
		client: client,
		db:     client.Database(config.Database),
		logger: logger,
	}, nil
}

func (r *MongoRepository) FindTenant(ctx context.Context, domain string) (*TenantRecord, error) {
	var record TenantRecord
	err := r.db.Collection(tenantsCollection).
		FindOne(ctx, bson.M{"shopify_domain": domain}).
		Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, domain)
	}
	if err != nil {
		return nil, fmt.Errorf("finding tenant %s: %w", domain, err)
	}
	return &record, nil
}

func (r *MongoRepository) SeedTenant(ctx context.Context, shop shopify.ShopMeta, accessToken string) error {
	tenants := r.db.Collection(tenantsCollection)
	domain := shop.MyshopifyDomain
	storeID := strings.TrimSuffix(domain, ".myshopify.com")
	now := time.Now()

	err := tenants.FindOne(ctx, bson.M{"shopify_domain": domain},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()

	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		r.logger.Info("new installation, running one-time setup", zap.String("shop", domain))

		createdAt := now
		if t, perr := time.Parse(time.RFC3339, shop.CreatedAt); perr == nil {
			createdAt = t
		}

		_, err = tenants.UpdateOne(ctx,
			bson.M{"shopify_domain": domain},
			bson.M{"$set": bson.M{
				"store_id":       storeID,
				"store_name":     shop.Name,
				"shopify_domain": domain,
				"email":          shop.Email,
				"phone":          shop.Phone,
				"country":        shop.Country,
				"province":       shop.Province,
				"city":           shop.City,
				"zip":            shop.Zip,
				"address1":       shop.Address1,
				"address2":       shop.Address2,
				"currency":       shop.Currency,
				"timezone":       shop.IANATimezone,
				"storefront_url": fmt.Sprintf("https://www.%s.com", storeID),
				"access_token":   accessToken,
				"sync_config": bson.M{
					"enabled":        true,
					"last_sync":      now,
					"sync_frequency": "daily",
				},
				"ai_config": bson.M{
					"enabled":  false,
					"model":    "default",
					"features": bson.A{},
				},
				"branding": bson.M{
					"logo_url":      "https://cdn.jcsfashions.com/logo.png",
					"primary_color": "#B71C1C",
					"support_email": shop.Email,
					"timezone":      shop.IANATimezone,
				},
				"payment_config": bson.M{
					"currency":           shop.Currency,
					"checkout_type":      "Shopify",
					"price_includes_tax": shop.TaxesIncluded,
				},
				"compliance": bson.M{
					"gdpr":                true,
					"data_retention_days": 90,
				},
				"status":     "active",
				"created_at": createdAt,
				"updated_at": now,
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seeding tenant %s: %w", domain, err)
		}
		return nil

	case err != nil:
		return fmt.Errorf("looking up tenant %s: %w", domain, err)

	default:
		r.logger.Info("refreshing existing tenant", zap.String("shop", domain))

		_, err = tenants.UpdateOne(ctx,
			bson.M{"shopify_domain": domain},
			bson.M{"$set": bson.M{
				"access_token":                      accessToken,
				"status":                            "active",
				"updated_at":                        now,
				"store_name":                        shop.Name,
				"branding.support_email":            shop.Email,
				"branding.timezone":                 shop.IANATimezone,
				"payment_config.currency":           shop.Currency,
				"payment_config.price_includes_tax": shop.TaxesIncluded,
			}},
		)
		if err != nil {
			return fmt.Errorf("refreshing tenant %s: %w", domain, err)
		}
		return nil
	}
}

func (r *MongoRepository) RecordAgentCreated(ctx context.Context, domain, assistantID string) error {
	now := time.Now()
	res, err := r.db.Collection(tenantsCollection).UpdateOne(ctx,
		bson.M{"shopify_domain": domain},
		bson.M{
			"$set": bson.M{
				"openai_assistant_id": assistantID,
				"agents_enabled":      true,
				"deleted":             false,
				"last_agent_activity": now,
			},
			"$push": bson.M{
				"agents": AgentEntry{
					AssistantID: assistantID,
					Status:      StatusActive,
					CreatedAt:   now,
				},
			},
		},
	)
	if err != nil {
		return fmt.Errorf("recording agent for %s: %w", domain, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("recording agent for %s: %w", domain, ErrTenantNotFound)
	}
	return nil
}

func (r *MongoRepository) MarkAgentPaused(ctx context.Context, domain, assistantID string) error {
	now := time.Now()
	_, err := r.db.Collection(tenantsCollection).UpdateOne(ctx,
		bson.M{
			"shopify_domain":             domain,
			"agents.openai_assistant_id": assistantID,
		},
		bson.M{"$set": bson.M{
			"agents_enabled":      false,
			"last_agent_activity": now,
			"agents.$.status":     StatusPaused,
			"agents.$.paused_at":  now,
		}},
	)
	if err != nil {
		return fmt.Errorf("pausing agent for %s: %w", domain, err)
	}
	return nil
}

func (r *MongoRepository) MarkAgentDeleted(ctx context.Context, domain, assistantID string) error {
	now := time.Now()
	_, err := r.db.Collection(tenantsCollection).UpdateOne(ctx,
		bson.M{
			"shopify_domain":             domain,
			"agents.openai_assistant_id": assistantID,
		},
		bson.M{"$set": bson.M{
			"agents_enabled":      false,
			"deleted":             true,
			"deletedAt":           now,
			"last_agent_activity": now,
			"agents.$.status":     StatusDeleted,
			"agents.$.deleted_at": now,
		}},
	)
	if err != nil {
		return fmt.Errorf("deleting agent for %s: %w", domain, err)
	}
	return nil
}

func (r *MongoRepository) DeleteProductsForTenant(ctx context.Context, domain string) (int64, error) {
	result, err := r.db.Collection(productsCollection).DeleteMany(ctx, bson.M{"store_id": domain})
	if err != nil {
		return 0, fmt.Errorf("deleting products for %s: %w", domain, err)
	}
	return result.DeletedCount, nil
}

func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
