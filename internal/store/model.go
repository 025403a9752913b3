// Package store persists tenant lifecycle state in MongoDB.
package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Agent lifecycle statuses.
const (
	StatusActive  = "active"
	StatusPaused  = "paused"
	StatusDeleted = "deleted"
)

// AgentEntry is one element of a tenant's agents history. Entries are
// append-only; lifecycle transitions update an entry in place but never
// remove it.
type AgentEntry struct {
	AssistantID string     `bson:"openai_assistant_id" json:"openai_assistant_id"`
	Status      string     `bson:"status" json:"status"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	PausedAt    *time.Time `bson:"paused_at,omitempty" json:"paused_at,omitempty"`
	DeletedAt   *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// SyncConfig controls catalog synchronization for a tenant.
type SyncConfig struct {
	Enabled       bool      `bson:"enabled" json:"enabled"`
	LastSync      time.Time `bson:"last_sync" json:"last_sync"`
	SyncFrequency string    `bson:"sync_frequency" json:"sync_frequency"`
}

// AIConfig holds per-tenant assistant settings.
type AIConfig struct {
	Enabled  bool     `bson:"enabled" json:"enabled"`
	Model    string   `bson:"model" json:"model"`
	Features []string `bson:"features" json:"features"`
}

// Branding holds storefront widget branding.
type Branding struct {
	LogoURL      string `bson:"logo_url" json:"logo_url"`
	PrimaryColor string `bson:"primary_color" json:"primary_color"`
	SupportEmail string `bson:"support_email" json:"support_email"`
	Timezone     string `bson:"timezone" json:"timezone"`
}

// PaymentConfig describes checkout behavior.
type PaymentConfig struct {
	Currency         string `bson:"currency" json:"currency"`
	CheckoutType     string `bson:"checkout_type" json:"checkout_type"`
	PriceIncludesTax bool   `bson:"price_includes_tax" json:"price_includes_tax"`
}

// Compliance holds data-handling settings.
type Compliance struct {
	GDPR              bool `bson:"gdpr" json:"gdpr"`
	DataRetentionDays int  `bson:"data_retention_days" json:"data_retention_days"`
}

// TenantRecord is one tenant document, keyed by the shop's myshopify domain.
type TenantRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	StoreID        string             `bson:"store_id" json:"store_id"`
	StoreName      string             `bson:"store_name" json:"store_name"`
	ShopifyDomain  string             `bson:"shopify_domain" json:"shopify_domain"`
	Email          string             `bson:"email" json:"email"`
	Phone          string             `bson:"phone" json:"phone"`
	Country        string             `bson:"country" json:"country"`
	Province       string             `bson:"province" json:"province"`
	City           string             `bson:"city" json:"city"`
	Zip            string             `bson:"zip" json:"zip"`
	Address1       string             `bson:"address1" json:"address1"`
	Address2       string             `bson:"address2" json:"address2"`
	Currency       string             `bson:"currency" json:"currency"`
	Timezone       string             `bson:"timezone" json:"timezone"`
	StorefrontURL  string             `bson:"storefront_url" json:"storefront_url"`
	AccessToken    string             `bson:"access_token" json:"-"`
	SyncConfig     SyncConfig         `bson:"sync_config" json:"sync_config"`
	AIConfig       AIConfig           `bson:"ai_config" json:"ai_config"`
	Branding       Branding           `bson:"branding" json:"branding"`
	PaymentConfig  PaymentConfig      `bson:"payment_config" json:"payment_config"`
	Compliance     Compliance         `bson:"compliance" json:"compliance"`
	Status         string             `bson:"status" json:"status"`
	AssistantID    string             `bson:"openai_assistant_id,omitempty" json:"openai_assistant_id,omitempty"`
	AgentsEnabled  bool               `bson:"agents_enabled" json:"agents_enabled"`
	Deleted        bool               `bson:"deleted" json:"deleted"`
	DeletedAt      *time.Time         `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	LastActivityAt *time.Time         `bson:"last_agent_activity,omitempty" json:"last_agent_activity,omitempty"`
	Agents         []AgentEntry       `bson:"agents" json:"agents"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// SelectLatestByStatus returns the entry with the given status that has the
// most recent created_at, or nil when no entry matches. Ties keep the later
// element, matching append order.
func SelectLatestByStatus(entries []AgentEntry, status string) *AgentEntry {
	var latest *AgentEntry
	for i := range entries {
		if entries[i].Status != status {
			continue
		}
		if latest == nil || !entries[i].CreatedAt.Before(latest.CreatedAt) {
			latest = &entries[i]
		}
	}
	return latest
}
