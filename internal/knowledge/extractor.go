// Package knowledge gathers a store's metadata, policies, collections and
// product catalog into a single bundle ready for embedding.
package knowledge

import (
	"context"

	"go.uber.org/zap"

	"github.com/indran-jediteck/shop-lynk-ai/internal/shopify"
)

const (
	// collectionPageSize bounds the single collections request. Collections
	// beyond this bound are not included in the bundle.
	collectionPageSize = 150

	// productPageSize is the page size for catalog pagination.
	productPageSize = 100
)

// Extractor builds KnowledgeBundles from the Admin API.
type Extractor struct {
	client *shopify.Client
	logger *zap.Logger
}

// NewExtractor creates an Extractor using the given Admin API client.
func NewExtractor(client *shopify.Client, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{client: client, logger: logger}
}

// Extract gathers shop metadata, policies, collections and the full product
// catalog for the session's store. Any sub-fetch failure aborts the whole
// extraction; there is no partial bundle.
//
// Product pages are fetched strictly in cursor order since each page's
// cursor comes from the previous response.
func (e *Extractor) Extract(ctx context.Context, sess shopify.Session) (*Bundle, error) {
	shop, err := e.client.GetShop(ctx, sess)
	if err != nil {
		return nil, err
	}

	policies, err := e.client.GetPolicies(ctx, sess)
	if err != nil {
		return nil, err
	}

	collections, err := e.client.GetCollections(ctx, sess, collectionPageSize)
	if err != nil {
		return nil, err
	}

	var products []shopify.Product
	cursor := ""
	for {
		page, err := e.client.GetProductsPage(ctx, sess, productPageSize, cursor)
		if err != nil {
			return nil, err
		}
		products = append(products, page.Products...)
		if !page.HasNext || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	e.logger.Info("extracted store knowledge",
		zap.String("shop", sess.Shop),
		zap.Int("policies", len(policies)),
		zap.Int("collections", len(collections)),
		zap.Int("products", len(products)),
	)

	return &Bundle{
		Shop:        *shop,
		Policies:    policies,
		Collections: collections,
		Products:    products,
	}, nil
}
