// Package shopify is a thin client for the Shopify Admin API: REST for shop
// metadata and policies, GraphQL for collections and the paginated product
// catalog.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultAPIVersion is the Admin API version used when none is configured.
const DefaultAPIVersion = "2023-10"

// Config holds configuration for the Admin API client.
type Config struct {
	// APIVersion is the Admin API version segment of every request path.
	// Default: "2023-10"
	APIVersion string

	// Timeout is the per-request HTTP timeout.
	// Default: 30s
	Timeout time.Duration

	// RequestsPerSecond caps the request rate. Shopify enforces leaky-bucket
	// throttling on the Admin API, so the client self-limits rather than
	// burning the bucket and retrying 429s.
	// Default: 2
	RequestsPerSecond float64

	// BaseURL overrides the per-shop https://{shop} base. Used by tests to
	// point the client at a local server.
	BaseURL string
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 2
	}
}

// Client calls the Shopify Admin API on behalf of a store session.
// Construct once and share; it is safe for concurrent use.
type Client struct {
	config  Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates an Admin API client.
func NewClient(config Config, logger *zap.Logger) *Client {
	config.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config:  config,
		http:    &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), int(config.RequestsPerSecond)*2),
		logger:  logger,
	}
}

func (c *Client) endpoint(shop, path string) string {
	base := c.config.BaseURL
	if base == "" {
		base = "https://" + shop
	}
	return fmt.Sprintf("%s/admin/api/%s/%s", base, c.config.APIVersion, path)
}

// GetShop fetches the store metadata.
func (c *Client) GetShop(ctx context.Context, sess Session) (*ShopMeta, error) {
	var body struct {
		Shop ShopMeta `json:"shop"`
	}
	if err := c.getJSON(ctx, sess, "shop", "shop.json", &body); err != nil {
		return nil, err
	}
	return &body.Shop, nil
}

// GetPolicies fetches the store's policies. Stores without policies return
// an empty list.
func (c *Client) GetPolicies(ctx context.Context, sess Session) ([]Policy, error) {
	var body struct {
		Policies []Policy `json:"policies"`
	}
	if err := c.getJSON(ctx, sess, "policies", "policies.json", &body); err != nil {
		return nil, err
	}
	return body.Policies, nil
}

// GetCollections fetches up to pageSize collections in a single request.
// Collections beyond that bound are not included; the bundle treats the
// collection list as a bounded sample, not a complete catalog.
func (c *Client) GetCollections(ctx context.Context, sess Session, pageSize int) ([]Collection, error) {
	query := fmt.Sprintf(`{
  collections(first: %d) {
    edges {
      node {
        id
        title
        handle
        updatedAt
      }
    }
  }
}`, pageSize)

	var data struct {
		Collections struct {
			Edges []struct {
				Node Collection `json:"node"`
			} `json:"edges"`
		} `json:"collections"`
	}
	if err := c.graphql(ctx, sess, "collections", query, &data); err != nil {
		return nil, err
	}

	collections := make([]Collection, 0, len(data.Collections.Edges))
	for _, edge := range data.Collections.Edges {
		collections = append(collections, edge.Node)
	}
	return collections, nil
}

// GetProductsPage fetches one page of the product catalog. Pass the previous
// page's NextCursor to advance; an empty cursor fetches the first page.
// Pagination is strictly sequential: each cursor comes from the prior page.
func (c *Client) GetProductsPage(ctx context.Context, sess Session, pageSize int, cursor string) (*ProductsPage, error) {
	after := ""
	if cursor != "" {
		after = fmt.Sprintf(`, after: %q`, cursor)
	}
	query := fmt.Sprintf(`{
  products(first: %d%s) {
    pageInfo {
      hasNextPage
    }
    edges {
      cursor
      node {
        id
        title
        bodyHtml
        handle
        vendor
        productType
        status
        tags
        createdAt
        updatedAt
        variants(first: 10) {
          edges {
            node {
              id
              title
              sku
              price
              inventoryQuantity
            }
          }
        }
      }
    }
  }
}`, pageSize, after)

	var data struct {
		Products struct {
			PageInfo struct {
				HasNextPage bool `json:"hasNextPage"`
			} `json:"pageInfo"`
			Edges []struct {
				Cursor string `json:"cursor"`
				Node   struct {
					Product
					Variants struct {
						Edges []struct {
							Node Variant `json:"node"`
						} `json:"edges"`
					} `json:"variants"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}
	if err := c.graphql(ctx, sess, "products", query, &data); err != nil {
		return nil, err
	}

	page := &ProductsPage{
		Products: make([]Product, 0, len(data.Products.Edges)),
		HasNext:  data.Products.PageInfo.HasNextPage,
	}
	for _, edge := range data.Products.Edges {
		product := edge.Node.Product
		product.Variants = make([]Variant, 0, len(edge.Node.Variants.Edges))
		for _, v := range edge.Node.Variants.Edges {
			product.Variants = append(product.Variants, v.Node)
		}
		page.Products = append(page.Products, product)
		page.NextCursor = edge.Cursor
	}
	return page, nil
}

// getJSON performs a rate-limited GET against a REST endpoint and decodes
// the response body into out.
func (c *Client) getJSON(ctx context.Context, sess Session, resource, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fetchErr(resource, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(sess.Shop, path), nil)
	if err != nil {
		return fetchErr(resource, 0, err)
	}
	req.Header.Set("X-Shopify-Access-Token", sess.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fetchErr(resource, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fetchErr(resource, resp.StatusCode, fmt.Errorf("%s", respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fetchErr(resource, 0, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// graphql performs a rate-limited Admin GraphQL request and decodes the
// "data" object into out. GraphQL-level errors are surfaced as FetchErrors
// even though the transport status is 200.
func (c *Client) graphql(ctx context.Context, sess Session, resource, query string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fetchErr(resource, 0, err)
	}

	reqBody, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return fetchErr(resource, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(sess.Shop, "graphql.json"), bytes.NewReader(reqBody))
	if err != nil {
		return fetchErr(resource, 0, err)
	}
	req.Header.Set("X-Shopify-Access-Token", sess.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fetchErr(resource, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fetchErr(resource, resp.StatusCode, fmt.Errorf("%s", respBody))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fetchErr(resource, 0, fmt.Errorf("decoding response: %w", err))
	}
	if len(envelope.Errors) > 0 {
		return fetchErr(resource, resp.StatusCode, fmt.Errorf("graphql: %s", envelope.Errors[0].Message))
	}
	if envelope.Data == nil {
		return fetchErr(resource, resp.StatusCode, fmt.Errorf("graphql: missing data"))
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fetchErr(resource, 0, fmt.Errorf("decoding data: %w", err))
	}

	c.logger.Debug("admin api request",
		zap.String("resource", resource),
		zap.String("shop", sess.Shop),
	)
	return nil
}
