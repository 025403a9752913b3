package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:           srv.URL,
		RequestsPerSecond: 1000, // no throttling in tests
	}, zap.NewNop())
}

func TestGetShop(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2023-10/shop.json", r.URL.Path)
		assert.Equal(t, "tok-1", r.Header.Get("X-Shopify-Access-Token"))
		fmt.Fprint(w, `{"shop":{"name":"JCS Fashions","plan_display_name":"Basic","currency":"USD","iana_timezone":"America/New_York","myshopify_domain":"shop-a.myshopify.com"}}`)
	}))

	shop, err := client.GetShop(context.Background(), Session{Shop: "shop-a.myshopify.com", AccessToken: "tok-1"})
	require.NoError(t, err)
	assert.Equal(t, "JCS Fashions", shop.Name)
	assert.Equal(t, "Basic", shop.PlanDisplayName)
	assert.Equal(t, "USD", shop.Currency)
	assert.Equal(t, "America/New_York", shop.IANATimezone)
}

func TestGetShopError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))

	_, err := client.GetShop(context.Background(), Session{Shop: "shop-a.myshopify.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)

	var fetchError *FetchError
	require.ErrorAs(t, err, &fetchError)
	assert.Equal(t, "shop", fetchError.Resource)
	assert.Equal(t, http.StatusUnauthorized, fetchError.StatusCode)
}

func TestGetPolicies(t *testing.T) {
	t.Run("returns policies", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/admin/api/2023-10/policies.json", r.URL.Path)
			fmt.Fprint(w, `{"policies":[{"title":"Refund policy","body":"<p>30 days</p>"},{"title":"Privacy policy","body":"<p>We care</p>"}]}`)
		}))

		policies, err := client.GetPolicies(context.Background(), Session{Shop: "shop-a.myshopify.com"})
		require.NoError(t, err)
		require.Len(t, policies, 2)
		assert.Equal(t, "Refund policy", policies[0].Title)
		assert.Equal(t, "<p>30 days</p>", policies[0].Body)
	})

	t.Run("empty list for stores without policies", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"policies":[]}`)
		}))

		policies, err := client.GetPolicies(context.Background(), Session{Shop: "shop-a.myshopify.com"})
		require.NoError(t, err)
		assert.Empty(t, policies)
	})
}

func TestGetCollections(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2023-10/graphql.json", r.URL.Path)

		var body struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body.Query, "collections(first: 150)")

		fmt.Fprint(w, `{"data":{"collections":{"edges":[
			{"node":{"id":"gid://shopify/Collection/1","title":"Sarees","handle":"sarees","updatedAt":"2024-01-01T00:00:00Z"}},
			{"node":{"id":"gid://shopify/Collection/2","title":"Lehengas","handle":"lehengas","updatedAt":"2024-01-02T00:00:00Z"}}
		]}}}`)
	}))

	collections, err := client.GetCollections(context.Background(), Session{Shop: "shop-a.myshopify.com"}, 150)
	require.NoError(t, err)
	require.Len(t, collections, 2)
	assert.Equal(t, "Sarees", collections[0].Title)
	assert.Equal(t, "lehengas", collections[1].Handle)
}

func TestGetProductsPage(t *testing.T) {
	t.Run("first page with cursor", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Query string `json:"query"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Contains(t, body.Query, "products(first: 100)")
			assert.NotContains(t, body.Query, "after:")

			fmt.Fprint(w, `{"data":{"products":{
				"pageInfo":{"hasNextPage":true},
				"edges":[
					{"cursor":"cur-1","node":{"id":"gid://shopify/Product/1","title":"Red Saree","bodyHtml":"<b>Silk</b>","tags":["silk","red"],
						"variants":{"edges":[{"node":{"id":"gid://shopify/ProductVariant/11","title":"Default","sku":"RS-1","price":"129.00","inventoryQuantity":4}}]}}},
					{"cursor":"cur-2","node":{"id":"gid://shopify/Product/2","title":"Blue Saree","bodyHtml":"","tags":[],"variants":{"edges":[]}}}
				]}}}`)
		}))

		page, err := client.GetProductsPage(context.Background(), Session{Shop: "shop-a.myshopify.com"}, 100, "")
		require.NoError(t, err)
		require.Len(t, page.Products, 2)
		assert.True(t, page.HasNext)
		assert.Equal(t, "cur-2", page.NextCursor)
		assert.Equal(t, "Red Saree", page.Products[0].Title)
		require.Len(t, page.Products[0].Variants, 1)
		assert.Equal(t, "129.00", page.Products[0].Variants[0].Price)
	})

	t.Run("subsequent page passes cursor", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Query string `json:"query"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Contains(t, body.Query, `after: "cur-2"`)

			fmt.Fprint(w, `{"data":{"products":{"pageInfo":{"hasNextPage":false},"edges":[]}}}`)
		}))

		page, err := client.GetProductsPage(context.Background(), Session{Shop: "shop-a.myshopify.com"}, 100, "cur-2")
		require.NoError(t, err)
		assert.Empty(t, page.Products)
		assert.False(t, page.HasNext)
	})

	t.Run("graphql errors become fetch errors", func(t *testing.T) {
		client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"errors":[{"message":"Throttled"}]}`)
		}))

		_, err := client.GetProductsPage(context.Background(), Session{Shop: "shop-a.myshopify.com"}, 100, "")
		require.Error(t, err)

		var fetchError *FetchError
		require.ErrorAs(t, err, &fetchError)
		assert.Equal(t, "products", fetchError.Resource)
		assert.Contains(t, fetchError.Error(), "Throttled")
	})
}

func TestStripHTML(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text untouched", "just text", "just text"},
		{"simple tags", "<p>30 day returns</p>", "30 day returns"},
		{"nested tags", "<div><b>Silk</b> saree</div>", "Silk saree"},
		{"attributes", `<a href="https://x.test">link</a>`, "link"},
		// Entities are intentionally left encoded.
		{"entities preserved", "Tom &amp; Jerry", "Tom &amp; Jerry"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripHTML(tc.in))
		})
	}
}

func TestFetchErrorMessage(t *testing.T) {
	err := fetchErr("policies", 500, fmt.Errorf("boom"))
	assert.True(t, strings.Contains(err.Error(), "policies"))
	assert.True(t, strings.Contains(err.Error(), "500"))
}

func TestFetchErrorUnwrapping(t *testing.T) {
	err := fetchErr("products", 0, fmt.Errorf("request failed: %w", context.Canceled))

	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, context.Canceled)

	var fe *FetchError
	require.ErrorAs(t, error(err), &fe)
	assert.Equal(t, "products", fe.Resource)
}
