package shopify

// Session identifies an authenticated store: the myshopify domain plus the
// offline access token issued at install time.
type Session struct {
	Shop        string
	AccessToken string
}

// ShopMeta is the store metadata returned by the Admin REST shop endpoint.
type ShopMeta struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Country         string `json:"country"`
	Province        string `json:"province"`
	City            string `json:"city"`
	Zip             string `json:"zip"`
	Address1        string `json:"address1"`
	Address2        string `json:"address2"`
	MyshopifyDomain string `json:"myshopify_domain"`
	PlanDisplayName string `json:"plan_display_name"`
	Currency        string `json:"currency"`
	IANATimezone    string `json:"iana_timezone"`
	TaxesIncluded   bool   `json:"taxes_included"`
	CreatedAt       string `json:"created_at"`
}

// Policy is a store policy (refund, privacy, terms of service, ...).
// Body is raw HTML as returned by the API.
type Policy struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Collection is a product collection as returned by the Admin GraphQL API.
type Collection struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Handle    string `json:"handle"`
	UpdatedAt string `json:"updatedAt"`
}

// Variant is a purchasable variation of a product.
type Variant struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	SKU               string `json:"sku"`
	Price             string `json:"price"`
	InventoryQuantity int    `json:"inventoryQuantity"`
}

// Product is a catalog product as returned by the Admin GraphQL API.
// BodyHTML is the raw HTML description.
type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	BodyHTML    string    `json:"bodyHtml"`
	Handle      string    `json:"handle"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"productType"`
	Status      string    `json:"status"`
	Tags        []string  `json:"tags"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
	Variants    []Variant `json:"variants"`
}

// ProductsPage is one page of the cursor-paginated product catalog.
type ProductsPage struct {
	Products []Product

	// NextCursor is the cursor of the last product on this page, used as the
	// "after" argument of the next request. Empty when the page is empty.
	NextCursor string

	// HasNext reports whether the API has more pages after this one.
	HasNext bool
}
