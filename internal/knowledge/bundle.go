package knowledge

import (
	"strings"

	"github.com/indran-jediteck/shop-lynk-ai/internal/shopify"
)

// Bundle is the structured store knowledge assembled for one provisioning
// cycle. It is never persisted as-is; only the chunks derived from its
// canonical text reach the vector index.
type Bundle struct {
	Shop        shopify.ShopMeta
	Policies    []shopify.Policy
	Collections []shopify.Collection
	Products    []shopify.Product
}

// CanonicalText serializes the bundle into the composite text block fed to
// the chunker. The section order is fixed (shop summary, policies,
// collection titles, products) so an unchanged bundle always serializes to
// identical text, keeping re-ingestion deterministic.
//
// HTML-bearing fields (policy bodies, product descriptions) are stripped of
// markup tags; HTML entities are left encoded.
func (b *Bundle) CanonicalText() string {
	var sb strings.Builder

	sb.WriteString("Shop Name: " + b.Shop.Name + "\n")
	sb.WriteString("Plan: " + b.Shop.PlanDisplayName + "\n")
	sb.WriteString("Currency: " + b.Shop.Currency + "\n")
	sb.WriteString("Timezone: " + b.Shop.IANATimezone + "\n")

	sb.WriteString("\nPolicies:\n")
	for i, p := range b.Policies {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(p.Title + ":\n")
		sb.WriteString(shopify.StripHTML(p.Body) + "\n")
	}

	sb.WriteString("\nCollections:\n")
	titles := make([]string, 0, len(b.Collections))
	for _, c := range b.Collections {
		titles = append(titles, c.Title)
	}
	sb.WriteString(strings.Join(titles, ", ") + "\n")

	sb.WriteString("\nTop Products:\n")
	for i, p := range b.Products {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Title: " + p.Title + "\n")
		sb.WriteString("Description: " + shopify.StripHTML(p.BodyHTML) + "\n")
		sb.WriteString("Tags: " + strings.Join(p.Tags, ", ") + "\n")
	}

	return sb.String()
}
