package render

import (
	"encoding/json"
	"html/template"
	"strings"

	"github.com/mkovardin/shopfront/internal/config"
	"github.com/mkovardin/shopfront/internal/models"
)

const descriptionLimit = 160

// Meta carries the SEO head data for a page.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	OGType      string
	OGImage     string
	JSONLD      template.JS
}

// HomeMeta builds head metadata for the homepage.
func HomeMeta(site *config.Site) Meta {
	return Meta{
		Title:       site.Name,
		Description: clip(site.Description),
		Canonical:   site.BaseURL + "/",
		OGType:      "website",
	}
}

// CategoryMeta builds head metadata for a category listing.
func CategoryMeta(site *config.Site, c *models.Category) Meta {
	desc := c.Description
	if desc == "" {
		desc = c.Name + " — " + site.Name
	}
	return Meta{
		Title:       c.Name + " | " + site.Name,
		Description: clip(desc),
		Canonical:   site.BaseURL + "/c/" + c.Slug,
		OGType:      "website",
	}
}

// ProductMeta builds head metadata plus schema.org Product JSON-LD.
func ProductMeta(site *config.Site, p *models.Product) Meta {
	m := Meta{
		Title:       p.Title + " | " + site.Name,
		Description: clip(p.Description),
		Canonical:   site.BaseURL + "/p/" + p.Slug,
		OGType:      "product",
	}
	if len(p.Images) > 0 {
		m.OGImage = p.Images[0]
	}

	currency := p.Currency
	if currency == "" {
		currency = site.Currency
	}
	ld := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Product",
		"name":        p.Title,
		"description": p.Description,
		"sku":         p.ASIN,
		"image":       p.Images,
		"offers": map[string]any{
			"@type":         "Offer",
			"price":         p.Price,
			"priceCurrency": currency,
			"availability":  "https://schema.org/InStock",
			"url":           m.Canonical,
		},
	}
	if p.Rating > 0 && p.Reviews > 0 {
		ld["aggregateRating"] = map[string]any{
			"@type":       "AggregateRating",
			"ratingValue": p.Rating,
			"reviewCount": p.Reviews,
		}
	}
	if data, err := json.Marshal(ld); err == nil {
		m.JSONLD = template.JS(data)
	}
	return m
}

// CheckoutMeta builds head metadata for the checkout hand-off page.
func CheckoutMeta(site *config.Site) Meta {
	return Meta{
		Title:       "Checkout | " + site.Name,
		Description: "Complete your purchase on Amazon.",
		Canonical:   site.BaseURL + "/checkout",
		OGType:      "website",
	}
}

// clip trims a description to the meta length Google actually shows.
func clip(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= descriptionLimit {
		return s
	}
	cut := strings.LastIndex(s[:descriptionLimit], " ")
	if cut <= 0 {
		cut = descriptionLimit
	}
	return s[:cut] + "…"
}
