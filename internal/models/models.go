package models

import "time"

// Product is the normalized form of a scraped catalog record.
type Product struct {
	Slug        string            `json:"slug"`
	ASIN        string            `json:"asin"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	AmazonURL   string            `json:"amazon_url"`
	Price       float64           `json:"price"`
	Currency    string            `json:"currency,omitempty"`
	Images      []string          `json:"images,omitempty"`
	Categories  []string          `json:"categories,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Rating      float64           `json:"rating,omitempty"`
	Reviews     int               `json:"reviews,omitempty"`
	Publish     bool              `json:"publish"`
	PublishAt   *time.Time        `json:"publish_at,omitempty"`
	UpdatedAt   *time.Time        `json:"updated_at,omitempty"`
}

// Visible reports whether the product falls inside its publish window.
func (p *Product) Visible(now time.Time) bool {
	if !p.Publish {
		return false
	}
	if p.PublishAt != nil && p.PublishAt.After(now) {
		return false
	}
	return true
}

type Category struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// Column labels for the category comparison table, matched
	// heuristically against product attribute keys.
	Compare   []string   `json:"compare,omitempty"`
	Publish   bool       `json:"publish"`
	PublishAt *time.Time `json:"publish_at,omitempty"`
}

func (c *Category) Visible(now time.Time) bool {
	if !c.Publish {
		return false
	}
	if c.PublishAt != nil && c.PublishAt.After(now) {
		return false
	}
	return true
}

// CartItem is what the client keeps in local storage: a product
// reference and a quantity, nothing priced.
type CartItem struct {
	Slug string `json:"slug"`
	Qty  int    `json:"qty"`
}

type CartState struct {
	Items []CartItem `json:"items"`
}

// PricedLine is a cart line repriced from the live catalog.
type PricedLine struct {
	Slug      string  `json:"slug"`
	Title     string  `json:"title"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

type PricedCart struct {
	ID        string       `json:"id"`
	Lines     []PricedLine `json:"lines"`
	Dropped   []string     `json:"dropped,omitempty"`
	ItemCount int          `json:"item_count"`
	Subtotal  float64      `json:"subtotal"`
	Currency  string       `json:"currency"`
}

// ComparisonTable is the display-ready result of matching column
// labels against product attributes. Rows align with Products.
type ComparisonTable struct {
	Columns  []string   `json:"columns"`
	Products []string   `json:"products"`
	Rows     [][]string `json:"rows"`
}

// ClickEvent is one outbound affiliate redirect.
type ClickEvent struct {
	ID         string    `json:"id"`
	Site       string    `json:"site"`
	Slug       string    `json:"slug"`
	ASIN       string    `json:"asin"`
	SubTag     string    `json:"sub_tag,omitempty"`
	Referrer   string    `json:"referrer,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ClickStats is the aggregate returned by the stats endpoint.
type ClickStats struct {
	TotalClicks int            `json:"total_clicks"`
	BySlug      map[string]int `json:"by_slug"`
	Since       time.Time      `json:"since"`
}

// PublishSweepResult reports what a publish-queue sweep changed.
type PublishSweepResult struct {
	Site      string   `json:"site"`
	Published []string `json:"published"`
	Pending   int      `json:"pending"`
	SweptAt   string   `json:"swept_at"`
}
