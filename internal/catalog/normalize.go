package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mkovardin/shopfront/internal/models"
)

// Normalize converts a loosely-typed scraped record into a Product.
// Scraper output is inconsistent: prices arrive as numbers or strings
// ("$39.99"), publishAt as RFC3339, date-only or unix seconds, images
// as a string or an array. Absent publish means published.
func Normalize(raw map[string]any, fallbackSlug string) (*models.Product, error) {
	p := &models.Product{
		Slug:    strOf(raw, "slug"),
		ASIN:    strOf(raw, "asin"),
		Title:   strOf(raw, "title"),
		Publish: true,
	}
	if p.Slug == "" {
		p.Slug = fallbackSlug
	}
	if p.Title == "" {
		p.Title = strOf(raw, "name")
	}
	if p.Title == "" {
		return nil, fmt.Errorf("record %q has no title", p.Slug)
	}

	p.Description = strOf(raw, "description")
	p.AmazonURL = firstStr(raw, "amazon_url", "amazonUrl", "url")
	if p.AmazonURL == "" && p.ASIN != "" {
		p.AmazonURL = "https://www.amazon.com/dp/" + p.ASIN
	}
	if p.AmazonURL == "" {
		return nil, fmt.Errorf("record %q has no amazon url or asin", p.Slug)
	}

	p.Price = floatOf(firstVal(raw, "price", "current_price"))
	p.Currency = strOf(raw, "currency")
	p.Rating = floatOf(raw["rating"])
	p.Reviews = int(floatOf(firstVal(raw, "reviews", "review_count", "reviewCount")))

	p.Images = strListOf(firstVal(raw, "images", "image"))
	p.Categories = strListOf(firstVal(raw, "categories", "category"))

	if attrs, ok := raw["attributes"].(map[string]any); ok {
		p.Attributes = make(map[string]string, len(attrs))
		for k, v := range attrs {
			p.Attributes[k] = stringify(v)
		}
	} else if specs, ok := raw["specs"].(map[string]any); ok {
		p.Attributes = make(map[string]string, len(specs))
		for k, v := range specs {
			p.Attributes[k] = stringify(v)
		}
	}

	if v, ok := raw["publish"]; ok {
		if b, ok := v.(bool); ok {
			p.Publish = b
		}
	}
	if t := timeOf(firstVal(raw, "publish_at", "publishAt")); t != nil {
		p.PublishAt = t
	}
	if t := timeOf(firstVal(raw, "updated_at", "updatedAt")); t != nil {
		p.UpdatedAt = t
	}

	return p, nil
}

// NormalizeCategory applies the same loose-typing rules to a category
// record. Missing publish means published.
func NormalizeCategory(raw map[string]any) models.Category {
	c := models.Category{
		ID:          strOf(raw, "id"),
		Slug:        strOf(raw, "slug"),
		Name:        strOf(raw, "name"),
		Description: strOf(raw, "description"),
		Compare:     strListOf(firstVal(raw, "compare", "compare_columns")),
		Publish:     true,
	}
	if c.ID == "" {
		c.ID = c.Slug
	}
	if c.Slug == "" {
		c.Slug = c.ID
	}
	if c.Name == "" {
		c.Name = c.Slug
	}
	if v, ok := raw["publish"]; ok {
		if b, ok := v.(bool); ok {
			c.Publish = b
		}
	}
	if t := timeOf(firstVal(raw, "publish_at", "publishAt")); t != nil {
		c.PublishAt = t
	}
	return c
}

func strOf(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}

func firstStr(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := strOf(raw, k); s != "" {
			return s
		}
	}
	return ""
}

func firstVal(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// floatOf coerces scraped numeric values: JSON numbers come through
// as float64, prices often as strings with currency noise.
func floatOf(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		cleaned := strings.TrimSpace(n)
		cleaned = strings.TrimLeft(cleaned, "$€£ ")
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func strListOf(v any) []string {
	switch x := v.(type) {
	case string:
		if x = strings.TrimSpace(x); x != "" {
			return []string{x}
		}
	case []any:
		var out []string
		for _, e := range x {
			if s, ok := e.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	case []string:
		return x
	}
	return nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// timeOf parses the publishAt variants the scraper emits.
func timeOf(v any) *time.Time {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t
			}
		}
		// unix seconds as a string
		if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
			t := time.Unix(sec, 0).UTC()
			return &t
		}
	case float64:
		if x <= 0 {
			return nil
		}
		t := time.Unix(int64(x), 0).UTC()
		return &t
	}
	return nil
}
