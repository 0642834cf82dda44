package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkovardin/shopfront/internal/config"
	"github.com/mkovardin/shopfront/internal/models"
)

func testSite() *config.Site {
	return &config.Site{
		Name:         "Gadget Picks",
		BaseURL:      "https://gadgets.example.com",
		AffiliateTag: "gadgets-20",
		Currency:     "USD",
		Description:  "Hand-picked gadgets with honest reviews.",
	}
}

func TestProductMeta(t *testing.T) {
	p := &models.Product{
		Slug:        "usb-hub",
		ASIN:        "B01ABCDE",
		Title:       "7-Port USB Hub",
		Description: "A powered hub with seven ports.",
		Price:       34.99,
		Images:      []string{"https://img.example/1.jpg"},
		Rating:      4.5,
		Reviews:     321,
	}

	m := ProductMeta(testSite(), p)

	assert.Equal(t, "7-Port USB Hub | Gadget Picks", m.Title)
	assert.Equal(t, "https://gadgets.example.com/p/usb-hub", m.Canonical)
	assert.Equal(t, "product", m.OGType)
	assert.Equal(t, "https://img.example/1.jpg", m.OGImage)

	ld := string(m.JSONLD)
	assert.Contains(t, ld, `"@type":"Product"`)
	assert.Contains(t, ld, `"priceCurrency":"USD"`)
	assert.Contains(t, ld, `"price":34.99`)
	assert.Contains(t, ld, `"ratingValue":4.5`)
}

func TestProductMetaNoRating(t *testing.T) {
	p := &models.Product{Slug: "x", Title: "X", Price: 1}
	m := ProductMeta(testSite(), p)
	assert.NotContains(t, string(m.JSONLD), "aggregateRating")
}

func TestCategoryMetaFallbackDescription(t *testing.T) {
	m := CategoryMeta(testSite(), &models.Category{ID: "hubs", Slug: "hubs", Name: "USB Hubs"})
	assert.Equal(t, "USB Hubs — Gadget Picks", m.Description)
	assert.Equal(t, "https://gadgets.example.com/c/hubs", m.Canonical)
}

func TestClip(t *testing.T) {
	short := "short description"
	assert.Equal(t, short, clip(short))

	long := strings.Repeat("word ", 60)
	clipped := clip(long)
	assert.LessOrEqual(t, len(clipped), descriptionLimit+len("…"))
	assert.True(t, strings.HasSuffix(clipped, "…"))
}

func TestWriteSitemap(t *testing.T) {
	updated := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	var b strings.Builder
	err := WriteSitemap(&b, testSite(),
		[]models.Category{{Slug: "hubs"}},
		[]models.Product{{Slug: "usb-hub", UpdatedAt: &updated}})
	require.NoError(t, err)

	out := b.String()
	assert.Contains(t, out, "<loc>https://gadgets.example.com/</loc>")
	assert.Contains(t, out, "<loc>https://gadgets.example.com/c/hubs</loc>")
	assert.Contains(t, out, "<loc>https://gadgets.example.com/p/usb-hub</loc>")
	assert.Contains(t, out, "<lastmod>2026-02-10</lastmod>")
	assert.Contains(t, out, `xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"`)
}

func TestRobots(t *testing.T) {
	out := Robots(testSite())
	assert.Contains(t, out, "Disallow: /go/")
	assert.Contains(t, out, "Sitemap: https://gadgets.example.com/sitemap.xml")
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$24.99", formatMoney(24.99, "USD"))
	assert.Equal(t, "€5.00", formatMoney(5, "EUR"))
	assert.Equal(t, "CAD 10.50", formatMoney(10.5, "CAD"))
}

func TestRendererParses(t *testing.T) {
	r, err := NewRenderer(nopLog{})
	require.NoError(t, err)
	require.NotNil(t, r)
}

type nopLog struct{}

func (nopLog) Error(string, ...zap.Field) {}
