package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("typed record passes through", func(t *testing.T) {
		p, err := Normalize(map[string]any{
			"slug":   "usb-hub",
			"asin":   "B01ABCDE",
			"title":  "7-Port USB Hub",
			"price":  34.99,
			"images": []any{"https://img.example/1.jpg", "https://img.example/2.jpg"},
		}, "fallback")
		require.NoError(t, err)
		assert.Equal(t, "usb-hub", p.Slug)
		assert.Equal(t, 34.99, p.Price)
		assert.Len(t, p.Images, 2)
		assert.True(t, p.Publish)
		assert.Equal(t, "https://www.amazon.com/dp/B01ABCDE", p.AmazonURL)
	})

	t.Run("string price with currency noise", func(t *testing.T) {
		p, err := Normalize(map[string]any{
			"title": "Stand Mixer",
			"asin":  "B09XYZ",
			"price": "$1,299.00",
		}, "stand-mixer")
		require.NoError(t, err)
		assert.Equal(t, 1299.00, p.Price)
		assert.Equal(t, "stand-mixer", p.Slug, "slug falls back to the file name")
	})

	t.Run("publish false is honored", func(t *testing.T) {
		p, err := Normalize(map[string]any{
			"title":   "Hidden",
			"asin":    "B000",
			"publish": false,
		}, "hidden")
		require.NoError(t, err)
		assert.False(t, p.Publish)
	})

	t.Run("publishAt accepts all scraper formats", func(t *testing.T) {
		want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		for name, v := range map[string]any{
			"rfc3339":      "2026-03-01T00:00:00Z",
			"date only":    "2026-03-01",
			"unix seconds": float64(want.Unix()),
			"unix string":  "1772323200",
		} {
			t.Run(name, func(t *testing.T) {
				p, err := Normalize(map[string]any{
					"title":      "Timed",
					"asin":       "B001",
					"publish_at": v,
				}, "timed")
				require.NoError(t, err)
				require.NotNil(t, p.PublishAt)
				assert.Equal(t, want, *p.PublishAt)
			})
		}
	})

	t.Run("single image string becomes a list", func(t *testing.T) {
		p, err := Normalize(map[string]any{
			"title": "One Pic",
			"asin":  "B002",
			"image": "https://img.example/only.jpg",
		}, "one-pic")
		require.NoError(t, err)
		assert.Equal(t, []string{"https://img.example/only.jpg"}, p.Images)
	})

	t.Run("attributes are stringified", func(t *testing.T) {
		p, err := Normalize(map[string]any{
			"title": "Specs",
			"asin":  "B003",
			"specs": map[string]any{
				"weight_kg": 1.5,
				"ports":     float64(7),
				"wireless":  true,
			},
		}, "specs")
		require.NoError(t, err)
		assert.Equal(t, "1.5", p.Attributes["weight_kg"])
		assert.Equal(t, "7", p.Attributes["ports"])
		assert.Equal(t, "yes", p.Attributes["wireless"])
	})

	t.Run("no title is an error", func(t *testing.T) {
		_, err := Normalize(map[string]any{"asin": "B004"}, "untitled")
		assert.Error(t, err)
	})

	t.Run("no url and no asin is an error", func(t *testing.T) {
		_, err := Normalize(map[string]any{"title": "Nowhere"}, "nowhere")
		assert.Error(t, err)
	})
}

func TestProductVisible(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("published without window", func(t *testing.T) {
		p, err := Normalize(map[string]any{"title": "A", "asin": "B1"}, "a")
		require.NoError(t, err)
		assert.True(t, p.Visible(now))
	})

	t.Run("publishAt in the past", func(t *testing.T) {
		p, err := Normalize(map[string]any{"title": "A", "asin": "B1", "publish_at": past.Format(time.RFC3339)}, "a")
		require.NoError(t, err)
		assert.True(t, p.Visible(now))
	})

	t.Run("publishAt in the future", func(t *testing.T) {
		p, err := Normalize(map[string]any{"title": "A", "asin": "B1", "publish_at": future.Format(time.RFC3339)}, "a")
		require.NoError(t, err)
		assert.False(t, p.Visible(now))
	})

	t.Run("publish false beats past publishAt", func(t *testing.T) {
		p, err := Normalize(map[string]any{"title": "A", "asin": "B1", "publish": false, "publish_at": past.Format(time.RFC3339)}, "a")
		require.NoError(t, err)
		assert.False(t, p.Visible(now))
	})
}

func TestNormalizeCategory(t *testing.T) {
	c := NormalizeCategory(map[string]any{
		"id":      "kitchen",
		"name":    "Kitchen",
		"compare": []any{"Power", "Capacity"},
	})
	assert.Equal(t, "kitchen", c.ID)
	assert.Equal(t, "kitchen", c.Slug, "slug defaults to id")
	assert.True(t, c.Publish)
	assert.Equal(t, []string{"Power", "Capacity"}, c.Compare)

	c = NormalizeCategory(map[string]any{"slug": "office", "publish": false})
	assert.Equal(t, "office", c.ID, "id defaults to slug")
	assert.Equal(t, "office", c.Name, "name defaults to slug")
	assert.False(t, c.Publish)
}
