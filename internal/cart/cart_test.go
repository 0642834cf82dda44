package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mkovardin/shopfront/internal/catalog"
	"github.com/mkovardin/shopfront/internal/models"
)

type fakeCatalog map[string]*models.Product

func (f fakeCatalog) ProductBySlug(slug string, now time.Time) (*models.Product, error) {
	p, ok := f[slug]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		"kettle": {Slug: "kettle", Title: "Electric Kettle", Price: 24.99},
		"lamp":   {Slug: "lamp", Title: "Desk Lamp", Price: 19.99},
	}
}

func TestPrice(t *testing.T) {
	now := time.Now()

	t.Run("reprices from the catalog", func(t *testing.T) {
		got := Price(testCatalog(), models.CartState{Items: []models.CartItem{
			{Slug: "kettle", Qty: 2},
			{Slug: "lamp", Qty: 1},
		}}, "USD", now)

		assert.Len(t, got.Lines, 2)
		assert.Equal(t, 49.98, got.Lines[0].LineTotal)
		assert.Equal(t, 3, got.ItemCount)
		assert.Equal(t, 69.97, got.Subtotal)
		assert.Equal(t, "USD", got.Currency)
		assert.NotEmpty(t, got.ID)
		assert.Empty(t, got.Dropped)
	})

	t.Run("unknown slugs are dropped and reported", func(t *testing.T) {
		got := Price(testCatalog(), models.CartState{Items: []models.CartItem{
			{Slug: "kettle", Qty: 1},
			{Slug: "discontinued", Qty: 1},
		}}, "USD", now)

		assert.Len(t, got.Lines, 1)
		assert.Equal(t, []string{"discontinued"}, got.Dropped)
	})

	t.Run("quantities clamp to 1..99", func(t *testing.T) {
		got := Price(testCatalog(), models.CartState{Items: []models.CartItem{
			{Slug: "kettle", Qty: 0},
			{Slug: "lamp", Qty: 1000},
		}}, "USD", now)

		assert.Equal(t, 1, got.Lines[0].Qty)
		assert.Equal(t, 99, got.Lines[1].Qty)
	})

	t.Run("duplicate lines collapse", func(t *testing.T) {
		got := Price(testCatalog(), models.CartState{Items: []models.CartItem{
			{Slug: "kettle", Qty: 1},
			{Slug: "kettle", Qty: 2},
		}}, "USD", now)

		assert.Len(t, got.Lines, 1)
		assert.Equal(t, 3, got.Lines[0].Qty)
		assert.Equal(t, 74.97, got.Lines[0].LineTotal)
	})

	t.Run("empty cart", func(t *testing.T) {
		got := Price(testCatalog(), models.CartState{}, "EUR", now)
		assert.Empty(t, got.Lines)
		assert.Zero(t, got.Subtotal)
		assert.Equal(t, "EUR", got.Currency)
	})
}
