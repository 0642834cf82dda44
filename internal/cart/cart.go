// Package cart reprices client-held cart state against the live
// catalog. Carts live in the browser's local storage; the server only
// validates and prices them so stale client math never reaches the
// checkout hand-off.
package cart

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mkovardin/shopfront/internal/models"
)

const maxQty = 99

// Catalog is the product lookup the pricer needs.
type Catalog interface {
	ProductBySlug(slug string, now time.Time) (*models.Product, error)
}

// Price validates and reprices a cart. Unknown or unpublished slugs
// are dropped and reported; quantities are clamped to [1, maxQty].
func Price(catalog Catalog, state models.CartState, currency string, now time.Time) models.PricedCart {
	out := models.PricedCart{
		ID:       uuid.NewString(),
		Currency: currency,
	}

	seen := make(map[string]int) // slug -> index into out.Lines
	for _, item := range state.Items {
		if item.Slug == "" {
			continue
		}
		qty := item.Qty
		if qty < 1 {
			qty = 1
		}
		if qty > maxQty {
			qty = maxQty
		}

		if i, ok := seen[item.Slug]; ok {
			// duplicate lines collapse into one
			out.Lines[i].Qty += qty
			if out.Lines[i].Qty > maxQty {
				out.Lines[i].Qty = maxQty
			}
			continue
		}

		p, err := catalog.ProductBySlug(item.Slug, now)
		if err != nil {
			out.Dropped = append(out.Dropped, item.Slug)
			continue
		}

		seen[item.Slug] = len(out.Lines)
		out.Lines = append(out.Lines, models.PricedLine{
			Slug:      p.Slug,
			Title:     p.Title,
			Qty:       qty,
			UnitPrice: p.Price,
		})
	}

	for i := range out.Lines {
		out.Lines[i].LineTotal = round2(out.Lines[i].UnitPrice * float64(out.Lines[i].Qty))
		out.ItemCount += out.Lines[i].Qty
		out.Subtotal += out.Lines[i].LineTotal
	}
	out.Subtotal = round2(out.Subtotal)
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
