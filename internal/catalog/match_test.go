package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkovardin/shopfront/internal/models"
)

func TestMatchScore(t *testing.T) {
	cases := []struct {
		column, key string
		want        int
	}{
		{"weight", "weight", 100},
		{"Battery Life", "battery_life", 90},
		{"Battery", "battery_life_hours", 60},
		{"battery life hours", "battery", 60},
		{"Max Power Output", "power_output_watts", 20},
		{"Color", "weight_kg", 0},
		{"", "weight", 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, matchScore(c.column, c.key), "%q vs %q", c.column, c.key)
	}
}

func TestMatchColumns(t *testing.T) {
	keys := []string{"battery_life_hours", "weight_kg", "ports", "wireless"}

	t.Run("best key wins", func(t *testing.T) {
		m := MatchColumns([]string{"Battery Life", "Weight", "Ports"}, keys)
		assert.Equal(t, map[string]string{
			"Battery Life": "battery_life_hours",
			"Weight":       "weight_kg",
			"Ports":        "ports",
		}, m)
	})

	t.Run("below cutoff is dropped", func(t *testing.T) {
		m := MatchColumns([]string{"Warranty"}, keys)
		assert.NotContains(t, m, "Warranty")
	})

	t.Run("tie keeps the earliest key", func(t *testing.T) {
		m := MatchColumns([]string{"battery"}, []string{"battery_type", "battery_life"})
		assert.Equal(t, "battery_type", m["battery"])
	})
}

func TestBuildComparison(t *testing.T) {
	products := []models.Product{
		{Slug: "hub-a", Attributes: map[string]string{"ports": "7", "weight_kg": "0.3"}},
		{Slug: "hub-b", Attributes: map[string]string{"ports": "4"}},
	}

	table := BuildComparison(products, []string{"Ports", "Weight", "Warranty"})

	assert.Equal(t, []string{"Ports", "Weight", "Warranty"}, table.Columns)
	assert.Equal(t, []string{"hub-a", "hub-b"}, table.Products)
	assert.Equal(t, [][]string{
		{"7", "0.3", ""},
		{"4", "", ""},
	}, table.Rows)
}
