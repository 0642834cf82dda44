package catalog

import (
	"sort"
	"strings"

	"github.com/mkovardin/shopfront/internal/models"
)

// Column-to-attribute matching is a best-effort heuristic for the
// category comparison table: scraped attribute keys rarely equal the
// display labels an editor configures ("Battery Life" vs
// "battery_life_hours"). Scores: exact 100, normalized-exact 90,
// substring either way 60, 10 per shared token capped at 50. Matches
// under matchCutoff are dropped.
const matchCutoff = 40

// MatchColumns maps each column label to the best-scoring attribute
// key. Ties keep the earliest key in the given order.
func MatchColumns(columns []string, keys []string) map[string]string {
	out := make(map[string]string, len(columns))
	for _, col := range columns {
		best := ""
		bestScore := 0
		for _, key := range keys {
			score := matchScore(col, key)
			if score > bestScore {
				best = key
				bestScore = score
			}
		}
		if bestScore >= matchCutoff {
			out[col] = best
		}
	}
	return out
}

func matchScore(column, key string) int {
	if column == key {
		return 100
	}
	nc, nk := normalizeLabel(column), normalizeLabel(key)
	if nc == nk {
		return 90
	}
	if nc == "" || nk == "" {
		return 0
	}
	if strings.Contains(nk, nc) || strings.Contains(nc, nk) {
		return 60
	}

	ctoks := strings.Fields(nc)
	ktoks := make(map[string]bool)
	for _, t := range strings.Fields(nk) {
		ktoks[t] = true
	}
	shared := 0
	for _, t := range ctoks {
		if ktoks[t] {
			shared++
		}
	}
	score := shared * 10
	if score > 50 {
		score = 50
	}
	return score
}

// normalizeLabel lowercases and collapses separators to spaces.
func normalizeLabel(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// BuildComparison renders a comparison table for a set of products.
// Columns with no matching attribute key on any product are kept with
// empty cells; the table is for display only.
func BuildComparison(products []models.Product, columns []string) models.ComparisonTable {
	keySet := make(map[string]bool)
	var keys []string
	for _, p := range products {
		for k := range p.Attributes {
			if !keySet[k] {
				keySet[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	matched := MatchColumns(columns, keys)

	table := models.ComparisonTable{Columns: columns}
	for _, p := range products {
		table.Products = append(table.Products, p.Slug)
		row := make([]string, len(columns))
		for i, col := range columns {
			if key, ok := matched[col]; ok {
				row[i] = p.Attributes[key]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
