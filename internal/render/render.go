package render

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mkovardin/shopfront/internal/config"
	"github.com/mkovardin/shopfront/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/cart.js
var cartJS []byte

// CartJS returns the client cart script.
func CartJS() []byte {
	return cartJS
}

type Log interface {
	Error(string, ...zap.Field)
}

// Renderer executes the embedded page templates.
type Renderer struct {
	tmpl *template.Template
	log  Log
}

func NewRenderer(log Log) (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"money": formatMoney,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl, log: log}, nil
}

// Page is the data every template receives.
type Page struct {
	Meta Meta
	Site *config.Site

	// page-specific payloads; templates use what they need
	Products   []models.Product
	Product    *models.Product
	Categories []models.Category
	Category   *models.Category
	Comparison *models.ComparisonTable
	Cart       *models.PricedCart
}

// HTML renders a named template. On failure it logs and sends a bare
// 500; partially-written pages are not recovered.
func (r *Renderer) HTML(w http.ResponseWriter, status int, name string, page Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := r.tmpl.ExecuteTemplate(w, name, page); err != nil {
		// headers are already out; nothing to do but log
		r.log.Error("template render failed", zap.String("template", name), zap.Error(err))
	}
}

// formatMoney renders a price with two decimals and a currency symbol.
func formatMoney(amount float64, currency string) string {
	symbol := map[string]string{"USD": "$", "EUR": "€", "GBP": "£"}[currency]
	if symbol == "" {
		symbol = currency + " "
	}
	return symbol + strconv.FormatFloat(amount, 'f', 2, 64)
}
