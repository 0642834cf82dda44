package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mkovardin/shopfront/internal/cache"
	"github.com/mkovardin/shopfront/internal/cart"
	"github.com/mkovardin/shopfront/internal/catalog"
	"github.com/mkovardin/shopfront/internal/config"
	"github.com/mkovardin/shopfront/internal/middleware"
	"github.com/mkovardin/shopfront/internal/models"
	"github.com/mkovardin/shopfront/internal/render"
)

// Storage is the catalog surface the controller needs, per site.
type Storage interface {
	Products(now time.Time) []models.Product
	ProductBySlug(slug string, now time.Time) (*models.Product, error)
	Categories(now time.Time) []models.Category
	CategoryByID(id string, now time.Time) (*models.Category, error)
	ProductsByCategory(id string, now time.Time) []models.Product
	SweepPublish(now time.Time) models.PublishSweepResult
}

// Catalogs resolves the per-tenant store.
type Catalogs interface {
	For(site string) Storage
}

// Clicks records outbound redirects and serves aggregates.
type Clicks interface {
	Record(ctx context.Context, ev models.ClickEvent)
	Stats(ctx context.Context, site string, since time.Time) (*models.ClickStats, error)
}

// Log interface for logging
type Log interface {
	Info(string, ...zapcore.Field)
	Warn(string, ...zapcore.Field)
	Error(string, ...zapcore.Field)
}

// BaseController struct for handling requests
type BaseController struct {
	catalogs  Catalogs
	cache     *cache.Cache
	clicks    Clicks
	renderer  *render.Renderer
	cronToken string
	log       Log
}

// NewBaseController creates a new BaseController instance
func NewBaseController(catalogs Catalogs, c *cache.Cache, clicks Clicks, renderer *render.Renderer, cronToken string, log Log) *BaseController {
	return &BaseController{
		catalogs:  catalogs,
		cache:     c,
		clicks:    clicks,
		renderer:  renderer,
		cronToken: cronToken,
		log:       log,
	}
}

// Route sets up the routes for the BaseController
func (h *BaseController) Route() *chi.Mux {
	r := chi.NewRouter()

	// pages
	r.Get("/", h.homePage)
	r.Get("/c/{slug}", h.categoryPage)
	r.Get("/p/{slug}", h.productPage)
	r.Get("/checkout", h.checkoutPage)

	// affiliate redirect
	r.Get("/go/{slug}", h.goRedirect)

	// JSON API
	r.Route("/api/v0", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Get("/products/{slug}", h.getProduct)
		r.Get("/categories", h.listCategories)
		r.Get("/categories/{id}/products", h.productsByCategory)
		r.Post("/cart/price", h.priceCart)
		r.Post("/tasks/publish", h.publishSweep)
		r.Get("/stats/clicks", h.clickStats)
	})

	r.Get("/sitemap.xml", h.sitemap)
	r.Get("/robots.txt", h.robots)
	r.Get("/static/cart.js", h.cartScript)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *BaseController) site(r *http.Request) *config.Site {
	return middleware.SiteFrom(r.Context())
}

func (h *BaseController) store(r *http.Request) (*config.Site, Storage) {
	site := h.site(r)
	if site == nil {
		return nil, nil
	}
	return site, h.catalogs.For(site.Name)
}

// --- catalog reads through the cache ---

func (h *BaseController) visibleProducts(site *config.Site, st Storage) []models.Product {
	key := site.Name + ":products"
	if v, ok := h.cache.Get(key); ok {
		return v.([]models.Product)
	}
	products := st.Products(time.Now())
	h.cache.Set(key, products)
	return products
}

func (h *BaseController) visibleCategories(site *config.Site, st Storage) []models.Category {
	key := site.Name + ":categories"
	if v, ok := h.cache.Get(key); ok {
		return v.([]models.Category)
	}
	categories := st.Categories(time.Now())
	h.cache.Set(key, categories)
	return categories
}

func (h *BaseController) categoryProducts(site *config.Site, st Storage, id string) []models.Product {
	key := site.Name + ":category-products:" + id
	if v, ok := h.cache.Get(key); ok {
		return v.([]models.Product)
	}
	products := st.ProductsByCategory(id, time.Now())
	h.cache.Set(key, products)
	return products
}

// --- pages ---

func (h *BaseController) homePage(w http.ResponseWriter, r *http.Request) {
	site, st := h.store(r)
	if st == nil {
		http.NotFound(w, r)
		return
	}
	h.renderer.HTML(w, http.StatusOK, "home", render.Page{
		Meta:       render.HomeMeta(site),
		Site:       site,
		Products:   h.visibleProducts(site, st),
		Categories: h.visibleCategories(site, st),
	})
}

func (h *BaseController) categoryPage(w http.ResponseWriter, r *http.Request) {
	site, st := h.store(r)
	if st == nil {
		http.NotFound(w, r)
		return
	}
	slug := chi.URLParam(r, "slug")
	category, err := st.CategoryByID(slug, time.Now())
	if err != nil {
		http.NotFound(w, r)
		return
	}

	products := h.categoryProducts(site, st, category.ID)
	page := render.Page{
		Meta:     render.CategoryMeta(site, category),
		Site:     site,
		Category: category,
		Products: products,
	}
	if len(category.Compare) > 0 && len(products) > 0 {
		table := catalog.BuildComparison(products, category.Compare)
		page.Comparison = &table
	}
	h.renderer.HTML(w, http.StatusOK, "category", page)
}

func (h *BaseController) productPage(w http.ResponseWriter, r *http.Request) {
	site, st := h.store(r)
	if st == nil {
		http.NotFound(w, r)
		return
	}
	product, err := st.ProductBySlug(chi.URLParam(r, "slug"), time.Now())
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.renderer.HTML(w, http.StatusOK, "product", render.Page{
		Meta:    render.ProductMeta(site, product),
		Site:    site,
		Product: product,
	})
}

func (h *BaseController) checkoutPage(w http.ResponseWriter, r *http.Request) {
	site, st := h.store(r)
	if st == nil {
		http.NotFound(w, r)
		return
	}
	h.renderer.HTML(w, http.StatusOK, "checkout", render.Page{
		Meta: render.CheckoutMeta(site),
		Site: site,
	})
}

// --- affiliate redirect ---

// goRedirect records the outbound click and sends the visitor to
// Amazon with the tenant affiliate tag applied. Payment never touches
// this service.
func (h *BaseController) goRedirect(w http.ResponseWriter, r *http.Request) {
	site, st := h.store(r)
	if st == nil {
		http.NotFound(w, r)
		return
	}
	slug := chi.URLParam(r, "slug")
	product, err := st.ProductBySlug(slug, time.Now())
	if err != nil {
		http.NotFound(w, r)
		return
	}

	subTag := r.URL.Query().Get("sub")
	h.clicks.Record(r.Context(), models.ClickEvent{
		ID:         uuid.NewString(),
		Site:       site.Name,
		Slug:       slug,
		ASIN:       product.ASIN,
		SubTag:     subTag,
		Referrer:   r.Referer(),
		OccurredAt: time.Now().UTC(),
	})

	http.Redirect(w, r, AffiliateURL(product.AmazonURL, site.AffiliateTag, subTag), http.StatusFound)
}

// AffiliateURL appends the associate tag (and optional subtag) to an
// Amazon product URL, preserving whatever query it already carries.
func AffiliateURL(amazonURL, tag, subTag string) string {
	u, err := url.Parse(amazonURL)
	if err != nil {
		return amazonURL
	}
	q := u.Query()
	if tag != "" {
		q.Set("tag", tag)
	}
	if subTag != "" {
		q.Set("ascsubtag", subTag)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// --- JSON API ---

func (h *BaseController) listProducts(w http.ResponseWriter, r *http.Request) {
	site, st := h.store(r)
	if st == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown site"})
		return
	}
	writeJSON(w, http.StatusOK, h.visibleProducts(site, st))
}

func (h *BaseController) getProduct(w http.ResponseWriter, r *http.Request) {
	_, st := h.store(r)
	if st == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown site"})
		return
	}
	product, err := st.ProductBySlug(chi.URLParam(r, "slug"), time.Now())
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		h.log.Error("product lookup failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *BaseController) listCategories(w http.ResponseWriter, r *http.Request) {
	site, st := h.store(r)
	if st == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown site"})
		return
	}
	writeJSON(w, http.StatusOK, h.visibleCategories(site, st))
}

func (h *BaseController) productsByCategory(w http.ResponseWriter, r *http.Request) {
	site, st := h.store(r)
	if st == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown site"})
		return
	}
	writeJSON(w, http.StatusOK, h.categoryProducts(site, st, chi.URLParam(r, "id")))
}

func (h *BaseController) priceCart(w http.ResponseWriter, r *http.Request) {
	site, st := h.store(r)
	if st == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown site"})
		return
	}
	var state models.CartState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	defer r.Body.Close()

	writeJSON(w, http.StatusOK, cart.Price(st, state, site.Currency, time.Now()))
}

// publishSweep is the cron-style endpoint: it reports products whose
// publish window opened since the last sweep and drops their cache
// entries so they show up immediately.
func (h *BaseController) publishSweep(w http.ResponseWriter, r *http.Request) {
	if h.cronToken == "" || r.Header.Get("Authorization") != "Bearer "+h.cronToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	site, st := h.store(r)
	if st == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown site"})
		return
	}

	result := st.SweepPublish(time.Now())
	if len(result.Published) > 0 {
		h.cache.Invalidate(site.Name + ":")
		h.log.Info("publish sweep released products",
			zap.String("site", site.Name),
			zap.Strings("slugs", result.Published))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *BaseController) clickStats(w http.ResponseWriter, r *http.Request) {
	site := h.site(r)
	if site == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown site"})
		return
	}

	since := time.Now().AddDate(0, 0, -30)
	if s := r.URL.Query().Get("since"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			since = t
		}
	}

	stats, err := h.clicks.Stats(r.Context(), site.Name, since)
	if err != nil {
		h.log.Error("click stats failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "stats unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- SEO surfaces ---

func (h *BaseController) sitemap(w http.ResponseWriter, r *http.Request) {
	site, st := h.store(r)
	if st == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if err := render.WriteSitemap(w, site, h.visibleCategories(site, st), h.visibleProducts(site, st)); err != nil {
		h.log.Error("sitemap write failed", zap.Error(err))
	}
}

func (h *BaseController) robots(w http.ResponseWriter, r *http.Request) {
	site := h.site(r)
	if site == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(render.Robots(site)))
}

func (h *BaseController) cartScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(render.CartJS())
}
