package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mkovardin/shopfront/internal/models"
)

var ErrNotFound = errors.New("not found")

type Log interface {
	Info(string, ...zap.Field)
	Warn(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// Store is the JSON-file-backed catalog for one site. All reads are
// served from memory; Load and Reload swap the indexed state under a
// write lock.
type Store struct {
	mx sync.RWMutex

	site    string
	dataDir string
	log     Log

	products   map[string]*models.Product // slug -> product
	order      []string                   // slugs in load order
	categories []models.Category
	byCategory map[string][]string // category id -> product slugs
	lastSweep  time.Time
}

// NewStore creates an empty store for a site data directory.
func NewStore(site, dataDir string, log Log) *Store {
	return &Store{
		site:       site,
		dataDir:    dataDir,
		log:        log,
		products:   make(map[string]*models.Product),
		byCategory: make(map[string][]string),
	}
}

// Load reads categories.json and products/*.json from the data
// directory and rebuilds the indexes. Unreadable or unparseable
// product files are skipped and logged, never fatal.
func (s *Store) Load(ctx context.Context) error {
	categories, err := s.loadCategories()
	if err != nil {
		return err
	}

	products, order, err := s.loadProducts(ctx)
	if err != nil {
		return err
	}

	byCategory := buildCategoryIndex(products, order)

	s.mx.Lock()
	s.categories = categories
	s.products = products
	s.order = order
	s.byCategory = byCategory
	if s.lastSweep.IsZero() {
		s.lastSweep = time.Now().UTC()
	}
	s.mx.Unlock()

	s.log.Info("catalog loaded",
		zap.String("site", s.site),
		zap.Int("products", len(products)),
		zap.Int("categories", len(categories)))
	return nil
}

func (s *Store) loadCategories() ([]models.Category, error) {
	path := filepath.Join(s.dataDir, "categories.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read categories: %w", err)
	}

	var raws []map[string]any
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}

	var categories []models.Category
	for _, raw := range raws {
		c := NormalizeCategory(raw)
		if c.ID == "" {
			s.log.Warn("category without id skipped", zap.String("site", s.site))
			continue
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (s *Store) loadProducts(ctx context.Context) (map[string]*models.Product, []string, error) {
	dir := filepath.Join(s.dataDir, "products")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]*models.Product{}, nil, nil
		}
		return nil, nil, fmt.Errorf("read products dir: %w", err)
	}

	products := make(map[string]*models.Product, len(entries))
	var order []string
	for _, e := range entries {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("product file unreadable", zap.String("file", e.Name()), zap.Error(err))
			continue
		}

		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			s.log.Warn("product file is not valid JSON", zap.String("file", e.Name()), zap.Error(err))
			continue
		}

		fallback := strings.TrimSuffix(e.Name(), ".json")
		p, err := Normalize(raw, fallback)
		if err != nil {
			s.log.Warn("product record skipped", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		if _, dup := products[p.Slug]; dup {
			s.log.Warn("duplicate product slug, keeping first", zap.String("slug", p.Slug))
			continue
		}
		products[p.Slug] = p
		order = append(order, p.Slug)
	}

	sort.Strings(order)
	return products, order, nil
}

func buildCategoryIndex(products map[string]*models.Product, order []string) map[string][]string {
	idx := make(map[string][]string)
	for _, slug := range order {
		for _, cat := range products[slug].Categories {
			idx[cat] = append(idx[cat], slug)
		}
	}
	return idx
}

// Products returns all products visible at now, in slug order.
func (s *Store) Products(now time.Time) []models.Product {
	s.mx.RLock()
	defer s.mx.RUnlock()

	out := make([]models.Product, 0, len(s.order))
	for _, slug := range s.order {
		p := s.products[slug]
		if p.Visible(now) {
			out = append(out, *p)
		}
	}
	return out
}

// ProductBySlug returns a visible product or ErrNotFound. Hidden
// products are indistinguishable from missing ones.
func (s *Store) ProductBySlug(slug string, now time.Time) (*models.Product, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	p, ok := s.products[slug]
	if !ok || !p.Visible(now) {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// Categories returns all categories visible at now.
func (s *Store) Categories(now time.Time) []models.Category {
	s.mx.RLock()
	defer s.mx.RUnlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if c.Visible(now) {
			out = append(out, c)
		}
	}
	return out
}

// CategoryByID returns a visible category by id or slug.
func (s *Store) CategoryByID(id string, now time.Time) (*models.Category, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	for i := range s.categories {
		c := s.categories[i]
		if (c.ID == id || c.Slug == id) && c.Visible(now) {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// ProductsByCategory returns visible products for a category, using
// the precomputed index and falling back to a scan over all products
// when the index has no entry for the id.
func (s *Store) ProductsByCategory(id string, now time.Time) []models.Product {
	s.mx.RLock()
	defer s.mx.RUnlock()

	slugs, ok := s.byCategory[id]
	if ok {
		out := make([]models.Product, 0, len(slugs))
		for _, slug := range slugs {
			p := s.products[slug]
			if p.Visible(now) {
				out = append(out, *p)
			}
		}
		return out
	}

	// index miss: scan. Covers records whose category list uses a
	// slug where the index was keyed by id.
	var out []models.Product
	for _, slug := range s.order {
		p := s.products[slug]
		if !p.Visible(now) {
			continue
		}
		for _, cat := range p.Categories {
			if strings.EqualFold(cat, id) {
				out = append(out, *p)
				break
			}
		}
	}
	return out
}

// SweepPublish reports products whose publish window opened since the
// previous sweep and how many are still pending, then advances the
// sweep watermark.
func (s *Store) SweepPublish(now time.Time) models.PublishSweepResult {
	s.mx.Lock()
	defer s.mx.Unlock()

	res := models.PublishSweepResult{
		Site:    s.site,
		SweptAt: now.UTC().Format(time.RFC3339),
	}
	for _, slug := range s.order {
		p := s.products[slug]
		if !p.Publish || p.PublishAt == nil {
			continue
		}
		if p.PublishAt.After(now) {
			res.Pending++
			continue
		}
		if p.PublishAt.After(s.lastSweep) {
			res.Published = append(res.Published, slug)
		}
	}
	s.lastSweep = now
	return res
}

// Site returns the site name this store serves.
func (s *Store) Site() string {
	return s.site
}

// DataDir returns the directory the store reads from.
func (s *Store) DataDir() string {
	return s.dataDir
}
