package render

import (
	"encoding/xml"
	"io"
	"time"

	"github.com/mkovardin/shopfront/internal/config"
	"github.com/mkovardin/shopfront/internal/models"
)

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// WriteSitemap emits sitemap.xml for the visible catalog.
func WriteSitemap(w io.Writer, site *config.Site, categories []models.Category, products []models.Product) error {
	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  []urlEntry{{Loc: site.BaseURL + "/"}},
	}
	for _, c := range categories {
		set.URLs = append(set.URLs, urlEntry{Loc: site.BaseURL + "/c/" + c.Slug})
	}
	for _, p := range products {
		e := urlEntry{Loc: site.BaseURL + "/p/" + p.Slug}
		if p.UpdatedAt != nil {
			e.LastMod = p.UpdatedAt.UTC().Format(time.DateOnly)
		}
		set.URLs = append(set.URLs, e)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(set)
}

// Robots returns the robots.txt body for a site.
func Robots(site *config.Site) string {
	return "User-agent: *\nAllow: /\nDisallow: /go/\nDisallow: /api/\n\nSitemap: " + site.BaseURL + "/sitemap.xml\n"
}
