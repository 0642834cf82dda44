package middleware

import (
	"context"
	"net/http"

	"github.com/mkovardin/shopfront/internal/config"
)

type tenantKey struct{}

// Tenant resolves the request Host header to a configured site and
// stores it in the request context. Unknown hosts get the default
// site, so the storefront always renders something.
func Tenant(sites *config.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			site := sites.ByHost(r.Host)
			ctx := context.WithValue(r.Context(), tenantKey{}, site)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SiteFrom returns the site stored by Tenant, or nil.
func SiteFrom(ctx context.Context) *config.Site {
	site, _ := ctx.Value(tenantKey{}).(*config.Site)
	return site
}
