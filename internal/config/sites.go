package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Site describes one storefront tenant.
type Site struct {
	Name         string   `yaml:"name"`
	Hosts        []string `yaml:"hosts"`
	BaseURL      string   `yaml:"base_url"`
	AffiliateTag string   `yaml:"affiliate_tag"`
	DataDir      string   `yaml:"data_dir"`
	Currency     string   `yaml:"currency"`
	Description  string   `yaml:"description"`
}

// Registry holds all configured sites and resolves them by request host.
// The first site in the file is the fallback for unknown hosts.
type Registry struct {
	sites  []Site
	byHost map[string]*Site
}

type sitesFile struct {
	Sites []Site `yaml:"sites"`
}

// LoadSites reads the tenant registry from a YAML file.
func LoadSites(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}

	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sites file: %w", err)
	}
	if len(f.Sites) == 0 {
		return nil, fmt.Errorf("sites file %s defines no sites", path)
	}

	r := &Registry{byHost: make(map[string]*Site)}
	for i := range f.Sites {
		s := &f.Sites[i]
		if s.Name == "" {
			return nil, fmt.Errorf("site #%d has no name", i)
		}
		if s.DataDir == "" {
			s.DataDir = "data/" + s.Name
		}
		if s.Currency == "" {
			s.Currency = "USD"
		}
		r.sites = append(r.sites, *s)
	}

	for i := range r.sites {
		for _, h := range r.sites[i].Hosts {
			r.byHost[strings.ToLower(h)] = &r.sites[i]
		}
	}

	return r, nil
}

// ByHost resolves a request Host header (port allowed) to a site,
// falling back to the default site for unknown hosts.
func (r *Registry) ByHost(host string) *Site {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if s, ok := r.byHost[strings.ToLower(host)]; ok {
		return s
	}
	return &r.sites[0]
}

// Default returns the fallback site.
func (r *Registry) Default() *Site {
	return &r.sites[0]
}

// All returns every configured site.
func (r *Registry) All() []Site {
	return r.sites
}
