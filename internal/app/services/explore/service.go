// Package explore searches the static hackathon catalog.
package explore

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hackcrew/service_layer/internal/app/core/service"
	"github.com/hackcrew/service_layer/internal/app/domain/hackathon"
	"github.com/hackcrew/service_layer/internal/errors"
)

//go:embed hackathons.yaml
var embeddedCatalog []byte

const (
	defaultPage  = 1
	defaultLimit = 10
)

// LoadCatalog reads the catalog from path, or the embedded copy when path is
// empty.
func LoadCatalog(path string) ([]hackathon.Hackathon, error) {
	data := embeddedCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read hackathon catalog: %w", err)
		}
		data = raw
	}
	var items []hackathon.Hackathon
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse hackathon catalog: %w", err)
	}
	return items, nil
}

// Service filters and paginates the catalog.
type Service struct {
	items []hackathon.Hackathon
}

func New(items []hackathon.Hackathon) *Service {
	return &Service{items: items}
}

func (s *Service) Descriptor() service.Descriptor {
	return service.Descriptor{Name: "explore", Domain: "hackathon", Capabilities: []string{"search"}}
}

// Query is a search request. Nil Page and Limit take their defaults.
type Query struct {
	Query   string `json:"query"`
	Filters string `json:"filters"`
	Page    *int   `json:"page"`
	Limit   *int   `json:"limit"`
}

// Search matches Query case-insensitively against name and description, then
// keeps items whose platform, mode or any tag equals one of the comma
// separated filters.
func (s *Service) Search(q Query) (hackathon.Page, error) {
	page, limit := defaultPage, defaultLimit
	if q.Page != nil {
		page = *q.Page
	}
	if q.Limit != nil {
		limit = *q.Limit
	}
	if page < 1 {
		return hackathon.Page{}, errors.Validation("page must be at least 1").WithDetails("field", "page")
	}
	if limit < 1 {
		return hackathon.Page{}, errors.Validation("limit must be at least 1").WithDetails("field", "limit")
	}

	needle := strings.ToLower(strings.TrimSpace(q.Query))
	filters := parseFilters(q.Filters)

	matched := make([]hackathon.Hackathon, 0, len(s.items))
	for _, h := range s.items {
		if needle != "" &&
			!strings.Contains(strings.ToLower(h.Name), needle) &&
			!strings.Contains(strings.ToLower(h.Description), needle) {
			continue
		}
		if len(filters) > 0 && !matchesFilter(h, filters) {
			continue
		}
		matched = append(matched, h)
	}

	total := len(matched)
	totalPages := (total + limit - 1) / limit
	data := []hackathon.Hackathon{}
	if start := (page - 1) * limit; start < total {
		end := start + limit
		if end > total {
			end = total
		}
		data = matched[start:end]
	}

	return hackathon.Page{
		Data: data,
		Pagination: hackathon.Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
			HasMore:    page < totalPages,
		},
	}, nil
}

func parseFilters(raw string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.Split(raw, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out[f] = struct{}{}
		}
	}
	return out
}

func matchesFilter(h hackathon.Hackathon, filters map[string]struct{}) bool {
	if _, ok := filters[strings.ToLower(h.Platform)]; ok {
		return true
	}
	if _, ok := filters[strings.ToLower(h.Mode)]; ok {
		return true
	}
	for _, tag := range h.Tags {
		if _, ok := filters[strings.ToLower(tag)]; ok {
			return true
		}
	}
	return false
}
