// Package catalog holds the in-memory item catalog and its partition into
// quality×kind category bins. The registry is built once at startup from the
// catalog store and is read-only afterwards.
package catalog

import (
	"context"
	"log/slog"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// Registry resolves item templates and groups their ids into the 14
// category bins the listing selector draws from.
type Registry struct {
	templates map[string]domain.ItemTemplate
	bins      [domain.NumCategories][]string
}

// NewRegistry builds a registry from catalog templates. Templates with an
// unsupported quality tier are skipped; the 14 bins partition everything
// that remains with no overlap.
func NewRegistry(templates []domain.ItemTemplate, logger *slog.Logger) *Registry {
	r := &Registry{
		templates: make(map[string]domain.ItemTemplate, len(templates)),
	}
	for _, t := range templates {
		if !t.Quality.Valid() {
			if logger != nil {
				logger.Warn("catalog: skipping template with unsupported quality",
					slog.String("template_id", t.ID),
					slog.Int("quality", int(t.Quality)),
				)
			}
			continue
		}
		r.templates[t.ID] = t
		idx := t.Category().Index()
		r.bins[idx] = append(r.bins[idx], t.ID)
	}
	return r
}

// Template resolves one catalog entry. It returns domain.ErrNotFound for
// unknown ids.
func (r *Registry) Template(_ context.Context, templateID string) (domain.ItemTemplate, error) {
	t, ok := r.templates[templateID]
	if !ok {
		return domain.ItemTemplate{}, domain.ErrNotFound
	}
	return t, nil
}

// Bin returns the ordered item ids belonging to one category.
func (r *Registry) Bin(cat domain.Category) []string {
	return r.bins[cat.Index()]
}

// Len returns the number of templates in the registry.
func (r *Registry) Len() int {
	return len(r.templates)
}

// Compile-time interface check.
var _ domain.Catalog = (*Registry)(nil)
