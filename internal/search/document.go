// Package search provides full-text flavor search using Bleve, with typo
// tolerance, prefix matching for autocomplete and tag/type facets.
package search

import (
	"strconv"

	"github.com/smakiapp/smaki-server/internal/domain"
)

// FlavorDocument is the indexed form of a flavor.
type FlavorDocument struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags,omitempty"`
	Seasonal    bool     `json:"seasonal"`
	CreatedAt   int64    `json:"created_at"`
}

// DocID is the index key for a flavor id.
func DocID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// FlavorToDocument converts a flavor for indexing. The display name is
// indexed so legacy markers never match.
func FlavorToDocument(f *domain.Flavor) *FlavorDocument {
	tags := make([]string, len(f.Tags))
	for i, t := range f.Tags {
		tags[i] = string(t)
	}
	return &FlavorDocument{
		ID:          DocID(f.ID),
		Name:        f.DisplayName(),
		Description: f.Description,
		Type:        string(f.Type),
		Status:      string(f.Status),
		Tags:        tags,
		Seasonal:    f.Seasonal,
		CreatedAt:   f.CreatedAt.Unix(),
	}
}

// ToMap keeps field names aligned with the mapping.
func (d *FlavorDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"name":       d.Name,
		"type":       d.Type,
		"status":     d.Status,
		"seasonal":   d.Seasonal,
		"created_at": float64(d.CreatedAt),
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}
