package domain

import (
	"iter"
	"slices"
	"strconv"
	"strings"
	"time"

	domainerrors "github.com/smakiapp/smaki-server/internal/errors"
)

// Catalog limits.
const (
	MaxFlavorNameLength   = 100
	MaxDescriptionLength  = 5000
	MaxTagsPerFlavor      = 5
	DefaultFallbackSlug   = "flavor"
	maxSlugCollisionTries = 1000
)

// FlavorType distinguishes dairy ice cream from sorbets.
type FlavorType string

const (
	FlavorTypeMilk   FlavorType = "milk"
	FlavorTypeSorbet FlavorType = "sorbet"
)

// Valid reports whether t is a known flavor type.
func (t FlavorType) Valid() bool {
	return t == FlavorTypeMilk || t == FlavorTypeSorbet
}

// Label is the name shown to customers.
func (t FlavorType) Label() string {
	switch t {
	case FlavorTypeSorbet:
		return "Sorbet"
	default:
		return "Mleczny"
	}
}

// FlavorStatus is the soft-delete lifecycle of a flavor.
type FlavorStatus string

const (
	FlavorActive   FlavorStatus = "active"
	FlavorArchived FlavorStatus = "archived"
)

// Valid reports whether s is a known status.
func (s FlavorStatus) Valid() bool {
	return s == FlavorActive || s == FlavorArchived
}

// Label is the name shown in the staff panel.
func (s FlavorStatus) Label() string {
	if s == FlavorArchived {
		return "Zarchiwizowany"
	}
	return "Aktywny"
}

// Flavor is a catalog entry. Flavors are never deleted; archiving hides them
// from selection building while keeping them addressable for history.
type Flavor struct {
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Name          string       `json:"name"`
	Slug          string       `json:"slug"`
	Description   string       `json:"description,omitempty"`
	Type          FlavorType   `json:"type"`
	Status        FlavorStatus `json:"status"`
	Photo         string       `json:"photo,omitempty"`           // storage key under the media root
	PhotoBlurHash string       `json:"photo_blur_hash,omitempty"` // placeholder while the photo loads
	Tags          []Tag        `json:"tags"`
	ID            int64        `json:"id"`
	Seasonal      bool         `json:"seasonal"`
}

// IsActive reports whether the flavor can be put on a daily selection.
func (f *Flavor) IsActive() bool {
	return f.Status == FlavorActive
}

// HasTag reports whether the flavor carries tag.
func (f *Flavor) HasTag(tag Tag) bool {
	return slices.Contains(f.Tags, tag)
}

// DisplayName is the name with legacy import artifacts removed.
func (f *Flavor) DisplayName() string {
	return CleanDisplayName(f.Name)
}

// CleanDisplayName strips the "*", "/" and "+" markers (and surrounding
// whitespace) that prefix names imported from the old price board.
func CleanDisplayName(name string) string {
	trimmed := strings.TrimLeft(name, "*/+ \t\r\n")
	return strings.TrimSpace(trimmed)
}

// NormalizeFlavorName trims the name and checks its length.
func NormalizeFlavorName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domainerrors.ValidationWithDetails("invalid flavor", map[string]string{"name": "is required"})
	}
	if len([]rune(name)) > MaxFlavorNameLength {
		return "", domainerrors.ValidationWithDetails("invalid flavor",
			map[string]string{"name": "must be at most 100 characters"})
	}
	return name, nil
}

// SlugCandidates yields base, base-2, base-3, … for collision disambiguation.
// An empty base falls back to DefaultFallbackSlug.
func SlugCandidates(base string) iter.Seq[string] {
	if base == "" {
		base = DefaultFallbackSlug
	}
	return func(yield func(string) bool) {
		if !yield(base) {
			return
		}
		for n := 2; n < maxSlugCollisionTries; n++ {
			if !yield(base + "-" + strconv.Itoa(n)) {
				return
			}
		}
	}
}
