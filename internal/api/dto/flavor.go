package dto

import (
	"time"

	"github.com/smakiapp/smaki-server/internal/domain"
)

// MediaPrefix is the URL path photos are served under.
const MediaPrefix = "/media/"

// TagResponse is a tag with its display label and color.
type TagResponse struct {
	Tag   string `json:"tag" doc:"Tag identifier"`
	Label string `json:"label" doc:"Display label"`
	Color string `json:"color" doc:"Badge color"`
}

// FlavorResponse is a flavor as returned by the staff API.
type FlavorResponse struct {
	ID            int64         `json:"id" doc:"Flavor ID"`
	Name          string        `json:"name" doc:"Name as entered"`
	DisplayName   string        `json:"display_name" doc:"Name with legacy markers removed"`
	Slug          string        `json:"slug" doc:"URL slug"`
	Description   string        `json:"description" doc:"Markdown description"`
	Type          string        `json:"type" doc:"milk or sorbet"`
	TypeLabel     string        `json:"type_label" doc:"Display label for the type"`
	Status        string        `json:"status" doc:"active or archived"`
	Seasonal      bool          `json:"seasonal" doc:"Seasonal flavor"`
	Tags          []TagResponse `json:"tags" doc:"Tags in vocabulary order"`
	PhotoURL      string        `json:"photo_url,omitempty" doc:"Photo URL"`
	PhotoBlurHash string        `json:"photo_blur_hash,omitempty" doc:"BlurHash placeholder for the photo"`
	CreatedAt     time.Time     `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time     `json:"updated_at" doc:"Last modification time"`
}

// PublicFlavorResponse is a flavor as shown to customers.
type PublicFlavorResponse struct {
	ID            int64         `json:"id" doc:"Flavor ID"`
	Name          string        `json:"name" doc:"Display name"`
	Slug          string        `json:"slug" doc:"URL slug"`
	Description   string        `json:"description" doc:"Markdown description"`
	Type          string        `json:"type" doc:"milk or sorbet"`
	TypeLabel     string        `json:"type_label" doc:"Display label for the type"`
	Seasonal      bool          `json:"seasonal" doc:"Seasonal flavor"`
	Tags          []TagResponse `json:"tags" doc:"Tags in vocabulary order"`
	PhotoURL      string        `json:"photo_url,omitempty" doc:"Photo URL"`
	PhotoBlurHash string        `json:"photo_blur_hash,omitempty" doc:"BlurHash placeholder for the photo"`
}

// Tags maps domain tags to their rendering info, ordered as in the vocabulary.
func Tags(tags []domain.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, info := range domain.TagVocabulary() {
		for _, t := range tags {
			if t == info.Tag {
				out = append(out, TagResponse{Tag: string(info.Tag), Label: info.Label, Color: info.Color})
				break
			}
		}
	}
	return out
}

// Vocabulary returns every known tag.
func Vocabulary() []TagResponse {
	vocab := domain.TagVocabulary()
	out := make([]TagResponse, len(vocab))
	for i, info := range vocab {
		out[i] = TagResponse{Tag: string(info.Tag), Label: info.Label, Color: info.Color}
	}
	return out
}

// PhotoURL returns the public URL of a stored photo, or "" if there is none.
func PhotoURL(key string) string {
	if key == "" {
		return ""
	}
	return MediaPrefix + key
}

// Flavor maps a domain flavor to its staff representation.
func Flavor(f *domain.Flavor) FlavorResponse {
	return FlavorResponse{
		ID:            f.ID,
		Name:          f.Name,
		DisplayName:   f.DisplayName(),
		Slug:          f.Slug,
		Description:   f.Description,
		Type:          string(f.Type),
		TypeLabel:     f.Type.Label(),
		Status:        string(f.Status),
		Seasonal:      f.Seasonal,
		Tags:          Tags(f.Tags),
		PhotoURL:      PhotoURL(f.Photo),
		PhotoBlurHash: f.PhotoBlurHash,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Flavors maps a slice of flavors.
func Flavors(flavors []domain.Flavor) []FlavorResponse {
	out := make([]FlavorResponse, len(flavors))
	for i := range flavors {
		out[i] = Flavor(&flavors[i])
	}
	return out
}

// PublicFlavor maps a domain flavor to its customer representation.
func PublicFlavor(f *domain.Flavor) PublicFlavorResponse {
	return PublicFlavorResponse{
		ID:            f.ID,
		Name:          f.DisplayName(),
		Slug:          f.Slug,
		Description:   f.Description,
		Type:          string(f.Type),
		TypeLabel:     f.Type.Label(),
		Seasonal:      f.Seasonal,
		Tags:          Tags(f.Tags),
		PhotoURL:      PhotoURL(f.Photo),
		PhotoBlurHash: f.PhotoBlurHash,
	}
}
