package domain

import (
	"slices"
	"strings"

	domainerrors "github.com/smakiapp/smaki-server/internal/errors"
)

// Tag is a badge from the fixed shop vocabulary.
type Tag string

const (
	TagVegan       Tag = "vegan"
	TagLactoseFree Tag = "lactose-free"
	TagNew         Tag = "new"
	TagHit         Tag = "hit"
	TagSugarFree   Tag = "sugar-free"
	TagSeasonal    Tag = "seasonal"
)

// TagInfo describes how a tag is rendered.
type TagInfo struct {
	Tag   Tag    `json:"tag"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// tagVocabulary is ordered the way badges appear on the menu board.
var tagVocabulary = []TagInfo{
	{Tag: TagVegan, Label: "Wegański", Color: "green"},
	{Tag: TagLactoseFree, Label: "Bez laktozy", Color: "blue"},
	{Tag: TagNew, Label: "Nowość", Color: "purple"},
	{Tag: TagHit, Label: "Hit dnia", Color: "red"},
	{Tag: TagSugarFree, Label: "Bez cukru", Color: "yellow"},
	{Tag: TagSeasonal, Label: "Sezonowy", Color: "orange"},
}

// TagVocabulary returns a copy of the predefined tags.
func TagVocabulary() []TagInfo {
	return slices.Clone(tagVocabulary)
}

// LookupTag returns rendering info for t.
func LookupTag(t Tag) (TagInfo, bool) {
	i := slices.IndexFunc(tagVocabulary, func(info TagInfo) bool { return info.Tag == t })
	if i < 0 {
		return TagInfo{}, false
	}
	return tagVocabulary[i], true
}

// NormalizeTags lowercases, trims and de-duplicates raw tags (first occurrence wins),
// then checks them against the vocabulary and the per-flavor limit.
func NormalizeTags(raw []string) ([]Tag, error) {
	tags := make([]Tag, 0, len(raw))
	var unknown []string
	for _, r := range raw {
		t := Tag(strings.ToLower(strings.TrimSpace(r)))
		if t == "" || slices.Contains(tags, t) {
			continue
		}
		if _, ok := LookupTag(t); !ok {
			unknown = append(unknown, r)
			continue
		}
		tags = append(tags, t)
	}

	if len(unknown) > 0 {
		return nil, domainerrors.ValidationWithDetails("invalid flavor", map[string]string{
			"tags": "unknown tag(s): " + strings.Join(unknown, ", "),
		})
	}
	if len(tags) > MaxTagsPerFlavor {
		return nil, domainerrors.ValidationWithDetails("invalid flavor", map[string]string{
			"tags": "at most 5 tags allowed",
		})
	}
	return tags, nil
}
