package dto

import (
	"time"

	"github.com/smakiapp/smaki-server/internal/domain"
)

// SelectionResponse is a daily selection record.
type SelectionResponse struct {
	Date         string    `json:"date" doc:"Calendar date (YYYY-MM-DD)"`
	FlavorIDs    []int64   `json:"flavor_ids" doc:"Selected flavor IDs, ascending"`
	DisplayOrder []int64   `json:"display_order" doc:"Curated display order"`
	HitFlavorID  *int64    `json:"hit_flavor_id" doc:"Hit of the day, null when unset"`
	UpdatedAt    time.Time `json:"updated_at" doc:"Last change; zero for a day never edited"`
}

// SelectionOpResponse is the result of a selection operation.
type SelectionOpResponse struct {
	Selection SelectionResponse `json:"selection" doc:"Selection after the operation"`
	Changed   bool              `json:"changed" doc:"Whether anything was modified"`
	Reason    string            `json:"reason,omitempty" doc:"Why nothing changed"`
}

// CatalogEntryResponse is an active flavor in the staff picker.
type CatalogEntryResponse struct {
	Flavor   FlavorResponse `json:"flavor" doc:"Flavor"`
	Selected bool           `json:"selected" doc:"Whether it is selected for the day"`
	Hit      bool           `json:"hit" doc:"Whether it is the hit of the day"`
}

// SelectionViewResponse is the staff view of one day.
type SelectionViewResponse struct {
	Selection SelectionResponse      `json:"selection" doc:"Selection record"`
	Saved     bool                   `json:"saved" doc:"False when the day has no stored record yet"`
	Flavors   []FlavorResponse       `json:"flavors" doc:"Selected flavors in display order"`
	Hit       *FlavorResponse        `json:"hit" doc:"Hit of the day, null when unset"`
	Catalog   []CatalogEntryResponse `json:"catalog" doc:"Active flavors with their selection state"`
}

// PublicViewResponse is the customer menu for a day.
type PublicViewResponse struct {
	Date        string                 `json:"date" doc:"Requested date"`
	Source      string                 `json:"source" doc:"today, yesterday or catalog"`
	SourceDate  string                 `json:"source_date,omitempty" doc:"Date of the selection shown"`
	Note        string                 `json:"note,omitempty" doc:"Shown when the menu is a fallback"`
	LastUpdated *time.Time             `json:"last_updated,omitempty" doc:"When the selection shown was last changed"`
	Hit         *PublicFlavorResponse  `json:"hit" doc:"Hit of the day, null when unset"`
	Flavors     []PublicFlavorResponse `json:"flavors" doc:"Flavors in display order, hit first"`
}

// Selection maps a selection record.
func Selection(sel *domain.DailySelection) SelectionResponse {
	resp := SelectionResponse{
		Date:         sel.Date.String(),
		FlavorIDs:    sel.FlavorIDs,
		DisplayOrder: sel.DisplayOrder,
		UpdatedAt:    sel.UpdatedAt,
	}
	if resp.FlavorIDs == nil {
		resp.FlavorIDs = []int64{}
	}
	if resp.DisplayOrder == nil {
		resp.DisplayOrder = []int64{}
	}
	if sel.HasHit() {
		hit := sel.HitFlavorID
		resp.HitFlavorID = &hit
	}
	return resp
}

// Selections maps a slice of selection records.
func Selections(sels []*domain.DailySelection) []SelectionResponse {
	out := make([]SelectionResponse, len(sels))
	for i, sel := range sels {
		out[i] = Selection(sel)
	}
	return out
}

// PublicView maps the resolved customer menu.
func PublicView(v *domain.PublicView) PublicViewResponse {
	resp := PublicViewResponse{
		Date:       v.Date.String(),
		Source:     string(v.Source),
		SourceDate: v.SourceDate.String(),
		Note:       v.Note,
		Flavors:    make([]PublicFlavorResponse, len(v.Flavors)),
	}
	if !v.LastUpdated.IsZero() {
		t := v.LastUpdated
		resp.LastUpdated = &t
	}
	for i := range v.Flavors {
		resp.Flavors[i] = PublicFlavor(&v.Flavors[i])
	}
	if v.Hit != nil {
		hit := PublicFlavor(v.Hit)
		resp.Hit = &hit
	}
	return resp
}
