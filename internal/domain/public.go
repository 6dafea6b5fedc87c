package domain

import (
	"slices"
	"time"
)

// ViewSource says where the public menu came from.
type ViewSource string

const (
	SourceToday     ViewSource = "today"
	SourceYesterday ViewSource = "yesterday"
	SourceCatalog   ViewSource = "catalog"
)

// Notes shown above the public menu when it is not today's curated selection.
const (
	NoteYesterday = "showing yesterday's selection"
	NoteCatalog   = "showing all available flavors"
)

// PublicView is what customers see for a given day.
type PublicView struct {
	LastUpdated time.Time  // zero for the catalog fallback
	Hit         *Flavor    // nil when there is no hit
	Date        Date       // the requested day
	SourceDate  Date       // the day of the selection shown; zero for the catalog
	Source      ViewSource
	Note        string
	Flavors     []Flavor
}

// SelectionMenu turns a selection and its member flavors into the public list:
// archived flavors dropped, OrderedView applied, hit hoisted to the front.
// members must be in retrieval order (ascending id).
func SelectionMenu(sel *DailySelection, members []Flavor) ([]Flavor, *Flavor) {
	active := slices.DeleteFunc(slices.Clone(members), func(f Flavor) bool {
		return !f.IsActive() || !sel.IsSelected(f.ID)
	})

	ordered := HoistHit(OrderedView(sel.DisplayOrder, active), sel.HitFlavorID)

	var hit *Flavor
	if sel.HasHit() && len(ordered) > 0 && ordered[0].ID == sel.HitFlavorID {
		h := ordered[0]
		hit = &h
	}
	return ordered, hit
}
