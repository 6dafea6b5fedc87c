package domain

import (
	"slices"
	"time"

	domainerrors "github.com/smakiapp/smaki-server/internal/errors"
)

// Direction is the way Move shifts a flavor in the display order.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection validates a direction coming from a request.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionUp, DirectionDown:
		return d, nil
	default:
		return "", domainerrors.Validationf("invalid direction %q: must be up or down", s)
	}
}

// DailySelection is the curated menu for one calendar date.
//
// FlavorIDs is the selected set, kept sorted ascending. DisplayOrder is the
// curated sequence; it never holds duplicates but may lag behind FlavorIDs
// (stale ids are skipped, unlisted members sort last). HitFlavorID is 0 when
// there is no hit of the day and otherwise always a member of FlavorIDs.
type DailySelection struct {
	Date         Date      `json:"date"`
	UpdatedAt    time.Time `json:"updated_at"`
	FlavorIDs    []int64   `json:"flavor_ids"`
	DisplayOrder []int64   `json:"display_order"`
	HitFlavorID  int64     `json:"hit_flavor_id,omitempty"`
}

// NewDailySelection returns the empty selection a date starts with.
func NewDailySelection(date Date) *DailySelection {
	return &DailySelection{Date: date, FlavorIDs: []int64{}, DisplayOrder: []int64{}}
}

// Clone returns a deep copy.
func (s *DailySelection) Clone() *DailySelection {
	c := *s
	c.FlavorIDs = slices.Clone(s.FlavorIDs)
	c.DisplayOrder = slices.Clone(s.DisplayOrder)
	if c.FlavorIDs == nil {
		c.FlavorIDs = []int64{}
	}
	if c.DisplayOrder == nil {
		c.DisplayOrder = []int64{}
	}
	return &c
}

// IsEmpty reports whether no flavor is selected.
func (s *DailySelection) IsEmpty() bool {
	return len(s.FlavorIDs) == 0
}

// IsSelected reports whether flavorID is in the selected set.
func (s *DailySelection) IsSelected(flavorID int64) bool {
	_, found := slices.BinarySearch(s.FlavorIDs, flavorID)
	return found
}

// HasHit reports whether a hit of the day is set.
func (s *DailySelection) HasHit() bool {
	return s.HitFlavorID != 0
}

// Touch records a state change.
func (s *DailySelection) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Toggle flips membership of flavorID and reports whether it is now selected.
// Selecting appends to the display order if absent; unselecting removes it
// from the order and clears the hit if it pointed at flavorID.
func (s *DailySelection) Toggle(flavorID int64) bool {
	if s.IsSelected(flavorID) {
		s.remove(flavorID)
		return false
	}

	i, _ := slices.BinarySearch(s.FlavorIDs, flavorID)
	s.FlavorIDs = slices.Insert(s.FlavorIDs, i, flavorID)
	if !slices.Contains(s.DisplayOrder, flavorID) {
		s.DisplayOrder = append(s.DisplayOrder, flavorID)
	}
	return true
}

// RemoveFlavor drops flavorID from the set, the order and the hit.
// It reports whether anything changed.
func (s *DailySelection) RemoveFlavor(flavorID int64) bool {
	if !s.IsSelected(flavorID) && !slices.Contains(s.DisplayOrder, flavorID) && s.HitFlavorID != flavorID {
		return false
	}
	s.remove(flavorID)
	return true
}

func (s *DailySelection) remove(flavorID int64) {
	if i, found := slices.BinarySearch(s.FlavorIDs, flavorID); found {
		s.FlavorIDs = slices.Delete(s.FlavorIDs, i, i+1)
	}
	s.DisplayOrder = slices.DeleteFunc(s.DisplayOrder, func(id int64) bool { return id == flavorID })
	if s.HitFlavorID == flavorID {
		s.HitFlavorID = 0
	}
}

// SetHit toggles the hit of the day. It reports whether flavorID is now the hit.
// A flavor outside the selected set is rejected and nothing changes.
func (s *DailySelection) SetHit(flavorID int64) (bool, error) {
	if !s.IsSelected(flavorID) {
		return false, domainerrors.NotFoundf("flavor %d is not in the selection for %s", flavorID, s.Date)
	}
	if s.HitFlavorID == flavorID {
		s.HitFlavorID = 0
		return false, nil
	}
	s.HitFlavorID = flavorID
	return true, nil
}

// Move swaps flavorID with its neighbor in the display order.
// It returns false without changing anything when flavorID is not in the
// order or already sits at the edge it is moving towards.
func (s *DailySelection) Move(flavorID int64, dir Direction) (bool, error) {
	if _, err := ParseDirection(string(dir)); err != nil {
		return false, err
	}

	i := slices.Index(s.DisplayOrder, flavorID)
	if i < 0 {
		return false, nil
	}

	j := i - 1
	if dir == DirectionDown {
		j = i + 1
	}
	if j < 0 || j >= len(s.DisplayOrder) {
		return false, nil
	}

	s.DisplayOrder[i], s.DisplayOrder[j] = s.DisplayOrder[j], s.DisplayOrder[i]
	return true, nil
}

// Reorder replaces the display order. ids must be exactly the selected set,
// without duplicates; otherwise nothing changes.
func (s *DailySelection) Reorder(ids []int64) error {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return domainerrors.ValidationWithDetails("invalid order",
				map[string]any{"duplicate": id})
		}
		seen[id] = struct{}{}
	}

	var missing, extra []int64
	for _, id := range s.FlavorIDs {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	for _, id := range ids {
		if !s.IsSelected(id) {
			extra = append(extra, id)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return domainerrors.ValidationWithDetails("order must list exactly the selected flavors", map[string]any{
			"missing": missing,
			"extra":   extra,
		})
	}

	s.DisplayOrder = slices.Clone(ids)
	return nil
}

// CopyFrom replaces the selection with prev's, keeping only flavors for
// which isActive returns true. The hit is reset. The new order is prev's order
// filtered the same way, followed by any kept flavor it did not list, by
// ascending id. It returns false and changes nothing when prev is nil or no
// flavor survives the filter.
func (s *DailySelection) CopyFrom(prev *DailySelection, isActive func(flavorID int64) bool) bool {
	if prev == nil {
		return false
	}

	kept := make([]int64, 0, len(prev.FlavorIDs))
	for _, id := range prev.FlavorIDs {
		if isActive(id) {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		return false
	}
	slices.Sort(kept)

	order := make([]int64, 0, len(kept))
	for _, id := range prev.DisplayOrder {
		if _, ok := slices.BinarySearch(kept, id); ok && !slices.Contains(order, id) {
			order = append(order, id)
		}
	}
	for _, id := range kept {
		if !slices.Contains(order, id) {
			order = append(order, id)
		}
	}

	s.FlavorIDs = kept
	s.DisplayOrder = order
	s.HitFlavorID = 0
	return true
}

// Clear empties the set, the order and the hit. It reports whether anything changed.
func (s *DailySelection) Clear() bool {
	if len(s.FlavorIDs) == 0 && len(s.DisplayOrder) == 0 && s.HitFlavorID == 0 {
		return false
	}
	s.FlavorIDs = []int64{}
	s.DisplayOrder = []int64{}
	s.HitFlavorID = 0
	return true
}

// Normalize restores the structural invariants on a record read from storage:
// a sorted, duplicate-free set, a duplicate-free order and a hit that is a member.
func (s *DailySelection) Normalize() {
	if s.FlavorIDs == nil {
		s.FlavorIDs = []int64{}
	}
	slices.Sort(s.FlavorIDs)
	s.FlavorIDs = slices.Compact(s.FlavorIDs)

	order := make([]int64, 0, len(s.DisplayOrder))
	for _, id := range s.DisplayOrder {
		if !slices.Contains(order, id) {
			order = append(order, id)
		}
	}
	s.DisplayOrder = order

	if s.HitFlavorID != 0 && !s.IsSelected(s.HitFlavorID) {
		s.HitFlavorID = 0
	}
}
