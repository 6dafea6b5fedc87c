package domain

import "slices"

// OrderedView sorts flavors for display: those listed in order come first, by
// their position there; the rest follow in their incoming relative order.
// Ids in order that match no flavor are ignored. The input is not modified.
//
// This is the only ordering used by both the staff and the public views.
func OrderedView(order []int64, flavors []Flavor) []Flavor {
	position := make(map[int64]int, len(order))
	for i, id := range order {
		if _, dup := position[id]; !dup {
			position[id] = i
		}
	}

	rank := func(f Flavor) int {
		if p, ok := position[f.ID]; ok {
			return p
		}
		return len(order)
	}

	out := slices.Clone(flavors)
	slices.SortStableFunc(out, func(a, b Flavor) int {
		return rank(a) - rank(b)
	})
	return out
}

// HoistHit moves the flavor with id hitID to the front, keeping everything
// else in place. A zero or absent hitID leaves the list as is.
func HoistHit(flavors []Flavor, hitID int64) []Flavor {
	if hitID == 0 {
		return flavors
	}
	i := slices.IndexFunc(flavors, func(f Flavor) bool { return f.ID == hitID })
	if i <= 0 {
		return flavors
	}
	out := make([]Flavor, 0, len(flavors))
	out = append(out, flavors[i])
	out = append(out, flavors[:i]...)
	out = append(out, flavors[i+1:]...)
	return out
}
