package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/smakiapp/smaki-server/internal/errors"
)

func selectionWith(ids []int64, order []int64, hit int64) *DailySelection {
	s := NewDailySelection(MustParseDate("2024-01-01"))
	s.FlavorIDs = ids
	s.DisplayOrder = order
	s.HitFlavorID = hit
	return s
}

func TestDailySelection_ToggleSelectsAndAppends(t *testing.T) {
	s := selectionWith([]int64{1, 5}, []int64{5, 1}, 0)

	selected := s.Toggle(3)

	assert.True(t, selected)
	assert.Equal(t, []int64{1, 3, 5}, s.FlavorIDs)
	assert.Equal(t, []int64{5, 1, 3}, s.DisplayOrder)
}

func TestDailySelection_ToggleDoesNotDuplicateStaleOrderEntry(t *testing.T) {
	// 3 lingers in the order from before it was unselected elsewhere.
	s := selectionWith([]int64{1}, []int64{3, 1}, 0)

	s.Toggle(3)

	assert.Equal(t, []int64{1, 3}, s.FlavorIDs)
	assert.Equal(t, []int64{3, 1}, s.DisplayOrder)
}

func TestDailySelection_ToggleOffClearsHit(t *testing.T) {
	s := selectionWith([]int64{1, 2}, []int64{2, 1}, 2)

	selected := s.Toggle(2)

	assert.False(t, selected)
	assert.Equal(t, []int64{1}, s.FlavorIDs)
	assert.Equal(t, []int64{1}, s.DisplayOrder)
	assert.False(t, s.HasHit())
}

func TestDailySelection_ToggleIsSelfInverse(t *testing.T) {
	for _, id := range []int64{1, 2, 3, 4} {
		s := selectionWith([]int64{1, 2, 3}, []int64{3, 1, 2}, 1)
		if id == 1 {
			// Toggling the hit off drops the hit, so start without one.
			s.HitFlavorID = 0
		}
		before := s.Clone()

		s.Toggle(id)
		s.Toggle(id)

		assert.Equal(t, before.FlavorIDs, s.FlavorIDs, "flavor %d", id)
		assert.Equal(t, before.HitFlavorID, s.HitFlavorID, "flavor %d", id)
		assert.ElementsMatch(t, before.DisplayOrder, s.DisplayOrder, "flavor %d", id)
	}
}

func TestDailySelection_SetHit(t *testing.T) {
	s := selectionWith([]int64{1, 2, 3}, []int64{1, 2, 3}, 0)

	isHit, err := s.SetHit(2)
	require.NoError(t, err)
	assert.True(t, isHit)
	assert.Equal(t, int64(2), s.HitFlavorID)

	isHit, err = s.SetHit(3)
	require.NoError(t, err)
	assert.True(t, isHit)
	assert.Equal(t, int64(3), s.HitFlavorID, "only one hit per day")

	isHit, err = s.SetHit(3)
	require.NoError(t, err)
	assert.False(t, isHit, "setting the hit again clears it")
	assert.False(t, s.HasHit())
}

func TestDailySelection_SetHitRejectsUnselected(t *testing.T) {
	s := selectionWith([]int64{1, 2}, []int64{2, 1}, 1)
	before := s.Clone()

	_, err := s.SetHit(9)

	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
	assert.Equal(t, before, s)
}

func TestDailySelection_Move(t *testing.T) {
	tests := []struct {
		name      string
		order     []int64
		flavor    int64
		dir       Direction
		wantMoved bool
		wantOrder []int64
	}{
		{"up from middle", []int64{1, 2, 3}, 2, DirectionUp, true, []int64{2, 1, 3}},
		{"down from middle", []int64{1, 2, 3}, 2, DirectionDown, true, []int64{1, 3, 2}},
		{"up at top", []int64{1, 2, 3}, 1, DirectionUp, false, []int64{1, 2, 3}},
		{"down at bottom", []int64{1, 2, 3}, 3, DirectionDown, false, []int64{1, 2, 3}},
		{"absent flavor", []int64{1, 2, 3}, 7, DirectionUp, false, []int64{1, 2, 3}},
		{"single entry", []int64{4}, 4, DirectionDown, false, []int64{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := selectionWith([]int64{1, 2, 3, 4}, tt.order, 0)

			moved, err := s.Move(tt.flavor, tt.dir)

			require.NoError(t, err)
			assert.Equal(t, tt.wantMoved, moved)
			assert.Equal(t, tt.wantOrder, s.DisplayOrder)
		})
	}
}

func TestDailySelection_MoveRejectsBadDirection(t *testing.T) {
	s := selectionWith([]int64{1, 2}, []int64{1, 2}, 0)

	_, err := s.Move(2, Direction("sideways"))

	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	assert.Equal(t, []int64{1, 2}, s.DisplayOrder)
}

func TestDailySelection_Reorder(t *testing.T) {
	s := selectionWith([]int64{1, 2, 3}, []int64{1, 2, 3}, 0)

	require.NoError(t, s.Reorder([]int64{3, 1, 2}))
	assert.Equal(t, []int64{3, 1, 2}, s.DisplayOrder)
}

func TestDailySelection_ReorderRejectsMismatch(t *testing.T) {
	tests := []struct {
		name string
		ids  []int64
	}{
		{"missing id", []int64{3, 1}},
		{"extra id", []int64{3, 1, 2, 4}},
		{"duplicate id", []int64{3, 1, 1, 2}},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := selectionWith([]int64{1, 2, 3}, []int64{2, 3, 1}, 0)

			err := s.Reorder(tt.ids)

			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
			assert.Equal(t, []int64{2, 3, 1}, s.DisplayOrder)
		})
	}
}

func TestDailySelection_CopyFromFiltersArchived(t *testing.T) {
	prev := selectionWith([]int64{1, 2, 3, 4}, []int64{4, 2, 1}, 4)
	archived := map[int64]bool{2: true}
	active := func(id int64) bool { return !archived[id] }

	s := NewDailySelection(MustParseDate("2024-01-02"))
	copied := s.CopyFrom(prev, active)

	assert.True(t, copied)
	assert.Equal(t, []int64{1, 3, 4}, s.FlavorIDs)
	// Order keeps 4,1 from yesterday and appends the unlisted 3.
	assert.Equal(t, []int64{4, 1, 3}, s.DisplayOrder)
	assert.False(t, s.HasHit(), "hit is not carried over")
}

func TestDailySelection_CopyFromAppendsMissingByAscendingID(t *testing.T) {
	prev := selectionWith([]int64{2, 5, 7, 9}, []int64{7}, 0)

	s := NewDailySelection(MustParseDate("2024-01-02"))
	s.CopyFrom(prev, func(int64) bool { return true })

	assert.Equal(t, []int64{7, 2, 5, 9}, s.DisplayOrder)
}

func TestDailySelection_CopyFromNothingToCopy(t *testing.T) {
	s := selectionWith([]int64{8}, []int64{8}, 8)
	before := s.Clone()

	assert.False(t, s.CopyFrom(nil, func(int64) bool { return true }))
	assert.False(t, s.CopyFrom(selectionWith([]int64{1}, []int64{1}, 0), func(int64) bool { return false }))
	assert.False(t, s.CopyFrom(NewDailySelection(MustParseDate("2023-12-31")), func(int64) bool { return true }))
	assert.Equal(t, before, s)
}

func TestDailySelection_Clear(t *testing.T) {
	s := selectionWith([]int64{1, 2}, []int64{2, 1}, 2)

	assert.True(t, s.Clear())
	assert.Empty(t, s.FlavorIDs)
	assert.Empty(t, s.DisplayOrder)
	assert.False(t, s.HasHit())

	assert.False(t, s.Clear(), "clearing an empty selection changes nothing")
}

func TestDailySelection_RemoveFlavor(t *testing.T) {
	s := selectionWith([]int64{1, 2, 3}, []int64{3, 2, 1}, 2)

	assert.True(t, s.RemoveFlavor(2))
	assert.Equal(t, []int64{1, 3}, s.FlavorIDs)
	assert.Equal(t, []int64{3, 1}, s.DisplayOrder)
	assert.False(t, s.HasHit())

	assert.False(t, s.RemoveFlavor(42))
}

func TestDailySelection_Normalize(t *testing.T) {
	s := selectionWith([]int64{3, 1, 3, 2}, []int64{2, 2, 9, 1}, 7)

	s.Normalize()

	assert.Equal(t, []int64{1, 2, 3}, s.FlavorIDs)
	assert.Equal(t, []int64{2, 9, 1}, s.DisplayOrder, "stale ids are tolerated, duplicates are not")
	assert.False(t, s.HasHit(), "a hit outside the set is dropped")
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("up")
	require.NoError(t, err)
	assert.Equal(t, DirectionUp, d)

	_, err = ParseDirection("UP")
	assert.Error(t, err)
}
