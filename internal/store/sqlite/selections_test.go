package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/store"
)

func toggle(ids ...int64) store.SelectionMutation {
	return func(_ store.SelectionReader, sel *domain.DailySelection) (bool, error) {
		for _, id := range ids {
			sel.Toggle(id)
		}
		return len(ids) > 0, nil
	}
}

func TestUpdateSelection_CreatesLazily(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	date := domain.MustParseDate("2025-06-10")
	now := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)

	if _, err := s.GetSelection(ctx, date); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first write, got %v", err)
	}

	sel, changed, err := s.UpdateSelection(ctx, date, now, toggle())
	if err != nil {
		t.Fatalf("UpdateSelection: %v", err)
	}
	if changed {
		t.Error("empty mutation should report no change")
	}
	if !sel.IsEmpty() || sel.Date != date {
		t.Errorf("unexpected selection %+v", sel)
	}
	if !sel.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt: got %v, want %v", sel.UpdatedAt, now)
	}

	stored, err := s.GetSelection(ctx, date)
	if err != nil {
		t.Fatalf("GetSelection after lazy create: %v", err)
	}
	if !stored.IsEmpty() {
		t.Errorf("expected empty stored selection, got %+v", stored)
	}
}

func TestUpdateSelection_PersistsSetOrderAndHit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustCreateFlavor(t, s, "A", "a")
	b := mustCreateFlavor(t, s, "B", "b")
	c := mustCreateFlavor(t, s, "C", "c")
	date := domain.MustParseDate("2025-06-10")
	now := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

	_, changed, err := s.UpdateSelection(ctx, date, now, func(_ store.SelectionReader, sel *domain.DailySelection) (bool, error) {
		sel.Toggle(c.ID)
		sel.Toggle(a.ID)
		sel.Toggle(b.ID)
		if _, err := sel.SetHit(b.ID); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		t.Fatalf("UpdateSelection: %v", err)
	}
	if !changed {
		t.Error("expected change")
	}

	got, err := s.GetSelection(ctx, date)
	if err != nil {
		t.Fatalf("GetSelection: %v", err)
	}
	wantSet := []int64{a.ID, b.ID, c.ID}
	wantOrder := []int64{c.ID, a.ID, b.ID}
	for i := range wantSet {
		if got.FlavorIDs[i] != wantSet[i] {
			t.Errorf("FlavorIDs: got %v, want %v", got.FlavorIDs, wantSet)
			break
		}
	}
	for i := range wantOrder {
		if got.DisplayOrder[i] != wantOrder[i] {
			t.Errorf("DisplayOrder: got %v, want %v", got.DisplayOrder, wantOrder)
			break
		}
	}
	if got.HitFlavorID != b.ID {
		t.Errorf("HitFlavorID: got %d, want %d", got.HitFlavorID, b.ID)
	}
}

func TestUpdateSelection_NoChangeKeepsTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustCreateFlavor(t, s, "A", "a")
	date := domain.MustParseDate("2025-06-10")
	first := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	if _, _, err := s.UpdateSelection(ctx, date, first, toggle(a.ID)); err != nil {
		t.Fatalf("UpdateSelection: %v", err)
	}

	sel, changed, err := s.UpdateSelection(ctx, date, first.Add(time.Hour), toggle())
	if err != nil {
		t.Fatalf("UpdateSelection no-op: %v", err)
	}
	if changed {
		t.Error("expected no change")
	}
	if !sel.UpdatedAt.Equal(first) {
		t.Errorf("UpdatedAt moved to %v", sel.UpdatedAt)
	}
}

func TestUpdateSelection_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustCreateFlavor(t, s, "A", "a")
	date := domain.MustParseDate("2025-06-10")
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	boom := errors.New("boom")

	_, _, err := s.UpdateSelection(ctx, date, now, func(_ store.SelectionReader, sel *domain.DailySelection) (bool, error) {
		sel.Toggle(a.ID)
		return true, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	// Neither the mutation nor the lazily created row survive.
	if _, err := s.GetSelection(ctx, date); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after rollback, got %v", err)
	}
}

func TestUpdateSelection_ReaderSeesCommittedState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustCreateFlavor(t, s, "A", "a")
	b := mustCreateFlavor(t, s, "B", "b")
	yesterday := domain.MustParseDate("2025-06-09")
	today := yesterday.Next()
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	if _, _, err := s.UpdateSelection(ctx, yesterday, now, toggle(b.ID, a.ID)); err != nil {
		t.Fatalf("seed yesterday: %v", err)
	}

	var (
		prev    *domain.DailySelection
		members []domain.Flavor
	)
	_, _, err := s.UpdateSelection(ctx, today, now, func(tx store.SelectionReader, sel *domain.DailySelection) (bool, error) {
		var err error
		if prev, err = tx.Selection(yesterday); err != nil {
			return false, err
		}
		members, err = tx.Flavors(prev.FlavorIDs)
		return false, err
	})
	if err != nil {
		t.Fatalf("UpdateSelection: %v", err)
	}
	if len(prev.DisplayOrder) != 2 || prev.DisplayOrder[0] != b.ID {
		t.Errorf("reader order: got %v", prev.DisplayOrder)
	}
	if len(members) != 2 {
		t.Errorf("reader flavors: got %d", len(members))
	}
}

func TestUpdateSelection_ConcurrentFirstWritesConverge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	date := domain.MustParseDate("2025-06-10")
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	var ids []int64
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		ids = append(ids, mustCreateFlavor(t, s, name, name).ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.UpdateSelection(ctx, date, now, toggle(id))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent UpdateSelection: %v", err)
		}
	}

	var rows int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM daily_selections WHERE date = ?`, date.String()).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 1 {
		t.Errorf("expected one selection row, got %d", rows)
	}

	sel, err := s.GetSelection(ctx, date)
	if err != nil {
		t.Fatalf("GetSelection: %v", err)
	}
	if len(sel.FlavorIDs) != len(ids) || len(sel.DisplayOrder) != len(ids) {
		t.Errorf("lost updates: set=%v order=%v", sel.FlavorIDs, sel.DisplayOrder)
	}
}

func TestListSelections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	for _, d := range []string{"2025-06-08", "2025-06-09", "2025-06-10"} {
		if _, _, err := s.UpdateSelection(ctx, domain.MustParseDate(d), now, toggle()); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}

	got, err := s.ListSelections(ctx, domain.MustParseDate("2025-06-09"), domain.Date{})
	if err != nil {
		t.Fatalf("ListSelections: %v", err)
	}
	if len(got) != 2 || got[0].Date.String() != "2025-06-09" || got[1].Date.String() != "2025-06-10" {
		t.Errorf("unexpected selections %+v", got)
	}

	all, err := s.ListSelections(ctx, domain.Date{}, domain.Date{})
	if err != nil {
		t.Fatalf("ListSelections(all): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 selections, got %d", len(all))
	}
}
