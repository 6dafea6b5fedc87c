package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/smakiapp/smaki-server/internal/domain"
	domainerrors "github.com/smakiapp/smaki-server/internal/errors"
	"github.com/smakiapp/smaki-server/internal/metrics"
	"github.com/smakiapp/smaki-server/internal/sse"
	"github.com/smakiapp/smaki-server/internal/store"
)

// Operation names, used in logs, metrics and events.
const (
	OpToggle       = "toggle"
	OpSetHit       = "set_hit"
	OpMove         = "move"
	OpReorder      = "reorder"
	OpCopyPrevious = "copy_previous"
	OpClear        = "clear"
)

// Reasons reported with Changed=false.
const (
	ReasonNothingToCopy  = "nothing to copy"
	ReasonCannotMove     = "flavor is not in the display order or already at the edge"
	ReasonOrderUnchanged = "order unchanged"
	ReasonAlreadyEmpty   = "selection is already empty"
)

// SelectionResult is the outcome of a selection operation. Changed=false
// means nothing was modified and Reason says why.
type SelectionResult struct {
	Selection *domain.DailySelection
	Changed   bool
	Reason    string
}

// SelectionService runs the staff operations on daily selections. Each
// operation is one atomic read-modify-write of the date's record.
type SelectionService struct {
	store  store.Store
	events Emitter
	clock  domain.Clock
	logger *slog.Logger
}

// NewSelectionService creates a selection service.
func NewSelectionService(st store.Store, events Emitter, clock domain.Clock, logger *slog.Logger) *SelectionService {
	return &SelectionService{
		store:  st,
		events: orNoop(events),
		clock:  clock,
		logger: orDiscard(logger),
	}
}

// Toggle selects an unselected flavor or unselects a selected one.
// Only active flavors can be selected; any member can be unselected.
func (s *SelectionService) Toggle(ctx context.Context, actor Actor, date domain.Date, flavorID int64) (*SelectionResult, error) {
	return s.apply(ctx, actor, OpToggle, date,
		func(tx store.SelectionReader, sel *domain.DailySelection) (bool, string, error) {
			if !sel.IsSelected(flavorID) {
				found, err := tx.Flavors([]int64{flavorID})
				if err != nil {
					return false, "", err
				}
				if len(found) == 0 || !found[0].IsActive() {
					return false, "", domainerrors.NotFoundf("flavor %d not found or archived", flavorID)
				}
			}
			sel.Toggle(flavorID)
			return true, "", nil
		}, "flavor_id", flavorID)
}

// SetHit makes a selected flavor the hit of the day, or clears the hit if it
// already is.
func (s *SelectionService) SetHit(ctx context.Context, actor Actor, date domain.Date, flavorID int64) (*SelectionResult, error) {
	return s.apply(ctx, actor, OpSetHit, date,
		func(_ store.SelectionReader, sel *domain.DailySelection) (bool, string, error) {
			if _, err := sel.SetHit(flavorID); err != nil {
				return false, "", err
			}
			return true, "", nil
		}, "flavor_id", flavorID)
}

// Move swaps a flavor with its neighbor in the display order.
func (s *SelectionService) Move(ctx context.Context, actor Actor, date domain.Date, flavorID int64, direction string) (*SelectionResult, error) {
	dir, err := domain.ParseDirection(direction)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, OpMove, date,
		func(_ store.SelectionReader, sel *domain.DailySelection) (bool, string, error) {
			moved, err := sel.Move(flavorID, dir)
			if err != nil || !moved {
				return false, ReasonCannotMove, err
			}
			return true, "", nil
		}, "flavor_id", flavorID, "direction", dir)
}

// Reorder replaces the display order. ids must list exactly the selected flavors.
func (s *SelectionService) Reorder(ctx context.Context, actor Actor, date domain.Date, ids []int64) (*SelectionResult, error) {
	return s.apply(ctx, actor, OpReorder, date,
		func(_ store.SelectionReader, sel *domain.DailySelection) (bool, string, error) {
			before := slices.Clone(sel.DisplayOrder)
			if err := sel.Reorder(ids); err != nil {
				return false, "", err
			}
			if slices.Equal(before, sel.DisplayOrder) {
				return false, ReasonOrderUnchanged, nil
			}
			return true, "", nil
		}, "count", len(ids))
}

// CopyFromPreviousDay replaces the selection with the previous day's,
// keeping only flavors that are still active and resetting the hit.
func (s *SelectionService) CopyFromPreviousDay(ctx context.Context, actor Actor, date domain.Date) (*SelectionResult, error) {
	return s.apply(ctx, actor, OpCopyPrevious, date,
		func(tx store.SelectionReader, sel *domain.DailySelection) (bool, string, error) {
			prev, err := tx.Selection(date.Prev())
			if errors.Is(err, store.ErrNotFound) {
				return false, ReasonNothingToCopy, nil
			}
			if err != nil {
				return false, "", err
			}

			members, err := tx.Flavors(prev.FlavorIDs)
			if err != nil {
				return false, "", err
			}
			active := make(map[int64]bool, len(members))
			for _, f := range members {
				active[f.ID] = f.IsActive()
			}

			if !sel.CopyFrom(prev, func(id int64) bool { return active[id] }) {
				return false, ReasonNothingToCopy, nil
			}
			return true, "", nil
		}, "from", date.Prev().String())
}

// Clear empties the selection.
func (s *SelectionService) Clear(ctx context.Context, actor Actor, date domain.Date) (*SelectionResult, error) {
	return s.apply(ctx, actor, OpClear, date,
		func(_ store.SelectionReader, sel *domain.DailySelection) (bool, string, error) {
			if !sel.Clear() {
				return false, ReasonAlreadyEmpty, nil
			}
			return true, "", nil
		})
}

type selectionOp func(tx store.SelectionReader, sel *domain.DailySelection) (changed bool, reason string, err error)

func (s *SelectionService) apply(ctx context.Context, actor Actor, op string, date domain.Date, fn selectionOp, logArgs ...any) (*SelectionResult, error) {
	if date.IsZero() {
		return nil, domainerrors.Validation("date is required")
	}

	timer := metrics.NewTimer()
	var reason string
	sel, changed, err := s.store.UpdateSelection(ctx, date, clockNow(s.clock), func(tx store.SelectionReader, sel *domain.DailySelection) (bool, error) {
		// Assigned on every attempt; the badger backend replays on conflict.
		ok, why, err := fn(tx, sel)
		reason = why
		return ok, err
	})
	metrics.ObserveSelectionOp(op, changed, err, timer.Elapsed())
	if err != nil {
		return nil, storeError(s.logger, op, err, nil)
	}

	if changed {
		reason = ""
		s.events.Emit(sse.NewSelectionUpdatedEvent(sel, op))
		args := append([]any{
			"op", op,
			"date", date.String(),
			"actor", actor.Username,
			"selected", len(sel.FlavorIDs),
		}, logArgs...)
		s.logger.Info("selection updated", args...)
	} else {
		s.logger.Debug("selection unchanged", "op", op, "date", date.String(), "reason", reason)
	}

	return &SelectionResult{Selection: sel, Changed: changed, Reason: reason}, nil
}

// CatalogEntry is a flavor in the staff picker with its selection state.
type CatalogEntry struct {
	Flavor   domain.Flavor
	Selected bool
	Hit      bool
}

// SelectionView is the staff view of one day.
type SelectionView struct {
	Selection *domain.DailySelection
	Saved     bool            // false when no record exists yet
	Flavors   []domain.Flavor // selected flavors in display order, archived ones included
	Hit       *domain.Flavor
	Catalog   []CatalogEntry // active flavors in catalog order
}

// GetSelection returns the staff view for date. A date without a record
// yields an empty, unsaved selection; nothing is written.
func (s *SelectionService) GetSelection(ctx context.Context, date domain.Date) (*SelectionView, error) {
	if date.IsZero() {
		return nil, domainerrors.Validation("date is required")
	}

	view := &SelectionView{Saved: true}
	sel, err := s.store.GetSelection(ctx, date)
	switch {
	case errors.Is(err, store.ErrNotFound):
		sel = domain.NewDailySelection(date)
		view.Saved = false
	case err != nil:
		return nil, storeError(s.logger, "get selection", err, nil)
	}
	view.Selection = sel

	members, err := s.store.GetFlavorsByIDs(ctx, sel.FlavorIDs)
	if err != nil {
		return nil, storeError(s.logger, "load selection flavors", err, nil)
	}
	view.Flavors = domain.OrderedView(sel.DisplayOrder, members)
	for i := range view.Flavors {
		if view.Flavors[i].ID == sel.HitFlavorID {
			hit := view.Flavors[i]
			view.Hit = &hit
			break
		}
	}

	active, err := s.store.ListFlavors(ctx, domain.FlavorActive)
	if err != nil {
		return nil, storeError(s.logger, "list active flavors", err, nil)
	}
	view.Catalog = make([]CatalogEntry, len(active))
	for i, f := range active {
		view.Catalog[i] = CatalogEntry{
			Flavor:   f,
			Selected: sel.IsSelected(f.ID),
			Hit:      sel.HitFlavorID == f.ID,
		}
	}
	return view, nil
}

// ListSelections returns stored selections between from and to inclusive.
func (s *SelectionService) ListSelections(ctx context.Context, from, to domain.Date) ([]*domain.DailySelection, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, domainerrors.Validation("to must not be before from")
	}
	sels, err := s.store.ListSelections(ctx, from, to)
	if err != nil {
		return nil, storeError(s.logger, "list selections", err, nil)
	}
	return sels, nil
}
