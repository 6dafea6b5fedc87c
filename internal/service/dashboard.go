package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/store"
)

// Dashboard is the staff landing summary.
type Dashboard struct {
	Today           domain.Date
	ActiveFlavors   int
	ArchivedFlavors int
	TodaySelected   int
	TodayHit        *domain.Flavor
	TodayUpdatedAt  time.Time // zero when today has no record
	PublicSource    domain.ViewSource
}

// DashboardService assembles the dashboard.
type DashboardService struct {
	store  store.Store
	public *PublicService
	clock  domain.Clock
	logger *slog.Logger
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(st store.Store, public *PublicService, clock domain.Clock, logger *slog.Logger) *DashboardService {
	return &DashboardService{store: st, public: public, clock: clock, logger: orDiscard(logger)}
}

// Summary returns catalog counts, today's selection and what the public
// page currently falls back to.
func (s *DashboardService) Summary(ctx context.Context) (*Dashboard, error) {
	today := s.clock.Today()
	d := &Dashboard{Today: today}

	all, err := s.store.ListFlavors(ctx, "")
	if err != nil {
		return nil, storeError(s.logger, "list flavors", err, nil)
	}
	for _, f := range all {
		if f.IsActive() {
			d.ActiveFlavors++
		} else {
			d.ArchivedFlavors++
		}
	}

	sel, err := s.store.GetSelection(ctx, today)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, storeError(s.logger, "get selection", err, nil)
	default:
		d.TodaySelected = len(sel.FlavorIDs)
		d.TodayUpdatedAt = sel.UpdatedAt
		if sel.HasHit() {
			for i := range all {
				if all[i].ID == sel.HitFlavorID {
					hit := all[i]
					d.TodayHit = &hit
					break
				}
			}
		}
	}

	view, err := s.public.resolve(ctx, today)
	if err != nil {
		return nil, err
	}
	d.PublicSource = view.Source
	return d, nil
}
