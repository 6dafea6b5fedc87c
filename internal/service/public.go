package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/smakiapp/smaki-server/internal/domain"
	domainerrors "github.com/smakiapp/smaki-server/internal/errors"
	"github.com/smakiapp/smaki-server/internal/metrics"
	"github.com/smakiapp/smaki-server/internal/store"
)

// PublicService builds what customers see.
type PublicService struct {
	store  store.Store
	clock  domain.Clock
	logger *slog.Logger
}

// NewPublicService creates a public service.
func NewPublicService(st store.Store, clock domain.Clock, logger *slog.Logger) *PublicService {
	return &PublicService{store: st, clock: clock, logger: orDiscard(logger)}
}

// Today returns the shop's current day.
func (s *PublicService) Today() domain.Date {
	return s.clock.Today()
}

// ResolvePublicView returns the menu for day: its own selection if it has any
// flavor, else the previous day's, else every active flavor. Each call counts
// as a public view.
func (s *PublicService) ResolvePublicView(ctx context.Context, day domain.Date) (*domain.PublicView, error) {
	view, err := s.resolve(ctx, day)
	if err != nil {
		return nil, err
	}
	metrics.PublicViewsTotal.WithLabelValues(string(view.Source)).Inc()
	return view, nil
}

// resolve picks the public menu without recording a view.
func (s *PublicService) resolve(ctx context.Context, day domain.Date) (*domain.PublicView, error) {
	if day.IsZero() {
		day = s.clock.Today()
	}

	candidates := []struct {
		date   domain.Date
		source domain.ViewSource
		note   string
	}{
		{day, domain.SourceToday, ""},
		{day.Prev(), domain.SourceYesterday, domain.NoteYesterday},
	}

	for _, c := range candidates {
		sel, err := s.store.GetSelection(ctx, c.date)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, storeError(s.logger, "get selection", err, nil)
		}
		if sel.IsEmpty() {
			continue
		}

		members, err := s.store.GetFlavorsByIDs(ctx, sel.FlavorIDs)
		if err != nil {
			return nil, storeError(s.logger, "load selection flavors", err, nil)
		}
		flavors, hit := domain.SelectionMenu(sel, members)

		return &domain.PublicView{
			Date:        day,
			SourceDate:  c.date,
			Source:      c.source,
			Note:        c.note,
			LastUpdated: sel.UpdatedAt,
			Flavors:     displayNames(flavors),
			Hit:         displayName(hit),
		}, nil
	}

	active, err := s.store.ListFlavors(ctx, domain.FlavorActive)
	if err != nil {
		return nil, storeError(s.logger, "list active flavors", err, nil)
	}
	return &domain.PublicView{
		Date:    day,
		Source:  domain.SourceCatalog,
		Note:    domain.NoteCatalog,
		Flavors: displayNames(active),
	}, nil
}

// GetFlavor returns an active flavor by slug. Archived flavors are not public.
func (s *PublicService) GetFlavor(ctx context.Context, slug string) (*domain.Flavor, error) {
	f, err := s.store.GetFlavorBySlug(ctx, slug)
	if err != nil {
		return nil, storeError(s.logger, "get flavor by slug", err, errFlavorNotFound)
	}
	if !f.IsActive() {
		return nil, domainerrors.NotFound("flavor not found")
	}
	return displayName(f), nil
}

func displayNames(flavors []domain.Flavor) []domain.Flavor {
	for i := range flavors {
		flavors[i].Name = flavors[i].DisplayName()
	}
	return flavors
}

func displayName(f *domain.Flavor) *domain.Flavor {
	if f == nil {
		return nil
	}
	c := *f
	c.Name = c.DisplayName()
	return &c
}
