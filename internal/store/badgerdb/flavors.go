package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/store"
)

// CreateFlavor inserts f and sets f.ID.
func (s *Store) CreateFlavor(ctx context.Context, f *domain.Flavor) error {
	next, err := s.ids.Next()
	if err != nil {
		return fmt.Errorf("next flavor id: %w", err)
	}
	// Sequences start at zero; ids start at one.
	id := int64(next) + 1

	f.ID = id
	if f.Tags == nil {
		f.Tags = []domain.Tag{}
	}
	err = s.update(ctx, func(txn *badger.Txn) error {
		return s.flavors.Create(txn, formatID(id), f)
	})
	if err != nil {
		f.ID = 0
		return err
	}
	return nil
}

// UpdateFlavor overwrites f.
func (s *Store) UpdateFlavor(ctx context.Context, f *domain.Flavor) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return s.flavors.Update(txn, formatID(f.ID), f)
	})
}

// GetFlavor returns store.ErrNotFound for unknown ids.
func (s *Store) GetFlavor(ctx context.Context, id int64) (*domain.Flavor, error) {
	var f *domain.Flavor
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		f, err = s.flavors.Get(txn, formatID(id))
		return err
	})
	return f, err
}

// GetFlavorBySlug returns store.ErrNotFound for unknown slugs.
func (s *Store) GetFlavorBySlug(ctx context.Context, slug string) (*domain.Flavor, error) {
	var f *domain.Flavor
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		f, err = s.flavors.GetByIndex(txn, "slug", slug)
		return err
	})
	return f, err
}

// GetFlavorsByIDs returns the known flavors among ids, ascending by id.
func (s *Store) GetFlavorsByIDs(ctx context.Context, ids []int64) ([]domain.Flavor, error) {
	var out []domain.Flavor
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		out, err = s.getFlavorsByIDs(txn, ids)
		return err
	})
	return out, err
}

func (s *Store) getFlavorsByIDs(txn *badger.Txn, ids []int64) ([]domain.Flavor, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	out := make([]domain.Flavor, 0, len(sorted))
	for _, id := range sorted {
		f, err := s.flavors.Get(txn, formatID(id))
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, nil
}

// ListFlavors returns flavors with the given status, or all when status is empty.
func (s *Store) ListFlavors(ctx context.Context, status domain.FlavorStatus) ([]domain.Flavor, error) {
	out := []domain.Flavor{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		return s.flavors.List(txn, func(f *domain.Flavor) bool {
			if status == "" || f.Status == status {
				out = append(out, *f)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FlavorNameTaken reports whether another flavor already uses name (case-insensitively).
func (s *Store) FlavorNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	return s.indexTaken(ctx, "name", name, excludeID)
}

// FlavorSlugTaken reports whether another flavor already uses slug.
func (s *Store) FlavorSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	return s.indexTaken(ctx, "slug", slug, excludeID)
}

func (s *Store) indexTaken(ctx context.Context, index, value string, excludeID int64) (bool, error) {
	var owner string
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		owner, err = s.flavors.LookupID(txn, index, value)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	id, err := parseID(owner)
	if err != nil {
		return false, fmt.Errorf("corrupt %s index for %q: %w", index, value, err)
	}
	return id != excludeID, nil
}

// ArchiveFlavor archives the flavor and detaches it from selections dated on or after from.
func (s *Store) ArchiveFlavor(ctx context.Context, id int64, from domain.Date, now time.Time) (*domain.Flavor, []*domain.DailySelection, error) {
	var (
		flavor  *domain.Flavor
		changed []*domain.DailySelection
	)

	err := s.update(ctx, func(txn *badger.Txn) error {
		changed = nil
		f, err := s.setFlavorStatus(txn, id, domain.FlavorArchived, now)
		if err != nil {
			return err
		}
		flavor = f

		return eachSelectionFrom(txn, from, func(sel *domain.DailySelection) error {
			if !sel.RemoveFlavor(id) {
				return nil
			}
			sel.Touch(now)
			if err := putSelection(txn, sel); err != nil {
				return err
			}
			changed = append(changed, sel)
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return flavor, changed, nil
}

// RestoreFlavor marks the flavor active again. Selections are not touched.
func (s *Store) RestoreFlavor(ctx context.Context, id int64, now time.Time) (*domain.Flavor, error) {
	var flavor *domain.Flavor
	err := s.update(ctx, func(txn *badger.Txn) error {
		var err error
		flavor, err = s.setFlavorStatus(txn, id, domain.FlavorActive, now)
		return err
	})
	return flavor, err
}

func (s *Store) setFlavorStatus(txn *badger.Txn, id int64, status domain.FlavorStatus, now time.Time) (*domain.Flavor, error) {
	f, err := s.flavors.Get(txn, formatID(id))
	if err != nil {
		return nil, err
	}
	if f.Status == status {
		return f, nil
	}
	f.Status = status
	f.UpdatedAt = now.UTC()
	if err := s.flavors.Update(txn, formatID(id), f); err != nil {
		return nil, err
	}
	return f, nil
}
