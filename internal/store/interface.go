// Package store defines the persistence contract for flavors and daily selections.
// Two implementations exist: store/sqlite (default) and store/badgerdb.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/smakiapp/smaki-server/internal/domain"
)

// Store defines all persistence operations.
//
// Every mutating method is a single transaction: it either fully applies or
// leaves storage untouched.
type Store interface {
	Close() error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Flavors. Lists and multi-gets return ascending id (catalog order).
	CreateFlavor(ctx context.Context, f *domain.Flavor) error
	UpdateFlavor(ctx context.Context, f *domain.Flavor) error
	GetFlavor(ctx context.Context, id int64) (*domain.Flavor, error)
	GetFlavorBySlug(ctx context.Context, slug string) (*domain.Flavor, error)
	GetFlavorsByIDs(ctx context.Context, ids []int64) ([]domain.Flavor, error)
	ListFlavors(ctx context.Context, status domain.FlavorStatus) ([]domain.Flavor, error)
	FlavorNameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	FlavorSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error)

	// ArchiveFlavor marks the flavor archived and detaches it from every
	// selection dated on or after from. It returns the flavor and the
	// selections that changed.
	ArchiveFlavor(ctx context.Context, id int64, from domain.Date, now time.Time) (*domain.Flavor, []*domain.DailySelection, error)
	RestoreFlavor(ctx context.Context, id int64, now time.Time) (*domain.Flavor, error)

	// Daily selections.
	GetSelection(ctx context.Context, date domain.Date) (*domain.DailySelection, error)
	ListSelections(ctx context.Context, from, to domain.Date) ([]*domain.DailySelection, error)

	// UpdateSelection runs mutate on the date's selection inside one transaction,
	// creating the record first if it does not exist. Concurrent first writes
	// for the same date all end up on the same record. If mutate returns an
	// error nothing is persisted (not even the lazily created record). If it
	// reports a change, UpdatedAt is set to now.
	UpdateSelection(ctx context.Context, date domain.Date, now time.Time, mutate SelectionMutation) (*domain.DailySelection, bool, error)
}

// SelectionMutation transforms a selection and reports whether it changed it.
// tx gives consistent reads of other records within the same transaction.
type SelectionMutation func(tx SelectionReader, sel *domain.DailySelection) (bool, error)

// SelectionReader is the read access available inside UpdateSelection.
type SelectionReader interface {
	// Selection returns the record for date or ErrNotFound.
	Selection(date domain.Date) (*domain.DailySelection, error)
	// Flavors returns the flavors with the given ids, ascending, skipping unknown ids.
	Flavors(ids []int64) ([]domain.Flavor, error)
}

// NameKey is the case- and whitespace-insensitive form used for flavor name uniqueness.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
