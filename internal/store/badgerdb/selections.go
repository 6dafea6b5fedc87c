package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/store"
)

// GetSelection returns the selection for date or store.ErrNotFound.
func (s *Store) GetSelection(ctx context.Context, date domain.Date) (*domain.DailySelection, error) {
	var sel *domain.DailySelection
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		sel, err = getSelection(txn, date)
		return err
	})
	return sel, err
}

// ListSelections returns selections between from and to inclusive, oldest first.
// A zero bound is open.
func (s *Store) ListSelections(ctx context.Context, from, to domain.Date) ([]*domain.DailySelection, error) {
	out := []*domain.DailySelection{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		return eachSelectionFrom(txn, from, func(sel *domain.DailySelection) error {
			if !to.IsZero() && sel.Date.After(to) {
				return errStopIteration
			}
			out = append(out, sel)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateSelection implements store.Store. A conflicting concurrent commit
// replays the whole transaction, mutate included, on fresh state.
func (s *Store) UpdateSelection(ctx context.Context, date domain.Date, now time.Time, mutate store.SelectionMutation) (*domain.DailySelection, bool, error) {
	var (
		result  *domain.DailySelection
		changed bool
	)

	err := s.update(ctx, func(txn *badger.Txn) error {
		sel, err := getSelection(txn, date)
		created := false
		if errors.Is(err, store.ErrNotFound) {
			sel = domain.NewDailySelection(date)
			sel.Touch(now)
			created = true
		} else if err != nil {
			return err
		}

		changed, err = mutate(&txReader{store: s, txn: txn}, sel)
		if err != nil {
			return err
		}
		if changed {
			sel.Touch(now)
		}
		if changed || created {
			if err := putSelection(txn, sel); err != nil {
				return err
			}
		}
		result = sel
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, changed, nil
}

type txReader struct {
	store *Store
	txn   *badger.Txn
}

func (r *txReader) Selection(date domain.Date) (*domain.DailySelection, error) {
	return getSelection(r.txn, date)
}

func (r *txReader) Flavors(ids []int64) ([]domain.Flavor, error) {
	return r.store.getFlavorsByIDs(r.txn, ids)
}

var errStopIteration = errors.New("stop iteration")

func getSelection(txn *badger.Txn, date domain.Date) (*domain.DailySelection, error) {
	item, err := txn.Get(selectionKey(date))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get selection %s: %w", date, err)
	}

	var sel domain.DailySelection
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &sel)
	}); err != nil {
		return nil, fmt.Errorf("decode selection %s: %w", date, err)
	}
	sel.Normalize()
	return &sel, nil
}

func putSelection(txn *badger.Txn, sel *domain.DailySelection) error {
	data, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("marshal selection %s: %w", sel.Date, err)
	}
	return txn.Set(selectionKey(sel.Date), data)
}

// eachSelectionFrom calls fn for every selection dated on or after from, oldest first.
// fn may return errStopIteration to end the walk early without error.
func eachSelectionFrom(txn *badger.Txn, from domain.Date, fn func(*domain.DailySelection) error) error {
	// Decoded up front so fn can write through txn.
	batch, err := selectionsFrom(txn, from)
	if err != nil {
		return err
	}
	for _, sel := range batch {
		if err := fn(sel); err != nil {
			if errors.Is(err, errStopIteration) {
				return nil
			}
			return err
		}
	}
	return nil
}

func selectionsFrom(txn *badger.Txn, from domain.Date) ([]*domain.DailySelection, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(selectionPrefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	start := []byte(selectionPrefix)
	if !from.IsZero() {
		start = selectionKey(from)
	}

	var out []*domain.DailySelection
	for it.Seek(start); it.Valid(); it.Next() {
		var sel domain.DailySelection
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &sel)
		}); err != nil {
			return nil, fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
		sel.Normalize()
		out = append(out, &sel)
	}
	return out, nil
}
