package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/store"
)

// GetSelection returns the selection for date or store.ErrNotFound.
func (s *Store) GetSelection(ctx context.Context, date domain.Date) (*domain.DailySelection, error) {
	return loadSelection(ctx, s.db, date)
}

// ListSelections returns selections between from and to inclusive, oldest first.
// A zero bound is open.
func (s *Store) ListSelections(ctx context.Context, from, to domain.Date) ([]*domain.DailySelection, error) {
	query := `SELECT date FROM daily_selections WHERE 1 = 1`
	var args []any
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, from.String())
	}
	if !to.IsZero() {
		query += ` AND date <= ?`
		args = append(args, to.String())
	}
	query += ` ORDER BY date`

	dates, err := queryDates(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.DailySelection, 0, len(dates))
	for _, d := range dates {
		sel, err := loadSelection(ctx, s.db, d)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, nil
}

// UpdateSelection implements store.Store.
func (s *Store) UpdateSelection(ctx context.Context, date domain.Date, now time.Time, mutate store.SelectionMutation) (*domain.DailySelection, bool, error) {
	var (
		result  *domain.DailySelection
		changed bool
	)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		// The primary key on date makes racing first writers converge on one row.
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO daily_selections (date, updated_at) VALUES (?, ?) ON CONFLICT (date) DO NOTHING`,
			date.String(), formatTime(now),
		); err != nil {
			return fmt.Errorf("ensure selection %s: %w", date, err)
		}

		sel, err := loadSelection(ctx, tx, date)
		if err != nil {
			return err
		}

		changed, err = mutate(&txReader{ctx: ctx, tx: tx}, sel)
		if err != nil {
			return err
		}
		if changed {
			sel.Touch(now)
			if err := saveSelection(ctx, tx, sel); err != nil {
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

// txReader gives a SelectionMutation consistent reads inside the transaction.
type txReader struct {
	ctx context.Context
	tx  *sql.Tx
}

func (r *txReader) Selection(date domain.Date) (*domain.DailySelection, error) {
	return loadSelection(r.ctx, r.tx, date)
}

func (r *txReader) Flavors(ids []int64) ([]domain.Flavor, error) {
	return getFlavorsByIDs(r.ctx, r.tx, ids)
}

func loadSelection(ctx context.Context, q querier, date domain.Date) (*domain.DailySelection, error) {
	var (
		hit       sql.NullInt64
		updatedAt string
	)
	err := q.QueryRowContext(ctx,
		`SELECT hit_flavor_id, updated_at FROM daily_selections WHERE date = ?`, date.String(),
	).Scan(&hit, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load selection %s: %w", date, err)
	}

	sel := domain.NewDailySelection(date)
	sel.HitFlavorID = hit.Int64
	if sel.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	if sel.FlavorIDs, err = queryIDs(ctx, q,
		`SELECT flavor_id FROM daily_selection_flavors WHERE date = ? ORDER BY flavor_id`, date.String(),
	); err != nil {
		return nil, err
	}
	if sel.DisplayOrder, err = queryIDs(ctx, q,
		`SELECT flavor_id FROM daily_selection_order WHERE date = ? ORDER BY sort_order`, date.String(),
	); err != nil {
		return nil, err
	}

	sel.Normalize()
	return sel, nil
}

// saveSelection rewrites the selection's row and child tables.
func saveSelection(ctx context.Context, tx *sql.Tx, sel *domain.DailySelection) error {
	key := sel.Date.String()

	if _, err := tx.ExecContext(ctx,
		`UPDATE daily_selections SET hit_flavor_id = ?, updated_at = ? WHERE date = ?`,
		nullInt64(sel.HitFlavorID), formatTime(sel.UpdatedAt), key,
	); err != nil {
		return fmt.Errorf("update selection %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_selection_flavors WHERE date = ?`, key); err != nil {
		return fmt.Errorf("clear selection flavors %s: %w", key, err)
	}
	for _, id := range sel.FlavorIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO daily_selection_flavors (date, flavor_id) VALUES (?, ?)`, key, id,
		); err != nil {
			return fmt.Errorf("insert selection flavor %d: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_selection_order WHERE date = ?`, key); err != nil {
		return fmt.Errorf("clear selection order %s: %w", key, err)
	}
	for i, id := range sel.DisplayOrder {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO daily_selection_order (date, sort_order, flavor_id) VALUES (?, ?, ?)`, key, i, id,
		); err != nil {
			return fmt.Errorf("insert selection order %d: %w", id, err)
		}
	}
	return nil
}

// selectionDatesReferencing lists dates on or after from whose set, order or hit mention flavorID.
func selectionDatesReferencing(ctx context.Context, q querier, flavorID int64, from domain.Date) ([]domain.Date, error) {
	return queryDates(ctx, q, `
		SELECT date FROM daily_selection_flavors WHERE flavor_id = ? AND date >= ?
		UNION
		SELECT date FROM daily_selection_order WHERE flavor_id = ? AND date >= ?
		UNION
		SELECT date FROM daily_selections WHERE hit_flavor_id = ? AND date >= ?
		ORDER BY date`,
		flavorID, from.String(), flavorID, from.String(), flavorID, from.String())
}

func queryDates(ctx context.Context, q querier, query string, args ...any) ([]domain.Date, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query selection dates: %w", err)
	}
	defer rows.Close()

	var dates []domain.Date
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		d, err := domain.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func queryIDs(ctx context.Context, q querier, query string, args ...any) ([]int64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
