package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/store"
)

// flavorColumns must match the scan order in scanFlavor.
const flavorColumns = `id, name, slug, description, type, tags, seasonal, status,
	photo, photo_blur_hash, created_at, updated_at`

func scanFlavor(scanner interface{ Scan(dest ...any) error }) (*domain.Flavor, error) {
	var (
		f         domain.Flavor
		tagsJSON  string
		seasonal  int
		photo     sql.NullString
		blurHash  sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&f.ID,
		&f.Name,
		&f.Slug,
		&f.Description,
		&f.Type,
		&tagsJSON,
		&seasonal,
		&f.Status,
		&photo,
		&blurHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &f.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of flavor %d: %w", f.ID, err)
	}
	if f.Tags == nil {
		f.Tags = []domain.Tag{}
	}
	f.Seasonal = seasonal != 0
	f.Photo = photo.String
	f.PhotoBlurHash = blurHash.String

	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func encodeTags(tags []domain.Tag) (string, error) {
	if tags == nil {
		tags = []domain.Tag{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CreateFlavor inserts f and sets f.ID.
// Returns store.ErrAlreadyExists when the name or slug is taken.
func (s *Store) CreateFlavor(ctx context.Context, f *domain.Flavor) error {
	tags, err := encodeTags(f.Tags)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO flavors (
			name, name_key, slug, description, type, tags, seasonal, status,
			photo, photo_blur_hash, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Name,
		store.NameKey(f.Name),
		f.Slug,
		f.Description,
		string(f.Type),
		tags,
		boolInt(f.Seasonal),
		string(f.Status),
		nullString(f.Photo),
		nullString(f.PhotoBlurHash),
		formatTime(f.CreatedAt),
		formatTime(f.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert flavor: %w", err)
	}

	f.ID, err = res.LastInsertId()
	return err
}

// UpdateFlavor overwrites every mutable column of f.
func (s *Store) UpdateFlavor(ctx context.Context, f *domain.Flavor) error {
	tags, err := encodeTags(f.Tags)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE flavors SET
			name = ?, name_key = ?, slug = ?, description = ?, type = ?, tags = ?,
			seasonal = ?, status = ?, photo = ?, photo_blur_hash = ?, updated_at = ?
		WHERE id = ?`,
		f.Name,
		store.NameKey(f.Name),
		f.Slug,
		f.Description,
		string(f.Type),
		tags,
		boolInt(f.Seasonal),
		string(f.Status),
		nullString(f.Photo),
		nullString(f.PhotoBlurHash),
		formatTime(f.UpdatedAt),
		f.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("update flavor %d: %w", f.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetFlavor returns store.ErrNotFound for unknown ids.
func (s *Store) GetFlavor(ctx context.Context, id int64) (*domain.Flavor, error) {
	return getFlavor(ctx, s.db, id)
}

func getFlavor(ctx context.Context, q querier, id int64) (*domain.Flavor, error) {
	row := q.QueryRowContext(ctx, `SELECT `+flavorColumns+` FROM flavors WHERE id = ?`, id)
	f, err := scanFlavor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return f, err
}

// GetFlavorBySlug returns store.ErrNotFound for unknown slugs.
func (s *Store) GetFlavorBySlug(ctx context.Context, slug string) (*domain.Flavor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+flavorColumns+` FROM flavors WHERE slug = ?`, slug)
	f, err := scanFlavor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return f, err
}

// GetFlavorsByIDs returns the known flavors among ids, ascending by id.
func (s *Store) GetFlavorsByIDs(ctx context.Context, ids []int64) ([]domain.Flavor, error) {
	return getFlavorsByIDs(ctx, s.db, ids)
}

func getFlavorsByIDs(ctx context.Context, q querier, ids []int64) ([]domain.Flavor, error) {
	if len(ids) == 0 {
		return []domain.Flavor{}, nil
	}
	return queryFlavors(ctx, q,
		`SELECT `+flavorColumns+` FROM flavors WHERE id IN (`+placeholders(len(ids))+`) ORDER BY id`,
		int64Args(ids)...)
}

// ListFlavors returns flavors with the given status, or all when status is empty.
func (s *Store) ListFlavors(ctx context.Context, status domain.FlavorStatus) ([]domain.Flavor, error) {
	if status == "" {
		return queryFlavors(ctx, s.db, `SELECT `+flavorColumns+` FROM flavors ORDER BY id`)
	}
	return queryFlavors(ctx, s.db,
		`SELECT `+flavorColumns+` FROM flavors WHERE status = ? ORDER BY id`, string(status))
}

func queryFlavors(ctx context.Context, q querier, query string, args ...any) ([]domain.Flavor, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query flavors: %w", err)
	}
	defer rows.Close()

	out := []domain.Flavor{}
	for rows.Next() {
		f, err := scanFlavor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// FlavorNameTaken reports whether another flavor already uses name (case-insensitively).
func (s *Store) FlavorNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM flavors WHERE name_key = ? AND id != ?`, store.NameKey(name), excludeID)
}

// FlavorSlugTaken reports whether another flavor already uses slug.
func (s *Store) FlavorSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM flavors WHERE slug = ? AND id != ?`, slug, excludeID)
}

func (s *Store) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ArchiveFlavor archives the flavor and detaches it from selections dated on or after from.
func (s *Store) ArchiveFlavor(ctx context.Context, id int64, from domain.Date, now time.Time) (*domain.Flavor, []*domain.DailySelection, error) {
	var (
		flavor  *domain.Flavor
		changed []*domain.DailySelection
	)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		f, err := setFlavorStatus(ctx, tx, id, domain.FlavorArchived, now)
		if err != nil {
			return err
		}
		flavor = f

		dates, err := selectionDatesReferencing(ctx, tx, id, from)
		if err != nil {
			return err
		}
		for _, date := range dates {
			sel, err := loadSelection(ctx, tx, date)
			if err != nil {
				return err
			}
			if !sel.RemoveFlavor(id) {
				continue
			}
			sel.Touch(now)
			if err := saveSelection(ctx, tx, sel); err != nil {
				return err
			}
			changed = append(changed, sel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return flavor, changed, nil
}

// RestoreFlavor marks the flavor active again. Selections are not touched.
func (s *Store) RestoreFlavor(ctx context.Context, id int64, now time.Time) (*domain.Flavor, error) {
	var flavor *domain.Flavor
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		f, err := setFlavorStatus(ctx, tx, id, domain.FlavorActive, now)
		flavor = f
		return err
	})
	return flavor, err
}

func setFlavorStatus(ctx context.Context, tx *sql.Tx, id int64, status domain.FlavorStatus, now time.Time) (*domain.Flavor, error) {
	f, err := getFlavor(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if f.Status == status {
		return f, nil
	}

	f.Status = status
	f.UpdatedAt = now.UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE flavors SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(f.UpdatedAt), id,
	); err != nil {
		return nil, fmt.Errorf("set flavor %d status: %w", id, err)
	}
	return f, nil
}
