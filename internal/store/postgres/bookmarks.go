package postgres

import (
	"context"
	"errors"
	"fmt"

	"hiddenplaces/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookmarksStore struct {
	pool *pgxpool.Pool
}

func NewBookmarksStore(pool *pgxpool.Pool) *BookmarksStore {
	return &BookmarksStore{pool: pool}
}

// CreateList inserts a list and, when locationID is set, bookmarks the
// location on it in the same transaction.
func (s *BookmarksStore) CreateList(ctx context.Context, userID int64, name string, locationID *int64) (domain.BookmarkList, error) {
	b := domain.BookmarkList{Name: name, UserID: userID}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO bookmarks (name, user_id) VALUES ($1, $2) RETURNING id`, name, userID,
		).Scan(&b.ID)
		if err != nil {
			var pgerr *pgconn.PgError
			if errors.As(err, &pgerr) && pgerr.Code == "23505" && pgerr.ConstraintName == "bookmarks_user_name_uq" {
				return domain.ErrBookmarksNameTaken
			}
			return fmt.Errorf("create bookmark list: %w", err)
		}
		if locationID == nil {
			return nil
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO bookmark_locations (bookmark_id, location_id) VALUES ($1, $2)`, b.ID, *locationID,
		); err != nil {
			return fmt.Errorf("add first bookmark: %w", err)
		}
		b.Count = 1
		return nil
	})
	if err != nil {
		return domain.BookmarkList{}, err
	}
	return b, nil
}

func (s *BookmarksStore) GetList(ctx context.Context, id int64) (domain.BookmarkList, error) {
	const q = `
		SELECT b.id, b.name, b.user_id, (SELECT count(*) FROM bookmark_locations bl WHERE bl.bookmark_id = b.id)
		FROM bookmarks b
		WHERE b.id = $1
	`
	return s.getList(ctx, q, id)
}

func (s *BookmarksStore) GetListByName(ctx context.Context, userID int64, name string) (domain.BookmarkList, error) {
	const q = `
		SELECT b.id, b.name, b.user_id, (SELECT count(*) FROM bookmark_locations bl WHERE bl.bookmark_id = b.id)
		FROM bookmarks b
		WHERE b.user_id = $1 AND b.name = $2
	`
	return s.getList(ctx, q, userID, name)
}

func (s *BookmarksStore) getList(ctx context.Context, q string, args ...any) (domain.BookmarkList, error) {
	var b domain.BookmarkList
	if err := s.pool.QueryRow(ctx, q, args...).Scan(&b.ID, &b.Name, &b.UserID, &b.Count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.BookmarkList{}, domain.ErrNotFound
		}
		return domain.BookmarkList{}, fmt.Errorf("get bookmark list: %w", err)
	}
	return b, nil
}

// ListForUser returns the user's lists by name. With locationID set, each
// list reports whether it contains that location.
func (s *BookmarksStore) ListForUser(ctx context.Context, userID int64, locationID *int64) ([]domain.BookmarkList, error) {
	const q = `
		SELECT b.id, b.name, b.user_id,
			(SELECT count(*) FROM bookmark_locations bl WHERE bl.bookmark_id = b.id),
			$2::bigint IS NOT NULL AND EXISTS (
				SELECT 1 FROM bookmark_locations bl WHERE bl.bookmark_id = b.id AND bl.location_id = $2
			)
		FROM bookmarks b
		WHERE b.user_id = $1
		ORDER BY b.name
	`

	rows, err := s.pool.Query(ctx, q, userID, locationID)
	if err != nil {
		return nil, fmt.Errorf("list bookmark lists: %w", err)
	}
	defer rows.Close()

	var out []domain.BookmarkList
	for rows.Next() {
		var b domain.BookmarkList
		if err := rows.Scan(&b.ID, &b.Name, &b.UserID, &b.Count, &b.Contains); err != nil {
			return nil, fmt.Errorf("scan bookmark list: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AddLocation reports false when the location already is on the list.
func (s *BookmarksStore) AddLocation(ctx context.Context, listID, locationID int64) (bool, error) {
	const q = `
		INSERT INTO bookmark_locations (bookmark_id, location_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, q, listID, locationID)
	if err != nil {
		return false, fmt.Errorf("add bookmark: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RemoveLocation reports false when the location was not on the list.
func (s *BookmarksStore) RemoveLocation(ctx context.Context, listID, locationID int64) (bool, error) {
	const q = `DELETE FROM bookmark_locations WHERE bookmark_id = $1 AND location_id = $2`

	tag, err := s.pool.Exec(ctx, q, listID, locationID)
	if err != nil {
		return false, fmt.Errorf("remove bookmark: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
