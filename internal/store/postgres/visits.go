package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hiddenplaces/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VisitsStore struct {
	pool *pgxpool.Pool
}

func NewVisitsStore(pool *pgxpool.Pool) *VisitsStore {
	return &VisitsStore{pool: pool}
}

const visitColumns = `
	v.id, v.uuid, v.visited_on, v.comment, v.user_id,
	coalesce(u.first_name || ' ' || u.last_name, ''), v.location_id
`

const visitFrom = `
	FROM visits v
	JOIN users u ON u.id = v.user_id
`

func scanVisit(row scanner) (domain.Visit, error) {
	var (
		v  domain.Visit
		id pgtype.UUID
	)
	if err := row.Scan(&v.ID, &id, &v.VisitedOn, &v.Comment, &v.UserID, &v.UserName, &v.LocationID); err != nil {
		return domain.Visit{}, err
	}
	v.UUID = uuidOrEmpty(id)
	return v, nil
}

func (s *VisitsStore) CreateVisit(ctx context.Context, v domain.Visit) (domain.Visit, error) {
	const q = `
		INSERT INTO visits (uuid, visited_on, comment, user_id, location_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if err := s.pool.QueryRow(ctx, q, v.UUID, v.VisitedOn, v.Comment, v.UserID, v.LocationID).Scan(&v.ID); err != nil {
		return domain.Visit{}, fmt.Errorf("create visit: %w", err)
	}
	return v, nil
}

func (s *VisitsStore) GetVisit(ctx context.Context, id int64) (domain.Visit, error) {
	const q = `SELECT ` + visitColumns + visitFrom + ` WHERE v.id = $1`

	v, err := scanVisit(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Visit{}, domain.ErrNotFound
		}
		return domain.Visit{}, fmt.Errorf("get visit: %w", err)
	}
	return v, nil
}

func (s *VisitsStore) UpdateVisit(ctx context.Context, id int64, visitedOn time.Time, comment string) error {
	const q = `UPDATE visits SET visited_on = $2, comment = $3 WHERE id = $1`

	tag, err := s.pool.Exec(ctx, q, id, visitedOn, comment)
	if err != nil {
		return fmt.Errorf("update visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *VisitsStore) DeleteVisit(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListVisits returns the visits of a location, most recent first.
func (s *VisitsStore) ListVisits(ctx context.Context, locationID int64) ([]domain.Visit, error) {
	const q = `SELECT ` + visitColumns + visitFrom + ` WHERE v.location_id = $1 ORDER BY v.visited_on DESC, v.id DESC`

	rows, err := s.pool.Query(ctx, q, locationID)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var out []domain.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
