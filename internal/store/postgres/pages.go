package postgres

import (
	"context"
	"errors"
	"fmt"

	"hiddenplaces/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PagesStore struct {
	pool *pgxpool.Pool
}

func NewPagesStore(pool *pgxpool.Pool) *PagesStore {
	return &PagesStore{pool: pool}
}

func (s *PagesStore) GetPage(ctx context.Context, t domain.PageType) (domain.Page, error) {
	const q = `SELECT text, modified FROM pages WHERE id = $1`

	p := domain.Page{Type: t}
	var modified pgtype.Timestamptz
	if err := s.pool.QueryRow(ctx, q, int16(t)).Scan(&p.Text, &modified); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Page{}, domain.ErrNotFound
		}
		return domain.Page{}, fmt.Errorf("get page: %w", err)
	}
	p.Modified = timestamptzPtr(modified)
	return p, nil
}

func (s *PagesStore) SavePage(ctx context.Context, p domain.Page) error {
	const q = `
		INSERT INTO pages (id, text, modified)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text, modified = EXCLUDED.modified
	`

	if _, err := s.pool.Exec(ctx, q, int16(p.Type), p.Text, p.Modified); err != nil {
		return fmt.Errorf("save page: %w", err)
	}
	return nil
}
