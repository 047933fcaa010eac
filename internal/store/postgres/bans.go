package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hiddenplaces/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BansStore struct {
	pool *pgxpool.Pool
}

func NewBansStore(pool *pgxpool.Pool) *BansStore {
	return &BansStore{pool: pool}
}

func (s *BansStore) CreateBan(ctx context.Context, b domain.Ban) (domain.Ban, error) {
	const q = `
		INSERT INTO bans (reason, created, until, permanent, creator_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	if err := s.pool.QueryRow(ctx, q, b.Reason, b.Created, b.Until, b.Permanent, b.CreatorID, b.UserID).Scan(&b.ID); err != nil {
		return domain.Ban{}, fmt.Errorf("create ban: %w", err)
	}
	return b, nil
}

// ActiveBan returns the ban that applies to userID at now, preferring
// permanent bans and then the one lasting longest.
func (s *BansStore) ActiveBan(ctx context.Context, userID int64, now time.Time) (domain.Ban, error) {
	const q = `
		SELECT id, reason, created, until, permanent, creator_id, user_id
		FROM bans
		WHERE user_id = $1 AND (permanent OR until > $2)
		ORDER BY permanent DESC, until DESC
		LIMIT 1
	`

	var b domain.Ban
	err := s.pool.QueryRow(ctx, q, userID, now).Scan(&b.ID, &b.Reason, &b.Created, &b.Until, &b.Permanent, &b.CreatorID, &b.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Ban{}, domain.ErrNotFound
		}
		return domain.Ban{}, fmt.Errorf("get active ban: %w", err)
	}
	return b, nil
}
