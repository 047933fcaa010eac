package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"hiddenplaces/internal/domain"
)

// SessionsStore persists login sessions. Session ids are UUIDs generated by
// the database and travel to the browser inside a signed cookie.
type SessionsStore struct {
	pool *pgxpool.Pool
}

func NewSessionsStore(pool *pgxpool.Pool) *SessionsStore {
	return &SessionsStore{pool: pool}
}

func (s *SessionsStore) CreateSession(ctx context.Context, userID int64, expiresAt time.Time, ip, userAgent string) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sessions (user_id, expires_at, ip, user_agent)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text`,
		userID, expiresAt.UTC(), nullIfEmpty(truncate(ip, 45)), nullIfEmpty(userAgent),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create session for user %d: %w", userID, err)
	}
	return id, nil
}

// GetSession returns a live session. Unknown, malformed, expired and revoked
// ids all report domain.ErrNotFound.
func (s *SessionsStore) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return domain.Session{}, domain.ErrNotFound
	}

	var (
		sess    domain.Session
		revoked pgtype.Timestamptz
	)
	err = s.pool.QueryRow(ctx, `
		SELECT id::text, user_id, created_at, expires_at, revoked_at
		FROM sessions
		WHERE id = $1::uuid AND revoked_at IS NULL AND expires_at > now()`,
		id.String(),
	).Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt, &revoked)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.Session{}, domain.ErrNotFound
	case err != nil:
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	sess.RevokedAt = timestamptzPtr(revoked)
	return sess, nil
}

func (s *SessionsStore) RevokeSession(ctx context.Context, sessionID string, when time.Time) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil
	}
	return s.revoke(ctx, "id = $1::uuid", id.String(), when)
}

// RevokeUserSessions logs a user out everywhere.
func (s *SessionsStore) RevokeUserSessions(ctx context.Context, userID int64, when time.Time) error {
	return s.revoke(ctx, "user_id = $1", userID, when)
}

func (s *SessionsStore) revoke(ctx context.Context, where string, arg any, when time.Time) error {
	q := `UPDATE sessions SET revoked_at = $2 WHERE revoked_at IS NULL AND ` + where
	if _, err := s.pool.Exec(ctx, q, arg, when.UTC()); err != nil {
		return fmt.Errorf("revoke sessions (%s): %w", where, err)
	}
	return nil
}

// DeleteExpired purges sessions that stopped being usable before cutoff and
// reports how many rows went away.
func (s *SessionsStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE expires_at < $1 OR revoked_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
