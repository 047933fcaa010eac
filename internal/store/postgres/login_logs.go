package postgres

import (
	"context"
	"fmt"
	"time"

	"hiddenplaces/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LoginLogsStore struct {
	pool *pgxpool.Pool
}

func NewLoginLogsStore(pool *pgxpool.Pool) *LoginLogsStore {
	return &LoginLogsStore{pool: pool}
}

func (s *LoginLogsStore) CreateLoginLog(ctx context.Context, l domain.LoginLog) error {
	const q = `
		INSERT INTO login_logs (email, result, ip, user_id, system, browser, country, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, q, l.Email, int16(l.Result), l.IP, l.UserID, l.System, l.Browser, l.Country, l.Timestamp)
	if err != nil {
		return fmt.Errorf("create login log: %w", err)
	}
	return nil
}

// ListLoginLogs pages through login attempts, newest first. The unique
// filter keeps only the latest attempt per email and IP pair.
func (s *LoginLogsStore) ListLoginLogs(ctx context.Context, filter domain.LoginFilter, since *time.Time, page domain.PageRequest) (domain.PageResult[domain.LoginLog], error) {
	base := `SELECT id, email, result, ip, user_id, system, browser, country, timestamp FROM login_logs l WHERE ($1::timestamptz IS NULL OR l.timestamp >= $1)`
	switch filter {
	case domain.LoginFilterFailed:
		base += ` AND l.result <> 0`
	case domain.LoginFilterUnique:
		base = `SELECT DISTINCT ON (email, ip) id, email, result, ip, user_id, system, browser, country, timestamp FROM login_logs l WHERE ($1::timestamptz IS NULL OR l.timestamp >= $1) ORDER BY email, ip, timestamp DESC`
	}

	q := `
		SELECT id, email, result, ip, user_id, system, browser, country, timestamp, count(*) OVER ()
		FROM (` + base + `) x
		ORDER BY timestamp DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	limit, offset := pageArgs(page)
	rows, err := s.pool.Query(ctx, q, since, limit, offset)
	if err != nil {
		return domain.PageResult[domain.LoginLog]{}, fmt.Errorf("list login logs: %w", err)
	}
	defer rows.Close()

	var (
		out   []domain.LoginLog
		total int
	)
	for rows.Next() {
		var (
			l      domain.LoginLog
			userID pgtype.Int8
		)
		if err := rows.Scan(&l.ID, &l.Email, &l.Result, &l.IP, &userID, &l.System, &l.Browser, &l.Country, &l.Timestamp, &total); err != nil {
			return domain.PageResult[domain.LoginLog]{}, fmt.Errorf("scan login log: %w", err)
		}
		l.UserID = int8Ptr(userID)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return domain.PageResult[domain.LoginLog]{}, fmt.Errorf("list login logs: %w", err)
	}
	return pageResult(out, total, page), nil
}

// CountFailedSince feeds the admin alert counter.
func (s *LoginLogsStore) CountFailedSince(ctx context.Context, since time.Time) (int, error) {
	const q = `SELECT count(*) FROM login_logs WHERE result <> 0 AND timestamp > $1`

	var n int
	if err := s.pool.QueryRow(ctx, q, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count failed logins: %w", err)
	}
	return n, nil
}
