package postgres

import (
	"context"
	"fmt"
	"time"

	"hiddenplaces/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventsStore struct {
	pool *pgxpool.Pool
}

func NewEventsStore(pool *pgxpool.Pool) *EventsStore {
	return &EventsStore{pool: pool}
}

func (s *EventsStore) CreateEvent(ctx context.Context, e domain.Event) error {
	const q = `
		INSERT INTO events (type, severity, text, user_id, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := s.pool.Exec(ctx, q, int16(e.Type), int16(e.Severity), e.Text, e.UserID, e.Timestamp); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *EventsStore) ListEvents(ctx context.Context, page domain.PageRequest) (domain.PageResult[domain.Event], error) {
	const q = `
		SELECT e.id, e.type, e.severity, e.text, e.user_id,
			coalesce(u.first_name || ' ' || u.last_name, ''), e.timestamp, count(*) OVER ()
		FROM events e
		LEFT JOIN users u ON u.id = e.user_id
		ORDER BY e.timestamp DESC, e.id DESC
		LIMIT $1 OFFSET $2
	`

	limit, offset := pageArgs(page)
	rows, err := s.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return domain.PageResult[domain.Event]{}, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var (
		out   []domain.Event
		total int
	)
	for rows.Next() {
		var (
			e      domain.Event
			userID pgtype.Int8
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.Severity, &e.Text, &userID, &e.UserName, &e.Timestamp, &total); err != nil {
			return domain.PageResult[domain.Event]{}, fmt.Errorf("scan event: %w", err)
		}
		e.UserID = int8Ptr(userID)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return domain.PageResult[domain.Event]{}, fmt.Errorf("list events: %w", err)
	}
	return pageResult(out, total, page), nil
}

func (s *EventsStore) CountSince(ctx context.Context, since time.Time) (int, error) {
	const q = `SELECT count(*) FROM events WHERE timestamp > $1`

	var n int
	if err := s.pool.QueryRow(ctx, q, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
