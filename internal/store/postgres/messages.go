package postgres

import (
	"context"
	"errors"
	"fmt"

	"hiddenplaces/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessagesStore struct {
	pool *pgxpool.Pool
}

func NewMessagesStore(pool *pgxpool.Pool) *MessagesStore {
	return &MessagesStore{pool: pool}
}

const threadColumns = `
	t.id, t.subject, t.timestamp, t.sender_seen, t.recipient_seen,
	t.sender_id, s.first_name || ' ' || s.last_name,
	t.recipient_id, r.first_name || ' ' || r.last_name
`

const threadFrom = `
	FROM threads t
	JOIN users s ON s.id = t.sender_id
	JOIN users r ON r.id = t.recipient_id
`

func scanThread(row scanner, extra ...any) (domain.Thread, error) {
	var t domain.Thread
	dest := []any{
		&t.ID, &t.Subject, &t.Timestamp, &t.SenderSeen, &t.RecipientSeen,
		&t.SenderID, &t.SenderName, &t.RecipientID, &t.RecipientName,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Thread{}, err
	}
	return t, nil
}

// CreateThread stores a new thread with its first message.
func (s *MessagesStore) CreateThread(ctx context.Context, t domain.Thread, text string) (domain.Thread, error) {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		const insertThread = `
			INSERT INTO threads (subject, timestamp, sender_seen, recipient_seen, sender_id, recipient_id)
			VALUES ($1, $2, TRUE, FALSE, $3, $4)
			RETURNING id
		`
		if err := tx.QueryRow(ctx, insertThread, t.Subject, t.Timestamp, t.SenderID, t.RecipientID).Scan(&t.ID); err != nil {
			return fmt.Errorf("create thread: %w", err)
		}
		const insertMessage = `INSERT INTO messages (message, timestamp, thread_id, user_id) VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, insertMessage, text, t.Timestamp, t.ID, t.SenderID); err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Thread{}, err
	}
	return s.GetThread(ctx, t.ID)
}

func (s *MessagesStore) GetThread(ctx context.Context, id int64) (domain.Thread, error) {
	const q = `SELECT ` + threadColumns + threadFrom + ` WHERE t.id = $1`

	t, err := scanThread(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Thread{}, domain.ErrNotFound
		}
		return domain.Thread{}, fmt.Errorf("get thread: %w", err)
	}
	return t, nil
}

// AddMessage appends m to its thread, bumps the thread timestamp and marks
// the thread unseen for the participant who did not write it.
func (s *MessagesStore) AddMessage(ctx context.Context, m domain.Message) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		const insert = `INSERT INTO messages (message, timestamp, thread_id, user_id) VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, insert, m.Text, m.Timestamp, m.ThreadID, m.UserID); err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		const bump = `
			UPDATE threads
			SET timestamp = $2,
				sender_seen = (sender_id = $3),
				recipient_seen = (recipient_id = $3)
			WHERE id = $1
		`
		tag, err := tx.Exec(ctx, bump, m.ThreadID, m.Timestamp, m.UserID)
		if err != nil {
			return fmt.Errorf("bump thread: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (s *MessagesStore) ListMessages(ctx context.Context, threadID int64) ([]domain.Message, error) {
	const q = `
		SELECT m.id, m.message, m.timestamp, m.thread_id, m.user_id, u.first_name || ' ' || u.last_name
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.thread_id = $1
		ORDER BY m.timestamp, m.id
	`

	rows, err := s.pool.Query(ctx, q, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.Text, &m.Timestamp, &m.ThreadID, &m.UserID, &m.UserName); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListThreads pages through threads the user takes part in, latest activity first.
func (s *MessagesStore) ListThreads(ctx context.Context, userID int64, page domain.PageRequest) (domain.PageResult[domain.Thread], error) {
	const q = `SELECT ` + threadColumns + `, count(*) OVER ()` + threadFrom + `
		WHERE t.sender_id = $1 OR t.recipient_id = $1
		ORDER BY t.timestamp DESC, t.id DESC
		LIMIT $2 OFFSET $3
	`

	limit, offset := pageArgs(page)
	rows, err := s.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return domain.PageResult[domain.Thread]{}, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var (
		out   []domain.Thread
		total int
	)
	for rows.Next() {
		t, err := scanThread(rows, &total)
		if err != nil {
			return domain.PageResult[domain.Thread]{}, fmt.Errorf("scan thread: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return domain.PageResult[domain.Thread]{}, fmt.Errorf("list threads: %w", err)
	}
	return pageResult(out, total, page), nil
}

func (s *MessagesStore) MarkSeen(ctx context.Context, threadID, userID int64) error {
	const q = `
		UPDATE threads
		SET sender_seen = sender_seen OR sender_id = $2,
			recipient_seen = recipient_seen OR recipient_id = $2
		WHERE id = $1
	`

	if _, err := s.pool.Exec(ctx, q, threadID, userID); err != nil {
		return fmt.Errorf("mark thread seen: %w", err)
	}
	return nil
}

func (s *MessagesStore) CountUnread(ctx context.Context, userID int64) (int, error) {
	const q = `
		SELECT count(*)
		FROM threads
		WHERE (sender_id = $1 AND NOT sender_seen) OR (recipient_id = $1 AND NOT recipient_seen)
	`

	var n int
	if err := s.pool.QueryRow(ctx, q, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread threads: %w", err)
	}
	return n, nil
}
