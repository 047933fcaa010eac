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

type InvitationsStore struct {
	pool *pgxpool.Pool
}

func NewInvitationsStore(pool *pgxpool.Pool) *InvitationsStore {
	return &InvitationsStore{pool: pool}
}

const invitationColumns = `
	i.id, i.email, i.name, i.reason, i.state, i.created, i.invited_by_id,
	coalesce(inv.first_name || ' ' || inv.last_name, ''), i.approved_by_id, i.approved_at, i.user_id
`

const invitationFrom = `
	FROM invitations i
	LEFT JOIN users inv ON inv.id = i.invited_by_id
`

func scanInvitation(row scanner, extra ...any) (domain.Invitation, error) {
	var (
		inv        domain.Invitation
		approvedBy pgtype.Int8
		approvedAt pgtype.Timestamptz
		userID     pgtype.Int8
	)
	dest := []any{
		&inv.ID, &inv.Email, &inv.Name, &inv.Reason, &inv.State, &inv.Created, &inv.InvitedByID,
		&inv.InvitedBy, &approvedBy, &approvedAt, &userID,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Invitation{}, err
	}
	inv.ApprovedByID = int8Ptr(approvedBy)
	inv.ApprovedAt = timestamptzPtr(approvedAt)
	inv.UserID = int8Ptr(userID)
	return inv, nil
}

func (s *InvitationsStore) CreateInvitation(ctx context.Context, inv domain.Invitation) (domain.Invitation, error) {
	const q = `
		INSERT INTO invitations (email, name, reason, state, created, invited_by_id, approved_by_id, approved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, q, inv.Email, inv.Name, inv.Reason, int16(inv.State), inv.Created,
		inv.InvitedByID, inv.ApprovedByID, inv.ApprovedAt).Scan(&inv.ID)
	if err != nil {
		return domain.Invitation{}, fmt.Errorf("create invitation: %w", err)
	}
	return s.GetInvitation(ctx, inv.ID)
}

func (s *InvitationsStore) GetInvitation(ctx context.Context, id int64) (domain.Invitation, error) {
	const q = `SELECT ` + invitationColumns + invitationFrom + ` WHERE i.id = $1`

	inv, err := scanInvitation(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Invitation{}, domain.ErrNotFound
		}
		return domain.Invitation{}, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// FindOpenInvitation returns the waiting or approved invitation for email.
func (s *InvitationsStore) FindOpenInvitation(ctx context.Context, email string) (domain.Invitation, error) {
	const q = `SELECT ` + invitationColumns + invitationFrom + `
		WHERE lower(i.email) = lower($1) AND i.state IN ($2, $3)
		ORDER BY i.created DESC
		LIMIT 1
	`

	inv, err := scanInvitation(s.pool.QueryRow(ctx, q, email, int16(domain.InvitationWaiting), int16(domain.InvitationApproved)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Invitation{}, domain.ErrNotFound
		}
		return domain.Invitation{}, fmt.Errorf("find open invitation: %w", err)
	}
	return inv, nil
}

// SetState moves an invitation to state. approvedBy is recorded when
// non-nil; moving to APPROVED also stamps approved_at with when.
func (s *InvitationsStore) SetState(ctx context.Context, id int64, state domain.InvitationState, approvedBy *int64, when time.Time) error {
	const q = `
		UPDATE invitations
		SET state = $2,
			approved_by_id = coalesce($3, approved_by_id),
			approved_at = CASE WHEN $2 = $5 THEN $4 ELSE approved_at END
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, q, id, int16(state), approvedBy, when.UTC(), int16(domain.InvitationApproved))
	if err != nil {
		return fmt.Errorf("set invitation state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListInvitations pages through invitations, newest first. A nil state lists all.
func (s *InvitationsStore) ListInvitations(ctx context.Context, state *domain.InvitationState, page domain.PageRequest) (domain.PageResult[domain.Invitation], error) {
	const q = `SELECT ` + invitationColumns + `, count(*) OVER ()` + invitationFrom + `
		WHERE $1::smallint IS NULL OR i.state = $1
		ORDER BY i.created DESC, i.id DESC
		LIMIT $2 OFFSET $3
	`

	var stateArg *int16
	if state != nil {
		v := int16(*state)
		stateArg = &v
	}
	limit, offset := pageArgs(page)
	rows, err := s.pool.Query(ctx, q, stateArg, limit, offset)
	if err != nil {
		return domain.PageResult[domain.Invitation]{}, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var (
		out   []domain.Invitation
		total int
	)
	for rows.Next() {
		inv, err := scanInvitation(rows, &total)
		if err != nil {
			return domain.PageResult[domain.Invitation]{}, fmt.Errorf("scan invitation: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return domain.PageResult[domain.Invitation]{}, fmt.Errorf("list invitations: %w", err)
	}
	return pageResult(out, total, page), nil
}

// ExpireStale times out approved, unused invitations approved before
// cutoff. Waiting invitations are left for an administrator to decide.
func (s *InvitationsStore) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `
		UPDATE invitations
		SET state = $2
		WHERE state = $1 AND user_id IS NULL AND approved_at < $3
	`

	tag, err := s.pool.Exec(ctx, q, int16(domain.InvitationApproved), int16(domain.InvitationTimedOut), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("expire invitations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RegisterUser creates the user and claims the invitation in one
// transaction. The claim only succeeds while the invitation is approved and
// unused, so a token can be redeemed at most once.
func (s *InvitationsStore) RegisterUser(ctx context.Context, inviteID int64, nu domain.NewUser) (domain.User, error) {
	var user domain.User
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		const lock = `
			SELECT id FROM invitations
			WHERE id = $1 AND state = $2 AND user_id IS NULL
			FOR UPDATE
		`
		var id int64
		if err := tx.QueryRow(ctx, lock, inviteID, int16(domain.InvitationApproved)).Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrInvitationInvalid
			}
			return fmt.Errorf("lock invitation: %w", err)
		}

		u, err := createUser(ctx, tx, nu)
		if err != nil {
			return err
		}

		const claim = `UPDATE invitations SET state = $2, user_id = $3 WHERE id = $1`
		if _, err := tx.Exec(ctx, claim, inviteID, int16(domain.InvitationRegistered), u.ID); err != nil {
			return fmt.Errorf("claim invitation: %w", err)
		}
		user = u
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}
