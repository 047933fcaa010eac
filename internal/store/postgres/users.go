package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hiddenplaces/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

const userColumns = `
	u.id, u.first_name, u.last_name, u.email, u.created, u.last_seen, u.active,
	u.about, u.photo_path, u.role, u.event_check_ts, u.location_check_ts, u.login_check_ts
`

func scanUser(row scanner, extra ...any) (domain.User, error) {
	var (
		u        domain.User
		lastSeen pgtype.Timestamptz
	)
	dest := []any{
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Created, &lastSeen, &u.Active,
		&u.About, &u.PhotoPath, &u.Role, &u.EventCheckTS, &u.LocationCheckTS, &u.LoginCheckTS,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.User{}, err
	}
	u.LastSeen = timestamptzPtr(lastSeen)
	return u, nil
}

func (s *UsersStore) CreateUser(ctx context.Context, nu domain.NewUser) (domain.User, error) {
	return createUser(ctx, s.pool, nu)
}

func createUser(ctx context.Context, q interface {
	QueryRow(context.Context, string, ...any) pgx.Row
}, nu domain.NewUser) (domain.User, error) {
	const insert = `
		INSERT INTO users AS u (first_name, last_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	u, err := scanUser(q.QueryRow(ctx, insert, nu.FirstName, nu.LastName, nu.Email, nu.PasswordHash, int16(nu.Role)))
	if err != nil {
		return domain.User{}, mapUserWriteError(err)
	}
	return u, nil
}

// CreateRoot inserts the root account with its reserved id.
func (s *UsersStore) CreateRoot(ctx context.Context, nu domain.NewUser) (domain.User, error) {
	const q = `
		INSERT INTO users AS u (id, first_name, last_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	u, err := scanUser(s.pool.QueryRow(ctx, q, domain.RootUserID, nu.FirstName, nu.LastName, nu.Email, nu.PasswordHash, int16(domain.RoleRoot)))
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" && pgerr.ConstraintName == "users_pkey" {
			return domain.User{}, domain.ErrRootProtected
		}
		return domain.User{}, mapUserWriteError(err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (s *UsersStore) GetUserWithPassword(ctx context.Context, id int64) (domain.UserWithPassword, error) {
	const q = `SELECT ` + userColumns + `, u.password_hash FROM users u WHERE u.id = $1`

	var hash string
	u, err := scanUser(s.pool.QueryRow(ctx, q, id), &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, fmt.Errorf("get user with password: %w", err)
	}
	return domain.UserWithPassword{User: u, PasswordHash: hash}, nil
}

func (s *UsersStore) GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error) {
	const q = `SELECT ` + userColumns + `, u.password_hash FROM users u WHERE lower(u.email) = lower($1)`

	var hash string
	u, err := scanUser(s.pool.QueryRow(ctx, q, email), &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, fmt.Errorf("get user by email: %w", err)
	}
	return domain.UserWithPassword{User: u, PasswordHash: hash}, nil
}

func (s *UsersStore) UpdateProfile(ctx context.Context, id int64, about, photoPath string) error {
	const q = `UPDATE users SET about = $2, photo_path = $3 WHERE id = $1`
	return s.execOne(ctx, "update profile", q, id, about, photoPath)
}

func (s *UsersStore) SetPasswordHash(ctx context.Context, id int64, hash string) error {
	const q = `UPDATE users SET password_hash = $2 WHERE id = $1`
	return s.execOne(ctx, "set password", q, id, hash)
}

func (s *UsersStore) SetEmail(ctx context.Context, id int64, email string) error {
	const q = `UPDATE users SET email = $2 WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, id, email)
	if err != nil {
		return mapUserWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *UsersStore) SetRole(ctx context.Context, id int64, role domain.Role) error {
	const q = `UPDATE users SET role = $2 WHERE id = $1`
	return s.execOne(ctx, "set role", q, id, int16(role))
}

func (s *UsersStore) SetActive(ctx context.Context, id int64, active bool) error {
	const q = `UPDATE users SET active = $2 WHERE id = $1`
	return s.execOne(ctx, "set active", q, id, active)
}

func (s *UsersStore) TouchLastSeen(ctx context.Context, id int64, when time.Time) error {
	const q = `UPDATE users SET last_seen = $2 WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, id, when); err != nil {
		return fmt.Errorf("touch last seen: %w", err)
	}
	return nil
}

// SetCheckTS moves the "seen up to" mark of one navigation alert.
func (s *UsersStore) SetCheckTS(ctx context.Context, id int64, section domain.CheckSection, when time.Time) error {
	var q string
	switch section {
	case domain.CheckEvents:
		q = `UPDATE users SET event_check_ts = $2 WHERE id = $1`
	case domain.CheckLocations:
		q = `UPDATE users SET location_check_ts = $2 WHERE id = $1`
	case domain.CheckLogins:
		q = `UPDATE users SET login_check_ts = $2 WHERE id = $1`
	default:
		return fmt.Errorf("unknown check section %q", section)
	}
	return s.execOne(ctx, "set check ts", q, id, when)
}

// ListUsers pages through users. The banned filter uses now to decide which
// bans are still active.
func (s *UsersStore) ListUsers(ctx context.Context, filter domain.UserFilter, now time.Time, page domain.PageRequest) (domain.PageResult[domain.User], error) {
	where := `TRUE`
	switch filter {
	case domain.UserFilterAdmins:
		where = `u.role <= 1`
	case domain.UserFilterModerators:
		where = `u.role = 2`
	case domain.UserFilterBanned:
		where = `EXISTS (SELECT 1 FROM bans b WHERE b.user_id = u.id AND (b.permanent OR b.until > $1))`
	}

	limit, offset := pageArgs(page)
	q := `
		SELECT ` + userColumns + `, count(*) OVER ()
		FROM users u
		WHERE ` + where + ` AND $1::timestamptz IS NOT NULL
		ORDER BY u.last_name, u.first_name, u.id
		LIMIT $2 OFFSET $3
	`
	rows, err := s.pool.Query(ctx, q, now, limit, offset)
	if err != nil {
		return domain.PageResult[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var (
		out   []domain.User
		total int
	)
	for rows.Next() {
		u, err := scanUser(rows, &total)
		if err != nil {
			return domain.PageResult[domain.User]{}, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return domain.PageResult[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return pageResult(out, total, page), nil
}

// ListByMaxRole returns active users whose role is at most max, for example
// every administrator.
func (s *UsersStore) ListByMaxRole(ctx context.Context, max domain.Role) ([]domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users u WHERE u.active AND u.role <= $1 ORDER BY u.id`
	return s.listUsers(ctx, q, int16(max))
}

func (s *UsersStore) ListActiveUsers(ctx context.Context) ([]domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users u WHERE u.active ORDER BY u.id`
	return s.listUsers(ctx, q)
}

// UserStats counts locations owned and visits recorded by the user.
func (s *UsersStore) UserStats(ctx context.Context, id int64) (locations, visits int, err error) {
	const q = `
		SELECT
			(SELECT count(*) FROM locations WHERE owner_id = $1),
			(SELECT count(*) FROM visits WHERE user_id = $1)
	`
	if err := s.pool.QueryRow(ctx, q, id).Scan(&locations, &visits); err != nil {
		return 0, 0, fmt.Errorf("user stats: %w", err)
	}
	return locations, visits, nil
}

func (s *UsersStore) listUsers(ctx context.Context, q string, args ...any) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *UsersStore) execOne(ctx context.Context, op, q string, args ...any) error {
	tag, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapUserWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		switch pgerr.ConstraintName {
		case "users_email_uq":
			return domain.ErrEmailTaken
		default:
			return fmt.Errorf("unique violation (%s): %w", pgerr.ConstraintName, err)
		}
	}
	return fmt.Errorf("write user: %w", err)
}
