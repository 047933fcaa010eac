package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"hiddenplaces/internal/auth"
	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/geo"
	"hiddenplaces/internal/ratelimit"
)

type UsersStore interface {
	CreateUser(ctx context.Context, nu domain.NewUser) (domain.User, error)
	CreateRoot(ctx context.Context, nu domain.NewUser) (domain.User, error)
	GetUserByID(ctx context.Context, id int64) (domain.User, error)
	GetUserWithPassword(ctx context.Context, id int64) (domain.UserWithPassword, error)
	GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error)
	UpdateProfile(ctx context.Context, id int64, about, photoPath string) error
	SetPasswordHash(ctx context.Context, id int64, hash string) error
	SetEmail(ctx context.Context, id int64, email string) error
	SetRole(ctx context.Context, id int64, role domain.Role) error
	SetActive(ctx context.Context, id int64, active bool) error
	TouchLastSeen(ctx context.Context, id int64, when time.Time) error
	SetCheckTS(ctx context.Context, id int64, section domain.CheckSection, when time.Time) error
	ListUsers(ctx context.Context, filter domain.UserFilter, now time.Time, page domain.PageRequest) (domain.PageResult[domain.User], error)
	ListByMaxRole(ctx context.Context, max domain.Role) ([]domain.User, error)
	ListActiveUsers(ctx context.Context) ([]domain.User, error)
	UserStats(ctx context.Context, id int64) (locations, visits int, err error)
}

type SessionsStore interface {
	CreateSession(ctx context.Context, userID int64, expiresAt time.Time, ip, userAgent string) (string, error)
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	RevokeSession(ctx context.Context, sessionID string, when time.Time) error
	RevokeUserSessions(ctx context.Context, userID int64, when time.Time) error
}

type BansStore interface {
	CreateBan(ctx context.Context, b domain.Ban) (domain.Ban, error)
	ActiveBan(ctx context.Context, userID int64, now time.Time) (domain.Ban, error)
}

type LoginLogsStore interface {
	CreateLoginLog(ctx context.Context, l domain.LoginLog) error
	ListLoginLogs(ctx context.Context, filter domain.LoginFilter, since *time.Time, page domain.PageRequest) (domain.PageResult[domain.LoginLog], error)
	CountFailedSince(ctx context.Context, since time.Time) (int, error)
}

// GeoLocator resolves a client address. A nil result means unknown.
type GeoLocator interface {
	Lookup(ctx context.Context, ip string) *geo.Location
}

// BrowserSessionTTL is the server-side lifetime of a session whose cookie is
// not remembered.
const BrowserSessionTTL = 24 * time.Hour

type LoginAttempt struct {
	Email     string
	Password  string
	Remember  bool
	IP        string
	UserAgent string
}

// LoginOutcome is a started session. CookieTTL is zero for a browser-session
// cookie.
type LoginOutcome struct {
	User      domain.User
	SessionID string
	CookieTTL time.Duration
}

type AuthService struct {
	Users      UsersStore
	Sessions   SessionsStore
	Bans       BansStore
	Logins     LoginLogsStore
	Geo        GeoLocator
	Limiter    ratelimit.Limiter
	SessionTTL time.Duration
	Logger     *slog.Logger
	Now        func() time.Time
}

func (s *AuthService) init() {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.SessionTTL == 0 {
		s.SessionTTL = 30 * 24 * time.Hour
	}
}

// Login checks the credentials and starts a session. Every attempt that gets
// past the rate limiter is recorded in exactly one login log entry.
func (s *AuthService) Login(ctx context.Context, a LoginAttempt) (LoginOutcome, error) {
	s.init()
	now := s.Now()

	if s.Limiter != nil {
		ok, err := s.Limiter.Allow(ctx, "login:"+a.IP, now)
		if err != nil {
			s.Logger.Warn("login rate limiter failed", "err", err)
		} else if !ok {
			return LoginOutcome{}, domain.ErrRateLimited
		}
	}

	addr := normalizeEmail(a.Email)
	entry := domain.LoginLog{Email: truncate(addr, domain.MaxEmailLen), IP: a.IP, Timestamp: now}
	entry.System, entry.Browser = ParseUserAgent(a.UserAgent)
	if s.Geo != nil {
		if loc := s.Geo.Lookup(ctx, a.IP); loc != nil {
			entry.Country = loc.CountryName
		}
	}

	u, err := s.Users.GetUserByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			entry.Result = domain.LoginInvalidEmail
			s.record(ctx, entry)
			return LoginOutcome{}, domain.ErrInvalidCredentials
		}
		return LoginOutcome{}, err
	}
	entry.UserID = &u.ID

	ok, err := auth.VerifyPassword(u.PasswordHash, a.Password)
	if err != nil {
		s.Logger.Error("verify password failed", "user_id", u.ID, "err", err)
	}
	if !ok {
		entry.Result = domain.LoginInvalidPassword
		s.record(ctx, entry)
		return LoginOutcome{}, domain.ErrInvalidCredentials
	}

	ban, err := s.Bans.ActiveBan(ctx, u.ID, now)
	switch {
	case err == nil && ban.Active(now):
		entry.Result = domain.LoginBanned
		s.record(ctx, entry)
		return LoginOutcome{}, &domain.BanError{Ban: ban}
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return LoginOutcome{}, err
	}

	if !u.Active {
		entry.Result = domain.LoginNotActive
		s.record(ctx, entry)
		return LoginOutcome{}, domain.ErrUserNotActive
	}

	ttl := BrowserSessionTTL
	if a.Remember {
		ttl = s.SessionTTL
	}
	sessID, err := s.Sessions.CreateSession(ctx, u.ID, now.Add(ttl), a.IP, a.UserAgent)
	if err != nil {
		return LoginOutcome{}, err
	}

	entry.Result = domain.LoginSuccess
	s.record(ctx, entry)
	if err := s.Users.TouchLastSeen(ctx, u.ID, now); err != nil {
		s.Logger.Warn("touch last seen failed", "user_id", u.ID, "err", err)
	}

	out := LoginOutcome{User: u.User, SessionID: sessID}
	if a.Remember {
		out.CookieTTL = ttl
	}
	return out, nil
}

func (s *AuthService) record(ctx context.Context, entry domain.LoginLog) {
	if err := s.Logins.CreateLoginLog(ctx, entry); err != nil {
		s.Logger.Error("write login log failed", "email", entry.Email, "err", err)
	}
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	s.init()
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil
	}
	return s.Sessions.RevokeSession(ctx, sessionID, s.Now())
}

// GetUserForSession resolves a session id. Sessions of deactivated or banned
// users are revoked on the spot.
func (s *AuthService) GetUserForSession(ctx context.Context, sessionID string) (domain.User, error) {
	s.init()
	if _, err := uuid.Parse(sessionID); err != nil {
		return domain.User{}, domain.ErrUnauthorized
	}

	sess, err := s.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}

	u, err := s.Users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}

	now := s.Now()
	revoke := !u.Active
	if !revoke {
		ban, err := s.Bans.ActiveBan(ctx, u.ID, now)
		switch {
		case err == nil:
			revoke = ban.Active(now)
		case !errors.Is(err, domain.ErrNotFound):
			return domain.User{}, err
		}
	}
	if revoke {
		if err := s.Sessions.RevokeSession(ctx, sessionID, now); err != nil {
			s.Logger.Warn("revoke session failed", "user_id", u.ID, "err", err)
		}
		return domain.User{}, domain.ErrForbidden
	}
	return u, nil
}

func (s *AuthService) LoginLogs(ctx context.Context, filter domain.LoginFilter, since *time.Time, page domain.PageRequest) (domain.PageResult[domain.LoginLog], error) {
	return s.Logins.ListLoginLogs(ctx, filter, since, page)
}

// ParseUserAgent reduces a User-Agent header to a coarse operating system and
// browser name.
func ParseUserAgent(ua string) (system, browser string) {
	switch {
	case strings.Contains(ua, "Windows"):
		system = "Windows"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		system = "iOS"
	case strings.Contains(ua, "Mac OS X"), strings.Contains(ua, "Macintosh"):
		system = "macOS"
	case strings.Contains(ua, "Android"):
		system = "Android"
	case strings.Contains(ua, "Linux"):
		system = "Linux"
	default:
		system = "Other"
	}

	switch {
	case strings.Contains(ua, "Edg/"), strings.Contains(ua, "Edge/"):
		browser = "Edge"
	case strings.Contains(ua, "OPR/"), strings.Contains(ua, "Opera"):
		browser = "Opera"
	case strings.Contains(ua, "Firefox/"), strings.Contains(ua, "FxiOS/"):
		browser = "Firefox"
	case strings.Contains(ua, "Chrome/"), strings.Contains(ua, "CriOS/"):
		browser = "Chrome"
	case strings.Contains(ua, "Safari/"):
		browser = "Safari"
	default:
		browser = "Other"
	}
	return system, browser
}

// SafeRedirect returns next when it is a local path or an absolute http(s)
// URL on host, and fallback otherwise.
func SafeRedirect(next, host, fallback string) string {
	if next == "" || strings.ContainsAny(next, "\\\r\n") {
		return fallback
	}
	if strings.HasPrefix(next, "/") {
		if strings.HasPrefix(next, "//") {
			return fallback
		}
		return next
	}
	u, err := url.Parse(next)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fallback
	}
	if !strings.EqualFold(u.Host, host) {
		return fallback
	}
	return next
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
