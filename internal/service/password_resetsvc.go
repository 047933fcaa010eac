package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hiddenplaces/internal/auth"
	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/ratelimit"
)

const DefaultResetTTL = 60 * time.Minute

// PasswordResetService handles the emailed token flows: forgotten passwords
// and email address changes. Reset tokens carry a fingerprint of the current
// password hash and email tokens the current address, so each stops
// verifying once it has been used.
type PasswordResetService struct {
	Users    UsersStore
	Sessions SessionsStore
	Tokens   *auth.TokenIssuer
	Mail     *Mailer
	Events   EventLogger
	Limiter  ratelimit.Limiter
	TokenTTL time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

func (s *PasswordResetService) init() {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.TokenTTL == 0 {
		s.TokenTTL = DefaultResetTTL
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
}

// RequestReset mails a reset link when addr belongs to a user. Unknown
// addresses are not reported to the caller.
func (s *PasswordResetService) RequestReset(ctx context.Context, addr, ip string) error {
	s.init()
	if s.Limiter != nil {
		ok, err := s.Limiter.Allow(ctx, "reset:"+ip, s.Now())
		if err != nil {
			s.Logger.Warn("reset rate limiter failed", "err", err)
		} else if !ok {
			return domain.ErrRateLimited
		}
	}

	addr = normalizeEmail(addr)
	if !validEmail(addr) {
		return domain.FieldError("email", "Enter a valid email address.")
	}

	u, err := s.Users.GetUserByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if !u.Active {
		return nil
	}

	token, err := s.Tokens.Issue(auth.TokenClaims{
		Purpose:    auth.PurposeReset,
		UserID:     u.ID,
		PasswordFP: auth.PasswordFingerprint(u.PasswordHash),
	}, s.TokenTTL)
	if err != nil {
		return err
	}
	logEvent(ctx, s.Events, &u.User, domain.PasswordResetRequestEvent())
	_ = s.Mail.SendPasswordReset(ctx, u.User, token)
	return nil
}

// CheckToken returns the user a reset token was issued for.
func (s *PasswordResetService) CheckToken(ctx context.Context, token string) (domain.User, error) {
	u, err := s.checkToken(ctx, token)
	if err != nil {
		return domain.User{}, err
	}
	return u.User, nil
}

func (s *PasswordResetService) checkToken(ctx context.Context, token string) (domain.UserWithPassword, error) {
	claims, err := s.Tokens.Parse(token, auth.PurposeReset)
	if err != nil {
		return domain.UserWithPassword{}, domain.ErrResetTokenInvalid
	}
	u, err := s.Users.GetUserWithPassword(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.UserWithPassword{}, domain.ErrResetTokenInvalid
		}
		return domain.UserWithPassword{}, err
	}
	if claims.PasswordFP != auth.PasswordFingerprint(u.PasswordHash) {
		return domain.UserWithPassword{}, domain.ErrResetTokenInvalid
	}
	return u, nil
}

func (s *PasswordResetService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	s.init()
	u, err := s.checkToken(ctx, token)
	if err != nil {
		return err
	}

	fe := fieldErrors{}
	if err := passwordErrors(fe, password, confirm); err != nil {
		return err
	}
	if err := fe.err(); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Users.SetPasswordHash(ctx, u.ID, hash); err != nil {
		return err
	}
	if s.Sessions != nil {
		if err := s.Sessions.RevokeUserSessions(ctx, u.ID, s.Now()); err != nil {
			s.Logger.Warn("revoke sessions after reset failed", "user_id", u.ID, "err", err)
		}
	}
	logEvent(ctx, s.Events, &u.User, domain.PasswordResetEvent())
	return nil
}

// RequestEmailChange mails a confirmation link to newEmail and a warning to
// the current address.
func (s *PasswordResetService) RequestEmailChange(ctx context.Context, u domain.User, newEmail string) error {
	s.init()
	newEmail = normalizeEmail(newEmail)
	if !validEmail(newEmail) {
		return domain.FieldError("email", "Enter a valid email address.")
	}
	if newEmail == u.Email {
		return domain.FieldError("email", "This is already your email address.")
	}
	if _, err := s.Users.GetUserByEmail(ctx, newEmail); err == nil {
		return domain.FieldError("email", "A user with this email already exists.")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	token, err := s.Tokens.Issue(auth.TokenClaims{
		Purpose:      auth.PurposeEmailChange,
		UserID:       u.ID,
		Email:        newEmail,
		CurrentEmail: u.Email,
	}, s.TokenTTL)
	if err != nil {
		return err
	}
	logEvent(ctx, s.Events, &u, domain.EmailChangeRequestEvent(newEmail))
	_ = s.Mail.SendEmailChange(ctx, u, newEmail, token)
	return nil
}

// ConfirmEmailChange applies the address carried by token.
func (s *PasswordResetService) ConfirmEmailChange(ctx context.Context, token string) (domain.User, error) {
	claims, err := s.Tokens.Parse(token, auth.PurposeEmailChange)
	if err != nil {
		return domain.User{}, domain.ErrEmailTokenInvalid
	}
	u, err := s.Users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrEmailTokenInvalid
		}
		return domain.User{}, err
	}
	if u.Email != claims.CurrentEmail || claims.Email == "" {
		return domain.User{}, domain.ErrEmailTokenInvalid
	}

	if err := s.Users.SetEmail(ctx, u.ID, claims.Email); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return domain.User{}, domain.ErrEmailTokenInvalid
		}
		return domain.User{}, err
	}
	old := u.Email
	u.Email = claims.Email
	logEvent(ctx, s.Events, &u, domain.EmailChangedEvent(old, u.Email))
	return u, nil
}
