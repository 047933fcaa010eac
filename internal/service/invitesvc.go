package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hiddenplaces/internal/auth"
	"hiddenplaces/internal/domain"
)

type InvitationsStore interface {
	CreateInvitation(ctx context.Context, inv domain.Invitation) (domain.Invitation, error)
	GetInvitation(ctx context.Context, id int64) (domain.Invitation, error)
	FindOpenInvitation(ctx context.Context, email string) (domain.Invitation, error)
	SetState(ctx context.Context, id int64, state domain.InvitationState, approvedBy *int64, when time.Time) error
	ListInvitations(ctx context.Context, state *domain.InvitationState, page domain.PageRequest) (domain.PageResult[domain.Invitation], error)
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
	RegisterUser(ctx context.Context, inviteID int64, nu domain.NewUser) (domain.User, error)
}

const DefaultInvitationTTL = 30 * 24 * time.Hour

type InviteService struct {
	Invitations InvitationsStore
	Users       UsersStore
	Tokens      *auth.TokenIssuer
	Mail        *Mailer
	Events      EventLogger
	TTL         time.Duration
	Now         func() time.Time
}

func (s *InviteService) init() {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.TTL == 0 {
		s.TTL = DefaultInvitationTTL
	}
}

type InviteInput struct {
	Email  string
	Name   string
	Reason string
}

// Invite records an invitation by actor. Invitations from administrators are
// approved right away and mailed.
func (s *InviteService) Invite(ctx context.Context, actor domain.User, in InviteInput) (domain.Invitation, error) {
	s.init()
	if !actor.Role.IsModerator() {
		return domain.Invitation{}, domain.ErrForbidden
	}

	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Reason = strings.TrimSpace(in.Reason)

	fe := fieldErrors{}
	if !validEmail(in.Email) {
		fe.add("email", "Enter a valid email address.")
	}
	fe.required("name", in.Name)
	fe.maxLen("name", in.Name, domain.MaxInvitationNameLen)
	fe.maxLen("reason", in.Reason, domain.MaxInvitationReasonLen)
	if err := fe.err(); err != nil {
		return domain.Invitation{}, err
	}

	if _, err := s.Users.GetUserByEmail(ctx, in.Email); err == nil {
		return domain.Invitation{}, domain.FieldError("email", "A user with this email already exists.")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Invitation{}, err
	}
	if _, err := s.Invitations.FindOpenInvitation(ctx, in.Email); err == nil {
		return domain.Invitation{}, domain.FieldError("email", "This email was already invited.")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Invitation{}, err
	}

	inv := domain.Invitation{
		Email:       in.Email,
		Name:        in.Name,
		Reason:      in.Reason,
		State:       domain.InvitationWaiting,
		Created:     s.Now(),
		InvitedByID: actor.ID,
	}
	if actor.Role.IsAdmin() {
		inv.State = domain.InvitationApproved
		inv.ApprovedByID = &actor.ID
		inv.ApprovedAt = &inv.Created
	}

	inv, err := s.Invitations.CreateInvitation(ctx, inv)
	if err != nil {
		return domain.Invitation{}, err
	}
	logEvent(ctx, s.Events, &actor, domain.InviteEvent(inv))

	if inv.State == domain.InvitationApproved {
		if err := s.send(ctx, inv); err != nil {
			return inv, err
		}
	}
	return inv, nil
}

func (s *InviteService) Approve(ctx context.Context, actor domain.User, id int64) (domain.Invitation, error) {
	s.init()
	if !actor.Role.IsAdmin() {
		return domain.Invitation{}, domain.ErrForbidden
	}
	inv, err := s.Invitations.GetInvitation(ctx, id)
	if err != nil {
		return domain.Invitation{}, err
	}
	if !inv.CanApprove() {
		return domain.Invitation{}, domain.ErrInvalidState
	}
	now := s.Now()
	if err := s.Invitations.SetState(ctx, id, domain.InvitationApproved, &actor.ID, now); err != nil {
		return domain.Invitation{}, err
	}
	inv.State = domain.InvitationApproved
	inv.ApprovedByID = &actor.ID
	inv.ApprovedAt = &now

	logEvent(ctx, s.Events, &actor, domain.ApproveInviteEvent(inv))
	if err := s.send(ctx, inv); err != nil {
		return inv, err
	}
	return inv, nil
}

func (s *InviteService) Deny(ctx context.Context, actor domain.User, id int64) (domain.Invitation, error) {
	s.init()
	if !actor.Role.IsAdmin() {
		return domain.Invitation{}, domain.ErrForbidden
	}
	inv, err := s.Invitations.GetInvitation(ctx, id)
	if err != nil {
		return domain.Invitation{}, err
	}
	if !inv.CanDeny() {
		return domain.Invitation{}, domain.ErrInvalidState
	}
	if err := s.Invitations.SetState(ctx, id, domain.InvitationDenied, &actor.ID, s.Now()); err != nil {
		return domain.Invitation{}, err
	}
	inv.State = domain.InvitationDenied
	inv.ApprovedByID = &actor.ID

	logEvent(ctx, s.Events, &actor, domain.DenyInviteEvent(inv))
	return inv, nil
}

// Token signs the registration token of inv.
func (s *InviteService) Token(inv domain.Invitation) (string, error) {
	s.init()
	return s.Tokens.Issue(auth.TokenClaims{Purpose: auth.PurposeInvite, InviteID: inv.ID}, s.TTL)
}

// CheckToken returns the invitation a registration token belongs to. Any
// problem with the token or the invitation is ErrInvitationInvalid.
func (s *InviteService) CheckToken(ctx context.Context, token string) (domain.Invitation, error) {
	s.init()
	claims, err := s.Tokens.Parse(token, auth.PurposeInvite)
	if err != nil {
		return domain.Invitation{}, domain.ErrInvitationInvalid
	}
	inv, err := s.Invitations.GetInvitation(ctx, claims.InviteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invitation{}, domain.ErrInvitationInvalid
		}
		return domain.Invitation{}, err
	}
	if !inv.Usable() || inv.Stale(s.Now(), s.TTL) {
		return domain.Invitation{}, domain.ErrInvitationInvalid
	}
	return inv, nil
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Password2 string
}

// Register creates the account for an invitation token. The invitation is
// consumed in the same transaction, so a token registers at most one user.
func (s *InviteService) Register(ctx context.Context, token string, in RegisterInput) (domain.User, error) {
	inv, err := s.CheckToken(ctx, token)
	if err != nil {
		return domain.User{}, err
	}

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)

	fe := fieldErrors{}
	fe.required("first_name", in.FirstName)
	fe.maxLen("first_name", in.FirstName, domain.MaxFirstNameLen)
	fe.required("last_name", in.LastName)
	fe.maxLen("last_name", in.LastName, domain.MaxLastNameLen)
	if !validEmail(in.Email) {
		fe.add("email", "Enter a valid email address.")
	}
	if err := passwordErrors(fe, in.Password, in.Password2); err != nil {
		return domain.User{}, err
	}
	if err := fe.err(); err != nil {
		return domain.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.Invitations.RegisterUser(ctx, inv.ID, domain.NewUser{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.RoleNewbie,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return domain.User{}, domain.FieldError("email", "A user with this email already exists.")
		}
		return domain.User{}, err
	}
	logEvent(ctx, s.Events, &u, domain.RegisterEvent())
	return u, nil
}

// ExpireStale times out approved invitations whose token lifetime, counted
// from approval, has passed.
func (s *InviteService) ExpireStale(ctx context.Context) (int64, error) {
	s.init()
	return s.Invitations.ExpireStale(ctx, s.Now().Add(-s.TTL))
}

// List expires stale invitations and pages through the rest.
func (s *InviteService) List(ctx context.Context, state *domain.InvitationState, page domain.PageRequest) (domain.PageResult[domain.Invitation], error) {
	if _, err := s.ExpireStale(ctx); err != nil {
		return domain.PageResult[domain.Invitation]{}, err
	}
	return s.Invitations.ListInvitations(ctx, state, page)
}

func (s *InviteService) send(ctx context.Context, inv domain.Invitation) error {
	token, err := s.Token(inv)
	if err != nil {
		return err
	}
	_ = s.Mail.SendInvitation(ctx, inv, token)
	return nil
}

// passwordErrors adds the password rule and confirmation problems to fe.
// It only returns an error it cannot express as a field error.
func passwordErrors(fe fieldErrors, password, confirm string) error {
	if err := auth.CheckPasswordRules(password); err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		for k, v := range ve.Fields {
			fe.add(k, v)
		}
	}
	if password != confirm {
		fe.add("password2", "Passwords do not match.")
	}
	return nil
}
