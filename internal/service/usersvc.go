package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"hiddenplaces/internal/auth"
	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/storage"
)

// FileStore keeps uploaded files. storage.Local implements it.
type FileStore interface {
	Save(subfolder string, r io.Reader, origName string, reduce bool) (string, error)
	Thumbnail(rel string) error
	Delete(rel string) error
}

// FileUpload is a file received from a form.
type FileUpload struct {
	Name string
	Body io.Reader
}

type UnreadCounter interface {
	CountUnread(ctx context.Context, userID int64) (int, error)
}

type SinceCounter interface {
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// touchInterval limits last_seen writes to one per user per minute.
const touchInterval = time.Minute

type UserService struct {
	Users    UsersStore
	Sessions SessionsStore
	Bans     BansStore
	Files    FileStore
	Events   EventLogger

	// Alert sources.
	Threads     UnreadCounter
	NewLocation SinceCounter
	NewEvents   SinceCounter
	Logins      LoginLogsStore

	Logger *slog.Logger
	Now    func() time.Time
}

func (s *UserService) init() {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
}

func (s *UserService) Get(ctx context.Context, id int64) (domain.User, error) {
	return s.Users.GetUserByID(ctx, id)
}

// Profile loads a user with counters and the active ban, if any.
func (s *UserService) Profile(ctx context.Context, id int64) (domain.UserProfile, error) {
	s.init()
	u, err := s.Users.GetUserByID(ctx, id)
	if err != nil {
		return domain.UserProfile{}, err
	}
	p := domain.UserProfile{User: u}
	if p.Locations, p.Visits, err = s.Users.UserStats(ctx, id); err != nil {
		return domain.UserProfile{}, err
	}
	ban, err := s.Bans.ActiveBan(ctx, id, s.Now())
	switch {
	case err == nil:
		p.Ban = &ban
	case !errors.Is(err, domain.ErrNotFound):
		return domain.UserProfile{}, err
	}
	return p, nil
}

// EditProfile stores about and, when photo is set, replaces the profile
// photo. The previous photo file is removed after the row is updated.
func (s *UserService) EditProfile(ctx context.Context, u domain.User, about string, photo *FileUpload) (domain.User, error) {
	s.init()
	about = strings.TrimSpace(about)
	fe := fieldErrors{}
	fe.maxLen("about", about, domain.MaxAboutLen)
	if photo != nil {
		if _, err := storage.CheckExtension(photo.Name, true); err != nil {
			fe.add("photo", "Upload a JPG, PNG or GIF image.")
		}
	}
	if err := fe.err(); err != nil {
		return domain.User{}, err
	}

	oldPhoto := u.PhotoPath
	newPhoto := oldPhoto
	if photo != nil {
		rel, err := s.Files.Save(fmt.Sprintf("user/%d", u.ID), photo.Body, photo.Name, true)
		if err != nil {
			if errors.Is(err, domain.ErrUnsupportedFile) {
				return domain.User{}, domain.FieldError("photo", "Upload a JPG, PNG or GIF image.")
			}
			return domain.User{}, err
		}
		newPhoto = rel
	}

	if err := s.Users.UpdateProfile(ctx, u.ID, about, newPhoto); err != nil {
		if newPhoto != oldPhoto {
			s.deleteFile(newPhoto)
		}
		return domain.User{}, err
	}
	if newPhoto != oldPhoto && oldPhoto != "" {
		s.deleteFile(oldPhoto)
	}
	u.About = about
	u.PhotoPath = newPhoto
	return u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, u domain.User, current, password, confirm string) error {
	s.init()
	full, err := s.Users.GetUserWithPassword(ctx, u.ID)
	if err != nil {
		return err
	}
	ok, err := auth.VerifyPassword(full.PasswordHash, current)
	if err != nil {
		return err
	}
	if !ok {
		return domain.FieldError("current", "Current password is not correct.")
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
	logEvent(ctx, s.Events, &u, domain.PasswordChangeEvent())
	return nil
}

// ChangeRole is restricted to administrators. Root's role and the actor's
// own role never change.
func (s *UserService) ChangeRole(ctx context.Context, actor domain.User, targetID int64, role domain.Role) error {
	if !actor.Role.IsAdmin() {
		return domain.ErrForbidden
	}
	if targetID == actor.ID {
		return domain.ErrOwnRole
	}
	target, err := s.Users.GetUserByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.ID == domain.RootUserID || target.Role == domain.RoleRoot {
		return domain.ErrRootProtected
	}
	if !assignable(role) {
		return domain.FieldError("role", "Choose a valid role.")
	}
	if target.Role == role {
		return nil
	}
	if err := s.Users.SetRole(ctx, target.ID, role); err != nil {
		return err
	}
	logEvent(ctx, s.Events, &actor, domain.RoleChangeEvent(target, role))
	return nil
}

func assignable(r domain.Role) bool {
	for _, x := range domain.AssignableRoles() {
		if x == r {
			return true
		}
	}
	return false
}

type BanInput struct {
	Reason    string
	Days      int
	Permanent bool
}

// Ban is restricted to moderators. The banned user's sessions end at once.
func (s *UserService) Ban(ctx context.Context, actor domain.User, targetID int64, in BanInput) (domain.Ban, error) {
	s.init()
	if !actor.Role.IsModerator() {
		return domain.Ban{}, domain.ErrForbidden
	}
	target, err := s.Users.GetUserByID(ctx, targetID)
	if err != nil {
		return domain.Ban{}, err
	}
	if target.ID == domain.RootUserID || target.Role == domain.RoleRoot {
		return domain.Ban{}, domain.ErrRootProtected
	}

	in.Reason = strings.TrimSpace(in.Reason)
	fe := fieldErrors{}
	fe.required("reason", in.Reason)
	fe.maxLen("reason", in.Reason, domain.MaxBanReasonLen)
	if in.Days < 0 {
		fe.add("days", "Must not be negative.")
	}
	if err := fe.err(); err != nil {
		return domain.Ban{}, err
	}
	if in.Days == 0 {
		in.Days = domain.DefaultBanDays
	}

	now := s.Now()
	ban, err := s.Bans.CreateBan(ctx, domain.Ban{
		UserID:    target.ID,
		CreatorID: actor.ID,
		Reason:    in.Reason,
		Created:   now,
		Until:     now.AddDate(0, 0, in.Days),
		Permanent: in.Permanent,
	})
	if err != nil {
		return domain.Ban{}, err
	}
	if s.Sessions != nil {
		if err := s.Sessions.RevokeUserSessions(ctx, target.ID, now); err != nil {
			s.Logger.Warn("revoke sessions of banned user failed", "user_id", target.ID, "err", err)
		}
	}
	logEvent(ctx, s.Events, &actor, domain.BanEvent(target, ban))
	return ban, nil
}

// Touch records activity of u, at most once per touchInterval.
func (s *UserService) Touch(ctx context.Context, u domain.User) {
	s.init()
	now := s.Now()
	if u.LastSeen != nil && now.Sub(*u.LastSeen) < touchInterval {
		return
	}
	if err := s.Users.TouchLastSeen(ctx, u.ID, now); err != nil {
		s.Logger.Warn("touch last seen failed", "user_id", u.ID, "err", err)
	}
}

// Alerts counts what u has not looked at yet. Location alerts are for
// moderators, event and login alerts for administrators.
func (s *UserService) Alerts(ctx context.Context, u domain.User) (domain.Alerts, error) {
	var (
		a   domain.Alerts
		err error
	)
	if s.Threads != nil {
		if a.Threads, err = s.Threads.CountUnread(ctx, u.ID); err != nil {
			return domain.Alerts{}, err
		}
	}
	if u.Role.IsModerator() && s.NewLocation != nil {
		if a.Locations, err = s.NewLocation.CountSince(ctx, u.LocationCheckTS); err != nil {
			return domain.Alerts{}, err
		}
	}
	if u.Role.IsAdmin() {
		if s.NewEvents != nil {
			if a.Events, err = s.NewEvents.CountSince(ctx, u.EventCheckTS); err != nil {
				return domain.Alerts{}, err
			}
		}
		if s.Logins != nil {
			if a.Logins, err = s.Logins.CountFailedSince(ctx, u.LoginCheckTS); err != nil {
				return domain.Alerts{}, err
			}
		}
	}
	return a, nil
}

func (s *UserService) MarkChecked(ctx context.Context, u domain.User, section domain.CheckSection) error {
	s.init()
	return s.Users.SetCheckTS(ctx, u.ID, section, s.Now())
}

func (s *UserService) List(ctx context.Context, filter domain.UserFilter, page domain.PageRequest) (domain.PageResult[domain.User], error) {
	s.init()
	return s.Users.ListUsers(ctx, filter, s.Now(), page)
}

// CreateRoot creates the superuser with a generated password and returns it.
func (s *UserService) CreateRoot(ctx context.Context, addr, firstName, lastName string) (domain.User, string, error) {
	addr = normalizeEmail(addr)
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	fe := fieldErrors{}
	if !validEmail(addr) {
		fe.add("email", "Enter a valid email address.")
	}
	fe.required("first_name", firstName)
	fe.maxLen("first_name", firstName, domain.MaxFirstNameLen)
	fe.required("last_name", lastName)
	fe.maxLen("last_name", lastName, domain.MaxLastNameLen)
	if err := fe.err(); err != nil {
		return domain.User{}, "", err
	}

	password, err := auth.GeneratePassword(12)
	if err != nil {
		return domain.User{}, "", err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	u, err := s.Users.CreateRoot(ctx, domain.NewUser{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        addr,
		PasswordHash: hash,
		Role:         domain.RoleRoot,
	})
	if err != nil {
		return domain.User{}, "", err
	}
	return u, password, nil
}

// ResetRootPassword sets a new generated root password and reactivates the
// account.
func (s *UserService) ResetRootPassword(ctx context.Context) (domain.User, string, error) {
	u, err := s.Users.GetUserByID(ctx, domain.RootUserID)
	if err != nil {
		return domain.User{}, "", err
	}
	password, err := auth.GeneratePassword(12)
	if err != nil {
		return domain.User{}, "", err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	if err := s.Users.SetPasswordHash(ctx, u.ID, hash); err != nil {
		return domain.User{}, "", err
	}
	if err := s.Users.SetActive(ctx, u.ID, true); err != nil {
		return domain.User{}, "", err
	}
	u.Active = true
	return u, password, nil
}

func (s *UserService) deleteFile(rel string) {
	if err := s.Files.Delete(rel); err != nil {
		s.Logger.Warn("delete file failed", "path", rel, "err", err)
	}
}
