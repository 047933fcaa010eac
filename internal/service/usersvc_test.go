package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hiddenplaces/internal/domain"
)

func TestUserServiceChangeRole(t *testing.T) {
	admin := domain.User{ID: 2, Role: domain.RoleAdmin}
	users := map[int64]domain.User{
		domain.RootUserID: {ID: domain.RootUserID, Role: domain.RoleRoot},
		5:                 {ID: 5, Role: domain.RoleUser},
	}

	tests := []struct {
		name    string
		actor   domain.User
		target  int64
		role    domain.Role
		wantErr error
		wantSet bool
	}{
		{name: "moderator", actor: domain.User{ID: 3, Role: domain.RoleModerator}, target: 5, role: domain.RoleContributor, wantErr: domain.ErrForbidden},
		{name: "own role", actor: admin, target: 2, role: domain.RoleUser, wantErr: domain.ErrOwnRole},
		{name: "root", actor: admin, target: domain.RootUserID, role: domain.RoleUser, wantErr: domain.ErrRootProtected},
		{name: "root not assignable", actor: admin, target: 5, role: domain.RoleRoot, wantErr: domain.ErrValidation},
		{name: "promote", actor: admin, target: 5, role: domain.RoleModerator, wantSet: true},
		{name: "unchanged", actor: admin, target: 5, role: domain.RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := false
			events := &eventRecorder{}
			svc := &UserService{
				Users: &stubUsersStore{
					t: t,
					getUserByIDFunc: func(_ context.Context, id int64) (domain.User, error) {
						u, ok := users[id]
						if !ok {
							return domain.User{}, domain.ErrNotFound
						}
						return u, nil
					},
					setRoleFunc: func(_ context.Context, id int64, r domain.Role) error {
						if id != tt.target || r != tt.role {
							t.Fatalf("SetRole(%d, %v)", id, r)
						}
						set = true
						return nil
					},
				},
				Events: events,
			}

			err := svc.ChangeRole(context.Background(), tt.actor, tt.target, tt.role)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if set != tt.wantSet {
				t.Fatalf("SetRole called: %v", set)
			}
			if tt.wantSet && len(events.events) != 1 {
				t.Fatalf("expected a role change event")
			}
		})
	}
}

func TestUserServiceBan(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	mod := domain.User{ID: 3, Role: domain.RoleModerator}
	target := domain.User{ID: 9, FirstName: "Spam", Role: domain.RoleUser}

	var created domain.Ban
	revoked := false
	svc := &UserService{
		Users: &stubUsersStore{t: t, getUserByIDFunc: func(_ context.Context, id int64) (domain.User, error) {
			if id == domain.RootUserID {
				return domain.User{ID: domain.RootUserID, Role: domain.RoleRoot}, nil
			}
			return target, nil
		}},
		Bans: &stubBansStore{t: t, createBanFunc: func(_ context.Context, b domain.Ban) (domain.Ban, error) {
			created = b
			b.ID = 1
			return b, nil
		}},
		Sessions: &stubSessionsStore{t: t, revokeUserSessionsFunc: func(_ context.Context, id int64, _ time.Time) error {
			revoked = id == target.ID
			return nil
		}},
		Events: &eventRecorder{},
		Now:    func() time.Time { return now },
	}

	if _, err := svc.Ban(context.Background(), domain.User{ID: 4, Role: domain.RoleUser}, 9, BanInput{Reason: "x"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Ban(context.Background(), mod, domain.RootUserID, BanInput{Reason: "x"}); !errors.Is(err, domain.ErrRootProtected) {
		t.Fatalf("expected ErrRootProtected, got %v", err)
	}
	if _, err := svc.Ban(context.Background(), mod, 9, BanInput{Reason: "  "}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	ban, err := svc.Ban(context.Background(), mod, 9, BanInput{Reason: "spam"})
	if err != nil {
		t.Fatalf("Ban: %v", err)
	}
	if ban.ID != 1 || created.CreatorID != 3 || created.UserID != 9 {
		t.Fatalf("unexpected ban: %+v", created)
	}
	if !created.Until.Equal(now.AddDate(0, 0, domain.DefaultBanDays)) {
		t.Fatalf("default duration: until %v", created.Until)
	}
	if !revoked {
		t.Fatalf("sessions of banned user were not revoked")
	}
}

func TestUserServiceEditProfileReplacesPhoto(t *testing.T) {
	files := newFakeFiles()
	files.files["user/5/old.jpg"] = "old"
	var gotPath string
	svc := &UserService{
		Users: &stubUsersStore{t: t, updateProfileFunc: func(_ context.Context, id int64, about, photo string) error {
			gotPath = photo
			return nil
		}},
		Files:  files,
		Logger: discardLogger(),
	}

	u := domain.User{ID: 5, PhotoPath: "user/5/old.jpg"}
	out, err := svc.EditProfile(context.Background(), u, " hi ", &FileUpload{Name: "me.png", Body: strings.NewReader("png")})
	if err != nil {
		t.Fatalf("EditProfile: %v", err)
	}
	if out.About != "hi" || out.PhotoPath != gotPath || !strings.HasPrefix(gotPath, "user/5/") {
		t.Fatalf("unexpected result: %+v (stored %q)", out, gotPath)
	}
	if _, ok := files.files["user/5/old.jpg"]; ok {
		t.Fatalf("old photo was not removed")
	}
	if _, ok := files.files[gotPath]; !ok {
		t.Fatalf("new photo missing")
	}
}

func TestUserServiceEditProfileCleansUpOnFailure(t *testing.T) {
	files := newFakeFiles()
	svc := &UserService{
		Users: &stubUsersStore{t: t, updateProfileFunc: func(context.Context, int64, string, string) error {
			return errors.New("db down")
		}},
		Files:  files,
		Logger: discardLogger(),
	}

	_, err := svc.EditProfile(context.Background(), domain.User{ID: 5}, "", &FileUpload{Name: "me.jpg", Body: strings.NewReader("jpg")})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(files.files) != 0 || len(files.deleted) != 1 {
		t.Fatalf("new photo left behind: %v", files.files)
	}
}

func TestUserServiceEditProfileRejectsDocument(t *testing.T) {
	svc := &UserService{Users: &stubUsersStore{t: t}, Files: newFakeFiles()}
	_, err := svc.EditProfile(context.Background(), domain.User{ID: 5}, "", &FileUpload{Name: "cv.pdf", Body: strings.NewReader("%PDF")})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Fields["photo"] == "" {
		t.Fatalf("expected photo error, got %v", err)
	}
}

func TestUserServiceTouchThrottles(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	calls := 0
	svc := &UserService{
		Users: &stubUsersStore{t: t, touchLastSeenFunc: func(context.Context, int64, time.Time) error {
			calls++
			return nil
		}},
		Now: func() time.Time { return now },
	}

	recent := now.Add(-30 * time.Second)
	svc.Touch(context.Background(), domain.User{ID: 1, LastSeen: &recent})
	if calls != 0 {
		t.Fatalf("touched within interval")
	}
	stale := now.Add(-2 * time.Minute)
	svc.Touch(context.Background(), domain.User{ID: 1, LastSeen: &stale})
	svc.Touch(context.Background(), domain.User{ID: 1})
	if calls != 2 {
		t.Fatalf("expected 2 touches, got %d", calls)
	}
}

type unreadFunc func(ctx context.Context, userID int64) (int, error)

func (f unreadFunc) CountUnread(ctx context.Context, userID int64) (int, error) {
	return f(ctx, userID)
}

type sinceFunc func(ctx context.Context, since time.Time) (int, error)

func (f sinceFunc) CountSince(ctx context.Context, since time.Time) (int, error) {
	return f(ctx, since)
}

func TestUserServiceAlertsByRole(t *testing.T) {
	svc := &UserService{
		Threads:     unreadFunc(func(context.Context, int64) (int, error) { return 1, nil }),
		NewLocation: sinceFunc(func(context.Context, time.Time) (int, error) { return 2, nil }),
		NewEvents:   sinceFunc(func(context.Context, time.Time) (int, error) { return 3, nil }),
		Logins: &stubLoginLogsStore{t: t, countFailedSinceFunc: func(context.Context, time.Time) (int, error) {
			return 4, nil
		}},
	}

	tests := []struct {
		role domain.Role
		want domain.Alerts
	}{
		{domain.RoleUser, domain.Alerts{Threads: 1}},
		{domain.RoleModerator, domain.Alerts{Threads: 1, Locations: 2}},
		{domain.RoleAdmin, domain.Alerts{Threads: 1, Locations: 2, Events: 3, Logins: 4}},
	}
	for _, tt := range tests {
		got, err := svc.Alerts(context.Background(), domain.User{ID: 7, Role: tt.role})
		if err != nil {
			t.Fatalf("Alerts: %v", err)
		}
		if got != tt.want {
			t.Fatalf("%v: got %+v want %+v", tt.role, got, tt.want)
		}
	}
}

func TestUserServiceCreateRoot(t *testing.T) {
	svc := &UserService{Users: &stubUsersStore{t: t, createRootFunc: func(_ context.Context, nu domain.NewUser) (domain.User, error) {
		if nu.Role != domain.RoleRoot || nu.Email != "root@example.com" {
			t.Fatalf("unexpected root: %+v", nu)
		}
		return domain.User{ID: domain.RootUserID, Email: nu.Email, Role: nu.Role}, nil
	}}}

	u, password, err := svc.CreateRoot(context.Background(), "Root@Example.com", "Root", "Admin")
	if err != nil {
		t.Fatalf("CreateRoot: %v", err)
	}
	if u.Role != domain.RoleRoot || len(password) != 12 {
		t.Fatalf("unexpected result: %+v %q", u, password)
	}
}
