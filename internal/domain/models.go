package domain

import (
	"strings"
	"time"
)

const (
	MaxFirstNameLen = 20
	MaxLastNameLen  = 64
	MaxEmailLen     = 128
	MaxAboutLen     = 10000
)

type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Created   time.Time
	LastSeen  *time.Time
	Active    bool
	About     string
	PhotoPath string
	Role      Role

	EventCheckTS    time.Time
	LocationCheckTS time.Time
	LoginCheckTS    time.Time
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) IsRoot() bool { return u.ID == RootUserID && u.Role == RoleRoot }

// CanModify reports whether u may edit or remove something created by ownerID.
func (u User) CanModify(ownerID int64) bool {
	return u.ID == ownerID || u.Role.IsModerator()
}

// NewUser is the data needed to insert a user.
type NewUser struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
}

type UserWithPassword struct {
	User
	PasswordHash string
}

type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// UserProfile is a user with the counters shown on the profile page.
type UserProfile struct {
	User
	Locations int
	Visits    int
	Ban       *Ban
}

// UserFilter selects a subset of users in the admin listing.
type UserFilter string

const (
	UserFilterAll        UserFilter = "all"
	UserFilterAdmins     UserFilter = "admins"
	UserFilterModerators UserFilter = "moderators"
	UserFilterBanned     UserFilter = "banned"
)

func ParseUserFilter(s string) (UserFilter, bool) {
	switch UserFilter(s) {
	case "":
		return UserFilterAll, true
	case UserFilterAll, UserFilterAdmins, UserFilterModerators, UserFilterBanned:
		return UserFilter(s), true
	}
	return "", false
}

// Alerts holds the unread counters rendered in the navigation bar.
type Alerts struct {
	Threads   int
	Locations int
	Events    int
	Logins    int
}

func (a Alerts) Total() int { return a.Threads + a.Locations + a.Events + a.Logins }

// CheckSection names a *_check_ts column on the user.
type CheckSection string

const (
	CheckEvents    CheckSection = "events"
	CheckLocations CheckSection = "locations"
	CheckLogins    CheckSection = "logins"
)
