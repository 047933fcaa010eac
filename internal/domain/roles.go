package domain

import "strings"

// Role is ordered: a lower value carries more privilege.
type Role int

const (
	RoleRoot Role = iota
	RoleAdmin
	RoleModerator
	RoleContributor
	RoleUser
	RoleNewbie
	RoleGuest
)

// RootUserID is the fixed id of the superuser created by the CLI.
const RootUserID int64 = 0

var roleLabels = map[Role]string{
	RoleRoot:        "Root",
	RoleAdmin:       "Admin",
	RoleModerator:   "Moderator",
	RoleContributor: "Contributor",
	RoleUser:        "User",
	RoleNewbie:      "Newbie",
	RoleGuest:       "Guest",
}

func (r Role) String() string {
	if s, ok := roleLabels[r]; ok {
		return s
	}
	return "Unknown"
}

// AtMost reports whether r is at least as privileged as max.
func (r Role) AtMost(max Role) bool { return r <= max }

func (r Role) IsAdmin() bool     { return r.AtMost(RoleAdmin) }
func (r Role) IsModerator() bool { return r.AtMost(RoleModerator) }

func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	for r, label := range roleLabels {
		if strings.ToLower(label) == s {
			return r, true
		}
	}
	return 0, false
}

// AssignableRoles lists the roles an admin can hand out. Root is never assignable.
func AssignableRoles() []Role {
	return []Role{RoleAdmin, RoleModerator, RoleContributor, RoleUser, RoleNewbie}
}
