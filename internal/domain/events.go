package domain

import (
	"fmt"
	"time"
)

type EventType int

const (
	EventOther EventType = iota
	EventCreate
	EventModify
	EventDelete
)

var eventTypeLabels = []string{"Other", "Create", "Modify", "Delete"}

func (t EventType) String() string { return label(eventTypeLabels, int(t)) }

type EventSeverity int

const (
	SeverityLow EventSeverity = iota
	SeverityNormal
	SeverityHigh
	SeverityCritical
)

var severityLabels = []string{"Low", "Normal", "High", "Critical"}

func (s EventSeverity) String() string { return label(severityLabels, int(s)) }

// Event is an audit log entry.
type Event struct {
	ID        int64
	Type      EventType
	Severity  EventSeverity
	Text      string
	UserID    *int64
	UserName  string
	Timestamp time.Time
}

func newEvent(sev EventSeverity, typ EventType, format string, args ...any) Event {
	return Event{Severity: sev, Type: typ, Text: fmt.Sprintf(format, args...)}
}

func InviteEvent(inv Invitation) Event {
	return newEvent(SeverityHigh, EventCreate, "Invited %s", inv.Name)
}

func ApproveInviteEvent(inv Invitation) Event {
	return newEvent(SeverityHigh, EventModify, "Approved invitation of %s", inv.Name)
}

func DenyInviteEvent(inv Invitation) Event {
	return newEvent(SeverityNormal, EventModify, "Denied invitation of %s", inv.Name)
}

func RegisterEvent() Event {
	return newEvent(SeverityHigh, EventCreate, "Registered as a new user")
}

func PasswordResetRequestEvent() Event {
	return newEvent(SeverityNormal, EventOther, "Requested password reset")
}

func PasswordResetEvent() Event {
	return newEvent(SeverityCritical, EventModify, "Reset password")
}

func PasswordChangeEvent() Event {
	return newEvent(SeverityNormal, EventModify, "Changed password")
}

func EmailChangeRequestEvent(newEmail string) Event {
	return newEvent(SeverityNormal, EventOther, "Requested email change to %s", newEmail)
}

func EmailChangedEvent(oldEmail, newEmail string) Event {
	return newEvent(SeverityHigh, EventModify, "Changed email from %s to %s", oldEmail, newEmail)
}

func RoleChangeEvent(u User, to Role) Event {
	return newEvent(SeverityCritical, EventModify, "Changed role of '%s' from %s to %s", u.FullName(), u.Role, to)
}

func BanEvent(u User, b Ban) Event {
	return newEvent(SeverityHigh, EventCreate, "Banned '%s': %s", u.FullName(), b.Reason)
}

func AddVisitEvent(l Location) Event {
	return newEvent(SeverityLow, EventModify, "Logged visit of %s", l.Name)
}

func ModifyVisitEvent(l Location) Event {
	return newEvent(SeverityLow, EventModify, "Modified visit of %s", l.Name)
}

func DeleteVisitEvent(l Location) Event {
	return newEvent(SeverityNormal, EventDelete, "Deleted visit of %s", l.Name)
}

func CreateLocationEvent(l Location) Event {
	return newEvent(SeverityLow, EventCreate, "Created location %s", l.Name)
}

func ModifyLocationEvent(l Location) Event {
	return newEvent(SeverityNormal, EventModify, "Modified location %s", l.Name)
}

func DeleteLocationEvent(l Location) Event {
	return newEvent(SeverityHigh, EventDelete, "Deleted location %s", l.Name)
}

func CreateCategoryEvent(c Category) Event {
	return newEvent(SeverityLow, EventCreate, "Created category %s", c.Name)
}

func ModifyCategoryEvent(c Category) Event {
	return newEvent(SeverityNormal, EventModify, "Modified category %s", c.Name)
}

func DeleteCategoryEvent(c Category) Event {
	return newEvent(SeverityHigh, EventDelete, "Deleted category %s", c.Name)
}

func PageEditEvent(p PageType) Event {
	return newEvent(SeverityHigh, EventModify, "Modified page %s", p)
}

func UnauthorizedEvent(path string) Event {
	return newEvent(SeverityCritical, EventOther, "Unauthorized access of %s", path)
}
