package domain

import "time"

type InvitationState int

const (
	InvitationWaiting InvitationState = iota
	InvitationApproved
	InvitationRegistered
	InvitationTimedOut
	InvitationDenied
)

var invitationStateSlugs = []string{"waiting", "approved", "registered", "timed_out", "denied"}
var invitationStateLabels = []string{"Waiting", "Approved", "Registered", "Timed out", "Denied"}

func (s InvitationState) String() string { return label(invitationStateLabels, int(s)) }
func (s InvitationState) Slug() string   { return label(invitationStateSlugs, int(s)) }

// ParseInvitationState maps a URL slug to a state. "all" and "" yield ok with a nil state.
func ParseInvitationState(slug string) (*InvitationState, bool) {
	if slug == "" || slug == "all" {
		return nil, true
	}
	for i, s := range invitationStateSlugs {
		if s == slug {
			st := InvitationState(i)
			return &st, true
		}
	}
	return nil, false
}

func InvitationStates() []InvitationState {
	return []InvitationState{InvitationWaiting, InvitationApproved, InvitationRegistered, InvitationTimedOut, InvitationDenied}
}

const (
	MaxInvitationNameLen   = 64
	MaxInvitationReasonLen = 1024
)

type Invitation struct {
	ID           int64
	Email        string
	Name         string
	Reason       string
	State        InvitationState
	Created      time.Time
	InvitedByID  int64
	InvitedBy    string
	ApprovedByID *int64
	ApprovedAt   *time.Time
	UserID       *int64
}

// CanApprove reports whether the invitation may move to APPROVED.
func (i Invitation) CanApprove() bool {
	return i.State == InvitationWaiting || i.State == InvitationDenied
}

// CanDeny reports whether the invitation may move to DENIED.
func (i Invitation) CanDeny() bool {
	return i.State == InvitationWaiting || i.State == InvitationApproved
}

// Stale reports whether an approved, unused invitation was approved more
// than ttl before now. Its registration token has expired by then. Waiting
// invitations never go stale.
func (i Invitation) Stale(now time.Time, ttl time.Duration) bool {
	if i.State != InvitationApproved || i.UserID != nil || i.ApprovedAt == nil {
		return false
	}
	return now.Sub(*i.ApprovedAt) > ttl
}

// Usable reports whether a registration token for this invitation may be redeemed.
func (i Invitation) Usable() bool {
	return i.State == InvitationApproved && i.UserID == nil
}
