package domain

import (
	"fmt"
	"time"
)

const (
	MaxBanReasonLen = 1024
	DefaultBanDays  = 30
)

type Ban struct {
	ID        int64
	UserID    int64
	CreatorID int64
	Reason    string
	Created   time.Time
	Until     time.Time
	Permanent bool
}

// Active reports whether the ban still applies at now. Permanent bans never lapse.
func (b Ban) Active(now time.Time) bool {
	return b.Permanent || b.Until.After(now)
}

// Message is the text shown to a banned user on login.
func (b Ban) Message() string {
	if b.Permanent {
		return fmt.Sprintf("You were banned permanently: %s", b.Reason)
	}
	return fmt.Sprintf("You are banned until %s: %s", b.Until.Format("2006-01-02 15:04"), b.Reason)
}
