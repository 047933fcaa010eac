package domain

import "time"

type Thread struct {
	ID            int64
	Subject       string
	Timestamp     time.Time
	SenderSeen    bool
	RecipientSeen bool
	SenderID      int64
	SenderName    string
	RecipientID   int64
	RecipientName string
}

func (t Thread) HasParticipant(userID int64) bool {
	return t.SenderID == userID || t.RecipientID == userID
}

// SeenBy reports the seen flag of the given participant.
func (t Thread) SeenBy(userID int64) bool {
	if t.SenderID == userID {
		return t.SenderSeen
	}
	return t.RecipientSeen
}

// Counterpart returns the id and name of the other participant.
func (t Thread) Counterpart(userID int64) (int64, string) {
	if t.SenderID == userID {
		return t.RecipientID, t.RecipientName
	}
	return t.SenderID, t.SenderName
}

type Message struct {
	ID        int64
	Text      string
	Timestamp time.Time
	ThreadID  int64
	UserID    int64
	UserName  string
}

type PageType int

const (
	PageAbout PageType = iota + 1
	PageRules
	PageSupport
)

// EmptyPageText is shown for pages that were never edited.
const EmptyPageText = "Nothing added yet"

func ParsePageType(slug string) (PageType, bool) {
	switch slug {
	case "about":
		return PageAbout, true
	case "rules":
		return PageRules, true
	case "support":
		return PageSupport, true
	}
	return 0, false
}

func (p PageType) Slug() string {
	switch p {
	case PageAbout:
		return "about"
	case PageRules:
		return "rules"
	case PageSupport:
		return "support"
	}
	return ""
}

func (p PageType) String() string {
	switch p {
	case PageAbout:
		return "About"
	case PageRules:
		return "Rules"
	case PageSupport:
		return "Support"
	}
	return "Unknown"
}

type Page struct {
	Type     PageType
	Text     string
	Modified *time.Time
}
