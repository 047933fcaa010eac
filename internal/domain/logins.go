package domain

import "time"

type LoginResult int

const (
	LoginSuccess LoginResult = iota
	LoginNotActive
	LoginBanned
	LoginInvalidPassword
	LoginInvalidEmail
)

var loginResultLabels = []string{"Success", "Not active", "Banned", "Invalid password", "Invalid email"}

func (r LoginResult) String() string { return label(loginResultLabels, int(r)) }

func (r LoginResult) Failed() bool { return r != LoginSuccess }

type LoginLog struct {
	ID        int64
	Email     string
	Result    LoginResult
	IP        string
	UserID    *int64
	System    string
	Browser   string
	Country   string
	Timestamp time.Time
}

type LoginFilter string

const (
	LoginFilterAll    LoginFilter = "all"
	LoginFilterFailed LoginFilter = "failed"
	LoginFilterUnique LoginFilter = "unique"
)

func ParseLoginFilter(s string) (LoginFilter, bool) {
	switch LoginFilter(s) {
	case "":
		return LoginFilterAll, true
	case LoginFilterAll, LoginFilterFailed, LoginFilterUnique:
		return LoginFilter(s), true
	}
	return "", false
}
