package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

const SessionCookieName = "hp_session"

// cookieKeyLabel separates the cookie MAC key from the JWT signing key,
// both of which are derived from APP_SECRET_KEY.
const cookieKeyLabel = "hiddenplaces session cookie v1"

// CookieCodec signs session ids carried in the hp_session cookie. The
// cookie value is "<session id>.<base64url HMAC-SHA256>". A codec without a
// key accepts nothing.
type CookieCodec struct {
	key []byte
}

func NewCookieCodec(secret []byte) CookieCodec {
	if len(secret) == 0 {
		return CookieCodec{}
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(cookieKeyLabel))
	return CookieCodec{key: mac.Sum(nil)}
}

func (c CookieCodec) sign(sessionID string) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(sessionID))
	return mac.Sum(nil)
}

func (c CookieCodec) EncodeSessionID(sessionID string) string {
	return sessionID + "." + base64.RawURLEncoding.EncodeToString(c.sign(sessionID))
}

func (c CookieCodec) DecodeSessionID(cookieValue string) (string, bool) {
	if len(c.key) == 0 {
		return "", false
	}
	id, encSig, ok := strings.Cut(cookieValue, ".")
	if !ok || id == "" {
		return "", false
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(sig, c.sign(id)) {
		return "", false
	}
	return id, true
}

// SessionID reads and verifies the session cookie of r. present reports
// whether a non-empty cookie was sent at all, so callers can clear a bad
// one.
func (c CookieCodec) SessionID(r *http.Request) (id string, present, ok bool) {
	ck, err := r.Cookie(SessionCookieName)
	if err != nil || ck.Value == "" {
		return "", false, false
	}
	id, ok = c.DecodeSessionID(ck.Value)
	return id, true, ok
}

func sessionCookie(value string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetSessionCookie writes the session cookie. A zero ttl produces a browser
// session cookie that is dropped when the browser closes.
func SetSessionCookie(w http.ResponseWriter, cookieValue string, ttl time.Duration, secure bool) {
	c := sessionCookie(cookieValue, secure)
	if ttl > 0 {
		c.MaxAge = int(ttl.Seconds())
		c.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, c)
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	c := sessionCookie("", secure)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}
