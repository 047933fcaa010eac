// Package reqctx carries the authenticated identity of a request through its
// context.
package reqctx

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"hiddenplaces/internal/auth"
	"hiddenplaces/internal/domain"
)

type ctxKey struct{}

// Identity is the resolved session of a request. The zero value is an
// anonymous guest.
type Identity struct {
	User      domain.User
	SessionID string
}

func (i Identity) LoggedIn() bool { return i.SessionID != "" }

// Role reports the user's role, RoleGuest for anonymous requests.
func (i Identity) Role() domain.Role {
	if !i.LoggedIn() {
		return domain.RoleGuest
	}
	return i.User.Role
}

func With(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func From(ctx context.Context) Identity {
	id, _ := ctx.Value(ctxKey{}).(Identity)
	return id
}

// SessionResolver maps a session id to its user.
type SessionResolver interface {
	GetUserForSession(ctx context.Context, sessionID string) (domain.User, error)
}

// Authenticate resolves the session cookie once per request. Requests
// without a valid session continue as guests; a stale cookie is cleared.
func Authenticate(resolver SessionResolver, codec auth.CookieCodec, secure bool, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessID, present, ok := codec.SessionID(r)
			if !present {
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				auth.ClearSessionCookie(w, secure)
				next.ServeHTTP(w, r)
				return
			}

			u, err := resolver.GetUserForSession(r.Context(), sessID)
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthorized) && !errors.Is(err, domain.ErrForbidden) {
					logger.Error("resolve session failed", "err", err)
				}
				auth.ClearSessionCookie(w, secure)
				next.ServeHTTP(w, r)
				return
			}

			ctx := With(r.Context(), Identity{User: u, SessionID: sessID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP prefers the first X-Forwarded-For entry and falls back to the
// connection address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
