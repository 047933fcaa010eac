package reqctx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hiddenplaces/internal/auth"
	"hiddenplaces/internal/domain"
)

type resolverFunc func(context.Context, string) (domain.User, error)

func (f resolverFunc) GetUserForSession(ctx context.Context, id string) (domain.User, error) {
	return f(ctx, id)
}

func TestAuthenticate(t *testing.T) {
	codec := auth.NewCookieCodec([]byte(strings.Repeat("k", 32)))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	resolver := resolverFunc(func(_ context.Context, id string) (domain.User, error) {
		if id == "good" {
			return domain.User{ID: 7, Role: domain.RoleModerator}, nil
		}
		return domain.User{}, domain.ErrUnauthorized
	})

	var got Identity
	h := Authenticate(resolver, codec, false, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = From(r.Context())
	}))

	tests := []struct {
		name      string
		cookie    string
		wantLogin bool
		wantClear bool
	}{
		{name: "no cookie"},
		{name: "valid", cookie: codec.EncodeSessionID("good"), wantLogin: true},
		{name: "unknown session", cookie: codec.EncodeSessionID("gone"), wantClear: true},
		{name: "tampered", cookie: "good.AAAA", wantClear: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got = Identity{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: tc.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got.LoggedIn() != tc.wantLogin {
				t.Fatalf("LoggedIn=%v, want %v", got.LoggedIn(), tc.wantLogin)
			}
			if tc.wantLogin && (got.User.ID != 7 || got.Role() != domain.RoleModerator) {
				t.Fatalf("unexpected identity %+v", got)
			}
			if !tc.wantLogin && got.Role() != domain.RoleGuest {
				t.Fatalf("guest role expected, got %v", got.Role())
			}
			cleared := strings.Contains(rec.Header().Get("Set-Cookie"), "Max-Age=0")
			if cleared != tc.wantClear {
				t.Fatalf("cookie cleared=%v, want %v (%q)", cleared, tc.wantClear, rec.Header().Get("Set-Cookie"))
			}
		})
	}
}

func TestAuthenticateLogsStoreErrors(t *testing.T) {
	codec := auth.NewCookieCodec([]byte(strings.Repeat("k", 32)))
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	resolver := resolverFunc(func(context.Context, string) (domain.User, error) {
		return domain.User{}, errors.New("db down")
	})
	h := Authenticate(resolver, codec, false, logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: codec.EncodeSessionID("x")})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "resolve session failed") {
		t.Fatalf("expected error to be logged, got %q", buf.String())
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := ClientIP(req); got != "10.0.0.1" {
		t.Fatalf("remote addr: %q", got)
	}
	req.Header.Set("X-Forwarded-For", " 8.8.8.8 , 10.0.0.1")
	if got := ClientIP(req); got != "8.8.8.8" {
		t.Fatalf("forwarded: %q", got)
	}
}
