package userui

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"hiddenplaces/internal/auth"
	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/ratelimit"
	"hiddenplaces/internal/reqctx"
	"hiddenplaces/internal/service"
	"hiddenplaces/internal/storage"
)

type stubPagesStore struct {
	t *testing.T

	getPageFunc func(context.Context, domain.PageType) (domain.Page, error)
}

func (s *stubPagesStore) GetPage(ctx context.Context, pt domain.PageType) (domain.Page, error) {
	if s.getPageFunc != nil {
		return s.getPageFunc(ctx, pt)
	}
	s.t.Fatalf("GetPage called unexpectedly")
	return domain.Page{}, context.Canceled
}

func (s *stubPagesStore) SavePage(context.Context, domain.Page) error {
	s.t.Fatalf("SavePage called unexpectedly")
	return context.Canceled
}

type recordingEvents struct {
	events []domain.Event
	users  []*domain.User
}

func (r *recordingEvents) Log(_ context.Context, u *domain.User, ev domain.Event) {
	r.users = append(r.users, u)
	r.events = append(r.events, ev)
}

type stubFiles struct {
	openFunc func(string) (*os.File, error)
}

func (s stubFiles) Open(rel string) (*os.File, error) { return s.openFunc(rel) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(t *testing.T, opts Opts) http.Handler {
	t.Helper()
	opts.Logger = quietLogger()
	return New(opts)
}

func as(r *http.Request, u domain.User) *http.Request {
	return r.WithContext(reqctx.With(r.Context(), reqctx.Identity{User: u, SessionID: "sess"}))
}

func TestLoginPageRenders(t *testing.T) {
	h := newTestHandler(t, Opts{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/user/login?notice=logged_out", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, `name="email"`) {
		t.Fatalf("login form missing")
	}
	if !strings.Contains(body, "You have been logged out.") {
		t.Fatalf("notice not rendered")
	}
}

func TestAnonymousRequestRedirectsToLogin(t *testing.T) {
	h := newTestHandler(t, Opts{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/location/browse?page=2", nil))

	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rr.Code)
	}
	loc, err := url.Parse(rr.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Path != "/user/login" {
		t.Fatalf("redirected to %s", loc.Path)
	}
	if next := loc.Query().Get("next"); next != "/location/browse?page=2" {
		t.Fatalf("next = %q", next)
	}
}

func TestIndexRedirectsToBrowse(t *testing.T) {
	h := newTestHandler(t, Opts{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/", nil), domain.User{ID: 2, Role: domain.RoleUser}))

	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/location/browse" {
		t.Fatalf("status = %d, location = %q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestRoleGateRejectsAndLogs(t *testing.T) {
	events := &recordingEvents{}
	h := newTestHandler(t, Opts{Events: events})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/user/invite", nil), domain.User{ID: 9, Role: domain.RoleUser}))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
	if len(events.events) != 1 {
		t.Fatalf("got %d events", len(events.events))
	}
	want := domain.UnauthorizedEvent("/user/invite")
	if events.events[0].Type != want.Type || events.events[0].Text != want.Text {
		t.Fatalf("unexpected event: %+v", events.events[0])
	}
	if events.users[0] == nil || events.users[0].ID != 9 {
		t.Fatalf("event not attributed to the user")
	}
}

func TestRoleGateAdmitsModerator(t *testing.T) {
	events := &recordingEvents{}
	h := newTestHandler(t, Opts{Events: events})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/user/invite", nil), domain.User{ID: 5, Role: domain.RoleModerator}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if len(events.events) != 0 {
		t.Fatalf("unexpected events: %+v", events.events)
	}
}

func TestAdminRouteRejectsModerator(t *testing.T) {
	h := newTestHandler(t, Opts{Events: &recordingEvents{}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/page/edit/rules", nil), domain.User{ID: 5, Role: domain.RoleModerator}))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}

func TestPageRenders(t *testing.T) {
	pages := &stubPagesStore{
		t: t,
		getPageFunc: func(_ context.Context, pt domain.PageType) (domain.Page, error) {
			if pt != domain.PageRules {
				t.Fatalf("page = %v", pt)
			}
			return domain.Page{Type: pt, Text: "Leave no trace.\nClose the gates."}, nil
		},
	}
	h := newTestHandler(t, Opts{Pages: &service.PageService{Pages: pages}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/page/rules", nil), domain.User{ID: 3, Role: domain.RoleUser}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<p>Leave no trace.</p>") || !strings.Contains(body, "<p>Close the gates.</p>") {
		t.Fatalf("page text not rendered: %s", body)
	}
}

func TestUnknownPageIsNotFound(t *testing.T) {
	h := newTestHandler(t, Opts{Pages: &service.PageService{Pages: &stubPagesStore{t: t}}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/page/imprint", nil), domain.User{ID: 3, Role: domain.RoleUser}))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestContactFormValidation(t *testing.T) {
	h := newTestHandler(t, Opts{Pages: &service.PageService{Pages: &stubPagesStore{t: t}}})

	form := url.Values{"subject": {""}, "text": {"hello"}}
	req := httptest.NewRequest(http.MethodPost, "/page/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, as(req, domain.User{ID: 3, Role: domain.RoleUser}))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `class="field-error"`) {
		t.Fatalf("field error not rendered")
	}
	if !strings.Contains(body, "hello") {
		t.Fatalf("submitted text was not kept")
	}
}

func TestLoginRateLimited(t *testing.T) {
	authSvc := &service.AuthService{Limiter: ratelimit.NewMemory(0, 5*time.Minute)}
	h := newTestHandler(t, Opts{Auth: authSvc})

	form := url.Values{"email": {"a@example.com"}, "password": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/user/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Too many login attempts") {
		t.Fatalf("rate limit message missing")
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatalf("no cookie expected")
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestHandler(t, Opts{Auth: &service.AuthService{}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, as(httptest.NewRequest(http.MethodPost, "/user/logout", nil), domain.User{ID: 3, Role: domain.RoleUser}))

	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("Location"); got != "/user/login?notice=logged_out" {
		t.Fatalf("location = %q", got)
	}
	cleared := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("session cookie not cleared")
	}
}

func TestStaticAssetsArePublic(t *testing.T) {
	h := newTestHandler(t, Opts{})

	for _, p := range []string{"/static/css/site.css", "/static/js/map.js", "/static/images/location_placeholder.png"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, p, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", p, rr.Code)
		}
	}
}

func TestUnknownPathRendersNotFound(t *testing.T) {
	h := newTestHandler(t, Opts{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/does/not/exist", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestUploadFileServing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/a.txt", []byte("plan of the mine"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	files := stubFiles{openFunc: func(rel string) (*os.File, error) {
		if rel == "bad.txt" {
			return nil, storage.ErrBadPath
		}
		return os.Open(dir + "/" + rel)
	}}
	h := newTestHandler(t, Opts{Files: files})
	u := domain.User{ID: 3, Role: domain.RoleUser}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/upload/a.txt", nil), u))
	if rr.Code != http.StatusOK || rr.Body.String() != "plan of the mine" {
		t.Fatalf("status = %d, body = %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/upload/missing.txt", nil), u))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing file: status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, as(httptest.NewRequest(http.MethodGet, "/upload/bad.txt", nil), u))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("rejected path: status = %d", rr.Code)
	}
}

func TestNoticeAndErrorCodes(t *testing.T) {
	if noticeMessage("saved") == "" {
		t.Fatalf("saved notice missing")
	}
	if noticeMessage("<script>") != "" {
		t.Fatalf("unknown codes must map to nothing")
	}
	if errorMessage("bookmark_name") == "" {
		t.Fatalf("bookmark_name error missing")
	}
}

func TestPaginationLinksRendered(t *testing.T) {
	tmpl, err := parseTemplates()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	var sb strings.Builder
	data := map[string]any{"Path": "/library/", "Page": domain.NewPagination(2, 3)}
	if err := tmpl.pages["library"].ExecuteTemplate(&sb, "pagination", data); err != nil {
		t.Fatalf("execute: %v", err)
	}
	out := sb.String()
	for _, want := range []string{`href="/library/?page=1"`, `href="/library/?page=3"`, `<span class="current">2</span>`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
}
