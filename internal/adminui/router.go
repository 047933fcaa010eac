package adminui

import (
	"log/slog"
	"net/http"
	"net/url"

	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/reqctx"
	"hiddenplaces/internal/service"
)

type Opts struct {
	Logger *slog.Logger

	Auth      *service.AuthService
	Users     *service.UserService
	Locations *service.LocationService
	Invites   *service.InviteService
	Messages  *service.MessageService
	Events    *service.EventService

	PerPage int
}

// New serves the back office under /admin. Like the public pages it relies
// on reqctx.Authenticate having put the identity into the request context.
func New(opts Opts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 50
	}

	app := &app{
		logger:      logger,
		authSvc:     opts.Auth,
		usersSvc:    opts.Users,
		locationSvc: opts.Locations,
		inviteSvc:   opts.Invites,
		messageSvc:  opts.Messages,
		eventSvc:    opts.Events,
		perPage:     opts.PerPage,
	}

	t, err := parseTemplates()
	if err != nil {
		logger.Error("adminui: parse templates failed", "err", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal server error", http.StatusInternalServerError)
		})
	}
	app.templates = t

	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin", app.redirectAdmin)
	mux.HandleFunc("GET /admin/{$}", app.requireAdmin(app.redirectLocations))
	mux.HandleFunc("GET /admin/locations", app.requireAdmin(app.handleLocations))
	mux.HandleFunc("GET /admin/locations/{filter}", app.requireAdmin(app.handleLocations))
	mux.HandleFunc("GET /admin/users", app.requireAdmin(app.handleUsers))
	mux.HandleFunc("GET /admin/users/{filter}", app.requireAdmin(app.handleUsers))
	mux.HandleFunc("GET /admin/invitations", app.requireAdmin(app.handleInvitations))
	mux.HandleFunc("GET /admin/invitations/{state}", app.requireAdmin(app.handleInvitations))
	mux.HandleFunc("POST /admin/invitations/{id}/approve", app.requireAdmin(app.handleInvitationApprove))
	mux.HandleFunc("POST /admin/invitations/{id}/deny", app.requireAdmin(app.handleInvitationDeny))
	mux.HandleFunc("GET /admin/logins", app.requireAdmin(app.handleLogins))
	mux.HandleFunc("GET /admin/logins/{filter}", app.requireAdmin(app.handleLogins))
	mux.HandleFunc("GET /admin/events", app.requireAdmin(app.handleEvents))
	mux.HandleFunc("GET /admin/message", app.requireAdmin(app.handleMessageGet))
	mux.HandleFunc("POST /admin/message", app.requireAdmin(app.handleMessagePost))
	mux.HandleFunc("/admin/", app.requireAdmin(func(w http.ResponseWriter, r *http.Request) {
		app.renderError(w, r, http.StatusNotFound, "Not found", "The page you are looking for does not exist.")
	}))

	return mux
}

type app struct {
	logger *slog.Logger

	authSvc     *service.AuthService
	usersSvc    *service.UserService
	locationSvc *service.LocationService
	inviteSvc   *service.InviteService
	messageSvc  *service.MessageService
	eventSvc    *service.EventService

	perPage int

	templates *templates
}

func (a *app) redirectAdmin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin/", http.StatusFound)
}

func (a *app) redirectLocations(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin/locations", http.StatusFound)
}

// requireAdmin admits roles up to ADMIN. Anonymous visitors go to the login
// form; everybody else gets a 403 and an event log entry.
func (a *app) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := reqctx.From(r.Context())
		if !id.LoggedIn() {
			http.Redirect(w, r, "/user/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		if !id.User.Role.IsAdmin() {
			if a.eventSvc != nil {
				u := id.User
				a.eventSvc.Log(r.Context(), &u, domain.UnauthorizedEvent(r.URL.Path))
			}
			a.renderError(w, r, http.StatusForbidden, "Forbidden", "This area is for administrators.")
			return
		}
		next.ServeHTTP(w, r)
	}
}

func currentUser(r *http.Request) domain.User {
	return reqctx.From(r.Context()).User
}
