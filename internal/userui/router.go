package userui

import (
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"hiddenplaces/internal/auth"
	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/reqctx"
	"hiddenplaces/internal/service"
)

// FileOpener serves stored uploads. storage.Local implements it.
type FileOpener interface {
	Open(rel string) (*os.File, error)
}

type Opts struct {
	Logger *slog.Logger

	Auth       *service.AuthService
	Invites    *service.InviteService
	Reset      *service.PasswordResetService
	Users      *service.UserService
	Locations  *service.LocationService
	Categories *service.CategoryService
	Visits     *service.VisitService
	Links      *service.LinkService
	Bookmarks  *service.BookmarkService
	Uploads    *service.UploadService
	Messages   *service.MessageService
	Pages      *service.PageService
	Events     service.EventLogger
	Files      FileOpener

	CookieCodec  auth.CookieCodec
	CookieSecure bool

	MaxUploadBytes   int64
	LocationsPerPage int
	ItemsPerPage     int
}

// New serves the HTML pages. The identity of the request is expected in its
// context, see reqctx.Authenticate.
func New(opts Opts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.LocationsPerPage <= 0 {
		opts.LocationsPerPage = 20
	}
	if opts.ItemsPerPage <= 0 {
		opts.ItemsPerPage = 30
	}

	app := &app{
		logger:           logger,
		authSvc:          opts.Auth,
		inviteSvc:        opts.Invites,
		resetSvc:         opts.Reset,
		usersSvc:         opts.Users,
		locationSvc:      opts.Locations,
		categorySvc:      opts.Categories,
		visitSvc:         opts.Visits,
		linkSvc:          opts.Links,
		bookmarkSvc:      opts.Bookmarks,
		uploadSvc:        opts.Uploads,
		messageSvc:       opts.Messages,
		pageSvc:          opts.Pages,
		events:           opts.Events,
		files:            opts.Files,
		cookieCodec:      opts.CookieCodec,
		cookieSecure:     opts.CookieSecure,
		maxUpload:        opts.MaxUploadBytes,
		locationsPerPage: opts.LocationsPerPage,
		itemsPerPage:     opts.ItemsPerPage,
	}

	t, err := parseTemplates()
	if err != nil {
		logger.Error("userui: parse templates failed", "err", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal server error", http.StatusInternalServerError)
		})
	}
	app.templates = t

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", app.requireAuth(app.handleIndex))
	mux.HandleFunc("GET /user/login", app.handleLoginGet)
	mux.HandleFunc("POST /user/login", app.handleLoginPost)
	mux.HandleFunc("POST /user/logout", app.requireAuth(app.handleLogoutPost))
	mux.HandleFunc("GET /user/register/{token}", app.handleRegisterGet)
	mux.HandleFunc("POST /user/register/{token}", app.handleRegisterPost)
	mux.HandleFunc("GET /user/forgotten_password", app.handleForgottenGet)
	mux.HandleFunc("POST /user/forgotten_password", app.handleForgottenPost)
	mux.HandleFunc("GET /user/password_reset/{token}", app.handleResetGet)
	mux.HandleFunc("POST /user/password_reset/{token}", app.handleResetPost)
	mux.HandleFunc("GET /user/change_email/{token}", app.handleChangeEmailConfirm)

	mux.HandleFunc("GET /user/profile", app.requireAuth(app.handleOwnProfile))
	mux.HandleFunc("GET /user/{id}", app.requireAuth(app.handleProfile))
	mux.HandleFunc("GET /user/edit", app.requireAuth(app.handleEditProfileGet))
	mux.HandleFunc("POST /user/edit", app.requireAuth(app.handleEditProfilePost))
	mux.HandleFunc("GET /user/change_password", app.requireAuth(app.handleChangePasswordGet))
	mux.HandleFunc("POST /user/change_password", app.requireAuth(app.handleChangePasswordPost))
	mux.HandleFunc("GET /user/change_email", app.requireAuth(app.handleChangeEmailGet))
	mux.HandleFunc("POST /user/change_email", app.requireAuth(app.handleChangeEmailPost))
	mux.HandleFunc("GET /user/ban/{id}", app.requireRole(domain.RoleModerator, app.handleBanGet))
	mux.HandleFunc("POST /user/ban/{id}", app.requireRole(domain.RoleModerator, app.handleBanPost))
	mux.HandleFunc("GET /user/invite", app.requireRole(domain.RoleModerator, app.handleInviteGet))
	mux.HandleFunc("POST /user/invite", app.requireRole(domain.RoleModerator, app.handleInvitePost))
	mux.HandleFunc("GET /user/role/{id}", app.requireRole(domain.RoleAdmin, app.handleRoleGet))
	mux.HandleFunc("POST /user/role/{id}", app.requireRole(domain.RoleAdmin, app.handleRolePost))

	mux.HandleFunc("GET /location/{id}", app.requireAuth(app.handleLocation))
	mux.HandleFunc("POST /location/{id}", app.requireAuth(app.handleVisitAdd))
	mux.HandleFunc("GET /location/add/{type}", app.requireAuth(app.handleLocationAddGet))
	mux.HandleFunc("POST /location/add/{type}", app.requireAuth(app.handleLocationAddPost))
	mux.HandleFunc("GET /location/add/{type}/{parent}", app.requireAuth(app.handleLocationAddGet))
	mux.HandleFunc("POST /location/add/{type}/{parent}", app.requireAuth(app.handleLocationAddPost))
	mux.HandleFunc("GET /location/edit/{id}", app.requireAuth(app.handleLocationEditGet))
	mux.HandleFunc("POST /location/edit/{id}", app.requireAuth(app.handleLocationEditPost))
	mux.HandleFunc("POST /location/delete/{id}", app.requireRole(domain.RoleModerator, app.handleLocationDelete))
	mux.HandleFunc("POST /location/search", app.requireAuth(app.handleSearchPost))
	mux.HandleFunc("GET /location/search/{q}", app.requireAuth(app.handleSearch))
	mux.HandleFunc("GET /location/browse", app.requireAuth(app.handleBrowse))
	mux.HandleFunc("GET /location/browse/{type}", app.requireAuth(app.handleBrowse))
	mux.HandleFunc("GET /location/mine/{type}", app.requireAuth(app.handleMine))
	mux.HandleFunc("GET /location/user/{id}", app.requireAuth(app.handleByUser))
	mux.HandleFunc("GET /location/visited/{type}", app.requireAuth(app.handleVisited))
	mux.HandleFunc("GET /location/user/visited/{id}", app.requireAuth(app.handleUserVisited))
	mux.HandleFunc("GET /location/bookmarks/{name}", app.requireAuth(app.handleBookmarkList))
	mux.HandleFunc("GET /location/map", app.requireAuth(app.handleMap))
	mux.HandleFunc("GET /location/map/{type}", app.requireAuth(app.handleMap))
	mux.HandleFunc("GET /location/visit/edit/{id}", app.requireAuth(app.handleVisitEditGet))
	mux.HandleFunc("POST /location/visit/edit/{id}", app.requireAuth(app.handleVisitEditPost))
	mux.HandleFunc("POST /location/visit/delete/{id}", app.requireAuth(app.handleVisitDelete))
	mux.HandleFunc("GET /location/link/add/{id}", app.requireAuth(app.handleLinkAddGet))
	mux.HandleFunc("POST /location/link/add/{id}", app.requireAuth(app.handleLinkAddPost))
	mux.HandleFunc("POST /location/link/remove/{id}", app.requireAuth(app.handleLinkRemove))
	mux.HandleFunc("GET /location/poi/add/{id}", app.requireAuth(app.handlePOIAddGet))
	mux.HandleFunc("POST /location/poi/add/{id}", app.requireAuth(app.handlePOIAddPost))
	mux.HandleFunc("POST /location/poi/remove/{id}", app.requireAuth(app.handlePOIRemove))
	mux.HandleFunc("POST /location/bookmark/create", app.requireAuth(app.handleBookmarkCreate))
	mux.HandleFunc("POST /location/bookmark/create/{id}", app.requireAuth(app.handleBookmarkCreate))
	mux.HandleFunc("POST /location/bookmark/add/{list}/{location}", app.requireAuth(app.handleBookmarkAdd))
	mux.HandleFunc("POST /location/bookmark/remove/{list}/{location}", app.requireAuth(app.handleBookmarkRemove))

	mux.HandleFunc("GET /category/{$}", app.requireAuth(app.handleCategories))
	mux.HandleFunc("GET /category/{id}", app.requireAuth(app.handleCategory))
	mux.HandleFunc("GET /category/add", app.requireAuth(app.handleCategoryAddGet))
	mux.HandleFunc("POST /category/add", app.requireAuth(app.handleCategoryAddPost))
	mux.HandleFunc("GET /category/edit/{id}", app.requireAuth(app.handleCategoryEditGet))
	mux.HandleFunc("POST /category/edit/{id}", app.requireAuth(app.handleCategoryEditPost))
	mux.HandleFunc("POST /category/delete/{id}", app.requireRole(domain.RoleModerator, app.handleCategoryDelete))

	mux.HandleFunc("GET /upload/{path...}", app.requireAuth(app.handleUploadFile))
	mux.HandleFunc("GET /upload/photo/add/{kind}/{id}", app.requireAuth(app.handleUploadAddGet(true)))
	mux.HandleFunc("POST /upload/photo/add/{kind}/{id}", app.requireAuth(app.handleUploadAddPost(true)))
	mux.HandleFunc("GET /upload/document/add/{kind}/{id}", app.requireAuth(app.handleUploadAddGet(false)))
	mux.HandleFunc("POST /upload/document/add/{kind}/{id}", app.requireAuth(app.handleUploadAddPost(false)))
	mux.HandleFunc("GET /upload/photo/edit/{id}", app.requireAuth(app.handleUploadEditGet(true)))
	mux.HandleFunc("POST /upload/photo/edit/{id}", app.requireAuth(app.handleUploadEditPost(true)))
	mux.HandleFunc("GET /upload/document/edit/{id}", app.requireAuth(app.handleUploadEditGet(false)))
	mux.HandleFunc("POST /upload/document/edit/{id}", app.requireAuth(app.handleUploadEditPost(false)))
	mux.HandleFunc("POST /upload/remove/{id}", app.requireAuth(app.handleUploadRemove))
	mux.HandleFunc("GET /library/{$}", app.requireAuth(app.handleLibrary))

	mux.HandleFunc("GET /message/{$}", app.requireAuth(app.handleThreads))
	mux.HandleFunc("GET /message/write/{user}", app.requireAuth(app.handleWriteGet))
	mux.HandleFunc("POST /message/write/{user}", app.requireAuth(app.handleWritePost))
	mux.HandleFunc("GET /message/show/{thread}", app.requireAuth(app.handleThread))
	mux.HandleFunc("POST /message/show/{thread}", app.requireAuth(app.handleReplyPost))

	mux.HandleFunc("GET /page/{page}", app.requireAuth(app.handlePage))
	mux.HandleFunc("GET /page/contact", app.requireAuth(app.handleContactGet))
	mux.HandleFunc("POST /page/contact", app.requireAuth(app.handleContactPost))
	mux.HandleFunc("GET /page/edit/{page}", app.requireRole(domain.RoleAdmin, app.handlePageEditGet))
	mux.HandleFunc("POST /page/edit/{page}", app.requireRole(domain.RoleAdmin, app.handlePageEditPost))

	staticFS, err := fs.Sub(assets, "static")
	if err != nil {
		logger.Error("userui: static fs setup failed", "err", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "internal server error", http.StatusInternalServerError)
		})
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
	mux.Handle("GET /static/", static)
	mux.Handle("HEAD /static/", static)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		app.renderError(w, r, http.StatusNotFound, "Not found", "The page you are looking for does not exist.")
	})

	return mux
}

type app struct {
	logger *slog.Logger

	authSvc     *service.AuthService
	inviteSvc   *service.InviteService
	resetSvc    *service.PasswordResetService
	usersSvc    *service.UserService
	locationSvc *service.LocationService
	categorySvc *service.CategoryService
	visitSvc    *service.VisitService
	linkSvc     *service.LinkService
	bookmarkSvc *service.BookmarkService
	uploadSvc   *service.UploadService
	messageSvc  *service.MessageService
	pageSvc     *service.PageService
	events      service.EventLogger
	files       FileOpener

	cookieCodec  auth.CookieCodec
	cookieSecure bool

	maxUpload        int64
	locationsPerPage int
	itemsPerPage     int

	templates *templates
}

// requireAuth sends anonymous visitors to the login form and remembers where
// they were going.
func (a *app) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := reqctx.From(r.Context())
		if !id.LoggedIn() {
			http.Redirect(w, r, "/user/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		if a.usersSvc != nil {
			a.usersSvc.Touch(r.Context(), id.User)
		}
		next.ServeHTTP(w, r)
	}
}

// requireRole lets through users whose role is at least max. Rejections are
// written to the event log.
func (a *app) requireRole(max domain.Role, next http.HandlerFunc) http.HandlerFunc {
	return a.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if !u.Role.AtMost(max) {
			if a.events != nil {
				a.events.Log(r.Context(), &u, domain.UnauthorizedEvent(r.URL.Path))
			}
			a.renderError(w, r, http.StatusForbidden, "Forbidden", "You are not allowed to do this.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) domain.User {
	return reqctx.From(r.Context()).User
}

func (a *app) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/location/browse", http.StatusFound)
}
