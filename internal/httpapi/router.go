package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"hiddenplaces/internal/auth"
	"hiddenplaces/internal/reqctx"
	"hiddenplaces/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	// Sessions resolves the session cookie of every request. Without it all
	// requests are anonymous.
	Sessions     reqctx.SessionResolver
	Locations    *service.LocationService
	CookieCodec  auth.CookieCodec
	CookieSecure bool

	// UI serves everything that is not JSON. Admin is mounted under /admin.
	UI    http.Handler
	Admin http.Handler
}

// NewRouter builds the root handler: the JSON endpoints, the HTML
// interfaces and the middleware chain around them.
func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:      logger,
		isProd:      opts.IsProd,
		dbPing:      opts.DBPing,
		locationSvc: opts.Locations,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", api.handleHealthz)

	if api.locationSvc == nil {
		mux.HandleFunc("GET /location/api", handleNotImplemented)
		mux.HandleFunc("GET /location/api/{type}", handleNotImplemented)
	} else {
		mux.HandleFunc("GET /location/api", api.requireAuth(api.handleLocationsAPI))
		mux.HandleFunc("GET /location/api/{type}", api.requireAuth(api.handleLocationsAPI))
	}
	mux.HandleFunc("/location/api/", handleAPINotFound)

	if opts.Admin != nil {
		mux.Handle("/admin", opts.Admin)
		mux.Handle("/admin/", opts.Admin)
	}
	if opts.UI != nil {
		mux.Handle("/", opts.UI)
	}

	var h http.Handler = mux
	h = RequestLogger(logger)(h)
	if opts.Sessions != nil {
		h = reqctx.Authenticate(opts.Sessions, opts.CookieCodec, opts.CookieSecure, logger)(h)
	}
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotImplemented, "not_implemented", "not implemented")
}

func handleAPINotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	locationSvc *service.LocationService
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			a.logger.Warn("healthz: db ping failed", "err", err)
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db down"})
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
