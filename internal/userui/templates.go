package userui

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/reqctx"
)

const placeholderImage = "/static/images/location_placeholder.png"

// pageNames lists the templates rendered inside layout.html.
var pageNames = []string{
	"login", "register", "forgotten", "reset", "error",
	"profile", "profile_edit", "change_password", "change_email", "ban", "invite", "role",
	"location", "location_form", "locations", "visited", "map", "visit_edit", "link_add", "poi_add",
	"categories", "category", "category_form",
	"upload_form", "library",
	"threads", "thread", "write",
	"page", "page_edit", "contact",
}

type templates struct {
	pages map[string]*template.Template
}

// viewData is passed to every page. Handlers fill Title, Data and the form
// state; render adds the identity and the alert counters.
type viewData struct {
	Title    string
	User     domain.User
	LoggedIn bool
	Alerts   domain.Alerts
	Notice   string
	Error    string
	Fields   map[string]string
	Path     string
	Data     any
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
	"dateptr": func(t *time.Time) string {
		if t == nil {
			return "never"
		}
		return t.Format("2006-01-02 15:04")
	},
	"thumb": func(u *domain.Upload) string {
		if u == nil {
			return placeholderImage
		}
		return u.ThumbnailURL()
	},
	"hasInt": func(xs []int, v int) bool {
		for _, x := range xs {
			if x == v {
				return true
			}
		}
		return false
	},
	"hasID": func(xs []int64, v int64) bool {
		for _, x := range xs {
			if x == v {
				return true
			}
		}
		return false
	},
	"optint": func(p *int) string {
		if p == nil {
			return ""
		}
		return strconv.Itoa(*p)
	},
	"pageURL": func(path string, page int) string {
		return path + "?page=" + strconv.Itoa(page)
	},
	"pager": func(path string, p domain.Pagination) map[string]any {
		return map[string]any{"Path": path, "Page": p}
	},
	"pathEscape": url.PathEscape,
	"lines": func(s string) []string {
		return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	},
}

func parseTemplates() (*templates, error) {
	t := &templates{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		p, err := template.New("base").Funcs(funcs).ParseFS(assets,
			"templates/layout.html", "templates/pagination.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		t.pages[name] = p
	}
	return t, nil
}

// render executes the named page. An empty Notice is taken from the notice
// code in the query string.
func (a *app) render(w http.ResponseWriter, r *http.Request, status int, name string, v viewData) {
	id := reqctx.From(r.Context())
	v.User = id.User
	v.LoggedIn = id.LoggedIn()
	v.Path = r.URL.Path
	if v.Notice == "" {
		v.Notice = noticeMessage(r.URL.Query().Get("notice"))
	}
	if v.Error == "" {
		v.Error = errorMessage(r.URL.Query().Get("error"))
	}
	if v.LoggedIn && a.usersSvc != nil {
		alerts, err := a.usersSvc.Alerts(r.Context(), id.User)
		if err != nil {
			a.logger.Warn("userui: load alerts failed", "user_id", id.User.ID, "err", err)
		}
		v.Alerts = alerts
	}

	t, ok := a.templates.pages[name]
	if !ok {
		a.logger.Error("userui: unknown template", "name", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, name+".html", v); err != nil {
		a.logger.Error("userui: render failed", "template", name, "err", err)
	}
}

func (a *app) renderError(w http.ResponseWriter, r *http.Request, status int, title, msg string) {
	a.render(w, r, status, "error", viewData{Title: title, Error: msg})
}

var notices = map[string]string{
	"logged_out":       "You have been logged out.",
	"registered":       "Your account is ready. You can log in now.",
	"reset_sent":       "If the address belongs to an account, a reset link is on its way.",
	"password_reset":   "Your password has been changed. You can log in now.",
	"password_changed": "Your password has been changed.",
	"email_sent":       "Check your new mailbox for the confirmation link.",
	"email_changed":    "Your email address has been changed.",
	"saved":            "Changes saved.",
	"deleted":          "Deleted.",
	"invited":          "The invitation has been recorded.",
	"banned":           "The user has been banned.",
	"role_changed":     "The role has been changed.",
	"visit_added":      "Your visit has been recorded.",
	"bookmark_created": "The bookmark list has been created.",
	"bookmark_added":   "The location has been bookmarked.",
	"bookmark_removed": "The bookmark has been removed.",
	"message_sent":     "Your message has been sent.",
	"contact_sent":     "Thank you, the administrators have been notified.",
}

var errorCodes = map[string]string{
	"bookmark_name":   "Choose another name for the bookmark list.",
	"bookmark_failed": "The bookmark could not be changed.",
}

func noticeMessage(code string) string { return notices[strings.TrimSpace(code)] }

func errorMessage(code string) string { return errorCodes[strings.TrimSpace(code)] }
