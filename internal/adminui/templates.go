package adminui

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/reqctx"
)

var pageNames = []string{"locations", "users", "invitations", "logins", "events", "message", "error"}

type templates struct {
	pages map[string]*template.Template
}

type viewData struct {
	Title  string
	User   domain.User
	Notice string
	Error  string
	Fields map[string]string
	Path   string
	Filter string
	Data   any
}

var funcs = template.FuncMap{
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
	"pageURL": func(path string, page int) string {
		return path + "?page=" + strconv.Itoa(page)
	},
	"filterNav": func(base, current string, filters []string) map[string]any {
		return map[string]any{"Base": base, "Current": current, "Filters": filters}
	},
	"pager": func(path string, p domain.Pagination) map[string]any {
		return map[string]any{"Path": path, "Page": p}
	},
}

func parseTemplates() (*templates, error) {
	t := &templates{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		p, err := template.New("base").Funcs(funcs).ParseFS(assets, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		t.pages[name] = p
	}
	return t, nil
}

func (a *app) render(w http.ResponseWriter, r *http.Request, status int, name string, v viewData) {
	v.User = reqctx.From(r.Context()).User
	v.Path = r.URL.Path
	t, ok := a.templates.pages[name]
	if !ok {
		a.logger.Error("adminui: unknown template", "name", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, name+".html", v); err != nil {
		a.logger.Error("adminui: render failed", "template", name, "err", err)
	}
}

func (a *app) renderError(w http.ResponseWriter, r *http.Request, status int, title, msg string) {
	a.render(w, r, status, "error", viewData{Title: title, Error: msg})
}
