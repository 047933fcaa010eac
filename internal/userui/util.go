package userui

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/service"
)

// parseForm reads urlencoded and multipart bodies alike, capping the
// request size.
func (a *app) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(8 << 20)
	}
	return r.ParseForm()
}

// formFile returns the uploaded file under name, nil when none was sent. The
// caller closes the returned file through done.
func formFile(r *http.Request, name string) (*service.FileUpload, func(), error) {
	if r.MultipartForm == nil {
		return nil, func() {}, nil
	}
	f, hdr, err := r.FormFile(name)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	if hdr.Filename == "" || hdr.Size == 0 {
		_ = f.Close()
		return nil, func() {}, nil
	}
	return &service.FileUpload{Name: hdr.Filename, Body: f}, func() { _ = f.Close() }, nil
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func formInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
	return n
}

func formInts(r *http.Request, name string) []int {
	var out []int
	for _, v := range r.Form[name] {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func formIDs(r *http.Request, name string) []int64 {
	var out []int64
	for _, v := range r.Form[name] {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func formBool(r *http.Request, name string) bool {
	switch strings.ToLower(r.FormValue(name)) {
	case "on", "1", "true", "yes":
		return true
	}
	return false
}

func pageRequest(r *http.Request, perPage int) domain.PageRequest {
	n, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return domain.NewPageRequest(n, perPage)
}

// fieldErrors extracts the per-field messages of a validation failure.
func fieldErrors(err error) (map[string]string, bool) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields, true
	}
	return nil, false
}

// nextURL is the validated redirect target carried in the next form or
// query value.
func nextURL(r *http.Request, fallback string) string {
	return service.SafeRedirect(r.FormValue("next"), r.Host, fallback)
}

func redirectWith(w http.ResponseWriter, r *http.Request, target, key, code string) {
	if code != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + key + "=" + url.QueryEscape(code)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func redirectNotice(w http.ResponseWriter, r *http.Request, target, notice string) {
	redirectWith(w, r, target, "notice", notice)
}

// fail renders the page matching a service error.
func (a *app) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.renderError(w, r, http.StatusNotFound, "Not found", "The page you are looking for does not exist.")
	case errors.Is(err, domain.ErrForbidden):
		a.renderError(w, r, http.StatusForbidden, "Forbidden", "You are not allowed to do this.")
	case errors.Is(err, domain.ErrRootProtected):
		a.renderError(w, r, http.StatusForbidden, "Forbidden", "The root account cannot be changed.")
	case errors.Is(err, domain.ErrOwnRole):
		a.renderError(w, r, http.StatusForbidden, "Forbidden", "You cannot change your own role.")
	case errors.Is(err, domain.ErrInvalidState):
		a.renderError(w, r, http.StatusConflict, "Conflict", "This action is not possible in the current state.")
	case errors.Is(err, domain.ErrValidation):
		a.renderError(w, r, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		http.Redirect(w, r, "/user/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
	default:
		a.logger.Error("userui: request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		a.renderError(w, r, http.StatusInternalServerError, "Error", "Something went wrong. Please try again later.")
	}
}

// formError re-renders a form for validation failures and falls back to fail
// for everything else.
func (a *app) formError(w http.ResponseWriter, r *http.Request, err error, name string, v viewData) {
	fields, ok := fieldErrors(err)
	if !ok {
		a.fail(w, r, err)
		return
	}
	v.Fields = fields
	if v.Error == "" {
		v.Error = "Please correct the errors below."
	}
	a.render(w, r, http.StatusBadRequest, name, v)
}
