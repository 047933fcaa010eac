package adminui

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"hiddenplaces/internal/domain"
)

type listView[T any] struct {
	Items   []T
	Total   int
	Page    domain.Pagination
	Filters []string
}

func newListView[T any](res domain.PageResult[T], filters ...string) listView[T] {
	return listView[T]{Items: res.Items, Total: res.Total, Page: res.Pagination(), Filters: filters}
}

func (a *app) handleLocations(w http.ResponseWriter, r *http.Request) {
	filter := r.PathValue("filter")
	if filter == "" {
		filter = "all"
	}
	u := currentUser(r)
	page := a.pageRequest(r)

	var (
		res domain.PageResult[domain.Location]
		err error
	)
	switch filter {
	case "unpublished", "private":
		res, err = a.locationSvc.Unpublished(r.Context(), domain.LocationAll, page)
	default:
		t, perr := domain.ParseLocationType(filter)
		if perr != nil {
			a.fail(w, r, perr)
			return
		}
		res, err = a.locationSvc.All(r.Context(), t, page)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.markChecked(r, u, domain.CheckLocations)
	a.render(w, r, http.StatusOK, "locations", viewData{
		Title:  "Locations",
		Filter: filter,
		Data:   newListView(res, "all", "underground", "urbex", "hiking", "unpublished"),
	})
}

func (a *app) handleUsers(w http.ResponseWriter, r *http.Request) {
	filter, ok := domain.ParseUserFilter(r.PathValue("filter"))
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	res, err := a.usersSvc.List(r.Context(), filter, a.pageRequest(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "users", viewData{
		Title:  "Users",
		Filter: string(filter),
		Data:   newListView(res, "all", "admins", "moderators", "banned"),
	})
}

func (a *app) handleInvitations(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("state")
	state, ok := domain.ParseInvitationState(slug)
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	res, err := a.inviteSvc.List(r.Context(), state, a.pageRequest(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if slug == "" {
		slug = "all"
	}
	filters := []string{"all"}
	for _, st := range domain.InvitationStates() {
		filters = append(filters, st.Slug())
	}
	a.render(w, r, http.StatusOK, "invitations", viewData{
		Title:  "Invitations",
		Notice: notice(r),
		Filter: slug,
		Data:   newListView(res, filters...),
	})
}

func (a *app) handleInvitationApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	if _, err := a.inviteSvc.Approve(r.Context(), currentUser(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/invitations/approved?notice=approved", http.StatusFound)
}

func (a *app) handleInvitationDeny(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	if _, err := a.inviteSvc.Deny(r.Context(), currentUser(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/invitations/denied?notice=denied", http.StatusFound)
}

func (a *app) handleLogins(w http.ResponseWriter, r *http.Request) {
	filter, ok := domain.ParseLoginFilter(r.PathValue("filter"))
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	res, err := a.authSvc.LoginLogs(r.Context(), filter, nil, a.pageRequest(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.markChecked(r, currentUser(r), domain.CheckLogins)
	a.render(w, r, http.StatusOK, "logins", viewData{
		Title:  "Logins",
		Filter: string(filter),
		Data:   newListView(res, "all", "unique", "failed"),
	})
}

func (a *app) handleEvents(w http.ResponseWriter, r *http.Request) {
	res, err := a.eventSvc.List(r.Context(), a.pageRequest(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.markChecked(r, currentUser(r), domain.CheckEvents)
	a.render(w, r, http.StatusOK, "events", viewData{Title: "Events", Data: newListView(res)})
}

type messageForm struct {
	Subject  string
	Text     string
	ViaEmail bool
}

func (a *app) handleMessageGet(w http.ResponseWriter, r *http.Request) {
	v := viewData{Title: "Message all users", Data: messageForm{}}
	if n := r.URL.Query().Get("sent"); n != "" {
		if count, err := strconv.Atoi(n); err == nil {
			v.Notice = fmt.Sprintf("The message was sent to %d users.", count)
		}
	}
	a.render(w, r, http.StatusOK, "message", v)
}

func (a *app) handleMessagePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, domain.FieldError("form", "Invalid form."))
		return
	}
	form := messageForm{
		Subject:  r.FormValue("subject"),
		Text:     r.FormValue("text"),
		ViaEmail: r.FormValue("via_email") != "",
	}
	n, err := a.messageSvc.MessageAll(r.Context(), currentUser(r), form.Subject, form.Text, form.ViaEmail)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			a.render(w, r, http.StatusBadRequest, "message", viewData{
				Title:  "Message all users",
				Error:  "Please correct the errors below.",
				Fields: ve.Fields,
				Data:   form,
			})
			return
		}
		a.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/message?sent="+strconv.Itoa(n), http.StatusFound)
}

func (a *app) markChecked(r *http.Request, u domain.User, section domain.CheckSection) {
	if a.usersSvc == nil {
		return
	}
	if err := a.usersSvc.MarkChecked(r.Context(), u, section); err != nil {
		a.logger.Warn("adminui: mark checked failed", "user_id", u.ID, "section", section, "err", err)
	}
}

func (a *app) pageRequest(r *http.Request) domain.PageRequest {
	n, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return domain.NewPageRequest(n, a.perPage)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

var notices = map[string]string{
	"approved": "The invitation has been approved and mailed.",
	"denied":   "The invitation has been denied.",
}

func notice(r *http.Request) string {
	return notices[strings.TrimSpace(r.URL.Query().Get("notice"))]
}

func (a *app) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.renderError(w, r, http.StatusNotFound, "Not found", "The page you are looking for does not exist.")
	case errors.Is(err, domain.ErrForbidden):
		a.renderError(w, r, http.StatusForbidden, "Forbidden", "You are not allowed to do this.")
	case errors.Is(err, domain.ErrInvalidState):
		a.renderError(w, r, http.StatusConflict, "Conflict", "The invitation cannot change to that state.")
	case errors.Is(err, domain.ErrValidation):
		a.renderError(w, r, http.StatusBadRequest, "Invalid request", err.Error())
	default:
		a.logger.Error("adminui: request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		a.renderError(w, r, http.StatusInternalServerError, "Error", "Something went wrong. Please try again later.")
	}
}
