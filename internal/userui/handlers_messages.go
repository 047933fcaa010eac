package userui

import (
	"fmt"
	"net/http"

	"hiddenplaces/internal/domain"
)

type threadsView struct {
	Threads []domain.Thread
	Total   int
	Page    domain.Pagination
}

func (a *app) handleThreads(w http.ResponseWriter, r *http.Request) {
	res, err := a.messageSvc.List(r.Context(), currentUser(r), pageRequest(r, a.itemsPerPage))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "threads", viewData{Title: "Messages", Data: threadsView{
		Threads: res.Items,
		Total:   res.Total,
		Page:    res.Pagination(),
	}})
}

type writeForm struct {
	Recipient domain.User
	Subject   string
	Text      string
}

func (a *app) recipient(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	id, ok := pathID(r, "user")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return domain.User{}, false
	}
	u, err := a.usersSvc.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return domain.User{}, false
	}
	return u, true
}

func (a *app) handleWriteGet(w http.ResponseWriter, r *http.Request) {
	to, ok := a.recipient(w, r)
	if !ok {
		return
	}
	a.render(w, r, http.StatusOK, "write", viewData{Title: "New message", Data: writeForm{Recipient: to}})
}

func (a *app) handleWritePost(w http.ResponseWriter, r *http.Request) {
	to, ok := a.recipient(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, domain.FieldError("form", "Invalid form."))
		return
	}
	form := writeForm{Recipient: to, Subject: r.FormValue("subject"), Text: r.FormValue("text")}
	t, err := a.messageSvc.Write(r.Context(), currentUser(r), to.ID, form.Subject, form.Text)
	if err != nil {
		a.formError(w, r, err, "write", viewData{Title: "New message", Data: form})
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/message/show/%d", t.ID), "message_sent")
}

type threadView struct {
	Thread   domain.Thread
	Messages []domain.Message
	Reply    string
}

func (a *app) showThread(w http.ResponseWriter, r *http.Request, id int64, status int, reply string, fields map[string]string) {
	t, msgs, err := a.messageSvc.Show(r.Context(), currentUser(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.render(w, r, status, "thread", viewData{Title: t.Subject, Fields: fields, Data: threadView{
		Thread:   t,
		Messages: msgs,
		Reply:    reply,
	}})
}

func (a *app) handleThread(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "thread")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	a.showThread(w, r, id, http.StatusOK, "", nil)
}

func (a *app) handleReplyPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "thread")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, domain.FieldError("form", "Invalid form."))
		return
	}
	text := r.FormValue("text")
	if err := a.messageSvc.Reply(r.Context(), currentUser(r), id, text); err != nil {
		fields, ok := fieldErrors(err)
		if !ok {
			a.fail(w, r, err)
			return
		}
		a.showThread(w, r, id, http.StatusBadRequest, text, fields)
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/message/show/%d", id), "message_sent")
}
