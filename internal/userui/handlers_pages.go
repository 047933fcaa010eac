package userui

import (
	"net/http"

	"hiddenplaces/internal/domain"
)

func pageParam(w http.ResponseWriter, r *http.Request, a *app) (domain.PageType, bool) {
	t, ok := domain.ParsePageType(r.PathValue("page"))
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
	}
	return t, ok
}

func (a *app) handlePage(w http.ResponseWriter, r *http.Request) {
	t, ok := pageParam(w, r, a)
	if !ok {
		return
	}
	p, err := a.pageSvc.Get(r.Context(), t)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "page", viewData{Title: t.String(), Data: p})
}

func (a *app) handlePageEditGet(w http.ResponseWriter, r *http.Request) {
	t, ok := pageParam(w, r, a)
	if !ok {
		return
	}
	p, err := a.pageSvc.Get(r.Context(), t)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "page_edit", viewData{Title: "Edit " + t.String(), Data: p})
}

func (a *app) handlePageEditPost(w http.ResponseWriter, r *http.Request) {
	t, ok := pageParam(w, r, a)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, domain.FieldError("form", "Invalid form."))
		return
	}
	text := r.FormValue("text")
	if err := a.pageSvc.Save(r.Context(), currentUser(r), t, text); err != nil {
		a.formError(w, r, err, "page_edit", viewData{Title: "Edit " + t.String(), Data: domain.Page{Type: t, Text: text}})
		return
	}
	redirectNotice(w, r, "/page/"+t.Slug(), "saved")
}

type contactForm struct {
	Subject string
	Text    string
}

func (a *app) handleContactGet(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "contact", viewData{Title: "Contact", Data: contactForm{}})
}

func (a *app) handleContactPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, domain.FieldError("form", "Invalid form."))
		return
	}
	form := contactForm{Subject: r.FormValue("subject"), Text: r.FormValue("text")}
	if err := a.pageSvc.Contact(r.Context(), currentUser(r), form.Subject, form.Text); err != nil {
		a.formError(w, r, err, "contact", viewData{Title: "Contact", Data: form})
		return
	}
	redirectNotice(w, r, "/page/contact", "contact_sent")
}
