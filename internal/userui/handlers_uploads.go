package userui

import (
	"errors"
	"io/fs"
	"net/http"
	"path"

	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/service"
	"hiddenplaces/internal/storage"
)

func (a *app) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	if a.files == nil {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	rel := r.PathValue("path")
	f, err := a.files.Open(rel)
	if err != nil {
		if errors.Is(err, storage.ErrBadPath) || errors.Is(err, fs.ErrNotExist) {
			a.fail(w, r, domain.ErrNotFound)
			return
		}
		a.fail(w, r, err)
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil || st.IsDir() {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeContent(w, r, path.Base(rel), st.ModTime(), f)
}

type uploadForm struct {
	Action string
	Photo  bool
	Edit   bool
	Upload domain.Upload
	Meta   service.UploadMeta
	Types  []domain.Option
	Next   string
}

// TypeValue is the selected type as rendered in the form.
func (f uploadForm) TypeValue() int { return int(f.Meta.Type) }

func typeOptions(photo bool) []domain.Option {
	if photo {
		return domain.PhotoTypeOptions()
	}
	return domain.DocumentTypeOptions()
}

func uploadTitle(photo, edit bool) string {
	switch {
	case photo && edit:
		return "Edit photo"
	case photo:
		return "Add photo"
	case edit:
		return "Edit document"
	}
	return "Add document"
}

func (a *app) uploadOwner(w http.ResponseWriter, r *http.Request) (domain.UploadOwner, bool) {
	kind, ok := domain.ParseOwnerKind(r.PathValue("kind"))
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return domain.UploadOwner{}, false
	}
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return domain.UploadOwner{}, false
	}
	owner, err := a.uploadSvc.Owner(r.Context(), currentUser(r), kind, id)
	if err != nil {
		a.fail(w, r, err)
		return domain.UploadOwner{}, false
	}
	return owner, true
}

func (a *app) handleUploadAddGet(photo bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := a.uploadOwner(w, r); !ok {
			return
		}
		meta := service.UploadMeta{Type: domain.UploadDocument}
		if photo {
			meta.Type = domain.UploadPhoto
		}
		a.render(w, r, http.StatusOK, "upload_form", viewData{Title: uploadTitle(photo, false), Data: uploadForm{
			Action: r.URL.Path,
			Photo:  photo,
			Meta:   meta,
			Types:  typeOptions(photo),
		}})
	}
}

func (a *app) handleUploadAddPost(photo bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := a.uploadOwner(w, r)
		if !ok {
			return
		}
		form := uploadForm{Action: r.URL.Path, Photo: photo, Types: typeOptions(photo)}
		v := viewData{Title: uploadTitle(photo, false)}
		if err := a.parseForm(w, r); err != nil {
			v.Error = "The upload is too large."
			v.Data = form
			a.render(w, r, http.StatusBadRequest, "upload_form", v)
			return
		}
		form.Meta = service.UploadMeta{
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
			Type:        domain.UploadType(formInt(r, "type")),
		}
		v.Data = form
		if photo && !form.Meta.Type.IsPhoto() {
			a.render(w, r, http.StatusBadRequest, "upload_form", withFields(v, "type", "Choose a valid type."))
			return
		}
		if !photo && form.Meta.Type.IsPhoto() {
			a.render(w, r, http.StatusBadRequest, "upload_form", withFields(v, "type", "Choose a valid type."))
			return
		}

		file, done, err := formFile(r, "file")
		if err != nil {
			a.fail(w, r, err)
			return
		}
		defer done()
		if file == nil {
			a.render(w, r, http.StatusBadRequest, "upload_form", withFields(v, "file", "Choose a file to upload."))
			return
		}

		if _, err := a.uploadSvc.Create(r.Context(), currentUser(r), owner, *file, form.Meta); err != nil {
			a.formError(w, r, err, "upload_form", v)
			return
		}
		redirectNotice(w, r, owner.ReturnURL(), "saved")
	}
}

func withFields(v viewData, field, msg string) viewData {
	v.Fields = map[string]string{field: msg}
	v.Error = "Please correct the errors below."
	return v
}

// ownUpload loads an upload of the requested kind that the user may edit.
func (a *app) ownUpload(w http.ResponseWriter, r *http.Request, photo bool) (domain.Upload, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return domain.Upload{}, false
	}
	up, err := a.uploadSvc.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return domain.Upload{}, false
	}
	if up.Type.IsPhoto() != photo {
		a.fail(w, r, domain.ErrNotFound)
		return domain.Upload{}, false
	}
	if !currentUser(r).CanModify(up.CreatedByID) {
		a.fail(w, r, domain.ErrForbidden)
		return domain.Upload{}, false
	}
	return up, true
}

func (a *app) handleUploadEditGet(photo bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, ok := a.ownUpload(w, r, photo)
		if !ok {
			return
		}
		a.render(w, r, http.StatusOK, "upload_form", viewData{Title: uploadTitle(photo, true), Data: uploadForm{
			Action: r.URL.Path,
			Photo:  photo,
			Edit:   true,
			Upload: up,
			Meta:   service.UploadMeta{Name: up.Name, Description: up.Description, Type: up.Type},
			Types:  typeOptions(photo),
			Next:   service.SafeRedirect(r.Referer(), r.Host, ""),
		}})
	}
}

func (a *app) handleUploadEditPost(photo bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, ok := a.ownUpload(w, r, photo)
		if !ok {
			return
		}
		form := uploadForm{Action: r.URL.Path, Photo: photo, Edit: true, Upload: up, Types: typeOptions(photo)}
		v := viewData{Title: uploadTitle(photo, true), Data: form}
		if err := a.parseForm(w, r); err != nil {
			v.Error = "The upload is too large."
			a.render(w, r, http.StatusBadRequest, "upload_form", v)
			return
		}
		form.Next = r.FormValue("next")
		form.Meta = service.UploadMeta{
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
			Type:        domain.UploadType(formInt(r, "type")),
		}
		v.Data = form

		file, done, err := formFile(r, "file")
		if err != nil {
			a.fail(w, r, err)
			return
		}
		defer done()

		u := currentUser(r)
		if _, err := a.uploadSvc.Update(r.Context(), u, up.ID, form.Meta); err != nil {
			a.formError(w, r, err, "upload_form", v)
			return
		}
		if file != nil {
			if _, err := a.uploadSvc.Replace(r.Context(), u, up.ID, *file); err != nil {
				a.formError(w, r, err, "upload_form", v)
				return
			}
		}
		redirectNotice(w, r, nextURL(r, "/"), "saved")
	}
}

func (a *app) handleUploadRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, domain.FieldError("form", "Invalid form."))
		return
	}
	if _, err := a.uploadSvc.Delete(r.Context(), currentUser(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	redirectNotice(w, r, nextURL(r, "/"), "deleted")
}

type libraryView struct {
	Books []domain.Upload
	Total int
	Page  domain.Pagination
}

func (a *app) handleLibrary(w http.ResponseWriter, r *http.Request) {
	res, err := a.uploadSvc.Library(r.Context(), pageRequest(r, a.itemsPerPage))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "library", viewData{Title: "Library", Data: libraryView{
		Books: res.Items,
		Total: res.Total,
		Page:  res.Pagination(),
	}})
}
