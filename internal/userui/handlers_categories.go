package userui

import (
	"fmt"
	"net/http"

	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/service"
)

func (a *app) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := a.categorySvc.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "categories", viewData{Title: "Categories", Data: cats})
}

type categoryView struct {
	Category  domain.Category
	Photos    []domain.Upload
	Files     []domain.Upload
	Locations []domain.Location
	Total     int
	Page      domain.Pagination
	CanEdit   bool
}

func (a *app) handleCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	c, err := a.categorySvc.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	photos, files, err := a.categorySvc.Files(r.Context(), c)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	u := currentUser(r)
	res, err := a.locationSvc.InCategory(r.Context(), u, c.ID, pageRequest(r, a.locationsPerPage))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.render(w, r, http.StatusOK, "category", viewData{Title: c.Name, Data: categoryView{
		Category:  c,
		Photos:    photos,
		Files:     files,
		Locations: res.Items,
		Total:     res.Total,
		Page:      res.Pagination(),
		CanEdit:   u.CanModify(c.OwnerID),
	}})
}

type categoryForm struct {
	Action string
	Input  service.CategoryInput
	Edit   bool
}

func readCategoryInput(r *http.Request) service.CategoryInput {
	return service.CategoryInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		About:       r.FormValue("about"),
	}
}

func (a *app) handleCategoryAddGet(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "category_form", viewData{Title: "New category", Data: categoryForm{Action: r.URL.Path}})
}

func (a *app) handleCategoryAddPost(w http.ResponseWriter, r *http.Request) {
	if err := a.parseForm(w, r); err != nil {
		a.fail(w, r, domain.FieldError("photo", "The upload is too large."))
		return
	}
	photo, done, err := formFile(r, "photo")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer done()

	in := readCategoryInput(r)
	c, err := a.categorySvc.Create(r.Context(), currentUser(r), in, photo)
	if err != nil {
		a.formError(w, r, err, "category_form", viewData{Title: "New category", Data: categoryForm{Action: r.URL.Path, Input: in}})
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/category/%d", c.ID), "saved")
}

func (a *app) handleCategoryEditGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	c, err := a.categorySvc.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !currentUser(r).CanModify(c.OwnerID) {
		a.fail(w, r, domain.ErrForbidden)
		return
	}
	in := service.CategoryInput{Name: c.Name, Description: c.Description, About: c.About}
	a.render(w, r, http.StatusOK, "category_form", viewData{Title: "Edit " + c.Name, Data: categoryForm{Action: r.URL.Path, Input: in, Edit: true}})
}

func (a *app) handleCategoryEditPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	if err := a.parseForm(w, r); err != nil {
		a.fail(w, r, domain.FieldError("photo", "The upload is too large."))
		return
	}
	photo, done, err := formFile(r, "photo")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer done()

	in := readCategoryInput(r)
	if _, err := a.categorySvc.Edit(r.Context(), currentUser(r), id, in, photo); err != nil {
		a.formError(w, r, err, "category_form", viewData{Title: "Edit category", Data: categoryForm{Action: r.URL.Path, Input: in, Edit: true}})
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/category/%d", id), "saved")
}

func (a *app) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	if _, err := a.categorySvc.Delete(r.Context(), currentUser(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	redirectNotice(w, r, "/category/", "deleted")
}
