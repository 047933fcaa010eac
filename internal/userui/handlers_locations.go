package userui

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/service"
)

type kindOptions struct {
	Countries     []domain.Option
	Types         []domain.Option
	States        []domain.Option
	Accessibility []domain.Option
	Materials     []domain.Option
	Features      []domain.Option
}

func optionsFor(t domain.LocationType) kindOptions {
	o := kindOptions{Countries: domain.CountryOptions()}
	switch t {
	case domain.LocationUnderground:
		o.Types = domain.UndergroundTypeOptions()
		o.States = domain.UndergroundStateOptions()
		o.Accessibility = domain.UndergroundAccessibilityOptions()
		o.Materials = domain.MaterialOptions()
	case domain.LocationUrbex:
		o.Types = domain.UrbexTypeOptions()
		o.States = domain.UrbexStateOptions()
		o.Accessibility = domain.UrbexAccessibilityOptions()
	case domain.LocationHiking:
		o.Types = domain.HikingTypeOptions()
		o.Features = domain.HikingFeatureOptions()
	}
	return o
}

type locationForm struct {
	Action     string
	Kind       domain.LocationType
	Input      service.LocationInput
	Options    kindOptions
	Categories []domain.Category
	Edit       bool
}

func readLocationInput(r *http.Request) service.LocationInput {
	return service.LocationInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		About:       r.FormValue("about"),
		Latitude:    r.FormValue("latitude"),
		Longitude:   r.FormValue("longitude"),
		Published:   formBool(r, "published"),
		Country:     formInt(r, "country"),
		CategoryIDs: formIDs(r, "categories"),
		Kind: service.KindForm{
			Type:          formInt(r, "type"),
			State:         formInt(r, "state"),
			Accessibility: formInt(r, "accessibility"),
			Tools:         r.FormValue("tools"),
			Length:        strings.TrimSpace(r.FormValue("length")),
			GeofondID:     strings.TrimSpace(r.FormValue("geofond_id")),
			AbandonedYear: strings.TrimSpace(r.FormValue("abandoned_year")),
			Materials:     formInts(r, "materials"),
			Features:      formInts(r, "features"),
		},
	}
}

func (a *app) newLocationForm(r *http.Request, action string, t domain.LocationType, in service.LocationInput, edit bool) locationForm {
	cats, err := a.categorySvc.List(r.Context())
	if err != nil {
		a.logger.Warn("userui: load categories failed", "err", err)
	}
	return locationForm{Action: action, Kind: t, Input: in, Options: optionsFor(t), Categories: cats, Edit: edit}
}

type locationView struct {
	Detail      domain.LocationDetail
	CanEdit     bool
	Underground *domain.Underground
	Urbex       *domain.Urbex
	Hiking      *domain.Hiking
	Visit       service.VisitInput
}

func (a *app) showLocation(w http.ResponseWriter, r *http.Request, id int64, status int, visit service.VisitInput, fields map[string]string) {
	u := currentUser(r)
	d, err := a.locationSvc.Get(r.Context(), u, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	v := locationView{Detail: d, CanEdit: u.CanModify(d.OwnerID), Visit: visit}
	switch k := d.Kind.(type) {
	case *domain.Underground:
		v.Underground = k
	case *domain.Urbex:
		v.Urbex = k
	case *domain.Hiking:
		v.Hiking = k
	}
	a.render(w, r, status, "location", viewData{Title: d.Name, Data: v, Fields: fields})
}

func (a *app) handleLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	today := time.Now().Format("2006-01-02")
	a.showLocation(w, r, id, http.StatusOK, service.VisitInput{VisitedOn: today}, nil)
}

func (a *app) handleVisitAdd(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, domain.FieldError("form", "Invalid form."))
		return
	}
	in := service.VisitInput{VisitedOn: r.FormValue("visited_on"), Comment: r.FormValue("comment")}
	if _, err := a.visitSvc.Add(r.Context(), currentUser(r), id, in); err != nil {
		fields, ok := fieldErrors(err)
		if !ok {
			a.fail(w, r, err)
			return
		}
		a.showLocation(w, r, id, http.StatusBadRequest, in, fields)
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/location/%d", id), "visit_added")
}

// addParams resolves the kind and the optional parent of /location/add.
func addParams(r *http.Request) (service.KindStrategy, *int64, error) {
	st, err := service.StrategyFor(r.PathValue("type"))
	if err != nil {
		return nil, nil, err
	}
	if r.PathValue("parent") == "" {
		return st, nil, nil
	}
	pid, ok := pathID(r, "parent")
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	return st, &pid, nil
}

func (a *app) handleLocationAddGet(w http.ResponseWriter, r *http.Request) {
	st, _, err := addParams(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	in := service.LocationInput{Country: int(domain.CountryCzechia)}
	a.render(w, r, http.StatusOK, "location_form", viewData{
		Title: "New " + st.Type().String() + " location",
		Data:  a.newLocationForm(r, r.URL.Path, st.Type(), in, false),
	})
}

func (a *app) handleLocationAddPost(w http.ResponseWriter, r *http.Request) {
	st, parent, err := addParams(r)
	if err != nil {
		a.fail(w, r, err)
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

	in := readLocationInput(r)
	l, err := a.locationSvc.Create(r.Context(), currentUser(r), st.Name(), in, parent, photo)
	if err != nil {
		a.formError(w, r, err, "location_form", viewData{
			Title: "New " + st.Type().String() + " location",
			Data:  a.newLocationForm(r, r.URL.Path, st.Type(), in, false),
		})
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/location/%d", l.ID), "saved")
}

func (a *app) handleLocationEditGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	u := currentUser(r)
	l, err := a.locationSvc.Location(r.Context(), u, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !u.CanModify(l.OwnerID) {
		a.fail(w, r, domain.ErrForbidden)
		return
	}
	a.render(w, r, http.StatusOK, "location_form", viewData{
		Title: "Edit " + l.Name,
		Data:  a.newLocationForm(r, r.URL.Path, l.Type(), service.InputFor(l), true),
	})
}

func (a *app) handleLocationEditPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	u := currentUser(r)
	cur, err := a.locationSvc.Location(r.Context(), u, id)
	if err != nil {
		a.fail(w, r, err)
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

	in := readLocationInput(r)
	if _, err := a.locationSvc.Edit(r.Context(), u, id, in, photo); err != nil {
		a.formError(w, r, err, "location_form", viewData{
			Title: "Edit " + cur.Name,
			Data:  a.newLocationForm(r, r.URL.Path, cur.Type(), in, true),
		})
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/location/%d", id), "saved")
}

func (a *app) handleLocationDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	if _, err := a.locationSvc.Delete(r.Context(), currentUser(r), id); err != nil {
		a.fail(w, r, err)
		return
	}
	redirectNotice(w, r, "/location/browse", "deleted")
}

type listView struct {
	Heading   string
	Base      string
	Current   domain.LocationType
	Types     []domain.LocationType
	Locations []domain.Location
	Visits    []domain.LocationVisit
	Total     int
	Page      domain.Pagination
}

func (a *app) renderList(w http.ResponseWriter, r *http.Request, title string, v listView, res domain.PageResult[domain.Location]) {
	v.Heading = title
	v.Locations = res.Items
	v.Total = res.Total
	v.Page = res.Pagination()
	a.render(w, r, http.StatusOK, "locations", viewData{Title: title, Data: v})
}

func typeParam(r *http.Request) (domain.LocationType, error) {
	return domain.ParseLocationType(r.PathValue("type"))
}

func (a *app) handleBrowse(w http.ResponseWriter, r *http.Request) {
	t, err := typeParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.locationSvc.Browse(r.Context(), currentUser(r), t, pageRequest(r, a.locationsPerPage))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.renderList(w, r, "Locations", listView{Base: "/location/browse/", Current: t, Types: allTypes()}, res)
}

func allTypes() []domain.LocationType {
	return append([]domain.LocationType{domain.LocationAll}, domain.LocationKinds()...)
}

func (a *app) handleSearchPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, domain.FieldError("q", "Invalid form."))
		return
	}
	q := strings.TrimSpace(r.FormValue("q"))
	if q == "" {
		http.Redirect(w, r, "/location/browse", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/location/search/"+url.PathEscape(q), http.StatusFound)
}

func (a *app) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.PathValue("q")
	res, err := a.locationSvc.Search(r.Context(), currentUser(r), q, pageRequest(r, a.locationsPerPage))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.renderList(w, r, fmt.Sprintf("Search: %s", q), listView{}, res)
}

func (a *app) handleMine(w http.ResponseWriter, r *http.Request) {
	t, err := typeParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.locationSvc.Owned(r.Context(), currentUser(r), t, pageRequest(r, a.locationsPerPage))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.renderList(w, r, "My locations", listView{Base: "/location/mine/", Current: t, Types: allTypes()}, res)
}

func (a *app) handleByUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	owner, err := a.usersSvc.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.locationSvc.ByUser(r.Context(), currentUser(r), id, pageRequest(r, a.locationsPerPage))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.renderList(w, r, "Locations of "+owner.FullName(), listView{}, res)
}

func (a *app) renderVisited(w http.ResponseWriter, r *http.Request, title string, v listView, res domain.PageResult[domain.LocationVisit]) {
	v.Heading = title
	v.Visits = res.Items
	v.Total = res.Total
	v.Page = res.Pagination()
	a.render(w, r, http.StatusOK, "visited", viewData{Title: title, Data: v})
}

func (a *app) handleVisited(w http.ResponseWriter, r *http.Request) {
	t, err := typeParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	u := currentUser(r)
	res, err := a.locationSvc.Visited(r.Context(), u, u.ID, t, pageRequest(r, a.locationsPerPage))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.renderVisited(w, r, "Visited locations", listView{Base: "/location/visited/", Current: t, Types: allTypes()}, res)
}

func (a *app) handleUserVisited(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	visitor, err := a.usersSvc.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.locationSvc.Visited(r.Context(), currentUser(r), id, domain.LocationAll, pageRequest(r, a.locationsPerPage))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.renderVisited(w, r, "Visited by "+visitor.FullName(), listView{}, res)
}

func (a *app) handleBookmarkList(w http.ResponseWriter, r *http.Request) {
	list, res, err := a.bookmarkSvc.ListLocations(r.Context(), currentUser(r), r.PathValue("name"), pageRequest(r, a.locationsPerPage))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.renderList(w, r, "Bookmarks: "+list.Name, listView{}, res)
}

type mapView struct {
	Current domain.LocationType
	Types   []domain.LocationType
	API     string
}

func (a *app) handleMap(w http.ResponseWriter, r *http.Request) {
	t, err := typeParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	api := "/location/api"
	if t != domain.LocationAll {
		api += "/" + t.Slug()
	}
	a.render(w, r, http.StatusOK, "map", viewData{Title: "Map", Data: mapView{Current: t, Types: allTypes(), API: api}})
}

type visitForm struct {
	Visit domain.Visit
	Input service.VisitInput
}

func (a *app) ownVisit(w http.ResponseWriter, r *http.Request) (domain.Visit, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return domain.Visit{}, false
	}
	v, err := a.visitSvc.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return domain.Visit{}, false
	}
	if !currentUser(r).CanModify(v.UserID) {
		a.fail(w, r, domain.ErrForbidden)
		return domain.Visit{}, false
	}
	return v, true
}

func (a *app) handleVisitEditGet(w http.ResponseWriter, r *http.Request) {
	v, ok := a.ownVisit(w, r)
	if !ok {
		return
	}
	in := service.VisitInput{VisitedOn: v.VisitedOn.Format("2006-01-02"), Comment: v.Comment}
	a.render(w, r, http.StatusOK, "visit_edit", viewData{Title: "Edit visit", Data: visitForm{Visit: v, Input: in}})
}

func (a *app) handleVisitEditPost(w http.ResponseWriter, r *http.Request) {
	v, ok := a.ownVisit(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, domain.FieldError("form", "Invalid form."))
		return
	}
	in := service.VisitInput{VisitedOn: r.FormValue("visited_on"), Comment: r.FormValue("comment")}
	if _, err := a.visitSvc.Edit(r.Context(), currentUser(r), v.ID, in); err != nil {
		a.formError(w, r, err, "visit_edit", viewData{Title: "Edit visit", Data: visitForm{Visit: v, Input: in}})
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/location/%d", v.LocationID), "saved")
}

func (a *app) handleVisitDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	v, err := a.visitSvc.Delete(r.Context(), currentUser(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/location/%d", v.LocationID), "deleted")
}

type linkForm struct {
	Location domain.Location
	Input    service.LinkInput
}

func (a *app) formLocation(w http.ResponseWriter, r *http.Request) (domain.Location, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return domain.Location{}, false
	}
	l, err := a.locationSvc.Location(r.Context(), currentUser(r), id)
	if err != nil {
		a.fail(w, r, err)
		return domain.Location{}, false
	}
	return l, true
}

func (a *app) handleLinkAddGet(w http.ResponseWriter, r *http.Request) {
	l, ok := a.formLocation(w, r)
	if !ok {
		return
	}
	a.render(w, r, http.StatusOK, "link_add", viewData{Title: "Add link", Data: linkForm{Location: l}})
}

func (a *app) handleLinkAddPost(w http.ResponseWriter, r *http.Request) {
	l, ok := a.formLocation(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, domain.FieldError("form", "Invalid form."))
		return
	}
	in := service.LinkInput{Name: r.FormValue("name"), URL: r.FormValue("url")}
	if _, err := a.linkSvc.AddLink(r.Context(), currentUser(r), l.ID, in); err != nil {
		a.formError(w, r, err, "link_add", viewData{Title: "Add link", Data: linkForm{Location: l, Input: in}})
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/location/%d", l.ID), "saved")
}

func (a *app) handleLinkRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	link, err := a.linkSvc.RemoveLink(r.Context(), currentUser(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/location/%d", link.LocationID), "deleted")
}

type poiForm struct {
	Location domain.Location
	Input    service.POIInput
	Types    []domain.Option
}

func (a *app) handlePOIAddGet(w http.ResponseWriter, r *http.Request) {
	l, ok := a.formLocation(w, r)
	if !ok {
		return
	}
	in := service.POIInput{Latitude: l.Latitude.DecimalString(), Longitude: l.Longitude.DecimalString()}
	a.render(w, r, http.StatusOK, "poi_add", viewData{
		Title: "Add point of interest",
		Data:  poiForm{Location: l, Input: in, Types: domain.POITypeOptions()},
	})
}

func (a *app) handlePOIAddPost(w http.ResponseWriter, r *http.Request) {
	l, ok := a.formLocation(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, domain.FieldError("form", "Invalid form."))
		return
	}
	in := service.POIInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Type:        formInt(r, "type"),
		Latitude:    r.FormValue("latitude"),
		Longitude:   r.FormValue("longitude"),
	}
	if _, err := a.linkSvc.AddPOI(r.Context(), currentUser(r), l.ID, in); err != nil {
		a.formError(w, r, err, "poi_add", viewData{
			Title: "Add point of interest",
			Data:  poiForm{Location: l, Input: in, Types: domain.POITypeOptions()},
		})
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/location/%d", l.ID), "saved")
}

func (a *app) handlePOIRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	p, err := a.linkSvc.RemovePOI(r.Context(), currentUser(r), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	redirectNotice(w, r, fmt.Sprintf("/location/%d", p.LocationID), "deleted")
}

// handleBookmarkCreate creates a list, optionally holding the location named
// in the path. Failures are reported on the page the form was posted from.
func (a *app) handleBookmarkCreate(w http.ResponseWriter, r *http.Request) {
	var locationID *int64
	fallback := "/location/browse"
	if r.PathValue("id") != "" {
		id, ok := pathID(r, "id")
		if !ok {
			a.fail(w, r, domain.ErrNotFound)
			return
		}
		locationID = &id
		fallback = fmt.Sprintf("/location/%d", id)
	}
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, domain.FieldError("form", "Invalid form."))
		return
	}
	back := nextURL(r, fallback)
	if _, err := a.bookmarkSvc.Create(r.Context(), currentUser(r), r.FormValue("name"), locationID); err != nil {
		if _, ok := fieldErrors(err); ok {
			redirectWith(w, r, back, "error", "bookmark_name")
			return
		}
		a.fail(w, r, err)
		return
	}
	redirectNotice(w, r, back, "bookmark_created")
}

func (a *app) bookmarkParams(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	listID, ok := pathID(r, "list")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return 0, 0, false
	}
	locationID, ok := pathID(r, "location")
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return 0, 0, false
	}
	return listID, locationID, true
}

func (a *app) handleBookmarkAdd(w http.ResponseWriter, r *http.Request) {
	listID, locationID, ok := a.bookmarkParams(w, r)
	if !ok {
		return
	}
	if _, err := a.bookmarkSvc.Add(r.Context(), currentUser(r), listID, locationID); err != nil {
		a.fail(w, r, err)
		return
	}
	redirectNotice(w, r, nextURL(r, fmt.Sprintf("/location/%d", locationID)), "bookmark_added")
}

func (a *app) handleBookmarkRemove(w http.ResponseWriter, r *http.Request) {
	listID, locationID, ok := a.bookmarkParams(w, r)
	if !ok {
		return
	}
	if _, err := a.bookmarkSvc.Remove(r.Context(), currentUser(r), listID, locationID); err != nil {
		a.fail(w, r, err)
		return
	}
	redirectNotice(w, r, nextURL(r, fmt.Sprintf("/location/%d", locationID)), "bookmark_removed")
}
