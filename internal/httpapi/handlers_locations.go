package httpapi

import (
	"net/http"

	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/reqctx"
)

const placeholderImage = "/static/images/location_placeholder.png"

type mapLocation struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Image         string  `json:"image"`
	Description   string  `json:"description"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Type          string  `json:"type"`
	State         string  `json:"state"`
	Accessibility string  `json:"accessibility"`
}

type mapLocationsResponse struct {
	Locations []mapLocation `json:"locations"`
}

func toMapLocation(l domain.Location) mapLocation {
	out := mapLocation{
		ID:            l.ID,
		Name:          l.Name,
		Image:         placeholderImage,
		Description:   l.Description,
		Latitude:      l.Latitude.Value,
		Longitude:     l.Longitude.Value,
		Type:          domain.UndefinedLabel,
		State:         domain.UndefinedLabel,
		Accessibility: domain.UndefinedLabel,
	}
	if l.Photo != nil {
		out.Image = l.Photo.ThumbnailURL()
	}
	if l.Kind != nil {
		out.Type = l.Kind.TypeLabel()
		out.State = l.Kind.StateLabel()
		out.Accessibility = l.Kind.AccessibilityLabel()
	}
	return out
}

func (a *api) handleLocationsAPI(w http.ResponseWriter, r *http.Request) {
	t, err := domain.ParseLocationType(r.PathValue("type"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	viewer := reqctx.From(r.Context()).User
	locs, err := a.locationSvc.ForMap(r.Context(), viewer, t)
	if err != nil {
		a.logger.Error("location api failed", "type", t.Slug(), "user_id", viewer.ID, "err", err)
		WriteDomainError(w, err)
		return
	}

	resp := mapLocationsResponse{Locations: make([]mapLocation, 0, len(locs))}
	for _, l := range locs {
		resp.Locations = append(resp.Locations, toMapLocation(l))
	}
	WriteJSON(w, http.StatusOK, resp)
}
