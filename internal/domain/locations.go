package domain

import (
	"time"
)

const (
	MaxLocationNameLen  = 32
	MaxDescriptionLen   = 2048
	MaxShortDescLen     = 256
	MaxURLLen           = 256
	MaxCommentLen       = 2048
	MaxUploadDescLen    = 1024
	MaxCategoryNameLen  = 32
	MaxBookmarksNameLen = 32
	MaxSubjectLen       = 32
)

// LocationType selects one location kind or all of them.
type LocationType int

const (
	LocationAll LocationType = iota
	LocationUnderground
	LocationUrbex
	LocationHiking
)

var locationTypeSlugs = []string{"", "underground", "urbex", "hiking"}
var locationTypeLabels = []string{"All", "Underground", "Urbex", "Hiking"}

func (t LocationType) Slug() string   { return label(locationTypeSlugs, int(t)) }
func (t LocationType) String() string { return label(locationTypeLabels, int(t)) }

// ParseLocationType maps a URL segment to a type. The empty segment and "all"
// mean every kind; anything unknown is ErrNotFound.
func ParseLocationType(s string) (LocationType, error) {
	switch s {
	case "", "all":
		return LocationAll, nil
	case "underground":
		return LocationUnderground, nil
	case "urbex":
		return LocationUrbex, nil
	case "hiking":
		return LocationHiking, nil
	}
	return 0, ErrNotFound
}

func LocationKinds() []LocationType {
	return []LocationType{LocationUnderground, LocationUrbex, LocationHiking}
}

type Country int

const (
	CountryOther Country = iota
	CountryCzechia
	CountrySlovakia
	CountryPoland
	CountryGermany
	CountryAustria
)

var countryLabels = []string{"Other", "Czechia", "Slovakia", "Poland", "Germany", "Austria"}

func (c Country) String() string { return label(countryLabels, int(c)) }
func (c Country) Valid() bool    { return inRange(countryLabels, int(c)) }
func CountryOptions() []Option   { return options(countryLabels) }

type Location struct {
	ID          int64
	UUID        string
	Name        string
	Description string
	About       string
	Created     time.Time
	Modified    time.Time
	Latitude    LatLon
	Longitude   LatLon
	Published   bool
	Country     Country
	ParentID    *int64
	OwnerID     int64
	OwnerName   string
	PhotoID     *int64
	Photo       *Upload
	Kind        LocationKind
	Categories  []Category
}

// Type reports the kind of the location, LocationAll when no kind is attached.
func (l Location) Type() LocationType {
	if l.Kind == nil {
		return LocationAll
	}
	return l.Kind.LocationType()
}

// VisibleTo reports whether u may see the location in listings.
func (l Location) VisibleTo(u User) bool {
	return l.Published || l.OwnerID == u.ID
}

// LocationFilter narrows a location query.
type LocationFilter struct {
	Type LocationType
	// ViewerID applies the "published or owned by viewer" rule when set.
	ViewerID *int64
	OwnerID  *int64
	// OnlyUnpublished selects locations that are not published.
	OnlyUnpublished bool
	Search          string
	CategoryID      *int64
	BookmarkID      *int64
	Since           *time.Time
}

// LocationVisit is a location together with the visit that listed it.
type LocationVisit struct {
	Location
	VisitedOn time.Time
}

// LocationDetail is everything rendered on a location page.
type LocationDetail struct {
	Location
	Parent    *Location
	Children  []Location
	Links     []Link
	POIs      []POI
	Photos    []Upload
	Files     []Upload
	Visits    []Visit
	Bookmarks []BookmarkList
}
