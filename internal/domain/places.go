package domain

import "time"

type Category struct {
	ID          int64
	UUID        string
	Name        string
	Description string
	About       string
	OwnerID     int64
	PhotoID     *int64
	Photo       *Upload
}

type Visit struct {
	ID         int64
	UUID       string
	VisitedOn  time.Time
	Comment    string
	UserID     int64
	UserName   string
	LocationID int64
	Photos     []Upload
}

type Link struct {
	ID          int64
	Name        string
	URL         string
	CreatedByID int64
	LocationID  int64
}

type POIType int

const (
	POIOther POIType = iota
	POIShaft
	POIAdit
	POIEntrance
	POIParking
	POICamping
	POIBuilding
)

var poiTypeLabels = []string{"Other", "Shaft", "Adit", "Entrance", "Parking", "Camping", "Building"}

func (t POIType) String() string { return label(poiTypeLabels, int(t)) }
func (t POIType) Valid() bool    { return inRange(poiTypeLabels, int(t)) }
func POITypeOptions() []Option   { return options(poiTypeLabels) }

type POI struct {
	ID          int64
	Name        string
	Description string
	Type        POIType
	Latitude    LatLon
	Longitude   LatLon
	CreatedByID int64
	LocationID  int64
}

type BookmarkList struct {
	ID     int64
	Name   string
	UserID int64
	Count  int
	// Contains is set when the list is loaded relative to a location.
	Contains bool
}
