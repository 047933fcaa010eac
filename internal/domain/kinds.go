package domain

// LocationKind is the subtype payload of a location. Exactly one kind is
// attached to every location; the set of implementations is closed.
type LocationKind interface {
	LocationType() LocationType
	TypeLabel() string
	StateLabel() string
	AccessibilityLabel() string
	isLocationKind()
}

const MaxToolsLen = 32

type UndergroundType int

const (
	UndergroundOther UndergroundType = iota
	UndergroundMine
	UndergroundShaft
	UndergroundAdit
	UndergroundPinge
	UndergroundQuarry
	UndergroundShelter
	UndergroundMilitary
	UndergroundUrban
	UndergroundMillRace
	UndergroundDrainage
	UndergroundTunnel
)

var undergroundTypeLabels = []string{
	"Other", "Mine", "Shaft", "Adit", "Pinge", "Quarry", "Shelter",
	"Military underground", "Urban underground", "Mill race", "Drainage", "Railway tunnel",
}

func (t UndergroundType) String() string { return label(undergroundTypeLabels, int(t)) }
func (t UndergroundType) Valid() bool    { return inRange(undergroundTypeLabels, int(t)) }
func UndergroundTypeOptions() []Option   { return options(undergroundTypeLabels) }

type UndergroundState int

const (
	UndergroundStateUnknown UndergroundState = iota
	UndergroundStateWorking
	UndergroundStateMuseum
	UndergroundStatePreserved
	UndergroundStateNotBad
	UndergroundStateBad
	UndergroundStateDemolished
)

var undergroundStateLabels = []string{"Unknown", "Working", "Museum", "Preserved", "Not bad", "Bad", "Demolished"}

func (s UndergroundState) String() string { return label(undergroundStateLabels, int(s)) }
func (s UndergroundState) Valid() bool    { return inRange(undergroundStateLabels, int(s)) }
func UndergroundStateOptions() []Option   { return options(undergroundStateLabels) }

type UndergroundAccessibility int

const (
	UndergroundInaccessible UndergroundAccessibility = iota
	UndergroundAccessWorking
	UndergroundGuidedTours
	UndergroundGuarded
	UndergroundLocked
	UndergroundFreelyAccessible
	UndergroundDiggingRequired
)

var undergroundAccessibilityLabels = []string{
	"Inaccessible", "Working", "Guided tours", "Guarded", "Locked", "Freely accessible", "Digging required",
}

func (a UndergroundAccessibility) String() string {
	return label(undergroundAccessibilityLabels, int(a))
}
func (a UndergroundAccessibility) Valid() bool {
	return inRange(undergroundAccessibilityLabels, int(a))
}
func UndergroundAccessibilityOptions() []Option { return options(undergroundAccessibilityLabels) }

type Material int

const (
	MaterialOther Material = iota
	MaterialCoal
	MaterialLignite
	MaterialUranium
	MaterialFireClay
	MaterialKaolinite
	MaterialSand
	MaterialGraphite
	MaterialIron
	MaterialGold
	MaterialCopper
	MaterialSilver
	MaterialTin
	MaterialSlate
	MaterialBaryte
	MaterialFluorite
	MaterialFeldspar
)

var materialLabels = []string{
	"Other", "Coal", "Lignite", "Uranium", "Fire clay", "Kaolinite", "Sand", "Graphite", "Iron",
	"Gold", "Copper", "Silver", "Tin", "Slate", "Baryte", "Fluorite", "Feldspar",
}

func (m Material) String() string { return label(materialLabels, int(m)) }
func (m Material) Valid() bool    { return inRange(materialLabels, int(m)) }
func MaterialOptions() []Option   { return options(materialLabels) }

type Underground struct {
	ID            int64
	Type          UndergroundType
	State         UndergroundState
	Accessibility UndergroundAccessibility
	Tools         string
	Length        *int
	GeofondID     *int
	AbandonedYear *int
	Materials     []Material
}

func (*Underground) isLocationKind()              {}
func (u *Underground) LocationType() LocationType { return LocationUnderground }
func (u *Underground) TypeLabel() string          { return u.Type.String() }
func (u *Underground) StateLabel() string         { return u.State.String() }
func (u *Underground) AccessibilityLabel() string { return u.Accessibility.String() }

type UrbexType int

const (
	UrbexOther UrbexType = iota
	UrbexHouse
	UrbexMansion
	UrbexRecreation
	UrbexArmy
	UrbexFactory
	UrbexTechnology
)

var urbexTypeLabels = []string{"Other", "House", "Mansion", "Recreation center", "Army object", "Factory", "Technology"}

func (t UrbexType) String() string { return label(urbexTypeLabels, int(t)) }
func (t UrbexType) Valid() bool    { return inRange(urbexTypeLabels, int(t)) }
func UrbexTypeOptions() []Option   { return options(urbexTypeLabels) }

type UrbexState int

const (
	UrbexStateUnknown UrbexState = iota
	UrbexStateLikeUsed
	UrbexStateFurnished
	UrbexStateCleanedOut
	UrbexStateFallingApart
	UrbexStateDemolished
	UrbexStateUnderRestore
	UrbexStateRestored
	UrbexStateMuseum
)

var urbexStateLabels = []string{
	"Unknown", "Like being used", "Furnished", "Cleaned out", "Falling apart",
	"Demolished", "Under restoration", "Restored", "Museum",
}

func (s UrbexState) String() string { return label(urbexStateLabels, int(s)) }
func (s UrbexState) Valid() bool    { return inRange(urbexStateLabels, int(s)) }
func UrbexStateOptions() []Option   { return options(urbexStateLabels) }

type UrbexAccessibility int

const (
	UrbexInaccessible UrbexAccessibility = iota
	UrbexGuidedTours
	UrbexGuarded
	UrbexMonitored
	UrbexFreelyAccessible
)

var urbexAccessibilityLabels = []string{"Inaccessible", "Guided tours", "Guarded", "Monitored", "Freely accessible"}

func (a UrbexAccessibility) String() string { return label(urbexAccessibilityLabels, int(a)) }
func (a UrbexAccessibility) Valid() bool    { return inRange(urbexAccessibilityLabels, int(a)) }
func UrbexAccessibilityOptions() []Option   { return options(urbexAccessibilityLabels) }

type Urbex struct {
	ID            int64
	Type          UrbexType
	State         UrbexState
	Accessibility UrbexAccessibility
	AbandonedYear *int
}

func (*Urbex) isLocationKind()              {}
func (u *Urbex) LocationType() LocationType { return LocationUrbex }
func (u *Urbex) TypeLabel() string          { return u.Type.String() }
func (u *Urbex) StateLabel() string         { return u.State.String() }
func (u *Urbex) AccessibilityLabel() string { return u.Accessibility.String() }

type HikingType int

const (
	HikingOther HikingType = iota
	HikingNaturalSwimming
	HikingSleepingPlace
	HikingCamp
	HikingShed
)

var hikingTypeLabels = []string{"Other", "Natural swimming", "Sleeping place", "Camp", "Shed"}

func (t HikingType) String() string { return label(hikingTypeLabels, int(t)) }
func (t HikingType) Valid() bool    { return inRange(hikingTypeLabels, int(t)) }
func HikingTypeOptions() []Option   { return options(hikingTypeLabels) }

type HikingFeature int

const (
	HikingWater HikingFeature = iota
	HikingPotableWater
	HikingFireplace
	HikingFurnace
	HikingSeats
	HikingWeatherShelter
)

var hikingFeatureLabels = []string{"Water", "Potable water", "Fireplace", "Furnace", "Seats", "Weather shelter"}

func (f HikingFeature) String() string { return label(hikingFeatureLabels, int(f)) }
func (f HikingFeature) Valid() bool    { return inRange(hikingFeatureLabels, int(f)) }
func HikingFeatureOptions() []Option   { return options(hikingFeatureLabels) }

// UndefinedLabel is reported for attributes a kind does not have.
const UndefinedLabel = "Undefined"

type Hiking struct {
	ID       int64
	Type     HikingType
	Features []HikingFeature
}

func (*Hiking) isLocationKind()              {}
func (h *Hiking) LocationType() LocationType { return LocationHiking }
func (h *Hiking) TypeLabel() string          { return h.Type.String() }
func (h *Hiking) StateLabel() string         { return UndefinedLabel }
func (h *Hiking) AccessibilityLabel() string { return UndefinedLabel }

func (h *Hiking) HasFeature(f HikingFeature) bool {
	for _, x := range h.Features {
		if x == f {
			return true
		}
	}
	return false
}
