package service

import (
	"strconv"
	"strings"

	"hiddenplaces/internal/domain"
)

// KindForm is the kind-specific part of the location form. Numeric text
// fields are kept as submitted so the form can be re-rendered unchanged.
type KindForm struct {
	Type          int
	State         int
	Accessibility int
	Tools         string
	Length        string
	GeofondID     string
	AbandonedYear string
	Materials     []int
	Features      []int
}

// KindStrategy creates, loads and edits one location kind.
type KindStrategy interface {
	Name() string
	Type() domain.LocationType
	New() domain.LocationKind
	Load(k domain.LocationKind) KindForm
	Apply(k domain.LocationKind, f KindForm) error
}

var strategies = map[domain.LocationType]KindStrategy{
	domain.LocationUnderground: undergroundStrategy{},
	domain.LocationUrbex:       urbexStrategy{},
	domain.LocationHiking:      hikingStrategy{},
}

// StrategyFor selects the strategy named by a URL type segment. Anything but
// underground, urbex or hiking is ErrNotFound.
func StrategyFor(typeStr string) (KindStrategy, error) {
	t, err := domain.ParseLocationType(typeStr)
	if err != nil || t == domain.LocationAll {
		return nil, domain.ErrNotFound
	}
	return strategies[t], nil
}

// StrategyOf selects the strategy of a loaded kind.
func StrategyOf(k domain.LocationKind) (KindStrategy, error) {
	switch k.(type) {
	case *domain.Underground:
		return strategies[domain.LocationUnderground], nil
	case *domain.Urbex:
		return strategies[domain.LocationUrbex], nil
	case *domain.Hiking:
		return strategies[domain.LocationHiking], nil
	}
	return nil, domain.ErrUnsupportedKind
}

type undergroundStrategy struct{}

func (undergroundStrategy) Name() string              { return "underground" }
func (undergroundStrategy) Type() domain.LocationType { return domain.LocationUnderground }
func (undergroundStrategy) New() domain.LocationKind  { return &domain.Underground{} }

func (undergroundStrategy) Load(k domain.LocationKind) KindForm {
	u, ok := k.(*domain.Underground)
	if !ok {
		return KindForm{}
	}
	f := KindForm{
		Type:          int(u.Type),
		State:         int(u.State),
		Accessibility: int(u.Accessibility),
		Tools:         u.Tools,
		Length:        optInt(u.Length),
		GeofondID:     optInt(u.GeofondID),
		AbandonedYear: optInt(u.AbandonedYear),
	}
	for _, m := range u.Materials {
		f.Materials = append(f.Materials, int(m))
	}
	return f
}

func (undergroundStrategy) Apply(k domain.LocationKind, f KindForm) error {
	u, ok := k.(*domain.Underground)
	if !ok {
		return domain.ErrUnsupportedKind
	}
	fe := fieldErrors{}
	if !domain.UndergroundType(f.Type).Valid() {
		fe.add("type", "Choose a valid type.")
	}
	if !domain.UndergroundState(f.State).Valid() {
		fe.add("state", "Choose a valid state.")
	}
	if !domain.UndergroundAccessibility(f.Accessibility).Valid() {
		fe.add("accessibility", "Choose a valid accessibility.")
	}
	tools := strings.TrimSpace(f.Tools)
	fe.maxLen("tools", tools, domain.MaxToolsLen)
	length := parseOptInt(fe, "length", f.Length, 0, 1_000_000)
	geofond := parseOptInt(fe, "geofond_id", f.GeofondID, 0, 1<<31-1)
	year := parseOptInt(fe, "abandoned_year", f.AbandonedYear, 0, 9999)
	materials := make([]domain.Material, 0, len(f.Materials))
	seen := map[int]bool{}
	for _, m := range f.Materials {
		if !domain.Material(m).Valid() {
			fe.add("materials", "Choose valid materials.")
			continue
		}
		if !seen[m] {
			seen[m] = true
			materials = append(materials, domain.Material(m))
		}
	}
	if err := fe.err(); err != nil {
		return err
	}

	u.Type = domain.UndergroundType(f.Type)
	u.State = domain.UndergroundState(f.State)
	u.Accessibility = domain.UndergroundAccessibility(f.Accessibility)
	u.Tools = tools
	u.Length = length
	u.GeofondID = geofond
	u.AbandonedYear = year
	u.Materials = materials
	return nil
}

type urbexStrategy struct{}

func (urbexStrategy) Name() string              { return "urbex" }
func (urbexStrategy) Type() domain.LocationType { return domain.LocationUrbex }
func (urbexStrategy) New() domain.LocationKind  { return &domain.Urbex{} }

func (urbexStrategy) Load(k domain.LocationKind) KindForm {
	u, ok := k.(*domain.Urbex)
	if !ok {
		return KindForm{}
	}
	return KindForm{
		Type:          int(u.Type),
		State:         int(u.State),
		Accessibility: int(u.Accessibility),
		AbandonedYear: optInt(u.AbandonedYear),
	}
}

func (urbexStrategy) Apply(k domain.LocationKind, f KindForm) error {
	u, ok := k.(*domain.Urbex)
	if !ok {
		return domain.ErrUnsupportedKind
	}
	fe := fieldErrors{}
	if !domain.UrbexType(f.Type).Valid() {
		fe.add("type", "Choose a valid type.")
	}
	if !domain.UrbexState(f.State).Valid() {
		fe.add("state", "Choose a valid state.")
	}
	if !domain.UrbexAccessibility(f.Accessibility).Valid() {
		fe.add("accessibility", "Choose a valid accessibility.")
	}
	year := parseOptInt(fe, "abandoned_year", f.AbandonedYear, 0, 9999)
	if err := fe.err(); err != nil {
		return err
	}

	u.Type = domain.UrbexType(f.Type)
	u.State = domain.UrbexState(f.State)
	u.Accessibility = domain.UrbexAccessibility(f.Accessibility)
	u.AbandonedYear = year
	return nil
}

type hikingStrategy struct{}

func (hikingStrategy) Name() string              { return "hiking" }
func (hikingStrategy) Type() domain.LocationType { return domain.LocationHiking }
func (hikingStrategy) New() domain.LocationKind  { return &domain.Hiking{} }

func (hikingStrategy) Load(k domain.LocationKind) KindForm {
	h, ok := k.(*domain.Hiking)
	if !ok {
		return KindForm{}
	}
	f := KindForm{Type: int(h.Type)}
	for _, x := range h.Features {
		f.Features = append(f.Features, int(x))
	}
	return f
}

func (hikingStrategy) Apply(k domain.LocationKind, f KindForm) error {
	h, ok := k.(*domain.Hiking)
	if !ok {
		return domain.ErrUnsupportedKind
	}
	fe := fieldErrors{}
	if !domain.HikingType(f.Type).Valid() {
		fe.add("type", "Choose a valid type.")
	}
	features := make([]domain.HikingFeature, 0, len(f.Features))
	seen := map[int]bool{}
	for _, x := range f.Features {
		if !domain.HikingFeature(x).Valid() {
			fe.add("features", "Choose valid features.")
			continue
		}
		if !seen[x] {
			seen[x] = true
			features = append(features, domain.HikingFeature(x))
		}
	}
	if err := fe.err(); err != nil {
		return err
	}

	h.Type = domain.HikingType(f.Type)
	h.Features = features
	return nil
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// parseOptInt parses an optional integer field in [min, max]. Problems are
// added to fe and yield nil.
func parseOptInt(fe fieldErrors, field, raw string, min, max int) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		fe.add(field, "Enter a whole number.")
		return nil
	}
	return &n
}
