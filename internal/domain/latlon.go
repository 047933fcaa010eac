package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var latLonRe = regexp.MustCompile(`^([0-9.]+)(?:°([0-9.]+)'(?:([0-9.]+)")?)?([NSEW])$`)

// LatLon is a latitude or longitude in signed decimal degrees.
type LatLon struct {
	Value      float64
	IsLatitude bool
}

func NewLatLon(value float64, isLatitude bool) (LatLon, error) {
	l := LatLon{Value: value, IsLatitude: isLatitude}
	if err := l.check(); err != nil {
		return LatLon{}, err
	}
	return l, nil
}

// ParseLatLon accepts decimal ("50.1234N"), degree-minute ("50°7.4'N") and
// degree-minute-second ("50°7'24.2\"N") forms. Spaces are ignored.
func ParseLatLon(s string) (LatLon, error) {
	s = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	m := latLonRe.FindStringSubmatch(s)
	if m == nil {
		return LatLon{}, fmt.Errorf("%w: invalid coordinate format %q", ErrValidation, s)
	}

	parts := [3]float64{}
	for i := 0; i < 3; i++ {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return LatLon{}, fmt.Errorf("%w: invalid coordinate number %q", ErrValidation, m[i+1])
		}
		parts[i] = v
	}

	value := parts[0] + parts[1]/60 + parts[2]/3600
	dir := m[4]
	if dir == "S" || dir == "W" {
		value = -value
	}
	return NewLatLon(value, dir == "N" || dir == "S")
}

func (l LatLon) check() error {
	if math.IsNaN(l.Value) {
		return fmt.Errorf("%w: coordinate is not a number", ErrValidation)
	}
	if l.IsLatitude && math.Abs(l.Value) > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90 degrees", ErrValidation)
	}
	if !l.IsLatitude && math.Abs(l.Value) > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180 degrees", ErrValidation)
	}
	return nil
}

func (l LatLon) direction() string {
	if l.IsLatitude {
		if l.Value >= 0 {
			return "N"
		}
		return "S"
	}
	if l.Value >= 0 {
		return "E"
	}
	return "W"
}

// String renders degrees, minutes and seconds, e.g. 50°7'24.2" N.
func (l LatLon) String() string {
	v := math.Abs(l.Value)
	deg := math.Floor(v)
	min := math.Floor((v - deg) * 60)
	sec := (v - deg - min/60) * 3600
	return fmt.Sprintf("%d°%d'%.1f\" %s", int(deg), int(min), sec, l.direction())
}

// DecimalString renders the absolute value with six decimals followed by the direction.
func (l LatLon) DecimalString() string {
	return fmt.Sprintf("%.6f%s", math.Abs(l.Value), l.direction())
}
