package domain

import (
	"errors"
	"math"
	"testing"
)

func TestParseLatLon(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		isLat  bool
		hasErr bool
	}{
		{in: "50.5N", want: 50.5, isLat: true},
		{in: "50.5s", want: -50.5, isLat: true},
		{in: " 15 . 25 E", want: 15.25, isLat: false},
		{in: "15°30'W", want: -15.5, isLat: false},
		{in: `49°30'36"N`, want: 49.51, isLat: true},
		{in: "91N", hasErr: true},
		{in: "181E", hasErr: true},
		{in: "180W", want: -180, isLat: false},
		{in: "50.5", hasErr: true},
		{in: "abcN", hasErr: true},
		{in: "", hasErr: true},
	}

	for _, tc := range tests {
		got, err := ParseLatLon(tc.in)
		if tc.hasErr {
			if err == nil {
				t.Fatalf("ParseLatLon(%q): expected error, got %+v", tc.in, got)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("ParseLatLon(%q): expected ErrValidation, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseLatLon(%q): %v", tc.in, err)
		}
		if math.Abs(got.Value-tc.want) > 1e-9 {
			t.Fatalf("ParseLatLon(%q) value: got %v want %v", tc.in, got.Value, tc.want)
		}
		if got.IsLatitude != tc.isLat {
			t.Fatalf("ParseLatLon(%q) latitude: got %v want %v", tc.in, got.IsLatitude, tc.isLat)
		}
	}
}

func TestLatLonRendering(t *testing.T) {
	lat, err := NewLatLon(50.5, true)
	if err != nil {
		t.Fatalf("NewLatLon: %v", err)
	}
	if got := lat.String(); got != `50°30'0.0" N` {
		t.Fatalf("String: got %q", got)
	}
	if got := lat.DecimalString(); got != "50.500000N" {
		t.Fatalf("DecimalString: got %q", got)
	}

	lon, err := NewLatLon(-15.25, false)
	if err != nil {
		t.Fatalf("NewLatLon: %v", err)
	}
	if got := lon.String(); got != `15°15'0.0" W` {
		t.Fatalf("String: got %q", got)
	}
	if got := lon.DecimalString(); got != "15.250000W" {
		t.Fatalf("DecimalString: got %q", got)
	}
}

func TestLatLonStringParsesBack(t *testing.T) {
	for _, v := range []float64{49.123456, -12.5, 0} {
		orig, err := NewLatLon(v, true)
		if err != nil {
			t.Fatalf("NewLatLon(%v): %v", v, err)
		}
		back, err := ParseLatLon(orig.String())
		if err != nil {
			t.Fatalf("ParseLatLon(%q): %v", orig.String(), err)
		}
		// seconds are rendered with one decimal
		if math.Abs(back.Value-v) > 0.05/3600 {
			t.Fatalf("round trip of %v: got %v", v, back.Value)
		}
	}
}
