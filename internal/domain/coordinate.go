package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinate is a signed decimal degree pair (WGS 84).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewCoordinate validates ranges and returns the pair.
func NewCoordinate(lat, lng float64) (Coordinate, error) {
	if !isFinite(lat) || !isFinite(lng) {
		return Coordinate{}, fmt.Errorf("coordinate is not finite: %v,%v", lat, lng)
	}
	if lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("latitude out of range: %v", lat)
	}
	if lng < -180 || lng > 180 {
		return Coordinate{}, fmt.Errorf("longitude out of range: %v", lng)
	}
	return Coordinate{Lat: lat, Lng: lng}, nil
}

// ParseCoordinate parses two decimal tokens into a validated coordinate.
func ParseCoordinate(rawLat, rawLng string) (Coordinate, error) {
	lat, err := ParseDecimal(rawLat)
	if err != nil {
		return Coordinate{}, fmt.Errorf("latitude: %w", err)
	}
	lng, err := ParseDecimal(rawLng)
	if err != nil {
		return Coordinate{}, fmt.Errorf("longitude: %w", err)
	}
	return NewCoordinate(lat, lng)
}

// ParseDecimal accepts plain decimal numbers only: no hex, no exponent, no NaN/Inf.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
		case (r == '-' || r == '+') && i == 0:
		default:
			return 0, fmt.Errorf("invalid number %q", s)
		}
	}
	if digits == 0 {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if !isFinite(v) {
		return 0, fmt.Errorf("number %q is not finite", s)
	}
	return v, nil
}

// String renders the pair in degrees-minutes form.
func (c Coordinate) String() string {
	return FormatDDM(c.Lat, true) + ", " + FormatDDM(c.Lng, false)
}

// MapsLink returns a Google Maps link centred on the coordinate.
func (c Coordinate) MapsLink() string {
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s&z=15",
		strconv.FormatFloat(c.Lat, 'f', -1, 64),
		strconv.FormatFloat(c.Lng, 'f', -1, 64))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
