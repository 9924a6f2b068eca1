package astro

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidCoordinate is returned for unparseable or out-of-range coordinates.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ParseLatitude parses a latitude such as "36.96 N", "36.96S", "-36.96".
func ParseLatitude(s string) (float64, error) {
	return parseCoordinate(s, 'N', 'S', 90)
}

// ParseLongitude parses a longitude such as "86.49 W", "86.49E", "-86.49".
func ParseLongitude(s string) (float64, error) {
	return parseCoordinate(s, 'E', 'W', 180)
}

// ParseObserver builds an Observer from latitude and longitude strings.
func ParseObserver(lat, lon string) (Observer, error) {
	latDeg, err := ParseLatitude(lat)
	if err != nil {
		return Observer{}, fmt.Errorf("latitude: %w", err)
	}
	lonDeg, err := ParseLongitude(lon)
	if err != nil {
		return Observer{}, fmt.Errorf("longitude: %w", err)
	}
	return Observer{LatDeg: latDeg, LonDeg: lonDeg}, nil
}

// parseCoordinate accepts a magnitude with an optional trailing hemisphere
// letter. A letter and a minus sign together are rejected as ambiguous.
func parseCoordinate(s string, pos, neg byte, limit float64) (float64, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidCoordinate)
	}

	sign := 1.0
	hemisphere := false
	switch v[len(v)-1] {
	case pos:
		hemisphere = true
		v = strings.TrimSpace(v[:len(v)-1])
	case neg:
		hemisphere = true
		sign = -1
		v = strings.TrimSpace(v[:len(v)-1])
	}

	if hemisphere && strings.HasPrefix(v, "-") {
		return 0, fmt.Errorf("%w: %q has both a sign and a hemisphere", ErrInvalidCoordinate, s)
	}

	deg, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
	deg *= sign

	if math.Abs(deg) > limit {
		return 0, fmt.Errorf("%w: %q outside ±%.0f", ErrInvalidCoordinate, s, limit)
	}
	return deg, nil
}

// FormatLatitude renders a latitude with a fixed precision and hemisphere
// letter, e.g. "36.9600N". The output is stable for equal inputs.
func FormatLatitude(deg float64) string {
	return formatCoordinate(deg, "N", "S")
}

// FormatLongitude renders a longitude like FormatLatitude, e.g. "86.4900W".
func FormatLongitude(deg float64) string {
	return formatCoordinate(deg, "E", "W")
}

func formatCoordinate(deg float64, pos, neg string) string {
	// Round first so -0.00001 does not render as "0.0000S".
	r := math.Round(deg*1e4) / 1e4
	if r < 0 {
		return strconv.FormatFloat(-r, 'f', 4, 64) + neg
	}
	return strconv.FormatFloat(math.Abs(r), 'f', 4, 64) + pos
}
