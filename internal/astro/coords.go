// Package astro provides observer geometry, coordinate parsing and the small
// amount of sky math needed around an ephemeris provider.
package astro

import (
	"math"
	"time"
)

// SkyCoord is the apparent position of a body. Providers that only report
// horizontal coordinates leave RA/Dec zero.
type SkyCoord struct {
	// Equatorial coordinates (J2000)
	RAdeg  float64 `json:"ra_deg,omitempty"`
	DecDeg float64 `json:"dec_deg,omitempty"`

	// Horizontal coordinates (observer-relative)
	AzDeg float64 `json:"az_deg"` // 0=N, 90=E, 180=S, 270=W
	ElDeg float64 `json:"el_deg"` // 0=horizon, 90=zenith

	// Distance from the observer, zero when unknown
	RangeKm float64 `json:"range_km,omitempty"`
}

// Observer is a topocentric observer location.
type Observer struct {
	LatDeg float64 `json:"lat_deg"` // north positive
	LonDeg float64 `json:"lon_deg"` // east positive
	Name   string  `json:"name,omitempty"`
}

// EquatorialToHorizontal converts equatorial coordinates (RA/Dec) to horizontal
// coordinates (Az/El) for a given observer and time.
//
// The function preserves the input RA/Dec values and populates Az/El.
// Uses standard astronomical conventions:
//   - Azimuth: 0° = North, 90° = East, 180° = South, 270° = West
//   - Elevation: 0° = horizon, 90° = zenith
func EquatorialToHorizontal(eq SkyCoord, obs Observer, t time.Time) SkyCoord {
	lat := degToRad(obs.LatDeg)
	ra := degToRad(eq.RAdeg)
	dec := degToRad(eq.DecDeg)

	lstRad := degToRad(localSiderealTime(t, obs.LonDeg))

	// Hour Angle = LST - RA
	ha := lstRad - ra

	sinAlt := math.Sin(dec)*math.Sin(lat) + math.Cos(dec)*math.Cos(lat)*math.Cos(ha)
	alt := math.Asin(sinAlt)

	cosAz := (math.Sin(dec) - math.Sin(alt)*math.Sin(lat)) / (math.Cos(alt) * math.Cos(lat))
	// Clamp cosAz to [-1, 1] to handle floating point errors
	if cosAz > 1 {
		cosAz = 1
	} else if cosAz < -1 {
		cosAz = -1
	}

	az := math.Acos(cosAz)

	// Positive hour angle: object is west of the meridian
	if math.Sin(ha) > 0 {
		az = 2*math.Pi - az
	}

	return SkyCoord{
		RAdeg:   eq.RAdeg,
		DecDeg:  eq.DecDeg,
		AzDeg:   radToDeg(az),
		ElDeg:   radToDeg(alt),
		RangeKm: eq.RangeKm,
	}
}

// localSiderealTime calculates the Local Sidereal Time in degrees
// for a given UTC time and observer longitude.
func localSiderealTime(t time.Time, lonDeg float64) float64 {
	return normalizeAngle360(greenwichMeanSiderealTime(t) + lonDeg)
}

// greenwichMeanSiderealTime calculates GMST in degrees (IAU 1982).
func greenwichMeanSiderealTime(t time.Time) float64 {
	jd := JulianDate(t)

	// Julian centuries since J2000.0
	T := (jd - 2451545.0) / 36525.0

	gmst := 280.46061837 +
		360.98564736629*(jd-2451545.0) +
		0.000387933*T*T -
		T*T*T/38710000.0

	return normalizeAngle360(gmst)
}

// JulianDate returns the Julian Date (UT) of t.
func JulianDate(t time.Time) float64 {
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	h := float64(t.Hour())
	min := float64(t.Minute())
	sec := float64(t.Second())
	ns := float64(t.Nanosecond())

	dayFrac := (h + min/60 + sec/3600 + ns/3600e9) / 24.0

	// January/February count as months 13/14 of the previous year
	if m <= 2 {
		y--
		m += 12
	}

	// Gregorian calendar correction
	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	return math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		d + dayFrac + B - 1524.5
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// normalizeAngle360 normalizes an angle to [0, 360).
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
