package astro

import (
	"math"
	"time"
)

// AU is the Astronomical Unit in kilometers.
const AU = 149597870.7

// KmToAU converts kilometers to Astronomical Units.
func KmToAU(km float64) float64 {
	return km / AU
}

// AUToKm converts Astronomical Units to kilometers.
func AUToKm(au float64) float64 {
	return au * AU
}

// NauticalTwilight is the Sun altitude below which the sky counts as dark
// for faint objects.
const NauticalTwilight = -12.0

// SunPosition calculates the apparent equatorial coordinates of the Sun and
// its distance in AU, using the low-precision Astronomical Almanac series.
// Accuracy is about 0.01° which is plenty for twilight thresholds.
func SunPosition(t time.Time) (raDeg, decDeg, distAU float64) {
	jd := JulianDate(t)

	// Julian centuries from J2000.0
	T := (jd - 2451545.0) / 36525.0

	// Mean longitude and mean anomaly (degrees)
	L0 := normalizeAngle360(280.46646 + 36000.76983*T + 0.0003032*T*T)
	M := normalizeAngle360(357.52911 + 35999.05029*T - 0.0001537*T*T)
	Mrad := degToRad(M)

	// Equation of center
	C := (1.914602 - 0.004817*T - 0.000014*T*T) * math.Sin(Mrad)
	C += (0.019993 - 0.000101*T) * math.Sin(2*Mrad)
	C += 0.000289 * math.Sin(3*Mrad)

	sunLon := L0 + C
	v := degToRad(M + C)

	e := 0.016708634 - 0.000042037*T - 0.0000001267*T*T
	distAU = 1.000001018 * (1 - e*e) / (1 + e*math.Cos(v))

	// Aberration and nutation
	omega := 125.04 - 1934.136*T
	sunLonApp := sunLon - 0.00569 - 0.00478*math.Sin(degToRad(omega))

	eps0 := 23.439291 - 0.0130042*T - 0.00000016*T*T + 0.000000504*T*T*T
	eps := eps0 + 0.00256*math.Cos(degToRad(omega))

	sunLonRad := degToRad(sunLonApp)
	epsRad := degToRad(eps)

	ra := math.Atan2(math.Cos(epsRad)*math.Sin(sunLonRad), math.Cos(sunLonRad))
	raDeg = normalizeAngle360(radToDeg(ra))
	decDeg = radToDeg(math.Asin(math.Sin(epsRad) * math.Sin(sunLonRad)))

	return raDeg, decDeg, distAU
}

// SunHorizontal returns the Sun's apparent horizontal position for obs at t.
func SunHorizontal(obs Observer, t time.Time) SkyCoord {
	ra, dec, dist := SunPosition(t)
	return EquatorialToHorizontal(SkyCoord{RAdeg: ra, DecDeg: dec, RangeKm: AUToKm(dist)}, obs, t)
}

// ElevationTier categorizes a comet altitude for display.
type ElevationTier int

const (
	ElevationNone   ElevationTier = iota // Below horizon
	ElevationLow                         // 0-10 degrees, lost in horizon haze
	ElevationMedium                      // 10-30 degrees
	ElevationHigh                        // 30+ degrees
)

// GetElevationTier returns the tier for a given elevation.
func GetElevationTier(elDeg float64) ElevationTier {
	switch {
	case elDeg <= 0:
		return ElevationNone
	case elDeg < 10:
		return ElevationLow
	case elDeg < 30:
		return ElevationMedium
	default:
		return ElevationHigh
	}
}
