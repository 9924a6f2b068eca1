package astro

import "math"

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassPoint returns the nearest of the 16 compass points for an azimuth in
// degrees. Exact half-sector boundaries go to the even sector, so 11.25° and
// 348.75° are both "N".
func CompassPoint(azDeg float64) string {
	ix := int(math.RoundToEven(normalizeAngle360(azDeg)/22.5)) % len(compassPoints)
	return compassPoints[ix]
}
