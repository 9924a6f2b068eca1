package astro

import (
	"math"
	"testing"
	"time"
)

func TestJulianDate(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		want float64
	}{
		{"J2000 epoch", time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 2451545.0},
		{"Unix epoch", time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), 2440587.5},
		{"NEOWISE perihelion day", time.Date(2020, 7, 3, 0, 0, 0, 0, time.UTC), 2459033.5},
		{"non-UTC input", time.Date(2020, 7, 2, 19, 0, 0, 0, time.FixedZone("CDT", -5*3600)), 2459033.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JulianDate(tt.time)
			if math.Abs(got-tt.want) > 1e-4 {
				t.Errorf("JulianDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGreenwichMeanSiderealTime_J2000(t *testing.T) {
	gmst := greenwichMeanSiderealTime(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	if math.Abs(gmst-280.46) > 0.1 {
		t.Errorf("GMST at J2000 = %v, want ~280.46", gmst)
	}
}

func TestLocalSiderealTime_Range(t *testing.T) {
	at := time.Date(2020, 7, 15, 3, 0, 0, 0, time.UTC)
	for lon := -180.0; lon <= 180; lon += 15 {
		lst := localSiderealTime(at, lon)
		if lst < 0 || lst >= 360 {
			t.Errorf("LST at lon=%v out of range: %v", lon, lst)
		}
	}
}

func TestEquatorialToHorizontal_Zenith(t *testing.T) {
	obs := Observer{LatDeg: 36.96, LonDeg: -86.49}
	at := time.Date(2020, 7, 15, 3, 0, 0, 0, time.UTC)

	zenith := SkyCoord{RAdeg: localSiderealTime(at, obs.LonDeg), DecDeg: obs.LatDeg, RangeKm: 1.5e8}
	got := EquatorialToHorizontal(zenith, obs, at)

	if math.Abs(got.ElDeg-90) > 0.5 {
		t.Errorf("zenith elevation = %v, want ~90", got.ElDeg)
	}
	if got.RangeKm != zenith.RangeKm {
		t.Errorf("RangeKm not preserved: got %v", got.RangeKm)
	}
	if got.RAdeg != zenith.RAdeg || got.DecDeg != zenith.DecDeg {
		t.Error("RA/Dec should be preserved")
	}
}

func TestEquatorialToHorizontal_NeverRises(t *testing.T) {
	// Dec -60 peaks at 90-36.96-60 < 0 from Bowling Green.
	obs := Observer{LatDeg: 36.96, LonDeg: -86.49}
	star := SkyCoord{DecDeg: -60}
	for hour := 0; hour < 24; hour += 3 {
		at := time.Date(2020, 7, 15, hour, 0, 0, 0, time.UTC)
		if el := EquatorialToHorizontal(star, obs, at).ElDeg; el > 0 {
			t.Errorf("hour %d: El = %v, want below horizon", hour, el)
		}
	}
}

func TestEquatorialToHorizontal_AzimuthRange(t *testing.T) {
	obs := Observer{LatDeg: -33.9, LonDeg: 151.2}
	at := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	for ra := 0.0; ra < 360; ra += 30 {
		for dec := -80.0; dec <= 80; dec += 20 {
			az := EquatorialToHorizontal(SkyCoord{RAdeg: ra, DecDeg: dec}, obs, at).AzDeg
			if az < 0 || az >= 360 {
				t.Errorf("RA=%v Dec=%v: Az=%v out of range", ra, dec, az)
			}
		}
	}
}
