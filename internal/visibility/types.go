// Package visibility finds the windows during which a comet is above a
// minimum altitude while the Sun is below a maximum altitude, and groups
// them by local calendar day.
package visibility

import (
	"errors"
	"time"

	"github.com/litescript/ls-comets/internal/astro"
)

var (
	// ErrInconsistentSampleLength means a position series does not line up
	// with its time axis.
	ErrInconsistentSampleLength = errors.New("inconsistent sample length")

	// ErrCacheUnavailable covers store failures, timeouts and unreadable
	// entries. The cache layer treats it as a miss.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrInvalidRequest marks a search window or step size that cannot be
	// scanned.
	ErrInvalidRequest = errors.New("invalid request")
)

const (
	// DefaultCoarseStep is the first-pass sampling interval.
	DefaultCoarseStep = 10 * time.Minute

	// DefaultFineStep is the refinement sampling interval.
	DefaultFineStep = time.Minute

	// DefaultMinCometAlt is the default comet altitude threshold (degrees).
	DefaultMinCometAlt = 0.0

	// DefaultMaxSunAlt is the default Sun altitude threshold (degrees).
	DefaultMaxSunAlt = astro.NauticalTwilight

	// DefaultDays is the default search window length.
	DefaultDays = 1

	// DateLayout formats day labels.
	DateLayout = "2006-01-02"
)

// SampleRow pairs comet and Sun positions at one instant.
type SampleRow struct {
	Time  time.Time      `json:"time"`
	Comet astro.SkyCoord `json:"comet"`
	Sun   astro.SkyCoord `json:"sun"`
}

// Instance is one contiguous visibility window.
type Instance struct {
	Begin     SampleRow     `json:"begin"`
	End       SampleRow     `json:"end"`
	Direction string        `json:"direction"` // compass point of Begin.Comet.AzDeg
	Duration  time.Duration `json:"duration"`
}

// Day holds the instances beginning on one local calendar date.
type Day struct {
	Date      string     `json:"date"` // 2006-01-02 in the bucketing zone
	Instances []Instance `json:"instances"`
}

// DailyBuckets is the result of a forecast, days ascending.
type DailyBuckets struct {
	Zone string `json:"zone"`
	Days []Day  `json:"days"`
}

// Instances returns every instance across all days in order.
func (b DailyBuckets) Instances() []Instance {
	var out []Instance
	for _, d := range b.Days {
		out = append(out, d.Instances...)
	}
	return out
}

// Location loads the bucketing zone, falling back to UTC.
func (b DailyBuckets) Location() *time.Location {
	if b.Zone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.Zone)
	if err != nil {
		return time.UTC
	}
	return loc
}
