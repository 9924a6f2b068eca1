package report

import (
	"time"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/visibility"
)

// Sighting summarizes the instances in one half of a day.
type Sighting struct {
	FirstSeen time.Time           `json:"first_seen"`
	Direction string              `json:"direction"`
	FirstAlt  float64             `json:"first_alt"`
	LastSeen  time.Time           `json:"last_seen"`
	LastAlt   float64             `json:"last_alt"`
	MaxAlt    float64             `json:"max_alt"`
	Duration  time.Duration       `json:"duration"` // summed over instances
	Instances int                 `json:"instances"`
	Tier      astro.ElevationTier `json:"tier"`
}

// DaySummary splits a day at local noon.
type DaySummary struct {
	Date    string    `json:"date"`
	Morning *Sighting `json:"morning,omitempty"`
	Evening *Sighting `json:"evening,omitempty"`
}

// Visible reports whether the comet can be seen at all that day.
func (s DaySummary) Visible() bool {
	return s.Morning != nil || s.Evening != nil
}

// Summarize builds the morning (begins before local noon) and evening
// sightings of day.
func Summarize(day visibility.Day, loc *time.Location) DaySummary {
	if loc == nil {
		loc = time.UTC
	}
	out := DaySummary{Date: day.Date}

	for _, inst := range day.Instances {
		begin := inst.Begin.Time.In(loc)
		half := &out.Evening
		if begin.Hour() < 12 {
			half = &out.Morning
		}
		*half = merge(*half, inst, loc)
	}
	return out
}

func merge(s *Sighting, inst visibility.Instance, loc *time.Location) *Sighting {
	peak := inst.Begin.Comet.ElDeg
	if inst.End.Comet.ElDeg > peak {
		peak = inst.End.Comet.ElDeg
	}

	if s == nil {
		return &Sighting{
			FirstSeen: inst.Begin.Time.In(loc),
			Direction: inst.Direction,
			FirstAlt:  inst.Begin.Comet.ElDeg,
			LastSeen:  inst.End.Time.In(loc),
			LastAlt:   inst.End.Comet.ElDeg,
			MaxAlt:    peak,
			Duration:  inst.Duration,
			Instances: 1,
			Tier:      astro.GetElevationTier(peak),
		}
	}

	// Instances arrive in order; extend the end.
	s.LastSeen = inst.End.Time.In(loc)
	s.LastAlt = inst.End.Comet.ElDeg
	s.Duration += inst.Duration
	s.Instances++
	if peak > s.MaxAlt {
		s.MaxAlt = peak
		s.Tier = astro.GetElevationTier(peak)
	}
	return s
}
