// Package report renders visibility forecasts as text tables and JSON.
package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/visibility"
)

// Meta describes the query a report answers.
type Meta struct {
	Comet       string         `json:"comet"`
	Observer    astro.Observer `json:"observer"`
	Zone        string         `json:"zone"`
	Start       time.Time      `json:"start"`
	Days        int            `json:"days"`
	MinCometAlt float64        `json:"min_comet_alt"`
	MaxSunAlt   float64        `json:"max_sun_alt"`
}

// Report is a rendered forecast with its provenance.
type Report struct {
	ID          string                  `json:"id"`
	GeneratedAt time.Time               `json:"generated_at"`
	Meta        Meta                    `json:"query"`
	Buckets     visibility.DailyBuckets `json:"buckets"`
	Summaries   []DaySummary            `json:"summaries"`

	loc *time.Location
}

// New builds a report for buckets, summarizing each day in loc.
func New(meta Meta, buckets visibility.DailyBuckets, loc *time.Location, now time.Time) Report {
	if loc == nil {
		loc = time.UTC
	}
	if meta.Zone == "" {
		meta.Zone = loc.String()
	}

	summaries := make([]DaySummary, 0, len(buckets.Days))
	for _, d := range buckets.Days {
		summaries = append(summaries, Summarize(d, loc))
	}

	return Report{
		ID:          uuid.New().String(),
		GeneratedAt: now.UTC(),
		Meta:        meta,
		Buckets:     buckets,
		Summaries:   summaries,
		loc:         loc,
	}
}

// Location returns the zone the report is rendered in.
func (r Report) Location() *time.Location {
	if r.loc == nil {
		return time.UTC
	}
	return r.loc
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
