package report

import (
	"time"

	"github.com/sj14/astral/pkg/astral"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/visibility"
)

// Twilight holds nautical dawn and dusk for one local date. A zero time
// means the Sun never crosses -12° that day.
type Twilight struct {
	Dawn time.Time
	Dusk time.Time
}

// NauticalTwilight returns nautical dawn and dusk on the local date label
// (2006-01-02) at obs.
func NauticalTwilight(obs astro.Observer, date string, loc *time.Location) (Twilight, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(visibility.DateLayout, date, loc)
	if err != nil {
		return Twilight{}, err
	}

	o := astral.Observer{Latitude: obs.LatDeg, Longitude: obs.LonDeg}
	var tw Twilight
	tw.Dawn = eventOnDate(day, loc, func(d time.Time) (time.Time, error) {
		return astral.Dawn(o, d, astral.DepressionNautical)
	})
	tw.Dusk = eventOnDate(day, loc, func(d time.Time) (time.Time, error) {
		return astral.Dusk(o, d, astral.DepressionNautical)
	})
	return tw, nil
}

// eventOnDate evaluates a UTC-dated event around the local day and keeps
// the one that falls on it.
func eventOnDate(day time.Time, loc *time.Location, event func(time.Time) (time.Time, error)) time.Time {
	label := day.Format(visibility.DateLayout)
	for _, offset := range []int{0, 1, -1} {
		d := day.AddDate(0, 0, offset)
		t, err := event(time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC))
		if err != nil {
			continue
		}
		if t.In(loc).Format(visibility.DateLayout) == label {
			return t.In(loc)
		}
	}
	return time.Time{}
}
