package visibility

import (
	"sort"
	"time"
)

// BucketByLocalDay groups instances by the local date of their begin time.
// Dates in seed appear even when empty.
func BucketByLocalDay(instances []Instance, loc *time.Location, seed ...string) DailyBuckets {
	if loc == nil {
		loc = time.UTC
	}

	byDate := make(map[string][]Instance, len(seed))
	for _, d := range seed {
		byDate[d] = nil
	}
	for _, inst := range instances {
		d := inst.Begin.Time.In(loc).Format(DateLayout)
		byDate[d] = append(byDate[d], inst)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	// ISO dates sort lexically
	sort.Strings(dates)

	out := DailyBuckets{Zone: loc.String(), Days: make([]Day, 0, len(dates))}
	for _, d := range dates {
		insts := byDate[d]
		if insts == nil {
			insts = []Instance{}
		}
		sort.SliceStable(insts, func(i, j int) bool {
			return insts[i].Begin.Time.Before(insts[j].Begin.Time)
		})
		out.Days = append(out.Days, Day{Date: d, Instances: insts})
	}
	return out
}

// SeedDates returns the local date labels touched by [start, start+days).
func SeedDates(start time.Time, days int, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	if days <= 0 {
		return nil
	}

	end := start.Add(time.Duration(days) * 24 * time.Hour)
	d := StartOfDay(start, loc)

	var out []string
	for d.Before(end) {
		out = append(out, d.Format(DateLayout))
		d = d.AddDate(0, 0, 1)
	}
	return out
}

// StartOfDay returns local midnight of t's date in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
