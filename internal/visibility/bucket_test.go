package visibility

import (
	"reflect"
	"testing"
	"time"
)

func instAt(ts time.Time) Instance {
	return Instance{Begin: row(ts, 5, -20, 0), End: row(ts, 5, -20, 0), Direction: "N"}
}

func TestBucketByLocalDay(t *testing.T) {
	cdt := time.FixedZone("CDT", -5*3600)

	// 03:30 UTC on the 11th is 22:30 local on the 10th.
	late := instAt(time.Date(2020, 7, 11, 3, 30, 0, 0, time.UTC))
	early := instAt(time.Date(2020, 7, 11, 2, 0, 0, 0, time.UTC))
	morning := instAt(time.Date(2020, 7, 11, 8, 40, 0, 0, time.UTC))

	got := BucketByLocalDay([]Instance{late, morning, early}, cdt)

	if got.Zone != "CDT" {
		t.Errorf("Zone = %q", got.Zone)
	}
	if len(got.Days) != 2 {
		t.Fatalf("got %d days, want 2", len(got.Days))
	}
	if got.Days[0].Date != "2020-07-10" || got.Days[1].Date != "2020-07-11" {
		t.Errorf("dates = %s, %s", got.Days[0].Date, got.Days[1].Date)
	}

	evening := got.Days[0].Instances
	if len(evening) != 2 || !evening[0].Begin.Time.Equal(early.Begin.Time) || !evening[1].Begin.Time.Equal(late.Begin.Time) {
		t.Errorf("day 1 not chronological: %+v", evening)
	}
	if len(got.Days[1].Instances) != 1 {
		t.Errorf("day 2 has %d instances", len(got.Days[1].Instances))
	}
}

func TestBucketByLocalDay_Seeded(t *testing.T) {
	seed := SeedDates(time.Date(2020, 7, 10, 0, 0, 0, 0, time.UTC), 3, time.UTC)
	got := BucketByLocalDay([]Instance{instAt(time.Date(2020, 7, 11, 9, 0, 0, 0, time.UTC))}, time.UTC, seed...)

	var dates []string
	for _, d := range got.Days {
		dates = append(dates, d.Date)
	}
	want := []string{"2020-07-10", "2020-07-11", "2020-07-12"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("dates = %v, want %v", dates, want)
	}
	if got.Days[0].Instances == nil || len(got.Days[0].Instances) != 0 {
		t.Errorf("seeded day should hold an empty list, got %#v", got.Days[0].Instances)
	}

	if empty := BucketByLocalDay(nil, nil); len(empty.Days) != 0 || empty.Zone != "UTC" {
		t.Errorf("unseeded empty input = %+v", empty)
	}
}

func TestSeedDates(t *testing.T) {
	cdt := time.FixedZone("CDT", -5*3600)

	tests := []struct {
		name  string
		start time.Time
		days  int
		loc   *time.Location
		want  []string
	}{
		{
			name:  "local midnight",
			start: time.Date(2020, 7, 10, 0, 0, 0, 0, cdt),
			days:  2,
			loc:   cdt,
			want:  []string{"2020-07-10", "2020-07-11"},
		},
		{
			name:  "utc midnight seen from CDT",
			start: time.Date(2020, 7, 10, 0, 0, 0, 0, time.UTC),
			days:  1,
			loc:   cdt,
			want:  []string{"2020-07-09", "2020-07-10"},
		},
		{
			name:  "no days",
			start: t0,
			days:  0,
			loc:   time.UTC,
			want:  nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SeedDates(tc.start, tc.days, tc.loc); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("SeedDates = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStartOfDay(t *testing.T) {
	cdt := time.FixedZone("CDT", -5*3600)
	got := StartOfDay(time.Date(2020, 7, 10, 3, 0, 0, 0, time.UTC), cdt)
	if want := time.Date(2020, 7, 9, 0, 0, 0, 0, cdt); !got.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", got, want)
	}
	if got := StartOfDay(time.Date(2020, 7, 10, 23, 59, 0, 0, time.UTC), nil); got.Hour() != 0 || got.Day() != 10 {
		t.Errorf("StartOfDay(nil loc) = %v", got)
	}
}
