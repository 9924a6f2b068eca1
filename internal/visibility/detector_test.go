package visibility

import (
	"math/rand"
	"testing"
	"time"

	"github.com/litescript/ls-comets/internal/astro"
)

func row(t time.Time, cometEl, sunEl, az float64) SampleRow {
	return SampleRow{
		Time:  t,
		Comet: astro.SkyCoord{AzDeg: az, ElDeg: cometEl},
		Sun:   astro.SkyCoord{ElDeg: sunEl},
	}
}

func TestDetectWindows_SingleWindowScenario(t *testing.T) {
	var rows []SampleRow
	for m := -5; m <= 15; m++ {
		ts := t0.Add(time.Duration(m) * time.Minute)
		el := -3.0
		if m >= 0 && m <= 9 {
			el = 12
		}
		rows = append(rows, row(ts, el, -20, 45))
	}

	got := DetectWindows(rows, time.Minute, 0, -12)
	if len(got) != 1 {
		t.Fatalf("got %d instances, want 1", len(got))
	}
	inst := got[0]
	if !inst.Begin.Time.Equal(t0) {
		t.Errorf("Begin = %v, want %v", inst.Begin.Time, t0)
	}
	if !inst.End.Time.Equal(t0.Add(9 * time.Minute)) {
		t.Errorf("End = %v, want T0+9m", inst.End.Time)
	}
	if inst.Duration != 9*time.Minute {
		t.Errorf("Duration = %v, want 9m", inst.Duration)
	}
	if inst.Direction != "NE" {
		t.Errorf("Direction = %q, want NE", inst.Direction)
	}
}

func TestDetectWindows(t *testing.T) {
	m := func(n int) time.Time { return t0.Add(time.Duration(n) * time.Minute) }

	tests := []struct {
		name      string
		rows      []SampleRow
		wantCount int
		wantDur   []time.Duration
	}{
		{
			name:      "empty",
			rows:      nil,
			wantCount: 0,
		},
		{
			name:      "nothing qualifies",
			rows:      []SampleRow{row(m(0), -1, -20, 0), row(m(1), 10, 5, 0)},
			wantCount: 0,
		},
		{
			name:      "thresholds are strict",
			rows:      []SampleRow{row(m(0), 0, -20, 0), row(m(1), 10, -12, 0)},
			wantCount: 0,
		},
		{
			name:      "single row",
			rows:      []SampleRow{row(m(0), -1, -20, 0), row(m(1), 10, -20, 0), row(m(2), -1, -20, 0)},
			wantCount: 1,
			wantDur:   []time.Duration{0},
		},
		{
			name: "gap splits",
			rows: []SampleRow{
				row(m(0), 10, -20, 0), row(m(1), 10, -20, 0),
				row(m(2), 10, 0, 0), // sun up
				row(m(3), 10, -20, 0), row(m(4), 10, -20, 0), row(m(5), 10, -20, 0),
			},
			wantCount: 2,
			wantDur:   []time.Duration{time.Minute, 2 * time.Minute},
		},
		{
			name:      "irregular spacing splits",
			rows:      []SampleRow{row(m(0), 10, -20, 0), row(m(1), 10, -20, 0), row(m(1).Add(90*time.Second), 10, -20, 0)},
			wantCount: 2,
			wantDur:   []time.Duration{time.Minute, 0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectWindows(tc.rows, time.Minute, 0, -12)
			if len(got) != tc.wantCount {
				t.Fatalf("got %d instances, want %d", len(got), tc.wantCount)
			}
			for i, d := range tc.wantDur {
				if got[i].Duration != d {
					t.Errorf("instance %d duration = %v, want %v", i, got[i].Duration, d)
				}
			}
		})
	}
}

func TestDetectWindows_DirectionFromBeginRow(t *testing.T) {
	rows := []SampleRow{
		row(t0, 10, -20, 90),
		row(t0.Add(time.Minute), 10, -20, 180),
	}
	got := DetectWindows(rows, time.Minute, 0, -12)
	if len(got) != 1 || got[0].Direction != "E" {
		t.Fatalf("got %+v, want one instance facing E", got)
	}
}

func TestDetectWindows_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	step := time.Minute

	for trial := 0; trial < 50; trial++ {
		var rows []SampleRow
		ts := t0
		for i := 0; i < 500; i++ {
			// Occasional irregular spacing.
			if rng.Intn(40) == 0 {
				ts = ts.Add(time.Duration(rng.Intn(120)) * time.Second)
			}
			rows = append(rows, row(ts, rng.Float64()*20-5, rng.Float64()*30-25, rng.Float64()*360))
			ts = ts.Add(step)
		}

		got := DetectWindows(rows, step, 0, -12)

		kept := 0
		for _, r := range rows {
			if r.Comet.ElDeg > 0 && r.Sun.ElDeg < -12 {
				kept++
			}
		}

		covered := 0
		for i, inst := range got {
			if inst.End.Time.Before(inst.Begin.Time) {
				t.Fatalf("trial %d: instance %d ends before it begins", trial, i)
			}
			if inst.Duration != inst.End.Time.Sub(inst.Begin.Time) {
				t.Fatalf("trial %d: instance %d duration mismatch", trial, i)
			}
			if i > 0 && !got[i-1].End.Time.Before(inst.Begin.Time) {
				t.Fatalf("trial %d: instances %d and %d overlap", trial, i-1, i)
			}
			if inst.Direction != astro.CompassPoint(inst.Begin.Comet.AzDeg) {
				t.Fatalf("trial %d: instance %d direction %q", trial, i, inst.Direction)
			}
			covered += int(inst.Duration/step) + 1
		}

		if covered != kept {
			t.Fatalf("trial %d: instances cover %d rows, %d rows qualify", trial, covered, kept)
		}
	}
}
