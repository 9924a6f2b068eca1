package visibility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/litescript/ls-comets/internal/ephem"
)

func TestUniformTimes(t *testing.T) {
	tests := []struct {
		name  string
		end   time.Time
		step  time.Duration
		count int
	}{
		{"one day at 10m", t0.Add(24 * time.Hour), 10 * time.Minute, 144},
		{"partial last step", t0.Add(25 * time.Minute), 10 * time.Minute, 3},
		{"empty range", t0, time.Minute, 0},
		{"zero step", t0.Add(time.Hour), 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := UniformTimes(t0, tc.end, tc.step)
			if len(got) != tc.count {
				t.Fatalf("got %d times, want %d", len(got), tc.count)
			}
			for i := 1; i < len(got); i++ {
				if got[i].Sub(got[i-1]) != tc.step {
					t.Fatalf("uneven step at %d", i)
				}
			}
		})
	}
}

func TestSampler_LengthMismatch(t *testing.T) {
	p := newDiurnalProvider()
	p.shortSun = true
	s := NewSampler(p)

	_, err := s.Rows(context.Background(), ephem.Comet("C/2020 F3"), testObserver, UniformTimes(t0, t0.Add(time.Hour), time.Minute))
	if !errors.Is(err, ErrInconsistentSampleLength) {
		t.Fatalf("err = %v, want ErrInconsistentSampleLength", err)
	}
}

func TestSampler_Rows(t *testing.T) {
	s := NewSampler(newDiurnalProvider())
	times := UniformTimes(t0, t0.Add(30*time.Minute), 10*time.Minute)

	rows, err := s.Rows(context.Background(), ephem.Comet("C/2020 F3"), testObserver, times)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for i, r := range rows {
		if !r.Time.Equal(times[i]) {
			t.Errorf("row %d time = %v", i, r.Time)
		}
		if r.Comet.ElDeg != diurnalComet(times[i]) || r.Sun.ElDeg != diurnalSun(times[i]) {
			t.Errorf("row %d = %+v", i, r)
		}
	}

	if rows, err := s.Rows(context.Background(), ephem.Comet("x"), testObserver, nil); err != nil || len(rows) != 0 {
		t.Errorf("empty times = %v, %v", rows, err)
	}
}

func TestFineGrid(t *testing.T) {
	start, end := t0, t0.Add(24*time.Hour)

	tests := []struct {
		name      string
		lo, hi    time.Time
		wantFirst time.Time
		wantLast  time.Time
		wantCount int
	}{
		{
			name:      "interior",
			lo:        t0.Add(2 * time.Hour),
			hi:        t0.Add(2*time.Hour + 20*time.Minute),
			wantFirst: t0.Add(2 * time.Hour),
			wantLast:  t0.Add(2*time.Hour + 20*time.Minute),
			wantCount: 21,
		},
		{
			name:      "clamped to start",
			lo:        t0.Add(-10 * time.Minute),
			hi:        t0.Add(5 * time.Minute),
			wantFirst: t0,
			wantLast:  t0.Add(5 * time.Minute),
			wantCount: 6,
		},
		{
			name:      "clamped to end",
			lo:        end.Add(-3 * time.Minute),
			hi:        end.Add(10 * time.Minute),
			wantFirst: end.Add(-3 * time.Minute),
			wantLast:  end.Add(-time.Minute),
			wantCount: 3,
		},
		{
			name:      "aligned to grid",
			lo:        t0.Add(90 * time.Second),
			hi:        t0.Add(5 * time.Minute),
			wantFirst: t0.Add(2 * time.Minute),
			wantLast:  t0.Add(5 * time.Minute),
			wantCount: 4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := fineGrid(start, end, tc.lo, tc.hi, time.Minute)
			if len(got) != tc.wantCount {
				t.Fatalf("got %d times, want %d", len(got), tc.wantCount)
			}
			if !got[0].Equal(tc.wantFirst) || !got[len(got)-1].Equal(tc.wantLast) {
				t.Errorf("range = %v..%v, want %v..%v", got[0], got[len(got)-1], tc.wantFirst, tc.wantLast)
			}
		})
	}
}

func TestRequest_Validate(t *testing.T) {
	base := NewRequest(ephem.Comet("C/2020 F3"), testObserver, t0)
	if err := base.Validate(); err != nil {
		t.Fatalf("default request invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"zero days", func(r *Request) { r.Days = 0 }},
		{"zero fine", func(r *Request) { r.FineStep = 0 }},
		{"coarse below fine", func(r *Request) { r.CoarseStep = 30 * time.Second }},
		{"not a multiple", func(r *Request) { r.CoarseStep = 10 * time.Minute; r.FineStep = 3 * time.Minute }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := base
			tc.mutate(&r)
			if err := r.Validate(); !errors.Is(err, ErrInvalidRequest) {
				t.Error("expected error")
			}
		})
	}
}

func sameInstances(t *testing.T, a, b []Instance) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("instance counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Begin.Time.Equal(b[i].Begin.Time) || !a[i].End.Time.Equal(b[i].End.Time) ||
			a[i].Duration != b[i].Duration || a[i].Direction != b[i].Direction {
			t.Errorf("instance %d differs:\n  %v..%v %s\n  %v..%v %s", i,
				a[i].Begin.Time, a[i].End.Time, a[i].Direction,
				b[i].Begin.Time, b[i].End.Time, b[i].Direction)
		}
	}
}

func TestRefiner_SingleWindowScenario(t *testing.T) {
	from := t0.Add(3*time.Hour + 7*time.Minute)
	r := NewRefiner(NewSampler(windowProvider(from, from.Add(9*time.Minute))), nil)

	req := NewRequest(ephem.Comet("C/2020 F3"), testObserver, t0)
	got, err := r.Refine(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d instances, want 1", len(got))
	}
	if !got[0].Begin.Time.Equal(from) || got[0].Duration != 9*time.Minute {
		t.Errorf("instance = %v + %v, want %v + 9m", got[0].Begin.Time, got[0].Duration, from)
	}
}

func TestRefiner_TwoPassEquivalence(t *testing.T) {
	p := newDiurnalProvider()
	r := NewRefiner(NewSampler(p), nil)

	req := NewRequest(ephem.Comet("C/2020 F3"), testObserver, t0)
	req.Days = 3

	refined, err := r.Refine(context.Background(), req)
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	refinedSamples := p.samples

	p.samples = 0
	direct, err := r.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	// Window at the start, one per night after, the last cut by the end.
	if len(direct) != 4 {
		t.Fatalf("direct scan found %d instances, want 4", len(direct))
	}
	sameInstances(t, refined, direct)

	if refinedSamples >= p.samples {
		t.Errorf("refined scan sampled %d points, direct %d", refinedSamples, p.samples)
	}
}

func TestRefiner_WindowAtHourBoundary(t *testing.T) {
	// Candidate begins in the first coarse slot of the window and of the hour.
	from := t0.Add(2 * time.Minute)
	p := windowProvider(from, from.Add(30*time.Minute))
	r := NewRefiner(NewSampler(p), nil)

	req := NewRequest(ephem.Comet("C/2020 F3"), testObserver, t0)
	refined, err := r.Refine(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	direct, err := r.Scan(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	sameInstances(t, refined, direct)
	if len(refined) != 1 || !refined[0].Begin.Time.Equal(from) {
		t.Errorf("refined = %+v", refined)
	}
}

func TestRefiner_Idempotent(t *testing.T) {
	r := NewRefiner(NewSampler(newDiurnalProvider()), nil)
	req := NewRequest(ephem.Comet("C/2020 F3"), testObserver, t0)
	req.Days = 2

	a, err := r.Refine(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Refine(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	sameInstances(t, a, b)
}

func TestRefiner_LooseThresholdsWidenCoarsePass(t *testing.T) {
	// Comet sits at -2°, which only a threshold below zero accepts.
	p := &funcProvider{
		comet: func(time.Time) float64 { return -2 },
		sun:   diurnalSun,
	}
	r := NewRefiner(NewSampler(p), nil)

	req := NewRequest(ephem.Comet("C/2020 F3"), testObserver, t0)
	req.MinCometAlt = -5

	refined, err := r.Refine(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	direct, err := r.Scan(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(direct) == 0 {
		t.Fatal("direct scan found nothing")
	}
	sameInstances(t, refined, direct)
}

func TestRefiner_Errors(t *testing.T) {
	t.Run("unknown body", func(t *testing.T) {
		p := newDiurnalProvider()
		p.err = ephem.ErrUnknownBody
		r := NewRefiner(NewSampler(p), nil)

		got, err := r.Refine(context.Background(), NewRequest(ephem.Comet("C/2099 Z9"), testObserver, t0))
		if !errors.Is(err, ephem.ErrUnknownBody) {
			t.Fatalf("err = %v, want ErrUnknownBody", err)
		}
		if got != nil {
			t.Errorf("partial result %v", got)
		}
	})

	t.Run("length mismatch", func(t *testing.T) {
		p := newDiurnalProvider()
		p.shortSun = true
		r := NewRefiner(NewSampler(p), nil)

		_, err := r.Refine(context.Background(), NewRequest(ephem.Comet("C/2020 F3"), testObserver, t0))
		if !errors.Is(err, ErrInconsistentSampleLength) {
			t.Fatalf("err = %v, want ErrInconsistentSampleLength", err)
		}
	})

	t.Run("invalid request", func(t *testing.T) {
		r := NewRefiner(NewSampler(newDiurnalProvider()), nil)
		req := NewRequest(ephem.Comet("C/2020 F3"), testObserver, t0)
		req.Days = -1
		if _, err := r.Refine(context.Background(), req); err == nil {
			t.Error("expected error")
		}
		if _, err := r.Scan(context.Background(), req); err == nil {
			t.Error("expected error from Scan")
		}
	})
}
