package visibility

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/ephem"
	"github.com/litescript/ls-comets/internal/logging"
	"github.com/litescript/ls-comets/internal/metrics"
)

// Request describes one visibility search.
type Request struct {
	Comet       ephem.Body
	Observer    astro.Observer
	Start       time.Time
	Days        int
	MinCometAlt float64
	MaxSunAlt   float64
	CoarseStep  time.Duration
	FineStep    time.Duration
}

// NewRequest returns a request with the default thresholds and steps.
func NewRequest(comet ephem.Body, obs astro.Observer, start time.Time) Request {
	return Request{
		Comet:       comet,
		Observer:    obs,
		Start:       start,
		Days:        DefaultDays,
		MinCometAlt: DefaultMinCometAlt,
		MaxSunAlt:   DefaultMaxSunAlt,
		CoarseStep:  DefaultCoarseStep,
		FineStep:    DefaultFineStep,
	}
}

// End returns the exclusive end of the search window.
func (r Request) End() time.Time {
	return r.Start.Add(time.Duration(r.Days) * 24 * time.Hour)
}

// Validate checks the window and step sizes. The coarse step must be a
// whole multiple of the fine step so both grids share sample instants.
func (r Request) Validate() error {
	switch {
	case r.Days <= 0:
		return fmt.Errorf("%w: days must be positive, got %d", ErrInvalidRequest, r.Days)
	case r.FineStep <= 0:
		return fmt.Errorf("%w: fine step must be positive, got %v", ErrInvalidRequest, r.FineStep)
	case r.CoarseStep < r.FineStep:
		return fmt.Errorf("%w: coarse step %v is shorter than fine step %v", ErrInvalidRequest, r.CoarseStep, r.FineStep)
	case r.CoarseStep%r.FineStep != 0:
		return fmt.Errorf("%w: coarse step %v is not a multiple of fine step %v", ErrInvalidRequest, r.CoarseStep, r.FineStep)
	}
	return nil
}

// Refiner runs visibility scans against a Sampler.
type Refiner struct {
	sampler *Sampler
	logger  *logging.Logger
}

// NewRefiner creates a Refiner. A nil logger discards output.
func NewRefiner(s *Sampler, logger *logging.Logger) *Refiner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Refiner{sampler: s, logger: logger}
}

// Refine finds visibility instances with a coarse pass over the whole
// window followed by fine passes around each coarse candidate.
func (r *Refiner) Refine(ctx context.Context, req Request) ([]Instance, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	began := time.Now()
	start, end := req.Start.UTC(), req.End().UTC()

	coarseRows, err := r.sampler.Rows(ctx, req.Comet, req.Observer, UniformTimes(start, end, req.CoarseStep))
	if err != nil {
		return nil, fmt.Errorf("coarse pass: %w", err)
	}

	// Relaxed thresholds so a window that is marginal at coarse resolution
	// still yields a candidate.
	candidates := DetectWindows(coarseRows, req.CoarseStep,
		math.Min(0, req.MinCometAlt), math.Max(0, req.MaxSunAlt))
	r.logger.Debug("%s: %d coarse candidates from %d samples", req.Comet, len(candidates), len(coarseRows))

	var out []Instance
	seen := make(map[int64]bool)
	for _, c := range candidates {
		lo := c.Begin.Time.Add(-req.CoarseStep)
		hi := c.Begin.Time.Add(c.Duration + req.CoarseStep)
		times := fineGrid(start, end, lo, hi, req.FineStep)

		rows, err := r.sampler.Rows(ctx, req.Comet, req.Observer, times)
		if err != nil {
			return nil, fmt.Errorf("fine pass %s: %w", lo.Format(time.RFC3339), err)
		}

		for _, inst := range DetectWindows(rows, req.FineStep, req.MinCometAlt, req.MaxSunAlt) {
			k := inst.Begin.Time.UnixNano()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, inst)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Begin.Time.Before(out[j].Begin.Time)
	})

	metrics.ObserveRefine("two-pass", time.Since(began))
	r.logger.Debug("%s: %d instances in %v", req.Comet, len(out), time.Since(began))
	return out, nil
}

// Scan is the single-pass search at the fine step over the whole window.
func (r *Refiner) Scan(ctx context.Context, req Request) ([]Instance, error) {
	if req.Days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", req.Days)
	}
	if req.FineStep <= 0 {
		return nil, fmt.Errorf("fine step must be positive, got %v", req.FineStep)
	}
	began := time.Now()

	rows, err := r.sampler.Rows(ctx, req.Comet, req.Observer, UniformTimes(req.Start.UTC(), req.End().UTC(), req.FineStep))
	if err != nil {
		return nil, err
	}
	out := DetectWindows(rows, req.FineStep, req.MinCometAlt, req.MaxSunAlt)

	metrics.ObserveRefine("single", time.Since(began))
	return out, nil
}

// fineGrid returns the instants of the step grid anchored at start that lie
// in [lo, hi] and inside the search window [start, end).
func fineGrid(start, end, lo, hi time.Time, step time.Duration) []time.Time {
	if lo.Before(start) {
		lo = start
	}
	k := lo.Sub(start) / step
	if lo.Sub(start)%step != 0 {
		k++
	}

	var times []time.Time
	for t := start.Add(k * step); !t.After(hi) && t.Before(end); t = t.Add(step) {
		times = append(times, t)
	}
	return times
}
