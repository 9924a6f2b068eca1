package visibility

import (
	"context"
	"fmt"
	"time"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/ephem"
)

// Sampler produces position series from an ephemeris provider.
type Sampler struct {
	provider ephem.Provider
}

// NewSampler creates a Sampler.
func NewSampler(p ephem.Provider) *Sampler {
	return &Sampler{provider: p}
}

// Sample returns one position of body per element of times.
func (s *Sampler) Sample(ctx context.Context, body ephem.Body, obs astro.Observer, times []time.Time) ([]astro.SkyCoord, error) {
	if len(times) == 0 {
		return nil, nil
	}

	coords, err := s.provider.Positions(ctx, body, obs, times)
	if err != nil {
		return nil, err
	}
	if len(coords) != len(times) {
		return nil, fmt.Errorf("%s from %s: %d positions for %d times: %w",
			body, s.provider.Name(), len(coords), len(times), ErrInconsistentSampleLength)
	}
	return coords, nil
}

// Rows samples the comet and the Sun over the same times.
func (s *Sampler) Rows(ctx context.Context, comet ephem.Body, obs astro.Observer, times []time.Time) ([]SampleRow, error) {
	cometPos, err := s.Sample(ctx, comet, obs, times)
	if err != nil {
		return nil, err
	}
	sunPos, err := s.Sample(ctx, ephem.Sun, obs, times)
	if err != nil {
		return nil, err
	}
	if len(cometPos) != len(sunPos) {
		return nil, fmt.Errorf("comet series %d, sun series %d: %w",
			len(cometPos), len(sunPos), ErrInconsistentSampleLength)
	}

	rows := make([]SampleRow, len(times))
	for i, t := range times {
		rows[i] = SampleRow{Time: t, Comet: cometPos[i], Sun: sunPos[i]}
	}
	return rows, nil
}

// UniformTimes returns start, start+step, ... up to but excluding end.
func UniformTimes(start, end time.Time, step time.Duration) []time.Time {
	if step <= 0 || !end.After(start) {
		return nil
	}
	n := int(end.Sub(start) / step)
	if end.Sub(start)%step != 0 {
		n++
	}
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * step)
	}
	return times
}
