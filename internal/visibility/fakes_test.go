package visibility

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/ephem"
)

var (
	testObserver = astro.Observer{LatDeg: 36.96, LonDeg: -86.49, Name: "Bowling Green"}
	t0           = time.Date(2020, 7, 10, 0, 0, 0, 0, time.UTC)
)

// funcProvider evaluates elevation functions instead of an ephemeris.
type funcProvider struct {
	mu       sync.Mutex
	comet    func(time.Time) float64
	sun      func(time.Time) float64
	err      error
	shortSun bool // return one Sun position too few
	calls    int
	samples  int
}

func (p *funcProvider) Name() string { return "synthetic" }

func (p *funcProvider) Positions(_ context.Context, body ephem.Body, _ astro.Observer, times []time.Time) ([]astro.SkyCoord, error) {
	p.mu.Lock()
	p.calls++
	p.samples += len(times)
	p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}

	f := p.comet
	n := len(times)
	if body.Kind == ephem.BodySun {
		f = p.sun
		if p.shortSun && n > 0 {
			n--
		}
	}

	out := make([]astro.SkyCoord, n)
	for i := 0; i < n; i++ {
		h := times[i].Sub(t0).Hours()
		out[i] = astro.SkyCoord{AzDeg: math.Mod(h*15, 360), ElDeg: f(times[i])}
	}
	return out, nil
}

// Night from about 19:10 to 04:50 UTC, comet up from 15:00 to 03:00.
func diurnalSun(t time.Time) float64 {
	h := t.Sub(t0).Hours()
	return 40 * math.Sin(2*math.Pi*(h-6)/24)
}

func diurnalComet(t time.Time) float64 {
	h := t.Sub(t0).Hours()
	return 30 * math.Sin(2*math.Pi*(h-15)/24)
}

func newDiurnalProvider() *funcProvider {
	return &funcProvider{comet: diurnalComet, sun: diurnalSun}
}

// windowProvider makes the comet visible in dark sky only for times in
// [from, to].
func windowProvider(from, to time.Time) *funcProvider {
	return &funcProvider{
		comet: func(t time.Time) float64 {
			if t.Before(from) || t.After(to) {
				return -5
			}
			return 10
		},
		sun: func(time.Time) float64 { return -20 },
	}
}

// mapStore is an in-memory Store that counts calls and can fail.
type mapStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	gets   int
	sets   int
	getErr error
	setErr error
	block  bool // wait for ctx cancellation
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *mapStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.block {
		<-ctx.Done()
		return nil, false, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *mapStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

// staticResolver resolves a fixed set of designations.
type staticResolver map[string]ephem.Body

func (r staticResolver) Body(_ context.Context, designation string) (ephem.Body, error) {
	b, ok := r[designation]
	if !ok {
		return ephem.Body{}, ephem.ErrUnknownBody
	}
	return b, nil
}
