package visibility

import (
	"context"
	"fmt"
	"time"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/ephem"
	"github.com/litescript/ls-comets/internal/logging"
)

// Resolver turns a comet designation into a body, failing with
// ephem.ErrUnknownBody for designations it does not know.
type Resolver interface {
	Body(ctx context.Context, designation string) (ephem.Body, error)
}

// Query is a user-level forecast request.
type Query struct {
	Designation string
	Observer    astro.Observer
	Location    *time.Location // bucketing zone, UTC when nil
	Start       time.Time
	Days        int
	MinCometAlt float64
	MaxSunAlt   float64
	CoarseStep  time.Duration
	FineStep    time.Duration
	NoCache     bool
	SinglePass  bool
}

// NewQuery returns a query with default thresholds, steps and window.
func NewQuery(designation string, obs astro.Observer, loc *time.Location, start time.Time) Query {
	return Query{
		Designation: designation,
		Observer:    obs,
		Location:    loc,
		Start:       start,
		Days:        DefaultDays,
		MinCometAlt: DefaultMinCometAlt,
		MaxSunAlt:   DefaultMaxSunAlt,
		CoarseStep:  DefaultCoarseStep,
		FineStep:    DefaultFineStep,
	}
}

func (q Query) location() *time.Location {
	if q.Location == nil {
		return time.UTC
	}
	return q.Location
}

// Forecaster wires designation lookup, the result cache, the refiner and
// day bucketing together.
type Forecaster struct {
	resolver Resolver
	refiner  *Refiner
	cache    *ResultCache
	ttl      time.Duration
	logger   *logging.Logger
}

// NewForecaster creates a Forecaster. A nil resolver sends designations to
// the provider unchecked; a nil cache computes every time.
func NewForecaster(resolver Resolver, refiner *Refiner, cache *ResultCache, ttl time.Duration, logger *logging.Logger) *Forecaster {
	if logger == nil {
		logger = logging.Discard()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Forecaster{
		resolver: resolver,
		refiner:  refiner,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// Forecast returns the visibility instances of q grouped by local day.
func (f *Forecaster) Forecast(ctx context.Context, q Query) (DailyBuckets, error) {
	body, err := f.resolve(ctx, q.Designation)
	if err != nil {
		return DailyBuckets{}, err
	}

	req := Request{
		Comet:       body,
		Observer:    q.Observer,
		Start:       q.Start.UTC(),
		Days:        q.Days,
		MinCometAlt: q.MinCometAlt,
		MaxSunAlt:   q.MaxSunAlt,
		CoarseStep:  q.CoarseStep,
		FineStep:    q.FineStep,
	}
	if err := req.Validate(); err != nil {
		return DailyBuckets{}, err
	}

	loc := q.location()
	seed := SeedDates(req.Start, req.Days, loc)

	compute := func(ctx context.Context) (DailyBuckets, error) {
		var insts []Instance
		var err error
		if q.SinglePass {
			insts, err = f.refiner.Scan(ctx, req)
		} else {
			insts, err = f.refiner.Refine(ctx, req)
		}
		if err != nil {
			return DailyBuckets{}, err
		}
		f.logger.Info("%s at %s: %d instances over %d days",
			body, astro.FormatLatitude(q.Observer.LatDeg)+" "+astro.FormatLongitude(q.Observer.LonDeg), len(insts), req.Days)
		return BucketByLocalDay(insts, loc, seed...), nil
	}

	if q.NoCache || f.cache == nil {
		return compute(ctx)
	}

	key := CacheKey(KeyParams{
		Designation: body.Designation,
		Observer:    q.Observer,
		Start:       req.Start,
		Days:        req.Days,
		MinCometAlt: req.MinCometAlt,
		MaxSunAlt:   req.MaxSunAlt,
		CoarseStep:  req.CoarseStep,
		FineStep:    req.FineStep,
	})
	buckets, err := f.cache.GetOrCompute(ctx, key, f.ttl, compute)
	if err != nil {
		return DailyBuckets{}, err
	}

	// The key does not carry the zone; regroup entries stored for another.
	if buckets.Zone != loc.String() {
		buckets = BucketByLocalDay(buckets.Instances(), loc, seed...)
	}
	return buckets, nil
}

func (f *Forecaster) resolve(ctx context.Context, designation string) (ephem.Body, error) {
	if designation == "" {
		return ephem.Body{}, fmt.Errorf("empty comet designation: %w", ephem.ErrUnknownBody)
	}
	if f.resolver == nil {
		return ephem.Comet(designation), nil
	}
	return f.resolver.Body(ctx, designation)
}
