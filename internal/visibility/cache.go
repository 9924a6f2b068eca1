package visibility

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/logging"
	"github.com/litescript/ls-comets/internal/metrics"
)

const (
	// KeyPrefix starts every result cache key.
	KeyPrefix = "comet-visibility"

	// DefaultCacheTTL is how long a computed forecast stays fresh.
	DefaultCacheTTL = 24 * time.Hour

	// DefaultCacheTimeout bounds each store round-trip.
	DefaultCacheTimeout = 2 * time.Second
)

// Store is a keyed blob store with per-entry expiry.
type Store interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// KeyParams are the query fields that determine a cache key.
type KeyParams struct {
	Designation string
	Observer    astro.Observer
	Start       time.Time
	Days        int
	MinCometAlt float64
	MaxSunAlt   float64
	CoarseStep  time.Duration // zero means default
	FineStep    time.Duration // zero means default
}

// CacheKey builds a deterministic key, e.g.
//
//	comet-visibility:C/2020_F3:2020-07-10T00:00:00Z:1d:36.9600N:86.4900W:alt0.0:sun-12.0
//
// Non-default step sizes add a ":step10m0s/1m0s" suffix.
func CacheKey(p KeyParams) string {
	key := fmt.Sprintf("%s:%s:%s:%dd:%s:%s:alt%.1f:sun%.1f",
		KeyPrefix,
		p.Designation,
		p.Start.UTC().Format(time.RFC3339),
		p.Days,
		astro.FormatLatitude(p.Observer.LatDeg),
		astro.FormatLongitude(p.Observer.LonDeg),
		p.MinCometAlt,
		p.MaxSunAlt,
	)

	coarse, fine := p.CoarseStep, p.FineStep
	if coarse == 0 {
		coarse = DefaultCoarseStep
	}
	if fine == 0 {
		fine = DefaultFineStep
	}
	if coarse != DefaultCoarseStep || fine != DefaultFineStep {
		key += fmt.Sprintf(":step%v/%v", coarse, fine)
	}

	return strings.ReplaceAll(key, " ", "_")
}

// cacheEntry is the stored form of a forecast.
type cacheEntry struct {
	CreatedAt time.Time    `json:"created_at"`
	Buckets   DailyBuckets `json:"buckets"`
}

// ResultCache serves forecasts from a Store, computing them on a miss.
// Store trouble never fails a request.
type ResultCache struct {
	store   Store
	timeout time.Duration
	logger  *logging.Logger
	now     func() time.Time
}

// CacheOption configures a ResultCache.
type CacheOption func(*ResultCache)

// WithTimeout bounds each store round-trip.
func WithTimeout(d time.Duration) CacheOption {
	return func(c *ResultCache) {
		c.timeout = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *ResultCache) {
		c.now = now
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(l *logging.Logger) CacheOption {
	return func(c *ResultCache) {
		c.logger = l
	}
}

// NewResultCache creates a cache over store. A nil store disables caching.
func NewResultCache(store Store, opts ...CacheOption) *ResultCache {
	c := &ResultCache{
		store:   store,
		timeout: DefaultCacheTimeout,
		logger:  logging.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the cached buckets for key when younger than ttl,
// otherwise calls compute and stores its result. Errors from compute are
// returned and not cached.
func (c *ResultCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (DailyBuckets, error)) (DailyBuckets, error) {
	if c.store == nil {
		return compute(ctx)
	}

	entry, err := c.load(ctx, key)
	switch {
	case err != nil:
		metrics.IncCacheResult("error")
		c.logger.Warn("cache get %s: %v", key, err)
	case entry != nil && c.now().Sub(entry.CreatedAt) < ttl:
		metrics.IncCacheResult("hit")
		c.logger.Debug("cache hit %s (age %v)", key, c.now().Sub(entry.CreatedAt).Round(time.Second))
		return entry.Buckets, nil
	default:
		metrics.IncCacheResult("miss")
		c.logger.Debug("cache miss %s", key)
	}

	buckets, err := compute(ctx)
	if err != nil {
		return DailyBuckets{}, err
	}

	if err := c.save(ctx, key, cacheEntry{CreatedAt: c.now(), Buckets: buckets}, ttl); err != nil {
		c.logger.Warn("cache set %s: %v", key, err)
	}
	return buckets, nil
}

// load returns nil, nil on a plain miss.
func (c *ResultCache) load(ctx context.Context, key string) (*cacheEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, unavailable(err)
	}
	if !ok {
		return nil, nil
	}

	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, unavailable(fmt.Errorf("decode entry: %w", err))
	}
	if entry.CreatedAt.IsZero() {
		return nil, unavailable(errors.New("entry without timestamp"))
	}
	return &entry, nil
}

func (c *ResultCache) save(ctx context.Context, key string, entry cacheEntry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return unavailable(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		return unavailable(err)
	}
	return nil
}

func unavailable(err error) error {
	if errors.Is(err, ErrCacheUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
}
