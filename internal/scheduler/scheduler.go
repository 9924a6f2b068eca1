// Package scheduler keeps forecasts for watched locations warm in the
// result cache.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/logging"
	"github.com/litescript/ls-comets/internal/visibility"
)

// JobTimeout bounds one forecast of a warm-up run.
const JobTimeout = 5 * time.Minute

// Forecaster is the part of visibility.Forecaster the warmer needs.
type Forecaster interface {
	Forecast(ctx context.Context, q visibility.Query) (visibility.DailyBuckets, error)
}

// Target is one comet/location pair to keep warm.
type Target struct {
	Designation string
	Observer    astro.Observer
}

// Options configures a Warmer.
type Options struct {
	Schedule    string // cron expression
	Location    *time.Location
	Days        int
	MinCometAlt float64
	MaxSunAlt   float64
	CoarseStep  time.Duration
	FineStep    time.Duration
	Now         func() time.Time
}

// Warmer periodically runs forecasts so API requests hit the cache.
type Warmer struct {
	scheduler  *gocron.Scheduler
	forecaster Forecaster
	targets    []Target
	opts       Options
	logger     *logging.Logger
}

// New creates a Warmer.
func New(f Forecaster, targets []Target, opts Options, logger *logging.Logger) *Warmer {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Days <= 0 {
		opts.Days = visibility.DefaultDays
	}
	if opts.CoarseStep <= 0 {
		opts.CoarseStep = visibility.DefaultCoarseStep
	}
	if opts.FineStep <= 0 {
		opts.FineStep = visibility.DefaultFineStep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = logging.Discard()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Warmer{
		scheduler:  s,
		forecaster: f,
		targets:    targets,
		opts:       opts,
		logger:     logger,
	}
}

// Start schedules the warm-up job and starts the underlying scheduler.
func (w *Warmer) Start() error {
	if len(w.targets) == 0 || w.opts.Schedule == "" {
		w.logger.Info("no watch targets configured; nothing to schedule")
		return nil
	}

	if _, err := w.scheduler.Cron(w.opts.Schedule).Do(func() {
		w.RunOnce(context.Background())
	}); err != nil {
		return err
	}

	w.scheduler.StartAsync()
	w.logger.Info("warm-up scheduled (%s) for %d targets", w.opts.Schedule, len(w.targets))
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (w *Warmer) Stop() {
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
}

// RunOnce forecasts every target starting at the beginning of today in the
// configured zone. It returns the number of targets that failed.
func (w *Warmer) RunOnce(ctx context.Context) int {
	start := visibility.StartOfDay(w.opts.Now(), w.opts.Location)
	w.logger.Info("running warm-up from %s", start.Format(visibility.DateLayout))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, t := range w.targets {
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, JobTimeout)
			defer cancel()

			q := visibility.NewQuery(t.Designation, t.Observer, w.opts.Location, start)
			q.Days = w.opts.Days
			q.MinCometAlt = w.opts.MinCometAlt
			q.MaxSunAlt = w.opts.MaxSunAlt
			q.CoarseStep = w.opts.CoarseStep
			q.FineStep = w.opts.FineStep

			if _, err := w.forecaster.Forecast(ctx, q); err != nil {
				w.logger.Warn("warm-up failed for %s at %s: %v", t.Designation, describe(t.Observer), err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	w.logger.Info("warm-up complete, %d/%d failed", failed, len(w.targets))
	return failed
}

func describe(obs astro.Observer) string {
	pos := astro.FormatLatitude(obs.LatDeg) + " " + astro.FormatLongitude(obs.LonDeg)
	if obs.Name != "" {
		return obs.Name + " (" + pos + ")"
	}
	return pos
}
