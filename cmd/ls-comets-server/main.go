// Command ls-comets-server serves comet visibility forecasts over HTTP and
// keeps forecasts for watched locations warm in the result cache.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/litescript/ls-comets/internal/api"
	"github.com/litescript/ls-comets/internal/catalog"
	"github.com/litescript/ls-comets/internal/config"
	"github.com/litescript/ls-comets/internal/ephem"
	"github.com/litescript/ls-comets/internal/logging"
	"github.com/litescript/ls-comets/internal/scheduler"
	"github.com/litescript/ls-comets/internal/store"
	"github.com/litescript/ls-comets/internal/visibility"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: config: %v\n", err)
		os.Exit(2)
	}

	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	logger.SetFormat(logging.FormatJSON)
	log := logger.Component("server")

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	horizons := ephem.NewHorizonsProvider(
		ephem.WithBaseURL(cfg.Ephemeris.HorizonsURL),
		ephem.WithLogger(logger.Component("horizons")),
	)
	provider := ephem.NewForMode(cfg.Ephemeris.Mode, horizons)

	loaderOpts := []catalog.LoaderOption{catalog.WithLogger(logger.Component("catalog"))}
	if cfg.Catalog.Path != "" {
		loaderOpts = append(loaderOpts, catalog.WithPath(cfg.Catalog.Path))
	} else {
		loaderOpts = append(loaderOpts, catalog.WithURL(cfg.Catalog.URL))
	}
	loader := catalog.NewLoader(loaderOpts...)

	st, err := store.New(cfg.Cache.StoreOptions())
	if err != nil {
		log.Error("cache store: %v", err)
		os.Exit(1)
	}
	var cache *visibility.ResultCache
	if st != nil {
		if rs, ok := st.(*store.RedisStore); ok {
			defer rs.Close()
			pingCtx, cancel := context.WithTimeout(ctx, cfg.Cache.Timeout)
			if err := rs.Ping(pingCtx); err != nil {
				log.Warn("redis at %s unreachable, serving uncached until it recovers: %v", cfg.Cache.RedisAddr, err)
			}
			cancel()
		}
		cache = visibility.NewResultCache(st,
			visibility.WithTimeout(cfg.Cache.Timeout),
			visibility.WithCacheLogger(logger.Component("cache")),
		)
	}

	refiner := visibility.NewRefiner(visibility.NewSampler(provider), logger.Component("refiner"))
	forecaster := visibility.NewForecaster(
		catalog.NewResolver(loader, logger.Component("catalog")),
		refiner, cache, cfg.Cache.TTL, logger.Component("forecast"),
	)

	// Scheduler that keeps watched forecasts warm.
	var warmer *scheduler.Warmer
	if cfg.Server.WatchComet != "" && len(cfg.Server.WatchLocations) > 0 {
		zone, err := time.LoadLocation(cfg.Server.WatchZone)
		if err != nil {
			log.Error("WATCH_TZ: %v", err)
			os.Exit(2)
		}
		targets := make([]scheduler.Target, 0, len(cfg.Server.WatchLocations))
		for _, wl := range cfg.Server.WatchLocations {
			targets = append(targets, scheduler.Target{Designation: cfg.Server.WatchComet, Observer: wl.Observer})
		}
		warmer = scheduler.New(forecaster, targets, scheduler.Options{
			Schedule:    cfg.Server.WarmSchedule,
			Location:    zone,
			Days:        cfg.Server.WatchDays,
			MinCometAlt: cfg.Visibility.MinCometAlt,
			MaxSunAlt:   cfg.Visibility.MaxSunAlt,
			CoarseStep:  cfg.Visibility.CoarseStep,
			FineStep:    cfg.Visibility.FineStep,
		}, logger.Component("warmup"))
		if err := warmer.Start(); err != nil {
			log.Error("failed to start scheduler: %v", err)
			os.Exit(1)
		}
		defer warmer.Stop()
	}

	deps := api.Deps{
		Forecaster: forecaster,
		Searcher:   loader,
		Defaults: api.Defaults{
			MinCometAlt: cfg.Visibility.MinCometAlt,
			MaxSunAlt:   cfg.Visibility.MaxSunAlt,
			CoarseStep:  cfg.Visibility.CoarseStep,
			FineStep:    cfg.Visibility.FineStep,
		},
		Logger: logger.Component("api"),
	}
	if warmer != nil {
		deps.Warmer = warmer
	}
	app := api.NewApp(deps)

	go func() {
		log.Info("listening on %s (ephemeris %s, cache %s)", cfg.Server.Addr, provider.Name(), cfg.Cache.Backend)
		if err := app.Listen(cfg.Server.Addr); err != nil {
			log.Error("fiber server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown: %v", err)
	}
}
