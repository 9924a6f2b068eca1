// Command ls-comets reports when a comet is visible from a location: above a
// minimum altitude while the Sun is below a maximum altitude.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/catalog"
	"github.com/litescript/ls-comets/internal/config"
	"github.com/litescript/ls-comets/internal/ephem"
	"github.com/litescript/ls-comets/internal/logging"
	"github.com/litescript/ls-comets/internal/report"
	"github.com/litescript/ls-comets/internal/store"
	"github.com/litescript/ls-comets/internal/ui"
	"github.com/litescript/ls-comets/internal/visibility"
)

// CLI flags
var (
	cometName   string
	latStr      string
	lonStr      string
	tzName      string
	startStr    string
	days        int
	minCometAlt float64
	maxSunAlt   float64
	coarseStep  time.Duration
	fineStep    time.Duration
	jsonMode    bool
	outPath     string
	tuiMode     bool
	noCache     bool
	noRefine    bool
	ephemMode   string
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: config: %v\n", err)
		os.Exit(2)
	}

	flag.StringVar(&cometName, "comet", "", `Comet designation, e.g. "C/2020 F3" or "C/2020 F3 (NEOWISE)"`)
	flag.StringVar(&latStr, "lat", "", `Observer latitude, e.g. "36.96 N" or -33.9`)
	flag.StringVar(&lonStr, "lon", "", `Observer longitude, e.g. "86.49 W" or 151.2`)
	flag.StringVar(&tzName, "tz", "Local", "IANA time zone for dates and times (e.g. US/Central)")
	flag.StringVar(&startStr, "start", "", "Start date (2006-01-02 or 2006-01-02T15:04, local); default today")
	flag.IntVar(&days, "days", visibility.DefaultDays, "Number of days to search")
	flag.Float64Var(&minCometAlt, "min-comet-alt", cfg.Visibility.MinCometAlt, "Comet must be above this altitude (degrees)")
	flag.Float64Var(&maxSunAlt, "max-sun-alt", cfg.Visibility.MaxSunAlt, "Sun must be below this altitude (degrees)")
	flag.DurationVar(&coarseStep, "coarse", cfg.Visibility.CoarseStep, "Coarse pass step")
	flag.DurationVar(&fineStep, "fine", cfg.Visibility.FineStep, "Fine pass step")
	flag.BoolVar(&jsonMode, "json", false, "Write the report as JSON")
	flag.StringVar(&outPath, "out", "-", "Output file (use - for stdout)")
	flag.BoolVar(&tuiMode, "tui", false, "Browse the report interactively")
	flag.BoolVar(&noCache, "no-cache", false, "Bypass the result cache")
	flag.BoolVar(&noRefine, "no-refine", false, "Single pass at the fine step instead of coarse-then-fine")
	flag.StringVar(&ephemMode, "ephem", cfg.Ephemeris.Mode.String(), "Ephemeris source (horizons, hybrid)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := logging.New(logging.ParseLevel(*logLevel))

	q, err := buildQuery()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	mode, err := ephem.ParseMode(ephemMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	forecaster, closeStore, err := buildForecaster(cfg, mode, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	meta := report.Meta{
		Comet:       cometName,
		Observer:    q.Observer,
		Start:       q.Start,
		Days:        q.Days,
		MinCometAlt: q.MinCometAlt,
		MaxSunAlt:   q.MaxSunAlt,
	}
	load := func(refresh bool) (report.Report, error) {
		rq := q
		rq.NoCache = q.NoCache || refresh
		buckets, err := forecaster.Forecast(ctx, rq)
		if err != nil {
			return report.Report{}, err
		}
		return report.New(meta, buckets, q.Location, time.Now()), nil
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	if tuiMode {
		if !isTTY {
			fmt.Fprintln(os.Stderr, "Error: -tui needs a terminal")
			os.Exit(2)
		}
		// Keep log lines from tearing the alt screen.
		logger.SetLevel(logging.LevelError + 1)

		p := tea.NewProgram(ui.New(load), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
			os.Exit(1)
		}
		return
	}

	rep, err := load(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, ephem.ErrUnknownBody) {
			os.Exit(3)
		}
		os.Exit(1)
	}

	if err := writeReport(rep); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildQuery turns flags into a forecast query.
func buildQuery() (visibility.Query, error) {
	if strings.TrimSpace(cometName) == "" {
		return visibility.Query{}, errors.New("-comet is required")
	}
	if latStr == "" || lonStr == "" {
		return visibility.Query{}, errors.New("-lat and -lon are required")
	}

	obs, err := astro.ParseObserver(latStr, lonStr)
	if err != nil {
		return visibility.Query{}, err
	}

	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return visibility.Query{}, fmt.Errorf("time zone %q: %w", tzName, err)
	}

	start, err := parseStart(startStr, loc, time.Now())
	if err != nil {
		return visibility.Query{}, err
	}

	q := visibility.NewQuery(cometName, obs, loc, start)
	q.Days = days
	q.MinCometAlt = minCometAlt
	q.MaxSunAlt = maxSunAlt
	q.CoarseStep = coarseStep
	q.FineStep = fineStep
	q.NoCache = noCache
	q.SinglePass = noRefine
	return q, nil
}

// parseStart accepts a local date or date-time. Empty means local midnight
// today.
func parseStart(s string, loc *time.Location, now time.Time) (time.Time, error) {
	if s == "" {
		return visibility.StartOfDay(now, loc), nil
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02 15:04", visibility.DateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid -start %q; use 2006-01-02 or 2006-01-02T15:04", s)
}

// buildForecaster wires provider, catalog, store and cache from config.
func buildForecaster(cfg *config.Config, mode ephem.Mode, logger *logging.Logger) (*visibility.Forecaster, func(), error) {
	horizons := ephem.NewHorizonsProvider(
		ephem.WithBaseURL(cfg.Ephemeris.HorizonsURL),
		ephem.WithLogger(logger.Component("horizons")),
	)
	provider := ephem.NewForMode(mode, horizons)
	logger.Debug("ephemeris: %s", provider.Name())

	var resolver visibility.Resolver
	if cfg.Catalog.Path != "" || cfg.Catalog.URL != "off" {
		opts := []catalog.LoaderOption{catalog.WithLogger(logger.Component("catalog"))}
		if cfg.Catalog.Path != "" {
			opts = append(opts, catalog.WithPath(cfg.Catalog.Path))
		} else {
			opts = append(opts, catalog.WithURL(cfg.Catalog.URL))
		}
		resolver = catalog.NewResolver(catalog.NewLoader(opts...), logger.Component("catalog"))
	}

	st, err := store.New(cfg.Cache.StoreOptions())
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {}
	if c, ok := st.(interface{ Close() error }); ok {
		closeStore = func() { _ = c.Close() }
	}

	var cache *visibility.ResultCache
	if st != nil {
		cache = visibility.NewResultCache(st,
			visibility.WithTimeout(cfg.Cache.Timeout),
			visibility.WithCacheLogger(logger.Component("cache")),
		)
	}

	refiner := visibility.NewRefiner(visibility.NewSampler(provider), logger.Component("refiner"))
	return visibility.NewForecaster(resolver, refiner, cache, cfg.Cache.TTL, logger.Component("forecast")), closeStore, nil
}

func writeReport(rep report.Report) error {
	out := os.Stdout
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if jsonMode {
		if err := report.WriteJSON(out, rep); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		return nil
	}
	report.WriteText(out, rep)
	return nil
}
