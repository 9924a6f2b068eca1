package api

import (
	"bytes"
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/catalog"
	"github.com/litescript/ls-comets/internal/logging"
	"github.com/litescript/ls-comets/internal/report"
	"github.com/litescript/ls-comets/internal/visibility"
)

var validate = validator.New()

// Forecaster computes bucketed visibility for a query.
type Forecaster interface {
	Forecast(ctx context.Context, q visibility.Query) (visibility.DailyBuckets, error)
}

// Searcher finds catalog comets by name.
type Searcher interface {
	Search(ctx context.Context, q string, limit int) ([]catalog.Entry, error)
}

// Warmer runs the cache warm-up job on demand.
type Warmer interface {
	RunOnce(ctx context.Context) int
}

// Deps are the services behind the routes. Searcher and Warmer are
// optional; their routes answer 404 without them.
type Deps struct {
	Forecaster Forecaster
	Searcher   Searcher
	Warmer     Warmer
	Defaults   Defaults
	Logger     *logging.Logger
	Now        func() time.Time
}

// Defaults fill in thresholds and steps a request leaves out.
type Defaults struct {
	MinCometAlt float64
	MaxSunAlt   float64
	CoarseStep  time.Duration
	FineStep    time.Duration
}

// RegisterRoutes wires the v1 handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Defaults.CoarseStep <= 0 {
		deps.Defaults.CoarseStep = visibility.DefaultCoarseStep
	}
	if deps.Defaults.FineStep <= 0 {
		deps.Defaults.FineStep = visibility.DefaultFineStep
	}

	v1 := app.Group("/api/v1")

	v1.Get("/visibility", func(c *fiber.Ctx) error {
		req := newVisibilityQuery(deps.Defaults)
		if err := c.QueryParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		q, err := req.toQuery(deps.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		q.CoarseStep = deps.Defaults.CoarseStep
		q.FineStep = deps.Defaults.FineStep

		buckets, err := deps.Forecaster.Forecast(c.UserContext(), q)
		if err != nil {
			return err
		}

		rep := report.New(report.Meta{
			Comet:       req.Comet,
			Observer:    q.Observer,
			Start:       q.Start,
			Days:        q.Days,
			MinCometAlt: q.MinCometAlt,
			MaxSunAlt:   q.MaxSunAlt,
		}, buckets, q.Location, deps.Now())

		if req.Format == "text" {
			var buf bytes.Buffer
			report.WriteText(&buf, rep)
			c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
			return c.Send(buf.Bytes())
		}
		return c.JSON(rep)
	})

	v1.Get("/comets", func(c *fiber.Ctx) error {
		if deps.Searcher == nil {
			return fiber.NewError(fiber.StatusNotFound, "comet catalog not configured")
		}

		var req cometQuery
		req.Limit = 20
		if err := c.QueryParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entries, err := deps.Searcher.Search(c.UserContext(), req.Q, req.Limit)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"query":  req.Q,
			"count":  len(entries),
			"comets": entries,
		})
	})

	v1.Post("/cache/warmup", func(c *fiber.Ctx) error {
		if deps.Warmer == nil {
			return fiber.NewError(fiber.StatusNotFound, "warm-up not configured")
		}
		failed := deps.Warmer.RunOnce(c.UserContext())
		return c.JSON(fiber.Map{"failed": failed})
	})
}

// visibilityQuery holds query parameters for the visibility endpoint.
type visibilityQuery struct {
	Comet       string  `query:"comet" validate:"required"`
	Lat         string  `query:"lat" validate:"required"`
	Lon         string  `query:"lon" validate:"required"`
	TZ          string  `query:"tz"`
	Start       string  `query:"start" validate:"omitempty,datetime=2006-01-02"`
	Days        int     `query:"days" validate:"min=1,max=31"`
	MinCometAlt float64 `query:"min_comet_alt" validate:"min=-90,max=90"`
	MaxSunAlt   float64 `query:"max_sun_alt" validate:"min=-90,max=90"`
	NoCache     bool    `query:"no_cache"`
	Format      string  `query:"format" validate:"omitempty,oneof=json text"`
}

func newVisibilityQuery(d Defaults) visibilityQuery {
	return visibilityQuery{
		TZ:          "UTC",
		Days:        visibility.DefaultDays,
		MinCometAlt: d.MinCometAlt,
		MaxSunAlt:   d.MaxSunAlt,
	}
}

// toQuery resolves the zone, observer and start. An omitted start means
// local midnight today.
func (v visibilityQuery) toQuery(now time.Time) (visibility.Query, error) {
	loc, err := time.LoadLocation(v.TZ)
	if err != nil {
		return visibility.Query{}, err
	}
	obs, err := astro.ParseObserver(v.Lat, v.Lon)
	if err != nil {
		return visibility.Query{}, err
	}

	start := visibility.StartOfDay(now, loc)
	if v.Start != "" {
		if start, err = time.ParseInLocation(visibility.DateLayout, v.Start, loc); err != nil {
			return visibility.Query{}, err
		}
	}

	q := visibility.NewQuery(v.Comet, obs, loc, start)
	q.Days = v.Days
	q.MinCometAlt = v.MinCometAlt
	q.MaxSunAlt = v.MaxSunAlt
	q.NoCache = v.NoCache
	return q, nil
}

type cometQuery struct {
	Q     string `query:"q" validate:"required"`
	Limit int    `query:"limit" validate:"min=1,max=200"`
}
