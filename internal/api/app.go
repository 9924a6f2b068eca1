// Package api serves visibility forecasts over HTTP.
package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/ephem"
	"github.com/litescript/ls-comets/internal/logging"
	"github.com/litescript/ls-comets/internal/metrics"
	"github.com/litescript/ls-comets/internal/version"
	"github.com/litescript/ls-comets/internal/visibility"
)

// NewApp builds the fiber app with middleware, health, metrics and the v1
// routes.
func NewApp(deps Deps) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}

	app := fiber.New(fiber.Config{
		AppName:               "ls-comets",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          5 * time.Minute, // cold forecasts query Horizons
		ErrorHandler:          errorHandler(deps.Logger),
	})

	app.Use(recover.New())
	app.Use(observe(deps.Logger))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "ls-comets",
			"version": version.Version,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	RegisterRoutes(app, deps)
	return app
}

// observe records request metrics and logs each request at DEBUG.
func observe(logger *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		code := c.Response().StatusCode()
		if err != nil {
			code = statusFor(err)
		}
		elapsed := time.Since(start)
		metrics.ObserveHTTP(c.Path(), c.Method(), code, elapsed)
		logger.Debug("%s %s %d %v", c.Method(), c.Path(), code, elapsed.Round(time.Millisecond))
		return err
	}
}

func errorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)
		msg := err.Error()
		if code == fiber.StatusInternalServerError {
			logger.Error("%s %s: %v", c.Method(), c.Path(), err)
			msg = "internal error"
		}
		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": msg,
		})
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, ephem.ErrUnknownBody):
		return fiber.StatusNotFound
	case errors.Is(err, astro.ErrInvalidCoordinate), errors.Is(err, visibility.ErrInvalidRequest):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
