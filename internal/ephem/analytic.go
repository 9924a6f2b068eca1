package ephem

import (
	"context"
	"fmt"
	"time"

	"github.com/litescript/ls-comets/internal/astro"
)

// AnalyticProvider computes Sun positions locally. It knows nothing about
// comets.
type AnalyticProvider struct{}

// NewAnalyticProvider creates an analytic Sun provider.
func NewAnalyticProvider() *AnalyticProvider {
	return &AnalyticProvider{}
}

// Name implements Provider.
func (p *AnalyticProvider) Name() string {
	return "analytic"
}

// Positions implements Provider.
func (p *AnalyticProvider) Positions(ctx context.Context, body Body, obs astro.Observer, times []time.Time) ([]astro.SkyCoord, error) {
	if body.Kind != BodySun {
		return nil, fmt.Errorf("analytic provider: %s: %w", body, ErrUnknownBody)
	}

	out := make([]astro.SkyCoord, len(times))
	for i, t := range times {
		if i%4096 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		out[i] = astro.SunHorizontal(obs, t)
	}
	return out, nil
}

// Router sends Sun queries to one provider and comet queries to another.
type Router struct {
	sun   Provider
	comet Provider
}

// NewRouter creates a Router.
func NewRouter(sun, comet Provider) *Router {
	return &Router{sun: sun, comet: comet}
}

// Name implements Provider.
func (r *Router) Name() string {
	return fmt.Sprintf("%s+%s", r.sun.Name(), r.comet.Name())
}

// Positions implements Provider.
func (r *Router) Positions(ctx context.Context, body Body, obs astro.Observer, times []time.Time) ([]astro.SkyCoord, error) {
	if body.Kind == BodySun {
		return r.sun.Positions(ctx, body, obs, times)
	}
	return r.comet.Positions(ctx, body, obs, times)
}
