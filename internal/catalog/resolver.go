package catalog

import (
	"context"
	"errors"

	"github.com/litescript/ls-comets/internal/ephem"
	"github.com/litescript/ls-comets/internal/logging"
)

// Resolver resolves designations through a Loader. When the catalog itself
// cannot be loaded it falls back to a designation-only body so the
// ephemeris service can still try to resolve the comet by name.
type Resolver struct {
	loader *Loader
	logger *logging.Logger
}

// NewResolver creates a Resolver.
func NewResolver(l *Loader, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Resolver{loader: l, logger: logger}
}

// Body returns the catalog body for designation. A designation the loaded
// catalog does not contain is ephem.ErrUnknownBody.
func (r *Resolver) Body(ctx context.Context, designation string) (ephem.Body, error) {
	b, err := r.loader.Body(ctx, designation)
	if err == nil || errors.Is(err, ephem.ErrUnknownBody) {
		return b, err
	}
	if ctx.Err() != nil {
		return ephem.Body{}, ctx.Err()
	}

	r.logger.Warn("comet catalog unavailable, resolving %q by designation: %v", designation, err)
	return ephem.Comet(designation), nil
}
