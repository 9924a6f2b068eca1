// Package ephem provides apparent positions of the Sun and comets as seen by
// a topocentric observer.
package ephem

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/litescript/ls-comets/internal/astro"
)

// ErrUnknownBody is returned when a body designation cannot be resolved.
var ErrUnknownBody = errors.New("unknown body")

// BodyKind distinguishes the Sun from comets.
type BodyKind int

const (
	BodySun BodyKind = iota
	BodyComet
)

// String returns the kind name.
func (k BodyKind) String() string {
	switch k {
	case BodySun:
		return "sun"
	case BodyComet:
		return "comet"
	default:
		return "unknown"
	}
}

// Elements are heliocentric ecliptic (J2000) osculating elements of a comet.
type Elements struct {
	Perihelion   time.Time // time of perihelion passage (TT)
	PerihelionAU float64   // q
	Eccentricity float64   // e
	ArgPeriDeg   float64   // ω
	AscNodeDeg   float64   // Ω
	InclDeg      float64   // i
	Epoch        time.Time // epoch of osculation, zero if unperturbed
	AbsMagnitude float64   // H
	SlopeParam   float64   // G
	Reference    string
}

// Body identifies something a Provider can locate.
type Body struct {
	Kind        BodyKind
	Designation string    // "C/2020 F3"; empty for the Sun
	Name        string    // display name, e.g. "C/2020 F3 (NEOWISE)"
	Elements    *Elements // optional; providers may resolve by designation instead
}

// Sun is the Sun.
var Sun = Body{Kind: BodySun, Name: "Sun"}

// Comet returns a comet body resolved by designation only.
func Comet(designation string) Body {
	d := strings.TrimSpace(designation)
	return Body{Kind: BodyComet, Designation: d, Name: d}
}

// String returns the display name.
func (b Body) String() string {
	if b.Name != "" {
		return b.Name
	}
	if b.Kind == BodySun {
		return "Sun"
	}
	return b.Designation
}

// Provider returns apparent horizontal positions for a body.
type Provider interface {
	// Name returns the provider name for display/logging.
	Name() string

	// Positions returns one position per element of times, in the same
	// order. Times may be uniform or irregular. An unresolvable body yields
	// an error wrapping ErrUnknownBody.
	Positions(ctx context.Context, body Body, obs astro.Observer, times []time.Time) ([]astro.SkyCoord, error)
}

// Mode selects how providers are wired together.
type Mode int

const (
	ModeHorizons Mode = iota // Sun and comet from JPL Horizons
	ModeHybrid               // analytic Sun, comet from Horizons
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeHorizons:
		return "horizons"
	case ModeHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizons", "":
		return ModeHorizons, nil
	case "hybrid":
		return ModeHybrid, nil
	default:
		return ModeHorizons, fmt.Errorf("unknown ephemeris mode %q", s)
	}
}

// NewForMode builds the provider stack for a mode around a Horizons client.
func NewForMode(mode Mode, horizons *HorizonsProvider) Provider {
	if mode == ModeHybrid {
		return NewRouter(NewAnalyticProvider(), horizons)
	}
	return horizons
}
