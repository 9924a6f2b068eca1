// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - HTTP API, scheduled cache warm-up, Redis result cache
// 0.2.0 - MPC orbital elements, report browser TUI, JSON export
// 0.1.0 - Initial release: two-pass visibility search against JPL Horizons
