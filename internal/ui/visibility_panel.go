package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-comets/internal/astro"
	"github.com/litescript/ls-comets/internal/report"
	"github.com/litescript/ls-comets/internal/visibility"
)

// Visibility display colors
const (
	colorVisHigh   = "#7CFC00" // Lawn green - high elevation
	colorVisMedium = "#FFD700" // Gold - medium elevation
	colorVisLow    = "#FF6347" // Tomato - low elevation
	colorVisNone   = "#444444" // Dark gray - not visible
)

type dayDetail struct {
	summary report.DaySummary
	day     visibility.Day
}

// RenderDayList renders one line per day with a bar for each half.
// Format:
//
//	▶ 2020-07-10  AM █░░░ 03:12 NE 1h15m   PM ██░░ 21:40 NW 50m
//	  2020-07-11  AM ░░░░                  PM ░░░░
func RenderDayList(days []report.DaySummary, selected int) string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)

	lines := make([]string, 0, len(days))
	for i, d := range days {
		var date string
		if i == selected {
			date = activeStyle.Render("▶ " + d.Date)
		} else {
			date = dimStyle.Render("  " + d.Date)
		}
		lines = append(lines, "  "+date+"  "+renderHalf("AM", d.Morning)+"   "+renderHalf("PM", d.Evening))
	}
	return strings.Join(lines, "\n")
}

// renderHalf renders the bar segment and a short label for one half-day.
func renderHalf(label string, s *report.Sighting) string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	out := labelStyle.Render(label + " ")

	if s == nil {
		dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
		return out + dimStyle.Render(fmt.Sprintf("%-4s %-16s", tierToBar(astro.ElevationNone), ""))
	}

	text := fmt.Sprintf("%s %-3s %s", s.FirstSeen.Format("15:04"), s.Direction, report.FormatDuration(s.Duration))
	return out + colorByTier(s.Tier, fmt.Sprintf("%-4s %-16s", tierToBar(s.Tier), text))
}

// RenderDayDetail renders the instances of one day and its twilight times.
// Format:
//
//	2020-07-10   nautical dawn 04:18   dusk 21:44
//	  03:12 NE   1.0° → 04:27  14.0°   1h15m
func RenderDayDetail(d *dayDetail, obs astro.Observer, loc *time.Location) string {
	if d == nil {
		return ""
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("135")).Bold(true)

	header := labelStyle.Render(d.day.Date)
	if tw, err := report.NauticalTwilight(obs, d.day.Date, loc); err == nil {
		header += dimStyle.Render(fmt.Sprintf("   nautical dawn %s   dusk %s", clock(tw.Dawn), clock(tw.Dusk)))
	}
	lines := []string{"  " + header}

	if len(d.day.Instances) == 0 {
		lines = append(lines, "    "+dimStyle.Render("Not visible"))
		return strings.Join(lines, "\n")
	}

	for _, inst := range d.day.Instances {
		peak := inst.Begin.Comet.ElDeg
		if inst.End.Comet.ElDeg > peak {
			peak = inst.End.Comet.ElDeg
		}
		line := fmt.Sprintf("%s %-3s %5.1f° → %s %5.1f°   %s",
			inst.Begin.Time.In(loc).Format("15:04"), inst.Direction, inst.Begin.Comet.ElDeg,
			inst.End.Time.In(loc).Format("15:04"), inst.End.Comet.ElDeg,
			report.FormatDuration(inst.Duration))
		lines = append(lines, "    "+colorByTier(astro.GetElevationTier(peak), line))
	}
	return strings.Join(lines, "\n")
}

// tierToBar converts elevation tier to a 4-character bar representation.
func tierToBar(tier astro.ElevationTier) string {
	switch tier {
	case astro.ElevationHigh:
		return "████"
	case astro.ElevationMedium:
		return "██░░"
	case astro.ElevationLow:
		return "█░░░"
	default:
		return "░░░░"
	}
}

// tierToColor returns the color for an elevation tier.
func tierToColor(tier astro.ElevationTier) string {
	switch tier {
	case astro.ElevationHigh:
		return colorVisHigh
	case astro.ElevationMedium:
		return colorVisMedium
	case astro.ElevationLow:
		return colorVisLow
	default:
		return colorVisNone
	}
}

// colorByTier applies tier-based coloring to text.
func colorByTier(tier astro.ElevationTier, text string) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(tierToColor(tier)))
	return style.Render(text)
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.Format("15:04")
}

func describeObserver(meta report.Meta) string {
	pos := astro.FormatLatitude(meta.Observer.LatDeg) + " " + astro.FormatLongitude(meta.Observer.LonDeg)
	if meta.Observer.Name != "" {
		return meta.Observer.Name + " (" + pos + ")"
	}
	return pos
}
