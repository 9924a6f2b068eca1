package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-comets/internal/astro"
)

// Tier colors follow the elevation buckets.
var tierColors = map[astro.ElevationTier]lipgloss.Color{
	astro.ElevationNone:   lipgloss.Color("240"),
	astro.ElevationLow:    lipgloss.Color("214"),
	astro.ElevationMedium: lipgloss.Color("228"),
	astro.ElevationHigh:   lipgloss.Color("82"),
}

type textStyles struct {
	title lipgloss.Style
	dim   lipgloss.Style
	none  lipgloss.Style
	tier  map[astro.ElevationTier]lipgloss.Style
}

func newTextStyles(w io.Writer) textStyles {
	r := lipgloss.NewRenderer(w)
	s := textStyles{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		dim:   r.NewStyle().Foreground(lipgloss.Color("245")),
		none:  r.NewStyle().Foreground(lipgloss.Color("240")),
		tier:  make(map[astro.ElevationTier]lipgloss.Style, len(tierColors)),
	}
	for t, c := range tierColors {
		s.tier[t] = r.NewStyle().Foreground(c)
	}
	return s
}

// WriteText renders one row per day with morning and evening sightings and
// nautical twilight times. Styling is dropped when w is not a terminal.
func WriteText(w io.Writer, r Report) {
	st := newTextStyles(w)
	loc := r.Location()

	fmt.Fprintln(w, st.title.Render(fmt.Sprintf("%s from %s, %s",
		r.Meta.Comet, formatObserver(r.Meta.Observer), loc.String())))
	fmt.Fprintln(w, st.dim.Render(fmt.Sprintf("comet above %.1f°, Sun below %.1f°, %d day(s) from %s",
		r.Meta.MinCometAlt, r.Meta.MaxSunAlt, r.Meta.Days, r.Meta.Start.In(loc).Format("2006-01-02 15:04 MST"))))
	fmt.Fprintln(w, strings.Repeat("─", 96))

	fmt.Fprintf(w, "%-10s  %-11s  %-36s  %-36s\n", "Date", "Dawn/Dusk", "Morning", "Evening")
	fmt.Fprintln(w, strings.Repeat("─", 96))

	visibleDays := 0
	for _, s := range r.Summaries {
		if s.Visible() {
			visibleDays++
		}
		fmt.Fprintf(w, "%-10s  %-11s  %s  %s\n",
			s.Date,
			twilightCell(r.Meta.Observer, s.Date, loc),
			sightingCell(st, s.Morning),
			sightingCell(st, s.Evening),
		)
	}

	fmt.Fprintf(w, "\nVisible on %d of %d days\n", visibleDays, len(r.Summaries))
}

func sightingCell(st textStyles, s *Sighting) string {
	if s == nil {
		return st.none.Render(fmt.Sprintf("%-36s", "not visible"))
	}
	cell := fmt.Sprintf("%s %-3s %3.0f° → %s %3.0f° (%s)",
		s.FirstSeen.Format("15:04"), s.Direction, s.FirstAlt,
		s.LastSeen.Format("15:04"), s.LastAlt, FormatDuration(s.Duration))
	return st.tier[s.Tier].Render(fmt.Sprintf("%-36s", cell))
}

func twilightCell(obs astro.Observer, date string, loc *time.Location) string {
	tw, err := NauticalTwilight(obs, date, loc)
	if err != nil {
		return "--:--/--:--"
	}
	return clock(tw.Dawn) + "/" + clock(tw.Dusk)
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.Format("15:04")
}

func formatObserver(obs astro.Observer) string {
	pos := astro.FormatLatitude(obs.LatDeg) + " " + astro.FormatLongitude(obs.LonDeg)
	if obs.Name != "" {
		return obs.Name + " (" + pos + ")"
	}
	return pos
}

// FormatDuration renders durations as "1h05m" or "42m".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
