// Package ui provides the terminal report browser using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-comets/internal/report"
	"github.com/litescript/ls-comets/internal/version"
)

// Msg types for Bubble Tea
type (
	// AnimTickMsg triggers spinner updates while loading.
	AnimTickMsg time.Time

	// ReportMsg delivers a computed report.
	ReportMsg struct {
		Report   report.Report
		Duration time.Duration
	}

	// ErrorMsg signals a failed forecast.
	ErrorMsg struct {
		Error error
	}
)

// LoadFunc computes a report. refresh asks for a recomputation that skips
// the result cache.
type LoadFunc func(refresh bool) (report.Report, error)

// Model is the root Bubble Tea model.
type Model struct {
	load LoadFunc

	// UI state
	width    int
	height   int
	ready    bool
	loading  bool
	animTick int
	selected int
	offset   int // first visible row of the day list
	err      error

	report    report.Report
	loaded    bool
	loadTime  time.Duration
	statusMsg string
}

// New creates a browser that loads its report with load.
func New(load LoadFunc) Model {
	return Model{load: load, loading: load != nil}
}

// NewWithReport creates a browser over an already computed report.
func NewWithReport(r report.Report) Model {
	return Model{report: r, loaded: true}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.load == nil {
		return nil
	}
	return tea.Batch(animTickCmd(), loadCmd(m.load, false))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.selectDay(m.selected - 1)
		case "down", "j":
			m.selectDay(m.selected + 1)
		case "pgup":
			m.selectDay(m.selected - m.listHeight())
		case "pgdown":
			m.selectDay(m.selected + m.listHeight())
		case "home", "g":
			m.selectDay(0)
		case "end", "G":
			m.selectDay(len(m.report.Summaries) - 1)
		case "v":
			if i, ok := m.nextVisible(); ok {
				m.selectDay(i)
			} else {
				m.statusMsg = "No later visible day"
			}
		case "r":
			if m.load != nil && !m.loading {
				m.loading = true
				m.err = nil
				m.statusMsg = "Recomputing without cache..."
				cmds = append(cmds, animTickCmd(), loadCmd(m.load, true))
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.selectDay(m.selected)

	case AnimTickMsg:
		m.animTick++
		if m.loading {
			cmds = append(cmds, animTickCmd())
		}

	case ReportMsg:
		m.report = msg.Report
		m.loaded = true
		m.loading = false
		m.loadTime = msg.Duration
		m.statusMsg = ""
		m.selectDay(m.selected)

	case ErrorMsg:
		m.err = msg.Error
		m.loading = false
		m.statusMsg = ""
	}

	return m, tea.Batch(cmds...)
}

// Selected returns the index of the highlighted day.
func (m Model) Selected() int {
	return m.selected
}

func (m *Model) selectDay(i int) {
	n := len(m.report.Summaries)
	if n == 0 {
		m.selected, m.offset = 0, 0
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	m.selected = i

	// Keep the selection inside the scrolled list.
	h := m.listHeight()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+h {
		m.offset = m.selected - h + 1
	}
}

// nextVisible finds the first day after the selection with a sighting,
// wrapping to the start.
func (m Model) nextVisible() (int, bool) {
	n := len(m.report.Summaries)
	for step := 1; step <= n; step++ {
		i := (m.selected + step) % n
		if m.report.Summaries[i].Visible() {
			return i, true
		}
	}
	return 0, false
}

func (m Model) listHeight() int {
	// title ~4 lines, footer ~2, detail panel below the list ~12
	h := m.height - 18
	if h < 5 {
		h = 5
	}
	return h
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch {
	case m.err != nil && !m.loaded:
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
		content = "\n  " + errorStyle.Render("Forecast failed: "+m.err.Error()) + "\n"
	case !m.loaded:
		content = "\n  " + m.renderShimmerText("Computing visibility windows...") + "\n"
	default:
		content = m.renderReport()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	var b strings.Builder
	b.WriteString("\n  ")
	title := "LS-COMETS"
	runes := []rune(title)
	for col, r := range runes {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(gradientColor(col, 0, len(runes), 1)))
		b.WriteString(style.Render(string(r)))
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(fmt.Sprintf("  comet visibility · v%s", version.Version)))
	b.WriteString("\n")

	if m.loaded {
		meta := m.report.Meta
		b.WriteString(muted.Render(fmt.Sprintf("  %s · %s · %s · comet > %.1f° · sun < %.1f°",
			meta.Comet, describeObserver(meta), m.report.Location().String(), meta.MinCometAlt, meta.MaxSunAlt)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderReport() string {
	sums := m.report.Summaries
	if len(sums) == 0 {
		dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
		return "  " + dimStyle.Render("No days in range")
	}

	end := m.offset + m.listHeight()
	if end > len(sums) {
		end = len(sums)
	}

	var b strings.Builder
	b.WriteString(RenderDayList(sums[m.offset:end], m.selected-m.offset))
	b.WriteString("\n\n")

	var day *dayDetail
	if m.selected < len(m.report.Buckets.Days) {
		day = &dayDetail{
			summary: sums[m.selected],
			day:     m.report.Buckets.Days[m.selected],
		}
	}
	b.WriteString(RenderDayDetail(day, m.report.Meta.Observer, m.report.Location()))
	return b.String()
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	switch {
	case m.loading:
		status = accentStyle.Render(spinner) + dimStyle.Render(" computing")
	case m.err != nil:
		status = errorStyle.Render("ERROR: " + m.err.Error())
	case m.loaded:
		visible := 0
		for _, s := range m.report.Summaries {
			if s.Visible() {
				visible++
			}
		}
		status = dimStyle.Render(fmt.Sprintf("visible on %d of %d days", visible, len(m.report.Summaries)))
		if m.loadTime > 0 {
			status += dimStyle.Render(" (" + m.loadTime.Round(time.Millisecond).String() + ")")
		}
	}

	help := dimStyle.Render("↑↓/jk: day | v: next visible | g/G: first/last | r: recompute | q: quit")
	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + help
	if m.statusMsg != "" {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}
	return footer
}

// gradientColor returns a hex color for a position in the title gradient:
// blue -> purple -> magenta -> pink, fading toward the bottom rows.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64
	if xRatio < 0.33 {
		// Blue to Purple
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	} else if xRatio < 0.66 {
		// Purple to Magenta
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	} else {
		// Magenta to Pink
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	fade := 1.0 - (yRatio * 0.5)
	return fmt.Sprintf("#%02X%02X%02X", clampByte(r*fade), clampByte(g*fade), clampByte(b*fade))
}

func clampByte(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return int(v)
	}
}

// renderShimmerText renders text with a highlight sweeping across it.
func (m Model) renderShimmerText(text string) string {
	runes := []rune(text)
	pos := m.animTick % (len(runes) + 6)
	var b strings.Builder
	for i, r := range runes {
		color := "60"
		if d := i - pos; d >= -2 && d <= 2 {
			color = "#C77DFF"
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(r)))
	}
	return b.String()
}

func animTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

func loadCmd(load LoadFunc, refresh bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		r, err := load(refresh)
		if err != nil {
			return ErrorMsg{Error: err}
		}
		return ReportMsg{Report: r, Duration: time.Since(start)}
	}
}
