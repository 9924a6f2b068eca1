package catalog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/litescript/ls-comets/internal/ephem"
)

// Entry is one comet from CometEls.txt.
type Entry struct {
	Designation string // "C/2020 F3", "1P/Halley"
	Name        string // "C/2020 F3 (NEOWISE)"
	Packed      string // "CK20F030"
	Elements    ephem.Elements
}

// Body returns the entry as an ephem.Body carrying its elements.
func (e Entry) Body() ephem.Body {
	el := e.Elements
	return ephem.Body{
		Kind:        ephem.BodyComet,
		Designation: e.Designation,
		Name:        e.Name,
		Elements:    &el,
	}
}

// Column ranges (0-based, half-open) of the MPC one-line comet format.
var (
	colPacked   = [2]int{4, 12}
	colYear     = [2]int{14, 18}
	colMonth    = [2]int{19, 21}
	colDay      = [2]int{22, 29}
	colQ        = [2]int{30, 39}
	colE        = [2]int{41, 49}
	colPeri     = [2]int{51, 59}
	colNode     = [2]int{61, 69}
	colIncl     = [2]int{71, 79}
	colEpoch    = [2]int{81, 89}
	colH        = [2]int{91, 95}
	colG        = [2]int{96, 100}
	colName     = [2]int{102, 158}
	colRefStart = 159
)

// Parse reads CometEls.txt. Malformed lines are skipped; an input with no
// usable line is an error.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	lines := 0

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines++

		e, err := parseLine(line)
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read comet elements: %w", err)
	}
	if len(entries) == 0 && lines > 0 {
		return nil, fmt.Errorf("no parseable comet elements in %d lines", lines)
	}
	return entries, nil
}

func parseLine(line string) (Entry, error) {
	if len(line) <= colName[0] {
		return Entry{}, fmt.Errorf("line too short: %d columns", len(line))
	}

	name := field(line, colName)
	if name == "" {
		return Entry{}, fmt.Errorf("missing designation")
	}

	year, err := atoi(line, colYear)
	if err != nil {
		return Entry{}, fmt.Errorf("perihelion year: %w", err)
	}
	month, err := atoi(line, colMonth)
	if err != nil || month < 1 || month > 12 {
		return Entry{}, fmt.Errorf("perihelion month %q", field(line, colMonth))
	}
	day, err := atof(line, colDay)
	if err != nil {
		return Entry{}, fmt.Errorf("perihelion day: %w", err)
	}

	var el ephem.Elements
	el.Perihelion = fractionalDate(year, time.Month(month), day)

	for _, f := range []struct {
		col [2]int
		dst *float64
		tag string
	}{
		{colQ, &el.PerihelionAU, "q"},
		{colE, &el.Eccentricity, "e"},
		{colPeri, &el.ArgPeriDeg, "peri"},
		{colNode, &el.AscNodeDeg, "node"},
		{colIncl, &el.InclDeg, "incl"},
	} {
		v, err := atof(line, f.col)
		if err != nil {
			return Entry{}, fmt.Errorf("%s: %w", f.tag, err)
		}
		*f.dst = v
	}

	// Optional columns.
	if s := field(line, colEpoch); s != "" {
		if t, err := time.Parse("20060102", s); err == nil {
			el.Epoch = t
		}
	}
	if v, err := atof(line, colH); err == nil {
		el.AbsMagnitude = v
	}
	if v, err := atof(line, colG); err == nil {
		el.SlopeParam = v
	}
	if len(line) > colRefStart {
		el.Reference = strings.TrimSpace(line[colRefStart:])
	}

	return Entry{
		Designation: bareDesignation(name),
		Name:        name,
		Packed:      field(line, colPacked),
		Elements:    el,
	}, nil
}

// bareDesignation strips a trailing "(Discoverer)" from a name.
func bareDesignation(name string) string {
	if i := strings.Index(name, " ("); i > 0 {
		return strings.TrimSpace(name[:i])
	}
	return name
}

func fractionalDate(year int, month time.Month, day float64) time.Time {
	whole := int(day)
	frac := day - float64(whole)
	return time.Date(year, month, whole, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(frac * 24 * float64(time.Hour))).
		Round(time.Second)
}

func field(line string, col [2]int) string {
	lo, hi := col[0], col[1]
	if lo >= len(line) {
		return ""
	}
	if hi > len(line) {
		hi = len(line)
	}
	return strings.TrimSpace(line[lo:hi])
}

func atoi(line string, col [2]int) (int, error) {
	return strconv.Atoi(field(line, col))
}

func atof(line string, col [2]int) (float64, error) {
	return strconv.ParseFloat(field(line, col), 64)
}
