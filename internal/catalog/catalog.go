// Package catalog loads comet orbital elements from the Minor Planet
// Center's CometEls.txt and resolves designations to ephemeris bodies.
package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/litescript/ls-comets/internal/ephem"
)

// numberedPeriodic matches "1P/Halley" style names and captures "1P".
var numberedPeriodic = regexp.MustCompile(`^(\d+[PD])(?:-[A-Z]+)?/`)

// Catalog is an in-memory index of comet entries.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

// New indexes entries by full name, bare designation and, for numbered
// periodic comets, the bare number. Later entries win on collisions.
func New(entries []Entry) *Catalog {
	c := &Catalog{
		entries: entries,
		index:   make(map[string]int, len(entries)*2),
	}
	for i, e := range entries {
		c.index[normalize(e.Name)] = i
		c.index[normalize(e.Designation)] = i
		if m := numberedPeriodic.FindStringSubmatch(e.Designation); m != nil {
			c.index[normalize(m[1])] = i
		}
	}
	return c
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Lookup finds a comet by "C/2020 F3 (NEOWISE)", "C/2020 F3" or "1P". Case,
// spaces and underscores are ignored.
func (c *Catalog) Lookup(designation string) (Entry, error) {
	i, ok := c.index[normalize(designation)]
	if !ok {
		return Entry{}, fmt.Errorf("comet %q not in catalog: %w", designation, ephem.ErrUnknownBody)
	}
	return c.entries[i], nil
}

// Body resolves a designation to a body carrying its elements.
func (c *Catalog) Body(designation string) (ephem.Body, error) {
	e, err := c.Lookup(designation)
	if err != nil {
		return ephem.Body{}, err
	}
	return e.Body(), nil
}

// Search returns entries whose name contains q, sorted by name, at most
// limit of them (limit <= 0 means no limit).
func (c *Catalog) Search(q string, limit int) []Entry {
	nq := normalize(q)
	var out []Entry
	for _, e := range c.entries {
		if strings.Contains(normalize(e.Name), nq) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r == ' ' || r == '_' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
