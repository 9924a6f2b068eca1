package visibility

import (
	"time"

	"github.com/litescript/ls-comets/internal/astro"
)

// DetectWindows groups rows into visibility instances. A row qualifies when
// the comet is strictly above minCometAlt and the Sun strictly below
// maxSunAlt; qualifying rows exactly step apart belong to the same instance.
func DetectWindows(rows []SampleRow, step time.Duration, minCometAlt, maxSunAlt float64) []Instance {
	var instances []Instance
	var prev SampleRow
	open := false

	for _, r := range rows {
		if !(r.Comet.ElDeg > minCometAlt && r.Sun.ElDeg < maxSunAlt) {
			continue
		}

		if open && r.Time.Sub(prev.Time) == step {
			prev = r
			continue
		}

		// Gap or first qualifying row
		if open {
			closeLast(instances, prev)
		}
		instances = append(instances, Instance{
			Begin:     r,
			Direction: astro.CompassPoint(r.Comet.AzDeg),
		})
		open = true
		prev = r
	}

	if open {
		closeLast(instances, prev)
	}
	return instances
}

func closeLast(instances []Instance, end SampleRow) {
	last := &instances[len(instances)-1]
	last.End = end
	last.Duration = end.Time.Sub(last.Begin.Time)
}
