package zone

import (
	"log/slog"
)

// Mapper translates zone-local pixel positions into absolute physical
// indices on one channel's strip. It is built once from the immutable
// zone geometry and never changes afterwards.
//
// Indices that fall outside the physical buffer are dropped at build
// time with a log message. A misconfigured zone therefore renders
// short, but it can never crash the render loop.
type Mapper struct {
	ledsTotal int
	indices   map[string][]int
}

// NewMapper builds the mapper for the given zones on a strip of
// ledsTotal physical pixels. Only zones belonging to the strip's
// channel should be passed in.
func NewMapper(zones []Zone, ledsTotal int) *Mapper {
	m := &Mapper{
		ledsTotal: ledsTotal,
		indices:   make(map[string][]int, len(zones)),
	}
	for _, z := range zones {
		m.indices[z.ID] = buildIndices(z, ledsTotal)
	}
	return m
}

// buildIndices emits the ordered absolute index list for one zone. For
// reversed zones the list descends so that logical pixel 0 always maps
// to the zone's defined start, regardless of wiring direction.
func buildIndices(z Zone, ledsTotal int) []int {
	first, last := z.FirstLed, z.LastLed
	if first > last {
		slog.Warn("zone first index is bigger than last index - swapping",
			"zone", z.ID, "first", first, "last", last)
		first, last = last, first
	}
	out := make([]int, 0, last-first+1)
	appendIdx := func(i int) {
		if i < 0 || i >= ledsTotal {
			slog.Warn("zone index outside physical buffer - dropping",
				"zone", z.ID, "index", i, "ledsTotal", ledsTotal)
			return
		}
		out = append(out, i)
	}
	if z.Reversed {
		for i := last; i >= first; i-- {
			appendIdx(i)
		}
	} else {
		for i := first; i <= last; i++ {
			appendIdx(i)
		}
	}
	return out
}

// Indices returns the ordered absolute physical indices for the zone,
// or nil for a zone the mapper does not know.
func (m *Mapper) Indices(zoneID string) []int {
	return m.indices[zoneID]
}

// LedsTotal returns the physical length the mapper was built for.
func (m *Mapper) LedsTotal() int {
	return m.ledsTotal
}
