package animation

import (
	"time"

	"ledgrid.net/zoneleds/compositor"
	"ledgrid.net/zoneleds/config"
	"ledgrid.net/zoneleds/zone"
)

// snake advances a single lit pixel, with an optional fading tail,
// across the concatenated pixel space of its zones, wrapping at the
// end. Every step replaces the owned zones' buffers entirely - an
// implicit all-off before the lit positions - so no stale trail can
// survive a wrap or a speed change.
type snake struct {
	source   string
	segments []snakeSegment
	total    int
	color    zone.Led
	trail    int
	interval time.Duration
}

type snakeSegment struct {
	zoneID string
	count  int
}

func newSnake(zoneID string, settings zone.Settings, p Params, cfg config.AnimationConfig, pixelCount func(string) int) *snake {
	speed := clampSpeed(p.Speed, "snake:"+zoneID)

	zones := append([]string{zoneID}, p.Zones...)
	var segments []snakeSegment
	total := 0
	for _, id := range zones {
		n := pixelCount(id)
		if n <= 0 {
			continue
		}
		segments = append(segments, snakeSegment{zoneID: id, count: n})
		total += n
	}

	trail := p.Trail
	if trail < 0 {
		trail = 0
	}
	if trail == 0 {
		trail = cfg.SnakeTrail
	}
	if trail >= total {
		trail = total - 1
	}

	color, brightness := baseSnapshot(settings, p.Color)

	// One pixel of travel per step; speed 100 moves every 10ms.
	interval := time.Duration(float64(time.Second) / speed)
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}

	return &snake{
		source:   "snake:" + zoneID,
		segments: segments,
		total:    total,
		color:    color.Scale(brightness),
		trail:    trail,
		interval: interval,
	}
}

func (s *snake) Interval() time.Duration {
	return s.interval
}

func (s *snake) Step(elapsed time.Duration) *compositor.Frame {
	if s.total == 0 {
		return nil
	}
	grid := make(map[string][]zone.Led, len(s.segments))
	for _, seg := range s.segments {
		grid[seg.zoneID] = make([]zone.Led, seg.count)
	}

	head := int(elapsed/s.interval) % s.total
	for t := 0; t <= s.trail; t++ {
		pos := head - t
		for pos < 0 {
			pos += s.total
		}
		fade := 1 - float64(t)/float64(s.trail+1)
		s.set(grid, pos, s.color.Scale(fade))
	}

	return compositor.NewPixelGrid(
		grid,
		compositor.TierAnimation, s.source,
		frameTTL(s.interval), false)
}

// set places color at the concatenated position pos, resolving which
// segment owns it.
func (s *snake) set(grid map[string][]zone.Led, pos int, color zone.Led) {
	for _, seg := range s.segments {
		if pos < seg.count {
			grid[seg.zoneID][pos] = color
			return
		}
		pos -= seg.count
	}
}
