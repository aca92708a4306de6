// Package animation contains the per-zone animation tasks feeding the
// compositor. Every animation instance is bound to exactly one zone
// and runs on its own cadence derived from its speed parameter; the
// render tick never dictates when an animation steps.
package animation

import (
	"log/slog"
	"time"

	"ledgrid.net/zoneleds/compositor"
	"ledgrid.net/zoneleds/zone"
)

// Kind names an animation in the catalogue.
type Kind string

const (
	KindBreathe    Kind = "breathe"
	KindColorFade  Kind = "colorfade"
	KindSnake      Kind = "snake"
	KindAudioMeter Kind = "audiometer"
)

// Params are the user-facing animation parameters. Invalid values are
// clamped with a warning; parameter problems never reach the caller.
type Params struct {
	// Speed scales the animation cadence, 1..100.
	Speed float64
	// Color overrides the zone's current color when non-zero.
	Color zone.Led
	// Trail is the length of the snake's fading tail.
	Trail int
	// Zones optionally extends the snake's run across additional
	// zones; the pixel spaces are traversed in the given order.
	Zones []string
}

// Animation computes one frame per step. Step must not block and must
// not assume anything about the render tick's timing; Interval is the
// animation's own cadence.
type Animation interface {
	Step(elapsed time.Duration) *compositor.Frame
	Interval() time.Duration
}

// clampSpeed forces speed into the valid 1..100 range.
func clampSpeed(speed float64, source string) float64 {
	if speed < 1 {
		slog.Warn("Animation speed below minimum - clamping", "speed", speed, "source", source)
		return 1
	}
	if speed > 100 {
		slog.Warn("Animation speed above maximum - clamping", "speed", speed, "source", source)
		return 100
	}
	return speed
}

// clampPeriod bounds a cycle period to a sane window.
func clampPeriod(period, min, max time.Duration, source string) time.Duration {
	if period < min {
		slog.Warn("Animation period below minimum - clamping", "period", period, "source", source)
		return min
	}
	if period > max {
		slog.Warn("Animation period above maximum - clamping", "period", period, "source", source)
		return max
	}
	return period
}

// stepInterval derives a task's sleep interval from its cycle period,
// bounded so a slow cycle still animates smoothly and a fast one
// cannot busy-loop.
func stepInterval(period time.Duration) time.Duration {
	interval := period / 50
	if interval < 10*time.Millisecond {
		return 10 * time.Millisecond
	}
	if interval > 250*time.Millisecond {
		return 250 * time.Millisecond
	}
	return interval
}

// frameTTL gives a pushed frame enough life to survive until the next
// render tick picks it up, but not long enough to outlive the task's
// following step by much.
func frameTTL(interval time.Duration) time.Duration {
	ttl := 3 * interval
	if ttl < 250*time.Millisecond {
		return 250 * time.Millisecond
	}
	return ttl
}

// baseSnapshot resolves the color/brightness base an animation works
// from: the zone's current domain settings, with an optional explicit
// color override, taken once when the animation starts.
func baseSnapshot(settings zone.Settings, override zone.Led) (zone.Led, float64) {
	color := settings.Color
	if !override.IsEmpty() {
		color = override
	}
	brightness := settings.Brightness
	if brightness <= 0 || brightness > 1 {
		brightness = 1
	}
	return color, brightness
}
