package animation

import (
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"ledgrid.net/zoneleds/compositor"
	"ledgrid.net/zoneleds/config"
	"ledgrid.net/zoneleds/zone"
)

// colorFade rotates the zone's hue linearly around the color wheel,
// wrapping at 360 degrees. Saturation and value are taken from the
// base snapshot, so the zone's brightness setting is preserved.
type colorFade struct {
	zoneID     string
	source     string
	hue        float64
	saturation float64
	value      float64
	brightness float64
	period     time.Duration
	interval   time.Duration
}

func newColorFade(zoneID string, settings zone.Settings, p Params, cfg config.AnimationConfig) *colorFade {
	speed := clampSpeed(p.Speed, "colorfade:"+zoneID)
	period := clampPeriod(
		time.Duration(float64(cfg.FadePeriodBase)/speed),
		time.Second, cfg.FadePeriodBase,
		"colorfade:"+zoneID)

	color, brightness := baseSnapshot(settings, p.Color)
	h, s, v := colorful.Color{
		R: color.Red / 255,
		G: color.Green / 255,
		B: color.Blue / 255,
	}.Hsv()
	if s == 0 {
		// A grey base has no hue to rotate; fall back to full
		// saturation so the fade is visible.
		s = 1
	}
	return &colorFade{
		zoneID:     zoneID,
		source:     "colorfade:" + zoneID,
		hue:        h,
		saturation: s,
		value:      v,
		brightness: brightness,
		period:     period,
		interval:   stepInterval(period),
	}
}

func (c *colorFade) Interval() time.Duration {
	return c.interval
}

func (c *colorFade) Step(elapsed time.Duration) *compositor.Frame {
	hue := math.Mod(c.hue+360*float64(elapsed)/float64(c.period), 360)
	col := colorful.Hsv(hue, c.saturation, c.value)
	led := zone.Led{
		Red:   col.R * 255,
		Green: col.G * 255,
		Blue:  col.B * 255,
	}.Scale(c.brightness)
	return compositor.NewSingleZone(
		c.zoneID, led,
		compositor.TierAnimation, c.source,
		frameTTL(c.interval), false)
}
