package animation

import (
	"math"
	"time"

	"ledgrid.net/zoneleds/compositor"
	"ledgrid.net/zoneleds/config"
	"ledgrid.net/zoneleds/zone"
)

// breathe modulates the zone's brightness along a sinusoid. The floor
// scale keeps the zone from blacking out completely at the bottom of
// the cycle.
type breathe struct {
	zoneID   string
	source   string
	base     zone.Led
	floor    float64
	period   time.Duration
	interval time.Duration
}

func newBreathe(zoneID string, settings zone.Settings, p Params, cfg config.AnimationConfig) *breathe {
	speed := clampSpeed(p.Speed, "breathe:"+zoneID)
	period := clampPeriod(
		time.Duration(float64(cfg.BreatheMaxPeriod)/speed),
		cfg.BreatheMinPeriod, cfg.BreatheMaxPeriod,
		"breathe:"+zoneID)

	color, brightness := baseSnapshot(settings, p.Color)
	floor := cfg.BreatheFloor
	if floor <= 0 || floor >= 1 {
		floor = 0.15
	}
	return &breathe{
		zoneID:   zoneID,
		source:   "breathe:" + zoneID,
		base:     color.Scale(brightness),
		floor:    floor,
		period:   period,
		interval: stepInterval(period),
	}
}

func (b *breathe) Interval() time.Duration {
	return b.interval
}

func (b *breathe) Step(elapsed time.Duration) *compositor.Frame {
	phase := float64(elapsed%b.period) / float64(b.period)
	// Starts at the floor, peaks mid-cycle.
	scale := b.floor + (1-b.floor)*0.5*(1-math.Cos(2*math.Pi*phase))
	return compositor.NewSingleZone(
		b.zoneID, b.base.Scale(scale),
		compositor.TierAnimation, b.source,
		frameTTL(b.interval), false)
}
