// Package nightdim drives a warm low-intensity static base color on
// selected zones between sunset and sunrise, computed from the
// configured geographic position.
package nightdim

import (
	"log/slog"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"ledgrid.net/zoneleds/compositor"
	"ledgrid.net/zoneleds/config"
	"ledgrid.net/zoneleds/zone"
)

const source = "nightdim"

// The night color persists in the zone states once merged, so a single
// frame per sun event is enough. The TTL only needs to survive the
// pickup by the next render tick.
const frameTTL = time.Minute

// Sink receives the night dimmer's frames.
type Sink interface {
	Push(f *compositor.Frame)
}

// NightDim switches the configured zones between a dim night color and
// black, following the local sunrise and sunset times.
type NightDim struct {
	sink     Sink
	cfg      config.NightDimConfig
	ledNight zone.Led

	stop chan struct{}
	done chan struct{}
}

// New creates a NightDim pushing into sink.
func New(sink Sink, cfg config.NightDimConfig) *NightDim {
	return &NightDim{
		sink:     sink,
		cfg:      cfg,
		ledNight: zone.Led{Red: cfg.LedRGB[0], Green: cfg.LedRGB[1], Blue: cfg.LedRGB[2]},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sun-event loop. Disabled dimmers start nothing.
func (n *NightDim) Start() {
	if !n.cfg.Enabled || len(n.cfg.Zones) == 0 {
		close(n.done)
		return
	}
	go n.run()
}

// Stop terminates the loop and awaits it.
func (n *NightDim) Stop() {
	close(n.stop)
	<-n.done
}

func (n *NightDim) run() {
	defer close(n.done)
	for {
		now := time.Now()
		night, wakeAt := n.phase(now)
		n.push(night)
		slog.Debug("Night dim phase", "night", night, "until", wakeAt)

		select {
		case <-n.stop:
			return
		case <-time.After(wakeAt.Sub(now)):
		}
	}
}

// phase reports whether it is currently night at the configured
// position and when the next sun event happens.
func (n *NightDim) phase(now time.Time) (night bool, wakeAt time.Time) {
	rise, set := sunrise.SunriseSunset(n.cfg.Latitude, n.cfg.Longitude, now.Year(), now.Month(), now.Day())
	switch {
	case now.After(rise) && now.Before(set):
		return false, set
	case now.Before(rise):
		return true, rise
	default:
		// After sunset, the next event is tomorrow's sunrise.
		tomorrow := now.Add(24 * time.Hour)
		riseNext, _ := sunrise.SunriseSunset(n.cfg.Latitude, n.cfg.Longitude,
			tomorrow.Year(), tomorrow.Month(), tomorrow.Day())
		return true, riseNext
	}
}

func (n *NightDim) push(night bool) {
	color := zone.Led{}
	if night {
		color = n.ledNight
	}
	colors := make(map[string]zone.Led, len(n.cfg.Zones))
	for _, id := range n.cfg.Zones {
		colors[id] = color
	}
	n.sink.Push(compositor.NewMultiZone(colors, compositor.TierStatic, source, frameTTL, false))
}
