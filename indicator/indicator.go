// Package indicator turns user interaction events into short-lived
// highlight pulses on the indicator tier. The pulses ride above
// animations and static colors but never outlast their TTL, so the
// underlying zone content reappears on its own.
package indicator

import (
	"log/slog"
	"time"

	"ledgrid.net/zoneleds/compositor"
	"ledgrid.net/zoneleds/config"
	"ledgrid.net/zoneleds/util"
	"ledgrid.net/zoneleds/zone"
)

const source = "indicator"

// Sink receives the indicator's frames.
type Sink interface {
	Push(f *compositor.Frame)
}

// Indicator listens for selection and edit-mode notifications and
// pushes partial single-zone pulses in response.
type Indicator struct {
	sink   Sink
	cfg    config.IndicatorConfig
	color  zone.Led
	events chan *util.Notification

	stop chan struct{}
	done chan struct{}
}

// New creates an Indicator pushing into sink.
func New(sink Sink, cfg config.IndicatorConfig) *Indicator {
	return &Indicator{
		sink:   sink,
		cfg:    cfg,
		color:  zone.Led{Red: cfg.LedRGB[0], Green: cfg.LedRGB[1], Blue: cfg.LedRGB[2]},
		events: make(chan *util.Notification, 16),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Events is where interaction notifications are delivered. Sends never
// block the caller, Notify drops on overflow.
func (i *Indicator) Events() chan<- *util.Notification {
	return i.events
}

// Notify is a non-blocking send into the event channel.
func (i *Indicator) Notify(n *util.Notification) {
	select {
	case i.events <- n:
	default:
		slog.Warn("Indicator event channel full, dropping notification", "kind", n.Kind)
	}
}

// Start launches the indicator loop. Disabled indicators start nothing.
func (i *Indicator) Start() {
	if !i.cfg.Enabled {
		close(i.done)
		return
	}
	go i.run()
}

// Stop terminates the indicator loop and awaits it.
func (i *Indicator) Stop() {
	close(i.stop)
	<-i.done
}

func (i *Indicator) run() {
	defer close(i.done)

	blink := time.NewTicker(i.cfg.BlinkDelay)
	defer blink.Stop()

	var selected string
	var editMode bool

	for {
		select {
		case <-i.stop:
			return
		case n := <-i.events:
			switch n.Kind {
			case util.NotifSelectedZone:
				selected = n.Zone
				i.pulse(selected)
			case util.NotifRenderMode:
				if n.Zone != "" {
					i.pulse(n.Zone)
				}
			case util.NotifEditMode:
				editMode = n.Value == "on"
				if editMode {
					blink.Reset(i.cfg.BlinkDelay)
				}
			}
		case <-blink.C:
			if !editMode || selected == "" {
				continue
			}
			// PulseTTL is shorter than BlinkDelay, so the gap between
			// expiry and the next pulse forms the off phase. No frame
			// is ever pushed to switch the pulse off.
			i.pulse(selected)
		}
	}
}

func (i *Indicator) pulse(zoneID string) {
	f := compositor.NewSingleZone(zoneID, i.color, compositor.TierIndicator, source, i.cfg.PulseTTL, true)
	i.sink.Push(f)
}
