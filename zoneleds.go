package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/exp/maps"

	"ledgrid.net/zoneleds/animation"
	"ledgrid.net/zoneleds/compositor"
	"ledgrid.net/zoneleds/config"
	"ledgrid.net/zoneleds/hardware"
	"ledgrid.net/zoneleds/indicator"
	"ledgrid.net/zoneleds/logging"
	"ledgrid.net/zoneleds/nightdim"
	"ledgrid.net/zoneleds/tuiview"
	"ledgrid.net/zoneleds/util"
	"ledgrid.net/zoneleds/zone"
)

func main() {
	cfile := flag.String("config", "config.yaml", "path to the configuration file")
	realhw := flag.Bool("real", false, "drive real LED hardware instead of the simulation")
	tui := flag.Bool("tui", false, "show the simulation TUI (implies virtual strips)")
	flag.Parse()

	for {
		reload, err := run(*cfile, *realhw, *tui)
		if err != nil {
			fmt.Fprintf(os.Stderr, "zoneleds: %v\n", err)
			os.Exit(1)
		}
		if !reload {
			return
		}
		slog.Info("Reloading configuration", "file", *cfile)
	}
}

// run brings up the full stack, waits for a shutdown or reload trigger
// and tears everything down again. It reports whether a reload was
// requested.
func run(cfile string, realhw, tui bool) (bool, error) {
	cfg, err := config.ReadConfig(cfile, realhw)
	if err != nil {
		return false, err
	}

	if err := logging.Setup(logging.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		File:     cfg.Logging.File,
		Buffered: tui,
	}); err != nil {
		return false, err
	}
	defer logging.Close()

	zones := make([]zone.Zone, 0, len(cfg.Zones))
	for _, zc := range cfg.Zones {
		zones = append(zones, zone.Zone{
			ID:       zc.ID,
			Channel:  zc.Channel,
			FirstLed: zc.FirstLed,
			LastLed:  zc.LastLed,
			Reversed: zc.Reversed,
		})
	}
	states := zone.NewStates(zones)
	registry := zone.NewRegistry(zones)

	driver := cfg.Hardware.Driver
	if tui || !realhw {
		driver = "virtual"
	}
	capab := hardware.Probe(driver)
	slog.Info("Hardware capability", "available", capab.Available, "driver", capab.Driver, "reason", capab.Reason)

	names := maps.Keys(cfg.Hardware.Channels)
	sort.Strings(names)

	channels := make([]*hardware.Channel, 0, len(names))
	outputs := make([]compositor.Output, 0, len(names))
	for _, name := range names {
		strip := hardware.NewStrip(capab, name, cfg.Hardware.Channels[name], cfg.Hardware)
		ch := hardware.NewChannel(name, strip, zones)
		channels = append(channels, ch)
		outputs = append(outputs, ch)
	}

	comp := compositor.New(states, outputs, cfg.Render.TickInterval, cfg.Render.ForceUpdateDelay)
	sched := animation.NewScheduler(comp, registry, states.PixelCount, cfg.Animation, cfg.AudioLED)
	ind := indicator.New(comp, cfg.Indicator)
	night := nightdim.New(comp, cfg.NightDim)

	watcher, err := config.NewWatcher(cfile)
	if err != nil {
		return false, fmt.Errorf("can't watch config file: %w", err)
	}

	ossignal := make(chan os.Signal, 1)
	signal.Notify(ossignal, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(ossignal)

	var viewer *tuiview.Viewer
	if tui {
		controls := &zoneControls{registry: registry, comp: comp}
		viewer = buildViewer(channels, zones, sched, ind, controls, ossignal)
		viewer.Start()
		<-viewer.Ready()
	}

	ind.Start()
	night.Start()
	comp.Start()
	slog.Info("zoneleds up", "zones", len(zones), "channels", len(channels), "driver", capab.Driver)

	reload := false
	select {
	case sig := <-ossignal:
		slog.Info("Received signal", "signal", sig.String())
		if sig == syscall.SIGHUP {
			reload = true
		}
	case <-watcher.Events():
		reload = true
	}

	sched.StopAll()
	night.Stop()
	ind.Stop()
	comp.Stop()
	watcher.Stop()
	if viewer != nil {
		viewer.Stop()
	}
	for _, ch := range channels {
		if err := ch.Strip().Clear(); err != nil {
			slog.Error("Error blanking strip on shutdown", "channel", ch.Name(), "error", err)
		}
		ch.Strip().Shutdown()
	}
	slog.Info("zoneleds down")
	return reload, nil
}

// zoneControls applies the manual zone operations of the TUI: settings
// go into the registry, the visible effect rides on the manual tier or
// the render-state brightness.
type zoneControls struct {
	registry *zone.Registry
	comp     *compositor.Compositor
}

// manualTTL only needs to survive the pickup by the next render tick;
// once merged, the manual color persists in the zone state.
const manualTTL = time.Minute

var colorPresets = []zone.Led{
	{Red: 255, Green: 255, Blue: 255},
	{Red: 255, Green: 160, Blue: 40},
	{Red: 255, Green: 0, Blue: 0},
	{Red: 0, Green: 255, Blue: 0},
	{Red: 0, Green: 80, Blue: 255},
	{Red: 200, Green: 0, Blue: 255},
}

func (zc *zoneControls) Toggle(zoneID string) bool {
	s := zc.registry.Get(zoneID)
	on := !s.On
	zc.registry.SetOn(zoneID, on)
	if on {
		zc.comp.Push(compositor.NewSingleZone(zoneID, s.Color,
			compositor.TierManual, "manual:"+zoneID, manualTTL, false))
	} else {
		zc.comp.ClearZone(zoneID)
	}
	return on
}

func (zc *zoneControls) AdjustBrightness(zoneID string, delta float64) float64 {
	b := zc.registry.Get(zoneID).Brightness + delta
	b = max(0, min(b, 1))
	zc.registry.SetBrightness(zoneID, b)
	zc.comp.SetBrightness(zoneID, b)
	return b
}

func (zc *zoneControls) CycleColor(zoneID string) zone.Led {
	s := zc.registry.Get(zoneID)
	next := colorPresets[0]
	for i, p := range colorPresets {
		if p == s.Color {
			next = colorPresets[(i+1)%len(colorPresets)]
			break
		}
	}
	zc.registry.SetColor(zoneID, next)
	if s.On {
		zc.comp.Push(compositor.NewSingleZone(zoneID, next,
			compositor.TierManual, "manual:"+zoneID, manualTTL, false))
	}
	return next
}

// buildViewer attaches an observer to every virtual strip and prepares
// the per-channel panes with their zone rulers.
func buildViewer(channels []*hardware.Channel, zones []zone.Zone,
	sched *animation.Scheduler, ind *indicator.Indicator,
	controls *zoneControls, ossignal chan os.Signal) *tuiview.Viewer {

	zoneIDs := make([]string, 0, len(zones))
	ordinal := make(map[string]int, len(zones))
	for i, z := range zones {
		zoneIDs = append(zoneIDs, z.ID)
		ordinal[z.ID] = i + 1
	}

	views := make([]*tuiview.ChannelView, 0, len(channels))
	for _, ch := range channels {
		vs, ok := ch.Strip().(*hardware.VirtualStrip)
		if !ok {
			continue
		}
		ev := util.NewAtomicEvent[[]zone.Led]()
		vs.SetObserver(ev)
		cv := &tuiview.ChannelView{
			Name:      ch.Name(),
			LedsTotal: vs.Len(),
			Event:     ev,
		}
		cv.SetRuler(zoneRuler(ch, ordinal))
		views = append(views, cv)
	}
	return tuiview.New(views, zoneIDs, sched, ind, controls, ossignal)
}

// zoneRuler marks each zone's starting pixel with its selection number.
func zoneRuler(ch *hardware.Channel, ordinal map[string]int) string {
	ruler := []byte(strings.Repeat(" ", ch.Strip().Len()))
	for _, zoneID := range ch.ZoneIDs() {
		indices := ch.Mapper().Indices(zoneID)
		if len(indices) == 0 {
			continue
		}
		start := indices[0]
		if indices[len(indices)-1] < start {
			start = indices[len(indices)-1]
		}
		label := strconv.Itoa(ordinal[zoneID])
		for i := 0; i < len(label) && start+i < len(ruler); i++ {
			ruler[start+i] = label[i]
		}
	}
	return string(ruler)
}
