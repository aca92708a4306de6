// Package tuiview renders the virtual strips as a terminal simulation.
// Each channel gets a two-line pane of colored bar characters, a zone
// ruler underneath marks the configured zone boundaries, and the log
// output is redirected into a scrollable pane once the first draw
// completed.
package tuiview

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"ledgrid.net/zoneleds/animation"
	"ledgrid.net/zoneleds/logging"
	"ledgrid.net/zoneleds/util"
	"ledgrid.net/zoneleds/zone"
)

// Animator is the subset of the animation scheduler the viewer drives
// from keyboard input.
type Animator interface {
	Start(zoneID string, kind animation.Kind, p animation.Params) error
	Stop(zoneID string)
}

// Notifier receives the interaction notifications the viewer emits.
type Notifier interface {
	Notify(n *util.Notification)
}

// Controls is the manual zone manipulation surface the viewer drives,
// switching zones on and off and adjusting their settings.
type Controls interface {
	Toggle(zoneID string) bool
	AdjustBrightness(zoneID string, delta float64) float64
	CycleColor(zoneID string) zone.Led
}

// ChannelView is one displayed strip: its name, the latest-frame
// mailbox fed by the virtual strip, and the zones mapped onto it for
// the ruler line.
type ChannelView struct {
	Name      string
	LedsTotal int
	Event     *util.AtomicEvent[[]zone.Led]
	ruler     string
	pane      *tview.TextView
	leds      []zone.Led
}

// Viewer is the simulation TUI.
type Viewer struct {
	app      *tview.Application
	intro    *tview.TextView
	logView  *tview.TextView
	channels []*ChannelView
	zones    []string
	animator Animator
	notifier Notifier
	controls Controls
	ossignal chan os.Signal

	selected  int
	editMode  bool
	flushOnce sync.Once
	ready     chan struct{}
	stop      chan struct{}
	done      sync.WaitGroup
}

// New creates a Viewer over the given channels. zones is the ordered
// list of zone IDs reachable through the number keys.
func New(channels []*ChannelView, zones []string, animator Animator, notifier Notifier, controls Controls, ossignal chan os.Signal) *Viewer {
	return &Viewer{
		channels: channels,
		zones:    zones,
		animator: animator,
		notifier: notifier,
		controls: controls,
		ossignal: ossignal,
		selected: -1,
		ready:    make(chan struct{}),
		stop:     make(chan struct{}),
	}
}

// SetRuler stores the zone boundary line rendered under a channel pane.
func (cv *ChannelView) SetRuler(ruler string) {
	cv.ruler = ruler
}

// Ready is closed once the TUI has drawn and captured the log output.
func (v *Viewer) Ready() <-chan struct{} {
	return v.ready
}

// Start builds the layout and runs the TUI in its own goroutine.
func (v *Viewer) Start() {
	v.app = tview.NewApplication()

	v.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	v.intro.SetText(v.introText())
	v.intro.SetBorder(true).SetTitle(" ZONELEDS Simulation ").SetTitleColor(tcell.ColorLightBlue)
	v.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.intro, 7, 0, false)

	for _, cv := range v.channels {
		cv.pane = tview.NewTextView().
			SetDynamicColors(true).
			SetTextAlign(tview.AlignLeft)
		cv.pane.SetBorder(true).SetTitle(fmt.Sprintf(" %s ", cv.Name))
		cv.pane.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))
		cv.leds = make([]zone.Led, cv.LedsTotal)
		flex.AddItem(cv.pane, 5, 0, false)
	}

	v.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			v.logView.ScrollToEnd()
			v.app.Draw()
		})
	v.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	v.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))
	flex.AddItem(v.logView, 0, 1, true)

	v.app.SetAfterDrawFunc(func(screen tcell.Screen) {
		v.flushOnce.Do(func() {
			logging.SetOutput(tview.ANSIWriter(v.logView))
			close(v.ready)
		})
	})
	v.app.SetInputCapture(v.handleKey)

	for _, cv := range v.channels {
		v.done.Add(1)
		go v.watch(cv)
	}

	go func() {
		if err := v.app.SetRoot(flex, true).Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			v.ossignal <- os.Interrupt
		}
	}()
}

// Stop terminates the watcher goroutines and the TUI application.
func (v *Viewer) Stop() {
	close(v.stop)
	v.done.Wait()
	if v.app != nil {
		v.app.Stop()
	}
}

// watch feeds one channel pane from its strip observer.
func (v *Viewer) watch(cv *ChannelView) {
	defer v.done.Done()
	for {
		select {
		case <-v.stop:
			return
		case <-cv.Event.Channel():
			if cv.Event.HasPending() {
				// The render loop outpaced the TUI; a fresher
				// buffer is already queued behind this one.
				continue
			}
			leds := cv.Event.Value()
			v.app.QueueUpdateDraw(func() {
				copy(cv.leds, leds)
				cv.pane.SetText(renderStrip(cv.leds, cv.ruler))
			})
		}
	}
}

func (v *Viewer) introText() string {
	sel := "none"
	if v.selected >= 0 {
		sel = v.zones[v.selected]
	}
	edit := "off"
	if v.editMode {
		edit = "[#ff0000]on[white]"
	}
	line1 := fmt.Sprintf("Selected zone: [#ffff00]%s[white] | Edit mode: %s", sel, edit)
	line2 := fmt.Sprintf("Hit [blue]1[-]...[blue]%d[-] to select a zone, [blue]e[-] to toggle edit mode", len(v.zones))
	line3 := "Selection: [green]o[-]n/off, [green]c[-]olor, [green]+[-]/[green]-[-] brightness"
	line4 := "Animations: [green]b[-]reathe, [green]f[-]ade, [green]s[-]nake, [green]a[-]udio, [green]x[-] stop"
	line5 := "Hit [#ff0000]q[-] to exit, [#ff0000]r[-] to reload, [#ff0000]Up/Down[-] to scroll logs"
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", line1, line2, line3, line4, line5)
}

func (v *Viewer) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyCtrlC:
		v.app.Stop()
		v.ossignal <- os.Interrupt
		return nil
	case tcell.KeyUp:
		row, col := v.logView.GetScrollOffset()
		v.logView.ScrollTo(row-1, col)
		return nil
	case tcell.KeyDown:
		row, col := v.logView.GetScrollOffset()
		v.logView.ScrollTo(row+1, col)
		return nil
	case tcell.KeyRune:
		return v.handleRune(event)
	}
	return event
}

func (v *Viewer) handleRune(event *tcell.EventKey) *tcell.EventKey {
	key := string(event.Rune())
	if idx := int(event.Rune() - '1'); idx >= 0 && idx < len(v.zones) {
		v.selected = idx
		v.intro.SetText(v.introText())
		v.notifier.Notify(util.NewNotification(util.NotifSelectedZone, v.zones[idx], "", time.Now()))
		return nil
	}

	switch key {
	case "q", "Q":
		v.ossignal <- os.Interrupt
		return nil
	case "r", "R":
		v.ossignal <- syscall.SIGHUP
		return nil
	case "e", "E":
		v.editMode = !v.editMode
		v.intro.SetText(v.introText())
		value := "off"
		if v.editMode {
			value = "on"
		}
		selZone := ""
		if v.selected >= 0 {
			selZone = v.zones[v.selected]
		}
		v.notifier.Notify(util.NewNotification(util.NotifEditMode, selZone, value, time.Now()))
		return nil
	case "b":
		v.startAnimation(animation.KindBreathe)
		return nil
	case "f":
		v.startAnimation(animation.KindColorFade)
		return nil
	case "s":
		v.startAnimation(animation.KindSnake)
		return nil
	case "a":
		v.startAnimation(animation.KindAudioMeter)
		return nil
	case "x":
		if v.selected >= 0 {
			v.animator.Stop(v.zones[v.selected])
		}
		return nil
	case "o", "O":
		if v.selected >= 0 {
			zoneID := v.zones[v.selected]
			on := v.controls.Toggle(zoneID)
			slog.Info("Zone toggled", "zone", zoneID, "on", on)
			v.notifier.Notify(util.NewNotification(util.NotifRenderMode, zoneID, "", time.Now()))
		}
		return nil
	case "c", "C":
		if v.selected >= 0 {
			zoneID := v.zones[v.selected]
			c := v.controls.CycleColor(zoneID)
			slog.Info("Zone color changed", "zone", zoneID,
				"color", fmt.Sprintf("#%02x%02x%02x", byte(c.Red), byte(c.Green), byte(c.Blue)))
		}
		return nil
	case "+":
		v.adjustBrightness(0.1)
		return nil
	case "-":
		v.adjustBrightness(-0.1)
		return nil
	}
	return event
}

func (v *Viewer) adjustBrightness(delta float64) {
	if v.selected < 0 {
		return
	}
	zoneID := v.zones[v.selected]
	b := v.controls.AdjustBrightness(zoneID, delta)
	slog.Info("Zone brightness", "zone", zoneID, "brightness", fmt.Sprintf("%.1f", b))
}

func (v *Viewer) startAnimation(kind animation.Kind) {
	if v.selected < 0 {
		slog.Info("No zone selected, ignoring animation key")
		return
	}
	zoneID := v.zones[v.selected]
	if err := v.animator.Start(zoneID, kind, animation.Params{}); err != nil {
		slog.Warn("Could not start animation", "zone", zoneID, "kind", string(kind), "error", err)
	}
}

// renderStrip produces the two bar lines plus the zone ruler for one
// channel pane.
func renderStrip(leds []zone.Led, ruler string) string {
	var top, bot strings.Builder
	top.Grow(len(leds) * (len("[-][#000000]") + 1))
	bot.Grow(len(leds) * (len("[-][#000000]") + 1))

	for _, v := range leds {
		if v.IsEmpty() {
			top.WriteString(" ")
			bot.WriteString(" ")
			continue
		}
		colorStr := scaledColor(v)
		topChar, botChar := barChars(v)
		top.WriteString(colorStr)
		top.WriteString(topChar)
		top.WriteString("[-]")
		bot.WriteString(colorStr)
		bot.WriteString(botChar)
		bot.WriteString("[-]")
	}
	return " " + top.String() + "\n " + bot.String() + "\n [blue]" + ruler + "[:]"
}

// barChars maps the average pixel intensity onto a two-row bar.
func barChars(v zone.Led) (string, string) {
	blocks := []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}
	value := (v.Red + v.Green + v.Blue) / 3.0
	// Eight steps per row, first the bottom row fills, then the top.
	step := int(math.Round(value / 255.0 * 16.0))
	step = max(1, min(step, 16))
	if step <= 8 {
		return " ", blocks[step-1]
	}
	return blocks[step-9], "█"
}

// scaledColor maximizes the hue for display so that dim colors stay
// recognizable on screen; the intensity is carried by the bar height.
func scaledColor(led zone.Led) string {
	maxColor := math.Max(led.Red, math.Max(led.Green, led.Blue))
	if maxColor == 0 {
		return "[#000000]"
	}
	factor := 255 / maxColor
	red := math.Min(led.Red*factor, 255)
	green := math.Min(led.Green*factor, 255)
	blue := math.Min(led.Blue*factor, 255)
	return fmt.Sprintf("[#%02x%02x%02x]", byte(math.Round(red)), byte(math.Round(green)), byte(math.Round(blue)))
}
