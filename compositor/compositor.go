package compositor

import (
	"encoding/binary"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/gammazero/deque"

	"ledgrid.net/zoneleds/zone"
)

// Output is one hardware output the compositor renders into: one
// physical strip plus the zone mapping for the zones assigned to it.
// hardware.Channel is the production implementation.
type Output interface {
	Name() string
	// ZoneIDs lists the zones assigned to this output.
	ZoneIDs() []string
	// Apply overlays the given zones onto the output's buffer and
	// pushes the result in one atomic hardware transfer.
	Apply(zoneColors map[string][]zone.Led) error
	// ApplySlow is the per-pixel fallback write with an explicit flush.
	ApplySlow(zoneColors map[string][]zone.Led) error
	// Buffer returns a copy of the currently displayed pixels.
	Buffer() []zone.Led
}

// Compositor reconciles concurrently pushed frames into one consistent
// pixel buffer per output at a fixed rate.
//
// Producers only ever call Push; all zone render state and hardware
// buffers are touched exclusively by the single render-loop goroutine,
// which is what makes the merge path lock-free.
type Compositor struct {
	states       *zone.States
	outputs      []Output
	tickInterval time.Duration
	forceDelay   time.Duration

	// bucketMutex guards only the per-tier frame buckets; Push is safe
	// from any goroutine.
	bucketMutex sync.Mutex
	buckets     [numTiers]deque.Deque[*Frame]

	// commands funnels out-of-band state mutations (brightness, clear,
	// snapshots) into the render tick so State is never touched from
	// outside the loop.
	commands chan func(now time.Time)

	stopchan chan struct{}
	done     chan struct{}

	runMutex sync.Mutex
	running  bool
}

// New creates a Compositor over the given zone states and outputs.
// tickInterval is the fixed render period, forceDelay the heartbeat
// after which an unchanged buffer is pushed anyway.
func New(states *zone.States, outputs []Output, tickInterval, forceDelay time.Duration) *Compositor {
	if tickInterval <= 0 {
		tickInterval = 16 * time.Millisecond
	}
	return &Compositor{
		states:       states,
		outputs:      outputs,
		tickInterval: tickInterval,
		forceDelay:   forceDelay,
		commands:     make(chan func(now time.Time), 16),
		stopchan:     make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Push appends the frame to its tier's bucket. It never blocks and is
// safe to call from any goroutine. Buckets are drained and cleared on
// every tick, so stale frames do not accumulate.
func (c *Compositor) Push(f *Frame) {
	if f == nil {
		return
	}
	c.bucketMutex.Lock()
	c.buckets[f.Tier].PushBack(f)
	c.bucketMutex.Unlock()
}

// Start launches the render loop. It is a no-op if the loop already
// runs.
func (c *Compositor) Start() {
	c.runMutex.Lock()
	defer c.runMutex.Unlock()
	if c.running {
		return
	}
	// Fresh channels per run so a Start after Stop relaunches cleanly.
	c.stopchan = make(chan struct{})
	c.done = make(chan struct{})
	c.running = true
	go c.loop()
}

// Stop cancels the render loop and awaits its exit. It does not blank
// the hardware; shutdown blanking is the caller's responsibility.
func (c *Compositor) Stop() {
	c.runMutex.Lock()
	defer c.runMutex.Unlock()
	if !c.running {
		return
	}
	close(c.stopchan)
	<-c.done
	c.running = false
}

func (c *Compositor) loop() {
	defer close(c.done)
	slog.Info("Render loop started", "tick", c.tickInterval, "outputs", len(c.outputs))

	lastHash := make(map[string]uint64, len(c.outputs))
	lastPush := make(map[string]time.Time, len(c.outputs))

	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopchan:
			slog.Info("Ending render loop go-routine...")
			return
		case <-ticker.C:
			started := time.Now()
			c.tick(started, lastHash, lastPush)
			if overrun := time.Since(started); overrun > c.tickInterval {
				slog.Warn("Render tick overran its period", "took", overrun, "tick", c.tickInterval)
			}
		}
	}
}

// proposal is one frame's expanded pixels for one zone, competing in
// this tick's arbitration.
type proposal struct {
	frame  *Frame
	pixels []zone.Led
}

func (c *Compositor) tick(now time.Time, lastHash map[string]uint64, lastPush map[string]time.Time) {
	// Out-of-band commands run first so a brightness change and the
	// frames of the same tick cannot interleave mid-merge.
	for {
		select {
		case fn := <-c.commands:
			fn(now)
			continue
		default:
		}
		break
	}

	frames := c.drain()

	// Arbitration: for every addressed zone keep the single winning
	// frame. Frames arrive ordered lowest tier first and FIFO within a
	// tier, so "not before" on the timestamp makes the latest frame
	// win ties, with push order as the final deterministic tie-break.
	winners := make(map[string]proposal)
	for _, f := range frames {
		if f.Expired(now) {
			slog.Debug("Dropping expired frame", "source", f.Source, "tier", f.Tier.String(), "age", now.Sub(f.At))
			continue
		}
		for zoneID, pixels := range f.ZoneColors(c.states.PixelCount) {
			w, ok := winners[zoneID]
			if !ok || f.Tier > w.frame.Tier ||
				(f.Tier == w.frame.Tier && !f.At.Before(w.frame.At)) {
				winners[zoneID] = proposal{frame: f, pixels: pixels}
			}
		}
	}

	// Merge all winners into the zone render states before any
	// hardware buffer is assembled, so no output ever sees a mix of
	// this tick's and last tick's zone states.
	for zoneID, p := range winners {
		st := c.states.Get(zoneID)
		if st == nil {
			continue
		}
		if p.frame.Partial {
			st.Overlay(p.pixels, p.frame.Source, now)
		} else {
			st.Replace(p.pixels, p.frame.Source, now)
		}
	}

	for _, out := range c.outputs {
		c.pushOutput(out, now, lastHash, lastPush)
	}
}

// drain removes all pending frames from the buckets, lowest tier
// first, and leaves every bucket empty.
func (c *Compositor) drain() []*Frame {
	c.bucketMutex.Lock()
	defer c.bucketMutex.Unlock()
	var frames []*Frame
	for tier := range c.buckets {
		for c.buckets[tier].Len() > 0 {
			frames = append(frames, c.buckets[tier].PopFront())
		}
	}
	return frames
}

// pushOutput assembles the output's zone states into its physical
// buffer and writes it, unless the content is unchanged and the
// heartbeat has not elapsed yet.
func (c *Compositor) pushOutput(out Output, now time.Time, lastHash map[string]uint64, lastPush map[string]time.Time) {
	name := out.Name()

	zoneColors := make(map[string][]zone.Led)
	h := fnv.New64a()
	var buf [8]byte
	for _, zoneID := range out.ZoneIDs() {
		st := c.states.Get(zoneID)
		if st == nil {
			continue
		}
		pixels := st.Pixels()
		if st.Brightness != 1.0 {
			for i := range pixels {
				pixels[i] = pixels[i].Scale(st.Brightness)
			}
		}
		zoneColors[zoneID] = pixels
		h.Write([]byte(zoneID))
		binary.LittleEndian.PutUint64(buf[:], st.Hash())
		h.Write(buf[:])
	}
	sum := h.Sum64()

	if prev, ok := lastHash[name]; ok && prev == sum &&
		(c.forceDelay <= 0 || now.Sub(lastPush[name]) < c.forceDelay) {
		return
	}

	if err := out.Apply(zoneColors); err != nil {
		slog.Error("Atomic buffer push failed - falling back to per-pixel write",
			"output", name, "error", err)
		if err := out.ApplySlow(zoneColors); err != nil {
			// Leave lastHash untouched so the next tick retries.
			slog.Error("Per-pixel fallback failed - skipping this tick's write",
				"output", name, "error", err)
			return
		}
	}

	lastHash[name] = sum
	lastPush[name] = now
	for _, zoneID := range out.ZoneIDs() {
		if st := c.states.Get(zoneID); st != nil {
			st.ClearDirty()
		}
	}
}

// SetBrightness routes a render-state brightness change for zoneID
// through the render tick. It never blocks.
func (c *Compositor) SetBrightness(zoneID string, brightness float64) {
	c.enqueue(func(now time.Time) {
		if st := c.states.Get(zoneID); st != nil {
			st.SetBrightness(brightness)
		}
	})
}

// ClearZone blacks out zoneID's render state on the next tick.
func (c *Compositor) ClearZone(zoneID string) {
	c.enqueue(func(now time.Time) {
		if st := c.states.Get(zoneID); st != nil {
			st.Clear("clear", now)
		}
	})
}

func (c *Compositor) enqueue(fn func(now time.Time)) {
	select {
	case c.commands <- fn:
	default:
		slog.Warn("Compositor command queue full - dropping command")
	}
}

// SnapshotZone returns a copy of zoneID's current render-state pixels,
// captured inside a render tick. It returns nil when the loop is not
// running or the zone is unknown. Transition-capture logic uses this to
// grab the visuals a fade should start from.
func (c *Compositor) SnapshotZone(zoneID string) []zone.Led {
	reply := make(chan []zone.Led, 1)
	c.enqueue(func(now time.Time) {
		var pixels []zone.Led
		if st := c.states.Get(zoneID); st != nil {
			pixels = st.Pixels()
		}
		reply <- pixels
	})
	select {
	case pixels := <-reply:
		return pixels
	case <-time.After(4 * c.tickInterval):
		return nil
	}
}

// ChannelBuffer returns a copy of the named output's currently
// displayed physical buffer, or nil for an unknown output.
func (c *Compositor) ChannelBuffer(name string) []zone.Led {
	for _, out := range c.outputs {
		if out.Name() == name {
			return out.Buffer()
		}
	}
	return nil
}
