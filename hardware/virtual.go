package hardware

import (
	"sync"

	"ledgrid.net/zoneleds/util"
	"ledgrid.net/zoneleds/zone"
)

// VirtualStrip is the always-succeeding in-memory strip used when real
// hardware is absent: development machines, tests, or a failed
// capability probe. An optional observer receives every displayed
// frame, which is how the simulation TUI gets its data.
type VirtualStrip struct {
	mu       sync.Mutex
	pixels   []zone.Led
	shadow   []zone.Led
	observer *util.AtomicEvent[[]zone.Led]
}

// NewVirtualStrip creates a virtual strip of the given length.
func NewVirtualStrip(ledsTotal int) *VirtualStrip {
	return &VirtualStrip{
		pixels: make([]zone.Led, ledsTotal),
		shadow: make([]zone.Led, ledsTotal),
	}
}

// SetObserver attaches a latest-frame mailbox that is notified on
// every display update. Must be called before the render loop starts.
func (s *VirtualStrip) SetObserver(ev *util.AtomicEvent[[]zone.Led]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = ev
}

func (s *VirtualStrip) Len() int {
	return len(s.pixels)
}

func (s *VirtualStrip) Buffer() []zone.Led {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]zone.Led, len(s.pixels))
	copy(out, s.pixels)
	return out
}

func (s *VirtualStrip) ApplyFrame(frame []zone.Led) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := copy(s.pixels, frame)
	for i := n; i < len(s.pixels); i++ {
		s.pixels[i] = zone.Led{}
	}
	copy(s.shadow, s.pixels)
	s.notify()
	return nil
}

func (s *VirtualStrip) SetPixel(index int, color zone.Led) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.shadow) {
		return
	}
	s.shadow[index] = color
}

func (s *VirtualStrip) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.pixels, s.shadow)
	s.notify()
	return nil
}

func (s *VirtualStrip) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pixels {
		s.pixels[i] = zone.Led{}
		s.shadow[i] = zone.Led{}
	}
	s.notify()
	return nil
}

func (s *VirtualStrip) Shutdown() {}

// notify must be called with s.mu held.
func (s *VirtualStrip) notify() {
	if s.observer == nil {
		return
	}
	snapshot := make([]zone.Led, len(s.pixels))
	copy(snapshot, s.pixels)
	s.observer.Send(snapshot)
}
