package zone

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"time"
)

// State is the ephemeral render state of one zone: the pixel colors the
// compositor last resolved for it. It is not persisted and survives
// only for the lifetime of the process.
//
// A State is mutated exclusively by the compositor inside its render
// tick, so no locking happens here.
type State struct {
	ID         string
	Brightness float64
	LastSource string
	UpdatedAt  time.Time

	pixels []Led
	dirty  bool
	hash   uint64
}

func newState(z Zone) *State {
	s := &State{
		ID:         z.ID,
		Brightness: 1.0,
		pixels:     make([]Led, z.PixelCount()),
	}
	s.rehash()
	return s
}

// Pixels returns a copy of the zone's current pixel buffer. The length
// always equals the zone's pixel count.
func (s *State) Pixels() []Led {
	out := make([]Led, len(s.pixels))
	copy(out, s.pixels)
	return out
}

// PixelCount returns the fixed length of the zone's pixel buffer.
func (s *State) PixelCount() int {
	return len(s.pixels)
}

// Replace overwrites the entire zone buffer with the given colors. A
// shorter input leaves the tail black, a longer one is truncated; the
// buffer length is invariant.
func (s *State) Replace(colors []Led, source string, now time.Time) {
	for i := range s.pixels {
		if i < len(colors) {
			s.pixels[i] = colors[i]
		} else {
			s.pixels[i] = Led{}
		}
	}
	s.touch(source, now)
}

// Overlay writes only the provided entries onto the existing buffer,
// leaving all pixels beyond len(colors) untouched.
func (s *State) Overlay(colors []Led, source string, now time.Time) {
	n := len(colors)
	if n > len(s.pixels) {
		n = len(s.pixels)
	}
	copy(s.pixels[:n], colors[:n])
	s.touch(source, now)
}

// Clear blacks out the zone buffer. This is the only reset a State
// ever sees.
func (s *State) Clear(source string, now time.Time) {
	for i := range s.pixels {
		s.pixels[i] = Led{}
	}
	s.touch(source, now)
}

func (s *State) touch(source string, now time.Time) {
	s.LastSource = source
	s.UpdatedAt = now
	s.dirty = true
	s.rehash()
}

// Dirty reports whether the state changed since the last ClearDirty.
func (s *State) Dirty() bool {
	return s.dirty
}

// ClearDirty marks the state as consumed by a hardware push.
func (s *State) ClearDirty() {
	s.dirty = false
}

// Hash is the cached content hash over pixels and brightness. Two
// states with equal hash render to identical physical output.
func (s *State) Hash() uint64 {
	return s.hash
}

func (s *State) rehash() {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s.Brightness))
	h.Write(buf[:])
	for _, led := range s.pixels {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(led.Red))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(led.Green))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(led.Blue))
		h.Write(buf[:])
	}
	s.hash = h.Sum64()
}

// SetBrightness updates the render-state brightness. Like all other
// State mutation it must only be called from the render tick.
func (s *State) SetBrightness(b float64) {
	if b < 0 {
		b = 0
	}
	if b > 1 {
		b = 1
	}
	s.Brightness = b
	s.rehash()
}

// States holds the render state of every configured zone.
type States struct {
	byID  map[string]*State
	order []string
}

// NewStates creates the per-zone render states for the given zones.
func NewStates(zones []Zone) *States {
	st := &States{
		byID:  make(map[string]*State, len(zones)),
		order: make([]string, 0, len(zones)),
	}
	for _, z := range zones {
		st.byID[z.ID] = newState(z)
		st.order = append(st.order, z.ID)
	}
	return st
}

// Get returns the state for zoneID, or nil if the zone is unknown.
func (st *States) Get(zoneID string) *State {
	return st.byID[zoneID]
}

// PixelCount returns the pixel count of zoneID, or 0 for unknown zones.
func (st *States) PixelCount(zoneID string) int {
	if s := st.byID[zoneID]; s != nil {
		return s.PixelCount()
	}
	return 0
}

// IDs returns all zone ids in configuration order.
func (st *States) IDs() []string {
	return st.order
}
