package zone

import "sync"

// Settings is the domain state of a zone as set by the layers above
// this core (an API, a remote, a scene file). Animations read it once
// at start to seed their base color and brightness snapshot; the
// compositor never writes it.
type Settings struct {
	Color      Led
	Brightness float64
	On         bool
	Mode       string
}

// Registry is the concurrency-safe store of per-zone Settings.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Settings
}

// NewRegistry creates a Registry with default settings (white, full
// brightness, off) for every given zone.
func NewRegistry(zones []Zone) *Registry {
	r := &Registry{m: make(map[string]Settings, len(zones))}
	for _, z := range zones {
		r.m[z.ID] = Settings{
			Color:      Led{Red: 255, Green: 255, Blue: 255},
			Brightness: 1.0,
		}
	}
	return r
}

// Get returns the current settings of zoneID. Unknown zones read as the
// zero Settings value.
func (r *Registry) Get(zoneID string) Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.m[zoneID]
}

// Set replaces the settings of zoneID.
func (r *Registry) Set(zoneID string, s Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[zoneID] = s
}

// SetColor updates only the color of zoneID.
func (r *Registry) SetColor(zoneID string, c Led) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.m[zoneID]
	s.Color = c
	r.m[zoneID] = s
}

// SetBrightness updates only the brightness of zoneID, clamped to 0..1.
func (r *Registry) SetBrightness(zoneID string, b float64) {
	if b < 0 {
		b = 0
	}
	if b > 1 {
		b = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.m[zoneID]
	s.Brightness = b
	r.m[zoneID] = s
}

// SetOn updates only the on/off flag of zoneID.
func (r *Registry) SetOn(zoneID string, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.m[zoneID]
	s.On = on
	r.m[zoneID] = s
}

// SetMode updates only the render mode of zoneID.
func (r *Registry) SetMode(zoneID string, mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.m[zoneID]
	s.Mode = mode
	r.m[zoneID] = s
}
