package animation

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ledgrid.net/zoneleds/compositor"
	"ledgrid.net/zoneleds/config"
	"ledgrid.net/zoneleds/zone"
)

// recordSink collects pushed frames for inspection.
type recordSink struct {
	mu     sync.Mutex
	frames []*compositor.Frame
}

func (r *recordSink) Push(f *compositor.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *recordSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recordSink) bySource(source string) []*compositor.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*compositor.Frame
	for _, f := range r.frames {
		if f.Source == source {
			out = append(out, f)
		}
	}
	return out
}

func (r *recordSink) last() *compositor.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil
	}
	return r.frames[len(r.frames)-1]
}

func newTestScheduler() (*Scheduler, *recordSink, *zone.Registry) {
	sink := &recordSink{}
	registry := zone.NewRegistry([]zone.Zone{
		{ID: "desk", Channel: "main", FirstLed: 0, LastLed: 3},
	})
	s := NewScheduler(sink, registry, deskPixelCount, testAnimCfg(), config.AudioLEDConfig{})
	return s, sink, registry
}

func TestSchedulerStartEmitsFrames(t *testing.T) {
	s, sink, registry := newTestScheduler()
	defer s.StopAll()

	err := s.Start("desk", KindBreathe, Params{Speed: 10})
	assert.NoError(t, err)

	kind, ok := s.Running("desk")
	assert.True(t, ok)
	assert.Equal(t, KindBreathe, kind)
	assert.Equal(t, "breathe", registry.Get("desk").Mode)

	// The first frame is emitted immediately, before the first tick.
	assert.Eventually(t, func() bool { return sink.count() > 0 }, time.Second, 5*time.Millisecond)
	f := sink.last()
	assert.Equal(t, compositor.TierAnimation, f.Tier)
	assert.Equal(t, []string{"desk"}, f.Zones())
}

func TestSchedulerUnknownZone(t *testing.T) {
	s, _, _ := newTestScheduler()
	err := s.Start("nope", KindBreathe, Params{Speed: 10})
	assert.ErrorContains(t, err, "unknown zone")
}

func TestSchedulerUnknownKind(t *testing.T) {
	s, _, _ := newTestScheduler()
	err := s.Start("desk", Kind("sparkle"), Params{Speed: 10})
	assert.ErrorContains(t, err, "unknown animation kind")
}

func TestSchedulerStartReplacesRunningTask(t *testing.T) {
	s, _, registry := newTestScheduler()
	defer s.StopAll()

	assert.NoError(t, s.Start("desk", KindBreathe, Params{Speed: 10}))

	s.mu.Lock()
	old := s.tasks["desk"]
	s.mu.Unlock()

	assert.NoError(t, s.Start("desk", KindColorFade, Params{Speed: 10}))

	// The old task finished before the new one was created.
	select {
	case <-old.done:
	default:
		t.Fatal("replaced task must have completed")
	}

	kind, ok := s.Running("desk")
	assert.True(t, ok)
	assert.Equal(t, KindColorFade, kind)
	assert.Equal(t, "colorfade", registry.Get("desk").Mode)

	s.mu.Lock()
	assert.Len(t, s.tasks, 1, "a zone never has more than one task")
	s.mu.Unlock()
}

func TestSchedulerStop(t *testing.T) {
	s, _, registry := newTestScheduler()

	assert.NoError(t, s.Start("desk", KindBreathe, Params{Speed: 10}))
	s.Stop("desk")

	_, ok := s.Running("desk")
	assert.False(t, ok)
	assert.Empty(t, registry.Get("desk").Mode)

	// Stopping an idle zone is a no-op.
	s.Stop("desk")
}

func TestSchedulerStopAll(t *testing.T) {
	s, _, _ := newTestScheduler()

	assert.NoError(t, s.Start("desk", KindBreathe, Params{Speed: 10}))
	s.StopAll()

	s.mu.Lock()
	assert.Empty(t, s.tasks)
	s.mu.Unlock()
}

func TestConcurrentBreatheCadencesDiverge(t *testing.T) {
	sink := &recordSink{}
	registry := zone.NewRegistry([]zone.Zone{
		{ID: "desk", Channel: "main", FirstLed: 0, LastLed: 3},
		{ID: "shelf", Channel: "main", FirstLed: 4, LastLed: 9},
	})
	pixels := func(zoneID string) int {
		switch zoneID {
		case "desk":
			return 4
		case "shelf":
			return 6
		}
		return 0
	}
	s := NewScheduler(sink, registry, pixels, testAnimCfg(), config.AudioLEDConfig{})
	defer s.StopAll()

	registry.SetColor("desk", zone.Led{Red: 255})
	registry.SetColor("shelf", zone.Led{Red: 255})

	// Speed 100 clamps to the 500ms minimum period (10ms steps),
	// speed 1 runs a full 10s period (200ms steps).
	assert.NoError(t, s.Start("desk", KindBreathe, Params{Speed: 100}))
	assert.NoError(t, s.Start("shelf", KindBreathe, Params{Speed: 1}))

	assert.Eventually(t, func() bool {
		return len(sink.bySource("breathe:desk")) >= 20 &&
			len(sink.bySource("breathe:shelf")) >= 2
	}, 2*time.Second, 10*time.Millisecond)
	s.StopAll()

	fast := sink.bySource("breathe:desk")
	slow := sink.bySource("breathe:shelf")
	assert.Greater(t, len(fast), 3*len(slow),
		"the fast zone must step far more often than the slow one")

	spread := func(frames []*compositor.Frame, zoneID string) float64 {
		min, max := math.Inf(1), math.Inf(-1)
		for _, f := range frames {
			red := f.ZoneColors(pixels)[zoneID][0].Red
			min = math.Min(min, red)
			max = math.Max(max, red)
		}
		return max - min
	}
	fastSpread := spread(fast, "desk")
	slowSpread := spread(slow, "shelf")
	assert.Greater(t, fastSpread, 100.0,
		"the fast zone sweeps most of its sinusoid")
	assert.Greater(t, fastSpread, slowSpread,
		"the slow zone barely leaves the floor in the same wall time")
}

func TestSchedulerAudioMeterDisabled(t *testing.T) {
	s, _, _ := newTestScheduler()
	// The audio configuration is disabled, so the meter cannot start
	// regardless of the build's audio support.
	err := s.Start("desk", KindAudioMeter, Params{})
	assert.Error(t, err)
}
