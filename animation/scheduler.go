package animation

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"ledgrid.net/zoneleds/compositor"
	"ledgrid.net/zoneleds/config"
	"ledgrid.net/zoneleds/zone"
)

// Sink receives the frames animation tasks produce. The compositor is
// the production implementation.
type Sink interface {
	Push(f *compositor.Frame)
}

// Scheduler owns at most one running animation task per zone. Starting
// an animation on a zone that already has one cancels the old task and
// awaits its completion before the new one is created, so a zone never
// has two owning producers at the same instant.
type Scheduler struct {
	sink       Sink
	registry   *zone.Registry
	pixelCount func(string) int
	cfg        config.AnimationConfig
	audioCfg   config.AudioLEDConfig

	mu    sync.Mutex
	tasks map[string]*task
}

// task is one supervised per-zone animation goroutine. stop is closed
// exactly once by the scheduler (Start replacement, Stop or StopAll);
// done is closed by the goroutine on exit.
type task struct {
	kind Kind
	stop chan struct{}
	done chan struct{}
}

// NewScheduler creates a Scheduler pushing into sink. pixelCount
// resolves zone buffer lengths and doubles as the zone-exists check.
func NewScheduler(sink Sink, registry *zone.Registry, pixelCount func(string) int,
	cfg config.AnimationConfig, audioCfg config.AudioLEDConfig) *Scheduler {
	return &Scheduler{
		sink:       sink,
		registry:   registry,
		pixelCount: pixelCount,
		cfg:        cfg,
		audioCfg:   audioCfg,
		tasks:      make(map[string]*task),
	}
}

// Start runs the given animation on zoneID, replacing and awaiting any
// animation already running there.
func (s *Scheduler) Start(zoneID string, kind Kind, p Params) error {
	if s.pixelCount(zoneID) <= 0 {
		return fmt.Errorf("unknown zone %q", zoneID)
	}
	anim, err := s.newAnimation(zoneID, kind, p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(zoneID)

	t := &task{
		kind: kind,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	s.tasks[zoneID] = t
	go s.run(zoneID, anim, t)
	s.registry.SetMode(zoneID, string(kind))
	slog.Info("Animation started", "zone", zoneID, "kind", string(kind))
	return nil
}

// Stop cancels and awaits zoneID's animation task. A zone without a
// task is a no-op.
func (s *Scheduler) Stop(zoneID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[zoneID]; ok {
		s.cancelLocked(zoneID)
		s.registry.SetMode(zoneID, "")
	}
}

// StopAll cancels and awaits every active animation task.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for zoneID := range s.tasks {
		s.cancelLocked(zoneID)
		s.registry.SetMode(zoneID, "")
	}
}

// Running reports the kind of zoneID's active animation, if any.
func (s *Scheduler) Running(zoneID string) (Kind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[zoneID]
	if !ok {
		return "", false
	}
	return t.kind, true
}

// cancelLocked must be called with s.mu held. It signals the zone's
// task, waits for it to finish and removes it.
func (s *Scheduler) cancelLocked(zoneID string) {
	t, ok := s.tasks[zoneID]
	if !ok {
		return
	}
	close(t.stop)
	<-t.done
	delete(s.tasks, zoneID)
}

// run is the per-task worker. Cancellation through t.stop is normal
// control flow, never an error.
func (s *Scheduler) run(zoneID string, anim Animation, t *task) {
	defer close(t.done)
	defer func() {
		if closer, ok := anim.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("Error closing animation", "zone", zoneID, "error", err)
			}
		}
		slog.Info("Animation stopped", "zone", zoneID, "kind", string(t.kind))
	}()

	started := time.Now()
	ticker := time.NewTicker(anim.Interval())
	defer ticker.Stop()

	for {
		if f := anim.Step(time.Since(started)); f != nil {
			s.sink.Push(f)
		}
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}
	}
}

// newAnimation builds the catalogue entry with a snapshot of the
// zone's current domain settings.
func (s *Scheduler) newAnimation(zoneID string, kind Kind, p Params) (Animation, error) {
	settings := s.registry.Get(zoneID)
	switch kind {
	case KindBreathe:
		return newBreathe(zoneID, settings, p, s.cfg), nil
	case KindColorFade:
		return newColorFade(zoneID, settings, p, s.cfg), nil
	case KindSnake:
		return newSnake(zoneID, settings, p, s.cfg, s.pixelCount), nil
	case KindAudioMeter:
		return newAudioMeter(zoneID, s.pixelCount(zoneID), s.audioCfg)
	default:
		return nil, fmt.Errorf("unknown animation kind %q", kind)
	}
}
