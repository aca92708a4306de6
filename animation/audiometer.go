//go:build cgo

package animation

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"ledgrid.net/zoneleds/compositor"
	"ledgrid.net/zoneleds/config"
	"ledgrid.net/zoneleds/zone"
)

var (
	paMutex       sync.Mutex
	paInitialized bool
)

const (
	meterMinDB = -60.0
	meterMaxDB = 0.0
)

// audioMeter renders a VU meter over a zone's pixels from a live audio
// input. The portaudio callback only stores the latest RMS level, the
// render work happens in Step on the scheduler's cadence.
type audioMeter struct {
	zoneID     string
	source     string
	pixelCount int
	interval   time.Duration

	stream *portaudio.Stream
	level  atomic.Uint64

	colors struct {
		green  zone.Led
		yellow zone.Led
		red    zone.Led
	}
}

func newAudioMeter(zoneID string, pixelCount int, cfg config.AudioLEDConfig) (Animation, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("audio meter is disabled in the configuration")
	}

	paMutex.Lock()
	if !paInitialized {
		if err := portaudio.Initialize(); err != nil {
			paMutex.Unlock()
			return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
		}
		slog.Info("PortAudio initialized")
		paInitialized = true
	}
	paMutex.Unlock()

	m := &audioMeter{
		zoneID:     zoneID,
		source:     "audiometer:" + zoneID,
		pixelCount: pixelCount,
		interval:   50 * time.Millisecond,
	}
	m.colors.green = zone.Led{Green: 200}
	m.colors.yellow = zone.Led{Red: 200, Green: 150}
	m.colors.red = zone.Led{Red: 220}

	device, err := findInputDevice(cfg.Device)
	if err != nil {
		return nil, err
	}
	slog.Info("Audio meter input", "zone", zoneID, "device", device.Name,
		"sampleRate", cfg.SampleRate, "framesPerBuffer", cfg.FramesPerBuffer)

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: device.MaxInputChannels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.FramesPerBuffer,
	}
	stream, err := portaudio.OpenStream(params, m.consume)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}
	m.stream = stream
	return m, nil
}

// consume is the portaudio callback. It must not block.
func (m *audioMeter) consume(in []float32) {
	var sumSquare float64
	for _, s := range in {
		sumSquare += float64(s * s)
	}
	rms := math.Sqrt(sumSquare / float64(max(1, len(in))))
	m.level.Store(math.Float64bits(rms))
}

func (m *audioMeter) Interval() time.Duration { return m.interval }

func (m *audioMeter) Step(elapsed time.Duration) *compositor.Frame {
	db := rmsToDB(math.Float64frombits(m.level.Load()))
	db = min(max(db, meterMinDB), meterMaxDB)
	norm := (db - meterMinDB) / (meterMaxDB - meterMinDB)
	lit := int(math.Ceil(norm * float64(m.pixelCount)))

	greenEnd := int(float64(m.pixelCount) * 0.7)
	yellowEnd := int(float64(m.pixelCount) * 0.9)

	pixels := make([]zone.Led, m.pixelCount)
	for i := 0; i < lit; i++ {
		switch {
		case i < greenEnd:
			pixels[i] = m.colors.green
		case i < yellowEnd:
			pixels[i] = m.colors.yellow
		default:
			pixels[i] = m.colors.red
		}
	}
	grid := map[string][]zone.Led{m.zoneID: pixels}
	return compositor.NewPixelGrid(grid, compositor.TierAnimation, m.source, frameTTL(m.interval), false)
}

// Close stops the audio stream and tears down portaudio once no meter
// holds it anymore.
func (m *audioMeter) Close() error {
	if m.stream != nil {
		if err := m.stream.Stop(); err != nil {
			slog.Warn("Error stopping audio stream", "zone", m.zoneID, "error", err)
		}
		if err := m.stream.Close(); err != nil {
			slog.Warn("Error closing audio stream", "zone", m.zoneID, "error", err)
		}
		m.stream = nil
	}

	paMutex.Lock()
	defer paMutex.Unlock()
	if paInitialized {
		if err := portaudio.Terminate(); err != nil {
			return fmt.Errorf("failed to terminate portaudio: %w", err)
		}
		slog.Info("PortAudio terminated")
		paInitialized = false
	}
	return nil
}

// findInputDevice returns the first input device whose name contains
// the given fragment, or the default input device for an empty fragment.
func findInputDevice(fragment string) (*portaudio.DeviceInfo, error) {
	if fragment == "" {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("no default audio input device: %w", err)
		}
		return device, nil
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("could not list audio devices: %w", err)
	}
	for _, device := range devices {
		if device.MaxInputChannels > 0 && strings.Contains(strings.ToLower(device.Name), strings.ToLower(fragment)) {
			return device, nil
		}
	}
	return nil, fmt.Errorf("no audio input device matching %q", fragment)
}

// rmsToDB converts an RMS value (0.0-1.0) to a decibel scale.
func rmsToDB(rms float64) float64 {
	rms = max(0.0001, rms)
	return 20 * math.Log10(rms)
}
