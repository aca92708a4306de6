package hardware

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"

	"ledgrid.net/zoneleds/zone"
)

// RPIOStrip drives WS2801-style strips (clocked SPI protocol, raw RGB
// byte stream) directly through the Raspberry Pi's SPI0 pins using
// go-rpio. Only one RPIOStrip can exist per process because go-rpio
// owns the SPI peripheral globally.
type RPIOStrip struct {
	mu     sync.Mutex
	pixels []zone.Led
	shadow []zone.Led
	corr   []float64
	wire   []byte
	open   bool
}

// NewRPIOStrip opens the GPIO memory window and claims SPI0.
func NewRPIOStrip(ledsTotal int, freqHz int, corr []float64) (*RPIOStrip, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open rpio: %w", err)
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		rpio.Close()
		return nil, fmt.Errorf("failed to begin spi: %w", err)
	}
	rpio.SpiSpeed(freqHz)

	if len(corr) != 3 {
		corr = []float64{1.0, 1.0, 1.0}
	}
	return &RPIOStrip{
		pixels: make([]zone.Led, ledsTotal),
		shadow: make([]zone.Led, ledsTotal),
		corr:   corr,
		wire:   make([]byte, 0, 3*ledsTotal),
		open:   true,
	}, nil
}

func (s *RPIOStrip) Len() int {
	return len(s.pixels)
}

func (s *RPIOStrip) Buffer() []zone.Led {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]zone.Led, len(s.pixels))
	copy(out, s.pixels)
	return out
}

func (s *RPIOStrip) ApplyFrame(frame []zone.Led) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(frame)
}

// applyLocked must be called with s.mu held.
func (s *RPIOStrip) applyLocked(frame []zone.Led) error {
	if !s.open {
		return fmt.Errorf("rpio strip is shut down")
	}
	if len(frame) > len(s.pixels) {
		frame = frame[:len(s.pixels)]
	}
	s.wire = encodeRGB(s.wire, frame, s.corr)
	rpio.SpiExchange(s.wire)
	// WS2801 latches on clock idle; give it a moment before the next
	// transfer can start.
	time.Sleep(100 * time.Microsecond)
	copy(s.pixels, frame)
	copy(s.shadow, s.pixels)
	return nil
}

func (s *RPIOStrip) SetPixel(index int, color zone.Led) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.shadow) {
		return
	}
	s.shadow[index] = color
}

func (s *RPIOStrip) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := make([]zone.Led, len(s.shadow))
	copy(frame, s.shadow)
	return s.applyLocked(frame)
}

func (s *RPIOStrip) Clear() error {
	return s.ApplyFrame(make([]zone.Led, len(s.pixels)))
}

func (s *RPIOStrip) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	if err := s.applyLocked(make([]zone.Led, len(s.pixels))); err != nil {
		slog.Error("Error blanking rpio strip", "error", err)
	}
	rpio.SpiEnd(rpio.Spi0)
	rpio.Close()
	s.open = false
}
