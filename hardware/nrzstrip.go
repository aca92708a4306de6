package hardware

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/nrzled"

	"ledgrid.net/zoneleds/zone"
)

// NRZStrip drives WS281x-family strips through the NRZ encoder in
// periph.io's nrzled device, bit-banged over an SPI port at a fixed
// signal frequency. The whole strip is always rewritten in one SPI
// transaction, which is what makes ApplyFrame atomic from the LEDs'
// point of view.
type NRZStrip struct {
	mu     sync.Mutex
	dev    io.Writer
	halter interface{ Halt() error }
	port   spi.PortCloser
	pixels []zone.Led
	shadow []zone.Led
	corr   []float64
	wire   []byte
}

// NewNRZStrip builds the driver on top of an already opened SPI port.
// The port stays owned by the strip and is closed on Shutdown when it
// is a PortCloser.
func NewNRZStrip(port spi.Port, ledsTotal int, freqHz int, corr []float64) (*NRZStrip, error) {
	opts := nrzled.Opts{
		NumPixels: ledsTotal,
		Channels:  3,
		Freq:      physic.Frequency(freqHz) * physic.Hertz,
	}
	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create nrzled device: %w", err)
	}
	if len(corr) != 3 {
		corr = []float64{1.0, 1.0, 1.0}
	}
	s := &NRZStrip{
		dev:    dev,
		halter: dev,
		pixels: make([]zone.Led, ledsTotal),
		shadow: make([]zone.Led, ledsTotal),
		corr:   corr,
		wire:   make([]byte, 0, 3*ledsTotal),
	}
	if closer, ok := port.(spi.PortCloser); ok {
		s.port = closer
	}
	return s, nil
}

func (s *NRZStrip) Len() int {
	return len(s.pixels)
}

func (s *NRZStrip) Buffer() []zone.Led {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]zone.Led, len(s.pixels))
	copy(out, s.pixels)
	return out
}

func (s *NRZStrip) ApplyFrame(frame []zone.Led) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(frame)
}

// applyLocked must be called with s.mu held.
func (s *NRZStrip) applyLocked(frame []zone.Led) error {
	if len(frame) > len(s.pixels) {
		frame = frame[:len(s.pixels)]
	}
	s.wire = encodeRGB(s.wire, frame, s.corr)
	if _, err := s.dev.Write(s.wire); err != nil {
		return fmt.Errorf("nrz strip write failed: %w", err)
	}
	copy(s.pixels, frame)
	copy(s.shadow, s.pixels)
	return nil
}

func (s *NRZStrip) SetPixel(index int, color zone.Led) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.shadow) {
		return
	}
	s.shadow[index] = color
}

func (s *NRZStrip) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := make([]zone.Led, len(s.shadow))
	copy(frame, s.shadow)
	return s.applyLocked(frame)
}

func (s *NRZStrip) Clear() error {
	return s.ApplyFrame(make([]zone.Led, len(s.pixels)))
}

func (s *NRZStrip) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halter != nil {
		if err := s.halter.Halt(); err != nil {
			slog.Error("Error halting nrz strip", "error", err)
		}
	}
	if s.port != nil {
		if err := s.port.Close(); err != nil {
			slog.Error("Error closing spi port", "error", err)
		}
		s.port = nil
	}
}
