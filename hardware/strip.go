package hardware

import (
	"ledgrid.net/zoneleds/zone"
)

// Strip is the write surface of one physical LED strip. The compositor
// only ever talks to this contract, so the same render logic runs
// unmodified against real hardware and the in-memory stand-in.
type Strip interface {
	// Len returns the number of physical pixels.
	Len() int
	// Buffer returns a copy of the currently displayed pixels.
	Buffer() []zone.Led
	// ApplyFrame replaces the whole strip content in one atomic
	// hardware transfer.
	ApplyFrame(frame []zone.Led) error
	// SetPixel stages a single pixel write; nothing reaches the
	// hardware until Flush. This is the fallback path for drivers
	// whose atomic transfer failed.
	SetPixel(index int, color zone.Led)
	// Flush pushes all staged pixel writes out.
	Flush() error
	// Clear blacks out the strip.
	Clear() error
	// Shutdown releases the underlying hardware resources.
	Shutdown()
}

// encodeRGB serializes pixels into 3 bytes per LED with the channel's
// color correction applied, clamped to 255.
func encodeRGB(wire []byte, frame []zone.Led, corr []float64) []byte {
	wire = wire[:0]
	for _, led := range frame {
		wire = append(wire,
			correct(led.Red, corr[0]),
			correct(led.Green, corr[1]),
			correct(led.Blue, corr[2]))
	}
	return wire
}

func correct(component, factor float64) byte {
	v := component * factor
	if v > 255 {
		v = 255
	}
	if v < 0 {
		v = 0
	}
	return byte(v)
}
