package zone

// Zone describes one named, logically contiguous subrange of a physical
// strip's pixels. The geometry is immutable after startup; FirstLed and
// LastLed are inclusive absolute indices on the owning channel.
type Zone struct {
	ID       string
	Channel  string
	FirstLed int
	LastLed  int
	Reversed bool
}

// PixelCount returns the number of pixels the zone spans.
func (z Zone) PixelCount() int {
	if z.LastLed < z.FirstLed {
		return z.FirstLed - z.LastLed + 1
	}
	return z.LastLed - z.FirstLed + 1
}
