package zone

// Led holds one pixel's color. Components are kept as float64 in the
// 0..255 range so animations can scale them without accumulating
// rounding errors; conversion to bytes happens only at the hardware
// boundary.
type Led struct {
	Red   float64
	Green float64
	Blue  float64
}

// IsEmpty is true if all components are zero.
func (s Led) IsEmpty() bool {
	return s.Red == 0 && s.Green == 0 && s.Blue == 0
}

// Max returns a Led with the per-component maximum of the caller and in.
func (s Led) Max(in Led) Led {
	if s.Red > in.Red {
		in.Red = s.Red
	}
	if s.Green > in.Green {
		in.Green = s.Green
	}
	if s.Blue > in.Blue {
		in.Blue = s.Blue
	}
	return in
}

// Scale returns the Led with all components multiplied by factor and
// clamped to the 0..255 range.
func (s Led) Scale(factor float64) Led {
	return Led{
		Red:   clampComponent(s.Red * factor),
		Green: clampComponent(s.Green * factor),
		Blue:  clampComponent(s.Blue * factor),
	}
}

func clampComponent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
