//go:build !cgo

package animation

import (
	"fmt"

	"ledgrid.net/zoneleds/config"
)

// newAudioMeter is the fallback for builds without CGO, where the
// portaudio binding is unavailable.
func newAudioMeter(zoneID string, pixelCount int, cfg config.AudioLEDConfig) (Animation, error) {
	return nil, fmt.Errorf("audio support is disabled in this build (requires CGO)")
}
