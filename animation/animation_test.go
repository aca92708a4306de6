package animation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ledgrid.net/zoneleds/zone"
)

func TestClampSpeed(t *testing.T) {
	assert.Equal(t, 1.0, clampSpeed(0, "test"))
	assert.Equal(t, 1.0, clampSpeed(-5, "test"))
	assert.Equal(t, 100.0, clampSpeed(1000, "test"))
	assert.Equal(t, 42.0, clampSpeed(42, "test"))
}

func TestStepInterval(t *testing.T) {
	// period/50, bounded to 10ms..250ms
	assert.Equal(t, 10*time.Millisecond, stepInterval(100*time.Millisecond))
	assert.Equal(t, 200*time.Millisecond, stepInterval(10*time.Second))
	assert.Equal(t, 250*time.Millisecond, stepInterval(time.Hour))
}

func TestFrameTTL(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, frameTTL(10*time.Millisecond))
	assert.Equal(t, 600*time.Millisecond, frameTTL(200*time.Millisecond))
}

func TestBaseSnapshot(t *testing.T) {
	settings := zone.Settings{Color: zone.Led{Red: 255}, Brightness: 0.5}

	color, brightness := baseSnapshot(settings, zone.Led{})
	assert.Equal(t, zone.Led{Red: 255}, color)
	assert.Equal(t, 0.5, brightness)

	// A non-zero override replaces the settings color.
	color, _ = baseSnapshot(settings, zone.Led{Blue: 255})
	assert.Equal(t, zone.Led{Blue: 255}, color)

	// Out-of-range brightness falls back to full.
	_, brightness = baseSnapshot(zone.Settings{Color: zone.Led{Red: 1}}, zone.Led{})
	assert.Equal(t, 1.0, brightness)
}
