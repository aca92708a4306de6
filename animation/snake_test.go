package animation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ledgrid.net/zoneleds/zone"
)

func twoZonePixelCount(zoneID string) int {
	switch zoneID {
	case "desk":
		return 4
	case "shelf":
		return 6
	}
	return 0
}

func TestSnakeHeadAdvancesAndWraps(t *testing.T) {
	settings := zone.Settings{Color: zone.Led{Red: 255}, Brightness: 1.0}
	s := newSnake("desk", settings, Params{Speed: 1, Trail: 0}, testAnimCfg(), deskPixelCount)
	s.trail = 0

	assert.Equal(t, time.Second, s.interval)

	pixels := s.Step(0).ZoneColors(deskPixelCount)["desk"]
	assert.Equal(t, zone.Led{Red: 255}, pixels[0])
	assert.Equal(t, zone.Led{}, pixels[1])

	pixels = s.Step(2 * time.Second).ZoneColors(deskPixelCount)["desk"]
	assert.Equal(t, zone.Led{}, pixels[0])
	assert.Equal(t, zone.Led{Red: 255}, pixels[2])

	// After total pixels worth of steps the head wraps around.
	pixels = s.Step(4 * time.Second).ZoneColors(deskPixelCount)["desk"]
	assert.Equal(t, zone.Led{Red: 255}, pixels[0])
}

func TestSnakeTrailFades(t *testing.T) {
	settings := zone.Settings{Color: zone.Led{Red: 200}, Brightness: 1.0}
	s := newSnake("desk", settings, Params{Speed: 1, Trail: 1}, testAnimCfg(), deskPixelCount)

	pixels := s.Step(2 * time.Second).ZoneColors(deskPixelCount)["desk"]
	assert.Equal(t, 200.0, pixels[2].Red, "head at full intensity")
	assert.InDelta(t, 100.0, pixels[1].Red, 0.001, "tail at half intensity")
	assert.Equal(t, 0.0, pixels[0].Red)
}

func TestSnakeTrailWrapsBehindHead(t *testing.T) {
	settings := zone.Settings{Color: zone.Led{Red: 200}, Brightness: 1.0}
	s := newSnake("desk", settings, Params{Speed: 1, Trail: 1}, testAnimCfg(), deskPixelCount)

	pixels := s.Step(0).ZoneColors(deskPixelCount)["desk"]
	assert.Equal(t, 200.0, pixels[0].Red)
	assert.InDelta(t, 100.0, pixels[3].Red, 0.001, "tail wraps to the end of the run")
}

func TestSnakeSpansMultipleZones(t *testing.T) {
	settings := zone.Settings{Color: zone.Led{Red: 255}, Brightness: 1.0}
	s := newSnake("desk", settings, Params{Speed: 1, Trail: 0, Zones: []string{"shelf"}},
		testAnimCfg(), twoZonePixelCount)
	s.trail = 0

	assert.Equal(t, 10, s.total)

	// Position 5 lives in the second zone at local index 1. Every
	// addressed zone gets a full replacement buffer.
	colors := s.Step(5 * time.Second).ZoneColors(twoZonePixelCount)
	assert.Len(t, colors["desk"], 4)
	assert.Len(t, colors["shelf"], 6)
	assert.Equal(t, zone.Led{Red: 255}, colors["shelf"][1])
	for _, p := range colors["desk"] {
		assert.Equal(t, zone.Led{}, p)
	}
}

func TestSnakeSkipsUnknownExtraZones(t *testing.T) {
	settings := zone.Settings{Color: zone.Led{Red: 255}, Brightness: 1.0}
	s := newSnake("desk", settings, Params{Speed: 1, Zones: []string{"nope"}},
		testAnimCfg(), deskPixelCount)

	assert.Equal(t, 4, s.total)
	assert.Len(t, s.segments, 1)
}

func TestSnakeTrailCappedByRunLength(t *testing.T) {
	settings := zone.Settings{Color: zone.Led{Red: 255}, Brightness: 1.0}
	s := newSnake("desk", settings, Params{Speed: 1, Trail: 99}, testAnimCfg(), deskPixelCount)

	assert.Equal(t, 3, s.trail)
}

func TestSnakeDefaultTrailFromConfig(t *testing.T) {
	settings := zone.Settings{Color: zone.Led{Red: 255}, Brightness: 1.0}
	s := newSnake("desk", settings, Params{Speed: 1}, testAnimCfg(), deskPixelCount)

	assert.Equal(t, 2, s.trail)
}
