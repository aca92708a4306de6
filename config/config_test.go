package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

const minimalConfig = `
Hardware:
  Channels:
    main:
      LedsTotal: 10
Zones:
  - ID: desk
    Channel: main
    FirstLed: 0
    LastLed: 3
  - ID: shelf
    Channel: main
    FirstLed: 4
    LastLed: 9
    Reversed: true
`

func TestReadConfigMinimal(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := ReadConfig(path, false)
	assert.NoError(t, err)
	assert.False(t, cfg.RealHW)
	assert.Equal(t, path, cfg.Configfile)

	assert.Len(t, cfg.Zones, 2)
	assert.Equal(t, "desk", cfg.Zones[0].ID)
	assert.True(t, cfg.Zones[1].Reversed)
	assert.Equal(t, 10, cfg.Hardware.Channels["main"].LedsTotal)
}

func TestReadConfigAppliesDefaults(t *testing.T) {
	cfg, err := ReadConfig(writeConfig(t, minimalConfig), true)
	assert.NoError(t, err)

	assert.True(t, cfg.RealHW)
	assert.Equal(t, 16*time.Millisecond, cfg.Render.TickInterval)
	assert.Equal(t, 2*time.Second, cfg.Render.ForceUpdateDelay)
	assert.Equal(t, "auto", cfg.Hardware.Driver)
	assert.Equal(t, 2500000, cfg.Hardware.SPIFrequency)
	assert.Equal(t, 500*time.Millisecond, cfg.Animation.BreatheMinPeriod)
	assert.Equal(t, 20*time.Second, cfg.Animation.BreatheMaxPeriod)
	assert.Equal(t, 0.15, cfg.Animation.BreatheFloor)
	assert.Equal(t, time.Minute, cfg.Animation.FadePeriodBase)
	assert.Equal(t, 300*time.Millisecond, cfg.Indicator.PulseTTL)
	assert.Equal(t, 600*time.Millisecond, cfg.Indicator.BlinkDelay)
	assert.Equal(t, []float64{255, 255, 255}, cfg.Indicator.LedRGB)
	assert.Equal(t, []float64{40, 15, 0}, cfg.NightDim.LedRGB)
	assert.Equal(t, []float64{1.0, 1.0, 1.0}, cfg.Hardware.Channels["main"].ColorCorrection)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig("/nonexistent/config.yaml", false)
	assert.ErrorContains(t, err, "can't open config file")
}

func TestReadConfigBadYaml(t *testing.T) {
	_, err := ReadConfig(writeConfig(t, "Hardware: ["), false)
	assert.ErrorContains(t, err, "can't decode config file")
}

func TestValidateRejectsMissingChannels(t *testing.T) {
	_, err := ReadConfig(writeConfig(t, `
Zones:
  - ID: desk
    Channel: main
    FirstLed: 0
    LastLed: 3
`), false)
	assert.ErrorContains(t, err, "no hardware channels")
}

func TestValidateRejectsNonPositiveLedsTotal(t *testing.T) {
	_, err := ReadConfig(writeConfig(t, `
Hardware:
  Channels:
    main:
      LedsTotal: 0
Zones:
  - ID: desk
    Channel: main
    FirstLed: 0
    LastLed: 3
`), false)
	assert.ErrorContains(t, err, "LedsTotal must be positive")
}

func TestValidateRejectsUnknownChannelReference(t *testing.T) {
	_, err := ReadConfig(writeConfig(t, `
Hardware:
  Channels:
    main:
      LedsTotal: 10
Zones:
  - ID: desk
    Channel: nope
    FirstLed: 0
    LastLed: 3
`), false)
	assert.ErrorContains(t, err, "unknown channel")
}

func TestValidateRejectsDuplicateZoneIDs(t *testing.T) {
	_, err := ReadConfig(writeConfig(t, `
Hardware:
  Channels:
    main:
      LedsTotal: 10
Zones:
  - ID: desk
    Channel: main
    FirstLed: 0
    LastLed: 3
  - ID: desk
    Channel: main
    FirstLed: 4
    LastLed: 9
`), false)
	assert.ErrorContains(t, err, "duplicate zone ID")
}

func TestValidateRejectsOverlappingZones(t *testing.T) {
	_, err := ReadConfig(writeConfig(t, `
Hardware:
  Channels:
    main:
      LedsTotal: 10
Zones:
  - ID: desk
    Channel: main
    FirstLed: 0
    LastLed: 5
  - ID: shelf
    Channel: main
    FirstLed: 5
    LastLed: 9
`), false)
	assert.ErrorContains(t, err, "overlap")
}

func TestValidateToleratesOutOfRangeGeometry(t *testing.T) {
	// Zones sticking out of the buffer render short, the mapper clamps
	// them at runtime.
	cfg, err := ReadConfig(writeConfig(t, `
Hardware:
  Channels:
    main:
      LedsTotal: 10
Zones:
  - ID: desk
    Channel: main
    FirstLed: 8
    LastLed: 14
`), false)
	assert.NoError(t, err)
	assert.Len(t, cfg.Zones, 1)
}

func TestValidateRejectsUnknownNightDimZone(t *testing.T) {
	_, err := ReadConfig(writeConfig(t, `
Hardware:
  Channels:
    main:
      LedsTotal: 10
Zones:
  - ID: desk
    Channel: main
    FirstLed: 0
    LastLed: 3
NightDim:
  Enabled: true
  Zones: [nope]
`), false)
	assert.ErrorContains(t, err, "unknown zone")
}
