package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration tree, decoded once at startup from
// the YAML config file.
type Config struct {
	RealHW     bool   `yaml:"-"`
	Configfile string `yaml:"-"`

	Logging struct {
		Level  string `yaml:"Level"`
		Format string `yaml:"Format"`
		File   string `yaml:"File"`
	} `yaml:"Logging"`

	Render RenderConfig `yaml:"Render"`

	Hardware HardwareConfig `yaml:"Hardware"`

	Zones []ZoneConfig `yaml:"Zones"`

	Animation AnimationConfig `yaml:"Animation"`

	Indicator IndicatorConfig `yaml:"Indicator"`

	NightDim NightDimConfig `yaml:"NightDim"`

	AudioLED AudioLEDConfig `yaml:"AudioLED"`
}

// RenderConfig holds the compositor's timing parameters.
type RenderConfig struct {
	// TickInterval is the fixed render loop period.
	TickInterval time.Duration `yaml:"TickInterval"`
	// ForceUpdateDelay bounds how long identical buffers may suppress
	// the hardware push before a heartbeat write is forced.
	ForceUpdateDelay time.Duration `yaml:"ForceUpdateDelay"`
}

// HardwareConfig selects the LED transport and describes the physical
// outputs.
type HardwareConfig struct {
	// Driver is one of "auto", "nrz", "rpio" or "virtual".
	Driver string `yaml:"Driver"`
	// SPIFrequency in Hertz for the LED data signal.
	SPIFrequency int `yaml:"SPIFrequency"`
	// Channels maps a channel name to one physical strip output.
	Channels map[string]ChannelConfig `yaml:"Channels"`
}

// ChannelConfig describes one physical strip output.
type ChannelConfig struct {
	LedsTotal       int       `yaml:"LedsTotal"`
	SPIDevice       string    `yaml:"SPIDevice"`
	ColorCorrection []float64 `yaml:"ColorCorrection"`
}

// ZoneConfig describes one zone's immutable geometry.
type ZoneConfig struct {
	ID       string `yaml:"ID"`
	Channel  string `yaml:"Channel"`
	FirstLed int    `yaml:"FirstLed"`
	LastLed  int    `yaml:"LastLed"`
	Reversed bool   `yaml:"Reversed"`
}

// AnimationConfig bounds the animation catalogue's tunables.
type AnimationConfig struct {
	BreatheMinPeriod time.Duration `yaml:"BreatheMinPeriod"`
	BreatheMaxPeriod time.Duration `yaml:"BreatheMaxPeriod"`
	BreatheFloor     float64       `yaml:"BreatheFloor"`
	FadePeriodBase   time.Duration `yaml:"FadePeriodBase"`
	SnakeTrail       int           `yaml:"SnakeTrail"`
}

// IndicatorConfig configures the selection indicator pulses.
type IndicatorConfig struct {
	Enabled    bool          `yaml:"Enabled"`
	LedRGB     []float64     `yaml:"LedRGB"`
	PulseTTL   time.Duration `yaml:"PulseTTL"`
	BlinkDelay time.Duration `yaml:"BlinkDelay"`
}

// NightDimConfig configures the sunset-to-sunrise dim light.
type NightDimConfig struct {
	Enabled   bool      `yaml:"Enabled"`
	Latitude  float64   `yaml:"Latitude"`
	Longitude float64   `yaml:"Longitude"`
	LedRGB    []float64 `yaml:"LedRGB"`
	Zones     []string  `yaml:"Zones"`
}

// AudioLEDConfig configures the audio VU meter animation.
type AudioLEDConfig struct {
	Enabled         bool   `yaml:"Enabled"`
	Device          string `yaml:"Device"`
	SampleRate      int    `yaml:"SampleRate"`
	FramesPerBuffer int    `yaml:"FramesPerBuffer"`
}

// ReadConfig loads and validates the configuration file.
func ReadConfig(cfile string, realhw bool) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := &Config{}
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(conf); err != nil {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	conf.RealHW = realhw
	conf.Configfile = cfile

	conf.applyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) applyDefaults() {
	if c.Render.TickInterval <= 0 {
		c.Render.TickInterval = 16 * time.Millisecond
	}
	if c.Render.ForceUpdateDelay <= 0 {
		c.Render.ForceUpdateDelay = 2 * time.Second
	}
	if c.Hardware.Driver == "" {
		c.Hardware.Driver = "auto"
	}
	if c.Hardware.SPIFrequency <= 0 {
		c.Hardware.SPIFrequency = 2500000
	}
	if c.Animation.BreatheMinPeriod <= 0 {
		c.Animation.BreatheMinPeriod = 500 * time.Millisecond
	}
	if c.Animation.BreatheMaxPeriod <= 0 {
		c.Animation.BreatheMaxPeriod = 20 * time.Second
	}
	if c.Animation.BreatheFloor <= 0 {
		c.Animation.BreatheFloor = 0.15
	}
	if c.Animation.FadePeriodBase <= 0 {
		c.Animation.FadePeriodBase = time.Minute
	}
	if c.Animation.SnakeTrail < 0 {
		c.Animation.SnakeTrail = 0
	}
	if c.Indicator.PulseTTL <= 0 {
		c.Indicator.PulseTTL = 300 * time.Millisecond
	}
	if c.Indicator.BlinkDelay <= 0 {
		c.Indicator.BlinkDelay = 600 * time.Millisecond
	}
	if len(c.Indicator.LedRGB) != 3 {
		c.Indicator.LedRGB = []float64{255, 255, 255}
	}
	if len(c.NightDim.LedRGB) != 3 {
		c.NightDim.LedRGB = []float64{40, 15, 0}
	}
	for name, ch := range c.Hardware.Channels {
		if len(ch.ColorCorrection) != 3 {
			ch.ColorCorrection = []float64{1.0, 1.0, 1.0}
			c.Hardware.Channels[name] = ch
		}
	}
}

// Validate checks the structural consistency of the configuration.
// Zone geometry that merely sticks out of the physical buffer is not an
// error here - the mapper clamps it at runtime - but zones referencing
// unknown channels or overlapping each other on one channel are
// rejected, because the compositor's per-zone arbitration relies on
// zones partitioning their channel.
func (c *Config) Validate() error {
	if len(c.Hardware.Channels) == 0 {
		return fmt.Errorf("no hardware channels configured")
	}
	for name, ch := range c.Hardware.Channels {
		if ch.LedsTotal <= 0 {
			return fmt.Errorf("channel %s: LedsTotal must be positive, got %d", name, ch.LedsTotal)
		}
	}
	if len(c.Zones) == 0 {
		return fmt.Errorf("no zones configured")
	}

	seen := make(map[string]bool, len(c.Zones))
	occupied := make(map[string]map[int]string)
	for _, z := range c.Zones {
		if z.ID == "" {
			return fmt.Errorf("zone with empty ID")
		}
		if seen[z.ID] {
			return fmt.Errorf("duplicate zone ID %q", z.ID)
		}
		seen[z.ID] = true

		ch, ok := c.Hardware.Channels[z.Channel]
		if !ok {
			return fmt.Errorf("zone %s references unknown channel %q", z.ID, z.Channel)
		}
		if occupied[z.Channel] == nil {
			occupied[z.Channel] = make(map[int]string)
		}
		first, last := z.FirstLed, z.LastLed
		if first > last {
			first, last = last, first
		}
		for i := first; i <= last; i++ {
			if i < 0 || i >= ch.LedsTotal {
				continue // clamped later by the mapper
			}
			if other, taken := occupied[z.Channel][i]; taken {
				return fmt.Errorf("zones %s and %s overlap at index %d on channel %s",
					other, z.ID, i, z.Channel)
			}
			occupied[z.Channel][i] = z.ID
		}
	}

	for _, zid := range c.NightDim.Zones {
		if !seen[zid] {
			return fmt.Errorf("NightDim references unknown zone %q", zid)
		}
	}
	return nil
}
