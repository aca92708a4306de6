package hardware

import (
	"log/slog"

	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"ledgrid.net/zoneleds/config"
)

// Capability is the typed result of the one-time hardware probe. It is
// produced once at startup and injected into the strip construction;
// nothing ever re-probes per call.
type Capability struct {
	Available bool
	// Driver is the selected transport: "nrz", "rpio" or "virtual".
	Driver string
	// Reason explains an absent capability.
	Reason string
}

// Probe detects whether the configured LED transport is usable on this
// machine. driver is the config value: "auto" tries the periph.io host
// first and falls back to go-rpio; "virtual" skips probing entirely.
func Probe(driver string) Capability {
	switch driver {
	case "virtual":
		return Capability{Driver: "virtual", Reason: "forced by configuration"}
	case "rpio":
		return probeRpio()
	case "nrz":
		return probeNrz()
	default: // "auto"
		if c := probeNrz(); c.Available {
			return c
		}
		if c := probeRpio(); c.Available {
			return c
		}
		return Capability{Driver: "virtual", Reason: "no usable LED transport found"}
	}
}

func probeNrz() Capability {
	if _, err := host.Init(); err != nil {
		return Capability{Driver: "virtual", Reason: "periph host init failed: " + err.Error()}
	}
	// Opening the registry without a name finds the first SPI bus; a
	// machine without one has no NRZ transport.
	port, err := spireg.Open("")
	if err != nil {
		return Capability{Driver: "virtual", Reason: "no spi port: " + err.Error()}
	}
	port.Close()
	return Capability{Available: true, Driver: "nrz"}
}

func probeRpio() Capability {
	if err := rpio.Open(); err != nil {
		return Capability{Driver: "virtual", Reason: "rpio open failed: " + err.Error()}
	}
	rpio.Close()
	return Capability{Available: true, Driver: "rpio"}
}

// NewStrip builds the strip for one configured channel according to
// the probed capability. Construction failures degrade to a virtual
// strip with a log message instead of failing startup, so the
// compositor keeps running and correct visuals reappear once the
// hardware does.
func NewStrip(capab Capability, name string, chCfg config.ChannelConfig, hwCfg config.HardwareConfig) Strip {
	if !capab.Available {
		slog.Info("Using virtual strip", "channel", name, "reason", capab.Reason)
		return NewVirtualStrip(chCfg.LedsTotal)
	}

	switch capab.Driver {
	case "nrz":
		port, err := spireg.Open(chCfg.SPIDevice)
		if err != nil {
			slog.Error("Failed to open spi device - using virtual strip",
				"channel", name, "device", chCfg.SPIDevice, "error", err)
			return NewVirtualStrip(chCfg.LedsTotal)
		}
		strip, err := NewNRZStrip(port, chCfg.LedsTotal, hwCfg.SPIFrequency, chCfg.ColorCorrection)
		if err != nil {
			port.Close()
			slog.Error("Failed to create nrz strip - using virtual strip",
				"channel", name, "error", err)
			return NewVirtualStrip(chCfg.LedsTotal)
		}
		return strip
	case "rpio":
		strip, err := NewRPIOStrip(chCfg.LedsTotal, hwCfg.SPIFrequency, chCfg.ColorCorrection)
		if err != nil {
			slog.Error("Failed to create rpio strip - using virtual strip",
				"channel", name, "error", err)
			return NewVirtualStrip(chCfg.LedsTotal)
		}
		return strip
	default:
		return NewVirtualStrip(chCfg.LedsTotal)
	}
}
