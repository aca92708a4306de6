package hardware

import (
	"fmt"

	"ledgrid.net/zoneleds/zone"
)

// Channel is one hardware output: exactly one physical strip plus the
// pixel mapping for the zones assigned to it. A system runs one
// Channel per physical strip.
type Channel struct {
	name    string
	strip   Strip
	mapper  *zone.Mapper
	zoneIDs []string
}

// NewChannel wires a strip to the zones assigned to it. Only zones
// whose Channel field matches name are mapped.
func NewChannel(name string, strip Strip, zones []zone.Zone) *Channel {
	var own []zone.Zone
	var ids []string
	for _, z := range zones {
		if z.Channel == name {
			own = append(own, z)
			ids = append(ids, z.ID)
		}
	}
	return &Channel{
		name:    name,
		strip:   strip,
		mapper:  zone.NewMapper(own, strip.Len()),
		zoneIDs: ids,
	}
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return c.name
}

// ZoneIDs lists the zones assigned to this channel in configuration
// order.
func (c *Channel) ZoneIDs() []string {
	return c.zoneIDs
}

// Mapper exposes the channel's zone-to-pixel mapping.
func (c *Channel) Mapper() *zone.Mapper {
	return c.mapper
}

// Strip exposes the underlying write surface for shutdown handling.
func (c *Channel) Strip() Strip {
	return c.strip
}

// Apply overlays the given zones' colors at their mapped physical
// indices onto the channel's current buffer - zones not mentioned keep
// their previously rendered pixels - and writes the result back in one
// atomic hardware transfer.
func (c *Channel) Apply(zoneColors map[string][]zone.Led) error {
	buf := c.strip.Buffer()
	c.overlay(buf, zoneColors)
	if err := c.strip.ApplyFrame(buf); err != nil {
		return fmt.Errorf("channel %s: %w", c.name, err)
	}
	return nil
}

// ApplySlow performs the same overlay through the strip's per-pixel
// staging path followed by an explicit flush. It is the fallback used
// when the atomic transfer fails.
func (c *Channel) ApplySlow(zoneColors map[string][]zone.Led) error {
	for zoneID, colors := range zoneColors {
		for i, idx := range c.mapper.Indices(zoneID) {
			if i >= len(colors) {
				break
			}
			c.strip.SetPixel(idx, colors[i])
		}
	}
	if err := c.strip.Flush(); err != nil {
		return fmt.Errorf("channel %s flush: %w", c.name, err)
	}
	return nil
}

// Buffer returns a copy of the channel's currently displayed pixels.
func (c *Channel) Buffer() []zone.Led {
	return c.strip.Buffer()
}

// overlay writes the zone colors into buf at their mapped indices.
func (c *Channel) overlay(buf []zone.Led, zoneColors map[string][]zone.Led) {
	for zoneID, colors := range zoneColors {
		for i, idx := range c.mapper.Indices(zoneID) {
			if i >= len(colors) {
				break
			}
			if idx >= 0 && idx < len(buf) {
				buf[idx] = colors[i]
			}
		}
	}
}
