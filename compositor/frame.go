package compositor

import (
	"log/slog"
	"time"

	"ledgrid.net/zoneleds/zone"
)

// Tier is the priority class of a frame. Higher tiers win per-zone
// arbitration. The order is fixed.
type Tier int

const (
	TierDebug Tier = iota
	TierStatic
	TierAnimation
	TierIndicator
	TierManual

	numTiers
)

func (t Tier) String() string {
	switch t {
	case TierDebug:
		return "debug"
	case TierStatic:
		return "static"
	case TierAnimation:
		return "animation"
	case TierIndicator:
		return "indicator"
	case TierManual:
		return "manual"
	default:
		return "unknown"
	}
}

// FrameKind discriminates the closed set of frame payloads.
type FrameKind int

const (
	// KindSingleZone carries one color for one zone.
	KindSingleZone FrameKind = iota
	// KindMultiZone carries one color per addressed zone.
	KindMultiZone
	// KindPixelGrid carries an explicit pixel array per addressed zone.
	KindPixelGrid
)

// Frame is one proposed pixel update. It is created by a producer,
// pushed once, consumed at most once by the render tick that sees it,
// and then discarded; frames never survive a tick.
type Frame struct {
	Tier    Tier
	Kind    FrameKind
	Source  string
	At      time.Time
	TTL     time.Duration
	// Partial overlays the addressed entries onto the zone's existing
	// buffer; a non-partial frame replaces the zone buffer entirely.
	Partial bool

	singleZone string
	single     zone.Led
	multi      map[string]zone.Led
	grid       map[string][]zone.Led
}

// NewSingleZone creates a frame setting one zone to one color.
func NewSingleZone(zoneID string, color zone.Led, tier Tier, source string, ttl time.Duration, partial bool) *Frame {
	f := newFrame(KindSingleZone, tier, source, ttl, partial)
	f.singleZone = zoneID
	f.single = color
	return f
}

// NewMultiZone creates a frame setting each addressed zone to its own
// color.
func NewMultiZone(colors map[string]zone.Led, tier Tier, source string, ttl time.Duration, partial bool) *Frame {
	f := newFrame(KindMultiZone, tier, source, ttl, partial)
	f.multi = colors
	return f
}

// NewPixelGrid creates a frame carrying explicit pixel arrays per
// addressed zone.
func NewPixelGrid(pixels map[string][]zone.Led, tier Tier, source string, ttl time.Duration, partial bool) *Frame {
	f := newFrame(KindPixelGrid, tier, source, ttl, partial)
	f.grid = pixels
	return f
}

func newFrame(kind FrameKind, tier Tier, source string, ttl time.Duration, partial bool) *Frame {
	if tier < TierDebug || tier >= numTiers {
		slog.Warn("frame tier out of range - clamping", "tier", int(tier), "source", source)
		if tier < TierDebug {
			tier = TierDebug
		} else {
			tier = TierManual
		}
	}
	if ttl <= 0 {
		slog.Warn("frame TTL not positive - using default", "ttl", ttl, "source", source)
		ttl = defaultTTL
	}
	return &Frame{
		Tier:    tier,
		Kind:    kind,
		Source:  source,
		At:      time.Now(),
		TTL:     ttl,
		Partial: partial,
	}
}

const defaultTTL = time.Second

// Expired reports whether the frame's age exceeded its TTL at now.
func (f *Frame) Expired(now time.Time) bool {
	return now.Sub(f.At) > f.TTL
}

// ZoneColors expands the frame into one pixel slice per addressed
// zone. pixelCount resolves a zone's fixed buffer length; zones it
// reports as 0 are unknown and are skipped with a log. For the color
// variants the zone is filled completely, for the grid variant the
// carried pixels are copied as-is (a short array only addresses the
// zone's head, which matters for partial overlays).
func (f *Frame) ZoneColors(pixelCount func(string) int) map[string][]zone.Led {
	out := make(map[string][]zone.Led)

	fill := func(zoneID string, color zone.Led) {
		n := pixelCount(zoneID)
		if n <= 0 {
			slog.Warn("frame addresses unknown zone - skipping", "zone", zoneID, "source", f.Source)
			return
		}
		pixels := make([]zone.Led, n)
		for i := range pixels {
			pixels[i] = color
		}
		out[zoneID] = pixels
	}

	switch f.Kind {
	case KindSingleZone:
		fill(f.singleZone, f.single)
	case KindMultiZone:
		for zoneID, color := range f.multi {
			fill(zoneID, color)
		}
	case KindPixelGrid:
		for zoneID, pixels := range f.grid {
			n := pixelCount(zoneID)
			if n <= 0 {
				slog.Warn("frame addresses unknown zone - skipping", "zone", zoneID, "source", f.Source)
				continue
			}
			if len(pixels) > n {
				pixels = pixels[:n]
			}
			cp := make([]zone.Led, len(pixels))
			copy(cp, pixels)
			out[zoneID] = cp
		}
	}
	return out
}

// Zones lists the zone ids the frame addresses, without expanding it.
func (f *Frame) Zones() []string {
	switch f.Kind {
	case KindSingleZone:
		return []string{f.singleZone}
	case KindMultiZone:
		zones := make([]string, 0, len(f.multi))
		for zoneID := range f.multi {
			zones = append(zones, zoneID)
		}
		return zones
	case KindPixelGrid:
		zones := make([]string, 0, len(f.grid))
		for zoneID := range f.grid {
			zones = append(zones, zoneID)
		}
		return zones
	}
	return nil
}
