package ports

import (
	"time"

	"led-json-bridge/internal/domain/model"
)

// Renderer is the rendering engine that owns the segments and the pixel
// buffer. The decoder mutates segments through it; it never runs concurrently
// with a decode.
type Renderer interface {
	MaxSegments() int
	// Segment returns the mutable record for id, or nil when id is out of range.
	Segment(id int) *model.Segment
	// SetSegment applies new bounds and grouping. stop <= start disables the slot.
	SetSegment(id int, start, stop uint16, grouping, spacing uint8)
	MainSegment() int
	SetMainSegment(id int)
	LengthTotal() int
	IsRGBW() bool

	// FillSegment paints every pixel of a segment.
	FillSegment(id int, c model.Color)
	// SetPixelColor paints logical pixel i of a segment.
	SetPixelColor(id, i int, c model.Color)
	// PixelColor reads physical pixel i of the strip.
	PixelColor(i int) model.Color
	// Trigger asks for an immediate refresh.
	Trigger()

	Gamma8(v uint8) uint8
	GammaCorrectColor() bool

	SetBrightness(bri uint8)
	SetTransition(d time.Duration)
	SetTimebase(ms int64)
}
