// Package codectest provides an in-memory renderer for decoder tests.
package codectest

import (
	"time"

	"led-json-bridge/internal/domain/model"
)

// Renderer records everything the decoder does. Pixels are stored per
// segment by logical index.
type Renderer struct {
	Segments   []model.Segment
	Main       int
	Length     int
	RGBW       bool
	Gamma      bool
	Pixels     map[int]map[int]model.Color
	Triggers   int
	Brightness uint8
	Transition time.Duration
	Timebase   int64
}

// New returns a renderer of length pixels with segment 0 covering the strip.
func New(maxSegments, length int) *Renderer {
	r := &Renderer{
		Segments: make([]model.Segment, maxSegments),
		Length:   length,
		Pixels:   make(map[int]map[int]model.Color),
	}
	for i := range r.Segments {
		r.Segments[i] = model.NewSegment()
	}
	r.Segments[0].Stop = uint16(length)
	return r
}

func (r *Renderer) MaxSegments() int { return len(r.Segments) }

func (r *Renderer) Segment(id int) *model.Segment {
	if id < 0 || id >= len(r.Segments) {
		return nil
	}
	return &r.Segments[id]
}

func (r *Renderer) SetSegment(id int, start, stop uint16, grouping, spacing uint8) {
	seg := r.Segment(id)
	if seg == nil {
		return
	}
	if int(stop) > r.Length {
		stop = uint16(r.Length)
	}
	if stop <= start {
		stop = start
	}
	seg.Start, seg.Stop = start, stop
	seg.Grouping, seg.Spacing = max(grouping, 1), spacing
}

func (r *Renderer) MainSegment() int      { return r.Main }
func (r *Renderer) SetMainSegment(id int) { r.Main = id }
func (r *Renderer) LengthTotal() int      { return r.Length }
func (r *Renderer) IsRGBW() bool          { return r.RGBW }

func (r *Renderer) FillSegment(id int, c model.Color) {
	seg := r.Segment(id)
	if seg == nil {
		return
	}
	for i := range seg.VirtualLength() {
		r.SetPixelColor(id, i, c)
	}
}

func (r *Renderer) SetPixelColor(id, i int, c model.Color) {
	if r.Pixels[id] == nil {
		r.Pixels[id] = make(map[int]model.Color)
	}
	r.Pixels[id][i] = c
}

// Pixel returns logical pixel i of segment id.
func (r *Renderer) Pixel(id, i int) model.Color {
	return r.Pixels[id][i]
}

func (r *Renderer) PixelColor(i int) model.Color {
	for id := range r.Segments {
		seg := &r.Segments[id]
		if seg.IsActive() && i >= int(seg.Start) && i < int(seg.Stop) {
			return r.Pixels[id][i-int(seg.Start)]
		}
	}
	return model.Black
}

func (r *Renderer) Trigger() { r.Triggers++ }

// Gamma8 halves the value so tests can see it was applied.
func (r *Renderer) Gamma8(v uint8) uint8 { return v / 2 }

func (r *Renderer) GammaCorrectColor() bool { return r.Gamma }

func (r *Renderer) SetBrightness(bri uint8)       { r.Brightness = bri }
func (r *Renderer) SetTransition(d time.Duration) { r.Transition = d }
func (r *Renderer) SetTimebase(ms int64)          { r.Timebase = ms }
