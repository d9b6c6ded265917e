// Package strip is an in-memory LED strip. It keeps the segment table and a
// physical pixel buffer and stands in for the hardware rendering engine.
package strip

import (
	"math"
	"time"

	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/logging"
)

const gammaExponent = 2.8

// Strip is not safe for concurrent use; the state service serializes access.
type Strip struct {
	segments     []model.Segment
	main         int
	pixels       []model.Color
	rgbw         bool
	gammaCorrect bool
	gamma        [256]uint8

	bri        uint8
	transition time.Duration
	timebase   int64
	refreshes  int

	logger *logging.Logger
}

func New(cfg model.StripConfig, logger *logging.Logger) *Strip {
	count := max(cfg.LEDCount, 1)
	s := &Strip{
		segments:     make([]model.Segment, max(cfg.MaxSegments, 1)),
		pixels:       make([]model.Color, count),
		rgbw:         cfg.RGBW,
		gammaCorrect: cfg.GammaCorrectColor,
		logger:       logger.With("component", "strip"),
	}
	for i := range s.gamma {
		s.gamma[i] = uint8(math.Pow(float64(i)/255, gammaExponent)*255 + 0.5)
	}
	for i := range s.segments {
		s.segments[i] = model.NewSegment()
	}
	first := &s.segments[0]
	first.Stop = uint16(min(count, math.MaxUint16))
	first.SetOption(model.OptionSelected, true)
	return s
}

func (s *Strip) MaxSegments() int { return len(s.segments) }

func (s *Strip) Segment(id int) *model.Segment {
	if id < 0 || id >= len(s.segments) {
		return nil
	}
	return &s.segments[id]
}

func (s *Strip) SetSegment(id int, start, stop uint16, grouping, spacing uint8) {
	seg := s.Segment(id)
	if seg == nil {
		return
	}
	if int(stop) > len(s.pixels) {
		stop = uint16(len(s.pixels))
	}
	if start >= stop {
		seg.Start, seg.Stop = start, start
	} else {
		seg.Start, seg.Stop = start, stop
	}
	seg.Grouping = max(grouping, 1)
	seg.Spacing = spacing
	if seg.Length() > 0 && int(seg.Offset) >= seg.Length() {
		seg.Offset = 0
	}
}

func (s *Strip) MainSegment() int { return s.main }

func (s *Strip) SetMainSegment(id int) {
	if seg := s.Segment(id); seg != nil && seg.IsActive() {
		s.main = id
	}
}

func (s *Strip) LengthTotal() int { return len(s.pixels) }
func (s *Strip) IsRGBW() bool     { return s.rgbw }

func (s *Strip) FillSegment(id int, c model.Color) {
	seg := s.Segment(id)
	if seg == nil {
		return
	}
	for i := range seg.VirtualLength() {
		s.SetPixelColor(id, i, c)
	}
}

// SetPixelColor paints logical pixel i, expanding it through grouping,
// spacing, reversal, mirroring and offset.
func (s *Strip) SetPixelColor(id, i int, c model.Color) {
	seg := s.Segment(id)
	if seg == nil || !seg.IsActive() {
		return
	}
	vlen := seg.VirtualLength()
	if i < 0 || i >= vlen {
		return
	}
	if !s.rgbw {
		c.W = 0
	}
	if seg.Option(model.OptionReversed) {
		i = vlen - 1 - i
	}

	length := seg.Length()
	stride := int(seg.Grouping) + int(seg.Spacing)
	for g := range int(seg.Grouping) {
		idx := i*stride + g
		if idx >= length {
			break
		}
		s.paint(seg, idx, c)
		if seg.Option(model.OptionMirror) {
			s.paint(seg, length-1-idx, c)
		}
	}
}

func (s *Strip) paint(seg *model.Segment, idx int, c model.Color) {
	idx = (idx + int(seg.Offset)) % seg.Length()
	s.pixels[int(seg.Start)+idx] = c
}

func (s *Strip) PixelColor(i int) model.Color {
	if i < 0 || i >= len(s.pixels) {
		return model.Black
	}
	return s.pixels[i]
}

func (s *Strip) Trigger() { s.refreshes++ }

func (s *Strip) Gamma8(v uint8) uint8    { return s.gamma[v] }
func (s *Strip) GammaCorrectColor() bool { return s.gammaCorrect }

func (s *Strip) SetBrightness(bri uint8) {
	if bri != s.bri {
		s.logger.Debug("brightness changed", "bri", bri)
	}
	s.bri = bri
}

func (s *Strip) SetTransition(d time.Duration) { s.transition = d }
func (s *Strip) SetTimebase(ms int64)          { s.timebase = ms }

// Brightness is the master brightness last set.
func (s *Strip) Brightness() uint8 { return s.bri }
