package model

import "unicode/utf8"

const (
	// MaxNameLength is the longest segment name kept, in bytes.
	MaxNameLength = 32
	// SegmentColorSlots is the number of color slots per segment (primary, secondary, tertiary).
	SegmentColorSlots = 3

	DefaultSpeed     = 128
	DefaultIntensity = 128
	DefaultCCT       = 127
)

// Option is a segment display flag.
type Option uint8

const (
	OptionSelected Option = 1 << iota
	OptionReversed
	OptionOn
	OptionMirror
	OptionFreeze
)

// Segment is an addressable sub-range of the LED array.
type Segment struct {
	Start    uint16
	Stop     uint16 // exclusive
	Offset   uint16
	Grouping uint8
	Spacing  uint8
	Options  Option
	Opacity  uint8
	Colors   [SegmentColorSlots]Color

	Mode      uint8
	Speed     uint8
	Intensity uint8
	Palette   uint8
	CCT       uint8

	name *string
}

// NewSegment returns a segment with default effect parameters and an empty range.
func NewSegment() Segment {
	return Segment{
		Grouping:  1,
		Options:   OptionOn,
		Opacity:   255,
		Colors:    [SegmentColorSlots]Color{DefaultColor, Black, Black},
		Speed:     DefaultSpeed,
		Intensity: DefaultIntensity,
		CCT:       DefaultCCT,
	}
}

func (s *Segment) IsActive() bool {
	return s.Stop > s.Start
}

// Length is the number of physical pixels covered, 0 for inactive segments.
func (s *Segment) Length() int {
	if !s.IsActive() {
		return 0
	}
	return int(s.Stop - s.Start)
}

// VirtualLength is the number of addressable logical pixels after grouping,
// spacing and mirroring are applied.
func (s *Segment) VirtualLength() int {
	group := int(s.Grouping) + int(s.Spacing)
	if group < 1 {
		group = 1
	}
	vlen := (s.Length() + group - 1) / group
	if s.Option(OptionMirror) {
		vlen = (vlen + 1) / 2
	}
	return vlen
}

func (s *Segment) Option(o Option) bool {
	return s.Options&o != 0
}

func (s *Segment) SetOption(o Option, v bool) {
	if v {
		s.Options |= o
	} else {
		s.Options &^= o
	}
}

func (s *Segment) IsSelected() bool {
	return s.Option(OptionSelected)
}

// Name returns the owned display name, if any.
func (s *Segment) Name() (string, bool) {
	if s.name == nil {
		return "", false
	}
	return *s.name, true
}

// SetName replaces the owned name. The previous name is always released first;
// an empty name leaves the segment unnamed. Names longer than MaxNameLength
// are cut on a rune boundary.
func (s *Segment) SetName(name string) {
	s.name = nil
	if name == "" {
		return
	}
	if len(name) > MaxNameLength {
		cut := MaxNameLength
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	owned := string([]byte(name))
	s.name = &owned
}

func (s *Segment) ClearName() {
	s.name = nil
}
