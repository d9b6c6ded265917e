package codec

import (
	"encoding/json"
	"io"
	"strconv"
	"time"

	"led-json-bridge/internal/domain/buffer"
	"led-json-bridge/internal/domain/catalog"
	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/patch"
	"led-json-bridge/internal/ports"
)

// PalettesPerPage is the page size of the palette preview listing.
const PalettesPerPage = 8

// Options select the encoded field set.
type Options struct {
	// ForPreset drops runtime-only fields and writes disabled markers for
	// inactive slots when SegmentBounds is also set.
	ForPreset     bool
	IncludeBri    bool
	SegmentBounds bool
}

// DefaultOptions is the field set of a state response.
var DefaultOptions = Options{IncludeBri: true, SegmentBounds: true}

type NightlightDoc struct {
	On   bool  `json:"on"`
	Dur  uint8 `json:"dur"`
	Mode uint8 `json:"mode"`
	TBri uint8 `json:"tbri"`
	Rem  int   `json:"rem"`
}

type SyncDoc struct {
	Send bool `json:"send"`
	Recv bool `json:"recv"`
}

// StateDoc is the canonical state document. Nil fields are left out.
type StateDoc struct {
	On         *bool          `json:"on,omitempty"`
	Bri        *uint8         `json:"bri,omitempty"`
	Transition *int           `json:"transition,omitempty"`
	TDD        *int           `json:"tdd,omitempty"`
	PS         *int           `json:"ps,omitempty"`
	PL         *int           `json:"pl,omitempty"`
	NL         *NightlightDoc `json:"nl,omitempty"`
	UDPN       *SyncDoc       `json:"udpn,omitempty"`
	LOR        *uint8         `json:"lor,omitempty"`
	MainSeg    int            `json:"mainseg"`
	// Seg holds SegmentDoc values and, in preset mode, DisabledSegment markers.
	Seg []any `json:"seg"`
}

type SegmentDoc struct {
	ID    int             `json:"id"`
	Start *uint16         `json:"start,omitempty"`
	Stop  *uint16         `json:"stop,omitempty"`
	Len   *int            `json:"len,omitempty"`
	Grp   uint8           `json:"grp"`
	Spc   uint8           `json:"spc"`
	Of    uint16          `json:"of"`
	On    bool            `json:"on"`
	Frz   bool            `json:"frz"`
	Bri   uint8           `json:"bri"`
	CCT   uint8           `json:"cct"`
	Name  *string         `json:"n,omitempty"`
	Col   json.RawMessage `json:"col"`
	FX    uint8           `json:"fx"`
	SX    uint8           `json:"sx"`
	IX    uint8           `json:"ix"`
	Pal   uint8           `json:"pal"`
	Sel   bool            `json:"sel"`
	Rev   bool            `json:"rev"`
	Mi    bool            `json:"mi"`
}

// DisabledSegment deactivates a slot when a preset is reapplied.
type DisabledSegment struct {
	Stop int `json:"stop"`
}

type FullDoc struct {
	State    StateDoc        `json:"state"`
	Effects  []string        `json:"effects"`
	Palettes json.RawMessage `json:"palettes"`
}

type PalettePageDoc struct {
	Max      int              `json:"m"`
	Palettes map[string][]any `json:"p"`
}

type Encoder struct {
	renderer ports.Renderer
	effects  *catalog.Catalog
	palettes *catalog.Catalog
	now      func() time.Time
}

func NewEncoder(r ports.Renderer, effects, palettes *catalog.Catalog, clock func() time.Time) *Encoder {
	if clock == nil {
		clock = time.Now
	}
	return &Encoder{renderer: r, effects: effects, palettes: palettes, now: clock}
}

func (e *Encoder) State(st *model.State, opts Options) StateDoc {
	r := e.renderer
	doc := StateDoc{MainSeg: r.MainSegment()}

	if opts.IncludeBri {
		on := st.On()
		bri := st.BriLast
		tr := int(st.Transition / model.TransitionUnit)
		tdd := int(st.TransitionDefault / model.TransitionUnit)
		doc.On, doc.Bri, doc.Transition, doc.TDD = &on, &bri, &tr, &tdd
	}

	if !opts.ForPreset {
		ps := -1
		if st.CurrentPreset > 0 {
			ps = st.CurrentPreset
		}
		pl := st.CurrentPlaylist
		lor := uint8(st.RealtimeOverride)
		doc.PS, doc.PL, doc.LOR = &ps, &pl, &lor
		doc.NL = &NightlightDoc{
			On:   st.Nightlight.Active,
			Dur:  st.Nightlight.DurationMins,
			Mode: st.Nightlight.Mode,
			TBri: st.Nightlight.TargetBri,
			Rem:  st.Nightlight.Remaining(e.now()),
		}
		doc.UDPN = &SyncDoc{Send: st.Sync.Send, Recv: st.Sync.Receive}
	}

	doc.Seg = make([]any, 0, r.MaxSegments())
	for id := 0; id < r.MaxSegments(); id++ {
		seg := r.Segment(id)
		switch {
		case seg != nil && seg.IsActive():
			doc.Seg = append(doc.Seg, e.Segment(st, id, seg, opts))
		case opts.ForPreset && opts.SegmentBounds:
			doc.Seg = append(doc.Seg, DisabledSegment{})
		}
	}
	return doc
}

func (e *Encoder) Segment(st *model.State, id int, seg *model.Segment, opts Options) SegmentDoc {
	doc := SegmentDoc{
		ID:  id,
		Grp: seg.Grouping,
		Spc: seg.Spacing,
		Of:  seg.Offset,
		On:  seg.Option(model.OptionOn),
		Frz: seg.Option(model.OptionFreeze),
		Bri: seg.Opacity,
		CCT: seg.CCT,
		FX:  seg.Mode,
		SX:  seg.Speed,
		IX:  seg.Intensity,
		Pal: seg.Palette,
		Sel: seg.IsSelected(),
		Rev: seg.Option(model.OptionReversed),
		Mi:  seg.Option(model.OptionMirror),
	}
	if doc.Bri == 0 {
		doc.Bri = 255
	}
	if opts.SegmentBounds {
		start, stop := seg.Start, seg.Stop
		doc.Start, doc.Stop = &start, &stop
		if name, ok := seg.Name(); ok {
			doc.Name = &name
		}
	}
	if !opts.ForPreset {
		n := seg.Length()
		doc.Len = &n
	}

	colors := seg.Colors
	if id == e.renderer.MainSegment() {
		colors[0], colors[1] = st.Col, st.ColSec
	}
	var scratch [maxColorText]byte
	doc.Col = json.RawMessage(append([]byte(nil), AppendColors(scratch[:0], colors, e.renderer.IsRGBW())...))
	return doc
}

// maxColorText bounds the text of three RGBW slots: 3*17 + 4.
const maxColorText = 70

// AppendColors writes the three slots as [[r,g,b],...] or [[r,g,b,w],...].
func AppendColors(dst []byte, colors [model.SegmentColorSlots]model.Color, rgbw bool) []byte {
	dst = append(dst, '[')
	for i, c := range colors {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, '[')
		dst = strconv.AppendUint(dst, uint64(c.R), 10)
		dst = append(dst, ',')
		dst = strconv.AppendUint(dst, uint64(c.G), 10)
		dst = append(dst, ',')
		dst = strconv.AppendUint(dst, uint64(c.B), 10)
		if rgbw {
			dst = append(dst, ',')
			dst = strconv.AppendUint(dst, uint64(c.W), 10)
		}
		dst = append(dst, ']')
	}
	return append(dst, ']')
}

// WriteState encodes the state document into w.
func (e *Encoder) WriteState(w io.Writer, st *model.State, opts Options) error {
	return json.NewEncoder(w).Encode(e.State(st, opts))
}

// WriteFull encodes state plus the effect names and the raw palette catalog.
func (e *Encoder) WriteFull(w io.Writer, st *model.State) error {
	return json.NewEncoder(w).Encode(FullDoc{
		State:    e.State(st, DefaultOptions),
		Effects:  e.effects.Names(),
		Palettes: json.RawMessage(e.palettes.Raw()),
	})
}

// WriteEffects encodes the effect names without vendor suffixes.
func (e *Encoder) WriteEffects(w io.Writer) error {
	return json.NewEncoder(w).Encode(e.effects.Names())
}

// WritePalettePage encodes one page of palette previews. page is clamped.
func (e *Encoder) WritePalettePage(w io.Writer, page int) error {
	p := buffer.Paginate(e.palettes.Len(), PalettesPerPage, page)
	doc := PalettePageDoc{Max: p.Max, Palettes: make(map[string][]any, p.End-p.Start)}
	for i := p.Start; i < p.End; i++ {
		doc.Palettes[strconv.Itoa(i)] = catalog.PalettePreview(i)
	}
	return json.NewEncoder(w).Encode(doc)
}

// WriteLive encodes a downsampled snapshot of the strip.
func (e *Encoder) WriteLive(w io.Writer) error {
	r := e.renderer
	return buffer.WriteLiveLEDs(w, r.LengthTotal(), func(i int) [3]uint8 {
		c := r.PixelColor(i)
		return [3]uint8{c.R, c.G, c.B}
	})
}

// PresetDocument snapshots the state as a storable patch.
func (e *Encoder) PresetDocument(st *model.State, opts Options) patch.Object {
	opts.ForPreset = true
	data, err := json.Marshal(e.State(st, opts))
	if err != nil {
		return patch.Object{}
	}
	doc, err := patch.Parse(data)
	if err != nil {
		return patch.Object{}
	}
	return doc
}
