package codec

import (
	"math"

	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/patch"
)

// Kelvin range accepted for a segment's cct field.
const (
	cctMinKelvin = 1900
	cctMaxKelvin = 10091
)

// DecodeSegment applies elem to the segment named by its "id" field, or to
// segment it when elem has no id. Ids beyond the segment count are skipped.
func (d *Decoder) DecodeSegment(st *model.State, elem patch.Object, it int, presetID int) {
	id := it
	if n, ok := elem.Get("id").Int(); ok {
		if n < 0 || n > math.MaxInt32 {
			return
		}
		id = int(n)
	}
	d.decodeSegment(st, elem, id, presetID)
}

func (d *Decoder) decodeSegment(st *model.State, elem patch.Object, id int, presetID int) {
	r := d.renderer
	if id < 0 || id >= r.MaxSegments() {
		return
	}
	seg := r.Segment(id)
	if seg == nil {
		return
	}

	start, stop := d.segmentBounds(seg, elem)

	switch name := elem.Get("n"); name.Kind() {
	case patch.KindString:
		s, _ := name.Text()
		seg.SetName(s)
	case patch.KindNull:
		seg.ClearName()
	default:
		if int(seg.Start) != start || int(seg.Stop) != stop {
			seg.ClearName()
		}
	}

	grp, _ := patch.Coerce(elem.Get("grp"), int(seg.Grouping), 1, 255)
	spc, _ := patch.Coerce(elem.Get("spc"), int(seg.Spacing), 0, 255)
	r.SetSegment(id, uint16(start), uint16(stop), uint8(grp), uint8(spc))
	seg = r.Segment(id)

	length := max(seg.Length(), 1)
	if of, ok := patch.Coerce(elem.Get("of"), int(seg.Offset), math.MinInt32, math.MaxInt32); ok {
		seg.Offset = NormalizeOffset(of, length)
	}
	if int(seg.Offset) > length-1 {
		seg.Offset = uint16(length - 1)
	}

	if bri, ok := patch.CoerceByte(elem.Get("bri"), seg.Opacity); ok {
		if bri > 0 {
			seg.Opacity = bri
		}
		seg.SetOption(model.OptionOn, bri > 0)
	}
	if on, ok := patch.Toggle(elem.Get("on"), seg.Option(model.OptionOn)); ok {
		seg.SetOption(model.OptionOn, on)
	}
	if frz, ok := patch.Toggle(elem.Get("frz"), seg.Option(model.OptionFreeze)); ok {
		seg.SetOption(model.OptionFreeze, frz)
	}

	if cct, ok := patch.Coerce(elem.Get("cct"), int(seg.CCT), 0, math.MaxUint16); ok {
		if cct > 255 {
			cct = (min(max(cct, cctMinKelvin), cctMaxKelvin) - cctMinKelvin) >> 5
		}
		seg.CCT = uint8(cct)
	}

	if cols, ok := elem.Get("col").Array(); ok {
		d.decodeColors(st, id, seg, cols)
	}

	for _, f := range []struct {
		key string
		opt model.Option
	}{
		{"sel", model.OptionSelected},
		{"rev", model.OptionReversed},
		{"mi", model.OptionMirror},
	} {
		if v, ok := patch.Toggle(elem.Get(f.key), seg.Option(f.opt)); ok {
			seg.SetOption(f.opt, v)
		}
	}

	if fx, ok := catalogID(elem.Get("fx"), int(seg.Mode), d.effects.Len()); ok && fx != int(seg.Mode) {
		seg.Mode = uint8(fx)
		// A manual effect change stops the playlist.
		if presetID == 0 && d.presets != nil {
			d.presets.UnloadPlaylist()
		}
	}
	seg.Speed, _ = patch.CoerceByte(elem.Get("sx"), seg.Speed)
	seg.Intensity, _ = patch.CoerceByte(elem.Get("ix"), seg.Intensity)
	if pal, ok := catalogID(elem.Get("pal"), int(seg.Palette), d.palettes.Len()); ok {
		seg.Palette = uint8(pal)
	}

	if pixels, ok := elem.Get("i").Array(); ok {
		if !seg.Option(model.OptionFreeze) {
			seg.SetOption(model.OptionFreeze, true)
			r.FillSegment(id, model.Black)
		}
		d.paintPixels(id, seg, pixels)
		r.Trigger()
	} else if !elem.Get("frz").Truthy() {
		seg.SetOption(model.OptionFreeze, false)
	}
}

// segmentBounds resolves start and stop. stop comes from "stop", else from
// "len" relative to start, else stays as is.
func (d *Decoder) segmentBounds(seg *model.Segment, elem patch.Object) (int, int) {
	start, _ := patch.Coerce(elem.Get("start"), int(seg.Start), 0, math.MaxUint16)

	stopVal := elem.Get("stop")
	if n, ok := stopVal.Int(); !ok || n >= 0 {
		if stop, ok := patch.Coerce(stopVal, int(seg.Stop), 0, math.MaxUint16); ok {
			return start, stop
		}
	}
	if n, ok := patch.Coerce(elem.Get("len"), 0, 0, math.MaxUint16); ok && n > 0 {
		return start, min(start+n, math.MaxUint16)
	}
	return start, int(seg.Stop)
}

// decodeColors applies up to three color slots. Slots 0 and 1 of the main
// segment go to the mirrored global colors.
func (d *Decoder) decodeColors(st *model.State, id int, seg *model.Segment, cols patch.Array) {
	isMain := id == d.renderer.MainSegment()
	for i := range model.SegmentColorSlots {
		c, ok := patch.DecodeColor(cols.At(i))
		if !ok {
			continue
		}
		switch {
		case isMain && i == 0:
			st.Col = c
		case isMain && i == 1:
			st.ColSec = c
		default:
			seg.Colors[i] = c
			if seg.Mode == 0 {
				d.renderer.Trigger()
			}
		}
	}
}

// NormalizeOffset folds a signed rotation into [0, length-1]. Magnitudes past
// the end are reduced modulo length and negative values count back from the
// end.
func NormalizeOffset(offset, length int) uint16 {
	if length < 1 {
		length = 1
	}
	abs := offset
	if abs < 0 {
		abs = -abs
	}
	if abs > length-1 {
		abs %= length
	}
	if offset < 0 {
		abs = length - abs
	}
	return uint16(min(abs, length-1))
}

// catalogID reads an effect or palette id. Numbers outside the catalog are
// ignored; strings wrap within it.
func catalogID(v patch.Value, cur, count int) (int, bool) {
	if count <= 0 {
		return cur, false
	}
	if n, ok := v.Int(); ok && (n < 0 || n >= int64(count)) {
		return cur, false
	}
	return patch.Coerce(v, cur, 0, count-1)
}
