package codec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"led-json-bridge/internal/domain/model"
)

func (f *fixture) segment(t *testing.T, id int, doc string) *model.Segment {
	t.Helper()
	f.dec.DecodeSegment(f.st, parse(t, doc), id, 0)
	return &f.r.Segments[id]
}

func TestDecodeSegment_PerPixelOverride(t *testing.T) {
	f := newFixture(t)

	seg := f.segment(t, 0, `{"i":[5,"FF0000","00FF00",10,12,"0000FF"]}`)

	red, green, blue := model.RGB(255, 0, 0), model.RGB(0, 255, 0), model.RGB(0, 0, 255)
	assert.Equal(t, red, f.r.Pixel(0, 5))
	assert.Equal(t, green, f.r.Pixel(0, 6))
	assert.Equal(t, model.Black, f.r.Pixel(0, 7))
	assert.Equal(t, blue, f.r.Pixel(0, 10))
	assert.Equal(t, blue, f.r.Pixel(0, 11))
	assert.Equal(t, model.Black, f.r.Pixel(0, 12))
	assert.True(t, seg.Option(model.OptionFreeze))
	assert.Equal(t, 1, f.r.Triggers)
}

func TestDecodeSegment_PerPixelTokens(t *testing.T) {
	f := newFixture(t)

	f.segment(t, 0, `{"i":[[1,2,3],-4,true,null,"zz",[9,9,9,9]]}`)

	assert.Equal(t, model.RGB(1, 2, 3), f.r.Pixel(0, 0))
	assert.Equal(t, model.Black, f.r.Pixel(0, 1), "unreadable hex paints black")
	assert.Equal(t, model.Color{R: 9, G: 9, B: 9, W: 9}, f.r.Pixel(0, 2))
}

func TestDecodeSegment_PerPixelBoundedAndGamma(t *testing.T) {
	f := newFixture(t)
	f.r.Gamma = true

	f.segment(t, 0, `{"i":[28,40,"C8C8C8"]}`)

	assert.Equal(t, model.RGB(100, 100, 100), f.r.Pixel(0, 29))
	_, painted := f.r.Pixels[0][30]
	assert.False(t, painted)
}

func TestDecodeSegment_FreezeLifecycle(t *testing.T) {
	f := newFixture(t)

	seg := f.segment(t, 0, `{"i":[0,"FFFFFF"]}`)
	require.True(t, seg.Option(model.OptionFreeze))

	f.segment(t, 0, `{"frz":true}`)
	assert.True(t, seg.Option(model.OptionFreeze), "explicit freeze survives without i")

	f.segment(t, 0, `{"sx":5}`)
	assert.False(t, seg.Option(model.OptionFreeze), "no i and no frz returns to effects")
}

func TestDecodeSegment_FrozenSegmentIsNotCleared(t *testing.T) {
	f := newFixture(t)
	f.segment(t, 0, `{"i":[0,"FFFFFF"]}`)

	f.segment(t, 0, `{"i":[3,"FF0000"]}`)

	assert.Equal(t, model.RGB(255, 255, 255), f.r.Pixel(0, 0))
}

func TestDecodeSegment_Bounds(t *testing.T) {
	f := newFixture(t)

	seg := f.segment(t, 1, `{"start":4,"len":6}`)
	assert.Equal(t, uint16(4), seg.Start)
	assert.Equal(t, uint16(10), seg.Stop)

	seg = f.segment(t, 1, `{"stop":8,"len":20}`)
	assert.Equal(t, uint16(8), seg.Stop, "stop wins over len")

	seg = f.segment(t, 1, `{"stop":-1,"len":2}`)
	assert.Equal(t, uint16(6), seg.Stop, "negative stop falls back to len")

	seg = f.segment(t, 1, `{"grp":0,"spc":3}`)
	assert.Equal(t, uint8(1), seg.Grouping)
	assert.Equal(t, uint8(3), seg.Spacing)
}

func TestDecodeSegment_NameOwnership(t *testing.T) {
	f := newFixture(t)

	seg := f.segment(t, 0, `{"n":"Kitchen"}`)
	name, ok := seg.Name()
	assert.True(t, ok)
	assert.Equal(t, "Kitchen", name)

	f.segment(t, 0, `{"start":2,"n":"Hall"}`)
	name, _ = seg.Name()
	assert.Equal(t, "Hall", name, "rename with bounds change keeps the new name")

	f.segment(t, 0, `{"sx":1}`)
	_, ok = seg.Name()
	assert.True(t, ok, "unchanged bounds keep the name")

	f.segment(t, 0, `{"stop":20}`)
	_, ok = seg.Name()
	assert.False(t, ok, "bounds change without a name clears it")

	f.segment(t, 0, `{"n":"Porch"}`)
	f.segment(t, 0, `{"n":""}`)
	_, ok = seg.Name()
	assert.False(t, ok)

	f.segment(t, 0, `{"n":"Porch"}`)
	f.segment(t, 0, `{"n":null}`)
	_, ok = seg.Name()
	assert.False(t, ok)
}

func TestDecodeSegment_LongNameTruncated(t *testing.T) {
	f := newFixture(t)

	seg := f.segment(t, 0, `{"n":"abcdefghijklmnopqrstuvwxyz0123456789"}`)

	name, _ := seg.Name()
	assert.Equal(t, "abcdefghijklmnopqrstuvwxyz012345", name)
}

func TestNormalizeOffset(t *testing.T) {
	assert.Equal(t, uint16(7), NormalizeOffset(-13, 10))
	assert.Equal(t, uint16(3), NormalizeOffset(13, 10))
	assert.Equal(t, uint16(9), NormalizeOffset(9, 10))
	assert.Equal(t, uint16(0), NormalizeOffset(5, 1))

	for length := 1; length <= 40; length++ {
		for off := -200; off <= 200; off++ {
			got := int(NormalizeOffset(off, length))
			require.GreaterOrEqual(t, got, 0)
			require.LessOrEqual(t, got, length-1, "offset %d length %d", off, length)
		}
	}
}

func TestDecodeSegment_Offset(t *testing.T) {
	f := newFixture(t)
	f.segment(t, 1, `{"start":0,"stop":10}`)

	seg := f.segment(t, 1, `{"of":-13}`)
	assert.Equal(t, uint16(7), seg.Offset)

	seg = f.segment(t, 1, `{"stop":5}`)
	assert.Equal(t, uint16(4), seg.Offset, "shrinking clamps the offset")
}

func TestDecodeSegment_BrightnessAndFlags(t *testing.T) {
	f := newFixture(t)

	seg := f.segment(t, 1, `{"bri":0}`)
	assert.False(t, seg.Option(model.OptionOn))
	assert.Equal(t, uint8(255), seg.Opacity, "zero keeps the last opacity")

	seg = f.segment(t, 1, `{"bri":80}`)
	assert.True(t, seg.Option(model.OptionOn))
	assert.Equal(t, uint8(80), seg.Opacity)

	seg = f.segment(t, 1, `{"on":false,"sel":true,"rev":"t","mi":true}`)
	assert.False(t, seg.Option(model.OptionOn))
	assert.True(t, seg.IsSelected())
	assert.True(t, seg.Option(model.OptionReversed))
	assert.True(t, seg.Option(model.OptionMirror))
}

func TestDecodeSegment_ToggleSymmetry(t *testing.T) {
	for _, c := range []struct {
		key string
		opt model.Option
	}{
		{"on", model.OptionOn},
		{"frz", model.OptionFreeze},
		{"sel", model.OptionSelected},
		{"rev", model.OptionReversed},
		{"mi", model.OptionMirror},
	} {
		t.Run(c.key, func(t *testing.T) {
			f := newFixture(t)
			seg := &f.r.Segments[0]
			before := seg.Option(c.opt)

			f.segment(t, 0, `{"`+c.key+`":"t"}`)
			assert.NotEqual(t, before, seg.Option(c.opt))
			f.segment(t, 0, `{"`+c.key+`":"t"}`)
			assert.Equal(t, before, seg.Option(c.opt))
		})
	}
}

func TestDecodeSegment_CCT(t *testing.T) {
	f := newFixture(t)

	seg := f.segment(t, 0, `{"cct":200}`)
	assert.Equal(t, uint8(200), seg.CCT)

	seg = f.segment(t, 0, `{"cct":10091}`)
	assert.Equal(t, uint8(255), seg.CCT)

	seg = f.segment(t, 0, `{"cct":1000}`)
	assert.Equal(t, uint8(0), seg.CCT)

	seg = f.segment(t, 0, `{"cct":2700}`)
	assert.Equal(t, uint8(25), seg.CCT)
}

func TestDecodeSegment_ColorsOnSecondarySegment(t *testing.T) {
	f := newFixture(t)
	f.segment(t, 1, `{"start":0,"stop":5}`)
	f.r.Triggers = 0

	seg := f.segment(t, 1, `{"col":[[255,0,0],"00FF00",0]}`)

	assert.Equal(t, model.RGB(255, 0, 0), seg.Colors[0])
	assert.Equal(t, model.RGB(0, 255, 0), seg.Colors[1])
	assert.Equal(t, model.Black, seg.Colors[2])
	assert.Equal(t, 3, f.r.Triggers, "static mode refreshes on color change")

	seg = f.segment(t, 1, `{"col":[[],"nothex",-1]}`)
	assert.Equal(t, model.RGB(255, 0, 0), seg.Colors[0], "invalid slots are left alone")
	assert.Equal(t, model.RGB(0, 255, 0), seg.Colors[1])

	seg = f.segment(t, 1, `{"col":[[0]]}`)
	assert.Equal(t, model.Black, seg.Colors[0])
}

func TestDecodeSegment_MainSlotsGoToGlobals(t *testing.T) {
	f := newFixture(t)
	original := f.r.Segments[0].Colors

	f.segment(t, 0, `{"col":["FF0000","00FF00","0000FF"]}`)

	assert.Equal(t, model.RGB(255, 0, 0), f.st.Col)
	assert.Equal(t, model.RGB(0, 255, 0), f.st.ColSec)
	assert.Equal(t, original[0], f.r.Segments[0].Colors[0])
	assert.Equal(t, model.RGB(0, 0, 255), f.r.Segments[0].Colors[2])
}

func TestDecodeSegment_EffectChangeUnloadsPlaylist(t *testing.T) {
	f := newFixture(t)
	f.presets.On("UnloadPlaylist").Return().Once()

	seg := f.segment(t, 0, `{"fx":9,"sx":10,"ix":20,"pal":6}`)
	assert.Equal(t, uint8(9), seg.Mode)
	assert.Equal(t, uint8(10), seg.Speed)
	assert.Equal(t, uint8(20), seg.Intensity)
	assert.Equal(t, uint8(6), seg.Palette)

	f.segment(t, 0, `{"fx":9}`)
	f.dec.DecodeSegment(f.st, parse(t, `{"fx":10}`), 0, 4)
	assert.Equal(t, uint8(10), seg.Mode)

	f.presets.AssertNumberOfCalls(t, "UnloadPlaylist", 1)
}

func TestDecodeSegment_EffectOutOfCatalogIgnored(t *testing.T) {
	f := newFixture(t)

	seg := f.segment(t, 0, `{"fx":500,"pal":20}`)

	assert.Equal(t, uint8(0), seg.Mode)
	assert.Equal(t, uint8(0), seg.Palette)
	f.presets.AssertNotCalled(t, "UnloadPlaylist")
}

func TestDecodeSegment_EffectWrapsWithinCatalog(t *testing.T) {
	f := newFixture(t)
	f.presets.On("UnloadPlaylist").Return().Maybe()

	seg := f.segment(t, 0, `{"fx":"~-"}`)

	assert.Equal(t, uint8(117), seg.Mode)
}

func TestDecodeSegment_IDOutOfRangeSkipped(t *testing.T) {
	f := newFixture(t)
	before := append([]model.Segment(nil), f.r.Segments...)

	f.dec.DecodeSegment(f.st, parse(t, `{"id":4,"sx":1}`), 0, 0)
	f.dec.DecodeSegment(f.st, parse(t, `{"id":-1,"sx":1}`), 0, 0)

	assert.Equal(t, before, f.r.Segments)
}

// segmentFields is the recognized field table with a value that differs from
// the fixture defaults and a reader for the field it drives.
var segmentFields = map[string]struct {
	value string
	read  func(*model.Segment) any
}{
	"start": {`3`, func(s *model.Segment) any { return s.Start }},
	"stop":  {`12`, func(s *model.Segment) any { return s.Stop }},
	"grp":   {`2`, func(s *model.Segment) any { return s.Grouping }},
	"spc":   {`1`, func(s *model.Segment) any { return s.Spacing }},
	"of":    {`2`, func(s *model.Segment) any { return s.Offset }},
	"bri":   {`90`, func(s *model.Segment) any { return s.Opacity }},
	"on":    {`false`, func(s *model.Segment) any { return s.Option(model.OptionOn) }},
	"cct":   {`33`, func(s *model.Segment) any { return s.CCT }},
	"col":   {`[[1,2,3],[4,5,6],[7,8,9]]`, func(s *model.Segment) any { return s.Colors }},
	"sel":   {`true`, func(s *model.Segment) any { return s.IsSelected() }},
	"rev":   {`true`, func(s *model.Segment) any { return s.Option(model.OptionReversed) }},
	"mi":    {`true`, func(s *model.Segment) any { return s.Option(model.OptionMirror) }},
	"fx":    {`4`, func(s *model.Segment) any { return s.Mode }},
	"sx":    {`11`, func(s *model.Segment) any { return s.Speed }},
	"ix":    {`12`, func(s *model.Segment) any { return s.Intensity }},
	"pal":   {`7`, func(s *model.Segment) any { return s.Palette }},
	"n":     {`"x"`, func(s *model.Segment) any { n, _ := s.Name(); return n }},
}

func TestDecodeSegment_MergeInvariance(t *testing.T) {
	for omitted, field := range segmentFields {
		t.Run(omitted, func(t *testing.T) {
			f := newFixture(t)
			f.presets.On("UnloadPlaylist").Return().Maybe()
			f.segment(t, 1, `{"start":0,"stop":10,"n":"keep"}`)
			seg := &f.r.Segments[1]
			want := field.read(seg)

			doc := map[string]json.RawMessage{}
			for key, other := range segmentFields {
				if key != omitted {
					doc[key] = json.RawMessage(other.value)
				}
			}
			// Bounds changes clear the name, so bounds stay put when n is omitted.
			if omitted == "n" {
				delete(doc, "start")
				delete(doc, "stop")
			}
			raw, err := json.Marshal(doc)
			require.NoError(t, err)

			f.segment(t, 1, string(raw))

			assert.Equal(t, want, field.read(seg))
		})
	}
}

func TestSegment_RoundTrip(t *testing.T) {
	f := newFixture(t)
	f.presets.On("UnloadPlaylist").Return().Maybe()
	f.segment(t, 2, `{"start":3,"stop":17,"grp":2,"spc":1,"of":4,"bri":60,"cct":90,"n":"Shelf",`+
		`"col":[[1,2,3],[4,5,6],[7,8,9]],"fx":12,"sx":13,"ix":14,"pal":15,"sel":true,"rev":true,"mi":true,"frz":true}`)
	src := f.r.Segments[2]

	enc := NewEncoder(f.r, f.dec.effects, f.dec.palettes, nil)
	data, err := json.Marshal(enc.Segment(f.st, 2, &src, DefaultOptions))
	require.NoError(t, err)

	g := newFixture(t)
	g.presets.On("UnloadPlaylist").Return().Maybe()
	g.r.Segments[2].Stop = 0
	g.dec.DecodeSegment(g.st, parse(t, string(data)), 0, 0)
	dst := g.r.Segments[2]

	assert.Equal(t, src.Start, dst.Start)
	assert.Equal(t, src.Stop, dst.Stop)
	assert.Equal(t, src.Grouping, dst.Grouping)
	assert.Equal(t, src.Spacing, dst.Spacing)
	assert.Equal(t, src.Offset, dst.Offset)
	assert.Equal(t, src.Options, dst.Options)
	assert.Equal(t, src.Opacity, dst.Opacity)
	assert.Equal(t, src.Colors, dst.Colors)
	assert.Equal(t, src.Mode, dst.Mode)
	assert.Equal(t, src.Speed, dst.Speed)
	assert.Equal(t, src.Intensity, dst.Intensity)
	assert.Equal(t, src.Palette, dst.Palette)
	assert.Equal(t, src.CCT, dst.CCT)

	srcName, _ := src.Name()
	dstName, ok := dst.Name()
	assert.True(t, ok)
	assert.Equal(t, srcName, dstName)
}

func TestPixelCursor(t *testing.T) {
	var c pixelCursor

	c.index(5)
	from, to := c.fill()
	assert.Equal(t, [2]int{5, 6}, [2]int{from, to})
	from, to = c.fill()
	assert.Equal(t, [2]int{6, 7}, [2]int{from, to})

	c.index(10)
	c.index(12)
	from, to = c.fill()
	assert.Equal(t, [2]int{10, 12}, [2]int{from, to})
	assert.Equal(t, cursorIdle, c.state)
}
