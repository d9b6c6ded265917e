package codec

import (
	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/patch"
)

// The per-pixel list alternates index tokens and color tokens:
//
//	[5, "FF0000", "00FF00", 10, 12, "0000FF"]
//
// paints pixel 5 red, pixel 6 green and pixels 10-11 blue. One index opens a
// one pixel range; a second index widens it to [start, stop). A color fills
// the open range, and after a one pixel fill the next color moves on by one.

type cursorState uint8

const (
	cursorIdle cursorState = iota
	cursorRangeOpen
)

type tokenKind uint8

const (
	tokenSkip tokenKind = iota
	tokenIndex
	tokenColor
)

type pixelToken struct {
	kind  tokenKind
	index int
	color model.Color
}

// classifyPixelToken tags one list element. Negative indices and values that
// are neither numbers, arrays nor strings are skipped. Unreadable colors
// paint black.
func classifyPixelToken(v patch.Value) pixelToken {
	switch v.Kind() {
	case patch.KindNumber:
		n, ok := v.Int()
		if !ok || n < 0 || n > 0xFFFF {
			return pixelToken{}
		}
		return pixelToken{kind: tokenIndex, index: int(n)}
	case patch.KindArray, patch.KindString:
		c, _ := patch.DecodeColor(v)
		return pixelToken{kind: tokenColor, color: c}
	}
	return pixelToken{}
}

type pixelCursor struct {
	state   cursorState
	start   int
	stop    int
	widened bool
}

func (c *pixelCursor) index(n int) {
	if c.state == cursorIdle {
		c.start, c.stop = n, n+1
		c.widened = false
		c.state = cursorRangeOpen
		return
	}
	c.stop = n
	c.widened = true
}

// fill returns the range to paint for a color token and advances the cursor.
func (c *pixelCursor) fill() (int, int) {
	if c.state == cursorIdle {
		c.stop = c.start + 1
	}
	from, to := c.start, c.stop
	if !c.widened {
		c.start++
	}
	c.widened = false
	c.state = cursorIdle
	return from, to
}

func (d *Decoder) paintPixels(id int, seg *model.Segment, list patch.Array) {
	r := d.renderer
	vlen := seg.VirtualLength()
	gamma := r.GammaCorrectColor()

	var cur pixelCursor
	for i := 0; i < list.Len(); i++ {
		tok := classifyPixelToken(list.At(i))
		switch tok.kind {
		case tokenIndex:
			cur.index(tok.index)
		case tokenColor:
			from, to := cur.fill()
			c := tok.color
			if gamma {
				c = model.Color{R: r.Gamma8(c.R), G: r.Gamma8(c.G), B: r.Gamma8(c.B), W: r.Gamma8(c.W)}
			}
			for p := from; p < min(to, vlen); p++ {
				r.SetPixelColor(id, p, c)
			}
		}
	}
}
