package patch

import (
	"encoding/hex"
	"math"

	"led-json-bridge/internal/domain/model"
)

// DecodeColor resolves one color slot. It accepts an array of one to four
// channels (missing channels are zero), a 2, 6 or 8 digit hex string, or a
// color temperature in Kelvin where 0 means black. The bool is false when the
// slot must be left untouched.
func DecodeColor(v Value) (model.Color, bool) {
	switch v.Kind() {
	case KindArray:
		a, _ := v.Array()
		return colorFromArray(a)
	case KindString:
		s, _ := v.Text()
		return ParseHexColor(s)
	case KindNumber:
		k, ok := v.Int()
		if !ok || k < 0 {
			return model.Color{}, false
		}
		if k == 0 {
			return model.Black, true
		}
		return KelvinToColor(int(min(k, math.MaxUint16))), true
	}
	return model.Color{}, false
}

func colorFromArray(a Array) (model.Color, bool) {
	if a.Len() == 0 {
		return model.Color{}, false
	}
	var ch [4]uint8
	for i := 0; i < len(ch) && i < a.Len(); i++ {
		if n, ok := a.At(i).Int(); ok {
			ch[i] = uint8(clamp64(n, 0, 255))
		}
	}
	return model.Color{R: ch[0], G: ch[1], B: ch[2], W: ch[3]}, true
}

// ParseHexColor decodes "WW", "RRGGBB" or "RRGGBBWW".
func ParseHexColor(s string) (model.Color, bool) {
	var b [4]byte
	switch len(s) {
	case 2, 6, 8:
	default:
		return model.Color{}, false
	}
	n, err := hex.Decode(b[:], []byte(s))
	if err != nil {
		return model.Color{}, false
	}
	switch n {
	case 1:
		return model.Color{W: b[0]}, true
	case 3:
		return model.RGB(b[0], b[1], b[2]), true
	}
	return model.Color{R: b[0], G: b[1], B: b[2], W: b[3]}, true
}

// KelvinToColor approximates the black-body color of a temperature. The white
// channel is left off.
func KelvinToColor(kelvin int) model.Color {
	temp := float64(kelvin / 100)
	var r, g, b float64
	if temp <= 66 {
		r = 255
		g = math.Round(99.4708025861*math.Log(temp) - 161.1195681661)
		if temp > 19 {
			b = math.Round(138.5177312231*math.Log(temp-10) - 305.0447927307)
		}
	} else {
		r = math.Round(329.698727446 * math.Pow(temp-60, -0.1332047592))
		g = math.Round(288.1221695283 * math.Pow(temp-60, -0.0755148492))
		b = 255
	}
	return model.RGB(channel(r), channel(g), channel(b))
}

func channel(f float64) uint8 {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(f)
}
