// Package translator turns foreign control inputs (a Hue light's state, a
// legacy command string, MQTT payloads) into patch documents.
package translator

import (
	"github.com/amimof/huego"
	"github.com/lucasb-eyer/go-colorful"

	"led-json-bridge/internal/domain/patch"
)

// HueLight follows a Hue light. Each Apply flag enables one aspect.
type HueLight struct {
	ApplyOnOff bool
	ApplyBri   bool
	ApplyColor bool
}

// ToPatch returns the patch that reproduces the changes from prev to cur. A
// nil prev means everything changed. The patch is empty when nothing did.
func (h HueLight) ToPatch(prev, cur *huego.State) patch.Object {
	out := patch.Object{}
	if cur == nil {
		return out
	}
	first := prev == nil
	if first {
		prev = &huego.State{}
	}

	if h.ApplyOnOff && (first || prev.On != cur.On) {
		out["on"] = cur.On
	}
	if h.ApplyBri && cur.On && cur.Bri > 0 && (first || prev.Bri != cur.Bri) {
		out["bri"] = int(cur.Bri)
	}
	if h.ApplyColor && (first || colorChanged(prev, cur)) {
		if col, ok := hueColor(cur); ok {
			out["seg"] = map[string]any{"col": []any{col}}
		}
	}
	return out
}

func colorChanged(prev, cur *huego.State) bool {
	if prev.ColorMode != cur.ColorMode {
		return true
	}
	switch cur.ColorMode {
	case "ct":
		return prev.Ct != cur.Ct
	case "hs":
		return prev.Hue != cur.Hue || prev.Sat != cur.Sat
	case "xy":
		return !sameXY(prev.Xy, cur.Xy)
	}
	return false
}

func sameXY(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// hueColor returns a color slot value: Kelvin for color temperature,
// otherwise an [r,g,b] array.
func hueColor(s *huego.State) (any, bool) {
	var c colorful.Color
	switch s.ColorMode {
	case "ct":
		if s.Ct == 0 {
			return nil, false
		}
		return 1_000_000 / int(s.Ct), true
	case "hs":
		c = colorful.Hsv(float64(s.Hue)*360/65536, float64(s.Sat)/254, 1)
	case "xy":
		if len(s.Xy) < 2 || s.Xy[1] == 0 {
			return nil, false
		}
		c = colorful.Xyy(float64(s.Xy[0]), float64(s.Xy[1]), 1)
	default:
		return nil, false
	}
	r, g, b := normalize(c.Clamped()).RGB255()
	return []any{int(r), int(g), int(b)}, true
}

// normalize scales the color so its brightest channel is full; brightness
// travels separately.
func normalize(c colorful.Color) colorful.Color {
	peak := max(c.R, c.G, c.B)
	if peak <= 0 {
		return c
	}
	return colorful.Color{R: c.R / peak, G: c.G / peak, B: c.B / peak}
}
