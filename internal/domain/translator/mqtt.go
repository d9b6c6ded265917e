package translator

import (
	"strconv"
	"strings"

	"led-json-bridge/internal/domain/patch"
)

// PowerCommand reads the payload of the device topic: "ON", "OFF", "T" to
// toggle, or a brightness.
func PowerCommand(payload string) (patch.Object, bool) {
	p := strings.TrimSpace(payload)
	switch {
	case strings.EqualFold(p, "on") || p == "true":
		return patch.Object{"on": true}, true
	case strings.EqualFold(p, "off") || p == "false":
		return patch.Object{"on": false}, true
	case strings.EqualFold(p, "t"):
		return patch.Object{"on": "t"}, true
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return nil, false
	}
	return patch.Object{"bri": min(max(n, 0), 255)}, true
}

// ColorCommand reads the payload of the color topic into a primary color
// patch for the selected segments.
func ColorCommand(payload string) (patch.Object, bool) {
	c, ok := ParseColorString(payload)
	if !ok {
		return nil, false
	}
	return patch.Object{"seg": map[string]any{"col": []any{channels(c)}}}, true
}
