package translator

import (
	"strconv"
	"strings"

	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/patch"
)

// Legacy translates HTTP API command strings such as "A=128&FX=3&CL=hFF0000"
// into patches. Numeric arguments keep their relative forms ("~10", "r") so
// the decoder resolves them against the current value.
type Legacy struct{}

var channelKeys = [2][4]string{
	{"R", "G", "B", "W"},
	{"R2", "G2", "B2", "W2"},
}

func (Legacy) Translate(cmd string, st *model.State, _ *model.Segment) patch.Object {
	args := parseArgs(cmd)
	out := patch.Object{}
	seg := map[string]any{}

	if v, ok := args["A"]; ok {
		out["bri"] = scalar(v)
	}
	if v, ok := args["T"]; ok {
		switch v {
		case "0":
			out["on"] = false
		case "1":
			out["on"] = true
		case "2":
			out["on"] = "t"
		}
	}
	if v, ok := args["TT"]; ok {
		out["tt"] = scalar(v)
	}
	if v, ok := args["PL"]; ok {
		out["ps"] = scalar(v)
	}
	if v, ok := args["SM"]; ok {
		out["mainseg"] = scalar(v)
	}

	nl := map[string]any{}
	if v, ok := args["NL"]; ok {
		if v == "0" {
			nl["on"] = false
		} else {
			nl["on"] = true
			nl["dur"] = scalar(v)
		}
	}
	if v, ok := args["NF"]; ok {
		nl["mode"] = scalar(v)
	}
	if v, ok := args["NT"]; ok {
		nl["tbri"] = scalar(v)
	}
	if len(nl) > 0 {
		out["nl"] = nl
	}

	for key, field := range map[string]string{"FX": "fx", "SX": "sx", "IX": "ix", "FP": "pal"} {
		if v, ok := args[key]; ok {
			seg[field] = scalar(v)
		}
	}

	colors := [2]model.Color{st.Col, st.ColSec}
	var changed [2]bool
	for slot, keys := range channelKeys {
		for ch, key := range keys {
			v, ok := args[key]
			if !ok {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				continue
			}
			setChannel(&colors[slot], ch, uint8(min(max(n, 0), 255)))
			changed[slot] = true
		}
	}
	for slot, key := range [2]string{"CL", "C2"} {
		if v, ok := args[key]; ok {
			if c, ok := ParseColorString(v); ok {
				colors[slot] = c
				changed[slot] = true
			}
		}
	}
	if changed[0] || changed[1] {
		col := []any{[]any{}, []any{}}
		for slot := range colors {
			if changed[slot] {
				col[slot] = channels(colors[slot])
			}
		}
		seg["col"] = col
	}

	if len(seg) > 0 {
		// Without SS the segment fields go to the selected segments.
		if v, ok := args["SS"]; ok {
			if id, err := strconv.Atoi(v); err == nil && id >= 0 {
				seg["id"] = id
			}
		}
		out["seg"] = seg
	}
	return out
}

// parseArgs splits "win&A=1&FX=2" into its key/value pairs. Later values win.
func parseArgs(cmd string) map[string]string {
	args := make(map[string]string)
	for _, part := range strings.Split(cmd, "&") {
		key, val, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			continue
		}
		args[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(val)
	}
	return args
}

// scalar keeps integers native and hands anything else to the decoder as text.
func scalar(v string) any {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return v
}

func setChannel(c *model.Color, ch int, v uint8) {
	switch ch {
	case 0:
		c.R = v
	case 1:
		c.G = v
	case 2:
		c.B = v
	case 3:
		c.W = v
	}
}

func channels(c model.Color) []any {
	return []any{int(c.R), int(c.G), int(c.B), int(c.W)}
}

// ParseColorString reads "#RRGGBB", "hRRGGBB" (six or eight digits, the
// latter WWRRGGBB) or a packed decimal 0xWWRRGGBB value.
func ParseColorString(s string) (model.Color, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Color{}, false
	}
	if s[0] == '#' || s[0] == 'h' || s[0] == 'H' {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return model.Color{}, false
		}
		return model.Unpack(uint32(v)), true
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return model.Color{}, false
	}
	return model.Unpack(uint32(v)), true
}
