package catalog

// Placeholder tokens in a palette preview. They stand for colors that only
// exist at render time.
const (
	TokenRandom    = "r"
	TokenPrimary   = "c1"
	TokenSecondary = "c2"
	TokenTertiary  = "c3"
)

// Stop is one gradient stop: position 0-255 and an RGB color.
type Stop [4]uint8

// sixteen holds the 16-entry palettes as packed 0xRRGGBB values.
var sixteen = map[int][16]uint32{
	0: partyColors,
	6: partyColors,
	7: {
		0x0000FF, 0x00008B, 0x00008B, 0x00008B, 0x00008B, 0x00008B, 0x00008B, 0x00008B,
		0x0000FF, 0x00008B, 0x87CEEB, 0x87CEEB, 0xADD8E6, 0xFFFFFF, 0xADD8E6, 0x87CEEB,
	},
	8: {
		0x000000, 0x800000, 0x000000, 0x800000, 0x8B0000, 0x8B0000, 0x800000, 0x8B0000,
		0x8B0000, 0x8B0000, 0xFF0000, 0xFFA500, 0xFFFFFF, 0xFFA500, 0xFF0000, 0x8B0000,
	},
	9: {
		0x191970, 0x00008B, 0x191970, 0x000080, 0x00008B, 0x0000CD, 0x2E8B57, 0x008080,
		0x5F9EA0, 0x0000FF, 0x008B8B, 0x6495ED, 0x7FFFD4, 0x2E8B57, 0x00FFFF, 0x87CEFA,
	},
	10: {
		0x006400, 0x006400, 0x556B2F, 0x006400, 0x008000, 0x228B22, 0x6B8E23, 0x008000,
		0x2E8B57, 0x66CDAA, 0x32CD32, 0x9ACD32, 0x90EE90, 0x7CFC00, 0x66CDAA, 0x228B22,
	},
	11: {
		0xFF0000, 0xD52A00, 0xAB5500, 0xAB7F00, 0xABAB00, 0x56D500, 0x00FF00, 0x00D52A,
		0x00AB55, 0x0056AA, 0x0000FF, 0x2A00D5, 0x5500AB, 0x7F0081, 0xAB0055, 0xD5002B,
	},
	12: {
		0xFF0000, 0x000000, 0xAB5500, 0x000000, 0xABAB00, 0x000000, 0x00FF00, 0x000000,
		0x00AB55, 0x000000, 0x0000FF, 0x000000, 0x5500AB, 0x000000, 0xAB0055, 0x000000,
	},
}

var partyColors = [16]uint32{
	0x5500AB, 0x84007C, 0xB5004B, 0xE5001B, 0xE81700, 0xB84700, 0xAB7700, 0xABAB00,
	0xAB5500, 0xDD2200, 0xF2000E, 0xC2003E, 0x8F0071, 0x5F00A1, 0x2F00D0, 0x0007F9,
}

var gradients = map[int][]Stop{
	13: {{0, 120, 0, 0}, {22, 179, 22, 0}, {51, 255, 104, 0}, {85, 167, 22, 18}, {135, 100, 0, 103}, {198, 16, 0, 130}, {255, 0, 0, 160}},
	14: {{0, 1, 14, 5}, {101, 16, 36, 14}, {165, 56, 68, 30}, {242, 150, 156, 99}, {255, 150, 156, 99}},
	15: {{0, 1, 6, 7}, {89, 1, 99, 111}, {153, 144, 209, 255}, {255, 0, 73, 82}},
	16: {{0, 4, 1, 31}, {31, 55, 1, 16}, {63, 197, 3, 7}, {95, 59, 2, 17}, {127, 6, 2, 34}, {159, 39, 6, 33}, {191, 112, 13, 32}, {223, 56, 9, 35}, {255, 22, 6, 38}},
	17: {{0, 188, 135, 1}, {255, 46, 7, 1}},
	18: {{0, 3, 0, 255}, {63, 23, 0, 255}, {127, 67, 0, 255}, {191, 142, 0, 45}, {255, 255, 0, 0}},
	19: {{0, 126, 11, 255}, {127, 197, 1, 22}, {175, 210, 157, 172}, {221, 157, 3, 112}, {255, 157, 3, 112}},
}

var placeholders = map[int][]string{
	1: {TokenRandom, TokenRandom, TokenRandom, TokenRandom},
	2: {TokenPrimary},
	3: {TokenPrimary, TokenPrimary, TokenSecondary, TokenSecondary},
	4: {TokenTertiary, TokenSecondary, TokenPrimary},
	5: {
		TokenPrimary, TokenPrimary, TokenPrimary, TokenPrimary, TokenPrimary,
		TokenSecondary, TokenSecondary, TokenSecondary, TokenSecondary, TokenSecondary,
		TokenTertiary, TokenTertiary, TokenTertiary, TokenTertiary, TokenTertiary,
		TokenPrimary,
	},
}

// PalettePreview returns the preview entries of palette id: Stop values for
// fixed palettes, placeholder tokens for palettes derived from segment colors.
// Unknown ids yield an empty preview.
func PalettePreview(id int) []any {
	if p, ok := sixteen[id]; ok {
		out := make([]any, len(p))
		for i, c := range p {
			out[i] = Stop{uint8(i * 255 / 16), uint8(c >> 16), uint8(c >> 8), uint8(c)}
		}
		return out
	}
	if g, ok := gradients[id]; ok {
		out := make([]any, len(g))
		for i, s := range g {
			out[i] = s
		}
		return out
	}
	if tokens, ok := placeholders[id]; ok {
		out := make([]any, len(tokens))
		for i, t := range tokens {
			out[i] = t
		}
		return out
	}
	return []any{}
}
