package model

// Color is one 4-channel RGBW value.
type Color struct {
	R, G, B, W uint8
}

var (
	Black = Color{}
	// DefaultColor is the primary color of a freshly booted controller.
	DefaultColor = Color{R: 255, G: 170}
)

// RGB builds a color with the white channel off.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Packed returns the color as 0xWWRRGGBB.
func (c Color) Packed() uint32 {
	return uint32(c.W)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Unpack is the inverse of Packed.
func Unpack(v uint32) Color {
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), W: uint8(v >> 24)}
}

const hexDigits = "0123456789ABCDEF"

// AppendHex appends the RGB channels as six upper-case hex digits.
func (c Color) AppendHex(dst []byte) []byte {
	for _, b := range [3]uint8{c.R, c.G, c.B} {
		dst = append(dst, hexDigits[b>>4], hexDigits[b&0x0F])
	}
	return dst
}

// Hex returns "RRGGBB".
func (c Color) Hex() string {
	var buf [6]byte
	return string(c.AppendHex(buf[:0]))
}
