package buffer

import (
	"io"
	"strconv"
)

// Page is one window of a paginated listing.
type Page struct {
	Index int // clamped page index
	Max   int // highest valid page index
	Start int // first item, inclusive
	End   int // last item, exclusive
}

// Paginate clamps page into [0, Max] and returns its item window. An empty
// listing has a single empty page.
func Paginate(total, perPage, page int) Page {
	if perPage < 1 {
		perPage = 1
	}
	maxPage := 0
	if total > 0 {
		maxPage = (total - 1) / perPage
	}
	page = min(max(page, 0), maxPage)

	start := min(page*perPage, total)
	end := min(start+perPage, total)
	return Page{Index: page, Max: maxPage, Start: start, End: end}
}

// MaxLiveLEDs caps the number of pixels in a live snapshot.
const MaxLiveLEDs = 180

// SampleStride is the pixel step that keeps a snapshot of count pixels within
// MaxLiveLEDs.
func SampleStride(count int) int {
	if count <= 0 {
		return 1
	}
	return (count-1)/MaxLiveLEDs + 1
}

// WriteLiveLEDs writes {"leds":["RRGGBB",...],"n":stride} sampling every
// stride-th pixel from pixel.
func WriteLiveLEDs(w io.Writer, count int, pixel func(i int) [3]uint8) error {
	stride := SampleStride(count)

	var scratch [16]byte
	if _, err := io.WriteString(w, `{"leds":[`); err != nil {
		return err
	}
	for i := 0; i < count; i += stride {
		out := scratch[:0]
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '"')
		out = appendHexRGB(out, pixel(i))
		out = append(out, '"')
		if _, err := w.Write(out); err != nil {
			return err
		}
	}
	out := append(scratch[:0], `],"n":`...)
	out = strconv.AppendInt(out, int64(stride), 10)
	out = append(out, '}')
	_, err := w.Write(out)
	return err
}

const hexDigits = "0123456789ABCDEF"

func appendHexRGB(dst []byte, rgb [3]uint8) []byte {
	for _, b := range rgb {
		dst = append(dst, hexDigits[b>>4], hexDigits[b&0x0F])
	}
	return dst
}
