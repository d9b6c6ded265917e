// Package catalog reads the compact effect and palette name lists. A catalog
// is a bracketed, comma separated list of quoted names; commas inside quotes
// belong to the name, and anything from the first '@' on is vendor metadata
// that is stripped from the exposed name.
package catalog

import (
	"iter"
	"strings"
)

// Catalog is a read-only view over one compact name list. Names are sliced out
// of the raw string without copying.
type Catalog struct {
	raw string
	n   int
}

func New(raw string) *Catalog {
	c := &Catalog{raw: raw}
	for range c.All() {
		c.n++
	}
	return c
}

// Effects returns the built-in effect catalog.
func Effects() *Catalog {
	return New(EffectNames)
}

// Palettes returns the built-in palette catalog.
func Palettes() *Catalog {
	return New(PaletteNames)
}

// Raw returns the catalog exactly as stored, vendor suffixes included.
func (c *Catalog) Raw() string {
	return c.raw
}

func (c *Catalog) Len() int {
	return c.n
}

// All yields every entry with its position. Empty entries keep their slot so
// positions always match identifiers.
func (c *Catalog) All() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		var (
			idx      int
			start    = -1
			end      = -1
			quoted   bool
			inQuotes bool
		)
		emit := func() bool {
			name := ""
			if start >= 0 && end >= start {
				name = stripVendor(c.raw[start:end])
			}
			ok := yield(idx, name)
			idx++
			start, end, quoted = -1, -1, false
			return ok
		}

		for i := 0; i < len(c.raw); i++ {
			ch := c.raw[i]
			if ch == '"' {
				if !inQuotes && start < 0 {
					start = i + 1
				}
				if inQuotes {
					end = i
				}
				inQuotes = !inQuotes
				quoted = true
				continue
			}
			if inQuotes {
				continue
			}
			switch ch {
			case ',':
				if !emit() {
					return
				}
			case ']':
				if quoted {
					emit()
				}
				return
			}
		}
		if quoted {
			emit()
		}
	}
}

// Names returns every entry as a fresh slice.
func (c *Catalog) Names() []string {
	out := make([]string, 0, c.n)
	for _, name := range c.All() {
		out = append(out, name)
	}
	return out
}

// Name extracts a single entry.
func (c *Catalog) Name(id int) (string, bool) {
	if id < 0 {
		return "", false
	}
	for i, name := range c.All() {
		if i == id {
			return name, true
		}
	}
	return "", false
}

func stripVendor(name string) string {
	if at := strings.IndexByte(name, '@'); at >= 0 {
		return name[:at]
	}
	return name
}
