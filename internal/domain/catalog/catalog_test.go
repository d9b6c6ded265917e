package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalog_StripsVendorSuffix(t *testing.T) {
	c := New(`["Solid","Blink@!,Duty cycle;!,!;!","Breathe"]`)

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"Solid", "Blink", "Breathe"}, c.Names())
}

func TestCatalog_CommaInsideQuotes(t *testing.T) {
	c := New(`["a,b","c"]`)

	assert.Equal(t, []string{"a,b", "c"}, c.Names())
}

func TestCatalog_KeepsEmptySlots(t *testing.T) {
	c := New(`["a","","c"]`)

	name, ok := c.Name(2)
	assert.True(t, ok)
	assert.Equal(t, "c", name)

	name, ok = c.Name(1)
	assert.True(t, ok)
	assert.Empty(t, name)
}

func TestCatalog_Name(t *testing.T) {
	c := Effects()

	name, ok := c.Name(1)
	assert.True(t, ok)
	assert.Equal(t, "Blink", name)

	_, ok = c.Name(c.Len())
	assert.False(t, ok)
	_, ok = c.Name(-1)
	assert.False(t, ok)
}

func TestCatalog_Empty(t *testing.T) {
	assert.Equal(t, 0, New(`[]`).Len())
	assert.Equal(t, 0, New(``).Len())
}

func TestCatalog_AllStopsEarly(t *testing.T) {
	var seen []string
	for i, name := range Palettes().All() {
		seen = append(seen, name)
		if i == 1 {
			break
		}
	}
	assert.Equal(t, []string{"Default", "* Random Cycle"}, seen)
}

func TestBuiltinCatalogs(t *testing.T) {
	assert.Equal(t, 118, Effects().Len())
	assert.Equal(t, 20, Palettes().Len())

	var raw []string
	assert.NoError(t, json.Unmarshal([]byte(EffectNames), &raw))
	assert.Len(t, raw, 118)
	assert.Equal(t, "Blink@!,Duty cycle;!,!;!", raw[1])
}

func TestPalettePreview(t *testing.T) {
	party := PalettePreview(6)
	assert.Len(t, party, 16)
	assert.Equal(t, Stop{0, 0x55, 0x00, 0xAB}, party[0])
	assert.Equal(t, Stop{15, 0x84, 0x00, 0x7C}, party[1])

	assert.Equal(t, []any{TokenPrimary}, PalettePreview(2))
	assert.Equal(t, Stop{255, 46, 7, 1}, PalettePreview(17)[1])
	assert.Empty(t, PalettePreview(99))

	b, err := json.Marshal(PalettePreview(17))
	assert.NoError(t, err)
	assert.JSONEq(t, `[[0,188,135,1],[255,46,7,1]]`, string(b))
}
