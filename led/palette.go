package led

import (
	"fmt"
	"sort"
)

// PaletteSize is the number of stops in a Palette16.
const PaletteSize = 16

// Palette16 is a palette of 16 evenly spaced color stops.
type Palette16 [PaletteSize]RGBColor

// BlendType is the policy for interpolating between adjacent palette stops.
type BlendType uint8

const (
	// NoBlend snaps to the nearest lower stop.
	NoBlend BlendType = iota
	// LinearBlend interpolates linearly between stops.
	LinearBlend
)

func (b BlendType) String() string {
	switch b {
	case NoBlend:
		return "none"
	case LinearBlend:
		return "linear"
	default:
		return fmt.Sprintf("BlendType(%d)", b)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b BlendType) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *BlendType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none", "":
		*b = NoBlend
	case "linear":
		*b = LinearBlend
	default:
		return fmt.Errorf("unknown blending %q", text)
	}
	return nil
}

// ColorFromPalette returns the color at the given index into the palette.
// The high 4 bits of index select a stop; with LinearBlend the low 4 bits
// blend toward the following stop, wrapping from the last stop to the
// first. The result is scaled by brightness.
func (p *Palette16) ColorFromPalette(index, brightness uint8, blend BlendType) RGBColor {
	hi := index >> 4
	lo := index & 0x0F

	c := p[hi]
	if blend == LinearBlend && lo != 0 {
		next := p[(hi+1)%PaletteSize]
		c = FromColorful(c.Colorful().BlendRgb(next.Colorful(), float64(lo)/16))
	}

	return c.Scale(brightness)
}

func hexPalette(v [PaletteSize]uint32) Palette16 {
	var p Palette16
	for i, c := range v {
		p[i] = Hex(c)
	}
	return p
}

// Built-in palettes.
var (
	RainbowPalette = hexPalette([PaletteSize]uint32{
		0xFF0000, 0xD52A00, 0xAB5500, 0xAB7F00,
		0xABAB00, 0x56D500, 0x00FF00, 0x00D52A,
		0x00AB55, 0x0056AA, 0x0000FF, 0x2A00D5,
		0x5500AB, 0x7F0081, 0xAB0055, 0xD5002B,
	})
	PartyPalette = hexPalette([PaletteSize]uint32{
		0x5500AB, 0x84007C, 0xB5004B, 0xE5001B,
		0xE81700, 0xB84700, 0xAB7700, 0xABAB00,
		0xAB5500, 0xDD2200, 0xF2000E, 0xC2003E,
		0x8F0071, 0x5F00A1, 0x2F00D0, 0x0007F9,
	})
	OceanPalette = hexPalette([PaletteSize]uint32{
		0x191970, 0x00008B, 0x191970, 0x000080,
		0x00008B, 0x0000CD, 0x2E8B57, 0x008080,
		0x5F9EA0, 0x0000FF, 0x008B8B, 0x6495ED,
		0x7FFFD4, 0x2E8B57, 0x00FFFF, 0x87CEFA,
	})
	LavaPalette = hexPalette([PaletteSize]uint32{
		0x000000, 0x800000, 0x000000, 0x800000,
		0x8B0000, 0x8B0000, 0x800000, 0x8B0000,
		0x8B0000, 0x8B0000, 0xFF0000, 0xFFA500,
		0xFFFFFF, 0xFFA500, 0xFF0000, 0x8B0000,
	})
)

var palettes = map[string]Palette16{
	"rainbow": RainbowPalette,
	"party":   PartyPalette,
	"ocean":   OceanPalette,
	"lava":    LavaPalette,
}

// LookupPalette returns the built-in palette with the given name.
func LookupPalette(name string) (Palette16, bool) {
	p, ok := palettes[name]
	return p, ok
}

// PaletteNames returns the names of all built-in palettes, sorted.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
