package led

import (
	"encoding"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor is a color in RGB order, one byte per channel.
type RGBColor [3]uint8

var (
	_ encoding.TextUnmarshaler = (*RGBColor)(nil)
	_ encoding.TextMarshaler   = RGBColor{}
)

// RGB creates a new RGBColor.
func RGB(r, g, b uint8) RGBColor {
	return RGBColor{r, g, b}
}

// Hex creates an RGBColor from a 0xRRGGBB value.
func Hex(v uint32) RGBColor {
	return RGBColor{uint8(v >> 16), uint8(v >> 8), uint8(v)}
}

// UnmarshalText parses a color in the form #RRGGBB.
func (c *RGBColor) UnmarshalText(text []byte) error {
	col, err := colorful.Hex(string(text))
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", text, err)
	}
	*c = FromColorful(col)
	return nil
}

// MarshalText formats the color as #rrggbb.
func (c RGBColor) MarshalText() ([]byte, error) {
	return []byte(c.Colorful().Hex()), nil
}

// String implements fmt.Stringer.
func (c RGBColor) String() string {
	return c.Colorful().Hex()
}

// Colorful converts the color into a colorful.Color.
func (c RGBColor) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c[0]) / 255,
		G: float64(c[1]) / 255,
		B: float64(c[2]) / 255,
	}
}

// FromColorful converts a colorful.Color into an RGBColor. Out of gamut
// colors are clamped.
func FromColorful(c colorful.Color) RGBColor {
	r, g, b := c.Clamped().RGB255()
	return RGBColor{r, g, b}
}

// Scale scales every channel by v/256, the way dimming works on 8-bit
// hardware. Scale(255) keeps the color unchanged.
func (c RGBColor) Scale(v uint8) RGBColor {
	if v == 255 {
		return c
	}
	for i := range c {
		c[i] = uint8(uint16(c[i]) * (uint16(v) + 1) >> 8)
	}
	return c
}

// Add adds two colors channel by channel, saturating at 255.
func (c RGBColor) Add(other RGBColor) RGBColor {
	for i := range c {
		sum := uint16(c[i]) + uint16(other[i])
		if sum > 255 {
			sum = 255
		}
		c[i] = uint8(sum)
	}
	return c
}

// HSV is a color on the 8-bit color wheel. Every component spans 0-255:
// hue is the position on the wheel, saturation the color purity and value
// the light intensity.
type HSV struct {
	H, S, V uint8
}

// RGB converts the HSV color to RGB.
func (c HSV) RGB() RGBColor {
	h := float64(c.H) * 360 / 256
	return FromColorful(colorful.Hsv(h, float64(c.S)/255, float64(c.V)/255))
}

// ColorOrder is the order in which a strip expects its color channels.
type ColorOrder uint8

const (
	RGBOrder ColorOrder = iota
	RBG
	GRB
	GBR
	BRG
	BGR
)

// channel indices into an RGBColor, per order
var colorOrders = [...][3]uint8{
	RGBOrder: {0, 1, 2},
	RBG:      {0, 2, 1},
	GRB:      {1, 0, 2},
	GBR:      {1, 2, 0},
	BRG:      {2, 0, 1},
	BGR:      {2, 1, 0},
}

var colorOrderNames = [...]string{
	RGBOrder: "RGB",
	RBG:      "RBG",
	GRB:      "GRB",
	GBR:      "GBR",
	BRG:      "BRG",
	BGR:      "BGR",
}

// Reorder returns the channels of c in wire order.
func (o ColorOrder) Reorder(c RGBColor) [3]uint8 {
	idx := colorOrders[o]
	return [3]uint8{c[idx[0]], c[idx[1]], c[idx[2]]}
}

func (o ColorOrder) String() string {
	if int(o) < len(colorOrderNames) {
		return colorOrderNames[o]
	}
	return fmt.Sprintf("ColorOrder(%d)", o)
}

// ParseColorOrder parses a color order such as "GBR".
func ParseColorOrder(s string) (ColorOrder, error) {
	for i, name := range colorOrderNames {
		if strings.EqualFold(name, s) {
			return ColorOrder(i), nil
		}
	}
	return 0, fmt.Errorf("unknown color order %q", s)
}
