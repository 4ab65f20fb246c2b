package led

import (
	"bytes"
	"testing"
)

func TestColorOrderReorder(t *testing.T) {
	c := RGB(1, 2, 3)

	tests := []struct {
		order ColorOrder
		want  [3]uint8
	}{
		{RGBOrder, [3]uint8{1, 2, 3}},
		{RBG, [3]uint8{1, 3, 2}},
		{GRB, [3]uint8{2, 1, 3}},
		{GBR, [3]uint8{2, 3, 1}},
		{BRG, [3]uint8{3, 1, 2}},
		{BGR, [3]uint8{3, 2, 1}},
	}

	for _, test := range tests {
		t.Run(test.order.String(), func(t *testing.T) {
			if got := test.order.Reorder(c); got != test.want {
				t.Errorf("Reorder(%v) = %v, want %v", c, got, test.want)
			}

			parsed, err := ParseColorOrder(test.order.String())
			if err != nil {
				t.Fatal("cannot parse own name:", err)
			}
			if parsed != test.order {
				t.Errorf("ParseColorOrder(%q) = %v", test.order, parsed)
			}
		})
	}

	if _, err := ParseColorOrder("RGBW"); err == nil {
		t.Error("expected error for unknown color order")
	}
}

func TestLEDsAsPixels(t *testing.T) {
	leds := NewLEDs(2)
	leds.Set(0, RGB(10, 20, 30))
	leds.Set(1, RGB(40, 50, 60))
	leds.Set(2, RGB(1, 1, 1)) // out of range, ignored

	got := leds.AsPixels(GBR)
	want := []uint8{20, 30, 10, 50, 60, 40}
	if !bytes.Equal(got, want) {
		t.Errorf("AsPixels(GBR) = %v, want %v", got, want)
	}
}

func TestLEDsFadeToBlack(t *testing.T) {
	leds := NewLEDs(3)
	leds.Fill(RGB(255, 255, 255))

	leds.FadeToBlack(255)
	for i, c := range leds {
		if c != (RGBColor{}) {
			t.Errorf("led %d = %v after full fade, want black", i, c)
		}
	}

	leds.Fill(RGB(200, 100, 0))
	leds.FadeToBlack(0)
	if leds[0] != RGB(200, 100, 0) {
		t.Errorf("FadeToBlack(0) changed color to %v", leds[0])
	}
}

func TestHSV(t *testing.T) {
	tests := []struct {
		name string
		hsv  HSV
		want RGBColor
	}{
		{"red", HSV{0, 255, 255}, RGB(255, 0, 0)},
		{"white", HSV{123, 0, 255}, RGB(255, 255, 255)},
		{"off", HSV{255, 255, 0}, RGB(0, 0, 0)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.hsv.RGB(); got != test.want {
				t.Errorf("%+v.RGB() = %v, want %v", test.hsv, got, test.want)
			}
		})
	}
}

func TestRGBColorText(t *testing.T) {
	var c RGBColor
	if err := c.UnmarshalText([]byte("#0a96cc")); err != nil {
		t.Fatal(err)
	}
	if c != RGB(10, 150, 204) {
		t.Errorf("parsed %v", c)
	}

	if err := c.UnmarshalText([]byte("teal")); err == nil {
		t.Error("expected error for named color")
	}
}

func TestColorFromPalette(t *testing.T) {
	var p Palette16
	p[0] = RGB(0, 0, 0)
	p[1] = RGB(160, 0, 0)
	p[15] = RGB(0, 0, 160)

	tests := []struct {
		name       string
		index      uint8
		brightness uint8
		blend      BlendType
		want       RGBColor
	}{
		{"exact stop", 0x10, 255, LinearBlend, RGB(160, 0, 0)},
		{"no blend snaps", 0x18, 255, NoBlend, RGB(0, 0, 0)},
		{"halfway", 0x08, 255, LinearBlend, RGB(80, 0, 0)},
		{"wraps to first", 0xF8, 255, LinearBlend, RGB(0, 0, 80)},
		{"dimmed", 0x10, 0, LinearBlend, RGB(0, 0, 0)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := p.ColorFromPalette(test.index, test.brightness, test.blend)
			if got != test.want {
				t.Errorf("ColorFromPalette(%#x) = %v, want %v", test.index, got, test.want)
			}
		})
	}
}

func TestLookupPalette(t *testing.T) {
	for _, name := range PaletteNames() {
		p, ok := LookupPalette(name)
		if !ok {
			t.Errorf("palette %q listed but not found", name)
		}
		if len(p) != PaletteSize {
			t.Errorf("palette %q has %d stops", name, len(p))
		}
	}

	if _, ok := LookupPalette("nope"); ok {
		t.Error("unexpected palette found")
	}
}

func TestBlendTypeText(t *testing.T) {
	var b BlendType
	if err := b.UnmarshalText([]byte("linear")); err != nil || b != LinearBlend {
		t.Errorf("UnmarshalText(linear) = %v, %v", b, err)
	}
	if err := b.UnmarshalText([]byte("cubic")); err == nil {
		t.Error("expected error for unknown blending")
	}
}
