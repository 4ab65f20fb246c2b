// Package led contains the color types and the frame buffer shared by the
// ledfan daemon and its animations.
package led

// LEDs describes a strip of LEDs. It is a preallocated slice of RGBColor.
type LEDs []RGBColor

// NewLEDs creates a new strip of LEDs. Colors are initialized to black
// (off).
func NewLEDs(numLEDs int) LEDs {
	return make(LEDs, numLEDs)
}

// AsPixels encodes the LED strip into a new slice of bytes. Each LED is
// written as three bytes in the given channel order.
func (l LEDs) AsPixels(order ColorOrder) []uint8 {
	pix := make([]uint8, 0, 3*len(l))
	for _, c := range l {
		wire := order.Reorder(c)
		pix = append(pix, wire[:]...)
	}
	return pix
}

// Set sets the color of the LED at the given index. Indices outside the strip
// are ignored.
func (l LEDs) Set(i int, c RGBColor) {
	if i >= 0 && i < len(l) {
		l[i] = c
	}
}

// SetRange sets the color of the LEDs in the given range.
func (l LEDs) SetRange(start, end int, c RGBColor) {
	for i := start; i < end; i++ {
		l[i] = c
	}
}

// Fill sets every LED to the given color.
func (l LEDs) Fill(c RGBColor) {
	l.SetRange(0, len(l), c)
}

// FadeToBlack dims every LED by amount/256.
func (l LEDs) FadeToBlack(amount uint8) {
	keep := 255 - amount
	for i := range l {
		l[i] = l[i].Scale(keep)
	}
}
