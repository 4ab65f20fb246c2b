// Package board describes the ledfan hardware: pin wiring, strip length,
// channel order and the numeric bounds shared by every animation.
package board

import "libdb.so/ledfan/led"

// Pin assignments on the controller.
const (
	ClockPin  = 3 // clock line
	LEDPin    = 4 // data line
	ButtonPin = 5 // mode selection button
)

const (
	// NumLEDs is the number of LEDs on the strip.
	NumLEDs = 28
	// NumModes is the number of selectable animation modes.
	NumModes = 3
	// ColorOrder is the channel order the strip expects on the wire.
	ColorOrder = led.GBR
)

// Bounds for most animation parameters.
const (
	Min = 0
	Max = 255
	// MaxSteps bounds the expansion radius of ripple effects.
	MaxSteps = 16
)
