// Package anim contains the animation parameter records and the renderers
// that draw them into a strip of LEDs.
//
// Every record is a plain value. Fields spanning 0-255 are uint8, and every
// setter that accepts a wider integer clamps it into range.
package anim

import (
	"time"

	"libdb.so/ledfan/board"
	"libdb.so/ledfan/led"
)

// Animator is the interface for types that can draw a frame into the LEDs.
// Render is called once per frame and advances the animation by one step.
type Animator interface {
	Render(leds led.LEDs)
}

// Delayer is implemented by animators that prefer their own frame delay over
// the daemon's refresh rate.
type Delayer interface {
	// Delay returns the preferred delay between two frames. A zero delay
	// means no preference.
	Delay() time.Duration
}

// Clamp8 clamps v into [board.Min, board.Max].
func Clamp8(v int) uint8 {
	switch {
	case v < board.Min:
		return board.Min
	case v > board.Max:
		return board.Max
	default:
		return uint8(v)
	}
}

// ClampVelocity clamps v into the range of a signed 8-bit velocity.
func ClampVelocity(v int) int8 {
	switch {
	case v < -128:
		return -128
	case v > 127:
		return 127
	default:
		return int8(v)
	}
}

// ClampSteps clamps v into [0, board.MaxSteps].
func ClampSteps(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > board.MaxSteps:
		return board.MaxSteps
	default:
		return uint8(v)
	}
}

// OptionalInt is an integer that may be unset.
type OptionalInt struct {
	Value int
	Valid bool
}

// Some returns a set OptionalInt.
func Some(v int) OptionalInt {
	return OptionalInt{Value: v, Valid: true}
}

// Get returns the value and whether it is set.
func (o OptionalInt) Get() (int, bool) {
	return o.Value, o.Valid
}
