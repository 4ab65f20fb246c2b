package anim

import (
	"libdb.so/ledfan/board"
	"libdb.so/ledfan/led"
)

// SolidColor fills the whole strip with one color.
type SolidColor struct {
	Hue        uint8
	Saturation uint8
	Brightness uint8
}

var _ Animator = (*SolidColor)(nil)

// DefaultSolidColor returns a solid color that is switched off.
func DefaultSolidColor() SolidColor {
	return SolidColor{
		Hue:        board.Max,
		Saturation: board.Max,
		Brightness: 0,
	}
}

// SetHue sets the hue, clamped into range.
func (s *SolidColor) SetHue(v int) { s.Hue = Clamp8(v) }

// SetSaturation sets the saturation, clamped into range.
func (s *SolidColor) SetSaturation(v int) { s.Saturation = Clamp8(v) }

// SetBrightness sets the brightness, clamped into range.
func (s *SolidColor) SetBrightness(v int) { s.Brightness = Clamp8(v) }

// Render implements Animator.
func (s *SolidColor) Render(leds led.LEDs) {
	leds.Fill(led.HSV{H: s.Hue, S: s.Saturation, V: s.Brightness}.RGB())
}
