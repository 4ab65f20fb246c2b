package anim

import "libdb.so/ledfan/led"

// Rainbow cycles a 16-stop palette along the strip.
type Rainbow struct {
	Palette    led.Palette16
	Blending   led.BlendType
	Brightness uint8
	Steps      uint8 // palette index distance between two neighboring LEDs
	Velocity   int8  // palette index change per frame

	start uint8
}

var _ Animator = (*Rainbow)(nil)

// DefaultRainbow returns the rainbow used when none is configured.
func DefaultRainbow() Rainbow {
	return Rainbow{
		Palette:    led.RainbowPalette,
		Blending:   led.LinearBlend,
		Brightness: 255,
		Steps:      8,
		Velocity:   1,
	}
}

// SetBrightness sets the brightness, clamped into range.
func (r *Rainbow) SetBrightness(v int) { r.Brightness = Clamp8(v) }

// SetSteps sets the traversal granularity, clamped into range.
func (r *Rainbow) SetSteps(v int) { r.Steps = Clamp8(v) }

// SetVelocity sets the velocity, clamped into the int8 range.
func (r *Rainbow) SetVelocity(v int) { r.Velocity = ClampVelocity(v) }

// Render implements Animator.
func (r *Rainbow) Render(leds led.LEDs) {
	index := r.start
	for i := range leds {
		leds[i] = r.Palette.ColorFromPalette(index, r.Brightness, r.Blending)
		index += r.Steps
	}
	r.start += uint8(r.Velocity)
}
