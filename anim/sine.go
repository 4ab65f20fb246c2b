package anim

import (
	"time"

	"libdb.so/ledfan/led"
)

// SineWave is a colored sine wave travelling along the strip over a
// background color.
type SineWave struct {
	Phase                int // current angular offset of the wave
	LoopDelay            int // milliseconds between animation steps
	Brightness           uint8
	Hue                  uint8 // position on the color wheel
	Rotation             uint8 // hue rotation per step
	Saturation           uint8
	Frequency            uint8 // width of the wave
	Cutoff               uint8 // lower cutoff means a longer wave
	BackgroundHue        uint8
	BackgroundBrightness uint8
	Velocity             int8 // wave speed, signed
	Backwards            bool // reverses the direction of Velocity
}

var (
	_ Animator = (*SineWave)(nil)
	_ Delayer  = (*SineWave)(nil)
)

// DefaultSineWave returns the sine wave used when none is configured.
func DefaultSineWave() SineWave {
	return SineWave{
		LoopDelay:  20,
		Brightness: 255,
		Rotation:   1,
		Saturation: 255,
		Frequency:  16,
		Cutoff:     128,
		Velocity:   4,
	}
}

// SetBrightness sets the brightness, clamped into range.
func (s *SineWave) SetBrightness(v int) { s.Brightness = Clamp8(v) }

// SetHue sets the hue, clamped into range.
func (s *SineWave) SetHue(v int) { s.Hue = Clamp8(v) }

// SetRotation sets the rotation, clamped into range.
func (s *SineWave) SetRotation(v int) { s.Rotation = Clamp8(v) }

// SetSaturation sets the saturation, clamped into range.
func (s *SineWave) SetSaturation(v int) { s.Saturation = Clamp8(v) }

// SetFrequency sets the frequency, clamped into range.
func (s *SineWave) SetFrequency(v int) { s.Frequency = Clamp8(v) }

// SetCutoff sets the cutoff, clamped into range.
func (s *SineWave) SetCutoff(v int) { s.Cutoff = Clamp8(v) }

// SetBackground sets the background hue and brightness, clamped into range.
func (s *SineWave) SetBackground(hue, brightness int) {
	s.BackgroundHue = Clamp8(hue)
	s.BackgroundBrightness = Clamp8(brightness)
}

// SetVelocity sets the velocity, clamped into the int8 range.
func (s *SineWave) SetVelocity(v int) { s.Velocity = ClampVelocity(v) }

// Step returns the signed phase change per frame. A negative velocity moves
// the wave backwards; Backwards flips whatever direction that gives.
func (s *SineWave) Step() int {
	step := int(s.Velocity)
	if s.Backwards {
		step = -step
	}
	return step
}

// Delay implements Delayer.
func (s *SineWave) Delay() time.Duration {
	if s.LoopDelay <= 0 {
		return 0
	}
	return time.Duration(s.LoopDelay) * time.Millisecond
}

// Render implements Animator.
func (s *SineWave) Render(leds led.LEDs) {
	leds.Fill(led.HSV{H: s.BackgroundHue, S: 255, V: s.BackgroundBrightness}.RGB())

	for i := range leds {
		wave := cubicWave8(uint8(i*int(s.Frequency) + s.Phase))
		level := qsub8(wave, s.Cutoff)
		if level == 0 {
			continue
		}
		// Stretch the part above the cutoff back over the full range.
		level = uint8(int(level) * 255 / int(255-s.Cutoff))

		c := led.HSV{
			H: s.Hue + uint8(i*int(s.Rotation)/8),
			S: s.Saturation,
			V: scale8(level, s.Brightness),
		}.RGB()
		leds[i] = leds[i].Add(c)
	}

	s.Phase = (s.Phase + s.Step()) & 0xFF
	s.Hue += s.Rotation
}

// scale8 scales v by scale/256, with scale8(v, 255) == v.
func scale8(v, scale uint8) uint8 {
	if scale == 255 {
		return v
	}
	return uint8(uint16(v) * (uint16(scale) + 1) >> 8)
}

// qsub8 subtracts b from a, saturating at 0.
func qsub8(a, b uint8) uint8 {
	if b > a {
		return 0
	}
	return a - b
}

// cubicWave8 maps an 8-bit angle onto a smooth 0-255 wave that peaks at 128.
func cubicWave8(in uint8) uint8 {
	x := float64(triWave8(in)) / 255
	return uint8((3*x*x - 2*x*x*x) * 255)
}

// triWave8 is a triangle wave going 0 -> 254 -> 0 over a full 8-bit cycle.
func triWave8(in uint8) uint8 {
	if in&0x80 != 0 {
		in = 255 - in
	}
	return in << 1
}
