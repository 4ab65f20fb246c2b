package anim

import (
	"math/rand"

	"github.com/fogleman/ease"
	"libdb.so/ledfan/board"
	"libdb.so/ledfan/led"
)

// randIntn is replaced in tests.
var randIntn = rand.Intn

// Ripple is a ring of color expanding outward from a center pixel. Once it
// reaches MaxSteps the ripple restarts from a new random center and hue.
type Ripple struct {
	// Center is the pixel the ripple expands from. Unset until the first
	// frame of a ripple picks one.
	Center OptionalInt
	// HueStep is the current expansion radius of the ripple. Unset means that
	// a new ripple starts on the next frame.
	HueStep OptionalInt

	Hue                     uint8
	Saturation              uint8
	BackgroundColorRotation uint8 // hue offset of the background from Hue
	Brightness              uint8
	Velocity                uint8 // how quickly old ripples fade out
	MaxSteps                uint8 // expansion radius bound, at most board.MaxSteps
	// RandomHue picks a new Hue for every ripple. SetHue clears it.
	RandomHue bool
}

var _ Animator = (*Ripple)(nil)

// DefaultRipple returns the ripple used when none is configured. Every ripple
// gets a random hue.
func DefaultRipple() Ripple {
	return Ripple{
		Hue:                     uint8(randIntn(256)),
		Saturation:              board.Max,
		BackgroundColorRotation: 50,
		Brightness:              board.Max,
		Velocity:                10,
		MaxSteps:                board.MaxSteps,
		RandomHue:               true,
	}
}

// SetHue sets a fixed hue for every ripple, clamped into range.
func (r *Ripple) SetHue(v int) {
	r.Hue = Clamp8(v)
	r.RandomHue = false
}

// SetSaturation sets the saturation, clamped into range.
func (r *Ripple) SetSaturation(v int) { r.Saturation = Clamp8(v) }

// SetBackgroundColorRotation sets the background hue offset, clamped into
// range.
func (r *Ripple) SetBackgroundColorRotation(v int) { r.BackgroundColorRotation = Clamp8(v) }

// SetBrightness sets the brightness, clamped into range.
func (r *Ripple) SetBrightness(v int) { r.Brightness = Clamp8(v) }

// SetVelocity sets the fade speed, clamped into range.
func (r *Ripple) SetVelocity(v int) { r.Velocity = Clamp8(v) }

// SetMaxSteps sets the expansion bound, clamped into [0, board.MaxSteps].
func (r *Ripple) SetMaxSteps(v int) { r.MaxSteps = ClampSteps(v) }

// Reset makes the next frame start a new ripple.
func (r *Ripple) Reset() {
	r.Center = OptionalInt{}
	r.HueStep = OptionalInt{}
}

// Render implements Animator.
func (r *Ripple) Render(leds led.LEDs) {
	if len(leds) == 0 {
		return
	}

	leds.FadeToBlack(r.Velocity)

	bg := led.HSV{
		H: r.Hue + r.BackgroundColorRotation,
		S: r.Saturation,
		V: r.Brightness / 8,
	}.RGB()
	for i := range leds {
		leds[i] = brighter(leds[i], bg)
	}

	step, ok := r.HueStep.Get()
	if !ok {
		if r.RandomHue {
			r.Hue = uint8(randIntn(256))
		}
		step = 0
	}

	center, ok := r.Center.Get()
	if !ok || center < 0 || center >= len(leds) {
		center = randIntn(len(leds))
		r.Center = Some(center)
	}

	maxSteps := int(ClampSteps(int(r.MaxSteps)))
	step = max(0, min(step, maxSteps))

	c := led.HSV{H: r.Hue, S: r.Saturation, V: r.level(step, maxSteps)}.RGB()
	leds.Set(wrap(center+step, len(leds)), c)
	leds.Set(wrap(center-step, len(leds)), c)

	if step >= maxSteps {
		r.Reset()
		return
	}
	r.HueStep = Some(step + 1)
}

// level returns the ripple brightness at the given radius, easing out from
// Brightness at the center to nothing at maxSteps.
func (r *Ripple) level(step, maxSteps int) uint8 {
	if maxSteps == 0 {
		return r.Brightness
	}
	falloff := 1 - ease.InOutQuad(float64(step)/float64(maxSteps))
	return uint8(float64(r.Brightness) * falloff)
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func brighter(a, b led.RGBColor) led.RGBColor {
	if int(a[0])+int(a[1])+int(a[2]) >= int(b[0])+int(b[1])+int(b[2]) {
		return a
	}
	return b
}
