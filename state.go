package ledfan

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"libdb.so/ledfan/anim"
	"libdb.so/ledfan/board"
	"libdb.so/ledfan/led"
)

// ErrInvalidMode is returned when selecting a mode outside [0, NumModes).
var ErrInvalidMode = errors.New("invalid mode")

// ModeKind is the kind of animation held by a Mode.
type ModeKind uint8

const (
	SineWaveKind ModeKind = iota
	RainbowKind
	RippleKind
	SolidColorKind
)

func (k ModeKind) String() string {
	switch k {
	case SineWaveKind:
		return "sine"
	case RainbowKind:
		return "rainbow"
	case RippleKind:
		return "ripple"
	case SolidColorKind:
		return "solid"
	default:
		return fmt.Sprintf("ModeKind(%d)", k)
	}
}

// Mode is one selectable animation mode. Only the record matching Kind is
// used.
type Mode struct {
	Kind     ModeKind
	SineWave anim.SineWave
	Rainbow  anim.Rainbow
	Ripple   anim.Ripple
	Solid    anim.SolidColor
}

// SineMode creates a sine wave mode.
func SineMode(s anim.SineWave) Mode { return Mode{Kind: SineWaveKind, SineWave: s} }

// RainbowMode creates a rainbow mode.
func RainbowMode(r anim.Rainbow) Mode { return Mode{Kind: RainbowKind, Rainbow: r} }

// RippleMode creates a ripple mode.
func RippleMode(r anim.Ripple) Mode { return Mode{Kind: RippleKind, Ripple: r} }

// SolidMode creates a solid color mode.
func SolidMode(s anim.SolidColor) Mode { return Mode{Kind: SolidColorKind, Solid: s} }

// DefaultModes returns the default sine wave, rainbow and ripple modes.
func DefaultModes() [board.NumModes]Mode {
	return [board.NumModes]Mode{
		SineMode(anim.DefaultSineWave()),
		RainbowMode(anim.DefaultRainbow()),
		RippleMode(anim.DefaultRipple()),
	}
}

func (m *Mode) animator() anim.Animator {
	switch m.Kind {
	case SineWaveKind:
		return &m.SineWave
	case RainbowKind:
		return &m.Rainbow
	case RippleKind:
		return &m.Ripple
	default:
		return &m.Solid
	}
}

// State is the state of the LED strip: the frame buffer, the active mode and
// the animations behind every mode.
//
// A State is owned by a single goroutine. The frame buffer is written only by
// Render and Blank and read only by Frame, which the owner calls in strict
// sequence.
type State struct {
	// LEDs is the current frame. Its length is always board.NumLEDs.
	LEDs led.LEDs
	// Blending is the palette blending shared by all palette animations.
	Blending led.BlendType
	// Modes holds the animation of every mode.
	Modes [board.NumModes]Mode

	mode int
	off  anim.SolidColor
}

// NewState creates a new State starting in mode 0.
func NewState(modes [board.NumModes]Mode, blending led.BlendType) *State {
	return &State{
		LEDs:     led.NewLEDs(board.NumLEDs),
		Blending: blending,
		Modes:    modes,
		off:      anim.DefaultSolidColor(),
	}
}

// Mode returns the index of the active mode, in [0, board.NumModes).
func (s *State) Mode() int {
	return s.mode
}

// ActiveKind returns the animation kind of the active mode.
func (s *State) ActiveKind() ModeKind {
	return s.Modes[s.mode].Kind
}

// NextMode advances to the next mode, wrapping around after the last one,
// and returns the new mode index.
func (s *State) NextMode() int {
	s.mode = (s.mode + 1) % board.NumModes
	return s.mode
}

// AdvanceMode advances by n modes, wrapping around, and returns the new
// mode index. Negative n goes backwards.
func (s *State) AdvanceMode(n int) int {
	s.mode = ((s.mode+n%board.NumModes)%board.NumModes + board.NumModes) % board.NumModes
	return s.mode
}

// SetMode selects the given mode.
func (s *State) SetMode(mode int) error {
	if mode < 0 || mode >= board.NumModes {
		return errors.Wrapf(ErrInvalidMode, "mode %d not in [0, %d)", mode, board.NumModes)
	}
	s.mode = mode
	return nil
}

// Render renders the next frame of the active mode into LEDs.
func (s *State) Render() {
	m := &s.Modes[s.mode]
	if m.Kind == RainbowKind {
		m.Rainbow.Blending = s.Blending
	}
	m.animator().Render(s.LEDs)
}

// Blank renders a frame with every LED off.
func (s *State) Blank() {
	s.off.Render(s.LEDs)
}

// Frame encodes the current frame in the given wire color order.
func (s *State) Frame(order led.ColorOrder) []uint8 {
	return s.LEDs.AsPixels(order)
}

// FrameDelay returns the delay before the next frame of the active mode.
// Modes without their own delay run at the given rate in frames per second.
func (s *State) FrameDelay(rate int) time.Duration {
	if d, ok := s.Modes[s.mode].animator().(anim.Delayer); ok {
		if delay := d.Delay(); delay > 0 {
			return delay
		}
	}
	if rate <= 0 {
		rate = DefaultRate
	}
	return time.Second / time.Duration(rate)
}
