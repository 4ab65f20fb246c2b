package ledfan

import (
	"errors"
	"testing"
	"time"

	"libdb.so/ledfan/anim"
	"libdb.so/ledfan/board"
	"libdb.so/ledfan/led"
)

func TestStateModes(t *testing.T) {
	s := NewState(DefaultModes(), led.LinearBlend)

	if len(s.LEDs) != board.NumLEDs {
		t.Fatalf("frame has %d LEDs, want %d", len(s.LEDs), board.NumLEDs)
	}

	for i := 1; i <= 2*board.NumModes; i++ {
		mode := s.NextMode()
		if mode < 0 || mode >= board.NumModes {
			t.Fatalf("mode %d out of range", mode)
		}
		if want := i % board.NumModes; mode != want {
			t.Errorf("after %d presses mode = %d, want %d", i, mode, want)
		}
	}

	if err := s.SetMode(board.NumModes); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("SetMode(%d) = %v, want ErrInvalidMode", board.NumModes, err)
	}
	if err := s.SetMode(-1); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("SetMode(-1) = %v, want ErrInvalidMode", err)
	}
	if err := s.SetMode(2); err != nil {
		t.Fatal(err)
	}
	if s.ActiveKind() != RippleKind {
		t.Errorf("mode 2 is %v, want ripple", s.ActiveKind())
	}
}

func TestStateAdvanceMode(t *testing.T) {
	tests := []struct {
		presses int
		want    int
	}{
		{0, 0},
		{1, 1},
		{board.NumModes, 0},
		{board.NumModes + 2, 2},
		{1_000_000_000, 1_000_000_000 % board.NumModes},
		{-1, board.NumModes - 1},
	}

	for _, test := range tests {
		s := NewState(DefaultModes(), led.LinearBlend)
		if got := s.AdvanceMode(test.presses); got != test.want {
			t.Errorf("AdvanceMode(%d) = %d, want %d", test.presses, got, test.want)
		}
		if s.Mode() != test.want {
			t.Errorf("AdvanceMode(%d) left mode %d", test.presses, s.Mode())
		}
	}
}

func TestStateRenderSharesBlending(t *testing.T) {
	s := NewState(DefaultModes(), led.NoBlend)
	if err := s.SetMode(1); err != nil {
		t.Fatal(err)
	}

	s.Render()
	if s.Modes[1].Rainbow.Blending != led.NoBlend {
		t.Errorf("rainbow blending = %v, want the shared blending", s.Modes[1].Rainbow.Blending)
	}
	if len(s.LEDs) != board.NumLEDs {
		t.Errorf("frame length changed to %d", len(s.LEDs))
	}
}

func TestStateBlank(t *testing.T) {
	modes := DefaultModes()
	modes[0] = SolidMode(anim.SolidColor{Saturation: 0, Brightness: 255})

	s := NewState(modes, led.LinearBlend)
	s.Render()

	pix := s.Frame(board.ColorOrder)
	if len(pix) != 3*board.NumLEDs {
		t.Fatalf("frame has %d bytes", len(pix))
	}
	if pix[0] != 255 {
		t.Errorf("expected a lit strip, got %v", pix[:3])
	}

	s.Blank()
	for i, b := range s.Frame(board.ColorOrder) {
		if b != 0 {
			t.Fatalf("byte %d = %d after Blank", i, b)
		}
	}
}

func TestStateFrameDelay(t *testing.T) {
	s := NewState(DefaultModes(), led.LinearBlend)

	// The default sine wave has its own loop delay.
	if d := s.FrameDelay(50); d != 20*time.Millisecond {
		t.Errorf("sine frame delay = %v, want 20ms", d)
	}

	s.NextMode()
	if d := s.FrameDelay(50); d != 20*time.Millisecond {
		t.Errorf("rainbow frame delay at 50 fps = %v, want 20ms", d)
	}
	if d := s.FrameDelay(100); d != 10*time.Millisecond {
		t.Errorf("rainbow frame delay at 100 fps = %v, want 10ms", d)
	}
}
