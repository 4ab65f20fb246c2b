package ledfan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"libdb.so/ledfan/board"
	"libdb.so/ledfan/internal/ledconn"
)

// fakeConn acks every packet and records the frames written to it.
type fakeConn struct {
	events chan ledconn.Event
	frames chan []uint8

	mu      sync.Mutex
	numLEDs int
	cleared bool
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		events: make(chan ledconn.Event, 16),
		frames: make(chan []uint8, 64),
	}
}

func (c *fakeConn) Initialize(numLEDs int) error {
	c.mu.Lock()
	c.numLEDs = numLEDs
	c.mu.Unlock()

	c.events <- ledconn.Event{Kind: ledconn.AckEvent}
	return nil
}

func (c *fakeConn) WriteFrame(pix []uint8) error {
	frame := append([]uint8(nil), pix...)

	select {
	case c.frames <- frame:
	default:
	}
	select {
	case c.events <- ledconn.Event{Kind: ledconn.AckEvent}:
	default:
	}
	return nil
}

func (c *fakeConn) Clear() error {
	c.mu.Lock()
	c.cleared = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) ReadEvents(ctx context.Context, dst chan<- ledconn.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case dst <- ev:
			}
		}
	}
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func newTestDaemon(t *testing.T, cfg *Config) *Daemon {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d, err := NewDaemon(cfg, logger)
	if err != nil {
		t.Fatal("cannot create daemon:", err)
	}
	return d
}

func testConfig() *Config {
	return &Config{
		Device:       "/dev/ttyACM0",
		Rate:         1000,
		StartupDelay: Duration(time.Millisecond),
		AckTimeout:   Duration(time.Second),
	}
}

func waitFrame(t *testing.T, conn *fakeConn) []uint8 {
	t.Helper()

	select {
	case f := <-conn.frames:
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func TestDaemonRunConn(t *testing.T) {
	cfg := testConfig()
	cfg.Modes = []ModeConfig{
		{Solid: &SolidColorConfig{Brightness: intPtr(255), Saturation: intPtr(0)}},
	}

	d := newTestDaemon(t, cfg)
	conn := newFakeConn()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.RunConn(ctx, conn) }()

	frame := waitFrame(t, conn)
	if len(frame) != 3*board.NumLEDs {
		t.Fatalf("frame has %d bytes, want %d", len(frame), 3*board.NumLEDs)
	}
	if !isWhite(frame) {
		t.Fatalf("first frame %v, want a white strip", frame)
	}

	conn.events <- ledconn.Event{Kind: ledconn.ButtonEvent, Presses: 1}

	// Mode 1 is the default rainbow, which never renders a white strip.
	for isWhite(waitFrame(t, conn)) {
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("RunConn returned %v, want context.Canceled", err)
	}

	if mode := d.State().Mode(); mode != 1 {
		t.Errorf("mode = %d, want 1", mode)
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()

	if conn.numLEDs != board.NumLEDs {
		t.Errorf("initialized %d LEDs, want %d", conn.numLEDs, board.NumLEDs)
	}
	if !conn.closed {
		t.Error("connection not closed")
	}
	if !conn.cleared {
		t.Error("strip not cleared on shutdown")
	}
}

func TestDaemonColorOrder(t *testing.T) {
	cfg := testConfig()
	cfg.ColorOrder = "RGB"
	cfg.Modes = []ModeConfig{
		{Solid: &SolidColorConfig{Hue: intPtr(0), Saturation: intPtr(255), Brightness: intPtr(255)}},
	}

	d := newTestDaemon(t, cfg)
	conn := newFakeConn()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.RunConn(ctx, conn) }()

	frame := waitFrame(t, conn)
	if got := frame[:3]; got[0] != 255 || got[1] != 0 || got[2] != 0 {
		t.Errorf("first pixel = %v, want red in RGB order", got)
	}

	cancel()
	<-done
}

func TestDaemonControllerFault(t *testing.T) {
	d := newTestDaemon(t, testConfig())
	conn := newFakeConn()

	done := make(chan error, 1)
	go func() { done <- d.RunConn(context.Background(), conn) }()

	waitFrame(t, conn)
	conn.events <- ledconn.Event{Kind: ledconn.FaultEvent, Message: "boom"}

	select {
	case err := <-done:
		if err == nil || errors.Is(err, context.Canceled) {
			t.Fatalf("RunConn returned %v, want a controller error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunConn did not return after a fault")
	}
}

func TestNewDaemonInvalidConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewDaemon(&Config{}, logger); err == nil {
		t.Error("expected error without a transport")
	}
}

func isWhite(frame []uint8) bool {
	for _, b := range frame {
		if b != 255 {
			return false
		}
	}
	return true
}

func intPtr(v int) *int { return &v }
