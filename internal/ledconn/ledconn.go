// Package ledconn contains the transports that carry frames from the daemon
// to an LED controller and events back.
package ledconn

import (
	"context"
	"fmt"
)

// Conn is a connection to an LED controller.
type Conn interface {
	// Initialize tells the controller how many LEDs to drive.
	Initialize(numLEDs int) error
	// WriteFrame sends one frame of pixels in wire color order. The
	// controller acknowledges it with an AckEvent.
	WriteFrame(pix []uint8) error
	// Clear turns every LED off.
	Clear() error
	// ReadEvents reads events from the controller into dst until the context
	// is canceled or the connection fails.
	ReadEvents(ctx context.Context, dst chan<- Event) error
	// Close closes the connection.
	Close() error
}

// EventKind is the kind of an Event.
type EventKind uint8

const (
	// AckEvent means the controller is ready for the next frame.
	AckEvent EventKind = iota
	// ButtonEvent means the mode button was pressed.
	ButtonEvent
	// LogEvent carries a log message from the controller.
	LogEvent
	// WarnEvent carries a recoverable error from the controller.
	WarnEvent
	// FaultEvent means the controller cannot continue.
	FaultEvent
)

func (k EventKind) String() string {
	switch k {
	case AckEvent:
		return "ack"
	case ButtonEvent:
		return "button"
	case LogEvent:
		return "log"
	case WarnEvent:
		return "warn"
	case FaultEvent:
		return "fault"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// Event is an event sent by the controller.
type Event struct {
	Kind EventKind
	// Message is set for LogEvent, WarnEvent and FaultEvent.
	Message string
	// Presses is the number of button presses for ButtonEvent.
	Presses int
}

func sendEvent(ctx context.Context, dst chan<- Event, ev Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case dst <- ev:
		return nil
	}
}
