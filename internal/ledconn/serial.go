package ledconn

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"libdb.so/ledfan/ledserial"
)

// Serial is a Conn over a serial port speaking the ledserial protocol.
type Serial struct {
	port    io.ReadWriteCloser
	wmu     sync.Mutex
	closed  atomic.Bool
	numLEDs uint16
}

var _ Conn = (*Serial)(nil)

// OpenSerial opens the serial device at the given baud rate.
func OpenSerial(device string, baud int) (*Serial, error) {
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: baud,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open serial port")
	}

	if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "failed to reset read timeout")
	}

	return NewSerial(port), nil
}

// NewSerial wraps an already opened port.
func NewSerial(port io.ReadWriteCloser) *Serial {
	return &Serial{port: port}
}

// Initialize implements Conn.
func (s *Serial) Initialize(numLEDs int) error {
	if numLEDs < 1 || numLEDs > 0xFFFF {
		return errors.Errorf("invalid number of LEDs: %d", numLEDs)
	}
	s.numLEDs = uint16(numLEDs)
	return s.write(ledserial.InitializePacket{NumLEDs: s.numLEDs})
}

// WriteFrame implements Conn.
func (s *Serial) WriteFrame(pix []uint8) error {
	if len(pix) != 3*int(s.numLEDs) {
		return errors.Errorf("frame has %d bytes, want %d", len(pix), 3*int(s.numLEDs))
	}
	return s.write(ledserial.SetPacket{Pix: pix})
}

// Clear implements Conn.
func (s *Serial) Clear() error {
	return s.write(ledserial.ClearPacket{})
}

func (s *Serial) write(p ledserial.IncomingPacket) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if err := ledserial.WriteIncomingPacket(s.port, p); err != nil {
		return errors.Wrapf(err, "failed to write %s packet", p.Type())
	}
	return nil
}

// ReadEvents implements Conn.
func (s *Serial) ReadEvents(ctx context.Context, dst chan<- Event) error {
	for ctx.Err() == nil {
		p, err := ledserial.ReadOutgoingPacket(s.port)
		if err != nil {
			if s.closed.Load() {
				return ctx.Err()
			}
			// A short read indicates a timeout. This is expected.
			// Ignore the error and try again.
			if errors.Is(err, io.EOF) {
				continue
			}
			if errors.Is(err, ledserial.ErrChecksumMismatch) {
				if err := sendEvent(ctx, dst, Event{Kind: WarnEvent, Message: err.Error()}); err != nil {
					return err
				}
				continue
			}
			return errors.Wrap(err, "failed to read packet")
		}

		var ev Event

		switch p := p.(type) {
		case ledserial.AckPacket:
			ev = Event{Kind: AckEvent}
		case ledserial.ButtonPacket:
			ev = Event{Kind: ButtonEvent, Presses: int(p.Presses)}
		case ledserial.LogPacket:
			ev = Event{Kind: LogEvent, Message: p.Message}
		case ledserial.ErrorPacket:
			ev = Event{Kind: WarnEvent, Message: p.Message}
		case ledserial.PanicPacket:
			ev = Event{Kind: FaultEvent, Message: "controller panicked"}
		default:
			return errors.Errorf("received unknown packet from controller: %s", p.Type())
		}

		if err := sendEvent(ctx, dst, ev); err != nil {
			return err
		}
	}

	return ctx.Err()
}

// Close implements Conn.
func (s *Serial) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.port.Close()
}
