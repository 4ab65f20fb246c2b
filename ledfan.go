// Package ledfan drives the LED strip of a fan through a microcontroller. The
// daemon renders the active animation mode into a frame buffer and streams
// every frame to the controller, which answers with acknowledgements and
// mode button presses.
package ledfan

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"libdb.so/ledfan/board"
	"libdb.so/ledfan/internal/ledconn"
	"libdb.so/ledfan/led"
)

// Daemon is the main ledfan daemon.
type Daemon struct {
	cfg    Config
	logger *slog.Logger
	state  *State
	order  led.ColorOrder
}

// NewDaemon creates a new ledfan daemon.
func NewDaemon(cfg *Config, logger *slog.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	modes, err := cfg.BuildModes()
	if err != nil {
		return nil, errors.Wrap(err, "invalid modes")
	}

	blending, err := cfg.blending()
	if err != nil {
		return nil, errors.Wrap(err, "invalid blending")
	}

	order, err := cfg.colorOrder()
	if err != nil {
		return nil, errors.Wrap(err, "invalid color order")
	}

	return &Daemon{
		cfg:    cfg.withDefaults(),
		logger: logger,
		state:  NewState(modes, blending),
		order:  order,
	}, nil
}

// State returns the state of the strip. It must not be used while the daemon
// is running.
func (d *Daemon) State() *State {
	return d.state
}

// Run connects to the configured controller and drives it. It blocks until
// the given context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	conn, err := d.dial()
	if err != nil {
		return err
	}
	return d.RunConn(ctx, conn)
}

func (d *Daemon) dial() (ledconn.Conn, error) {
	if d.cfg.MQTT != nil {
		d.logger.Debug("connecting to mqtt broker", "url", d.cfg.MQTT.URL)
		return ledconn.DialMQTT(d.cfg.connConfig())
	}

	d.logger.Debug("opening serial port", "device", d.cfg.Device, "baud", d.cfg.Baud)
	return ledconn.OpenSerial(d.cfg.Device, d.cfg.Baud)
}

// RunConn drives the controller behind the given connection until the
// context is canceled or the controller fails. The strip is blanked and the
// connection closed before RunConn returns.
func (d *Daemon) RunConn(ctx context.Context, conn ledconn.Conn) error {
	events := make(chan ledconn.Event)

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return conn.ReadEvents(ctx, events)
	})
	errg.Go(func() error {
		err := d.mainLoop(ctx, conn, events)
		d.blank(conn)

		d.logger.Debug("closing connection")
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close connection")
		}
		return err
	})

	return errg.Wait()
}

func (d *Daemon) mainLoop(ctx context.Context, conn ledconn.Conn, events <-chan ledconn.Event) error {
	startupDelay := time.Duration(d.cfg.StartupDelay)
	ackTimeout := time.Duration(d.cfg.AckTimeout)

	d.logger.Debug("waiting for the controller to start", "delay", startupDelay)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(startupDelay):
	}

	d.logger.Debug("sending initialize packet", "num_leds", board.NumLEDs)
	if err := conn.Initialize(board.NumLEDs); err != nil {
		return errors.Wrap(err, "failed to initialize LEDs")
	}

	// Exactly one of these is non-nil: either a frame is scheduled, or we are
	// waiting for the controller to acknowledge the last packet.
	var nextFrame <-chan time.Time
	ackExpired := time.After(ackTimeout)

	schedule := func() {
		ackExpired = nil
		nextFrame = time.After(d.state.FrameDelay(d.cfg.Rate))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-events:
			switch ev.Kind {
			case ledconn.AckEvent:
				schedule()

			case ledconn.ButtonEvent:
				d.state.AdvanceMode(ev.Presses)
				d.logger.Info(
					"mode changed",
					"mode", d.state.Mode(),
					"kind", d.state.ActiveKind().String())

			case ledconn.LogEvent:
				d.logger.Info(
					"received log from controller",
					"message", ev.Message)

			case ledconn.WarnEvent:
				d.logger.Warn(
					"controller reported error",
					"message", ev.Message)
				// The packet in flight is lost and will never be acked.
				if ackExpired != nil {
					schedule()
				}

			case ledconn.FaultEvent:
				d.logger.Error(
					"controller unrecoverably failed",
					"message", ev.Message)
				return errors.Errorf("controller failed: %s", ev.Message)
			}

		case <-ackExpired:
			d.logger.Warn(
				"controller did not acknowledge in time",
				"timeout", ackTimeout)
			schedule()

		case <-nextFrame:
			nextFrame = nil

			d.state.Render()
			if err := conn.WriteFrame(d.state.Frame(d.order)); err != nil {
				return errors.Wrap(err, "failed to write frame")
			}

			ackExpired = time.After(ackTimeout)
		}
	}
}

func (d *Daemon) blank(conn ledconn.Conn) {
	d.state.Blank()
	if err := conn.Clear(); err != nil {
		d.logger.Debug(
			"failed to blank LEDs",
			"error", err)
	}
}
