package main

import (
	"fmt"
	"image/color"
	"machine"
	"time"

	"libdb.so/ledfan/board"
	"libdb.so/ledfan/ledserial"
	"tinygo.org/x/drivers/apa102"
)

// debounce is the minimum time between two falling edges counted as separate
// presses.
const debounce = 50 * time.Millisecond

// Device stores the current state of the device.
type Device struct {
	serial SerialReadWriter
	strip  apa102.Device
	button machine.Pin

	colors   []color.RGBA
	presses  uint8
	lastEdge time.Time
}

// NewDevice creates a new device driving the strip wired to the board pins.
func NewDevice(serial machine.Serialer) *Device {
	strip := apa102.NewSoftwareSPI(machine.Pin(board.ClockPin), machine.Pin(board.LEDPin), 1)
	// The host already sends pixels in strip order, so pass them through.
	strip.Order = apa102.RGB

	button := machine.Pin(board.ButtonPin)
	button.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	return &Device{
		serial: WrapSerial(serial),
		strip:  strip,
		button: button,
	}
}

// Run runs the device loop forever.
func (d *Device) Run() {
	d.button.SetInterrupt(machine.PinFalling, d.handleButton)

	for {
		d.flushPresses()

		p, err := ledserial.ReadIncomingPacket(d.serial, ledserial.ReadContext{
			NumLEDs: uint16(len(d.colors)),
		})
		if err != nil {
			d.logError(err)
			continue
		}

		if err := d.handlePacket(p); err != nil {
			d.logError(err)
		}
	}
}

func (d *Device) handleButton(machine.Pin) {
	now := time.Now()
	if now.Sub(d.lastEdge) < debounce {
		return
	}
	d.lastEdge = now
	if d.presses < 255 {
		d.presses++
	}
}

func (d *Device) flushPresses() {
	state := disableInterrupts()
	presses := d.presses
	d.presses = 0
	restoreInterrupts(state)

	if presses > 0 {
		d.sendPacket(ledserial.ButtonPacket{Presses: presses})
	}
}

func (d *Device) logError(err error) {
	d.sendPacket(ledserial.ErrorPacket{Message: err.Error()})
}

func (d *Device) sendPacket(p ledserial.OutgoingPacket) {
	ledserial.WriteOutgoingPacket(d.serial, p)
}

func (d *Device) handlePacket(p ledserial.IncomingPacket) error {
	switch p := p.(type) {
	case ledserial.InitializePacket:
		if p.NumLEDs < 1 {
			return fmt.Errorf("invalid number of LEDs: %d", p.NumLEDs)
		}
		d.colors = make([]color.RGBA, p.NumLEDs)
		d.show()

	case ledserial.ClearPacket:
		for i := range d.colors {
			d.colors[i] = color.RGBA{}
		}
		d.show()

	case ledserial.SetPacket:
		for i := range d.colors {
			pix := p.Pix[3*i : 3*i+3]
			d.colors[i] = color.RGBA{R: pix[0], G: pix[1], B: pix[2], A: 255}
		}
		d.show()

	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	d.sendPacket(ledserial.AckPacket{
		IncomingPacketType: p.Type(),
	})
	return nil
}

func (d *Device) show() {
	d.strip.WriteColors(d.colors)
}
