package ledconn

import (
	"context"
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
)

// MQTTConfig configures an MQTT connection.
type MQTTConfig struct {
	URL      string
	Username string
	Password string
	ClientID string
	QoS      byte
	// StreamTopic receives every frame.
	StreamTopic string
	// ButtonTopic is watched for mode button presses.
	ButtonTopic string
}

// MQTT is a Conn that publishes frames to an MQTT broker. Frames are encoded
// as a little-endian uint16 LED count followed by the pixels.
type MQTT struct {
	client  mqtt.Client
	cfg     MQTTConfig
	numLEDs int
	acks    chan struct{}
	presses chan int
}

var _ Conn = (*MQTT)(nil)

// DialMQTT connects to the broker described by cfg.
func DialMQTT(cfg MQTTConfig) (*MQTT, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "ledfan"
	}

	options := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(options)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrap(token.Error(), "failed to connect to broker")
	}

	return newMQTT(client, cfg), nil
}

func newMQTT(client mqtt.Client, cfg MQTTConfig) *MQTT {
	return &MQTT{
		client:  client,
		cfg:     cfg,
		acks:    make(chan struct{}, 1),
		presses: make(chan int, 8),
	}
}

// Initialize implements Conn. It publishes a blank frame, which is acked
// like any other frame.
func (m *MQTT) Initialize(numLEDs int) error {
	if numLEDs < 1 || numLEDs > 0xFFFF {
		return errors.Errorf("invalid number of LEDs: %d", numLEDs)
	}
	m.numLEDs = numLEDs
	return m.WriteFrame(make([]uint8, 3*numLEDs))
}

// WriteFrame implements Conn. The frame is acked once the broker has
// accepted it.
func (m *MQTT) WriteFrame(pix []uint8) error {
	if err := m.publish(pix); err != nil {
		return err
	}

	select {
	case m.acks <- struct{}{}:
	default:
	}
	return nil
}

// Clear implements Conn.
func (m *MQTT) Clear() error {
	return m.publish(make([]uint8, 3*m.numLEDs))
}

func (m *MQTT) publish(pix []uint8) error {
	token := m.client.Publish(m.cfg.StreamTopic, m.cfg.QoS, false, encodeFrame(pix))
	if token.Wait() && token.Error() != nil {
		return errors.Wrap(token.Error(), "failed to publish frame")
	}
	return nil
}

// ReadEvents implements Conn.
func (m *MQTT) ReadEvents(ctx context.Context, dst chan<- Event) error {
	if m.cfg.ButtonTopic != "" {
		token := m.client.Subscribe(m.cfg.ButtonTopic, m.cfg.QoS, m.handleButton)
		if token.Wait() && token.Error() != nil {
			return errors.Wrap(token.Error(), "failed to subscribe to button topic")
		}
		defer m.client.Unsubscribe(m.cfg.ButtonTopic)
	}

	for {
		var ev Event
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.acks:
			ev = Event{Kind: AckEvent}
		case n := <-m.presses:
			ev = Event{Kind: ButtonEvent, Presses: n}
		}

		if err := sendEvent(ctx, dst, ev); err != nil {
			return err
		}
	}
}

func (m *MQTT) handleButton(_ mqtt.Client, msg mqtt.Message) {
	select {
	case m.presses <- parsePresses(msg.Payload()):
	default:
		// Drop presses nobody is reading.
	}
}

// Close implements Conn.
func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}

// encodeFrame prefixes the pixels with their LED count.
func encodeFrame(pix []uint8) []byte {
	data := make([]byte, 2, 2+len(pix))
	binary.LittleEndian.PutUint16(data, uint16(len(pix)/3))
	return append(data, pix...)
}

// parsePresses parses a button message. A positive integer is a press count,
// anything else counts as a single press.
func parsePresses(payload []byte) int {
	n, err := strconv.Atoi(strings.TrimSpace(string(payload)))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
