package ledconn

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// fakeClient implements the parts of mqtt.Client that MQTT uses.
type fakeClient struct {
	mqtt.Client

	mu        sync.Mutex
	published map[string][]byte
	handlers  map[string]mqtt.MessageHandler
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		published: make(map[string][]byte),
		handlers:  make(map[string]mqtt.MessageHandler),
	}
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.published[topic] = append([]byte(nil), payload.([]byte)...)
	return doneToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers[topic] = callback
	return doneToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	return doneToken{}
}

func (c *fakeClient) Disconnect(quiesce uint) {}

func (c *fakeClient) handler(topic string) mqtt.MessageHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlers[topic]
}

type doneToken struct{ mqtt.Token }

func (doneToken) Wait() bool   { return true }
func (doneToken) Error() error { return nil }

type fakeMessage struct {
	mqtt.Message
	payload []byte
}

func (m fakeMessage) Payload() []byte { return m.payload }

func TestMQTT(t *testing.T) {
	client := newFakeClient()
	conn := newMQTT(client, MQTTConfig{
		StreamTopic: "fan/stream",
		ButtonTopic: "fan/button",
	})

	if err := conn.Initialize(2); err != nil {
		t.Fatal(err)
	}
	if got := client.published["fan/stream"]; !bytes.Equal(got, []byte{2, 0, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("initialize published %v, want a blank frame", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan Event)
	done := make(chan error, 1)
	go func() { done <- conn.ReadEvents(ctx, events) }()

	if ev := <-events; ev.Kind != AckEvent {
		t.Fatalf("first event is %v, want the initialize ack", ev.Kind)
	}

	// Wait for the subscription to be set up.
	var handle mqtt.MessageHandler
	for handle == nil {
		select {
		case <-ctx.Done():
			t.Fatal("button topic never subscribed")
		case <-time.After(time.Millisecond):
			handle = client.handler("fan/button")
		}
	}

	handle(client, fakeMessage{payload: []byte("2")})
	if ev := <-events; ev != (Event{Kind: ButtonEvent, Presses: 2}) {
		t.Errorf("unexpected event %+v", ev)
	}

	if err := conn.WriteFrame([]uint8{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatal(err)
	}
	if ev := <-events; ev.Kind != AckEvent {
		t.Errorf("frame not acked, got %v", ev.Kind)
	}

	if err := conn.Clear(); err != nil {
		t.Fatal(err)
	}
	if got := client.published["fan/stream"]; !bytes.Equal(got, []byte{2, 0, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("clear published %v, want a blank frame", got)
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("ReadEvents returned %v", err)
	}
}
