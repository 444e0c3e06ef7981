package push

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// fakeSubscriber records subscriptions and lets tests deliver messages.
type fakeSubscriber struct {
	handlers     map[string]func(string, []byte) error
	unsubscribed []string
	failOn       string
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{handlers: make(map[string]func(string, []byte) error)}
}

func (s *fakeSubscriber) Subscribe(topic string, _ byte, handler func(string, []byte) error) error {
	if topic == s.failOn {
		return errors.New("suback refused")
	}
	s.handlers[topic] = handler
	return nil
}

func (s *fakeSubscriber) Unsubscribe(topic string) error {
	delete(s.handlers, topic)
	s.unsubscribed = append(s.unsubscribed, topic)
	return nil
}

func (s *fakeSubscriber) deliver(topic string, payload string) error {
	return s.handlers[topic](topic, []byte(payload))
}

var testTopics = []string{"user/42/device/reported", "user/42/device/desired"}

func TestStream_RefusesEmptyRegistry(t *testing.T) {
	sub := newFakeSubscriber()
	d, _ := NewDispatcher(DispatcherOptions{Handler: &recordingHandler{}})
	s, err := NewStream(StreamOptions{
		Subscriber: sub,
		Registry:   newFakeLookup(),
		Dispatcher: d,
		Topics:     testTopics,
	})
	if err != nil {
		t.Fatalf("NewStream() error = %v", err)
	}

	if err := s.Subscribe(); !errors.Is(err, ErrRegistryEmpty) {
		t.Errorf("Subscribe() error = %v, want ErrRegistryEmpty", err)
	}
	if len(sub.handlers) != 0 {
		t.Error("subscribed despite empty registry")
	}
}

func TestStream_SubscribeDeliverClose(t *testing.T) {
	eq := thermostat("TS-1", "S-1")
	router, _ := NewRouter(RouterOptions{Registry: newFakeLookup(eq)})
	d, _ := NewDispatcher(DispatcherOptions{Handler: router})
	d.Start(context.Background())
	defer d.Stop()

	sub := newFakeSubscriber()
	s, _ := NewStream(StreamOptions{
		Subscriber: sub,
		Registry:   newFakeLookup(eq),
		Dispatcher: d,
		Topics:     testTopics,
	})

	if err := s.Subscribe(); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !s.Subscribed() || len(sub.handlers) != 2 {
		t.Fatalf("handlers = %d, want 2", len(sub.handlers))
	}

	if err := sub.deliver(testTopics[0], `{"device_name":"TS-1","serial_number":"S-1","@COOLSETPOINT":80}`); err != nil {
		t.Fatalf("deliver() error = %v", err)
	}
	// Invalid payloads are absorbed by the stream.
	if err := sub.deliver(testTopics[1], `garbage`); err != nil {
		t.Errorf("deliver(garbage) error = %v, want nil", err)
	}

	waitFor(t, func() bool { return d.Stats().Processed == 1 })
	if v, _ := eq.Attributes().Float("@COOLSETPOINT"); v != 80 {
		t.Errorf("@COOLSETPOINT = %v, want 80", v)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if s.Subscribed() || !reflect.DeepEqual(sub.unsubscribed, testTopics) {
		t.Errorf("unsubscribed = %v, want %v", sub.unsubscribed, testTopics)
	}
}

func TestStream_SubscribeFailureRollsBack(t *testing.T) {
	sub := newFakeSubscriber()
	sub.failOn = testTopics[1]
	d, _ := NewDispatcher(DispatcherOptions{Handler: &recordingHandler{}})
	s, _ := NewStream(StreamOptions{
		Subscriber: sub,
		Registry:   newFakeLookup(thermostat("TS-1", "S-1")),
		Dispatcher: d,
		Topics:     testTopics,
	})

	if err := s.Subscribe(); err == nil {
		t.Fatal("Subscribe() error = nil, want failure")
	}
	if s.Subscribed() || len(sub.handlers) != 0 {
		t.Error("partial subscription left behind")
	}
	if !reflect.DeepEqual(sub.unsubscribed, testTopics[:1]) {
		t.Errorf("unsubscribed = %v, want %v", sub.unsubscribed, testTopics[:1])
	}
}
