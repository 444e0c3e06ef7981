package push

import (
	"errors"
	"fmt"
	"sync"
)

// Subscriber is the push transport. The MQTT client, through a small
// adapter, satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
	Unsubscribe(topic string) error
}

// Counter reports how many entities are loaded. *registry.Registry
// satisfies it.
type Counter interface {
	Count() int
}

// StreamOptions contains configuration for creating a Stream.
type StreamOptions struct {
	Subscriber Subscriber
	Registry   Counter
	Dispatcher *Dispatcher

	// Topics are the account's push topics (reported and desired).
	Topics []string
	QoS    byte

	Logger Logger
}

// Stream owns the account's push subscriptions and feeds every message
// into the dispatcher.
type Stream struct {
	opts StreamOptions

	mu         sync.Mutex
	subscribed []string
}

// NewStream creates an unsubscribed stream.
func NewStream(opts StreamOptions) (*Stream, error) {
	switch {
	case opts.Subscriber == nil:
		return nil, errors.New("push: subscriber is required")
	case opts.Registry == nil:
		return nil, errors.New("push: registry is required")
	case opts.Dispatcher == nil:
		return nil, errors.New("push: dispatcher is required")
	case len(opts.Topics) == 0:
		return nil, errors.New("push: at least one topic is required")
	}
	return &Stream{opts: opts}, nil
}

// Subscribe subscribes to every topic. It refuses with ErrRegistryEmpty
// while no equipment is loaded, since every push would be unroutable.
// Calling Subscribe on an already subscribed stream is a no-op.
func (s *Stream) Subscribe() error {
	if s.opts.Registry.Count() == 0 {
		return ErrRegistryEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.subscribed) > 0 {
		return nil
	}

	for _, topic := range s.opts.Topics {
		if err := s.opts.Subscriber.Subscribe(topic, s.opts.QoS, s.handle); err != nil {
			s.unsubscribeLocked()
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		s.subscribed = append(s.subscribed, topic)
		s.logInfo("subscribed to push topic", "topic", topic)
	}
	return nil
}

// Subscribed reports whether the stream currently holds subscriptions.
func (s *Stream) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribed) > 0
}

// Close unsubscribes from every topic. The dispatcher is left running;
// its owner stops it.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribeLocked()
}

func (s *Stream) unsubscribeLocked() error {
	var errs []error
	for _, topic := range s.subscribed {
		if err := s.opts.Subscriber.Unsubscribe(topic); err != nil {
			errs = append(errs, fmt.Errorf("unsubscribe %s: %w", topic, err))
		}
	}
	s.subscribed = nil
	return errors.Join(errs...)
}

// handle hands a message to the dispatcher. Drops were already logged and
// counted there, so they are not reported back to the transport.
func (s *Stream) handle(topic string, payload []byte) error {
	err := s.opts.Dispatcher.Submit(topic, payload)
	if errors.Is(err, ErrQueueFull) || errors.Is(err, ErrInvalidPayload) {
		return nil
	}
	return err
}

func (s *Stream) logInfo(msg string, keysAndValues ...any) {
	if s.opts.Logger != nil {
		s.opts.Logger.Info(msg, keysAndValues...)
	}
}
