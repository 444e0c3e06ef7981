package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is used when DispatcherOptions.QueueSize is not positive.
const DefaultQueueSize = 256

// Handler routes a decoded push. *Router satisfies it.
type Handler interface {
	Route(msg Message) RouteResult
}

// DispatcherOptions contains configuration for creating a Dispatcher.
type DispatcherOptions struct {
	Handler   Handler
	QueueSize int
	Logger    Logger
}

// DispatcherStats counts pushes seen by the dispatcher.
type DispatcherStats struct {
	Submitted uint64
	Processed uint64
	Dropped   uint64
	Invalid   uint64
	Queued    int
}

type envelope struct {
	topic string
	msg   Message
}

// Dispatcher moves pushes off the MQTT client's callback goroutine and
// applies them one at a time, in arrival order, on a single worker.
//
// Submit never blocks: when the queue is full the push is dropped and
// ErrQueueFull returned, so a slow consumer cannot stall the broker
// connection.
type Dispatcher struct {
	handler Handler
	queue   chan envelope

	mu      sync.RWMutex
	stopped bool

	logger Logger

	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup

	submitted atomic.Uint64
	processed atomic.Uint64
	dropped   atomic.Uint64
	invalid   atomic.Uint64
}

// NewDispatcher creates a dispatcher. Call Start to begin processing.
func NewDispatcher(opts DispatcherOptions) (*Dispatcher, error) {
	if opts.Handler == nil {
		return nil, errors.New("push: handler is required")
	}
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Dispatcher{
		handler: opts.Handler,
		queue:   make(chan envelope, size),
		logger:  opts.Logger,
		done:    make(chan struct{}),
	}, nil
}

// Start launches the worker. It returns immediately; the worker runs
// until ctx is cancelled or Stop is called. Later calls are no-ops, so
// there is only ever one worker.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		d.wg.Add(1)
		go d.run(ctx)
	})
}

// Submit decodes payload and queues it for routing. It is safe to call
// from any goroutine and matches the MQTT message handler signature.
func (d *Dispatcher) Submit(topic string, payload []byte) error {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil || msg == nil {
		d.invalid.Add(1)
		d.logWarn("ignoring push that is not a JSON object", "topic", topic, "bytes", len(payload))
		if err == nil {
			err = errors.New("null payload")
		}
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}

	d.submitted.Add(1)
	select {
	case d.queue <- envelope{topic: topic, msg: msg}:
		return nil
	default:
		d.dropped.Add(1)
		d.logWarn("push queue full, dropping update",
			"topic", topic, "device_name", msg.DeviceName())
		return ErrQueueFull
	}
}

// Stop refuses further pushes, processes what is already queued and waits
// for the worker to exit.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		d.mu.Unlock()

		close(d.done)
		d.wg.Wait()
	})
}

// Stats returns dispatcher counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Submitted: d.submitted.Load(),
		Processed: d.processed.Load(),
		Dropped:   d.dropped.Load(),
		Invalid:   d.invalid.Load(),
		Queued:    len(d.queue),
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case env := <-d.queue:
			d.handle(env)
		case <-d.done:
			d.drain()
			return
		case <-ctx.Done():
			return
		}
	}
}

// drain processes whatever was queued before Stop.
func (d *Dispatcher) drain() {
	for {
		select {
		case env := <-d.queue:
			d.handle(env)
		default:
			return
		}
	}
}

func (d *Dispatcher) handle(env envelope) {
	defer d.processed.Add(1)
	res := d.handler.Route(env.msg)
	if res.Unroutable {
		return
	}
	d.logDebug("push applied",
		"topic", env.topic,
		"device_name", env.msg.DeviceName(),
		"targets", res.Targets,
		"changed", res.Changed,
		"fan_out", res.FanOut)
}

func (d *Dispatcher) logDebug(msg string, keysAndValues ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, keysAndValues...)
	}
}

func (d *Dispatcher) logWarn(msg string, keysAndValues ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, keysAndValues...)
	}
}
