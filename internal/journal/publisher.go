package journal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/econet-core/internal/equipment"
)

const (
	// recordTimeout bounds each journal write.
	recordTimeout = 2 * time.Second

	// DefaultBacklog is the number of outcomes that may wait for the
	// writer before new ones are dropped.
	DefaultBacklog = 128
)

// Logger is the logging surface used by Publisher.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Publisher wraps an equipment.Publisher and records every command it
// forwards, including the ones the transport refuses.
//
// Publish returns as soon as the command is forwarded. Outcomes are
// written by a single background writer in publish order; when the
// backlog is full the outcome is dropped and counted. Call Close to
// flush the backlog before closing the database.
type Publisher struct {
	next   equipment.Publisher
	repo   Repository
	logger Logger

	backlog chan *Entry

	mu     sync.RWMutex
	closed bool

	closeOnce sync.Once
	wg        sync.WaitGroup

	dropped atomic.Uint64
}

// NewPublisher creates a journaling publisher and starts its writer.
// A nil logger discards journal write failures.
func NewPublisher(next equipment.Publisher, repo Repository, logger Logger) *Publisher {
	return newPublisher(next, repo, logger, DefaultBacklog)
}

func newPublisher(next equipment.Publisher, repo Repository, logger Logger, backlog int) *Publisher {
	if logger == nil {
		logger = noopLogger{}
	}
	p := &Publisher{
		next:    next,
		repo:    repo,
		logger:  logger,
		backlog: make(chan *Entry, backlog),
	}
	p.wg.Add(1)
	go p.write()
	return p
}

// Publish forwards the command and queues its outcome for the journal.
// The forwarded error is returned unchanged.
func (p *Publisher) Publish(key equipment.Key, payload map[string]any) error {
	pubErr := p.next.Publish(key, payload)

	entry := &Entry{
		DeviceName:   key.DeviceName,
		SerialNumber: key.SerialNumber,
		Payload:      payload,
		CreatedAt:    time.Now().UTC(),
	}
	if pubErr != nil {
		entry.Error = pubErr.Error()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.drop(entry, "journal closed")
		return pubErr
	}
	select {
	case p.backlog <- entry:
	default:
		p.drop(entry, "journal backlog full")
	}
	return pubErr
}

// Close stops accepting outcomes and waits until the backlog is written.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.backlog)
		p.mu.Unlock()

		p.wg.Wait()
	})
}

// Dropped returns how many outcomes were never journalled because the
// backlog was full or the publisher closed.
func (p *Publisher) Dropped() uint64 {
	return p.dropped.Load()
}

func (p *Publisher) write() {
	defer p.wg.Done()

	for entry := range p.backlog {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		err := p.repo.Record(ctx, entry)
		cancel()
		if err != nil {
			p.logger.Warn("failed to journal command",
				"device_name", entry.DeviceName,
				"serial_number", entry.SerialNumber,
				"error", err,
			)
		}
	}
}

func (p *Publisher) drop(entry *Entry, reason string) {
	p.dropped.Add(1)
	p.logger.Warn("command not journalled",
		"device_name", entry.DeviceName,
		"serial_number", entry.SerialNumber,
		"reason", reason,
	)
}
