package push

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/econet-core/internal/equipment"
)

// Logger defines the logging interface used by the push pipeline.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Lookup resolves push targets. *registry.Registry satisfies it.
type Lookup interface {
	Get(key equipment.Key) (*equipment.Equipment, bool)
	ByDeviceName(name string) []*equipment.Equipment
}

// Observer is told about every entity a push changed, after the entity's
// own callbacks have run.
type Observer interface {
	EquipmentChanged(eq *equipment.Equipment, changed []string)
}

// RouterOptions contains configuration for creating a Router.
type RouterOptions struct {
	Registry  Lookup
	Logger    Logger
	Observers []Observer
}

// RouteResult describes what happened to one push.
type RouteResult struct {
	// Targets is the number of entities the push was applied to.
	Targets int

	// Changed is the number of targets whose state changed.
	Changed int

	// FanOut is set when targets were selected by device name only.
	FanOut bool

	// Unroutable is set when no entity matched and the push was dropped.
	Unroutable bool
}

// RouterStats counts routing outcomes since the router was created.
type RouterStats struct {
	Routed     uint64
	FannedOut  uint64
	Unroutable uint64
	Changed    uint64
	Panics     uint64
}

// Router applies decoded push messages to registry entities.
//
// Routing order:
//  1. exact (device_name, serial_number) match
//  2. for signal-only pushes, every entity sharing device_name
//  3. otherwise the push is logged at debug and dropped
//
// Route is not safe for concurrent use with itself; the Dispatcher calls
// it from a single goroutine so pushes apply in arrival order.
type Router struct {
	registry Lookup

	observersMu sync.RWMutex
	observers   []Observer

	logger   Logger
	loggerMu sync.RWMutex

	routed     atomic.Uint64
	fannedOut  atomic.Uint64
	unroutable atomic.Uint64
	changed    atomic.Uint64
	panics     atomic.Uint64
}

// NewRouter creates a router over the given registry.
func NewRouter(opts RouterOptions) (*Router, error) {
	if opts.Registry == nil {
		return nil, errors.New("push: registry is required")
	}
	r := &Router{
		registry:  opts.Registry,
		observers: append([]Observer(nil), opts.Observers...),
		logger:    opts.Logger,
	}
	return r, nil
}

// AddObserver registers an observer for changed entities.
func (r *Router) AddObserver(o Observer) {
	r.observersMu.Lock()
	r.observers = append(r.observers, o)
	r.observersMu.Unlock()
}

// SetLogger sets the logger for the router.
func (r *Router) SetLogger(logger Logger) {
	r.loggerMu.Lock()
	r.logger = logger
	r.loggerMu.Unlock()
}

// Route applies msg to its target entities. Panics raised while applying
// or inside callbacks are recovered and logged.
func (r *Router) Route(msg Message) (result RouteResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.panics.Add(1)
			r.logError("panic while routing push",
				"device_name", msg.DeviceName(), "panic", fmt.Sprint(rec))
		}
	}()

	targets, fanOut := r.resolve(msg)
	if len(targets) == 0 {
		r.unroutable.Add(1)
		serial, _ := msg.SerialNumber()
		r.logDebug("dropping unroutable push",
			"device_name", msg.DeviceName(), "serial_number", serial)
		return RouteResult{Unroutable: true}
	}

	result.Targets = len(targets)
	result.FanOut = fanOut
	r.routed.Add(1)
	if fanOut {
		r.fannedOut.Add(1)
	}

	update := msg.update()
	for _, eq := range targets {
		merged := eq.Apply(update)
		if !merged.HasChanges() {
			continue
		}
		result.Changed++
		r.changed.Add(1)
		r.notifyObservers(eq, merged.Changed)
	}
	return result
}

// resolve selects the entities a message applies to.
func (r *Router) resolve(msg Message) ([]*equipment.Equipment, bool) {
	name := msg.DeviceName()
	if serial, ok := msg.SerialNumber(); ok {
		if eq, found := r.registry.Get(equipment.Key{DeviceName: name, SerialNumber: serial}); found {
			return []*equipment.Equipment{eq}, false
		}
	}

	if name != "" && msg.hasSignalOnlyKey() {
		return r.registry.ByDeviceName(name), true
	}
	return nil, false
}

func (r *Router) notifyObservers(eq *equipment.Equipment, changed []string) {
	r.observersMu.RLock()
	observers := r.observers
	r.observersMu.RUnlock()

	for _, o := range observers {
		r.notifyObserver(o, eq, changed)
	}
}

func (r *Router) notifyObserver(o Observer, eq *equipment.Equipment, changed []string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.panics.Add(1)
			r.logError("panic in push observer",
				"device", eq.Key().String(), "panic", fmt.Sprint(rec))
		}
	}()
	o.EquipmentChanged(eq, changed)
}

// Stats returns routing counters.
func (r *Router) Stats() RouterStats {
	return RouterStats{
		Routed:     r.routed.Load(),
		FannedOut:  r.fannedOut.Load(),
		Unroutable: r.unroutable.Load(),
		Changed:    r.changed.Load(),
		Panics:     r.panics.Load(),
	}
}

func (r *Router) getLogger() Logger {
	r.loggerMu.RLock()
	defer r.loggerMu.RUnlock()
	return r.logger
}

// logDebug logs a debug message if logger is set.
func (r *Router) logDebug(msg string, keysAndValues ...any) {
	if logger := r.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (r *Router) logError(msg string, keysAndValues ...any) {
	if logger := r.getLogger(); logger != nil {
		logger.Error(msg, keysAndValues...)
	}
}
