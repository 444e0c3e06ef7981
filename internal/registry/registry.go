package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/econet-core/internal/equipment"
	"github.com/nerrad567/econet-core/internal/snapshot"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Fetcher retrieves the current full-state snapshot (the "results" object).
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (json.RawMessage, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (json.RawMessage, error)

// FetchSnapshot calls f(ctx).
func (f FetcherFunc) FetchSnapshot(ctx context.Context) (json.RawMessage, error) {
	return f(ctx)
}

// Stats is a point-in-time summary of the registry.
type Stats struct {
	Entities    int
	ByKind      map[equipment.Kind]int
	Refreshes   int
	LastRefresh time.Time
	LoadedAt    time.Time
}

// Registry is the session's set of equipment entities keyed by
// (device_name, serial_number).
//
// Entities are created once by the initial snapshot load and live for the
// rest of the session. Refresh merges new snapshot data into the existing
// instances, so pointers held by callers and their OnChange registrations
// stay valid.
//
// All public methods are thread-safe.
type Registry struct {
	fetcher Fetcher
	env     equipment.Env
	logger  Logger

	// loadMu serialises snapshot fetches: the lazy initial load and Refresh.
	loadMu sync.Mutex

	mu          sync.RWMutex
	order       []*equipment.Equipment
	byKey       map[equipment.Key]*equipment.Equipment
	byName      map[string][]*equipment.Equipment
	loadedAt    time.Time
	refreshes   int
	lastRefresh time.Time
}

// New creates an empty registry. env is handed to every entity the
// registry builds; its Publisher carries their commands.
func New(fetcher Fetcher, env equipment.Env) *Registry {
	return &Registry{
		fetcher: fetcher,
		env:     env,
		logger:  noopLogger{},
		byKey:   make(map[equipment.Key]*equipment.Equipment),
		byName:  make(map[string][]*equipment.Equipment),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Load performs the initial snapshot load if it has not happened yet.
// Concurrent callers share a single fetch.
func (r *Registry) Load(ctx context.Context) error {
	if r.Loaded() {
		return nil
	}

	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	if r.Loaded() {
		return nil
	}

	res, err := r.fetch(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	for _, eq := range res.Equipment {
		r.order = append(r.order, eq)
		r.byKey[eq.Key()] = eq
		r.byName[eq.DeviceName()] = append(r.byName[eq.DeviceName()], eq)
	}
	r.loadedAt = time.Now()
	r.mu.Unlock()

	r.logger.Info("equipment snapshot loaded",
		"entities", len(res.Equipment), "skipped", res.Skipped, "duplicates", res.Duplicates)
	return nil
}

// GetByType returns the entities of each requested kind in snapshot
// order, loading the snapshot first if the registry is empty. Every
// requested kind is present in the result, possibly with an empty slice.
func (r *Registry) GetByType(ctx context.Context, kinds ...equipment.Kind) (map[equipment.Kind][]*equipment.Equipment, error) {
	if err := r.Load(ctx); err != nil {
		return nil, err
	}

	out := make(map[equipment.Kind][]*equipment.Equipment, len(kinds))
	for _, k := range kinds {
		out[k] = []*equipment.Equipment{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, eq := range r.order {
		if list, ok := out[eq.Kind()]; ok {
			out[eq.Kind()] = append(list, eq)
		}
	}
	return out, nil
}

// Refresh re-fetches the snapshot and merges each record into the entity
// with the same key. Records for unknown keys are ignored; Refresh never
// adds or removes entities.
//
// The fetch, validation and parse complete before any entity is touched,
// so a failed refresh leaves the registry as it was.
func (r *Registry) Refresh(ctx context.Context) error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	res, err := r.fetch(ctx)
	if err != nil {
		return err
	}

	merged, ignored := 0, 0
	for _, fresh := range res.Equipment {
		current, ok := r.Get(fresh.Key())
		if !ok {
			ignored++
			continue
		}
		if current.Apply(fresh.Attributes()).HasChanges() {
			merged++
		}
	}

	r.mu.Lock()
	r.refreshes++
	r.lastRefresh = time.Now()
	r.mu.Unlock()

	r.logger.Info("equipment snapshot refreshed", "changed", merged, "ignored", ignored)
	return nil
}

func (r *Registry) fetch(ctx context.Context) (*snapshot.Result, error) {
	raw, err := r.fetcher.FetchSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching snapshot: %w", err)
	}
	res, err := snapshot.Load(raw, r.env)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return res, nil
}

// Get returns the entity with the given key.
func (r *Registry) Get(key equipment.Key) (*equipment.Equipment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eq, ok := r.byKey[key]
	return eq, ok
}

// ByDeviceName returns every entity sharing device name, such as a
// thermostat and its zones.
func (r *Registry) ByDeviceName(name string) []*equipment.Equipment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.byName[name]
	out := make([]*equipment.Equipment, len(list))
	copy(out, list)
	return out
}

// All returns every entity in snapshot order.
func (r *Registry) All() []*equipment.Equipment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*equipment.Equipment, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of entities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Loaded reports whether the initial snapshot has been loaded.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.loadedAt.IsZero()
}

// Stats returns a summary of the registry contents.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{
		Entities:    len(r.order),
		ByKind:      make(map[equipment.Kind]int),
		Refreshes:   r.refreshes,
		LastRefresh: r.lastRefresh,
		LoadedAt:    r.loadedAt,
	}
	for _, eq := range r.order {
		s.ByKind[eq.Kind()]++
	}
	return s
}
