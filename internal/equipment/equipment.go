package equipment

import (
	"fmt"
	"sort"
	"sync"
)

// Metadata keys carried by snapshot and push records.
const (
	MetaDeviceName   = "device_name"
	MetaSerialNumber = "serial_number"
	MetaDeviceType   = "device_type"
)

// Key identifies an equipment entity. A zone shares its parent's device
// name and differs by serial number.
type Key struct {
	DeviceName   string
	SerialNumber string
}

func (k Key) String() string {
	return k.DeviceName + "/" + k.SerialNumber
}

// Publisher sends a capability payload for one entity to the cloud.
// Implementations must not wait for the device to acknowledge.
type Publisher interface {
	Publish(key Key, payload map[string]any) error
}

// Env carries the collaborators shared by every entity of a session.
type Env struct {
	Logger    Logger
	Publisher Publisher
}

// Equipment is one appliance (or thermostat zone) and its current
// capability state.
//
// Thread Safety:
//   - Attribute reads take a read lock; Apply takes the write lock.
//   - Change callbacks run after the lock is released and may call accessors.
type Equipment struct {
	key      Key
	kind     Kind
	metadata map[string]any
	parent   *Key
	env      Env

	mu    sync.RWMutex
	attrs Attributes

	cbMu      sync.Mutex
	callbacks map[uint64]func(*Equipment)
	nextCB    uint64
}

// New builds an entity from a snapshot record. Capability keys become
// attributes; every other key is kept as read-only metadata. Enumerated
// records are reconciled before the entity is returned.
func New(kind Kind, record map[string]any, env Env) *Equipment {
	if env.Logger == nil {
		env.Logger = noopLogger{}
	}

	normalized := normalizeMap(record)
	attrs := make(Attributes, len(normalized))
	meta := make(map[string]any)
	for k, v := range normalized {
		if IsCapability(k) {
			attrs[k] = v
		} else {
			meta[k] = v
		}
	}

	e := &Equipment{
		kind:      kind,
		metadata:  meta,
		env:       env,
		attrs:     attrs,
		callbacks: make(map[uint64]func(*Equipment)),
	}
	e.key.DeviceName, _ = meta[MetaDeviceName].(string)
	e.key.SerialNumber, _ = meta[MetaSerialNumber].(string)

	ReconcileAll(attrs, attrs, env.Logger, "device", e.key.String())
	return e
}

// SetParent records the top-level entity a zone was materialised from.
func (e *Equipment) SetParent(parent Key) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := parent
	e.parent = &p
}

// Parent returns the key of the owning thermostat for zone entities.
func (e *Equipment) Parent() (Key, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.parent == nil {
		return Key{}, false
	}
	return *e.parent, true
}

// Key returns the composite identity of the entity.
func (e *Equipment) Key() Key { return e.key }

// Kind returns the entity's category.
func (e *Equipment) Kind() Kind { return e.kind }

// DeviceName returns the first half of the entity key.
func (e *Equipment) DeviceName() string { return e.key.DeviceName }

// SerialNumber returns the second half of the entity key.
func (e *Equipment) SerialNumber() string { return e.key.SerialNumber }

// DeviceType returns the raw device_type reported by the snapshot.
func (e *Equipment) DeviceType() string {
	s, _ := e.metadata[MetaDeviceType].(string)
	return s
}

// Metadata returns a copy of the non-capability fields of the snapshot record.
func (e *Equipment) Metadata() map[string]any {
	return deepCopyMap(e.metadata)
}

// Attributes returns a deep copy of the current capability map.
func (e *Equipment) Attributes() Attributes {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.attrs.Clone()
}

// read runs fn with the attributes under the read lock. fn must not retain
// the map or any record inside it.
func (e *Equipment) read(fn func(Attributes)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.attrs)
}

// Apply reconciles update against the entity's enumText, merges it, and
// fires the change callbacks once if anything changed.
//
// The caller's map is not modified.
func (e *Equipment) Apply(update map[string]any) MergeResult {
	update = normalizeMap(update)

	e.mu.Lock()
	ReconcileAll(update, e.attrs, e.env.Logger, "device", e.key.String())
	result := Merge(e.attrs, update)
	e.mu.Unlock()

	if len(result.Rejected) > 0 {
		e.env.Logger.Debug("ignored keys without capability sigil",
			"device", e.key.String(), "keys", result.Rejected)
	}
	if result.HasChanges() {
		e.notify()
	}
	return result
}

// OnChange registers fn to be called after every update that changes the
// entity. The returned function removes the registration.
func (e *Equipment) OnChange(fn func(*Equipment)) (unsubscribe func()) {
	e.cbMu.Lock()
	id := e.nextCB
	e.nextCB++
	e.callbacks[id] = fn
	e.cbMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.cbMu.Lock()
			delete(e.callbacks, id)
			e.cbMu.Unlock()
		})
	}
}

// notify invokes registered callbacks in registration order. A panicking
// callback is logged and does not prevent the others from running.
func (e *Equipment) notify() {
	e.cbMu.Lock()
	ids := make([]uint64, 0, len(e.callbacks))
	for id := range e.callbacks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(*Equipment), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, e.callbacks[id])
	}
	e.cbMu.Unlock()

	for _, fn := range fns {
		e.invoke(fn)
	}
}

func (e *Equipment) invoke(fn func(*Equipment)) {
	defer func() {
		if r := recover(); r != nil {
			e.env.Logger.Error("panic in change callback",
				"device", e.key.String(), "panic", fmt.Sprint(r))
		}
	}()
	fn(e)
}

// Thermostat returns the thermostat view of the entity.
func (e *Equipment) Thermostat() (Thermostat, bool) {
	if e.kind != KindThermostat {
		return Thermostat{}, false
	}
	return Thermostat{e}, true
}

// WaterHeater returns the water heater view of the entity.
func (e *Equipment) WaterHeater() (WaterHeater, bool) {
	if e.kind != KindWaterHeater {
		return WaterHeater{}, false
	}
	return WaterHeater{e}, true
}

// Common accessors. Defaults for absent keys follow the cloud's behaviour:
// an entity is active and connected unless told otherwise.

// Active reports whether the equipment is active.
func (e *Equipment) Active() bool { return e.boolOr("@ACTIVE", true) }

// Away reports whether the equipment is in away mode.
func (e *Equipment) Away() bool { return e.boolOr("@AWAY", false) }

// Connected reports whether the equipment is online.
func (e *Equipment) Connected() bool { return e.boolOr("@CONNECTED", true) }

// Vacation reports whether a vacation schedule is active.
func (e *Equipment) Vacation() bool { return e.boolOr("@VACATION", false) }

// GenericName returns the user-visible name.
func (e *Equipment) GenericName() string { return e.stringOr("@NAME", "") }

// GenericType returns the product family, e.g. "heatPumpWaterHeater".
func (e *Equipment) GenericType() string { return e.stringOr("@TYPE", "") }

// RunningState returns the raw @RUNNING text.
func (e *Equipment) RunningState() string { return e.stringOr("@RUNNING", "") }

// Signal returns the wifi signal strength when reported.
func (e *Equipment) Signal() (float64, bool) { return e.float("@SIGNAL") }

func (e *Equipment) boolOr(key string, def bool) bool {
	v, ok := def, false
	e.read(func(a Attributes) { v, ok = a.Bool(key) })
	if !ok {
		return def
	}
	return v
}

func (e *Equipment) stringOr(key, def string) string {
	v, ok := def, false
	e.read(func(a Attributes) { v, ok = a.String(key) })
	if !ok {
		return def
	}
	return v
}

func (e *Equipment) float(key string) (v float64, ok bool) {
	e.read(func(a Attributes) { v, ok = a.Float(key) })
	return v, ok
}

func (e *Equipment) limits(key string) (lower, upper float64, ok bool) {
	e.read(func(a Attributes) { lower, upper, ok = a.Limits(key) })
	return lower, upper, ok
}

func (e *Equipment) has(key string) (ok bool) {
	e.read(func(a Attributes) { ok = a.Has(key) })
	return ok
}

func (e *Equipment) enumText(key string) (texts []string) {
	e.read(func(a Attributes) { texts = a.EnumText(key) })
	return texts
}

// currentLabel returns enumText[value] for key, falling back to the
// record's status when the index is out of range.
func (e *Equipment) currentLabel(key string) (label string, ok bool) {
	e.read(func(a Attributes) {
		texts := a.EnumText(key)
		if idx, isIdx := a.Int(key); isIdx && idx >= 0 && idx < len(texts) {
			label, ok = texts[idx], true
			return
		}
		label, ok = a.Status(key)
	})
	return label, ok
}
