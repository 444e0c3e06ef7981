package push

import (
	"fmt"
	"sync"

	"github.com/nerrad567/econet-core/internal/equipment"
)

// fakeLookup is an in-memory Lookup.
type fakeLookup struct {
	byKey  map[equipment.Key]*equipment.Equipment
	byName map[string][]*equipment.Equipment
}

func newFakeLookup(entities ...*equipment.Equipment) *fakeLookup {
	l := &fakeLookup{
		byKey:  make(map[equipment.Key]*equipment.Equipment),
		byName: make(map[string][]*equipment.Equipment),
	}
	for _, eq := range entities {
		l.byKey[eq.Key()] = eq
		l.byName[eq.DeviceName()] = append(l.byName[eq.DeviceName()], eq)
	}
	return l
}

func (l *fakeLookup) Get(key equipment.Key) (*equipment.Equipment, bool) {
	eq, ok := l.byKey[key]
	return eq, ok
}

func (l *fakeLookup) ByDeviceName(name string) []*equipment.Equipment {
	return l.byName[name]
}

func (l *fakeLookup) Count() int { return len(l.byKey) }

func thermostat(name, serial string) *equipment.Equipment {
	return equipment.New(equipment.KindThermostat, map[string]any{
		"device_name":   name,
		"serial_number": serial,
		"device_type":   "TS",
		"@SIGNAL":       -50,
		"@COOLSETPOINT": map[string]any{
			"value":       74,
			"constraints": map[string]any{"lowerLimit": 60, "upperLimit": 92},
		},
		"@MODE": map[string]any{
			"value":       0,
			"status":      "Off",
			"constraints": map[string]any{"enumText": []any{"Off", "Heating", "Cooling"}},
		},
	}, equipment.Env{})
}

// recordingObserver captures observer notifications.
type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) EquipmentChanged(eq *equipment.Equipment, changed []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, fmt.Sprintf("%s %v", eq.Key(), changed))
}

func (o *recordingObserver) snapshot() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.calls...)
}

type panickingObserver struct{}

func (panickingObserver) EquipmentChanged(*equipment.Equipment, []string) {
	panic("observer exploded")
}

// recordingLogger captures log messages by level.
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+msg)
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.log("DEBUG", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.log("INFO", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.log("WARN", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.log("ERROR", msg) }

func (l *recordingLogger) has(entry string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e == entry {
			return true
		}
	}
	return false
}
