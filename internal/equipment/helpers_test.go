package equipment

import (
	"errors"
	"fmt"
	"sync"
)

// recordingPublisher captures published commands.
type recordingPublisher struct {
	mu       sync.Mutex
	commands []publishedCommand
	err      error
}

type publishedCommand struct {
	key     Key
	payload map[string]any
}

func (p *recordingPublisher) Publish(key Key, payload map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.commands = append(p.commands, publishedCommand{key: key, payload: payload})
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.commands)
}

func (p *recordingPublisher) last() publishedCommand {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.commands) == 0 {
		return publishedCommand{}
	}
	return p.commands[len(p.commands)-1]
}

// recordingLogger captures log messages by level.
type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprintf("%s: %s", level, msg))
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

var errBrokerDown = errors.New("broker down")

func enumRecord(value int, status string, texts ...string) map[string]any {
	enum := make([]any, len(texts))
	for i, t := range texts {
		enum[i] = t
	}
	return map[string]any{
		"value":  value,
		"status": status,
		"constraints": map[string]any{
			"enumText": enum,
		},
	}
}

func rangeRecord(value, lower, upper float64) map[string]any {
	return map[string]any{
		"value": value,
		"constraints": map[string]any{
			"lowerLimit": lower,
			"upperLimit": upper,
		},
	}
}

func thermostatRecord() map[string]any {
	return map[string]any{
		"device_name":    "D1",
		"serial_number":  "S1",
		"device_type":    "TS",
		"@NAME":          map[string]any{"value": "Hallway"},
		"@MODE":          enumRecord(2, "Heating", "Off", "Auto", "Heating", "Cooling", "Fan Only"),
		"@FANSPEED":      enumRecord(0, "Auto", "Auto", "Low", "Med.Lo", "Medium", "Med.Hi", "High"),
		"@FANMODE":       enumRecord(0, "Auto", "Auto", "On/Continuous"),
		"@COOLSETPOINT":  rangeRecord(74, 60, 92),
		"@HEATSETPOINT":  rangeRecord(68, 50, 90),
		"@DEHUMSETPOINT": rangeRecord(50, 35, 65),
		"@RUNNINGSTATUS": "Running",
		"@SIGNAL":        -45,
	}
}

func newThermostat(pub Publisher, logger Logger) Thermostat {
	eq := New(KindThermostat, thermostatRecord(), Env{Publisher: pub, Logger: logger})
	ts, _ := eq.Thermostat()
	return ts
}
