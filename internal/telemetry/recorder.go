package telemetry

import "github.com/nerrad567/econet-core/internal/equipment"

// AttributeWriter receives numeric capability values.
type AttributeWriter interface {
	WriteAttributeMetric(deviceName, serialNumber, kind, attribute string, value float64)
}

// Recorder writes changed numeric capabilities. It satisfies
// push.Observer.
type Recorder struct {
	writer AttributeWriter
}

// NewRecorder creates a recorder writing to w.
func NewRecorder(w AttributeWriter) *Recorder {
	return &Recorder{writer: w}
}

// EquipmentChanged writes one point per changed capability whose value
// is a number or a boolean. Text values and non-capability keys are
// skipped.
func (r *Recorder) EquipmentChanged(eq *equipment.Equipment, changed []string) {
	attrs := eq.Attributes()
	kind := eq.Kind().String()

	for _, key := range changed {
		if !equipment.IsCapability(key) {
			continue
		}
		v, ok := numeric(attrs, key)
		if !ok {
			continue
		}
		r.writer.WriteAttributeMetric(eq.DeviceName(), eq.SerialNumber(), kind, key, v)
	}
}

func numeric(attrs equipment.Attributes, key string) (float64, bool) {
	if f, ok := attrs.Float(key); ok {
		return f, true
	}
	raw, ok := attrs.Value(key)
	if !ok {
		return 0, false
	}
	if b, isBool := raw.(bool); isBool {
		if b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
