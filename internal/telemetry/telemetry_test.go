package telemetry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/econet-core/internal/econet"
	"github.com/nerrad567/econet-core/internal/equipment"
)

func waterHeater(name, serial string) *equipment.Equipment {
	return equipment.New(equipment.KindWaterHeater, map[string]any{
		"device_name":   name,
		"serial_number": serial,
		"device_type":   "WH",
		"@SIGNAL":       -61,
		"@RUNNING":      "Heating",
		"@AWAY":         true,
		"@SETPOINT": map[string]any{
			"value":       120,
			"constraints": map[string]any{"lowerLimit": 110, "upperLimit": 140},
		},
	}, equipment.Env{})
}

func thermostat(name, serial string) *equipment.Equipment {
	return equipment.New(equipment.KindThermostat, map[string]any{
		"device_name":   name,
		"serial_number": serial,
		"device_type":   "TS",
		"@COOLSETPOINT": 74,
	}, equipment.Env{})
}

// recordingWriter implements both writer interfaces.
type recordingWriter struct {
	mu     sync.Mutex
	points []string
}

func (w *recordingWriter) add(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.points = append(w.points, fmt.Sprintf(format, args...))
}

func (w *recordingWriter) WriteAttributeMetric(deviceName, serialNumber, kind, attribute string, value float64) {
	w.add("%s/%s %s %s=%v", deviceName, serialNumber, kind, attribute, value)
}

func (w *recordingWriter) WriteEnergyUsage(deviceName, serialNumber, unit string, total float64) {
	w.add("energy %s/%s %v %s", deviceName, serialNumber, total, unit)
}

func (w *recordingWriter) WriteWaterUsage(deviceName, serialNumber string, total float64) {
	w.add("water %s/%s %v", deviceName, serialNumber, total)
}

func (w *recordingWriter) snapshot() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := append([]string(nil), w.points...)
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// =============================================================================
// Recorder Tests
// =============================================================================

func TestRecorder_WritesNumericChanges(t *testing.T) {
	tests := []struct {
		name    string
		changed []string
		want    []string
	}{
		{
			name:    "record value",
			changed: []string{"@SETPOINT"},
			want:    []string{"WH-1/S-1 WH @SETPOINT=120"},
		},
		{
			name:    "scalar and boolean",
			changed: []string{"@SIGNAL", "@AWAY"},
			want:    []string{"WH-1/S-1 WH @AWAY=1", "WH-1/S-1 WH @SIGNAL=-61"},
		},
		{
			name:    "text skipped",
			changed: []string{"@RUNNING"},
			want:    nil,
		},
		{
			name:    "metadata skipped",
			changed: []string{"device_type"},
			want:    nil,
		},
		{
			name:    "missing key skipped",
			changed: []string{"@TANK"},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &recordingWriter{}
			NewRecorder(w).EquipmentChanged(waterHeater("WH-1", "S-1"), tt.changed)

			if got := w.snapshot(); !equalStrings(got, tt.want) {
				t.Errorf("points = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// UsagePoller Tests
// =============================================================================

type fakeLister []*equipment.Equipment

func (l fakeLister) All() []*equipment.Equipment { return l }

type fakeSource struct {
	mu        sync.Mutex
	energyErr error
	waterErr  error
	calls     int
}

func (s *fakeSource) EnergyUsage(_ context.Context, wh equipment.WaterHeater, req econet.UsageRequest) (econet.EnergyReport, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.energyErr != nil {
		return econet.EnergyReport{}, s.energyErr
	}
	if req.Format != econet.UsageDaily {
		return econet.EnergyReport{}, fmt.Errorf("unexpected format %q", req.Format)
	}
	return econet.EnergyReport{
		Usage:      map[int]float64{1: 0.5, 2: 1.25},
		EnergyType: "KWH",
	}, nil
}

func (s *fakeSource) WaterUsage(_ context.Context, wh equipment.WaterHeater) (float64, error) {
	if s.waterErr != nil {
		return 0, s.waterErr
	}
	return 42, nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingLogger struct {
	mu     sync.Mutex
	debugs []string
	warns  []string
}

func (l *recordingLogger) Debug(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugs = append(l.debugs, msg)
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func TestUsagePoller_PollNow(t *testing.T) {
	tests := []struct {
		name       string
		energyErr  error
		waterErr   error
		want       []string
		wantDebugs int
		wantWarns  int
	}{
		{
			name: "writes both reports",
			want: []string{"energy WH-1/S-1 1.75 KWH", "water WH-1/S-1 42"},
		},
		{
			name:       "energy unavailable",
			energyErr:  fmt.Errorf("%w: no data", econet.ErrUsageUnavailable),
			want:       []string{"water WH-1/S-1 42"},
			wantDebugs: 1,
		},
		{
			name:      "transport failure",
			energyErr: econet.ErrTransport,
			waterErr:  econet.ErrTransport,
			want:      nil,
			wantWarns: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &recordingWriter{}
			logger := &recordingLogger{}
			p := NewUsagePoller(UsagePollerConfig{
				Source:    &fakeSource{energyErr: tt.energyErr, waterErr: tt.waterErr},
				Equipment: fakeLister{thermostat("TS-1", "S-9"), waterHeater("WH-1", "S-1")},
				Writer:    w,
				Logger:    logger,
			})

			p.PollNow(context.Background())

			if got := w.snapshot(); !equalStrings(got, tt.want) {
				t.Errorf("points = %v, want %v", got, tt.want)
			}
			if len(logger.debugs) != tt.wantDebugs || len(logger.warns) != tt.wantWarns {
				t.Errorf("debugs = %v, warns = %v", logger.debugs, logger.warns)
			}
		})
	}
}

func TestUsagePoller_StartStop(t *testing.T) {
	src := &fakeSource{}
	p := NewUsagePoller(UsagePollerConfig{
		Source:    src,
		Equipment: fakeLister{waterHeater("WH-1", "S-1")},
		Writer:    &recordingWriter{},
		Interval:  10 * time.Millisecond,
	})

	p.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for src.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop()
	p.Stop()

	if src.callCount() < 2 {
		t.Errorf("polled %d times, want at least 2", src.callCount())
	}
}

func TestUsagePoller_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{}
	p := NewUsagePoller(UsagePollerConfig{
		Source:    src,
		Equipment: fakeLister{waterHeater("WH-1", "S-1")},
		Writer:    &recordingWriter{},
		Interval:  time.Hour,
	})

	cancel()
	p.PollNow(ctx)
	if src.callCount() != 0 {
		t.Errorf("polled %d times after cancel, want 0", src.callCount())
	}

	p.Start(ctx)
	p.Stop()
}

func TestNewUsagePoller_Defaults(t *testing.T) {
	p := NewUsagePoller(UsagePollerConfig{})
	if p.interval != defaultUsageInterval {
		t.Errorf("interval = %v, want %v", p.interval, defaultUsageInterval)
	}
	if p.logger == nil {
		t.Error("logger should default to no-op")
	}
}
