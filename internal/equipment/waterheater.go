package equipment

import (
	"fmt"
	"strings"
)

// Water heater capability keys.
const (
	KeyEnabled        = "@ENABLED"
	KeySetPoint       = "@SETPOINT"
	KeyHotWater       = "@HOTWATER"
	KeyLeakInstalled  = "@LEAKINSTALLED"
	KeyValve          = "@VALVE"
	KeyTank           = "@TANK"
	KeyCombustion     = "@COMBUSTION"
	KeyOverrideStatus = "@OVERRIDESTATUS"
	KeyRunning        = "@RUNNING"
)

// Generic types that heat with gas. Combined ELECTRIC/GAS labels resolve
// to gas for these and to electric for everything else.
var gasGenericTypes = map[string]bool{
	"gasWaterHeater":      true,
	"tanklessWaterHeater": true,
}

// hotWaterIcons maps tank icon name fragments to availability percentages.
var hotWaterIcons = []struct {
	fragment string
	percent  int
}{
	{"ic_tank_hundread_percent", 100},
	{"ic_tank_fourty_percent", 40},
	{"ic_tank_ten_percent", 10},
	{"ic_tank_empty", 0},
	{"ic_tank_zero_percent", 0},
}

// WaterHeater is the water heater view over an Equipment.
type WaterHeater struct {
	*Equipment
}

// IsGas reports whether the heater's generic type burns gas.
func (w WaterHeater) IsGas() bool {
	return gasGenericTypes[w.GenericType()]
}

func (w WaterHeater) supportsModes() bool { return w.has(KeyMode) }
func (w WaterHeater) supportsOnOff() bool { return w.has(KeyEnabled) }

// resolve maps the combined ELECTRIC/GAS label to the heater's fuel.
func (w WaterHeater) resolve(m WaterHeaterMode) WaterHeaterMode {
	if m != WaterHeaterModeElectricGas {
		return m
	}
	return w.fuelMode()
}

func (w WaterHeater) fuelMode() WaterHeaterMode {
	if w.IsGas() {
		return WaterHeaterModeGas
	}
	return WaterHeaterModeElectric
}

// Modes returns the operating modes the heater accepts. Units that only
// switch on and off report OFF plus their fuel mode.
func (w WaterHeater) Modes() []WaterHeaterMode {
	var modes []WaterHeaterMode
	for _, text := range w.enumText(KeyMode) {
		if m := ParseWaterHeaterMode(text); m != WaterHeaterModeUnknown {
			modes = append(modes, w.resolve(m))
		}
	}

	if w.supportsOnOff() {
		if len(modes) == 0 {
			return []WaterHeaterMode{WaterHeaterModeOff, w.fuelMode()}
		}
		modes = append(modes, WaterHeaterModeOff)
	}
	return modes
}

// Mode returns the current operating mode. A disabled unit is OFF
// regardless of its @MODE.
func (w WaterHeater) Mode() WaterHeaterMode {
	if w.supportsOnOff() && !w.boolOr(KeyEnabled, true) {
		return WaterHeaterModeOff
	}
	if w.supportsModes() {
		label, ok := w.currentLabel(KeyMode)
		if !ok {
			return WaterHeaterModeUnknown
		}
		return w.resolve(ParseWaterHeaterMode(label))
	}
	return w.fuelMode()
}

// Enabled reports whether the heater is on. ok is false for units that
// support neither modes nor on/off.
func (w WaterHeater) Enabled() (enabled, ok bool) {
	switch {
	case w.supportsOnOff():
		return w.boolOr(KeyEnabled, false), true
	case w.supportsModes():
		return w.Mode() != WaterHeaterModeOff, true
	default:
		return false, false
	}
}

// Running reports whether the heater is currently heating.
func (w WaterHeater) Running() bool { return w.RunningState() != "" }

func (w WaterHeater) SetPoint() (float64, bool) { return w.float(KeySetPoint) }

func (w WaterHeater) SetPointLimits() (lower, upper float64, ok bool) {
	return w.limits(KeySetPoint)
}

// TankHotWaterAvailability returns the hot water level in percent, derived
// from the tank icon the cloud reports.
func (w WaterHeater) TankHotWaterAvailability() (int, bool) {
	icon, ok := "", false
	w.read(func(a Attributes) { icon, ok = a.String(KeyHotWater) })
	if !ok {
		return 0, false
	}
	for _, candidate := range hotWaterIcons {
		if strings.Contains(icon, candidate.fragment) {
			return candidate.percent, true
		}
	}
	w.env.Logger.Error("invalid tank level icon", "device", w.key.String(), "icon", icon)
	return 100, true
}

// TankHealth returns the heating element health, 0-100.
func (w WaterHeater) TankHealth() (float64, bool) { return w.float(KeyTank) }

// CompressorHealth returns the heat pump compressor health, 0-100.
func (w WaterHeater) CompressorHealth() (float64, bool) { return w.float(KeyCombustion) }

func (w WaterHeater) LeakInstalled() bool   { return w.boolOr(KeyLeakInstalled, false) }
func (w WaterHeater) HasShutoffValve() bool { return w.has(KeyValve) }

// ShutoffValveOpen reports the valve state. A value of 0 means open.
func (w WaterHeater) ShutoffValveOpen() (open, ok bool) {
	v, ok := w.float(KeyValve)
	if !ok {
		return false, false
	}
	return v == 0, true
}

// OverrideStatus returns the alert override text.
func (w WaterHeater) OverrideStatus() string { return w.stringOr(KeyOverrideStatus, "") }

// SetMode requests a new operating mode. On units with @ENABLED the
// payload also switches the heater on, or off for OFF. The combined
// ELECTRIC/GAS label satisfies both ELECTRIC_MODE and GAS.
func (w WaterHeater) SetMode(mode WaterHeaterMode) error {
	if mode == WaterHeaterModeUnknown {
		return w.send("set_mode", nil, fmt.Errorf("%w: %v", ErrUnsupportedMode, mode))
	}
	onOff, modes := w.supportsOnOff(), w.supportsModes()
	if !onOff && !modes {
		return w.send("set_mode", nil, fmt.Errorf("%w: no @MODE or @ENABLED", ErrUnsupported))
	}

	payload := map[string]any{}
	if onOff {
		if mode == WaterHeaterModeOff {
			payload[KeyEnabled] = 0
		} else {
			payload[KeyEnabled] = 1
		}
	}

	if modes {
		idx, err := w.encodeEnum(KeyMode, func(label string) bool {
			candidate := ParseWaterHeaterMode(label)
			if candidate == mode {
				return true
			}
			return candidate == WaterHeaterModeElectricGas &&
				(mode == WaterHeaterModeElectric || mode == WaterHeaterModeGas)
		})
		switch {
		case err == nil:
			payload[KeyMode] = idx
		case onOff && mode == WaterHeaterModeOff:
			// Switching off through @ENABLED alone is enough.
		default:
			return w.send("set_mode", nil, err)
		}
	}

	return w.send("set_mode", payload, nil)
}

// SetSetPoint requests a new tank temperature.
func (w WaterHeater) SetSetPoint(target float64) error {
	payload, err := w.encodeSetPoint(KeySetPoint, target)
	return w.send("set_set_point", payload, err)
}

// SetEnabled switches the heater on or off.
func (w WaterHeater) SetEnabled(enabled bool) error {
	if !w.supportsOnOff() {
		return w.send("set_enabled", nil, fmt.Errorf("%w: no %s", ErrUnsupported, KeyEnabled))
	}
	value := 0
	if enabled {
		value = 1
	}
	return w.send("set_enabled", map[string]any{KeyEnabled: value}, nil)
}
