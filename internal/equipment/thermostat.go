package equipment

import "fmt"

// Thermostat capability keys.
const (
	KeyMode                = "@MODE"
	KeyFanSpeed            = "@FANSPEED"
	KeyFanMode             = "@FANMODE"
	KeyCoolSetPoint        = "@COOLSETPOINT"
	KeyHeatSetPoint        = "@HEATSETPOINT"
	KeyDeadband            = "@DEADBAND"
	KeyDehumidifierSet     = "@DEHUMSETPOINT"
	KeyDehumidifierEnabled = "@DEHUMENABLE"
	KeyHumidity            = "@HUMIDITY"
	KeyScreenLock          = "@SCREENLOCK"
	KeyBeep                = "@BEEP"
	KeyZoneID              = "@ZONEID"
	KeyRunningStatus       = "@RUNNINGSTATUS"
)

// Thermostat is the thermostat view over an Equipment.
type Thermostat struct {
	*Equipment
}

// Modes returns the operating modes the unit accepts, in enumText order.
// Unrecognised labels are skipped.
func (t Thermostat) Modes() []ThermostatMode {
	var modes []ThermostatMode
	for _, text := range t.enumText(KeyMode) {
		if m := ParseThermostatMode(text); m != ThermostatModeUnknown {
			modes = append(modes, m)
		}
	}
	return modes
}

// Mode returns the current operating mode.
func (t Thermostat) Mode() ThermostatMode {
	label, ok := t.currentLabel(KeyMode)
	if !ok {
		return ThermostatModeUnknown
	}
	return ParseThermostatMode(label)
}

// FanSpeeds returns the supported fan speeds.
func (t Thermostat) FanSpeeds() []FanSpeed {
	var speeds []FanSpeed
	for _, text := range t.enumText(KeyFanSpeed) {
		if s := ParseFanSpeed(text); s != FanSpeedUnknown {
			speeds = append(speeds, s)
		}
	}
	return speeds
}

// FanSpeed returns the current fan speed.
func (t Thermostat) FanSpeed() FanSpeed {
	label, ok := t.currentLabel(KeyFanSpeed)
	if !ok {
		return FanSpeedUnknown
	}
	return ParseFanSpeed(label)
}

// SupportsFanMode reports whether the unit exposes @FANMODE.
func (t Thermostat) SupportsFanMode() bool { return t.has(KeyFanMode) }

// FanModes returns the supported fan modes.
func (t Thermostat) FanModes() []FanMode {
	var modes []FanMode
	for _, text := range t.enumText(KeyFanMode) {
		if m := ParseFanMode(text); m != FanModeUnknown {
			modes = append(modes, m)
		}
	}
	return modes
}

// FanMode returns the current fan mode.
func (t Thermostat) FanMode() FanMode {
	label, ok := t.currentLabel(KeyFanMode)
	if !ok {
		return FanModeUnknown
	}
	return ParseFanMode(label)
}

// Running reports whether the unit is actively conditioning.
func (t Thermostat) Running() bool {
	return t.stringOr(KeyRunningStatus, "") == "Running"
}

// RunningState returns the raw @RUNNINGSTATUS text.
func (t Thermostat) RunningState() string {
	return t.stringOr(KeyRunningStatus, "")
}

func (t Thermostat) CoolSetPoint() (float64, bool) { return t.float(KeyCoolSetPoint) }
func (t Thermostat) HeatSetPoint() (float64, bool) { return t.float(KeyHeatSetPoint) }
func (t Thermostat) Deadband() (float64, bool)     { return t.float(KeyDeadband) }
func (t Thermostat) Humidity() (float64, bool)     { return t.float(KeyHumidity) }
func (t Thermostat) ZoneID() (float64, bool)       { return t.float(KeyZoneID) }

func (t Thermostat) CoolSetPointLimits() (lower, upper float64, ok bool) {
	return t.limits(KeyCoolSetPoint)
}

func (t Thermostat) HeatSetPointLimits() (lower, upper float64, ok bool) {
	return t.limits(KeyHeatSetPoint)
}

func (t Thermostat) DeadbandLimits() (lower, upper float64, ok bool) {
	return t.limits(KeyDeadband)
}

// SupportsDehumidifier reports whether the unit exposes a dehumidifier set point.
func (t Thermostat) SupportsDehumidifier() bool { return t.has(KeyDehumidifierSet) }

func (t Thermostat) DehumidifierSetPoint() (float64, bool) { return t.float(KeyDehumidifierSet) }

func (t Thermostat) DehumidifierLimits() (lower, upper float64, ok bool) {
	return t.limits(KeyDehumidifierSet)
}

func (t Thermostat) DehumidifierEnabled() bool { return t.boolOr(KeyDehumidifierEnabled, false) }
func (t Thermostat) ScreenLocked() bool        { return t.boolOr(KeyScreenLock, false) }
func (t Thermostat) BeepEnabled() bool         { return t.boolOr(KeyBeep, false) }

// SetPointLimits returns the range a single target may take in the
// current mode: cooling uses the cool limits, auto and fan-only span
// the cool lower to the heat upper limit, anything else the heat limits.
func (t Thermostat) SetPointLimits() (lower, upper float64, ok bool) {
	switch t.Mode() {
	case ThermostatModeCooling:
		return t.CoolSetPointLimits()
	case ThermostatModeAuto, ThermostatModeFanOnly:
		coolLower, _, cok := t.CoolSetPointLimits()
		_, heatUpper, hok := t.HeatSetPointLimits()
		return coolLower, heatUpper, cok && hok
	default:
		return t.HeatSetPointLimits()
	}
}

// SetMode requests a new operating mode.
func (t Thermostat) SetMode(mode ThermostatMode) error {
	if mode == ThermostatModeUnknown {
		return t.send("set_mode", nil, fmt.Errorf("%w: %v", ErrUnsupportedMode, mode))
	}
	return t.sendEnum("set_mode", KeyMode, func(label string) bool {
		return ParseThermostatMode(label) == mode
	})
}

// SetFanSpeed requests a new fan speed.
func (t Thermostat) SetFanSpeed(speed FanSpeed) error {
	if speed == FanSpeedUnknown {
		return t.send("set_fan_speed", nil, fmt.Errorf("%w: %v", ErrUnsupportedMode, speed))
	}
	return t.sendEnum("set_fan_speed", KeyFanSpeed, func(label string) bool {
		return ParseFanSpeed(label) == speed
	})
}

// SetFanMode requests a new fan mode.
func (t Thermostat) SetFanMode(mode FanMode) error {
	if mode == FanModeUnknown {
		return t.send("set_fan_mode", nil, fmt.Errorf("%w: %v", ErrUnsupportedMode, mode))
	}
	return t.sendEnum("set_fan_mode", KeyFanMode, func(label string) bool {
		return ParseFanMode(label) == mode
	})
}

// SetCoolSetPoint requests a new cooling set point.
func (t Thermostat) SetCoolSetPoint(target float64) error {
	payload, err := t.encodeSetPoint(KeyCoolSetPoint, target)
	return t.send("set_cool_set_point", payload, err)
}

// SetHeatSetPoint requests a new heating set point.
func (t Thermostat) SetHeatSetPoint(target float64) error {
	payload, err := t.encodeSetPoint(KeyHeatSetPoint, target)
	return t.send("set_heat_set_point", payload, err)
}

// SetSetPoint applies target to the set point the current mode drives.
// In auto, fan-only or off there is no single set point to pick and the
// command is rejected.
func (t Thermostat) SetSetPoint(target float64) error {
	switch mode := t.Mode(); mode {
	case ThermostatModeCooling:
		return t.SetCoolSetPoint(target)
	case ThermostatModeHeating, ThermostatModeEmergencyHeat:
		return t.SetHeatSetPoint(target)
	default:
		return t.send("set_set_point", nil,
			fmt.Errorf("%w: no set point for mode %s", ErrUnsupported, mode))
	}
}

// SetDehumidifierSetPoint requests a new target humidity.
func (t Thermostat) SetDehumidifierSetPoint(target float64) error {
	payload, err := t.encodeSetPoint(KeyDehumidifierSet, target)
	return t.send("set_dehumidifier_set_point", payload, err)
}
