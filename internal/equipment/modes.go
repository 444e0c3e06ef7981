package equipment

import (
	"strings"
	"unicode"
)

// Normalize reduces an enumeration label to upper-case letters and digits
// so "Fan Only", "FAN_ONLY" and "fan-only" compare equal.
func Normalize(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// MatchLabel reports whether two labels are equal after normalisation.
func MatchLabel(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// ThermostatMode is the operating mode of a thermostat.
type ThermostatMode int

const (
	ThermostatModeUnknown ThermostatMode = iota
	ThermostatModeOff
	ThermostatModeHeating
	ThermostatModeCooling
	ThermostatModeAuto
	ThermostatModeFanOnly
	ThermostatModeEmergencyHeat
)

var thermostatModeNames = map[ThermostatMode]string{
	ThermostatModeUnknown:       "UNKNOWN",
	ThermostatModeOff:           "OFF",
	ThermostatModeHeating:       "HEATING",
	ThermostatModeCooling:       "COOLING",
	ThermostatModeAuto:          "AUTO",
	ThermostatModeFanOnly:       "FAN_ONLY",
	ThermostatModeEmergencyHeat: "EMERGENCY_HEAT",
}

func (m ThermostatMode) String() string { return thermostatModeNames[m] }

// ParseThermostatMode maps an enumText label to a ThermostatMode.
func ParseThermostatMode(label string) ThermostatMode {
	switch Normalize(label) {
	case "OFF":
		return ThermostatModeOff
	case "HEATING":
		return ThermostatModeHeating
	case "COOLING":
		return ThermostatModeCooling
	case "AUTO":
		return ThermostatModeAuto
	case "FANONLY":
		return ThermostatModeFanOnly
	case "EMERGENCYHEAT":
		return ThermostatModeEmergencyHeat
	default:
		return ThermostatModeUnknown
	}
}

// FanSpeed is a thermostat fan speed.
type FanSpeed int

const (
	FanSpeedUnknown FanSpeed = iota
	FanSpeedAuto
	FanSpeedLow
	FanSpeedMediumLow
	FanSpeedMedium
	FanSpeedMediumHigh
	FanSpeedHigh
	FanSpeedMax
)

var fanSpeedNames = map[FanSpeed]string{
	FanSpeedUnknown:    "UNKNOWN",
	FanSpeedAuto:       "AUTO",
	FanSpeedLow:        "LOW",
	FanSpeedMediumLow:  "MEDLO",
	FanSpeedMedium:     "MEDIUM",
	FanSpeedMediumHigh: "MEDHI",
	FanSpeedHigh:       "HIGH",
	FanSpeedMax:        "MAX",
}

func (s FanSpeed) String() string { return fanSpeedNames[s] }

// ParseFanSpeed maps an enumText label such as "Med.Lo" to a FanSpeed.
func ParseFanSpeed(label string) FanSpeed {
	switch Normalize(label) {
	case "AUTO":
		return FanSpeedAuto
	case "LOW":
		return FanSpeedLow
	case "MEDLO":
		return FanSpeedMediumLow
	case "MEDIUM":
		return FanSpeedMedium
	case "MEDHI":
		return FanSpeedMediumHigh
	case "HIGH":
		return FanSpeedHigh
	case "MAX":
		return FanSpeedMax
	default:
		return FanSpeedUnknown
	}
}

// FanMode is a thermostat fan mode.
type FanMode int

const (
	FanModeUnknown FanMode = iota
	FanModeAuto
	FanModeOnContinuous
)

func (m FanMode) String() string {
	switch m {
	case FanModeAuto:
		return "AUTO"
	case FanModeOnContinuous:
		return "ON_CONTINUOUS"
	default:
		return "UNKNOWN"
	}
}

// ParseFanMode maps an enumText label such as "On/Continuous" to a FanMode.
func ParseFanMode(label string) FanMode {
	switch Normalize(label) {
	case "AUTO":
		return FanModeAuto
	case "ONCONTINUOUS":
		return FanModeOnContinuous
	default:
		return FanModeUnknown
	}
}

// WaterHeaterMode is the operating mode of a water heater.
type WaterHeaterMode int

const (
	WaterHeaterModeUnknown WaterHeaterMode = iota
	WaterHeaterModeOff
	WaterHeaterModeElectric
	WaterHeaterModeEnergySaving
	WaterHeaterModeHeatPumpOnly
	WaterHeaterModeHighDemand
	WaterHeaterModeGas
	WaterHeaterModePerformance
	WaterHeaterModeVacation

	// WaterHeaterModeElectricGas is the combined label some units report.
	// It resolves to gas or electric depending on the heater's generic type.
	WaterHeaterModeElectricGas
)

var waterHeaterModeNames = map[WaterHeaterMode]string{
	WaterHeaterModeUnknown:      "UNKNOWN",
	WaterHeaterModeOff:          "OFF",
	WaterHeaterModeElectric:     "ELECTRIC_MODE",
	WaterHeaterModeEnergySaving: "ENERGY_SAVING",
	WaterHeaterModeHeatPumpOnly: "HEAT_PUMP_ONLY",
	WaterHeaterModeHighDemand:   "HIGH_DEMAND",
	WaterHeaterModeGas:          "GAS",
	WaterHeaterModePerformance:  "PERFORMANCE",
	WaterHeaterModeVacation:     "VACATION",
	WaterHeaterModeElectricGas:  "ELECTRIC_GAS",
}

func (m WaterHeaterMode) String() string { return waterHeaterModeNames[m] }

// ParseWaterHeaterMode maps an enumText label to a WaterHeaterMode,
// folding the vendor synonyms (ENERGY SAVER, ELECTRIC, HEAT PUMP).
func ParseWaterHeaterMode(label string) WaterHeaterMode {
	switch Normalize(label) {
	case "OFF":
		return WaterHeaterModeOff
	case "ELECTRICMODE", "ELECTRIC":
		return WaterHeaterModeElectric
	case "ENERGYSAVING", "ENERGYSAVER":
		return WaterHeaterModeEnergySaving
	case "HEATPUMPONLY", "HEATPUMP":
		return WaterHeaterModeHeatPumpOnly
	case "HIGHDEMAND":
		return WaterHeaterModeHighDemand
	case "GAS":
		return WaterHeaterModeGas
	case "PERFORMANCE":
		return WaterHeaterModePerformance
	case "VACATION":
		return WaterHeaterModeVacation
	case "ELECTRICGAS":
		return WaterHeaterModeElectricGas
	default:
		return WaterHeaterModeUnknown
	}
}
