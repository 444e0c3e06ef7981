package equipment

import "strings"

// Kind identifies the category of an equipment entity.
type Kind int

const (
	// KindUnknown is assigned to records with an unrecognised device type.
	KindUnknown Kind = iota
	KindWaterHeater
	KindThermostat
)

// String returns the canonical device type for the kind.
func (k Kind) String() string {
	switch k {
	case KindWaterHeater:
		return "WH"
	case KindThermostat:
		return "TS"
	default:
		return "UNKNOWN"
	}
}

// ParseKind maps a snapshot device_type to a Kind. Both the short codes
// and the long names are accepted, case-insensitively.
func ParseKind(deviceType string) Kind {
	switch strings.ToUpper(strings.TrimSpace(deviceType)) {
	case "WH", "WATER_HEATER", "WATERHEATER":
		return KindWaterHeater
	case "TS", "THERMOSTAT":
		return KindThermostat
	default:
		return KindUnknown
	}
}
