package equipment

import "errors"

// Sentinel errors for command encoding.
//
// Setters never return these; they log the rejection and publish nothing.
// The encoders return them so callers and tests can tell the cases apart:
//
//	if errors.Is(err, equipment.ErrOutOfRange) {
//	    // target outside the record's constraints
//	}
var (
	// ErrUnsupported indicates the entity lacks the capability key.
	ErrUnsupported = errors.New("equipment: capability not supported")

	// ErrUnsupportedMode indicates no enumText label matches the requested value.
	ErrUnsupportedMode = errors.New("equipment: mode not supported")

	// ErrOutOfRange indicates a set point outside the record's constraints.
	ErrOutOfRange = errors.New("equipment: value out of range")

	// ErrNoPublisher indicates a command was encoded but no publisher is attached.
	ErrNoPublisher = errors.New("equipment: no publisher configured")
)
