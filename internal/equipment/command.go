package equipment

import (
	"fmt"
	"math"
)

// EncodeEnum returns the enumText index of the first label accepted by
// match for the capability key.
//
// Returns:
//   - ErrUnsupported if the key is absent or carries no enumText
//   - ErrUnsupportedMode if no label matches
func EncodeEnum(attrs Attributes, key string, match func(label string) bool) (int, error) {
	texts := attrs.EnumText(key)
	if len(texts) == 0 {
		return 0, fmt.Errorf("%w: %s has no enumText", ErrUnsupported, key)
	}
	for i, text := range texts {
		if match(text) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s accepts %v", ErrUnsupportedMode, key, texts)
}

// EncodeLabel is EncodeEnum matching a symbolic label such as "FAN_ONLY"
// against enumText, ignoring case, whitespace and punctuation.
func EncodeLabel(attrs Attributes, key, label string) (int, error) {
	want := Normalize(label)
	return EncodeEnum(attrs, key, func(text string) bool {
		return Normalize(text) == want
	})
}

// EncodeSetPoint checks target against the record's constraints and
// returns the payload to publish.
//
// Returns:
//   - ErrUnsupported if the key is absent or has no limits
//   - ErrOutOfRange if target is NaN or outside [lowerLimit, upperLimit]
func EncodeSetPoint(attrs Attributes, key string, target float64) (map[string]any, error) {
	lower, upper, ok := attrs.Limits(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no limits", ErrUnsupported, key)
	}
	if math.IsNaN(target) || target < lower || target > upper {
		return nil, fmt.Errorf("%w: %s=%v outside [%v, %v]", ErrOutOfRange, key, target, lower, upper)
	}
	return map[string]any{key: target}, nil
}

// encodeEnum runs EncodeEnum under the entity's read lock.
func (e *Equipment) encodeEnum(key string, match func(label string) bool) (idx int, err error) {
	e.read(func(a Attributes) { idx, err = EncodeEnum(a, key, match) })
	return idx, err
}

// encodeSetPoint runs EncodeSetPoint under the entity's read lock.
func (e *Equipment) encodeSetPoint(key string, target float64) (payload map[string]any, err error) {
	e.read(func(a Attributes) { payload, err = EncodeSetPoint(a, key, target) })
	return payload, err
}

// send publishes payload, or logs and drops the command when encoding
// failed. Only publisher errors are returned.
func (e *Equipment) send(command string, payload map[string]any, encodeErr error) error {
	if encodeErr != nil {
		e.env.Logger.Warn("command rejected",
			"device", e.key.String(), "command", command, "error", encodeErr)
		return nil
	}
	if e.env.Publisher == nil {
		return ErrNoPublisher
	}

	e.env.Logger.Debug("publishing command",
		"device", e.key.String(), "command", command, "payload", payload)
	if err := e.env.Publisher.Publish(e.key, payload); err != nil {
		return fmt.Errorf("publishing %s for %s: %w", command, e.key, err)
	}
	return nil
}

// sendEnum encodes an enum selection for key and publishes it.
func (e *Equipment) sendEnum(command, key string, match func(label string) bool) error {
	idx, err := e.encodeEnum(key, match)
	if err != nil {
		return e.send(command, nil, err)
	}
	return e.send(command, map[string]any{key: idx}, nil)
}
