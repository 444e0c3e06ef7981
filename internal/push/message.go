package push

import "github.com/nerrad567/econet-core/internal/equipment"

// Envelope keys stripped before a push is merged.
const (
	keyTransactionID = "transactionId"
)

// signalOnlyKeys are capabilities the cloud broadcasts per device name
// without a usable serial number.
var signalOnlyKeys = []string{"@SIGNAL"}

// Message is one decoded push update.
type Message map[string]any

// DeviceName returns the routing device name.
func (m Message) DeviceName() string {
	s, _ := m[equipment.MetaDeviceName].(string)
	return s
}

// SerialNumber returns the routing serial number, if present.
func (m Message) SerialNumber() (string, bool) {
	s, ok := m[equipment.MetaSerialNumber].(string)
	return s, ok && s != ""
}

// hasSignalOnlyKey reports whether the message carries a key that may be
// fanned out by device name.
func (m Message) hasSignalOnlyKey() bool {
	for _, k := range signalOnlyKeys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// update returns the message without its routing envelope.
func (m Message) update() map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch k {
		case equipment.MetaDeviceName, equipment.MetaSerialNumber, keyTransactionID:
			continue
		}
		out[k] = v
	}
	return out
}
