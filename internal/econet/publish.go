package econet

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/econet-core/internal/equipment"
)

// transactionPrefix and transactionLayout reproduce the identifiers the
// mobile app attaches to its commands.
const (
	transactionPrefix = "ANDROID_"
	transactionLayout = "2006-01-02T15:04:05"
)

// Transport publishes without waiting for broker acknowledgement.
// *mqtt.Client satisfies it.
type Transport interface {
	PublishAsync(topic string, payload []byte, qos byte) error
}

// Publisher sends entity commands to the account's desired topic. It
// satisfies equipment.Publisher.
type Publisher struct {
	transport Transport
	topic     string
	qos       byte
	now       func() time.Time
}

// NewPublisher creates a publisher writing to topic, normally
// mqtt.Topics{}.Desired(session.AccountID).
func NewPublisher(transport Transport, topic string, qos byte) *Publisher {
	return &Publisher{
		transport: transport,
		topic:     topic,
		qos:       qos,
		now:       time.Now,
	}
}

// Publish wraps payload in the command envelope and hands it to the
// transport. The device's acknowledgement arrives later as a push.
func (p *Publisher) Publish(key equipment.Key, payload map[string]any) error {
	msg := make(map[string]any, len(payload)+3)
	msg["transactionId"] = transactionPrefix + p.now().Format(transactionLayout)
	msg[equipment.MetaDeviceName] = key.DeviceName
	msg[equipment.MetaSerialNumber] = key.SerialNumber
	for k, v := range payload {
		msg[k] = v
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding command for %s: %w", key, err)
	}
	if err := p.transport.PublishAsync(p.topic, data, p.qos); err != nil {
		return fmt.Errorf("publishing command for %s: %w", key, err)
	}
	return nil
}
