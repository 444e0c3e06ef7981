package econet

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/nerrad567/econet-core/internal/equipment"
)

type recordingTransport struct {
	topic   string
	payload []byte
	qos     byte
	err     error
}

func (r *recordingTransport) PublishAsync(topic string, payload []byte, qos byte) error {
	if r.err != nil {
		return r.err
	}
	r.topic, r.payload, r.qos = topic, payload, qos
	return nil
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("time.Parse(%q) error = %v", s, err)
	}
	return ts
}

func TestPublisher_Envelope(t *testing.T) {
	tr := &recordingTransport{}
	p := NewPublisher(tr, "user/acct-9/device/desired", 0)
	p.now = func() time.Time { return mustTime(t, "2024-02-03T04:05:06Z") }

	key := equipment.Key{DeviceName: "TS-1", SerialNumber: "S-Z1"}
	if err := p.Publish(key, map[string]any{"@MODE": 1}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if tr.topic != "user/acct-9/device/desired" {
		t.Errorf("topic = %q", tr.topic)
	}
	var got map[string]any
	if err := json.Unmarshal(tr.payload, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	want := map[string]any{
		"transactionId": "ANDROID_2024-02-03T04:05:06",
		"device_name":   "TS-1",
		"serial_number": "S-Z1",
		"@MODE":         1.0,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("payload = %v, want %v", got, want)
	}
}

func TestPublisher_TransportError(t *testing.T) {
	errDown := errors.New("not connected")
	p := NewPublisher(&recordingTransport{err: errDown}, "t", 0)

	err := p.Publish(equipment.Key{DeviceName: "WH-1", SerialNumber: "S-1"}, map[string]any{"@ENABLED": 1})
	if !errors.Is(err, errDown) {
		t.Errorf("Publish() error = %v, want %v", err, errDown)
	}
}
