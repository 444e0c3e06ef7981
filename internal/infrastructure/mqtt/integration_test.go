//go:build integration

package mqtt

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

// Integration tests against a real broker.
// These tests require a running MQTT broker at 127.0.0.1:1883 that
// accepts anonymous clients.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func connectTest(t *testing.T, name string) *Client {
	t.Helper()
	client, err := Connect(testConfig(), Credentials{ClientID: ClientID(name, time.Now(), "_test")})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestIntegration_Connect(t *testing.T) {
	client := connectTest(t, "econet-int-connect")

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close(), want false")
	}
}

func TestIntegration_ConnectRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999

	_, err := Connect(cfg, Credentials{ClientID: "econet-int-refused"})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

// TestIntegration_SubscriptionTracking verifies subscriptions are tracked
// for restoration after reconnect.
func TestIntegration_SubscriptionTracking(t *testing.T) {
	client := connectTest(t, "econet-int-sub-track")

	topics := Topics{}.Account("int-test")
	handler := func(string, []byte) error { return nil }

	for _, topic := range topics {
		if err := client.Subscribe(topic, 0, handler); err != nil {
			t.Fatalf("Subscribe(%s) error = %v", topic, err)
		}
	}
	if missing := client.Unsubscribed(topics...); len(missing) != 0 {
		t.Errorf("Unsubscribed() = %v, want none", missing)
	}

	if err := client.Unsubscribe(topics[0]); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if missing := client.Unsubscribed(topics...); !reflect.DeepEqual(missing, topics[:1]) {
		t.Errorf("Unsubscribed() = %v after Unsubscribe, want %v", missing, topics[:1])
	}
}

// TestIntegration_CommandRoundtrip publishes asynchronously to the desired
// topic and receives it on a second client.
func TestIntegration_CommandRoundtrip(t *testing.T) {
	pubClient := connectTest(t, "econet-int-pub")
	subClient := connectTest(t, "econet-int-sub")

	topic := Topics{}.Desired("int-test")
	expected := `{"device_name":"WH-1","serial_number":"S-1","@ENABLED":1}`

	received := make(chan string, 1)
	var once sync.Once
	err := subClient.Subscribe(topic, 0, func(_ string, p []byte) error {
		once.Do(func() { received <- string(p) })
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := pubClient.PublishAsync(topic, []byte(expected), 0); err != nil {
		t.Fatalf("PublishAsync() error = %v", err)
	}

	select {
	case msg := <-received:
		if msg != expected {
			t.Errorf("received = %q, want %q", msg, expected)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for message")
	}
}
