// Package mqtt provides the MQTT transport to the EcoNet push broker.
//
// This package manages:
//   - TLS connection with the session's user token as login
//   - Auto-reconnect with subscription restoration
//   - Fire-and-forget publishing for device commands
//   - Per-account topic builders
//
// # Architecture
//
// Devices publish state changes to user/<account>/device/reported; the
// cloud echoes commands and desired state on user/<account>/device/desired.
// Both feed the push dispatcher. Commands are published to the desired
// topic and confirmed by a later push.
//
//	EcoNet cloud ↔ MQTT broker (rheem.clearblade.com:1884) ↔ Core
//
// # Security Considerations
//
//   - TLS is on by default (cfg.Broker.TLS=true)
//   - The user token is short-lived; a new session needs a new connection
//   - Payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, mqtt.Credentials{
//	    ClientID: mqtt.ClientID(cfg.Account.Email, time.Now(), cfg.MQTT.Broker.ClientSuffix),
//	    Username: session.UserToken,
//	    Password: cfg.Account.SystemKey,
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.Reported(session.AccountID), 0, handler)
//	err = client.PublishAsync(mqtt.Topics{}.Desired(session.AccountID), payload, 0)
package mqtt
