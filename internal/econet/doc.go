// Package econet is the client for the EcoNet (Rheem ClearBlade) cloud.
//
// The REST side covers login, the full-state snapshot and water heater
// usage reports:
//
//	client := econet.NewClient(cfg.Account)
//	session, err := client.Login(ctx)
//	raw, err := client.FetchSnapshot(ctx) // the "results" object
//
// Client satisfies registry.Fetcher. Publisher is the outbound half of
// the push transport: it wraps capability payloads in the command
// envelope (transactionId, device_name, serial_number) and publishes them
// to the account's desired topic without waiting for acknowledgement.
package econet
