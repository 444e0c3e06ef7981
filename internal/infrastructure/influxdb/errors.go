package influxdb

import "errors"

// Errors returned by Connect and Client. Point writes are asynchronous,
// so their failures arrive through the SetOnError callback instead.
var (
	// ErrDisabled means telemetry is switched off in config.yaml.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed wraps the ping failure seen by Connect.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned by HealthCheck when the client is closed.
	ErrNotConnected = errors.New("influxdb: not connected")
)
