// Package influxdb provides InfluxDB connectivity for the EcoNet core.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, metric writing, and health monitoring.
//
// # Purpose
//
// This package stores time series for:
//   - Numeric equipment attributes, written each time a push or refresh
//     changes them (set points, signal strength, tank health)
//   - Water heater energy and water usage reports
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteAttributeMetric("WH-1", "S-1", "WH", "@SETPOINT", 125)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write errors arrive asynchronously; register SetOnError to log them.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
package influxdb
