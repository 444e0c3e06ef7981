// Package telemetry turns equipment state into time series.
//
// Recorder observes the push router and writes every numeric capability
// that changed. UsagePoller periodically asks the cloud for each water
// heater's energy and water usage and writes the totals. Both write
// through small interfaces satisfied by *influxdb.Client.
//
// Usage:
//
//	router.AddObserver(telemetry.NewRecorder(influx))
//
//	poller := telemetry.NewUsagePoller(telemetry.UsagePollerConfig{
//	    Source:    cloud,
//	    Equipment: reg,
//	    Writer:    influx,
//	    Interval:  cfg.GetUsageInterval(),
//	})
//	poller.Start(ctx)
//	defer poller.Stop()
package telemetry
