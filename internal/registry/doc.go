// Package registry holds the session's equipment entities.
//
// The registry is populated lazily from the first snapshot fetch and
// offers O(1) lookup by composite key and by device name (for fan-out to
// a thermostat's zones). Refresh merges a new snapshot into the existing
// entities instead of replacing them.
//
// Usage:
//
//	reg := registry.New(client, equipment.Env{Logger: logger, Publisher: publisher})
//	reg.SetLogger(logger)
//	byKind, err := reg.GetByType(ctx, equipment.KindWaterHeater, equipment.KindThermostat)
package registry
