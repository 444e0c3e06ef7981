// Package snapshot turns the cloud's full-state snapshot into equipment
// entities.
//
// The payload is validated against an embedded JSON Schema before any
// entity is built, so a structurally broken response never reaches the
// registry. Records carrying an "error" field are skipped; thermostat
// zones listed under "zoning_devices" become entities of their own.
package snapshot
