// Package equipment models EcoNet appliances and keeps their capability
// state coherent.
//
// An Equipment is keyed by (device_name, serial_number) and holds an
// attribute map from capability keys ("@MODE", "@SETPOINT", ...) to either
// a raw scalar or a value-record:
//
//	{"value": 2, "status": "Heating", "constraints": {"enumText": ["Off", "Auto", "Heating"]}}
//
// # Update Pipeline
//
//	update ──▶ ReconcileAll ──▶ Merge ──▶ OnChange callbacks
//	           (enum index      (field-wise,  (once per update,
//	            repair)          sigil only)   only if changed)
//
// Reconcile treats a record's status text as authoritative and rewrites a
// drifted enum index to match it. Merge never removes keys and writes a
// bare scalar into the value field of an existing record.
//
// # Views
//
// Kind-specific accessors and setters live on the Thermostat and
// WaterHeater views, obtained with (*Equipment).Thermostat and
// (*Equipment).WaterHeater. Setters validate against the entity's current
// enumText and limits; a rejected command is logged and not published.
//
// # Usage
//
//	ts, ok := eq.Thermostat()
//	if ok && ts.Mode() != equipment.ThermostatModeHeating {
//	    _ = ts.SetMode(equipment.ThermostatModeHeating) // publishes {"@MODE": <index>}
//	}
package equipment
