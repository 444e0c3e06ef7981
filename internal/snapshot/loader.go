package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/nerrad567/econet-core/internal/equipment"
)

// Snapshot record keys. "equiptments" is the vendor's spelling.
const (
	keyLocations     = "locations"
	keyEquipments    = "equiptments"
	keyZoningDevices = "zoning_devices"
	keyError         = "error"
)

//go:embed snapshot.schema.json
var schemaDoc []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// schema compiles the embedded snapshot schema once.
func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaDoc))
		if err != nil {
			schemaErr = fmt.Errorf("decoding snapshot schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("snapshot.schema.json", doc); err != nil {
			schemaErr = fmt.Errorf("adding snapshot schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile("snapshot.schema.json")
	})
	return compiledSchema, schemaErr
}

// Result is the set of entities materialised from one snapshot, in
// snapshot order with zones following their parent.
type Result struct {
	Equipment []*equipment.Equipment
	Index     map[equipment.Key]*equipment.Equipment

	// Skipped counts records dropped for an error field or a missing key.
	Skipped int

	// Duplicates counts records whose key was already taken.
	Duplicates int
}

// Load validates payload (the "results" object of a snapshot response)
// and builds one entity per equipment record and per zoning sub-device.
//
// Parameters:
//   - payload: raw JSON of the results object
//   - env: collaborators handed to every entity
//
// Returns:
//   - *Result: entities in snapshot order plus a key index
//   - error: ErrMalformedResponse if the payload violates the snapshot structure
func Load(payload json.RawMessage, env equipment.Env) (*Result, error) {
	sch, err := schema()
	if err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	// Decode again with the standard decoder so numbers arrive as float64.
	var results struct {
		Locations []struct {
			Equipments []map[string]any `json:"equiptments"`
		} `json:"locations"`
	}
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	l := &loader{
		env:    env,
		logger: loggerOf(env),
		result: &Result{Index: make(map[equipment.Key]*equipment.Equipment)},
	}
	for _, loc := range results.Locations {
		for _, record := range loc.Equipments {
			l.add(record, nil)
		}
	}
	return l.result, nil
}

type loader struct {
	env    equipment.Env
	logger equipment.Logger
	result *Result
}

// add materialises record and, recursively, its zoning devices. parent is
// nil for top-level records.
func (l *loader) add(record map[string]any, parent *equipment.Equipment) {
	if errVal, ok := record[keyError]; ok {
		l.logger.Debug("skipping equipment record with error",
			"device_name", record[equipment.MetaDeviceName], "error", errVal)
		l.result.Skipped++
		return
	}

	zones, _ := record[keyZoningDevices].([]any)
	own := make(map[string]any, len(record))
	for k, v := range record {
		if k != keyZoningDevices {
			own[k] = v
		}
	}

	kind := equipment.ParseKind(stringField(own, equipment.MetaDeviceType))
	if parent != nil {
		if stringField(own, equipment.MetaDeviceName) == "" {
			own[equipment.MetaDeviceName] = parent.DeviceName()
		}
		if kind == equipment.KindUnknown {
			kind = parent.Kind()
		}
	}
	if kind == equipment.KindUnknown {
		l.logger.Error("unknown equipment type",
			"device_type", own[equipment.MetaDeviceType], "device_name", own[equipment.MetaDeviceName])
	}

	name, serial := stringField(own, equipment.MetaDeviceName), stringField(own, equipment.MetaSerialNumber)
	if name == "" || serial == "" {
		l.logger.Warn("skipping equipment record without device_name or serial_number",
			"device_name", name, "serial_number", serial)
		l.result.Skipped++
		return
	}

	eq := equipment.New(kind, own, l.env)
	if parent != nil {
		eq.SetParent(parent.Key())
	}

	if _, dup := l.result.Index[eq.Key()]; dup {
		l.logger.Warn("duplicate equipment key in snapshot, keeping first", "key", eq.Key().String())
		l.result.Duplicates++
	} else {
		l.result.Index[eq.Key()] = eq
		l.result.Equipment = append(l.result.Equipment, eq)
	}

	for _, z := range zones {
		if zone, ok := z.(map[string]any); ok {
			l.add(zone, eq)
		}
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func loggerOf(env equipment.Env) equipment.Logger {
	if env.Logger != nil {
		return env.Logger
	}
	return discard{}
}

type discard struct{}

func (discard) Debug(string, ...any) {}
func (discard) Info(string, ...any)  {}
func (discard) Warn(string, ...any)  {}
func (discard) Error(string, ...any) {}
