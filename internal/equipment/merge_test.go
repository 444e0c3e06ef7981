package equipment

import (
	"reflect"
	"testing"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name        string
		current     Attributes
		update      map[string]any
		want        Attributes
		wantChanged []string
		wantReject  []string
	}{
		{
			name:        "scalar into record keeps siblings",
			current:     Attributes{"@SETPOINT": map[string]any{"value": 120.0, "constraints": map[string]any{"lowerLimit": 110.0, "upperLimit": 140.0}}},
			update:      map[string]any{"@SETPOINT": 125},
			want:        Attributes{"@SETPOINT": map[string]any{"value": 125.0, "constraints": map[string]any{"lowerLimit": 110.0, "upperLimit": 140.0}}},
			wantChanged: []string{"@SETPOINT"},
		},
		{
			name:        "record merges field by field",
			current:     Attributes{"@MODE": map[string]any{"value": 1.0, "status": "Auto", "constraints": map[string]any{"enumText": []any{"Off", "Auto"}}}},
			update:      map[string]any{"@MODE": map[string]any{"value": 0, "status": "Off"}},
			want:        Attributes{"@MODE": map[string]any{"value": 0.0, "status": "Off", "constraints": map[string]any{"enumText": []any{"Off", "Auto"}}}},
			wantChanged: []string{"@MODE"},
		},
		{
			name:        "nested constraints merge recursively",
			current:     Attributes{"@SETPOINT": map[string]any{"value": 120.0, "constraints": map[string]any{"lowerLimit": 110.0, "upperLimit": 140.0}}},
			update:      map[string]any{"@SETPOINT": map[string]any{"constraints": map[string]any{"upperLimit": 150}}},
			want:        Attributes{"@SETPOINT": map[string]any{"value": 120.0, "constraints": map[string]any{"lowerLimit": 110.0, "upperLimit": 150.0}}},
			wantChanged: []string{"@SETPOINT"},
		},
		{
			name:        "scalar overwrites scalar",
			current:     Attributes{"@RUNNING": ""},
			update:      map[string]any{"@RUNNING": "Heating"},
			want:        Attributes{"@RUNNING": "Heating"},
			wantChanged: []string{"@RUNNING"},
		},
		{
			name:        "new key is added",
			current:     Attributes{"@RUNNING": ""},
			update:      map[string]any{"@SIGNAL": -50},
			want:        Attributes{"@RUNNING": "", "@SIGNAL": -50.0},
			wantChanged: []string{"@SIGNAL"},
		},
		{
			name:       "keys without sigil are rejected",
			current:    Attributes{"@RUNNING": ""},
			update:     map[string]any{"MODE": 1, "@": 2},
			want:       Attributes{"@RUNNING": ""},
			wantReject: []string{"@", "MODE"},
		},
		{
			name:    "equal values report no change",
			current: Attributes{"@SETPOINT": map[string]any{"value": 120.0}, "@RUNNING": "Heating"},
			update:  map[string]any{"@SETPOINT": 120, "@RUNNING": "Heating"},
			want:    Attributes{"@SETPOINT": map[string]any{"value": 120.0}, "@RUNNING": "Heating"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Merge(tt.current, tt.update)

			if !reflect.DeepEqual(tt.current, tt.want) {
				t.Errorf("after Merge() = %#v, want %#v", tt.current, tt.want)
			}
			if !reflect.DeepEqual(result.Changed, tt.wantChanged) {
				t.Errorf("Changed = %v, want %v", result.Changed, tt.wantChanged)
			}
			if !reflect.DeepEqual(result.Rejected, tt.wantReject) {
				t.Errorf("Rejected = %v, want %v", result.Rejected, tt.wantReject)
			}
		})
	}
}

func TestMerge_Idempotent(t *testing.T) {
	current := Attributes{
		"@MODE":     enumRecord(1, "Auto", "Off", "Auto"),
		"@SETPOINT": rangeRecord(120, 110, 140),
	}
	update := map[string]any{
		"@MODE":     map[string]any{"value": 0, "status": "Off"},
		"@SETPOINT": 125,
		"@RUNNING":  "Heating",
	}

	first := Merge(current, update)
	afterFirst := current.Clone()

	second := Merge(current, update)

	if !first.HasChanges() {
		t.Fatal("first Merge() reported no changes")
	}
	if second.HasChanges() {
		t.Errorf("second Merge() Changed = %v, want none", second.Changed)
	}
	if !reflect.DeepEqual(current, afterFirst) {
		t.Error("second Merge() altered attributes")
	}
}

func TestMerge_NeverRemovesKeys(t *testing.T) {
	current := Attributes{
		"@MODE":     enumRecord(1, "Auto", "Off", "Auto"),
		"@SETPOINT": rangeRecord(120, 110, 140),
		"@RUNNING":  "",
	}
	before := len(current)

	Merge(current, map[string]any{"@RUNNING": "Heating"})
	Merge(current, map[string]any{"@SETPOINT": map[string]any{"value": 118}})
	Merge(current, map[string]any{})

	if len(current) != before {
		t.Fatalf("key count = %d, want %d", len(current), before)
	}
	for _, key := range []string{"@MODE", "@SETPOINT", "@RUNNING"} {
		if !current.Has(key) {
			t.Errorf("key %s was removed", key)
		}
	}
}

func TestMerge_DoesNotAliasUpdate(t *testing.T) {
	current := Attributes{"@MODE": enumRecord(0, "Off", "Off", "Auto")}
	nested := map[string]any{"enumText": []any{"Off", "Auto", "Eco"}}
	update := map[string]any{"@MODE": map[string]any{"constraints": nested}}

	Merge(current, update)
	nested["enumText"] = []any{"mutated"}

	if got := current.EnumText("@MODE"); len(got) != 3 {
		t.Errorf("EnumText = %v, want 3 labels", got)
	}
}
