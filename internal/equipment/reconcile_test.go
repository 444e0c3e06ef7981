package equipment

import "testing"

func TestReconcile(t *testing.T) {
	tests := []struct {
		name      string
		record    map[string]any
		fallback  []string
		want      Outcome
		wantValue any
	}{
		{
			name:      "consistent record untouched",
			record:    enumRecord(1, "Auto", "Off", "Auto", "Heating"),
			want:      OutcomeConsistent,
			wantValue: 1,
		},
		{
			name:      "drifted index corrected from status",
			record:    enumRecord(2, "Auto", "Off", "Auto", "Heating"),
			want:      OutcomeCorrected,
			wantValue: 1.0,
		},
		{
			name:      "out of range index corrected",
			record:    enumRecord(9, "Heating", "Off", "Auto", "Heating"),
			want:      OutcomeCorrected,
			wantValue: 2.0,
		},
		{
			name:      "vendor spelling mismatch left alone",
			record:    enumRecord(2, "cool", "off", "heat", "cooling"),
			want:      OutcomeAmbiguous,
			wantValue: 2,
		},
		{
			name:      "fallback enumText used for bare push record",
			record:    map[string]any{"value": 0.0, "status": "Heating"},
			fallback:  []string{"Off", "Auto", "Heating"},
			want:      OutcomeCorrected,
			wantValue: 2.0,
		},
		{
			name:      "no status is skipped",
			record:    map[string]any{"value": 3.0},
			fallback:  []string{"Off", "Auto"},
			want:      OutcomeSkipped,
			wantValue: 3.0,
		},
		{
			name:      "no enumText is skipped",
			record:    map[string]any{"value": 3.0, "status": "Auto"},
			want:      OutcomeSkipped,
			wantValue: 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.record, tt.fallback)
			if got.Outcome != tt.want {
				t.Errorf("Outcome = %v, want %v", got.Outcome, tt.want)
			}
			if tt.record["value"] != tt.wantValue {
				t.Errorf("value = %#v, want %#v", tt.record["value"], tt.wantValue)
			}
		})
	}
}

func TestReconcileAll_EveryEnumeratedKey(t *testing.T) {
	logger := &recordingLogger{}
	update := map[string]any{
		"@MODE":     map[string]any{"value": 0.0, "status": "Heating"},
		"@FANSPEED": map[string]any{"value": 0.0, "status": "High"},
		"@SETPOINT": 120.0,
		"device":    "ignored",
	}
	reference := Attributes{
		"@MODE":     enumRecord(0, "Off", "Off", "Heating"),
		"@FANSPEED": enumRecord(0, "Auto", "Auto", "Low", "High"),
	}

	results := ReconcileAll(update, reference, logger)

	if len(results) != 2 {
		t.Fatalf("ReconcileAll() returned %d results, want 2", len(results))
	}
	if results[0].Key != "@FANSPEED" || results[0].To != 2 {
		t.Errorf("results[0] = %+v, want @FANSPEED corrected to 2", results[0])
	}
	if results[1].Key != "@MODE" || results[1].To != 1 {
		t.Errorf("results[1] = %+v, want @MODE corrected to 1", results[1])
	}
	if !logger.has("INFO: corrected enum index from status") {
		t.Error("expected correction to be logged")
	}
}

func TestReconcileAll_AmbiguityLogged(t *testing.T) {
	logger := &recordingLogger{}
	update := map[string]any{
		"@MODE": enumRecord(2, "cool", "off", "heat", "cooling"),
	}

	results := ReconcileAll(update, nil, logger)

	if len(results) != 1 || results[0].Outcome != OutcomeAmbiguous {
		t.Fatalf("ReconcileAll() = %+v, want one ambiguous result", results)
	}
	if !logger.has("WARN: enum status not found in enumText, keeping value") {
		t.Error("expected ambiguity to be logged")
	}
}
