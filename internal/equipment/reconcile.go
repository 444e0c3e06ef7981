package equipment

import "sort"

// Outcome classifies the result of reconciling one value-record.
type Outcome int

const (
	// OutcomeSkipped means the record had no status, no usable value, or no enumText.
	OutcomeSkipped Outcome = iota

	// OutcomeConsistent means enumText[value] already equals status.
	OutcomeConsistent

	// OutcomeCorrected means value was rewritten to the index of status.
	OutcomeCorrected

	// OutcomeAmbiguous means status does not appear in enumText; value is kept.
	OutcomeAmbiguous
)

// String returns a lowercase label for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeConsistent:
		return "consistent"
	case OutcomeCorrected:
		return "corrected"
	case OutcomeAmbiguous:
		return "ambiguous"
	default:
		return "skipped"
	}
}

// Reconciliation describes what Reconcile did to one record.
type Reconciliation struct {
	Key     string
	Outcome Outcome
	Status  string
	From    int
	To      int
}

// Reconcile repairs index drift in an enumerated value-record.
//
// The status text is authoritative. When enumText[value] differs from
// status and status appears verbatim in enumText, value is rewritten to
// that position. When status is absent from enumText the record is left
// untouched and the outcome is OutcomeAmbiguous.
//
// The record's own constraints.enumText is used when present, otherwise
// fallback. The record is modified in place.
func Reconcile(record map[string]any, fallback []string) Reconciliation {
	enum := enumTextOf(record)
	if len(enum) == 0 {
		enum = fallback
	}

	status, ok := record[FieldStatus].(string)
	if !ok || len(enum) == 0 {
		return Reconciliation{Outcome: OutcomeSkipped}
	}

	value, ok := toIndex(record[FieldValue])
	if !ok {
		return Reconciliation{Outcome: OutcomeSkipped, Status: status}
	}

	if value >= 0 && value < len(enum) && enum[value] == status {
		return Reconciliation{Outcome: OutcomeConsistent, Status: status, From: value, To: value}
	}

	for pos, text := range enum {
		if text == status {
			record[FieldValue] = float64(pos)
			return Reconciliation{Outcome: OutcomeCorrected, Status: status, From: value, To: pos}
		}
	}

	return Reconciliation{Outcome: OutcomeAmbiguous, Status: status, From: value, To: value}
}

// ReconcileAll runs Reconcile over every capability record in update,
// falling back to the enumText held in reference for records that carry
// no constraints of their own (the usual shape of a push).
//
// Corrections are logged at info level and ambiguities at warn level.
// Only records with an outcome other than skipped or consistent are
// returned, ordered by key.
func ReconcileAll(update map[string]any, reference Attributes, logger Logger, logArgs ...any) []Reconciliation {
	if logger == nil {
		logger = noopLogger{}
	}

	keys := make([]string, 0, len(update))
	for key := range update {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []Reconciliation
	for _, key := range keys {
		if !IsCapability(key) {
			continue
		}
		rec, ok := update[key].(map[string]any)
		if !ok {
			continue
		}

		r := Reconcile(rec, reference.EnumText(key))
		r.Key = key

		switch r.Outcome {
		case OutcomeCorrected:
			logger.Info("corrected enum index from status",
				append([]any{"key", key, "status", r.Status, "from", r.From, "to", r.To}, logArgs...)...)
			out = append(out, r)
		case OutcomeAmbiguous:
			logger.Warn("enum status not found in enumText, keeping value",
				append([]any{"key", key, "status", r.Status, "value", r.From}, logArgs...)...)
			out = append(out, r)
		}
	}
	return out
}
