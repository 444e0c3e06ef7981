package equipment

import (
	"reflect"
	"sort"
)

// MergeResult reports which keys a Merge changed or refused.
type MergeResult struct {
	// Changed holds capability keys whose stored value differs after the merge.
	Changed []string

	// Rejected holds keys skipped because they lack the capability sigil.
	Rejected []string
}

// HasChanges reports whether any capability changed.
func (r MergeResult) HasChanges() bool {
	return len(r.Changed) > 0
}

// Merge folds update into current.
//
// For each key of update:
//   - keys without the sigil are rejected and skipped
//   - a record merges field by field into an existing record, recursing
//     into nested maps, or replaces a non-record value
//   - a scalar replaces the value field of an existing record, or the
//     stored scalar otherwise
//
// Numbers are normalised to float64 first. Keys are processed in sorted
// order so Changed and Rejected are deterministic.
func Merge(current Attributes, update map[string]any) MergeResult {
	var result MergeResult

	keys := make([]string, 0, len(update))
	for key := range update {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !IsCapability(key) {
			result.Rejected = append(result.Rejected, key)
			continue
		}
		if mergeKey(current, key, normalizeValue(update[key])) {
			result.Changed = append(result.Changed, key)
		}
	}
	return result
}

func mergeKey(current Attributes, key string, incoming any) bool {
	existing, present := current[key]

	if rec, ok := incoming.(map[string]any); ok {
		if existingRec, isRec := existing.(map[string]any); isRec {
			return mergeFields(existingRec, rec)
		}
		current[key] = rec
		return true
	}

	if existingRec, ok := existing.(map[string]any); ok {
		if _, hasValue := existingRec[FieldValue]; hasValue {
			if reflect.DeepEqual(existingRec[FieldValue], incoming) {
				return false
			}
			existingRec[FieldValue] = incoming
			return true
		}
	}

	if present && reflect.DeepEqual(existing, incoming) {
		return false
	}
	current[key] = incoming
	return true
}

// mergeFields writes src into dst, recursing into nested maps present on
// both sides. It reports whether anything in dst changed.
func mergeFields(dst, src map[string]any) bool {
	changed := false
	for field, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if dstSub, isMap := dst[field].(map[string]any); isMap {
				if mergeFields(dstSub, sub) {
					changed = true
				}
				continue
			}
		}
		if cur, ok := dst[field]; ok && reflect.DeepEqual(cur, v) {
			continue
		}
		dst[field] = deepCopyValue(v)
		changed = true
	}
	return changed
}
