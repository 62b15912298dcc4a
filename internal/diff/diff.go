// Package diff computes field-level differences between two snapshots
// of a ticket's fields, producing the {old, new} change map recorded in
// audit activities.
package diff

import (
	"encoding/json"
	"reflect"
	"sort"
)

// Change records a single field's value before and after an update.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Fields compares before and after for each of the given keys and
// returns a change entry for every key whose value differs. Equality is
// value-based: string sets (labels, assignees) compare equal regardless
// of order, and nested maps compare recursively. Keys absent from both
// maps produce no entry.
func Fields(before, after map[string]any, keys []string) map[string]Change {
	changes := make(map[string]Change)
	for _, key := range keys {
		oldVal, newVal := before[key], after[key]
		if !Equal(oldVal, newVal) {
			changes[key] = Change{Old: oldVal, New: newVal}
		}
	}
	return changes
}

// Equal reports whether two field values are logically equal. Values
// are reduced to their JSON forms first so that, for example, an int
// and a float64 holding the same number, or a nil and an empty slice
// serialized the same way, do not register as changes.
func Equal(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// normalize reduces a value to a canonical JSON-derived form:
// maps become map[string]any with normalized values, string slices are
// sorted copies, mixed slices normalize elementwise, scalars become
// their JSON types.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		// Non-serializable values fall back to identity comparison.
		return v
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return v
	}
	return canonicalize(decoded)
}

func canonicalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = canonicalize(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		allStrings := true
		for i, elem := range val {
			out[i] = canonicalize(elem)
			if _, ok := out[i].(string); !ok {
				allStrings = false
			}
		}
		// String slices are sets (labels, assignees): order-independent.
		if allStrings {
			sorted := make([]string, len(out))
			for i, elem := range out {
				sorted[i] = elem.(string)
			}
			sort.Strings(sorted)
			out = make([]any, len(sorted))
			for i, s := range sorted {
				out[i] = s
			}
		}
		return out
	default:
		return val
	}
}
