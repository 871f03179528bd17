package monsters

import (
	"encoding/json"
)

// Normalize sanitises a decoded JSON value before it is stored. Empty strings
// are dropped from maps and become nil elsewhere, json.Number becomes int64
// when integral and float64 otherwise, and maps and slices are walked
// recursively.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if s, ok := item.(string); ok && s == "" {
				continue
			}
			out[k] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, Normalize(item))
		}
		return out
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case string:
		if val == "" {
			return nil
		}
		return val
	default:
		return val
	}
}
