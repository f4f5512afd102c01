package enrichment

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/foodlens/backend/internal/domain"
)

// ParseNumber coerces a loosely typed JSON value to a finite float64.
// Numeric strings are trimmed before parsing and booleans count as 1 or 0.
// The second result is false when v has no numeric reading.
func ParseNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// truthy reports whether v counts as present: non-nil, non-zero,
// non-empty string, slice or map.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	case domain.RawPayload:
		return len(x) > 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32:
		return rv.Float() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// stringify renders a scalar the way it appeared in the source document.
// Whole floats print without a fraction (56, not 56.0) and booleans as true/false.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	}
	return fmt.Sprint(v)
}

// cleanString returns the trimmed text of v, or "" when v is absent
func cleanString(v any) string {
	if !truthy(v) {
		return ""
	}
	return strings.TrimSpace(stringify(v))
}

// passthrough returns v as text with an empty-string default
func passthrough(v any) string {
	if v == nil {
		return ""
	}
	return stringify(v)
}

// splitList parses a comma separated value into trimmed, non-empty entries.
// A JSON array is accepted as an already split list.
func splitList(v any) []string {
	items := []string{}
	if !truthy(v) {
		return items
	}

	var parts []string
	if list, ok := v.([]any); ok {
		for _, item := range list {
			parts = append(parts, stringify(item))
		}
	} else {
		parts = strings.Split(stringify(v), ",")
	}

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// asMap returns v as a string-keyed map, or nil when v is not an object
func asMap(v any) map[string]any {
	switch x := v.(type) {
	case map[string]any:
		return x
	case domain.RawPayload:
		return x
	}
	return nil
}
