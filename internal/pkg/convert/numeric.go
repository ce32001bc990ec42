// Package convert provides tolerant numeric coercion for upstream payloads.
package convert

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ToFloat64 coerces the loose numeric shapes the bot backend emits
// (float, int, json.Number, numeric string) to float64. Anything else,
// including nil and parse failures, becomes 0 — missing numeric fields are
// deliberately lenient.
func ToFloat64(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	default:
		return 0
	}
}

// ToString stringifies scalar identifiers; upstream trade IDs arrive as
// either integers or strings.
func ToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}
