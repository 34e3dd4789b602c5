package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Normalize maps an arbitrary Go value onto the scalar set used by Record.
// NaN becomes nil (missing).
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool, string, int64, time.Time:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return float64(x)
		}
		return int64(x)
	case float32:
		return normalizeFloat(float64(x))
	case float64:
		return normalizeFloat(x)
	case json.Number:
		return numberValue(x)
	case []byte:
		return string(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func normalizeFloat(f float64) any {
	if math.IsNaN(f) {
		return nil
	}
	return f
}

// numberValue keeps integer literals as int64 and everything else as float64.
func numberValue(n json.Number) any {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	f, err := n.Float64()
	if err != nil {
		return s
	}
	return normalizeFloat(f)
}

// Float returns v as a float64 when it is numeric. Booleans are not numeric.
func Float(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

// Key returns a canonical string for v such that equal values (including int64
// and float64 holding the same number) share a key.
func Key(v any) string {
	switch x := v.(type) {
	case nil:
		return "null:"
	case bool:
		return "bool:" + strconv.FormatBool(x)
	case int64:
		return "num:" + strconv.FormatFloat(float64(x), 'g', -1, 64)
	case float64:
		return "num:" + strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return "time:" + x.UTC().Format(time.RFC3339Nano)
	case string:
		return "str:" + x
	default:
		return "any:" + fmt.Sprint(x)
	}
}

// FormatCell renders v as a CSV cell. nil becomes the empty string.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// jsonValue renders v as a JSON-safe value.
func jsonValue(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return x
	}
}

var naTokens = map[string]struct{}{
	"":     {},
	"#N/A": {},
	"<NA>": {},
	"N/A":  {},
	"n/a":  {},
	"NA":   {},
	"NULL": {},
	"null": {},
	"NaN":  {},
	"nan":  {},
	"None": {},
}

// IsMissing reports whether a raw text cell denotes a missing value.
func IsMissing(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

// ParseBool accepts the boolean literals recognized in text cells.
func ParseBool(s string) (bool, bool) {
	switch strings.TrimSpace(s) {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	default:
		return false, false
	}
}

// coerceColumn converts raw text cells of one column into typed values.
//
// The whole column is promoted together: int64 when every present cell is an
// integer, float64 when every present cell is a number, bool when every present
// cell is a boolean literal, otherwise the raw strings are kept.
func coerceColumn(cells []string) []any {
	out := make([]any, len(cells))
	allInt, allFloat, allBool := true, true, true
	seen := false
	for _, c := range cells {
		if IsMissing(c) {
			continue
		}
		seen = true
		v := strings.TrimSpace(c)
		if allInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allFloat = false
			}
		}
		if allBool {
			if _, ok := ParseBool(v); !ok {
				allBool = false
			}
		}
	}

	for i, c := range cells {
		if IsMissing(c) {
			out[i] = nil
			continue
		}
		v := strings.TrimSpace(c)
		switch {
		case !seen:
			out[i] = c
		case allInt:
			n, _ := strconv.ParseInt(v, 10, 64)
			out[i] = n
		case allFloat:
			f, _ := strconv.ParseFloat(v, 64)
			out[i] = normalizeFloat(f)
		case allBool:
			b, _ := ParseBool(v)
			out[i] = b
		default:
			out[i] = c
		}
	}
	return out
}
