package validate

import (
	"encoding/json"
	"math"
	"strconv"

	"bastion-hq/bastion/pkg/schema"
)

// Classify reports the kind of a payload value as it appears in diagnostics.
//
// Numbers are integers when their value is integral and fits in a 64-bit
// signed or unsigned integer. For json.Number the literal decides: "1.0" is a
// float, "1" is an integer. Nil and unrecognized node types classify as
// string.
func Classify(v any) schema.FieldType {
	switch n := v.(type) {
	case string:
		return schema.FieldTypeString
	case bool:
		return schema.FieldTypeBoolean
	case []any:
		return schema.FieldTypeArray
	case map[string]any:
		return schema.FieldTypeObject
	case json.Number:
		if isIntegerLiteral(string(n)) {
			return schema.FieldTypeInteger
		}
		return schema.FieldTypeFloat
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return schema.FieldTypeInteger
	case float32:
		return classifyFloat(float64(n))
	case float64:
		return classifyFloat(n)
	}
	return schema.FieldTypeString
}

// Matches reports whether v satisfies the expected kind. An integer satisfies
// float and a datetime is any string; no other widening applies.
func Matches(expected schema.FieldType, v any) bool {
	actual := Classify(v)
	switch expected {
	case schema.FieldTypeFloat:
		return actual == schema.FieldTypeFloat || actual == schema.FieldTypeInteger
	case schema.FieldTypeDateTime:
		return actual == schema.FieldTypeString
	}
	return actual == expected
}

func isIntegerLiteral(s string) bool {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return true
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func classifyFloat(f float64) schema.FieldType {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return schema.FieldTypeFloat
	}
	// 2^64 is the first integral value outside uint64.
	if f < math.MinInt64 || f >= 18446744073709551616.0 {
		return schema.FieldTypeFloat
	}
	return schema.FieldTypeInteger
}

// asString returns v when it is a string node.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asNumber projects a numeric node onto float64 and returns the text used to
// render it in messages.
func asNumber(v any) (float64, string, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			// Out-of-range literals still carry a signed infinity.
			if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
				return 0, "", false
			}
		}
		return f, string(n), true
	case int:
		return float64(n), strconv.FormatInt(int64(n), 10), true
	case int8:
		return float64(n), strconv.FormatInt(int64(n), 10), true
	case int16:
		return float64(n), strconv.FormatInt(int64(n), 10), true
	case int32:
		return float64(n), strconv.FormatInt(int64(n), 10), true
	case int64:
		return float64(n), strconv.FormatInt(n, 10), true
	case uint:
		return float64(n), strconv.FormatUint(uint64(n), 10), true
	case uint8:
		return float64(n), strconv.FormatUint(uint64(n), 10), true
	case uint16:
		return float64(n), strconv.FormatUint(uint64(n), 10), true
	case uint32:
		return float64(n), strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return float64(n), strconv.FormatUint(n, 10), true
	case float32:
		return float64(n), formatFloat(float64(n)), true
	case float64:
		return n, formatFloat(n), true
	}
	return 0, "", false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
