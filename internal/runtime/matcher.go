package runtime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/verith/attest/internal/profile"
)

// Evaluate applies an expectation operator to an actual value.
// Returns an error for operator misuse (non-numeric comparison, invalid
// pattern, missing list); such errors become anomalies, not failures.
func Evaluate(op string, actual, expected any) (bool, error) {
	switch op {
	case profile.OpEqual:
		return equalValues(actual, expected), nil

	case profile.OpNotEqual:
		return !equalValues(actual, expected), nil

	case profile.OpMatch:
		pattern, ok := expected.(string)
		if !ok {
			return false, fmt.Errorf("op %q requires a string pattern, got %T", op, expected)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		return re.MatchString(stringValue(actual)), nil

	case profile.OpContains:
		return strings.Contains(stringValue(actual), stringValue(expected)), nil

	case profile.OpGreaterThan, profile.OpAtLeast, profile.OpLessThan, profile.OpAtMost:
		return compareNumeric(op, actual, expected)

	case profile.OpExists:
		truthy := !isZeroValue(actual)
		if expected == nil {
			return truthy, nil
		}
		want, ok := expected.(bool)
		if !ok {
			return false, fmt.Errorf("op %q requires a bool value, got %T", op, expected)
		}
		return truthy == want, nil

	case profile.OpIn:
		list, ok := expected.([]any)
		if !ok {
			return false, fmt.Errorf("op %q requires a list value, got %T", op, expected)
		}
		for _, item := range list {
			if equalValues(actual, item) {
				return true, nil
			}
		}
		return false, nil

	default:
		return false, fmt.Errorf("unknown operator %q", op)
	}
}

// equalValues compares with numeric coercion: 2 == 2.0 == int64(2).
// Everything else compares by string rendering, which makes YAML's
// loose scalar typing ("0600" vs 0600) behave as authors expect.
func equalValues(actual, expected any) bool {
	af, aok := toFloat(actual)
	ef, eok := toFloat(expected)
	if aok && eok {
		return af == ef
	}
	if ab, ok := actual.(bool); ok {
		if eb, ok := expected.(bool); ok {
			return ab == eb
		}
	}
	return stringValue(actual) == stringValue(expected)
}

// compareNumeric handles gt/gte/lt/lte.
func compareNumeric(op string, actual, expected any) (bool, error) {
	af, aok := toFloat(actual)
	if !aok {
		return false, fmt.Errorf("op %q: actual value %v is not numeric", op, actual)
	}
	ef, eok := toFloat(expected)
	if !eok {
		return false, fmt.Errorf("op %q: expected value %v is not numeric", op, expected)
	}

	switch op {
	case profile.OpGreaterThan:
		return af > ef, nil
	case profile.OpAtLeast:
		return af >= ef, nil
	case profile.OpLessThan:
		return af < ef, nil
	default:
		return af <= ef, nil
	}
}

// toFloat coerces numeric types and numeric strings to float64.
// Strings with leading zeros ("0600") are NOT treated as numbers - they
// are almost always file modes and must compare as strings.
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case string:
		trimmed := strings.TrimSpace(val)
		if len(trimmed) > 1 && trimmed[0] == '0' && trimmed[1] != '.' {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// isZeroValue reports whether a property value is its zero value.
func isZeroValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case int:
		return val == 0
	case int64:
		return val == 0
	case float64:
		return val == 0
	default:
		return false
	}
}

// stringValue renders a property value for comparison and reporting.
func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
