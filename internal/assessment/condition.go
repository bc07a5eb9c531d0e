package assessment

import (
	"math"
	"strconv"
	"strings"
)

// Evaluate reports whether a single visibility condition holds for the given
// answers. It is total: unknown operators and malformed operands never panic.
// Unknown operators evaluate to true.
func Evaluate(c Condition, answers Answers) bool {
	answer, present := answers[c.QuestionID]

	switch c.Operator {
	case OpEquals:
		return present && strictEqual(answer, c.Value)
	case OpNotEquals:
		return !(present && strictEqual(answer, c.Value))
	case OpContains:
		var have string
		if present {
			have = coerceString(answer)
		}
		return strings.Contains(strings.ToLower(have), strings.ToLower(coerceString(c.Value)))
	case OpGreater:
		if !present {
			return false
		}
		return coerceNumber(answer) > coerceNumber(c.Value)
	case OpLess:
		if !present {
			return false
		}
		return coerceNumber(answer) < coerceNumber(c.Value)
	case OpIsEmpty:
		return isEmptyScalar(answer, present)
	case OpIsNotEmpty:
		return !isEmptyScalar(answer, present)
	default:
		return true
	}
}

// EvaluateAll is the conjunction of all conditions; vacuously true when empty.
func EvaluateAll(conditions []Condition, answers Answers) bool {
	for _, c := range conditions {
		if !Evaluate(c, answers) {
			return false
		}
	}
	return true
}

// isEmptyScalar treats absent, nil and "" as empty. Empty slices are not
// empty here, unlike IsAnswered.
func isEmptyScalar(v any, present bool) bool {
	if !present || v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

// strictEqual compares scalars by kind and value. Numbers compare across Go
// numeric types. Slices and maps are never equal.
func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if an, ok := numberValue(a); ok {
		bn, ok := numberValue(b)
		return ok && an == bn
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

func numberValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	}
	return 0, false
}

// coerceString renders a value the way a loose string conversion would:
// slices join their elements with commas, nil becomes "".
func coerceString(v any) string {
	if v == nil {
		return ""
	}
	if n, ok := numberValue(v); ok {
		return formatNumber(n)
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, len(t))
		for i, x := range t {
			parts[i] = coerceString(x)
		}
		return strings.Join(parts, ",")
	case []int:
		parts := make([]string, len(t))
		for i, x := range t {
			parts[i] = strconv.Itoa(x)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(t, ",")
	case map[string]any:
		return "[object Object]"
	}
	return ""
}

// coerceNumber converts to float64, yielding NaN for anything non-numeric so
// that ordered comparisons are false.
func coerceNumber(v any) float64 {
	if n, ok := numberValue(v); ok {
		return n
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return math.NaN()
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	case bool:
		if t {
			return 1
		}
		return 0
	}
	return math.NaN()
}

func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
