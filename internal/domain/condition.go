package domain

import "math"

// equalsTolerance is the absolute tolerance used for float equality so
// metrics like 99.9995 still compare equal to a threshold of 100.
const equalsTolerance = 1e-3

// Check compares a metric value against a threshold using the given
// condition. It is a pure function with no side effects. Unknown
// conditions never match.
func Check(value float64, condition Condition, threshold float64) bool {
	switch condition {
	case ConditionGreaterThan:
		return value > threshold
	case ConditionLessThan:
		return value < threshold
	case ConditionEquals:
		return math.Abs(value-threshold) < equalsTolerance
	case ConditionNotEquals:
		return math.Abs(value-threshold) >= equalsTolerance
	default:
		return false
	}
}
