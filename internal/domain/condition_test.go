package domain

import "testing"

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		condition Condition
		threshold float64
		want      bool
	}{
		{"greater_than true", 100, ConditionGreaterThan, 50, true},
		{"greater_than false", 50, ConditionGreaterThan, 100, false},
		{"greater_than equal is false", 100, ConditionGreaterThan, 100, false},
		{"less_than true", 50, ConditionLessThan, 100, true},
		{"less_than false", 100, ConditionLessThan, 50, false},
		{"equals exact", 100, ConditionEquals, 100, true},
		{"equals within tolerance", 100.0005, ConditionEquals, 100, true},
		{"equals outside tolerance", 100.01, ConditionEquals, 100, false},
		{"not_equals true", 100.01, ConditionNotEquals, 100, true},
		{"not_equals within tolerance", 100.0005, ConditionNotEquals, 100, false},
		{"unknown condition never matches", 100, Condition("matches"), 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Check(tt.value, tt.condition, tt.threshold); got != tt.want {
				t.Errorf("Check(%v, %v, %v) = %v, want %v",
					tt.value, tt.condition, tt.threshold, got, tt.want)
			}
		})
	}
}
