package assessment

import "testing"

func TestEvaluate(t *testing.T) {
	answers := Answers{
		"name":   "Hello World",
		"years":  "7",
		"score":  4.0,
		"count":  3,
		"tf":     "true",
		"skills": []any{0.0, 2.0},
		"blank":  "",
		"nil":    nil,
		"zero":   0.0,
		"zeroS":  "0",
		"file":   map[string]any{"name": "cv.pdf"},
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{name: "equals string", cond: Condition{QuestionID: "tf", Operator: OpEquals, Value: "true"}, want: true},
		{name: "equals is strict on kind", cond: Condition{QuestionID: "tf", Operator: OpEquals, Value: true}, want: false},
		{name: "equals number across go types", cond: Condition{QuestionID: "count", Operator: OpEquals, Value: 3.0}, want: true},
		{name: "equals string vs number", cond: Condition{QuestionID: "years", Operator: OpEquals, Value: 7.0}, want: false},
		{name: "equals absent", cond: Condition{QuestionID: "missing", Operator: OpEquals, Value: ""}, want: false},
		{name: "equals slice never matches", cond: Condition{QuestionID: "skills", Operator: OpEquals, Value: []any{0.0, 2.0}}, want: false},
		{name: "not_equals negates", cond: Condition{QuestionID: "tf", Operator: OpNotEquals, Value: "false"}, want: true},
		{name: "not_equals absent", cond: Condition{QuestionID: "missing", Operator: OpNotEquals, Value: "x"}, want: true},
		{name: "contains case-insensitive", cond: Condition{QuestionID: "name", Operator: OpContains, Value: "WORLD"}, want: true},
		{name: "contains no match", cond: Condition{QuestionID: "name", Operator: OpContains, Value: "moon"}, want: false},
		{name: "contains number coerced", cond: Condition{QuestionID: "score", Operator: OpContains, Value: 4.0}, want: true},
		{name: "contains slice joined", cond: Condition{QuestionID: "skills", Operator: OpContains, Value: "0,2"}, want: true},
		{name: "contains absent is empty string", cond: Condition{QuestionID: "missing", Operator: OpContains, Value: ""}, want: true},
		{name: "contains absent non-empty needle", cond: Condition{QuestionID: "missing", Operator: OpContains, Value: "a"}, want: false},
		{name: "greater_than numeric string", cond: Condition{QuestionID: "years", Operator: OpGreater, Value: "5"}, want: true},
		{name: "greater_than equal is false", cond: Condition{QuestionID: "score", Operator: OpGreater, Value: 4.0}, want: false},
		{name: "greater_than non-numeric", cond: Condition{QuestionID: "name", Operator: OpGreater, Value: 1.0}, want: false},
		{name: "greater_than non-numeric threshold", cond: Condition{QuestionID: "score", Operator: OpGreater, Value: "abc"}, want: false},
		{name: "greater_than absent", cond: Condition{QuestionID: "missing", Operator: OpGreater, Value: -1.0}, want: false},
		{name: "less_than", cond: Condition{QuestionID: "score", Operator: OpLess, Value: 5.0}, want: true},
		{name: "less_than non-numeric", cond: Condition{QuestionID: "file", Operator: OpLess, Value: 5.0}, want: false},
		{name: "unknown operator fails open", cond: Condition{QuestionID: "name", Operator: "matches_regex", Value: "x"}, want: true},
		{name: "empty operator fails open", cond: Condition{QuestionID: "missing"}, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.cond, answers); got != tc.want {
				t.Fatalf("Evaluate(%+v) = %v, want %v", tc.cond, got, tc.want)
			}
		})
	}
}

func TestEvaluateIsEmpty(t *testing.T) {
	answers := Answers{
		"nil":        nil,
		"blank":      "",
		"zero":       0.0,
		"zeroInt":    0,
		"zeroString": "0",
		"list":       []any{1.0},
		"emptyList":  []any{},
		"false":      false,
	}

	tests := []struct {
		id   ID
		want bool
	}{
		{id: "missing", want: true},
		{id: "nil", want: true},
		{id: "blank", want: true},
		{id: "zero", want: false},
		{id: "zeroInt", want: false},
		{id: "zeroString", want: false},
		{id: "list", want: false},
		// empty arrays are not special-cased by is_empty
		{id: "emptyList", want: false},
		{id: "false", want: false},
	}

	for _, tc := range tests {
		t.Run(string(tc.id), func(t *testing.T) {
			empty := Evaluate(Condition{QuestionID: tc.id, Operator: OpIsEmpty}, answers)
			if empty != tc.want {
				t.Fatalf("is_empty(%s) = %v, want %v", tc.id, empty, tc.want)
			}
			notEmpty := Evaluate(Condition{QuestionID: tc.id, Operator: OpIsNotEmpty}, answers)
			if notEmpty == empty {
				t.Fatalf("is_not_empty(%s) must negate is_empty", tc.id)
			}
		})
	}
}

func TestEvaluateAllIsConjunctive(t *testing.T) {
	answers := Answers{"a": "yes", "b": 10.0}
	conds := []Condition{
		{QuestionID: "a", Operator: OpEquals, Value: "yes"},
		{QuestionID: "b", Operator: OpGreater, Value: 5.0},
	}
	if !EvaluateAll(conds, answers) {
		t.Fatalf("expected all conditions to hold")
	}
	if !EvaluateAll(nil, answers) {
		t.Fatalf("empty condition list must be vacuously true")
	}

	for i := range conds {
		flipped := append([]Condition(nil), conds...)
		flipped[i].Operator = OpIsEmpty
		if EvaluateAll(flipped, answers) {
			t.Fatalf("flipping condition %d to false must fail the conjunction", i)
		}
	}
}
