package assessment

import (
	"reflect"
	"testing"
)

func screeningAssessment() *Assessment {
	return &Assessment{
		ID:    "a1",
		Title: "Screening",
		Questions: []Question{
			{ID: "1", Type: TypeShortAnswer, Prompt: "Your name", Required: true},
			{
				ID:       "2",
				Type:     TypeMultipleChoice,
				Prompt:   "Preferred shift",
				Required: false,
				Conditions: []Condition{
					{QuestionID: "1", Operator: OpIsNotEmpty},
				},
				Data: TypeData{Options: []string{"Day", "Night"}},
			},
		},
	}
}

func TestResolveVisibleWithoutConditions(t *testing.T) {
	qs := []Question{
		{ID: "a", Type: TypeEssay},
		{ID: "b", Type: TypeTrueFalse},
	}
	for _, answers := range []Answers{nil, {}, {"a": "x"}, {"zzz": nil}} {
		got := ResolveVisible(qs, answers)
		if !reflect.DeepEqual(QuestionIDs(got), []ID{"a", "b"}) {
			t.Fatalf("unconditional questions must always be visible, got %v", QuestionIDs(got))
		}
	}
}

func TestResolveVisiblePreservesOrderAndAND(t *testing.T) {
	qs := []Question{
		{ID: "q1", Type: TypeTrueFalse},
		{ID: "q2", Type: TypeEssay, Conditions: []Condition{
			{QuestionID: "q1", Operator: OpEquals, Value: "true"},
			{QuestionID: "q3", Operator: OpGreater, Value: 2.0},
		}},
		{ID: "q3", Type: TypeRatingScale},
		{ID: "q4", Type: TypeEssay, Conditions: []Condition{
			{QuestionID: "q1", Operator: OpEquals, Value: "false"},
		}},
	}

	tests := []struct {
		name    string
		answers Answers
		want    []ID
	}{
		{name: "nothing answered", answers: Answers{}, want: []ID{"q1", "q3"}},
		{name: "only first condition holds", answers: Answers{"q1": "true", "q3": 1.0}, want: []ID{"q1", "q3"}},
		{name: "both conditions hold", answers: Answers{"q1": "true", "q3": 4.0}, want: []ID{"q1", "q2", "q3"}},
		{name: "other branch", answers: Answers{"q1": "false", "q3": 4.0}, want: []ID{"q1", "q3", "q4"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := QuestionIDs(ResolveVisible(qs, tc.answers))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("visible = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResolveVisibleToleratesCyclesAndUnknownTargets(t *testing.T) {
	qs := []Question{
		{ID: "x", Type: TypeEssay, Conditions: []Condition{{QuestionID: "y", Operator: OpIsNotEmpty}}},
		{ID: "y", Type: TypeEssay, Conditions: []Condition{{QuestionID: "x", Operator: OpIsNotEmpty}}},
		{ID: "z", Type: TypeEssay, Conditions: []Condition{{QuestionID: "ghost", Operator: OpIsEmpty}}},
	}
	got := QuestionIDs(ResolveVisible(qs, Answers{}))
	if !reflect.DeepEqual(got, []ID{"z"}) {
		t.Fatalf("visible = %v, want [z]", got)
	}
}

func TestFindViolations(t *testing.T) {
	visible := []Question{
		{ID: "r1", Type: TypeShortAnswer, Required: true},
		{ID: "r2", Type: TypeMultipleSelect, Required: true},
		{ID: "r3", Type: TypeRatingScale, Required: true},
		{ID: "o1", Type: TypeEssay, Required: false},
	}

	tests := []struct {
		name    string
		answers Answers
		want    []ID
	}{
		{name: "all missing", answers: Answers{}, want: []ID{"r1", "r2", "r3"}},
		{name: "nil and empty string", answers: Answers{"r1": "", "r2": nil, "r3": 0.0}, want: []ID{"r1", "r2"}},
		{name: "empty selection blocks", answers: Answers{"r1": "x", "r2": []int{}, "r3": 3.0}, want: []ID{"r2"}},
		{name: "all answered", answers: Answers{"r1": "x", "r2": []any{1.0}, "r3": 3.0}, want: []ID{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := QuestionIDs(FindViolations(visible, tc.answers))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("violations = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFindViolationsIgnoresHiddenRequired(t *testing.T) {
	qs := []Question{
		{ID: "gate", Type: TypeTrueFalse},
		{ID: "hidden", Type: TypeShortAnswer, Required: true, Conditions: []Condition{
			{QuestionID: "gate", Operator: OpEquals, Value: "true"},
		}},
	}
	answers := Answers{"gate": "false"}
	violations := FindViolations(ResolveVisible(qs, answers), answers)
	if len(violations) != 0 {
		t.Fatalf("hidden required question must not block, got %v", QuestionIDs(violations))
	}

	answers["gate"] = "true"
	violations = FindViolations(ResolveVisible(qs, answers), answers)
	if !reflect.DeepEqual(QuestionIDs(violations), []ID{"hidden"}) {
		t.Fatalf("revealed required question must block, got %v", QuestionIDs(violations))
	}
}

func TestDeriveScreeningScenario(t *testing.T) {
	a := screeningAssessment()

	d := Derive(a, Answers{})
	if !reflect.DeepEqual(QuestionIDs(d.Visible), []ID{"1"}) {
		t.Fatalf("visible = %v, want [1]", QuestionIDs(d.Visible))
	}
	if !reflect.DeepEqual(QuestionIDs(d.Violations), []ID{"1"}) {
		t.Fatalf("violations = %v, want [1]", QuestionIDs(d.Violations))
	}
	if d.CanSubmit {
		t.Fatalf("expected can_submit=false")
	}

	d = Derive(a, Answers{"1": "hello"})
	if !reflect.DeepEqual(QuestionIDs(d.Visible), []ID{"1", "2"}) {
		t.Fatalf("visible = %v, want [1 2]", QuestionIDs(d.Visible))
	}
	if len(d.Violations) != 0 {
		t.Fatalf("violations = %v, want none", QuestionIDs(d.Violations))
	}
	if !d.CanSubmit {
		t.Fatalf("expected can_submit=true")
	}
}
