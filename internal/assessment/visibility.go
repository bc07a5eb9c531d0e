package assessment

import "reflect"

// ResolveVisible returns the questions whose conditions all hold, in input
// order. It is recomputed from scratch on every call.
func ResolveVisible(questions []Question, answers Answers) []Question {
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		if EvaluateAll(q.Conditions, answers) {
			out = append(out, q)
		}
	}
	return out
}

// FindViolations returns the visible required questions that have no
// acceptable answer, preserving the order of visible.
func FindViolations(visible []Question, answers Answers) []Question {
	out := make([]Question, 0)
	for _, q := range visible {
		if !q.Required {
			continue
		}
		v, ok := answers[q.ID]
		if !ok || !IsAnswered(v) {
			out = append(out, q)
		}
	}
	return out
}

// IsAnswered reports whether a stored value satisfies a required question:
// nil, "" and zero-length slices do not.
func IsAnswered(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len() > 0
	}
	return true
}

// Derived is the state a caller renders from: visible questions, blocking
// violations, and whether submission is currently allowed.
type Derived struct {
	Visible    []Question `json:"visible_questions"`
	Violations []Question `json:"violations"`
	CanSubmit  bool       `json:"can_submit"`
}

func Derive(a *Assessment, answers Answers) Derived {
	visible := ResolveVisible(a.Questions, answers)
	violations := FindViolations(visible, answers)
	return Derived{
		Visible:    visible,
		Violations: violations,
		CanSubmit:  len(violations) == 0,
	}
}

// QuestionIDs is a convenience for logging and tests.
func QuestionIDs(qs []Question) []ID {
	out := make([]ID, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}
