package assessment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrInvalidAssessment  = errors.New("invalid assessment")
)

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeMultipleSelect QuestionType = "multiple_select"
	TypeTrueFalse      QuestionType = "true_false"
	TypeShortAnswer    QuestionType = "short_answer"
	TypeEssay          QuestionType = "essay"
	TypeRatingScale    QuestionType = "rating_scale"
	TypeLikertScale    QuestionType = "likert_scale"
	TypeFileUpload     QuestionType = "file_upload"
	TypeCoding         QuestionType = "coding"
)

// QuestionTypes lists every supported type in declaration order.
var QuestionTypes = []QuestionType{
	TypeMultipleChoice,
	TypeMultipleSelect,
	TypeTrueFalse,
	TypeShortAnswer,
	TypeEssay,
	TypeRatingScale,
	TypeLikertScale,
	TypeFileUpload,
	TypeCoding,
}

func (t QuestionType) Valid() bool {
	for _, v := range QuestionTypes {
		if v == t {
			return true
		}
	}
	return false
}

type Operator string

const (
	OpEquals     Operator = "equals"
	OpNotEquals  Operator = "not_equals"
	OpContains   Operator = "contains"
	OpGreater    Operator = "greater_than"
	OpLess       Operator = "less_than"
	OpIsEmpty    Operator = "is_empty"
	OpIsNotEmpty Operator = "is_not_empty"
)

// ID is a question or assessment identifier. Documents may carry ids as JSON
// numbers or strings; both decode to the same ID.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = numericID(n)
	return nil
}

// numericID renders numbers in their shortest form so 1, 1.0 and 1e0 name
// the same question.
func numericID(n json.Number) ID {
	if i, err := n.Int64(); err == nil {
		return ID(strconv.FormatInt(i, 10))
	}
	if f, err := n.Float64(); err == nil {
		return ID(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return ID(n.String())
}

type Condition struct {
	QuestionID ID       `json:"questionId"`
	Operator   Operator `json:"operator"`
	Value      any      `json:"value,omitempty"`
}

// TypeData is the type-dependent payload of a question. Only the fields
// relevant to the question's type are read.
type TypeData struct {
	Options       []string `json:"options,omitempty"`
	MinValue      *float64 `json:"min_value,omitempty"`
	MaxValue      *float64 `json:"max_value,omitempty"`
	Step          *float64 `json:"step,omitempty"`
	MaxLength     *int     `json:"max_length,omitempty"`
	Labels        []string `json:"labels,omitempty"`
	Language      string   `json:"language,omitempty"`
	AcceptedTypes []string `json:"accepted_types,omitempty"`
	MaxSizeMB     *float64 `json:"max_size_mb,omitempty"`
}

type Question struct {
	ID          ID           `json:"id"`
	Type        QuestionType `json:"type"`
	Prompt      string       `json:"prompt"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required"`
	Conditions  []Condition  `json:"conditions,omitempty"`
	Data        TypeData     `json:"data"`
}

type Assessment struct {
	ID          ID         `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

// Validate checks the structural invariants a session relies on. Conditions
// pointing at unknown questions are allowed; they evaluate as unanswered.
func (a *Assessment) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: nil assessment", ErrInvalidAssessment)
	}
	if strings.TrimSpace(string(a.ID)) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidAssessment)
	}
	seen := make(map[ID]struct{}, len(a.Questions))
	for i, q := range a.Questions {
		if q.ID == "" {
			return fmt.Errorf("%w: question #%d has no id", ErrInvalidAssessment, i+1)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidAssessment, q.ID)
		}
		seen[q.ID] = struct{}{}
		if !q.Type.Valid() {
			return fmt.Errorf("%w: question %q has unsupported type %q", ErrInvalidAssessment, q.ID, q.Type)
		}
	}
	return nil
}

// Question returns the question with the given id.
func (a *Assessment) Question(id ID) (Question, bool) {
	for _, q := range a.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Answers maps question ids to stored answer values. Values are JSON-shaped:
// string, float64/int, bool, a slice of indices, or a map (file descriptor).
// A key is present only for questions that have been touched.
type Answers map[ID]any

func (m Answers) Clone() Answers {
	out := make(Answers, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		return append([]any(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case []float64:
		return append([]float64(nil), t...)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = x
		}
		return out
	default:
		return v
	}
}

// Response is one historical submission for an assessment.
type Response struct {
	ID           int64     `json:"id"`
	AssessmentID ID        `json:"assessment_id"`
	JobID        string    `json:"job_id,omitempty"`
	CandidateID  string    `json:"candidate_id"`
	Responses    Answers   `json:"responses"`
	Digest       string    `json:"responses_digest,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// ResponseFilter selects response records. Empty JobID or CandidateID means
// the field is not filtered on.
type ResponseFilter struct {
	AssessmentID ID
	JobID        string
	CandidateID  string
}

type SubmitInput struct {
	AssessmentID ID
	JobID        string
	CandidateID  string
	Responses    Answers
}
