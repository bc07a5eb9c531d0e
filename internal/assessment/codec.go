package assessment

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

var (
	ErrNoInputWidget    = errors.New("question type has no answer input")
	ErrInputMismatch    = errors.New("input does not match question type")
	ErrOptionOutOfRange = errors.New("option index out of range")
	ErrRatingOutOfRange = errors.New("rating value out of range")
	ErrUnknownQuestion  = errors.New("question not in assessment")
)

const NoAnswer = "No answer"

const (
	DefaultShortAnswerMaxLength = 200
	DefaultRatingMin            = 1.0
	DefaultRatingMax            = 5.0
	DefaultRatingStep           = 1.0
)

// DefaultLikertLabels is used when a likert question carries no labels.
var DefaultLikertLabels = []string{
	"Strongly Disagree",
	"Disagree",
	"Neutral",
	"Agree",
	"Strongly Agree",
}

type InputKind string

const (
	InputSelect InputKind = "select"
	InputToggle InputKind = "toggle"
	InputChoose InputKind = "choose"
	InputText   InputKind = "text"
	InputPress  InputKind = "press"
)

// Input is a raw answer event coming from a widget. Exactly one of the
// payload fields is read, depending on Kind.
type Input struct {
	Kind   InputKind `json:"kind"`
	Index  *int      `json:"index,omitempty"`
	Choice *bool     `json:"choice,omitempty"`
	Text   *string   `json:"text,omitempty"`
	Value  *float64  `json:"value,omitempty"`
}

// Encode converts an input event into the canonical stored value for q.
// current is the value stored so far and is only read by toggles.
func Encode(q Question, current any, in Input) (any, error) {
	switch q.Type {
	case TypeMultipleChoice:
		idx, err := requireIndex(q, in, InputSelect)
		if err != nil {
			return nil, err
		}
		return strconv.Itoa(idx), nil
	case TypeMultipleSelect:
		idx, err := requireIndex(q, in, InputToggle)
		if err != nil {
			return nil, err
		}
		return ToggleIndex(current, idx), nil
	case TypeTrueFalse:
		if in.Kind != InputChoose || in.Choice == nil {
			return nil, fmt.Errorf("%w: %s expects %s", ErrInputMismatch, q.Type, InputChoose)
		}
		return strconv.FormatBool(*in.Choice), nil
	case TypeShortAnswer:
		if in.Kind != InputText || in.Text == nil {
			return nil, fmt.Errorf("%w: %s expects %s", ErrInputMismatch, q.Type, InputText)
		}
		return clampRunes(*in.Text, MaxLength(q)), nil
	case TypeEssay:
		if in.Kind != InputText || in.Text == nil {
			return nil, fmt.Errorf("%w: %s expects %s", ErrInputMismatch, q.Type, InputText)
		}
		return *in.Text, nil
	case TypeRatingScale:
		if in.Kind != InputPress || in.Value == nil {
			return nil, fmt.Errorf("%w: %s expects %s", ErrInputMismatch, q.Type, InputPress)
		}
		if !onRatingGrid(q, *in.Value) {
			return nil, fmt.Errorf("%w: %v", ErrRatingOutOfRange, *in.Value)
		}
		return *in.Value, nil
	case TypeLikertScale, TypeFileUpload, TypeCoding:
		return nil, fmt.Errorf("%w: %s", ErrNoInputWidget, q.Type)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInputMismatch, q.Type)
	}
}

func requireIndex(q Question, in Input, kind InputKind) (int, error) {
	if in.Kind != kind || in.Index == nil {
		return 0, fmt.Errorf("%w: %s expects %s", ErrInputMismatch, q.Type, kind)
	}
	idx := *in.Index
	if idx < 0 || idx >= len(q.Data.Options) {
		return 0, fmt.Errorf("%w: %d", ErrOptionOutOfRange, idx)
	}
	return idx, nil
}

// ToggleIndex flips membership of idx in the index set stored in current.
// Membership, not position, decides the result, so toggling twice restores
// the original set.
func ToggleIndex(current any, idx int) []int {
	set := indexSet(current)
	out := make([]int, 0, len(set)+1)
	removed := false
	for _, v := range set {
		if v == idx {
			removed = true
			continue
		}
		out = append(out, v)
	}
	if !removed {
		out = append(out, idx)
	}
	return out
}

// SameIndexSet compares two stored multiple_select values as sets.
func SameIndexSet(a, b any) bool {
	as, bs := indexSet(a), indexSet(b)
	if len(as) != len(bs) {
		return false
	}
	sort.Ints(as)
	sort.Ints(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func indexSet(v any) []int {
	var raw []any
	switch t := v.(type) {
	case []int:
		for _, x := range t {
			raw = append(raw, x)
		}
	case []float64:
		for _, x := range t {
			raw = append(raw, x)
		}
	case []string:
		for _, x := range t {
			raw = append(raw, x)
		}
	case []any:
		raw = t
	}

	seen := make(map[int]struct{}, len(raw))
	out := make([]int, 0, len(raw))
	for _, x := range raw {
		idx, ok := indexValue(x)
		if !ok {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}

func indexValue(v any) (int, bool) {
	if n, ok := numberValue(v); ok {
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	if s, ok := v.(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// MaxLength is the short_answer input limit in characters.
func MaxLength(q Question) int {
	if q.Data.MaxLength == nil || *q.Data.MaxLength <= 0 {
		return DefaultShortAnswerMaxLength
	}
	return *q.Data.MaxLength
}

func clampRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// RatingBounds returns min, max and step for a rating_scale question,
// defaulting to 1..5 step 1.
func RatingBounds(q Question) (float64, float64, float64) {
	lo, hi, step := DefaultRatingMin, DefaultRatingMax, DefaultRatingStep
	if q.Data.MinValue != nil {
		lo = *q.Data.MinValue
	}
	if q.Data.MaxValue != nil {
		hi = *q.Data.MaxValue
	}
	if q.Data.Step != nil && *q.Data.Step > 0 {
		step = *q.Data.Step
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi, step
}

const maxRatingChoices = 1000

// RatingChoices enumerates the rating buttons from min to max by step.
func RatingChoices(q Question) []float64 {
	lo, hi, step := RatingBounds(q)
	out := make([]float64, 0)
	for i := 0; i < maxRatingChoices; i++ {
		v := lo + float64(i)*step
		if v > hi+1e-9 {
			break
		}
		out = append(out, roundTo(v, step))
	}
	return out
}

func onRatingGrid(q Question, v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	lo, hi, step := RatingBounds(q)
	if v < lo-1e-9 || v > hi+1e-9 {
		return false
	}
	k := (v - lo) / step
	if math.Abs(k-math.Round(k)) >= 1e-9 {
		return false
	}
	// Only values RatingChoices offers as buttons are accepted.
	return math.Round(k) < maxRatingChoices
}

// roundTo trims float noise from accumulated steps like 0.1.
func roundTo(v, step float64) float64 {
	decimals := 0
	s := strconv.FormatFloat(step, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		decimals = len(s) - i - 1
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// FileDescriptor is the stored shape of a file_upload answer.
type FileDescriptor struct {
	Name string  `json:"name"`
	Size float64 `json:"size,omitempty"`
	Type string  `json:"type,omitempty"`
	URL  string  `json:"url,omitempty"`
}

func fileDescriptor(v any) (FileDescriptor, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return FileDescriptor{}, false
	}
	var fd FileDescriptor
	fd.Name, _ = m["name"].(string)
	fd.Type, _ = m["type"].(string)
	fd.URL, _ = m["url"].(string)
	if n, ok := numberValue(m["size"]); ok {
		fd.Size = n
	}
	if strings.TrimSpace(fd.Name) == "" && strings.TrimSpace(fd.URL) == "" {
		return FileDescriptor{}, false
	}
	return fd, true
}

// Review renders a stored value as review text for q.
func Review(q Question, v any) string {
	switch q.Type {
	case TypeMultipleChoice:
		idx, ok := indexValue(v)
		if !ok || idx < 0 || idx >= len(q.Data.Options) {
			return NoAnswer
		}
		return q.Data.Options[idx]
	case TypeMultipleSelect:
		set := indexSet(v)
		sort.Ints(set)
		texts := make([]string, 0, len(set))
		for _, idx := range set {
			if idx >= 0 && idx < len(q.Data.Options) {
				texts = append(texts, q.Data.Options[idx])
			}
		}
		if len(texts) == 0 {
			return NoAnswer
		}
		return strings.Join(texts, ", ")
	case TypeTrueFalse:
		switch coerceString(v) {
		case "true":
			return "True"
		case "false":
			return "False"
		default:
			return NoAnswer
		}
	case TypeShortAnswer, TypeEssay, TypeCoding:
		s, ok := v.(string)
		if !ok || s == "" {
			return NoAnswer
		}
		return s
	case TypeRatingScale:
		n := coerceNumber(v)
		if v == nil || math.IsNaN(n) {
			return NoAnswer
		}
		return formatNumber(n)
	case TypeLikertScale:
		labels := likertLabels(q)
		idx, ok := indexValue(v)
		if !ok || idx < 0 || idx >= len(labels) {
			return NoAnswer
		}
		return labels[idx]
	case TypeFileUpload:
		if s, ok := v.(string); ok && s != "" {
			return s
		}
		fd, ok := fileDescriptor(v)
		if !ok {
			return NoAnswer
		}
		name := fd.Name
		if name == "" {
			name = fd.URL
		}
		if fd.Size > 0 {
			return fmt.Sprintf("%s (%s)", name, humanize.IBytes(uint64(fd.Size)))
		}
		return name
	default:
		return NoAnswer
	}
}

func likertLabels(q Question) []string {
	if len(q.Data.Labels) > 0 {
		return q.Data.Labels
	}
	if len(q.Data.Options) > 0 {
		return q.Data.Options
	}
	return DefaultLikertLabels
}
