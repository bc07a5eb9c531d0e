package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"jobassess/internal/assessment"

	"github.com/google/uuid"
)

type State string

const (
	StateLoading    State = "loading"
	StateLoadError  State = "load_error"
	StateReady      State = "ready"
	StateAnswering  State = "answering"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
)

var (
	ErrLoadFailed       = errors.New("assessment could not be loaded")
	ErrNotEditable      = errors.New("session is not accepting answers")
	ErrViolations       = errors.New("required questions are unanswered")
	ErrSubmitInFlight   = errors.New("submit already in flight")
	ErrAlreadySubmitted = errors.New("session already submitted")
	ErrNoSubmitter      = errors.New("session has no submitter")
)

// Source is the data layer a session loads from and submits to.
type Source interface {
	AssessmentByJob(ctx context.Context, jobID string) (*assessment.Assessment, error)
	AssessmentByID(ctx context.Context, id assessment.ID) (*assessment.Assessment, error)
	Responses(ctx context.Context, filter assessment.ResponseFilter) ([]assessment.Response, error)
	SubmitResponse(ctx context.Context, in assessment.SubmitInput) (*assessment.Response, error)
}

type SubmitFunc func(ctx context.Context, in assessment.SubmitInput) (*assessment.Response, error)

type Identity struct {
	CandidateID string
	JobID       string
}

// OpenRequest names the assessment to load. AssessmentID wins over JobID
// when both are set.
type OpenRequest struct {
	JobID        string
	AssessmentID assessment.ID
	CandidateID  string
}

// Session owns one candidate's answer map for one assessment and derives
// visibility and violations after every mutation. It is safe for
// concurrent use.
type Session struct {
	mu sync.Mutex

	id         string
	identity   Identity
	assessment *assessment.Assessment
	submit     SubmitFunc

	state   State
	answers assessment.Answers
	derived assessment.Derived
	record  *assessment.Response
	resumed bool
	loadErr error
}

// New builds a session from an already fetched assessment and the prior
// response records for it. When prior is non-empty the latest record is
// resumed and the session starts Submitted; otherwise it starts Ready.
func New(a *assessment.Assessment, prior []assessment.Response, identity Identity, submit SubmitFunc) *Session {
	s := &Session{
		id:         uuid.NewString(),
		identity:   identity,
		assessment: a,
		submit:     submit,
		state:      StateLoading,
		answers:    assessment.Answers{},
	}
	s.finishLoad(prior)
	return s
}

// Open fetches the assessment and prior responses, then builds the session.
// On fetch failure the returned session is in LoadError and the error wraps
// ErrLoadFailed together with the data layer's cause.
func Open(ctx context.Context, src Source, req OpenRequest) (*Session, error) {
	identity := Identity{CandidateID: req.CandidateID, JobID: req.JobID}

	a, err := fetchAssessment(ctx, src, req)
	if err != nil {
		return failed(identity, err), fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	prior, err := src.Responses(ctx, assessment.ResponseFilter{
		AssessmentID: a.ID,
		JobID:        req.JobID,
		CandidateID:  req.CandidateID,
	})
	if err != nil {
		err = fmt.Errorf("fetch responses: %w", err)
		return failed(identity, err), fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	return New(a, prior, identity, src.SubmitResponse), nil
}

func fetchAssessment(ctx context.Context, src Source, req OpenRequest) (*assessment.Assessment, error) {
	var (
		a   *assessment.Assessment
		err error
	)
	switch {
	case strings.TrimSpace(string(req.AssessmentID)) != "":
		a, err = src.AssessmentByID(ctx, req.AssessmentID)
	case strings.TrimSpace(req.JobID) != "":
		a, err = src.AssessmentByJob(ctx, req.JobID)
	default:
		return nil, fmt.Errorf("job_id or assessment_id is required: %w", assessment.ErrAssessmentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch assessment: %w", err)
	}
	if a == nil {
		return nil, assessment.ErrAssessmentNotFound
	}
	return a, nil
}

func failed(identity Identity, err error) *Session {
	return &Session{
		id:       uuid.NewString(),
		identity: identity,
		state:    StateLoadError,
		answers:  assessment.Answers{},
		loadErr:  err,
	}
}

func (s *Session) finishLoad(prior []assessment.Response) {
	if latest, ok := assessment.SelectLatest(prior); ok && len(s.answers) == 0 {
		s.answers = latest.Responses.Clone()
		if s.answers == nil {
			s.answers = assessment.Answers{}
		}
		s.record = &latest
		s.resumed = true
		s.state = StateSubmitted
	} else {
		s.state = StateReady
	}
	s.rederive()
}

func (s *Session) rederive() {
	if s.assessment == nil {
		s.derived = assessment.Derived{Visible: []assessment.Question{}, Violations: []assessment.Question{}}
		return
	}
	s.derived = assessment.Derive(s.assessment, s.answers)
}

func (s *Session) ID() string { return s.id }

func (s *Session) CandidateID() string { return s.identity.CandidateID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Assessment() *assessment.Assessment { return s.assessment }

// Answers returns a copy of the current answer map.
func (s *Session) Answers() assessment.Answers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

// OnAnswerChange stores value for questionID and re-derives visibility and
// violations before returning.
func (s *Session) OnAnswerChange(questionID assessment.ID, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.editableQuestion(questionID); err != nil {
		return err
	}
	s.setLocked(questionID, value)
	return nil
}

// ApplyInput encodes a widget input event for questionID and stores the
// result the same way OnAnswerChange does.
func (s *Session) ApplyInput(questionID assessment.ID, in assessment.Input) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.editableQuestion(questionID)
	if err != nil {
		return err
	}
	v, err := assessment.Encode(q, s.answers[questionID], in)
	if err != nil {
		return fmt.Errorf("encode answer %s: %w", questionID, err)
	}
	s.setLocked(questionID, v)
	return nil
}

func (s *Session) editableQuestion(questionID assessment.ID) (assessment.Question, error) {
	switch s.state {
	case StateReady, StateAnswering:
	case StateSubmitted:
		return assessment.Question{}, fmt.Errorf("%w: %w", ErrNotEditable, ErrAlreadySubmitted)
	default:
		return assessment.Question{}, fmt.Errorf("%w: state %s", ErrNotEditable, s.state)
	}
	q, ok := s.assessment.Question(questionID)
	if !ok {
		return assessment.Question{}, fmt.Errorf("%w: %s", assessment.ErrUnknownQuestion, questionID)
	}
	return q, nil
}

func (s *Session) setLocked(questionID assessment.ID, value any) {
	s.answers[questionID] = value
	s.state = StateAnswering
	s.rederive()
}

// OnSubmit sends the answer map through the submitter. At most one submit is
// outstanding per session: a call made while another is in flight returns
// ErrSubmitInFlight without reaching the submitter. A failed submit returns
// the session to Answering so it can be retried.
func (s *Session) OnSubmit(ctx context.Context) (*assessment.Response, error) {
	s.mu.Lock()
	switch s.state {
	case StateReady, StateAnswering:
	case StateSubmitting:
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	case StateSubmitted:
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	default:
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: state %s", ErrNotEditable, state)
	}
	if len(s.derived.Violations) > 0 {
		ids := assessment.QuestionIDs(s.derived.Violations)
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrViolations, ids)
	}
	if s.submit == nil {
		s.mu.Unlock()
		return nil, ErrNoSubmitter
	}
	s.state = StateSubmitting
	in := assessment.SubmitInput{
		AssessmentID: s.assessment.ID,
		JobID:        s.identity.JobID,
		CandidateID:  s.identity.CandidateID,
		Responses:    s.answers.Clone(),
	}
	submit := s.submit
	s.mu.Unlock()

	rec, err := submit(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateAnswering
		return nil, fmt.Errorf("submit response: %w", err)
	}
	if rec == nil {
		rec = &assessment.Response{
			AssessmentID: in.AssessmentID,
			JobID:        in.JobID,
			CandidateID:  in.CandidateID,
			Responses:    in.Responses,
			SubmittedAt:  time.Now().UTC(),
		}
	}
	s.record = rec
	s.state = StateSubmitted
	return rec, nil
}

// View is the externally observable state of a session.
type View struct {
	ID           string        `json:"id"`
	State        State         `json:"state"`
	AssessmentID assessment.ID `json:"assessment_id,omitempty"`
	Title        string        `json:"title,omitempty"`
	Description  string        `json:"description,omitempty"`
	assessment.Derived
	Answers  assessment.Answers   `json:"answers"`
	Resumed  bool                 `json:"resumed"`
	Response *assessment.Response `json:"response,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:      s.id,
		State:   s.state,
		Derived: s.derived,
		Answers: s.answers.Clone(),
		Resumed: s.resumed,
	}
	if s.assessment != nil {
		v.AssessmentID = s.assessment.ID
		v.Title = s.assessment.Title
		v.Description = s.assessment.Description
	}
	if s.record != nil {
		rec := *s.record
		v.Response = &rec
	}
	if s.loadErr != nil {
		v.Error = s.loadErr.Error()
	}
	return v
}
