package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"jobassess/internal/assessment"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionForbidden = errors.New("session forbidden")
)

// DefaultIdleTTL is how long an untouched session stays registered.
const DefaultIdleTTL = 30 * time.Minute

type ServiceConfig struct {
	// IdleTTL evicts sessions not read or written for this long.
	IdleTTL time.Duration
}

// sessionKey identifies the one live session a candidate has per
// assessment and job.
type sessionKey struct {
	candidateID  string
	assessmentID assessment.ID
	jobID        string
}

type entry struct {
	sess     *Session
	key      sessionKey
	lastSeen time.Time
}

// Service keeps open sessions in memory, keyed by session id. Opening the
// same assessment again returns the candidate's live session, and idle
// sessions are swept on open.
type Service struct {
	src     Source
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
	byKey    map[sessionKey]string
}

func NewService(src Source) *Service {
	return NewServiceWithConfig(src, ServiceConfig{})
}

func NewServiceWithConfig(src Source, cfg ServiceConfig) *Service {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	return &Service{
		src:      src,
		idleTTL:  cfg.IdleTTL,
		now:      time.Now,
		sessions: make(map[string]*entry),
		byKey:    make(map[sessionKey]string),
	}
}

// Open loads a session for the candidate. Sessions that fail to load are
// not registered. When the candidate already holds a live session for the
// same assessment and job, that session is returned instead.
func (s *Service) Open(ctx context.Context, req OpenRequest) (*View, error) {
	sess, err := Open(ctx, s.src, req)
	if err != nil {
		log.Printf("session load failed job=%s assessment=%s candidate=%s err=%v", req.JobID, req.AssessmentID, req.CandidateID, err)
		return nil, err
	}

	key := sessionKey{
		candidateID:  sess.CandidateID(),
		assessmentID: sess.Assessment().ID,
		jobID:        strings.TrimSpace(req.JobID),
	}
	now := s.now()

	s.mu.Lock()
	s.sweepLocked(now)
	if id, ok := s.byKey[key]; ok {
		if e, ok := s.sessions[id]; ok {
			e.lastSeen = now
			s.mu.Unlock()
			view := e.sess.View()
			log.Printf("session reused id=%s assessment=%s candidate=%s state=%s", view.ID, view.AssessmentID, req.CandidateID, view.State)
			return &view, nil
		}
	}
	s.sessions[sess.ID()] = &entry{sess: sess, key: key, lastSeen: now}
	s.byKey[key] = sess.ID()
	s.mu.Unlock()

	view := sess.View()
	log.Printf("session opened id=%s assessment=%s candidate=%s state=%s resumed=%t", view.ID, view.AssessmentID, req.CandidateID, view.State, view.Resumed)
	return &view, nil
}

// sweepLocked drops sessions idle for longer than the TTL. A session that
// is mid-submit is kept until the submit returns.
func (s *Service) sweepLocked(now time.Time) {
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) <= s.idleTTL || e.sess.State() == StateSubmitting {
			continue
		}
		s.removeLocked(id, e)
		log.Printf("session expired id=%s state=%s", id, e.sess.State())
	}
}

func (s *Service) removeLocked(id string, e *entry) {
	delete(s.sessions, id)
	if s.byKey[e.key] == id {
		delete(s.byKey, e.key)
	}
}

func (s *Service) lookup(id, candidateID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[strings.TrimSpace(id)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if e.sess.CandidateID() != candidateID {
		return nil, ErrSessionForbidden
	}
	e.lastSeen = s.now()
	return e.sess, nil
}

func (s *Service) Get(ctx context.Context, id, candidateID string) (*View, error) {
	sess, err := s.lookup(id, candidateID)
	if err != nil {
		return nil, err
	}
	view := sess.View()
	return &view, nil
}

func (s *Service) Answer(ctx context.Context, id, candidateID string, questionID assessment.ID, in assessment.Input) (*View, error) {
	sess, err := s.lookup(id, candidateID)
	if err != nil {
		return nil, err
	}
	if err := sess.ApplyInput(questionID, in); err != nil {
		return nil, err
	}
	view := sess.View()
	return &view, nil
}

// Submit returns the session view alongside the error so callers can show
// the current violations when submission is blocked.
func (s *Service) Submit(ctx context.Context, id, candidateID string) (*View, error) {
	sess, err := s.lookup(id, candidateID)
	if err != nil {
		return nil, err
	}
	_, err = sess.OnSubmit(ctx)
	view := sess.View()
	switch {
	case err == nil:
		log.Printf("session submitted id=%s assessment=%s candidate=%s", view.ID, view.AssessmentID, candidateID)
	case errors.Is(err, ErrViolations), errors.Is(err, ErrSubmitInFlight), errors.Is(err, ErrAlreadySubmitted):
	default:
		log.Printf("session submit failed id=%s assessment=%s err=%v", view.ID, view.AssessmentID, err)
	}
	return &view, err
}

// ReviewData exposes the assessment and a copy of the answers for rendering
// review text and exports.
func (s *Service) ReviewData(ctx context.Context, id, candidateID string) (*assessment.Assessment, assessment.Answers, error) {
	sess, err := s.lookup(id, candidateID)
	if err != nil {
		return nil, nil, err
	}
	return sess.Assessment(), sess.Answers(), nil
}

func (s *Service) Close(ctx context.Context, id, candidateID string) error {
	sess, err := s.lookup(id, candidateID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if e, ok := s.sessions[sess.ID()]; ok {
		s.removeLocked(sess.ID(), e)
	}
	s.mu.Unlock()
	log.Printf("session closed id=%s state=%s", sess.ID(), sess.State())
	return nil
}

// Len reports the number of open sessions.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
