package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobassess/internal/assessment"
)

func TestServiceLifecycle(t *testing.T) {
	var submitted []assessment.SubmitInput
	src := &fakeSource{
		byJob: func(ctx context.Context, jobID string) (*assessment.Assessment, error) { return screening(), nil },
		submit: func(ctx context.Context, in assessment.SubmitInput) (*assessment.Response, error) {
			submitted = append(submitted, in)
			return &assessment.Response{ID: 1, AssessmentID: in.AssessmentID, CandidateID: in.CandidateID, Responses: in.Responses, SubmittedAt: time.Now()}, nil
		},
	}
	svc := NewService(src)
	ctx := context.Background()

	view, err := svc.Open(ctx, OpenRequest{JobID: "job-1", CandidateID: "c1"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if view.State != StateReady || view.ID == "" {
		t.Fatalf("unexpected view %+v", view)
	}
	if svc.Len() != 1 {
		t.Fatalf("expected 1 open session, got %d", svc.Len())
	}

	if _, err := svc.Get(ctx, view.ID, "intruder"); !errors.Is(err, ErrSessionForbidden) {
		t.Fatalf("expected ErrSessionForbidden, got %v", err)
	}
	if _, err := svc.Get(ctx, "missing", "c1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	blocked, err := svc.Submit(ctx, view.ID, "c1")
	if !errors.Is(err, ErrViolations) {
		t.Fatalf("expected ErrViolations, got %v", err)
	}
	if blocked == nil || len(blocked.Violations) != 1 {
		t.Fatalf("expected blocked view with one violation, got %+v", blocked)
	}

	text := "Ada"
	if _, err := svc.Answer(ctx, view.ID, "c1", "1", assessment.Input{Kind: assessment.InputText, Text: &text}); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	done, err := svc.Submit(ctx, view.ID, "c1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if done.State != StateSubmitted || len(submitted) != 1 {
		t.Fatalf("expected one submit and submitted state, got %s %d", done.State, len(submitted))
	}

	a, answers, err := svc.ReviewData(ctx, view.ID, "c1")
	if err != nil {
		t.Fatalf("ReviewData: %v", err)
	}
	if a.ID != "a1" || answers["1"] != "Ada" {
		t.Fatalf("unexpected review data %v %v", a.ID, answers)
	}

	if err := svc.Close(ctx, view.ID, "c1"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := svc.Get(ctx, view.ID, "c1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected closed session to be gone, got %v", err)
	}
}

func TestServiceOpenFailureNotRegistered(t *testing.T) {
	svc := NewService(&fakeSource{
		byJob: func(ctx context.Context, jobID string) (*assessment.Assessment, error) {
			return nil, assessment.ErrAssessmentNotFound
		},
	})
	if _, err := svc.Open(context.Background(), OpenRequest{JobID: "job-x", CandidateID: "c1"}); !errors.Is(err, assessment.ErrAssessmentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if svc.Len() != 0 {
		t.Fatalf("failed session must not be registered")
	}
}

func TestServiceReopenReusesLiveSession(t *testing.T) {
	loads := 0
	svc := NewService(&fakeSource{
		byJob: func(ctx context.Context, jobID string) (*assessment.Assessment, error) {
			loads++
			return screening(), nil
		},
		responses: func(ctx context.Context, f assessment.ResponseFilter) ([]assessment.Response, error) {
			return []assessment.Response{{ID: 9, AssessmentID: "a1", CandidateID: f.CandidateID, Responses: assessment.Answers{"1": "Ada"}}}, nil
		},
	})
	ctx := context.Background()

	first, err := svc.Open(ctx, OpenRequest{JobID: "job-1", CandidateID: "c1"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 50; i++ {
		view, err := svc.Open(ctx, OpenRequest{JobID: "job-1", CandidateID: "c1"})
		if err != nil {
			t.Fatalf("reopen %d: %v", i, err)
		}
		if view.ID != first.ID {
			t.Fatalf("reopen %d returned session %s, want %s", i, view.ID, first.ID)
		}
	}
	if svc.Len() != 1 {
		t.Fatalf("expected 1 registered session after reopening, got %d", svc.Len())
	}
	if loads != 51 {
		t.Fatalf("expected every open to load the assessment, got %d loads", loads)
	}

	if _, err := svc.Open(ctx, OpenRequest{JobID: "job-1", CandidateID: "c2"}); err != nil {
		t.Fatalf("Open other candidate: %v", err)
	}
	if _, err := svc.Open(ctx, OpenRequest{JobID: "job-2", CandidateID: "c1"}); err != nil {
		t.Fatalf("Open other job: %v", err)
	}
	if svc.Len() != 3 {
		t.Fatalf("expected 3 sessions, got %d", svc.Len())
	}

	if err := svc.Close(ctx, first.ID, "c1"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	again, err := svc.Open(ctx, OpenRequest{JobID: "job-1", CandidateID: "c1"})
	if err != nil {
		t.Fatalf("Open after close: %v", err)
	}
	if again.ID == first.ID {
		t.Fatalf("closed session must not be reused")
	}
}

func TestServiceSweepsIdleSessions(t *testing.T) {
	svc := NewServiceWithConfig(&fakeSource{
		byJob: func(ctx context.Context, jobID string) (*assessment.Assessment, error) { return screening(), nil },
	}, ServiceConfig{IdleTTL: 10 * time.Minute})
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	ctx := context.Background()

	stale, err := svc.Open(ctx, OpenRequest{JobID: "job-1", CandidateID: "c1"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	active, err := svc.Open(ctx, OpenRequest{JobID: "job-1", CandidateID: "c2"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	clock = clock.Add(8 * time.Minute)
	if _, err := svc.Get(ctx, active.ID, "c2"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	clock = clock.Add(5 * time.Minute)
	if _, err := svc.Open(ctx, OpenRequest{JobID: "job-2", CandidateID: "c3"}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if svc.Len() != 2 {
		t.Fatalf("expected idle session to be swept, got %d sessions", svc.Len())
	}
	if _, err := svc.Get(ctx, stale.ID, "c1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected swept session to be gone, got %v", err)
	}
	if _, err := svc.Get(ctx, active.ID, "c2"); err != nil {
		t.Fatalf("recently used session must survive the sweep: %v", err)
	}

	reopened, err := svc.Open(ctx, OpenRequest{JobID: "job-1", CandidateID: "c1"})
	if err != nil {
		t.Fatalf("Open after sweep: %v", err)
	}
	if reopened.ID == stale.ID {
		t.Fatalf("swept session must not be reused")
	}
}

func TestNewServiceWithConfigDefaultsTTL(t *testing.T) {
	svc := NewServiceWithConfig(&fakeSource{}, ServiceConfig{IdleTTL: -time.Second})
	if svc.idleTTL != DefaultIdleTTL {
		t.Fatalf("expected default ttl, got %s", svc.idleTTL)
	}
}
