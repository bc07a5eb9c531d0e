package cache

import (
	"context"
	"errors"
	"log"

	"jobassess/internal/assessment"
)

type source interface {
	AssessmentByJob(ctx context.Context, jobID string) (*assessment.Assessment, error)
	AssessmentByID(ctx context.Context, id assessment.ID) (*assessment.Assessment, error)
	Responses(ctx context.Context, filter assessment.ResponseFilter) ([]assessment.Response, error)
	SubmitResponse(ctx context.Context, in assessment.SubmitInput) (*assessment.Response, error)
	SaveAssessment(ctx context.Context, a *assessment.Assessment, jobID string) error
	JobForAssessment(ctx context.Context, id assessment.ID) (string, error)
}

// CachedSource reads assessments through the cache. Responses and submits
// always go to the underlying source. A failing cache degrades to direct
// reads.
type CachedSource struct {
	src   source
	cache AssessmentCache
}

func NewCachedSource(src source, c AssessmentCache) *CachedSource {
	return &CachedSource{src: src, cache: c}
}

func (s *CachedSource) AssessmentByID(ctx context.Context, id assessment.ID) (*assessment.Assessment, error) {
	return s.readThrough(ctx, IDKey(id), func() (*assessment.Assessment, error) {
		return s.src.AssessmentByID(ctx, id)
	})
}

func (s *CachedSource) AssessmentByJob(ctx context.Context, jobID string) (*assessment.Assessment, error) {
	return s.readThrough(ctx, JobKey(jobID), func() (*assessment.Assessment, error) {
		return s.src.AssessmentByJob(ctx, jobID)
	})
}

func (s *CachedSource) readThrough(ctx context.Context, key string, load func() (*assessment.Assessment, error)) (*assessment.Assessment, error) {
	a, err := s.cache.Get(ctx, key)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrMiss) {
		log.Printf("assessment cache get failed key=%s err=%v", key, err)
	}

	a, err = load()
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, a); err != nil {
		log.Printf("assessment cache set failed key=%s err=%v", key, err)
	}
	return a, nil
}

func (s *CachedSource) Responses(ctx context.Context, filter assessment.ResponseFilter) ([]assessment.Response, error) {
	return s.src.Responses(ctx, filter)
}

func (s *CachedSource) SubmitResponse(ctx context.Context, in assessment.SubmitInput) (*assessment.Response, error) {
	return s.src.SubmitResponse(ctx, in)
}

// SaveAssessment writes through and drops the cached copies for the id, the
// new job and the job the assessment was bound to before, so neither job
// keeps serving a stale binding.
func (s *CachedSource) SaveAssessment(ctx context.Context, a *assessment.Assessment, jobID string) error {
	prevJob, err := s.src.JobForAssessment(ctx, a.ID)
	if err != nil && !errors.Is(err, assessment.ErrAssessmentNotFound) {
		log.Printf("assessment cache previous job lookup failed id=%s err=%v", a.ID, err)
	}
	if err := s.src.SaveAssessment(ctx, a, jobID); err != nil {
		return err
	}
	keys := []string{IDKey(a.ID)}
	if jobID != "" {
		keys = append(keys, JobKey(jobID))
	}
	if prevJob != "" && prevJob != jobID {
		keys = append(keys, JobKey(prevJob))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Printf("assessment cache invalidate failed keys=%v err=%v", keys, err)
	}
	return nil
}
