package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"jobassess/internal/assessment"

	"golang.org/x/crypto/blake2b"
)

var ErrInvalidSubmission = errors.New("invalid submission")

// Store is the Postgres data layer for assessments and response records.
// Response records are append-only.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type queryable interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (s *Store) AssessmentByJob(ctx context.Context, jobID string) (*assessment.Assessment, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, assessment.ErrAssessmentNotFound
	}
	return loadAssessment(ctx, s.db, `
		SELECT document
		FROM assessments
		WHERE job_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, jobID)
}

func (s *Store) AssessmentByID(ctx context.Context, id assessment.ID) (*assessment.Assessment, error) {
	key := strings.TrimSpace(string(id))
	if key == "" {
		return nil, assessment.ErrAssessmentNotFound
	}
	return loadAssessment(ctx, s.db, `
		SELECT document
		FROM assessments
		WHERE id = $1
	`, key)
}

// JobForAssessment returns the job an assessment is currently bound to.
func (s *Store) JobForAssessment(ctx context.Context, id assessment.ID) (string, error) {
	key := strings.TrimSpace(string(id))
	if key == "" {
		return "", assessment.ErrAssessmentNotFound
	}
	var jobID string
	err := s.db.QueryRowContext(ctx, `SELECT job_id FROM assessments WHERE id = $1`, key).Scan(&jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", assessment.ErrAssessmentNotFound
		}
		return "", fmt.Errorf("query assessment job: %w", err)
	}
	return jobID, nil
}

func loadAssessment(ctx context.Context, q queryable, query string, arg string) (*assessment.Assessment, error) {
	var doc []byte
	if err := q.QueryRowContext(ctx, query, arg).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, assessment.ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("query assessment: %w", err)
	}
	var a assessment.Assessment
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, fmt.Errorf("decode assessment document: %w", err)
	}
	return &a, nil
}

// Responses lists response records in no particular order.
func (s *Store) Responses(ctx context.Context, f assessment.ResponseFilter) ([]assessment.Response, error) {
	return listResponses(ctx, s.db, f)
}

func listResponses(ctx context.Context, q queryable, f assessment.ResponseFilter) ([]assessment.Response, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, assessment_id, job_id, candidate_id, responses, responses_digest, submitted_at
		FROM assessment_responses
		WHERE assessment_id = $1
			AND ($2 = '' OR job_id = $2)
			AND ($3 = '' OR candidate_id = $3)
	`, string(f.AssessmentID), strings.TrimSpace(f.JobID), strings.TrimSpace(f.CandidateID))
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	out := make([]assessment.Response, 0)
	for rows.Next() {
		var (
			rec       assessment.Response
			assessID  string
			responses []byte
		)
		if err := rows.Scan(&rec.ID, &assessID, &rec.JobID, &rec.CandidateID, &responses, &rec.Digest, &rec.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		rec.AssessmentID = assessment.ID(assessID)
		rec.Responses = assessment.Answers{}
		if len(responses) > 0 {
			if err := json.Unmarshal(responses, &rec.Responses); err != nil {
				return nil, fmt.Errorf("decode responses %d: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	return out, nil
}

// SubmitResponse appends a response record and returns it with the id and
// timestamp assigned by the database.
func (s *Store) SubmitResponse(ctx context.Context, in assessment.SubmitInput) (*assessment.Response, error) {
	if strings.TrimSpace(string(in.AssessmentID)) == "" {
		return nil, fmt.Errorf("%w: assessment_id is required", ErrInvalidSubmission)
	}
	if strings.TrimSpace(in.CandidateID) == "" {
		return nil, fmt.Errorf("%w: candidate_id is required", ErrInvalidSubmission)
	}
	responses := in.Responses
	if responses == nil {
		responses = assessment.Answers{}
	}
	payload, digest, err := encodeResponses(responses)
	if err != nil {
		return nil, err
	}

	rec := &assessment.Response{
		AssessmentID: in.AssessmentID,
		JobID:        strings.TrimSpace(in.JobID),
		CandidateID:  strings.TrimSpace(in.CandidateID),
		Responses:    responses.Clone(),
		Digest:       digest,
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO assessment_responses (assessment_id, job_id, candidate_id, responses, responses_digest)
		VALUES ($1, $2, $3, $4::jsonb, $5)
		RETURNING id, submitted_at
	`, string(rec.AssessmentID), rec.JobID, rec.CandidateID, string(payload), digest).Scan(&rec.ID, &rec.SubmittedAt)
	if err != nil {
		return nil, fmt.Errorf("insert response: %w", err)
	}
	return rec, nil
}

// SaveAssessment stores or replaces an assessment document and binds it to
// jobID. The original created_at is kept on replace.
func (s *Store) SaveAssessment(ctx context.Context, a *assessment.Assessment, jobID string) error {
	if err := a.Validate(); err != nil {
		return err
	}
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode assessment: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (id, job_id, title, description, document)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		ON CONFLICT (id) DO UPDATE SET
			job_id = EXCLUDED.job_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			document = EXCLUDED.document
	`, string(a.ID), strings.TrimSpace(jobID), a.Title, a.Description, string(doc))
	if err != nil {
		return fmt.Errorf("upsert assessment: %w", err)
	}
	return nil
}

// encodeResponses returns the jsonb payload for answers and its hex
// BLAKE2b-256 digest. encoding/json sorts map keys, so equal maps digest
// equally.
func encodeResponses(answers assessment.Answers) ([]byte, string, error) {
	if answers == nil {
		answers = assessment.Answers{}
	}
	payload, err := json.Marshal(answers)
	if err != nil {
		return nil, "", fmt.Errorf("encode responses: %w", err)
	}
	sum := blake2b.Sum256(payload)
	return payload, hex.EncodeToString(sum[:]), nil
}
