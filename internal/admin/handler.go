// Package admin exposes assessment authoring endpoints for operators.
package admin

import (
	"context"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"

	"jobassess/internal/app/apiresp"
	"jobassess/internal/assessment"
)

// maxDocumentBytes caps an uploaded assessment document.
const maxDocumentBytes = 1 << 20

type Handler struct {
	svc assessmentStore
}

type assessmentStore interface {
	SaveAssessment(ctx context.Context, a *assessment.Assessment, jobID string) error
}

func NewHandler(svc assessmentStore) *Handler {
	return &Handler{svc: svc}
}

// ImportAssessment stores a JSON or YAML assessment document for a job.
// The job is taken from the job_id query parameter.
func (h *Handler) ImportAssessment(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(r.URL.Query().Get("job_id"))
	if jobID == "" {
		apiresp.WriteError(w, r, http.StatusBadRequest, "job_id is required")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes+1))
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body) > maxDocumentBytes {
		apiresp.WriteError(w, r, http.StatusRequestEntityTooLarge, "document too large")
		return
	}

	a, err := assessment.ParseDocument(body, requestFormat(r))
	if err != nil {
		if errors.Is(err, assessment.ErrInvalidAssessment) {
			apiresp.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.svc.SaveAssessment(r.Context(), a, jobID); err != nil {
		log.Printf("admin import assessment_id=%s job_id=%s: %v", a.ID, jobID, err)
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	log.Printf("admin import assessment_id=%s job_id=%s questions=%d", a.ID, jobID, len(a.Questions))
	apiresp.WriteOK(w, r, http.StatusCreated, map[string]any{
		"assessment_id": a.ID,
		"job_id":        jobID,
		"questions":     len(a.Questions),
	})
}

func requestFormat(r *http.Request) assessment.Format {
	if f := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))); f != "" {
		if f == "yaml" || f == "yml" {
			return assessment.FormatYAML
		}
		return assessment.FormatJSON
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return assessment.FormatYAML
	}
	return assessment.FormatJSON
}
