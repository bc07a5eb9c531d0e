package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"jobassess/internal/app/apiresp"
	"jobassess/internal/assessment"
	"jobassess/internal/auth"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc sessionService
}

type sessionService interface {
	Open(ctx context.Context, req OpenRequest) (*View, error)
	Get(ctx context.Context, id, candidateID string) (*View, error)
	Answer(ctx context.Context, id, candidateID string, questionID assessment.ID, in assessment.Input) (*View, error)
	Submit(ctx context.Context, id, candidateID string) (*View, error)
	Close(ctx context.Context, id, candidateID string) error
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type openRequest struct {
	JobID        string        `json:"job_id"`
	AssessmentID assessment.ID `json:"assessment_id"`
}

type answerRequest struct {
	Input *assessment.Input `json:"input"`
}

func NewHandler(svc sessionService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	candidate, ok := auth.CurrentCandidate(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	req.JobID = strings.TrimSpace(req.JobID)
	if req.JobID == "" && req.AssessmentID == "" {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "job_id or assessment_id is required"})
		return
	}

	view, err := h.svc.Open(r.Context(), OpenRequest{
		JobID:        req.JobID,
		AssessmentID: req.AssessmentID,
		CandidateID:  candidate.ID,
	})
	if err != nil {
		switch {
		case errors.Is(err, assessment.ErrAssessmentNotFound):
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: assessment.ErrAssessmentNotFound.Error()})
		case errors.Is(err, ErrLoadFailed):
			writeJSON(w, r, http.StatusBadGateway, response{OK: false, Error: ErrLoadFailed.Error()})
		default:
			writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		}
		return
	}

	writeJSON(w, r, http.StatusCreated, response{OK: true, Data: view})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	candidate, ok := auth.CurrentCandidate(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	view, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), candidate.ID)
	if err != nil {
		writeLookupError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	candidate, ok := auth.CurrentCandidate(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	questionID := assessment.ID(strings.TrimSpace(chi.URLParam(r, "questionID")))
	if questionID == "" {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid question id"})
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if req.Input == nil || req.Input.Kind == "" {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "input is required"})
		return
	}

	view, err := h.svc.Answer(r.Context(), chi.URLParam(r, "id"), candidate.ID, questionID, *req.Input)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionForbidden):
			writeLookupError(w, r, err)
		case errors.Is(err, assessment.ErrUnknownQuestion):
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
		case errors.Is(err, ErrNotEditable):
			writeJSON(w, r, http.StatusConflict, response{OK: false, Error: err.Error()})
		case errors.Is(err, assessment.ErrInputMismatch),
			errors.Is(err, assessment.ErrOptionOutOfRange),
			errors.Is(err, assessment.ErrRatingOutOfRange),
			errors.Is(err, assessment.ErrNoInputWidget):
			writeJSON(w, r, http.StatusUnprocessableEntity, response{OK: false, Error: err.Error()})
		default:
			writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		}
		return
	}

	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	candidate, ok := auth.CurrentCandidate(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	view, err := h.svc.Submit(r.Context(), chi.URLParam(r, "id"), candidate.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionForbidden):
			writeLookupError(w, r, err)
		case errors.Is(err, ErrViolations):
			writeViolations(w, r, view)
		case errors.Is(err, ErrSubmitInFlight), errors.Is(err, ErrAlreadySubmitted), errors.Is(err, ErrNotEditable):
			writeJSON(w, r, http.StatusConflict, response{OK: false, Error: err.Error()})
		default:
			writeJSON(w, r, http.StatusBadGateway, response{OK: false, Error: "submit failed"})
		}
		return
	}

	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	candidate, ok := auth.CurrentCandidate(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	if err := h.svc.Close(r.Context(), chi.URLParam(r, "id"), candidate.ID); err != nil {
		writeLookupError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: map[string]string{"status": "closed"}})
}

func writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrSessionForbidden):
		writeJSON(w, r, http.StatusForbidden, response{OK: false, Error: "forbidden"})
	default:
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
	}
}

// writeViolations keeps the envelope shape but carries the blocking
// question ids so the caller can highlight them.
func writeViolations(w http.ResponseWriter, r *http.Request, view *View) {
	ids := []assessment.ID{}
	if view != nil {
		ids = assessment.QuestionIDs(view.Violations)
	}
	apiresp.WriteErrorData(w, r, http.StatusUnprocessableEntity, ErrViolations.Error(), map[string]any{"violations": ids})
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
