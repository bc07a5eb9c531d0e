package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"jobassess/internal/app/apiresp"
	"jobassess/internal/assessment"
	"jobassess/internal/auth"
	"jobassess/internal/session"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc reviewService
}

type reviewService interface {
	ReviewData(ctx context.Context, id, candidateID string) (*assessment.Assessment, assessment.Answers, error)
}

func NewHandler(svc reviewService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	a, answers, ok := h.load(w, r)
	if !ok {
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, map[string]any{
		"assessment_id": a.ID,
		"title":         a.Title,
		"items":         BuildRows(a, answers),
	})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		apiresp.WriteError(w, r, http.StatusBadRequest, "format must be csv or xlsx")
		return
	}

	a, answers, ok := h.load(w, r)
	if !ok {
		return
	}
	rows := BuildRows(a, answers)
	filename := fmt.Sprintf("assessment-%s-review.%s", a.ID, format)

	switch format {
	case "xlsx":
		b, err := ExcelBytes(a.Title, rows)
		if err != nil {
			apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	default:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, rows); err != nil {
			apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*assessment.Assessment, assessment.Answers, bool) {
	candidate, ok := auth.CurrentCandidate(r.Context())
	if !ok {
		apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
		return nil, nil, false
	}

	a, answers, err := h.svc.ReviewData(r.Context(), chi.URLParam(r, "id"), candidate.ID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
		case errors.Is(err, session.ErrSessionForbidden):
			apiresp.WriteError(w, r, http.StatusForbidden, "forbidden")
		default:
			apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		}
		return nil, nil, false
	}
	if a == nil {
		apiresp.WriteError(w, r, http.StatusConflict, "session has no assessment")
		return nil, nil, false
	}
	return a, answers, true
}
