package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"jobassess/internal/admin"
	"jobassess/internal/app/apiresp"
	"jobassess/internal/app/observability"
	"jobassess/internal/assessment"
	"jobassess/internal/auth"
	"jobassess/internal/report"
	"jobassess/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Source is the data layer the router needs: session collaborators plus
// document upserts for the admin import.
type Source interface {
	session.Source
	SaveAssessment(ctx context.Context, a *assessment.Assessment, jobID string) error
}

// NewRouter wires the HTTP surface. db may be nil, in which case /healthz
// skips the ping and /metrics omits pool stats.
func NewRouter(cfg Config, db *sql.DB, src Source) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	sessionSvc := session.NewServiceWithConfig(src, session.ServiceConfig{IdleTTL: cfg.SessionIdleTTL})
	sessionHandler := session.NewHandler(sessionSvc)
	reportHandler := report.NewHandler(sessionSvc)
	adminHandler := admin.NewHandler(src)

	collector := observability.NewCollector(db, sessionSvc.Len)
	r.Use(collector.Middleware)

	limiter := NewIPRateLimiter(cfg.RateLimitPerMin, time.Minute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				apiresp.WriteError(w, r, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(RateLimitMiddleware(limiter))
		api.Use(CSRFMiddleware(cfg.CSRFEnforced))

		api.Get("/csrf", IssueCSRFToken(cfg.AppEnv == "production"))

		api.Group(func(candidate chi.Router) {
			candidate.Use(auth.RequireCandidate)
			candidate.Post("/sessions", sessionHandler.Open)
			candidate.Get("/sessions/{id}", sessionHandler.Get)
			candidate.Put("/sessions/{id}/answers/{questionID}", sessionHandler.Answer)
			candidate.Post("/sessions/{id}/submit", sessionHandler.Submit)
			candidate.Delete("/sessions/{id}", sessionHandler.Close)
			candidate.Get("/sessions/{id}/review", reportHandler.Review)
			candidate.Get("/sessions/{id}/export", reportHandler.Export)
		})

		api.Group(func(adm chi.Router) {
			adm.Use(auth.RequireAdminToken(cfg.AdminToken))
			adm.Post("/admin/assessments", adminHandler.ImportAssessment)
		})
	})

	return r
}
