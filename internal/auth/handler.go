package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"jobassess/internal/app/apiresp"
)

type contextKey string

const candidateContextKey contextKey = "auth_candidate"

// CandidateHeader carries the candidate id asserted by the upstream gateway.
const CandidateHeader = "X-Candidate-ID"

const adminTokenHeader = "X-Admin-Token"

type Candidate struct {
	ID string `json:"id"`
}

// RequireCandidate rejects requests that do not carry a candidate id.
func RequireCandidate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(CandidateHeader))
		if id == "" {
			apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := ContextWithCandidate(r.Context(), &Candidate{ID: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdminToken guards admin routes with a static bearer token. An empty
// configured token disables the routes entirely.
func RequireAdminToken(token string) func(http.Handler) http.Handler {
	token = strings.TrimSpace(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				apiresp.WriteError(w, r, http.StatusForbidden, "admin api disabled")
				return
			}
			got := readAdminToken(r)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func readAdminToken(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(adminTokenHeader)); v != "" {
		return v
	}
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}

func CurrentCandidate(ctx context.Context) (*Candidate, bool) {
	v := ctx.Value(candidateContextKey)
	if v == nil {
		return nil, false
	}
	c, ok := v.(*Candidate)
	return c, ok && c != nil && c.ID != ""
}

// ContextWithCandidate injects a candidate into context.
// Useful for tests and internal handlers.
func ContextWithCandidate(ctx context.Context, c *Candidate) context.Context {
	return context.WithValue(ctx, candidateContextKey, c)
}
