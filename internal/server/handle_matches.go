package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/session"
)

type ScoreRequest struct {
	StudentID string              `json:"studentId"`
	Kind      dodgeball.EventKind `json:"kind"`
}

type EliminateRequest struct {
	StudentID string `json:"studentId"`
}

func handleStartMatch(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req session.StartRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s, err := sessions.Start(r.Context(), req)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, s)
	}
}

// handleGetMatch returns the match snapshot. Loading a match that is not
// running in this process resumes it, as a page reload would.
func handleGetMatch(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessions.Resume(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func handlePauseMatch(sessions *session.Manager) http.HandlerFunc {
	return matchControl(sessions.Pause)
}

func handleResumeMatch(sessions *session.Manager) http.HandlerFunc {
	return matchControl(sessions.Unpause)
}

func matchControl(fn func(ctx context.Context, id string) (dodgeball.MatchSession, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := fn(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func handleScore(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScoreRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		c, err := sessions.Score(r.Context(), chi.URLParam(r, "id"), req.StudentID, req.Kind)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func handleEliminate(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EliminateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		m, err := sessions.Eliminate(r.Context(), chi.URLParam(r, "id"), req.StudentID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}
