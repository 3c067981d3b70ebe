package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geunssam/dodgeballhub/internal/match"
	"github.com/geunssam/dodgeballhub/internal/progress"
	"github.com/geunssam/dodgeballhub/internal/session"
	"github.com/geunssam/dodgeballhub/internal/store"
	"github.com/geunssam/dodgeballhub/internal/teams"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeDomainError maps engine errors onto HTTP statuses. Anything it does
// not recognise is treated as a storage failure the caller may retry.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, match.ErrMatchCompleted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrInvalidTeams),
		errors.Is(err, session.ErrDuplicatePlayer),
		errors.Is(err, session.ErrUnknownPlayer),
		errors.Is(err, session.ErrUnknownStudent),
		errors.Is(err, session.ErrInvalidEvent),
		errors.Is(err, session.ErrUnknownMode),
		errors.Is(err, session.ErrInvalidPreset),
		errors.Is(err, match.ErrInvalidDuration),
		errors.Is(err, teams.ErrInvalidTeamCount),
		errors.Is(err, progress.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		loggerFrom(r).Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "storage unavailable, try again")
	}
}

type ctxKey int

const ctxKeyLogger ctxKey = iota

func loggerFrom(r *http.Request) *slog.Logger {
	if l, ok := r.Context().Value(ctxKeyLogger).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
