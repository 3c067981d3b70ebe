package server

import (
	"errors"
	"net/http"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/progress"
	"github.com/geunssam/dodgeballhub/internal/session"
)

func handleGetSettings(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := sessions.Settings(r.Context())
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func handlePutSettings(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dodgeball.Settings
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := sessions.UpdateSettings(r.Context(), req); err != nil {
			if errors.Is(err, session.ErrInvalidPreset) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeDomainError(w, r, err)
			return
		}
		s, err := sessions.Settings(r.Context())
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

type BadgeCatalogResponse struct {
	Version     string                      `json:"version"`
	Definitions []dodgeball.BadgeDefinition `json:"definitions"`
}

func handleBadgeCatalog(rec *progress.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := rec.Catalog()
		writeJSON(w, http.StatusOK, BadgeCatalogResponse{Version: c.Version, Definitions: c.Definitions})
	}
}
