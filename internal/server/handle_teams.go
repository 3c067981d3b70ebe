package server

import (
	"net/http"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/progress"
	"github.com/geunssam/dodgeballhub/internal/teams"
)

type TeamsPreviewRequest struct {
	Players int `json:"players"`
	Teams   int `json:"teams"`
}

type TeamsPreviewResponse struct {
	Sizes []int `json:"sizes"`
}

type BalanceRequest struct {
	// StudentIDs defaults to every registered student when empty.
	StudentIDs []string `json:"studentIds,omitempty"`
	Teams      int      `json:"teams"`
	NameStyle  string   `json:"nameStyle,omitempty"`
}

func handleTeamsPreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TeamsPreviewRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Players < 0 {
			writeError(w, http.StatusBadRequest, "players must not be negative")
			return
		}
		sizes, err := teams.Sizes(req.Players, req.Teams)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, TeamsPreviewResponse{Sizes: sizes})
	}
}

func handleTeamsBalance(rec *progress.Recorder, b *teams.Balancer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BalanceRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		style := teams.NameStyle(req.NameStyle)
		switch style {
		case "":
			style = teams.StyleColored
		case teams.StyleColored, teams.StyleNumbered:
		default:
			writeError(w, http.StatusBadRequest, "unknown name style")
			return
		}

		roster := req.StudentIDs
		if len(roster) == 0 {
			all, err := rec.Students(r.Context())
			if err != nil {
				writeDomainError(w, r, err)
				return
			}
			for _, s := range all {
				roster = append(roster, s.ID)
			}
		} else {
			for _, id := range roster {
				if _, err := rec.Student(r.Context(), id); err != nil {
					writeDomainError(w, r, err)
					return
				}
			}
		}

		out, err := b.Balance(roster, req.Teams, style)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if out == nil {
			out = []dodgeball.Team{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}
