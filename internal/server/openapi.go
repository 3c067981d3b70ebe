package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/handler/health"
	"github.com/geunssam/dodgeballhub/internal/session"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type idParam struct {
	ID string `path:"id"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "DodgeballHub API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Match clock, scoring, statistics and badges for classroom dodgeball.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/settings
	getSettings, _ := r.NewOperationContext(http.MethodGet, "/api/settings")
	getSettings.SetSummary("Get presets")
	getSettings.SetDescription("Returns the quick-start and detailed-start presets.")
	getSettings.AddRespStructure(dodgeball.Settings{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getSettings)

	// PUT /api/settings
	putSettings, _ := r.NewOperationContext(http.MethodPut, "/api/settings")
	putSettings.SetSummary("Update presets")
	putSettings.SetDescription("Replaces both presets. Durations are in seconds.")
	putSettings.AddReqStructure(dodgeball.Settings{})
	putSettings.AddRespStructure(dodgeball.Settings{}, openapi.WithHTTPStatus(http.StatusOK))
	putSettings.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(putSettings)

	// GET /api/badges
	getBadges, _ := r.NewOperationContext(http.MethodGet, "/api/badges")
	getBadges.SetSummary("Badge catalog")
	getBadges.SetDescription("Returns every badge definition and the catalog version.")
	getBadges.AddRespStructure(BadgeCatalogResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getBadges)

	// POST /api/students
	createStudent, _ := r.NewOperationContext(http.MethodPost, "/api/students")
	createStudent.SetSummary("Register student")
	createStudent.AddReqStructure(CreateStudentRequest{})
	createStudent.AddRespStructure(dodgeball.Student{}, openapi.WithHTTPStatus(http.StatusCreated))
	createStudent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createStudent)

	// GET /api/students
	listStudents, _ := r.NewOperationContext(http.MethodGet, "/api/students")
	listStudents.SetSummary("List students")
	listStudents.SetDescription("Returns every student with cumulative stats, ordered by name.")
	listStudents.AddRespStructure([]dodgeball.Student{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listStudents)

	// GET /api/students/{id}
	getStudent, _ := r.NewOperationContext(http.MethodGet, "/api/students/{id}")
	getStudent.AddReqStructure(idParam{})
	getStudent.SetSummary("Get student")
	getStudent.SetDescription("Returns a student's stats and earned badges in display order.")
	getStudent.AddRespStructure(StudentResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getStudent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getStudent)

	// POST /api/teams/preview
	previewTeams, _ := r.NewOperationContext(http.MethodPost, "/api/teams/preview")
	previewTeams.SetSummary("Preview team sizes")
	previewTeams.AddReqStructure(TeamsPreviewRequest{})
	previewTeams.AddRespStructure(TeamsPreviewResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	previewTeams.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(previewTeams)

	// POST /api/teams/balance
	balanceTeams, _ := r.NewOperationContext(http.MethodPost, "/api/teams/balance")
	balanceTeams.SetSummary("Balance teams")
	balanceTeams.SetDescription("Randomly splits the roster into 2 to 6 near-equal teams.")
	balanceTeams.AddReqStructure(BalanceRequest{})
	balanceTeams.AddRespStructure([]dodgeball.Team{}, openapi.WithHTTPStatus(http.StatusOK))
	balanceTeams.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	balanceTeams.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(balanceTeams)

	// POST /api/matches
	startMatch, _ := r.NewOperationContext(http.MethodPost, "/api/matches")
	startMatch.SetSummary("Start match")
	startMatch.SetDescription("Starts a match for exactly two teams from a stored preset or an explicit one.")
	startMatch.AddReqStructure(session.StartRequest{})
	startMatch.AddRespStructure(dodgeball.MatchSession{}, openapi.WithHTTPStatus(http.StatusCreated))
	startMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(startMatch)

	// GET /api/matches/{id}
	getMatch, _ := r.NewOperationContext(http.MethodGet, "/api/matches/{id}")
	getMatch.AddReqStructure(idParam{})
	getMatch.SetSummary("Get match")
	getMatch.SetDescription("Returns the match snapshot, resuming it if it is not running.")
	getMatch.AddRespStructure(dodgeball.MatchSession{}, openapi.WithHTTPStatus(http.StatusOK))
	getMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getMatch)

	for _, op := range []struct{ path, summary string }{
		{"/api/matches/{id}/pause", "Pause match clock"},
		{"/api/matches/{id}/resume", "Resume match clock"},
	} {
		oc, _ := r.NewOperationContext(http.MethodPost, op.path)
		oc.AddReqStructure(idParam{})
		oc.SetSummary(op.summary)
		oc.AddRespStructure(dodgeball.MatchSession{}, openapi.WithHTTPStatus(http.StatusOK))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
		oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
		_ = r.AddOperation(oc)
	}

	// POST /api/matches/{id}/events
	score, _ := r.NewOperationContext(http.MethodPost, "/api/matches/{id}/events")
	score.AddReqStructure(idParam{})
	score.SetSummary("Record event")
	score.SetDescription("Records a hit, pass, sacrifice or cookie for a player.")
	score.AddReqStructure(ScoreRequest{})
	score.AddRespStructure(dodgeball.PlayerCounters{}, openapi.WithHTTPStatus(http.StatusOK))
	score.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	score.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(score)

	// POST /api/matches/{id}/eliminate
	eliminate, _ := r.NewOperationContext(http.MethodPost, "/api/matches/{id}/eliminate")
	eliminate.AddReqStructure(idParam{})
	eliminate.SetSummary("Eliminate player")
	eliminate.SetDescription("Takes one life from a player. Lives never go below zero.")
	eliminate.AddReqStructure(EliminateRequest{})
	eliminate.AddRespStructure(dodgeball.TeamMemberAssignment{}, openapi.WithHTTPStatus(http.StatusOK))
	eliminate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	eliminate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(eliminate)

	// GET /api/matches/{id}/stream
	stream, _ := r.NewOperationContext(http.MethodGet, "/api/matches/{id}/stream")
	stream.AddReqStructure(idParam{})
	stream.SetSummary("SSE event stream")
	stream.SetDescription("Server-Sent Events for clock ticks, ball additions, scores and the match end.")
	stream.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(stream)

	// GET /ws/matches/{id}
	ws, _ := r.NewOperationContext(http.MethodGet, "/ws/matches/{id}")
	ws.AddReqStructure(idParam{})
	ws.SetSummary("WebSocket event stream")
	ws.SetDescription("Upgrades to a WebSocket that carries the same events as the SSE stream.")
	ws.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(ws)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
