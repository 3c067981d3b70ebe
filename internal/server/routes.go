package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("DodgeballHub API", "/openapi.json", "/docs"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/settings", handleGetSettings(d.Sessions))
		r.Put("/settings", handlePutSettings(d.Sessions))
		r.Get("/badges", handleBadgeCatalog(d.Progress))

		r.Post("/students", handleCreateStudent(d.Progress))
		r.Get("/students", handleListStudents(d.Progress))
		r.Get("/students/{id}", handleGetStudent(d.Progress))

		r.Post("/teams/preview", handleTeamsPreview())
		r.Post("/teams/balance", handleTeamsBalance(d.Progress, d.Balancer))

		r.Post("/matches", handleStartMatch(d.Sessions))
		r.Route("/matches/{id}", func(r chi.Router) {
			r.Get("/", handleGetMatch(d.Sessions))
			r.Post("/pause", handlePauseMatch(d.Sessions))
			r.Post("/resume", handleResumeMatch(d.Sessions))
			r.Post("/events", handleScore(d.Sessions))
			r.Post("/eliminate", handleEliminate(d.Sessions))
			r.Get("/stream", handleMatchEvents(d.Broker, d.Sessions))
		})
	})

	if d.WebDir != "" {
		if info, err := os.Stat(d.WebDir); err == nil && info.IsDir() {
			logger.Info("serving web app", "dir", d.WebDir)
			r.NotFound(handleWebApp(d.WebDir))
		}
	}
}
