package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/geunssam/dodgeballhub/internal/dodgeball"
	"github.com/geunssam/dodgeballhub/internal/progress"
)

type CreateStudentRequest struct {
	Name string `json:"name"`
}

type StudentResponse struct {
	Student dodgeball.Student `json:"student"`
	Badges  []dodgeball.Badge `json:"badges"`
}

func handleCreateStudent(rec *progress.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateStudentRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s, err := rec.CreateStudent(r.Context(), req.Name)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, s)
	}
}

func handleListStudents(rec *progress.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := rec.Students(r.Context())
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGetStudent(rec *progress.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s, err := rec.Student(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		bs, err := rec.Badges(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, StudentResponse{Student: s, Badges: bs})
	}
}
