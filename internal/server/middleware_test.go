package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   slog.Level
	}{
		{"/api/students", http.StatusOK, slog.LevelInfo},
		{"/api/students/x", http.StatusNotFound, slog.LevelInfo},
		{"/api/matches", http.StatusInternalServerError, slog.LevelError},
		{"/healthz", http.StatusOK, slog.LevelDebug},
		{"/healthz", http.StatusServiceUnavailable, slog.LevelError},
		{"/api/matches/m1/stream", http.StatusOK, slog.LevelDebug},
		{"/ws/matches/m1", http.StatusSwitchingProtocols, slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if got := requestLevel(r, tt.status); got != tt.want {
				t.Errorf("requestLevel(%s, %d) = %v, want %v", tt.path, tt.status, got, tt.want)
			}
		})
	}
}
