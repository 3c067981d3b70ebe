package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// handleWebApp serves the classroom web app from dir. Unknown paths get
// index.html so client-side routes survive a reload; unknown /api paths keep
// the JSON error envelope.
func handleWebApp(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if info, err := os.Stat(filepath.Join(dir, filepath.Clean(r.URL.Path))); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}
