package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/menav/internal/httpserver/deps"
)

// Static serves the generated site. Until the first build finishes it
// answers 503 instead of an empty directory listing.
func Static(d deps.Deps) http.HandlerFunc {
	files := http.FileServer(http.Dir(d.OutputDir))
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Builds.Built() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "site is being built", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	}
}
