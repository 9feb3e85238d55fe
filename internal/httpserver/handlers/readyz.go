package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/menav/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready   bool      `json:"ready"`
	Hash    string    `json:"hash,omitempty"`
	BuiltAt time.Time `json:"built_at,omitzero"`
}

// Readyz is 503 until the first successful build.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		last := d.Builds.Last()
		if !d.Builds.Built() || last == nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false})
			return
		}

		writeJSON(w, http.StatusOK, readyzResponse{
			Ready:   true,
			Hash:    last.Hash,
			BuiltAt: last.BuiltAt,
		})
	}
}
