package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/menav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/menav/internal/logger"
)

// Reload triggers a manual rebuild of the site
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Builds.Trigger() {
			d.Logger.Info("manual rebuild triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("Rebuild triggered\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
			return
		}

		d.Logger.Warn("rebuild already pending",
			logger.String("remote_ip", r.RemoteAddr))
		w.WriteHeader(http.StatusTooManyRequests)
		if _, err := w.Write([]byte("Rebuild already pending, please wait\n")); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}
	}
}
