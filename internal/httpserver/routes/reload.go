package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/menav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/menav/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/menav/internal/httpserver/mw"
	"github.com/MrSnakeDoc/menav/internal/utils"
)

func init() { Register("control", registerReload) }

func registerReload(r chi.Router, d deps.Deps) {
	restrict := mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
	hosts := mw.EnforceHost(controlHosts(d), d.Logger)
	r.With(restrict, hosts).Post("/reload", handlers.Reload(d))
	r.With(restrict, hosts).Get("/api/status", handlers.Status(d))
}

// controlHosts keeps a loopback-only server from being driven through a
// rebound DNS name: with no hosts and no CIDRs configured, only loopback
// Host headers reach the control routes.
func controlHosts(d deps.Deps) []string {
	if len(d.AllowedHosts) == 0 && len(d.AllowedCIDRS) == 0 {
		return utils.LoopbackHosts
	}
	return d.AllowedHosts
}
