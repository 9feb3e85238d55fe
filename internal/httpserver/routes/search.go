package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/menav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/menav/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/menav/internal/httpserver/mw"
)

func init() { Register("search", registerSearch) }

func registerSearch(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.SearchBurst,
		RefillPerIPPerMin: d.SearchRefillPerMin,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
		Now:               d.TimeNow,
		Logger:            d.Logger,
	})
	r.With(limit).Get("/api/search", handlers.Search(d))
	r.With(limit).Get("/search", handlers.SearchPage(d))
}
