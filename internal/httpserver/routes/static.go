package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/menav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/menav/internal/httpserver/handlers"
)

func init() { Register("static", registerStatic) }

func registerStatic(r chi.Router, d deps.Deps) {
	r.Get("/*", handlers.Static(d))
}
