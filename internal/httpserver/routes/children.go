package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cradle/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cradle/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/cradle/internal/httpserver/mw"
)

func init() { Register(registerChildren) }

func registerChildren(r chi.Router, d deps.Deps) {
	sub := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger))
	sub.Get("/api/children", handlers.ListChildren(d))
	sub.Get("/api/children/{id}", handlers.GetChild(d))
	sub.Delete("/api/children/{id}/timer", handlers.StopTimer(d))
}
