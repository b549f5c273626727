package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cradle/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cradle/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/cradle/internal/httpserver/mw"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	sub := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	sub.Get("/api/healthz", handlers.Healthz(d))
	sub.Get("/api/readyz", handlers.Readyz(d))
	sub.Get("/api/infra-status", handlers.Infra(d))
}
