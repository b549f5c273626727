package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cradle/internal/dispatch"
	"github.com/MrSnakeDoc/cradle/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cradle/internal/logger"
)

// StopTimer discards the active timer of a child without recording an entry.
func StopTimer(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "id")

		child, ok := lookupChild(d, key)
		if !ok {
			writeError(w, http.StatusNotFound, errorResponse{Error: "child not found"})
			return
		}

		if err := d.Dispatcher.StopTimer(r.Context(), child); err != nil {
			if errors.Is(err, dispatch.ErrNoActiveTimer) {
				writeError(w, http.StatusConflict, errorResponse{Error: err.Error()})
				return
			}
			d.Logger.Error("failed to stop timer",
				logger.String("child", child.Slug),
				logger.Error(err))
			writeError(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "child": child.Slug})
	}
}
