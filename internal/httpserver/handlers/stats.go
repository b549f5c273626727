package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/cradle/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cradle/internal/logger"
)

type statsResponse struct {
	Calls map[string]int64 `json:"calls"`
}

// Stats reports the dispatched-call counters per service.
func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		calls, err := d.Store.GetServiceCallStats(r.Context())
		if err != nil {
			d.Logger.Warn("failed to read call stats", logger.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(errorResponse{Error: "call stats unavailable"})
			return
		}

		_ = json.NewEncoder(w).Encode(statsResponse{Calls: calls})
	}
}
