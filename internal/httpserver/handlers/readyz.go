package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/cradle/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready          bool `json:"ready"`
	ServicesLoaded int  `json:"services_loaded"`
	Children       int  `json:"children"`
}

// Readyz reports ready once the schema table is built. The children count
// may be zero before the first refresh; that does not block readiness.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		_ = json.NewEncoder(w).Encode(readyzResponse{
			Ready:          d.Table != nil && d.Table.Len() > 0,
			ServicesLoaded: d.Table.Len(),
			Children:       d.MemoryIndex.Count(),
		})
	}
}
