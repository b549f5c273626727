package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cradle/internal/domain"
	"github.com/MrSnakeDoc/cradle/internal/httpserver/deps"
)

// childView is the API shape for one tracked child.
type childView struct {
	ID         int                        `json:"id"`
	Slug       string                     `json:"slug"`
	Name       string                     `json:"name"`
	BirthDate  string                     `json:"birth_date"`
	Data       map[string]domain.EntryMap `json:"data,omitempty"`
	LastSeenAt time.Time                  `json:"last_seen_at"`
	Calls      int64                      `json:"calls"`
	Disabled   bool                       `json:"disabled,omitempty"`
}

func childViewOf(c *domain.Child) childView {
	return childView{
		ID:         c.ID,
		Slug:       c.Slug,
		Name:       c.FullName(),
		BirthDate:  c.BirthDate,
		Data:       c.Data,
		LastSeenAt: c.LastSeenAt,
		Calls:      c.Counter,
		Disabled:   c.Disabled,
	}
}

// ListChildren returns all tracked children, sorted by id.
func ListChildren(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		children := d.MemoryIndex.GetAllChildren()
		sort.Slice(children, func(i, j int) bool {
			return children[i].ID < children[j].ID
		})

		views := make([]childView, 0, len(children))
		for _, child := range children {
			views = append(views, childViewOf(child))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(views)
	}
}

// GetChild returns one child by numeric id or slug.
func GetChild(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "id")

		child, ok := lookupChild(d, key)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(errorResponse{Error: "child not found"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(childViewOf(child))
	}
}

func lookupChild(d deps.Deps, key string) (*domain.Child, bool) {
	if id, err := strconv.Atoi(key); err == nil {
		return d.MemoryIndex.GetChild(id)
	}
	return d.MemoryIndex.GetChildBySlug(key)
}
