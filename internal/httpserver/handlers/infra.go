package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/cradle/internal/httpserver/deps"
)

type componentStatus struct {
	OK              bool   `json:"ok"`
	ChildrenTracked *int   `json:"children_tracked,omitempty"`
	ServicesLoaded  *int   `json:"services_loaded,omitempty"`
	LastRefresh     string `json:"last_refresh,omitempty"`
	Mode            string `json:"mode,omitempty"`
	Impact          string `json:"impact,omitempty"`
	Error           string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		childrenCount := d.MemoryIndex.Count()
		servicesCount := d.Table.Len()
		lastRefresh := d.MemoryIndex.GetLastReload()
		lastRefreshStr := "never"
		if !lastRefresh.IsZero() {
			lastRefreshStr = lastRefresh.Format("2006-01-02 15:04:05")
		}

		// Test Redis connection
		redisStatus := checkRedis(d)

		components := map[string]componentStatus{
			"manifest": {
				OK:             servicesCount > 0,
				ServicesLoaded: &servicesCount,
			},
			"babybuddy": {
				OK:              !lastRefresh.IsZero(),
				ChildrenTracked: &childrenCount,
				LastRefresh:     lastRefreshStr,
			},
			"redis": redisStatus,
		}

		response := infraResponse{
			Mode:       determineMode(components),
			Components: components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func determineMode(components map[string]componentStatus) string {
	// No schema table = nothing can be validated
	if manifest, exists := components["manifest"]; exists && !manifest.OK {
		return "critical"
	}

	// No refresh yet = calls can validate but not resolve children
	if upstream, exists := components["babybuddy"]; exists && !upstream.OK {
		return "degraded"
	}

	// Redis down = no warm restarts and no call stats, still functional
	if redis, exists := components["redis"]; exists && !redis.OK {
		return "degraded"
	}

	return "nominal"
}

func checkRedis(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "warm-restart-disabled",
			Error:  "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := d.RedisClient.Ping(ctx).Err()
	if err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "warm-restart-disabled",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "warm-restart-enabled",
		Error:  "none",
	}
}
