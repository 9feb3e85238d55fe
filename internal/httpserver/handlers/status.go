package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/menav/internal/httpserver/deps"
	redisstore "github.com/MrSnakeDoc/menav/internal/store/redis"
)

// topQueries is the number of queries listed by /api/status.
const topQueries = 10

type componentStatus struct {
	OK         bool     `json:"ok"`
	Records    *int     `json:"records,omitempty"`
	Hash       string   `json:"hash,omitempty"`
	Layers     []string `json:"layers,omitempty"`
	LastBuild  string   `json:"last_build,omitempty"`
	IndexedAt  string   `json:"indexed_at,omitempty"` // last index load, a Redis warm-up included
	DurationMS int64    `json:"duration_ms,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	Impact     string   `json:"impact,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type statusResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
	TopQueries []redisstore.QueryCount    `json:"top_queries,omitempty"`
}

// Status reports the build and cache state for operators.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"build": buildStatus(d),
			"redis": checkRedis(r.Context(), d),
		}

		resp := statusResponse{
			Mode:       determineMode(components),
			Components: components,
		}
		if d.Cache != nil && components["redis"].OK {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			if top, err := d.Cache.TopQueries(ctx, topQueries); err == nil {
				resp.TopQueries = top
			}
			cancel()
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func buildStatus(d deps.Deps) componentStatus {
	count := d.MemoryIndex.Count()
	var indexedAt string
	if t := d.MemoryIndex.GetLastReload(); !t.IsZero() {
		indexedAt = t.Format(time.RFC3339)
	}

	last := d.Builds.Last()
	if last == nil {
		return componentStatus{
			OK:        false,
			Records:   &count,
			LastBuild: "never",
			IndexedAt: indexedAt,
			Error:     "no successful build",
		}
	}
	return componentStatus{
		OK:         true,
		Records:    &count,
		Hash:       last.Hash,
		Layers:     last.Layers,
		LastBuild:  last.BuiltAt.Format(time.RFC3339),
		IndexedAt:  indexedAt,
		DurationMS: last.Duration.Milliseconds(),
	}
}

func determineMode(components map[string]componentStatus) string {
	if build, exists := components["build"]; exists && !build.OK {
		return "critical" // nothing to serve
	}
	if redis, exists := components["redis"]; exists && !redis.OK && redis.Mode != "disabled" {
		return "degraded" // search still works, without cache or stats
	}
	return "ok"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.Redis == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "no-search-cache",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Redis.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "search-cache-disabled",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: "connected"}
}
