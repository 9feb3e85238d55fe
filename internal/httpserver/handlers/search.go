package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/menav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/menav/internal/logger"
	"github.com/MrSnakeDoc/menav/internal/search"
	redisstore "github.com/MrSnakeDoc/menav/internal/store/redis"
)

// cacheTimeout bounds every Redis call made while answering a search.
const cacheTimeout = 200 * time.Millisecond

type errorResponse struct {
	Error string `json:"error"`
}

// Search answers GET /api/search?q= with the matches of the last build,
// grouped by page in document order.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")

		if !d.MemoryIndex.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "site not built yet"})
			return
		}

		term := search.NormalizeTerm(query)
		if term == "" {
			writeJSON(w, http.StatusOK, search.Result{Term: query, Groups: []search.Group{}})
			return
		}

		view := d.MemoryIndex.View()
		if body, ok := cachedSearch(r.Context(), d, view.Hash, term); ok {
			writeRaw(w, http.StatusOK, body, "HIT")
			return
		}

		res := view.Search(query)
		body, err := json.Marshal(res)
		if err != nil {
			d.Logger.Error("failed to encode search result", logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "encoding failed"})
			return
		}

		d.Logger.Debug("search request",
			logger.String("query", term),
			logger.Int("total", res.Total))

		storeSearch(r.Context(), d, view.Hash, term, body)
		writeRaw(w, http.StatusOK, body, "MISS")
	}
}

func cachedSearch(ctx context.Context, d deps.Deps, hash, term string) ([]byte, bool) {
	if d.Cache == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	body, err := d.Cache.GetCachedSearch(ctx, hash, term)
	if err != nil {
		d.Logger.Debug("search cache lookup failed", logger.Error(err))
		return nil, false
	}
	if body == nil {
		return nil, false
	}
	countQuery(ctx, d, term)
	return body, true
}

func storeSearch(ctx context.Context, d deps.Deps, hash, term string, body []byte) {
	if d.Cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	if err := d.Cache.CacheSearch(ctx, hash, term, body, redisstore.DefaultCacheTTL); err != nil {
		d.Logger.Debug("failed to cache search", logger.Error(err))
	}
	countQuery(ctx, d, term)
}

func countQuery(ctx context.Context, d deps.Deps, term string) {
	if err := d.Cache.IncrementQuery(ctx, term); err != nil {
		d.Logger.Debug("failed to count query", logger.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body []byte, cache string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Cache", cache)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
