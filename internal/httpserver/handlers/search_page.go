package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/MrSnakeDoc/menav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/menav/internal/logger"
	"github.com/MrSnakeDoc/menav/internal/search"
)

const searchInputSelector = "#search"

// SearchPage answers GET /search?q= for browsers without JavaScript: the
// built index.html is returned with the results page already filled in.
// A blank query returns the page with its default view.
func SearchPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Builds.Built() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "site is being built", http.StatusServiceUnavailable)
			return
		}

		query := r.URL.Query().Get("q")

		data, err := os.ReadFile(filepath.Join(d.OutputDir, "index.html"))
		if err != nil {
			d.Logger.Error("failed to read built page", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		doc, err := search.ParseDocument(data)
		if err != nil {
			d.Logger.Error("failed to parse built page", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		engine := search.NewEngine(doc, d.Logger)
		res := engine.Search(query)
		doc.Find(searchInputSelector).SetAttr("value", query)

		page, err := doc.Html()
		if err != nil {
			d.Logger.Error("failed to render search page", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		d.Logger.Debug("search page request",
			logger.String("query", search.NormalizeTerm(query)),
			logger.Int("total", res.Total),
			logger.Bool("results_page", engine.Active()))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(page))
	}
}
