package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/menav/internal/config"
	"github.com/MrSnakeDoc/menav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/menav/internal/index"
	"github.com/MrSnakeDoc/menav/internal/logger"
	"github.com/MrSnakeDoc/menav/internal/search"
	"github.com/MrSnakeDoc/menav/internal/site"
	redisstore "github.com/MrSnakeDoc/menav/internal/store/redis"
)

type fakeBuilds struct {
	mu      sync.Mutex
	last    *site.Result
	pending chan struct{}
}

func newFakeBuilds() *fakeBuilds {
	return &fakeBuilds{pending: make(chan struct{}, 1)}
}

func (f *fakeBuilds) Built() bool { return f.Last() != nil }

func (f *fakeBuilds) Last() *site.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeBuilds) Trigger() bool {
	select {
	case f.pending <- struct{}{}:
		return true
	default:
		return false
	}
}

func (f *fakeBuilds) finish(idx *index.MemoryIndex) {
	res := &site.Result{
		Hash:    "h1",
		BuiltAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Records: []search.Record{
			search.NewRecord("home", "GitHub", "Code host", "https://github.com", ""),
			search.NewRecord("tools", "Gitea", "Self-hosted git", "https://gitea.io", ""),
			search.NewRecord("tools", "Grafana", "Dashboards", "https://grafana.com", ""),
		},
	}
	idx.Update(index.Snapshot{Hash: res.Hash, BuiltAt: res.BuiltAt, Records: res.Records})
	f.mu.Lock()
	f.last = res
	f.mu.Unlock()
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	counts  map[string]int64
	onGet   func() // runs once, after the next lookup
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}, counts: map[string]int64{}}
}

func (c *fakeCache) GetCachedSearch(_ context.Context, hash, query string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.onGet != nil {
		defer c.onGet()
		c.onGet = nil
	}
	return c.entries[hash+"|"+query], nil
}

func (c *fakeCache) CacheSearch(_ context.Context, hash, query string, body []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hash+"|"+query] = body
	return nil
}

func (c *fakeCache) IncrementQuery(_ context.Context, query string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[query]++
	return nil
}

func (c *fakeCache) TopQueries(_ context.Context, _ int) ([]redisstore.QueryCount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []redisstore.QueryCount{}
	for q, n := range c.counts {
		out = append(out, redisstore.QueryCount{Query: q, Count: n})
	}
	return out, nil
}

type fixture struct {
	server *Server
	builds *fakeBuilds
	index  *index.MemoryIndex
	dir    string
}

func newFixture(t *testing.T, mutate func(d *deps.Deps)) *fixture {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>menav</html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := &fixture{builds: newFakeBuilds(), index: index.NewMemoryIndex(), dir: dir}
	d := deps.Deps{
		Logger:             logger.NewNop(),
		StartTime:          time.Now(),
		Version:            "test",
		OutputDir:          dir,
		MemoryIndex:        f.index,
		Builds:             f.builds,
		SearchBurst:        100,
		SearchRefillPerMin: 100,
	}
	if mutate != nil {
		mutate(&d)
	}
	f.server = New(&config.Config{ListenPort: ":0"}, logger.NewNop(), d)
	return f
}

// do serves one request. Relative targets are sent to localhost:8080, the
// way a browser on the same machine would.
func (f *fixture) do(method, target, remote string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	if strings.HasPrefix(target, "/") {
		r.Host = "localhost:8080"
	}
	if remote != "" {
		r.RemoteAddr = remote
	}
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, r)
	return w
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("body = %v", body)
	}
}

func TestReadyzBeforeAndAfterBuild(t *testing.T) {
	f := newFixture(t, nil)

	if w := f.do(http.MethodGet, "/readyz", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /readyz before build = %d, want 503", w.Code)
	}

	f.builds.finish(f.index)

	w := f.do(http.MethodGet, "/readyz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /readyz after build = %d, want 200", w.Code)
	}
	var body struct {
		Ready bool   `json:"ready"`
		Hash  string `json:"hash"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !body.Ready || body.Hash != "h1" {
		t.Errorf("body = %+v", body)
	}
}

func TestSearchAPI(t *testing.T) {
	f := newFixture(t, nil)

	if w := f.do(http.MethodGet, "/api/search?q=git", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("search before build = %d, want 503", w.Code)
	}

	f.builds.finish(f.index)

	w := f.do(http.MethodGet, "/api/search?q=git", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/search = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var res struct {
		Query  string `json:"query"`
		Total  int    `json:"total"`
		Groups []struct {
			PageID string `json:"page_id"`
			Items  []struct {
				Name string `json:"name"`
				URL  string `json:"url"`
			} `json:"items"`
		} `json:"groups"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if res.Query != "git" || res.Total != 2 || len(res.Groups) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Groups[0].PageID != "home" || res.Groups[1].PageID != "tools" {
		t.Errorf("group order = %s, %s", res.Groups[0].PageID, res.Groups[1].PageID)
	}
	if res.Groups[1].Items[0].Name != "Gitea" {
		t.Errorf("tools items = %+v", res.Groups[1].Items)
	}
}

func TestSearchAPIBlankQuery(t *testing.T) {
	f := newFixture(t, nil)
	f.builds.finish(f.index)

	w := f.do(http.MethodGet, "/api/search?q=%20%20", "")
	if w.Code != http.StatusOK {
		t.Fatalf("blank search = %d", w.Code)
	}
	var res struct {
		Total  int               `json:"total"`
		Groups []json.RawMessage `json:"groups"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if res.Total != 0 || res.Groups == nil || len(res.Groups) != 0 {
		t.Errorf("blank search = %s", w.Body.String())
	}
}

func TestSearchAPIRateLimited(t *testing.T) {
	f := newFixture(t, func(d *deps.Deps) {
		d.SearchBurst = 1
		d.SearchRefillPerMin = 1
	})
	f.builds.finish(f.index)

	if w := f.do(http.MethodGet, "/api/search?q=git", "1.2.3.4:1000"); w.Code != http.StatusOK {
		t.Fatalf("first search = %d", w.Code)
	}
	w := f.do(http.MethodGet, "/api/search?q=git", "1.2.3.4:1000")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second search = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

func TestSearchAPICache(t *testing.T) {
	cache := newFakeCache()
	f := newFixture(t, func(d *deps.Deps) { d.Cache = cache })
	f.builds.finish(f.index)

	first := f.do(http.MethodGet, "/api/search?q=Git", "")
	second := f.do(http.MethodGet, "/api/search?q=git", "")

	if first.Header().Get("X-Cache") != "MISS" || second.Header().Get("X-Cache") != "HIT" {
		t.Errorf("X-Cache = %q then %q, want MISS then HIT",
			first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
	}
	if cache.counts["git"] != 2 {
		t.Errorf("query count = %d, want 2", cache.counts["git"])
	}
}

const builtPage = `<!DOCTYPE html>
<html><body>
<input type="text" id="search" name="q">
<div class="page active" id="home"><div class="sites-grid">
<a class="site-card" href="https://github.com"><i class="fab fa-github"></i><h3>GitHub</h3><p>Code host</p></a>
<a class="site-card" href="https://grafana.com"><i class="fas fa-chart-line"></i><h3>Grafana</h3><p>Dashboards</p></a>
</div></div>
<div class="page" id="search-results"><div class="welcome-section"><p class="subtitle"></p></div>
<section class="search-section" data-section="home" style="display: none;"><div class="sites-grid"></div></section></div>
</body></html>`

func TestSearchPage(t *testing.T) {
	f := newFixture(t, nil)
	if err := os.WriteFile(filepath.Join(f.dir, "index.html"), []byte(builtPage), 0o644); err != nil {
		t.Fatal(err)
	}

	if w := f.do(http.MethodGet, "/search?q=git", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("search page before build = %d, want 503", w.Code)
	}

	f.builds.finish(f.index)

	w := f.do(http.MethodGet, "/search?q=git", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /search = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{
		"Found 1 matches across all pages",
		`<span class="highlight">Git</span>`,
		`value="git"`,
		`class="page" id="home"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("search page missing %q", want)
		}
	}
	if strings.Contains(body, `data-section="home" style="display: none;"`) {
		t.Error("home result section should be visible")
	}

	w = f.do(http.MethodGet, "/search?q=", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `class="page active" id="home"`) {
		t.Errorf("blank search page = %d, home should stay active", w.Code)
	}
}

func TestSearchAPICacheKeyMatchesResults(t *testing.T) {
	cache := newFakeCache()
	f := newFixture(t, func(d *deps.Deps) { d.Cache = cache })
	f.builds.finish(f.index)

	// A rebuild lands between the cache lookup and the search.
	cache.onGet = func() {
		f.index.Update(index.Snapshot{Hash: "h2", Records: []search.Record{
			search.NewRecord("home", "Go", "language", "https://go.dev", ""),
		}})
	}

	w := f.do(http.MethodGet, "/api/search?q=git", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/search = %d", w.Code)
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()
	body, ok := cache.entries["h1|git"]
	if !ok {
		t.Fatalf("no entry cached under the first build's hash: %v", cache.entries)
	}
	if !strings.Contains(string(body), "GitHub") {
		t.Errorf("h1 entry holds another build's results: %s", body)
	}
	if _, ok := cache.entries["h2|git"]; ok {
		t.Error("results of h1 cached under h2")
	}
}

func TestReload(t *testing.T) {
	f := newFixture(t, nil)

	if w := f.do(http.MethodPost, "/reload", "127.0.0.1:5000"); w.Code != http.StatusAccepted {
		t.Errorf("first reload = %d, want 202", w.Code)
	}
	if w := f.do(http.MethodPost, "/reload", "127.0.0.1:5000"); w.Code != http.StatusTooManyRequests {
		t.Errorf("second reload = %d, want 429", w.Code)
	}
	if w := f.do(http.MethodPost, "/reload", "10.0.0.1:5000"); w.Code != http.StatusForbidden {
		t.Errorf("reload from outside loopback = %d, want 403", w.Code)
	}
}

func TestReloadAllowedCIDRS(t *testing.T) {
	f := newFixture(t, func(d *deps.Deps) { d.AllowedCIDRS = []string{"10.0.0.0/8"} })

	if w := f.do(http.MethodPost, "/reload", "10.1.1.1:5000"); w.Code != http.StatusAccepted {
		t.Errorf("reload from allowed network = %d, want 202", w.Code)
	}
}

func TestReloadRejectsForeignHost(t *testing.T) {
	f := newFixture(t, nil)

	// A rebound DNS name resolves to loopback but keeps its own Host header.
	if w := f.do(http.MethodPost, "http://attacker.example/reload", "127.0.0.1:5555"); w.Code != http.StatusForbidden {
		t.Errorf("reload with foreign host = %d, want 403", w.Code)
	}
	if w := f.do(http.MethodGet, "http://attacker.example/api/status", "127.0.0.1:5555"); w.Code != http.StatusForbidden {
		t.Errorf("status with foreign host = %d, want 403", w.Code)
	}
	if w := f.do(http.MethodPost, "http://[::1]:8080/reload", "[::1]:5555"); w.Code != http.StatusAccepted {
		t.Errorf("reload with loopback host = %d, want 202", w.Code)
	}
}

func TestAllowedHosts(t *testing.T) {
	f := newFixture(t, func(d *deps.Deps) {
		d.AllowedHosts = []string{"nav.example.com"}
		d.AllowedCIDRS = []string{"10.0.0.0/8"}
	})
	f.builds.finish(f.index)

	if w := f.do(http.MethodPost, "http://attacker.example/reload", "10.1.1.1:5000"); w.Code != http.StatusForbidden {
		t.Errorf("reload on foreign host = %d, want 403", w.Code)
	}
	if w := f.do(http.MethodPost, "http://nav.example.com:8080/reload", "10.1.1.1:5000"); w.Code != http.StatusAccepted {
		t.Errorf("reload on allowed host = %d, want 202", w.Code)
	}
	// Only the control routes check the Host header.
	if w := f.do(http.MethodGet, "http://attacker.example/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("healthz on foreign host = %d, want 200", w.Code)
	}
}

func TestStatic(t *testing.T) {
	f := newFixture(t, nil)

	if w := f.do(http.MethodGet, "/", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("GET / before build = %d, want 503", w.Code)
	}

	f.builds.finish(f.index)

	w := f.do(http.MethodGet, "/", "")
	if w.Code != http.StatusOK || w.Body.String() != "<html>menav</html>" {
		t.Errorf("GET / = %d %q", w.Code, w.Body.String())
	}
	if w := f.do(http.MethodGet, "/missing.css", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET /missing.css = %d, want 404", w.Code)
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(t, nil)

	var body struct {
		Mode       string `json:"mode"`
		Components map[string]struct {
			OK        bool   `json:"ok"`
			Mode      string `json:"mode"`
			IndexedAt string `json:"indexed_at"`
		} `json:"components"`
	}

	w := f.do(http.MethodGet, "/api/status", "127.0.0.1:5000")
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Mode != "critical" {
		t.Errorf("mode before build = %q, want critical", body.Mode)
	}
	if body.Components["build"].IndexedAt != "" {
		t.Errorf("indexed_at before any index load = %q", body.Components["build"].IndexedAt)
	}

	f.builds.finish(f.index)
	w = f.do(http.MethodGet, "/api/status", "127.0.0.1:5000")
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Mode != "ok" || body.Components["redis"].Mode != "disabled" {
		t.Errorf("status after build = %+v", body)
	}
	if _, err := time.Parse(time.RFC3339, body.Components["build"].IndexedAt); err != nil {
		t.Errorf("indexed_at = %q: %v", body.Components["build"].IndexedAt, err)
	}
}
