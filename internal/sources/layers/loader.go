package layers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/MrSnakeDoc/menav/internal/domain"
	"github.com/MrSnakeDoc/menav/internal/logger"
)

// Source file and directory names, relative to the project root.
const (
	LegacyDefaultFile   = "config.yml"
	LegacyUserFile      = "config.user.yml"
	LegacyBookmarks     = "bookmarks.yml"
	LegacyUserBookmarks = "bookmarks.user.yml"
	ModularDefaultDir   = "config/_default"
	ModularUserDir      = "config/user"

	SiteFile       = "site.yml"
	NavigationFile = "navigation.yml"
	PagesDir       = "pages"

	// EnvPrefix marks environment overrides, e.g. MENAV_SET_SITE__TITLE.
	EnvPrefix = "MENAV_SET_"
)

type sourceKind int

const (
	kindLegacyFile sourceKind = iota
	kindBookmarksFile
	kindModularDir
)

type source struct {
	name string
	kind sourceKind
	path string
}

// reservedKeys are the root keys a legacy file keeps at the root.
// Any other mapping at the root of a legacy file is a page.
var reservedKeys = map[string]bool{
	"site":       true,
	"profile":    true,
	"navigation": true,
	"social":     true,
	"fonts":      true,
	"categories": true,
	"pages":      true,
}

// liftedSiteKeys are moved from site.yml to the root.
var liftedSiteKeys = []string{"profile", "social", "fonts"}

// Result is the outcome of Loader.Load.
type Result struct {
	Tree    Tree
	Applied []string // layer names, ascending priority
	Skipped []string // layers present but unreadable
}

// Loader resolves the configuration layers of a project.
type Loader struct {
	root   string
	logger logger.Logger
	useEnv bool
}

// NewLoader creates a loader for the project rooted at root.
func NewLoader(root string, log logger.Logger) *Loader {
	return &Loader{
		root:   root,
		logger: log,
		useEnv: true,
	}
}

// WithoutEnv disables the environment override layer.
func (l *Loader) WithoutEnv() *Loader {
	l.useEnv = false
	return l
}

func (l *Loader) sources() []source {
	return []source{
		{name: LegacyDefaultFile, kind: kindLegacyFile, path: filepath.Join(l.root, LegacyDefaultFile)},
		{name: LegacyBookmarks, kind: kindBookmarksFile, path: filepath.Join(l.root, LegacyBookmarks)},
		{name: ModularDefaultDir, kind: kindModularDir, path: filepath.Join(l.root, ModularDefaultDir)},
		{name: LegacyUserFile, kind: kindLegacyFile, path: filepath.Join(l.root, LegacyUserFile)},
		{name: LegacyUserBookmarks, kind: kindBookmarksFile, path: filepath.Join(l.root, LegacyUserBookmarks)},
		{name: ModularUserDir, kind: kindModularDir, path: filepath.Join(l.root, ModularUserDir)},
	}
}

// Load reads every existing layer and merges them in ascending priority.
// It fails with domain.ErrConfigMissing only when no layer resolves.
func (l *Loader) Load() (*Result, error) {
	res := &Result{Tree: Tree{}}

	for _, src := range l.sources() {
		tree, err := l.readSource(src)
		if err != nil {
			if errors.Is(err, domain.ErrConfigMissing) {
				l.logger.Debug("config layer absent",
					logger.String("layer", src.name))
				continue
			}
			l.logger.Warn("skipping config layer",
				logger.String("layer", src.name),
				logger.Error(err))
			res.Skipped = append(res.Skipped, src.name)
			continue
		}

		res.Tree = Merge(res.Tree, tree)
		res.Applied = append(res.Applied, src.name)
		l.logger.Info("merged config layer",
			logger.String("layer", src.name),
			logger.String("path", src.path))
	}

	if len(res.Applied) == 0 {
		return nil, fmt.Errorf("no configuration found under %s: %w", l.root, domain.ErrConfigMissing)
	}

	if l.useEnv {
		envTree, err := readEnv()
		if err != nil {
			l.logger.Warn("skipping environment overrides", logger.Error(err))
		} else if len(envTree) > 0 {
			res.Tree = Merge(res.Tree, envTree)
			res.Applied = append(res.Applied, "env")
			l.logger.Info("merged environment overrides",
				logger.Int("keys", len(envTree)))
		}
	}

	return res, nil
}

func (l *Loader) readSource(src source) (Tree, error) {
	switch src.kind {
	case kindLegacyFile:
		t, err := ReadYAML(src.path)
		if err != nil {
			return nil, err
		}
		return normalizeLegacy(t), nil
	case kindBookmarksFile:
		t, err := ReadYAML(src.path)
		if err != nil {
			return nil, err
		}
		return Tree{"pages": Tree{domain.BookmarksPageID: t}}, nil
	case kindModularDir:
		return l.readModularDir(src.path)
	default:
		return nil, fmt.Errorf("unknown source kind %d", src.kind)
	}
}

// readModularDir merges site.yml, navigation.yml and pages/*.yml of one
// modular directory into a single layer. Unreadable files inside the
// directory are skipped individually.
func (l *Loader) readModularDir(dir string) (Tree, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrConfigMissing, dir)
	}

	layer := Tree{}

	if site, err := ReadYAML(filepath.Join(dir, SiteFile)); err == nil {
		layer = Merge(layer, normalizeSite(site))
	} else {
		l.logFileErr(err)
	}

	if doc, err := readDocument(filepath.Join(dir, NavigationFile)); err == nil {
		if nav := normalizeNavigation(doc); nav != nil {
			layer = Merge(layer, nav)
		}
	} else {
		l.logFileErr(err)
	}

	pages, err := l.readPages(filepath.Join(dir, PagesDir))
	if err != nil {
		l.logFileErr(err)
	}
	for _, id := range sortedKeys(pages) {
		page := pages[id]
		pageLayer := Tree{"pages": Tree{id: page}}
		if id == domain.HomePageID {
			if cats, ok := page["categories"]; ok {
				pageLayer["categories"] = cats
			}
		}
		layer = Merge(layer, pageLayer)
	}

	return layer, nil
}

func (l *Loader) readPages(dir string) (map[string]Tree, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list pages in %s: %w", dir, err)
	}

	pages := make(map[string]Tree)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}

		path := filepath.Join(dir, e.Name())
		t, err := ReadYAML(path)
		if err != nil {
			l.logFileErr(err)
			continue
		}
		pages[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = t
		l.logger.Debug("loaded page config", logger.String("path", path))
	}
	return pages, nil
}

func (l *Loader) logFileErr(err error) {
	if errors.Is(err, domain.ErrConfigMissing) {
		l.logger.Debug("config file absent", logger.Error(err))
		return
	}
	l.logger.Warn("skipping config file", logger.Error(err))
}

// normalizeLegacy moves non-reserved root mappings of a legacy file under pages.
func normalizeLegacy(t Tree) Tree {
	out := Tree{}
	pages := Tree{}
	for k, v := range t {
		if !reservedKeys[k] {
			if m, ok := v.(map[string]any); ok {
				pages[k] = m
				continue
			}
		}
		out[k] = v
	}
	if len(pages) > 0 {
		out = Merge(out, Tree{"pages": pages})
	}
	return out
}

// normalizeSite maps site.yml onto the root. A file that already has a
// "site" mapping is taken as root-shaped.
func normalizeSite(t Tree) Tree {
	if _, ok := t["site"].(map[string]any); ok {
		return t
	}

	out := Tree{}
	site := Tree{}
	for k, v := range t {
		site[k] = v
	}
	for _, k := range liftedSiteKeys {
		if v, ok := site[k]; ok {
			out[k] = v
			delete(site, k)
		}
	}
	out["site"] = site
	return out
}

// normalizeNavigation accepts a bare sequence or a mapping with a
// navigation key.
func normalizeNavigation(doc any) Tree {
	switch v := doc.(type) {
	case []any:
		return Tree{"navigation": v}
	case map[string]any:
		if nav, ok := v["navigation"]; ok {
			return Tree{"navigation": nav}
		}
	}
	return nil
}

// readEnv collects MENAV_SET_* overrides. A double underscore separates
// path segments: MENAV_SET_SITE__LOGO_TEXT -> site.logo_text.
func readEnv() (Tree, error) {
	k := koanf.New(keyDelim)
	err := k.Load(env.Provider(EnvPrefix, keyDelim, func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", keyDelim)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	return k.Raw(), nil
}

func sortedKeys(m map[string]Tree) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
