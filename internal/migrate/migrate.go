// Package migrate converts the legacy single-file configuration into the
// modular config/user layout.
package migrate

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/menav/internal/domain"
	"github.com/MrSnakeDoc/menav/internal/logger"
	"github.com/MrSnakeDoc/menav/internal/sources/layers"
)

// ErrTargetExists is returned when config/user already holds a site.yml
// and Force is not set.
var ErrTargetExists = errors.New("modular configuration already exists")

// Options tunes a migration.
type Options struct {
	Force bool             // overwrite existing modular files
	Now   func() time.Time // timestamp written in file headers
}

// Report lists what a migration did.
type Report struct {
	Source    string   // legacy config file used, "" when none
	Bookmarks string   // legacy bookmarks file copied, "" when none
	Written   []string // files written, relative to the project root
	Legacy    []string // legacy files that can now be removed
}

// Migrator writes config/user/{site.yml,navigation.yml,pages/*.yml}.
type Migrator struct {
	root   string
	opts   Options
	logger logger.Logger
}

// New creates a migrator for the project rooted at root.
func New(root string, opts Options, log logger.Logger) *Migrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Migrator{root: root, opts: opts, logger: log}
}

// Run performs the migration. The user legacy file wins over the default
// one, and bookmarks.user.yml over bookmarks.yml, matching their priority.
func (m *Migrator) Run() (*Report, error) {
	report := &Report{}

	configFile := m.firstExisting(layers.LegacyUserFile, layers.LegacyDefaultFile)
	bookmarksFile := m.firstExisting(layers.LegacyUserBookmarks, layers.LegacyBookmarks)
	for _, name := range []string{layers.LegacyDefaultFile, layers.LegacyUserFile, layers.LegacyBookmarks, layers.LegacyUserBookmarks} {
		if m.exists(name) {
			report.Legacy = append(report.Legacy, name)
		}
	}

	if configFile == "" && bookmarksFile == "" {
		m.logger.Info("no legacy configuration found, nothing to migrate")
		return report, nil
	}

	userDir := filepath.Join(m.root, layers.ModularUserDir)
	if !m.opts.Force && m.exists(filepath.Join(layers.ModularUserDir, layers.SiteFile)) {
		return nil, fmt.Errorf("%w: %s", ErrTargetExists, userDir)
	}
	if err := os.MkdirAll(filepath.Join(userDir, layers.PagesDir), 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create %s: %w", domain.ErrWrite, userDir, err)
	}

	if configFile != "" {
		report.Source = configFile
		tree, err := layers.ReadYAML(filepath.Join(m.root, configFile))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
		}
		if err := m.migrateConfig(tree, configFile, report); err != nil {
			return nil, err
		}
	}

	if bookmarksFile != "" {
		report.Bookmarks = bookmarksFile
		data, err := os.ReadFile(filepath.Join(m.root, bookmarksFile))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", bookmarksFile, err)
		}
		rel := filepath.Join(layers.ModularUserDir, layers.PagesDir, domain.BookmarksPageID+".yml")
		if err := m.write(rel, data); err != nil {
			return nil, err
		}
		report.Written = append(report.Written, rel)
	}

	m.logger.Info("migration complete",
		logger.String("source", report.Source),
		logger.String("bookmarks", report.Bookmarks),
		logger.Strings("written", report.Written))
	return report, nil
}

func (m *Migrator) migrateConfig(tree layers.Tree, source string, report *Report) error {
	if site := m.siteDocument(tree); site != nil {
		rel := filepath.Join(layers.ModularUserDir, layers.SiteFile)
		if err := m.writeYAML(rel, source, site); err != nil {
			return err
		}
		report.Written = append(report.Written, rel)
	}

	nav, _ := tree["navigation"].([]any)
	if len(nav) > 0 {
		rel := filepath.Join(layers.ModularUserDir, layers.NavigationFile)
		if err := m.writeYAML(rel, source, nav); err != nil {
			return err
		}
		report.Written = append(report.Written, rel)
	}

	pagesWritten := make(map[string]bool)
	for _, id := range navIDs(nav) {
		page := legacyPage(tree, id)
		if page == nil {
			continue
		}
		if id == domain.HomePageID {
			if _, ok := page["categories"]; !ok {
				if cats, ok := tree["categories"]; ok {
					page["categories"] = cats
				}
			}
		}
		rel := filepath.Join(layers.ModularUserDir, layers.PagesDir, id+".yml")
		if err := m.writeYAML(rel, source, page); err != nil {
			return err
		}
		report.Written = append(report.Written, rel)
		pagesWritten[id] = true
	}

	if cats, ok := tree["categories"]; ok && !pagesWritten[domain.HomePageID] {
		rel := filepath.Join(layers.ModularUserDir, layers.PagesDir, domain.HomePageID+".yml")
		if err := m.writeYAML(rel, source, map[string]any{"categories": cats}); err != nil {
			return err
		}
		report.Written = append(report.Written, rel)
	}

	return nil
}

// siteDocument builds site.yml: the site mapping with profile, social and
// fonts folded in. Returns nil when there is nothing to write.
func (m *Migrator) siteDocument(tree layers.Tree) map[string]any {
	site := map[string]any{}
	if s, ok := tree["site"].(map[string]any); ok {
		for k, v := range s {
			site[k] = v
		}
	}
	for _, key := range []string{"profile", "social", "fonts"} {
		if v, ok := tree[key]; ok && v != nil {
			site[key] = v
		}
	}
	if len(site) == 0 {
		return nil
	}
	if _, ok := site["favicon"]; !ok {
		site["favicon"] = domain.DefaultFavicon
	}
	return site
}

func (m *Migrator) writeYAML(rel, source string, v any) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Migrated from %s on %s\n\n", source, m.opts.Now().UTC().Format(time.RFC3339))

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", rel, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode %s: %w", rel, err)
	}
	return m.write(rel, buf.Bytes())
}

func (m *Migrator) write(rel string, data []byte) error {
	path := filepath.Join(m.root, rel)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrWrite, path, err)
	}
	m.logger.Debug("wrote migrated file", logger.String("path", path))
	return nil
}

func (m *Migrator) exists(rel string) bool {
	info, err := os.Stat(filepath.Join(m.root, rel))
	return err == nil && !info.IsDir()
}

func (m *Migrator) firstExisting(names ...string) string {
	for _, name := range names {
		if m.exists(name) {
			return name
		}
	}
	return ""
}

func navIDs(nav []any) []string {
	ids := make([]string, 0, len(nav))
	for _, item := range nav {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := entry["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// legacyPage returns a copy of the page mapping stored either at the root
// or under pages.
func legacyPage(tree layers.Tree, id string) map[string]any {
	var src map[string]any
	if p, ok := tree[id].(map[string]any); ok && id != "site" && id != "profile" && id != "fonts" {
		src = p
	} else if pages, ok := tree["pages"].(map[string]any); ok {
		src, _ = pages[id].(map[string]any)
	}
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
