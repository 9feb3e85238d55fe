package migrate

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/MrSnakeDoc/menav/internal/domain"
	"github.com/MrSnakeDoc/menav/internal/logger"
	"github.com/MrSnakeDoc/menav/internal/sources/layers"
)

const legacyConfig = `
site:
  title: Legacy Nav
  description: my links
  logo_text: LN
profile:
  title: Welcome
  subtitle: back
social:
  - name: GitHub
    url: https://github.com/me
    icon: fab fa-github
fonts:
  body:
    family: Inter
    source: google
navigation:
  - id: home
    name: Home
    active: true
  - id: projects
    name: Projects
categories:
  - name: Dev
    sites:
      - name: GitHub
        url: https://github.com
projects:
  title: My Projects
  categories:
    - name: Go
      sites:
        - name: menav
          url: https://example.com/menav
`

const legacyBookmarks = `
title: Saved
categories:
  - name: Reading
    sites:
      - name: Go blog
        url: https://go.dev/blog
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create dir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", rel, err)
	}
}

func loadEffective(t *testing.T, root string) *domain.EffectiveConfig {
	t.Helper()
	res, err := layers.NewLoader(root, logger.NewNop()).WithoutEnv().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg, err := layers.Decode(layers.EnsureBookmarksNav(res.Tree))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return domain.ApplyDefaults(cfg)
}

func newMigrator(root string, force bool) *Migrator {
	return New(root, Options{
		Force: force,
		Now:   func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) },
	}, logger.NewNop())
}

func TestMigrateRoundTrip(t *testing.T) {
	legacyRoot := t.TempDir()
	writeFile(t, legacyRoot, layers.LegacyDefaultFile, legacyConfig)
	writeFile(t, legacyRoot, layers.LegacyBookmarks, legacyBookmarks)
	want := loadEffective(t, legacyRoot)

	// Migrate a copy, then drop the legacy files so only config/user remains.
	root := t.TempDir()
	writeFile(t, root, layers.LegacyDefaultFile, legacyConfig)
	writeFile(t, root, layers.LegacyBookmarks, legacyBookmarks)

	report, err := newMigrator(root, false).Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Source != layers.LegacyDefaultFile || report.Bookmarks != layers.LegacyBookmarks {
		t.Errorf("report sources = %q / %q", report.Source, report.Bookmarks)
	}
	for _, name := range report.Legacy {
		if err := os.Remove(filepath.Join(root, name)); err != nil {
			t.Fatalf("Remove(%s) error = %v", name, err)
		}
	}

	got := loadEffective(t, root)

	if !reflect.DeepEqual(got.Site, want.Site) {
		t.Errorf("Site = %+v, want %+v", got.Site, want.Site)
	}
	if !reflect.DeepEqual(got.Profile, want.Profile) {
		t.Errorf("Profile = %+v, want %+v", got.Profile, want.Profile)
	}
	if !reflect.DeepEqual(got.Navigation, want.Navigation) {
		t.Errorf("Navigation = %+v, want %+v", got.Navigation, want.Navigation)
	}
	if !reflect.DeepEqual(got.Social, want.Social) {
		t.Errorf("Social = %+v, want %+v", got.Social, want.Social)
	}
	if !reflect.DeepEqual(got.Fonts, want.Fonts) {
		t.Errorf("Fonts = %+v, want %+v", got.Fonts, want.Fonts)
	}
	if !reflect.DeepEqual(got.Categories, want.Categories) {
		t.Errorf("Categories = %+v, want %+v", got.Categories, want.Categories)
	}
	for _, id := range []string{"projects", domain.BookmarksPageID} {
		gp, _ := got.Page(id)
		wp, _ := want.Page(id)
		if !reflect.DeepEqual(gp, wp) {
			t.Errorf("page %s = %+v, want %+v", id, gp, wp)
		}
	}
}

func TestMigrateWritesModularFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, layers.LegacyDefaultFile, legacyConfig)

	report, err := newMigrator(root, false).Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{
		filepath.Join(layers.ModularUserDir, layers.SiteFile),
		filepath.Join(layers.ModularUserDir, layers.NavigationFile),
		filepath.Join(layers.ModularUserDir, layers.PagesDir, "projects.yml"),
		// root categories without a home mapping are written after the nav pages
		filepath.Join(layers.ModularUserDir, layers.PagesDir, "home.yml"),
	}
	if !reflect.DeepEqual(report.Written, want) {
		t.Errorf("Written = %v, want %v", report.Written, want)
	}

	site, err := layers.ReadYAML(filepath.Join(root, want[0]))
	if err != nil {
		t.Fatalf("ReadYAML(site) error = %v", err)
	}
	if site["title"] != "Legacy Nav" || site["favicon"] != domain.DefaultFavicon {
		t.Errorf("site.yml = %v", site)
	}
	if _, ok := site["profile"]; !ok {
		t.Error("site.yml should carry profile")
	}

	data, err := os.ReadFile(filepath.Join(root, want[0]))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	header := "# Migrated from config.yml on 2025-01-01T00:00:00Z\n"
	if string(data[:len(header)]) != header {
		t.Errorf("missing header, got %q", data[:len(header)])
	}
}

func TestMigratePrefersUserFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, layers.LegacyDefaultFile, legacyConfig)
	writeFile(t, root, layers.LegacyUserFile, "site:\n  title: Mine\n")

	report, err := newMigrator(root, false).Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Source != layers.LegacyUserFile {
		t.Errorf("Source = %q, want %q", report.Source, layers.LegacyUserFile)
	}
	if len(report.Legacy) != 2 {
		t.Errorf("Legacy = %v, want both config files", report.Legacy)
	}
}

func TestMigrateNothingToDo(t *testing.T) {
	root := t.TempDir()

	report, err := newMigrator(root, false).Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Written) != 0 {
		t.Errorf("Written = %v, want none", report.Written)
	}
	if _, err := os.Stat(filepath.Join(root, layers.ModularUserDir)); !os.IsNotExist(err) {
		t.Error("config/user should not be created without legacy files")
	}
}

func TestMigrateRefusesOverwrite(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, layers.LegacyDefaultFile, legacyConfig)
	writeFile(t, root, filepath.Join(layers.ModularUserDir, layers.SiteFile), "title: Existing\n")

	if _, err := newMigrator(root, false).Run(); !errors.Is(err, ErrTargetExists) {
		t.Fatalf("Run() error = %v, want ErrTargetExists", err)
	}
	if _, err := newMigrator(root, true).Run(); err != nil {
		t.Fatalf("Run(force) error = %v", err)
	}
}
