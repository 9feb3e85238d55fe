package layers

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/menav/internal/domain"
	"github.com/MrSnakeDoc/menav/internal/logger"
)

// bookmarksNav is appended when a bookmarks page exists without a
// matching navigation entry.
var bookmarksNav = map[string]any{
	"id":   domain.BookmarksPageID,
	"name": "Bookmarks",
	"icon": "fas fa-bookmark",
}

// Decode converts a merged tree into an EffectiveConfig. Scalars of
// the wrong kind are coerced by the YAML decoder where possible.
func Decode(t Tree) (*domain.EffectiveConfig, error) {
	data, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode merged tree: %w", domain.ErrConfigParse, err)
	}

	var cfg domain.EffectiveConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to decode merged tree: %w", domain.ErrConfigParse, err)
	}
	return &cfg, nil
}

// EnsureBookmarksNav returns t with a bookmarks navigation entry when
// pages.bookmarks is set and no entry already carries that id.
func EnsureBookmarksNav(t Tree) Tree {
	pages, _ := t["pages"].(map[string]any)
	if _, ok := pages[domain.BookmarksPageID]; !ok {
		return t
	}

	nav, _ := t["navigation"].([]any)
	for _, item := range nav {
		if m, ok := item.(map[string]any); ok && fmt.Sprint(m["id"]) == domain.BookmarksPageID {
			return t
		}
	}

	out := copyTree(t)
	next := make([]any, 0, len(nav)+1)
	next = append(next, nav...)
	next = append(next, copyTree(bookmarksNav))
	out["navigation"] = next
	return out
}

// LoadOptions tunes LoadConfig.
type LoadOptions struct {
	NoEnv bool // skip the MENAV_SET_* layer
}

// LoadConfig resolves all layers under root and decodes the result.
// The returned config is raw; callers apply domain.ApplyDefaults.
func LoadConfig(root string, log logger.Logger, opts LoadOptions) (*domain.EffectiveConfig, *Result, error) {
	loader := NewLoader(root, log)
	if opts.NoEnv {
		loader.WithoutEnv()
	}
	res, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	res.Tree = EnsureBookmarksNav(res.Tree)

	cfg, err := Decode(res.Tree)
	if err != nil {
		return nil, res, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, res, nil
}
