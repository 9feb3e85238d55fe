package domain

// EffectiveConfig is the fully merged configuration consumed by rendering.
//
// It is built fresh on every generation run from the YAML layers,
// normalized by ApplyDefaults and then discarded once the document is written.
type EffectiveConfig struct {
	Site    Site    `yaml:"site"`
	Profile Profile `yaml:"profile"`

	// Navigation order is the sidebar display order.
	Navigation []NavigationEntry `yaml:"navigation"`
	Social     []SocialLink      `yaml:"social"`

	// Fonts is keyed by font role (body, title, ...).
	Fonts map[string]Font `yaml:"fonts"`

	// Categories is the home page shortcut.
	Categories []Category `yaml:"categories"`

	// Pages is keyed by page id, matching NavigationEntry.ID.
	Pages map[string]*PageContent `yaml:"pages"`
}

// Site holds the build-wide site metadata.
type Site struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Author      string `yaml:"author,omitempty"`
	Favicon     string `yaml:"favicon"`
	LogoText    string `yaml:"logo_text,omitempty"`
	Theme       string `yaml:"theme,omitempty"`
}

// Profile drives the home page header.
type Profile struct {
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	Description string `yaml:"description"`
}

// NavigationEntry is one sidebar item. ID is shared with the page it opens.
type NavigationEntry struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Icon   string `yaml:"icon"`
	Active bool   `yaml:"active"`
}

// Category groups site cards within a page.
type Category struct {
	Name  string     `yaml:"name"`
	Icon  string     `yaml:"icon"`
	Sites []SiteCard `yaml:"sites"`
}

// SiteCard is a single link shown in a category grid.
type SiteCard struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Icon        string `yaml:"icon"`
	Description string `yaml:"description"`
}

// PageContent is the content of a non-home page.
type PageContent struct {
	Title      string     `yaml:"title"`
	Subtitle   string     `yaml:"subtitle"`
	Categories []Category `yaml:"categories"`
}

// SocialLink is an external link listed under the navigation.
type SocialLink struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Icon string `yaml:"icon"`
}

// Font declares a CSS font for one role.
// Source "google" makes the assembler emit a Google Fonts stylesheet link.
type Font struct {
	Family string `yaml:"family"`
	Weight string `yaml:"weight,omitempty"`
	Source string `yaml:"source,omitempty"`
}

// HomePageID is the only page id with special handling.
const HomePageID = "home"

// BookmarksPageID is the page id fed by the legacy bookmarks files.
const BookmarksPageID = "bookmarks"

// Page returns the content configured for pageID.
func (c *EffectiveConfig) Page(pageID string) (*PageContent, bool) {
	if c == nil || c.Pages == nil {
		return nil, false
	}
	p, ok := c.Pages[pageID]
	return p, ok && p != nil
}
