package render

import (
	"bytes"
	"fmt"
	"html/template"
	"path"
	"time"

	"github.com/MrSnakeDoc/menav/internal/domain"
)

// Renderer turns an effective configuration into HTML.
// It holds no state between calls besides the registry and the clock.
type Renderer struct {
	reg *Registry

	// Now is the clock used for the copyright year.
	Now func() time.Time
}

// NewRenderer creates a renderer backed by reg.
func NewRenderer(reg *Registry) *Renderer {
	return &Renderer{reg: reg, Now: time.Now}
}

// PageData is the input of page templates.
type PageData struct {
	ID          string
	IsHome      bool
	Title       string
	Subtitle    string
	Description string
	Categories  []domain.Category
}

// NavItem is a navigation entry with its resolved submenu.
type NavItem struct {
	domain.NavigationEntry
	Submenu []domain.Category
}

// PageView is one rendered page of the document.
type PageView struct {
	ID      string
	Active  bool
	Content template.HTML
}

// SearchSection is the hidden results bucket of one page.
type SearchSection struct {
	ID   string
	Name string
	Icon string
}

// DocumentData is the input of the layout template.
type DocumentData struct {
	Site           domain.Site
	FaviconHref    string
	GoogleFontsURL string
	FontCSS        template.CSS
	Navigation     []NavItem
	Social         []domain.SocialLink
	Pages          []PageView
	SearchSections []SearchSection
}

func (r *Renderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// RenderPage renders the content fragment of one page.
// An id without configured content renders the not-configured placeholder.
func (r *Renderer) RenderPage(pageID string, cfg *domain.EffectiveConfig) (template.HTML, error) {
	set, err := r.instance()
	if err != nil {
		return "", err
	}
	return r.renderPage(set, pageID, cfg)
}

func (r *Renderer) renderPage(set *template.Template, pageID string, cfg *domain.EffectiveConfig) (template.HTML, error) {
	var (
		name string
		data any
	)

	if pageID == domain.HomePageID {
		name = r.reg.Lookup(pageID)
		data = PageData{
			ID:          pageID,
			IsHome:      true,
			Title:       cfg.Profile.Title,
			Subtitle:    cfg.Profile.Subtitle,
			Description: cfg.Profile.Description,
			Categories:  cfg.Categories,
		}
	} else if page, ok := cfg.Page(pageID); ok {
		name = r.reg.Lookup(pageID)
		data = PageData{
			ID:         pageID,
			Title:      page.Title,
			Subtitle:   page.Subtitle,
			Categories: page.Categories,
		}
	} else {
		name = NotConfiguredTemplate
		data = PageData{ID: pageID, Title: pageTitle(cfg, pageID)}
	}

	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render page %s with %s: %w", pageID, name, err)
	}
	return template.HTML(buf.String()), nil
}

// Assemble renders the complete document. The same configuration and
// clock always produce the same bytes.
func (r *Renderer) Assemble(cfg *domain.EffectiveConfig) ([]byte, error) {
	set, err := r.instance()
	if err != nil {
		return nil, err
	}

	data := DocumentData{
		Site:           cfg.Site,
		FaviconHref:    path.Base(cfg.Site.Favicon),
		GoogleFontsURL: GoogleFontsURL(cfg.Fonts),
		FontCSS:        FontVariables(cfg.Fonts),
		Social:         cfg.Social,
	}

	for _, nav := range cfg.Navigation {
		submenu, _ := domain.ResolveSubmenu(nav, cfg)
		data.Navigation = append(data.Navigation, NavItem{NavigationEntry: nav, Submenu: submenu})

		content, err := r.renderPage(set, nav.ID, cfg)
		if err != nil {
			return nil, err
		}
		data.Pages = append(data.Pages, PageView{ID: nav.ID, Active: nav.Active, Content: content})
		data.SearchSections = append(data.SearchSections, SearchSection{ID: nav.ID, Name: nav.Name, Icon: nav.Icon})
	}

	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, LayoutTemplate, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", LayoutTemplate, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) instance() (*template.Template, error) {
	return r.reg.instance(r.now)
}

func pageTitle(cfg *domain.EffectiveConfig, pageID string) string {
	for _, nav := range cfg.Navigation {
		if nav.ID == pageID {
			return nav.Name
		}
	}
	return pageID
}
