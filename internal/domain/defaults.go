package domain

// Fallback values used by ApplyDefaults.
const (
	DefaultSiteTitle   = "MeNav"
	DefaultFavicon     = "favicon.ico"
	DefaultProfileHead = "Welcome"
	DefaultProfileSub  = "Personal navigation"
	DefaultProfileDesc = "Your bookmarks, one page away."

	DefaultCategoryName = "Untitled"
	DefaultCategoryIcon = "fas fa-folder"

	DefaultSiteName        = "Untitled"
	DefaultSiteURL         = "#"
	DefaultSiteIcon        = "fas fa-link"
	DefaultSiteDescription = "No description"

	DefaultNavIcon    = "fas fa-file"
	DefaultSocialName = "Link"
)

// ApplyDefaults returns a copy of cfg in which every field needed by
// rendering is set. cfg is never mutated; a nil cfg yields a fully
// defaulted empty configuration.
//
// Navigation is also normalized: entries without an id or with an id
// already seen are dropped, and exactly one entry ends up active (the
// first one marked active, else the first entry).
func ApplyDefaults(cfg *EffectiveConfig) *EffectiveConfig {
	if cfg == nil {
		cfg = &EffectiveConfig{}
	}

	out := &EffectiveConfig{
		Site:    cfg.Site,
		Profile: cfg.Profile,
	}

	if out.Site.Title == "" {
		out.Site.Title = DefaultSiteTitle
	}
	if out.Site.Favicon == "" {
		out.Site.Favicon = DefaultFavicon
	}
	if out.Site.LogoText == "" {
		out.Site.LogoText = out.Site.Title
	}

	out.Profile.Title = fallback(out.Profile.Title, DefaultProfileHead)
	out.Profile.Subtitle = fallback(out.Profile.Subtitle, DefaultProfileSub)
	out.Profile.Description = fallback(out.Profile.Description, DefaultProfileDesc)

	out.Navigation = defaultNavigation(cfg.Navigation)

	out.Social = make([]SocialLink, 0, len(cfg.Social))
	for _, s := range cfg.Social {
		s.URL = fallback(s.URL, DefaultSiteURL)
		s.Name = fallback(s.Name, DefaultSocialName)
		s.Icon = fallback(s.Icon, DefaultSiteIcon)
		out.Social = append(out.Social, s)
	}

	out.Fonts = make(map[string]Font, len(cfg.Fonts))
	for key, f := range cfg.Fonts {
		if key == "" || f.Family == "" {
			continue
		}
		out.Fonts[key] = f
	}

	out.Categories = defaultCategories(cfg.Categories)

	out.Pages = make(map[string]*PageContent, len(cfg.Pages))
	for id, page := range cfg.Pages {
		if page == nil {
			continue
		}
		p := &PageContent{
			Title:      page.Title,
			Subtitle:   page.Subtitle,
			Categories: defaultCategories(page.Categories),
		}
		if p.Title == "" {
			p.Title = pageTitle(out.Navigation, id)
		}
		out.Pages[id] = p
	}

	return out
}

func defaultNavigation(in []NavigationEntry) []NavigationEntry {
	nav := make([]NavigationEntry, 0, len(in))
	seen := make(map[string]bool, len(in))
	activeSet := false

	for _, n := range in {
		if n.ID == "" || seen[n.ID] {
			continue
		}
		seen[n.ID] = true

		n.Name = fallback(n.Name, n.ID)
		n.Icon = fallback(n.Icon, DefaultNavIcon)
		if n.Active {
			if activeSet {
				n.Active = false
			}
			activeSet = true
		}
		nav = append(nav, n)
	}

	if !activeSet && len(nav) > 0 {
		nav[0].Active = true
	}
	return nav
}

func defaultCategories(in []Category) []Category {
	out := make([]Category, 0, len(in))
	for _, c := range in {
		cat := Category{
			Name:  fallback(c.Name, DefaultCategoryName),
			Icon:  fallback(c.Icon, DefaultCategoryIcon),
			Sites: make([]SiteCard, 0, len(c.Sites)),
		}
		for _, s := range c.Sites {
			s.Name = fallback(s.Name, DefaultSiteName)
			s.URL = fallback(s.URL, DefaultSiteURL)
			s.Icon = fallback(s.Icon, DefaultSiteIcon)
			s.Description = fallback(s.Description, DefaultSiteDescription)
			cat.Sites = append(cat.Sites, s)
		}
		out = append(out, cat)
	}
	return out
}

func pageTitle(nav []NavigationEntry, id string) string {
	for _, n := range nav {
		if n.ID == id {
			return n.Name
		}
	}
	return id
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
