package domain

// ResolveSubmenu returns the categories shown as a submenu under nav.
//
// Lookup order:
//   - "home" -> cfg.Categories
//   - cfg.Pages[nav.ID].Categories when the page exists and has categories
//
// The boolean is false when the entry has no submenu.
func ResolveSubmenu(nav NavigationEntry, cfg *EffectiveConfig) ([]Category, bool) {
	if cfg == nil {
		return nil, false
	}

	if nav.ID == HomePageID {
		if len(cfg.Categories) == 0 {
			return nil, false
		}
		return cfg.Categories, true
	}

	page, ok := cfg.Page(nav.ID)
	if !ok || len(page.Categories) == 0 {
		return nil, false
	}
	return page.Categories, true
}
