package search

import "strings"

// Group holds the matches found on one page.
type Group struct {
	PageID string   `json:"page_id"`
	Items  []Record `json:"items"`
}

// NormalizeTerm trims and lowercases a user supplied term.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// Match returns the records whose title or description contains term,
// grouped by page. Groups appear in the order their page first appears in
// records, and items keep their relative order. An empty term matches
// nothing.
func Match(records []Record, term string) []Group {
	term = NormalizeTerm(term)
	if term == "" {
		return nil
	}

	var groups []Group
	pos := make(map[string]int)

	for _, rec := range records {
		if !rec.Matches(term) {
			continue
		}
		i, ok := pos[rec.PageID]
		if !ok {
			i = len(groups)
			pos[rec.PageID] = i
			groups = append(groups, Group{PageID: rec.PageID})
		}
		groups[i].Items = append(groups[i].Items, rec)
	}
	return groups
}

// Total counts the items across groups.
func Total(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Items)
	}
	return n
}
