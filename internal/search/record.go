package search

import (
	"strings"

	"golang.org/x/net/html"
)

// Record is one searchable site card.
type Record struct {
	PageID      string `json:"page_id"`
	Name        string `json:"name"`
	Summary     string `json:"description"`
	URL         string `json:"url"`
	Icon        string `json:"icon"`
	SearchText  string `json:"-"`
	Title       string `json:"-"` // lowercased Name
	Description string `json:"-"` // lowercased Summary

	node *html.Node
}

// NewRecord builds a record and precomputes its lowercased search fields.
func NewRecord(pageID, name, summary, url, icon string) Record {
	r := Record{
		PageID:  pageID,
		Name:    name,
		Summary: summary,
		URL:     url,
		Icon:    icon,
	}
	r.Normalize()
	return r
}

// Normalize recomputes the lowercased fields from Name and Summary.
// Records decoded from JSON must be normalized before matching.
func (r *Record) Normalize() {
	r.Title = strings.ToLower(r.Name)
	r.Description = strings.ToLower(r.Summary)
	r.SearchText = r.Title + " " + r.Description
}

// Matches reports whether the lowercased term occurs in the record.
func (r Record) Matches(term string) bool {
	return strings.Contains(r.SearchText, term)
}
