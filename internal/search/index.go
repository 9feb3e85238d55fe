package search

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors of the rendered document.
const (
	pageSelector     = ".page"
	cardSelector     = ".site-card"
	resultsPageID    = "search-results"
	resultsSelector  = "#" + resultsPageID
	sectionSelector  = resultsSelector + " .search-section"
	gridSelector     = ".sites-grid"
	subtitleSelector = resultsSelector + " .welcome-section .subtitle"
	activeNavSel     = ".nav-item.active"
)

// Index is the flat list of site cards of a rendered document.
// Build is idempotent: once built, later calls leave it untouched.
type Index struct {
	records []Record
	built   bool
}

// NewIndex returns an empty, unbuilt index.
func NewIndex() *Index {
	return &Index{}
}

// FromRecords returns a built index over previously extracted records.
func FromRecords(records []Record) *Index {
	out := make([]Record, len(records))
	copy(out, records)
	for i := range out {
		out[i].Normalize()
	}
	return &Index{records: out, built: true}
}

// Build scans every page except the search results page and records each
// site card in document order. It returns the number of records.
func (ix *Index) Build(doc *goquery.Document) int {
	if ix.built {
		return len(ix.records)
	}

	doc.Find(pageSelector).Each(func(_ int, page *goquery.Selection) {
		pageID, _ := page.Attr("id")
		if pageID == "" || pageID == resultsPageID {
			return
		}
		page.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
			rec := NewRecord(
				pageID,
				strings.TrimSpace(card.Find("h3").First().Text()),
				strings.TrimSpace(card.Find("p").First().Text()),
				card.AttrOr("href", ""),
				card.Find("i").First().AttrOr("class", ""),
			)
			rec.node = card.Get(0)
			ix.records = append(ix.records, rec)
		})
	})

	ix.built = true
	return len(ix.records)
}

// Built reports whether Build has run.
func (ix *Index) Built() bool {
	return ix.built
}

// Records returns a copy of the indexed records.
func (ix *Index) Records() []Record {
	out := make([]Record, len(ix.records))
	copy(out, ix.records)
	return out
}

// Len returns the number of records.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Match runs Match over the indexed records.
func (ix *Index) Match(term string) []Group {
	return Match(ix.records, term)
}

// Extract returns the records of a parsed document.
func Extract(doc *goquery.Document) []Record {
	ix := NewIndex()
	ix.Build(doc)
	return ix.Records()
}

// ParseDocument parses rendered HTML for indexing.
func ParseDocument(data []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return doc, nil
}
