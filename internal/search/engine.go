package search

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/MrSnakeDoc/menav/internal/domain"
	"github.com/MrSnakeDoc/menav/internal/logger"
)

const (
	hiddenStyle  = "display: none;"
	visibleStyle = "display: block;"
	activeClass  = "active"
)

// Result summarizes one search call.
type Result struct {
	Term   string  `json:"query"`
	Total  int     `json:"total"`
	Groups []Group `json:"groups"`
}

// Engine applies searches to a rendered document the way the browser
// script does: matched cards are cloned into the results page.
type Engine struct {
	doc    *goquery.Document
	index  *Index
	logger logger.Logger
	active bool
}

// NewEngine creates an engine over doc. The index is built on first search.
func NewEngine(doc *goquery.Document, log logger.Logger) *Engine {
	return &Engine{
		doc:    doc,
		index:  NewIndex(),
		logger: log,
	}
}

// Index returns the engine's index, building it if needed.
func (e *Engine) Index() *Index {
	e.index.Build(e.doc)
	return e.index
}

// Active reports whether the results page is currently shown.
func (e *Engine) Active() bool {
	return e.active
}

// Search shows the cards matching term in the results page. A blank term
// resets the view instead.
func (e *Engine) Search(term string) Result {
	norm := NormalizeTerm(term)
	if norm == "" {
		e.Reset()
		return Result{Term: term}
	}

	groups := e.Index().Match(norm)
	res := Result{Term: term, Total: Total(groups), Groups: groups}

	sections := e.doc.Find(sectionSelector)
	clearSections(sections)

	for _, g := range groups {
		section := sections.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.AttrOr("data-section", "") == g.PageID
		})
		if section.Length() == 0 {
			e.logger.Warn("no result section for page", logger.String("page", g.PageID))
			continue
		}

		grid := section.Find(gridSelector)
		for _, rec := range g.Items {
			e.appendMatch(grid, rec, norm)
		}
		section.SetAttr("style", visibleStyle)
	}

	subtitle := "No matches found"
	if res.Total > 0 {
		subtitle = fmt.Sprintf("Found %d matches across all pages", res.Total)
	}
	e.doc.Find(subtitleSelector).SetText(subtitle)

	e.doc.Find(pageSelector).RemoveClass(activeClass)
	e.doc.Find(resultsSelector).AddClass(activeClass)
	e.active = true

	return res
}

// appendMatch clones the card of rec into grid and highlights term.
// A failure on one card is logged and does not stop the others.
func (e *Engine) appendMatch(grid *goquery.Selection, rec Record, term string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("failed to render search match",
				logger.String("page", rec.PageID),
				logger.String("url", rec.URL),
				logger.String("panic", fmt.Sprint(r)))
		}
	}()

	if rec.node == nil {
		return
	}

	card := e.doc.FindNodes(rec.node).Clone()
	if title := card.Find("h3").First(); title.Length() > 0 {
		title.Empty()
		title.AppendNodes(Highlight(rec.Name, term)...)
	}
	if desc := card.Find("p").First(); desc.Length() > 0 {
		desc.Empty()
		desc.AppendNodes(Highlight(rec.Summary, term)...)
	}
	grid.AppendSelection(card)
}

// Reset hides every result section and shows the page of the active
// navigation entry, or home when none is active.
func (e *Engine) Reset() {
	clearSections(e.doc.Find(sectionSelector))

	pageID := e.doc.Find(activeNavSel).First().AttrOr("data-page", "")
	if pageID == "" {
		pageID = domain.HomePageID
	}

	pages := e.doc.Find(pageSelector)
	pages.RemoveClass(activeClass)
	pages.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("id", "") == pageID
	}).AddClass(activeClass)

	e.active = false
}

func clearSections(sections *goquery.Selection) {
	sections.Each(func(_ int, s *goquery.Selection) {
		s.Find(gridSelector).Empty()
		s.SetAttr("style", hiddenStyle)
	})
}
