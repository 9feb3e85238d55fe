package search

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const highlightClass = "highlight"

// Highlight splits text into text nodes, wrapping every case-insensitive
// occurrence of term in a <span class="highlight">. Nodes are built
// directly so text is never parsed as markup.
func Highlight(text, term string) []*html.Node {
	term = NormalizeTerm(term)
	lower := strings.ToLower(text)

	// Lowercasing changed byte offsets; keep the text as is.
	if term == "" || len(lower) != len(text) {
		return []*html.Node{textNode(text)}
	}

	var nodes []*html.Node
	rest := 0
	for {
		i := strings.Index(lower[rest:], term)
		if i < 0 {
			break
		}
		start := rest + i
		end := start + len(term)
		if start > rest {
			nodes = append(nodes, textNode(text[rest:start]))
		}
		nodes = append(nodes, highlightNode(text[start:end]))
		rest = end
	}
	if rest < len(text) || len(nodes) == 0 {
		nodes = append(nodes, textNode(text[rest:]))
	}
	return nodes
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func highlightNode(s string) *html.Node {
	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: "class", Val: highlightClass}},
	}
	span.AppendChild(textNode(s))
	return span
}
