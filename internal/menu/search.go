package menu

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Translator resolves an i18n label key to display text. The core
// treats translation as an external collaborator; identity is a valid
// translator for tests.
type Translator func(key string) string

// KeyTranslator returns the label key itself.
func KeyTranslator(key string) string { return key }

// MatchRange is the [start, end) byte range of the query inside a
// rendered label, used for highlighting.
type MatchRange struct {
	Start int
	End   int
}

// SearchResult is a filtered tree plus the presentation hints search
// produces: forced expansion of retained interior nodes and highlight
// ranges per leaf id.
type SearchResult struct {
	Nodes      []Node
	Expanded   map[string]bool
	Highlights map[string]MatchRange
}

// Search narrows nodes to leaves whose translated label, or whose
// parent category's translated label, contains the query as substring.
// Interior nodes are retained only with matching children and marked
// expanded while the query is non-empty. An empty query returns the
// input unchanged with no forced expansion.
func Search(nodes []Node, query string, tr Translator) SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	res := SearchResult{
		Expanded:   make(map[string]bool),
		Highlights: make(map[string]MatchRange),
	}
	if q == "" {
		res.Nodes = nodes
		return res
	}

	var walk func(nodes []Node) []Node
	walk = func(nodes []Node) []Node {
		var out []Node
		for _, n := range nodes {
			if n.IsLeaf() {
				label := tr(n.LabelKey)
				lower := strings.ToLower(label)
				if idx := strings.Index(lower, q); idx >= 0 {
					res.Highlights[n.ID] = MatchRange{Start: idx, End: idx + len(q)}
					out = append(out, n)
					continue
				}
				if strings.Contains(strings.ToLower(tr("menu."+n.Category)), q) {
					out = append(out, n)
				}
				continue
			}
			kids := walk(n.Children)
			if len(kids) == 0 {
				continue
			}
			kept := n
			kept.Children = kids
			res.Expanded[n.ID] = true
			out = append(out, kept)
		}
		return out
	}

	res.Nodes = walk(nodes)
	return res
}

// RankedDestination is a quick-open palette entry with its fuzzy score
// and the matched rune indexes for highlighting.
type RankedDestination struct {
	Destination    Destination
	Score          int
	MatchedIndexes []int
}

type destSource struct {
	dests []Destination
	tr    Translator
}

func (s destSource) String(i int) string { return s.tr(s.dests[i].LabelKey) }
func (s destSource) Len() int            { return len(s.dests) }

// QuickOpen ranks destinations against a free-form query for the
// jump-to-destination palette. Empty query yields the catalogue order.
func QuickOpen(dests []Destination, query string, tr Translator) []RankedDestination {
	if strings.TrimSpace(query) == "" {
		out := make([]RankedDestination, len(dests))
		for i, d := range dests {
			out[i] = RankedDestination{Destination: d}
		}
		return out
	}

	matches := fuzzy.FindFrom(query, destSource{dests: dests, tr: tr})
	out := make([]RankedDestination, 0, len(matches))
	for _, m := range matches {
		out = append(out, RankedDestination{
			Destination:    dests[m.Index],
			Score:          m.Score,
			MatchedIndexes: m.MatchedIndexes,
		})
	}
	return out
}
