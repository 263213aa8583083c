package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(tr map[string]string) Translator {
	return func(key string) string {
		if v, ok := tr[key]; ok {
			return v
		}
		return key
	}
}

var searchFixture = []Node{
	{ID: "grp", LabelKey: "menu.catalog", Children: []Node{
		{ID: "products", LabelKey: "menu.products", Path: "/products", Category: "catalog"},
		{ID: "stocks", LabelKey: "menu.stocks", Path: "/stocks", Category: "catalog"},
	}},
	{ID: "orders", LabelKey: "menu.orders", Path: "/orders", Category: "sales"},
}

var searchLabels = labels(map[string]string{
	"menu.catalog":  "Catalog",
	"menu.products": "Products",
	"menu.stocks":   "Stocks",
	"menu.orders":   "Orders",
	"menu.sales":    "Sales",
})

func TestSearchMatchesLabelSubstring(t *testing.T) {
	res := Search(searchFixture, "prod", searchLabels)
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, "grp", res.Nodes[0].ID)
	require.Len(t, res.Nodes[0].Children, 1)
	assert.Equal(t, "products", res.Nodes[0].Children[0].ID)

	// Retained interior nodes are forcibly expanded.
	assert.True(t, res.Expanded["grp"])

	// Highlight range covers the matched substring.
	assert.Equal(t, MatchRange{Start: 0, End: 4}, res.Highlights["products"])
}

func TestSearchMatchesCategoryLabel(t *testing.T) {
	// "sal" only matches the Sales category label; the Orders leaf is
	// kept through its parent category.
	res := Search(searchFixture, "sal", searchLabels)
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, "orders", res.Nodes[0].ID)
}

func TestSearchEmptyQueryRevertsExpansion(t *testing.T) {
	res := Search(searchFixture, "   ", searchLabels)
	assert.Equal(t, searchFixture, res.Nodes)
	assert.Empty(t, res.Expanded)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	res := Search(searchFixture, "ORDER", searchLabels)
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, "orders", res.Nodes[0].ID)
}

func TestQuickOpenRanks(t *testing.T) {
	dests := []Destination{
		{ID: "products", LabelKey: "menu.products"},
		{ID: "orders", LabelKey: "menu.orders"},
	}

	ranked := QuickOpen(dests, "ord", searchLabels)
	require.Len(t, ranked, 1)
	assert.Equal(t, "orders", ranked[0].Destination.ID)
	assert.NotEmpty(t, ranked[0].MatchedIndexes)

	all := QuickOpen(dests, "", searchLabels)
	assert.Len(t, all, 2)
}
