package nav

import (
	"sort"
	"strings"

	"github.com/merchdeck/merchdeck/internal/menu"
)

// Binding is the bijection between route paths and tab ids, derived
// from the menu tree's leaves.
type Binding struct {
	pathToID map[string]string
	idToPath map[string]string
	prefixes []string // longest first, "/" excluded
}

// NewBinding builds the binding from the flattened destinations.
func NewBinding(dests []menu.Destination) *Binding {
	b := &Binding{
		pathToID: make(map[string]string, len(dests)),
		idToPath: make(map[string]string, len(dests)),
	}
	for _, d := range dests {
		b.pathToID[d.Path] = d.ID
		b.idToPath[d.ID] = d.Path
		if d.Path != "/" {
			b.prefixes = append(b.prefixes, d.Path)
		}
	}
	sort.Slice(b.prefixes, func(i, j int) bool {
		return len(b.prefixes[i]) > len(b.prefixes[j])
	})
	return b
}

// Resolve maps a path to the owning tab id. Trailing slashes are
// tolerated, and unmatched paths fall back to the longest bound prefix
// ("/products/42" resolves to the products tab). The root path only
// matches exactly, so unknown top-level paths stay unresolved for the
// caller to route home.
func (b *Binding) Resolve(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	norm := path
	if norm != "/" {
		norm = strings.TrimRight(norm, "/")
		if norm == "" {
			norm = "/"
		}
	}
	if id, ok := b.pathToID[norm]; ok {
		return id, true
	}
	for _, p := range b.prefixes {
		if strings.HasPrefix(norm, p+"/") {
			return b.pathToID[p], true
		}
	}
	return "", false
}

// PathOf returns the canonical path of a bound tab id.
func (b *Binding) PathOf(id string) (string, bool) {
	p, ok := b.idToPath[id]
	return p, ok
}
