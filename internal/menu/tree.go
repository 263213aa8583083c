package menu

import (
	"fmt"

	"github.com/merchdeck/merchdeck/internal/auth"
)

// ConfigError marks a structural problem in the menu declaration
// (duplicate ids, duplicate paths, leaves without paths). These are
// programming errors and abort startup.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("menu configuration: %s", e.Detail)
}

// Node is one entry of the statically declared menu tree. Leaves carry
// a Path; interior nodes carry Children. Cycles are impossible by
// construction: children are declared inline, there are no parent
// pointers.
type Node struct {
	ID                string
	LabelKey          string
	Icon              string
	Path              string
	Children          []Node
	LicenseRequired   bool
	Permissions       []string
	RoleRequired      auth.Role
	FeatureID         string
	Category          string
	Hidden            bool
	ExpandedByDefault bool
}

// IsLeaf reports whether the node is a navigable destination.
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Requirements is the access metadata a Destination carries.
type Requirements struct {
	Permissions     []string
	Role            auth.Role
	LicenseRequired bool
	FeatureID       string
}

// Destination is the flattened leaf view, derived once at startup and
// immutable thereafter.
type Destination struct {
	ID           string
	LabelKey     string
	Path         string
	Icon         string
	Category     string
	Requirements Requirements
}

// Tree is the validated menu catalogue.
type Tree struct {
	roots    []Node
	byID     map[string]Node
	idToPath map[string]string
	pathToID map[string]string
	leaves   []Destination
}

// NewTree validates the declared nodes and builds the derived indexes.
// It fails loudly on any id or path collision.
func NewTree(roots []Node) (*Tree, error) {
	t := &Tree{
		roots:    roots,
		byID:     make(map[string]Node),
		idToPath: make(map[string]string),
		pathToID: make(map[string]string),
	}

	var walk func(nodes []Node, parent string) error
	walk = func(nodes []Node, parent string) error {
		for _, n := range nodes {
			if n.ID == "" {
				return &ConfigError{Detail: fmt.Sprintf("node under %q has no id", parent)}
			}
			if _, dup := t.byID[n.ID]; dup {
				return &ConfigError{Detail: fmt.Sprintf("duplicate menu id %q", n.ID)}
			}
			t.byID[n.ID] = n

			if n.IsLeaf() {
				if n.Path == "" {
					return &ConfigError{Detail: fmt.Sprintf("leaf %q has no path", n.ID)}
				}
				if owner, dup := t.pathToID[n.Path]; dup {
					return &ConfigError{Detail: fmt.Sprintf("path %q declared by both %q and %q", n.Path, owner, n.ID)}
				}
				t.pathToID[n.Path] = n.ID
				t.idToPath[n.ID] = n.Path
				t.leaves = append(t.leaves, Destination{
					ID:       n.ID,
					LabelKey: n.LabelKey,
					Path:     n.Path,
					Icon:     n.Icon,
					Category: n.Category,
					Requirements: Requirements{
						Permissions:     n.Permissions,
						Role:            n.RoleRequired,
						LicenseRequired: n.LicenseRequired,
						FeatureID:       n.FeatureID,
					},
				})
				continue
			}
			if err := walk(n.Children, n.ID); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(roots, ""); err != nil {
		return nil, err
	}
	return t, nil
}

// MustTree is NewTree for the static catalogue, panicking on declaration
// errors.
func MustTree(roots []Node) *Tree {
	t, err := NewTree(roots)
	if err != nil {
		panic(err)
	}
	return t
}

// Roots returns the declared top-level nodes.
func (t *Tree) Roots() []Node {
	return t.roots
}

// Flatten yields all leaves depth-first in declaration order.
func (t *Tree) Flatten() []Destination {
	out := make([]Destination, len(t.leaves))
	copy(out, t.leaves)
	return out
}

// FindByID looks a node up by its stable id.
func (t *Tree) FindByID(id string) (Node, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// PathForID returns the route path of a leaf id.
func (t *Tree) PathForID(id string) (string, bool) {
	p, ok := t.idToPath[id]
	return p, ok
}

// IDForPath returns the leaf id owning a route path. Exact lookup;
// prefix and trailing-slash tolerance live in the route binding.
func (t *Tree) IDForPath(path string) (string, bool) {
	id, ok := t.pathToID[path]
	return id, ok
}

// HomeID is the fixed identity of the always-present home tab.
const HomeID = "dashboard"

// DefaultTree is the static catalogue of navigable destinations.
func DefaultTree() *Tree {
	return MustTree([]Node{
		{
			ID: HomeID, LabelKey: "menu.dashboard", Icon: "◩", Path: "/",
			Category: "overview", Permissions: []string{"view:dashboard"},
			ExpandedByDefault: true,
		},
		{
			ID: "catalog", LabelKey: "menu.catalog", Icon: "▤", Category: "catalog",
			ExpandedByDefault: true,
			Children: []Node{
				{ID: "products", LabelKey: "menu.products", Icon: "▣", Path: "/products",
					Category: "catalog", Permissions: []string{"view:products"}},
				{ID: "stocks", LabelKey: "menu.stocks", Icon: "▥", Path: "/stocks",
					Category: "catalog", Permissions: []string{"view:products", "view:stocks"}},
				{ID: "categories", LabelKey: "menu.categories", Icon: "▦", Path: "/categories",
					Category: "catalog", Permissions: []string{"view:categories"}},
			},
		},
		{
			ID: "sales", LabelKey: "menu.sales", Icon: "▧", Category: "sales",
			Children: []Node{
				{ID: "orders", LabelKey: "menu.orders", Icon: "▨", Path: "/orders",
					Category: "sales", Permissions: []string{"view:orders"}},
				{ID: "invoices", LabelKey: "menu.invoices", Icon: "▩", Path: "/invoices",
					Category: "sales", Permissions: []string{"view:invoices"}},
				{ID: "customers", LabelKey: "menu.customers", Icon: "◫", Path: "/customers",
					Category: "sales", Permissions: []string{"view:customers"}},
			},
		},
		{
			ID: "content", LabelKey: "menu.content", Icon: "◰", Category: "content",
			Children: []Node{
				{ID: "cms-pages", LabelKey: "menu.cms_pages", Icon: "◱", Path: "/cms/pages",
					Category: "content", Permissions: []string{"view:cms"}},
			},
		},
		{
			ID: "media", LabelKey: "menu.media", Icon: "◲", Category: "media",
			Children: []Node{
				{ID: "bulk-media", LabelKey: "menu.bulk_media", Icon: "◳", Path: "/media/bulk",
					Category: "media", Permissions: []string{"edit:products"},
					LicenseRequired: true, FeatureID: "bulk_media"},
			},
		},
		{
			ID: "admin", LabelKey: "menu.admin", Icon: "◴", Category: "administration",
			Children: []Node{
				{ID: "locker-access", LabelKey: "menu.locker_access", Icon: "◵", Path: "/locker/access",
					Category: "administration", Permissions: []string{"admin:locker"},
					RoleRequired: auth.RoleAdmin},
				{ID: "settings", LabelKey: "menu.settings", Icon: "◶", Path: "/settings",
					Category: "administration", RoleRequired: auth.RoleManager},
			},
		},
	})
}
