package menu

import (
	"testing"

	"github.com/merchdeck/merchdeck/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTreeValid(t *testing.T) {
	tree := DefaultTree()
	dests := tree.Flatten()
	require.NotEmpty(t, dests)

	// Home is first and owns "/".
	assert.Equal(t, HomeID, dests[0].ID)
	assert.Equal(t, "/", dests[0].Path)

	// Round-trip property: resolve(pathOf(d)) == d for every leaf.
	for _, d := range dests {
		path, ok := tree.PathForID(d.ID)
		require.True(t, ok, d.ID)
		id, ok := tree.IDForPath(path)
		require.True(t, ok, path)
		assert.Equal(t, d.ID, id)
	}
}

func TestFlattenPreservesDeclarationOrder(t *testing.T) {
	tree := MustTree([]Node{
		{ID: "a", LabelKey: "a", Path: "/a"},
		{ID: "grp", LabelKey: "grp", Children: []Node{
			{ID: "b", LabelKey: "b", Path: "/b"},
			{ID: "c", LabelKey: "c", Path: "/c"},
		}},
		{ID: "d", LabelKey: "d", Path: "/d"},
	})

	var ids []string
	for _, d := range tree.Flatten() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestNewTreeFailsLoudly(t *testing.T) {
	_, err := NewTree([]Node{
		{ID: "x", LabelKey: "x", Path: "/x"},
		{ID: "x", LabelKey: "x2", Path: "/x2"},
	})
	require.Error(t, err)
	assert.IsType(t, &ConfigError{}, err)
	assert.Contains(t, err.Error(), "duplicate menu id")

	_, err = NewTree([]Node{
		{ID: "a", LabelKey: "a", Path: "/same"},
		{ID: "b", LabelKey: "b", Path: "/same"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `path "/same"`)

	_, err = NewTree([]Node{{ID: "leafless", LabelKey: "l"}})
	require.NoError(t, err) // interior with no children is culled at filter time, not load

	_, err = NewTree([]Node{{ID: "group", LabelKey: "g", Children: []Node{{ID: "noPath", LabelKey: "n"}}}})
	require.Error(t, err)
}

func TestFilterScenario(t *testing.T) {
	// role=user, permissions {view:dashboard, view:products}, no license:
	// exactly the Dashboard and Products branches survive.
	tree := DefaultTree()
	user := &auth.User{
		ID:   "u1",
		Role: auth.RoleUser,
		Permissions: map[string]bool{
			"view:dashboard": true,
			"view:products":  true,
		},
	}

	filtered := Filter(tree.Roots(), user, auth.License{})
	var leaves []string
	var collect func(nodes []Node)
	collect = func(nodes []Node) {
		for _, n := range nodes {
			if n.IsLeaf() {
				leaves = append(leaves, n.ID)
			}
			collect(n.Children)
		}
	}
	collect(filtered)

	assert.ElementsMatch(t, []string{"dashboard", "products"}, leaves)
	assert.False(t, AllowedID(tree, "locker-access", user, auth.License{}))
	assert.True(t, AllowedID(tree, "products", user, auth.License{}))
}

func TestFilterProperties(t *testing.T) {
	tree := DefaultTree()
	users := []*auth.User{
		nil,
		{ID: "v", Role: auth.RoleViewer, Permissions: map[string]bool{}},
		{ID: "m", Role: auth.RoleManager, Permissions: map[string]bool{
			"view:dashboard": true, "view:products": true, "view:stocks": true,
			"view:orders": true, "view:invoices": true, "view:customers": true,
			"view:categories": true, "view:cms": true, "edit:products": true,
		}},
		{ID: "root", Role: auth.RoleSuperAdmin, Permissions: map[string]bool{
			"view:dashboard": true, "view:products": true, "view:stocks": true,
			"view:orders": true, "view:invoices": true, "view:customers": true,
			"view:categories": true, "view:cms": true, "edit:products": true,
			"admin:locker": true,
		}},
	}
	licenses := []auth.License{
		{},
		{Valid: true, Features: map[string]bool{"bulk_media": true}},
		{Valid: false, Features: map[string]bool{"bulk_media": true}},
	}

	for _, u := range users {
		for _, lic := range licenses {
			filtered := Filter(tree.Roots(), u, lic)
			var check func(nodes []Node)
			check = func(nodes []Node) {
				for _, n := range nodes {
					assert.True(t, Allowed(n, u, lic), "node %s kept but not allowed", n.ID)
					if !n.IsLeaf() {
						assert.NotEmpty(t, n.Children, "empty interior node %s", n.ID)
						check(n.Children)
					}
				}
			}
			check(filtered)
		}
	}
}

func TestLicenseGating(t *testing.T) {
	tree := DefaultTree()
	user := &auth.User{ID: "m", Role: auth.RoleManager, Permissions: map[string]bool{"edit:products": true}}

	assert.False(t, AllowedID(tree, "bulk-media", user, auth.License{}))
	assert.False(t, AllowedID(tree, "bulk-media", user, auth.License{Valid: true}))
	assert.True(t, AllowedID(tree, "bulk-media", user,
		auth.License{Valid: true, Features: map[string]bool{"bulk_media": true}}))
}
