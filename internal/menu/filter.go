package menu

import (
	"github.com/merchdeck/merchdeck/internal/auth"
)

// allowedByPermissions is the permission predicate P(node, user): the
// user must hold every token the node names, and satisfy the role
// requirement when one is set.
func allowedByPermissions(n Node, user *auth.User) bool {
	if user == nil {
		return false
	}
	if !user.HasAll(n.Permissions) {
		return false
	}
	if n.RoleRequired != "" && !user.Role.AtLeast(n.RoleRequired) {
		return false
	}
	return true
}

// allowedByLicense is the license predicate L(node, license). Nodes
// without a license requirement always pass.
func allowedByLicense(n Node, lic auth.License) bool {
	if !n.LicenseRequired {
		return true
	}
	if !lic.Valid {
		return false
	}
	if n.FeatureID != "" && !lic.HasFeature(n.FeatureID) {
		return false
	}
	return true
}

// Allowed composes both predicates with short-circuit AND.
func Allowed(n Node, user *auth.User, lic auth.License) bool {
	return allowedByPermissions(n, user) && allowedByLicense(n, lic)
}

// Filter culls the tree down to nodes the user may access. A leaf is
// kept iff both predicates pass and it is not hidden; an interior node
// is kept iff any child survives.
func Filter(nodes []Node, user *auth.User, lic auth.License) []Node {
	var out []Node
	for _, n := range nodes {
		if n.Hidden {
			continue
		}
		if !Allowed(n, user, lic) {
			continue
		}
		if n.IsLeaf() {
			out = append(out, n)
			continue
		}
		kids := Filter(n.Children, user, lic)
		if len(kids) == 0 {
			continue
		}
		kept := n
		kept.Children = kids
		out = append(out, kept)
	}
	return out
}

// AllowedID reports whether the identified node (and every node on the
// way down to it) survives filtering. Used by navigation to decide
// PermissionDenied redirects.
func AllowedID(t *Tree, id string, user *auth.User, lic auth.License) bool {
	filtered := Filter(t.Roots(), user, lic)
	var find func(nodes []Node) bool
	find = func(nodes []Node) bool {
		for _, n := range nodes {
			if n.ID == id {
				return true
			}
			if find(n.Children) {
				return true
			}
		}
		return false
	}
	return find(filtered)
}
