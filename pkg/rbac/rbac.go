// Package rbac provides role-based access control checks.
package rbac

import (
	"errors"
	"slices"

	"github.com/NicolasHaas/gosanction/pkg/model"
)

var ErrPermissionDenied = errors.New("permission denied")

// permissionMatrix maps roles to their allowed permissions.
var permissionMatrix = map[model.Role]map[model.Permission]bool{
	model.RoleAdmin: {
		model.PermIssueSanction:     true,
		model.PermReviewImports:     true,
		model.PermEditAnySanction:   true,
		model.PermDeleteAnySanction: true,
	},
	model.RoleModerator: {
		model.PermIssueSanction: true,
		model.PermReviewImports: true,
	},
	model.RoleUser: {
		// No special permissions
	},
}

// HasPermission checks if a role has a specific permission.
func HasPermission(role model.Role, perm model.Permission) bool {
	perms, ok := permissionMatrix[role]
	if !ok {
		return false
	}
	return perms[perm]
}

// Allowed checks the actor's role and explicit grants.
func Allowed(actor model.Actor, perm model.Permission) bool {
	return HasPermission(actor.Role, perm) || slices.Contains(actor.Grants, perm)
}

// CanEdit reports whether actor may edit s: the issuer, or anyone holding the edit override.
func CanEdit(actor model.Actor, s model.Sanction) bool {
	return s.Common().IssuedBy == actor.ID || Allowed(actor, model.PermEditAnySanction)
}

// CanDelete reports whether actor may delete s: the issuer, anyone holding the
// delete override, or anyone at all when s is deletable by anyone.
func CanDelete(actor model.Actor, s model.Sanction) bool {
	return s.Common().IssuedBy == actor.ID ||
		Allowed(actor, model.PermDeleteAnySanction) ||
		model.DeletableByAnyone(s)
}

// PermName returns the stable name of a permission, used in logs and config.
func PermName(p model.Permission) string {
	switch p {
	case model.PermIssueSanction:
		return "issue_sanction"
	case model.PermReviewImports:
		return "review_imports"
	case model.PermEditAnySanction:
		return "edit_any_sanction"
	case model.PermDeleteAnySanction:
		return "delete_any_sanction"
	default:
		return "unknown"
	}
}

// ParsePerm is the inverse of PermName.
func ParsePerm(name string) (model.Permission, bool) {
	for _, p := range []model.Permission{
		model.PermIssueSanction,
		model.PermReviewImports,
		model.PermEditAnySanction,
		model.PermDeleteAnySanction,
	} {
		if PermName(p) == name {
			return p, true
		}
	}
	return 0, false
}
