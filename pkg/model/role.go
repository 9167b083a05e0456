package model

import "github.com/disgoorg/snowflake/v2"

// Role represents a moderator's permission level.
type Role int

const (
	RoleUser      Role = iota // Can read history and request deletion of wanted notices
	RoleModerator             // Can record sanctions and review imported records
	RoleAdmin                 // Can edit and delete any sanction
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleModerator:
		return "moderator"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole converts a string to a Role.
func ParseRole(s string) Role {
	switch s {
	case "admin":
		return RoleAdmin
	case "moderator":
		return RoleModerator
	default:
		return RoleUser
	}
}

// Valid returns true if the role is a recognised value (User, Moderator, or Admin).
func (r Role) Valid() bool {
	return r >= RoleUser && r <= RoleAdmin
}

// Permission represents a specific action that can be checked against a role.
type Permission int

const (
	PermIssueSanction Permission = iota
	PermReviewImports
	PermEditAnySanction   // override for issuer-only edits
	PermDeleteAnySanction // override for issuer-only deletes
)

// Actor is the moderator performing a workflow action.
type Actor struct {
	ID   snowflake.ID
	Role Role
	// Grants are permissions held in addition to those of Role, e.g. from
	// configured delete-override roles.
	Grants []Permission
}
