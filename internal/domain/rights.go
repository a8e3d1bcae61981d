// Package domain contains the core business entities for Custos.
package domain

// Well-known right names. Rights are plain strings in the database; these
// constants are the closed set the built-in handlers guard with. The
// RightNoLimits sentinel satisfies any right requirement.
const (
	// RightNoLimits denotes unrestricted (root) access. A user whose
	// resolved right-set contains it passes every guard.
	RightNoLimits = "no_limits"

	RightCreateUser  = "create_user"
	RightViewUser    = "view_user"
	RightListUsers   = "list_users"
	RightUpdateUser  = "update_user"
	RightDeleteUser  = "delete_user"
	RightManageRoles = "manage_roles"

	// RightManageRights covers creating and deleting rights themselves.
	RightManageRights = "manage_rights"
)

// RightCatalog lists every built-in right with its description, in the
// order they are seeded.
var RightCatalog = []Right{
	{Name: RightNoLimits, Description: "Unrestricted access; satisfies any right requirement"},
	{Name: RightCreateUser, Description: "Create user accounts"},
	{Name: RightViewUser, Description: "View a single user account"},
	{Name: RightListUsers, Description: "List user accounts"},
	{Name: RightUpdateUser, Description: "Update user accounts"},
	{Name: RightDeleteUser, Description: "Delete user accounts"},
	{Name: RightManageRoles, Description: "Manage roles and role membership"},
	{Name: RightManageRights, Description: "Manage the rights catalog"},
}

// RoleSeed describes a role and the right names attached to it when the
// seed table is applied.
type RoleSeed struct {
	Name        string
	Description string
	HomeRoute   string
	Rights      []string
}

// DefaultRoleSeeds is the static role-to-rights seed table applied by the
// bootstrap command. Seeding is idempotent: existing roles, rights and
// attachments are left untouched.
var DefaultRoleSeeds = []RoleSeed{
	{
		Name:        "root",
		Description: "Unrestricted administrator",
		HomeRoute:   "/admin",
		Rights:      []string{RightNoLimits},
	},
	{
		Name:        "user_admin",
		Description: "Manages user accounts",
		HomeRoute:   "/users",
		Rights: []string{
			RightCreateUser,
			RightViewUser,
			RightListUsers,
			RightUpdateUser,
			RightDeleteUser,
		},
	},
	{
		Name:        "auditor",
		Description: "Read-only account access",
		HomeRoute:   "/users",
		Rights:      []string{RightViewUser, RightListUsers},
	},
}
