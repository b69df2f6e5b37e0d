package shared

import "fmt"

// Permission is one identifier from the closed permission vocabulary.
type Permission string

// Core platform permissions.
const (
	PermCreateUser = Permission("create_user")
	PermReadUser   = Permission("read_user")
	PermUpdateUser = Permission("update_user")
	PermDeleteUser = Permission("delete_user")

	PermCreateRole = Permission("create_role")
	PermReadRole   = Permission("read_role")
	PermUpdateRole = Permission("update_role")
	PermDeleteRole = Permission("delete_role")

	PermReadPermission   = Permission("read_permission")
	PermAssignPermission = Permission("assign_permission")
	PermRemovePermission = Permission("remove_permission")

	PermAssignRole = Permission("assign_role")
	PermRemoveRole = Permission("remove_role")

	PermCreateProfile = Permission("create_profile")
	PermReadProfile   = Permission("read_profile")
	PermUpdateProfile = Permission("update_profile")
	PermDeleteProfile = Permission("delete_profile")

	PermCreateProduct = Permission("create_product")
	PermReadProduct   = Permission("read_product")
	PermUpdateProduct = Permission("update_product")
	PermDeleteProduct = Permission("delete_product")

	PermCreateRiskMatrix = Permission("create_risk_matrix")
	PermReadRiskMatrix   = Permission("read_risk_matrix")
	PermUpdateRiskMatrix = Permission("update_risk_matrix")
	PermDeleteRiskMatrix = Permission("delete_risk_matrix")
)

// catalogOrder fixes the order in which the catalog is listed.
var catalogOrder = []Permission{
	PermCreateUser, PermReadUser, PermUpdateUser, PermDeleteUser,
	PermCreateRole, PermReadRole, PermUpdateRole, PermDeleteRole,
	PermReadPermission, PermAssignPermission, PermRemovePermission,
	PermAssignRole, PermRemoveRole,
	PermCreateProfile, PermReadProfile, PermUpdateProfile, PermDeleteProfile,
	PermCreateProduct, PermReadProduct, PermUpdateProduct, PermDeleteProduct,
	PermCreateRiskMatrix, PermReadRiskMatrix, PermUpdateRiskMatrix, PermDeleteRiskMatrix,
}

var permissionDescriptions = map[Permission]string{
	PermCreateUser:       "Allows creating new users in the system.",
	PermReadUser:         "Allows reading user information.",
	PermUpdateUser:       "Allows updating existing user information.",
	PermDeleteUser:       "Allows deleting users from the system.",
	PermCreateProfile:    "Allows creating user profiles.",
	PermReadProfile:      "Allows viewing user profiles.",
	PermUpdateProfile:    "Allows modifying user profiles.",
	PermDeleteProfile:    "Allows removing user profiles.",
	PermCreateProduct:    "Allows adding new products to the catalog.",
	PermReadProduct:      "Allows viewing product details.",
	PermUpdateProduct:    "Allows modifying product information.",
	PermDeleteProduct:    "Allows removing products from the catalog.",
	PermCreateRiskMatrix: "Allows creating new risk matrices.",
	PermReadRiskMatrix:   "Allows viewing risk matrices.",
	PermUpdateRiskMatrix: "Allows updating existing risk matrices.",
	PermDeleteRiskMatrix: "Allows deleting risk matrices.",
	PermCreateRole:       "Allows creating new roles in the system.",
	PermReadRole:         "Allows viewing role details.",
	PermUpdateRole:       "Allows modifying existing roles.",
	PermDeleteRole:       "Allows deleting roles from the system.",
	PermReadPermission:   "Allows viewing permissions.",
	PermAssignPermission: "Allows assigning permissions to roles/users.",
	PermRemovePermission: "Allows removing permissions from roles/users.",
	PermAssignRole:       "Allows assigning roles to users.",
	PermRemoveRole:       "Allows removing roles from users.",
}

// PermissionEntry is one row of the permission catalog.
type PermissionEntry struct {
	Name        Permission `json:"name"`
	Description string     `json:"description"`
}

// Description returns the human-readable text for the permission.
func (p Permission) Description() string {
	if d, ok := permissionDescriptions[p]; ok {
		return d
	}
	return "No description available."
}

// Valid reports whether p belongs to the catalog.
func (p Permission) Valid() bool {
	_, ok := permissionDescriptions[p]
	return ok
}

// ParsePermission converts raw input into a catalog permission.
func ParsePermission(raw string) (Permission, error) {
	p := Permission(raw)
	if !p.Valid() {
		return "", fmt.Errorf("unknown permission %q", raw)
	}
	return p, nil
}

// PermissionCatalog lists every permission with its description.
func PermissionCatalog() []PermissionEntry {
	entries := make([]PermissionEntry, 0, len(catalogOrder))
	for _, p := range catalogOrder {
		entries = append(entries, PermissionEntry{Name: p, Description: p.Description()})
	}
	return entries
}
