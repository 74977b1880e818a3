package models

// RolePermission stores one grant of a role.
// Keys are validated against the permission catalog before they are written.
type RolePermission struct {
	// RoleID is the ID of the role in this mapping.
	RoleID uint `gorm:"primaryKey;column:role_id"`
	// PermissionKey is the permission key in module.action form.
	PermissionKey string `gorm:"primaryKey;column:permission_key;size:100"`
	// Granted is false for keys explicitly denied.
	Granted bool `gorm:"not null;default:false"`
}

// TableName specifies the database table name for the RolePermission model.
func (RolePermission) TableName() string {
	return "role_permissions"
}

// RolePermissionsFrom converts a permission map into rows for the role.
func RolePermissionsFrom(roleID uint, perms map[string]bool) []RolePermission {
	out := make([]RolePermission, 0, len(perms))
	for k, v := range perms {
		out = append(out, RolePermission{RoleID: roleID, PermissionKey: k, Granted: v})
	}

	return out
}
