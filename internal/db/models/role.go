// Package models contains database model definitions.
package models

import "time"

// Role represents a role in the role-based access control (RBAC) system.
// A role is a named bundle of permission grants; every user holds exactly one role.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// Name is the unique name of the role (e.g., "Administrator", "Sales").
	Name string `gorm:"unique;size:100;not null"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// IsSystem marks roles seeded by the application. They cannot be deleted.
	IsSystem bool `gorm:"default:false"`
	// Permissions holds the grants of the role, one row per permission key.
	Permissions []RolePermission `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}

// PermissionMap returns the grants of the role as a plain map.
func (r *Role) PermissionMap() map[string]bool {
	out := make(map[string]bool, len(r.Permissions))
	for _, p := range r.Permissions {
		out[p.PermissionKey] = p.Granted
	}

	return out
}
