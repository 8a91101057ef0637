package auth

import (
	"slices"

	"github.com/wolfeidau/shiftdesk/internal/models"
)

// Permission represents an authorized action
type Permission string

const (
	PermOrganizationsCreate Permission = "organizations:create"
	PermUsersManage         Permission = "users:manage"
	PermTasksManage         Permission = "tasks:manage"
	PermTasksWork           Permission = "tasks:work"
	PermTasksExport         Permission = "tasks:export"
	PermTemplatesManage     Permission = "templates:manage"
	PermReportsGenerate     Permission = "reports:generate"
	PermSettingsManage      Permission = "settings:manage"
	PermPreferencesToggle   Permission = "preferences:toggle"
)

// RolePermissions maps roles to allowed permissions
var RolePermissions = map[models.Role][]Permission{
	models.RoleSuperAdmin: {
		PermOrganizationsCreate,
		PermPreferencesToggle,
	},
	models.RoleAdmin: {
		PermUsersManage,
		PermTasksManage,
		PermTasksWork,
		PermTasksExport,
		PermTemplatesManage,
		PermReportsGenerate,
		PermSettingsManage,
		PermPreferencesToggle,
	},
	models.RoleAnalyst: {
		PermTasksWork,
		PermReportsGenerate,
		PermPreferencesToggle,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role models.Role, perm Permission) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	return slices.Contains(perms, perm)
}
