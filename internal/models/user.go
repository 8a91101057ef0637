package models

// Role is the authorization level of a user.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN" // manages tenants, sees no task data
	RoleAdmin      Role = "ADMIN"       // manages users, tasks and templates of one tenant
	RoleAnalyst    Role = "ANALYST"     // works the tasks assigned to them
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleAnalyst:
		return true
	}
	return false
}

// User is an identity that can log in. Every user except the super-admin
// belongs to exactly one organization.
type User struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	Username       string `json:"username"`
	FullName       string `json:"fullName"`
	Role           Role   `json:"role"`
	Password       string `json:"password,omitempty"`
}

// IsSuperAdmin returns true for the tenant-less super-admin.
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}
