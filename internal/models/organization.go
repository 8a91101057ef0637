package models

import "time"

// SystemOrgID is the organization sentinel carried by the super-admin.
// It never appears in the organizations collection.
const SystemOrgID = "system"

// Organization represents an organization (tenant) in the system.
// Each organization owns its users, tasks and templates.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	IsActive  bool      `json:"isActive"`
}
