package state

import (
	"time"

	"github.com/wolfeidau/shiftdesk/internal/models"
	"github.com/wolfeidau/shiftdesk/internal/scheduler"
)

// SeedOrganizations returns the organizations used when nothing is persisted.
func SeedOrganizations(now time.Time) []models.Organization {
	return []models.Organization{
		{ID: "org1", Name: "Logística Internacional S.A.", CreatedAt: now, IsActive: true},
		{ID: "org2", Name: "Servicios Navideños Ltd.", CreatedAt: now, IsActive: true},
	}
}

// SeedUsers returns the users used when nothing is persisted.
func SeedUsers() []models.User {
	return []models.User{
		{ID: "su1", OrganizationID: models.SystemOrgID, Username: "superadmin", FullName: "Super Usuario Sistema", Role: models.RoleSuperAdmin, Password: "master123"},
		{ID: "u1", OrganizationID: "org1", Username: "admin_logistica", FullName: "Gerente Logística", Role: models.RoleAdmin, Password: "123456"},
		{ID: "u2", OrganizationID: "org1", Username: "analista_logistica", FullName: "Juan Pérez", Role: models.RoleAnalyst, Password: "user"},
		{ID: "u3", OrganizationID: "org2", Username: "admin_navidad", FullName: "Santa Admin", Role: models.RoleAdmin, Password: "123456"},
		{ID: "u4", OrganizationID: "org2", Username: "elfo_jefe", FullName: "Elfo Operativo", Role: models.RoleAnalyst, Password: "user"},
	}
}

// SeedTasks returns the tasks used when nothing is persisted. Deadlines fall
// on the calendar day of now.
func SeedTasks(now time.Time) []models.Task {
	return []models.Task{
		{
			ID:             "0001",
			OrganizationID: "org1",
			Title:          "Revisar aduanas",
			Description:    "Verificar documentación de contenedores entrantes.",
			Category:       "Aduanas",
			Priority:       models.PriorityHigh,
			AssignedTo:     "u2",
			Deadline:       scheduler.Deadline(now, "10:00"),
			Status:         models.TaskStatusPending,
			CreatedAt:      now,
		},
		{
			ID:             "0002",
			OrganizationID: "org2",
			Title:          "Inventario de Juguetes",
			Description:    "Contar stock en almacén norte.",
			Category:       "Inventario",
			Priority:       models.PriorityCritical,
			AssignedTo:     "u4",
			Deadline:       scheduler.Deadline(now, "12:00"),
			Status:         models.TaskStatusPending,
			CreatedAt:      now,
		},
	}
}
