// Package tenant derives the role and tenant scoped view of the raw state.
package tenant

import (
	"github.com/wolfeidau/shiftdesk/internal/models"
	"github.com/wolfeidau/shiftdesk/internal/state"
)

// View is the projection of the raw collections visible to one user.
type View struct {
	Organizations []models.Organization
	Users         []models.User
	Tasks         []models.Task
	Templates     []models.TaskTemplate
}

// Filter returns the part of snap that user may see. With no user every
// collection is empty. The super-admin sees every organization and no tenant
// data; admins and analysts see only the users, tasks and templates of their
// own organization.
func Filter(snap state.Snapshot, user *models.User) View {
	view := View{
		Organizations: []models.Organization{},
		Users:         []models.User{},
		Tasks:         []models.Task{},
		Templates:     []models.TaskTemplate{},
	}
	if user == nil {
		return view
	}

	switch user.Role {
	case models.RoleSuperAdmin:
		view.Organizations = append(view.Organizations, snap.Organizations...)
	case models.RoleAdmin, models.RoleAnalyst:
		orgID := user.OrganizationID
		view.Users = byOrg(snap.Users, orgID, func(u models.User) string { return u.OrganizationID })
		view.Tasks = byOrg(snap.Tasks, orgID, func(t models.Task) string { return t.OrganizationID })
		view.Templates = byOrg(snap.Templates, orgID, func(t models.TaskTemplate) string { return t.OrganizationID })
	}

	return view
}

func byOrg[T any](items []T, orgID string, org func(T) string) []T {
	out := []T{}
	for _, item := range items {
		if org(item) == orgID {
			out = append(out, item)
		}
	}
	return out
}

// AssignedTo returns the tasks in tasks assigned to userID.
func AssignedTo(tasks []models.Task, userID string) []models.Task {
	out := []models.Task{}
	for _, t := range tasks {
		if t.AssignedTo == userID {
			out = append(out, t)
		}
	}
	return out
}

// UserName returns the full name of the user with id, or fallback when no
// such user is visible.
func (v View) UserName(id, fallback string) string {
	for _, u := range v.Users {
		if u.ID == id {
			return u.FullName
		}
	}
	return fallback
}
