package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/shiftdesk/internal/auth"
	"github.com/wolfeidau/shiftdesk/internal/ids"
	"github.com/wolfeidau/shiftdesk/internal/models"
)

// OrganizationRequest describes a new tenant and its first administrator.
type OrganizationRequest struct {
	Name          string
	AdminUsername string
	AdminPassword string
	AdminFullName string
}

// UserRequest describes a user created by an admin inside their tenant.
type UserRequest struct {
	FullName string
	Username string
	Password string
	Role     models.Role
}

// CreateOrganization creates an active organization and bootstraps one ADMIN
// user in it. Only the super-admin may do this.
func (s *Service) CreateOrganization(ctx context.Context, req OrganizationRequest) (models.Organization, models.User, Result, error) {
	if _, res := s.authorize(ctx, "create_organization", auth.PermOrganizationsCreate); res != Ok {
		return models.Organization{}, models.User{}, res, nil
	}
	if strings.TrimSpace(req.Name) == "" || req.AdminUsername == "" {
		s.skipped(ctx, "create_organization", Invalid)
		return models.Organization{}, models.User{}, Invalid, nil
	}

	org := models.Organization{
		ID:        ids.NewOpaqueID(),
		Name:      req.Name,
		CreatedAt: s.store.Now(),
		IsActive:  true,
	}
	admin := models.User{
		ID:             ids.NewOpaqueID(),
		OrganizationID: org.ID,
		Username:       req.AdminUsername,
		FullName:       req.AdminFullName,
		Role:           models.RoleAdmin,
		Password:       req.AdminPassword,
	}

	err := s.store.MutateOrganizationsAndUsers(ctx, func(orgs []models.Organization, users []models.User) ([]models.Organization, []models.User, error) {
		return append(orgs, org), append(users, admin), nil
	})
	if err != nil {
		return models.Organization{}, models.User{}, Ok, err
	}

	log.Debug().Str("org_id", org.ID).Str("user_id", admin.ID).Msg("organization created")
	return org, admin, Ok, nil
}

// CreateUser adds an ADMIN or ANALYST to the caller's tenant.
func (s *Service) CreateUser(ctx context.Context, req UserRequest) (models.User, Result, error) {
	caller, res := s.authorize(ctx, "create_user", auth.PermUsersManage)
	if res != Ok {
		return models.User{}, res, nil
	}
	if req.Username == "" || (req.Role != models.RoleAdmin && req.Role != models.RoleAnalyst) {
		s.skipped(ctx, "create_user", Invalid)
		return models.User{}, Invalid, nil
	}

	user := models.User{
		ID:             ids.NewOpaqueID(),
		OrganizationID: caller.OrganizationID,
		Username:       req.Username,
		FullName:       req.FullName,
		Role:           req.Role,
		Password:       req.Password,
	}

	err := s.store.MutateUsers(ctx, func(users []models.User) ([]models.User, error) {
		return append(users, user), nil
	})
	if err != nil {
		return models.User{}, Ok, err
	}

	log.Debug().Str("user_id", user.ID).Str("org_id", user.OrganizationID).Str("role", string(user.Role)).Msg("user created")
	return user, Ok, nil
}

// ResetUserPassword sets a new password for a user of the caller's tenant.
func (s *Service) ResetUserPassword(ctx context.Context, userID, password string) (Result, error) {
	caller, res := s.authorize(ctx, "reset_user_password", auth.PermUsersManage)
	if res != Ok {
		return res, nil
	}

	err := s.store.MutateUsers(ctx, func(users []models.User) ([]models.User, error) {
		for i := range users {
			if users[i].ID == userID && users[i].OrganizationID == caller.OrganizationID {
				users[i].Password = password
				return users, nil
			}
		}
		return nil, errSkip{result: NotFound}
	})
	return s.outcome(ctx, "reset_user_password", err)
}

// SaveTemplate inserts or replaces a template of the caller's tenant. A
// template without an ID gets a new one.
func (s *Service) SaveTemplate(ctx context.Context, tpl models.TaskTemplate) (models.TaskTemplate, Result, error) {
	caller, res := s.authorize(ctx, "save_template", auth.PermTemplatesManage)
	if res != Ok {
		return models.TaskTemplate{}, res, nil
	}
	if strings.TrimSpace(tpl.Name) == "" {
		s.skipped(ctx, "save_template", Invalid)
		return models.TaskTemplate{}, Invalid, nil
	}

	if tpl.ID == "" {
		tpl.ID = ids.NewOpaqueID()
	}
	tpl.OrganizationID = caller.OrganizationID
	if tpl.Items == nil {
		tpl.Items = []models.TemplateItem{}
	}

	err := s.store.MutateTemplates(ctx, func(templates []models.TaskTemplate) ([]models.TaskTemplate, error) {
		for i := range templates {
			if templates[i].ID != tpl.ID {
				continue
			}
			if templates[i].OrganizationID != caller.OrganizationID {
				return nil, errSkip{result: NotFound}
			}
			templates[i] = tpl
			return templates, nil
		}
		return append(templates, tpl), nil
	})
	res, err = s.outcome(ctx, "save_template", err)
	if res != Ok || err != nil {
		return models.TaskTemplate{}, res, err
	}

	log.Debug().Str("template_id", tpl.ID).Int("items", len(tpl.Items)).Msg("template saved")
	return tpl, Ok, nil
}

// DeleteTemplate removes a template of the caller's tenant. Tasks already
// generated from it are kept.
func (s *Service) DeleteTemplate(ctx context.Context, id string) (Result, error) {
	caller, res := s.authorize(ctx, "delete_template", auth.PermTemplatesManage)
	if res != Ok {
		return res, nil
	}

	err := s.store.MutateTemplates(ctx, func(templates []models.TaskTemplate) ([]models.TaskTemplate, error) {
		for i := range templates {
			if templates[i].ID == id && templates[i].OrganizationID == caller.OrganizationID {
				return append(templates[:i], templates[i+1:]...), nil
			}
		}
		return nil, errSkip{result: NotFound}
	})
	return s.outcome(ctx, "delete_template", err)
}
