package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/shiftdesk/internal/auth"
	"github.com/wolfeidau/shiftdesk/internal/models"
	"github.com/wolfeidau/shiftdesk/internal/scheduler"
	"github.com/wolfeidau/shiftdesk/internal/telemetry"
)

// RangeRequest asks for one copy of Spec per day from Start to End, due at
// TimeOfDay ("15:04") each day.
type RangeRequest struct {
	Spec      models.TaskSpec
	TimeOfDay string
	Start     time.Time
	End       time.Time
}

// AssignRequest asks for TemplateID to be expanded for UserID on every day
// from Start to End.
type AssignRequest struct {
	TemplateID string
	UserID     string
	Start      time.Time
	End        time.Time
}

// CreateTask adds a single pending task in the caller's tenant with the next
// sequential ID.
func (s *Service) CreateTask(ctx context.Context, spec models.TaskSpec, deadline string) (models.Task, Result, error) {
	user, res := s.authorize(ctx, "create_task", auth.PermTasksManage)
	if res != Ok {
		return models.Task{}, res, nil
	}

	var created models.Task
	err := s.store.MutateTasks(ctx, func(tasks []models.Task) ([]models.Task, error) {
		created = scheduler.New(tasks, s.stamp(user), spec, deadline)
		return scheduler.Prepend(tasks, []models.Task{created}), nil
	})
	if err != nil {
		return models.Task{}, Ok, err
	}

	telemetry.GetMetrics().RecordTasksCreated(ctx, "single", 1)
	log.Debug().Str("task_id", created.ID).Str("org_id", created.OrganizationID).Msg("task created")
	return created, Ok, nil
}

// CreateTaskRange adds one task per day of the inclusive range. A range that
// ends before it starts creates nothing.
func (s *Service) CreateTaskRange(ctx context.Context, req RangeRequest) ([]models.Task, Result, error) {
	user, res := s.authorize(ctx, "create_task_range", auth.PermTasksManage)
	if res != Ok {
		return nil, res, nil
	}

	var batch []models.Task
	err := s.store.MutateTasks(ctx, func(tasks []models.Task) ([]models.Task, error) {
		batch = scheduler.ExpandRange(tasks, s.stamp(user), req.Spec, req.TimeOfDay, req.Start, req.End)
		return scheduler.Prepend(tasks, batch), nil
	})
	if err != nil {
		return nil, Ok, err
	}

	telemetry.GetMetrics().RecordTasksCreated(ctx, "range", len(batch))
	log.Debug().Int("count", len(batch)).Str("org_id", user.OrganizationID).Msg("task range created")
	return batch, Ok, nil
}

// AssignTemplate expands a template of the caller's tenant for a user over an
// inclusive range. A template that does not exist yields NotFound and no
// tasks.
func (s *Service) AssignTemplate(ctx context.Context, req AssignRequest) ([]models.Task, Result, error) {
	user, res := s.authorize(ctx, "assign_template", auth.PermTemplatesManage)
	if res != Ok {
		return nil, res, nil
	}

	tpl, ok := findTemplate(s.store.Snapshot().Templates, req.TemplateID, user.OrganizationID)
	if !ok {
		s.skipped(ctx, "assign_template", NotFound)
		return nil, NotFound, nil
	}

	var batch []models.Task
	err := s.store.MutateTasks(ctx, func(tasks []models.Task) ([]models.Task, error) {
		batch = scheduler.ExpandTemplate(tasks, s.stamp(user), tpl, req.UserID, req.Start, req.End)
		return scheduler.Prepend(tasks, batch), nil
	})
	if err != nil {
		return nil, Ok, err
	}

	telemetry.GetMetrics().RecordTasksCreated(ctx, "template", len(batch))
	log.Debug().Str("template_id", tpl.ID).Str("user_id", req.UserID).Int("count", len(batch)).Msg("template assigned")
	return batch, Ok, nil
}

// UpdateTask replaces the task with the same ID. The replacement stays in
// the caller's tenant.
func (s *Service) UpdateTask(ctx context.Context, task models.Task) (Result, error) {
	user, res := s.authorize(ctx, "update_task", auth.PermTasksManage)
	if res != Ok {
		return res, nil
	}

	task.OrganizationID = user.OrganizationID
	err := s.store.MutateTasks(ctx, func(tasks []models.Task) ([]models.Task, error) {
		i, err := indexInTenant(tasks, task.ID, user.OrganizationID)
		if err != nil {
			return nil, err
		}
		tasks[i] = task
		return tasks, nil
	})
	res, err = s.outcome(ctx, "update_task", err)
	if res == Ok && err == nil {
		log.Debug().Str("task_id", task.ID).Msg("task updated")
	}
	return res, err
}

// DeleteTask removes a task of the caller's tenant.
func (s *Service) DeleteTask(ctx context.Context, id string) (Result, error) {
	user, res := s.authorize(ctx, "delete_task", auth.PermTasksManage)
	if res != Ok {
		return res, nil
	}

	err := s.store.MutateTasks(ctx, func(tasks []models.Task) ([]models.Task, error) {
		i, err := indexInTenant(tasks, id, user.OrganizationID)
		if err != nil {
			return nil, err
		}
		return append(tasks[:i], tasks[i+1:]...), nil
	})
	res, err = s.outcome(ctx, "delete_task", err)
	if res == Ok && err == nil {
		telemetry.GetMetrics().TasksDeletedTotal.Add(ctx, 1)
		log.Debug().Str("task_id", id).Msg("task deleted")
	}
	return res, err
}

// ToggleTaskStatus flips a task between PENDING and COMPLETED. Completing
// stamps completedAt; reopening clears it. No other field changes.
func (s *Service) ToggleTaskStatus(ctx context.Context, id string) (models.Task, Result, error) {
	user, res := s.authorize(ctx, "toggle_task_status", auth.PermTasksWork)
	if res != Ok {
		return models.Task{}, res, nil
	}

	var toggled models.Task
	err := s.store.MutateTasks(ctx, func(tasks []models.Task) ([]models.Task, error) {
		i, err := indexInTenant(tasks, id, user.OrganizationID)
		if err != nil {
			return nil, err
		}
		if tasks[i].IsCompleted() {
			tasks[i].Status = models.TaskStatusPending
			tasks[i].CompletedAt = nil
		} else {
			now := s.store.Now()
			tasks[i].Status = models.TaskStatusCompleted
			tasks[i].CompletedAt = &now
		}
		toggled = tasks[i]
		return tasks, nil
	})
	res, err = s.outcome(ctx, "toggle_task_status", err)
	if res != Ok || err != nil {
		return models.Task{}, res, err
	}

	telemetry.GetMetrics().TasksStatusToggledTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", string(toggled.Status))))
	log.Debug().Str("task_id", id).Str("status", string(toggled.Status)).Msg("task status toggled")
	return toggled, Ok, nil
}

// UpdateTaskNotes replaces the notes of a task and nothing else.
func (s *Service) UpdateTaskNotes(ctx context.Context, id, notes string) (Result, error) {
	user, res := s.authorize(ctx, "update_task_notes", auth.PermTasksWork)
	if res != Ok {
		return res, nil
	}

	err := s.store.MutateTasks(ctx, func(tasks []models.Task) ([]models.Task, error) {
		i, err := indexInTenant(tasks, id, user.OrganizationID)
		if err != nil {
			return nil, err
		}
		tasks[i].Notes = notes
		return tasks, nil
	})
	return s.outcome(ctx, "update_task_notes", err)
}

func (s *Service) stamp(user *models.User) scheduler.Stamp {
	return scheduler.Stamp{OrganizationID: user.OrganizationID, Now: s.store.Now()}
}

// indexInTenant finds id among tasks of orgID. Tasks of other tenants are
// reported as missing.
func indexInTenant(tasks []models.Task, id, orgID string) (int, error) {
	for i, t := range tasks {
		if t.ID == id && t.OrganizationID == orgID {
			return i, nil
		}
	}
	return -1, errSkip{result: NotFound}
}

func findTemplate(templates []models.TaskTemplate, id, orgID string) (models.TaskTemplate, bool) {
	for _, t := range templates {
		if t.ID == id && t.OrganizationID == orgID {
			return t, true
		}
	}
	return models.TaskTemplate{}, false
}
