package models

import "time"

// Priority of a task.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// TaskStatus is the lifecycle state of a task. The only transition is the
// bidirectional toggle between PENDING and COMPLETED.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

// Task is a single checklist item assigned to a user.
//
// Deadline is a local date-time string in the form "2006-01-02T15:04", built
// from a calendar date and a time of day, so it is kept as text rather than
// being forced through a timezone.
type Task struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organizationId"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Priority       Priority   `json:"priority"`
	AssignedTo     string     `json:"assignedTo"`
	Deadline       string     `json:"deadline"`
	Status         TaskStatus `json:"status"`
	Notes          string     `json:"notes,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// IsCompleted returns true if the task has been completed.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// TaskSpec holds the caller-supplied fields of a task. Identity, tenant,
// status and timestamps are always stamped by the store.
type TaskSpec struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    Priority `json:"priority"`
	AssignedTo  string   `json:"assignedTo"`
}
