// Package scheduler expands task specifications and templates into concrete
// task batches with contiguous sequential IDs.
package scheduler

import (
	"fmt"
	"time"

	"github.com/wolfeidau/shiftdesk/internal/ids"
	"github.com/wolfeidau/shiftdesk/internal/models"
)

// DateLayout is the civil date format of the date part of a deadline.
const DateLayout = "2006-01-02"

// Stamp carries the values every generated task is stamped with.
type Stamp struct {
	OrganizationID string
	Now            time.Time
}

// ParseDate parses a YYYY-MM-DD civil date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// Deadline joins a date and a time of day into a deadline string.
func Deadline(day time.Time, timeOfDay string) string {
	return day.Format(DateLayout) + "T" + timeOfDay
}

// Days returns every calendar day from start to end inclusive, each at
// midnight. It returns nothing when end is before start.
func Days(start, end time.Time) []time.Time {
	start = midnight(start)
	end = midnight(end)

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// New builds a single pending task with the next ID after existing.
func New(existing []models.Task, stamp Stamp, spec models.TaskSpec, deadline string) models.Task {
	return newTask(ids.NextTaskID(taskIDs(existing), 0), stamp, spec, deadline)
}

// ExpandRange builds one task per day from start to end, due at timeOfDay.
// IDs continue contiguously from the highest ID in existing.
func ExpandRange(existing []models.Task, stamp Stamp, spec models.TaskSpec, timeOfDay string, start, end time.Time) []models.Task {
	existingIDs := taskIDs(existing)

	var batch []models.Task
	for i, day := range Days(start, end) {
		batch = append(batch, newTask(ids.NextTaskID(existingIDs, i), stamp, spec, Deadline(day, timeOfDay)))
	}
	return batch
}

// ExpandTemplate builds one task per template item per day, ordered day
// first then item, assigned to assignee. Each task is due at the item's time
// offset on its day.
func ExpandTemplate(existing []models.Task, stamp Stamp, tpl models.TaskTemplate, assignee string, start, end time.Time) []models.Task {
	existingIDs := taskIDs(existing)

	var batch []models.Task
	offset := 0
	for _, day := range Days(start, end) {
		for _, item := range tpl.Items {
			spec := models.TaskSpec{
				Title:       item.Title,
				Description: item.Description,
				Category:    item.Category,
				Priority:    item.Priority,
				AssignedTo:  assignee,
			}
			batch = append(batch, newTask(ids.NextTaskID(existingIDs, offset), stamp, spec, Deadline(day, item.TimeOffset)))
			offset++
		}
	}
	return batch
}

// Prepend returns batch followed by existing.
func Prepend(existing, batch []models.Task) []models.Task {
	out := make([]models.Task, 0, len(batch)+len(existing))
	out = append(out, batch...)
	return append(out, existing...)
}

func newTask(id string, stamp Stamp, spec models.TaskSpec, deadline string) models.Task {
	return models.Task{
		ID:             id,
		OrganizationID: stamp.OrganizationID,
		Title:          spec.Title,
		Description:    spec.Description,
		Category:       spec.Category,
		Priority:       spec.Priority,
		AssignedTo:     spec.AssignedTo,
		Deadline:       deadline,
		Status:         models.TaskStatusPending,
		CreatedAt:      stamp.Now,
	}
}

func taskIDs(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
