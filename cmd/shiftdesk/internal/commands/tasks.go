package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfeidau/shiftdesk/internal/models"
	"github.com/wolfeidau/shiftdesk/internal/scheduler"
	"github.com/wolfeidau/shiftdesk/internal/service"
	"github.com/wolfeidau/shiftdesk/internal/tenant"
)

type TasksCmd struct {
	List   TasksListCmd   `cmd:"" default:"1" help:"List tasks"`
	Create TasksCreateCmd `cmd:"" help:"Create a task"`
	Range  TasksRangeCmd  `cmd:"" help:"Create one task per day over a date range"`
	Update TasksUpdateCmd `cmd:"" help:"Update a task"`
	Delete TasksDeleteCmd `cmd:"" help:"Delete a task"`
	Toggle TasksToggleCmd `cmd:"" help:"Toggle a task between pending and completed"`
	Notes  TasksNotesCmd  `cmd:"" help:"Set the notes of a task"`
}

// TaskFlags are the caller-supplied fields shared by the create commands.
type TaskFlags struct {
	Title       string `arg:"" help:"task title"`
	Description string `help:"task description" default:""`
	Category    string `help:"task category" default:"General"`
	Priority    string `help:"task priority" default:"MEDIUM" enum:"CRITICAL,HIGH,MEDIUM,LOW"`
	AssignedTo  string `help:"ID of the assigned user" required:""`
}

func (f TaskFlags) spec() models.TaskSpec {
	return models.TaskSpec{
		Title:       f.Title,
		Description: f.Description,
		Category:    f.Category,
		Priority:    models.Priority(f.Priority),
		AssignedTo:  f.AssignedTo,
	}
}

type TasksListCmd struct {
	Mine   bool   `help:"only tasks assigned to you" default:"false"`
	Status string `help:"filter by status (PENDING or COMPLETED)" default:""`
}

func (l *TasksListCmd) Run(ctx context.Context, globals *Globals) error {
	if l.Status != "" && l.Status != string(models.TaskStatusPending) && l.Status != string(models.TaskStatusCompleted) {
		return fmt.Errorf("invalid status %q", l.Status)
	}

	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	view := app.Service.View()
	tasks := view.Tasks
	if l.Mine {
		user, ok := app.Service.Gate().Current()
		if !ok {
			return &ResultError{Action: "list tasks", Result: service.Unauthenticated}
		}
		tasks = tenant.AssignedTo(tasks, user.ID)
	}

	printTasks(globals, view, filterStatus(tasks, l.Status))
	return nil
}

func filterStatus(tasks []models.Task, status string) []models.Task {
	if status == "" {
		return tasks
	}
	out := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if string(task.Status) == status {
			out = append(out, task)
		}
	}
	return out
}

func printTasks(globals *Globals, view tenant.View, tasks []models.Task) {
	out := globals.out()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return
	}

	fmt.Fprintf(out, "%-6s %-32s %-10s %-10s %-16s %-20s\n", "ID", "Title", "Priority", "Status", "Deadline", "Assigned To")
	fmt.Fprintln(out, strings.Repeat("─", 100))
	for _, task := range tasks {
		fmt.Fprintf(out, "%-6s %-32s %-10s %-10s %-16s %-20s\n",
			task.ID,
			truncate(task.Title, 32),
			task.Priority,
			task.Status,
			task.Deadline,
			truncate(view.UserName(task.AssignedTo, task.AssignedTo), 20),
		)
	}
	fmt.Fprintf(out, "\nTotal: %d tasks\n", len(tasks))
}

type TasksCreateCmd struct {
	TaskFlags `embed:""`
	Deadline  string `help:"deadline as YYYY-MM-DDTHH:MM" required:""`
}

func (c *TasksCreateCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	task, res, err := app.Service.CreateTask(ctx, c.spec(), c.Deadline)
	if err := check("create task", res, err); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Created task %s due %s\n", task.ID, task.Deadline)
	return nil
}

type TasksRangeCmd struct {
	TaskFlags `embed:""`
	Time      string `help:"time of day as HH:MM" default:"09:00"`
	Start     string `help:"first day as YYYY-MM-DD" required:""`
	End       string `help:"last day as YYYY-MM-DD" required:""`
}

func (c *TasksRangeCmd) Run(ctx context.Context, globals *Globals) error {
	start, end, err := parseRange(c.Start, c.End)
	if err != nil {
		return err
	}

	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	batch, res, err := app.Service.CreateTaskRange(ctx, service.RangeRequest{
		Spec:      c.spec(),
		TimeOfDay: c.Time,
		Start:     start,
		End:       end,
	})
	if err := check("create task range", res, err); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Created %d tasks\n", len(batch))
	return nil
}

func parseRange(startStr, endStr string) (start, end time.Time, err error) {
	start, err = scheduler.ParseDate(startStr)
	if err != nil {
		return start, end, fmt.Errorf("invalid start date: %w", err)
	}
	end, err = scheduler.ParseDate(endStr)
	if err != nil {
		return start, end, fmt.Errorf("invalid end date: %w", err)
	}
	return start, end, nil
}

type TasksUpdateCmd struct {
	ID          string `arg:"" help:"task ID"`
	Title       string `help:"new title" default:""`
	Description string `help:"new description" default:""`
	Category    string `help:"new category" default:""`
	Priority    string `help:"new priority (CRITICAL, HIGH, MEDIUM or LOW)" default:""`
	AssignedTo  string `help:"new assignee ID" default:""`
	Deadline    string `help:"new deadline as YYYY-MM-DDTHH:MM" default:""`
}

func (u *TasksUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	if u.Priority != "" && !models.Priority(u.Priority).Valid() {
		return fmt.Errorf("invalid priority %q", u.Priority)
	}

	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, ok := app.Service.Gate().Current(); !ok {
		return &ResultError{Action: "update task", Result: service.Unauthenticated}
	}
	task, ok := findTask(app.Service.View().Tasks, u.ID)
	if !ok {
		return &ResultError{Action: "update task", Result: service.NotFound}
	}
	u.apply(&task)

	res, err := app.Service.UpdateTask(ctx, task)
	if err := check("update task", res, err); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Updated task %s\n", task.ID)
	return nil
}

func (u *TasksUpdateCmd) apply(task *models.Task) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&task.Title, u.Title)
	set(&task.Description, u.Description)
	set(&task.Category, u.Category)
	set(&task.AssignedTo, u.AssignedTo)
	set(&task.Deadline, u.Deadline)
	if u.Priority != "" {
		task.Priority = models.Priority(u.Priority)
	}
}

func findTask(tasks []models.Task, id string) (models.Task, bool) {
	for _, task := range tasks {
		if task.ID == id {
			return task, true
		}
	}
	return models.Task{}, false
}

type TasksDeleteCmd struct {
	ID string `arg:"" help:"task ID"`
}

func (d *TasksDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Service.DeleteTask(ctx, d.ID)
	if err := check("delete task", res, err); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Deleted task %s\n", d.ID)
	return nil
}

type TasksToggleCmd struct {
	ID string `arg:"" help:"task ID"`
}

func (t *TasksToggleCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	task, res, err := app.Service.ToggleTaskStatus(ctx, t.ID)
	if err := check("toggle task", res, err); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Task %s is now %s\n", task.ID, task.Status)
	return nil
}

type TasksNotesCmd struct {
	ID    string `arg:"" help:"task ID"`
	Notes string `arg:"" help:"notes text, empty to clear" optional:""`
}

func (n *TasksNotesCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Service.UpdateTaskNotes(ctx, n.ID, n.Notes)
	if err := check("update notes", res, err); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Notes updated for task %s\n", n.ID)
	return nil
}
