// Package export writes task lists as CSV reports.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/wolfeidau/shiftdesk/internal/models"
)

// UnknownUser labels tasks whose assignee is not in the user list.
const UnknownUser = "Desconocido"

// bom makes spreadsheet applications detect UTF-8.
const bom = "\ufeff"

// Header is the first row of every export.
var Header = []string{"ID", "Título", "Categoría", "Prioridad", "Estado", "Asignado A", "Fecha Límite", "Completado En", "Notas"}

// FileName returns the download name for an export made at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("reporte_tareas_%s.csv", now.Format("2006-01-02"))
}

// WriteCSV writes tasks to w, resolving assignees against users. Fields
// containing the delimiter or quotes are quoted with embedded quotes doubled.
func WriteCSV(w io.Writer, tasks []models.Task, users []models.User) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, t := range tasks {
		assignee, ok := names[t.AssignedTo]
		if !ok {
			assignee = UnknownUser
		}

		completedAt := ""
		if t.CompletedAt != nil {
			completedAt = t.CompletedAt.UTC().Format(time.RFC3339)
		}

		row := []string{
			t.ID,
			t.Title,
			t.Category,
			string(t.Priority),
			string(t.Status),
			assignee,
			t.Deadline,
			completedAt,
			t.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", t.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
