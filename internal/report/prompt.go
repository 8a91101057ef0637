package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfeidau/shiftdesk/internal/models"
)

const (
	noNotes     = "Sin notas adicionales."
	noCompleted = "Ninguna tarea completada en este periodo."
	noPending   = "No quedan tareas pendientes asignadas."
)

// BuildPrompt renders the handoff prompt for user. Only completed task notes
// and pending task titles and priorities are passed on.
func BuildPrompt(user models.User, tasks []models.Task, now time.Time) string {
	var completed, pending []string
	for _, t := range tasks {
		switch t.Status {
		case models.TaskStatusCompleted:
			notes := t.Notes
			if notes == "" {
				notes = noNotes
			}
			completed = append(completed, fmt.Sprintf("- %s (%s): %s", t.Title, t.Category, notes))
		case models.TaskStatusPending:
			pending = append(pending, fmt.Sprintf("- %s (Prioridad: %s)", t.Title, t.Priority))
		}
	}

	completedText := strings.Join(completed, "\n")
	if completedText == "" {
		completedText = noCompleted
	}
	pendingText := strings.Join(pending, "\n")
	if pendingText == "" {
		pendingText = noPending
	}

	var b strings.Builder
	b.WriteString("Actúa como un asistente administrativo profesional. Tu tarea es redactar un informe de entrega de turno formal y coherente en español.\n\n")
	b.WriteString("**Datos del Turno:**\n")
	fmt.Fprintf(&b, "- Empleado: %s\n", user.FullName)
	fmt.Fprintf(&b, "- Fecha: %s\n", now.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Hora de corte: %s\n\n", now.Format("15:04:05"))
	b.WriteString("**Tareas Completadas y Observaciones:**\n")
	b.WriteString(completedText)
	b.WriteString("\n\n**Pendientes para el siguiente turno:**\n")
	b.WriteString(pendingText)
	b.WriteString("\n\n**Instrucciones de redacción:**\n")
	b.WriteString("1. Genera un solo párrafo narrativo fluido (no una lista con viñetas, integra la información en el texto).\n")
	b.WriteString("2. Empieza con un saludo formal indicando la fecha y horario.\n")
	b.WriteString("3. Resume las tareas completadas destacando las notas/observaciones si existen.\n")
	b.WriteString("4. Menciona claramente qué queda pendiente.\n")
	b.WriteString("5. Termina con un cierre profesional y el nombre del empleado.\n")
	b.WriteString("6. El tono debe ser corporativo y eficiente.\n")
	return b.String()
}
