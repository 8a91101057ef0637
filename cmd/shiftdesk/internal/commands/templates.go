package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wolfeidau/shiftdesk/internal/models"
	"github.com/wolfeidau/shiftdesk/internal/service"
)

var errNoTemplates = errors.New("no templates found in file")

type TemplatesCmd struct {
	List   TemplatesListCmd   `cmd:"" default:"1" help:"List templates"`
	Import TemplatesImportCmd `cmd:"" help:"Create or replace templates from a YAML file"`
	Delete TemplatesDeleteCmd `cmd:"" help:"Delete a template"`
	Assign TemplatesAssignCmd `cmd:"" help:"Generate tasks from a template for a user over a date range"`
}

type TemplatesListCmd struct{}

func (l *TemplatesListCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	out := globals.out()
	templates := app.Service.View().Templates
	if len(templates) == 0 {
		fmt.Fprintln(out, "No templates found.")
		return nil
	}

	for _, tpl := range templates {
		fmt.Fprintf(out, "%s  %s (%d items)\n", tpl.ID, tpl.Name, len(tpl.Items))
		for _, item := range tpl.Items {
			fmt.Fprintf(out, "    %s  %-8s  %s\n", item.TimeOffset, item.Priority, item.Title)
		}
	}
	return nil
}

// templateFile is the YAML document accepted by templates import.
type templateFile struct {
	Templates []models.TaskTemplate `yaml:"templates"`
}

// parseTemplates decodes and validates a template file.
func parseTemplates(r io.Reader) ([]models.TaskTemplate, error) {
	var doc templateFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errNoTemplates
		}
		return nil, fmt.Errorf("failed to parse template file: %w", err)
	}
	if len(doc.Templates) == 0 {
		return nil, errNoTemplates
	}

	for i, tpl := range doc.Templates {
		if strings.TrimSpace(tpl.Name) == "" {
			return nil, fmt.Errorf("template %d: name is required", i+1)
		}
		for j, item := range tpl.Items {
			if !item.Priority.Valid() {
				return nil, fmt.Errorf("template %q item %d: invalid priority %q", tpl.Name, j+1, item.Priority)
			}
			if _, err := time.Parse("15:04", item.TimeOffset); err != nil {
				return nil, fmt.Errorf("template %q item %d: invalid timeOffset %q", tpl.Name, j+1, item.TimeOffset)
			}
		}
	}
	return doc.Templates, nil
}

type TemplatesImportCmd struct {
	File string `arg:"" help:"YAML file with a templates list" type:"existingfile"`
}

func (i *TemplatesImportCmd) Run(ctx context.Context, globals *Globals) error {
	f, err := os.Open(i.File)
	if err != nil {
		return fmt.Errorf("failed to open template file: %w", err)
	}
	defer f.Close()

	templates, err := parseTemplates(f)
	if err != nil {
		return err
	}

	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	for _, tpl := range templates {
		saved, res, err := app.Service.SaveTemplate(ctx, tpl)
		if err := check("save template", res, err); err != nil {
			return err
		}
		fmt.Fprintf(globals.out(), "Saved template %s (%s)\n", saved.Name, saved.ID)
	}
	return nil
}

type TemplatesDeleteCmd struct {
	ID string `arg:"" help:"template ID"`
}

func (d *TemplatesDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Service.DeleteTemplate(ctx, d.ID)
	if err := check("delete template", res, err); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Deleted template %s\n", d.ID)
	return nil
}

type TemplatesAssignCmd struct {
	ID    string `arg:"" help:"template ID"`
	User  string `help:"ID of the user receiving the tasks" required:""`
	Start string `help:"first day as YYYY-MM-DD" required:""`
	End   string `help:"last day as YYYY-MM-DD" required:""`
}

func (a *TemplatesAssignCmd) Run(ctx context.Context, globals *Globals) error {
	start, end, err := parseRange(a.Start, a.End)
	if err != nil {
		return err
	}

	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	batch, res, err := app.Service.AssignTemplate(ctx, service.AssignRequest{
		TemplateID: a.ID,
		UserID:     a.User,
		Start:      start,
		End:        end,
	})
	if err := check("assign template", res, err); err != nil {
		return err
	}

	fmt.Fprintf(globals.out(), "Created %d tasks from template %s\n", len(batch), a.ID)
	return nil
}
