package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/shiftdesk/internal/export"
)

type ExportCmd struct {
	Output string `short:"o" help:"output file (default reporte_tareas_<date>.csv)" default:""`
}

func (e *ExportCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := openApp(ctx, globals)
	if err != nil {
		return err
	}
	defer app.Close()

	path := e.Output
	if path == "" {
		path = export.FileName(app.Service.Store().Now())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	res, err := app.Service.ExportCSV(ctx, w)
	if err := check("export", res, err); err != nil {
		_ = os.Remove(path)
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	log.Debug().Str("path", path).Msg("Export written")
	fmt.Fprintf(globals.out(), "Exported tasks to %s\n", path)
	return nil
}
