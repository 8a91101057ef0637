package service

import (
	"context"
	"io"

	"github.com/wolfeidau/shiftdesk/internal/auth"
	"github.com/wolfeidau/shiftdesk/internal/export"
	"github.com/wolfeidau/shiftdesk/internal/report"
	"github.com/wolfeidau/shiftdesk/internal/telemetry"
	"github.com/wolfeidau/shiftdesk/internal/tenant"
)

// ShiftReport asks gen for a handoff report covering the tasks assigned to
// the active user. apiKey overrides the stored key when set. It only reads
// state, so a failure leaves every task untouched.
func (s *Service) ShiftReport(ctx context.Context, gen report.Generator, apiKey string) (string, Result, error) {
	user, res := s.authorize(ctx, "shift_report", auth.PermReportsGenerate)
	if res != Ok {
		return "", res, nil
	}

	if apiKey == "" {
		apiKey = s.store.Settings().APIKey
	}

	view := tenant.Filter(s.store.Snapshot(), user)
	tasks := tenant.AssignedTo(view.Tasks, user.ID)

	metrics := telemetry.GetMetrics()
	text, err := gen.Generate(ctx, apiKey, *user, tasks)
	if err != nil {
		telemetry.RecordOutcome(ctx, metrics.ReportsGeneratedTotal, "failure")
		return "", Ok, err
	}

	telemetry.RecordOutcome(ctx, metrics.ReportsGeneratedTotal, "success")
	return text, Ok, nil
}

// ExportCSV writes the caller's tenant tasks to w.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) (Result, error) {
	user, res := s.authorize(ctx, "export_csv", auth.PermTasksExport)
	if res != Ok {
		return res, nil
	}

	view := tenant.Filter(s.store.Snapshot(), user)
	return Ok, export.WriteCSV(w, view.Tasks, view.Users)
}
