package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/shiftdesk"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Task lifecycle
	TasksCreatedTotal       metric.Int64Counter
	TasksStatusToggledTotal metric.Int64Counter
	TasksDeletedTotal       metric.Int64Counter

	// Session and authorization
	LoginsTotal           metric.Int64Counter
	AuthzSkippedTotal     metric.Int64Counter
	ReportsGeneratedTotal metric.Int64Counter

	// Persistence
	PersistDuration    metric.Float64Histogram
	PersistErrorsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// Instruments bind to whatever meter provider is global at first use, the
// no-op provider unless InitTelemetry ran first.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.TasksCreatedTotal, _ = meter.Int64Counter(
		"shiftdesk.tasks.created.total",
		metric.WithDescription("Total number of tasks created, by creation mode"),
		metric.WithUnit("{task}"),
	)

	m.TasksStatusToggledTotal, _ = meter.Int64Counter(
		"shiftdesk.tasks.status_toggled.total",
		metric.WithDescription("Total number of task status toggles, by resulting status"),
		metric.WithUnit("{task}"),
	)

	m.TasksDeletedTotal, _ = meter.Int64Counter(
		"shiftdesk.tasks.deleted.total",
		metric.WithDescription("Total number of tasks deleted"),
		metric.WithUnit("{task}"),
	)

	m.LoginsTotal, _ = meter.Int64Counter(
		"shiftdesk.auth.logins.total",
		metric.WithDescription("Total number of login attempts, by outcome"),
		metric.WithUnit("{attempt}"),
	)

	m.AuthzSkippedTotal, _ = meter.Int64Counter(
		"shiftdesk.authz.skipped.total",
		metric.WithDescription("Total number of actions skipped by a role or tenant check"),
		metric.WithUnit("{action}"),
	)

	m.ReportsGeneratedTotal, _ = meter.Int64Counter(
		"shiftdesk.reports.generated.total",
		metric.WithDescription("Total number of shift report requests, by outcome"),
		metric.WithUnit("{report}"),
	)

	m.PersistDuration, _ = meter.Float64Histogram(
		"shiftdesk.store.persist.duration",
		metric.WithDescription("Duration of blob store writes"),
		metric.WithUnit("ms"),
	)

	m.PersistErrorsTotal, _ = meter.Int64Counter(
		"shiftdesk.store.persist.errors.total",
		metric.WithDescription("Total number of blob store writes that failed after retries"),
		metric.WithUnit("{error}"),
	)

	return m
}

// RecordTasksCreated counts n tasks created through mode (single, range, template).
func (m *Metrics) RecordTasksCreated(ctx context.Context, mode string, n int) {
	m.TasksCreatedTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordAuthzSkipped counts an action that was skipped by a precondition.
func (m *Metrics) RecordAuthzSkipped(ctx context.Context, action, outcome string) {
	m.AuthzSkippedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

// RecordOutcome increments counter with an outcome attribute.
func RecordOutcome(ctx context.Context, counter metric.Int64Counter, outcome string) {
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
