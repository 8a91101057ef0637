// Package report produces the end-of-shift handoff text through an external
// text generation service.
package report

import (
	"context"
	"errors"

	"github.com/wolfeidau/shiftdesk/internal/models"
)

var (
	ErrMissingAPIKey = errors.New("report API key is not configured")
	ErrGeneration    = errors.New("report generation failed")
)

// Generator turns a user's task list into a prose shift report. It performs
// no writes; a failure never affects task state.
type Generator interface {
	Generate(ctx context.Context, apiKey string, user models.User, tasks []models.Task) (string, error)
}
