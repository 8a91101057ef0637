// Package service exposes every user action of the application. Each action
// checks the active session and role, scopes the change to the caller's
// tenant and reports the outcome as a Result. A non-nil error means storage
// or a collaborator failed; the Result is meaningless in that case.
package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/shiftdesk/internal/auth"
	"github.com/wolfeidau/shiftdesk/internal/models"
	"github.com/wolfeidau/shiftdesk/internal/state"
	"github.com/wolfeidau/shiftdesk/internal/telemetry"
	"github.com/wolfeidau/shiftdesk/internal/tenant"
)

// errSkip aborts a mutation from inside the store callback.
type errSkip struct {
	result Result
}

func (e errSkip) Error() string {
	return "skipped: " + e.result.String()
}

// Service implements the application actions over a state.Store.
type Service struct {
	store *state.Store
	gate  *auth.Gate
}

// New creates a Service.
func New(st *state.Store, gate *auth.Gate) *Service {
	return &Service{store: st, gate: gate}
}

// Store returns the underlying state store.
func (s *Service) Store() *state.Store {
	return s.store
}

// Gate returns the session gate.
func (s *Service) Gate() *auth.Gate {
	return s.gate
}

// View returns the data visible to the active user.
func (s *Service) View() tenant.View {
	user, _ := s.gate.Current()
	return tenant.Filter(s.store.Snapshot(), user)
}

// authorize resolves the active user and checks perm. A non-Ok result is
// logged and counted.
func (s *Service) authorize(ctx context.Context, action string, perm auth.Permission) (*models.User, Result) {
	user, ok := s.gate.Current()
	if !ok {
		s.skipped(ctx, action, Unauthenticated)
		return nil, Unauthenticated
	}
	if !auth.HasPermission(user.Role, perm) {
		log.Debug().Str("user_id", user.ID).Str("role", string(user.Role)).Str("permission", string(perm)).Msg("permission denied")
		s.skipped(ctx, action, Forbidden)
		return nil, Forbidden
	}
	return user, Ok
}

func (s *Service) skipped(ctx context.Context, action string, result Result) {
	telemetry.GetMetrics().RecordAuthzSkipped(ctx, action, result.String())
	log.Debug().Str("action", action).Str("result", result.String()).Msg("action skipped")
}

// outcome splits the error of a store mutation into a Result and a storage
// error.
func (s *Service) outcome(ctx context.Context, action string, err error) (Result, error) {
	if err == nil {
		return Ok, nil
	}
	var skip errSkip
	if errors.As(err, &skip) {
		s.skipped(ctx, action, skip.result)
		return skip.result, nil
	}
	return Ok, err
}
