package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/shiftdesk/internal/models"
	"github.com/wolfeidau/shiftdesk/internal/state"
	"github.com/wolfeidau/shiftdesk/internal/telemetry"
)

// ErrInvalidCredentials is for callers that turn a failed Login into an
// error. Login itself reports a mismatch as false with a nil error. It never
// says which half was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Gate tracks the active session. The session holds only the user ID; the
// user is resolved from the store on every call so a reset password or a
// deleted user takes effect immediately.
type Gate struct {
	store *state.Store
}

// NewGate creates a Gate over st.
func NewGate(st *state.Store) *Gate {
	return &Gate{store: st}
}

// Login checks username and password against every user in the store,
// regardless of tenant, and activates the first match. It returns false with
// a nil error on a credential mismatch; the error is reserved for failures to
// persist the session.
func (g *Gate) Login(ctx context.Context, username, password string) (bool, error) {
	metrics := telemetry.GetMetrics()

	user, ok := findByCredentials(g.store.Snapshot().Users, username, password)
	if !ok {
		telemetry.RecordOutcome(ctx, metrics.LoginsTotal, "failure")
		log.Debug().Msg("login rejected")
		return false, nil
	}

	sess := models.Session{UserID: user.ID, CreatedAt: g.store.Now()}
	if err := g.store.SaveSession(ctx, sess); err != nil {
		telemetry.RecordOutcome(ctx, metrics.LoginsTotal, "error")
		return false, err
	}

	telemetry.RecordOutcome(ctx, metrics.LoginsTotal, "success")
	log.Debug().Str("user_id", user.ID).Str("org_id", user.OrganizationID).Msg("login accepted")
	return true, nil
}

func findByCredentials(users []models.User, username, password string) (models.User, bool) {
	for _, u := range users {
		if u.Username == username && u.Password == password {
			return u, true
		}
	}
	return models.User{}, false
}

// Logout clears the active and the persisted session.
func (g *Gate) Logout(ctx context.Context) error {
	return g.store.ClearSession(ctx)
}

// Current returns the active user, resolved from the store.
func (g *Gate) Current() (*models.User, bool) {
	sess, ok := g.store.Session()
	if !ok {
		return nil, false
	}
	for _, u := range g.store.Snapshot().Users {
		if u.ID == sess.UserID {
			return &u, true
		}
	}
	return nil, false
}

// Restore resumes a persisted session after a reload. A session whose user
// no longer exists is cleared.
func (g *Gate) Restore(ctx context.Context) (*models.User, bool, error) {
	if _, ok := g.store.Session(); !ok {
		return nil, false, nil
	}

	user, ok := g.Current()
	if ok {
		return user, true, nil
	}

	log.Warn().Msg("persisted session refers to a missing user, clearing it")
	if err := g.store.ClearSession(ctx); err != nil {
		return nil, false, err
	}
	return nil, false, nil
}
