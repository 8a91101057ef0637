// Package state holds the canonical entity collections and settings of the
// application and persists every change to a blob store before it becomes
// visible to readers.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/shiftdesk/internal/models"
	"github.com/wolfeidau/shiftdesk/internal/store"
	"github.com/wolfeidau/shiftdesk/internal/telemetry"
)

// ErrPersistence is returned when a change could not be written to the blob
// store. The in-memory state is left as it was before the change.
var ErrPersistence = errors.New("failed to persist state")

const (
	defaultMaxTries        = 3
	defaultInitialInterval = 100 * time.Millisecond
)

// Snapshot is a point-in-time copy of the raw, unfiltered state.
type Snapshot struct {
	Organizations []models.Organization
	Users         []models.User
	Tasks         []models.Task
	Templates     []models.TaskTemplate
	Settings      models.Settings
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps and seed data.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithRetry sets how many times a blob write is attempted and the first
// backoff interval between attempts.
func WithRetry(maxTries uint, initialInterval time.Duration) Option {
	return func(s *Store) {
		s.maxTries = maxTries
		s.initialInterval = initialInterval
	}
}

// Store owns the organizations, users, tasks and templates collections plus
// the settings and the persisted session. All mutations are serialized and
// are persisted before they are committed in memory.
type Store struct {
	blobs           store.BlobStore
	now             func() time.Time
	maxTries        uint
	initialInterval time.Duration

	mu        sync.Mutex
	orgs      []models.Organization
	users     []models.User
	tasks     []models.Task
	templates []models.TaskTemplate
	settings  models.Settings
	session   *models.Session

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// New creates a Store backed by blobs. Call Load before use.
func New(blobs store.BlobStore, opts ...Option) *Store {
	s := &Store{
		blobs:           blobs,
		now:             time.Now,
		maxTries:        defaultMaxTries,
		initialInterval: defaultInitialInterval,
		settings:        models.DefaultSettings(),
		subs:            make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time from the store clock.
func (s *Store) Now() time.Time {
	return s.now()
}

// Load reads every collection and setting from the blob store. Missing or
// corrupt collections fall back to the seed data (empty for templates) and
// the fallback is written back so the next Load sees the same records.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	now := s.now()

	orgs, orgsSeeded, err := loadCollection(ctx, s.blobs, store.KeyOrganizations, func() []models.Organization {
		return SeedOrganizations(now)
	})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	users, usersSeeded, err := loadCollection(ctx, s.blobs, store.KeyUsers, SeedUsers)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	tasks, tasksSeeded, err := loadCollection(ctx, s.blobs, store.KeyTasks, func() []models.Task {
		return SeedTasks(now)
	})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	templates, templatesSeeded, err := loadCollection(ctx, s.blobs, store.KeyTemplates, func() []models.TaskTemplate {
		return []models.TaskTemplate{}
	})
	if err != nil {
		s.mu.Unlock()
		return err
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	session, err := s.loadSession(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	seeded := []struct {
		ok    bool
		key   string
		value any
	}{
		{orgsSeeded, store.KeyOrganizations, orgs},
		{usersSeeded, store.KeyUsers, users},
		{tasksSeeded, store.KeyTasks, tasks},
		{templatesSeeded, store.KeyTemplates, templates},
	}
	for _, c := range seeded {
		if !c.ok {
			continue
		}
		if err := s.persistJSON(ctx, c.key, c.value); err != nil {
			s.mu.Unlock()
			return err
		}
	}

	if settings.Normalize() {
		if err := s.persist(ctx, store.KeyThemeMode, []byte(settings.ThemeMode)); err != nil {
			s.mu.Unlock()
			return err
		}
	}

	s.orgs, s.users, s.tasks, s.templates = orgs, users, tasks, templates
	s.settings = settings
	s.session = session
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Debug().
		Int("organizations", len(orgs)).
		Int("users", len(users)).
		Int("tasks", len(tasks)).
		Int("templates", len(templates)).
		Msg("state loaded")

	s.notify(snap)
	return nil
}

func loadCollection[T any](ctx context.Context, blobs store.BlobStore, key string, fallback func() []T) ([]T, bool, error) {
	data, err := blobs.Get(ctx, key)
	if errors.Is(err, store.ErrKeyNotFound) {
		return fallback(), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("discarding corrupt persisted collection")
		return fallback(), true, nil
	}
	if items == nil {
		return fallback(), true, nil
	}
	return items, false, nil
}

func (s *Store) loadSettings(ctx context.Context) (models.Settings, error) {
	settings := models.DefaultSettings()

	raw := func(key string) (string, bool, error) {
		data, err := s.blobs.Get(ctx, key)
		if errors.Is(err, store.ErrKeyNotFound) {
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("failed to read %s: %w", key, err)
		}
		return string(data), true, nil
	}

	if v, ok, err := raw(store.KeyThemeMode); err != nil {
		return settings, err
	} else if ok && v != "" {
		settings.ThemeMode = models.ThemeMode(v)
	}
	if v, ok, err := raw(store.KeyChristmasEnabled); err != nil {
		return settings, err
	} else if ok {
		settings.ChristmasEnabled, _ = strconv.ParseBool(v)
	}
	if v, ok, err := raw(store.KeyDarkMode); err != nil {
		return settings, err
	} else if ok {
		settings.DarkMode, _ = strconv.ParseBool(v)
	}
	if v, ok, err := raw(store.KeyAPIKey); err != nil {
		return settings, err
	} else if ok {
		settings.APIKey = v
	}

	return settings, nil
}

func (s *Store) loadSession(ctx context.Context) (*models.Session, error) {
	data, err := s.blobs.Get(ctx, store.KeyCurrentUser)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", store.KeyCurrentUser, err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.UserID == "" {
		log.Warn().Str("key", store.KeyCurrentUser).Msg("discarding unreadable session")
		return nil, nil
	}
	return &sess, nil
}

// Snapshot returns a copy of the raw state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Organizations: slices.Clone(s.orgs),
		Users:         slices.Clone(s.users),
		Tasks:         slices.Clone(s.tasks),
		Templates:     cloneTemplates(s.templates),
		Settings:      s.settings,
	}
}

func cloneTemplates(in []models.TaskTemplate) []models.TaskTemplate {
	out := make([]models.TaskTemplate, len(in))
	for i, t := range in {
		t.Items = slices.Clone(t.Items)
		out[i] = t
	}
	return out
}

// MutateOrganizations applies fn to a copy of the organizations and persists
// the result. If fn returns an error nothing is written and the error is
// returned unchanged.
func (s *Store) MutateOrganizations(ctx context.Context, fn func([]models.Organization) ([]models.Organization, error)) error {
	return mutate(ctx, s, store.KeyOrganizations, &s.orgs, slices.Clone[[]models.Organization, models.Organization], fn)
}

// MutateUsers applies fn to a copy of the users and persists the result.
func (s *Store) MutateUsers(ctx context.Context, fn func([]models.User) ([]models.User, error)) error {
	return mutate(ctx, s, store.KeyUsers, &s.users, slices.Clone[[]models.User, models.User], fn)
}

// MutateTasks applies fn to a copy of the tasks and persists the result.
func (s *Store) MutateTasks(ctx context.Context, fn func([]models.Task) ([]models.Task, error)) error {
	return mutate(ctx, s, store.KeyTasks, &s.tasks, slices.Clone[[]models.Task, models.Task], fn)
}

// MutateTemplates applies fn to a copy of the templates and persists the result.
func (s *Store) MutateTemplates(ctx context.Context, fn func([]models.TaskTemplate) ([]models.TaskTemplate, error)) error {
	return mutate(ctx, s, store.KeyTemplates, &s.templates, cloneTemplates, fn)
}

// MutateOrganizationsAndUsers applies fn to copies of the organizations and
// users and persists both. Either both collections are committed or, if a
// write fails, neither is and storage is put back as it was.
func (s *Store) MutateOrganizationsAndUsers(ctx context.Context, fn func([]models.Organization, []models.User) ([]models.Organization, []models.User, error)) error {
	s.mu.Lock()

	orgs, users, err := fn(slices.Clone(s.orgs), slices.Clone(s.users))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if orgs == nil {
		orgs = []models.Organization{}
	}
	if users == nil {
		users = []models.User{}
	}

	orgData, err := json.Marshal(orgs)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to encode %s: %w", store.KeyOrganizations, err)
	}
	userData, err := json.Marshal(users)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to encode %s: %w", store.KeyUsers, err)
	}

	err = s.persistAll(ctx, []blobWrite{
		{key: store.KeyOrganizations, data: orgData},
		{key: store.KeyUsers, data: userData},
	})
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.orgs = orgs
	s.users = users
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Debug().Int("organizations", len(orgs)).Int("users", len(users)).Msg("organizations and users updated")

	s.notify(snap)
	return nil
}

func mutate[T any](ctx context.Context, s *Store, key string, current *[]T, clone func([]T) []T, fn func([]T) ([]T, error)) error {
	s.mu.Lock()

	next, err := fn(clone(*current))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if next == nil {
		next = []T{}
	}

	if err := s.persistJSON(ctx, key, next); err != nil {
		s.mu.Unlock()
		return err
	}

	*current = next
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Debug().Str("key", key).Int("count", len(next)).Msg("collection updated")

	s.notify(snap)
	return nil
}

// Settings returns the current settings.
func (s *Store) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetThemeMode persists the theme mode. Selecting the christmas theme while
// it is disabled resolves back to normal.
func (s *Store) SetThemeMode(ctx context.Context, mode models.ThemeMode) error {
	return s.updateSettings(ctx, func(st *models.Settings) []string {
		st.ThemeMode = mode
		return []string{store.KeyThemeMode}
	})
}

// SetChristmasEnabled persists the christmas flag. Disabling it while the
// christmas theme is active also switches the theme back to normal.
func (s *Store) SetChristmasEnabled(ctx context.Context, enabled bool) error {
	return s.updateSettings(ctx, func(st *models.Settings) []string {
		st.ChristmasEnabled = enabled
		return []string{store.KeyChristmasEnabled}
	})
}

// SetDarkMode persists the dark mode flag.
func (s *Store) SetDarkMode(ctx context.Context, enabled bool) error {
	return s.updateSettings(ctx, func(st *models.Settings) []string {
		st.DarkMode = enabled
		return []string{store.KeyDarkMode}
	})
}

// SetAPIKey persists the report API key. An empty key is kept in memory only
// so a previously saved key survives a reload.
func (s *Store) SetAPIKey(ctx context.Context, key string) error {
	return s.updateSettings(ctx, func(st *models.Settings) []string {
		st.APIKey = key
		if key == "" {
			return nil
		}
		return []string{store.KeyAPIKey}
	})
}

func (s *Store) updateSettings(ctx context.Context, fn func(*models.Settings) []string) error {
	s.mu.Lock()

	next := s.settings
	keys := fn(&next)
	if next.Normalize() && !slices.Contains(keys, store.KeyThemeMode) {
		keys = append(keys, store.KeyThemeMode)
	}

	writes := make([]blobWrite, 0, len(keys))
	for _, key := range keys {
		writes = append(writes, blobWrite{key: key, data: settingValue(next, key)})
	}
	if err := s.persistAll(ctx, writes); err != nil {
		s.mu.Unlock()
		return err
	}

	s.settings = next
	snap := s.snapshotLocked()
	s.mu.Unlock()

	log.Debug().Strs("keys", keys).Str("theme_mode", string(next.ThemeMode)).Msg("settings updated")

	s.notify(snap)
	return nil
}

func settingValue(st models.Settings, key string) []byte {
	switch key {
	case store.KeyThemeMode:
		return []byte(st.ThemeMode)
	case store.KeyChristmasEnabled:
		return []byte(strconv.FormatBool(st.ChristmasEnabled))
	case store.KeyDarkMode:
		return []byte(strconv.FormatBool(st.DarkMode))
	case store.KeyAPIKey:
		return []byte(st.APIKey)
	}
	return nil
}

// Session returns the persisted session, if any.
func (s *Store) Session() (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return models.Session{}, false
	}
	return *s.session, true
}

// SaveSession persists sess as the current session.
func (s *Store) SaveSession(ctx context.Context, sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistJSON(ctx, store.KeyCurrentUser, sess); err != nil {
		return err
	}
	s.session = &sess
	return nil
}

// ClearSession removes the persisted session.
func (s *Store) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.retry(ctx, store.KeyCurrentUser, func() error {
		return s.blobs.Delete(ctx, store.KeyCurrentUser)
	})
	if err != nil {
		return err
	}
	s.session = nil
	return nil
}

// Subscribe registers fn to receive a snapshot after every committed change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (s *Store) persistJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.persist(ctx, key, data)
}

type blobWrite struct {
	key  string
	data []byte
}

// persistAll writes every value or none. The previous values are read first
// and, when a later write fails, the earlier writes are reverted to them.
func (s *Store) persistAll(ctx context.Context, writes []blobWrite) error {
	if len(writes) == 1 {
		return s.persist(ctx, writes[0].key, writes[0].data)
	}

	prev := make([][]byte, len(writes))
	for i, w := range writes {
		data, err := s.blobs.Get(ctx, w.key)
		switch {
		case errors.Is(err, store.ErrKeyNotFound):
			prev[i] = nil
		case err != nil:
			return fmt.Errorf("%w: %s: failed to read previous value: %w", ErrPersistence, w.key, err)
		default:
			prev[i] = data
		}
	}

	for i, w := range writes {
		if err := s.persist(ctx, w.key, w.data); err != nil {
			s.revert(ctx, writes[:i], prev[:i])
			return err
		}
	}
	return nil
}

// revert restores writes to prev in reverse order. A nil previous value means
// the key did not exist and is deleted.
func (s *Store) revert(ctx context.Context, writes []blobWrite, prev [][]byte) {
	for i := len(writes) - 1; i >= 0; i-- {
		key := writes[i].key
		var err error
		if prev[i] == nil {
			err = s.retry(ctx, key, func() error {
				return s.blobs.Delete(ctx, key)
			})
		} else {
			err = s.persist(ctx, key, prev[i])
		}
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to revert partial write")
			continue
		}
		log.Warn().Str("key", key).Msg("reverted partial write")
	}
}

func (s *Store) persist(ctx context.Context, key string, data []byte) error {
	return s.retry(ctx, key, func() error {
		return s.blobs.Put(ctx, key, data)
	})
}

// retry runs op with exponential backoff. Context cancellation stops the
// retries immediately.
func (s *Store) retry(ctx context.Context, key string, op func() error) error {
	metrics := telemetry.GetMetrics()
	attrs := metric.WithAttributes(attribute.String("key", key))
	start := time.Now()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op()
		if err == nil {
			return struct{}{}, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return struct{}{}, backoff.Permanent(err)
		}
		log.Debug().Err(err).Str("key", key).Msg("blob write failed, retrying")
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(s.maxTries))

	metrics.PersistDuration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

	if err != nil {
		metrics.PersistErrorsTotal.Add(ctx, 1, attrs)
		log.Error().Err(err).Str("key", key).Msg("failed to persist state")
		return fmt.Errorf("%w: %s: %w", ErrPersistence, key, err)
	}
	return nil
}
