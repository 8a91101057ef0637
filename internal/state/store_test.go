package state

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/shiftdesk/internal/models"
	"github.com/wolfeidau/shiftdesk/internal/store"
	"github.com/wolfeidau/shiftdesk/internal/store/memory"
	"github.com/wolfeidau/shiftdesk/internal/store/storetest"
)

var fixedNow = time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T, blobs store.BlobStore) *Store {
	t.Helper()
	s := New(blobs, WithClock(func() time.Time { return fixedNow }), WithRetry(3, time.Millisecond))
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestStore_LoadSeedsEmptyStore(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewBlobStore()
	s := newTestStore(t, blobs)

	snap := s.Snapshot()
	require.Len(t, snap.Organizations, 2)
	require.Len(t, snap.Users, 5)
	require.Len(t, snap.Tasks, 2)
	require.Empty(t, snap.Templates)
	require.Equal(t, models.DefaultSettings(), snap.Settings)

	require.Equal(t, "0001", snap.Tasks[0].ID)
	require.Equal(t, "2024-03-15T10:00", snap.Tasks[0].Deadline)
	require.Equal(t, "2024-03-15T12:00", snap.Tasks[1].Deadline)

	// seeds are written back
	data, err := blobs.Get(ctx, store.KeyTasks)
	require.NoError(t, err)
	var tasks []models.Task
	require.NoError(t, json.Unmarshal(data, &tasks))
	require.Len(t, tasks, 2)

	data, err = blobs.Get(ctx, store.KeyTemplates)
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(data))
}

func TestStore_LoadReadsPersistedState(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewBlobStore()

	require.NoError(t, blobs.Put(ctx, store.KeyTasks, []byte(`[{"id":"0042","organizationId":"org9","status":"PENDING"}]`)))
	require.NoError(t, blobs.Put(ctx, store.KeyChristmasEnabled, []byte("true")))
	require.NoError(t, blobs.Put(ctx, store.KeyThemeMode, []byte("christmas")))
	require.NoError(t, blobs.Put(ctx, store.KeyDarkMode, []byte("true")))
	require.NoError(t, blobs.Put(ctx, store.KeyAPIKey, []byte("secret")))

	s := newTestStore(t, blobs)
	snap := s.Snapshot()

	require.Len(t, snap.Tasks, 1)
	require.Equal(t, "0042", snap.Tasks[0].ID)
	require.Equal(t, models.Settings{
		ThemeMode:        models.ThemeModeChristmas,
		ChristmasEnabled: true,
		DarkMode:         true,
		APIKey:           "secret",
	}, snap.Settings)
}

func TestStore_LoadTreatsCorruptDataAsAbsent(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewBlobStore()

	require.NoError(t, blobs.Put(ctx, store.KeyUsers, []byte(`{not json`)))
	require.NoError(t, blobs.Put(ctx, store.KeyTemplates, []byte(`null`)))
	require.NoError(t, blobs.Put(ctx, store.KeyCurrentUser, []byte(`garbage`)))

	s := newTestStore(t, blobs)
	snap := s.Snapshot()

	require.Equal(t, SeedUsers(), snap.Users)
	require.Empty(t, snap.Templates)

	_, ok := s.Session()
	require.False(t, ok)
}

func TestStore_LoadHealsDisabledChristmasTheme(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewBlobStore()

	require.NoError(t, blobs.Put(ctx, store.KeyThemeMode, []byte("christmas")))
	require.NoError(t, blobs.Put(ctx, store.KeyChristmasEnabled, []byte("false")))

	s := newTestStore(t, blobs)
	require.Equal(t, models.ThemeModeNormal, s.Settings().ThemeMode)

	data, err := blobs.Get(ctx, store.KeyThemeMode)
	require.NoError(t, err)
	require.Equal(t, "normal", string(data))
}

func TestStore_LoadSurfacesReadFailures(t *testing.T) {
	flaky := storetest.NewFlakyBlobStore(memory.NewBlobStore(), 0)
	flaky.FailReads = true

	s := New(flaky)
	err := s.Load(context.Background())
	require.ErrorIs(t, err, storetest.ErrInjected)
}

func TestStore_MutateTasks(t *testing.T) {
	ctx := context.Background()

	t.Run("persists before returning", func(t *testing.T) {
		blobs := memory.NewBlobStore()
		s := newTestStore(t, blobs)

		err := s.MutateTasks(ctx, func(tasks []models.Task) ([]models.Task, error) {
			return append([]models.Task{{ID: "0003", OrganizationID: "org1"}}, tasks...), nil
		})
		require.NoError(t, err)

		require.Len(t, s.Snapshot().Tasks, 3)

		reloaded := newTestStore(t, blobs)
		require.Equal(t, "0003", reloaded.Snapshot().Tasks[0].ID)
	})

	t.Run("fn error leaves state untouched", func(t *testing.T) {
		s := newTestStore(t, memory.NewBlobStore())
		errSkip := errors.New("skip")

		err := s.MutateTasks(ctx, func(tasks []models.Task) ([]models.Task, error) {
			tasks[0].Title = "changed"
			return nil, errSkip
		})
		require.ErrorIs(t, err, errSkip)
		require.Equal(t, "Revisar aduanas", s.Snapshot().Tasks[0].Title)
	})

	t.Run("transient write failures are retried", func(t *testing.T) {
		flaky := storetest.NewFlakyBlobStore(memory.NewBlobStore(), 0)
		s := newTestStore(t, flaky)
		flaky.SetFailWrites(2)

		err := s.MutateTasks(ctx, func(tasks []models.Task) ([]models.Task, error) {
			return tasks[:1], nil
		})
		require.NoError(t, err)
		require.Len(t, s.Snapshot().Tasks, 1)
	})

	t.Run("persistent write failure keeps previous state", func(t *testing.T) {
		flaky := storetest.NewFlakyBlobStore(memory.NewBlobStore(), 0)
		s := newTestStore(t, flaky)
		flaky.SetFailWrites(-1)

		err := s.MutateTasks(ctx, func(tasks []models.Task) ([]models.Task, error) {
			return nil, nil
		})
		require.ErrorIs(t, err, ErrPersistence)
		require.ErrorIs(t, err, storetest.ErrInjected)
		require.Len(t, s.Snapshot().Tasks, 2)
	})
}

func TestStore_MutateOrganizationsAndUsers(t *testing.T) {
	ctx := context.Background()
	org := models.Organization{ID: "org3", Name: "Acme", IsActive: true}
	admin := models.User{ID: "u5", OrganizationID: "org3", Username: "acme_admin", Role: models.RoleAdmin}
	add := func(orgs []models.Organization, users []models.User) ([]models.Organization, []models.User, error) {
		return append(orgs, org), append(users, admin), nil
	}

	t.Run("persists both collections", func(t *testing.T) {
		blobs := memory.NewBlobStore()
		s := newTestStore(t, blobs)

		require.NoError(t, s.MutateOrganizationsAndUsers(ctx, add))

		reloaded := newTestStore(t, blobs)
		require.Len(t, reloaded.Snapshot().Organizations, 3)
		require.Len(t, reloaded.Snapshot().Users, 6)
	})

	t.Run("failed users write reverts the organizations write", func(t *testing.T) {
		flaky := storetest.NewFlakyBlobStore(memory.NewBlobStore(), 0)
		s := newTestStore(t, flaky)
		flaky.FailKey(store.KeyUsers)

		err := s.MutateOrganizationsAndUsers(ctx, add)
		require.ErrorIs(t, err, ErrPersistence)
		require.ErrorIs(t, err, storetest.ErrInjected)

		require.Len(t, s.Snapshot().Organizations, 2)
		require.Len(t, s.Snapshot().Users, 5)

		flaky.ClearFailKeys()
		reloaded := newTestStore(t, flaky)
		require.Len(t, reloaded.Snapshot().Organizations, 2)
		require.Len(t, reloaded.Snapshot().Users, 5)
	})
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewBlobStore())

	require.NoError(t, s.MutateTemplates(ctx, func(tpls []models.TaskTemplate) ([]models.TaskTemplate, error) {
		return append(tpls, models.TaskTemplate{ID: "t1", Items: []models.TemplateItem{{Title: "a"}}}), nil
	}))

	snap := s.Snapshot()
	snap.Tasks[0].Title = "mutated"
	snap.Templates[0].Items[0].Title = "mutated"

	again := s.Snapshot()
	require.Equal(t, "Revisar aduanas", again.Tasks[0].Title)
	require.Equal(t, "a", again.Templates[0].Items[0].Title)
}

func TestStore_Settings(t *testing.T) {
	ctx := context.Background()

	t.Run("disabling christmas resets the theme", func(t *testing.T) {
		blobs := memory.NewBlobStore()
		s := newTestStore(t, blobs)

		require.NoError(t, s.SetChristmasEnabled(ctx, true))
		require.NoError(t, s.SetThemeMode(ctx, models.ThemeModeChristmas))
		require.Equal(t, models.ThemeModeChristmas, s.Settings().ThemeMode)

		require.NoError(t, s.SetChristmasEnabled(ctx, false))
		require.Equal(t, models.ThemeModeNormal, s.Settings().ThemeMode)

		data, err := blobs.Get(ctx, store.KeyThemeMode)
		require.NoError(t, err)
		require.Equal(t, "normal", string(data))

		data, err = blobs.Get(ctx, store.KeyChristmasEnabled)
		require.NoError(t, err)
		require.Equal(t, "false", string(data))
	})

	t.Run("failed theme write reverts the christmas flag", func(t *testing.T) {
		flaky := storetest.NewFlakyBlobStore(memory.NewBlobStore(), 0)
		s := newTestStore(t, flaky)

		require.NoError(t, s.SetChristmasEnabled(ctx, true))
		require.NoError(t, s.SetThemeMode(ctx, models.ThemeModeChristmas))

		flaky.FailKey(store.KeyThemeMode)
		err := s.SetChristmasEnabled(ctx, false)
		require.ErrorIs(t, err, ErrPersistence)

		require.True(t, s.Settings().ChristmasEnabled)
		require.Equal(t, models.ThemeModeChristmas, s.Settings().ThemeMode)

		data, err := flaky.Get(ctx, store.KeyChristmasEnabled)
		require.NoError(t, err)
		require.Equal(t, "true", string(data))

		flaky.ClearFailKeys()
		reloaded := newTestStore(t, flaky)
		require.True(t, reloaded.Settings().ChristmasEnabled)
		require.Equal(t, models.ThemeModeChristmas, reloaded.Settings().ThemeMode)
	})

	t.Run("christmas theme needs the flag", func(t *testing.T) {
		s := newTestStore(t, memory.NewBlobStore())

		require.NoError(t, s.SetThemeMode(ctx, models.ThemeModeChristmas))
		require.Equal(t, models.ThemeModeNormal, s.Settings().ThemeMode)
	})

	t.Run("dark mode persists", func(t *testing.T) {
		blobs := memory.NewBlobStore()
		s := newTestStore(t, blobs)

		require.NoError(t, s.SetDarkMode(ctx, true))

		reloaded := newTestStore(t, blobs)
		require.True(t, reloaded.Settings().DarkMode)
	})

	t.Run("empty api key is not persisted", func(t *testing.T) {
		blobs := memory.NewBlobStore()
		s := newTestStore(t, blobs)

		require.NoError(t, s.SetAPIKey(ctx, "abc"))
		require.NoError(t, s.SetAPIKey(ctx, ""))
		require.Empty(t, s.Settings().APIKey)

		reloaded := newTestStore(t, blobs)
		require.Equal(t, "abc", reloaded.Settings().APIKey)
	})
}

func TestStore_Session(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewBlobStore()
	s := newTestStore(t, blobs)

	_, ok := s.Session()
	require.False(t, ok)

	require.NoError(t, s.SaveSession(ctx, models.Session{UserID: "u2", CreatedAt: fixedNow}))

	reloaded := newTestStore(t, blobs)
	sess, ok := reloaded.Session()
	require.True(t, ok)
	require.Equal(t, "u2", sess.UserID)

	require.NoError(t, reloaded.ClearSession(ctx))
	_, ok = reloaded.Session()
	require.False(t, ok)

	_, err := blobs.Get(ctx, store.KeyCurrentUser)
	require.ErrorIs(t, err, store.ErrKeyNotFound)
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.NewBlobStore())

	var got []Snapshot
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		got = append(got, snap)
	})

	require.NoError(t, s.SetDarkMode(ctx, true))
	require.NoError(t, s.MutateTasks(ctx, func(tasks []models.Task) ([]models.Task, error) {
		return tasks[:1], nil
	}))

	require.Len(t, got, 2)
	require.True(t, got[0].Settings.DarkMode)
	require.Len(t, got[1].Tasks, 1)

	unsubscribe()
	require.NoError(t, s.SetDarkMode(ctx, false))
	require.Len(t, got, 2)
}
