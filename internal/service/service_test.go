package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/shiftdesk/internal/auth"
	"github.com/wolfeidau/shiftdesk/internal/models"
	"github.com/wolfeidau/shiftdesk/internal/scheduler"
	"github.com/wolfeidau/shiftdesk/internal/state"
	"github.com/wolfeidau/shiftdesk/internal/store"
	"github.com/wolfeidau/shiftdesk/internal/store/memory"
	"github.com/wolfeidau/shiftdesk/internal/store/storetest"
	"github.com/wolfeidau/shiftdesk/internal/tenant"
)

var testNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, blobs store.BlobStore) *Service {
	t.Helper()
	st := state.New(blobs,
		state.WithClock(func() time.Time { return testNow }),
		state.WithRetry(2, time.Millisecond),
	)
	require.NoError(t, st.Load(context.Background()))
	return New(st, auth.NewGate(st))
}

func login(t *testing.T, svc *Service, username, password string) {
	t.Helper()
	ok, err := svc.Gate().Login(context.Background(), username, password)
	require.NoError(t, err)
	require.True(t, ok)
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := scheduler.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestCreateTask_SequentialAcrossTenants(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.NewBlobStore())
	login(t, svc, "admin_logistica", "123456")

	task, res, err := svc.CreateTask(ctx, models.TaskSpec{
		Title:      "Check seals",
		Category:   "Customs",
		Priority:   models.PriorityMedium,
		AssignedTo: "u2",
	}, "2024-01-01T15:00")
	require.NoError(t, err)
	require.Equal(t, Ok, res)
	require.Equal(t, "0003", task.ID)
	require.Equal(t, "org1", task.OrganizationID)
	require.Equal(t, models.TaskStatusPending, task.Status)
	require.Equal(t, testNow, task.CreatedAt)

	// new tasks are prepended
	require.Equal(t, "0003", svc.Store().Snapshot().Tasks[0].ID)

	require.NoError(t, svc.Gate().Logout(ctx))
	login(t, svc, "admin_navidad", "123456")

	for _, visible := range svc.View().Tasks {
		require.NotEqual(t, "0003", visible.ID)
		require.Equal(t, "org2", visible.OrganizationID)
	}
}

func TestAuthorization(t *testing.T) {
	ctx := context.Background()

	t.Run("no session", func(t *testing.T) {
		svc := newService(t, memory.NewBlobStore())

		_, res, err := svc.CreateTask(ctx, models.TaskSpec{Title: "x"}, "2024-01-01T10:00")
		require.NoError(t, err)
		require.Equal(t, Unauthenticated, res)
		require.Len(t, svc.Store().Snapshot().Tasks, 2)
	})

	t.Run("analyst cannot create tasks", func(t *testing.T) {
		svc := newService(t, memory.NewBlobStore())
		login(t, svc, "analista_logistica", "user")

		_, res, err := svc.CreateTask(ctx, models.TaskSpec{Title: "x"}, "2024-01-01T10:00")
		require.NoError(t, err)
		require.Equal(t, Forbidden, res)

		res, err = svc.DeleteTask(ctx, "0001")
		require.NoError(t, err)
		require.Equal(t, Forbidden, res)
		require.Len(t, svc.Store().Snapshot().Tasks, 2)
	})

	t.Run("admin cannot create organizations", func(t *testing.T) {
		svc := newService(t, memory.NewBlobStore())
		login(t, svc, "admin_logistica", "123456")

		_, _, res, err := svc.CreateOrganization(ctx, OrganizationRequest{Name: "Acme", AdminUsername: "boss"})
		require.NoError(t, err)
		require.Equal(t, Forbidden, res)
		require.Len(t, svc.Store().Snapshot().Organizations, 2)
	})

	t.Run("super admin cannot touch tasks", func(t *testing.T) {
		svc := newService(t, memory.NewBlobStore())
		login(t, svc, "superadmin", "master123")

		_, res, err := svc.ToggleTaskStatus(ctx, "0001")
		require.NoError(t, err)
		require.Equal(t, Forbidden, res)
		require.Equal(t, models.TaskStatusPending, svc.Store().Snapshot().Tasks[0].Status)
	})
}

func TestTenantScopedMutations(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.NewBlobStore())
	login(t, svc, "admin_logistica", "123456")

	// 0002 belongs to org2
	res, err := svc.DeleteTask(ctx, "0002")
	require.NoError(t, err)
	require.Equal(t, NotFound, res)

	res, err = svc.UpdateTaskNotes(ctx, "0002", "hijack")
	require.NoError(t, err)
	require.Equal(t, NotFound, res)

	res, err = svc.UpdateTask(ctx, models.Task{ID: "0002", Title: "hijack"})
	require.NoError(t, err)
	require.Equal(t, NotFound, res)

	res, err = svc.ResetUserPassword(ctx, "u4", "pwned")
	require.NoError(t, err)
	require.Equal(t, NotFound, res)

	snap := svc.Store().Snapshot()
	require.Len(t, snap.Tasks, 2)
	require.Equal(t, "Inventario de Juguetes", snap.Tasks[1].Title)
	require.Empty(t, snap.Tasks[1].Notes)
}

func TestTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.NewBlobStore())
	login(t, svc, "analista_logistica", "user")

	t.Run("toggle is its own inverse", func(t *testing.T) {
		before := svc.Store().Snapshot().Tasks[0]

		done, res, err := svc.ToggleTaskStatus(ctx, "0001")
		require.NoError(t, err)
		require.Equal(t, Ok, res)
		require.Equal(t, models.TaskStatusCompleted, done.Status)
		require.NotNil(t, done.CompletedAt)

		reopened, res, err := svc.ToggleTaskStatus(ctx, "0001")
		require.NoError(t, err)
		require.Equal(t, Ok, res)
		require.Equal(t, before, reopened)
	})

	t.Run("notes change only notes", func(t *testing.T) {
		before := svc.Store().Snapshot().Tasks[0]

		res, err := svc.UpdateTaskNotes(ctx, "0001", "containers 4 and 7 delayed")
		require.NoError(t, err)
		require.Equal(t, Ok, res)

		after := svc.Store().Snapshot().Tasks[0]
		require.Equal(t, "containers 4 and 7 delayed", after.Notes)
		after.Notes = before.Notes
		require.Equal(t, before, after)
	})

	t.Run("missing task", func(t *testing.T) {
		_, res, err := svc.ToggleTaskStatus(ctx, "9999")
		require.NoError(t, err)
		require.Equal(t, NotFound, res)
	})
}

func TestUpdateAndDeleteTask(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.NewBlobStore())
	login(t, svc, "admin_logistica", "123456")

	task := svc.Store().Snapshot().Tasks[0]
	task.Title = "Review customs paperwork"
	task.Priority = models.PriorityCritical
	task.OrganizationID = "org2"

	res, err := svc.UpdateTask(ctx, task)
	require.NoError(t, err)
	require.Equal(t, Ok, res)

	snap := svc.Store().Snapshot()
	require.Equal(t, "Review customs paperwork", snap.Tasks[0].Title)
	require.Equal(t, "org1", snap.Tasks[0].OrganizationID)
	require.Equal(t, "Inventario de Juguetes", snap.Tasks[1].Title)

	res, err = svc.DeleteTask(ctx, "0001")
	require.NoError(t, err)
	require.Equal(t, Ok, res)
	require.Len(t, svc.Store().Snapshot().Tasks, 1)
	require.Empty(t, svc.View().Tasks)
}

func TestCreateTaskRange(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.NewBlobStore())
	login(t, svc, "admin_navidad", "123456")

	spec := models.TaskSpec{Title: "Feed reindeer", Category: "Stable", Priority: models.PriorityHigh, AssignedTo: "u4"}

	batch, res, err := svc.CreateTaskRange(ctx, RangeRequest{
		Spec: spec, TimeOfDay: "07:30", Start: date(t, "2024-01-01"), End: date(t, "2024-01-03"),
	})
	require.NoError(t, err)
	require.Equal(t, Ok, res)
	require.Len(t, batch, 3)
	require.Equal(t, "0003", batch[0].ID)
	require.Equal(t, "0005", batch[2].ID)
	require.Equal(t, "2024-01-03T07:30", batch[2].Deadline)

	tasks := svc.Store().Snapshot().Tasks
	require.Len(t, tasks, 5)
	require.Equal(t, "0003", tasks[0].ID)
	require.Equal(t, "0001", tasks[3].ID)

	batch, res, err = svc.CreateTaskRange(ctx, RangeRequest{
		Spec: spec, TimeOfDay: "07:30", Start: date(t, "2024-01-03"), End: date(t, "2024-01-01"),
	})
	require.NoError(t, err)
	require.Equal(t, Ok, res)
	require.Empty(t, batch)
	require.Len(t, svc.Store().Snapshot().Tasks, 5)
}

func TestTemplates(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.NewBlobStore())
	login(t, svc, "admin_logistica", "123456")

	tpl, res, err := svc.SaveTemplate(ctx, models.TaskTemplate{
		Name: "Opening",
		Items: []models.TemplateItem{
			{Title: "Unlock gates", Category: "Site", Priority: models.PriorityHigh, TimeOffset: "06:00"},
			{Title: "Check manifests", Category: "Customs", Priority: models.PriorityMedium, TimeOffset: "06:30"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, Ok, res)
	require.NotEmpty(t, tpl.ID)
	require.Equal(t, "org1", tpl.OrganizationID)

	t.Run("save with same id replaces", func(t *testing.T) {
		tpl.Name = "Morning opening"
		saved, res, err := svc.SaveTemplate(ctx, tpl)
		require.NoError(t, err)
		require.Equal(t, Ok, res)
		require.Equal(t, tpl.ID, saved.ID)

		templates := svc.View().Templates
		require.Len(t, templates, 1)
		require.Equal(t, "Morning opening", templates[0].Name)
	})

	t.Run("assign expands day major", func(t *testing.T) {
		batch, res, err := svc.AssignTemplate(ctx, AssignRequest{
			TemplateID: tpl.ID, UserID: "u2", Start: date(t, "2024-01-01"), End: date(t, "2024-01-02"),
		})
		require.NoError(t, err)
		require.Equal(t, Ok, res)
		require.Len(t, batch, 4)

		var got []string
		for _, task := range batch {
			got = append(got, task.ID+" "+task.Title+" "+task.Deadline)
		}
		require.Equal(t, []string{
			"0003 Unlock gates 2024-01-01T06:00",
			"0004 Check manifests 2024-01-01T06:30",
			"0005 Unlock gates 2024-01-02T06:00",
			"0006 Check manifests 2024-01-02T06:30",
		}, got)
	})

	t.Run("other tenant cannot use the template", func(t *testing.T) {
		require.NoError(t, svc.Gate().Logout(ctx))
		login(t, svc, "admin_navidad", "123456")
		defer func() {
			require.NoError(t, svc.Gate().Logout(ctx))
			login(t, svc, "admin_logistica", "123456")
		}()

		batch, res, err := svc.AssignTemplate(ctx, AssignRequest{
			TemplateID: tpl.ID, UserID: "u4", Start: date(t, "2024-01-01"), End: date(t, "2024-01-01"),
		})
		require.NoError(t, err)
		require.Equal(t, NotFound, res)
		require.Empty(t, batch)

		res, err = svc.DeleteTemplate(ctx, tpl.ID)
		require.NoError(t, err)
		require.Equal(t, NotFound, res)
		require.Empty(t, svc.View().Templates)
	})

	t.Run("deleted template yields nothing", func(t *testing.T) {
		res, err := svc.DeleteTemplate(ctx, tpl.ID)
		require.NoError(t, err)
		require.Equal(t, Ok, res)

		before := len(svc.Store().Snapshot().Tasks)
		batch, res, err := svc.AssignTemplate(ctx, AssignRequest{
			TemplateID: tpl.ID, UserID: "u2", Start: date(t, "2024-01-01"), End: date(t, "2024-01-05"),
		})
		require.NoError(t, err)
		require.Equal(t, NotFound, res)
		require.Empty(t, batch)
		require.Len(t, svc.Store().Snapshot().Tasks, before)
	})

	t.Run("template needs a name", func(t *testing.T) {
		_, res, err := svc.SaveTemplate(ctx, models.TaskTemplate{})
		require.NoError(t, err)
		require.Equal(t, Invalid, res)
	})
}

func TestCreateOrganization(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.NewBlobStore())
	login(t, svc, "superadmin", "master123")

	org, admin, res, err := svc.CreateOrganization(ctx, OrganizationRequest{
		Name:          "Acme Freight",
		AdminUsername: "acme_admin",
		AdminPassword: "pw",
		AdminFullName: "Acme Admin",
	})
	require.NoError(t, err)
	require.Equal(t, Ok, res)
	require.True(t, org.IsActive)
	require.Equal(t, testNow, org.CreatedAt)
	require.Equal(t, org.ID, admin.OrganizationID)
	require.Equal(t, models.RoleAdmin, admin.Role)

	require.Len(t, svc.View().Organizations, 3)
	require.Empty(t, svc.View().Users)

	require.NoError(t, svc.Gate().Logout(ctx))
	login(t, svc, "acme_admin", "pw")

	view := svc.View()
	require.Len(t, view.Users, 1)
	require.Empty(t, view.Tasks)
}

func TestCreateOrganization_FailedUsersWrite(t *testing.T) {
	ctx := context.Background()
	flaky := storetest.NewFlakyBlobStore(memory.NewBlobStore(), 0)
	svc := newService(t, flaky)
	login(t, svc, "superadmin", "master123")

	flaky.FailKey(store.KeyUsers)
	_, _, res, err := svc.CreateOrganization(ctx, OrganizationRequest{
		Name:          "Acme Freight",
		AdminUsername: "acme_admin",
		AdminPassword: "pw",
	})
	require.ErrorIs(t, err, state.ErrPersistence)
	require.Equal(t, Ok, res)

	snap := svc.Store().Snapshot()
	require.Len(t, snap.Organizations, 2)
	require.Len(t, snap.Users, 5)

	flaky.ClearFailKeys()
	reloaded := newService(t, flaky)
	require.Len(t, reloaded.Store().Snapshot().Organizations, 2)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.NewBlobStore())
	login(t, svc, "admin_logistica", "123456")

	user, res, err := svc.CreateUser(ctx, UserRequest{FullName: "Ana Gómez", Username: "ana", Password: "pw", Role: models.RoleAnalyst})
	require.NoError(t, err)
	require.Equal(t, Ok, res)
	require.Equal(t, "org1", user.OrganizationID)

	_, res, err = svc.CreateUser(ctx, UserRequest{Username: "root", Role: models.RoleSuperAdmin})
	require.NoError(t, err)
	require.Equal(t, Invalid, res)

	res, err = svc.ResetUserPassword(ctx, user.ID, "new-pw")
	require.NoError(t, err)
	require.Equal(t, Ok, res)

	require.NoError(t, svc.Gate().Logout(ctx))
	ok, err := svc.Gate().Login(ctx, "ana", "pw")
	require.NoError(t, err)
	require.False(t, ok)
	login(t, svc, "ana", "new-pw")
}

func TestSettingsActions(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.NewBlobStore())
	login(t, svc, "admin_logistica", "123456")

	res, err := svc.ToggleThemeMode(ctx)
	require.NoError(t, err)
	require.Equal(t, Ok, res)
	require.Equal(t, models.ThemeModeNormal, svc.Store().Settings().ThemeMode)

	res, err = svc.SetChristmasEnabled(ctx, true)
	require.NoError(t, err)
	require.Equal(t, Ok, res)

	_, err = svc.ToggleThemeMode(ctx)
	require.NoError(t, err)
	require.Equal(t, models.ThemeModeChristmas, svc.Store().Settings().ThemeMode)

	_, err = svc.SetChristmasEnabled(ctx, false)
	require.NoError(t, err)
	require.Equal(t, models.ThemeModeNormal, svc.Store().Settings().ThemeMode)

	_, err = svc.ToggleDarkMode(ctx)
	require.NoError(t, err)
	require.True(t, svc.Store().Settings().DarkMode)

	require.NoError(t, svc.Gate().Logout(ctx))
	login(t, svc, "analista_logistica", "user")

	res, err = svc.SetChristmasEnabled(ctx, true)
	require.NoError(t, err)
	require.Equal(t, Forbidden, res)
	require.False(t, svc.Store().Settings().ChristmasEnabled)
}

type fakeGenerator struct {
	text  string
	err   error
	key   string
	user  models.User
	tasks []models.Task
}

func (f *fakeGenerator) Generate(_ context.Context, apiKey string, user models.User, tasks []models.Task) (string, error) {
	f.key, f.user, f.tasks = apiKey, user, tasks
	return f.text, f.err
}

func TestShiftReport(t *testing.T) {
	ctx := context.Background()

	t.Run("passes the user's own tasks", func(t *testing.T) {
		svc := newService(t, memory.NewBlobStore())
		require.NoError(t, svc.SetAPIKey(ctx, "stored-key"))
		login(t, svc, "analista_logistica", "user")

		gen := &fakeGenerator{text: "All done."}
		text, res, err := svc.ShiftReport(ctx, gen, "")
		require.NoError(t, err)
		require.Equal(t, Ok, res)
		require.Equal(t, "All done.", text)
		require.Equal(t, "stored-key", gen.key)
		require.Equal(t, "u2", gen.user.ID)
		require.Len(t, gen.tasks, 1)
		require.Equal(t, "0001", gen.tasks[0].ID)
	})

	t.Run("failure leaves state untouched", func(t *testing.T) {
		svc := newService(t, memory.NewBlobStore())
		login(t, svc, "analista_logistica", "user")
		_, _, err := svc.ToggleTaskStatus(ctx, "0001")
		require.NoError(t, err)
		before := svc.Store().Snapshot()

		boom := errors.New("remote down")
		_, res, err := svc.ShiftReport(ctx, &fakeGenerator{err: boom}, "override")
		require.ErrorIs(t, err, boom)
		require.Equal(t, Ok, res)
		require.Equal(t, before, svc.Store().Snapshot())
	})

	t.Run("super admin has no shift", func(t *testing.T) {
		svc := newService(t, memory.NewBlobStore())
		login(t, svc, "superadmin", "master123")

		_, res, err := svc.ShiftReport(ctx, &fakeGenerator{}, "k")
		require.NoError(t, err)
		require.Equal(t, Forbidden, res)
	})
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.NewBlobStore())
	login(t, svc, "admin_logistica", "123456")

	var buf bytes.Buffer
	res, err := svc.ExportCSV(ctx, &buf)
	require.NoError(t, err)
	require.Equal(t, Ok, res)

	out := buf.String()
	require.Contains(t, out, "0001")
	require.Contains(t, out, "Juan Pérez")
	require.NotContains(t, out, "0002")
	require.Equal(t, 2, strings.Count(strings.TrimSpace(out), "\n")+1)
}

func TestPersistenceFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	flaky := storetest.NewFlakyBlobStore(memory.NewBlobStore(), 0)
	svc := newService(t, flaky)
	login(t, svc, "admin_logistica", "123456")

	flaky.SetFailWrites(-1)

	_, _, err := svc.CreateTask(ctx, models.TaskSpec{Title: "x"}, "2024-01-01T10:00")
	require.ErrorIs(t, err, state.ErrPersistence)
	require.Len(t, svc.Store().Snapshot().Tasks, 2)

	_, err = svc.DeleteTask(ctx, "0001")
	require.ErrorIs(t, err, state.ErrPersistence)
	require.Len(t, svc.Store().Snapshot().Tasks, 2)
}

func TestViewFollowsSession(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, memory.NewBlobStore())

	require.Equal(t, tenant.Filter(svc.Store().Snapshot(), nil), svc.View())

	login(t, svc, "elfo_jefe", "user")
	require.Len(t, svc.View().Tasks, 1)
	require.Equal(t, "0002", svc.View().Tasks[0].ID)

	require.NoError(t, svc.Gate().Logout(ctx))
	require.Empty(t, svc.View().Tasks)
}
