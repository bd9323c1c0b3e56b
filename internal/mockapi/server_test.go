package mockapi_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-dashboard/internal/api"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/tests/testutil"
)

func TestLoginAndTokenExpiry(t *testing.T) {
	b := testutil.NewTestBackend(t)
	b.AddUser(t, "u1", "Ann", model.RoleEmployee, "")
	ctx := context.Background()

	anon := api.NewClient(b.URL, nil)
	_, err := anon.Login(ctx, "u1@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, 401, api.StatusCode(err))

	res, err := anon.Login(ctx, "U1@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", res.User.ID)

	tok := res.Tokens.AccessToken
	c := api.NewClient(b.URL, api.TokenFunc(func() (string, error) { return tok, nil }))
	_, err = c.ListTasks(ctx, api.ListOptions{})
	require.NoError(t, err)

	b.Clock.Advance(25 * time.Hour)
	_, err = c.ListTasks(ctx, api.ListOptions{})
	assert.True(t, api.IsAuthRequired(err))
}

func TestRejectsForgedToken(t *testing.T) {
	b := testutil.NewTestBackend(t)
	c := api.NewClient(b.URL, api.TokenFunc(func() (string, error) { return "not-a-jwt", nil }))
	_, err := c.TaskStats(context.Background())
	assert.True(t, api.IsAuthRequired(err))
}

func TestVisibilityAndSearch(t *testing.T) {
	b := testutil.NewTestBackend(t)
	mgr := b.AddUser(t, "m1", "Mia", model.RoleProjectManager, "")
	ann := b.AddUser(t, "u1", "Ann", model.RoleEmployee, "")
	b.AddUser(t, "u2", "Bob", model.RoleEmployee, "")

	b.Server.Seed(
		model.Task{ID: "t1", Title: "Build API", Status: model.StatusPending, CreatedAt: testutil.Epoch,
			AssignedTo: []model.Assignee{{User: model.UserRef{ID: "u1"}}}},
		model.Task{ID: "t2", Title: "Design mockups", Description: "api screens", Status: model.StatusPending,
			CreatedAt: testutil.Epoch.Add(time.Minute), AssignedTo: []model.Assignee{{User: model.UserRef{ID: "u2"}}}},
	)
	ctx := context.Background()

	mine, err := b.Client(t, ann).ListTasks(ctx, api.ListOptions{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "t1", mine[0].ID)
	assert.Equal(t, "Ann", mine[0].AssignedTo[0].User.FirstName)

	all, err := b.Client(t, mgr).ListTasks(ctx, api.ListOptions{Search: "API"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "t2", all[0].ID, "newest first")

	limited, err := b.Client(t, mgr).ListTasks(ctx, api.ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = b.Client(t, ann).ListEmployees(ctx)
	assert.True(t, api.IsPermissionDenied(err))

	people, err := b.Client(t, mgr).ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, people, 3)
}

func TestLifecycleRules(t *testing.T) {
	b := testutil.NewTestBackend(t)
	ann := b.AddUser(t, "u1", "Ann", model.RoleEmployee, "")
	eve := b.AddUser(t, "u9", "Eve", model.RoleEmployee, "")
	b.Server.Seed(model.Task{ID: "t1", Title: "Build", Status: model.StatusPending,
		AssignedTo: []model.Assignee{{User: model.UserRef{ID: "u1"}}}})

	ctx := context.Background()
	c := b.Client(t, ann)

	_, err := b.Client(t, eve).StartTask(ctx, "t1")
	assert.True(t, api.IsPermissionDenied(err))

	_, err = c.CompleteTask(ctx, "t1")
	assert.True(t, api.IsInvalidTransition(err), "complete requires in_progress")

	_, err = c.StopTask(ctx, "t1")
	assert.True(t, api.IsInvalidTransition(err), "stop requires an open session")

	task, err := c.StartTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, task.Status)

	_, err = c.StartTask(ctx, "t1")
	assert.Equal(t, 409, api.StatusCode(err), "second start while open")

	b.Clock.Advance(90 * time.Second)
	task, err = c.StopTask(ctx, "t1")
	require.NoError(t, err)
	tr, _ := task.TrackerFor("u1")
	assert.False(t, tr.IsActive)
	assert.Equal(t, 90*time.Second, tr.TotalTimeSpent)

	// restart the timer on an in-progress task
	task, err = c.StartTask(ctx, "t1")
	require.NoError(t, err)
	tr, _ = task.TrackerFor("u1")
	assert.True(t, tr.HasOpenSession())

	b.Clock.Advance(30 * time.Second)
	task, err = c.CompleteTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, task.Status)
	tr, _ = task.TrackerFor("u1")
	assert.False(t, tr.IsActive)
	assert.Len(t, tr.Sessions, 2)
	require.NotNil(t, task.CompletedDate)

	_, err = c.CompleteTask(ctx, "t1")
	assert.True(t, api.IsInvalidTransition(err))
}

func TestOverdueMarking(t *testing.T) {
	b := testutil.NewTestBackend(t)
	mgr := b.AddUser(t, "m1", "Mia", model.RoleAdmin, "")
	due := testutil.Epoch.Add(time.Hour)
	b.Server.Seed(
		model.Task{ID: "late", Title: "Late", Status: model.StatusPending, DueDate: &due},
		model.Task{ID: "busy", Title: "Busy", Status: model.StatusInProgress, DueDate: &due},
	)
	ctx := context.Background()
	c := b.Client(t, mgr)

	stats, err := c.TaskStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.OverdueTasks)

	b.Clock.Advance(2 * time.Hour)
	stats, err = c.TaskStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OverdueTasks)
	assert.Equal(t, 1, stats.Count(model.StatusInProgress))
	assert.Equal(t, 2, stats.TotalTasks)
}

func TestCreateAndAssignees(t *testing.T) {
	b := testutil.NewTestBackend(t)
	mgr := b.AddUser(t, "m1", "Mia", model.RoleEmployee, model.DesignationProjectManager)
	ann := b.AddUser(t, "u1", "Ann", model.RoleEmployee, "")
	b.AddUser(t, "u2", "Bob", model.RoleEmployee, "")
	b.AddUser(t, "u3", "Cy", model.RoleEmployee, "")
	ctx := context.Background()

	_, err := b.Client(t, ann).CreateTask(ctx, api.CreateTaskRequest{Title: "x", AssignedTo: []string{"u1"}})
	assert.True(t, api.IsPermissionDenied(err))

	c := b.Client(t, mgr)
	_, err = c.CreateTask(ctx, api.CreateTaskRequest{Title: "", AssignedTo: []string{"u1"}})
	assert.Equal(t, 400, api.StatusCode(err))

	task, err := c.CreateTask(ctx, api.CreateTaskRequest{Title: "Ship", AssignedTo: []string{"u1", "u2"}, Priority: "high"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, task.Status)
	assert.Equal(t, model.Progress{Percentage: 0, CurrentPhase: model.PhasePlanning}, task.Progress)
	assert.Empty(t, task.TimeTracking)
	assert.ElementsMatch(t, []string{"u1", "u2"}, task.AssigneeIDs())

	task, err = c.AddAssignee(ctx, task.ID, "u3")
	require.NoError(t, err)
	assert.Len(t, task.AssignedTo, 3)

	_, err = c.AddAssignee(ctx, task.ID, "u3")
	assert.Equal(t, 409, api.StatusCode(err))

	task, err = c.RemoveAssignee(ctx, task.ID, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u2", "u3"}, task.AssigneeIDs())

	_, err = b.Client(t, ann).RemoveAssignee(ctx, task.ID, "u2")
	assert.True(t, api.IsPermissionDenied(err))
}
