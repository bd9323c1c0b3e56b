package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/store"
	"github.com/nhle/crm-dashboard/tests/testutil"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func sampleTasks() []model.Task {
	due := base.Add(48 * time.Hour)
	opened := base.Add(-time.Hour)
	return []model.Task{
		{
			ID: "t1", Title: "Build login API", Description: "JWT based",
			Status: model.StatusInProgress, Priority: model.PriorityHigh,
			DueDate:    &due,
			AssignedTo: []model.Assignee{{User: model.UserRef{ID: "u1", FirstName: "Ann"}}},
			Progress:   model.Progress{Percentage: 40, CurrentPhase: model.PhaseDevelopment},
			TimeTracking: []model.Tracker{{
				User: model.UserRef{ID: "u1"}, IsActive: true, CurrentSessionStart: &opened,
				Sessions: []model.TimeSession{{StartTime: base.Add(-3 * time.Hour), EndTime: base.Add(-2 * time.Hour), Duration: time.Hour}},
			}},
			CreatedAt: base.Add(-72 * time.Hour), UpdatedAt: base.Add(-time.Hour),
		},
		{
			ID: "t2", Title: "Write onboarding docs",
			Status: model.StatusPending, Priority: model.PriorityLow,
			AssignedTo: []model.Assignee{{User: model.UserRef{ID: "u2"}}, {User: model.UserRef{ID: "u11"}}},
			CreatedAt:  base.Add(-48 * time.Hour), UpdatedAt: base.Add(-2 * time.Hour),
		},
		{
			ID: "t3", Title: "Fix CSV import", Description: "Login page crash",
			Status: model.StatusCompleted, Priority: model.PriorityCritical,
			AssignedTo: []model.Assignee{{User: model.UserRef{ID: "u1"}}},
			CreatedAt:  base.Add(-24 * time.Hour), UpdatedAt: base.Add(-3 * time.Hour),
		},
	}
}

func TestReplaceTasksRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceTasks(ctx, sampleTasks(), base))

	got, err := s.GetTaskByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Build login API", got.Title)
	assert.True(t, got.FetchedAt.Equal(base))
	tr, ok := got.TrackerFor("u1")
	require.True(t, ok)
	assert.True(t, tr.HasOpenSession())
	assert.Equal(t, time.Hour, tr.Sessions[0].Duration)

	last, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, last.Equal(base))

	// a later list without t3 drops it
	require.NoError(t, s.ReplaceTasks(ctx, sampleTasks()[:2], base.Add(time.Minute)))
	n, err := s.CountTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.GetTaskByID(ctx, "t3")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetTasksFilters(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceTasks(ctx, sampleTasks(), base))

	ids := func(tasks []model.Task) []string {
		out := make([]string, 0, len(tasks))
		for _, task := range tasks {
			out = append(out, task.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter store.TaskFilter
		want   []string
	}{
		{"all by updated desc", store.TaskFilter{SortDesc: true}, []string{"t1", "t2", "t3"}},
		{"status", store.TaskFilter{Status: ptr(model.StatusPending)}, []string{"t2"}},
		{"priority", store.TaskFilter{Priority: ptr(model.PriorityCritical)}, []string{"t3"}},
		{"query is case-insensitive over description", store.TaskFilter{Query: ptr("LOGIN"), SortBy: "title"}, []string{"t1", "t3"}},
		{"assignee exact id", store.TaskFilter{AssigneeID: ptr("u1"), SortBy: "title"}, []string{"t1", "t3"}},
		{"assignee does not prefix-match", store.TaskFilter{AssigneeID: ptr("u11")}, []string{"t2"}},
		{"priority rank desc", store.TaskFilter{SortBy: "priority", SortDesc: true}, []string{"t3", "t1", "t2"}},
		{"due date nulls last", store.TaskFilter{SortBy: "due_date"}, []string{"t1", "t2", "t3"}},
		{"limit offset", store.TaskFilter{SortBy: "title", Limit: 1, Offset: 1}, []string{"t3"}},
		{"offset only", store.TaskFilter{SortBy: "title", Offset: 2}, []string{"t2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.GetTasks(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestStats(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	got, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	stats := model.TaskStats{
		TotalTasks:   3,
		ByStatus:     map[model.TaskStatus]int{model.StatusPending: 1, model.StatusInProgress: 2},
		OverdueTasks: 1,
	}
	require.NoError(t, s.PutStats(ctx, stats))

	got, err = s.GetStats(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Count(model.StatusInProgress))
	assert.Equal(t, 1, got.OverdueTasks)
}

func TestNotifications(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNotification(ctx, model.Notification{
		TaskID: "t1", TaskTitle: "Build", OldStatus: model.StatusPending, NewStatus: model.StatusInProgress,
		Message: "first", CreatedAt: base,
	}))
	require.NoError(t, s.CreateNotification(ctx, model.Notification{
		ID: "n2", TaskID: "t2", OldStatus: model.StatusInProgress, NewStatus: model.StatusCompleted,
		Message: "second", CreatedAt: base.Add(time.Minute),
	}))

	unread, err := s.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, "second", unread[0].Message)
	assert.NotEmpty(t, unread[1].ID)
	assert.Equal(t, model.StatusInProgress, unread[1].NewStatus)

	require.NoError(t, s.MarkNotificationRead(ctx, "n2"))
	count, err := s.CountUnreadNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.ErrorIs(t, s.MarkNotificationRead(ctx, "missing"), store.ErrNotFound)

	require.NoError(t, s.MarkAllNotificationsRead(ctx))
	count, err = s.CountUnreadNotifications(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	all, err := s.GetNotifications(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Read)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceTasks(context.Background(), sampleTasks(), base))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.CountTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
