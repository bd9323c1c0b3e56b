package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskIsAssignee(t *testing.T) {
	task := Task{
		AssignedTo: []Assignee{
			{User: UserRef{ID: "u1"}, Role: "developer"},
			{User: UserRef{ID: "u2"}, Role: "reviewer"},
		},
	}

	assert.True(t, task.IsAssignee("u1"))
	assert.True(t, task.IsAssignee("u2"))
	assert.False(t, task.IsAssignee("u3"))
	assert.False(t, task.IsAssignee(""))
	assert.Equal(t, []string{"u1", "u2"}, task.AssigneeIDs())
}

func TestTrackerFor(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task := Task{
		TimeTracking: []Tracker{
			{User: UserRef{ID: "u1"}, IsActive: true, CurrentSessionStart: &start},
			{User: UserRef{ID: "u2"}},
		},
	}

	tr, ok := task.TrackerFor("u1")
	assert.True(t, ok)
	assert.True(t, tr.HasOpenSession())

	tr, ok = task.TrackerFor("u2")
	assert.True(t, ok)
	assert.False(t, tr.HasOpenSession())

	_, ok = task.TrackerFor("nobody")
	assert.False(t, ok)
	assert.True(t, task.HasActiveTracker())
}

func TestTrackerActiveWithoutStartIsNotOpen(t *testing.T) {
	tr := Tracker{IsActive: true}
	assert.False(t, tr.HasOpenSession())
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, StatusOverdue.Valid())
	assert.False(t, TaskStatus("done").Valid())
	assert.True(t, PriorityCritical.Valid())
	assert.False(t, Priority("urgent").Valid())
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.True(t, PhaseDeployment.Valid())
	assert.False(t, Phase("qa").Valid())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusOverdue.IsTerminal())
}

func TestProgressConsistent(t *testing.T) {
	assert.True(t, Progress{Percentage: 40, CurrentPhase: PhaseTesting}.Consistent())
	assert.True(t, Progress{Percentage: 100, CurrentPhase: PhaseCompleted}.Consistent())
	assert.False(t, Progress{Percentage: 80, CurrentPhase: PhaseCompleted}.Consistent())
}

func TestPastDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)

	open := Task{Status: StatusInProgress, DueDate: &due}
	assert.True(t, open.PastDue(now))

	done := Task{Status: StatusCompleted, DueDate: &due}
	assert.False(t, done.PastDue(now))

	noDue := Task{Status: StatusPending}
	assert.False(t, noDue.PastDue(now))
}

func TestUserRefDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", UserRef{ID: "u1", FirstName: "Ada", LastName: "Lovelace"}.DisplayName())
	assert.Equal(t, "u9", UserRef{ID: "u9"}.DisplayName())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "In Progress", StatusInProgress.Label())
	assert.Equal(t, "in progress", StatusInProgress.Words())
	assert.Equal(t, "Critical", PriorityCritical.Label())
	assert.Equal(t, "Deployment", PhaseDeployment.Label())
	assert.Equal(t, "Project Manager", RoleProjectManager.Label())
}

func TestAssigneeNames(t *testing.T) {
	assert.Equal(t, "Unknown", Task{}.AssigneeNames())
	task := Task{AssignedTo: []Assignee{
		{User: UserRef{ID: "u1", FirstName: "Ann", LastName: "Lee"}},
		{User: UserRef{ID: "u2"}},
	}}
	assert.Equal(t, "Ann Lee, u2", task.AssigneeNames())
}
