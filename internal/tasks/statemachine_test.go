package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/crm-dashboard/internal/api"
	"github.com/nhle/crm-dashboard/internal/model"
)

var (
	admin    = model.Actor{ID: "ad", Role: model.RoleAdmin}
	manager  = model.Actor{ID: "pm", Role: model.RoleEmployee, Designation: model.DesignationProjectManager}
	assignee = model.Actor{ID: "u1", Role: model.RoleEmployee}
	stranger = model.Actor{ID: "x", Role: model.RoleEmployee}
)

func taskWith(status model.TaskStatus, trackers ...model.Tracker) model.Task {
	return model.Task{
		ID:           "t1",
		Status:       status,
		AssignedTo:   []model.Assignee{{User: model.UserRef{ID: "u1"}}, {User: model.UserRef{ID: "ad"}}},
		TimeTracking: trackers,
	}
}

func openTracker(id string) model.Tracker {
	now := time.Now()
	return model.Tracker{User: model.UserRef{ID: id}, IsActive: true, CurrentSessionStart: &now}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(model.StatusPending, model.StatusInProgress))
	assert.True(t, CanTransition(model.StatusInProgress, model.StatusCompleted))
	assert.False(t, CanTransition(model.StatusPending, model.StatusCompleted))
	assert.False(t, CanTransition(model.StatusCompleted, model.StatusInProgress))
	assert.False(t, CanTransition(model.StatusCancelled, model.StatusPending))
	for _, s := range model.Statuses {
		if s.IsTerminal() {
			for _, to := range model.Statuses {
				assert.False(t, CanTransition(s, to), "%s is terminal", s)
			}
		}
	}
}

func TestCheckStart(t *testing.T) {
	tests := []struct {
		name  string
		actor model.Actor
		task  model.Task
		want  error
	}{
		{"assignee on pending", assignee, taskWith(model.StatusPending), nil},
		{"manager on pending", manager, taskWith(model.StatusPending), nil},
		{"stranger", stranger, taskWith(model.StatusPending), api.ErrPermissionDenied},
		{"in progress", assignee, taskWith(model.StatusInProgress), ErrInvalidTransition},
		{"overdue", assignee, taskWith(model.StatusOverdue), ErrInvalidTransition},
		{"completed", assignee, taskWith(model.StatusCompleted), ErrInvalidTransition},
		{"already open", assignee, taskWith(model.StatusPending, openTracker("u1")), ErrSessionOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckStart(tt.actor, tt.task)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCheckStopAndResume(t *testing.T) {
	running := taskWith(model.StatusInProgress, openTracker("u1"))
	stopped := taskWith(model.StatusInProgress, model.Tracker{User: model.UserRef{ID: "u1"}})

	assert.NoError(t, CheckStop(assignee, running))
	assert.ErrorIs(t, CheckStop(assignee, stopped), ErrNoActiveSession)
	assert.ErrorIs(t, CheckStop(manager, running), ErrNoActiveSession, "only the session owner can stop it")

	assert.NoError(t, CheckResume(assignee, stopped))
	assert.ErrorIs(t, CheckResume(assignee, running), ErrSessionOpen)
	assert.ErrorIs(t, CheckResume(assignee, taskWith(model.StatusPending)), ErrInvalidTransition)
}

func TestCheckComplete(t *testing.T) {
	assert.NoError(t, CheckComplete(assignee, taskWith(model.StatusInProgress)))
	assert.ErrorIs(t, CheckComplete(assignee, taskWith(model.StatusPending)), ErrInvalidTransition)
	assert.ErrorIs(t, CheckComplete(assignee, taskWith(model.StatusCompleted)), ErrInvalidTransition)
	assert.ErrorIs(t, CheckComplete(stranger, taskWith(model.StatusInProgress)), api.ErrPermissionDenied)
}

func TestCheckProgress(t *testing.T) {
	task := taskWith(model.StatusCompleted)
	assert.NoError(t, CheckProgress(assignee, task, 0, model.PhasePlanning))
	assert.NoError(t, CheckProgress(assignee, task, 100, model.PhaseCompleted))
	assert.ErrorIs(t, CheckProgress(assignee, task, -1, model.PhasePlanning), ErrInvalidProgress)
	assert.ErrorIs(t, CheckProgress(assignee, task, 101, model.PhasePlanning), ErrInvalidProgress)
	assert.ErrorIs(t, CheckProgress(assignee, task, 50, ""), ErrInvalidProgress)
	assert.ErrorIs(t, CheckProgress(stranger, task, 50, model.PhaseReview), api.ErrPermissionDenied)
}

func TestCheckCreate(t *testing.T) {
	ok := api.CreateTaskRequest{Title: "Ship", AssignedTo: []string{"u1"}, Priority: "high"}
	assert.NoError(t, CheckCreate(manager, ok))
	assert.ErrorIs(t, CheckCreate(assignee, ok), api.ErrPermissionDenied)

	bad := ok
	bad.Priority = "urgent"
	assert.ErrorIs(t, CheckCreate(manager, bad), ErrInvalidTask)

	unassigned := ok
	unassigned.AssignedTo = nil
	assert.NoError(t, CheckCreate(manager, unassigned), "assignees are optional")

	bad = ok
	bad.AssignedTo = []string{"u1", ""}
	assert.ErrorIs(t, CheckCreate(manager, bad), ErrInvalidTask)

	bad = ok
	bad.EstimatedHours = -2
	assert.ErrorIs(t, CheckCreate(manager, bad), ErrInvalidTask)
}

func TestAvailableExcludesAdmin(t *testing.T) {
	pending := taskWith(model.StatusPending)
	assert.Empty(t, Available(admin, pending), "admin is an assignee but gets no quick actions")
	assert.Equal(t, []Op{OpStart}, Available(assignee, pending))
	assert.Empty(t, Available(stranger, pending))

	running := taskWith(model.StatusInProgress, openTracker("u1"))
	assert.Equal(t, []Op{OpStop, OpComplete}, Available(assignee, running))

	stopped := taskWith(model.StatusInProgress)
	assert.Equal(t, []Op{OpResume, OpComplete}, Available(assignee, stopped))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Authentication required", Describe(OpStart, api.ErrAuthenticationRequired))
	assert.Equal(t, "You don't have permission to stop this task.", Describe(OpStop, api.ErrPermissionDenied))
	assert.Equal(t, "An error occurred while completing the task.",
		Describe(OpComplete, &api.NetworkError{Method: "POST", Path: "/x", Err: assert.AnError}))
	assert.Equal(t, "Failed to start task. Please try again.",
		Describe(OpStart, &api.StatusError{Code: 500}))
	assert.Equal(t, "Failed to complete task: Task is already completed",
		Describe(OpComplete, &api.StatusError{Code: 409, Message: "Task is already completed"}))
	assert.Equal(t, "Failed to create task. Please try again.",
		Describe(OpCreate, &api.StatusError{Code: 400}), "no backend message falls back to the generic text")
	assert.Equal(t, "Task timer stopped", Describe(OpStop, nil))
	assert.Equal(t, SuccessMessage(OpCreate), Describe(OpCreate, nil))
}

func TestInFlight(t *testing.T) {
	f := NewInFlight()
	release, err := f.Acquire("t1", OpStart)
	assert.NoError(t, err)

	_, err = f.Acquire("t1", OpStop)
	assert.ErrorIs(t, err, ErrActionInFlight)

	other, err := f.Acquire("t2", OpStop)
	assert.NoError(t, err, "different tasks do not block each other")
	other()

	release()
	release()
	assert.Zero(t, f.Len())
}

func TestFilter(t *testing.T) {
	list := []model.Task{
		{ID: "1", Title: "Build API", Status: model.StatusPending, Priority: model.PriorityHigh},
		{ID: "2", Title: "Docs", Description: "write the api guide", Status: model.StatusInProgress, Priority: model.PriorityLow},
		{ID: "3", Title: "Deploy", Status: model.StatusCompleted, Priority: model.PriorityHigh},
	}
	ids := func(ts []model.Task) (out []string) {
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(Filter{}.Apply(list)))
	assert.Equal(t, []string{"1", "2"}, ids(Filter{Search: "API"}.Apply(list)))
	assert.Equal(t, []string{"1", "3"}, ids(Filter{Priority: model.PriorityHigh}.Apply(list)))
	assert.Equal(t, []string{"3"}, ids(Filter{Priority: model.PriorityHigh, Status: model.StatusCompleted}.Apply(list)))

	due := time.Now()
	sorted := []model.Task{
		{ID: "done", Status: model.StatusCompleted, Priority: model.PriorityCritical},
		{ID: "low", Status: model.StatusPending, Priority: model.PriorityLow},
		{ID: "high-undated", Status: model.StatusPending, Priority: model.PriorityHigh},
		{ID: "high-dated", Status: model.StatusPending, Priority: model.PriorityHigh, DueDate: &due},
	}
	SortForDisplay(sorted)
	assert.Equal(t, []string{"high-dated", "high-undated", "low", "done"}, ids(sorted))
}
