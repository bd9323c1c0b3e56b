package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/crm-dashboard/internal/model"
)

func assignedTask(ids ...string) model.Task {
	task := model.Task{ID: "t1", Status: model.StatusPending}
	for _, id := range ids {
		task.AssignedTo = append(task.AssignedTo, model.Assignee{
			User: model.UserRef{ID: id},
			Role: "assignee",
		})
	}
	return task
}

func TestCanManageTasks(t *testing.T) {
	tests := []struct {
		name  string
		actor model.Actor
		want  bool
	}{
		{"admin", model.Actor{Role: model.RoleAdmin}, true},
		{"project manager role", model.Actor{Role: model.RoleProjectManager}, true},
		{"employee designated pm", model.Actor{Role: model.RoleEmployee, Designation: "project_manager"}, true},
		{"plain employee", model.Actor{Role: model.RoleEmployee, Designation: "developer"}, false},
		{"sales employee", model.Actor{Role: model.RoleEmployee, Designation: "sales"}, false},
		{"unknown role with pm designation", model.Actor{Role: "contractor", Designation: "project_manager"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanManageTasks(tt.actor))
		})
	}
}

func TestCanActOnTaskExcludesAdmin(t *testing.T) {
	admin := model.Actor{ID: "a1", Role: model.RoleAdmin}
	task := assignedTask("a1", "u2")

	assert.False(t, CanActOnTask(admin, task), "admin listed as assignee still has no quick actions")
	assert.True(t, CanMutateTask(admin, task), "admin keeps manager capability")
}

func TestCanActOnTaskAssigneeMembership(t *testing.T) {
	task := assignedTask("u1", "u2")

	assert.True(t, CanActOnTask(model.Actor{ID: "u1", Role: model.RoleEmployee}, task))
	assert.True(t, CanActOnTask(model.Actor{ID: "u2", Role: model.RoleProjectManager}, task))
	assert.False(t, CanActOnTask(model.Actor{ID: "u3", Role: model.RoleEmployee}, task))
	assert.False(t, CanActOnTask(model.Actor{ID: "u3", Role: model.RoleProjectManager}, task),
		"manager capability does not grant assignee quick actions")
}

func TestCanMutateTask(t *testing.T) {
	task := assignedTask("u1")

	assert.True(t, CanMutateTask(model.Actor{ID: "u1", Role: model.RoleEmployee}, task))
	assert.True(t, CanMutateTask(model.Actor{ID: "pm", Role: model.RoleEmployee, Designation: "project_manager"}, task))
	assert.False(t, CanMutateTask(model.Actor{ID: "u9", Role: model.RoleEmployee}, task))
}

func TestVisibleTrackers(t *testing.T) {
	task := assignedTask("u1", "u2")
	task.TimeTracking = []model.Tracker{
		{User: model.UserRef{ID: "u1"}},
		{User: model.UserRef{ID: "u2"}},
	}

	own := VisibleTrackers(model.Actor{ID: "u1", Role: model.RoleEmployee}, task)
	assert.Len(t, own, 1)
	assert.Equal(t, "u1", own[0].User.ID)

	all := VisibleTrackers(model.Actor{ID: "pm", Role: model.RoleProjectManager}, task)
	assert.Len(t, all, 2)

	none := VisibleTrackers(model.Actor{ID: "u3", Role: model.RoleEmployee}, task)
	assert.Empty(t, none)
}
