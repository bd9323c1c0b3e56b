// Package access holds the pure authorization predicates the dashboard
// evaluates before rendering an action and before issuing a mutating call.
// The backend remains the authority; these only keep unavailable actions
// out of the UI.
package access

import "github.com/nhle/crm-dashboard/internal/model"

// CanManageTasks reports whether the actor holds manager capability:
// admin, project_manager role, or an employee designated project_manager.
func CanManageTasks(a model.Actor) bool {
	switch a.Role {
	case model.RoleAdmin, model.RoleProjectManager:
		return true
	case model.RoleEmployee:
		return a.Designation == model.DesignationProjectManager
	default:
		return false
	}
}

// CanActOnTask reports whether the assignee quick actions (start, stop,
// complete) are offered to the actor. Admins are excluded even when
// assigned; they act through the management surface instead.
func CanActOnTask(a model.Actor, t model.Task) bool {
	if a.Role == model.RoleAdmin {
		return false
	}
	return t.IsAssignee(a.ID)
}

// CanMutateTask reports whether the actor may change the status or
// progress of the task: any assignee, or anyone with manager capability.
func CanMutateTask(a model.Actor, t model.Task) bool {
	return t.IsAssignee(a.ID) || CanManageTasks(a)
}

// CanViewAllTrackers reports whether the actor sees every assignee's time
// trackers on a task rather than only their own.
func CanViewAllTrackers(a model.Actor) bool {
	return CanManageTasks(a)
}

// VisibleTrackers returns the trackers on t that the actor may see.
func VisibleTrackers(a model.Actor, t model.Task) []model.Tracker {
	if CanViewAllTrackers(a) {
		return t.TimeTracking
	}
	if tr, ok := t.TrackerFor(a.ID); ok {
		return []model.Tracker{tr}
	}
	return nil
}
