package sync

import (
	"fmt"
	"time"

	"github.com/nhle/crm-dashboard/internal/model"
)

// StatusIndex maps task ID to the status last seen for it.
type StatusIndex map[string]model.TaskStatus

// IndexStatuses builds a StatusIndex from a task list.
func IndexStatuses(tasks []model.Task) StatusIndex {
	idx := make(StatusIndex, len(tasks))
	for _, t := range tasks {
		idx[t.ID] = t.Status
	}
	return idx
}

// Change is one status transition observed between two polls.
type Change struct {
	Task model.Task
	Old  model.TaskStatus
	New  model.TaskStatus
}

// DiffStatuses compares two task lists by ID and returns one Change per
// task whose status differs, in the order of next. Tasks absent from prev
// are new to the viewer and never produce a change; only status is
// compared, so progress edits are silent.
func DiffStatuses(prev, next []model.Task) []Change {
	return IndexStatuses(prev).Diff(next)
}

// Diff returns one Change per task in next whose status differs from the
// one recorded in idx. Unknown IDs are skipped.
func (idx StatusIndex) Diff(next []model.Task) []Change {
	var changes []Change
	for _, t := range next {
		old, ok := idx[t.ID]
		if !ok || old == t.Status {
			continue
		}
		changes = append(changes, Change{Task: t, Old: old, New: t.Status})
	}
	return changes
}

// Message renders the user-facing text for the change.
func (c Change) Message() string {
	return fmt.Sprintf("Task \"%s\" status changed from %s to %s by %s",
		c.Task.Title, c.Old.Words(), c.New.Words(), c.Task.AssigneeNames())
}

// NotificationFor turns a change into an unread inbox entry stamped at now.
func NotificationFor(c Change, now time.Time) model.Notification {
	return model.Notification{
		TaskID:    c.Task.ID,
		TaskTitle: c.Task.Title,
		OldStatus: c.Old,
		NewStatus: c.New,
		Assignee:  c.Task.AssigneeNames(),
		Message:   c.Message(),
		CreatedAt: now,
	}
}
