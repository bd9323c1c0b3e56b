package tasks

import (
	"sort"
	"strings"

	"github.com/nhle/crm-dashboard/internal/model"
)

// Filter narrows a task list client-side. Zero values match everything.
type Filter struct {
	Search     string
	Status     model.TaskStatus
	Priority   model.Priority
	AssigneeID string
}

// Active reports whether any criterion is set.
func (f Filter) Active() bool {
	return f.Search != "" || f.Status != "" || f.Priority != "" || f.AssigneeID != ""
}

// Match reports whether t passes every set criterion. Search is a
// case-insensitive substring match on title and description.
func (f Filter) Match(t model.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.AssigneeID != "" && !t.IsAssignee(f.AssigneeID) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

// Apply returns the tasks that match f, preserving order.
func (f Filter) Apply(tasks []model.Task) []model.Task {
	if !f.Active() {
		return tasks
	}
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// SortForDisplay orders open tasks before terminal ones, then by priority
// (most urgent first), then by due date (earliest first, undated last).
func SortForDisplay(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if at, bt := a.Status.IsTerminal(), b.Status.IsTerminal(); at != bt {
			return !at
		}
		if ar, br := a.Priority.Rank(), b.Priority.Rank(); ar != br {
			return ar > br
		}
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return false
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		}
		return a.DueDate.Before(*b.DueDate)
	})
}
