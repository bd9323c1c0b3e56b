package model

// TaskStats is the backend's summary of the tasks visible to the actor.
type TaskStats struct {
	TotalTasks   int                `json:"total_tasks"`
	ByStatus     map[TaskStatus]int `json:"by_status"`
	OverdueTasks int                `json:"overdue_tasks"`
}

// Count returns the number of tasks with the given status.
func (s TaskStats) Count(status TaskStatus) int {
	if s.ByStatus == nil {
		return 0
	}
	return s.ByStatus[status]
}
