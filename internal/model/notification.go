package model

import "time"

// Notification records a task status change observed while polling.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// TaskID links this notification to the task that changed.
	TaskID string `json:"task_id"`

	// TaskTitle is captured at the time of the change.
	TaskTitle string `json:"task_title"`

	OldStatus TaskStatus `json:"old_status"`
	NewStatus TaskStatus `json:"new_status"`

	// Assignee names the task's assignees at the time of the change.
	Assignee string `json:"assignee"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at"`
}
