package model

import "time"

// TaskStatus is the primary lifecycle axis of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusOverdue    TaskStatus = "overdue"
	StatusCancelled  TaskStatus = "cancelled"
)

// Statuses lists every status in display order.
var Statuses = []TaskStatus{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusOverdue,
	StatusCancelled,
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the task lifecycle has ended.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every priority from least to most urgent.
var Priorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityCritical,
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities for sorting; higher is more urgent, 0 is unknown.
func (p Priority) Rank() int {
	for i, known := range Priorities {
		if p == known {
			return i + 1
		}
	}
	return 0
}

// Phase is the workflow position of a task, tracked independently of
// its status.
type Phase string

const (
	PhasePlanning    Phase = "planning"
	PhaseDevelopment Phase = "development"
	PhaseTesting     Phase = "testing"
	PhaseReview      Phase = "review"
	PhaseDeployment  Phase = "deployment"
	PhaseCompleted   Phase = "completed"
)

// Phases lists the workflow phases in order.
var Phases = []Phase{
	PhasePlanning,
	PhaseDevelopment,
	PhaseTesting,
	PhaseReview,
	PhaseDeployment,
	PhaseCompleted,
}

// Valid reports whether ph is one of the six workflow phases.
func (ph Phase) Valid() bool {
	for _, known := range Phases {
		if ph == known {
			return true
		}
	}
	return false
}

// Progress is the secondary, phase-based progress axis of a task.
type Progress struct {
	// Percentage is in [0, 100].
	Percentage int `json:"percentage"`

	// CurrentPhase is independent of the task status.
	CurrentPhase Phase `json:"current_phase"`
}

// Consistent reports whether a completed phase is paired with 100%.
// The backend does not enforce this; it is surfaced for display only.
func (p Progress) Consistent() bool {
	return p.CurrentPhase != PhaseCompleted || p.Percentage == 100
}

// Assignee links a user to a task with a free-form role label.
type Assignee struct {
	User UserRef `json:"user"`
	Role string  `json:"role"`
}

// TimeSession is one closed start-to-stop interval of tracked work.
// It is immutable once recorded.
type TimeSession struct {
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
}

// Tracker is the per-user time-tracking record on a task.
type Tracker struct {
	User UserRef `json:"user"`

	// IsActive is true while the user has an open session.
	IsActive bool `json:"is_active"`

	// CurrentSessionStart is set only while IsActive is true.
	CurrentSessionStart *time.Time `json:"current_session_start,omitempty"`

	// TotalTimeSpent is the backend-stored total, updated at stop time.
	TotalTimeSpent time.Duration `json:"total_time_spent"`

	// Sessions holds closed sessions in the order they were recorded.
	Sessions []TimeSession `json:"sessions"`
}

// HasOpenSession reports whether the tracker currently has an open session.
func (tr Tracker) HasOpenSession() bool {
	return tr.IsActive && tr.CurrentSessionStart != nil
}

// Task is the unit of work tracked by the dashboard.
type Task struct {
	// ID is assigned by the backend and never changes.
	ID string `json:"id"`

	Title       string `json:"title"`
	Description string `json:"description"`

	Status   TaskStatus `json:"status"`
	Priority Priority   `json:"priority"`

	// DueDate drives the backend's overdue marking.
	DueDate *time.Time `json:"due_date,omitempty"`

	// AssignedTo is the set of users who may act on this task.
	AssignedTo []Assignee `json:"assigned_to"`

	Progress Progress `json:"progress"`

	// TimeTracking holds one tracker per user who has tracked time.
	TimeTracking []Tracker `json:"time_tracking"`

	ProjectID   string `json:"project_id,omitempty"`
	ProjectName string `json:"project_name,omitempty"`

	EstimatedHours float64 `json:"estimated_hours"`
	Category       string  `json:"category"`

	CreatedBy     *UserRef   `json:"created_by,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// FetchedAt is when this copy was last pulled from the backend.
	FetchedAt time.Time `json:"fetched_at"`
}

// IsAssignee reports whether userID appears in the task's assignee set.
func (t Task) IsAssignee(userID string) bool {
	if userID == "" {
		return false
	}
	for _, a := range t.AssignedTo {
		if a.User.ID == userID {
			return true
		}
	}
	return false
}

// AssigneeIDs returns the user IDs of all assignees in order.
func (t Task) AssigneeIDs() []string {
	ids := make([]string, 0, len(t.AssignedTo))
	for _, a := range t.AssignedTo {
		ids = append(ids, a.User.ID)
	}
	return ids
}

// TrackerFor returns the tracker belonging to userID, if any.
func (t Task) TrackerFor(userID string) (Tracker, bool) {
	for _, tr := range t.TimeTracking {
		if tr.User.ID == userID {
			return tr, true
		}
	}
	return Tracker{}, false
}

// HasActiveTracker reports whether any user has an open session on the task.
func (t Task) HasActiveTracker() bool {
	for _, tr := range t.TimeTracking {
		if tr.HasOpenSession() {
			return true
		}
	}
	return false
}

// PastDue reports whether the due date has passed at now while the task
// is still open. Only the backend sets the overdue status; this is for
// display hints.
func (t Task) PastDue(now time.Time) bool {
	if t.DueDate == nil || t.Status.IsTerminal() {
		return false
	}
	return now.After(*t.DueDate)
}
