package mockapi

import (
	"net/http"

	"github.com/nhle/crm-dashboard/internal/model"
)

// The methods in this file run with s.mu held.

func trackerIndex(t *model.Task, userID string) int {
	for i := range t.TimeTracking {
		if t.TimeTracking[i].User.ID == userID {
			return i
		}
	}
	return -1
}

// tracker returns the actor's tracker, creating it if needed.
func (s *Server) tracker(a model.Actor, t *model.Task) *model.Tracker {
	if i := trackerIndex(t, a.ID); i >= 0 {
		return &t.TimeTracking[i]
	}
	t.TimeTracking = append(t.TimeTracking, model.Tracker{User: a.Ref(), Sessions: []model.TimeSession{}})
	return &t.TimeTracking[len(t.TimeTracking)-1]
}

func (s *Server) openSession(a model.Actor, t *model.Task) {
	tr := s.tracker(a, t)
	now := s.clock.Now()
	tr.IsActive = true
	tr.CurrentSessionStart = &now
}

// closeSession appends the actor's open session, if any. Reports whether
// one was open.
func (s *Server) closeSession(a model.Actor, t *model.Task) bool {
	i := trackerIndex(t, a.ID)
	if i < 0 || !t.TimeTracking[i].HasOpenSession() {
		return false
	}
	tr := &t.TimeTracking[i]
	end := s.clock.Now()
	start := *tr.CurrentSessionStart
	d := end.Sub(start)
	if d < 0 {
		d = 0
	}
	tr.Sessions = append(tr.Sessions, model.TimeSession{StartTime: start, EndTime: end, Duration: d})
	tr.TotalTimeSpent += d
	tr.IsActive = false
	tr.CurrentSessionStart = nil
	return true
}

// start moves a pending task to in_progress and opens the actor's
// session. On an in_progress task it reopens the actor's timer. A second
// start while the actor's session is open is a conflict.
func (s *Server) start(a model.Actor, t *model.Task) (int, string) {
	if i := trackerIndex(t, a.ID); i >= 0 && t.TimeTracking[i].HasOpenSession() {
		return http.StatusConflict, "Timer is already running for this task"
	}
	switch t.Status {
	case model.StatusPending:
		t.Status = model.StatusInProgress
	case model.StatusInProgress:
	default:
		return http.StatusBadRequest, "Task cannot be started in status " + string(t.Status)
	}
	s.openSession(a, t)
	return 0, ""
}

// stop closes the actor's open session. Status is unchanged.
func (s *Server) stop(a model.Actor, t *model.Task) (int, string) {
	if !s.closeSession(a, t) {
		return http.StatusBadRequest, "No active time tracking session"
	}
	return 0, ""
}

// complete closes the actor's session and marks the task completed.
func (s *Server) complete(a model.Actor, t *model.Task) (int, string) {
	if t.Status != model.StatusInProgress {
		return http.StatusBadRequest, "Only tasks in progress can be completed"
	}
	s.closeSession(a, t)
	now := s.clock.Now()
	t.Status = model.StatusCompleted
	t.CompletedDate = &now
	return 0, ""
}

// markOverdue flags pending tasks whose due date has passed.
func (s *Server) markOverdue() {
	now := s.clock.Now()
	for _, t := range s.tasks {
		if t.Status == model.StatusPending && t.DueDate != nil && now.After(*t.DueDate) {
			t.Status = model.StatusOverdue
			t.UpdatedAt = now
		}
	}
}

// populate fills user names on references from the user table.
func (s *Server) populate(t *model.Task) {
	for i, as := range t.AssignedTo {
		if rec, ok := s.users[as.User.ID]; ok {
			t.AssignedTo[i].User = rec.actor.Ref()
		}
	}
	for i, tr := range t.TimeTracking {
		if rec, ok := s.users[tr.User.ID]; ok {
			t.TimeTracking[i].User = rec.actor.Ref()
		}
	}
}

// cloneTask deep-copies the slices and pointers of t.
func cloneTask(t model.Task) model.Task {
	out := t
	out.AssignedTo = append([]model.Assignee(nil), t.AssignedTo...)
	out.TimeTracking = make([]model.Tracker, len(t.TimeTracking))
	for i, tr := range t.TimeTracking {
		c := tr
		c.Sessions = append([]model.TimeSession(nil), tr.Sessions...)
		if tr.CurrentSessionStart != nil {
			start := *tr.CurrentSessionStart
			c.CurrentSessionStart = &start
		}
		out.TimeTracking[i] = c
	}
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	if t.CompletedDate != nil {
		d := *t.CompletedDate
		out.CompletedDate = &d
	}
	if t.CreatedBy != nil {
		c := *t.CreatedBy
		out.CreatedBy = &c
	}
	return out
}
