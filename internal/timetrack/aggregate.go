// Package timetrack derives time-tracking figures from task trackers. It
// is a read-only view: nothing here advances backend state.
package timetrack

import (
	"sort"
	"time"

	"github.com/nhle/crm-dashboard/internal/model"
)

// TrackerTotal sums the durations of the tracker's closed sessions. The
// open session, if any, is not included.
func TrackerTotal(tr model.Tracker) time.Duration {
	var total time.Duration
	for _, s := range tr.Sessions {
		total += s.Duration
	}
	return total
}

// ActiveElapsed returns now - currentSessionStart for an open session,
// and zero otherwise.
func ActiveElapsed(tr model.Tracker, now time.Time) time.Duration {
	if !tr.HasOpenSession() {
		return 0
	}
	elapsed := now.Sub(*tr.CurrentSessionStart)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// LiveTotal is the closed-session total plus the open session's elapsed
// time. Used only for the active session display.
func LiveTotal(tr model.Tracker, now time.Time) time.Duration {
	return TrackerTotal(tr) + ActiveElapsed(tr, now)
}

// TaskTotal sums TrackerTotal over every tracker on the task.
func TaskTotal(t model.Task) time.Duration {
	var total time.Duration
	for _, tr := range t.TimeTracking {
		total += TrackerTotal(tr)
	}
	return total
}

// Period names a reporting window ending at now.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
)

// WindowStart returns the start of the period containing now, in now's
// location. Weeks start on Monday.
func (p Period) WindowStart(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if p != PeriodWeek {
		return day
	}
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// PeriodTotal sums closed-session durations whose start falls within
// [windowStart, now]. Only trackers of userID count, unless userID is
// empty. Open sessions never count, including ones that began before the
// window and are still running.
func PeriodTotal(tasks []model.Task, userID string, windowStart, now time.Time) time.Duration {
	var total time.Duration
	for _, t := range tasks {
		for _, tr := range t.TimeTracking {
			if userID != "" && tr.User.ID != userID {
				continue
			}
			for _, s := range tr.Sessions {
				if s.StartTime.Before(windowStart) || s.StartTime.After(now) {
					continue
				}
				total += s.Duration
			}
		}
	}
	return total
}

// ActiveSession is an open session on a task.
type ActiveSession struct {
	TaskID    string
	TaskTitle string
	User      model.UserRef
	Start     time.Time
	Elapsed   time.Duration
}

// ActiveSessions lists open sessions across tasks, restricted to userID
// unless it is empty, ordered by start time.
func ActiveSessions(tasks []model.Task, userID string, now time.Time) []ActiveSession {
	var out []ActiveSession
	for _, t := range tasks {
		for _, tr := range t.TimeTracking {
			if !tr.HasOpenSession() {
				continue
			}
			if userID != "" && tr.User.ID != userID {
				continue
			}
			out = append(out, ActiveSession{
				TaskID:    t.ID,
				TaskTitle: t.Title,
				User:      tr.User,
				Start:     *tr.CurrentSessionStart,
				Elapsed:   ActiveElapsed(tr, now),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// Summary is the per-task, per-user rollup used by reports and the
// manager's tracker view.
type Summary struct {
	TaskID    string
	TaskTitle string
	Status    model.TaskStatus
	User      model.UserRef
	Sessions  int
	Total     time.Duration
	Active    bool
}

// Summarize produces one Summary per tracker across tasks, in task order.
func Summarize(tasks []model.Task) []Summary {
	var out []Summary
	for _, t := range tasks {
		for _, tr := range t.TimeTracking {
			out = append(out, Summary{
				TaskID:    t.ID,
				TaskTitle: t.Title,
				Status:    t.Status,
				User:      tr.User,
				Sessions:  len(tr.Sessions),
				Total:     TrackerTotal(tr),
				Active:    tr.HasOpenSession(),
			})
		}
	}
	return out
}
