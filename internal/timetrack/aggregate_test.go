package timetrack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/crm-dashboard/internal/model"
)

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func session(start time.Time, d time.Duration) model.TimeSession {
	return model.TimeSession{StartTime: start, EndTime: start.Add(d), Duration: d}
}

func TestTrackerTotalExcludesOpenSession(t *testing.T) {
	openedAt := monday.Add(10 * time.Hour)
	now := openedAt.Add(20 * time.Minute)
	tr := model.Tracker{
		User:                model.UserRef{ID: "u1"},
		IsActive:            true,
		CurrentSessionStart: &openedAt,
		Sessions: []model.TimeSession{
			session(monday.Add(8*time.Hour), 30*time.Minute),
			session(monday.Add(9*time.Hour), 15*time.Minute),
		},
	}

	assert.Equal(t, 45*time.Minute, TrackerTotal(tr))
	assert.Equal(t, 20*time.Minute, ActiveElapsed(tr, now))
	assert.Equal(t, 65*time.Minute, LiveTotal(tr, now))
}

func TestActiveElapsedInactive(t *testing.T) {
	assert.Equal(t, time.Duration(0), ActiveElapsed(model.Tracker{}, monday))
}

func TestWindowStart(t *testing.T) {
	thursday := time.Date(2026, 3, 5, 15, 30, 0, 0, time.UTC)
	sunday := time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), PeriodToday.WindowStart(thursday))
	assert.Equal(t, monday, PeriodWeek.WindowStart(thursday))
	assert.Equal(t, monday, PeriodWeek.WindowStart(sunday))
	assert.Equal(t, monday, PeriodWeek.WindowStart(monday.Add(time.Minute)))
}

func TestPeriodTotalWindowRules(t *testing.T) {
	now := monday.Add(2*24*time.Hour + 12*time.Hour) // Wednesday noon
	openedYesterday := now.Add(-20 * time.Hour)

	tasks := []model.Task{
		{
			ID: "t1",
			TimeTracking: []model.Tracker{
				{
					User: model.UserRef{ID: "u1"},
					Sessions: []model.TimeSession{
						session(now.Add(-2*time.Hour), time.Hour),        // today
						session(now.Add(-26*time.Hour), 2*time.Hour),     // earlier this week
						session(monday.Add(-3*time.Hour), 4*time.Hour),   // started last week
					},
				},
				{
					User: model.UserRef{ID: "u2"},
					Sessions: []model.TimeSession{
						session(now.Add(-time.Hour), 30*time.Minute),
					},
				},
			},
		},
		{
			ID: "t2",
			TimeTracking: []model.Tracker{
				{
					User:                model.UserRef{ID: "u1"},
					IsActive:            true,
					CurrentSessionStart: &openedYesterday,
				},
			},
		},
	}

	today := PeriodToday.WindowStart(now)
	week := PeriodWeek.WindowStart(now)

	assert.Equal(t, time.Hour, PeriodTotal(tasks, "u1", today, now))
	assert.Equal(t, 3*time.Hour, PeriodTotal(tasks, "u1", week, now),
		"session started before the window is excluded even if it ran into it")
	assert.Equal(t, 90*time.Minute, PeriodTotal(tasks, "", today, now))
	assert.Equal(t, time.Duration(0), PeriodTotal(tasks, "u3", week, now))
}

func TestActiveSessionsOrderedAndFiltered(t *testing.T) {
	now := monday.Add(12 * time.Hour)
	early := now.Add(-3 * time.Hour)
	late := now.Add(-time.Hour)

	tasks := []model.Task{
		{ID: "t1", Title: "Later", TimeTracking: []model.Tracker{
			{User: model.UserRef{ID: "u1"}, IsActive: true, CurrentSessionStart: &late},
		}},
		{ID: "t2", Title: "Earlier", TimeTracking: []model.Tracker{
			{User: model.UserRef{ID: "u2"}, IsActive: true, CurrentSessionStart: &early},
			{User: model.UserRef{ID: "u1"}},
		}},
	}

	all := ActiveSessions(tasks, "", now)
	if assert.Len(t, all, 2) {
		assert.Equal(t, "t2", all[0].TaskID)
		assert.Equal(t, 3*time.Hour, all[0].Elapsed)
		assert.Equal(t, "t1", all[1].TaskID)
	}

	mine := ActiveSessions(tasks, "u1", now)
	if assert.Len(t, mine, 1) {
		assert.Equal(t, "Later", mine[0].TaskTitle)
	}
}

func TestSummarize(t *testing.T) {
	tasks := []model.Task{
		{ID: "t1", Title: "API", Status: model.StatusInProgress, TimeTracking: []model.Tracker{
			{User: model.UserRef{ID: "u1"}, Sessions: []model.TimeSession{
				session(monday, time.Hour),
				session(monday.Add(2*time.Hour), 30*time.Minute),
			}},
		}},
	}

	sums := Summarize(tasks)
	if assert.Len(t, sums, 1) {
		assert.Equal(t, 2, sums[0].Sessions)
		assert.Equal(t, 90*time.Minute, sums[0].Total)
		assert.False(t, sums[0].Active)
	}
	assert.Equal(t, 90*time.Minute, TaskTotal(tasks[0]))
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(monday)
	c.Advance(5 * time.Second)
	assert.Equal(t, monday.Add(5*time.Second), c.Now())
	c.Set(monday)
	assert.Equal(t, monday, c.Now())
}
