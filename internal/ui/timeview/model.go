// Package timeview renders the time-tracking screen: live sessions, the
// actor's today and week totals, and per-task trackers.
package timeview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-dashboard/internal/access"
	"github.com/nhle/crm-dashboard/internal/keys"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/theme"
	"github.com/nhle/crm-dashboard/internal/timetrack"
)

// BackMsg signals the parent to leave the time view.
type BackMsg struct{}

// Model is the time-tracking view.
type Model struct {
	actor    model.Actor
	clock    timetrack.Clock
	keys     *keys.KeyMap
	tasks    []model.Task
	viewport viewport.Model
	width    int
	height   int
}

// New creates a time view for actor.
func New(k *keys.KeyMap, actor model.Actor, clock timetrack.Clock, width, height int) Model {
	return Model{
		actor:    actor,
		clock:    clock,
		keys:     k,
		viewport: viewport.New(width, height),
		width:    width,
		height:   height,
	}
}

// SetTasks replaces the tasks the view aggregates over.
func (m *Model) SetTasks(tasks []model.Task) {
	m.tasks = tasks
	m.Tick()
}

// Tick re-renders with the current time so live timers advance.
func (m *Model) Tick() {
	m.viewport.SetContent(Render(m.tasks, m.actor, m.clock.Now()))
}

// Update handles messages for the time view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg { return BackMsg{} }
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the time view.
func (m Model) View() string {
	return m.viewport.View()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// Render builds the time view text. Managers see every tracker and every
// running session; others see only their own.
func Render(tasks []model.Task, actor model.Actor, now time.Time) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	muted := lipgloss.NewStyle().Foreground(theme.ColorGray)
	var b strings.Builder

	today := timetrack.PeriodTotal(tasks, actor.ID, timetrack.PeriodToday.WindowStart(now), now)
	week := timetrack.PeriodTotal(tasks, actor.ID, timetrack.PeriodWeek.WindowStart(now), now)
	b.WriteString(header.Render("Your time") + "\n")
	fmt.Fprintf(&b, "  Today:     %s\n", timetrack.FormatDuration(today))
	fmt.Fprintf(&b, "  This week: %s\n\n", timetrack.FormatDuration(week))

	scope := actor.ID
	if access.CanViewAllTrackers(actor) {
		scope = ""
	}
	active := timetrack.ActiveSessions(tasks, scope, now)
	b.WriteString(header.Render(fmt.Sprintf("Active sessions (%d)", len(active))) + "\n")
	if len(active) == 0 {
		b.WriteString(muted.Render("  No timers running") + "\n")
	}
	for _, s := range active {
		fmt.Fprintf(&b, "  %s  %s  %s  since %s\n",
			theme.TimerStyle.Render(timetrack.FormatClock(s.Elapsed)),
			s.TaskTitle,
			muted.Render(s.User.DisplayName()),
			s.Start.Local().Format("15:04"))
	}
	b.WriteString("\n" + header.Render("Trackers") + "\n")

	rows := 0
	for _, t := range tasks {
		trackers := access.VisibleTrackers(actor, t)
		if len(trackers) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s %s\n", t.Title, muted.Render("("+timetrack.FormatDuration(timetrack.TaskTotal(t))+" total)"))
		for _, tr := range trackers {
			line := fmt.Sprintf("    %-20s %-10s %d sessions",
				tr.User.DisplayName(), timetrack.FormatDuration(timetrack.TrackerTotal(tr)), len(tr.Sessions))
			if tr.HasOpenSession() {
				line += "  " + theme.TimerStyle.Render("+"+timetrack.FormatClock(timetrack.ActiveElapsed(tr, now)))
			}
			b.WriteString(line + "\n")
			rows++
		}
	}
	if rows == 0 {
		b.WriteString(muted.Render("  No time tracked yet") + "\n")
	}

	return b.String()
}
