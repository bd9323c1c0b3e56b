package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/crm-dashboard/internal/access"
	"github.com/nhle/crm-dashboard/internal/keys"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/tasks"
	"github.com/nhle/crm-dashboard/internal/theme"
	"github.com/nhle/crm-dashboard/internal/timetrack"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// Model is the task detail view component.
type Model struct {
	task     *model.Task
	actor    model.Actor
	inflight *tasks.InFlight
	clock    timetrack.Clock
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, actor model.Actor, inflight *tasks.InFlight, clock timetrack.Clock, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		actor:    actor,
		inflight: inflight,
		clock:    clock,
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg { return BackMsg{} }
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No task selected")
	}

	return m.viewport.View()
}

// Task returns the task on display.
func (m Model) Task() (model.Task, bool) {
	if m.task == nil {
		return model.Task{}, false
	}
	return *m.task, true
}

// SetTask updates the task being displayed and re-renders the content.
// Passing a task with a new ID scrolls back to the top.
func (m *Model) SetTask(t model.Task) {
	reset := m.task == nil || m.task.ID != t.ID
	m.task = &t
	m.viewport.SetContent(m.renderContent(m.clock.Now()))
	if reset {
		m.viewport.GotoTop()
	}
}

// Clear drops the task, e.g. when it disappears from the snapshot.
func (m *Model) Clear() {
	m.task = nil
	m.viewport.SetContent("")
}

// Tick re-renders so running timers advance.
func (m *Model) Tick() {
	if m.task != nil {
		m.viewport.SetContent(m.renderContent(m.clock.Now()))
	}
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent(now time.Time) string {
	task := m.task
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(task.Title))

	statusBadge := theme.StatusStyle(task.Status).Render(task.Status.Label())
	priBadge := theme.PriorityStyle(task.Priority).Render(task.Priority.Label())
	phaseBadge := theme.PhaseStyle(task.Progress.CurrentPhase).Render(task.Progress.CurrentPhase.Label())
	badgeLine := lipgloss.JoinHorizontal(lipgloss.Top, statusBadge, "  ", priBadge, "  ", phaseBadge)
	if op, busy := m.inflight.Busy(task.ID); busy {
		badgeLine += lipgloss.NewStyle().Foreground(theme.ColorGray).Render("  " + string(op) + "…")
	}
	sections = append(sections, badgeLine, "", progressBar(task.Progress, min(m.width-10, 40)), "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(12)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	meta := func(label, value string) {
		if value == "" {
			return
		}
		sections = append(sections, metaStyle.Render(label+":")+" "+valStyle.Render(value))
	}

	meta("Assignees", task.AssigneeNames())
	meta("Project", task.ProjectName)
	if task.CreatedBy != nil {
		meta("Created by", task.CreatedBy.DisplayName())
	}
	meta("Category", task.Category)
	if task.EstimatedHours > 0 {
		meta("Estimate", fmt.Sprintf("%gh", task.EstimatedHours))
	}
	if task.DueDate != nil {
		meta("Due", fmt.Sprintf("%s (%s)", task.DueDate.Format("2006-01-02"),
			humanize.RelTime(*task.DueDate, now, "ago", "from now")))
	}
	if !task.CreatedAt.IsZero() {
		meta("Created", task.CreatedAt.Format("2006-01-02 15:04"))
	}
	if !task.UpdatedAt.IsZero() {
		meta("Updated", task.UpdatedAt.Format("2006-01-02 15:04"))
	}
	if task.CompletedDate != nil {
		meta("Completed", task.CompletedDate.Format("2006-01-02 15:04"))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	sections = append(sections, "", separator, "", headerStyle.Render("Time tracking"))
	trackers := access.VisibleTrackers(m.actor, *task)
	if len(trackers) == 0 {
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render("No time tracked"))
	}
	for _, tr := range trackers {
		line := fmt.Sprintf("%-20s %s  (%d sessions)",
			tr.User.DisplayName(), timetrack.FormatDuration(timetrack.TrackerTotal(tr)), len(tr.Sessions))
		if tr.HasOpenSession() {
			line += "  " + theme.TimerStyle.Render("running "+timetrack.FormatClock(timetrack.ActiveElapsed(tr, now)))
		}
		sections = append(sections, line)
	}

	if ops := tasks.Available(m.actor, *task); len(ops) > 0 {
		names := make([]string, len(ops))
		for i, op := range ops {
			names[i] = string(op)
		}
		sections = append(sections, "", theme.HelpStyle.Render("Actions: "+strings.Join(names, ", ")))
	}

	sections = append(sections, "", separator, "", headerStyle.Render("Description"))
	body := task.Description
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// progressBar renders "[#####.....] 50%" for the progress axis.
func progressBar(p model.Progress, width int) string {
	if width < 10 {
		width = 10
	}
	pct := min(max(p.Percentage, 0), 100)
	filled := width * pct / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	label := fmt.Sprintf(" %d%%", p.Percentage)
	if !p.Consistent() {
		label += " (phase completed below 100%)"
	}
	return theme.PhaseStyle(p.CurrentPhase).Render(bar) + label
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
