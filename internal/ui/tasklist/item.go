package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/tasks"
	"github.com/nhle/crm-dashboard/internal/theme"
	"github.com/nhle/crm-dashboard/internal/timetrack"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	return strings.Join([]string{
		i.Task.Status.Words(),
		string(i.Task.Priority),
		fmt.Sprintf("%d%%", i.Task.Progress.Percentage),
	}, " | ")
}

// renderState is shared by reference between the Model and its delegate
// so the delegate sees the current time, actor and spinner frame.
type renderState struct {
	now      time.Time
	actorID  string
	inflight *tasks.InFlight
	spinner  string
}

// ItemDelegate implements list.ItemDelegate for rendering task rows.
type ItemDelegate struct {
	state *renderState
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, d.line(ti.Task, index == m.Index()))
}

func (d ItemDelegate) line(t model.Task, selected bool) string {
	prefix := "●"
	if d.state.inflight != nil {
		if _, busy := d.state.inflight.Busy(t.ID); busy {
			prefix = d.state.spinner
		}
	}

	statusBadge := theme.StatusStyle(t.Status).Render(t.Status.Label())
	priBadge := theme.PriorityStyle(t.Priority).Render(priorityLabel(t.Priority))
	progress := theme.PhaseStyle(t.Progress.CurrentPhase).
		Render(fmt.Sprintf("%3d%% %s", t.Progress.Percentage, t.Progress.CurrentPhase.Label()))

	timer := ""
	if tr, ok := t.TrackerFor(d.state.actorID); ok && tr.HasOpenSession() {
		timer = " " + theme.TimerStyle.Render("⏱ "+timetrack.FormatClock(timetrack.ActiveElapsed(tr, d.state.now)))
	}

	due := ""
	if t.DueDate != nil {
		style := lipgloss.NewStyle().Foreground(theme.ColorGray)
		if t.PastDue(d.state.now) {
			style = style.Foreground(theme.ColorRed)
		}
		due = "  " + style.Render("due "+DueLabel(*t.DueDate, d.state.now))
	}

	line := fmt.Sprintf("%s %s %s %s %s%s%s", prefix, statusBadge, priBadge, progress, t.Title, timer, due)
	if t.Status.IsTerminal() {
		line = lipgloss.NewStyle().Foreground(theme.ColorGray).Render(line)
	}

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// DueLabel renders a due date relative to now, e.g. "3 days from now".
func DueLabel(due, now time.Time) string {
	return humanize.RelTime(due, now, "ago", "from now")
}

// priorityLabel returns a short label for the given priority.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityCritical:
		return "P1"
	case model.PriorityHigh:
		return "P2"
	case model.PriorityMedium:
		return "P3"
	case model.PriorityLow:
		return "P4"
	default:
		return "P?"
	}
}
