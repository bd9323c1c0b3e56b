package tasklist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-dashboard/internal/keys"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/tasks"
	"github.com/nhle/crm-dashboard/internal/theme"
	"github.com/nhle/crm-dashboard/internal/timetrack"
)

// SelectedTaskMsg is sent when a user selects a task to view details.
type SelectedTaskMsg struct {
	TaskID string
}

// Model is the main task list view component. It filters the latest
// snapshot in memory; it never talks to the backend itself.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	clock       timetrack.Clock
	state       *renderState
	spin        spinner.Model
	all         []model.Task
	filter      tasks.Filter
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new task list model for actor.
func New(k *keys.KeyMap, actor model.Actor, inflight *tasks.InFlight, clock timetrack.Clock, width, height int) Model {
	state := &renderState{actorID: actor.ID, inflight: inflight, now: clock.Now()}
	l := list.New([]list.Item{}, ItemDelegate{state: state}, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search title or description..."
	si.Prompt = "/ "
	si.Width = width - 4

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	state.spinner = sp.View()

	return Model{
		list:        l,
		keys:        k,
		clock:       clock,
		state:       state,
		spin:        sp,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init starts the in-flight spinner.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// SetTasks replaces the source list and re-applies the filter, keeping
// the cursor on the same task when it is still visible.
func (m *Model) SetTasks(all []model.Task) tea.Cmd {
	m.all = all
	return m.apply()
}

// Filter returns the active filter.
func (m Model) Filter() tasks.Filter { return m.filter }

// SetFilter replaces the filter.
func (m *Model) SetFilter(f tasks.Filter) tea.Cmd {
	m.filter = f
	return m.apply()
}

// ToggleStatus filters by s; selecting the active status clears it.
func (m *Model) ToggleStatus(s model.TaskStatus) tea.Cmd {
	if m.filter.Status == s {
		s = ""
	}
	m.filter.Status = s
	return m.apply()
}

func (m *Model) apply() tea.Cmd {
	selected, _ := m.Selected()

	visible := append([]model.Task(nil), m.filter.Apply(m.all)...)
	tasks.SortForDisplay(visible)

	items := make([]list.Item, len(visible))
	cursor := 0
	for i, t := range visible {
		items[i] = TaskItem{Task: t}
		if t.ID == selected.ID {
			cursor = i
		}
	}
	cmd := m.list.SetItems(items)
	m.list.Select(cursor)
	return cmd
}

// Selected returns the task under the cursor.
func (m Model) Selected() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// Visible returns the number of rows after filtering.
func (m Model) Visible() int { return len(m.list.Items()) }

// Searching reports whether the search input owns the keyboard.
func (m Model) Searching() bool { return m.searchMode }

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		m.state.spinner = m.spin.View()
		m.state.now = m.clock.Now()
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Tick refreshes the clock used for running timers.
func (m *Model) Tick() {
	m.state.now = m.clock.Now()
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.filter.Search = m.searchInput.Value()
		return m, m.apply()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Search = ""
		return m, m.apply()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		t, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedTaskMsg{TaskID: t.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.filter.Search)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.FilterPending):
		return m, m.ToggleStatus(model.StatusPending)

	case key.Matches(msg, m.keys.FilterInProgress):
		return m, m.ToggleStatus(model.StatusInProgress)

	case key.Matches(msg, m.keys.FilterOverdue):
		return m, m.ToggleStatus(model.StatusOverdue)

	case key.Matches(msg, m.keys.ClearFilter):
		return m, m.SetFilter(tasks.Filter{})
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no tasks are available.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filter.Active() {
		return style.Render("No matching tasks.\nPress 0 to clear the filter.")
	}
	return style.Render("No tasks assigned yet.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
