package assignform

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/theme"
)

// SubmitMsg carries the chosen user for an assignee change.
type SubmitMsg struct {
	TaskID string
	UserID string
	Remove bool
}

// CancelMsg is dispatched when the user cancels the picker.
type CancelMsg struct{}

// Model picks a user to add to or remove from a task's assignees.
type Model struct {
	form   *huh.Form
	userID *string
	taskID string
	title  string
	remove bool
	width  int
	height int
}

// New creates a new assignee picker.
func New(width, height int) Model {
	return Model{userID: new(string), width: width, height: height}
}

// Candidates returns the users offered by the picker: employees not yet
// assigned when adding, current assignees when removing.
func Candidates(t model.Task, employees []model.UserRef, remove bool) []model.UserRef {
	if remove {
		out := make([]model.UserRef, 0, len(t.AssignedTo))
		for _, a := range t.AssignedTo {
			out = append(out, a.User)
		}
		return out
	}
	var out []model.UserRef
	for _, e := range employees {
		if !t.IsAssignee(e.ID) {
			out = append(out, e)
		}
	}
	return out
}

// Start opens the picker. It returns false when there is nobody to pick.
func (m *Model) Start(t model.Task, employees []model.UserRef, remove bool) (tea.Cmd, bool) {
	users := Candidates(t, employees, remove)
	if len(users) == 0 {
		return nil, false
	}

	m.taskID = t.ID
	m.title = t.Title
	m.remove = remove
	*m.userID = users[0].ID

	opts := make([]huh.Option[string], len(users))
	for i, u := range users {
		opts[i] = huh.NewOption(u.DisplayName(), u.ID)
	}

	label := "Add assignee"
	if remove {
		label = "Remove assignee"
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(label).
				Options(opts...).
				Value(m.userID),
		),
	).WithWidth(min(max(m.width-4, 40), 80))
	return m.form.Init(), true
}

// Update handles messages for the picker.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		submit := SubmitMsg{TaskID: m.taskID, UserID: *m.userID, Remove: m.remove}
		return m, func() tea.Msg { return submit }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the picker.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).Render(m.title)
	return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n" + m.form.View())
}

// SetSize updates the picker dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
