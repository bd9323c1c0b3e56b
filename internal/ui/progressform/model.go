package progressform

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/theme"
)

// SubmitMsg carries the progress the user entered for a task.
type SubmitMsg struct {
	TaskID     string
	Percentage int
	Phase      model.Phase
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	percentage string
	phase      model.Phase
}

// Model edits the progress axis of one task.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	taskID string
	title  string
	width  int
	height int
}

// New creates a new progress form model.
func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// Start initializes the form with the task's current progress.
func (m *Model) Start(t model.Task) tea.Cmd {
	m.taskID = t.ID
	m.title = t.Title
	m.fb.percentage = strconv.Itoa(t.Progress.Percentage)
	m.fb.phase = t.Progress.CurrentPhase
	if !m.fb.phase.Valid() {
		m.fb.phase = model.PhasePlanning
	}

	opts := make([]huh.Option[model.Phase], len(model.Phases))
	for i, ph := range model.Phases {
		opts[i] = huh.NewOption(ph.Label(), ph)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Percentage").
				Placeholder("0-100").
				Value(&m.fb.percentage).
				Validate(validatePercentage),
			huh.NewSelect[model.Phase]().
				Title("Phase").
				Options(opts...).
				Value(&m.fb.phase),
		),
	).WithWidth(min(max(m.width-4, 40), 80))
	return m.form.Init()
}

// Update handles messages for the progress form.
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
		pct, _ := ParsePercentage(m.fb.percentage)
		submit := SubmitMsg{TaskID: m.taskID, Percentage: pct, Phase: m.fb.phase}
		m.form = nil
		return m, func() tea.Msg { return submit }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the progress form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).
		Render("Update progress: " + m.title)
	return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// ParsePercentage parses an integer in [0, 100].
func ParsePercentage(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("percentage must be a whole number")
	}
	if n < 0 || n > 100 {
		return 0, fmt.Errorf("percentage must be between 0 and 100")
	}
	return n, nil
}

func validatePercentage(s string) error {
	_, err := ParsePercentage(s)
	return err
}
