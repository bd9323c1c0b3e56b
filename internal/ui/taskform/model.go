package taskform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-dashboard/internal/api"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/theme"
)

// SubmitMsg carries a create request built from the form.
type SubmitMsg struct {
	Request api.CreateTaskRequest
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

const dateLayout = "2006-01-02"

// Values holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type Values struct {
	Title          string
	Description    string
	Priority       model.Priority
	Assignees      []string
	DueDate        string
	EstimatedHours string
	Category       string
}

// Model is the create-task form, offered to managers only.
type Model struct {
	form      *huh.Form
	fb        *Values
	employees []model.UserRef
	width     int
	height    int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{fb: &Values{}, width: width, height: height}
}

// Start resets the form and offers employees as assignee choices.
func (m *Model) Start(employees []model.UserRef) tea.Cmd {
	m.employees = employees
	*m.fb = Values{Priority: model.PriorityMedium}

	priorities := make([]huh.Option[model.Priority], 0, len(model.Priorities))
	for i := len(model.Priorities) - 1; i >= 0; i-- {
		p := model.Priorities[i]
		priorities = append(priorities, huh.NewOption(p.Label(), p))
	}

	people := make([]huh.Option[string], len(employees))
	for i, e := range employees {
		people[i] = huh.NewOption(e.DisplayName(), e.ID)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What needs to be done?").
				Value(&m.fb.Title).
				Validate(validateRequired("Title")),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				Value(&m.fb.Description),
			huh.NewSelect[model.Priority]().
				Title("Priority").
				Options(priorities...).
				Value(&m.fb.Priority),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Assignees").
				Options(people...).
				Value(&m.fb.Assignees),
			huh.NewInput().
				Title("Due Date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fb.DueDate).
				Validate(validateOptionalDate),
			huh.NewInput().
				Title("Estimated Hours").
				Placeholder("0").
				Value(&m.fb.EstimatedHours).
				Validate(validateHours),
			huh.NewInput().
				Title("Category").
				Placeholder("optional").
				Value(&m.fb.Category),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
	return m.form.Init()
}

// Update handles messages for the task form.
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
		req, err := BuildRequest(*m.fb)
		if err != nil {
			return m, func() tea.Msg { return CancelMsg{} }
		}
		return m, func() tea.Msg { return SubmitMsg{Request: req} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).Render("New Task")
	return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// BuildRequest converts raw form values into a create request.
func BuildRequest(v Values) (api.CreateTaskRequest, error) {
	req := api.CreateTaskRequest{
		Title:       strings.TrimSpace(v.Title),
		Description: strings.TrimSpace(v.Description),
		AssignedTo:  v.Assignees,
		Priority:    string(v.Priority),
		Category:    strings.TrimSpace(v.Category),
	}

	if s := strings.TrimSpace(v.DueDate); s != "" {
		due, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			return api.CreateTaskRequest{}, fmt.Errorf("parsing due date: %w", err)
		}
		// due at the end of the chosen day
		due = due.Add(24*time.Hour - time.Second)
		req.DueDate = &due
	}

	if s := strings.TrimSpace(v.EstimatedHours); s != "" {
		h, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return api.CreateTaskRequest{}, fmt.Errorf("parsing estimated hours: %w", err)
		}
		req.EstimatedHours = h
	}

	return req, nil
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

func validateHours(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	h, err := strconv.ParseFloat(s, 64)
	if err != nil || h < 0 {
		return fmt.Errorf("hours must be a non-negative number")
	}
	return nil
}
