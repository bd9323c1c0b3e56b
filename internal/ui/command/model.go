package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/theme"
)

// Name identifies a palette command.
type Name string

const (
	CmdRefresh  Name = "refresh"
	CmdStatus   Name = "status"
	CmdPriority Name = "priority"
	CmdSearch   Name = "search"
	CmdClear    Name = "clear"
	CmdTime     Name = "time"
	CmdInbox    Name = "inbox"
	CmdExport   Name = "export"
	CmdQuit     Name = "quit"
)

var usage = map[Name]string{
	CmdRefresh:  "refresh",
	CmdStatus:   "status <pending|in_progress|completed|overdue|cancelled>",
	CmdPriority: "priority <low|medium|high|critical>",
	CmdSearch:   "search <text>",
	CmdClear:    "clear",
	CmdTime:     "time",
	CmdInbox:    "inbox",
	CmdExport:   "export <file.xlsx>",
	CmdQuit:     "quit",
}

// CommandMsg is emitted when the user executes a valid command.
type CommandMsg struct {
	Name Name
	Arg  string
}

// ErrorMsg is emitted when the palette input does not parse.
type ErrorMsg struct {
	Err error
}

// Parse turns palette input into a command.
func Parse(line string) (CommandMsg, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return CommandMsg{}, fmt.Errorf("empty command")
	}
	name := Name(strings.ToLower(fields[0]))
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch name {
	case CmdRefresh, CmdClear, CmdTime, CmdInbox, CmdQuit:
		return CommandMsg{Name: name}, nil
	case CmdStatus:
		if !model.TaskStatus(arg).Valid() {
			return CommandMsg{}, fmt.Errorf("usage: %s", usage[name])
		}
	case CmdPriority:
		if !model.Priority(arg).Valid() {
			return CommandMsg{}, fmt.Errorf("usage: %s", usage[name])
		}
	case CmdSearch, CmdExport:
		if arg == "" {
			return CommandMsg{}, fmt.Errorf("usage: %s", usage[name])
		}
	default:
		return CommandMsg{}, fmt.Errorf("unknown command %q", fields[0])
	}
	return CommandMsg{Name: name, Arg: arg}, nil
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "refresh, status overdue, search acme, export time.xlsx..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		line := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if line == "" {
			return m, nil
		}
		cmd, err := Parse(line)
		if err != nil {
			return m, func() tea.Msg { return ErrorMsg{Err: err} }
		}
		return m, func() tea.Msg { return cmd }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	input := m.input.View()

	content := lipgloss.JoinVertical(lipgloss.Left, title, input)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
