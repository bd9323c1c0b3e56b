package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-dashboard/internal/keys"
	"github.com/nhle/crm-dashboard/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys   bindings
	title  string
	help   help.Model
	width  int
	height int
}

// bindings narrows the key map to what the current dashboard offers.
type bindings struct {
	km      *keys.KeyMap
	manages bool
}

func (b bindings) ShortHelp() []key.Binding { return b.km.ShortHelp() }

func (b bindings) FullHelp() [][]key.Binding {
	if b.manages {
		return b.km.FullHelp()
	}
	var out [][]key.Binding
	for _, group := range b.km.FullHelp() {
		var keep []key.Binding
		for _, kb := range group {
			if !b.managementOnly(kb) {
				keep = append(keep, kb)
			}
		}
		if len(keep) > 0 {
			out = append(out, keep)
		}
	}
	return out
}

func (b bindings) managementOnly(kb key.Binding) bool {
	for _, m := range []key.Binding{b.km.NewTask, b.km.Assign, b.km.Unassign, b.km.Inbox, b.km.MarkRead, b.km.MarkAllRead} {
		if kb.Help() == m.Help() {
			return true
		}
	}
	return false
}

// New creates a help view for the named dashboard; manages shows the
// task management and inbox bindings.
func New(km *keys.KeyMap, dashboard string, manages bool, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   bindings{km: km, manages: manages},
		title:  dashboard,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render(m.title + " · Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	content := lipgloss.JoinVertical(lipgloss.Left, title, helpText)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
