package inbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/crm-dashboard/internal/keys"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/theme"
	"github.com/nhle/crm-dashboard/internal/timetrack"
)

// Source is the notification storage the inbox reads and updates.
type Source interface {
	GetNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	CountUnreadNotifications(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// LoadedMsg carries the latest notifications and unread count.
type LoadedMsg struct {
	Notifications []model.Notification
	Unread        int
	Err           error
}

// BackMsg signals the parent to leave the inbox.
type BackMsg struct{}

const pageSize = 100

// Model is the notification inbox view.
type Model struct {
	src    Source
	keys   *keys.KeyMap
	clock  timetrack.Clock
	items  []model.Notification
	unread int
	cursor int
	width  int
	height int
}

// New creates an inbox over src.
func New(src Source, k *keys.KeyMap, clock timetrack.Clock, width, height int) Model {
	return Model{src: src, keys: k, clock: clock, width: width, height: height}
}

// Load returns a command that reads the inbox.
func (m Model) Load() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx := context.Background()
		items, err := src.GetNotifications(ctx, pageSize)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		unread, err := src.CountUnreadNotifications(ctx)
		return LoadedMsg{Notifications: items, Unread: unread, Err: err}
	}
}

// Unread returns the unread count from the last load.
func (m Model) Unread() int { return m.unread }

// Update handles messages for the inbox.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Err != nil {
			return m, nil
		}
		m.items = msg.Notifications
		m.unread = msg.Unread
		if m.cursor >= len(m.items) {
			m.cursor = max(len(m.items)-1, 0)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.MarkRead):
			if m.cursor < len(m.items) && !m.items[m.cursor].Read {
				id := m.items[m.cursor].ID
				return m, m.mutate(func(ctx context.Context) error {
					return m.src.MarkNotificationRead(ctx, id)
				})
			}
		case key.Matches(msg, m.keys.MarkAllRead):
			return m, m.mutate(m.src.MarkAllNotificationsRead)
		}
	}
	return m, nil
}

func (m Model) mutate(fn func(ctx context.Context) error) tea.Cmd {
	load := m.Load()
	return func() tea.Msg {
		if err := fn(context.Background()); err != nil {
			return LoadedMsg{Err: fmt.Errorf("updating notifications: %w", err)}
		}
		return load()
	}
}

// View renders the inbox.
func (m Model) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).
		Render(fmt.Sprintf("Notifications (%d unread)", m.unread))
	if len(m.items) == 0 {
		empty := lipgloss.NewStyle().Foreground(theme.ColorGray).Render("No notifications yet.")
		return lipgloss.JoinVertical(lipgloss.Left, title, "", empty)
	}

	now := m.clock.Now()
	lines := []string{title, ""}
	for i, n := range m.items {
		lines = append(lines, renderLine(n, now, i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

func renderLine(n model.Notification, now time.Time, selected bool) string {
	marker := "  "
	text := n.Message
	if !n.Read {
		marker = theme.UnreadStyle.Render("● ")
		text = lipgloss.NewStyle().Bold(true).Render(text)
	}
	when := lipgloss.NewStyle().Foreground(theme.ColorGray).Render(humanize.RelTime(n.CreatedAt, now, "ago", "from now"))
	line := marker + text + "  " + when
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// SetSize updates the inbox dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
