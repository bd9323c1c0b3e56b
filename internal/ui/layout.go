// Package ui holds the frame shared by every dashboard view: a header with
// the dashboard summary, the active view, and a status bar.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/theme"
)

// Header is what the top bar shows.
type Header struct {
	Dashboard string
	User      string
	Stats     model.TaskStats
	Unread    int

	// Sync describes the refresh state; SyncFailed colors it as a warning.
	Sync       string
	SyncFailed bool
}

// Summary renders the counts part of the header, e.g.
// "12 tasks · 3 in progress · 1 overdue".
func (h Header) Summary() string {
	parts := []string{fmt.Sprintf("%d tasks", h.Stats.TotalTasks)}
	if n := h.Stats.Count(model.StatusInProgress); n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", n, model.StatusInProgress.Words()))
	}
	if h.Stats.OverdueTasks > 0 {
		parts = append(parts, fmt.Sprintf("%d overdue", h.Stats.OverdueTasks))
	}
	return strings.Join(parts, " · ")
}

// Layout tracks the terminal size and splits it into header, content and
// status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout for a width x height terminal with one-line
// header and status bar.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the width available to views.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the rows left between header and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-l.HeaderHeight-l.StatusBarHeight, 0)
}

// RenderHeader lays out the dashboard title and counts on the left and the
// unread badge and sync state on the right. The left side is truncated
// first when the terminal is narrow.
func (l Layout) RenderHeader(h Header) string {
	bg := theme.HeaderStyle.GetBackground()
	seg := lipgloss.NewStyle().Background(bg).Foreground(theme.ColorWhite)

	right := seg.Render(h.Sync)
	if h.SyncFailed {
		right = seg.Foreground(theme.ColorYellow).Bold(true).Render(h.Sync)
	}
	if h.Unread > 0 {
		badge := seg.Foreground(theme.ColorOrange).Bold(true).Render(fmt.Sprintf("● %d new", h.Unread))
		right = badge + seg.Render("  ") + right
	}
	right = seg.Padding(0, 1).Render(right)

	left := theme.HeaderStyle.Render(h.Dashboard) +
		seg.Render(" "+h.User+" · "+h.Summary())
	if room := l.Width - lipgloss.Width(right); lipgloss.Width(left) > room {
		left = lipgloss.NewStyle().MaxWidth(max(room, 0)).Render(left)
	}

	gap := max(l.Width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	filler := seg.Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderStatusBar renders the bottom line, padded to the full width.
func (l Layout) RenderStatusBar(line string) string {
	rendered := theme.StatusBarStyle.MaxWidth(max(l.Width, 0)).Render(line)

	gap := max(l.Width-lipgloss.Width(rendered), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.StatusBarStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame stacks header, content and status bar. Content is padded
// or clipped to ContentHeight so the status bar stays on the last row.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	body := lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)
}
