package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/crm-dashboard/internal/model"
)

func TestHeaderSummary(t *testing.T) {
	h := Header{Stats: model.TaskStats{TotalTasks: 4}}
	assert.Equal(t, "4 tasks", h.Summary())

	h.Stats = model.TaskStats{
		TotalTasks:   12,
		ByStatus:     map[model.TaskStatus]int{model.StatusInProgress: 3},
		OverdueTasks: 1,
	}
	assert.Equal(t, "12 tasks · 3 in progress · 1 overdue", h.Summary())
}

func TestRenderHeaderFitsWidth(t *testing.T) {
	l := NewLayout(60, 20)
	h := Header{
		Dashboard: "Project Manager Dashboard",
		User:      "Mia Test",
		Stats:     model.TaskStats{TotalTasks: 120, OverdueTasks: 7},
		Unread:    2,
		Sync:      "synced 10:00:00",
	}

	out := l.RenderHeader(h)
	assert.Equal(t, 60, lipgloss.Width(out))
	assert.Contains(t, out, "2 new")
	assert.Contains(t, out, "synced 10:00:00")
}

func TestRenderWithFrameKeepsStatusBarLast(t *testing.T) {
	l := NewLayout(40, 10)

	frame := l.RenderWithFrame("HEADER", "one\ntwo", "STATUS")
	lines := strings.Split(frame, "\n")
	assert.Len(t, lines, 10)
	assert.Contains(t, lines[0], "HEADER")
	assert.Contains(t, lines[len(lines)-1], "STATUS")

	tall := strings.Repeat("row\n", 30)
	lines = strings.Split(l.RenderWithFrame("HEADER", tall, "STATUS"), "\n")
	assert.Len(t, lines, 10)
}

func TestContentHeightNeverNegative(t *testing.T) {
	assert.Equal(t, 0, NewLayout(10, 1).ContentHeight())
	assert.Equal(t, 8, NewLayout(10, 10).ContentHeight())
}
