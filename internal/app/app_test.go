package app

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-dashboard/internal/access"
	"github.com/nhle/crm-dashboard/internal/api"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/tasks"
	"github.com/nhle/crm-dashboard/tests/testutil"
)

func newModel(t *testing.T, b *testutil.Backend, actor model.Actor) Model {
	t.Helper()
	client := b.Client(t, actor)
	st := testutil.NewTestStore(t)
	svc := tasks.NewService(client, actor, tasks.WithClock(b.Clock), tasks.WithCache(st))
	m := New(Deps{Service: svc, Store: st, Employees: client, Clock: b.Clock})
	t.Cleanup(func() {
		if m.poller != nil {
			m.poller.Stop()
		}
	})
	return m
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func press(t *testing.T, m Model, keys string) Model {
	t.Helper()
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	require.NotNil(t, cmd)
	m, _ = step(t, m, cmd())
	return m
}

func TestDashboardDecidesPolling(t *testing.T) {
	b := testutil.NewTestBackend(t)
	pm := b.AddUser(t, "m1", "Mia", model.RoleProjectManager, "")
	sales := b.AddUser(t, "s1", "Sam", model.RoleEmployee, model.DesignationSales)

	manager := newModel(t, b, pm)
	assert.Equal(t, access.DashboardProjectManager, manager.Dashboard())
	assert.NotNil(t, manager.poller)
	assert.True(t, manager.hasInbox())

	seller := newModel(t, b, sales)
	assert.Equal(t, access.DashboardSales, seller.Dashboard())
	assert.Nil(t, seller.poller)
	assert.False(t, seller.hasInbox())
}

func TestQuickActionsRaiseToasts(t *testing.T) {
	b := testutil.NewTestBackend(t)
	pm := b.AddUser(t, "m1", "Mia", model.RoleProjectManager, "")
	alice := b.AddUser(t, "a1", "Alice", model.RoleEmployee, "")

	_, err := b.Client(t, pm).CreateTask(context.Background(), api.CreateTaskRequest{
		Title:      "Call Acme",
		AssignedTo: []string{alice.ID},
	})
	require.NoError(t, err)

	m := newModel(t, b, alice)
	m, _ = step(t, m, m.refresh()())
	_, ok := m.taskList.Selected()
	require.True(t, ok)

	m = press(t, m, "x")
	require.NotNil(t, m.toast)
	assert.True(t, m.toast.err)
	assert.Equal(t, "No timer is running for you on this task.", m.toast.text)

	m = press(t, m, "s")
	assert.False(t, m.toast.err)
	assert.Equal(t, "Task started! Timer is now running.", m.toast.text)

	sel, _ := m.taskList.Selected()
	assert.Equal(t, model.StatusInProgress, sel.Status)
	assert.Zero(t, m.svc.InFlight().Len())

	m = press(t, m, "c")
	assert.Equal(t, "Task completed successfully!", m.toast.text)
	assert.Equal(t, 1, m.stats.Count(model.StatusCompleted))
}

func TestEmployeeCannotOpenManagementForms(t *testing.T) {
	b := testutil.NewTestBackend(t)
	alice := b.AddUser(t, "a1", "Alice", model.RoleEmployee, "")

	m := newModel(t, b, alice)
	_, _, handled := m.handleGlobalKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	assert.False(t, handled)
	assert.Equal(t, ViewList, m.currentView)
}
