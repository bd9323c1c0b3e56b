package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/crm-dashboard/internal/api"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/report"
	"github.com/nhle/crm-dashboard/internal/tasks"
	"github.com/nhle/crm-dashboard/internal/ui/assignform"
	"github.com/nhle/crm-dashboard/internal/ui/progressform"
)

// tickMsg advances running timers once a second.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// snapshotMsg carries the result of a cache load or refetch.
type snapshotMsg struct {
	op   tasks.Op
	snap tasks.Snapshot
	err  error
}

// actionDoneMsg carries the outcome of a task action.
type actionDoneMsg struct {
	op   tasks.Op
	task model.Task
	err  error
}

// exportDoneMsg carries the outcome of a time report export.
type exportDoneMsg struct {
	path string
	err  error
}

// formPurpose says which management form to open once employees load.
type formPurpose int

const (
	formCreate formPurpose = iota
	formAssign
	formUnassign
)

type employeesMsg struct {
	purpose formPurpose
	task    model.Task
	users   []model.UserRef
	err     error
}

func (m Model) loadCached() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		snap, err := svc.LoadCached(context.Background())
		if err == nil && !snap.Loaded() {
			return nil
		}
		return snapshotMsg{op: "load_cache", snap: snap, err: err}
	}
}

func (m Model) refresh() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		snap, err := svc.Refresh(context.Background())
		return snapshotMsg{op: tasks.OpRefresh, snap: snap, err: err}
	}
}

// runAction runs one of the quick actions on a task.
func (m Model) runAction(op tasks.Op, id string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		t, err := svc.Run(context.Background(), op, id)
		return actionDoneMsg{op: op, task: t, err: err}
	}
}

func (m Model) updateProgress(msg progressform.SubmitMsg) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		t, err := svc.UpdateProgress(context.Background(), msg.TaskID, msg.Percentage, msg.Phase)
		return actionDoneMsg{op: tasks.OpProgress, task: t, err: err}
	}
}

func (m Model) createTask(req api.CreateTaskRequest) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		t, err := svc.Create(context.Background(), req)
		return actionDoneMsg{op: tasks.OpCreate, task: t, err: err}
	}
}

func (m Model) changeAssignee(msg assignform.SubmitMsg) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx := context.Background()
		if msg.Remove {
			t, err := svc.RemoveAssignee(ctx, msg.TaskID, msg.UserID)
			return actionDoneMsg{op: tasks.OpRemoveAssignee, task: t, err: err}
		}
		t, err := svc.AddAssignee(ctx, msg.TaskID, msg.UserID)
		return actionDoneMsg{op: tasks.OpAddAssignee, task: t, err: err}
	}
}

// loadEmployees fetches assignee choices before opening a management
// form. Removing needs no employee list.
func (m Model) loadEmployees(purpose formPurpose, t model.Task) tea.Cmd {
	lister := m.employees
	return func() tea.Msg {
		if purpose == formUnassign || lister == nil {
			return employeesMsg{purpose: purpose, task: t}
		}
		users, err := lister.ListEmployees(context.Background())
		return employeesMsg{purpose: purpose, task: t, users: users, err: err}
	}
}

func (m Model) openManagementForm(msg employeesMsg) (tea.Model, tea.Cmd) {
	op := tasks.OpCreate
	if msg.purpose != formCreate {
		op = tasks.OpAddAssignee
	}
	if msg.err != nil {
		m.setToast(tasks.Describe(op, msg.err), true)
		return m, nil
	}

	switch msg.purpose {
	case formCreate:
		m.switchTo(ViewTaskForm)
		return m, m.taskForm.Start(msg.users)
	default:
		cmd, ok := m.assignForm.Start(msg.task, msg.users, msg.purpose == formUnassign)
		if !ok {
			m.setToast("Nobody to pick", true)
			return m, nil
		}
		m.switchTo(ViewAssign)
		return m, cmd
	}
}

// exportTime writes the time report for the current snapshot.
func (m Model) exportTime(path string) tea.Cmd {
	snap := m.svc.Snapshot()
	now := m.clock.Now()
	return func() tea.Msg {
		return exportDoneMsg{path: path, err: report.SaveTimeReport(path, snap.Tasks, now)}
	}
}
