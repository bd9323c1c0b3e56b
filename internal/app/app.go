// Package app is the root Bubble Tea model of the dashboard. It routes
// keys to views, runs task actions through the task service and turns
// every outcome into a toast.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-pkgz/lgr"

	"github.com/nhle/crm-dashboard/internal/access"
	"github.com/nhle/crm-dashboard/internal/api"
	"github.com/nhle/crm-dashboard/internal/keys"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/store"
	appsync "github.com/nhle/crm-dashboard/internal/sync"
	"github.com/nhle/crm-dashboard/internal/tasks"
	"github.com/nhle/crm-dashboard/internal/theme"
	"github.com/nhle/crm-dashboard/internal/timetrack"
	"github.com/nhle/crm-dashboard/internal/ui"
	"github.com/nhle/crm-dashboard/internal/ui/assignform"
	"github.com/nhle/crm-dashboard/internal/ui/command"
	"github.com/nhle/crm-dashboard/internal/ui/detail"
	helpview "github.com/nhle/crm-dashboard/internal/ui/help"
	"github.com/nhle/crm-dashboard/internal/ui/inbox"
	"github.com/nhle/crm-dashboard/internal/ui/progressform"
	"github.com/nhle/crm-dashboard/internal/ui/taskform"
	"github.com/nhle/crm-dashboard/internal/ui/tasklist"
	"github.com/nhle/crm-dashboard/internal/ui/timeview"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewTime
	ViewInbox
	ViewProgress
	ViewTaskForm
	ViewAssign
)

// toastTTL is how long action feedback stays in the status bar.
const toastTTL = 4 * time.Second

// EmployeeLister supplies assignee choices for the management forms.
type EmployeeLister interface {
	ListEmployees(ctx context.Context) ([]model.UserRef, error)
}

// PollSettings schedules the background refresh.
type PollSettings struct {
	Interval     time.Duration
	InitialDelay time.Duration
}

// Deps wires the model to the rest of the application.
type Deps struct {
	Service   *tasks.Service
	Store     store.Store
	Employees EmployeeLister
	Clock     timetrack.Clock
	Logger    lgr.L
	Poll      PollSettings

	// ReportDir is where relative export paths are resolved.
	ReportDir string
}

type toast struct {
	text string
	err  bool
	at   time.Time
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the task service.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	ready        bool

	svc       *tasks.Service
	store     store.Store
	employees EmployeeLister
	clock     timetrack.Clock
	log       lgr.L
	reportDir string

	actor     model.Actor
	dashboard access.Dashboard
	keys      *keys.KeyMap
	poller    *appsync.Poller

	taskList     tasklist.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	timeView     timeview.Model
	inboxView    inbox.Model
	progressForm progressform.Model
	taskForm     taskform.Model
	assignForm   assignform.Model

	stats  model.TaskStats
	synced time.Time
	toast  *toast
}

// New creates the root model for the service's actor. The dashboard is
// resolved once here; polling is set up only for dashboards that poll.
func New(d Deps) Model {
	if d.Clock == nil {
		d.Clock = timetrack.SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = lgr.NoOp
	}

	actor := d.Service.Actor()
	dash := access.ResolveDashboard(actor)
	spec := dash.Spec()
	km := keys.DefaultKeyMap()
	inflight := d.Service.InFlight()

	m := Model{
		currentView:  ViewList,
		svc:          d.Service,
		store:        d.Store,
		employees:    d.Employees,
		clock:        d.Clock,
		log:          d.Logger,
		reportDir:    d.ReportDir,
		actor:        actor,
		dashboard:    dash,
		keys:         km,
		taskList:     tasklist.New(km, actor, inflight, d.Clock, 80, 24),
		detail:       detail.New(km, actor, inflight, d.Clock, 80, 24),
		helpView:     helpview.New(km, spec.Title, spec.ManagesTasks, 80, 24),
		commandView:  command.New(80, 24),
		timeView:     timeview.New(km, actor, d.Clock, 80, 24),
		inboxView:    inbox.New(d.Store, km, d.Clock, 80, 24),
		progressForm: progressform.New(80, 24),
		taskForm:     taskform.New(80, 24),
		assignForm:   assignform.New(80, 24),
	}

	if spec.Polls {
		m.poller = appsync.New(d.Service,
			appsync.WithNotifier(d.Store),
			appsync.WithInterval(d.Poll.Interval),
			appsync.WithInitialDelay(d.Poll.InitialDelay),
			appsync.WithClock(d.Clock),
			appsync.WithLogger(d.Logger),
		)
	}
	return m
}

// Dashboard returns the dashboard resolved for the actor.
func (m Model) Dashboard() access.Dashboard { return m.dashboard }

// Init loads the cache, fetches fresh data and starts the poller.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.loadCached(),
		m.refresh(),
		m.taskList.Init(),
		tick(),
	}
	if m.hasInbox() {
		cmds = append(cmds, m.inboxView.Load())
	}
	if m.poller != nil {
		cmds = append(cmds, m.poller.Start())
	}
	return tea.Batch(cmds...)
}

func (m Model) hasInbox() bool {
	return m.store != nil && m.dashboard.Has(access.SectionNotifications)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.taskList.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.timeView.SetSize(w, h)
		m.inboxView.SetSize(w, h)
		m.progressForm.SetSize(w, h)
		m.taskForm.SetSize(w, h)
		m.assignForm.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case tickMsg:
		m.taskList.Tick()
		m.detail.Tick()
		m.timeView.Tick()
		if m.toast != nil && m.clock.Now().Sub(m.toast.at) > toastTTL {
			m.toast = nil
		}
		return m, tick()

	case snapshotMsg:
		if msg.err != nil {
			m.log.Logf("[WARN] %s: %v", msg.op, msg.err)
			if msg.op == tasks.OpRefresh {
				m.setToast(tasks.Describe(tasks.OpRefresh, msg.err), true)
			}
			return m, nil
		}
		return m, m.applySnapshot(msg.snap)

	case appsync.PollResultMsg:
		var cmds []tea.Cmd
		if msg.Error != nil {
			if api.IsAuthRequired(msg.Error) {
				m.setToast(tasks.Describe(tasks.OpRefresh, msg.Error), true)
			}
		} else {
			cmds = append(cmds, m.applySnapshot(msg.Snapshot))
		}
		if n := len(msg.Notifications); n > 0 {
			m.setToast(msg.Notifications[n-1].Message, false)
			if m.hasInbox() {
				cmds = append(cmds, m.inboxView.Load())
			}
		}
		cmds = append(cmds, m.poller.WaitForNextResult())
		return m, tea.Batch(cmds...)

	case actionDoneMsg:
		m.setToast(tasks.Describe(msg.op, msg.err), msg.err != nil)
		return m, m.applySnapshot(m.svc.Snapshot())

	case employeesMsg:
		return m.openManagementForm(msg)

	case exportDoneMsg:
		if msg.err != nil {
			m.log.Logf("[WARN] export failed: %v", msg.err)
			m.setToast("Failed to export time report", true)
		} else {
			m.setToast("Time report saved to "+msg.path, false)
		}
		return m, nil

	case inbox.LoadedMsg:
		var cmd tea.Cmd
		m.inboxView, cmd = m.inboxView.Update(msg)
		return m, cmd

	case tasklist.SelectedTaskMsg:
		t, ok := m.svc.Snapshot().Find(msg.TaskID)
		if !ok {
			return m, nil
		}
		m.detail.SetTask(t)
		m.switchTo(ViewDetail)
		return m, nil

	case detail.BackMsg, timeview.BackMsg, inbox.BackMsg:
		m.currentView = ViewList
		return m, nil

	case progressform.SubmitMsg:
		m.currentView = m.previousView
		return m, m.updateProgress(msg)

	case taskform.SubmitMsg:
		m.currentView = ViewList
		return m, m.createTask(msg.Request)

	case assignform.SubmitMsg:
		m.currentView = m.previousView
		return m, m.changeAssignee(msg)

	case progressform.CancelMsg, taskform.CancelMsg, assignform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg)

	case command.ErrorMsg:
		m.setToast(msg.Err.Error(), true)
		return m, nil

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// inForm reports whether a text-entry view owns the keyboard.
func (m Model) inForm() bool {
	switch m.currentView {
	case ViewCommand, ViewProgress, ViewTaskForm, ViewAssign:
		return true
	case ViewList:
		return m.taskList.Searching()
	}
	return false
}

func (m *Model) switchTo(v ViewState) {
	if m.currentView != v {
		m.previousView = m.currentView
	}
	m.currentView = v
}

// handleGlobalKey processes keys that work across views.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, m.quit(), true
	}
	if m.inForm() {
		if msg.String() == "esc" && m.currentView != ViewList {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false
	}

	k := m.keys
	switch {
	case key.Matches(msg, k.Quit) && m.currentView == ViewList:
		return m, m.quit(), true

	case key.Matches(msg, k.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
		} else {
			m.switchTo(ViewHelp)
		}
		return m, nil, true

	case key.Matches(msg, k.Back) && m.currentView == ViewHelp:
		m.currentView = m.previousView
		return m, nil, true

	case key.Matches(msg, k.Command):
		m.switchTo(ViewCommand)
		return m, m.commandView.Focus(), true

	case key.Matches(msg, k.Refresh):
		return m, m.manualRefresh(), true

	case key.Matches(msg, k.TimeView):
		m.timeView.SetTasks(m.svc.Snapshot().Tasks)
		m.switchTo(ViewTime)
		return m, nil, true

	case key.Matches(msg, k.Inbox):
		if !m.hasInbox() {
			return m, nil, false
		}
		m.switchTo(ViewInbox)
		return m, m.inboxView.Load(), true
	}

	if m.currentView != ViewList && m.currentView != ViewDetail {
		return m, nil, false
	}
	t, ok := m.currentTask()
	if !ok {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, k.Start):
		return m, m.runAction(tasks.OpStart, t.ID), true
	case key.Matches(msg, k.Resume):
		return m, m.runAction(tasks.OpResume, t.ID), true
	case key.Matches(msg, k.Stop):
		return m, m.runAction(tasks.OpStop, t.ID), true
	case key.Matches(msg, k.Complete):
		return m, m.runAction(tasks.OpComplete, t.ID), true

	case key.Matches(msg, k.Progress):
		if !access.CanMutateTask(m.actor, t) {
			m.setToast(tasks.Describe(tasks.OpProgress, api.ErrPermissionDenied), true)
			return m, nil, true
		}
		m.switchTo(ViewProgress)
		return m, m.progressForm.Start(t), true

	case key.Matches(msg, k.NewTask):
		if !m.dashboard.Spec().ManagesTasks {
			return m, nil, false
		}
		return m, m.loadEmployees(formCreate, model.Task{}), true

	case key.Matches(msg, k.Assign), key.Matches(msg, k.Unassign):
		if !m.dashboard.Spec().ManagesTasks {
			return m, nil, false
		}
		purpose := formAssign
		if key.Matches(msg, k.Unassign) {
			purpose = formUnassign
		}
		return m, m.loadEmployees(purpose, t), true
	}
	return m, nil, false
}

// currentTask is the task under the cursor in the list, or the one open
// in the detail view.
func (m Model) currentTask() (model.Task, bool) {
	if m.currentView == ViewDetail {
		return m.detail.Task()
	}
	return m.taskList.Selected()
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewTime:
		m.timeView, cmd = m.timeView.Update(msg)
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	case ViewProgress:
		m.progressForm, cmd = m.progressForm.Update(msg)
	case ViewTaskForm:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewAssign:
		m.assignForm, cmd = m.assignForm.Update(msg)
	}

	// the spinner keeps ticking whichever view is active
	if _, ok := msg.(spinner.TickMsg); ok && m.currentView != ViewList {
		var listCmd tea.Cmd
		m.taskList, listCmd = m.taskList.Update(msg)
		cmd = tea.Batch(cmd, listCmd)
	}

	return m, cmd
}

// applySnapshot pushes a snapshot into every view that renders tasks.
func (m *Model) applySnapshot(snap tasks.Snapshot) tea.Cmd {
	m.stats = snap.Stats
	m.synced = snap.FetchedAt
	cmd := m.taskList.SetTasks(snap.Tasks)
	m.timeView.SetTasks(snap.Tasks)
	if cur, ok := m.detail.Task(); ok {
		if t, found := snap.Find(cur.ID); found {
			m.detail.SetTask(t)
		} else {
			m.detail.Clear()
		}
	}
	return cmd
}

func (m *Model) setToast(text string, isErr bool) {
	m.toast = &toast{text: text, err: isErr, at: m.clock.Now()}
}

func (m Model) quit() tea.Cmd {
	m.Shutdown()
	return tea.Quit
}

// Shutdown stops background polling. Safe to call more than once, e.g.
// after the program exits on a signal.
func (m Model) Shutdown() {
	if m.poller != nil {
		m.poller.Stop()
	}
}

// manualRefresh polls now when a poller runs, so status changes are
// still diffed; otherwise it refetches directly.
func (m Model) manualRefresh() tea.Cmd {
	if m.poller != nil {
		return m.poller.Refresh()
	}
	return m.refresh()
}

// executeCommand handles a parsed command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	f := m.taskList.Filter()
	switch c.Name {
	case command.CmdRefresh:
		return m.manualRefresh()
	case command.CmdQuit:
		return m.quit()
	case command.CmdStatus:
		f.Status = model.TaskStatus(c.Arg)
		return m.taskList.SetFilter(f)
	case command.CmdPriority:
		f.Priority = model.Priority(c.Arg)
		return m.taskList.SetFilter(f)
	case command.CmdSearch:
		f.Search = c.Arg
		return m.taskList.SetFilter(f)
	case command.CmdClear:
		return m.taskList.SetFilter(tasks.Filter{})
	case command.CmdTime:
		m.timeView.SetTasks(m.svc.Snapshot().Tasks)
		m.currentView = ViewTime
		return nil
	case command.CmdInbox:
		if !m.hasInbox() {
			return nil
		}
		m.currentView = ViewInbox
		return m.inboxView.Load()
	case command.CmdExport:
		path := c.Arg
		if !filepath.IsAbs(path) && m.reportDir != "" {
			path = filepath.Join(m.reportDir, path)
		}
		return m.exportTime(path)
	}
	return nil
}

// syncStatus describes the refresh state and whether the last poll failed.
func (m Model) syncStatus() (string, bool) {
	if m.poller != nil {
		switch st := m.poller.Status(); st.State {
		case appsync.SyncRunning:
			return "syncing", false
		case appsync.SyncError:
			return "⚠ backend unreachable", true
		}
	}
	if m.synced.IsZero() {
		return "loading", false
	}
	return "synced " + m.synced.Local().Format("15:04:05"), false
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.header())
	statusBar := m.layout.RenderStatusBar(m.statusLine())
	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

func (m Model) header() ui.Header {
	h := ui.Header{
		Dashboard: m.dashboard.Spec().Title,
		User:      m.actor.DisplayName(),
		Stats:     m.stats,
		Unread:    m.inboxView.Unread(),
	}
	h.Sync, h.SyncFailed = m.syncStatus()
	return h
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewTime:
		return m.timeView.View()
	case ViewInbox:
		return m.inboxView.View()
	case ViewProgress:
		return m.progressForm.View()
	case ViewTaskForm:
		return m.taskForm.View()
	case ViewAssign:
		return m.assignForm.View()
	default:
		return ""
	}
}

// statusLine shows the current toast, or key hints for the view.
func (m Model) statusLine() string {
	if m.toast != nil {
		if m.toast.err {
			return theme.ErrorToastStyle.Render(m.toast.text)
		}
		return theme.SuccessToastStyle.Render(m.toast.text)
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc back | s start | r restart | x stop | c complete | p progress | j/k scroll"
	case ViewTime:
		return "esc back | j/k scroll"
	case ViewInbox:
		return "esc back | m mark read | M mark all read"
	case ViewProgress, ViewTaskForm, ViewAssign:
		return "enter submit | esc cancel"
	}

	hints := "q quit | ? help | / search | 1/2/3 filter | s start | x stop | c complete | t time"
	if m.dashboard.Spec().ManagesTasks {
		hints += " | n new | i inbox"
	}
	if f := m.taskList.Filter(); f.Active() {
		hints = fmt.Sprintf("%d shown | 0 clear filter | %s", m.taskList.Visible(), hints)
	}
	return hints
}
