package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/nhle/crm-dashboard/internal/access"
	"github.com/nhle/crm-dashboard/internal/app"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/report"
	"github.com/nhle/crm-dashboard/internal/session"
	"github.com/nhle/crm-dashboard/internal/store"
	"github.com/nhle/crm-dashboard/internal/tasks"
	"github.com/nhle/crm-dashboard/internal/theme"
	"github.com/nhle/crm-dashboard/internal/timetrack"
	"github.com/nhle/crm-dashboard/internal/ui/taskform"
	"github.com/nhle/crm-dashboard/internal/ui/tasklist"
	"github.com/nhle/crm-dashboard/internal/ui/timeview"
)

func runTUI(args []string) error {
	tuiFlags := flag.NewFlagSet("tui", flag.ContinueOnError)
	if err := tuiFlags.Parse(args); err != nil {
		return err
	}

	e, err := setup(true)
	if err != nil {
		return err
	}
	defer e.close()

	ws, err := e.open()
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	m := app.New(app.Deps{
		Service:   ws.svc,
		Store:     ws.store,
		Employees: ws.client,
		Clock:     clock,
		Logger:    e.log,
		Poll: app.PollSettings{
			Interval:     time.Duration(e.cfg.Poll.IntervalSec) * time.Second,
			InitialDelay: time.Duration(e.cfg.Poll.InitialDelaySec) * time.Second,
		},
		ReportDir: cwd,
	})
	defer m.Shutdown()

	e.log.Logf("[INFO] starting dashboard %s for %s", m.Dashboard(), ws.session.Actor().ID)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

func runLogin(args []string) error {
	loginFlags := flag.NewFlagSet("login", flag.ContinueOnError)
	email := loginFlags.String("email", "", "Account email")
	password := loginFlags.String("password", "", "Account password")
	apiURL := loginFlags.String("api", "", "Backend base URL, saved to the config file")
	if err := loginFlags.Parse(args); err != nil {
		return err
	}

	if *email == "" || *password == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Email").Value(email),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(password),
		))
		if err := form.Run(); err != nil {
			return err
		}
	}

	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	if *apiURL != "" {
		e.cfg.API.BaseURL = strings.TrimRight(*apiURL, "/")
	}

	ctx := context.Background()
	s, err := session.Login(ctx, e.anonymous(), strings.TrimSpace(*email), *password, clock)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := session.Save(e.creds, s); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if *apiURL != "" {
		if err := model.SaveConfig(configPath, e.cfg); err != nil {
			return err
		}
		e.log.Logf("[DEBUG] saved backend %s to %s", e.cfg.API.BaseURL, configPath)
	}

	a := s.Actor()
	fmt.Fprintf(out, "Logged in as %s (%s)\n", a.DisplayName(), a.Role.Label())
	return nil
}

func runLogout(args []string) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	s, err := session.Restore(e.creds, clock)
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		return err
	}
	if err := session.Forget(e.creds, s); err != nil {
		e.log.Logf("[DEBUG] forgetting session: %v", err)
	}

	// the cache belongs to the previous user
	if err := os.Remove(e.cfg.Store.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache: %w", err)
	}

	fmt.Fprintln(out, "Logged out")
	return nil
}

func runWhoami(args []string) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	ws, err := e.open()
	if err != nil {
		return err
	}
	s := ws.session

	a := s.Actor()
	fmt.Fprintf(out, "%s <%s>\n", a.DisplayName(), a.Email)
	fmt.Fprintf(out, "Role:      %s\n", a.Role.Label())
	if a.Designation != "" {
		fmt.Fprintf(out, "Title:     %s\n", a.Designation)
	}
	fmt.Fprintf(out, "Dashboard: %s\n", access.ResolveDashboard(a))
	if exp := s.ExpiresAt(); !exp.IsZero() {
		fmt.Fprintf(out, "Session:   expires %s\n", humanize.RelTime(exp, clock.Now(), "ago", "from now"))
	}

	ctx := context.Background()
	n, err := ws.store.CountTasks(ctx)
	if err != nil {
		return err
	}
	last, err := ws.store.LastSync(ctx)
	if err != nil {
		return err
	}
	if last.IsZero() {
		fmt.Fprintf(out, "Cache:     %d tasks, never synced\n", n)
	} else {
		fmt.Fprintf(out, "Cache:     %d tasks, synced %s\n", n, humanize.RelTime(last, clock.Now(), "ago", "from now"))
	}
	return nil
}

func runTasks(args []string) error {
	tasksFlags := flag.NewFlagSet("tasks", flag.ContinueOnError)
	search := tasksFlags.String("search", "", "Match title or description")
	status := tasksFlags.String("status", "", "Filter by status")
	priority := tasksFlags.String("priority", "", "Filter by priority")
	cached := tasksFlags.Bool("cached", false, "Read the local cache only")
	if err := tasksFlags.Parse(args); err != nil {
		return err
	}

	filter := tasks.Filter{
		Search:   *search,
		Status:   model.TaskStatus(*status),
		Priority: model.Priority(*priority),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return fmt.Errorf("unknown status %q", *status)
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return fmt.Errorf("unknown priority %q", *priority)
	}

	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	ws, err := e.open()
	if err != nil {
		return err
	}

	ctx := context.Background()
	var snap tasks.Snapshot
	if *cached {
		snap, err = ws.svc.LoadCached(ctx)
	} else {
		snap, err = ws.refresh(ctx, e.log)
	}
	if err != nil {
		return err
	}

	list := append([]model.Task(nil), filter.Apply(snap.Tasks)...)
	tasks.SortForDisplay(list)
	if len(list) == 0 {
		fmt.Fprintln(out, "No tasks found")
		return nil
	}

	fmt.Fprintln(out, renderTaskTable(list, clock.Now()))
	if snap.Cached {
		fmt.Fprintf(out, "(cached %s)\n", humanize.RelTime(snap.FetchedAt, clock.Now(), "ago", "from now"))
	}
	return nil
}

// runShow prints one task read back from the local cache. Without
// --cached the cache is refreshed first.
func runShow(args []string) error {
	showFlags := flag.NewFlagSet("show", flag.ContinueOnError)
	cached := showFlags.Bool("cached", false, "Read the local cache only")
	if err := showFlags.Parse(args); err != nil {
		return err
	}
	if showFlags.NArg() != 1 {
		return errors.New("usage: crmdash show [--cached] <task-id>")
	}
	id := showFlags.Arg(0)

	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	ws, err := e.open()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if !*cached {
		if _, err := ws.refresh(ctx, e.log); err != nil {
			return err
		}
	}

	t, err := ws.store.GetTaskByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("task %s not found", id)
	}
	if err != nil {
		return err
	}

	fmt.Fprint(out, renderTaskDetail(ws.session.Actor(), *t, clock.Now()))
	return nil
}

func renderTaskDetail(a model.Actor, t model.Task, now time.Time) string {
	var b strings.Builder
	label := lipgloss.NewStyle().Bold(true).Width(11)
	line := func(name, value string) {
		fmt.Fprintf(&b, "%s%s\n", label.Render(name), value)
	}

	fmt.Fprintf(&b, "%s\n", lipgloss.NewStyle().Bold(true).Render(t.Title))
	line("ID", t.ID)
	line("Status", theme.StatusStyle(t.Status).Render(t.Status.Label()))
	line("Priority", t.Priority.Label())
	line("Progress", fmt.Sprintf("%d%% %s", t.Progress.Percentage, t.Progress.CurrentPhase.Label()))
	line("Assignees", t.AssigneeNames())
	if t.DueDate != nil {
		line("Due", tasklist.DueLabel(*t.DueDate, now))
	}
	if t.EstimatedHours > 0 {
		line("Estimate", strconv.FormatFloat(t.EstimatedHours, 'f', -1, 64)+"h")
	}
	if t.Description != "" {
		line("Notes", t.Description)
	}
	for _, tr := range access.VisibleTrackers(a, t) {
		state := ""
		if tr.IsActive {
			state = " (running)"
		}
		line("Time", fmt.Sprintf("%s %s%s", tr.User.DisplayName(), timetrack.FormatDuration(timetrack.LiveTotal(tr, now)), state))
	}
	return b.String()
}

func renderTaskTable(list []model.Task, now time.Time) string {
	rows := make([][]string, 0, len(list))
	for _, t := range list {
		due := "-"
		if t.DueDate != nil {
			due = tasklist.DueLabel(*t.DueDate, now)
		}
		rows = append(rows, []string{
			t.ID,
			t.Title,
			t.Status.Label(),
			t.Priority.Label(),
			fmt.Sprintf("%d%% %s", t.Progress.Percentage, t.Progress.CurrentPhase.Label()),
			t.AssigneeNames(),
			due,
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.ColorGray)).
		Headers("ID", "TITLE", "STATUS", "PRIORITY", "PROGRESS", "ASSIGNEES", "DUE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			cell := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return cell.Bold(true)
			}
			if col == 2 && row >= 0 && row < len(list) {
				return theme.StatusStyle(list[row].Status).Padding(0, 1)
			}
			return cell
		})
	return tbl.Render()
}

var actionOps = map[string]tasks.Op{
	"start":    tasks.OpStart,
	"resume":   tasks.OpResume,
	"stop":     tasks.OpStop,
	"complete": tasks.OpComplete,
}

// mutate refreshes the task list, runs fn and reports the outcome the way
// the dashboard's toasts do.
func mutate(op tasks.Op, fn func(ctx context.Context, ws *workspace) (model.Task, error)) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	ws, err := e.open()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := ws.refresh(ctx, e.log); err != nil {
		return err
	}

	t, err := fn(ctx, ws)
	if err != nil {
		e.log.Logf("[DEBUG] %s failed: %v", op, err)
		return errors.New(tasks.Describe(op, err))
	}

	fmt.Fprintln(out, color.GreenString(tasks.SuccessMessage(op)))
	if t.ID != "" {
		fmt.Fprintf(out, "%s  %s  %d%% %s\n", t.Title, t.Status.Label(), t.Progress.Percentage, t.Progress.CurrentPhase.Label())
	}
	return nil
}

func runAction(name string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: crmdash %s <task-id>", name)
	}
	op := actionOps[name]
	id := args[0]
	return mutate(op, func(ctx context.Context, ws *workspace) (model.Task, error) {
		return ws.svc.Run(ctx, op, id)
	})
}

func runProgress(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: crmdash progress <task-id> <percent> <phase>")
	}
	pct, err := strconv.Atoi(strings.TrimSuffix(args[1], "%"))
	if err != nil {
		return fmt.Errorf("invalid percentage %q", args[1])
	}
	id, phase := args[0], model.Phase(args[2])
	return mutate(tasks.OpProgress, func(ctx context.Context, ws *workspace) (model.Task, error) {
		return ws.svc.UpdateProgress(ctx, id, pct, phase)
	})
}

func runAssign(args []string, remove bool) error {
	op, name := tasks.OpAddAssignee, "assign"
	if remove {
		op, name = tasks.OpRemoveAssignee, "unassign"
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: crmdash %s <task-id> <user-id>", name)
	}
	id, userID := args[0], args[1]
	return mutate(op, func(ctx context.Context, ws *workspace) (model.Task, error) {
		if remove {
			return ws.svc.RemoveAssignee(ctx, id, userID)
		}
		return ws.svc.AddAssignee(ctx, id, userID)
	})
}

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

func runCreate(args []string) error {
	createFlags := flag.NewFlagSet("create", flag.ContinueOnError)
	var v taskform.Values
	var assignees stringList
	var priority string
	createFlags.StringVar(&v.Title, "title", "", "Task title")
	createFlags.StringVar(&v.Description, "description", "", "Task description")
	createFlags.Var(&assignees, "assignee", "Assignee user ID (repeatable)")
	createFlags.StringVar(&priority, "priority", string(model.PriorityMedium), "low, medium, high or critical")
	createFlags.StringVar(&v.DueDate, "due", "", "Due date (YYYY-MM-DD)")
	createFlags.StringVar(&v.EstimatedHours, "hours", "", "Estimated hours")
	createFlags.StringVar(&v.Category, "category", "", "Category")
	if err := createFlags.Parse(args); err != nil {
		return err
	}
	v.Assignees = assignees
	v.Priority = model.Priority(priority)

	req, err := taskform.BuildRequest(v)
	if err != nil {
		return err
	}

	return mutate(tasks.OpCreate, func(ctx context.Context, ws *workspace) (model.Task, error) {
		return ws.svc.Create(ctx, req)
	})
}

func runStats(args []string) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	ws, err := e.open()
	if err != nil {
		return err
	}

	snap, err := ws.refresh(context.Background(), e.log)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Total:   %d\n", snap.Stats.TotalTasks)
	for _, s := range model.Statuses {
		fmt.Fprintf(out, "%-12s %d\n", s.Label()+":", snap.Stats.Count(s))
	}
	fmt.Fprintf(out, "Overdue (past due): %d\n", snap.Stats.OverdueTasks)
	return nil
}

func runTime(args []string) error {
	timeFlags := flag.NewFlagSet("time", flag.ContinueOnError)
	period := timeFlags.String("period", "", "Print only the total for today or week")
	if err := timeFlags.Parse(args); err != nil {
		return err
	}
	p := timetrack.Period(*period)
	if p != "" && p != timetrack.PeriodToday && p != timetrack.PeriodWeek {
		return fmt.Errorf("unknown period %q, want today or week", *period)
	}

	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	ws, err := e.open()
	if err != nil {
		return err
	}

	snap, err := ws.refresh(context.Background(), e.log)
	if err != nil {
		return err
	}

	now := clock.Now()
	if p != "" {
		total := timetrack.PeriodTotal(snap.Tasks, ws.svc.Actor().ID, p.WindowStart(now), now)
		fmt.Fprintln(out, timetrack.FormatDuration(total))
		return nil
	}
	fmt.Fprint(out, timeview.Render(snap.Tasks, ws.svc.Actor(), now))
	return nil
}

func runExportTime(args []string) error {
	exportFlags := flag.NewFlagSet("export-time", flag.ContinueOnError)
	path := exportFlags.String("out", "", "Output file (default time-report-<date>.xlsx)")
	if err := exportFlags.Parse(args); err != nil {
		return err
	}

	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	ws, err := e.open()
	if err != nil {
		return err
	}

	snap, err := ws.refresh(context.Background(), e.log)
	if err != nil {
		return err
	}

	now := clock.Now()
	if *path == "" {
		*path = fmt.Sprintf("time-report-%s.xlsx", now.Format("2006-01-02"))
	}
	if err := report.SaveTimeReport(*path, snap.Tasks, now); err != nil {
		return err
	}

	var total time.Duration
	for _, t := range snap.Tasks {
		total += timetrack.TaskTotal(t)
	}
	fmt.Fprintf(out, "Wrote %s (%d tasks, %s tracked)\n", *path, len(snap.Tasks), timetrack.FormatDuration(total))
	return nil
}

func runInbox(args []string) error {
	inboxFlags := flag.NewFlagSet("inbox", flag.ContinueOnError)
	all := inboxFlags.Bool("all", false, "Include read notifications")
	markRead := inboxFlags.Bool("read", false, "Mark everything as read afterwards")
	if err := inboxFlags.Parse(args); err != nil {
		return err
	}

	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.close()

	ws, err := e.open()
	if err != nil {
		return err
	}

	ctx := context.Background()
	var list []model.Notification
	if *all {
		list, err = ws.store.GetNotifications(ctx, 50)
	} else {
		list, err = ws.store.GetUnreadNotifications(ctx)
	}
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No notifications")
	}
	now := clock.Now()
	for _, n := range list {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-14s %s\n", marker, humanize.RelTime(n.CreatedAt, now, "ago", "from now"), n.Message)
	}

	if *markRead && len(list) > 0 {
		return ws.store.MarkAllNotificationsRead(ctx)
	}
	return nil
}
