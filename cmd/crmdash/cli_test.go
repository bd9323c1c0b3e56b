package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nhle/crm-dashboard/internal/credential"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/report"
	"github.com/nhle/crm-dashboard/internal/tasks"
	"github.com/nhle/crm-dashboard/tests/testutil"
)

type cliFixture struct {
	backend *testutil.Backend
	buf     *bytes.Buffer
	dir     string
	task    model.Task
}

// setupCLI points the commands at a mock backend, a temp cache and an
// in-memory keyring.
func setupCLI(t *testing.T) *cliFixture {
	b := testutil.NewTestBackend(t)
	b.AddUser(t, "m1", "Mia", model.RoleProjectManager, "")
	alice := b.AddUser(t, "a1", "Alice", model.RoleEmployee, "")

	seeded := b.Server.Seed(model.Task{
		Title:      "Call back prospect",
		Status:     model.StatusPending,
		Priority:   model.PriorityHigh,
		AssignedTo: []model.Assignee{{User: alice.Ref(), Role: "owner"}},
		Progress:   model.Progress{CurrentPhase: model.PhasePlanning},
	})

	dir := t.TempDir()
	cfg := "api:\n  base_url: " + b.URL + "\nstore:\n  path: " + filepath.Join(dir, "cache.db") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o644))

	creds := credential.New(keyring.NewArrayKeyring(nil))
	buf := &bytes.Buffer{}

	oldPath, oldOut, oldClock, oldOpen := configPath, out, clock, openCredentials
	configPath = filepath.Join(dir, "config.yaml")
	out = buf
	clock = b.Clock
	openCredentials = func(string) (*credential.Store, error) { return creds, nil }
	t.Cleanup(func() {
		configPath, out, clock, openCredentials = oldPath, oldOut, oldClock, oldOpen
	})

	return &cliFixture{backend: b, buf: buf, dir: dir, task: seeded[0]}
}

func (f *cliFixture) output() string {
	s := f.buf.String()
	f.buf.Reset()
	return s
}

func TestCommandsRequireLogin(t *testing.T) {
	setupCLI(t)

	err := runTasks(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestLoginWhoamiLogout(t *testing.T) {
	f := setupCLI(t)

	require.NoError(t, runLogin([]string{"--email", "a1@example.com", "--password", "secret"}))
	assert.Contains(t, f.output(), "Logged in as Alice Test (Employee)")

	require.NoError(t, runWhoami(nil))
	who := f.output()
	assert.Contains(t, who, "a1@example.com")
	assert.Contains(t, who, "Dashboard:")
	assert.Contains(t, who, "Cache:     0 tasks, never synced")

	require.NoError(t, runLogout(nil))
	assert.Contains(t, f.output(), "Logged out")
	assert.Error(t, runWhoami(nil))
}

func TestLoginRejectsBadPassword(t *testing.T) {
	setupCLI(t)
	assert.Error(t, runLogin([]string{"--email", "a1@example.com", "--password", "nope"}))
}

func TestTaskLifecycleFromCLI(t *testing.T) {
	f := setupCLI(t)
	require.NoError(t, runLogin([]string{"--email", "a1@example.com", "--password", "secret"}))
	f.output()

	require.NoError(t, runTasks([]string{"--status", "pending"}))
	assert.Contains(t, f.output(), "Call back prospect")

	require.NoError(t, runAction("start", []string{f.task.ID}))
	assert.Contains(t, f.output(), tasks.SuccessMessage(tasks.OpStart))

	f.backend.Clock.Advance(45 * time.Minute)

	require.NoError(t, runAction("stop", []string{f.task.ID}))
	assert.Contains(t, f.output(), tasks.SuccessMessage(tasks.OpStop))

	err := runAction("stop", []string{f.task.ID})
	require.Error(t, err)
	assert.Equal(t, "No timer is running for you on this task.", err.Error())

	require.NoError(t, runTime([]string{"--period", "week"}))
	assert.Equal(t, "0h 45m\n", f.output())
	assert.Error(t, runTime([]string{"--period", "month"}))

	require.NoError(t, runProgress([]string{f.task.ID, "60%", "testing"}))
	assert.Contains(t, f.output(), "60% Testing")

	require.NoError(t, runTasks([]string{"--cached", "--search", "prospect"}))
	assert.Contains(t, f.output(), "In Progress")
}

func TestLoginSavesBackendURL(t *testing.T) {
	f := setupCLI(t)

	cfg, err := model.LoadConfig(configPath)
	require.NoError(t, err)
	cfg.API.BaseURL = "http://127.0.0.1:1"
	require.NoError(t, model.SaveConfig(configPath, cfg))
	assert.Error(t, runLogin([]string{"--email", "a1@example.com", "--password", "secret"}))

	require.NoError(t, runLogin([]string{"--email", "a1@example.com", "--password", "secret", "--api", f.backend.URL + "/"}))
	f.output()

	cfg, err = model.LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, f.backend.URL, cfg.API.BaseURL)
	assert.Equal(t, filepath.Join(f.dir, "cache.db"), cfg.Store.Path)

	require.NoError(t, runTasks(nil))
	assert.Contains(t, f.output(), "Call back prospect")
}

func TestShowTask(t *testing.T) {
	f := setupCLI(t)
	require.NoError(t, runLogin([]string{"--email", "a1@example.com", "--password", "secret"}))
	f.output()

	assert.Error(t, runShow([]string{"--cached", f.task.ID}), "nothing cached yet")

	require.NoError(t, runAction("start", []string{f.task.ID}))
	f.backend.Clock.Advance(20 * time.Minute)
	f.output()

	require.NoError(t, runShow([]string{f.task.ID}))
	detail := f.output()
	assert.Contains(t, detail, "Call back prospect")
	assert.Contains(t, detail, "In Progress")
	assert.Contains(t, detail, "Alice Test 0h 20m (running)")

	require.NoError(t, runShow([]string{"--cached", f.task.ID}))
	assert.Contains(t, f.output(), "Call back prospect")

	err := runShow([]string{"--cached", "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Error(t, runShow(nil))

	require.NoError(t, runWhoami(nil))
	assert.Contains(t, f.output(), "Cache:     1 tasks, synced")
}

func TestEmployeeCannotAssign(t *testing.T) {
	f := setupCLI(t)
	require.NoError(t, runLogin([]string{"--email", "a1@example.com", "--password", "secret"}))

	err := runAssign([]string{f.task.ID, "m1"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission")
}

func TestManagerCreatesAndExports(t *testing.T) {
	f := setupCLI(t)
	require.NoError(t, runLogin([]string{"--email", "m1@example.com", "--password", "secret"}))
	f.output()

	require.NoError(t, runCreate([]string{"--title", "Renewal quote", "--assignee", "a1", "--due", "2026-03-10"}))
	assert.Contains(t, f.output(), tasks.SuccessMessage(tasks.OpCreate))

	require.NoError(t, runStats(nil))
	assert.Contains(t, f.output(), "Total:   2")

	path := filepath.Join(f.dir, "report.xlsx")
	require.NoError(t, runExportTime([]string{"--out", path}))
	assert.Contains(t, f.output(), "Wrote "+path)

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(report.SummarySheet)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(rows), 3)
}

func TestCreateWithoutAssignee(t *testing.T) {
	f := setupCLI(t)
	require.NoError(t, runLogin([]string{"--email", "m1@example.com", "--password", "secret"}))
	f.output()

	require.NoError(t, runCreate([]string{"--title", "Nobody owns this yet"}))
	assert.Contains(t, f.output(), tasks.SuccessMessage(tasks.OpCreate))

	require.NoError(t, runTasks([]string{"--search", "owns this"}))
	assert.Contains(t, f.output(), "Nobody owns this yet")

	assert.Error(t, runCreate(nil), "title is still required")
}

func TestStringList(t *testing.T) {
	var l stringList
	require.NoError(t, l.Set("a1, b1"))
	require.NoError(t, l.Set("c1"))
	assert.Equal(t, stringList{"a1", "b1", "c1"}, l)
	assert.Equal(t, "a1,b1,c1", l.String())
}
