// Package sync runs the scheduled refresh of the task list: fetch, diff
// statuses against the previous poll, record notifications, and
// reschedule. The handle returned by New is stopped exactly once.
package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-pkgz/lgr"

	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/tasks"
	"github.com/nhle/crm-dashboard/internal/timetrack"
)

// SyncState represents the current state of the poll loop.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the state of the most recent poll.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// PollResultMsg is a tea.Msg sent when a poll completes.
type PollResultMsg struct {
	Snapshot      tasks.Snapshot
	Changes       []Change
	Notifications []model.Notification
	Error         error
}

// Fetcher owns the current snapshot and knows how to refresh it.
// *tasks.Service satisfies it.
type Fetcher interface {
	Snapshot() tasks.Snapshot
	Refresh(ctx context.Context) (tasks.Snapshot, error)
}

// Notifier records status-change notifications. *store.SQLiteStore
// satisfies it.
type Notifier interface {
	CreateNotification(ctx context.Context, n model.Notification) error
}

const (
	defaultInterval     = 30 * time.Second
	defaultInitialDelay = 5 * time.Second

	// fetchTimeout is the maximum time allowed for a single poll.
	fetchTimeout = 30 * time.Second
)

// Poller orchestrates background polling of one Fetcher.
type Poller struct {
	fetcher      Fetcher
	notifier     Notifier
	clock        timetrack.Clock
	log          lgr.L
	interval     time.Duration
	initialDelay time.Duration
	fetchTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	resultCh  chan PollResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	done      chan struct{}

	mu      gosync.Mutex
	running bool
	stopped bool
	status  SyncStatus

	// baseline holds the statuses seen by the last successful poll. It
	// is advanced only here, never by mutations that refresh the
	// fetcher's snapshot in between.
	baseline StatusIndex
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the fixed delay between polls.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithInitialDelay sets the delay before the first poll.
func WithInitialDelay(d time.Duration) Option {
	return func(p *Poller) {
		if d >= 0 {
			p.initialDelay = d
		}
	}
}

// WithFetchTimeout bounds each poll.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.fetchTimeout = d
		}
	}
}

// WithNotifier persists every status change to n.
func WithNotifier(n Notifier) Option {
	return func(p *Poller) { p.notifier = n }
}

// WithClock sets the clock used to stamp notifications.
func WithClock(c timetrack.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithLogger sets the poller logger.
func WithLogger(l lgr.L) Option {
	return func(p *Poller) { p.log = l }
}

// New creates a Poller for f. Nothing runs until Start.
func New(f Fetcher, opts ...Option) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		fetcher:      f,
		clock:        timetrack.SystemClock{},
		log:          lgr.NoOp,
		interval:     defaultInterval,
		initialDelay: defaultInitialDelay,
		fetchTimeout: fetchTimeout,
		ctx:          ctx,
		cancel:       cancel,
		resultCh:     make(chan PollResultMsg, 16),
		triggerCh:    make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the poll loop and returns a tea.Cmd that waits for the
// first result. It returns nil if the poller is running or stopped.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.run()

	return p.waitForResult()
}

// Stop cancels the schedule. A poll already in flight is abandoned: its
// result is discarded and it records no notifications.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	p.cancel()
	close(p.stopCh)
	if !p.running {
		close(p.done)
	}
	p.running = false
}

// Done is closed once the poll loop has exited after Stop.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Refresh asks the loop to poll now instead of waiting for the timer.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// a poll is already pending
	}
	return nil
}

// Status returns the state of the most recent poll.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// run is the poll loop: wait, poll, reschedule. A failed poll does not
// end the loop.
func (p *Poller) run() {
	defer close(p.done)

	timer := time.NewTimer(p.initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-timer.C:
		case <-p.triggerCh:
			timer.Stop()
		}

		ctx, cancel := context.WithTimeout(p.ctx, p.fetchTimeout)
		res := p.Poll(ctx)
		cancel()
		p.sendResult(res)

		timer.Reset(p.interval)
	}
}

// Poll performs one fetch, diff and notify cycle and returns its result.
// Changes are computed against the statuses of the previous successful
// poll. Before the first one, a snapshot the fetcher already holds from a
// live fetch seeds the baseline; a cached or empty one does not.
func (p *Poller) Poll(ctx context.Context) PollResultMsg {
	p.setStatus(SyncRunning, nil)

	base := p.currentBaseline()
	if base == nil {
		if prev := p.fetcher.Snapshot(); prev.Loaded() && !prev.Cached {
			base = IndexStatuses(prev.Tasks)
		}
	}

	snap, err := p.fetcher.Refresh(ctx)
	if err != nil {
		p.log.Logf("[WARN] poll failed: %v", err)
		p.setStatus(SyncError, err)
		return PollResultMsg{Snapshot: snap, Error: err}
	}

	var changes []Change
	if base != nil {
		changes = base.Diff(snap.Tasks)
	}

	res := PollResultMsg{Snapshot: snap, Changes: changes}
	now := p.clock.Now()
	for _, c := range changes {
		if p.isStopped() {
			break
		}
		n := NotificationFor(c, now)
		if p.notifier != nil {
			if err := p.notifier.CreateNotification(ctx, n); err != nil {
				p.log.Logf("[WARN] recording notification for task %s: %v", c.Task.ID, err)
			}
		}
		res.Notifications = append(res.Notifications, n)
	}

	if len(changes) > 0 {
		p.log.Logf("[INFO] poll observed %d status change(s)", len(changes))
	}
	p.mu.Lock()
	p.baseline = IndexStatuses(snap.Tasks)
	p.mu.Unlock()
	p.setStatus(SyncIdle, nil)
	return res
}

func (p *Poller) currentBaseline() StatusIndex {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.baseline
}

// setStatus updates the poll status.
func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle {
		p.status.LastSync = p.clock.Now()
	}
}

// sendResult delivers a result without blocking. Results produced after
// Stop are dropped.
func (p *Poller) sendResult(msg PollResultMsg) {
	if p.isStopped() {
		p.log.Logf("[DEBUG] discarding poll result after stop")
		return
	}
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next poll result.
// It yields nil once the poller stops.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll result.
// Call it after handling a PollResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
