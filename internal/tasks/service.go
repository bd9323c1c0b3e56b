package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/nhle/crm-dashboard/internal/api"
	"github.com/nhle/crm-dashboard/internal/model"
	"github.com/nhle/crm-dashboard/internal/store"
	"github.com/nhle/crm-dashboard/internal/timetrack"
)

// Backend is the subset of the REST client the service drives.
type Backend interface {
	ListTasks(ctx context.Context, opts api.ListOptions) ([]model.Task, error)
	TaskStats(ctx context.Context) (model.TaskStats, error)
	CreateTask(ctx context.Context, req api.CreateTaskRequest) (model.Task, error)
	StartTask(ctx context.Context, id string) (model.Task, error)
	StopTask(ctx context.Context, id string) (model.Task, error)
	CompleteTask(ctx context.Context, id string) (model.Task, error)
	UpdateProgress(ctx context.Context, id string, percentage int, phase model.Phase) (model.Task, error)
	AddAssignee(ctx context.Context, id, userID string) (model.Task, error)
	RemoveAssignee(ctx context.Context, id, userID string) (model.Task, error)
}

// Cache persists the latest snapshot locally.
type Cache interface {
	ReplaceTasks(ctx context.Context, tasks []model.Task, fetchedAt time.Time) error
	GetTasks(ctx context.Context, opts store.TaskFilter) ([]model.Task, error)
	PutStats(ctx context.Context, stats model.TaskStats) error
	GetStats(ctx context.Context) (*model.TaskStats, error)
	LastSync(ctx context.Context) (time.Time, error)
}

// Snapshot is one consistent view of the task list and stats.
type Snapshot struct {
	Tasks     []model.Task
	Stats     model.TaskStats
	FetchedAt time.Time

	// Cached is true when the snapshot was loaded from the local cache
	// rather than fetched in this run.
	Cached bool
}

// Loaded reports whether the snapshot holds any fetched data.
func (s Snapshot) Loaded() bool { return !s.FetchedAt.IsZero() }

// Find returns the task with id.
func (s Snapshot) Find(id string) (model.Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// Service runs task actions for one signed-in actor.
type Service struct {
	backend  Backend
	actor    model.Actor
	cache    Cache
	clock    timetrack.Clock
	log      lgr.L
	listOpts api.ListOptions
	inflight *InFlight

	refreshMu sync.Mutex

	mu   sync.RWMutex
	snap Snapshot
}

// Option configures a Service.
type Option func(*Service)

// WithCache persists every refreshed snapshot to c.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock sets the clock used to stamp snapshots.
func WithClock(c timetrack.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the service logger.
func WithLogger(l lgr.L) Option {
	return func(s *Service) { s.log = l }
}

// WithListOptions sets the search and limit sent on every list call.
func WithListOptions(o api.ListOptions) Option {
	return func(s *Service) { s.listOpts = o }
}

// NewService creates a service acting as actor.
func NewService(backend Backend, actor model.Actor, opts ...Option) *Service {
	s := &Service{
		backend:  backend,
		actor:    actor,
		clock:    timetrack.SystemClock{},
		log:      lgr.NoOp,
		inflight: NewInFlight(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Actor returns the actor the service acts as.
func (s *Service) Actor() model.Actor { return s.actor }

// InFlight exposes the per-task loading state for rendering.
func (s *Service) InFlight() *InFlight { return s.inflight }

// Snapshot returns the latest snapshot.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// LoadCached seeds the snapshot from the local cache so something renders
// before the first fetch completes. It is a no-op without a cache.
func (s *Service) LoadCached(ctx context.Context) (Snapshot, error) {
	if s.cache == nil {
		return s.Snapshot(), nil
	}

	last, err := s.cache.LastSync(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if last.IsZero() {
		return s.Snapshot(), nil
	}

	tasks, err := s.cache.GetTasks(ctx, store.TaskFilter{SortBy: "updated_at", SortDesc: true})
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Tasks: tasks, FetchedAt: last, Cached: true}
	if stats, err := s.cache.GetStats(ctx); err == nil && stats != nil {
		snap.Stats = *stats
	}

	s.mu.Lock()
	if !s.snap.Loaded() {
		s.snap = snap
	}
	out := s.snap
	s.mu.Unlock()
	return out, nil
}

// Refresh refetches the task list and stats and replaces the snapshot.
// A stats failure keeps the previous stats; a list failure leaves the
// snapshot untouched.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	tasks, err := s.backend.ListTasks(ctx, s.listOpts)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("refreshing tasks: %w", err)
	}

	prev := s.Snapshot()
	stats, err := s.backend.TaskStats(ctx)
	if err != nil {
		s.log.Logf("[WARN] refreshing stats: %v", err)
		stats = prev.Stats
	}

	now := s.clock.Now()
	for i := range tasks {
		tasks[i].FetchedAt = now
	}
	snap := Snapshot{Tasks: tasks, Stats: stats, FetchedAt: now}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.ReplaceTasks(ctx, tasks, now); err != nil {
			s.log.Logf("[WARN] caching tasks: %v", err)
		}
		if err := s.cache.PutStats(ctx, stats); err != nil {
			s.log.Logf("[WARN] caching stats: %v", err)
		}
	}

	s.log.Logf("[DEBUG] refreshed %d tasks", len(tasks))
	return snap, nil
}

// task resolves id against the current snapshot.
func (s *Service) task(id string) (model.Task, error) {
	t, ok := s.Snapshot().Find(id)
	if !ok {
		return model.Task{}, fmt.Errorf("task %s: %w", id, ErrUnknownTask)
	}
	return t, nil
}

// mutate is the single path every task action goes through: claim the
// task's loading slot, run the local preflight, call the backend, then
// invalidate and refetch. The slot is released on every return.
func (s *Service) mutate(
	ctx context.Context,
	op Op,
	key string,
	check func() error,
	call func(ctx context.Context) (model.Task, error),
) (model.Task, error) {
	release, err := s.inflight.Acquire(key, op)
	if err != nil {
		return model.Task{}, err
	}
	defer release()

	if err := check(); err != nil {
		return model.Task{}, err
	}

	updated, err := call(ctx)
	if err != nil {
		s.log.Logf("[WARN] %s %s failed: %v", op, key, err)
		return model.Task{}, err
	}
	s.log.Logf("[INFO] %s %s ok", op, key)

	snap, err := s.Refresh(ctx)
	if err != nil {
		s.log.Logf("[WARN] refetch after %s %s: %v", op, key, err)
		return updated, nil
	}
	if fresh, ok := snap.Find(updated.ID); ok {
		return fresh, nil
	}
	return updated, nil
}

// taskAction wraps mutate for actions on an existing task.
func (s *Service) taskAction(
	ctx context.Context,
	op Op,
	id string,
	check func(model.Task) error,
	call func(ctx context.Context) (model.Task, error),
) (model.Task, error) {
	return s.mutate(ctx, op, id,
		func() error {
			t, err := s.task(id)
			if err != nil {
				return err
			}
			return check(t)
		},
		call,
	)
}

// Start begins work on a pending task and opens the actor's timer.
func (s *Service) Start(ctx context.Context, id string) (model.Task, error) {
	return s.taskAction(ctx, OpStart, id,
		func(t model.Task) error { return CheckStart(s.actor, t) },
		func(ctx context.Context) (model.Task, error) { return s.backend.StartTask(ctx, id) },
	)
}

// Resume reopens the actor's timer on an in-progress task.
func (s *Service) Resume(ctx context.Context, id string) (model.Task, error) {
	return s.taskAction(ctx, OpResume, id,
		func(t model.Task) error { return CheckResume(s.actor, t) },
		func(ctx context.Context) (model.Task, error) { return s.backend.StartTask(ctx, id) },
	)
}

// Stop closes the actor's open session. Status is unchanged.
func (s *Service) Stop(ctx context.Context, id string) (model.Task, error) {
	return s.taskAction(ctx, OpStop, id,
		func(t model.Task) error { return CheckStop(s.actor, t) },
		func(ctx context.Context) (model.Task, error) { return s.backend.StopTask(ctx, id) },
	)
}

// Complete finishes an in-progress task.
func (s *Service) Complete(ctx context.Context, id string) (model.Task, error) {
	return s.taskAction(ctx, OpComplete, id,
		func(t model.Task) error { return CheckComplete(s.actor, t) },
		func(ctx context.Context) (model.Task, error) { return s.backend.CompleteTask(ctx, id) },
	)
}

// UpdateProgress sets percentage and phase without touching status.
func (s *Service) UpdateProgress(ctx context.Context, id string, percentage int, phase model.Phase) (model.Task, error) {
	return s.taskAction(ctx, OpProgress, id,
		func(t model.Task) error { return CheckProgress(s.actor, t, percentage, phase) },
		func(ctx context.Context) (model.Task, error) {
			return s.backend.UpdateProgress(ctx, id, percentage, phase)
		},
	)
}

// AddAssignee adds userID to the task.
func (s *Service) AddAssignee(ctx context.Context, id, userID string) (model.Task, error) {
	return s.taskAction(ctx, OpAddAssignee, id,
		func(t model.Task) error { return CheckAddAssignee(s.actor, t, userID) },
		func(ctx context.Context) (model.Task, error) { return s.backend.AddAssignee(ctx, id, userID) },
	)
}

// RemoveAssignee removes userID from the task.
func (s *Service) RemoveAssignee(ctx context.Context, id, userID string) (model.Task, error) {
	return s.taskAction(ctx, OpRemoveAssignee, id,
		func(t model.Task) error { return CheckRemoveAssignee(s.actor, t, userID) },
		func(ctx context.Context) (model.Task, error) { return s.backend.RemoveAssignee(ctx, id, userID) },
	)
}

// newTaskKey is the loading slot for task creation, which has no ID yet.
const newTaskKey = "+new"

// Create creates a task. Only managers may create.
func (s *Service) Create(ctx context.Context, req api.CreateTaskRequest) (model.Task, error) {
	return s.mutate(ctx, OpCreate, newTaskKey,
		func() error { return CheckCreate(s.actor, req) },
		func(ctx context.Context) (model.Task, error) { return s.backend.CreateTask(ctx, req) },
	)
}

// Run dispatches op by name for callers that hold the op as data, such as
// the CLI and key bindings. Ops that need arguments beyond the task ID are
// rejected.
func (s *Service) Run(ctx context.Context, op Op, id string) (model.Task, error) {
	switch op {
	case OpStart:
		return s.Start(ctx, id)
	case OpResume:
		return s.Resume(ctx, id)
	case OpStop:
		return s.Stop(ctx, id)
	case OpComplete:
		return s.Complete(ctx, id)
	}
	return model.Task{}, fmt.Errorf("unsupported action %q", op)
}
