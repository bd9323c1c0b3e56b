package tasks

import (
	"fmt"
	"sync"
)

// InFlight tracks which tasks have an action outstanding. Different tasks
// never block each other.
type InFlight struct {
	mu   sync.Mutex
	busy map[string]Op
}

// NewInFlight returns an empty tracker.
func NewInFlight() *InFlight {
	return &InFlight{busy: make(map[string]Op)}
}

// Acquire marks taskID busy with op. The returned release must be called
// exactly once; it is safe to defer.
func (f *InFlight) Acquire(taskID string, op Op) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if running, ok := f.busy[taskID]; ok {
		return nil, fmt.Errorf("%s task %s while %s is running: %w", op, taskID, running, ErrActionInFlight)
	}
	f.busy[taskID] = op

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.busy, taskID)
			f.mu.Unlock()
		})
	}, nil
}

// Busy reports the action running on taskID, if any.
func (f *InFlight) Busy(taskID string) (Op, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	op, ok := f.busy[taskID]
	return op, ok
}

// Len returns the number of tasks with an action outstanding.
func (f *InFlight) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.busy)
}
