// Package tasks runs the task lifecycle on the client side: it checks each
// action against the local state machine and permission gate before the
// backend sees it, keeps at most one action per task in flight, and
// refetches the full task list after every successful mutation.
package tasks

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/nhle/crm-dashboard/internal/access"
	"github.com/nhle/crm-dashboard/internal/api"
	"github.com/nhle/crm-dashboard/internal/model"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoActiveSession   = errors.New("no active time-tracking session")
	ErrSessionOpen       = errors.New("time-tracking session already open")
	ErrInvalidProgress   = errors.New("invalid progress")
	ErrInvalidTask       = errors.New("invalid task")
	ErrAlreadyAssigned   = errors.New("user is already assigned")
	ErrNotAssigned       = errors.New("user is not assigned")
	ErrActionInFlight    = errors.New("an action is already running for this task")
	ErrUnknownTask       = errors.New("unknown task")
)

// Op names a user-triggered task action.
type Op string

const (
	OpRefresh        Op = "refresh"
	OpCreate         Op = "create"
	OpStart          Op = "start"
	OpResume         Op = "resume"
	OpStop           Op = "stop"
	OpComplete       Op = "complete"
	OpProgress       Op = "progress"
	OpAddAssignee    Op = "add_assignee"
	OpRemoveAssignee Op = "remove_assignee"
)

// transitions lists the status changes the backend performs. Progress and
// assignee edits never change status.
var transitions = map[model.TaskStatus][]model.TaskStatus{
	model.StatusPending:    {model.StatusInProgress, model.StatusOverdue, model.StatusCancelled},
	model.StatusInProgress: {model.StatusCompleted, model.StatusCancelled},
	model.StatusOverdue:    {model.StatusCancelled},
}

// CanTransition reports whether a task may move from one status to another.
func CanTransition(from, to model.TaskStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var validate = validator.New()

func denied(op Op, t model.Task) error {
	return fmt.Errorf("%s task %s: %w", op, t.ID, api.ErrPermissionDenied)
}

func badTransition(op Op, t model.Task) error {
	return fmt.Errorf("%s task %s in status %s: %w", op, t.ID, t.Status, ErrInvalidTransition)
}

// CheckStart allows starting a pending task for an assignee or manager.
func CheckStart(a model.Actor, t model.Task) error {
	if !access.CanMutateTask(a, t) {
		return denied(OpStart, t)
	}
	if !CanTransition(t.Status, model.StatusInProgress) {
		return badTransition(OpStart, t)
	}
	if tr, ok := t.TrackerFor(a.ID); ok && tr.HasOpenSession() {
		return fmt.Errorf("start task %s: %w", t.ID, ErrSessionOpen)
	}
	return nil
}

// CheckResume allows reopening a timer on an in-progress task when the
// actor has no open session there.
func CheckResume(a model.Actor, t model.Task) error {
	if !access.CanMutateTask(a, t) {
		return denied(OpResume, t)
	}
	if t.Status != model.StatusInProgress {
		return badTransition(OpResume, t)
	}
	if tr, ok := t.TrackerFor(a.ID); ok && tr.HasOpenSession() {
		return fmt.Errorf("resume task %s: %w", t.ID, ErrSessionOpen)
	}
	return nil
}

// CheckStop requires the actor to hold an open session on the task.
func CheckStop(a model.Actor, t model.Task) error {
	tr, ok := t.TrackerFor(a.ID)
	if !ok || !tr.HasOpenSession() {
		return fmt.Errorf("stop task %s: %w", t.ID, ErrNoActiveSession)
	}
	return nil
}

// CheckComplete allows completing an in-progress task.
func CheckComplete(a model.Actor, t model.Task) error {
	if !access.CanMutateTask(a, t) {
		return denied(OpComplete, t)
	}
	if !CanTransition(t.Status, model.StatusCompleted) {
		return badTransition(OpComplete, t)
	}
	return nil
}

// CheckProgress validates a progress update. It does not look at status:
// progress and status are separate axes.
func CheckProgress(a model.Actor, t model.Task, percentage int, phase model.Phase) error {
	if !access.CanMutateTask(a, t) {
		return denied(OpProgress, t)
	}
	req := api.ProgressRequest{Percentage: percentage, Phase: string(phase)}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("progress %d%% %q: %w", percentage, phase, ErrInvalidProgress)
	}
	return nil
}

// CheckAddAssignee requires manager capability and a user not yet assigned.
func CheckAddAssignee(a model.Actor, t model.Task, userID string) error {
	if !access.CanManageTasks(a) {
		return denied(OpAddAssignee, t)
	}
	if userID == "" {
		return fmt.Errorf("add assignee to task %s: empty user id: %w", t.ID, ErrInvalidTask)
	}
	if t.IsAssignee(userID) {
		return fmt.Errorf("add %s to task %s: %w", userID, t.ID, ErrAlreadyAssigned)
	}
	return nil
}

// CheckRemoveAssignee requires manager capability and a current assignee.
func CheckRemoveAssignee(a model.Actor, t model.Task, userID string) error {
	if !access.CanManageTasks(a) {
		return denied(OpRemoveAssignee, t)
	}
	if !t.IsAssignee(userID) {
		return fmt.Errorf("remove %s from task %s: %w", userID, t.ID, ErrNotAssigned)
	}
	return nil
}

// CheckCreate requires manager capability and a well-formed request.
func CheckCreate(a model.Actor, req api.CreateTaskRequest) error {
	if !access.CanManageTasks(a) {
		return fmt.Errorf("create task: %w", api.ErrPermissionDenied)
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("create task: %v: %w", err, ErrInvalidTask)
	}
	return nil
}

// Available returns the assignee quick actions the actor can take on t in
// its current state. Admins get none: they act through the management
// surface instead.
func Available(a model.Actor, t model.Task) []Op {
	if !access.CanActOnTask(a, t) {
		return nil
	}
	var ops []Op
	if CheckStart(a, t) == nil {
		ops = append(ops, OpStart)
	}
	if CheckResume(a, t) == nil {
		ops = append(ops, OpResume)
	}
	if CheckStop(a, t) == nil {
		ops = append(ops, OpStop)
	}
	if CheckComplete(a, t) == nil {
		ops = append(ops, OpComplete)
	}
	return ops
}
