package tasks

import (
	"errors"
	"fmt"

	"github.com/nhle/crm-dashboard/internal/api"
)

// opText holds the user-facing wording for one action.
type opText struct {
	object  string // "start this task"
	failure string // "Failed to start task"
	network string // "starting the task"
	success string
}

var texts = map[Op]opText{
	OpRefresh:        {"view these tasks", "Failed to load tasks", "loading tasks", "Tasks refreshed"},
	OpCreate:         {"create tasks", "Failed to create task", "creating the task", "Task created successfully"},
	OpStart:          {"start this task", "Failed to start task", "starting the task", "Task started! Timer is now running."},
	OpResume:         {"start this task", "Failed to restart timer", "restarting the timer", "Timer restarted"},
	OpStop:           {"stop this task", "Failed to stop task", "stopping the task", "Task timer stopped"},
	OpComplete:       {"complete this task", "Failed to complete task", "completing the task", "Task completed successfully!"},
	OpProgress:       {"update this task", "Failed to update progress", "updating progress", "Progress updated"},
	OpAddAssignee:    {"manage assignees", "Failed to add assignee", "adding the assignee", "Assignee added successfully"},
	OpRemoveAssignee: {"manage assignees", "Failed to remove assignee", "removing the assignee", "Assignee removed successfully"},
}

func textFor(op Op) opText {
	if t, ok := texts[op]; ok {
		return t
	}
	return opText{"do that", "Action failed", "running the action", "Done"}
}

// Describe turns the outcome of op into toast text. A nil error yields the
// success message.
func Describe(op Op, err error) string {
	t := textFor(op)
	switch {
	case err == nil:
		return t.success
	case api.IsAuthRequired(err):
		return "Authentication required"
	case api.IsPermissionDenied(err):
		return fmt.Sprintf("You don't have permission to %s.", t.object)
	case errors.Is(err, ErrActionInFlight):
		return "Please wait for the current action to finish."
	case errors.Is(err, ErrNoActiveSession):
		return "No timer is running for you on this task."
	case errors.Is(err, ErrSessionOpen):
		return "Your timer is already running on this task."
	case errors.Is(err, ErrInvalidProgress):
		return "Progress must be between 0 and 100 with a valid phase."
	case errors.Is(err, ErrInvalidTask):
		return t.failure + ": please check the form."
	case errors.Is(err, ErrAlreadyAssigned):
		return "That user is already assigned."
	case errors.Is(err, ErrNotAssigned):
		return "That user is not assigned to this task."
	case errors.Is(err, ErrUnknownTask):
		return "Task not found. Refresh and try again."
	case api.IsNetwork(err):
		return fmt.Sprintf("An error occurred while %s.", t.network)
	case api.IsInvalidTransition(err):
		if msg := backendMessage(err); msg != "" {
			return t.failure + ": " + msg
		}
	}
	return t.failure + ". Please try again."
}

// backendMessage returns the message the backend attached to a rejected
// request, if any.
func backendMessage(err error) string {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message
	}
	return ""
}

// SuccessMessage is the toast shown after op succeeds.
func SuccessMessage(op Op) string {
	return textFor(op).success
}
