package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nhle/crm-dashboard/internal/model"
)

// ListOptions are the query parameters of GET /api/tasks.
type ListOptions struct {
	Search string
	Limit  int
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Title          string     `json:"title" validate:"required,max=200"`
	Description    string     `json:"description,omitempty" validate:"max=5000"`
	AssignedTo     []string   `json:"assignedTo" validate:"omitempty,dive,required"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	Priority       string     `json:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Category       string     `json:"category,omitempty"`
	EstimatedHours float64    `json:"estimatedHours" validate:"gte=0"`
	Project        string     `json:"project,omitempty"`
}

// ProgressRequest is the body of PUT /api/tasks/:id/progress.
type ProgressRequest struct {
	Percentage int    `json:"percentage" validate:"gte=0,lte=100"`
	Phase      string `json:"phase" validate:"required,oneof=planning development testing review deployment completed"`
}

// AssigneeRequest is the body of the assignee endpoints.
type AssigneeRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func taskPath(id, action string) string {
	p := "/api/tasks/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}

// ListTasks fetches the tasks visible to the signed-in user.
func (c *Client) ListTasks(ctx context.Context, opts ListOptions) ([]model.Task, error) {
	var data tasksData
	if err := c.Get(ctx, "/api/tasks"+opts.query(), &data); err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	tasks := make([]model.Task, 0, len(data.Tasks))
	for _, t := range data.Tasks {
		tasks = append(tasks, t.ToModel())
	}
	return tasks, nil
}

// TaskStats fetches the status summary.
func (c *Client) TaskStats(ctx context.Context) (model.TaskStats, error) {
	var data statsData
	if err := c.Get(ctx, "/api/tasks/stats", &data); err != nil {
		return model.TaskStats{}, fmt.Errorf("fetching task stats: %w", err)
	}
	return data.Stats.ToModel(), nil
}

// CreateTask creates a task and returns the backend's copy.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (model.Task, error) {
	var data taskData
	if err := c.Post(ctx, "/api/tasks", req, &data); err != nil {
		return model.Task{}, fmt.Errorf("creating task: %w", err)
	}
	return data.Task.ToModel(), nil
}

// StartTask opens a time-tracking session for the caller.
func (c *Client) StartTask(ctx context.Context, id string) (model.Task, error) {
	return c.taskAction(ctx, "start", id)
}

// StopTask closes the caller's open session.
func (c *Client) StopTask(ctx context.Context, id string) (model.Task, error) {
	return c.taskAction(ctx, "stop", id)
}

// CompleteTask marks the task completed.
func (c *Client) CompleteTask(ctx context.Context, id string) (model.Task, error) {
	return c.taskAction(ctx, "complete", id)
}

func (c *Client) taskAction(ctx context.Context, action, id string) (model.Task, error) {
	var data taskData
	if err := c.Post(ctx, taskPath(id, action), nil, &data); err != nil {
		return model.Task{}, fmt.Errorf("%s task %s: %w", action, id, err)
	}
	return data.Task.ToModel(), nil
}

// UpdateProgress sets the task's percentage and phase.
func (c *Client) UpdateProgress(ctx context.Context, id string, percentage int, phase model.Phase) (model.Task, error) {
	var data taskData
	body := ProgressRequest{Percentage: percentage, Phase: string(phase)}
	if err := c.Put(ctx, taskPath(id, "progress"), body, &data); err != nil {
		return model.Task{}, fmt.Errorf("updating progress of task %s: %w", id, err)
	}
	return data.Task.ToModel(), nil
}

// AddAssignee adds userID to the task's assignees.
func (c *Client) AddAssignee(ctx context.Context, id, userID string) (model.Task, error) {
	var data taskData
	if err := c.Post(ctx, taskPath(id, "assignees"), AssigneeRequest{UserID: userID}, &data); err != nil {
		return model.Task{}, fmt.Errorf("adding assignee to task %s: %w", id, err)
	}
	return data.Task.ToModel(), nil
}

// RemoveAssignee removes userID from the task's assignees.
func (c *Client) RemoveAssignee(ctx context.Context, id, userID string) (model.Task, error) {
	var data taskData
	if err := c.Delete(ctx, taskPath(id, "assignees"), AssigneeRequest{UserID: userID}, &data); err != nil {
		return model.Task{}, fmt.Errorf("removing assignee from task %s: %w", id, err)
	}
	return data.Task.ToModel(), nil
}

// ListEmployees returns the user directory used to pick assignees.
func (c *Client) ListEmployees(ctx context.Context) ([]model.UserRef, error) {
	var data employeesData
	if err := c.Get(ctx, "/api/employees", &data); err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	users := make([]model.UserRef, 0, len(data.Employees))
	for _, u := range data.Employees {
		users = append(users, model.UserRef{
			ID:          u.ID,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			Designation: u.Designation,
		})
	}
	return users, nil
}

// Login exchanges credentials for a token pair. It is the only call that
// does not need a token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", LoginRequest{Email: email, Password: password}, &res, false); err != nil {
		return nil, fmt.Errorf("logging in as %s: %w", email, err)
	}
	if res.Tokens.AccessToken == "" {
		return nil, fmt.Errorf("logging in as %s: no access token in response", email)
	}
	return &res, nil
}
