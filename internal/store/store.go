package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/crm-dashboard/internal/model"
)

// ErrNotFound is returned when a lookup by ID matches nothing.
var ErrNotFound = errors.New("not found")

// TaskFilter controls filtering, sorting, and pagination for cached task
// queries.
type TaskFilter struct {
	Status     *model.TaskStatus
	Priority   *model.Priority
	Query      *string // case-insensitive match on title and description
	AssigneeID *string
	SortBy     string // "title", "status", "priority", "due_date", "created_at", "updated_at"
	SortDesc   bool
	Limit      int
	Offset     int
}

// Store is the local cache of the backend task list plus the
// notification inbox.
type Store interface {
	// === Tasks ===

	ReplaceTasks(ctx context.Context, tasks []model.Task, fetchedAt time.Time) error
	GetTasks(ctx context.Context, opts TaskFilter) ([]model.Task, error)
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	CountTasks(ctx context.Context) (int, error)

	// === Stats ===

	PutStats(ctx context.Context, stats model.TaskStats) error
	GetStats(ctx context.Context) (*model.TaskStats, error)
	LastSync(ctx context.Context) (time.Time, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	CountUnreadNotifications(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error

	Close() error
}
