package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/crm-dashboard/internal/model"
)

// notificationRow mirrors the notifications table.
type notificationRow struct {
	ID        string    `db:"id"`
	TaskID    string    `db:"task_id"`
	TaskTitle string    `db:"task_title"`
	OldStatus string    `db:"old_status"`
	NewStatus string    `db:"new_status"`
	Assignee  string    `db:"assignee"`
	Message   string    `db:"message"`
	Read      int       `db:"read"`
	CreatedAt time.Time `db:"created_at"`
}

func (r notificationRow) toModel() model.Notification {
	return model.Notification{
		ID:        r.ID,
		TaskID:    r.TaskID,
		TaskTitle: r.TaskTitle,
		OldStatus: model.TaskStatus(r.OldStatus),
		NewStatus: model.TaskStatus(r.NewStatus),
		Assignee:  r.Assignee,
		Message:   r.Message,
		Read:      r.Read != 0,
		CreatedAt: r.CreatedAt,
	}
}

// CreateNotification inserts a new notification record.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, task_id, task_title, old_status, new_status,
			assignee, message, read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.TaskID, n.TaskTitle, string(n.OldStatus), string(n.NewStatus),
		n.Assignee, n.Message, boolToInt(n.Read), n.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	return nil
}

// GetNotifications returns the newest notifications first. A limit of
// zero returns all of them.
func (s *SQLiteStore) GetNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	query := "SELECT * FROM notifications ORDER BY created_at DESC, id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.selectNotifications(ctx, query)
}

// GetUnreadNotifications retrieves all notifications that have not been read,
// ordered by creation time descending.
func (s *SQLiteStore) GetUnreadNotifications(ctx context.Context) ([]model.Notification, error) {
	return s.selectNotifications(ctx,
		"SELECT * FROM notifications WHERE read = 0 ORDER BY created_at DESC, id",
	)
}

func (s *SQLiteStore) selectNotifications(ctx context.Context, query string) ([]model.Notification, error) {
	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}

	out := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// CountUnreadNotifications returns the size of the unread inbox.
func (s *SQLiteStore) CountUnreadNotifications(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM notifications WHERE read = 0"); err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("marking notification %s as read: %w", id, ErrNotFound)
	}
	return nil
}

// MarkAllNotificationsRead clears the unread inbox.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE notifications SET read = 1 WHERE read = 0"); err != nil {
		return fmt.Errorf("marking all notifications as read: %w", err)
	}
	return nil
}
