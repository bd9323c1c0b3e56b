package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/crm-dashboard/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every pooled connection to :memory: would get its own empty database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// assigneeKey encodes assignee IDs as ",a,b," so a single LIKE matches
// one member exactly.
func assigneeKey(t model.Task) string {
	ids := t.AssigneeIDs()
	if len(ids) == 0 {
		return ""
	}
	return "," + strings.Join(ids, ",") + ","
}

// ReplaceTasks swaps the cached task list for tasks in one transaction.
// The backend list is authoritative, so tasks missing from it are dropped.
func (s *SQLiteStore) ReplaceTasks(ctx context.Context, tasks []model.Task, fetchedAt time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clearing task cache: %w", err)
	}

	const query = `
		INSERT OR REPLACE INTO tasks (
			id, title, description, status,
			priority, priority_rank, due_date, assignee_ids,
			data, created_at, updated_at, fetched_at
		) VALUES (
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?
		)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		t.FetchedAt = fetchedAt.UTC()

		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshaling task %s: %w", t.ID, err)
		}

		var due interface{}
		if t.DueDate != nil {
			due = t.DueDate.UTC()
		}

		_, err = stmt.ExecContext(ctx,
			t.ID, t.Title, t.Description, string(t.Status),
			string(t.Priority), t.Priority.Rank(), due, assigneeKey(t),
			string(data), t.CreatedAt.UTC(), t.UpdatedAt.UTC(), t.FetchedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting task %s: %w", t.ID, err)
		}
	}

	if err := putMeta(ctx, tx, metaLastSync, fetchedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	return tx.Commit()
}

// GetTasks retrieves cached tasks matching the provided filter options.
func (s *SQLiteStore) GetTasks(ctx context.Context, opts TaskFilter) ([]model.Task, error) {
	var conditions []string
	var args []interface{}

	if opts.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*opts.Status))
	}
	if opts.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, string(*opts.Priority))
	}
	if opts.Query != nil && *opts.Query != "" {
		conditions = append(conditions, "(title LIKE ? OR description LIKE ?)")
		q := "%" + *opts.Query + "%"
		args = append(args, q, q)
	}
	if opts.AssigneeID != nil {
		conditions = append(conditions, "assignee_ids LIKE ?")
		args = append(args, "%,"+*opts.AssigneeID+",%")
	}

	query := "SELECT data FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := "updated_at"
	if opts.SortBy != "" {
		allowedSorts := map[string]string{
			"title":      "title",
			"status":     "status",
			"priority":   "priority_rank",
			"due_date":   "due_date",
			"created_at": "created_at",
			"updated_at": "updated_at",
		}
		if col, ok := allowedSorts[opts.SortBy]; ok {
			sortBy = col
		}
	}

	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}
	// Tasks without a due date sort last either way.
	if sortBy == "due_date" {
		query += fmt.Sprintf(" ORDER BY due_date IS NULL, due_date %s, id", direction)
	} else {
		query += fmt.Sprintf(" ORDER BY %s %s, id", sortBy, direction)
	}

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	var rows []string
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, data := range rows {
		task, err := decodeTask(data)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

// GetTaskByID retrieves a single cached task by its ID.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	var data string
	err := s.db.GetContext(ctx, &data, "SELECT data FROM tasks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}

	task, err := decodeTask(data)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// CountTasks returns the number of cached tasks.
func (s *SQLiteStore) CountTasks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM tasks"); err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return n, nil
}

func decodeTask(data string) (model.Task, error) {
	var task model.Task
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		return model.Task{}, fmt.Errorf("unmarshaling cached task: %w", err)
	}
	return task, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
