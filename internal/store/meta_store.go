package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/crm-dashboard/internal/model"
)

const (
	metaStats    = "stats"
	metaLastSync = "last_sync"
)

func putMeta(ctx context.Context, ext sqlx.ExecerContext, key, value string) error {
	_, err := ext.ExecContext(ctx, `
		INSERT OR REPLACE INTO meta (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing meta %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) getMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading meta %s: %w", key, err)
	}
	return value, true, nil
}

// PutStats caches the latest backend stats.
func (s *SQLiteStore) PutStats(ctx context.Context, stats model.TaskStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	return putMeta(ctx, s.db, metaStats, string(data))
}

// GetStats returns the cached stats, or nil if none were stored yet.
func (s *SQLiteStore) GetStats(ctx context.Context) (*model.TaskStats, error) {
	value, ok, err := s.getMeta(ctx, metaStats)
	if err != nil || !ok {
		return nil, err
	}
	var stats model.TaskStats
	if err := json.Unmarshal([]byte(value), &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling stats: %w", err)
	}
	return &stats, nil
}

// LastSync returns when the task cache was last replaced, or the zero
// time if it never was.
func (s *SQLiteStore) LastSync(ctx context.Context) (time.Time, error) {
	value, ok, err := s.getMeta(ctx, metaLastSync)
	if err != nil || !ok {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last sync time: %w", err)
	}
	return t, nil
}
