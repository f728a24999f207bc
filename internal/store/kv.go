package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Documented keys of the persisted state.
const (
	KeyTimerEndTime   = "timerEndTime"
	KeyTimerMode      = "timerMode"
	KeyTimerState     = "timerState"
	KeyTimerDuration  = "timerDuration"
	KeyTimerRemaining = "timerRemaining"

	KeyNotificationPermission = "notificationPermission"
	KeySelectedDate           = "selectedDate"
)

// SessionKeys are every key belonging to the timer session.
var SessionKeys = []string{
	KeyTimerEndTime,
	KeyTimerMode,
	KeyTimerState,
	KeyTimerDuration,
	KeyTimerRemaining,
}

// Get returns the raw JSON value of each requested key that exists.
// Missing keys are absent from the map.
func (s *Store) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	query := `SELECT key, value FROM kv WHERE key IN (?` + strings.Repeat(`, ?`, len(keys)-1) + `)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = json.RawMessage(v)
	}
	return out, rows.Err()
}

// Set upserts every key in values, JSON-encoding each value.
func (s *Store) Set(ctx context.Context, values map[string]any) error {
	return s.update(ctx, values, nil)
}

// Remove deletes the given keys. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	return s.update(ctx, nil, keys)
}

func (s *Store) update(ctx context.Context, set map[string]any, remove []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin kv update: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for k, v := range set {
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %q: %w", k, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, string(encoded), now,
		); err != nil {
			return fmt.Errorf("set %q: %w", k, err)
		}
	}
	for _, k := range remove {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, k); err != nil {
			return fmt.Errorf("remove %q: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit kv update: %w", err)
	}
	return nil
}

// GetString reads a single string key, returning fallback when absent or
// not a JSON string.
func (s *Store) GetString(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("get %q: %w", key, err)
	}
	var str string
	if err := json.Unmarshal([]byte(value), &str); err != nil {
		return fallback, nil
	}
	return str, nil
}

// NotificationPermission returns the stored permission, PermissionDefault if unset.
func (s *Store) NotificationPermission(ctx context.Context) (Permission, error) {
	v, err := s.GetString(ctx, KeyNotificationPermission, string(PermissionDefault))
	if err != nil {
		return PermissionDefault, err
	}
	switch p := Permission(v); p {
	case PermissionGranted, PermissionDenied:
		return p, nil
	}
	return PermissionDefault, nil
}

func (s *Store) SetNotificationPermission(ctx context.Context, p Permission) error {
	return s.Set(ctx, map[string]any{KeyNotificationPermission: string(p)})
}

// SelectedDate returns the date last shown in the task list, or "" if unset.
func (s *Store) SelectedDate(ctx context.Context) (string, error) {
	return s.GetString(ctx, KeySelectedDate, "")
}

func (s *Store) SetSelectedDate(ctx context.Context, date string) error {
	return s.Set(ctx, map[string]any{KeySelectedDate: date})
}
