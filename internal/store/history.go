package store

import (
	"context"
	"fmt"
	"time"
)

// RecordCompletion appends a naturally expired session to the history.
func (s *Store) RecordCompletion(ctx context.Context, mode Mode, duration time.Duration, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO timer_history (mode, duration_ms, day, completed_at) VALUES (?, ?, ?, ?)`,
		string(mode), duration.Milliseconds(), at.Local().Format(DateLayout), at.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	return nil
}

// ListCompletions returns history rows whose local day is in [fromDay, toDay).
func (s *Store) ListCompletions(ctx context.Context, fromDay, toDay string) ([]CompletedSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, duration_ms, day, completed_at FROM timer_history
		 WHERE day >= ? AND day < ? ORDER BY completed_at`,
		fromDay, toDay,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var out []CompletedSession
	for rows.Next() {
		var c CompletedSession
		var mode, completedAt string
		var ms int64
		if err := rows.Scan(&c.ID, &mode, &ms, &c.Day, &completedAt); err != nil {
			return nil, err
		}
		c.Mode = Mode(mode)
		c.Duration = time.Duration(ms) * time.Millisecond
		c.CompletedAt, _ = time.Parse(time.RFC3339, completedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetDailySummary aggregates completions per day and mode for [fromDay, toDay).
func (s *Store) GetDailySummary(ctx context.Context, fromDay, toDay string) ([]DailySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, mode, COUNT(*), COALESCE(SUM(duration_ms), 0) / 1000
		FROM timer_history
		WHERE day >= ? AND day < ?
		GROUP BY day, mode
		ORDER BY day, mode`,
		fromDay, toDay,
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	var out []DailySummary
	for rows.Next() {
		var d DailySummary
		var mode string
		if err := rows.Scan(&d.Day, &mode, &d.Count, &d.TotalSeconds); err != nil {
			return nil, err
		}
		d.Mode = Mode(mode)
		out = append(out, d)
	}
	return out, rows.Err()
}
