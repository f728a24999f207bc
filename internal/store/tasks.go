package store

import (
	"context"
	"fmt"
	"time"
)

const taskColumns = `id, date, text, description, completed, pinned, created_at, updated_at`

func (s *Store) CreateTask(ctx context.Context, date, text, description string) (*Task, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (date, text, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		date, text, description, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTask(ctx, id)
}

func (s *Store) GetTask(ctx context.Context, id int64) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

// ListTasks returns the tasks of one date, pinned first, then in creation order.
func (s *Store) ListTasks(ctx context.Context, date string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE date = ? ORDER BY pinned DESC, id`, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ListAllTasks returns every task ordered by date.
func (s *Store) ListAllTasks(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY date, pinned DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list all tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTask(ctx context.Context, id int64, text, description string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET text = ?, description = ?, updated_at = ? WHERE id = ?`,
		text, description, now, id,
	)
	return err
}

func (s *Store) SetTaskCompleted(ctx context.Context, id int64, completed bool) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ?`, boolInt(completed), now, id,
	)
	return err
}

func (s *Store) SetTaskPinned(ctx context.Context, id int64, pinned bool) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET pinned = ?, updated_at = ? WHERE id = ?`, boolInt(pinned), now, id,
	)
	return err
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	return err
}

// PurgeTasksBefore deletes every task dated strictly before date
// (YYYY-MM-DD) and returns how many were removed.
func (s *Store) PurgeTasksBefore(ctx context.Context, date string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE date < ?`, date)
	if err != nil {
		return 0, fmt.Errorf("purge tasks: %w", err)
	}
	return res.RowsAffected()
}

func scanTask(scan func(dest ...any) error) (*Task, error) {
	t := &Task{}
	var createdAt, updatedAt string
	var completed, pinned int
	if err := scan(&t.ID, &t.Date, &t.Text, &t.Description, &completed, &pinned, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Completed = completed == 1
	t.Pinned = pinned == 1
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
