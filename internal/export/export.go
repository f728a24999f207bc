// Package export writes tasks and completed timer sessions to CSV or JSON.
package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/daytick/internal/store"
)

// Format names an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv or json)", s)
}

// Source is the part of the store an export reads.
type Source interface {
	ListAllTasks(ctx context.Context) ([]store.Task, error)
	ListCompletions(ctx context.Context, fromDay, toDay string) ([]store.CompletedSession, error)
}

// Data is one snapshot of everything exported.
type Data struct {
	ExportedAt time.Time
	Tasks      []store.Task
	Sessions   []store.CompletedSession
}

// Collect reads every task and every completed session.
func Collect(ctx context.Context, src Source, now time.Time) (Data, error) {
	tasks, err := src.ListAllTasks(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("collect tasks: %w", err)
	}
	sessions, err := src.ListCompletions(ctx, "0000-01-01", "9999-12-31")
	if err != nil {
		return Data{}, fmt.Errorf("collect history: %w", err)
	}
	return Data{ExportedAt: now, Tasks: tasks, Sessions: sessions}, nil
}

// Write exports d to path in format.
func Write(format Format, d Data, path string) error {
	switch format {
	case FormatCSV:
		return ToCSV(d, path)
	case FormatJSON:
		return ToJSON(d, path)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// DefaultPath is daytick-export-<date>.<format> inside dir.
func DefaultPath(dir string, format Format, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("daytick-export-%s.%s", now.Format(store.DateLayout), format))
}

func formatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
