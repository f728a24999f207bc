package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Tasks      []jsonTask    `json:"tasks"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonTask struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
	Pinned      bool   `json:"pinned"`
}

type jsonSession struct {
	ID          int64  `json:"id"`
	Mode        string `json:"mode"`
	Day         string `json:"day"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	CompletedAt string `json:"completed_at"`
}

// ToJSON writes d as one indented document. Empty lists encode as [].
func ToJSON(d Data, path string) error {
	doc := jsonExport{
		ExportedAt: d.ExportedAt.UTC().Format(time.RFC3339),
		Tasks:      make([]jsonTask, 0, len(d.Tasks)),
		Sessions:   make([]jsonSession, 0, len(d.Sessions)),
	}

	for _, t := range d.Tasks {
		doc.Tasks = append(doc.Tasks, jsonTask{
			ID:          t.ID,
			Date:        t.Date,
			Text:        t.Text,
			Description: t.Description,
			Completed:   t.Completed,
			Pinned:      t.Pinned,
		})
	}
	for _, s := range d.Sessions {
		doc.Sessions = append(doc.Sessions, jsonSession{
			ID:          s.ID,
			Mode:        string(s.Mode),
			Day:         s.Day,
			DurationSec: int64(s.Duration / time.Second),
			Duration:    formatDuration(s.Duration),
			CompletedAt: s.CompletedAt.UTC().Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
