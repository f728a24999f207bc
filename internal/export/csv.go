package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{
	"Kind", "ID", "Date", "Text", "Description", "Completed", "Pinned",
	"Mode", "Duration (s)", "Duration", "Completed At",
}

// ToCSV writes tasks then sessions as one table; the Kind column tells
// them apart and columns that do not apply stay empty.
func ToCSV(d Data, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, t := range d.Tasks {
		row := []string{
			"task",
			strconv.FormatInt(t.ID, 10),
			t.Date,
			t.Text,
			t.Description,
			strconv.FormatBool(t.Completed),
			strconv.FormatBool(t.Pinned),
			"", "", "", "",
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	for _, s := range d.Sessions {
		row := []string{
			"session",
			strconv.FormatInt(s.ID, 10),
			s.Day,
			"", "", "", "",
			string(s.Mode),
			strconv.FormatInt(int64(s.Duration/time.Second), 10),
			formatDuration(s.Duration),
			s.CompletedAt.Local().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
