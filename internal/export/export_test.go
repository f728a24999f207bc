package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/daytick/internal/store"
)

func sampleData() Data {
	at := time.Date(2026, 3, 2, 9, 25, 0, 0, time.UTC)
	return Data{
		ExportedAt: at,
		Tasks: []store.Task{
			{ID: 1, Date: "2026-03-02", Text: "write report", Description: "q1 numbers", Pinned: true},
			{ID: 2, Date: "2026-03-02", Text: "call bank", Completed: true},
		},
		Sessions: []store.CompletedSession{
			{ID: 7, Mode: store.ModeFocus, Duration: 25 * time.Minute, Day: "2026-03-02", CompletedAt: at},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, ToCSV(sampleData(), path))

	records := readCSV(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, csvHeader, records[0])

	assert.Equal(t, "task", records[1][0])
	assert.Equal(t, "write report", records[1][3])
	assert.Equal(t, "q1 numbers", records[1][4])
	assert.Equal(t, "false", records[1][5])
	assert.Equal(t, "true", records[1][6])
	assert.Equal(t, "", records[1][7])

	assert.Equal(t, "true", records[2][5])

	session := records[3]
	assert.Equal(t, "session", session[0])
	assert.Equal(t, "focus", session[7])
	assert.Equal(t, "1500", session[8])
	assert.Equal(t, "00:25:00", session[9])
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, ToCSV(Data{}, path))
	assert.Len(t, readCSV(t, path), 1)
}

func TestToCSVSpecialCharacters(t *testing.T) {
	d := Data{Tasks: []store.Task{{ID: 1, Date: "2026-03-02", Text: `say "hi", then leave`}}}
	path := filepath.Join(t.TempDir(), "special.csv")
	require.NoError(t, ToCSV(d, path))

	records := readCSV(t, path)
	assert.Equal(t, `say "hi", then leave`, records[1][3])
}

func TestToCSVBadPath(t *testing.T) {
	assert.Error(t, ToCSV(Data{}, "/nonexistent/dir/file.csv"))
}

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, ToJSON(sampleData(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc jsonExport
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "2026-03-02T09:25:00Z", doc.ExportedAt)
	require.Len(t, doc.Tasks, 2)
	assert.True(t, doc.Tasks[0].Pinned)
	assert.True(t, doc.Tasks[1].Completed)
	require.Len(t, doc.Sessions, 1)
	assert.Equal(t, int64(1500), doc.Sessions[0].DurationSec)
	assert.Equal(t, "00:25:00", doc.Sessions[0].Duration)
}

func TestToJSONEmptyListsAreArrays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, ToJSON(Data{ExportedAt: time.Now()}, path))

	var doc map[string]any
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, []any{}, doc["tasks"])
	assert.Equal(t, []any{}, doc["sessions"])
}

func TestCollectAndWrite(t *testing.T) {
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	_, err = s.CreateTask(ctx, "2026-03-02", "plan week", "")
	require.NoError(t, err)
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local)
	require.NoError(t, s.RecordCompletion(ctx, store.ModeBreak, 5*time.Minute, at))

	d, err := Collect(ctx, s, at)
	require.NoError(t, err)
	assert.Len(t, d.Tasks, 1)
	require.Len(t, d.Sessions, 1)
	assert.Equal(t, store.ModeBreak, d.Sessions[0].Mode)

	dir := t.TempDir()
	path := DefaultPath(dir, FormatCSV, at)
	assert.Equal(t, filepath.Join(dir, "daytick-export-2026-03-02.csv"), path)
	require.NoError(t, Write(FormatCSV, d, path))
	assert.Len(t, readCSV(t, path), 3)
}
