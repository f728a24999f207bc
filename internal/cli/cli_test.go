package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/daytick/internal/clock"
	"github.com/sadopc/daytick/internal/config"
	"github.com/sadopc/daytick/internal/protocol"
	"github.com/sadopc/daytick/internal/store"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)

// testEnv points every command at throwaway paths.
type testEnv struct {
	app    *App
	dbPath string
	socket string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// Unix socket paths are short-limited; keep this one out of t.TempDir().
	sockDir, err := os.MkdirTemp("", "dt")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(sockDir) })

	env := &testEnv{
		dbPath: filepath.Join(t.TempDir(), "daytick.db"),
		socket: filepath.Join(sockDir, "d.sock"),
		app: &App{
			Clock:         clock.NewFake(t0),
			IsInteractive: func() bool { return false },
			StyledOutput:  func() bool { return false },
		},
	}
	t.Setenv("DAYTICK_DB", env.dbPath)
	t.Setenv("DAYTICK_SOCKET", env.socket)
	return env
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// startDaemon runs the daemon in-process until the test ends.
func (env *testEnv) startDaemon(t *testing.T) {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = env.dbPath
	cfg.SocketPath = env.socket

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runDaemon(ctx, env.app, cfg, io.Discard) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	client := protocol.NewClient(env.socket, time.Second)
	require.Eventually(t, func() bool {
		_, err := client.Status(context.Background())
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
}

func TestPopupNeedsTerminal(t *testing.T) {
	env := newTestEnv(t)
	_, err := executeCmd(t, env.app)
	assert.ErrorIs(t, err, errNoTerminal)

	_, err = executeCmd(t, env.app, "popup")
	assert.ErrorIs(t, err, errNoTerminal)
}

func TestConfigInitAndShow(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := executeCmd(t, env.app, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = executeCmd(t, env.app, "--config", path, "config", "init")
	assert.Error(t, err)

	_, err = executeCmd(t, env.app, "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	out, err = executeCmd(t, env.app, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "focus_minutes: 25")
	assert.Contains(t, out, "db_path: "+env.dbPath)

	out, err = executeCmd(t, env.app, "--config", path, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestStatusWithoutDaemonReadsStore(t *testing.T) {
	env := newTestEnv(t)

	st, err := store.New(env.dbPath)
	require.NoError(t, err)
	require.NoError(t, st.SavePaused(context.Background(), store.ModeBreak, 5*time.Minute, 3*time.Minute))
	require.NoError(t, st.Close())

	out, err := executeCmd(t, env.app, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "not running")
	assert.Contains(t, out, "Break paused")
	assert.Contains(t, out, "03:00")
}

func TestStartWithoutDaemon(t *testing.T) {
	env := newTestEnv(t)
	_, err := executeCmd(t, env.app, "start")
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrUnavailable)
	assert.Contains(t, err.Error(), "daytick daemon")
}

func TestStartRejectsUnknownMode(t *testing.T) {
	env := newTestEnv(t)
	_, err := executeCmd(t, env.app, "start", "--mode", "nap")
	assert.ErrorContains(t, err, "unknown mode")
}

func TestDaemonStartStatusStop(t *testing.T) {
	env := newTestEnv(t)
	env.startDaemon(t)

	out, err := executeCmd(t, env.app, "start")
	require.NoError(t, err)
	assert.Contains(t, out, "Focus timer started, ends at 09:25:00")

	out, err = executeCmd(t, env.app, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Daemon    running")
	assert.Contains(t, out, "Focus running")
	assert.Contains(t, out, "25:00")

	out, err = executeCmd(t, env.app, "stop")
	require.NoError(t, err)
	assert.Contains(t, out, "Timer stopped")

	out, err = executeCmd(t, env.app, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Focus stopped")
}

func TestDaemonStartBreakMinutes(t *testing.T) {
	env := newTestEnv(t)
	env.startDaemon(t)

	_, err := executeCmd(t, env.app, "start", "--mode", "break", "--minutes", "2.5")
	require.NoError(t, err)

	st, err := store.New(env.dbPath)
	require.NoError(t, err)
	defer st.Close()
	sess, err := st.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.StateRunning, sess.State)
	assert.Equal(t, store.ModeBreak, sess.Mode)
	assert.Equal(t, t0.Add(150*time.Second).UnixMilli(), sess.EndTime.UnixMilli())
}

func TestSecondDaemonRefused(t *testing.T) {
	env := newTestEnv(t)
	env.startDaemon(t)

	cfg := config.Default()
	cfg.DBPath = env.dbPath
	cfg.SocketPath = env.socket
	err := runDaemon(context.Background(), env.app, cfg, io.Discard)
	assert.ErrorIs(t, err, protocol.ErrAlreadyRunning)
}

func TestExportCommand(t *testing.T) {
	env := newTestEnv(t)

	st, err := store.New(env.dbPath)
	require.NoError(t, err)
	_, err = st.CreateTask(context.Background(), "2026-03-02", "water plants", "")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	path := filepath.Join(t.TempDir(), "out.json")
	out, err := executeCmd(t, env.app, "export", "--format", "json", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 tasks and 0 sessions")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Len(t, doc["tasks"], 1)

	_, err = executeCmd(t, env.app, "export", "--format", "xml")
	assert.Error(t, err)
}

func TestFormatStatusStyledOffline(t *testing.T) {
	v := statusView{Mode: store.ModeFocus, State: store.StateStopped}
	plain := formatStatus(v, false)
	assert.Contains(t, plain, "Daemon    not running")
	assert.NotContains(t, plain, "Popups")
}

func TestStatusReplyWithoutSession(t *testing.T) {
	v := viewFromResponse(protocol.Response{Success: true, Surfaces: 1}, time.Now())
	assert.True(t, v.Daemon)
	assert.Equal(t, store.StateStopped, v.State)

	out := formatStatus(v, false)
	assert.Contains(t, out, "Daemon    running")
	assert.Contains(t, out, "Timer     Focus stopped")
	assert.Contains(t, out, "Popups    1")
}
