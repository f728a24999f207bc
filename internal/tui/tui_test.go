package tui

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/daytick/internal/clock"
	"github.com/sadopc/daytick/internal/config"
	"github.com/sadopc/daytick/internal/store"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// fakeKeeper writes the store the way the daemon does, without a socket.
type fakeKeeper struct {
	store *store.Store
	clock clock.Clock

	mu      sync.Mutex
	starts  int
	stops   int
	failAll error
}

func (k *fakeKeeper) StartTimer(ctx context.Context, minutes float64, mode string, durationMs int64) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.failAll != nil {
		return k.failAll
	}
	k.starts++
	m, _ := store.ParseMode(mode)
	end := k.clock.Now().Add(time.Duration(minutes * float64(time.Minute)))
	return k.store.SaveRunning(ctx, m, time.Duration(durationMs)*time.Millisecond, end)
}

func (k *fakeKeeper) StopTimer(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.failAll != nil {
		return k.failAll
	}
	k.stops++
	return k.store.ClearRunning(ctx)
}

type failingPause struct {
	*store.Store
}

func (failingPause) SavePaused(context.Context, store.Mode, time.Duration, time.Duration) error {
	return errors.New("disk full")
}

type fakeSurface struct {
	focus bool
	err   error
}

func (s *fakeSurface) Attach(context.Context, string, string) (bool, error) { return s.focus, s.err }
func (s *fakeSurface) Detach(context.Context, string) error                 { return nil }

type timerFixture struct {
	store  *store.Store
	clock  *clock.Fake
	keeper *fakeKeeper
	ctx    context.Context
}

func newTimerFixture(t *testing.T) *timerFixture {
	t.Helper()
	s := newTestStore(t)
	c := clock.NewFake(t0)
	return &timerFixture{store: s, clock: c, keeper: &fakeKeeper{store: s, clock: c}, ctx: context.Background()}
}

func (f *timerFixture) timer() timerModel {
	return newTimerModel(f.store, f.keeper, f.clock, config.Default().DurationFor)
}

// ============================================================
// Timer controller
// ============================================================

func TestTimerStartsAtModeDefault(t *testing.T) {
	f := newTimerFixture(t)
	tm := f.timer()
	require.NoError(t, tm.activate(f.ctx))

	assert.Equal(t, store.ModeFocus, tm.mode)
	assert.Equal(t, store.StateStopped, tm.state)
	assert.Equal(t, 25*time.Minute, tm.remaining)
}

func TestTimerStartPersistsEndTime(t *testing.T) {
	f := newTimerFixture(t)
	tm := f.timer()
	require.NoError(t, tm.start(f.ctx))

	assert.True(t, tm.running())
	sess, err := f.store.LoadSession(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, store.StateRunning, sess.State)
	assert.Equal(t, t0.Add(25*time.Minute).UnixMilli(), sess.EndTime.UnixMilli())

	f.clock.Advance(10 * time.Minute)
	assert.False(t, tm.tick())
	assert.Equal(t, 15*time.Minute, tm.remaining)
}

func TestTimerBreakPausedAfterTwoMinutes(t *testing.T) {
	f := newTimerFixture(t)
	tm := f.timer()
	require.NoError(t, tm.setMode(f.ctx, store.ModeBreak))
	require.Equal(t, 5*time.Minute, tm.remaining)
	require.NoError(t, tm.start(f.ctx))

	f.clock.Advance(2 * time.Minute)
	require.NoError(t, tm.pause(f.ctx))

	assert.True(t, tm.paused())
	assert.Equal(t, int64(180000), tm.remaining.Milliseconds())

	sess, err := f.store.LoadSession(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, store.StatePaused, sess.State)
	assert.Equal(t, store.ModeBreak, sess.Mode)
	assert.Equal(t, 3*time.Minute, sess.Remaining)
	assert.Equal(t, 5*time.Minute, sess.Duration)
	assert.True(t, sess.EndTime.IsZero())
}

func TestTimerPauseResumePreservesRemaining(t *testing.T) {
	f := newTimerFixture(t)
	tm := f.timer()
	require.NoError(t, tm.start(f.ctx))
	f.clock.Advance(5 * time.Minute)
	require.NoError(t, tm.pause(f.ctx))

	// Paused time does not count.
	f.clock.Advance(time.Hour)
	require.NoError(t, tm.start(f.ctx))
	assert.Equal(t, 20*time.Minute, tm.remaining)

	sess, err := f.store.LoadSession(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(20*time.Minute).UnixMilli(), sess.EndTime.UnixMilli())
	assert.Equal(t, 25*time.Minute, sess.Duration)
}

func TestTimerDoubleResetSucceeds(t *testing.T) {
	f := newTimerFixture(t)
	tm := f.timer()
	require.NoError(t, tm.start(f.ctx))

	require.NoError(t, tm.reset(f.ctx))
	require.NoError(t, tm.reset(f.ctx))

	assert.Equal(t, store.StateStopped, tm.state)
	assert.Equal(t, 25*time.Minute, tm.remaining)
	sess, err := f.store.LoadSession(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, store.StateStopped, sess.State)
	assert.Equal(t, 2, f.keeper.stops)
}

func TestTimerReactivationRoundTrip(t *testing.T) {
	f := newTimerFixture(t)
	first := f.timer()
	require.NoError(t, first.start(f.ctx))
	f.clock.Advance(90 * time.Second)

	// A fresh popup sees the same countdown.
	second := f.timer()
	require.NoError(t, second.activate(f.ctx))
	assert.True(t, second.running())
	assert.Equal(t, first.endTime.UnixMilli(), second.endTime.UnixMilli())
	assert.Equal(t, 25*time.Minute-90*time.Second, second.remaining)

	require.NoError(t, second.pause(f.ctx))
	third := f.timer()
	require.NoError(t, third.activate(f.ctx))
	assert.True(t, third.paused())
	assert.Equal(t, second.remaining, third.remaining)
	assert.Equal(t, 25*time.Minute, third.duration)
}

func TestTimerActivateAfterExpiryIsStopped(t *testing.T) {
	f := newTimerFixture(t)
	tm := f.timer()
	require.NoError(t, tm.start(f.ctx))
	f.clock.Advance(26 * time.Minute)

	again := f.timer()
	require.NoError(t, again.activate(f.ctx))
	assert.Equal(t, store.StateStopped, again.state)
	assert.Equal(t, 25*time.Minute, again.remaining)
}

func TestTimerZeroEditResets(t *testing.T) {
	f := newTimerFixture(t)
	tm := f.timer()
	require.NoError(t, tm.start(f.ctx))
	f.clock.Advance(time.Minute)
	require.NoError(t, tm.pause(f.ctx))

	require.NoError(t, tm.editDuration(f.ctx, 0))
	assert.Equal(t, store.StateStopped, tm.state)
	assert.Equal(t, 25*time.Minute, tm.remaining)

	sess, err := f.store.LoadSession(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, store.StateStopped, sess.State)
}

func TestTimerEditWhilePausedPersists(t *testing.T) {
	f := newTimerFixture(t)
	tm := f.timer()
	require.NoError(t, tm.start(f.ctx))
	f.clock.Advance(time.Minute)
	require.NoError(t, tm.pause(f.ctx))

	require.NoError(t, tm.editDuration(f.ctx, 10*time.Minute))
	sess, err := f.store.LoadSession(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, store.StatePaused, sess.State)
	assert.Equal(t, 10*time.Minute, sess.Remaining)
	assert.Equal(t, 10*time.Minute, sess.Duration)
}

func TestTimerEditRejectedWhileRunning(t *testing.T) {
	f := newTimerFixture(t)
	tm := f.timer()
	require.NoError(t, tm.start(f.ctx))
	assert.ErrorIs(t, tm.editDuration(f.ctx, time.Minute), errTimerRunning)
	assert.ErrorIs(t, tm.setMode(f.ctx, store.ModeBreak), errTimerRunning)
}

func TestTimerStartFailureLeavesStopped(t *testing.T) {
	f := newTimerFixture(t)
	f.keeper.failAll = errors.New("daemon unreachable")
	tm := f.timer()

	assert.Error(t, tm.start(f.ctx))
	assert.Equal(t, store.StateStopped, tm.state)
}

func TestTimerPauseSaveFailureRearms(t *testing.T) {
	f := newTimerFixture(t)
	tm := newTimerModel(failingPause{f.store}, f.keeper, f.clock, config.Default().DurationFor)
	require.NoError(t, tm.start(f.ctx))
	f.clock.Advance(5 * time.Minute)

	err := tm.pause(f.ctx)
	require.Error(t, err)
	assert.True(t, tm.running())
	assert.Equal(t, 2, f.keeper.starts)

	sess, err := f.store.LoadSession(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, store.StateRunning, sess.State)
	assert.Equal(t, f.clock.Now().Add(20*time.Minute).UnixMilli(), sess.EndTime.UnixMilli())
}

func TestTimerTickReachesZeroOnce(t *testing.T) {
	f := newTimerFixture(t)
	tm := f.timer()
	require.NoError(t, tm.start(f.ctx))
	gen := tm.gen

	f.clock.Advance(25 * time.Minute)
	assert.True(t, tm.tick())
	assert.True(t, tm.expired)
	assert.Equal(t, time.Duration(0), tm.remaining)
	assert.NotEqual(t, gen, tm.gen)
	assert.False(t, tm.tick())
	assert.Equal(t, 1.0, tm.progress())
}

// ============================================================
// Timer pane
// ============================================================

func newTestPomodoro(f *timerFixture) pomodoroModel {
	p := newPomodoroModel(f.timer(), f.store, 100*time.Millisecond, time.Second, time.Second)
	p.busy = false
	p.perm = store.PermissionGranted
	return p
}

func startKey() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}}
}

func TestPomodoroStartKeyRunsStart(t *testing.T) {
	f := newTimerFixture(t)
	p := newTestPomodoro(f)

	p, cmd := p.update(startKey())
	require.NotNil(t, cmd)
	assert.True(t, p.busy)

	// A second press while the first is in flight is dropped.
	_, again := p.update(startKey())
	assert.Nil(t, again)

	msg, ok := cmd().(timerResultMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	assert.Equal(t, "start", msg.op)

	p, cmd = p.update(msg)
	assert.False(t, p.busy)
	assert.True(t, p.timer.running())
	assert.True(t, p.loopActive)
	assert.Equal(t, p.timer.gen, p.loopGen)
	assert.NotNil(t, cmd)
}

func TestPomodoroAsksPermissionOnce(t *testing.T) {
	f := newTimerFixture(t)
	p := newTestPomodoro(f)
	p.perm = store.PermissionDefault

	p, _ = p.update(startKey())
	assert.Equal(t, formPermission, p.formKind)

	p.closeForm()
	p, cmd := p.applyPermission(false)
	require.NotNil(t, cmd)
	assert.Equal(t, store.PermissionDenied, p.perm)

	perm, err := f.store.NotificationPermission(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, store.PermissionDenied, perm)
}

func TestPomodoroIgnoresStaleRedraw(t *testing.T) {
	f := newTimerFixture(t)
	p := newTestPomodoro(f)
	require.NoError(t, p.timer.start(f.ctx))

	_, cmd := p.update(redrawMsg{gen: p.timer.gen - 1})
	assert.Nil(t, cmd)
}

func TestPomodoroGraceThenReset(t *testing.T) {
	f := newTimerFixture(t)
	p := newTestPomodoro(f)
	require.NoError(t, p.timer.start(f.ctx))
	p, _ = p.ensureLoop()
	f.clock.Advance(25 * time.Minute)

	p, cmd := p.update(redrawMsg{gen: p.timer.gen})
	require.NotNil(t, cmd)
	assert.True(t, p.timer.expired)
	assert.Equal(t, "00:00", formatClock(p.timer.remaining))

	p, _ = p.update(graceDoneMsg{gen: p.timer.gen})
	assert.False(t, p.timer.expired)
	assert.Equal(t, store.StateStopped, p.timer.state)
	assert.Equal(t, 25*time.Minute, p.timer.remaining)
}

func startedPomodoro(t *testing.T, f *timerFixture) pomodoroModel {
	t.Helper()
	p := newTestPomodoro(f)
	p, cmd := p.update(startKey())
	require.NotNil(t, cmd)
	p, _ = p.update(cmd())
	require.True(t, p.timer.running())
	require.True(t, p.loopActive)
	return p
}

func TestPomodoroPauseRacingExpiryStillResets(t *testing.T) {
	f := newTimerFixture(t)
	p := startedPomodoro(t, f)

	f.clock.Advance(25*time.Minute - 500*time.Millisecond)
	p, pause := p.update(startKey())
	require.NotNil(t, pause)
	f.clock.Advance(time.Second)

	// The countdown reaches zero before the pause result comes back.
	p, grace := p.update(redrawMsg{gen: p.loopGen})
	require.NotNil(t, grace)
	require.True(t, p.timer.expired)

	p, _ = p.update(pause())
	assert.False(t, p.busy)
	assert.True(t, p.timer.expired)
	assert.Equal(t, "00:00", formatClock(p.timer.remaining))

	p, _ = p.update(graceDoneMsg{gen: p.timer.gen})
	assert.False(t, p.timer.expired)
	assert.Equal(t, store.StateStopped, p.timer.state)
	assert.Equal(t, 25*time.Minute, p.timer.remaining)
}

func TestPomodoroPauseAfterZeroStartsGrace(t *testing.T) {
	f := newTimerFixture(t)
	p := startedPomodoro(t, f)
	oldLoop := p.loopGen

	f.clock.Advance(25 * time.Minute)
	p, pause := p.update(startKey())
	require.NotNil(t, pause)

	p, grace := p.update(pause())
	require.NotNil(t, grace)
	assert.True(t, p.timer.expired)
	assert.True(t, p.graceActive)
	assert.False(t, p.loopActive)

	// The old loop's last tick no longer drives anything.
	_, cmd := p.update(redrawMsg{gen: oldLoop})
	assert.Nil(t, cmd)

	p, _ = p.update(graceDoneMsg{gen: p.timer.gen})
	assert.Equal(t, store.StateStopped, p.timer.state)
	assert.Equal(t, 25*time.Minute, p.timer.remaining)
}

func TestPomodoroLoopRestartsForSameGeneration(t *testing.T) {
	f := newTimerFixture(t)
	p := startedPomodoro(t, f)

	// A result carrying the running timer after the loop died must revive it.
	p.loopActive = false
	p, cmd := p.update(timerResultMsg{timer: p.timer, op: "activate"})
	assert.NotNil(t, cmd)
	assert.True(t, p.loopActive)
	assert.Equal(t, p.timer.gen, p.loopGen)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, parseDuration("1", "30"))
	assert.Equal(t, time.Duration(0), parseDuration("", ""))
	assert.Equal(t, 5*time.Minute, parseDuration(" 5 ", "x"))
}

func TestValidateCount(t *testing.T) {
	v := validateCount(59)
	assert.NoError(t, v(""))
	assert.NoError(t, v("59"))
	assert.Error(t, v("60"))
	assert.Error(t, v("-1"))
	assert.Error(t, v("ab"))
}

// ============================================================
// Tasks pane
// ============================================================

func TestOrderTasks(t *testing.T) {
	tasks := []store.Task{
		{ID: 1, Date: "2026-03-03", Text: "later"},
		{ID: 2, Date: "2026-03-02", Text: "done", Completed: true},
		{ID: 3, Date: "2026-03-02", Text: "open"},
		{ID: 4, Date: "2026-03-02", Text: "pinned", Pinned: true},
	}
	got := orderTasks(tasks)

	var ids []int64
	for _, task := range got {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []int64{4, 3, 2, 1}, ids)
	assert.Equal(t, int64(1), tasks[0].ID, "input is not reordered")
}

func TestDashboardActivatePurgesOldDates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateTask(ctx, "2026-02-20", "ancient", "")
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, "2026-02-28", "kept", "")
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, "2026-03-02", "today", "")
	require.NoError(t, err)
	require.NoError(t, s.SetSelectedDate(ctx, "2026-01-01"))

	d := newDashboardModel(s, clock.NewFake(t0), 2)
	msg, ok := d.activate()().(dashboardDataMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	assert.Equal(t, int64(1), msg.purged)
	assert.Len(t, msg.tasks, 2)
	assert.Equal(t, "2026-03-02", msg.activeDate)

	date, err := s.SelectedDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", date)
}

func TestDashboardDateNeverBeforeToday(t *testing.T) {
	s := newTestStore(t)
	d := newDashboardModel(s, clock.NewFake(t0), 2)

	d, _ = d.moveDate(-1)
	assert.Equal(t, "2026-03-02", d.activeDate)

	d, _ = d.moveDate(1)
	assert.Equal(t, "2026-03-03", d.activeDate)
	date, err := s.SelectedDate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-03-03", date)
}

// ============================================================
// Settings pane
// ============================================================

func TestSettingsSavePermission(t *testing.T) {
	s := newTestStore(t)
	m := newSettingsModel(s, config.Default(), time.Second)

	msg, ok := m.save(store.PermissionGranted)().(permissionMsg)
	require.True(t, ok)
	assert.Equal(t, store.PermissionGranted, msg.perm)

	m, _ = m.update(msg)
	assert.Equal(t, store.PermissionGranted, m.perm)

	refreshed, ok := m.refresh()().(permissionMsg)
	require.True(t, ok)
	assert.Equal(t, store.PermissionGranted, refreshed.perm)
}

func TestPermissionLabel(t *testing.T) {
	assert.Equal(t, "allowed", permissionLabel(store.PermissionGranted))
	assert.Equal(t, "blocked", permissionLabel(store.PermissionDenied))
	assert.Equal(t, "not asked yet", permissionLabel(store.PermissionDefault))
}

// ============================================================
// Helpers
// ============================================================

func TestFormatClock(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{500 * time.Millisecond, "00:01"},
		{25 * time.Minute, "25:00"},
		{3*time.Minute + 200*time.Millisecond, "03:01"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatClock(tc.d), tc.d.String())
	}
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "0m", formatSeconds(0))
	assert.Equal(t, "25m", formatSeconds(1500))
	assert.Equal(t, "1h 05m", formatSeconds(3900))
}

func TestDateLabel(t *testing.T) {
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.Local)
	assert.Equal(t, "Today", dateLabel("2026-03-02", now))
	assert.Equal(t, "Yesterday", dateLabel("2026-03-01", now))
	assert.Equal(t, "2 days ago", dateLabel("2026-02-28", now))
	assert.Equal(t, "Tomorrow", dateLabel("2026-03-03", now))
	assert.Equal(t, "In 2 days", dateLabel("2026-03-04", now))
	assert.Equal(t, "10 Mar 2026", dateLabel("2026-03-10", now))
	assert.Equal(t, "garbage", dateLabel("garbage", now))
}

func TestGreeting(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2026, 3, 2, h, 0, 0, 0, time.Local) }
	head, _ := greeting(at(7))
	assert.Contains(t, head, "morning")
	head, _ = greeting(at(13))
	assert.Contains(t, head, "afternoon")
	head, _ = greeting(at(16))
	assert.Contains(t, head, "evening")
	head, _ = greeting(at(19))
	assert.Contains(t, head, "night")
	head, _ = greeting(at(2))
	assert.Contains(t, head, "Hello")
}

func TestShiftDate(t *testing.T) {
	assert.Equal(t, "2026-03-01", shiftDate("2026-02-28", 1))
	assert.Equal(t, "2025-12-31", shiftDate("2026-01-01", -1))
	assert.Equal(t, "bad", shiftDate("bad", 1))
}

// ============================================================
// App
// ============================================================

func newTestApp(t *testing.T, surface Surface) (App, *timerFixture) {
	t.Helper()
	f := newTimerFixture(t)
	app := NewApp(Options{
		Store:     f.store,
		Keeper:    f.keeper,
		Surface:   surface,
		Clock:     f.clock,
		Config:    config.Default(),
		ExportDir: t.TempDir(),
	})
	return app, f
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t, nil)
	assert.Equal(t, viewTimer, app.activeView)
	assert.NotEmpty(t, app.SurfaceID())
	assert.False(t, app.isFormActive())
	assert.Equal(t, "Loading...", app.View())
}

func TestAppViewShowsAllTabs(t *testing.T) {
	app, _ := newTestApp(t, nil)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := model.(App).View()
	for _, name := range viewNames {
		assert.Contains(t, view, name)
	}
	assert.Contains(t, view, "2 5 : 0 0")
}

func TestAppTabCycles(t *testing.T) {
	app, _ := newTestApp(t, nil)
	var model tea.Model = app
	for _, want := range []viewState{viewTasks, viewHistory, viewSettings, viewTimer} {
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyTab})
		assert.Equal(t, want, model.(App).activeView)
	}
}

func TestAppErrorStatusClears(t *testing.T) {
	app, _ := newTestApp(t, nil)
	model, cmd := app.Update(statusMsg{text: "boom", isError: true})
	require.NotNil(t, cmd)
	a := model.(App)
	assert.Equal(t, "boom", a.status)

	// A newer status is not cleared by the old timeout.
	model, _ = a.Update(statusMsg{text: "newer"})
	model, _ = model.Update(clearStatusMsg{seq: a.statusSeq})
	assert.Equal(t, "newer", model.(App).status)

	model, _ = model.Update(clearStatusMsg{seq: model.(App).statusSeq})
	assert.Empty(t, model.(App).status)
}

func TestAppAttachTracksDaemon(t *testing.T) {
	surface := &fakeSurface{}
	app, _ := newTestApp(t, surface)

	msg := app.attach()()
	model, cmd := app.Update(msg)
	assert.True(t, model.(App).daemonOnline)
	assert.NotNil(t, cmd)

	model, _ = model.Update(attachResultMsg{err: errors.New("connection refused")})
	assert.False(t, model.(App).daemonOnline)
}

func TestAppFocusRequestShowsTimer(t *testing.T) {
	app, _ := newTestApp(t, &fakeSurface{})
	app.activeView = viewHistory

	model, _ := app.Update(attachResultMsg{focus: true})
	assert.Equal(t, viewTimer, model.(App).activeView)
}

func TestAppFocusRequestReloadIsExclusive(t *testing.T) {
	app, _ := newTestApp(t, &fakeSurface{})
	app.pomodoro.busy = false
	app.pomodoro.perm = store.PermissionGranted

	model, cmd := app.Update(attachResultMsg{focus: true})
	require.NotNil(t, cmd)
	a := model.(App)
	assert.True(t, a.pomodoro.busy)

	// A start pressed while the reload is in flight is dropped.
	_, start := a.pomodoro.update(startKey())
	assert.Nil(t, start)

	// And a reload is not stacked on a command in flight.
	_, again := a.pomodoro.reactivate()
	assert.Nil(t, again)
}

func TestAppExport(t *testing.T) {
	app, f := newTestApp(t, nil)
	_, err := f.store.CreateTask(f.ctx, "2026-03-02", "ship it", "")
	require.NoError(t, err)

	msg, ok := app.doExport(exportFormats[1])().(exportDoneMsg)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(msg.path, "daytick-export-2026-03-02.json"))

	raw, err := os.ReadFile(msg.path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ship it")
}
