// Package timekeeper is the background authority for the timer session. It
// owns the single wake-up alarm and decides, when the alarm fires, whether a
// notification window must be shown.
package timekeeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sadopc/daytick/internal/alarm"
	"github.com/sadopc/daytick/internal/clock"
	"github.com/sadopc/daytick/internal/protocol"
	"github.com/sadopc/daytick/internal/store"
)

// AlarmName is the one wake-up alarm the timekeeper arms.
const AlarmName = "daytick-timer"

// ErrStopped is returned for commands sent after Run has returned.
var ErrStopped = errors.New("timekeeper stopped")

// Store is the persisted state the timekeeper reads and writes.
type Store interface {
	LoadSession(ctx context.Context) (store.Session, error)
	SaveRunning(ctx context.Context, mode store.Mode, duration time.Duration, endTime time.Time) error
	ClearRunning(ctx context.Context) error
	ClearSession(ctx context.Context) error
	NotificationPermission(ctx context.Context) (store.Permission, error)
	RecordCompletion(ctx context.Context, mode store.Mode, duration time.Duration, at time.Time) error
}

// Alarms arms and clears named single-shot alarms.
type Alarms interface {
	Create(name string, delayMinutes float64) error
	Clear(name string) bool
	Get(name string) (time.Time, bool)
}

// Notifier raises the notification surface for an expired session.
type Notifier interface {
	Notify(ctx context.Context, mode store.Mode) error
}

// Config contains runtime options for the Timekeeper.
type Config struct {
	// SurfaceLease is how long an attach keeps a surface counted as open.
	SurfaceLease time.Duration
	QueueSize    int
}

// Timekeeper serialises every command and every alarm on one loop goroutine.
type Timekeeper struct {
	store    Store
	notifier Notifier
	clock    clock.Clock
	logger   *slog.Logger
	options  Config

	alarms   Alarms
	surfaces *surfaceRegistry

	events chan func(context.Context)
	done   chan struct{}
}

// New creates a Timekeeper backed by an alarm.Manager on c.
func New(st Store, notifier Notifier, c clock.Clock, logger *slog.Logger, options Config) *Timekeeper {
	if options.SurfaceLease <= 0 {
		options.SurfaceLease = 10 * time.Second
	}
	if options.QueueSize <= 0 {
		options.QueueSize = 16
	}
	if logger == nil {
		logger = slog.Default()
	}

	keeper := &Timekeeper{
		store:    st,
		notifier: notifier,
		clock:    c,
		logger:   logger,
		options:  options,
		surfaces: newSurfaceRegistry(options.SurfaceLease),
		events:   make(chan func(context.Context), options.QueueSize),
		done:     make(chan struct{}),
	}
	keeper.alarms = alarm.New(c, keeper.OnAlarm)
	return keeper
}

// SetAlarms replaces the alarm backend. Call before Run. The backend must
// call OnAlarm when an alarm fires.
func (keeper *Timekeeper) SetAlarms(a Alarms) {
	keeper.alarms = a
}

// Run restores any running session and processes events until ctx is done.
func (keeper *Timekeeper) Run(ctx context.Context) error {
	defer close(keeper.done)
	if closer, ok := keeper.alarms.(interface{ Close() }); ok {
		defer closer.Close()
	}

	keeper.restore(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-keeper.events:
			fn(ctx)
		}
	}
}

// OnAlarm is the alarm callback. It may run on any goroutine.
func (keeper *Timekeeper) OnAlarm(name string) {
	if name != AlarmName {
		return
	}
	select {
	case keeper.events <- keeper.onAlarmEvent:
	case <-keeper.done:
	}
}

// onAlarmEvent runs the wakeup unless a command queued ahead of it armed a
// new alarm. A fired alarm is no longer armed, so an armed one is newer.
func (keeper *Timekeeper) onAlarmEvent(ctx context.Context) {
	if at, armed := keeper.alarms.Get(AlarmName); armed {
		keeper.logger.Info("stale wakeup ignored", "next", at.Format(time.RFC3339))
		return
	}
	keeper.onWakeupFired(ctx)
}

// Sync returns once every event queued before it has been processed.
func (keeper *Timekeeper) Sync(ctx context.Context) error {
	return keeper.do(ctx, func(context.Context) error { return nil })
}

// StartTimer persists a Running session ending minutes from now and arms the
// wake-up. Any previous session is overwritten.
func (keeper *Timekeeper) StartTimer(ctx context.Context, minutes float64, mode store.Mode, duration time.Duration) error {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		return fmt.Errorf("%w: minutes must be positive, got %v", protocol.ErrBadRequest, minutes)
	}
	if duration <= 0 {
		duration = minutesToDuration(minutes)
	}
	return keeper.do(ctx, func(ctx context.Context) error {
		return keeper.startTimer(ctx, minutes, mode, duration)
	})
}

// StopTimer clears the wake-up and the running fields. It succeeds when no
// timer is armed.
func (keeper *Timekeeper) StopTimer(ctx context.Context) error {
	return keeper.do(ctx, keeper.stopTimer)
}

func (keeper *Timekeeper) startTimer(ctx context.Context, minutes float64, mode store.Mode, duration time.Duration) error {
	now := keeper.clock.Now()
	endTime := now.Add(minutesToDuration(minutes))

	if err := keeper.store.SaveRunning(ctx, mode, duration, endTime); err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrStorage, err)
	}
	if err := keeper.alarms.Create(AlarmName, minutes); err != nil {
		if clearErr := keeper.store.ClearRunning(ctx); clearErr != nil {
			keeper.logger.Error("roll back running session", "error", clearErr)
		}
		return fmt.Errorf("%w: %w", protocol.ErrScheduling, err)
	}

	keeper.logger.Info("timer started",
		"mode", mode,
		"minutes", minutes,
		"duration_ms", duration.Milliseconds(),
		"end_time", endTime.Format(time.RFC3339),
	)
	return nil
}

func (keeper *Timekeeper) stopTimer(ctx context.Context) error {
	cleared := keeper.alarms.Clear(AlarmName)
	if err := keeper.store.ClearRunning(ctx); err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrStorage, err)
	}
	keeper.logger.Info("timer stopped", "alarm_cleared", cleared)
	return nil
}

// onWakeupFired handles the expiry of the armed alarm. Cleanup writes are
// fire-and-forget; failures are logged only.
func (keeper *Timekeeper) onWakeupFired(ctx context.Context) {
	now := keeper.clock.Now()

	sess, err := keeper.store.LoadSession(ctx)
	if err != nil {
		keeper.logger.Error("read session on wakeup", "error", err)
	}
	mode := sess.Mode
	if mode == "" {
		mode = store.ModeFocus
	}

	if open := keeper.surfaces.open(now); open > 0 {
		keeper.logger.Info("timer expired, surface open", "mode", mode, "surfaces", open)
	} else {
		keeper.notify(ctx, mode)
	}

	if err := keeper.store.ClearSession(ctx); err != nil {
		keeper.logger.Error("clear session on wakeup", "error", err)
	}
	if sess.State == store.StateRunning {
		if err := keeper.store.RecordCompletion(ctx, mode, sess.Duration, now); err != nil {
			keeper.logger.Error("record completion", "error", err)
		}
	}
}

func (keeper *Timekeeper) notify(ctx context.Context, mode store.Mode) {
	perm, err := keeper.store.NotificationPermission(ctx)
	if err != nil {
		keeper.logger.Error("read notification permission", "error", err)
	}
	if perm == store.PermissionDenied {
		keeper.logger.Info("timer expired, notifications denied", "mode", mode)
		return
	}
	if keeper.notifier == nil {
		return
	}
	if err := keeper.notifier.Notify(ctx, mode); err != nil {
		keeper.logger.Error("show notification", "mode", mode, "error", err)
		return
	}
	keeper.logger.Info("timer expired, notification shown", "mode", mode)
}

// restore re-arms a session that was running when the daemon last exited,
// or expires it if its end time has passed.
func (keeper *Timekeeper) restore(ctx context.Context) {
	sess, err := keeper.store.LoadSession(ctx)
	if err != nil {
		keeper.logger.Error("restore session", "error", err)
		return
	}
	if sess.State != store.StateRunning {
		return
	}

	left := sess.EndTime.Sub(keeper.clock.Now())
	if left <= 0 {
		keeper.logger.Info("restored session already expired", "end_time", sess.EndTime.Format(time.RFC3339))
		keeper.onWakeupFired(ctx)
		return
	}
	if err := keeper.alarms.Create(AlarmName, left.Minutes()); err != nil {
		keeper.logger.Error("re-arm restored session", "error", err)
		return
	}
	keeper.logger.Info("restored running session", "mode", sess.Mode, "remaining_ms", left.Milliseconds())
}

func (keeper *Timekeeper) do(ctx context.Context, fn func(context.Context) error) error {
	result := make(chan error, 1)
	event := func(loopCtx context.Context) { result <- fn(loopCtx) }

	select {
	case keeper.events <- event:
	case <-keeper.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-keeper.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func minutesToDuration(minutes float64) time.Duration {
	return time.Duration(math.Round(minutes * float64(time.Minute)))
}
