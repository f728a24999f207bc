package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/daytick/internal/clock"
	"github.com/sadopc/daytick/internal/store"
)

var (
	errTimerRunning = errors.New("stop or pause the timer first")
	errNoTimeLeft   = errors.New("no time left to run")
)

// Keeper is the daemon command surface the timer needs. *protocol.Client
// satisfies it.
type Keeper interface {
	StartTimer(ctx context.Context, minutes float64, mode string, durationMs int64) error
	StopTimer(ctx context.Context) error
}

// SessionStore is the persisted session as seen from the popup.
type SessionStore interface {
	LoadSession(ctx context.Context) (store.Session, error)
	SavePaused(ctx context.Context, mode store.Mode, duration, remaining time.Duration) error
	ClearSession(ctx context.Context) error
}

// Durations supplies the default session length per mode.
type Durations func(store.Mode) time.Duration

// timerModel manages the timing logic separate from display. It keeps no
// state across popup activations beyond what it reads from the store.
type timerModel struct {
	store     SessionStore
	keeper    Keeper
	clock     clock.Clock
	durations Durations

	mode      store.Mode
	state     store.State
	duration  time.Duration
	remaining time.Duration
	// endTime is the local cache of the persisted end time while running.
	endTime time.Time
	// expired is set between reaching zero and the local reset.
	expired bool

	// gen tags redraw ticks; bumping it orphans any tick in flight.
	gen int
}

func newTimerModel(s SessionStore, k Keeper, c clock.Clock, d Durations) timerModel {
	t := timerModel{store: s, keeper: k, clock: c, durations: d, mode: store.ModeFocus}
	t.resetLocal()
	return t
}

// activate rebuilds the display state from the persisted session. Read
// failures leave the timer stopped and are returned for display.
func (t *timerModel) activate(ctx context.Context) error {
	sess, err := t.store.LoadSession(ctx)
	if err != nil {
		t.mode = store.ModeFocus
		t.resetLocal()
		return fmt.Errorf("read session: %w", err)
	}

	t.mode = sess.Mode
	if t.mode == "" {
		t.mode = store.ModeFocus
	}

	now := t.clock.Now()
	switch {
	case sess.State == store.StateRunning && sess.EndTime.After(now):
		t.state = store.StateRunning
		t.endTime = sess.EndTime
		t.remaining = sess.EndTime.Sub(now)
		t.duration = sess.Duration
		if t.duration < t.remaining {
			t.duration = t.remaining
		}
		t.expired = false
		t.gen++
	case sess.State == store.StatePaused:
		t.state = store.StatePaused
		t.remaining = sess.Remaining
		t.duration = sess.Duration
		t.endTime = time.Time{}
		t.expired = false
		t.gen++
	default:
		t.resetLocal()
	}
	return nil
}

// start begins or resumes the countdown. The daemon is asked first; the
// local state only changes once it has accepted.
func (t *timerModel) start(ctx context.Context) error {
	if t.state == store.StateRunning {
		return nil
	}
	if t.remaining <= 0 {
		return errNoTimeLeft
	}

	minutes := t.remaining.Minutes()
	if err := t.keeper.StartTimer(ctx, minutes, string(t.mode), t.duration.Milliseconds()); err != nil {
		return err
	}
	t.state = store.StateRunning
	t.endTime = t.clock.Now().Add(t.remaining)
	t.expired = false
	t.gen++
	return nil
}

// pause snapshots the remaining time, stops the daemon's wake-up and
// persists the paused session.
func (t *timerModel) pause(ctx context.Context) error {
	if t.state != store.StateRunning || t.expired {
		return nil
	}
	snapshot := t.endTime.Sub(t.clock.Now())
	if snapshot <= 0 {
		// Too late to pause; let the grace display and local reset run.
		t.remaining = 0
		t.expired = true
		t.gen++
		return nil
	}

	if err := t.keeper.StopTimer(ctx); err != nil {
		return err
	}
	if err := t.store.SavePaused(ctx, t.mode, t.duration, snapshot); err != nil {
		// Put the daemon back so the session is not lost.
		rearmErr := t.keeper.StartTimer(ctx, snapshot.Minutes(), string(t.mode), t.duration.Milliseconds())
		if rearmErr == nil {
			t.endTime = t.clock.Now().Add(snapshot)
			return fmt.Errorf("save paused session: %w", err)
		}
		t.state = store.StatePaused
		t.remaining = snapshot
		t.gen++
		return errors.Join(fmt.Errorf("save paused session: %w", err), rearmErr)
	}

	t.state = store.StatePaused
	t.remaining = snapshot
	t.endTime = time.Time{}
	t.gen++
	return nil
}

// reset stops everything and restores the mode's default. The timer ends
// up stopped even when an error is returned.
func (t *timerModel) reset(ctx context.Context) error {
	stopErr := t.keeper.StopTimer(ctx)
	t.resetLocal()
	clearErr := t.store.ClearSession(ctx)
	if clearErr != nil {
		clearErr = fmt.Errorf("clear session: %w", clearErr)
	}
	return errors.Join(stopErr, clearErr)
}

// setMode switches between focus and break. Only allowed while stopped; it
// resets to the new mode's default.
func (t *timerModel) setMode(ctx context.Context, mode store.Mode) error {
	if t.state != store.StateStopped {
		return errTimerRunning
	}
	t.mode = mode
	return t.reset(ctx)
}

// editDuration sets a new length while stopped or paused. Zero resets.
func (t *timerModel) editDuration(ctx context.Context, d time.Duration) error {
	if t.state == store.StateRunning {
		return errTimerRunning
	}
	if d <= 0 {
		return t.reset(ctx)
	}
	if t.state == store.StatePaused {
		if err := t.store.SavePaused(ctx, t.mode, d, d); err != nil {
			return fmt.Errorf("save paused session: %w", err)
		}
	}
	t.duration = d
	t.remaining = d
	return nil
}

// tick recomputes the remaining time. It reports true when the countdown
// has just reached zero; the redraw loop is stopped at that point.
func (t *timerModel) tick() bool {
	if t.state != store.StateRunning || t.expired {
		return false
	}
	t.remaining = t.endTime.Sub(t.clock.Now())
	if t.remaining > 0 {
		return false
	}
	t.remaining = 0
	t.expired = true
	t.gen++
	return true
}

// resetLocal restores the mode's default without touching the daemon or
// the store.
func (t *timerModel) resetLocal() {
	t.state = store.StateStopped
	t.duration = t.durations(t.mode)
	t.remaining = t.duration
	t.endTime = time.Time{}
	t.expired = false
	t.gen++
}

func (t timerModel) running() bool { return t.state == store.StateRunning }

func (t timerModel) paused() bool { return t.state == store.StatePaused }

// progress is the elapsed fraction of the session.
func (t timerModel) progress() float64 {
	if t.duration <= 0 {
		return 0
	}
	p := 1 - float64(t.remaining)/float64(t.duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
