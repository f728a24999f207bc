package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// LoadSession reads the timer session. Missing or malformed fields are
// defaulted and a session that violates its invariants (for example a
// Running state whose end time was already cleared) reads as Stopped.
func (s *Store) LoadSession(ctx context.Context) (Session, error) {
	raw, err := s.Get(ctx, SessionKeys...)
	if err != nil {
		return Session{Mode: ModeFocus, State: StateStopped}, fmt.Errorf("load session: %w", err)
	}

	sess := Session{Mode: ModeFocus, State: StateStopped}

	if str, ok := decodeString(raw[KeyTimerMode]); ok {
		if m, ok := ParseMode(str); ok {
			sess.Mode = m
		}
	}
	if ms, ok := decodeInt(raw[KeyTimerDuration]); ok && ms > 0 {
		sess.Duration = time.Duration(ms) * time.Millisecond
	}

	state, _ := decodeString(raw[KeyTimerState])
	endMs, hasEnd := decodeInt(raw[KeyTimerEndTime])
	remMs, hasRem := decodeInt(raw[KeyTimerRemaining])

	switch State(state) {
	case StateRunning:
		if hasEnd && endMs > 0 {
			sess.State = StateRunning
			sess.EndTime = time.UnixMilli(endMs)
		}
	case StatePaused:
		if hasRem && remMs > 0 {
			sess.State = StatePaused
			sess.Remaining = time.Duration(remMs) * time.Millisecond
		}
	}

	// A paused snapshot without a duration uses the snapshot itself. Running
	// sessions are left alone; callers size progress against EndTime.
	if sess.State == StatePaused && sess.Duration < sess.Remaining {
		sess.Duration = sess.Remaining
	}
	return sess, nil
}

// SaveRunning persists a Running session, dropping any paused snapshot.
func (s *Store) SaveRunning(ctx context.Context, mode Mode, duration time.Duration, endTime time.Time) error {
	err := s.update(ctx, map[string]any{
		KeyTimerEndTime:  endTime.UnixMilli(),
		KeyTimerMode:     string(mode),
		KeyTimerState:    string(StateRunning),
		KeyTimerDuration: duration.Milliseconds(),
	}, []string{KeyTimerRemaining})
	if err != nil {
		return fmt.Errorf("save running session: %w", err)
	}
	return nil
}

// ClearRunning removes the Running-specific fields. Mode and duration stay
// so a Paused snapshot can be written right after.
func (s *Store) ClearRunning(ctx context.Context) error {
	if err := s.Remove(ctx, KeyTimerEndTime, KeyTimerState); err != nil {
		return fmt.Errorf("clear running session: %w", err)
	}
	return nil
}

// SavePaused persists a Paused session with the remaining-time snapshot.
func (s *Store) SavePaused(ctx context.Context, mode Mode, duration, remaining time.Duration) error {
	err := s.update(ctx, map[string]any{
		KeyTimerMode:      string(mode),
		KeyTimerState:     string(StatePaused),
		KeyTimerDuration:  duration.Milliseconds(),
		KeyTimerRemaining: remaining.Milliseconds(),
	}, []string{KeyTimerEndTime})
	if err != nil {
		return fmt.Errorf("save paused session: %w", err)
	}
	return nil
}

// ClearSession removes every session key. It is idempotent.
func (s *Store) ClearSession(ctx context.Context) error {
	if err := s.Remove(ctx, SessionKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func decodeString(raw json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}

func decodeInt(raw json.RawMessage) (int64, bool) {
	if raw == nil {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return int64(f), true
}
