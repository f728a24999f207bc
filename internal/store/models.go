package store

import "time"

// DateLayout is the format of task dates and history days.
const DateLayout = "2006-01-02"

// Mode selects the default duration of a session and the notification
// shown when it expires.
type Mode string

const (
	ModeFocus Mode = "focus"
	ModeBreak Mode = "break"
)

// ParseMode accepts "focus" or "break".
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeFocus, ModeBreak:
		return Mode(s), true
	}
	return "", false
}

// State is the lifecycle state of the timer session.
type State string

const (
	StateStopped State = "STOPPED"
	StateRunning State = "RUNNING"
	StatePaused  State = "PAUSED"
)

// Session is the single persisted timer session. EndTime is set only while
// Running and Remaining only while Paused.
type Session struct {
	Mode      Mode
	State     State
	Duration  time.Duration
	EndTime   time.Time
	Remaining time.Duration
}

// RemainingAt returns the time left at now. Running sessions always derive
// it from EndTime.
func (s Session) RemainingAt(now time.Time) time.Duration {
	switch s.State {
	case StateRunning:
		left := s.EndTime.Sub(now)
		if left < 0 {
			return 0
		}
		return left
	case StatePaused:
		return s.Remaining
	}
	return 0
}

// Permission mirrors the host notification permission states.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

type Task struct {
	ID          int64
	Date        string // YYYY-MM-DD
	Text        string
	Description string
	Completed   bool
	Pinned      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CompletedSession is one naturally expired timer session.
type CompletedSession struct {
	ID          int64
	Mode        Mode
	Duration    time.Duration
	Day         string // local YYYY-MM-DD
	CompletedAt time.Time
}

// DailySummary aggregates completed sessions per day and mode.
type DailySummary struct {
	Day          string
	Mode         Mode
	Count        int
	TotalSeconds int64
}
