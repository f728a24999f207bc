package tui

import (
	"fmt"
	"math"
	"time"

	"github.com/sadopc/daytick/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewTasks
	viewHistory
	viewSettings
)

var viewNames = []string{"Timer", "Tasks", "History", "Settings"}

// --- Messages ---

// redrawMsg drives the countdown; gen must match the timer's.
type redrawMsg struct {
	gen int
}

// graceDoneMsg ends the 00:00 display after expiry.
type graceDoneMsg struct {
	gen int
}

// timerResultMsg carries a timer updated by a command run off the UI loop.
type timerResultMsg struct {
	timer timerModel
	op    string
	err   error
}

type heartbeatMsg struct{}

type attachResultMsg struct {
	focus bool
	err   error
}

type permissionMsg struct {
	perm store.Permission
}

type statusMsg struct {
	text    string
	isError bool
}

// clearStatusMsg hides a transient status if it is still the current one.
type clearStatusMsg struct {
	seq int
}

type clockMsg time.Time

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

// formatClock renders d as MM:SS, rounding partial seconds up so the
// display reads 00:01 until the countdown really ends.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func formatSeconds(secs int64) string {
	d := time.Duration(secs) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// dateLabel names dateKey relative to today.
func dateLabel(dateKey string, now time.Time) string {
	target, err := time.ParseInLocation(store.DateLayout, dateKey, now.Location())
	if err != nil {
		return dateKey
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch days := int(math.Round(midnight.Sub(target).Hours() / 24)); days {
	case 0:
		return "Today"
	case 1:
		return "Yesterday"
	case 2:
		return "2 days ago"
	case -1:
		return "Tomorrow"
	case -2:
		return "In 2 days"
	}
	return target.Format("2 Jan 2006")
}

// greeting returns a headline and a nudge for the hour of now.
func greeting(now time.Time) (string, string) {
	switch h := now.Hour(); {
	case h >= 5 && h < 12:
		return "Good morning! ☀️", "Start strong. Check today's tasks."
	case h >= 12 && h < 15:
		return "Good afternoon! 🌤️", "Stay focused, you're halfway through the day."
	case h >= 15 && h < 18:
		return "Good evening! 🌅", "Wrap up your tasks before night falls."
	case h >= 18 && h < 21:
		return "Good night! 🌙", "Busy evening. Don't forget to rest."
	}
	return "Hello! 🌟", "Finish your tasks and get some rest."
}

func today(now time.Time) string {
	return now.Format(store.DateLayout)
}

func shiftDate(dateKey string, days int) string {
	d, err := time.Parse(store.DateLayout, dateKey)
	if err != nil {
		return dateKey
	}
	return d.AddDate(0, 0, days).Format(store.DateLayout)
}
