// Package notify decides what the expiry notification says, launches the
// notification window process and performs its action.
package notify

import "github.com/sadopc/daytick/internal/store"

// Content is what the notification window shows for one expired mode.
type Content struct {
	Icon    string
	Title   string
	Message string
	Button  string
	// Accent marks the break-over variant, drawn with the pin colour.
	Accent bool
}

// ContentFor returns the notification for an expired session of mode. Any
// mode other than break is treated as focus.
func ContentFor(mode store.Mode) Content {
	if mode == store.ModeBreak {
		return Content{
			Icon:    "🎯",
			Title:   "Break is over",
			Message: "Back to it — finish your tasks!",
			Button:  "Open daytick",
			Accent:  true,
		}
	}
	return Content{
		Icon:    "☕",
		Title:   "Time for a break",
		Message: "Nice work! Take a short break.",
		Button:  "Open daytick",
	}
}
