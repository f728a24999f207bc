package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
)

// ErrNoTerminal means no launcher command is configured for the fallback.
var ErrNoTerminal = errors.New("no terminal launcher configured")

// Focuser asks the daemon to raise an attached popup.
type Focuser interface {
	FocusPopup(ctx context.Context) error
}

// Action is what the notification button does: bring an attached popup to
// the front, or open a new popup in a terminal window.
type Action struct {
	Focuser Focuser
	// Terminal is the launcher prefix, e.g. ["x-terminal-emulator", "-e"].
	Terminal   []string
	Executable string
	ExtraArgs  []string
	Logger     *slog.Logger

	start StartFunc
}

// Run performs the action. It reports an error only when neither path
// worked.
func (a *Action) Run(ctx context.Context) error {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if a.Focuser != nil {
		err := a.Focuser.FocusPopup(ctx)
		if err == nil {
			logger.Info("focused attached popup")
			return nil
		}
		logger.Info("no popup to focus, opening a window", "reason", err)
	}

	if len(a.Terminal) == 0 {
		return ErrNoTerminal
	}
	args := append([]string{}, a.Terminal[1:]...)
	args = append(args, a.Executable, "popup")
	args = append(args, a.ExtraArgs...)
	cmd := exec.Command(a.Terminal[0], args...)

	start := a.start
	if start == nil {
		start = func(cmd *exec.Cmd) error { return cmd.Start() }
	}
	if err := start(cmd); err != nil {
		return fmt.Errorf("open popup window: %w", err)
	}
	return nil
}
