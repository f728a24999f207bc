package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/sadopc/daytick/internal/store"
)

// StartFunc starts cmd without waiting for it.
type StartFunc func(cmd *exec.Cmd) error

// Launcher opens the notification window as a child process running
// `<executable> notify --mode=<mode>`.
type Launcher struct {
	Executable string
	// ExtraArgs are appended after the mode flag, e.g. a --config path.
	ExtraArgs []string
	Logger    *slog.Logger

	start StartFunc
}

// NewLauncher returns a launcher for the running binary.
func NewLauncher(extraArgs []string, logger *slog.Logger) (*Launcher, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{Executable: self, ExtraArgs: extraArgs, Logger: logger}, nil
}

// Notify starts the window for mode and returns once the process is running.
func (l *Launcher) Notify(_ context.Context, mode store.Mode) error {
	args := append([]string{"notify", "--mode=" + string(mode)}, l.ExtraArgs...)
	cmd := exec.Command(l.Executable, args...)
	if err := l.startFunc()(cmd); err != nil {
		return fmt.Errorf("launch notification window: %w", err)
	}
	return nil
}

func (l *Launcher) startFunc() StartFunc {
	if l.start != nil {
		return l.start
	}
	return l.startDetached
}

// startDetached starts cmd and reaps it in the background.
func (l *Launcher) startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil && l.Logger != nil {
			l.Logger.Warn("notification window exited", "error", err)
		}
	}()
	return nil
}
