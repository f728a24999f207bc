// Package cli wires daytick's commands: the background daemon, the popup,
// the notification window and a few scripting helpers.
package cli

import (
	"errors"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sadopc/daytick/internal/clock"
	"github.com/sadopc/daytick/internal/config"
)

var errNoTerminal = errors.New("the popup needs an interactive terminal")

// App holds process-wide dependencies shared by every command.
type App struct {
	// ConfigPath is the --config flag; empty means the default location.
	ConfigPath string
	Clock      clock.Clock

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool
	// StyledOutput reports whether stdout should get colours.
	StyledOutput func() bool
}

func (app *App) loadConfig() (config.Config, error) {
	return config.Load(app.ConfigPath)
}

// childArgs are passed to processes daytick starts so they read the same
// configuration.
func (app *App) childArgs() []string {
	if app.ConfigPath == "" {
		return nil
	}
	return []string{"--config", app.ConfigPath}
}

// NewRootCmd creates the top-level "daytick" command. Run without a
// subcommand it opens the popup.
func NewRootCmd(app *App) *cobra.Command {
	if app.Clock == nil {
		app.Clock = clock.Real{}
	}
	if app.IsInteractive == nil {
		app.IsInteractive = func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		}
	}
	if app.StyledOutput == nil {
		app.StyledOutput = func() bool {
			return isatty.IsTerminal(os.Stdout.Fd())
		}
	}

	popup := newPopupCmd(app)
	root := &cobra.Command{
		Use:           "daytick",
		Short:         "Focus/break timer with a daily task list",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          popup.RunE,
	}
	root.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/daytick/config.yaml)")

	root.AddCommand(
		newDaemonCmd(app),
		popup,
		newNotifyCmd(app),
		newStartCmd(app),
		newStopCmd(app),
		newStatusCmd(app),
		newExportCmd(app),
		newConfigCmd(app),
	)

	return root
}
