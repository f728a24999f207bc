package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sadopc/daytick/internal/logging"
	"github.com/sadopc/daytick/internal/notify"
	"github.com/sadopc/daytick/internal/protocol"
	"github.com/sadopc/daytick/internal/store"
	"github.com/sadopc/daytick/internal/ui/notifywin"
)

func newNotifyCmd(app *App) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Show the session-ended window (started by the daemon)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := store.ParseMode(mode)
			if !ok {
				return fmt.Errorf("unknown mode %q (want focus or break)", mode)
			}
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			action := &notify.Action{
				Focuser:    protocol.NewClient(cfg.SocketPath, 0),
				Terminal:   cfg.Terminal,
				Executable: exe,
				ExtraArgs:  app.childArgs(),
				Logger:     logger,
			}

			ctx := cmd.Context()
			notifywin.Show(
				notifywin.Config{Width: cfg.NotifyWidth, Height: cfg.NotifyHeight},
				notify.ContentFor(m),
				func() {
					if err := action.Run(ctx); err != nil {
						logger.Error("notification action failed", "err", err)
					}
				},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(store.ModeFocus), "Mode that just ended (focus or break)")
	return cmd
}
