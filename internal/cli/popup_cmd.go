package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/daytick/internal/logging"
	"github.com/sadopc/daytick/internal/protocol"
	"github.com/sadopc/daytick/internal/store"
	"github.com/sadopc/daytick/internal/tui"
)

func newPopupCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "popup",
		Short: "Open the timer and task popup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.IsInteractive() {
				return errNoTerminal
			}
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}

			// The terminal belongs to the UI; logs only go to a file.
			logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile, nil)
			if err != nil {
				return err
			}
			defer closeLog()

			st, err := store.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer st.Close()

			exportDir, err := os.UserHomeDir()
			if err != nil {
				exportDir = "."
			}

			client := protocol.NewClient(cfg.SocketPath, cfg.Heartbeat)
			model := tui.NewApp(tui.Options{
				Store:     st,
				Keeper:    client,
				Surface:   client,
				Clock:     app.Clock,
				Config:    cfg,
				Logger:    logger,
				ExportDir: exportDir,
			})

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, runErr := p.Run()

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := client.Detach(ctx, model.SurfaceID()); err != nil {
				logger.Debug("detach on exit", "err", err)
			}
			return runErr
		},
	}
}
