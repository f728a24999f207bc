package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sadopc/daytick/internal/config"
	"github.com/sadopc/daytick/internal/logging"
	"github.com/sadopc/daytick/internal/notify"
	"github.com/sadopc/daytick/internal/protocol"
	"github.com/sadopc/daytick/internal/store"
	"github.com/sadopc/daytick/internal/timekeeper"
)

func newDaemonCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the background timekeeper",
		Long: "Run the background timekeeper. It owns the wake-up alarm, answers\n" +
			"the popup over a Unix socket and opens the notification window when\n" +
			"a session ends.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, app, cfg, cmd.ErrOrStderr())
		},
	}
}

// runDaemon serves until ctx is cancelled.
func runDaemon(ctx context.Context, app *App, cfg config.Config, stderr io.Writer) error {
	logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	ln, err := protocol.Listen(cfg.SocketPath)
	if errors.Is(err, protocol.ErrAlreadyRunning) {
		return fmt.Errorf("%w on %s", err, cfg.SocketPath)
	}
	if err != nil {
		return err
	}

	launcher, err := notify.NewLauncher(app.childArgs(), logger)
	if err != nil {
		ln.Close()
		return err
	}

	keeper := timekeeper.New(st, launcher, app.Clock, logger, timekeeper.Config{SurfaceLease: cfg.SurfaceLease})
	server := protocol.NewServer(ln, keeper, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 2)
	go func() { errc <- keeper.Run(ctx) }()
	go func() { errc <- server.Serve(ctx) }()
	logger.Info("daemon started", "socket", cfg.SocketPath, "db", cfg.DBPath)

	// Either one stopping takes the other down.
	first := <-errc
	cancel()
	second := <-errc

	logger.Info("daemon stopped")
	return errors.Join(first, second)
}
