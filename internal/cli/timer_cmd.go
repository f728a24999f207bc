package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sadopc/daytick/internal/protocol"
	"github.com/sadopc/daytick/internal/store"
)

func newStartCmd(app *App) *cobra.Command {
	var minutes float64
	var mode string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a timer through the daemon",
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
			if !cmd.Flags().Changed("minutes") {
				minutes = cfg.DurationFor(m).Minutes()
			}

			client := protocol.NewClient(cfg.SocketPath, 0)
			if err := client.StartTimer(cmd.Context(), minutes, string(m), 0); err != nil {
				return explainDaemonErr(err)
			}

			end := app.Clock.Now().Add(time.Duration(minutes * float64(time.Minute)))
			fmt.Fprintf(cmd.OutOrStdout(), "%s timer started, ends at %s\n", modeTitle(m), end.Format("15:04:05"))
			return nil
		},
	}

	cmd.Flags().Float64Var(&minutes, "minutes", 0, "Length in minutes (default from config)")
	cmd.Flags().StringVar(&mode, "mode", string(store.ModeFocus), "focus or break")
	return cmd
}

func newStopCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			client := protocol.NewClient(cfg.SocketPath, 0)
			if err := client.StopTimer(cmd.Context()); err != nil {
				return explainDaemonErr(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Timer stopped")
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the timer session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			now := app.Clock.Now()

			client := protocol.NewClient(cfg.SocketPath, 0)
			resp, err := client.Status(cmd.Context())
			var view statusView
			switch {
			case err == nil:
				view = viewFromResponse(resp, now)
			case errors.Is(err, protocol.ErrUnavailable):
				// Without the daemon the store still tells the truth.
				st, openErr := store.New(cfg.DBPath)
				if openErr != nil {
					return fmt.Errorf("opening database: %w", openErr)
				}
				defer st.Close()
				sess, loadErr := st.LoadSession(cmd.Context())
				if loadErr != nil {
					return loadErr
				}
				view = viewFromSession(sess, now)
			case err != nil:
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatStatus(view, app.StyledOutput()))
			return nil
		},
	}
}

type statusView struct {
	Daemon    bool
	Surfaces  int
	Mode      store.Mode
	State     store.State
	Remaining time.Duration
	EndTime   time.Time
}

// viewFromResponse reads a daemon status reply. A reply without a session
// still means the daemon is up with nothing running.
func viewFromResponse(resp protocol.Response, now time.Time) statusView {
	if resp.Session == nil {
		return statusView{
			Daemon:   true,
			Surfaces: resp.Surfaces,
			Mode:     store.ModeFocus,
			State:    store.StateStopped,
		}
	}
	return viewFromInfo(*resp.Session, resp.Surfaces, now)
}

func viewFromInfo(info protocol.SessionInfo, surfaces int, now time.Time) statusView {
	v := statusView{
		Daemon:    true,
		Surfaces:  surfaces,
		Mode:      store.Mode(info.Mode),
		State:     store.State(info.State),
		Remaining: time.Duration(info.RemainingMs) * time.Millisecond,
	}
	if info.EndTimeMs > 0 {
		v.EndTime = time.UnixMilli(info.EndTimeMs)
		v.Remaining = max(0, v.EndTime.Sub(now))
	}
	return v
}

func viewFromSession(sess store.Session, now time.Time) statusView {
	return statusView{
		Mode:      sess.Mode,
		State:     sess.State,
		Remaining: sess.RemainingAt(now),
		EndTime:   sess.EndTime,
	}
}

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Width(10)
	runningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2ECC71"))
	pausedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F39C12"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
)

func formatStatus(v statusView, styled bool) string {
	render := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}
	label := func(text string) string {
		if !styled {
			return fmt.Sprintf("%-10s", text)
		}
		return labelStyle.Render(text)
	}

	var b strings.Builder
	daemon := "running"
	if !v.Daemon {
		daemon = render(offlineStyle, "not running")
	}
	fmt.Fprintf(&b, "%s%s\n", label("Daemon"), daemon)

	state := "stopped"
	switch v.State {
	case store.StateRunning:
		state = render(runningStyle, "running")
	case store.StatePaused:
		state = render(pausedStyle, "paused")
	}
	fmt.Fprintf(&b, "%s%s %s\n", label("Timer"), modeTitle(v.Mode), state)

	if v.State == store.StateRunning || v.State == store.StatePaused {
		fmt.Fprintf(&b, "%s%s\n", label("Left"), clockString(v.Remaining))
	}
	if v.State == store.StateRunning && !v.EndTime.IsZero() {
		fmt.Fprintf(&b, "%s%s\n", label("Ends"), v.EndTime.Local().Format("15:04:05"))
	}
	if v.Daemon {
		fmt.Fprintf(&b, "%s%d\n", label("Popups"), v.Surfaces)
	}
	return b.String()
}

func modeTitle(m store.Mode) string {
	if m == store.ModeBreak {
		return "Break"
	}
	return "Focus"
}

func clockString(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// explainDaemonErr adds a hint when the daemon is not running.
func explainDaemonErr(err error) error {
	if errors.Is(err, protocol.ErrUnavailable) {
		return fmt.Errorf("%w (start it with `daytick daemon`)", err)
	}
	return err
}
