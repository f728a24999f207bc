package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/sadopc/daytick/internal/clock"
	"github.com/sadopc/daytick/internal/config"
	"github.com/sadopc/daytick/internal/export"
	"github.com/sadopc/daytick/internal/logging"
	"github.com/sadopc/daytick/internal/store"
)

// SurfaceKind is how the popup registers with the daemon.
const SurfaceKind = "popup"

// Surface registers the popup as an open surface. *protocol.Client
// satisfies it.
type Surface interface {
	Attach(ctx context.Context, surface, id string) (bool, error)
	Detach(ctx context.Context, id string) error
}

// Options wires the popup to its collaborators.
type Options struct {
	Store   *store.Store
	Keeper  Keeper
	Surface Surface
	Clock   clock.Clock
	Config  config.Config
	Logger  *slog.Logger
	// ExportDir receives files written by the export picker.
	ExportDir string
}

var exportFormats = []export.Format{export.FormatCSV, export.FormatJSON}

// App is the root Bubble Tea model.
type App struct {
	store     *store.Store
	surface   Surface
	clock     clock.Clock
	cfg       config.Config
	logger    *slog.Logger
	exportDir string
	surfaceID string

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	pomodoro  pomodoroModel
	dashboard dashboardModel
	reports   reportsModel
	settings  settingsModel

	help help.Model

	status    string
	statusErr bool
	statusSeq int

	daemonOnline bool
	day          string
}

func NewApp(opts Options) App {
	c := opts.Clock
	if c == nil {
		c = clock.Real{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	cfg := opts.Config

	// Socket and store calls must finish well inside one heartbeat.
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 3 * time.Second
	}
	timeout := cfg.Heartbeat

	h := help.New()
	h.ShowAll = false

	timer := newTimerModel(opts.Store, opts.Keeper, c, cfg.DurationFor)
	return App{
		store:     opts.Store,
		surface:   opts.Surface,
		clock:     c,
		cfg:       cfg,
		logger:    logger,
		exportDir: opts.ExportDir,
		surfaceID: uuid.NewString(),

		activeView: viewTimer,
		pomodoro:   newPomodoroModel(timer, opts.Store, cfg.RedrawTick, cfg.GracePeriod, timeout),
		dashboard:  newDashboardModel(opts.Store, c, cfg.RetentionDays),
		reports:    newReportsModel(opts.Store, c),
		settings:   newSettingsModel(opts.Store, cfg, timeout),
		help:       h,
		day:        today(c.Now()),
	}
}

// SurfaceID identifies this popup to the daemon; callers detach it on exit.
func (a App) SurfaceID() string {
	return a.surfaceID
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.pomodoro.activate(),
		a.dashboard.activate(),
		a.attach(),
		clockCmd(),
	)
}

func clockCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// attach renews the popup's lease with the daemon.
func (a App) attach() tea.Cmd {
	if a.surface == nil {
		return nil
	}
	surface, id, timeout := a.surface, a.surfaceID, a.pomodoro.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		focus, err := surface.Attach(ctx, SurfaceKind, id)
		return attachResultMsg{focus: focus, err: err}
	}
}

func (a App) heartbeat() tea.Cmd {
	return tea.Tick(a.cfg.Heartbeat, func(time.Time) tea.Msg {
		return heartbeatMsg{}
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.pomodoro.setSize(a.width, contentHeight)
		a.dashboard.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A child form captures every key, including the global ones.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewTimer)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewTasks)
		case key.Matches(msg, keys.Tab3):
			return a.switchView(viewHistory)
		case key.Matches(msg, keys.Tab4):
			return a.switchView(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchView((a.activeView + 1) % viewState(len(viewNames)))
		}
		return a.updateActiveView(msg)

	case timerResultMsg, redrawMsg, graceDoneMsg:
		var cmd tea.Cmd
		a.pomodoro, cmd = a.pomodoro.update(msg)
		return a, cmd

	case permissionMsg:
		var cmd tea.Cmd
		a.pomodoro, cmd = a.pomodoro.update(msg)
		a.settings, _ = a.settings.update(msg)
		return a, cmd

	case dashboardDataMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd

	case reportsDataMsg:
		var cmd tea.Cmd
		a.reports, cmd = a.reports.update(msg)
		return a, cmd

	case heartbeatMsg:
		return a, a.attach()

	case attachResultMsg:
		return a.handleAttach(msg)

	case clockMsg:
		cmds := []tea.Cmd{clockCmd()}
		// Past midnight the task list purges and moves to the new day.
		if day := today(time.Time(msg)); day != a.day {
			a.day = day
			cmds = append(cmds, a.dashboard.activate(), a.reports.refresh())
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.statusSeq++
		a.status = msg.text
		a.statusErr = msg.isError
		if msg.isError {
			a.logger.Warn("popup error", "status", msg.text)
			seq := a.statusSeq
			return a, tea.Tick(a.cfg.ErrorDisplay, func(time.Time) tea.Msg {
				return clearStatusMsg{seq: seq}
			})
		}
		return a, nil

	case clearStatusMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
			a.statusErr = false
		}
		return a, nil

	case exportDoneMsg:
		a.exportPicking = false
		return a, statusCmd("Exported to "+msg.path, false)
	}

	return a.updateActiveView(msg)
}

func (a App) handleAttach(msg attachResultMsg) (tea.Model, tea.Cmd) {
	next := a.heartbeat()
	if msg.err != nil {
		if a.daemonOnline {
			a.logger.Warn("lost daemon", "err", msg.err)
		}
		a.daemonOnline = false
		return a, next
	}
	a.daemonOnline = true
	if !msg.focus {
		return a, next
	}
	// The notification window asked for this popup; bring the timer forward.
	a.activeView = viewTimer
	a.exportPicking = false
	var reload tea.Cmd
	a.pomodoro, reload = a.pomodoro.reactivate()
	return a, tea.Batch(next, statusCmd("Timer finished", false), reload)
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.pomodoro, cmd = a.pomodoro.update(msg)
	case viewTasks:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewHistory:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimer:
		return a.pomodoro.formActive()
	case viewTasks:
		return a.dashboard.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTasks:
		return a.dashboard.refresh()
	case viewHistory:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.pomodoro.view()
	case viewTasks:
		content = a.dashboard.view()
	case viewHistory:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}
	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("daytick")
	if !a.daemonOnline {
		title += errorStyle.Render(" · daemon offline")
	}
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	left := footerStyle.Render(a.help.View(keys))

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Timer indicator, visible from every tab.
	timerInfo := ""
	t := a.pomodoro.timer
	switch {
	case t.running():
		style := successStyle
		if t.mode == store.ModeBreak {
			style = breakStyle
		}
		timerInfo = style.Render(fmt.Sprintf(" ● %s %s", modeName(t.mode), formatClock(t.remaining)))
	case t.paused():
		timerInfo = warningStyle.Render(" ⏸ " + formatClock(t.remaining))
	}

	right := timerInfo + status
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export tasks and history"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+string(f)))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportFormats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format export.Format) tea.Cmd {
	s, dir, now := a.store, a.exportDir, a.clock.Now()
	return func() tea.Msg {
		data, err := export.Collect(context.Background(), s, now)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		path := export.DefaultPath(dir, format, now)
		if err := export.Write(format, data, path); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
