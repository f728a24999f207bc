package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/daytick/internal/store"
)

// PermissionStore holds the lazily asked notification permission.
type PermissionStore interface {
	NotificationPermission(ctx context.Context) (store.Permission, error)
	SetNotificationPermission(ctx context.Context, p store.Permission) error
}

type pomodoroForm int

const (
	formNone pomodoroForm = iota
	formDuration
	formPermission
)

// pomodoroModel is the Focus/Break countdown pane.
type pomodoroModel struct {
	prefs  PermissionStore
	width  int
	height int

	timer timerModel
	busy  bool

	// The redraw loop and the grace tick are tracked separately from the
	// timer, which a command result may replace wholesale.
	loopActive  bool
	loopGen     int
	graceActive bool
	graceGen    int

	redrawTick time.Duration
	grace      time.Duration
	timeout    time.Duration

	perm store.Permission
	bar  progress.Model

	formKind  pomodoroForm
	form      *huh.Form
	formMin   *string
	formSec   *string
	formAllow *bool
}

func newPomodoroModel(t timerModel, prefs PermissionStore, redrawTick, grace, timeout time.Duration) pomodoroModel {
	minutes, seconds, allow := "", "", true
	return pomodoroModel{
		prefs:      prefs,
		timer:      t,
		busy:       true, // until activate reports back
		redrawTick: redrawTick,
		grace:      grace,
		timeout:    timeout,
		perm:       store.PermissionDefault,
		bar:        progress.New(progress.WithGradient("#7C3AED", "#2EC4B6"), progress.WithoutPercentage()),
		formMin:    &minutes,
		formSec:    &seconds,
		formAllow:  &allow,
	}
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
	p.bar.Width = max(10, min(w-12, 60))
}

func (p pomodoroModel) formActive() bool {
	return p.formKind != formNone
}

// activate loads the persisted session and the permission state.
func (p pomodoroModel) activate() tea.Cmd {
	load := p.run("activate", func(ctx context.Context, t *timerModel) error {
		return t.activate(ctx)
	})
	prefs := p.prefs
	perm := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		permission, _ := prefs.NotificationPermission(ctx)
		return permissionMsg{perm: permission}
	}
	return tea.Batch(load, perm)
}

// reactivate reloads the session like a user command, so it cannot
// overwrite the result of one in flight.
func (p pomodoroModel) reactivate() (pomodoroModel, tea.Cmd) {
	if p.busy {
		return p, nil
	}
	p.busy = true
	return p, p.activate()
}

// run executes op against a copy of the timer off the UI loop.
func (p pomodoroModel) run(op string, fn func(ctx context.Context, t *timerModel) error) tea.Cmd {
	t := p.timer
	timeout := p.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := fn(ctx, &t)
		return timerResultMsg{timer: t, op: op, err: err}
	}
}

func (p pomodoroModel) dispatch(op string, fn func(ctx context.Context, t *timerModel) error) (pomodoroModel, tea.Cmd) {
	if p.busy {
		return p, nil
	}
	p.busy = true
	return p, p.run(op, fn)
}

func (p pomodoroModel) redraw() tea.Cmd {
	gen := p.timer.gen
	return tea.Tick(p.redrawTick, func(time.Time) tea.Msg {
		return redrawMsg{gen: gen}
	})
}

// ensureLoop makes sure the current timer has its redraw loop, or its
// grace tick once expired.
func (p pomodoroModel) ensureLoop() (pomodoroModel, tea.Cmd) {
	switch {
	case p.timer.expired:
		if p.graceActive && p.graceGen == p.timer.gen {
			return p, nil
		}
		return p.startGrace()
	case !p.timer.running():
		p.loopActive = false
		return p, nil
	case p.loopActive && p.loopGen == p.timer.gen:
		return p, nil
	}
	p.loopActive = true
	p.loopGen = p.timer.gen
	return p, p.redraw()
}

func (p pomodoroModel) startGrace() (pomodoroModel, tea.Cmd) {
	p.loopActive = false
	p.graceActive = true
	p.graceGen = p.timer.gen
	gen := p.timer.gen
	return p, tea.Tick(p.grace, func(time.Time) tea.Msg {
		return graceDoneMsg{gen: gen}
	})
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	switch msg := msg.(type) {
	case timerResultMsg:
		p.busy = false
		p.timer = msg.timer
		var cmds []tea.Cmd
		var cmd tea.Cmd
		p, cmd = p.ensureLoop()
		cmds = append(cmds, cmd)
		if msg.err != nil {
			cmds = append(cmds, statusCmd(fmt.Sprintf("%s failed: %v", msg.op, msg.err), true))
		} else if text := opStatus(msg.op, p.timer); text != "" {
			cmds = append(cmds, statusCmd(text, false))
		}
		return p, tea.Batch(cmds...)

	case redrawMsg:
		if !p.loopActive || msg.gen != p.loopGen {
			return p, nil
		}
		if msg.gen != p.timer.gen || !p.timer.running() {
			p.loopActive = false
			return p, nil
		}
		if p.timer.tick() {
			return p.startGrace()
		}
		return p, p.redraw()

	case graceDoneMsg:
		if p.graceActive && msg.gen == p.graceGen {
			p.graceActive = false
		}
		if msg.gen != p.timer.gen || !p.timer.expired {
			return p, nil
		}
		p.timer.resetLocal()
		p.closeForm()
		return p, statusCmd("Time's up", false)

	case permissionMsg:
		p.perm = msg.perm
		return p, nil
	}

	if p.formActive() {
		return p.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Start):
			if p.timer.running() {
				return p.dispatch("pause", func(ctx context.Context, t *timerModel) error { return t.pause(ctx) })
			}
			if p.perm == store.PermissionDefault && p.prefs != nil {
				return p.showPermissionForm()
			}
			return p.startOrResume()
		case key.Matches(msg, keys.Reset):
			return p.dispatch("reset", func(ctx context.Context, t *timerModel) error { return t.reset(ctx) })
		case key.Matches(msg, keys.Focus):
			return p.switchMode(store.ModeFocus)
		case key.Matches(msg, keys.Break):
			return p.switchMode(store.ModeBreak)
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			if p.timer.running() {
				return p, statusCmd(errTimerRunning.Error(), true)
			}
			return p.showDurationForm()
		}
	}
	return p, nil
}

func (p pomodoroModel) startOrResume() (pomodoroModel, tea.Cmd) {
	op := "start"
	if p.timer.paused() {
		op = "resume"
	}
	return p.dispatch(op, func(ctx context.Context, t *timerModel) error { return t.start(ctx) })
}

func (p pomodoroModel) switchMode(mode store.Mode) (pomodoroModel, tea.Cmd) {
	if p.timer.mode == mode && p.timer.state == store.StateStopped {
		return p, nil
	}
	if p.timer.state != store.StateStopped {
		return p, statusCmd(errTimerRunning.Error(), true)
	}
	return p.dispatch("switch", func(ctx context.Context, t *timerModel) error { return t.setMode(ctx, mode) })
}

func (p pomodoroModel) showDurationForm() (pomodoroModel, tea.Cmd) {
	secs := int64(p.timer.remaining / time.Second)
	*p.formMin = strconv.FormatInt(secs/60, 10)
	*p.formSec = strconv.FormatInt(secs%60, 10)

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Minutes").Value(p.formMin).Validate(validateCount(999)),
			huh.NewInput().Title("Seconds").Value(p.formSec).Validate(validateCount(59)),
		).Title("Set " + string(p.timer.mode) + " time"),
	).WithShowHelp(true).WithShowErrors(true)
	p.formKind = formDuration
	return p, p.form.Init()
}

func (p pomodoroModel) showPermissionForm() (pomodoroModel, tea.Cmd) {
	*p.formAllow = true
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Show a notification window when a timer ends?").
				Description("Asked once. Change it later under Settings.").
				Affirmative("Allow").
				Negative("Block").
				Value(p.formAllow),
		),
	).WithShowHelp(false)
	p.formKind = formPermission
	return p, p.form.Init()
}

func (p *pomodoroModel) closeForm() {
	p.formKind = formNone
	p.form = nil
}

func (p pomodoroModel) updateForm(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		p.closeForm()
		return p, nil
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	switch p.form.State {
	case huh.StateCompleted:
		kind := p.formKind
		p.closeForm()
		if kind == formPermission {
			return p.applyPermission(*p.formAllow)
		}
		d := parseDuration(*p.formMin, *p.formSec)
		return p.dispatch("set time", func(ctx context.Context, t *timerModel) error {
			return t.editDuration(ctx, d)
		})
	case huh.StateAborted:
		p.closeForm()
		return p, nil
	}
	return p, cmd
}

func (p pomodoroModel) applyPermission(allow bool) (pomodoroModel, tea.Cmd) {
	p.perm = store.PermissionDenied
	if allow {
		p.perm = store.PermissionGranted
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	var status tea.Cmd
	if err := p.prefs.SetNotificationPermission(ctx, p.perm); err != nil {
		status = statusCmd(fmt.Sprintf("save permission: %v", err), true)
	}
	p, start := p.startOrResume()
	return p, tea.Batch(status, start)
}

func (p pomodoroModel) view() string {
	w := p.width - 4

	if p.formActive() && p.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Timer"), "", p.form.View()),
		)
	}

	focusTab := inactiveTabStyle.Render("Focus")
	breakTab := inactiveTabStyle.Render("Break")
	if p.timer.mode == store.ModeBreak {
		breakTab = activeTabStyle.Render("Break")
	} else {
		focusTab = activeTabStyle.Render("Focus")
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Bottom, focusTab, breakTab)

	clockStyle := timerStyle
	if p.timer.mode == store.ModeBreak {
		clockStyle = timerBreakStyle
	}
	var label string
	switch {
	case p.timer.expired:
		label = successStyle.Bold(true).Render("DONE")
	case p.timer.running():
		label = clockStyle.Render("RUNNING")
	case p.timer.paused():
		clockStyle = timerPausedStyle
		label = warningStyle.Bold(true).Render("PAUSED")
	default:
		label = mutedStyle.Render("Ready")
	}
	clock := clockStyle.Width(max(10, w-6)).Render(bigClock(formatClock(p.timer.remaining)))

	var controls string
	switch {
	case p.busy:
		controls = mutedStyle.Render("…")
	case p.timer.running():
		controls = mutedStyle.Render("space: pause  r: reset")
	case p.timer.paused():
		controls = mutedStyle.Render("space: resume  r: reset  m: set time")
	default:
		controls = mutedStyle.Render("space: start  m: set time  f/b: focus/break")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center,
			tabs,
			"",
			clock,
			label,
			"",
			p.bar.ViewAs(p.timer.progress()),
			"",
			controls,
		),
	)
}

func opStatus(op string, t timerModel) string {
	switch op {
	case "start":
		return modeName(t.mode) + " started"
	case "resume":
		return "Resumed"
	case "pause":
		if t.paused() {
			return "Paused at " + formatClock(t.remaining)
		}
	case "reset":
		return "Timer reset"
	case "set time":
		return "Time set to " + formatClock(t.remaining)
	}
	return ""
}

func modeName(m store.Mode) string {
	if m == store.ModeBreak {
		return "Break"
	}
	return "Focus"
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

func validateCount(limit int) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > limit {
			return fmt.Errorf("enter 0-%d", limit)
		}
		return nil
	}
}

func parseDuration(minutes, seconds string) time.Duration {
	m, _ := strconv.Atoi(strings.TrimSpace(minutes))
	s, _ := strconv.Atoi(strings.TrimSpace(seconds))
	return time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

// bigClock spaces the digits out so the countdown reads at a glance.
func bigClock(s string) string {
	return strings.Join(strings.Split(s, ""), " ")
}
