package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/daytick/internal/config"
	"github.com/sadopc/daytick/internal/store"
)

// settingsModel shows the effective configuration and lets the user change
// the notification permission. Everything else is edited in the YAML file.
type settingsModel struct {
	prefs   PermissionStore
	cfg     config.Config
	timeout time.Duration
	width   int
	height  int

	perm store.Permission

	formActive bool
	form       *huh.Form
	formPerm   *string
}

func newSettingsModel(prefs PermissionStore, cfg config.Config, timeout time.Duration) settingsModel {
	perm := string(store.PermissionDefault)
	return settingsModel{
		prefs:    prefs,
		cfg:      cfg,
		timeout:  timeout,
		perm:     store.PermissionDefault,
		formPerm: &perm,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) refresh() tea.Cmd {
	prefs, timeout := s.prefs, s.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		perm, err := prefs.NotificationPermission(ctx)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Settings: %v", err), isError: true}
		}
		return permissionMsg{perm: perm}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case permissionMsg:
		s.perm = msg.perm
		return s, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Enter) {
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.formPerm = string(s.perm)
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Notification window").
				Description("Shown by the daemon when a timer ends and no popup is open.").
				Options(
					huh.NewOption("Ask on next start", string(store.PermissionDefault)),
					huh.NewOption("Allow", string(store.PermissionGranted)),
					huh.NewOption("Block", string(store.PermissionDenied)),
				).
				Value(s.formPerm),
		).Title("Notifications"),
	).WithShowHelp(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	switch s.form.State {
	case huh.StateCompleted:
		s.formActive = false
		s.form = nil
		return s, s.save(store.Permission(*s.formPerm))
	case huh.StateAborted:
		s.formActive = false
		s.form = nil
		return s, nil
	}
	return s, cmd
}

// save persists perm and broadcasts it so the timer pane sees it too.
func (s settingsModel) save(perm store.Permission) tea.Cmd {
	prefs, timeout := s.prefs, s.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := prefs.SetNotificationPermission(ctx, perm); err != nil {
			return statusMsg{text: fmt.Sprintf("save permission: %v", err), isError: true}
		}
		return permissionMsg{perm: perm}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	rows = append(rows, settingRow("Notifications", permissionLabel(s.perm)))
	rows = append(rows, "")
	rows = append(rows, subtitleStyle.Render("Configuration"))
	rows = append(rows,
		settingRow("Focus length", formatClock(s.cfg.FocusDuration)),
		settingRow("Break length", formatClock(s.cfg.BreakDuration)),
		settingRow("Keep tasks", fmt.Sprintf("%d days before today", s.cfg.RetentionDays)),
		settingRow("Database", s.cfg.DBPath),
		settingRow("Socket", s.cfg.SocketPath),
		settingRow("Terminal", strings.Join(s.cfg.Terminal, " ")),
		settingRow("Log level", strings.ToLower(s.cfg.LogLevel.String())),
	)
	rows = append(rows, "",
		mutedStyle.Render("enter: change notifications  ·  other values: daytick config init"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingRow(label, value string) string {
	return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(16).Render(label), highlightStyle.Render(value))
}

func permissionLabel(p store.Permission) string {
	switch p {
	case store.PermissionGranted:
		return "allowed"
	case store.PermissionDenied:
		return "blocked"
	}
	return "not asked yet"
}
