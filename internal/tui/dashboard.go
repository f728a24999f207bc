package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/daytick/internal/clock"
	"github.com/sadopc/daytick/internal/store"
)

// dashboardModel is the greeting plus the date-scoped task list.
type dashboardModel struct {
	store     *store.Store
	clock     clock.Clock
	retention int
	width     int
	height    int

	rows       []store.Task // display order
	cursor     int
	activeDate string

	formActive bool
	form       *huh.Form
	formText   *string
	formDesc   *string
	editingID  int64
}

func newDashboardModel(s *store.Store, c clock.Clock, retentionDays int) dashboardModel {
	text, desc := "", ""
	return dashboardModel{
		store:      s,
		clock:      c,
		retention:  retentionDays,
		activeDate: today(c.Now()),
		formText:   &text,
		formDesc:   &desc,
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type dashboardDataMsg struct {
	tasks      []store.Task
	activeDate string
	purged     int64
	err        error
}

// activate purges stale dates, then loads tasks.
func (d dashboardModel) activate() tea.Cmd {
	return d.load(true)
}

func (d dashboardModel) refresh() tea.Cmd {
	return d.load(false)
}

func (d dashboardModel) load(purge bool) tea.Cmd {
	s, now, retention := d.store, d.clock.Now(), d.retention
	return func() tea.Msg {
		ctx := context.Background()
		var msg dashboardDataMsg
		if purge {
			msg.purged, msg.err = s.PurgeTasksBefore(ctx, shiftDate(today(now), -retention))
		}

		// The active date never lies in the past.
		date, err := s.SelectedDate(ctx)
		if err != nil || date == "" || date < today(now) {
			date = today(now)
			s.SetSelectedDate(ctx, date)
		}
		msg.activeDate = date

		tasks, err := s.ListAllTasks(ctx)
		if err != nil && msg.err == nil {
			msg.err = err
		}
		msg.tasks = tasks
		return msg
	}
}

// orderTasks groups tasks by date and sorts each day pinned first and
// completed last.
func orderTasks(tasks []store.Task) []store.Task {
	out := append([]store.Task(nil), tasks...)
	rank := func(t store.Task) int {
		switch {
		case t.Pinned:
			return 0
		case t.Completed:
			return 2
		}
		return 1
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return rank(out[i]) < rank(out[j])
	})
	return out
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.rows = orderTasks(msg.tasks)
		d.activeDate = msg.activeDate
		if d.cursor >= len(d.rows) {
			d.cursor = max(0, len(d.rows)-1)
		}
		switch {
		case msg.err != nil:
			return d, statusCmd(fmt.Sprintf("Tasks: %v", msg.err), true)
		case msg.purged > 0:
			return d, statusCmd(fmt.Sprintf("Removed %d old tasks", msg.purged), false)
		}
		return d, nil

	case tea.KeyMsg:
		return d.updateList(msg)
	}
	return d, nil
}

func (d dashboardModel) updateList(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	ctx := context.Background()
	selected, hasSelection := d.selected()

	switch {
	case key.Matches(msg, keys.Up):
		if d.cursor > 0 {
			d.cursor--
		}
	case key.Matches(msg, keys.Down):
		if d.cursor < len(d.rows)-1 {
			d.cursor++
		}
	case key.Matches(msg, keys.New):
		return d.showForm(nil)
	case key.Matches(msg, keys.Enter):
		if hasSelection {
			return d.showForm(&selected)
		}
	case key.Matches(msg, keys.Toggle):
		if hasSelection {
			if err := d.store.SetTaskCompleted(ctx, selected.ID, !selected.Completed); err != nil {
				return d, statusCmd(err.Error(), true)
			}
			return d, d.refresh()
		}
	case key.Matches(msg, keys.Pin):
		if hasSelection {
			if err := d.store.SetTaskPinned(ctx, selected.ID, !selected.Pinned); err != nil {
				return d, statusCmd(err.Error(), true)
			}
			return d, d.refresh()
		}
	case key.Matches(msg, keys.Delete):
		if hasSelection {
			if err := d.store.DeleteTask(ctx, selected.ID); err != nil {
				return d, statusCmd(err.Error(), true)
			}
			return d, tea.Batch(d.refresh(), statusCmd("Task deleted", false))
		}
	case key.Matches(msg, keys.PrevDay):
		return d.moveDate(-1)
	case key.Matches(msg, keys.NextDay):
		return d.moveDate(1)
	case key.Matches(msg, keys.Purge):
		return d, d.activate()
	}
	return d, nil
}

func (d dashboardModel) selected() (store.Task, bool) {
	if d.cursor < 0 || d.cursor >= len(d.rows) {
		return store.Task{}, false
	}
	return d.rows[d.cursor], true
}

func (d dashboardModel) moveDate(days int) (dashboardModel, tea.Cmd) {
	next := shiftDate(d.activeDate, days)
	if next < today(d.clock.Now()) {
		return d, nil
	}
	d.activeDate = next
	if err := d.store.SetSelectedDate(context.Background(), next); err != nil {
		return d, statusCmd(err.Error(), true)
	}
	return d, nil
}

func (d dashboardModel) showForm(task *store.Task) (dashboardModel, tea.Cmd) {
	title := "New task · " + dateLabel(d.activeDate, d.clock.Now())
	*d.formText, *d.formDesc = "", ""
	d.editingID = 0
	if task != nil {
		title = "Edit task"
		*d.formText, *d.formDesc = task.Text, task.Description
		d.editingID = task.ID
	}

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").Value(d.formText).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("task cannot be empty")
					}
					return nil
				}),
			huh.NewText().Title("Description").Lines(3).Value(d.formDesc),
		).Title(title),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		d.formActive = false
		d.form = nil
		return d, nil
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	switch d.form.State {
	case huh.StateCompleted:
		d.formActive = false
		d.form = nil
		return d, d.saveForm()
	case huh.StateAborted:
		d.formActive = false
		d.form = nil
		return d, nil
	}
	return d, cmd
}

func (d dashboardModel) saveForm() tea.Cmd {
	ctx := context.Background()
	text := strings.TrimSpace(*d.formText)
	desc := strings.TrimSpace(*d.formDesc)
	if text == "" {
		return nil
	}

	var err error
	if d.editingID != 0 {
		err = d.store.UpdateTask(ctx, d.editingID, text, desc)
	} else {
		_, err = d.store.CreateTask(ctx, d.activeDate, text, desc)
	}
	if err != nil {
		return statusCmd(err.Error(), true)
	}
	return d.refresh()
}

func (d dashboardModel) view() string {
	w := d.width - 4
	now := d.clock.Now()

	if d.formActive && d.form != nil {
		return panelStyle.Width(w).Render(d.form.View())
	}

	headline, nudge := greeting(now)
	header := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(headline),
		subtitleStyle.Render(nudge),
		mutedStyle.Render(now.Format("Monday, 2 January 2006")),
	)

	target := highlightStyle.Render(dateLabel(d.activeDate, now))
	dateLine := mutedStyle.Render("New tasks go to ") + target + mutedStyle.Render("  ([ / ] to change)")

	var rows []string
	if len(d.rows) == 0 {
		rows = append(rows, "", mutedStyle.Render("  No tasks saved yet. Press n to add one."))
	}
	lastDate := ""
	for i, t := range d.rows {
		if t.Date != lastDate {
			rows = append(rows, dateHeaderStyle.Render(dateLabel(t.Date, now)))
			lastDate = t.Date
		}
		rows = append(rows, d.renderTask(t, i == d.cursor, w))
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", dateLine, strings.Join(rows, "\n")),
	)
}

func (d dashboardModel) renderTask(t store.Task, selected bool, w int) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}
	check := "[ ]"
	if t.Completed {
		check = successStyle.Render("[x]")
	}
	pin := " "
	if t.Pinned {
		pin = pinStyle.Render("★")
	}

	style := normalItemStyle
	switch {
	case t.Completed:
		style = doneItemStyle
	case selected:
		style = selectedItemStyle
	}
	line := fmt.Sprintf("%s%s %s %s", cursor, check, pin, style.Render(t.Text))
	if selected && t.Description != "" {
		desc := mutedStyle.Width(max(10, w-12)).Render(t.Description)
		line += "\n" + lipgloss.NewStyle().PaddingLeft(8).Render(desc)
	}
	return line
}
