package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/daytick/internal/clock"
	"github.com/sadopc/daytick/internal/store"
)

const historyDays = 7

// reportsModel charts completed sessions per day.
type reportsModel struct {
	store  *store.Store
	clock  clock.Clock
	width  int
	height int

	summaries []store.DailySummary
	offset    int // 7-day blocks back from today

	chart barchart.Model
}

func newReportsModel(s *store.Store, c clock.Clock) reportsModel {
	return reportsModel{
		store: s,
		clock: c,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

type reportsDataMsg struct {
	summaries []store.DailySummary
	err       error
}

func (r reportsModel) refresh() tea.Cmd {
	from, to := r.dayRange()
	s := r.store
	return func() tea.Msg {
		summaries, err := s.GetDailySummary(context.Background(), from, shiftDate(to, 1))
		return reportsDataMsg{summaries: summaries, err: err}
	}
}

// dayRange returns the inclusive first and last day of the shown block.
func (r reportsModel) dayRange() (string, string) {
	last := shiftDate(today(r.clock.Now()), -historyDays*r.offset)
	return shiftDate(last, -(historyDays - 1)), last
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.summaries = msg.summaries
		r.buildChart()
		if msg.err != nil {
			return r, statusCmd(fmt.Sprintf("History: %v", msg.err), true)
		}
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if r.height > 30 {
		chartHeight = 14
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	focusStyle := lipgloss.NewStyle().Foreground(colorPrimary)
	breakBarStyle := lipgloss.NewStyle().Foreground(colorBreak)

	from, to := r.dayRange()
	var bars []barchart.BarData
	for day := from; day <= to; day = shiftDate(day, 1) {
		label := day
		if d, err := time.Parse(store.DateLayout, day); err == nil {
			label = d.Format("Mon 02")
		}

		var focusMin, breakMin float64
		for _, s := range r.summaries {
			if s.Day != day {
				continue
			}
			if s.Mode == store.ModeBreak {
				breakMin += float64(s.TotalSeconds) / 60
			} else {
				focusMin += float64(s.TotalSeconds) / 60
			}
		}
		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{
				{Name: "focus", Value: focusMin, Style: focusStyle},
				{Name: "break", Value: breakMin, Style: breakBarStyle},
			},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	from, to := r.dayRange()
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("History"), "  ",
		mutedStyle.Render(fmt.Sprintf("%s — %s", from, to)),
	)
	legend := "  " + lipgloss.NewStyle().Foreground(colorPrimary).Render("■") + " focus  " +
		breakStyle.Render("■") + " break  " + mutedStyle.Render("(minutes)")

	nav := mutedStyle.Render("  ←/→: previous/next week")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", legend, "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.summaries) == 0 {
		return mutedStyle.Render("  No completed sessions in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-8s %8s %10s", "Day", "Mode", "Sessions", "Total")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 42))))
	for _, s := range r.summaries {
		rows = append(rows, fmt.Sprintf("  %-12s %-8s %8d %10s",
			s.Day, s.Mode, s.Count, formatSeconds(s.TotalSeconds),
		))
	}
	return strings.Join(rows, "\n")
}
