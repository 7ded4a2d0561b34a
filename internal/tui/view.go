package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/logrelay/internal/model"
	"github.com/tinytelemetry/logrelay/internal/protocol"
	"github.com/tinytelemetry/logrelay/internal/stats"
)

const (
	chartHeight = 8
	statsWidth  = 30
	patternRows = 5
	patternBar  = 12
)

// View renders the dashboard.
func (m *Dashboard) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	header := m.renderHeader(width)
	statsPanel := sectionStyle.Width(statsWidth).Render(m.renderStats())
	chartPanel := sectionStyle.Width(max(width-statsWidth-6, 24)).Render(m.renderLevelChart(max(width-statsWidth-10, 20)))
	top := lipgloss.JoinHorizontal(lipgloss.Top, statsPanel, chartPanel)
	patterns := sectionStyle.Width(max(width-4, 20)).Render(m.renderPatterns(max(width-8, 16)))
	entries := sectionStyle.Width(max(width-4, 20)).Render(m.renderEntries(max(width-8, 16)))

	h := help.New()
	footer := h.ShortHelpView(m.keys.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, header, top, patterns, entries, footer)
}

func (m *Dashboard) renderHeader(width int) string {
	left := titleStyle.Render("logstats")
	var status string
	switch {
	case m.lastError != "":
		status = errorStyle.Render("error: " + m.lastError)
	case m.paused:
		status = pausedStyle.Render("PAUSED")
	case m.lastUpdate.IsZero():
		status = helpStyle.Render("connecting...")
	default:
		status = helpStyle.Render(fmt.Sprintf("updated %s  every %s", m.lastUpdate.Format("15:04:05"), m.interval))
	}
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(status), 1)
	return left + strings.Repeat(" ", gap) + status
}

func (m *Dashboard) renderStats() string {
	s := m.snapshot
	minLength := "-"
	if s.MinLength != stats.MinLengthUnset {
		minLength = fmt.Sprint(s.MinLength)
	}
	rows := [][2]string{
		{"count", fmt.Sprint(s.TotalCount)},
		{"last hour", fmt.Sprint(s.WindowCount)},
		{"max length", fmt.Sprint(s.MaxLength)},
		{"min length", minLength},
		{"avg length", fmt.Sprint(s.AvgLength)},
		{"rate/poll", fmt.Sprint(m.lastDelta())},
	}
	lines := []string{chartTitleStyle.Render("Statistics")}
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%-11s %12s", r[0]+":", r[1]))
	}
	return strings.Join(lines, "\n")
}

// lastDelta is the number of entries received between the last two polls.
func (m *Dashboard) lastDelta() uint64 {
	n := len(m.history)
	if n < 2 || m.history[n-1] < m.history[n-2] {
		return 0
	}
	return m.history[n-1] - m.history[n-2]
}

func (m *Dashboard) renderLevelChart(width int) string {
	title := chartTitleStyle.Render("Levels")
	if m.snapshot.TotalCount == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, helpStyle.Render("No data available"))
	}

	bc := barchart.New(width, chartHeight,
		barchart.WithBarGap(2),
		barchart.WithBarWidth(max((width-4)/len(model.Levels), 1)),
	)
	for _, l := range model.Levels {
		name := l.String()
		bc.Push(barchart.BarData{
			Label: name,
			Values: []barchart.BarValue{
				{Name: name, Value: float64(m.snapshot.CountFor(l)), Style: levelStyle(name)},
			},
		})
	}
	bc.Draw()

	var legend []string
	for _, l := range model.Levels {
		style := lipgloss.NewStyle().Foreground(levelColor(l.String()))
		legend = append(legend, style.Render(fmt.Sprintf("%-5s %d", l, m.snapshot.CountFor(l))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, bc.View(), strings.Join(legend, "  "))
}

func (m *Dashboard) renderPatterns(width int) string {
	if m.patterns == nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			chartTitleStyle.Render("Patterns"), helpStyle.Render("Pattern extraction not available"))
	}

	count, fed := m.patterns.Stats()
	lines := []string{chartTitleStyle.Render(fmt.Sprintf("Patterns (%d from %d entries)", count, fed))}
	top := m.patterns.TopPatterns(patternRows)
	if len(top) == 0 {
		return strings.Join(append(lines, helpStyle.Render("No patterns yet")), "\n")
	}

	maxCount := top[0].Count
	templateWidth := max(width-patternBar-10, 10)
	for i, p := range top {
		fill := max(p.Count*patternBar/maxCount, 1)
		bar := strings.Repeat("█", fill) + strings.Repeat("░", patternBar-fill)
		style := lipgloss.NewStyle().Foreground(levelColor(model.LevelInfo.String()))
		switch {
		case i == 0:
			style = lipgloss.NewStyle().Foreground(levelColor(model.LevelError.String()))
		case i < 3:
			style = lipgloss.NewStyle().Foreground(levelColor(model.LevelWarn.String()))
		}
		lines = append(lines, fmt.Sprintf("%s %s │ %s",
			style.Render(bar),
			helpStyle.Render(fmt.Sprintf("%5.1f%%", p.Percentage)),
			truncate(p.Template, templateWidth),
		))
	}
	return strings.Join(lines, "\n")
}

func (m *Dashboard) renderEntries(width int) string {
	lines := []string{chartTitleStyle.Render("Recent entries")}
	if len(m.entries) == 0 {
		lines = append(lines, helpStyle.Render("No entries yet"))
		return strings.Join(lines, "\n")
	}
	n := min(m.visible, len(m.entries))
	for _, e := range m.entries[:n] {
		line := protocol.PrintLogEntry(e)
		if lipgloss.Width(line) > width {
			line = truncate(line, width)
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(levelColor(e.Level.String())).Render(line))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	if width <= 1 {
		return "…"
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
