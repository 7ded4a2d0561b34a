// Package tui implements the logstats dashboard: a Bubble Tea program that
// polls a running collector and renders its live statistics.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/logrelay/internal/model"
)

const (
	minUpdateInterval = 250 * time.Millisecond
	maxUpdateInterval = time.Minute

	defaultVisibleEntries = 10
	maxVisibleEntries     = model.DefaultRecentEntries
)

// StatsSource is what the dashboard polls. *socketrpc.Client implements it.
type StatsSource interface {
	Snapshot() (model.Snapshot, error)
	RecentEntries(limit int) ([]model.Entry, error)
}

type tickMsg time.Time

type dataLoadedMsg struct {
	snapshot model.Snapshot
	entries  []model.Entry
	err      error
	at       time.Time
}

// Dashboard is the top-level Bubble Tea model.
type Dashboard struct {
	source   StatsSource
	keys     KeyMap
	interval time.Duration

	width  int
	height int

	snapshot   model.Snapshot
	history    []uint64 // total count per successful poll
	entries    []model.Entry
	visible    int
	lastUpdate time.Time
	lastError  string
	paused     bool
	inFlight   bool

	patterns *PatternMiner // nil when drain3 could not be set up
	fedTotal uint64        // collector total already handed to patterns
}

// NewDashboard creates a dashboard polling source every interval.
func NewDashboard(source StatsSource, interval time.Duration) *Dashboard {
	if interval <= 0 {
		interval = model.DefaultUpdateInterval
	}
	patterns, _ := NewPatternMiner()
	return &Dashboard{
		source:   source,
		keys:     DefaultKeyMap(),
		interval: clampInterval(interval),
		visible:  defaultVisibleEntries,
		patterns: patterns,
	}
}

func clampInterval(d time.Duration) time.Duration {
	return min(max(d, minUpdateInterval), maxUpdateInterval)
}

func (m *Dashboard) Init() tea.Cmd {
	m.inFlight = true
	return tea.Batch(m.fetch(), m.tick())
}

func (m *Dashboard) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// fetch queries the source off the UI goroutine.
func (m *Dashboard) fetch() tea.Cmd {
	source := m.source
	limit := maxVisibleEntries
	return func() tea.Msg {
		msg := dataLoadedMsg{at: time.Now()}
		snap, err := source.Snapshot()
		if err != nil {
			msg.err = err
			return msg
		}
		entries, err := source.RecentEntries(limit)
		if err != nil {
			msg.err = err
			return msg
		}
		msg.snapshot = snap
		msg.entries = entries
		return msg
	}
}

// Update handles messages.
func (m *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		cmds := []tea.Cmd{m.tick()}
		if !m.paused && !m.inFlight {
			m.inFlight = true
			cmds = append(cmds, m.fetch())
		}
		return m, tea.Batch(cmds...)

	case dataLoadedMsg:
		m.inFlight = false
		if msg.err != nil {
			m.lastError = msg.err.Error()
			return m, nil
		}
		m.lastError = ""
		m.snapshot = msg.snapshot
		m.entries = msg.entries
		m.lastUpdate = msg.at
		m.feedPatterns(msg.snapshot.TotalCount, msg.entries)
		m.history = append(m.history, msg.snapshot.TotalCount)
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
		return m, nil
	}
	return m, nil
}

// feedPatterns hands the miner the entries that arrived since the last poll,
// oldest first. entries is newest first and capped at maxVisibleEntries, so
// a burst larger than that between two polls is only partly mined. A total
// lower than before means the collector restarted.
func (m *Dashboard) feedPatterns(total uint64, entries []model.Entry) {
	if m.patterns == nil {
		return
	}
	if total < m.fedTotal {
		m.patterns.Reset()
		m.fedTotal = 0
	}
	n := min(total-m.fedTotal, uint64(len(entries)))
	for i := int(n) - 1; i >= 0; i-- {
		m.patterns.Add(entries[i].Message)
	}
	m.fedTotal = total
}

// maxHistory bounds the throughput sparkline.
const maxHistory = 120

func (m *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.ForceQuit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
	case key.Matches(msg, m.keys.Refresh):
		if !m.inFlight {
			m.inFlight = true
			return m, m.fetch()
		}
	case key.Matches(msg, m.keys.IntervalUp):
		m.interval = clampInterval(m.interval * 2)
	case key.Matches(msg, m.keys.IntervalDown):
		m.interval = clampInterval(m.interval / 2)
	case key.Matches(msg, m.keys.MoreEntries):
		m.visible = min(m.visible+5, maxVisibleEntries)
	case key.Matches(msg, m.keys.FewerEntries):
		m.visible = max(m.visible-5, 1)
	}
	return m, nil
}

// Interval returns the current poll interval.
func (m *Dashboard) Interval() time.Duration { return m.interval }

// Paused reports whether polling is paused.
func (m *Dashboard) Paused() bool { return m.paused }
