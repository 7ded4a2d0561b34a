// Package stats aggregates decoded log entries into per-level counters,
// message length statistics and a one-hour sliding window of timestamps.
package stats

import (
	"math"
	"sync"

	"github.com/tinytelemetry/logrelay/internal/model"
)

// MinLengthUnset is the MinLength value before any entry has been seen.
const MinLengthUnset = math.MaxUint64

// AggregatorConfig holds tunable parameters for the aggregator.
type AggregatorConfig struct {
	WindowDuration int64 // seconds
	RecentEntries  int
}

// Aggregator is safe for concurrent use: a single mutex guards every update
// and every snapshot, so display paths may read while the server updates.
type Aggregator struct {
	mu     sync.Mutex
	counts [3]uint64 // indexed by model.Level

	sumLength uint64
	maxLength uint64
	minLength uint64
	avgLength uint64

	window *Window
	recent *Recent
}

// NewAggregator creates an empty aggregator.
func NewAggregator(conf ...AggregatorConfig) *Aggregator {
	duration := WindowDuration
	recentSize := model.DefaultRecentEntries
	if len(conf) > 0 {
		if conf[0].WindowDuration > 0 {
			duration = conf[0].WindowDuration
		}
		if conf[0].RecentEntries > 0 {
			recentSize = conf[0].RecentEntries
		}
	}
	return &Aggregator{
		minLength: MinLengthUnset,
		window:    NewWindow(duration),
		recent:    NewRecent(recentSize),
	}
}

// Update folds one entry into the statistics: its level counter, its
// message length and its timestamp.
func (a *Aggregator) Update(entry model.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if entry.Level.Valid() {
		a.counts[entry.Level]++
	}
	a.updateLengthLocked(uint64(len(entry.Message)))
	a.window.Add(entry.Time)
	a.recent.Add(entry)
}

// AddTime pushes a timestamp into the sliding window.
func (a *Aggregator) AddTime(t int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.window.Add(t)
}

// UpdateLength folds one message length into the length statistics.
func (a *Aggregator) UpdateLength(n uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.updateLengthLocked(n)
}

func (a *Aggregator) updateLengthLocked(n uint64) {
	a.sumLength += n
	a.maxLength = max(a.maxLength, n)
	a.minLength = min(a.minLength, n)
	a.avgLength = a.sumLength / max(a.totalLocked(), 1)
}

// TotalCount returns the number of entries across all levels.
func (a *Aggregator) TotalCount() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalLocked()
}

func (a *Aggregator) totalLocked() uint64 {
	return a.counts[model.LevelInfo] + a.counts[model.LevelWarn] + a.counts[model.LevelError]
}

// Snapshot returns a consistent copy of every statistic.
func (a *Aggregator) Snapshot() model.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return model.Snapshot{
		CountInfo:   a.counts[model.LevelInfo],
		CountWarn:   a.counts[model.LevelWarn],
		CountError:  a.counts[model.LevelError],
		TotalCount:  a.totalLocked(),
		WindowCount: uint64(a.window.Len()),
		SumLength:   a.sumLength,
		MaxLength:   a.maxLength,
		MinLength:   a.minLength,
		AvgLength:   a.avgLength,
	}
}

// RecentEntries returns up to limit of the latest entries, newest first.
func (a *Aggregator) RecentEntries(limit int) []model.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recent.Last(limit)
}

// WindowValues returns the timestamps currently in the window, oldest first.
func (a *Aggregator) WindowValues() []int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.window.Values()
}
