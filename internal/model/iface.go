package model

// StatsReader provides read-only access to live collector statistics.
// It is the read contract shared by the HTTP API, socket RPC and the dashboard.
type StatsReader interface {
	Snapshot() Snapshot
	RecentEntries(limit int) []Entry
}

// EntryWriter accepts decoded entries for secondary storage.
type EntryWriter interface {
	InsertEntryBatch(entries []Entry) error
}

// Snapshot is an immutable copy of the aggregated statistics.
type Snapshot struct {
	CountInfo   uint64 `json:"count_info"`
	CountWarn   uint64 `json:"count_warn"`
	CountError  uint64 `json:"count_error"`
	TotalCount  uint64 `json:"total_count"`
	WindowCount uint64 `json:"window_count"`
	SumLength   uint64 `json:"sum_length"`
	MaxLength   uint64 `json:"max_length"`
	MinLength   uint64 `json:"min_length"`
	AvgLength   uint64 `json:"avg_length"`
}

// CountFor returns the counter for a single level.
func (s Snapshot) CountFor(l Level) uint64 {
	switch l {
	case LevelInfo:
		return s.CountInfo
	case LevelWarn:
		return s.CountWarn
	case LevelError:
		return s.CountError
	default:
		return 0
	}
}
