package model

// Level is the severity of a log entry. Levels are ordered INFO < WARN < ERROR
// and their numeric value is the ordinal carried on the wire.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Levels lists every defined severity in ascending order.
var Levels = []Level{LevelInfo, LevelWarn, LevelError}

// Valid reports whether l is one of the defined severities.
func (l Level) Valid() bool {
	return l >= LevelInfo && l <= LevelError
}

// String returns the canonical upper-case severity name.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Entry represents a single parsed log record.
// It is the canonical type for the file sink, the wire protocol, and statistics.
type Entry struct {
	Message string `json:"message"` // normalized, never empty
	Level   Level  `json:"level"`
	Time    int64  `json:"time"` // unix seconds
}
