package logparse

import (
	"strings"

	"github.com/tinytelemetry/logrelay/internal/model"
)

// severityNames maps the exact, case-sensitive severity tokens to levels.
var severityNames = map[string]model.Level{
	"INFO":  model.LevelInfo,
	"WARN":  model.LevelWarn,
	"ERROR": model.LevelError,
}

// ParseSeverity resolves a severity name. Matching is case-sensitive: only
// INFO, WARN and ERROR are recognized.
func ParseSeverity(name string) (model.Level, bool) {
	level, ok := severityNames[name]
	return level, ok
}

// SeverityNames returns the recognized names in ascending severity order.
func SeverityNames() []string {
	names := make([]string, 0, len(model.Levels))
	for _, l := range model.Levels {
		names = append(names, l.String())
	}
	return names
}

// ValidSeverityList renders the recognized names for usage text, e.g. "INFO WARN ERROR".
func ValidSeverityList() string {
	return strings.Join(SeverityNames(), " ")
}

// SplitTrailingSeverity splits a whitespace-normalized line into its message
// and an explicit trailing severity tag. ok is false when the last token is
// not a severity name, in which case message is the whole line.
func SplitTrailingSeverity(line string) (message string, level model.Level, ok bool) {
	idx := strings.LastIndexByte(line, ' ')
	last := line[idx+1:]
	level, ok = ParseSeverity(last)
	if !ok {
		return line, 0, false
	}
	if idx < 0 {
		return "", level, true
	}
	return line[:idx], level, true
}
