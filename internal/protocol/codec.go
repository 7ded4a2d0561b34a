// Package protocol implements the text forms of a log entry: the wire
// encoding exchanged between shipper and collector, the free-text parser used
// on raw input lines, and the human-readable file sink line.
//
// Wire form:   "<message> <level-ordinal> <unix-time>"
// Sink form:   "<message> <LEVEL> <YYYY-MM-DD HH:MM:SS>" (local time)
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/tinytelemetry/logrelay/internal/logparse"
	"github.com/tinytelemetry/logrelay/internal/model"
)

// TimeLayout is the calendar layout used by PrintLogEntry.
const TimeLayout = "2006-01-02 15:04:05"

// ErrDecode is returned (wrapped) for any malformed wire text.
var ErrDecode = errors.New("protocol: malformed entry")

// Encode renders an entry in wire form.
func Encode(entry model.Entry) string {
	var b strings.Builder
	b.Grow(len(entry.Message) + 24)
	b.WriteString(entry.Message)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(int(entry.Level)))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(entry.Time, 10))
	return b.String()
}

// Decode parses wire text produced by Encode. The two trailing fields are
// peeled off right to left: first the time, then the level ordinal; whatever
// remains is the message.
func Decode(text string) (model.Entry, error) {
	rest, timeToken, ok := cutLastToken(text)
	if !ok {
		return model.Entry{}, fmt.Errorf("%w: missing time field", ErrDecode)
	}
	ts, err := parseTime(timeToken)
	if err != nil {
		return model.Entry{}, err
	}

	rest, levelToken, ok := cutLastToken(rest)
	if !ok {
		return model.Entry{}, fmt.Errorf("%w: missing level field", ErrDecode)
	}
	level, err := parseOrdinal(levelToken)
	if err != nil {
		return model.Entry{}, err
	}

	message := strings.TrimRightFunc(rest, unicode.IsSpace)
	if message == "" {
		return model.Entry{}, fmt.Errorf("%w: empty message", ErrDecode)
	}
	return model.Entry{Message: message, Level: level, Time: ts}, nil
}

// CreateLogEntry builds an entry from a raw input line. Whitespace runs are
// collapsed to single spaces. A trailing INFO, WARN or ERROR token is taken
// as the entry level and removed from the message; otherwise defaultLevel is
// used. ok is false when no non-empty message remains.
func CreateLogEntry(raw string, defaultLevel model.Level, ts int64) (model.Entry, bool) {
	line := strings.Join(strings.Fields(raw), " ")
	if line == "" {
		return model.Entry{}, false
	}
	message, level, tagged := logparse.SplitTrailingSeverity(line)
	if !tagged {
		return model.Entry{Message: line, Level: defaultLevel, Time: ts}, true
	}
	if message == "" {
		return model.Entry{}, false
	}
	return model.Entry{Message: message, Level: level, Time: ts}, true
}

// PrintLogEntry renders an entry in sink form using the local time zone.
func PrintLogEntry(entry model.Entry) string {
	stamp := time.Unix(entry.Time, 0).Local().Format(TimeLayout)
	return entry.Message + " " + entry.Level.String() + " " + stamp
}

// cutLastToken trims trailing whitespace and splits off the last
// whitespace-delimited token. ok is false when there is no separator, so a
// lone token never yields an empty remainder.
func cutLastToken(s string) (rest, token string, ok bool) {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	idx := strings.LastIndexFunc(s, unicode.IsSpace)
	if idx < 0 {
		return s, "", false
	}
	_, size := utf8.DecodeRuneInString(s[idx:])
	return s[:idx], s[idx+size:], true
}

// isDigits reports whether token is one or more ASCII digits. Numeric wire
// fields carry no sign, so "+5" and "-5" are both malformed.
func isDigits(token string) bool {
	if token == "" {
		return false
	}
	for i := 0; i < len(token); i++ {
		if token[i] < '0' || token[i] > '9' {
			return false
		}
	}
	return true
}

func parseTime(token string) (int64, error) {
	if !isDigits(token) {
		return 0, fmt.Errorf("%w: time %q is not an unsigned integer", ErrDecode, token)
	}
	ts, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: time %q out of range", ErrDecode, token)
	}
	return ts, nil
}

func parseOrdinal(token string) (model.Level, error) {
	if !isDigits(token) {
		return 0, fmt.Errorf("%w: level %q is not an unsigned integer", ErrDecode, token)
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: level %q out of range", ErrDecode, token)
	}
	level := model.Level(n)
	if !level.Valid() {
		return 0, fmt.Errorf("%w: level ordinal %d out of range", ErrDecode, n)
	}
	return level, nil
}
