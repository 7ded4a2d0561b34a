package session

import (
	"sync/atomic"

	"github.com/tinytelemetry/logrelay/internal/model"
	"github.com/tinytelemetry/logrelay/internal/protocol"
)

// Logger filters raw input lines by severity and writes the survivors to a Session.
type Logger struct {
	session Session
	level   atomic.Int32
}

// NewLogger wraps session with a minimum severity.
func NewLogger(session Session, level model.Level) *Logger {
	l := &Logger{session: session}
	l.level.Store(int32(level))
	return l
}

// NewFileLogger creates a Logger appending to path.
func NewFileLogger(path string, level model.Level) *Logger {
	return NewLogger(NewFileSession(path), level)
}

// NewSocketLogger creates a Logger shipping to a collector at host:port.
func NewSocketLogger(host, port string, level model.Level) *Logger {
	return NewLogger(NewSocketSession(host, port), level)
}

// Open opens the underlying session.
func (l *Logger) Open() error { return l.session.Open() }

// Close closes the underlying session.
func (l *Logger) Close() error { return l.session.Close() }

// SetLevel changes the minimum severity.
func (l *Logger) SetLevel(level model.Level) { l.level.Store(int32(level)) }

// Level returns the minimum severity.
func (l *Logger) Level() model.Level { return model.Level(l.level.Load()) }

// LogWrite turns a raw line into an entry stamped with ts and writes it when
// its level reaches the threshold. Lines that yield no entry, and entries
// below the threshold, are dropped without error.
//
// The threshold doubles as the level of untagged lines, so only lines that
// carry an explicit lower severity tag are ever filtered out.
func (l *Logger) LogWrite(raw string, ts int64) error {
	threshold := l.Level()
	entry, ok := protocol.CreateLogEntry(raw, threshold, ts)
	if !ok {
		return nil
	}
	if entry.Level < threshold {
		return nil
	}
	return l.session.Write(entry)
}
