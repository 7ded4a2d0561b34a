// Package session writes log entries to a sink. A Session is either an
// append-only file or a framed TCP stream to a collector; Logger adds a
// minimum-severity filter in front of one.
package session

import (
	"errors"

	"github.com/tinytelemetry/logrelay/internal/model"
)

var (
	// ErrOpenSession reports a sink that could not be opened or connected.
	ErrOpenSession = errors.New("session: open failed")
	// ErrCloseSession reports a failure while releasing the sink.
	ErrCloseSession = errors.New("session: close failed")
	// ErrWrite reports an entry that could not be written.
	ErrWrite = errors.New("session: write failed")
)

// Session is a destination for log entries.
type Session interface {
	Open() error
	Close() error
	Write(entry model.Entry) error
}
