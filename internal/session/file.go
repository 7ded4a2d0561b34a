package session

import (
	"fmt"
	"os"

	"github.com/tinytelemetry/logrelay/internal/model"
	"github.com/tinytelemetry/logrelay/internal/protocol"
)

const defaultFileMode = 0644

// FileSession appends one human-readable line per entry to a file.
type FileSession struct {
	path string
	file *os.File
}

// NewFileSession creates a session for path. Nothing is opened until Open.
func NewFileSession(path string) *FileSession {
	return &FileSession{path: path}
}

// Open creates the file if needed and positions writes at its end.
func (s *FileSession) Open() error {
	if s.file != nil {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOpenSession, err)
	}
	s.file = f
	return nil
}

// Close closes the file. Closing an unopened session is a no-op.
func (s *FileSession) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCloseSession, err)
	}
	return nil
}

// Write appends the sink form of entry followed by a newline.
func (s *FileSession) Write(entry model.Entry) error {
	if s.file == nil {
		return fmt.Errorf("%w: %s is not open", ErrWrite, s.path)
	}
	if _, err := s.file.WriteString(protocol.PrintLogEntry(entry) + "\n"); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}
