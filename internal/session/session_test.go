package session

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tinytelemetry/logrelay/internal/framing"
	"github.com/tinytelemetry/logrelay/internal/model"
	"github.com/tinytelemetry/logrelay/internal/protocol"
)

// recordingSession captures writes for Logger tests.
type recordingSession struct {
	entries  []model.Entry
	writeErr error
}

func (r *recordingSession) Open() error  { return nil }
func (r *recordingSession) Close() error { return nil }
func (r *recordingSession) Write(e model.Entry) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	r.entries = append(r.entries, e)
	return nil
}

func TestFileSessionAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	if err := os.WriteFile(path, []byte("existing line\n"), 0644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	s := NewFileSession(path)
	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	e := model.Entry{Message: "hello", Level: model.LevelInfo, Time: 1700000000}
	if err := s.Write(e); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "existing line\n" + protocol.PrintLogEntry(e) + "\n"
	if string(data) != want {
		t.Fatalf("file content = %q, want %q", data, want)
	}
}

func TestFileSessionOpenError(t *testing.T) {
	s := NewFileSession(filepath.Join(t.TempDir(), "missing", "dir", "out.log"))
	if err := s.Open(); !errors.Is(err, ErrOpenSession) {
		t.Fatalf("Open() = %v, want ErrOpenSession", err)
	}
}

func TestFileSessionWriteBeforeOpen(t *testing.T) {
	s := NewFileSession(filepath.Join(t.TempDir(), "out.log"))
	if err := s.Write(model.Entry{Message: "x"}); !errors.Is(err, ErrWrite) {
		t.Fatalf("Write() = %v, want ErrWrite", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() on unopened session = %v", err)
	}
}

func TestResolveIPv4(t *testing.T) {
	tests := []struct {
		host, port string
		ok         bool
	}{
		{"127.0.0.1", "4000", true},
		{"0.0.0.0", "65535", true},
		{"localhost", "4000", false},
		{"::1", "4000", false},
		{"127.0.0.1", "0", false},
		{"127.0.0.1", "70000", false},
		{"127.0.0.1", "http", false},
	}
	for _, tt := range tests {
		t.Run(tt.host+":"+tt.port, func(t *testing.T) {
			_, err := ResolveIPv4(tt.host, tt.port)
			if (err == nil) != tt.ok {
				t.Fatalf("ResolveIPv4(%q, %q) error = %v, want ok=%v", tt.host, tt.port, err, tt.ok)
			}
		})
	}
}

func TestSocketSessionSendsFrames(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	received := make(chan []string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			received <- nil
			return
		}
		defer conn.Close()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var frames []string
		for {
			payload, err := framing.Receive(conn)
			if err != nil {
				break
			}
			frames = append(frames, string(payload))
		}
		received <- frames
	}()

	host, port, _ := net.SplitHostPort(ln.Addr().String())
	s := NewSocketSession(host, port, time.Second)
	if err := s.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	entries := []model.Entry{
		{Message: "first", Level: model.LevelInfo, Time: 1},
		{Message: "second one", Level: model.LevelError, Time: 2},
	}
	for _, e := range entries {
		if err := s.Write(e); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case frames := <-received:
		want := []string{"first 0 1", "second one 2 2"}
		if strings.Join(frames, "|") != strings.Join(want, "|") {
			t.Fatalf("frames = %q, want %q", frames, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for frames")
	}
}

func TestSocketSessionOpenErrors(t *testing.T) {
	if err := NewSocketSession("not-an-ip", "4000").Open(); !errors.Is(err, ErrOpenSession) {
		t.Fatalf("Open(bad host) = %v, want ErrOpenSession", err)
	}

	// Grab a free port and release it so nothing is listening there.
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()

	if err := NewSocketSession(host, port, time.Second).Open(); !errors.Is(err, ErrOpenSession) {
		t.Fatalf("Open(refused) = %v, want ErrOpenSession", err)
	}
}

func TestLoggerFiltering(t *testing.T) {
	tests := []struct {
		name      string
		threshold model.Level
		raw       string
		want      []model.Entry
	}{
		{"untagged uses threshold", model.LevelWarn, "plain line", []model.Entry{{Message: "plain line", Level: model.LevelWarn, Time: 5}}},
		{"tagged above threshold", model.LevelWarn, "boom ERROR", []model.Entry{{Message: "boom", Level: model.LevelError, Time: 5}}},
		{"tagged equal threshold", model.LevelWarn, "careful WARN", []model.Entry{{Message: "careful", Level: model.LevelWarn, Time: 5}}},
		{"tagged below threshold dropped", model.LevelError, "chatty INFO", nil},
		{"blank dropped", model.LevelInfo, "   ", nil},
		{"tag only dropped", model.LevelInfo, "WARN", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingSession{}
			l := NewLogger(rec, tt.threshold)
			if err := l.LogWrite(tt.raw, 5); err != nil {
				t.Fatalf("LogWrite: %v", err)
			}
			if len(rec.entries) != len(tt.want) {
				t.Fatalf("wrote %d entries, want %d (%+v)", len(rec.entries), len(tt.want), rec.entries)
			}
			for i := range tt.want {
				if rec.entries[i] != tt.want[i] {
					t.Fatalf("entry %d = %+v, want %+v", i, rec.entries[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoggerSetLevel(t *testing.T) {
	rec := &recordingSession{}
	l := NewLogger(rec, model.LevelInfo)

	_ = l.LogWrite("note INFO", 1)
	l.SetLevel(model.LevelError)
	if got := l.Level(); got != model.LevelError {
		t.Fatalf("Level() = %v, want ERROR", got)
	}
	_ = l.LogWrite("note INFO", 2)
	_ = l.LogWrite("bad ERROR", 3)

	if len(rec.entries) != 2 {
		t.Fatalf("wrote %d entries, want 2: %+v", len(rec.entries), rec.entries)
	}
	if rec.entries[1].Message != "bad" {
		t.Fatalf("second entry = %+v", rec.entries[1])
	}
}

func TestLoggerPropagatesWriteError(t *testing.T) {
	rec := &recordingSession{writeErr: ErrWrite}
	l := NewLogger(rec, model.LevelInfo)
	if err := l.LogWrite("line", 1); !errors.Is(err, ErrWrite) {
		t.Fatalf("LogWrite() = %v, want ErrWrite", err)
	}
}
