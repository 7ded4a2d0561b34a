package shipper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tinytelemetry/logrelay/internal/channel"
	"github.com/tinytelemetry/logrelay/internal/model"
	"github.com/tinytelemetry/logrelay/internal/protocol"
	"github.com/tinytelemetry/logrelay/internal/session"
)

// fakeSink records lines and fails on selected write numbers (1-based).
type fakeSink struct {
	mu      sync.Mutex
	openErr error
	failOn  map[int]bool
	writes  int
	lines   []string
	closed  bool
}

func (f *fakeSink) Open() error { return f.openErr }
func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
func (f *fakeSink) LogWrite(raw string, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if f.failOn[f.writes] {
		return fmt.Errorf("write %d: %w", f.writes, session.ErrWrite)
	}
	f.lines = append(f.lines, raw)
	return nil
}

func fixedClock(ts ...int64) func() time.Time {
	var mu sync.Mutex
	i := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := ts[len(ts)-1]
		if i < len(ts) {
			t = ts[i]
		}
		i++
		return time.Unix(t, 0)
	}
}

func TestRunFileSinkEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shipped.log")
	logger := session.NewFileLogger(path, model.LevelInfo)

	const t1, t2 = 1700000000, 1700000005
	input := strings.NewReader("hello\nwarn msg WARN\n")
	if err := Run(context.Background(), input, logger, Config{Now: fixedClock(t1, t2)}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := protocol.PrintLogEntry(model.Entry{Message: "hello", Level: model.LevelInfo, Time: t1}) + "\n" +
		protocol.PrintLogEntry(model.Entry{Message: "warn msg", Level: model.LevelWarn, Time: t2}) + "\n"
	if string(data) != want {
		t.Fatalf("sink content =\n%q\nwant\n%q", data, want)
	}
}

func TestRunDropsBlankAndFilteredLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shipped.log")
	logger := session.NewFileLogger(path, model.LevelWarn)

	input := strings.NewReader("\n   \nnoise INFO\nuntagged\nbad ERROR\n")
	if err := Run(context.Background(), input, logger, Config{Now: fixedClock(1)}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "untagged WARN ") || !strings.HasPrefix(lines[1], "bad ERROR ") {
		t.Fatalf("unexpected lines: %q", lines)
	}
}

func TestRunOpenFailureStopsProducer(t *testing.T) {
	sink := &fakeSink{openErr: session.ErrOpenSession}
	input := strings.NewReader(strings.Repeat("line\n", 100))

	err := Run(context.Background(), input, sink)
	if !errors.Is(err, session.ErrOpenSession) {
		t.Fatalf("Run() = %v, want ErrOpenSession", err)
	}
	if len(sink.lines) != 0 {
		t.Fatalf("sink received %d lines after failed open", len(sink.lines))
	}
}

func TestWorkDrainsAfterWriteFailure(t *testing.T) {
	ch := channel.New()
	for i := 1; i <= 5; i++ {
		ch.Send(fmt.Sprintf("line %d", i), int64(i))
	}

	sink := &fakeSink{failOn: map[int]bool{2: true}}
	err := work(sink, ch)
	if !errors.Is(err, session.ErrWrite) {
		t.Fatalf("work() = %v, want ErrWrite", err)
	}

	want := []string{"line 1", "line 3", "line 4", "line 5"}
	if strings.Join(sink.lines, ",") != strings.Join(want, ",") {
		t.Fatalf("written = %q, want %q", sink.lines, want)
	}
	if ch.Send("after failure", 6) {
		t.Fatal("Send succeeded after worker failure")
	}
	if !sink.closed {
		t.Fatal("sink was not closed")
	}
}

func TestWorkDrainStopsOnSecondFailure(t *testing.T) {
	ch := channel.New()
	for i := 1; i <= 4; i++ {
		ch.Send(fmt.Sprintf("line %d", i), int64(i))
	}

	sink := &fakeSink{failOn: map[int]bool{1: true, 3: true}}
	_ = work(sink, ch)

	if strings.Join(sink.lines, ",") != "line 2" {
		t.Fatalf("written = %q, want [line 2]", sink.lines)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sink := &fakeSink{}

	done := make(chan error, 1)
	go func() { done <- Run(ctx, r, sink) }()

	if _, err := w.Write([]byte("one\n")); err != nil {
		t.Fatalf("pipe write: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if len(sink.lines) != 1 || sink.lines[0] != "one" {
		t.Fatalf("written = %q, want [one]", sink.lines)
	}
}
