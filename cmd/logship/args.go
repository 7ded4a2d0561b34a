package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/tinytelemetry/logrelay/internal/logparse"
	"github.com/tinytelemetry/logrelay/internal/model"
	"github.com/tinytelemetry/logrelay/internal/session"
)

// ErrArgument reports unusable command-line arguments.
var ErrArgument = errors.New("invalid arguments")

const usage = "usage: logship [-config file] <file> [LEVEL]\n       logship [-config file] <host> <port> [LEVEL]"

// target is the parsed destination and threshold.
type target struct {
	file  string
	host  string
	port  string
	level model.Level
}

func (t target) isSocket() bool { return t.host != "" }

func (t target) String() string {
	if t.isSocket() {
		return t.host + ":" + t.port
	}
	return t.file
}

// parseArgs interprets the positional arguments. Two or more arguments
// whose second is a port number select a socket destination; otherwise the
// first argument is a file path. An unknown level name is reported on
// diag and defaultLevel is used instead.
func parseArgs(args []string, defaultLevel string, diag io.Writer) (target, error) {
	var t target
	var levelArgs []string

	switch {
	case len(args) == 0:
		return t, fmt.Errorf("%w: missing destination", ErrArgument)
	case len(args) >= 2 && isPort(args[1]):
		t.host, t.port = args[0], args[1]
		levelArgs = args[2:]
	default:
		t.file = args[0]
		levelArgs = args[1:]
	}
	if len(levelArgs) > 1 {
		return t, fmt.Errorf("%w: unexpected argument %q", ErrArgument, levelArgs[1])
	}

	name := defaultLevel
	if len(levelArgs) == 1 {
		name = levelArgs[0]
	}
	level, ok := logparse.ParseSeverity(name)
	if !ok {
		fmt.Fprintf(diag, "level: %s\n", logparse.ValidSeverityList())
		level = model.LevelInfo
	}
	t.level = level
	return t, nil
}

func isPort(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n > 0 && n <= 65535
}

func (t target) newLogger(cfg appConfig) *session.Logger {
	if t.isSocket() {
		return session.NewLogger(session.NewSocketSession(t.host, t.port, cfg.DialTimeout), t.level)
	}
	return session.NewFileLogger(t.file, t.level)
}
