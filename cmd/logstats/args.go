package main

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// ErrArgument reports unusable command-line arguments.
var ErrArgument = errors.New("invalid arguments")

const usage = "usage: logstats [-config file] <host> <port> <message-interval> <time-interval-sec>"

// applyArgs validates the positional arguments and overrides cfg with them.
// With no arguments the configured values are validated as-is.
func applyArgs(cfg *appConfig, args []string) error {
	switch len(args) {
	case 0:
	case 4:
		cfg.Host = args[0]
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: port %q is not a number", ErrArgument, args[1])
		}
		cfg.Port = port
		count, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("%w: message interval %q is not a number", ErrArgument, args[2])
		}
		cfg.MessageInterval = count
		secs, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("%w: time interval %q is not a number", ErrArgument, args[3])
		}
		if secs < 1 {
			return fmt.Errorf("%w: time interval must be at least 1 second", ErrArgument)
		}
		cfg.FlushInterval = time.Duration(secs) * time.Second
	default:
		return fmt.Errorf("%w: expected 4 arguments, got %d", ErrArgument, len(args))
	}

	if ip := net.ParseIP(cfg.Host); ip == nil || ip.To4() == nil {
		return fmt.Errorf("%w: host %q is not an IPv4 address", ErrArgument, cfg.Host)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrArgument, cfg.Port)
	}
	if cfg.MessageInterval < 1 {
		return fmt.Errorf("%w: message interval must be at least 1", ErrArgument)
	}
	if cfg.FlushInterval < time.Second {
		return fmt.Errorf("%w: time interval must be at least 1 second", ErrArgument)
	}
	return nil
}
