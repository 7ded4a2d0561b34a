package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tinytelemetry/logrelay/internal/shipper"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/logrelay/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("logship - Log Shipper\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	t, err := parseArgs(flag.Args(), cfg.Level, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n%s\n", err, usage)
		os.Exit(1)
	}

	runShipper(cfg, t)
}

// runShipper pumps stdin into the destination until stdin ends or a
// signal arrives. A failed session is reported but does not change the
// exit status.
func runShipper(cfg appConfig, t target) {
	cleanupLogger := configureRuntimeLogger(cfg.LogFile)
	defer cleanupLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := t.newLogger(cfg)
	log.Printf("logship: shipping stdin to %s at level %s", t, t.level)

	err := shipper.Run(ctx, os.Stdin, logger, shipper.Config{MaxLineSize: cfg.MaxLineSize})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

// configureRuntimeLogger sends diagnostics to path in append mode, or to
// stderr when path is empty or cannot be opened.
func configureRuntimeLogger(path string) func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stderr)
	if path == "" {
		return func() {}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("logship: cannot open log file %s: %v", path, err)
		return func() {}
	}
	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}
