package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tinytelemetry/logrelay/internal/socketrpc"
	"github.com/tinytelemetry/logrelay/internal/tui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var socketPath string
	var interval time.Duration
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/logrelay/config.yml)")
	flag.StringVar(&socketPath, "socket", "", "override socket path to connect to the logstats collector")
	flag.DurationVar(&interval, "interval", 0, "override the poll interval (e.g. 500ms, 5s)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("logstats-tui - Dashboard Client\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := applyFlags(&cfg, socketPath, interval); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg cliConfig) error {
	client, err := socketrpc.Dial(cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("cannot connect to logstats at %s: %w\nIs the collector running? Start it with: logstats <host> <port> <message-interval> <time-interval-sec>", cfg.SocketPath, err)
	}
	defer client.Close()

	health, err := client.Health()
	if err != nil {
		return fmt.Errorf("logstats at %s is not answering: %w", cfg.SocketPath, err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("logstats at %s reports status %q", cfg.SocketPath, health.Status)
	}

	return tui.Run(client, cfg.UpdateInterval)
}
