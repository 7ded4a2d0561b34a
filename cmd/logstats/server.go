package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/logrelay/internal/archive"
	"github.com/tinytelemetry/logrelay/internal/httpserver"
	"github.com/tinytelemetry/logrelay/internal/socketrpc"
	"github.com/tinytelemetry/logrelay/internal/stats"
	"github.com/tinytelemetry/logrelay/internal/statserver"
	"github.com/tinytelemetry/logrelay/internal/telemetry"
)

// runServer binds the collector, starts the optional side services and
// blocks until SIGINT/SIGTERM or a fatal accept error.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger(cfg.LogFile)
	defer cleanupLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	agg := stats.NewAggregator(stats.AggregatorConfig{RecentEntries: cfg.RecentEntries})

	srvConf := statserver.ServerConfig{
		MessageInterval: uint64(cfg.MessageInterval),
		FlushInterval:   cfg.FlushInterval,
		MaxFrameSize:    uint32(cfg.MaxFrameSize),
		Output:          os.Stdout,
	}

	if cfg.OtelEnabled {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName: "logstats",
			Endpoint:    cfg.OtelEndpoint,
			Interval:    cfg.OtelInterval,
		})
		if err != nil {
			log.Printf("Warning: failed to initialize metrics export: %v", err)
		} else {
			defer shutdown()
		}
	}
	srvConf.Recorder = telemetry.NewIngestMetrics(nil)

	var (
		archiveStore  *archive.Store
		archiveReader httpserver.ArchiveReader
	)
	if cfg.ArchivePath != "" {
		store, err := archive.NewStore(cfg.ArchivePath)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer store.Close()
		archiveStore = store
		archiveReader = store

		insertBuffer := archive.NewInsertBuffer(store, archive.InsertBufferConfig{
			BatchSize:     cfg.ArchiveBatchSize,
			FlushInterval: cfg.ArchiveFlushInterval,
		})
		defer insertBuffer.Stop()
		srvConf.Sinks = append(srvConf.Sinks, insertBuffer)
	}

	srv := statserver.NewServer(cfg.ListenAddr(), agg, srvConf)
	if err := srv.Listen(); err != nil {
		return err
	}

	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, agg, archiveReader)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	socketPath := ""
	if cfg.SocketEnabled {
		sockServer := socketrpc.NewServer(cfg.SocketPath, agg)
		if err := sockServer.Start(); err != nil {
			log.Printf("Warning: failed to start socket server: %v", err)
		} else {
			defer sockServer.Stop()
			socketPath = sockServer.Path()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nForce shutdown.")
		case <-deadline.C:
			fmt.Fprintln(os.Stderr, "Shutdown timed out, forcing exit.")
		}
		cleanupSocket(socketPath)
		os.Exit(1)
	}()

	if cfg.Banner {
		printStartupBanner(cfg, srv.Addr(), socketPath)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if archiveStore != nil {
		g.Go(func() error {
			return archive.RunRetention(gctx, archiveStore, cfg.ArchiveRetention, archive.DefaultPruneInterval)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

func cleanupSocket(path string) {
	if path != "" {
		os.Remove(path)
	}
}

// configureRuntimeLogger sends diagnostics to path in append mode, or to
// stderr when path is empty or cannot be opened. Entries and snapshots
// always go to stdout.
func configureRuntimeLogger(path string) func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stderr)
	if path == "" {
		return func() {}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("logstats: cannot open log file %s: %v", path, err)
		return func() {}
	}
	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStartupBanner(cfg appConfig, listenAddr, socketPath string) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	status := func(enabled bool, label, value string) string {
		if enabled {
			return fmt.Sprintf("    %s  %-14s %s", check, label, cyan.Render(value))
		}
		return fmt.Sprintf("    %s  %-14s %s", dot, label, dim.Render("disabled"))
	}

	separator := dim.Render("    ─────────────────────────────────")

	lines := []string{
		"",
		cyan.Bold(true).Render("    logstats"),
		"    " + dim.Render("v"+version),
		"",
		separator,
		"",
		bold.Render("    Ingest"),
		"",
		status(true, "Shippers", listenAddr),
		fmt.Sprintf("    %s  %-14s %s", check, "Snapshots", dim.Render(fmt.Sprintf("every %d entries or %s idle", cfg.MessageInterval, cfg.FlushInterval))),
		"",
		bold.Render("    Gateway"),
		"",
		status(cfg.APIEnabled, "HTTP API", cfg.APIAddr),
		status(socketPath != "", "Unix Socket", shortenPath(socketPath)),
		status(cfg.OtelEnabled, "OTLP Metrics", cfg.OtelEndpoint),
		"",
		bold.Render("    Storage"),
		"",
		status(cfg.ArchivePath != "", "Archive", shortenPath(cfg.ArchivePath)),
		"",
		bold.Render("    Config"),
		"",
	}
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  %-14s %s", check, "Config File", dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  %-14s %s", dot, "Config File", dim.Render("default (no file)")))
	}
	lines = append(lines,
		"",
		separator,
		"",
		"    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"),
		"",
	)

	// stdout carries entries and snapshots, so the banner goes to stderr
	fmt.Fprintln(os.Stderr, strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
