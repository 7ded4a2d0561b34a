package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func baseConfig() appConfig {
	return appConfig{
		Host:            defaultBindHost,
		Port:            defaultCollectorPort,
		MessageInterval: defaultMessageInterval,
		FlushInterval:   defaultFlushInterval,
	}
}

func TestApplyArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		args      []string
		wantErr   bool
		wantAddr  string
		wantCount int
		wantFlush time.Duration
	}{
		{name: "valid", args: []string{"0.0.0.0", "5000", "3", "7"}, wantAddr: "0.0.0.0:5000", wantCount: 3, wantFlush: 7 * time.Second},
		{name: "config only", args: nil, wantAddr: "127.0.0.1:4000", wantCount: 10, wantFlush: 5 * time.Second},
		{name: "too few", args: []string{"127.0.0.1", "4000", "3"}, wantErr: true},
		{name: "hostname", args: []string{"localhost", "4000", "3", "1"}, wantErr: true},
		{name: "ipv6", args: []string{"::1", "4000", "3", "1"}, wantErr: true},
		{name: "port zero", args: []string{"127.0.0.1", "0", "3", "1"}, wantErr: true},
		{name: "port too big", args: []string{"127.0.0.1", "70000", "3", "1"}, wantErr: true},
		{name: "port text", args: []string{"127.0.0.1", "http", "3", "1"}, wantErr: true},
		{name: "zero count", args: []string{"127.0.0.1", "4000", "0", "1"}, wantErr: true},
		{name: "zero seconds", args: []string{"127.0.0.1", "4000", "1", "0"}, wantErr: true},
		{name: "negative seconds", args: []string{"127.0.0.1", "4000", "1", "-5"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := baseConfig()
			err := applyArgs(&cfg, tt.args)
			if tt.wantErr {
				if !errors.Is(err, ErrArgument) {
					t.Fatalf("applyArgs() error = %v, want ErrArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("applyArgs() error = %v", err)
			}
			if cfg.ListenAddr() != tt.wantAddr || cfg.MessageInterval != tt.wantCount || cfg.FlushInterval != tt.wantFlush {
				t.Fatalf("cfg = %s count=%d flush=%s", cfg.ListenAddr(), cfg.MessageInterval, cfg.FlushInterval)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.ListenAddr() != "127.0.0.1:4000" {
		t.Errorf("ListenAddr() = %q", cfg.ListenAddr())
	}
	if cfg.MessageInterval != defaultMessageInterval || cfg.FlushInterval != defaultFlushInterval {
		t.Errorf("intervals = %d / %s", cfg.MessageInterval, cfg.FlushInterval)
	}
	if cfg.MaxFrameSize != defaultMaxFrameSize || !cfg.SocketEnabled || cfg.APIEnabled || cfg.ArchivePath != "" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	t.Setenv("LOGRELAY_MESSAGE_INTERVAL", "25")

	path := filepath.Join(t.TempDir(), "config.yml")
	yaml := "flush-interval: 2s\napi-enabled: true\narchive-path: ~/logrelay/archive.duckdb\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.MessageInterval != 25 || cfg.FlushInterval != 2*time.Second || !cfg.APIEnabled {
		t.Fatalf("cfg = %+v", cfg)
	}
	if home, err := os.UserHomeDir(); err == nil {
		if want := filepath.Join(home, "logrelay", "archive.duckdb"); cfg.ArchivePath != want {
			t.Fatalf("ArchivePath = %q, want %q", cfg.ArchivePath, want)
		}
	}
	if cfg.ConfigPath != path {
		t.Fatalf("ConfigPath = %q", cfg.ConfigPath)
	}
}

func TestLoadConfigRejectsBadFrameSize(t *testing.T) {
	t.Setenv("LOGRELAY_MAX_FRAME_SIZE", "0")
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error for max-frame-size 0")
	}
}
