package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/logrelay/internal/archive"
	"github.com/tinytelemetry/logrelay/internal/framing"
	"github.com/tinytelemetry/logrelay/internal/model"
	"github.com/tinytelemetry/logrelay/internal/socketrpc"
	"github.com/tinytelemetry/logrelay/internal/telemetry"
)

const (
	defaultBindHost             = model.DefaultBindHost
	defaultCollectorPort        = model.DefaultCollectorPort
	defaultAPIPort              = model.DefaultAPIPort
	defaultMessageInterval      = model.DefaultMessageInterval
	defaultFlushInterval        = model.DefaultFlushInterval
	defaultMaxFrameSize         = framing.DefaultMaxFrameSize
	defaultRecentEntries        = model.DefaultRecentEntries
	defaultArchiveBatchSize     = archive.DefaultBatchSize
	defaultArchiveFlushInterval = archive.DefaultFlushInterval
	defaultArchiveRetention     = archive.DefaultRetention // 0 = keep forever
	defaultOtelEndpoint         = telemetry.DefaultEndpoint
	defaultOtelInterval         = telemetry.DefaultInterval
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	Host                 string        `mapstructure:"host"`
	Port                 int           `mapstructure:"port"`
	MessageInterval      int           `mapstructure:"message-interval"`
	FlushInterval        time.Duration `mapstructure:"flush-interval"`
	MaxFrameSize         int           `mapstructure:"max-frame-size"`
	RecentEntries        int           `mapstructure:"recent-entries"`
	APIEnabled           bool          `mapstructure:"api-enabled"`
	APIAddr              string        `mapstructure:"api-addr"`
	SocketEnabled        bool          `mapstructure:"socket-enabled"`
	SocketPath           string        `mapstructure:"socket-path"`
	ArchivePath          string        `mapstructure:"archive-path"`
	ArchiveBatchSize     int           `mapstructure:"archive-batch-size"`
	ArchiveFlushInterval time.Duration `mapstructure:"archive-flush-interval"`
	ArchiveRetention     time.Duration `mapstructure:"archive-retention"`
	OtelEnabled          bool          `mapstructure:"otel-enabled"`
	OtelEndpoint         string        `mapstructure:"otel-endpoint"`
	OtelInterval         time.Duration `mapstructure:"otel-interval"`
	LogFile              string        `mapstructure:"log-file"`
	Banner               bool          `mapstructure:"banner"`
	ConfigPath           string        `mapstructure:"-"` // not from config file
}

// ListenAddr is the collector's host:port.
func (c appConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	v := viper.New()
	v.SetEnvPrefix("LOGRELAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("host", defaultBindHost)
	v.SetDefault("port", defaultCollectorPort)
	v.SetDefault("message-interval", defaultMessageInterval)
	v.SetDefault("flush-interval", defaultFlushInterval)
	v.SetDefault("max-frame-size", defaultMaxFrameSize)
	v.SetDefault("recent-entries", defaultRecentEntries)
	v.SetDefault("api-enabled", false)
	v.SetDefault("api-addr", fmt.Sprintf("%s:%d", defaultBindHost, defaultAPIPort))
	v.SetDefault("socket-enabled", true)
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())
	v.SetDefault("archive-path", "")
	v.SetDefault("archive-batch-size", defaultArchiveBatchSize)
	v.SetDefault("archive-flush-interval", defaultArchiveFlushInterval)
	v.SetDefault("archive-retention", defaultArchiveRetention)
	v.SetDefault("otel-enabled", false)
	v.SetDefault("otel-endpoint", defaultOtelEndpoint)
	v.SetDefault("otel-interval", defaultOtelInterval)
	v.SetDefault("log-file", "")
	v.SetDefault("banner", true)

	home, homeErr := os.UserHomeDir()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else if homeErr == nil {
		v.SetConfigFile(filepath.Join(home, ".config", "logrelay", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.MaxFrameSize <= 0 || uint64(cfg.MaxFrameSize) > uint64(^uint32(0)) {
		return cfg, fmt.Errorf("invalid max-frame-size: %d", cfg.MaxFrameSize)
	}
	if cfg.FlushInterval <= 0 {
		return cfg, fmt.Errorf("invalid flush-interval: %s", cfg.FlushInterval)
	}

	// Expand ~ in archive-path
	if homeErr == nil && strings.HasPrefix(cfg.ArchivePath, "~/") {
		cfg.ArchivePath = filepath.Join(home, cfg.ArchivePath[2:])
	}
	return cfg, nil
}
