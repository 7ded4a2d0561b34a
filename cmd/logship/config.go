package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/logrelay/internal/session"
	"github.com/tinytelemetry/logrelay/internal/shipper"
)

const (
	defaultLevel       = "INFO"
	defaultDialTimeout = session.DefaultDialTimeout
	defaultMaxLineSize = shipper.DefaultMaxLineSize
)

// appConfig is internal runtime configuration.
// Positional arguments override what is loaded here.
type appConfig struct {
	Level       string        `mapstructure:"level"`
	LogFile     string        `mapstructure:"log-file"`
	DialTimeout time.Duration `mapstructure:"dial-timeout"`
	MaxLineSize int           `mapstructure:"max-line-size"`
	ConfigPath  string        `mapstructure:"-"`
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	v := viper.New()
	v.SetEnvPrefix("LOGRELAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("level", defaultLevel)
	v.SetDefault("log-file", "")
	v.SetDefault("dial-timeout", defaultDialTimeout)
	v.SetDefault("max-line-size", defaultMaxLineSize)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else if home, err := os.UserHomeDir(); err == nil {
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
	if cfg.DialTimeout <= 0 {
		return cfg, fmt.Errorf("invalid dial-timeout: %s", cfg.DialTimeout)
	}
	if cfg.MaxLineSize <= 0 {
		return cfg, fmt.Errorf("invalid max-line-size: %d", cfg.MaxLineSize)
	}
	return cfg, nil
}
