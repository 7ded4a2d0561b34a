package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/logrelay/internal/model"
	"github.com/tinytelemetry/logrelay/internal/socketrpc"
)

const defaultUpdateInterval = model.DefaultUpdateInterval

// cliConfig holds only TUI-relevant configuration.
type cliConfig struct {
	UpdateInterval time.Duration `mapstructure:"update-interval"`
	SocketPath     string        `mapstructure:"socket-path"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	v := viper.New()
	v.SetEnvPrefix("LOGRELAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("update-interval", defaultUpdateInterval)
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())

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
	if cfg.UpdateInterval <= 0 {
		return cfg, fmt.Errorf("invalid update-interval: %s", cfg.UpdateInterval)
	}
	return cfg, nil
}

// applyFlags lets command-line flags override the loaded config. Zero
// values leave the config untouched.
func applyFlags(cfg *cliConfig, socketPath string, interval time.Duration) error {
	if socketPath != "" {
		cfg.SocketPath = socketPath
	}
	if interval < 0 {
		return fmt.Errorf("invalid -interval: %s", interval)
	}
	if interval > 0 {
		cfg.UpdateInterval = interval
	}
	return nil
}
