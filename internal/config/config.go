// Package config loads scheduler configuration in layers: viper defaults,
// then an optional YAML file, then environment variables, in that priority
// order.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything needed to construct a scheduler.Service.
type Config struct {
	DataDir              string `mapstructure:"data_dir"`
	HeartbeatTimeoutSec  int    `mapstructure:"heartbeat_timeout_sec"`
	ScheduleIntervalSec  int    `mapstructure:"schedule_interval_sec"`
	SupervisorPollMillis int    `mapstructure:"supervisor_poll_ms"`
	LogLevel             string `mapstructure:"log_level"`
	LogFormat            string `mapstructure:"log_format"`
}

// Load reads configuration from <path>/scheduler.yml (if present), "."
// and "./config", then applies APR_SCHEDULER_* environment overrides.
// Priority: Env Vars > Config File > Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", "/tmp/apr_scheduler")
	v.SetDefault("heartbeat_timeout_sec", 30)
	v.SetDefault("schedule_interval_sec", 1)
	v.SetDefault("supervisor_poll_ms", 500)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetConfigName("scheduler")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Missing config file is fine; defaults and env vars still apply.
	}

	v.SetEnvPrefix("APR_SCHEDULER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("configuration 'data_dir' is required")
	}
	if cfg.HeartbeatTimeoutSec <= 0 {
		return fmt.Errorf("configuration 'heartbeat_timeout_sec' must be > 0")
	}
	if cfg.ScheduleIntervalSec <= 0 {
		return fmt.Errorf("configuration 'schedule_interval_sec' must be > 0")
	}
	if cfg.SupervisorPollMillis <= 0 {
		return fmt.Errorf("configuration 'supervisor_poll_ms' must be > 0")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("unable to create data_dir at %s: %w", cfg.DataDir, err)
	}
	if err := os.MkdirAll(cfg.LogDir(), 0o755); err != nil {
		return fmt.Errorf("unable to create log dir: %w", err)
	}
	return nil
}

// LogDir returns the subdirectory holding per-job log files.
func (c *Config) LogDir() string {
	return c.DataDir + "/logs"
}
