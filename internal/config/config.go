package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"botdeck/internal/scheduler"
)

func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.App.Listen) == "" {
		c.App.Listen = ":9980"
	}
	if strings.TrimSpace(c.App.LogLevel) == "" {
		c.App.LogLevel = "info"
	}
	if strings.TrimSpace(c.App.RefreshInterval) == "" {
		c.App.RefreshInterval = "1m"
	}
	if strings.TrimSpace(c.BotsFile) == "" {
		c.BotsFile = "configs/bots.yaml"
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		c.Upstream.TimeoutSeconds = 15
	}
	if c.Upstream.BreakerThreshold <= 0 {
		c.Upstream.BreakerThreshold = 3
	}
	if c.Upstream.BreakerCooldownSeconds <= 0 {
		c.Upstream.BreakerCooldownSeconds = 60
	}
}

func validate(c *Config) error {
	if _, ok := scheduler.ParseIntervalDuration(c.App.RefreshInterval); !ok {
		return fmt.Errorf("app.refresh_interval invalid: %q", c.App.RefreshInterval)
	}
	switch strings.ToLower(strings.TrimSpace(c.App.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level invalid: %q", c.App.LogLevel)
	}
	return nil
}
