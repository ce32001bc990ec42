package config

// Config is the root of configs/config.yaml.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	BotsFile string         `mapstructure:"bots_file"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
}

type AppConfig struct {
	Listen          string `mapstructure:"listen"`
	LogLevel        string `mapstructure:"log_level"`
	LogPath         string `mapstructure:"log_path"`
	RefreshInterval string `mapstructure:"refresh_interval"`
}

// UpstreamConfig holds shared client settings; per-bot base URLs and
// credentials live in the bots file.
type UpstreamConfig struct {
	TimeoutSeconds         int `mapstructure:"timeout_seconds"`
	BreakerThreshold       int `mapstructure:"breaker_threshold"`
	BreakerCooldownSeconds int `mapstructure:"breaker_cooldown_seconds"`
}
