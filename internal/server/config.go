package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	DevMode   bool          `mapstructure:"dev_mode"`
	StaticDir string        `mapstructure:"static_dir"`
	RateLimit RateLimit     `mapstructure:"-"`
	Shutdown  time.Duration `mapstructure:"shutdown_timeout"`
}

// RateLimit holds the per-IP rate limit.
type RateLimit struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerConfig reads the server and ratelimit sections of v.
func ServerConfig(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.UnmarshalKey("server", &c); err != nil {
		return Config{}, fmt.Errorf("server config: %w", err)
	}
	if err := v.UnmarshalKey("ratelimit", &c.RateLimit); err != nil {
		return Config{}, fmt.Errorf("ratelimit config: %w", err)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return Config{}, fmt.Errorf("server.port %d out of range", c.Port)
	}
	return c, nil
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8484)
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.path", "./data/startpage.db")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_ttl", "0s")
	v.SetDefault("ratelimit.rps", 50)
	v.SetDefault("ratelimit.burst", 100)

	// Plugin defaults
	v.SetDefault("backgrounds.max_size", "10MB")
	v.SetDefault("backgrounds.memory_fallback", true)
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.timeout", "10s")
	v.SetDefault("webhook.queue_size", 64)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("startpage")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/startpage")
	}

	// Environment variable support: SP_SERVER_PORT=9090
	v.SetEnvPrefix("SP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
