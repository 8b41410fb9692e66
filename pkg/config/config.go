// Package config loads mpbot configuration from a YAML file with
// MPBOT_* environment variable overrides layered on top.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the full mpbot configuration.
type Config struct {
	// Token is the shared secret configured in the WeChat official-account
	// console. It seeds the webhook signature check.
	Token string `yaml:"token" env:"MPBOT_TOKEN"`

	Host        string `yaml:"host" env:"MPBOT_HOST"`
	Port        int    `yaml:"port" env:"MPBOT_PORT"`
	WebhookPath string `yaml:"webhook_path" env:"MPBOT_WEBHOOK_PATH"`

	// APIKey guards the operational endpoints (/api/ws). The webhook itself
	// is authenticated by the WeChat signature, never by this key.
	APIKey string `yaml:"api_key" env:"MPBOT_API_KEY"`

	LogLevel string `yaml:"log_level" env:"MPBOT_LOG_LEVEL"`

	Session SessionConfig `yaml:"session"`
}

// SessionConfig selects and tunes the session store backend.
type SessionConfig struct {
	// Backend is one of "memory", "file" or "sqlite".
	Backend string `yaml:"backend" env:"MPBOT_SESSION_BACKEND"`

	// Dir is the base directory for the file backend.
	Dir string `yaml:"dir" env:"MPBOT_SESSION_DIR"`

	// DBPath is the database file for the sqlite backend.
	DBPath string `yaml:"db_path" env:"MPBOT_SESSION_DB_PATH"`

	// TTL is how long an idle session survives before the sweeper
	// removes it. Zero disables sweeping.
	TTL Duration `yaml:"ttl" env:"MPBOT_SESSION_TTL"`

	// SweepSchedule is a cron expression controlling when the sweeper runs.
	SweepSchedule string `yaml:"sweep_schedule" env:"MPBOT_SESSION_SWEEP_SCHEDULE"`
}

// Duration is a time.Duration that unmarshals from "24h"-style strings in
// both YAML and environment variables.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalText implements encoding.TextUnmarshaler (used by env overrides).
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// Default returns the baseline configuration used when no file is present.
func Default() *Config {
	return &Config{
		Host:        "127.0.0.1",
		Port:        8888,
		WebhookPath: "/wechat",
		LogLevel:    "info",
		Session: SessionConfig{
			Backend:       "file",
			Dir:           "mpbot_sessions",
			DBPath:        "mpbot_sessions.db",
			TTL:           0,
			SweepSchedule: "0 * * * *",
		},
	}
}

// Load builds a Config from defaults, then the YAML file at path (skipped
// when path is empty or missing), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("config: token is required (set token in the config file or MPBOT_TOKEN)")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.WebhookPath == "" || c.WebhookPath[0] != '/' {
		return fmt.Errorf("config: webhook_path must start with /")
	}
	switch c.Session.Backend {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("config: unknown session backend %q", c.Session.Backend)
	}
	return nil
}
